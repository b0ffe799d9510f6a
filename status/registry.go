// Package status collects lock-free runtime metrics for the host footer and shutdown log
package status

import (
	"fmt"
	"strings"
	"sync/atomic"

	"github.com/dustin/go-humanize"
	"go.uber.org/zap"
)

// Registry hands out named metrics; hot paths cache the pointers
type Registry struct {
	counters *set[atomic.Int64]
	gauges   *set[Gauge]
	labels   *set[Label]
}

func NewRegistry() *Registry {
	return &Registry{
		counters: newSet[atomic.Int64](),
		gauges:   newSet[Gauge](),
		labels:   newSet[Label](),
	}
}

func (r *Registry) Counter(name string) *atomic.Int64 { return r.counters.get(name) }
func (r *Registry) Gauge(name string) *Gauge          { return r.gauges.get(name) }
func (r *Registry) Label(name string) *Label          { return r.labels.get(name) }

// Len is the number of registered metrics of every type
func (r *Registry) Len() int {
	return r.counters.len() + r.gauges.len() + r.labels.len()
}

// Sample is one metric rendered for display
type Sample struct {
	Name  string
	Value string
}

// Snapshot returns counters, gauges, then labels, each in name order
func (r *Registry) Snapshot() []Sample {
	var out []Sample
	r.counters.each(func(name string, c *atomic.Int64) {
		out = append(out, Sample{name, humanize.Comma(c.Load())})
	})
	r.gauges.each(func(name string, g *Gauge) {
		out = append(out, Sample{name, humanize.FtoaWithDigits(g.Get(), 2)})
	})
	r.labels.each(func(name string, l *Label) {
		out = append(out, Sample{name, l.Get()})
	})
	return out
}

// String joins the snapshot as name=value pairs
func (r *Registry) String() string {
	samples := r.Snapshot()
	parts := make([]string, len(samples))
	for i, s := range samples {
		parts[i] = fmt.Sprintf("%s=%s", s.Name, s.Value)
	}
	return strings.Join(parts, " ")
}

// Fields renders the snapshot as zap fields
func (r *Registry) Fields() []zap.Field {
	samples := r.Snapshot()
	fields := make([]zap.Field, len(samples))
	for i, s := range samples {
		fields[i] = zap.String(s.Name, s.Value)
	}
	return fields
}
