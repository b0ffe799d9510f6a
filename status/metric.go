package status

import (
	"math"
	"sort"
	"sync"
	"sync/atomic"
)

// Gauge is a float64 updated atomically, zero value reads 0
type Gauge struct {
	bits atomic.Uint64
}

func (g *Gauge) Set(v float64) {
	g.bits.Store(math.Float64bits(v))
}

func (g *Gauge) Get() float64 {
	return math.Float64frombits(g.bits.Load())
}

// Label is a string updated atomically, zero value reads ""
type Label struct {
	ptr atomic.Pointer[string]
}

func (l *Label) Set(s string) {
	l.ptr.Store(&s)
}

func (l *Label) Get() string {
	if p := l.ptr.Load(); p != nil {
		return *p
	}
	return ""
}

// set holds lazily created metrics of one type, callers keep the returned pointer
type set[T any] struct {
	mu    sync.RWMutex
	items map[string]*T
}

func newSet[T any]() *set[T] {
	return &set[T]{items: make(map[string]*T)}
}

func (s *set[T]) get(name string) *T {
	s.mu.RLock()
	ptr, ok := s.items[name]
	s.mu.RUnlock()
	if ok {
		return ptr
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if ptr, ok := s.items[name]; ok {
		return ptr
	}
	ptr = new(T)
	s.items[name] = ptr
	return ptr
}

// each visits metrics in name order
func (s *set[T]) each(fn func(name string, ptr *T)) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	names := make([]string, 0, len(s.items))
	for k := range s.items {
		names = append(names, k)
	}
	sort.Strings(names)
	for _, k := range names {
		fn(k, s.items[k])
	}
}

func (s *set[T]) len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.items)
}
