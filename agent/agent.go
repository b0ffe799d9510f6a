// Package agent defines the agent snapshot consumed by the office stage
package agent

import (
	"encoding/json"
	"sort"
	"strings"
	"time"
)

// Status drives zone placement and visual state
type Status string

const (
	StatusWorking       Status = "working"
	StatusIdle          Status = "idle"
	StatusBlocked       Status = "blocked"
	StatusCollaborating Status = "collaborating"
)

// Statuses lists every status in display order
var Statuses = []Status{StatusWorking, StatusIdle, StatusBlocked, StatusCollaborating}

// ParseStatus maps a wire string to a Status, unknown values read as working
func ParseStatus(s string) Status {
	switch Status(strings.ToLower(strings.TrimSpace(s))) {
	case StatusIdle:
		return StatusIdle
	case StatusBlocked:
		return StatusBlocked
	case StatusCollaborating:
		return StatusCollaborating
	default:
		return StatusWorking
	}
}

// UnmarshalJSON normalizes unknown statuses
func (s *Status) UnmarshalJSON(data []byte) error {
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*s = ParseStatus(raw)
	return nil
}

// Agent is one snapshot of an office occupant
// The stage treats it as read-only and keys everything on ID
type Agent struct {
	ID                string         `json:"id"`
	Name              string         `json:"name"`
	Emoji             string         `json:"emoji,omitempty"`
	Color             string         `json:"color,omitempty"`
	Status            Status         `json:"status"`
	CollaboratingWith []string       `json:"collaboratingWith,omitempty"`
	CurrentTask       string         `json:"currentTask,omitempty"`
	Activity          string         `json:"activity,omitempty"`
	Online            bool           `json:"online"`
	LastActivity      time.Time      `json:"lastActivity,omitzero"`
	Telemetry         map[string]any `json:"telemetry,omitempty"`
}

// DisplayName falls back to the id when no name is set
func (a Agent) DisplayName() string {
	if a.Name != "" {
		return a.Name
	}
	return a.ID
}

// DisplayEmoji falls back to a generic bot glyph
func (a Agent) DisplayEmoji() string {
	if a.Emoji != "" {
		return a.Emoji
	}
	return "🤖"
}

// CollaboratesWith reports whether a lists id as a collaborator
func (a Agent) CollaboratesWith(id string) bool {
	for _, other := range a.CollaboratingWith {
		if other == id {
			return true
		}
	}
	return false
}

// Clone returns a deep copy so callers can keep snapshots across updates
func (a Agent) Clone() Agent {
	out := a
	if a.CollaboratingWith != nil {
		out.CollaboratingWith = append([]string(nil), a.CollaboratingWith...)
	}
	if a.Telemetry != nil {
		out.Telemetry = make(map[string]any, len(a.Telemetry))
		for k, v := range a.Telemetry {
			out.Telemetry[k] = v
		}
	}
	return out
}

// CloneAll deep-copies a snapshot list
func CloneAll(agents []Agent) []Agent {
	if agents == nil {
		return nil
	}
	out := make([]Agent, len(agents))
	for i, a := range agents {
		out[i] = a.Clone()
	}
	return out
}

// Index maps ids to their position in agents, later duplicates win
func Index(agents []Agent) map[string]int {
	idx := make(map[string]int, len(agents))
	for i, a := range agents {
		idx[a.ID] = i
	}
	return idx
}

// Pair is an unordered pair of agent ids with A < B
type Pair struct {
	A, B string
}

// CollaborationPairs returns each collaborating pair once, ordered by id
// A pair is reported when either side lists the other and both are present
func CollaborationPairs(agents []Agent) []Pair {
	present := make(map[string]struct{}, len(agents))
	for _, a := range agents {
		present[a.ID] = struct{}{}
	}

	seen := make(map[Pair]struct{})
	var pairs []Pair
	for _, a := range agents {
		for _, other := range a.CollaboratingWith {
			if other == a.ID {
				continue
			}
			if _, ok := present[other]; !ok {
				continue
			}
			p := Pair{A: a.ID, B: other}
			if p.B < p.A {
				p.A, p.B = p.B, p.A
			}
			if _, dup := seen[p]; dup {
				continue
			}
			seen[p] = struct{}{}
			pairs = append(pairs, p)
		}
	}
	sort.Slice(pairs, func(i, j int) bool {
		if pairs[i].A != pairs[j].A {
			return pairs[i].A < pairs[j].A
		}
		return pairs[i].B < pairs[j].B
	})
	return pairs
}
