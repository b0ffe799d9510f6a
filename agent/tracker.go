package agent

import (
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"
)

const (
	// IdleTimeout demotes a working agent with no activity to idle
	IdleTimeout = 60 * time.Second
	// BlockedLinger returns a blocked agent to idle after this long
	BlockedLinger = 120 * time.Second
	// OfflineRemove drops an offline agent from the roster
	OfflineRemove = 300 * time.Second

	subscriberBuffer = 16
)

// Hook event types understood by the tracker
const (
	EventSessionStart  = "session_start"
	EventSessionEnd    = "session_end"
	EventLLMOutput     = "llm_output"
	EventMessageIn     = "message_in"
	EventMessageOut    = "message_out"
	EventToolCall      = "tool_call"
	EventToolResult    = "tool_result"
	EventAgentError    = "agent_error"
	EventAgentEnd      = "agent_end"
	EventSubagentStart = "subagent_start"
	EventSubagentEnd   = "subagent_end"
)

// Clock supplies the current time, engine time providers satisfy it
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

// Event is a lifecycle hook reported by an agent runtime
type Event struct {
	Type      string         `json:"type"`
	AgentID   string         `json:"agentId"`
	SessionID string         `json:"sessionId"`
	Timestamp time.Time      `json:"timestamp"`
	Data      map[string]any `json:"data,omitempty"`
}

type subagentLink struct {
	parent       string
	child        string
	childSession string
}

// Tracker derives agent status from hook events and publishes snapshots
type Tracker struct {
	mu       sync.Mutex
	agents   map[string]*Agent
	links    []subagentLink
	sessions map[string]string // session id -> agent id
	subs     map[int]chan []Agent
	nextSub  int
	clock    Clock
	logger   *zap.Logger
}

// NewTracker creates an empty tracker, nil clock uses wall time
func NewTracker(clock Clock, logger *zap.Logger) *Tracker {
	if clock == nil {
		clock = systemClock{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Tracker{
		agents:   make(map[string]*Agent),
		sessions: make(map[string]string),
		subs:     make(map[int]chan []Agent),
		clock:    clock,
		logger:   logger,
	}
}

// Subscribe returns a channel of snapshots and a cancel func
// Slow subscribers lose intermediate snapshots, never the latest
func (t *Tracker) Subscribe() (<-chan []Agent, func()) {
	t.mu.Lock()
	defer t.mu.Unlock()

	id := t.nextSub
	t.nextSub++
	ch := make(chan []Agent, subscriberBuffer)
	t.subs[id] = ch

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			t.mu.Lock()
			defer t.mu.Unlock()
			if c, ok := t.subs[id]; ok {
				delete(t.subs, id)
				close(c)
			}
		})
	}
	return ch, cancel
}

// Snapshot returns the online agents sorted by id
func (t *Tracker) Snapshot() []Agent {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.snapshotLocked()
}

func (t *Tracker) snapshotLocked() []Agent {
	out := make([]Agent, 0, len(t.agents))
	for _, a := range t.agents {
		if a.Online {
			out = append(out, a.Clone())
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Ingest applies one hook event
func (t *Tracker) Ingest(ev Event) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if ev.Timestamp.IsZero() {
		ev.Timestamp = t.clock.Now()
	}
	if ev.AgentID != "" && ev.AgentID != "unknown" && ev.SessionID != "" {
		t.sessions[ev.SessionID] = ev.AgentID
	}

	switch ev.Type {
	case EventSessionStart:
		t.sessionStart(ev)
	case EventSessionEnd:
		t.sessionEnd(ev)
	case EventLLMOutput, EventMessageIn, EventMessageOut, EventToolResult:
		t.activity(ev, "")
	case EventToolCall:
		tool, _ := ev.Data["toolName"].(string)
		t.activity(ev, tool)
	case EventAgentError:
		a := t.ensure(ev.AgentID, ev.Timestamp)
		a.Status = StatusBlocked
		a.LastActivity = ev.Timestamp
	case EventAgentEnd:
		if a, ok := t.agents[ev.AgentID]; ok {
			if a.Status != StatusBlocked {
				a.Status = StatusIdle
			}
			a.LastActivity = ev.Timestamp
			a.CurrentTask = ""
		}
	case EventSubagentStart:
		if !t.subagentStart(ev) {
			return
		}
	case EventSubagentEnd:
		kept := t.links[:0]
		for _, l := range t.links {
			if l.childSession != ev.SessionID {
				kept = append(kept, l)
			}
		}
		t.links = kept
		t.updateCollaboration()
	default:
		t.logger.Debug("ignoring unknown agent event", zap.String("type", ev.Type))
		return
	}
	t.broadcastLocked()
}

// Tick ages out idle, blocked and offline agents
func (t *Tracker) Tick() {
	t.mu.Lock()
	defer t.mu.Unlock()

	now := t.clock.Now()
	changed := false
	for id, a := range t.agents {
		elapsed := now.Sub(a.LastActivity)
		if !a.Online && elapsed > OfflineRemove {
			delete(t.agents, id)
			t.removeLinks(id)
			changed = true
			continue
		}
		if a.Status == StatusBlocked && elapsed > BlockedLinger {
			a.Status = StatusIdle
			changed = true
		}
		if a.Status == StatusWorking && elapsed > IdleTimeout {
			a.Status = StatusIdle
			changed = true
		}
	}
	if changed {
		t.updateCollaboration()
		t.broadcastLocked()
	}
}

func (t *Tracker) sessionStart(ev Event) {
	next := &Agent{
		ID:           ev.AgentID,
		Name:         ev.AgentID,
		Status:       StatusWorking,
		LastActivity: ev.Timestamp,
		Online:       true,
	}
	if prev, ok := t.agents[ev.AgentID]; ok {
		next.Name = prev.Name
		next.Emoji = prev.Emoji
		next.Color = prev.Color
		next.CollaboratingWith = prev.CollaboratingWith
		next.CurrentTask = prev.CurrentTask
	}
	t.agents[ev.AgentID] = next
}

func (t *Tracker) sessionEnd(ev Event) {
	if a, ok := t.agents[ev.AgentID]; ok {
		a.Status = StatusIdle
		a.Online = false
		a.LastActivity = ev.Timestamp
		a.CurrentTask = ""
	}
	t.removeLinks(ev.AgentID)
	delete(t.sessions, ev.SessionID)
	t.updateCollaboration()
}

func (t *Tracker) activity(ev Event, task string) {
	a := t.ensure(ev.AgentID, ev.Timestamp)
	if a.Status == StatusBlocked || a.Status == StatusIdle {
		a.Status = StatusWorking
	}
	a.LastActivity = ev.Timestamp
	a.Online = true
	if task != "" {
		a.CurrentTask = task
	}
}

func (t *Tracker) subagentStart(ev Event) bool {
	parentSession, _ := ev.Data["parentSessionKey"].(string)
	if parentSession == "" {
		return false
	}
	parent, ok := t.sessions[parentSession]
	if !ok {
		parent = parentSession
	}
	t.links = append(t.links, subagentLink{
		parent:       parent,
		child:        ev.AgentID,
		childSession: ev.SessionID,
	})
	t.ensure(ev.AgentID, ev.Timestamp)
	t.updateCollaboration()
	return true
}

func (t *Tracker) ensure(id string, ts time.Time) *Agent {
	if a, ok := t.agents[id]; ok {
		return a
	}
	a := &Agent{
		ID:           id,
		Name:         id,
		Status:       StatusWorking,
		LastActivity: ts,
		Online:       true,
	}
	t.agents[id] = a
	return a
}

func (t *Tracker) removeLinks(id string) {
	kept := t.links[:0]
	for _, l := range t.links {
		if l.parent != id && l.child != id {
			kept = append(kept, l)
		}
	}
	t.links = kept
}

func (t *Tracker) updateCollaboration() {
	for _, a := range t.agents {
		a.CollaboratingWith = nil
	}
	for _, l := range t.links {
		if p, ok := t.agents[l.parent]; ok && !p.CollaboratesWith(l.child) {
			p.CollaboratingWith = append(p.CollaboratingWith, l.child)
		}
		if c, ok := t.agents[l.child]; ok && !c.CollaboratesWith(l.parent) {
			c.CollaboratingWith = append(c.CollaboratingWith, l.parent)
		}
	}
	for _, a := range t.agents {
		switch {
		case len(a.CollaboratingWith) > 0 && a.Online:
			a.Status = StatusCollaborating
		case a.Status == StatusCollaborating && a.Online:
			a.Status = StatusWorking
		case a.Status == StatusCollaborating:
			a.Status = StatusIdle
		}
	}
}

func (t *Tracker) broadcastLocked() {
	if len(t.subs) == 0 {
		return
	}
	// Each subscriber owns its snapshot
	snap := t.snapshotLocked()
	first := true
	for _, ch := range t.subs {
		if !first {
			snap = CloneAll(snap)
		}
		first = false
		select {
		case ch <- snap:
		default:
			// Drop the oldest pending snapshot to make room
			select {
			case <-ch:
			default:
			}
			select {
			case ch <- snap:
			default:
			}
		}
	}
}
