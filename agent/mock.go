package agent

import "fmt"

var mockNames = []struct {
	name, emoji, color string
}{
	{"Ada", "🦊", "#f97316"},
	{"Bram", "🐻", "#a16207"},
	{"Cleo", "🐱", "#ec4899"},
	{"Dex", "🐸", "#22c55e"},
	{"Eve", "🦉", "#8b5cf6"},
	{"Finn", "🐧", "#0ea5e9"},
	{"Gus", "🐢", "#65a30d"},
	{"Hana", "🐼", "#64748b"},
}

// script is the status sequence each mock agent walks through, offset by index
var script = []Status{
	StatusWorking,
	StatusWorking,
	StatusCollaborating,
	StatusIdle,
	StatusWorking,
	StatusBlocked,
	StatusIdle,
}

// MockSource produces a deterministic roster whose statuses advance per step
type MockSource struct {
	roster []Agent
	step   int
}

// NewMockSource creates n agents, n is clamped to at least one
func NewMockSource(n int) *MockSource {
	if n < 1 {
		n = 1
	}
	roster := make([]Agent, n)
	for i := range roster {
		info := mockNames[i%len(mockNames)]
		name := info.name
		if i >= len(mockNames) {
			name = fmt.Sprintf("%s %d", info.name, i/len(mockNames)+1)
		}
		roster[i] = Agent{
			ID:     fmt.Sprintf("agent-%02d", i+1),
			Name:   name,
			Emoji:  info.emoji,
			Color:  info.color,
			Online: true,
		}
	}
	m := &MockSource{roster: roster}
	m.apply()
	return m
}

// Agents returns a copy of the current snapshot
func (m *MockSource) Agents() []Agent {
	return CloneAll(m.roster)
}

// Step returns the number of advances so far
func (m *MockSource) Step() int {
	return m.step
}

// Advance moves every agent one position along its script and returns the snapshot
func (m *MockSource) Advance() []Agent {
	m.step++
	m.apply()
	return m.Agents()
}

func (m *MockSource) apply() {
	var collab []int
	for i := range m.roster {
		a := &m.roster[i]
		a.Status = script[(i*3+m.step)%len(script)]
		a.CollaboratingWith = nil
		a.CurrentTask = ""
		switch a.Status {
		case StatusWorking:
			a.CurrentTask = fmt.Sprintf("task #%d", (i+1)*10+m.step)
		case StatusCollaborating:
			collab = append(collab, i)
		}
	}

	// Pair collaborators in order, an odd one out falls back to working
	for k := 0; k+1 < len(collab); k += 2 {
		a, b := &m.roster[collab[k]], &m.roster[collab[k+1]]
		a.CollaboratingWith = []string{b.ID}
		b.CollaboratingWith = []string{a.ID}
	}
	if len(collab)%2 == 1 {
		m.roster[collab[len(collab)-1]].Status = StatusWorking
	}
}
