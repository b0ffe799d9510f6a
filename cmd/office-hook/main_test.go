package main

import (
	"errors"
	"strings"
	"testing"

	"github.com/lixenwraith/vi-office/agent"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSender struct {
	sent   []agent.Event
	acked  int
	failOn string
}

func (f *fakeSender) Send(ev agent.Event) error {
	if ev.Type == f.failOn {
		return errors.New("refused")
	}
	f.sent = append(f.sent, ev)
	return nil
}

func (f *fakeSender) SendAck(ev agent.Event) error {
	f.acked++
	return f.Send(ev)
}

func TestForward(t *testing.T) {
	input := `{"type":"session_start","agentId":"a","sessionId":"s1"}

{"type":"tool_call","agentId":"a","data":{"toolName":"grep"}}
`
	s := &fakeSender{}
	n, err := forward(strings.NewReader(input), s, true)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Equal(t, 2, s.acked)
	require.Len(t, s.sent, 2)
	assert.Equal(t, "grep", s.sent[1].Data["toolName"])
	assert.False(t, s.sent[0].Timestamp.IsZero())
}

func TestForwardErrors(t *testing.T) {
	tests := []struct {
		name  string
		input string
		fail  string
		sent  int
		want  string
	}{
		{"bad json", "{\"type\":\"x\"}\n{nope\n", "", 1, "line 2"},
		{"refused", "{\"type\":\"agent_error\"}\n", "agent_error", 0, "refused"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := &fakeSender{failOn: tt.fail}
			n, err := forward(strings.NewReader(tt.input), s, false)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
			assert.Equal(t, tt.sent, n)
			assert.Zero(t, s.acked)
		})
	}
}
