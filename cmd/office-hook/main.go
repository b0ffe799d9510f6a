// Command office-hook forwards JSON hook events from stdin to a vi-office event feed
package main

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/lixenwraith/vi-office/agent"
	"github.com/lixenwraith/vi-office/network"
	"github.com/spf13/pflag"
)

func main() {
	addr := pflag.StringP("addr", "a", "127.0.0.1:7070", "vi-office --listen address")
	ack := pflag.Bool("ack", true, "wait for the office to accept each event")
	timeout := pflag.Duration("timeout", 5*time.Second, "connect and write timeout")
	pflag.Parse()

	cfg := network.DefaultConfig(*addr)
	cfg.ConnectTimeout = *timeout
	cfg.WriteTimeout = *timeout

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	client, err := network.Dial(ctx, cfg)
	cancel()
	if err != nil {
		fmt.Fprintf(os.Stderr, "office-hook: %v\n", err)
		os.Exit(1)
	}
	defer client.Close()

	sent, err := forward(os.Stdin, client, *ack)
	if err != nil {
		fmt.Fprintf(os.Stderr, "office-hook: after %d events: %v\n", sent, err)
		os.Exit(1)
	}
}

// sender is the subset of network.Client forward uses
type sender interface {
	Send(ev agent.Event) error
	SendAck(ev agent.Event) error
}

// forward sends one event per non-empty input line
func forward(r io.Reader, s sender, ack bool) (int, error) {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 64*1024), network.MaxPayload)
	sent := 0
	for line := 1; sc.Scan(); line++ {
		raw := sc.Bytes()
		if len(raw) == 0 {
			continue
		}
		var ev agent.Event
		if err := json.Unmarshal(raw, &ev); err != nil {
			return sent, fmt.Errorf("line %d: %w", line, err)
		}
		if ev.Timestamp.IsZero() {
			ev.Timestamp = time.Now()
		}
		send := s.Send
		if ack {
			send = s.SendAck
		}
		if err := send(ev); err != nil {
			return sent, fmt.Errorf("line %d: %w", line, err)
		}
		sent++
	}
	return sent, sc.Err()
}
