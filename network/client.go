package network

import (
	"bufio"
	"context"
	"crypto/tls"
	"fmt"
	"net"
	"sync"
	"time"

	"github.com/lixenwraith/vi-office/agent"
)

// Client streams hook events to a Server
type Client struct {
	mu      sync.Mutex
	conn    net.Conn
	reader  *bufio.Reader
	writer  *bufio.Writer
	seq     uint32
	timeout time.Duration
}

// Dial connects to cfg.Address
func Dial(ctx context.Context, cfg Config) (*Client, error) {
	cfg = cfg.withDefaults()
	dialer := &net.Dialer{Timeout: cfg.ConnectTimeout}
	var conn net.Conn
	var err error
	if cfg.TLS != nil {
		conn, err = (&tls.Dialer{NetDialer: dialer, Config: cfg.TLS}).DialContext(ctx, "tcp", cfg.Address)
	} else {
		conn, err = dialer.DialContext(ctx, "tcp", cfg.Address)
	}
	if err != nil {
		return nil, fmt.Errorf("network: dial %s: %w", cfg.Address, err)
	}
	return &Client{
		conn:    conn,
		reader:  bufio.NewReaderSize(conn, cfg.BufferSize),
		writer:  bufio.NewWriterSize(conn, cfg.BufferSize),
		timeout: cfg.WriteTimeout,
	}, nil
}

// Send writes ev without waiting for the server
func (c *Client) Send(ev agent.Event) error {
	m, err := EventMessage(ev, false)
	if err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	_, err = c.write(m)
	return err
}

// SendAck writes ev and waits for the server to accept or reject it
func (c *Client) SendAck(ev agent.Event) error {
	m, err := EventMessage(ev, true)
	if err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	seq, err := c.write(m)
	if err != nil {
		return err
	}
	reply, err := c.await(seq)
	if err != nil {
		return err
	}
	if reply.Type == MsgReject {
		return fmt.Errorf("network: event rejected: %s", reply.Payload)
	}
	return nil
}

// Heartbeat round-trips one heartbeat frame
func (c *Client) Heartbeat() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	seq, err := c.write(&Message{Type: MsgHeartbeat})
	if err != nil {
		return err
	}
	_, err = c.await(seq)
	return err
}

func (c *Client) Close() error {
	return c.conn.Close()
}

func (c *Client) write(m *Message) (uint32, error) {
	c.seq++
	m.Seq = c.seq
	if c.timeout > 0 {
		_ = c.conn.SetWriteDeadline(time.Now().Add(c.timeout))
	}
	if err := m.Encode(c.writer); err != nil {
		return 0, err
	}
	return m.Seq, c.writer.Flush()
}

// await reads replies until the one for seq arrives
func (c *Client) await(seq uint32) (*Message, error) {
	if c.timeout > 0 {
		_ = c.conn.SetReadDeadline(time.Now().Add(c.timeout))
		defer c.conn.SetReadDeadline(time.Time{})
	}
	for {
		reply, err := Decode(c.reader)
		if err != nil {
			return nil, fmt.Errorf("network: await %d: %w", seq, err)
		}
		if reply.Seq == seq {
			return reply, nil
		}
	}
}
