package network

import (
	"bufio"
	"net"
	"sync"
	"sync/atomic"
	"time"
)

// PeerID identifies a connected event producer
type PeerID uint32

// peer is one accepted connection with its own read and write loops
type peer struct {
	id       PeerID
	addr     string
	conn     net.Conn
	reader   *bufio.Reader
	writer   *bufio.Writer
	lastSeen atomic.Int64 // UnixNano

	sendCh    chan *Message
	closeCh   chan struct{}
	closeOnce sync.Once
}

func newPeer(id PeerID, conn net.Conn, cfg Config) *peer {
	p := &peer{
		id:      id,
		addr:    conn.RemoteAddr().String(),
		conn:    conn,
		reader:  bufio.NewReaderSize(conn, cfg.BufferSize),
		writer:  bufio.NewWriterSize(conn, cfg.BufferSize),
		sendCh:  make(chan *Message, cfg.SendQueueSize),
		closeCh: make(chan struct{}),
	}
	p.lastSeen.Store(time.Now().UnixNano())
	return p
}

// send queues a reply, false when closed or the queue is full
func (p *peer) send(m *Message) bool {
	select {
	case <-p.closeCh:
		return false
	default:
	}
	select {
	case p.sendCh <- m:
		return true
	default:
		return false
	}
}

func (p *peer) close() {
	p.closeOnce.Do(func() {
		close(p.closeCh)
		p.conn.Close()
	})
}

func (p *peer) done() <-chan struct{} {
	return p.closeCh
}

// readLoop decodes frames until the connection fails or idles past timeout
func (p *peer) readLoop(timeout time.Duration, handle func(*peer, *Message)) error {
	defer p.close()
	for {
		if timeout > 0 {
			_ = p.conn.SetReadDeadline(time.Now().Add(timeout))
		}
		m, err := Decode(p.reader)
		if err != nil {
			return err
		}
		p.lastSeen.Store(time.Now().UnixNano())
		handle(p, m)
	}
}

// writeLoop flushes queued replies
func (p *peer) writeLoop(timeout time.Duration) {
	defer p.close()
	for {
		select {
		case <-p.closeCh:
			return
		case m := <-p.sendCh:
			if timeout > 0 {
				_ = p.conn.SetWriteDeadline(time.Now().Add(timeout))
			}
			if err := m.Encode(p.writer); err != nil {
				return
			}
			if len(p.sendCh) > 0 {
				continue
			}
			if err := p.writer.Flush(); err != nil {
				return
			}
		}
	}
}
