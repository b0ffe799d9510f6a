package network

import (
	"crypto/tls"
	"errors"
	"io"
	"net"
	"sync"
	"sync/atomic"

	"github.com/lixenwraith/vi-office/agent"
	"go.uber.org/zap"
)

// Sink receives decoded hook events, agent.Tracker satisfies it
type Sink interface {
	Ingest(ev agent.Event)
}

// Server accepts event streams from agent runtimes
type Server struct {
	cfg    Config
	sink   Sink
	logger *zap.Logger

	ln      net.Listener
	mu      sync.Mutex
	peers   map[PeerID]*peer
	nextID  atomic.Uint32
	running atomic.Bool
	stopCh  chan struct{}
	wg      sync.WaitGroup

	received atomic.Uint64
	rejected atomic.Uint64
}

// NewServer creates a stopped server feeding sink
func NewServer(cfg Config, sink Sink, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Server{
		cfg:    cfg.withDefaults(),
		sink:   sink,
		logger: logger.Named("feed"),
		peers:  make(map[PeerID]*peer),
		stopCh: make(chan struct{}),
	}
}

// Start binds the listen address and accepts in the background
func (s *Server) Start() error {
	if !s.running.CompareAndSwap(false, true) {
		return nil
	}
	var ln net.Listener
	var err error
	if s.cfg.TLS != nil {
		ln, err = tls.Listen("tcp", s.cfg.Address, s.cfg.TLS)
	} else {
		ln, err = net.Listen("tcp", s.cfg.Address)
	}
	if err != nil {
		s.running.Store(false)
		return err
	}
	s.ln = ln
	s.logger.Info("event feed listening", zap.String("addr", ln.Addr().String()), zap.Bool("tls", s.cfg.TLS != nil))

	s.wg.Add(1)
	go s.acceptLoop()
	return nil
}

// Addr is the bound address, nil before Start
func (s *Server) Addr() net.Addr {
	if s.ln == nil {
		return nil
	}
	return s.ln.Addr()
}

func (s *Server) acceptLoop() {
	defer s.wg.Done()
	for {
		conn, err := s.ln.Accept()
		if err != nil {
			select {
			case <-s.stopCh:
				return
			default:
			}
			if errors.Is(err, net.ErrClosed) {
				return
			}
			s.logger.Warn("accept failed", zap.Error(err))
			continue
		}
		s.add(conn)
	}
}

func (s *Server) add(conn net.Conn) {
	s.mu.Lock()
	if !s.running.Load() {
		s.mu.Unlock()
		conn.Close()
		return
	}
	if len(s.peers) >= s.cfg.MaxPeers {
		s.mu.Unlock()
		s.logger.Warn("peer refused, limit reached", zap.String("addr", conn.RemoteAddr().String()), zap.Int("max", s.cfg.MaxPeers))
		conn.Close()
		return
	}
	p := newPeer(PeerID(s.nextID.Add(1)), conn, s.cfg)
	s.peers[p.id] = p
	s.mu.Unlock()

	s.logger.Debug("peer connected", zap.Uint32("peer", uint32(p.id)), zap.String("addr", p.addr))
	s.wg.Add(2)
	go func() {
		defer s.wg.Done()
		p.writeLoop(s.cfg.WriteTimeout)
	}()
	go func() {
		defer s.wg.Done()
		err := p.readLoop(s.cfg.ReadTimeout, s.handle)
		s.mu.Lock()
		delete(s.peers, p.id)
		s.mu.Unlock()
		if err != nil && !errors.Is(err, io.EOF) && !errors.Is(err, net.ErrClosed) {
			s.logger.Debug("peer dropped", zap.Uint32("peer", uint32(p.id)), zap.Error(err))
		}
	}()
}

func (s *Server) handle(p *peer, m *Message) {
	switch m.Type {
	case MsgHeartbeat:
		p.send(&Message{Type: MsgHeartbeat, Seq: m.Seq})
	case MsgEvent:
		ev, err := m.Event()
		if err != nil {
			s.rejected.Add(1)
			s.logger.Warn("event rejected", zap.Uint32("peer", uint32(p.id)), zap.Error(err))
			if m.NeedAck() {
				p.send(&Message{Type: MsgReject, Seq: m.Seq, Payload: []byte(err.Error())})
			}
			return
		}
		s.received.Add(1)
		if s.sink != nil {
			s.sink.Ingest(ev)
		}
		if m.NeedAck() {
			p.send(&Message{Type: MsgAck, Seq: m.Seq})
		}
	default:
		s.logger.Debug("ignoring frame", zap.Stringer("type", m.Type))
	}
}

// Stop closes the listener and every peer, then waits for their loops
func (s *Server) Stop() error {
	if !s.running.CompareAndSwap(true, false) {
		return nil
	}
	close(s.stopCh)
	err := s.ln.Close()

	s.mu.Lock()
	for _, p := range s.peers {
		p.close()
	}
	s.mu.Unlock()

	s.wg.Wait()
	return err
}

// PeerCount is the number of connected producers
func (s *Server) PeerCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.peers)
}

// Received is the number of events handed to the sink
func (s *Server) Received() uint64 { return s.received.Load() }

// Rejected is the number of malformed events dropped
func (s *Server) Rejected() uint64 { return s.rejected.Load() }
