package audio

import (
	"fmt"
	"sync"
	"time"

	"github.com/gopxl/beep"
	"github.com/gopxl/beep/effects"
	"github.com/gopxl/beep/speaker"
	"github.com/lixenwraith/vi-office/agent"
	"go.uber.org/zap"
)

const sampleRate = beep.SampleRate(48000)

const (
	// DefaultMinGap drops repeated cues for one agent inside this window
	DefaultMinGap = 750 * time.Millisecond
	// DefaultMaxVoices caps concurrently sounding cues
	DefaultMaxVoices = 4
)

// Cue identifies a status change sound
type Cue int

const (
	CueNone Cue = iota
	CueWorking
	CueIdle
	CueBlocked
	CueCollaborating
)

func (c Cue) String() string {
	switch c {
	case CueWorking:
		return "working"
	case CueIdle:
		return "idle"
	case CueBlocked:
		return "blocked"
	case CueCollaborating:
		return "collaborating"
	default:
		return "none"
	}
}

// CueFor picks the cue announcing a transition into to
func CueFor(from, to agent.Status) Cue {
	if from == to {
		return CueNone
	}
	switch to {
	case agent.StatusWorking:
		return CueWorking
	case agent.StatusIdle:
		return CueIdle
	case agent.StatusBlocked:
		return CueBlocked
	case agent.StatusCollaborating:
		return CueCollaborating
	}
	return CueNone
}

// NewCueVoice builds the streamer for a cue, nil for CueNone
func NewCueVoice(sr beep.SampleRate, c Cue) *Voice {
	ms := time.Millisecond
	switch c {
	case CueWorking:
		return NewVoice(sr, []Note{{523.25, 80 * ms}, {659.25, 120 * ms}}, 0.2)
	case CueIdle:
		return NewVoice(sr, []Note{{659.25, 100 * ms}, {440, 160 * ms}}, 0.1)
	case CueBlocked:
		return NewVoice(sr, []Note{{196, 110 * ms}, {0, 40 * ms}, {196, 110 * ms}}, 0.5)
	case CueCollaborating:
		return NewVoice(sr, []Note{{523.25, 70 * ms}, {659.25, 70 * ms}, {783.99, 110 * ms}}, 0.2)
	}
	return nil
}

// Output is the sink the cue mixer plays into
type Output interface {
	Init(sr beep.SampleRate, bufferSize int) error
	Play(s beep.Streamer)
	Close()
}

// SpeakerOutput plays through the system audio device
type SpeakerOutput struct{}

func (SpeakerOutput) Init(sr beep.SampleRate, bufferSize int) error {
	return speaker.Init(sr, bufferSize)
}

func (SpeakerOutput) Play(s beep.Streamer) {
	speaker.Play(s)
}

func (SpeakerOutput) Close() {
	speaker.Clear()
}

// Options configures a Player, zero values take defaults
type Options struct {
	Logger    *zap.Logger
	Output    Output
	Volume    float64 // log2 gain, 0 is unity
	MinGap    time.Duration
	MaxVoices int
	Now       func() time.Time
}

// Player turns agent status changes into short tones
type Player struct {
	mu          sync.Mutex
	out         Output
	logger      *zap.Logger
	mix         *mixer
	volume      float64
	minGap      time.Duration
	maxVoices   int
	now         func() time.Time
	last        map[string]time.Time
	initialized bool
	enabled     bool
	closed      bool
}

// NewPlayer creates a player, call Initialize before cues sound
func NewPlayer(opts Options) *Player {
	p := &Player{
		out:       opts.Output,
		logger:    opts.Logger,
		mix:       &mixer{},
		volume:    opts.Volume,
		minGap:    opts.MinGap,
		maxVoices: opts.MaxVoices,
		now:       opts.Now,
		last:      make(map[string]time.Time),
		enabled:   true,
	}
	if p.out == nil {
		p.out = SpeakerOutput{}
	}
	if p.logger == nil {
		p.logger = zap.NewNop()
	}
	if p.minGap <= 0 {
		p.minGap = DefaultMinGap
	}
	if p.maxVoices <= 0 {
		p.maxVoices = DefaultMaxVoices
	}
	if p.now == nil {
		p.now = time.Now
	}
	p.logger = p.logger.With(zap.String("component", "audio"))
	return p
}

// Initialize opens the output, repeated calls are no-ops
func (p *Player) Initialize() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.initialized {
		return nil
	}
	if p.closed {
		return fmt.Errorf("audio: player closed")
	}
	if err := p.out.Init(sampleRate, sampleRate.N(100*time.Millisecond)); err != nil {
		return fmt.Errorf("audio: output init: %w", err)
	}
	p.out.Play(p.mix)
	p.initialized = true
	p.logger.Debug("audio output ready", zap.Int("sample_rate", int(sampleRate)))
	return nil
}

// SetEnabled mutes or unmutes later cues
func (p *Player) SetEnabled(on bool) {
	p.mu.Lock()
	p.enabled = on
	p.mu.Unlock()
	if !on {
		p.mix.Clear()
	}
}

func (p *Player) Enabled() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.enabled
}

// Cue reports a status change for id, matches office.CueFunc
func (p *Player) Cue(id string, from, to agent.Status) {
	c := CueFor(from, to)
	if c == CueNone {
		return
	}

	p.mu.Lock()
	now := p.now()
	if last, ok := p.last[id]; ok && now.Sub(last) < p.minGap {
		p.mu.Unlock()
		return
	}
	p.last[id] = now
	p.mu.Unlock()

	if p.Play(c) {
		p.logger.Debug("cue", zap.String("agent", id), zap.Stringer("cue", c))
	}
}

// Play mixes the cue in, false when muted, not initialized or saturated
func (p *Player) Play(c Cue) bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.initialized || !p.enabled || p.closed {
		return false
	}
	v := NewCueVoice(sampleRate, c)
	if v == nil || p.mix.Len() >= p.maxVoices {
		return false
	}
	p.mix.Add(&effects.Volume{Streamer: v, Base: 2, Volume: p.volume})
	return true
}

// Active is the number of cues still sounding
func (p *Player) Active() int {
	return p.mix.Len()
}

// Close stops all sound, the player cannot be reopened
func (p *Player) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return
	}
	p.closed = true
	p.mix.Clear()
	if p.initialized {
		p.out.Close()
	}
}

// mixer guards a beep.Mixer shared with the output goroutine and streams
// silence while empty so the output never drops it
type mixer struct {
	mu sync.Mutex
	m  beep.Mixer
}

func (x *mixer) Stream(samples [][2]float64) (n int, ok bool) {
	x.mu.Lock()
	defer x.mu.Unlock()
	n, _ = x.m.Stream(samples)
	for i := max(n, 0); i < len(samples); i++ {
		samples[i] = [2]float64{}
	}
	return len(samples), true
}

func (x *mixer) Err() error {
	return nil
}

func (x *mixer) Add(s ...beep.Streamer) {
	x.mu.Lock()
	x.m.Add(s...)
	x.mu.Unlock()
}

func (x *mixer) Len() int {
	x.mu.Lock()
	defer x.mu.Unlock()
	return x.m.Len()
}

func (x *mixer) Clear() {
	x.mu.Lock()
	x.m.Clear()
	x.mu.Unlock()
}
