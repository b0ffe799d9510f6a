package audio

import (
	"math"
	"time"

	"github.com/gopxl/beep"
)

// Note is one pitched segment of a cue, Freq 0 is a rest
type Note struct {
	Freq     float64
	Duration time.Duration
}

// Voice renders a note sequence as a mono sine with one overtone
type Voice struct {
	sr        beep.SampleRate
	notes     []Note
	lens      []int
	overtone  float64
	idx       int
	pos       int
	phase     float64
	amplitude float64
}

// NewVoice creates a voice for the notes, overtone is the second harmonic gain
func NewVoice(sr beep.SampleRate, notes []Note, overtone float64) *Voice {
	v := &Voice{
		sr:        sr,
		notes:     notes,
		lens:      make([]int, len(notes)),
		overtone:  overtone,
		amplitude: 0.25,
	}
	for i, n := range notes {
		v.lens[i] = sr.N(n.Duration)
	}
	return v
}

// Len is the total length in samples
func (v *Voice) Len() int {
	total := 0
	for _, l := range v.lens {
		total += l
	}
	return total
}

func (v *Voice) Stream(samples [][2]float64) (n int, ok bool) {
	for i := range samples {
		for v.idx < len(v.notes) && v.pos >= v.lens[v.idx] {
			v.idx++
			v.pos = 0
			v.phase = 0
		}
		if v.idx >= len(v.notes) {
			return i, i > 0
		}

		note := v.notes[v.idx]
		sample := 0.0
		if note.Freq > 0 {
			sample = math.Sin(2*math.Pi*v.phase) + v.overtone*math.Sin(4*math.Pi*v.phase)
			sample *= v.amplitude * envelope(v.pos, v.lens[v.idx], v.sr)
			v.phase += note.Freq / float64(v.sr)
			if v.phase >= 1 {
				v.phase -= 1
			}
		}

		samples[i][0] = sample
		samples[i][1] = sample
		v.pos++
	}
	return len(samples), true
}

func (v *Voice) Err() error {
	return nil
}

// envelope is a linear attack and release that keeps note edges click free
func envelope(pos, length int, sr beep.SampleRate) float64 {
	attack := min(sr.N(5*time.Millisecond), length/4)
	release := min(sr.N(30*time.Millisecond), length/3)
	level := 1.0
	if attack > 0 && pos < attack {
		level = float64(pos) / float64(attack)
	}
	if tail := length - pos; release > 0 && tail < release {
		level = math.Min(level, float64(tail)/float64(release))
	}
	return level
}
