package hw

import (
	"math"

	"github.com/arl/blip"
)

const (
	toneClockRate = 1_000_000 // virtual clock the square wave edges are timed on
	FrameRate     = 60
	frameClocks   = toneClockRate / FrameRate
)

// Tone synthesizes the square wave played while the sound timer runs. It's
// driven one 60Hz frame at a time.
type Tone struct {
	buf *blip.Buffer
	out []int16

	halfPeriod float64 // in clocks
	amp        int32

	level int32   // current output level
	edge  float64 // clock of the next edge, relative to the frame start
	high  bool
}

// NewTone returns a square wave generator at freq Hz, producing mono 16-bit
// samples at sampleRate. volume is in [0, 1].
func NewTone(sampleRate int, freq, volume float64) *Tone {
	maxSamples := sampleRate/FrameRate + 16
	t := &Tone{
		buf:        blip.NewBuffer(maxSamples),
		out:        make([]int16, maxSamples),
		halfPeriod: toneClockRate / (2 * freq),
		amp:        int32(volume * math.MaxInt16),
	}
	t.buf.SetRates(toneClockRate, float64(sampleRate))
	return t
}

// EndFrame synthesizes one frame worth of samples, silent unless on is true.
// The returned slice is only valid until the next call.
func (t *Tone) EndFrame(on bool) []int16 {
	if on {
		for t.edge < frameClocks {
			lvl := t.amp
			if t.high {
				lvl = -t.amp
			}
			t.setLevel(uint64(t.edge), lvl)
			t.high = !t.high
			t.edge += t.halfPeriod
		}
		t.edge -= frameClocks
	} else {
		t.setLevel(0, 0)
		t.edge, t.high = 0, false
	}

	t.buf.EndFrame(frameClocks)
	n := t.buf.ReadSamples(t.out, len(t.out), blip.Mono)
	return t.out[:n]
}

func (t *Tone) setLevel(time uint64, lvl int32) {
	if delta := lvl - t.level; delta != 0 {
		t.buf.AddDelta(time, delta)
		t.level = lvl
	}
}

// Reset silences the generator and drops buffered samples.
func (t *Tone) Reset() {
	t.buf.Clear()
	t.level, t.edge, t.high = 0, 0, false
}
