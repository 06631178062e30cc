package emu

import (
	"chipper/hw"
)

// Headless is a host without any output, for batch runs and tests. The keypad
// is driven by a script.
type Headless struct {
	// MaxFrames is the number of frames to run before quitting. 0 means
	// no limit.
	MaxFrames int

	// Script holds keypad states, indexed by frame number. A state stays
	// active until the next scripted one.
	Script map[int]hw.Keypad

	frame int
	keys  hw.Keypad

	// Screen is a copy of the frame buffer, as of the last presented frame.
	Screen hw.Screen
	// Redraws is the number of frames during which the frame buffer changed.
	Redraws int
	// ToneFrames is the number of frames with the tone on.
	ToneFrames int
	// Resets is the number of machine resets.
	Resets int
}

func (h *Headless) Poll() (hw.Keypad, bool) {
	if h.MaxFrames > 0 && h.frame >= h.MaxFrames {
		return hw.Keypad{}, false
	}
	if keys, ok := h.Script[h.frame]; ok {
		h.keys = keys
	}
	h.frame++
	return h.keys, true
}

func (h *Headless) Present(video *hw.Screen, dirty bool) {
	h.Screen = *video
	if dirty {
		h.Redraws++
	}
}

func (h *Headless) Tone(on bool) {
	if on {
		h.ToneFrames++
	}
}

func (h *Headless) OnReset() { h.Resets++ }

func (h *Headless) Close() error { return nil }
