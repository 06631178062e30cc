// Package ui implements the graphical host: an SDL window showing the screen
// through an OpenGL texture, the keyboard mapped onto the keypad and the tone
// played on the default audio device.
//
// All methods must be called from within sdl.Main.
package ui

import (
	"fmt"
	"image/color"
	"strings"

	"github.com/veandco/go-sdl2/sdl"

	"chipper/emu"
	"chipper/emu/log"
	"chipper/hw"
)

// Hotkeys, not configurable.
const (
	keyQuit  = sdl.SCANCODE_ESCAPE
	keyPause = sdl.SCANCODE_P
	keyReset = sdl.SCANCODE_F5
)

type Host struct {
	// Ctrl receives hotkey actions. Can be nil.
	Ctrl emu.Controller

	win   *window
	audio *audio // nil when audio is disabled

	keymap  [hw.NumKeys]sdl.Scancode
	hotkeys map[sdl.Scancode]bool // previous state

	fg, bg color.RGBA
	pix    []byte
}

// New opens the emulator window and the audio device, as configured.
func New(cfg emu.Config) (*Host, error) {
	win, err := newWindow("Chipper", hw.ScreenWidth, hw.ScreenHeight, cfg.Video.Scale, !cfg.Video.DisableVSync)
	if err != nil {
		return nil, err
	}
	log.ModVideo.InfoZ("Window created").
		Int("scale", cfg.Video.Scale).
		Bool("vsync", !cfg.Video.DisableVSync).
		End()

	keymap, err := keymapFromConfig(cfg.Input)
	if err != nil {
		win.Close()
		return nil, err
	}

	h := &Host{
		win:     win,
		keymap:  keymap,
		hotkeys: make(map[sdl.Scancode]bool),
		fg:      cfg.Video.Foreground.RGBA(),
		bg:      cfg.Video.Background.RGBA(),
		pix:     make([]byte, hw.ScreenWidth*hw.ScreenHeight*4),
	}
	var blank hw.Screen
	blank.RGBA(h.pix, h.fg, h.bg)

	if cfg.Audio.DisableAudio {
		log.ModSound.WarnZ("Audio disabled").End()
		return h, nil
	}

	sdl.Do(func() {
		h.audio, err = openAudio(cfg.Audio.ToneHz, cfg.Audio.Volume)
	})
	if err != nil {
		// Not fatal, just run silently.
		log.ModSound.WarnZ("Audio unavailable").Error("err", err).End()
	}
	return h, nil
}

// keymapFromConfig converts the configured key names into scancodes.
func keymapFromConfig(icfg emu.InputConfig) ([hw.NumKeys]sdl.Scancode, error) {
	var keymap [hw.NumKeys]sdl.Scancode
	for k, name := range icfg.Keys {
		var sc sdl.Scancode
		sdl.Do(func() { sc = sdl.GetScancodeFromName(name) })
		if sc == sdl.SCANCODE_UNKNOWN {
			return keymap, fmt.Errorf("unknown key name %q for keypad key %X", name, k)
		}
		switch sc {
		case keyQuit, keyPause, keyReset:
			return keymap, fmt.Errorf("key %q is reserved", strings.ToUpper(name))
		}
		keymap[k] = sc
	}
	return keymap, nil
}

func (h *Host) Poll() (hw.Keypad, bool) {
	var (
		keys hw.Keypad
		quit bool
	)

	sdl.Do(func() {
		for event := sdl.PollEvent(); event != nil; event = sdl.PollEvent() {
			switch e := event.(type) {
			case *sdl.QuitEvent:
				quit = true
			case *sdl.WindowEvent:
				if e.Event == sdl.WINDOWEVENT_RESIZED {
					h.win.resize(e.Data1, e.Data2)
				}
			}
		}

		kbstate := sdl.GetKeyboardState()
		for k, sc := range h.keymap {
			keys[k] = kbstate[sc] != 0
		}

		if h.pressed(kbstate, keyQuit) {
			quit = true
		}
		if h.pressed(kbstate, keyPause) && h.Ctrl != nil {
			h.Ctrl.TogglePause()
		}
		if h.pressed(kbstate, keyReset) && h.Ctrl != nil {
			h.Ctrl.Reset()
		}
	})

	return keys, !quit
}

// pressed reports whether the key at scancode sc went down since the last
// call.
func (h *Host) pressed(kbstate []uint8, sc sdl.Scancode) bool {
	down := kbstate[sc] != 0
	was := h.hotkeys[sc]
	h.hotkeys[sc] = down
	return down && !was
}

func (h *Host) Present(video *hw.Screen, dirty bool) {
	if dirty {
		video.RGBA(h.pix, h.fg, h.bg)
	}
	sdl.Do(func() { h.win.render(h.pix) })
}

func (h *Host) Tone(on bool) {
	if h.audio == nil {
		return
	}
	sdl.Do(func() { h.audio.play(on) })
}

// OnReset silences the sound output.
func (h *Host) OnReset() {
	if h.audio == nil {
		return
	}
	sdl.Do(h.audio.reset)
}

func (h *Host) Close() error {
	if h.audio != nil {
		sdl.Do(h.audio.close)
	}
	err := h.win.Close()
	sdl.Do(sdl.Quit)
	return err
}
