// Package term implements a text host: the screen is drawn with half-block
// characters on a true color ANSI terminal, the keypad is read from raw stdin
// and the tone rings the terminal bell.
//
// Terminals only report key presses, so a key is held down for a few frames
// after each received character. Auto-repeat keeps it down.
package term

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"image/color"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/term"

	"chipper/emu"
	"chipper/emu/log"
	"chipper/hw"
)

// Number of frames a key stays down after a keypress.
const holdFrames = 8

const pollInterval = 20 * time.Millisecond

// Control characters used as hotkeys.
const (
	ctrlC  = 0x03
	ctrlP  = 0x10
	ctrlQ  = 0x11
	ctrlR  = 0x12
	escape = 0x1b
)

const (
	seqHome       = "\x1b[H"
	seqClear      = "\x1b[2J"
	seqHideCursor = "\x1b[?25l"
	seqShowCursor = "\x1b[?25h"
	seqResetAttr  = "\x1b[0m"
)

type Host struct {
	// Ctrl receives hotkey actions. Can be nil.
	Ctrl emu.Controller

	out     *bufio.Writer
	restore func() error

	keymap map[byte]uint8
	fg, bg color.RGBA

	mu    sync.Mutex
	hold  [hw.NumKeys]int
	quit  bool
	pause bool
	reset bool

	cancel context.CancelFunc
	g      *errgroup.Group

	tone  bool
	frame []byte
}

// Open puts the terminal in raw mode and returns a Host reading keys from
// stdin and drawing on stdout. Close restores the terminal.
func Open(cfg emu.Config) (*Host, error) {
	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		return nil, errors.New("stdin is not a terminal")
	}
	if w, h, err := term.GetSize(int(os.Stdout.Fd())); err == nil {
		if w < hw.ScreenWidth || h < hw.ScreenHeight/2 {
			log.ModVideo.WarnZ("Terminal too small, screen will be cropped").
				Int("cols", w).
				Int("rows", h).
				End()
		}
	}

	state, err := term.MakeRaw(fd)
	if err != nil {
		return nil, fmt.Errorf("failed to set raw mode: %w", err)
	}
	in, closeIn, err := openInput(fd)
	if err != nil {
		term.Restore(fd, state)
		return nil, err
	}

	h, err := New(in, os.Stdout, cfg)
	if err != nil {
		closeIn()
		term.Restore(fd, state)
		return nil, err
	}
	h.restore = func() error {
		closeIn()
		return term.Restore(fd, state)
	}
	return h, nil
}

// New returns a Host reading keys from in and drawing on out. The terminal
// mode is left untouched.
func New(in io.Reader, out io.Writer, cfg emu.Config) (*Host, error) {
	keymap, err := keymapFromConfig(cfg.Input)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithCancel(context.Background())
	g, ctx := errgroup.WithContext(ctx)
	h := &Host{
		out:    bufio.NewWriterSize(out, 16*1024),
		keymap: keymap,
		fg:     cfg.Video.Foreground.RGBA(),
		bg:     cfg.Video.Background.RGBA(),
		cancel: cancel,
		g:      g,
	}
	h.out.WriteString(seqHideCursor + seqClear)
	h.out.Flush()

	g.Go(func() error { return h.readInput(ctx, in) })
	return h, nil
}

// keymapFromConfig maps the characters typed on the terminal to the keypad.
// Only single character key names and "space" can be typed.
func keymapFromConfig(icfg emu.InputConfig) (map[byte]uint8, error) {
	keymap := make(map[byte]uint8, hw.NumKeys)
	for k, name := range icfg.Keys {
		name = strings.ToLower(name)
		var c byte
		switch {
		case name == "space":
			c = ' '
		case len(name) == 1 && name[0] > ' ' && name[0] < 0x7f:
			c = name[0]
		default:
			return nil, fmt.Errorf("key %q for keypad key %X can't be typed on a terminal", name, k)
		}
		keymap[c] = uint8(k)
	}
	return keymap, nil
}

type deadliner interface {
	SetReadDeadline(t time.Time) error
}

func (h *Host) readInput(ctx context.Context, in io.Reader) error {
	d, hasDeadline := in.(deadliner)
	buf := make([]byte, 64)
	for {
		if hasDeadline {
			if err := d.SetReadDeadline(time.Now().Add(pollInterval)); err != nil {
				hasDeadline = false
			}
		}
		n, err := in.Read(buf)
		if n > 0 {
			h.handleInput(buf[:n])
		}
		switch {
		case err == nil, errors.Is(err, os.ErrDeadlineExceeded):
		case errors.Is(err, io.EOF):
			return nil
		default:
			log.ModInput.ErrorZ("Failed to read terminal input").
				Error("err", err).
				End()
			h.mu.Lock()
			h.quit = true
			h.mu.Unlock()
			return err
		}
		if ctx.Err() != nil {
			return nil
		}
	}
}

// handleInput processes a chunk of characters read from the terminal.
func (h *Host) handleInput(buf []byte) {
	h.mu.Lock()
	defer h.mu.Unlock()

	// A lone escape is the Esc key, otherwise it starts an escape sequence
	// (arrows, function keys...) which we ignore.
	if len(buf) == 1 && buf[0] == escape {
		h.quit = true
		return
	}
	if i := strings.IndexByte(string(buf), escape); i >= 0 {
		buf = buf[:i]
	}

	for _, c := range buf {
		switch c {
		case ctrlC, ctrlQ:
			h.quit = true
		case ctrlP:
			h.pause = true
		case ctrlR:
			h.reset = true
		default:
			if 'A' <= c && c <= 'Z' {
				c += 'a' - 'A'
			}
			k, ok := h.keymap[c]
			if !ok {
				continue
			}
			h.hold[k] = holdFrames
			log.ModInput.DebugZ("Key down").
				Hex8("key", k).
				String("char", string(rune(c))).
				End()
		}
	}
}

func (h *Host) Poll() (hw.Keypad, bool) {
	var keys hw.Keypad

	h.mu.Lock()
	if h.quit {
		h.mu.Unlock()
		return keys, false
	}
	for k := range h.hold {
		if h.hold[k] > 0 {
			keys[k] = true
			h.hold[k]--
		}
	}
	pause, reset := h.pause, h.reset
	h.pause, h.reset = false, false
	h.mu.Unlock()

	if h.Ctrl != nil {
		if pause {
			h.Ctrl.TogglePause()
		}
		if reset {
			h.Ctrl.Reset()
		}
	}
	return keys, true
}

func (h *Host) Present(video *hw.Screen, dirty bool) {
	if !dirty {
		return
	}
	h.frame = render(h.frame[:0], video, h.fg, h.bg)
	h.out.Write(h.frame)
	h.out.Flush()
}

// Tone rings the bell when the tone starts.
func (h *Host) Tone(on bool) {
	if on && !h.tone {
		h.out.WriteByte('\a')
		h.out.Flush()
	}
	h.tone = on
}

// OnReset rearms the bell.
func (h *Host) OnReset() { h.tone = false }

func (h *Host) Close() error {
	h.cancel()

	// A reader without deadline support may stay blocked in Read.
	done := make(chan error, 1)
	go func() { done <- h.g.Wait() }()
	var err error
	select {
	case err = <-done:
	case <-time.After(4 * pollInterval):
	}

	h.out.WriteString(seqResetAttr + seqShowCursor + "\r\n")
	if ferr := h.out.Flush(); err == nil {
		err = ferr
	}
	if h.restore != nil {
		if rerr := h.restore(); err == nil {
			err = rerr
		}
	}
	return err
}

// render appends to dst the escape sequences and characters drawing s. Each
// character cell covers 2 vertically adjacent pixels.
func render(dst []byte, s *hw.Screen, fg, bg color.RGBA) []byte {
	dst = append(dst, seqHome...)
	dst = fmt.Appendf(dst, "\x1b[38;2;%d;%d;%dm\x1b[48;2;%d;%d;%dm", fg.R, fg.G, fg.B, bg.R, bg.G, bg.B)
	for y := 0; y < hw.ScreenHeight; y += 2 {
		for x := range hw.ScreenWidth {
			top, bottom := s.Pixel(x, y), s.Pixel(x, y+1)
			switch {
			case top && bottom:
				dst = append(dst, "█"...)
			case top:
				dst = append(dst, "▀"...)
			case bottom:
				dst = append(dst, "▄"...)
			default:
				dst = append(dst, ' ')
			}
		}
		dst = append(dst, "\r\n"...)
	}
	return append(dst, seqResetAttr...)
}
