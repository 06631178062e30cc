package emu

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"chipper/emu/log"
	"chipper/hw"
	"chipper/rom"
	"chipper/tests"
)

type nopCloser struct{ *bytes.Buffer }

func (nopCloser) Close() error { return nil }

func launchHeadless(tb testing.TB, prg []byte, h *Headless, cfg Config) *Emulator {
	tb.Helper()
	log.Disable()

	e, err := Launch(&rom.Rom{Name: "test", Data: prg}, h, cfg)
	if err != nil {
		tb.Fatal(err)
	}
	e.SetThrottle(false)
	return e
}

// screenWith returns the text rendering of a screen with the given glyph rows
// drawn at (x, y).
func screenWith(x, y int, rows ...string) string {
	lines := make([][]byte, hw.ScreenHeight)
	for i := range lines {
		lines[i] = bytes.Repeat([]byte{'.'}, hw.ScreenWidth)
	}
	for dy, row := range rows {
		copy(lines[y+dy][x:], row)
	}
	return string(bytes.Join(lines, []byte{'\n'})) + "\n"
}

func TestHeadlessRun(t *testing.T) {
	h := &Headless{MaxFrames: 3}
	e := launchHeadless(t, tests.Digit, h, DefaultConfig())

	if err := e.Run(context.Background()); err != nil {
		t.Fatal(err)
	}

	want := screenWith(2, 3,
		"####",
		"#..#",
		"####",
		"#..#",
		"#..#",
	)
	if diff := cmp.Diff(want, h.Screen.String()); diff != "" {
		t.Errorf("final frame mismatch (-want +got):\n%s", diff)
	}
	if e.Frames() != 3 {
		t.Errorf("ran %d frames, want 3", e.Frames())
	}
	if h.Redraws != 1 {
		t.Errorf("%d redraws, want 1", h.Redraws)
	}
}

func TestTicksPerFrame(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Emulation.CPUHz = 1200

	h := &Headless{MaxFrames: 5}
	e := launchHeadless(t, tests.Loop, h, cfg)
	if err := e.Run(context.Background()); err != nil {
		t.Fatal(err)
	}
	if e.CPU.Ticks != 5*20 {
		t.Errorf("executed %d instructions, want %d", e.CPU.Ticks, 5*20)
	}
}

func TestTimerModes(t *testing.T) {
	cases := []struct {
		mode TimerMode
		want int // frames with tone on
	}{
		// 10 instructions per frame, the sound timer expires during the
		// first frame.
		{TimerTick, 0},
		// set to 4 in frame 0 and decremented at the end of each frame.
		{Timer60Hz, 3},
	}
	for _, tt := range cases {
		t.Run(string(tt.mode), func(t *testing.T) {
			cfg := DefaultConfig()
			cfg.Emulation.TimerMode = tt.mode

			h := &Headless{MaxFrames: 10}
			e := launchHeadless(t, tests.Beep, h, cfg)
			if err := e.Run(context.Background()); err != nil {
				t.Fatal(err)
			}
			if h.ToneFrames != tt.want {
				t.Errorf("tone on during %d frames, want %d", h.ToneFrames, tt.want)
			}
		})
	}
}

func TestScriptedKeys(t *testing.T) {
	var seven hw.Keypad
	seven[7] = true

	h := &Headless{
		MaxFrames: 6,
		Script: map[int]hw.Keypad{
			3: seven,
			4: {},
		},
	}
	e := launchHeadless(t, tests.WaitKey, h, DefaultConfig())
	if err := e.Run(context.Background()); err != nil {
		t.Fatal(err)
	}
	if got := e.CPU.Mem.Peek8(0x305); got != 7 {
		t.Errorf("stored key = %d, want 7", got)
	}
	if e.CPU.WaitingKey() {
		t.Errorf("CPU still waiting for a key")
	}
}

func TestHaltStopsLoop(t *testing.T) {
	h := &Headless{}
	e := launchHeadless(t, tests.Overflow, h, DefaultConfig())

	err := e.Run(context.Background())
	if !errors.Is(err, hw.ErrStackOverflow) {
		t.Fatalf("Run() = %v, want %v", err, hw.ErrStackOverflow)
	}
	if !e.CPU.Halted() {
		t.Errorf("CPU should be halted")
	}
}

func TestStop(t *testing.T) {
	h := &Headless{MaxFrames: 100}
	e := launchHeadless(t, tests.Loop, h, DefaultConfig())
	e.Stop()
	if err := e.Run(context.Background()); err != nil {
		t.Fatal(err)
	}
	if e.Frames() != 0 {
		t.Errorf("ran %d frames after Stop, want 0", e.Frames())
	}
}

func TestContextCancel(t *testing.T) {
	h := &Headless{} // never quits by itself
	e := launchHeadless(t, tests.Loop, h, DefaultConfig())
	e.SetThrottle(true)

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	done := make(chan error)
	go func() { done <- e.Run(ctx) }()

	select {
	case err := <-done:
		if err != nil {
			t.Fatal(err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("emulation loop didn't stop on context cancellation")
	}
}

func TestReset(t *testing.T) {
	h := &Headless{MaxFrames: 2}
	e := launchHeadless(t, tests.Digit, h, DefaultConfig())
	if err := e.RunOneFrame(hw.Keypad{}); err != nil {
		t.Fatal(err)
	}
	if e.CPU.Screen.Lit() == 0 {
		t.Fatal("digit should be drawn")
	}

	e.Reset()
	e.handleReset()
	if e.CPU.Screen.Lit() != 0 || e.CPU.PC != hw.ProgramStart {
		t.Errorf("reset should clear the screen and restart the program")
	}
	if h.Resets != 1 {
		t.Errorf("host notified of %d resets, want 1", h.Resets)
	}
}

func TestResetReloadsProgram(t *testing.T) {
	prg := tests.Program(
		0x6012, // LD V0, $12
		0x6100, // LD V1, $00
		0xA200, // LD I, $200
		0xF155, // LD [I], V1 (overwrites the first instruction)
		0x1208, // JP $208
	)
	h := &Headless{}
	e := launchHeadless(t, prg, h, DefaultConfig())
	if err := e.RunOneFrame(hw.Keypad{}); err != nil {
		t.Fatal(err)
	}
	if got := e.CPU.Mem.Peek16(hw.ProgramStart); got != 0x1200 {
		t.Fatalf("word at $200 = %04X, want 1200 before reset", got)
	}

	e.Reset()
	e.handleReset()
	if got := e.CPU.Mem.Peek16(hw.ProgramStart); got != 0x6012 {
		t.Errorf("word at $200 = %04X after reset, want 6012", got)
	}
	if got := e.CPU.Mem.Peek8(0); got != 0xF0 {
		t.Errorf("first glyph byte = %02X after reset, want F0", got)
	}

	// The machine runs again from the start.
	if err := e.RunOneFrame(hw.Keypad{}); err != nil {
		t.Fatal(err)
	}
	if e.CPU.Halted() {
		t.Errorf("CPU halted after reset: %v", e.CPU.Fault())
	}
}

func TestTraceOutput(t *testing.T) {
	var buf bytes.Buffer
	cfg := DefaultConfig()
	cfg.Emulation.CPUHz = 60 // 1 instruction per frame
	cfg.TraceOut = nopCloser{&buf}
	cfg.TraceFormat = "json"

	h := &Headless{MaxFrames: 2}
	e := launchHeadless(t, tests.Beep, h, cfg)
	if err := e.Run(context.Background()); err != nil {
		t.Fatal(err)
	}

	want := []string{
		`{"pc":"0200","op":"6004","asm":"LD V0, $04"}`,
		`{"pc":"0202","op":"F018","asm":"LD ST, V0"}`,
	}
	got := strings.Split(strings.TrimSuffix(buf.String(), "\n"), "\n")
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("trace mismatch (-want +got):\n%s", diff)
	}
}

func TestEmptyRom(t *testing.T) {
	log.Disable()
	if _, err := Launch(&rom.Rom{}, &Headless{}, DefaultConfig()); !errors.Is(err, rom.ErrEmpty) {
		t.Fatalf("Launch() = %v, want %v", err, rom.ErrEmpty)
	}
}

func TestStatus(t *testing.T) {
	h := &Headless{MaxFrames: 3}
	e := launchHeadless(t, tests.Loop, h, DefaultConfig())
	if err := e.Run(context.Background()); err != nil {
		t.Fatal(err)
	}
	want := Status{Frames: 3, Ticks: 30, PC: hw.ProgramStart}
	if diff := cmp.Diff(want, e.Status()); diff != "" {
		t.Errorf("status mismatch (-want +got):\n%s", diff)
	}

	e.SetPause(true)
	if !e.Status().Paused {
		t.Errorf("status doesn't report pause")
	}

	h = &Headless{}
	e = launchHeadless(t, tests.Overflow, h, DefaultConfig())
	if err := e.Run(context.Background()); err == nil {
		t.Fatal("Run() should fail on stack overflow")
	}
	st := e.Status()
	if !st.Halted || st.Frames != 1 || st.Ticks != e.CPU.Ticks {
		t.Errorf("status = %+v, want halted after 1 frame and %d ticks", st, e.CPU.Ticks)
	}
}
