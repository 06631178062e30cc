package emu

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"chipper/emu/log"
	"chipper/hw"
	"chipper/rom"
)

// Host is the frontend the emulator loop runs into: it provides the keypad
// state and presents video and sound.
type Host interface {
	// Poll processes pending host events and returns the current keypad
	// state. ok is false when the user asked to quit.
	Poll() (keys hw.Keypad, ok bool)

	// Present is called at the end of each frame, dirty reports whether the
	// frame buffer changed since the previous call.
	Present(video *hw.Screen, dirty bool)

	// Tone is called at the end of each frame, on reports whether the
	// sound timer is running.
	Tone(on bool)

	Close() error
}

// ResetNotifier is implemented by hosts keeping state across frames, such as
// queued sound, that must be dropped when the machine is reset.
type ResetNotifier interface {
	OnReset()
}

// Controller is the part of the emulator API hosts use to implement hotkeys.
type Controller interface {
	TogglePause()
	Reset()
	Stop()
}

type Emulator struct {
	CPU  *hw.CPU
	rom  *rom.Rom
	host Host
	cfg  Config

	ticksPerFrame int
	throttle      bool

	// These are accessed concurrently by the emulator loop and the host.
	quit   atomic.Bool
	paused atomic.Bool
	reset  atomic.Bool
	status atomic.Pointer[Status]
}

// Status is a snapshot of the emulator state, taken at the end of each frame.
type Status struct {
	Frames uint64
	Ticks  uint64
	PC     uint16
	Paused bool
	Halted bool
}

// Launch powers up the machine with the program image loaded, and plugs the
// host. It doesn't start the emulation loop, call Run() for that.
func Launch(r *rom.Rom, host Host, cfg Config) (*Emulator, error) {
	cfg.Check()

	cpu, err := powerUp(r, cfg)
	if err != nil {
		return nil, fmt.Errorf("power up failed: %w", err)
	}

	e := &Emulator{
		CPU:           cpu,
		rom:           r,
		host:          host,
		cfg:           cfg,
		ticksPerFrame: max(1, cfg.Emulation.CPUHz/hw.FrameRate),
		throttle:      true,
	}
	e.status.Store(&Status{PC: cpu.PC})
	log.ModEmu.InfoZ("Emulator ready").
		String("rom", r.Name).
		Int("hz", cfg.Emulation.CPUHz).
		String("timers", string(cfg.Emulation.TimerMode)).
		End()
	return e, nil
}

func powerUp(r *rom.Rom, cfg Config) (*hw.CPU, error) {
	if len(r.Data) == 0 {
		return nil, rom.ErrEmpty
	}

	mem := hw.NewMemory()
	if _, err := mem.LoadProgram(r.Data); err != nil {
		return nil, err
	}

	var opts []hw.Option
	if cfg.TraceOut != nil {
		switch cfg.TraceFormat {
		case "json":
			opts = append(opts, hw.WithTracer(hw.NewJSONTracer(cfg.TraceOut)))
		default:
			opts = append(opts, hw.WithTracer(hw.NewTextTracer(cfg.TraceOut)))
		}
	}
	if cfg.Emulation.Seed != 0 {
		opts = append(opts, hw.WithSeed(cfg.Emulation.Seed))
	}
	if cfg.Emulation.TimerMode == Timer60Hz {
		opts = append(opts, hw.WithDecoupledTimers())
	}
	return hw.NewCPU(mem, opts...), nil
}

// SetThrottle enables or disables frame pacing. When disabled, frames are run
// as fast as possible.
func (e *Emulator) SetThrottle(on bool) { e.throttle = on }

// Frames returns the number of frames run so far.
func (e *Emulator) Frames() uint64 { return e.status.Load().Frames }

// Status returns the emulator state as of the last frame. It's safe to call
// from any goroutine.
func (e *Emulator) Status() Status {
	st := *e.status.Load()
	st.Paused = e.isPaused()
	return st
}

func (e *Emulator) updateStatus(frames uint64) {
	e.status.Store(&Status{
		Frames: frames,
		Ticks:  e.CPU.Ticks,
		PC:     e.CPU.PC,
		Halted: e.CPU.Halted(),
	})
}

// RunOneFrame executes one 60th of a second worth of instructions with the
// given keypad state, then presents the result to the host.
func (e *Emulator) RunOneFrame(keys hw.Keypad) error {
	frames := e.Frames()
	dirty := false
	for range e.ticksPerFrame {
		out, err := e.CPU.Tick(keys)
		if err != nil {
			e.updateStatus(frames)
			return err
		}
		dirty = dirty || out.Dirty
	}
	if e.cfg.Emulation.TimerMode == Timer60Hz {
		e.CPU.DecTimers()
	}

	e.host.Present(&e.CPU.Screen, dirty)
	e.host.Tone(e.CPU.ST > 0)
	e.updateStatus(frames + 1)
	return nil
}

// Run runs the emulation loop until the host quits, Stop is called, ctx is
// cancelled or the CPU halts. In the last case the fault is returned.
func (e *Emulator) Run(ctx context.Context) error {
	log.AddContext(e.CPU)
	defer log.RemoveContext(e.CPU)
	defer e.host.Close()

	frameDur := time.Second / hw.FrameRate
	ticker := time.NewTicker(frameDur)
	defer ticker.Stop()

	start := time.Now()
	err := e.loop(ctx, ticker.C)
	log.ModEmu.InfoZ("Emulation loop exited").
		Uint("frames", e.Frames()).
		Uint("ticks", e.CPU.Ticks).
		Duration("elapsed", time.Since(start)).
		End()
	return err
}

func (e *Emulator) loop(ctx context.Context, tick <-chan time.Time) error {
	for {
		keys, ok := e.host.Poll()
		if !ok || e.shouldStop() {
			return nil
		}

		if e.isPaused() {
			// Don't burn cpu while paused.
			select {
			case <-ctx.Done():
				return nil
			case <-time.After(100 * time.Millisecond):
			}
			e.handleReset()
			continue
		}

		if err := e.RunOneFrame(keys); err != nil {
			log.ModEmu.ErrorZ("Emulation stopped").Error("err", err).End()
			return err
		}
		e.handleReset()

		if e.throttle {
			select {
			case <-ctx.Done():
				return nil
			case <-tick:
			}
		} else if ctx.Err() != nil {
			return nil
		}
	}
}

// SetPause, Stop and Reset allow to control the emulator loop in a
// concurrent-safe way.

func (e *Emulator) SetPause(pause bool) { e.paused.CompareAndSwap(!pause, pause) }
func (e *Emulator) TogglePause()        { e.SetPause(!e.isPaused()) }
func (e *Emulator) Reset()              { e.reset.Store(true) }
func (e *Emulator) Stop()               { e.quit.Store(true) }

func (e *Emulator) isPaused() bool {
	return e.paused.Load()
}

func (e *Emulator) shouldStop() bool {
	return e.quit.Load()
}

func (e *Emulator) handleReset() {
	if e.reset.CompareAndSwap(true, false) {
		log.ModEmu.InfoZ("Performing reset").End()

		// Reload the program image, it may have been overwritten.
		e.CPU.Mem.Reset()
		if _, err := e.CPU.Mem.LoadProgram(e.rom.Data); err != nil {
			log.ModEmu.ErrorZ("Failed to reload program").Error("err", err).End()
		}
		e.CPU.Reset()
		if rn, ok := e.host.(ResetNotifier); ok {
			rn.OnReset()
		}
		e.updateStatus(e.Frames())
	}
}
