package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"runtime/pprof"

	"github.com/veandco/go-sdl2/sdl"

	"chipper/emu"
	"chipper/emu/rpc"
	"chipper/rom"
	"chipper/ui"
	"chipper/ui/term"
)

// emuMain runs the emulator with the given rom and returns the process exit
// code.
func emuMain(args Run, cfg emu.Config) int {
	applyRunFlags(args, &cfg)

	r, err := rom.Open(args.RomPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error reading ROM: %s\n", err)
		return 1
	}

	if args.Trace != nil {
		cfg.TraceOut = args.Trace
		defer args.Trace.Close()
	}

	if args.CPUProfile != "" {
		f, err := os.Create(args.CPUProfile)
		checkf(err, "failed to create cpu profile file")
		checkf(pprof.StartCPUProfile(f), "failed to start cpu profile")
		defer func() {
			pprof.StopCPUProfile()
			f.Close()
			fmt.Fprintln(os.Stderr, "CPU profile written to", args.CPUProfile)
		}()
	}

	switch args.Frontend {
	case "term":
		return termMain(r, cfg, args.RPC)
	case "headless":
		return headlessMain(r, cfg, args.RPC, args.Frames)
	default:
		return sdlMain(r, cfg, args.RPC)
	}
}

// startRPC serves remote control requests for e on addr, if not empty. The
// returned function stops the server.
func startRPC(addr string, e *emu.Emulator) (stop func(), err error) {
	if addr == "" {
		return func() {}, nil
	}
	srv, err := rpc.NewServer(addr, e)
	if err != nil {
		return nil, fmt.Errorf("rpc server: %w", err)
	}
	return func() { srv.Close() }, nil
}

// applyRunFlags overrides configuration values with the ones given on the
// command line.
func applyRunFlags(args Run, cfg *emu.Config) {
	if args.Hz != 0 {
		cfg.Emulation.CPUHz = args.Hz
	}
	if args.Seed != 0 {
		cfg.Emulation.Seed = args.Seed
	}
	if args.TimerMode != "" {
		cfg.Emulation.TimerMode = emu.TimerMode(args.TimerMode)
	}
	if args.TraceFormat != "" {
		cfg.TraceFormat = args.TraceFormat
	}
}

func sdlMain(r *rom.Rom, cfg emu.Config, rpcAddr string) int {
	var exitcode int
	sdl.Main(func() {
		host, err := ui.New(cfg)
		if err != nil {
			fmt.Fprintf(os.Stderr, "failed to create window: %v\n", err)
			exitcode = 1
			return
		}

		e, err := emu.Launch(r, host, cfg)
		if err != nil {
			host.Close()
			fmt.Fprintf(os.Stderr, "failed to start emulator: %v\n", err)
			exitcode = 1
			return
		}
		host.Ctrl = e

		stopRPC, err := startRPC(rpcAddr, e)
		if err != nil {
			host.Close()
			fmt.Fprintln(os.Stderr, err)
			exitcode = 1
			return
		}
		defer stopRPC()

		if err := e.Run(context.Background()); err != nil {
			fmt.Fprintf(os.Stderr, "emulation stopped: %v\n", err)
			exitcode = 1
		}
	})
	return exitcode
}

func termMain(r *rom.Rom, cfg emu.Config, rpcAddr string) int {
	host, err := term.Open(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to setup terminal: %v\n", err)
		return 1
	}

	e, err := emu.Launch(r, host, cfg)
	if err != nil {
		host.Close()
		fmt.Fprintf(os.Stderr, "failed to start emulator: %v\n", err)
		return 1
	}
	host.Ctrl = e

	stopRPC, err := startRPC(rpcAddr, e)
	if err != nil {
		host.Close()
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	defer stopRPC()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	// Run closes the host, so the terminal is restored when it returns.
	if err := e.Run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "emulation stopped: %v\n", err)
		return 1
	}
	return 0
}

// headlessMain runs the rom for a number of frames, without any output, then
// dumps the screen and the processor state.
func headlessMain(r *rom.Rom, cfg emu.Config, rpcAddr string, frames int) int {
	host := &emu.Headless{MaxFrames: frames}
	e, err := emu.Launch(r, host, cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to start emulator: %v\n", err)
		return 1
	}
	e.SetThrottle(false)

	stopRPC, err := startRPC(rpcAddr, e)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	defer stopRPC()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	exitcode := 0
	if err := e.Run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "emulation stopped: %v\n", err)
		exitcode = 1
	}

	fmt.Print(host.Screen.String())
	fmt.Println()
	fmt.Println(e.CPU)
	return exitcode
}
