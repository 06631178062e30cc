package main

import (
	"fmt"
	"os"
	"runtime/debug"

	"github.com/BurntSushi/toml"

	"chipper/emu"
	"chipper/emu/rpc"
	"chipper/hw"
	"chipper/rom"
)

func main() {
	cli := parseArgs(os.Args[1:])

	switch cli.mode {
	case runMode:
		cfg := emu.LoadConfigOrDefault()
		os.Exit(emuMain(cli.Run, cfg))
	case disasmMode:
		r, err := rom.Open(cli.Disasm.RomPath)
		checkf(err, "failed to open rom")
		checkf(hw.DisasmProgram(os.Stdout, r.Data), "failed to disassemble rom")
	case romInfosMode:
		r, err := rom.Open(cli.RomInfos.RomPath)
		checkf(err, "failed to open rom")
		checkf(r.PrintInfos(os.Stdout), "failed to print rom infos")
	case configMode:
		configMain(cli.Config)
	case ctlMode:
		ctlMain(cli.Ctl)
	case versionMode:
		printVersion()
	}
}

// configMain prints the configuration in use, optionally writing the default
// one first.
func configMain(args Config) {
	path := emu.ConfigPath()
	if args.Write {
		if _, err := os.Stat(path); err == nil {
			fatalf("%s already exists", path)
		}
		checkf(emu.SaveConfig(emu.DefaultConfig()), "failed to write configuration")
		fmt.Fprintln(os.Stderr, "configuration written to", path)
	}

	fmt.Printf("# %s\n", path)
	checkf(toml.NewEncoder(os.Stdout).Encode(emu.LoadConfigOrDefault()), "failed to encode configuration")
}

// ctlMain sends a command to a running emulator.
func ctlMain(args Ctl) {
	c, err := rpc.NewClient(args.Addr)
	checkf(err, "failed to connect to emulator")
	defer c.Close()

	switch args.Action {
	case "pause":
		err = c.SetPause(true)
	case "resume":
		err = c.SetPause(false)
	case "reset":
		err = c.Reset()
	case "stop":
		err = c.Stop()
	case "status":
		var st emu.Status
		if st, err = c.Status(); err == nil {
			fmt.Printf("frames: %d\nticks:  %d\npc:     %04X\npaused: %t\nhalted: %t\n",
				st.Frames, st.Ticks, st.PC, st.Paused, st.Halted)
		}
	}
	checkf(err, "%s failed", args.Action)
}

func printVersion() {
	version := "(devel)"
	if bi, ok := debug.ReadBuildInfo(); ok && bi.Main.Version != "" {
		version = bi.Main.Version
	}
	fmt.Println("chipper", version)
}
