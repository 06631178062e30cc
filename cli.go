package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/alecthomas/kong"

	"chipper/emu/log"
)

type mode byte

const (
	runMode      mode = iota // Run a ROM
	disasmMode               // Disassemble a ROM
	romInfosMode             // Show ROM infos
	configMode               // Show or write the configuration
	ctlMode                  // Control a running emulator
	versionMode              // Show chipper version
)

type (
	CLI struct {
		Run      Run      `cmd:"" help:"Run ROM in emulator."`
		Disasm   Disasm   `cmd:"" help:"Disassemble ROM."`
		RomInfos RomInfos `cmd:"" help:"Show ROM infos." name:"rom-infos"`
		Config   Config   `cmd:"" help:"${config_help}"`
		Ctl      Ctl      `cmd:"" help:"Control an emulator started with --rpc."`
		Version  Version  `cmd:"" help:"Show chipper version."`

		Log logModMask `help:"${log_help}" placeholder:"mod0,mod1,..."`

		mode mode
	}

	Run struct {
		RomPath string `arg:"" name:"/path/to/rom" help:"ROM to run." required:"true" type:"existingfile"`

		Frontend    string   `name:"frontend" help:"${frontend_help}" enum:"sdl,term,headless" default:"sdl"`
		Frames      int      `name:"frames" help:"Number of frames to run with the headless frontend (0 means until the CPU halts)." default:"600"`
		Hz          int      `name:"hz" help:"Instructions per second, overrides the configuration."`
		Seed        uint64   `name:"seed" help:"Seed of the random number generator, overrides the configuration."`
		TimerMode   string   `name:"timer-mode" help:"${timer_mode_help}" placeholder:"tick|60hz"`
		CPUProfile  string   `name:"cpuprofile" help:"${cpuprofile_help}" type:"path"`
		Trace       *outfile `name:"trace" help:"Write CPU trace log." placeholder:"FILE|stdout|stderr"`
		TraceFormat string   `name:"trace-format" help:"Trace log format." enum:"text,json" default:"text"`
		RPC         string   `name:"rpc" help:"Serve remote control requests on this tcp address." placeholder:"HOST:PORT"`
	}

	Disasm struct {
		RomPath string `arg:"" name:"/path/to/rom" type:"existingfile"`
	}

	RomInfos struct {
		RomPath string `arg:"" name:"/path/to/rom" type:"existingfile"`
	}

	Config struct {
		Write bool `name:"write" help:"Write the default configuration file, if it doesn't exist yet."`
	}

	Ctl struct {
		Addr   string `arg:"" name:"host:port" help:"Address of the emulator RPC server."`
		Action string `arg:"" name:"action" help:"One of: ${enum}." enum:"status,pause,resume,reset,stop"`
	}

	Version struct{}
)

var vars = kong.Vars{
	"cpuprofile_help": "Write CPU profile to file.",
	"log_help":        "Enable logging for specified modules.",
	"frontend_help":   "Host to run the emulator into (sdl, term or headless).",
	"timer_mode_help": "When the delay and sound timers decrement: at each instruction (tick) or at 60Hz (60hz).",
	"config_help":     "Print the configuration in use.",
}

func parseArgs(args []string) CLI {
	var cfg CLI
	parser, err := kong.New(&cfg,
		kong.Name("chipper"),
		kong.Description("CHIP-8 virtual machine."),
		kong.UsageOnError(),
		kong.Help(printHelp),
		vars)
	if err != nil {
		panic(err)
	}

	ctx, err := parser.Parse(args)
	checkf(err, "failed to parse command line")
	checkf(ctx.Error, "failed to parse command line")

	switch ctx.Command() {
	case "disasm </path/to/rom>":
		cfg.mode = disasmMode
	case "rom-infos </path/to/rom>":
		cfg.mode = romInfosMode
	case "config":
		cfg.mode = configMode
	case "ctl <host:port> <action>":
		cfg.mode = ctlMode
	case "version":
		cfg.mode = versionMode
	default:
		cfg.mode = runMode
	}
	return cfg
}

func printHelp(options kong.HelpOptions, ctx *kong.Context) error {
	if err := kong.DefaultHelpPrinter(options, ctx); err != nil {
		return err
	}
	if strings.HasPrefix(ctx.Command(), "run") {
		loggingHelp := `
Log modules:
  The --log flag accepts a comma-separated list of modules.

  Valid log modules are:
%s

  As a special case, the following values are accepted:
    - no                     Disable all logging.
    - all                    Enable all logs.

Hotkeys:
  sdl:   Esc quits, P pauses, F5 resets.
  term:  Esc, Ctrl-C or Ctrl-Q quits, Ctrl-P pauses, Ctrl-R resets.
`
		var strs []string
		for _, m := range log.ModuleNames() {
			strs = append(strs, "    - "+m)
		}

		fmt.Fprintf(ctx.Stdout, loggingHelp, strings.Join(strs, "\n"))
	}

	return nil
}

type logModMask log.ModuleMask

// Decode decodes a comma-separated list of module names into a module mask.
//
// Implements kong.MapperValue interface.
func (lm logModMask) Decode(ctx *kong.DecodeContext) error {
	tok := ctx.Scan.Pop()
	mask, nolog, err := parseLogModules(tok.Value.(string))
	if err != nil {
		return err
	}
	if nolog {
		log.Disable()
		return nil
	}
	log.EnableDebugModules(mask)
	return nil
}

// parseLogModules parses the value of the --log flag.
func parseLogModules(s string) (mask log.ModuleMask, nolog bool, err error) {
	allLogs := false
	for _, v := range strings.Split(s, ",") {
		switch v {
		case "all":
			allLogs = true
		case "no":
			nolog = true
		default:
			mod, ok := log.ModuleByName(v)
			if !ok {
				return 0, false, fmt.Errorf("unknown log module %s", v)
			}
			mask |= mod.Mask()
		}
	}

	if nolog {
		if allLogs {
			return 0, false, fmt.Errorf("cannot use 'all' and 'no' together")
		}
		if mask != 0 {
			return 0, false, fmt.Errorf("cannot combine 'no' with other log modules")
		}
		return 0, true, nil
	}
	if allLogs {
		mask = log.ModuleMaskAll
	}
	return mask, false, nil
}

type outfile struct {
	w     io.Writer
	name  string
	close func() error
}

// Decode decodes FILE|stdout|stderr into an io.WriteCloser
// that writes to that file.
//
// Implements kong.MapperValue interface.
func (f *outfile) Decode(ctx *kong.DecodeContext) error {
	tok := ctx.Scan.Pop()
	return f.open(tok.Value.(string))
}

func (f *outfile) open(name string) error {
	f.name = name
	f.close = func() error { return nil }

	switch f.name {
	case "stdout":
		f.w = os.Stdout
	case "stderr":
		f.w = os.Stderr
	default:
		fd, err := os.Create(f.name)
		if err != nil {
			return err
		}
		f.w = fd
		f.close = fd.Close
	}
	return nil
}

func (f *outfile) String() string              { return f.name }
func (f *outfile) Write(p []byte) (int, error) { return f.w.Write(p) }
func (f *outfile) Close() error                { return f.close() }

func checkf(err error, format string, args ...any) {
	if err == nil {
		return
	}
	fatalf(format+".\n"+err.Error(), args...)
}

func fatalf(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "fatal error:")
	fmt.Fprintf(os.Stderr, "\n\t%s\n", fmt.Sprintf(format, args...))
	os.Exit(1)
}
