package emu

import (
	"errors"
	"fmt"
	"image/color"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"

	"github.com/BurntSushi/toml"

	"chipper/emu/log"
	"chipper/hw"
)

type Config struct {
	Emulation EmulationConfig `toml:"emulation"`
	Video     VideoConfig     `toml:"video"`
	Audio     AudioConfig     `toml:"audio"`
	Input     InputConfig     `toml:"input"`

	TraceOut    io.WriteCloser `toml:"-"`
	TraceFormat string         `toml:"-"` // "text" or "json"
}

type TimerMode string

const (
	// TimerTick decrements the timers at each executed instruction.
	TimerTick TimerMode = "tick"
	// Timer60Hz decrements the timers once per frame.
	Timer60Hz TimerMode = "60hz"
)

type EmulationConfig struct {
	CPUHz     int       `toml:"cpu_hz"`
	TimerMode TimerMode `toml:"timer_mode"`
	Seed      uint64    `toml:"seed"` // 0 means random
}

const (
	minCPUHz = hw.FrameRate
	maxCPUHz = 1_000_000
)

func (ecfg *EmulationConfig) Check() {
	if ecfg.CPUHz < minCPUHz || ecfg.CPUHz > maxCPUHz {
		log.ModEmu.Warnf("Invalid cpu_hz %d, fallback to %d", ecfg.CPUHz, defaultConfig.Emulation.CPUHz)
		ecfg.CPUHz = defaultConfig.Emulation.CPUHz
	}
	switch ecfg.TimerMode {
	case TimerTick, Timer60Hz:
	case "":
		ecfg.TimerMode = TimerTick
	default:
		log.ModEmu.Warnf("Invalid timer_mode %q, fallback to %q", ecfg.TimerMode, TimerTick)
		ecfg.TimerMode = TimerTick
	}
}

type VideoConfig struct {
	Scale        int   `toml:"scale"`
	Foreground   Color `toml:"foreground"`
	Background   Color `toml:"background"`
	DisableVSync bool  `toml:"disable_vsync"`
}

const maxScale = 40

func (vcfg *VideoConfig) Check() {
	if vcfg.Scale < 1 || vcfg.Scale > maxScale {
		log.ModEmu.Warnf("Invalid video scale %d, fallback to %d", vcfg.Scale, defaultConfig.Video.Scale)
		vcfg.Scale = defaultConfig.Video.Scale
	}
	if vcfg.Foreground == vcfg.Background {
		log.ModEmu.Warnf("Foreground and background colors are identical (%s), fallback to defaults", vcfg.Foreground)
		vcfg.Foreground = defaultConfig.Video.Foreground
		vcfg.Background = defaultConfig.Video.Background
	}
}

type AudioConfig struct {
	DisableAudio bool    `toml:"disable_audio"`
	ToneHz       float64 `toml:"tone_hz"`
	Volume       float64 `toml:"volume"`
}

func (acfg *AudioConfig) Check() {
	if acfg.ToneHz < 20 || acfg.ToneHz > 20000 {
		log.ModEmu.Warnf("Invalid tone_hz %g, fallback to %g", acfg.ToneHz, defaultConfig.Audio.ToneHz)
		acfg.ToneHz = defaultConfig.Audio.ToneHz
	}
	acfg.Volume = min(max(acfg.Volume, 0), 1)
}

// InputConfig maps host keys to the keypad. Keys[k] is the name of the host
// key for logical key k. Names are case insensitive and follow the SDL naming
// ("1", "Q", "Space"...).
type InputConfig struct {
	Keys [hw.NumKeys]string `toml:"keys"`
}

func (icfg *InputConfig) Check() {
	seen := make(map[string]int)
	for k, name := range icfg.Keys {
		if name == "" {
			icfg.Keys[k] = defaultConfig.Input.Keys[k]
			continue
		}
		name = strings.ToUpper(name)
		if prev, ok := seen[name]; ok {
			log.ModEmu.Warnf("Key %q mapped to both %X and %X, fallback to default keys", name, prev, k)
			icfg.Keys = defaultConfig.Input.Keys
			return
		}
		seen[name] = k
	}
}

// Check validates the configuration, invalid values are replaced by their
// default.
func (cfg *Config) Check() {
	cfg.Emulation.Check()
	cfg.Video.Check()
	cfg.Audio.Check()
	cfg.Input.Check()
	switch cfg.TraceFormat {
	case "", "text", "json":
	default:
		log.ModEmu.Warnf("Invalid trace format %q, fallback to text", cfg.TraceFormat)
		cfg.TraceFormat = "text"
	}
}

// Color is an RGB color, encoded as "#RRGGBB" in the config file.
type Color color.RGBA

func (c Color) RGBA() color.RGBA { return color.RGBA(c) }

func (c Color) String() string {
	return fmt.Sprintf("#%02X%02X%02X", c.R, c.G, c.B)
}

func (c Color) MarshalText() ([]byte, error) {
	return []byte(c.String()), nil
}

func (c *Color) UnmarshalText(text []byte) error {
	if len(text) != 7 || text[0] != '#' {
		return fmt.Errorf("invalid color %q, want #RRGGBB", text)
	}
	rgb, err := strconv.ParseUint(string(text[1:]), 16, 32)
	if err != nil {
		return fmt.Errorf("invalid color %q: %w", text, err)
	}
	*c = Color{R: uint8(rgb >> 16), G: uint8(rgb >> 8), B: uint8(rgb), A: 0xFF}
	return nil
}

var defaultConfig = Config{
	Emulation: EmulationConfig{
		CPUHz:     600,
		TimerMode: TimerTick,
	},
	Video: VideoConfig{
		Scale:      15,
		Foreground: Color{R: 0x00, G: 0xE1, B: 0x00, A: 0xFF},
		Background: Color{R: 0x00, G: 0x00, B: 0x00, A: 0xFF},
	},
	Audio: AudioConfig{
		ToneHz: 240,
		Volume: 0.25,
	},
	Input: InputConfig{
		// 1 2 3 C      1 2 3 4
		// 4 5 6 D  ->  Q W E R
		// 7 8 9 E      A S D F
		// A 0 B F      Z X C V
		Keys: [hw.NumKeys]string{
			"X", "1", "2", "3",
			"Q", "W", "E", "A",
			"S", "D", "Z", "C",
			"4", "R", "F", "V",
		},
	},
	TraceFormat: "text",
}

// DefaultConfig returns the built-in configuration.
func DefaultConfig() Config { return defaultConfig }

const DefaultFileMode = os.FileMode(0755)

var ConfigDir = sync.OnceValue(func() string {
	cfgdir, err := os.UserConfigDir()
	if err != nil {
		log.ModEmu.Fatalf("failed to get user config directory: %v", err)
	}

	dir := filepath.Join(cfgdir, "chipper")
	if err := os.MkdirAll(dir, DefaultFileMode); err != nil {
		log.ModEmu.Fatalf("failed to create directory %s: %v", dir, err)
	}
	return dir
})

const cfgFilename = "config.toml"

// ConfigPath returns the path of the configuration file.
func ConfigPath() string { return filepath.Join(ConfigDir(), cfgFilename) }

// LoadConfigFile loads the configuration at path. Missing values take their
// default.
func LoadConfigFile(path string) (Config, error) {
	cfg := defaultConfig
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return defaultConfig, err
	}
	cfg.Check()
	return cfg, nil
}

// SaveConfigFile writes cfg at path.
func SaveConfigFile(path string, cfg Config) error {
	buf, err := toml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, buf, 0644)
}

// LoadConfigOrDefault loads the configuration from the chipper config
// directory, or provide a default one.
func LoadConfigOrDefault() Config {
	path := ConfigPath()
	cfg, err := LoadConfigFile(path)
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		log.ModEmu.WarnZ("Failed to load config, using defaults").
			String("path", path).
			Error("err", err).
			End()
	}
	return cfg
}

// SaveConfig into chipper config directory.
func SaveConfig(cfg Config) error {
	return SaveConfigFile(ConfigPath(), cfg)
}
