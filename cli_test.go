package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"

	"chipper/emu"
	"chipper/emu/log"
)

func TestParseLogModules(t *testing.T) {
	tests := []struct {
		in      string
		mask    log.ModuleMask
		nolog   bool
		wantErr bool
	}{
		{in: "cpu", mask: log.ModCPU.Mask()},
		{in: "cpu,mem,input", mask: log.ModCPU.Mask() | log.ModMem.Mask() | log.ModInput.Mask()},
		{in: "all", mask: log.ModuleMaskAll},
		{in: "emu,all", mask: log.ModuleMaskAll},
		{in: "no", nolog: true},
		{in: "no,all", wantErr: true},
		{in: "no,cpu", wantErr: true},
		{in: "ppu", wantErr: true},
		{in: "", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			mask, nolog, err := parseLogModules(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("parseLogModules(%q) error = %v, wantErr %t", tt.in, err, tt.wantErr)
			}
			if mask != tt.mask || nolog != tt.nolog {
				t.Errorf("parseLogModules(%q) = (%x, %t), want (%x, %t)", tt.in, mask, nolog, tt.mask, tt.nolog)
			}
		})
	}
}

func TestOutfile(t *testing.T) {
	var std outfile
	if err := std.open("stdout"); err != nil {
		t.Fatal(err)
	}
	if std.w != os.Stdout {
		t.Errorf("stdout outfile doesn't write to stdout")
	}
	if err := std.Close(); err != nil {
		t.Errorf("closing stdout outfile: %v", err)
	}

	path := filepath.Join(t.TempDir(), "trace.log")
	var f outfile
	if err := f.open(path); err != nil {
		t.Fatal(err)
	}
	if _, err := f.Write([]byte("0200  00 E0  CLS\n")); err != nil {
		t.Fatal(err)
	}
	if err := f.Close(); err != nil {
		t.Fatal(err)
	}
	buf, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if string(buf) != "0200  00 E0  CLS\n" {
		t.Errorf("trace file content = %q", buf)
	}
	if f.String() != path {
		t.Errorf("String() = %q, want %q", f.String(), path)
	}

	var bad outfile
	if err := bad.open(filepath.Join(t.TempDir(), "missing", "trace.log")); err == nil {
		t.Errorf("open succeeded in a missing directory")
	}
}

func TestApplyRunFlags(t *testing.T) {
	cfg := emu.DefaultConfig()
	applyRunFlags(Run{}, &cfg)
	if diff := cmp.Diff(emu.DefaultConfig(), cfg); diff != "" {
		t.Errorf("config changed without flags (-want +got):\n%s", diff)
	}

	applyRunFlags(Run{Hz: 1200, Seed: 42, TimerMode: "60hz", TraceFormat: "json"}, &cfg)
	want := emu.DefaultConfig()
	want.Emulation = emu.EmulationConfig{CPUHz: 1200, TimerMode: emu.Timer60Hz, Seed: 42}
	want.TraceFormat = "json"
	if diff := cmp.Diff(want, cfg); diff != "" {
		t.Errorf("config mismatch (-want +got):\n%s", diff)
	}
}
