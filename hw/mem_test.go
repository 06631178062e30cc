package hw

import (
	"bytes"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestMemoryGlyphs(t *testing.T) {
	m := NewMemory()
	if diff := cmp.Diff(glyphs[:], m.RAM.Data[:len(glyphs)]); diff != "" {
		t.Errorf("glyph region mismatch (-want +got):\n%s", diff)
	}

	// 'A' glyph
	addr := GlyphAddr(0xA)
	want := []byte{0xF0, 0x90, 0xF0, 0x90, 0x90}
	if diff := cmp.Diff(want, m.RAM.Data[addr:addr+5]); diff != "" {
		t.Errorf("glyph A mismatch (-want +got):\n%s", diff)
	}
}

func TestMemoryLoadProgram(t *testing.T) {
	m := NewMemory()
	prg := []byte{0x12, 0x34, 0x56}
	n, err := m.LoadProgram(prg)
	if err != nil {
		t.Fatal(err)
	}
	if n != len(prg) {
		t.Errorf("loaded %d bytes, want %d", n, len(prg))
	}
	if got, _ := m.Read16(ProgramStart); got != 0x1234 {
		t.Errorf("Read16($200) = %04X, want 1234", got)
	}
	if diff := cmp.Diff(glyphs[:], m.RAM.Data[:len(glyphs)]); diff != "" {
		t.Errorf("glyph region modified by load (-want +got):\n%s", diff)
	}

	if _, err := m.LoadProgram(prg); !errors.Is(err, ErrProgramLoaded) {
		t.Errorf("second load: got err = %v, want %v", err, ErrProgramLoaded)
	}

	m.Reset()
	if _, err := m.LoadProgram(prg); err != nil {
		t.Errorf("load after reset: %v", err)
	}
}

func TestMemoryLoadProgramTruncates(t *testing.T) {
	m := NewMemory()
	prg := bytes.Repeat([]byte{0xAB}, MaxProgramSize+10)
	n, err := m.LoadProgram(prg)
	if err != nil {
		t.Fatal(err)
	}
	if n != MaxProgramSize {
		t.Errorf("loaded %d bytes, want %d", n, MaxProgramSize)
	}
	if got := m.Peek8(MemSize - 1); got != 0xAB {
		t.Errorf("last byte = %02X, want AB", got)
	}
}

func TestMemoryBounds(t *testing.T) {
	m := NewMemory()
	if _, err := m.Read8(MemSize); !errors.Is(err, ErrOutOfBounds) {
		t.Errorf("Read8: got err = %v, want %v", err, ErrOutOfBounds)
	}
	if _, err := m.Read16(MemSize - 1); !errors.Is(err, ErrOutOfBounds) {
		t.Errorf("Read16: got err = %v, want %v", err, ErrOutOfBounds)
	}
	if err := m.Write8(MemSize, 1); !errors.Is(err, ErrOutOfBounds) {
		t.Errorf("Write8: got err = %v, want %v", err, ErrOutOfBounds)
	}
	if err := m.Write8(MemSize-1, 0x42); err != nil {
		t.Errorf("Write8: %v", err)
	}
	if got := m.Peek8(MemSize - 1); got != 0x42 {
		t.Errorf("Peek8 = %02X, want 42", got)
	}
	if got := m.Peek16(MemSize - 1); got != 0x4200 {
		t.Errorf("Peek16 = %04X, want 4200", got)
	}
}
