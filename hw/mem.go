package hw

import (
	"errors"
	"fmt"

	"chipper/emu/log"
	"chipper/hw/hwio"
)

// Memory map:
//
//	0x000-0x1FF: built-in glyphs (interpreter area)
//	0x200-0xFFF: program image and work memory
const (
	MemSize        = 0x1000
	ProgramStart   = 0x200
	MaxProgramSize = MemSize - ProgramStart
)

var (
	ErrOutOfBounds   = hwio.ErrOutOfBounds
	ErrProgramLoaded = errors.New("program already loaded")
)

// Memory is the machine memory bus. It's seeded with the built-in glyphs at
// creation, then receives the program image once.
type Memory struct {
	RAM hwio.Mem

	buf    [MemSize]uint8
	loaded bool
}

// NewMemory returns a memory bus with the glyph region seeded.
func NewMemory() *Memory {
	m := &Memory{}
	m.RAM = hwio.Mem{Name: "ram", Data: m.buf[:]}
	m.Reset()
	return m
}

// Reset clears the whole memory and seeds the glyphs again. A new program can
// then be loaded.
func (m *Memory) Reset() {
	clear(m.buf[:])
	copy(m.buf[:], glyphs[:])
	m.loaded = false
}

// LoadProgram copies the program image at ProgramStart. Bytes that don't fit
// in the program region are dropped, the returned count is the number of
// bytes actually loaded.
func (m *Memory) LoadProgram(prg []byte) (int, error) {
	if m.loaded {
		return 0, ErrProgramLoaded
	}

	n, err := m.RAM.Fill(ProgramStart, prg)
	if err != nil {
		return 0, err
	}
	m.loaded = true

	if n < len(prg) {
		log.ModMem.WarnZ("program image truncated").
			Int("size", len(prg)).
			Int("loaded", n).
			End()
	}
	log.ModMem.DebugZ("program loaded").
		Hex16("addr", ProgramStart).
		Int("size", n).
		End()
	return n, nil
}

func (m *Memory) Read8(addr uint16) (uint8, error)    { return m.RAM.Read8(addr) }
func (m *Memory) Peek8(addr uint16) uint8             { return m.RAM.Peek8(addr) }
func (m *Memory) Write8(addr uint16, val uint8) error { return m.RAM.Write8(addr, val) }

// Read16 reads the big-endian word at addr.
func (m *Memory) Read16(addr uint16) (uint16, error) { return hwio.Read16(&m.RAM, addr) }

// Peek16 reads the big-endian word at addr without side effects.
func (m *Memory) Peek16(addr uint16) uint16 { return hwio.Peek16(&m.RAM, addr) }

// checkRange reports an error if the n bytes starting at addr don't all fit
// in memory. Addresses never wrap around.
func (m *Memory) checkRange(op string, addr uint16, n int) error {
	if int(addr)+n > len(m.RAM.Data) {
		return fmt.Errorf("%s %s[$%04X:$%04X]: %w", op, m.RAM.Name, addr, int(addr)+n, ErrOutOfBounds)
	}
	return nil
}
