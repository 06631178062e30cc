// Package hwio provides the building blocks of the machine address space.
package hwio

import (
	"errors"
	"fmt"
)

var ErrOutOfBounds = errors.New("address out of bounds")

// BankIO8 is implemented by byte-addressable memory areas.
type BankIO8 interface {
	Read8(addr uint16) (uint8, error)
	// Peek8 reads without side effects (debugging/tracing). Out of range
	// addresses read as zero.
	Peek8(addr uint16) uint8
	Write8(addr uint16, val uint8) error
}

// Read16 reads a big-endian word at addr. Both bytes must be addressable.
func Read16(b BankIO8, addr uint16) (uint16, error) {
	hi, err := b.Read8(addr)
	if err != nil {
		return 0, err
	}
	lo, err := b.Read8(addr + 1)
	if err != nil {
		return 0, err
	}
	return uint16(hi)<<8 | uint16(lo), nil
}

// Peek16 is the side-effect free version of Read16.
func Peek16(b BankIO8, addr uint16) uint16 {
	return uint16(b.Peek8(addr))<<8 | uint16(b.Peek8(addr+1))
}

// Mem is a linear memory area. Contrary to a real data bus, accesses are
// never mirrored nor wrapped: an address beyond len(Data) is an error.
type Mem struct {
	Name string // name of the memory area (for debugging)
	Data []byte // actual memory buffer
}

func (m *Mem) boundsErr(op string, addr uint16) error {
	return fmt.Errorf("%s %s[$%04X] (size $%04X): %w", op, m.Name, addr, len(m.Data), ErrOutOfBounds)
}

func (m *Mem) Read8(addr uint16) (uint8, error) {
	if int(addr) >= len(m.Data) {
		return 0, m.boundsErr("read", addr)
	}
	return m.Data[addr], nil
}

func (m *Mem) Peek8(addr uint16) uint8 {
	if int(addr) >= len(m.Data) {
		return 0
	}
	return m.Data[addr]
}

func (m *Mem) Write8(addr uint16, val uint8) error {
	if int(addr) >= len(m.Data) {
		return m.boundsErr("write", addr)
	}
	m.Data[addr] = val
	return nil
}

// Fill copies buf into the memory area at offset addr. It returns the number
// of bytes copied, buf is truncated if it doesn't fit.
func (m *Mem) Fill(addr uint16, buf []byte) (int, error) {
	if int(addr) > len(m.Data) {
		return 0, m.boundsErr("fill", addr)
	}
	return copy(m.Data[addr:], buf), nil
}
