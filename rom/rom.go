// Package rom implements a reader for CHIP-8 program images. An image is a
// raw sequence of big-endian instructions and data, without any header, meant
// to be loaded at address 0x200.
package rom

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"text/tabwriter"

	"chipper/hw"
)

var ErrEmpty = errors.New("empty program image")

type Rom struct {
	Name string // base name of the file the image was read from, if any
	Data []byte // raw image, as read
}

// Open loads a rom from file.
func Open(path string) (*Rom, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	rom := &Rom{Name: filepath.Base(path)}
	if _, err := rom.ReadFrom(f); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return rom, nil
}

// ReadFrom implements io.ReaderFrom interface.
func (rom *Rom) ReadFrom(r io.Reader) (int64, error) {
	buf, err := io.ReadAll(r)
	if err != nil {
		return 0, err
	}
	if len(buf) == 0 {
		return 0, ErrEmpty
	}
	rom.Data = buf
	return int64(len(buf)), nil
}

// Truncated reports whether the image is larger than the program region, in
// which case the extra bytes are dropped at load time.
func (rom *Rom) Truncated() bool {
	return len(rom.Data) > hw.MaxProgramSize
}

// PrintInfos writes a human readable summary of the image.
func (rom *Rom) PrintInfos(w io.Writer) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)

	fmt.Fprintf(tw, "name:\t%s\n", rom.Name)
	fmt.Fprintf(tw, "size:\t%d bytes (%d instructions)\n", len(rom.Data), len(rom.Data)/2)
	fmt.Fprintf(tw, "program region:\t$%03X-$%03X (%d bytes)\n", hw.ProgramStart, hw.MemSize-1, hw.MaxProgramSize)
	if rom.Truncated() {
		fmt.Fprintf(tw, "truncated:\t%d bytes won't be loaded\n", len(rom.Data)-hw.MaxProgramSize)
	} else {
		fmt.Fprintf(tw, "truncated:\tno\n")
	}
	if len(rom.Data) >= 2 {
		opcode := uint16(rom.Data[0])<<8 | uint16(rom.Data[1])
		fmt.Fprintf(tw, "entry point:\t%s\n", hw.Disasm(hw.ProgramStart, opcode))
	}
	return tw.Flush()
}
