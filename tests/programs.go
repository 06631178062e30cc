// Package tests provides program images and helpers shared by the tests of
// other packages.
package tests

import (
	"os"
	"path/filepath"
	"testing"
)

// Program assembles big-endian instruction words into a program image.
func Program(words ...uint16) []byte {
	prg := make([]byte, 0, 2*len(words))
	for _, w := range words {
		prg = append(prg, byte(w>>8), byte(w))
	}
	return prg
}

// WriteROM writes prg into a temporary file, removed at the end of the test,
// and returns its path.
func WriteROM(tb testing.TB, prg []byte) string {
	tb.Helper()

	path := filepath.Join(tb.TempDir(), "test.ch8")
	if err := os.WriteFile(path, prg, 0o644); err != nil {
		tb.Fatal(err)
	}
	return path
}

// Canned programs.
var (
	// Loop is a single instruction jumping to itself.
	Loop = Program(0x1200)

	// Digit draws the glyph of digit 0xA at (2, 3) then loops forever.
	Digit = Program(
		0x600A, // LD V0, $0A
		0xF029, // LD F, V0
		0x6102, // LD V1, $02
		0x6203, // LD V2, $03
		0xD125, // DRW V1, V2, 5
		0x120A, // JP $20A
	)

	// Beep sets the sound timer to 4 then loops forever.
	Beep = Program(
		0x6004, // LD V0, $04
		0xF018, // LD ST, V0
		0x1204, // JP $204
	)

	// WaitKey waits for a key press, stores V0-V5 at $300 then loops. The
	// pressed key ends up at $305.
	WaitKey = Program(
		0xF50A, // LD V5, K
		0xA300, // LD I, $300
		0xF555, // LD [I], V5
		0x1206, // JP $206
	)

	// Overflow calls itself until the call stack overflows.
	Overflow = Program(0x2200)
)
