package hw

import (
	"testing"

	"chipper/tests"
)

// newTestCPU returns a deterministic CPU with the given instructions loaded at
// ProgramStart.
func newTestCPU(tb testing.TB, words ...uint16) *CPU {
	tb.Helper()

	mem := NewMemory()
	if _, err := mem.LoadProgram(tests.Program(words...)); err != nil {
		tb.Fatal(err)
	}
	return NewCPU(mem, WithSeed(1))
}

// step runs n ticks with no key pressed, failing the test on error.
func step(tb testing.TB, c *CPU, n int) Output {
	tb.Helper()

	var out Output
	for i := range n {
		var err error
		out, err = c.Tick(Keypad{})
		if err != nil {
			tb.Fatalf("tick %d: %s", i, err)
		}
	}
	return out
}

func keys(ks ...uint8) Keypad {
	var kp Keypad
	for _, k := range ks {
		kp[k] = true
	}
	return kp
}
