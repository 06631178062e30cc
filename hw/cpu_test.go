package hw

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"

	"chipper/tests"
)

func TestToneOutput(t *testing.T) {
	mem := NewMemory()
	if _, err := mem.LoadProgram(tests.Beep); err != nil {
		t.Fatal(err)
	}
	c := NewCPU(mem)

	// ST is set to 4 by the 2nd tick, then decremented at the start of each
	// following tick.
	want := []bool{false, true, true, true, true, false, false}
	var got []bool
	for range want {
		out, err := c.Tick(Keypad{})
		if err != nil {
			t.Fatal(err)
		}
		got = append(got, out.Tone)
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("tone sequence mismatch (-want +got):\n%s", diff)
	}
}

func TestDecoupledTimers(t *testing.T) {
	mem := NewMemory()
	if _, err := mem.LoadProgram(tests.Loop); err != nil {
		t.Fatal(err)
	}
	c := NewCPU(mem, WithDecoupledTimers())
	c.DT, c.ST = 2, 1

	step(t, c, 10)
	if c.DT != 2 || c.ST != 1 {
		t.Fatalf("DT=%d ST=%d, Tick shouldn't touch decoupled timers", c.DT, c.ST)
	}

	c.DecTimers()
	if c.DT != 1 || c.ST != 0 {
		t.Fatalf("DT=%d ST=%d, want DT=1 ST=0", c.DT, c.ST)
	}
	c.DecTimers()
	c.DecTimers()
	if c.DT != 0 || c.ST != 0 {
		t.Fatalf("DT=%d ST=%d, timers shouldn't underflow", c.DT, c.ST)
	}
}

func TestTracerCalled(t *testing.T) {
	type traced struct{ PC, Opcode uint16 }
	var got []traced

	mem := NewMemory()
	prg := tests.Program(
		0x6A02, // LD VA, $02
		0x5AB1, // invalid
		0x1200, // JP $200
	)
	if _, err := mem.LoadProgram(prg); err != nil {
		t.Fatal(err)
	}
	c := NewCPU(mem, WithTracer(TracerFunc(func(pc, opcode uint16) {
		got = append(got, traced{pc, opcode})
	})))

	step(t, c, 4)

	want := []traced{
		{0x200, 0x6A02},
		{0x202, 0x5AB1},
		{0x204, 0x1200},
		{0x200, 0x6A02},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("traced instructions mismatch (-want +got):\n%s", diff)
	}
	if c.Ticks != 4 {
		t.Errorf("Ticks = %d, want 4", c.Ticks)
	}
}

func TestReset(t *testing.T) {
	c := newTestCPU(t, 0xD125, 0x2200)
	step(t, c, 2)
	c.V[3] = 9
	c.DT = 5

	c.Reset()

	if diff := cmp.Diff(cpuState{PC: ProgramStart}, stateOf(c)); diff != "" {
		t.Errorf("state after reset mismatch (-want +got):\n%s", diff)
	}
	if c.Screen.Lit() != 0 {
		t.Errorf("screen should be blank after reset")
	}
	if c.Ticks != 0 {
		t.Errorf("Ticks = %d, want 0", c.Ticks)
	}
	// memory is untouched
	if got := c.Mem.Peek16(ProgramStart); got != 0xD125 {
		t.Errorf("program at $200 = %04X, want D125", got)
	}
}

func TestResetAfterHalt(t *testing.T) {
	c := newTestCPU(t, 0x00EE)
	if _, err := c.Tick(Keypad{}); err == nil {
		t.Fatal("RET with an empty stack should fail")
	}
	if !errors.Is(c.Fault(), ErrStackUnderflow) {
		t.Fatalf("Fault() = %v, want %v", c.Fault(), ErrStackUnderflow)
	}

	c.Reset()
	if c.Halted() {
		t.Fatal("CPU should not be halted after reset")
	}
}

func TestCPUString(t *testing.T) {
	c := newTestCPU(t)
	c.V[0], c.V[0xF] = 0x12, 0x01
	c.I = 0x0ABC
	c.DT, c.ST = 3, 4
	c.SP = 2
	c.Stack[0], c.Stack[1] = 0x200, 0x31E

	const want = "V: 12 00 00 00 00 00 00 00 00 00 00 00 00 00 00 01\n" +
		"PC: 0200  I: 0ABC  SP: 2  DT: 03  ST: 04\n" +
		"stack: 0200 031E"
	if diff := cmp.Diff(want, c.String()); diff != "" {
		t.Errorf("String() mismatch (-want +got):\n%s", diff)
	}
}

func TestKeypadString(t *testing.T) {
	if got := keys(0, 0xA, 0xF).String(); got != "0---------A----F" {
		t.Errorf("Keypad.String() = %q", got)
	}
}
