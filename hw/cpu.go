package hw

import (
	"errors"
	"fmt"
	"math/rand/v2"
	"strings"

	"chipper/emu/log"
)

const (
	NumRegs   = 16
	StackSize = 16
	flagReg   = 0xF
)

var (
	ErrStackOverflow  = errors.New("call stack overflow")
	ErrStackUnderflow = errors.New("call stack underflow")
	ErrHalted         = errors.New("cpu halted")
)

type CPU struct {
	Mem    *Memory
	Screen Screen

	// registers
	V  [NumRegs]uint8
	I  uint16
	PC uint16
	SP uint8 // number of entries in Stack

	Stack [StackSize]uint16

	// timers
	DT, ST uint8

	Ticks uint64 // executed instructions

	dirty bool
	keys  Keypad

	// FX0A key wait.
	waitingKey bool
	prevKeys   Keypad

	decoupledTimers bool

	tracer Tracer
	rng    *rand.Rand

	fault error // non-nil once halted
}

type Option func(*CPU)

// WithTracer installs a diagnostic hook called for each decoded instruction.
func WithTracer(t Tracer) Option {
	return func(c *CPU) {
		if t != nil {
			c.tracer = t
		}
	}
}

// WithSeed makes the random number generator deterministic.
func WithSeed(seed uint64) Option {
	return func(c *CPU) {
		c.rng = rand.New(rand.NewPCG(seed, seed^0x9E3779B97F4A7C15))
	}
}

// WithDecoupledTimers stops Tick from decrementing the timers, the caller is
// then responsible for calling DecTimers at its own pace (usually 60Hz).
func WithDecoupledTimers() Option {
	return func(c *CPU) { c.decoupledTimers = true }
}

// NewCPU creates a CPU at power-up state, owning mem.
func NewCPU(mem *Memory, opts ...Option) *CPU {
	c := &CPU{
		Mem:    mem,
		tracer: NopTracer{},
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.rng == nil {
		c.rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	c.Reset()
	return c
}

// Reset puts the CPU back to power-up state. Memory is left untouched.
func (c *CPU) Reset() {
	c.V = [NumRegs]uint8{}
	c.I = 0
	c.PC = ProgramStart
	c.SP = 0
	c.Stack = [StackSize]uint16{}
	c.DT, c.ST = 0, 0
	c.Ticks = 0
	c.Screen.clear()
	c.keys = Keypad{}
	c.waitingKey = false
	c.prevKeys = Keypad{}
	c.fault = nil
}

// Tick executes exactly one instruction, with keys as the current keypad
// state. A non-nil error is fatal, the CPU is halted and won't execute
// anything until Reset.
func (c *CPU) Tick(keys Keypad) (Output, error) {
	if c.fault != nil {
		return c.output(), fmt.Errorf("%w: %w", ErrHalted, c.fault)
	}

	c.dirty = false
	if !c.decoupledTimers {
		c.DecTimers()
	}

	opcode, err := c.Mem.Read16(c.PC)
	if err != nil {
		return c.output(), c.halt(fmt.Errorf("fetch at $%04X: %w", c.PC, err))
	}

	c.tracer.Trace(c.PC, opcode)
	c.keys = keys

	in := decode(opcode)
	act, err := lookup(opcode).exec(c, in)
	if err != nil {
		return c.output(), c.halt(fmt.Errorf("%04X at $%04X: %w", opcode, c.PC, err))
	}

	switch act.kind {
	case actNext:
		c.PC += 2
	case actSkip:
		c.PC += 4
	case actJump:
		c.PC = act.addr
	}
	c.Ticks++

	return c.output(), nil
}

// DecTimers decrements the delay and sound timers, if they're running.
func (c *CPU) DecTimers() {
	if c.ST > 0 {
		c.ST--
	}
	if c.DT > 0 {
		c.DT--
	}
}

func (c *CPU) output() Output {
	return Output{
		Video: &c.Screen,
		Dirty: c.dirty,
		Tone:  c.ST > 0,
	}
}

func (c *CPU) halt(err error) error {
	c.fault = err
	log.ModCPU.ErrorZ("CPU halted").
		Hex16("PC", c.PC).
		Uint("ticks", c.Ticks).
		Error("err", err).
		End()
	return err
}

// Halted reports whether a fatal error stopped the CPU.
func (c *CPU) Halted() bool { return c.fault != nil }

// Fault returns the error that halted the CPU, if any.
func (c *CPU) Fault() error { return c.fault }

// WaitingKey reports whether the CPU is blocked on a key press.
func (c *CPU) WaitingKey() bool { return c.waitingKey }

// AddLogContext implements log.Context.
func (c *CPU) AddLogContext(e *log.EntryZ) {
	e.Hex16("pc", c.PC)
}

func (c *CPU) String() string {
	var sb strings.Builder
	sb.WriteString("V: ")
	for i, v := range c.V {
		if i != 0 {
			sb.WriteByte(' ')
		}
		fmt.Fprintf(&sb, "%02X", v)
	}
	fmt.Fprintf(&sb, "\nPC: %04X  I: %04X  SP: %d  DT: %02X  ST: %02X", c.PC, c.I, c.SP, c.DT, c.ST)
	if c.SP > 0 {
		sb.WriteString("\nstack:")
		for _, addr := range c.Stack[:c.SP] {
			fmt.Fprintf(&sb, " %04X", addr)
		}
	}
	return sb.String()
}
