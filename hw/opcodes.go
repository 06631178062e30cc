package hw

import (
	"fmt"

	"chipper/emu/log"
)

//go:generate go tool stringer -type=actionKind -trimprefix=act

// actionKind is what happens to the program counter after an instruction.
type actionKind uint8

const (
	actNext actionKind = iota // advance by one instruction
	actSkip                   // advance by two instructions
	actJump                   // jump to absolute address
)

type action struct {
	kind actionKind
	addr uint16
}

var (
	next = action{kind: actNext}
	skip = action{kind: actSkip}
)

func jump(addr uint16) action { return action{kind: actJump, addr: addr} }

func skipIf(cond bool) action {
	if cond {
		return skip
	}
	return next
}

// instr holds the fields of a decoded opcode. Which ones are meaningful
// depends on the operation.
type instr struct {
	x, y uint8  // register indices
	n    uint8  // low nibble
	kk   uint8  // 8-bit immediate
	addr uint16 // 12-bit address
}

func decode(opcode uint16) instr {
	return instr{
		x:    uint8(opcode>>8) & 0x0F,
		y:    uint8(opcode>>4) & 0x0F,
		n:    uint8(opcode) & 0x0F,
		kk:   uint8(opcode),
		addr: opcode & 0x0FFF,
	}
}

type opInfo struct {
	name  string
	oper  func(in instr) string
	exec  func(c *CPU, in instr) (action, error)
	valid bool
}

func op(name string, oper func(instr) string, exec func(*CPU, instr) (action, error)) opInfo {
	return opInfo{name: name, oper: oper, exec: exec, valid: true}
}

// operand formatters
func operNone(instr) string      { return "" }
func operAddr(in instr) string   { return fmt.Sprintf("$%03X", in.addr) }
func operVx(in instr) string     { return fmt.Sprintf("V%X", in.x) }
func operVxKK(in instr) string   { return fmt.Sprintf("V%X, $%02X", in.x, in.kk) }
func operVxVy(in instr) string   { return fmt.Sprintf("V%X, V%X", in.x, in.y) }
func operVxVyN(in instr) string  { return fmt.Sprintf("V%X, V%X, %d", in.x, in.y, in.n) }
func operIAddr(in instr) string  { return fmt.Sprintf("I, $%03X", in.addr) }
func operV0Addr(in instr) string { return fmt.Sprintf("V0, $%03X", in.addr) }

func operFmt(format string) func(instr) string {
	return func(in instr) string { return fmt.Sprintf(format, in.x) }
}

var (
	opSYS  = op("SYS", operAddr, (*CPU).sys)
	opCLS  = op("CLS", operNone, (*CPU).cls)
	opRET  = op("RET", operNone, (*CPU).ret)
	opJP   = op("JP", operAddr, (*CPU).jp)
	opCALL = op("CALL", operAddr, (*CPU).call)
	opSEK  = op("SE", operVxKK, (*CPU).seImm)
	opSNEK = op("SNE", operVxKK, (*CPU).sneImm)
	opSEV  = op("SE", operVxVy, (*CPU).seReg)
	opLDK  = op("LD", operVxKK, (*CPU).ldImm)
	opADDK = op("ADD", operVxKK, (*CPU).addImm)
	opLDV  = op("LD", operVxVy, (*CPU).ldReg)
	opOR   = op("OR", operVxVy, (*CPU).or)
	opAND  = op("AND", operVxVy, (*CPU).and)
	opXOR  = op("XOR", operVxVy, (*CPU).xor)
	opADDV = op("ADD", operVxVy, (*CPU).addReg)
	opSUB  = op("SUB", operVxVy, (*CPU).sub)
	opSHR  = op("SHR", operVx, (*CPU).shr)
	opSUBN = op("SUBN", operVxVy, (*CPU).subn)
	opSHL  = op("SHL", operVx, (*CPU).shl)
	opSNEV = op("SNE", operVxVy, (*CPU).sneReg)
	opLDI  = op("LD", operIAddr, (*CPU).ldI)
	opJPV0 = op("JP", operV0Addr, (*CPU).jpV0)
	opRND  = op("RND", operVxKK, (*CPU).rnd)
	opDRW  = op("DRW", operVxVyN, (*CPU).drw)
	opSKP  = op("SKP", operVx, (*CPU).skp)
	opSKNP = op("SKNP", operVx, (*CPU).sknp)
	opLDVD = op("LD", operFmt("V%X, DT"), (*CPU).ldVxDT)
	opLDKY = op("LD", operFmt("V%X, K"), (*CPU).ldKey)
	opLDDV = op("LD", operFmt("DT, V%X"), (*CPU).ldDTVx)
	opLDSV = op("LD", operFmt("ST, V%X"), (*CPU).ldSTVx)
	opADDI = op("ADD", operFmt("I, V%X"), (*CPU).addI)
	opLDF  = op("LD", operFmt("F, V%X"), (*CPU).ldF)
	opLDB  = op("LD", operFmt("B, V%X"), (*CPU).ldB)
	opSTOR = op("LD", operFmt("[I], V%X"), (*CPU).store)
	opLOAD = op("LD", operFmt("V%X, [I]"), (*CPU).load)

	opInvalid = opInfo{name: "DW", exec: (*CPU).invalid}
)

// lookup returns the operation encoded by opcode, or opInvalid.
func lookup(opcode uint16) *opInfo {
	switch opcode >> 12 {
	case 0x0:
		switch opcode {
		case 0x00E0:
			return &opCLS
		case 0x00EE:
			return &opRET
		}
		return &opSYS
	case 0x1:
		return &opJP
	case 0x2:
		return &opCALL
	case 0x3:
		return &opSEK
	case 0x4:
		return &opSNEK
	case 0x5:
		if opcode&0x000F == 0 {
			return &opSEV
		}
	case 0x6:
		return &opLDK
	case 0x7:
		return &opADDK
	case 0x8:
		switch opcode & 0x000F {
		case 0x0:
			return &opLDV
		case 0x1:
			return &opOR
		case 0x2:
			return &opAND
		case 0x3:
			return &opXOR
		case 0x4:
			return &opADDV
		case 0x5:
			return &opSUB
		case 0x6:
			return &opSHR
		case 0x7:
			return &opSUBN
		case 0xE:
			return &opSHL
		}
	case 0x9:
		if opcode&0x000F == 0 {
			return &opSNEV
		}
	case 0xA:
		return &opLDI
	case 0xB:
		return &opJPV0
	case 0xC:
		return &opRND
	case 0xD:
		return &opDRW
	case 0xE:
		switch opcode & 0x00FF {
		case 0x9E:
			return &opSKP
		case 0xA1:
			return &opSKNP
		}
	case 0xF:
		switch opcode & 0x00FF {
		case 0x07:
			return &opLDVD
		case 0x0A:
			return &opLDKY
		case 0x15:
			return &opLDDV
		case 0x18:
			return &opLDSV
		case 0x1E:
			return &opADDI
		case 0x29:
			return &opLDF
		case 0x33:
			return &opLDB
		case 0x55:
			return &opSTOR
		case 0x65:
			return &opLOAD
		}
	}
	return &opInvalid
}

func b2u8(b bool) uint8 {
	if b {
		return 1
	}
	return 0
}

// 0NNN: machine code routines aren't supported.
func (c *CPU) sys(in instr) (action, error) {
	return next, nil
}

func (c *CPU) invalid(in instr) (action, error) {
	log.ModCPU.DebugZ("invalid opcode").
		Hex16("addr", c.PC).
		Hex16("opcode", c.Mem.Peek16(c.PC)).
		End()
	return next, nil
}

// 00E0
func (c *CPU) cls(in instr) (action, error) {
	c.Screen.clear()
	c.dirty = true
	return next, nil
}

// 00EE
func (c *CPU) ret(in instr) (action, error) {
	if c.SP == 0 {
		return next, ErrStackUnderflow
	}
	c.SP--
	c.PC = c.Stack[c.SP]
	return next, nil
}

// 1NNN
func (c *CPU) jp(in instr) (action, error) {
	return jump(in.addr), nil
}

// 2NNN
func (c *CPU) call(in instr) (action, error) {
	if c.SP == StackSize {
		return next, ErrStackOverflow
	}
	c.Stack[c.SP] = c.PC
	c.SP++
	return jump(in.addr), nil
}

// 3XKK
func (c *CPU) seImm(in instr) (action, error) {
	return skipIf(c.V[in.x] == in.kk), nil
}

// 4XKK
func (c *CPU) sneImm(in instr) (action, error) {
	return skipIf(c.V[in.x] != in.kk), nil
}

// 5XY0
func (c *CPU) seReg(in instr) (action, error) {
	return skipIf(c.V[in.x] == c.V[in.y]), nil
}

// 6XKK
func (c *CPU) ldImm(in instr) (action, error) {
	c.V[in.x] = in.kk
	return next, nil
}

// 7XKK: wraps, VF is left untouched.
func (c *CPU) addImm(in instr) (action, error) {
	c.V[in.x] += in.kk
	return next, nil
}

// 8XY0
func (c *CPU) ldReg(in instr) (action, error) {
	c.V[in.x] = c.V[in.y]
	return next, nil
}

// 8XY1
func (c *CPU) or(in instr) (action, error) {
	c.V[in.x] |= c.V[in.y]
	return next, nil
}

// 8XY2
func (c *CPU) and(in instr) (action, error) {
	c.V[in.x] &= c.V[in.y]
	return next, nil
}

// 8XY3
func (c *CPU) xor(in instr) (action, error) {
	c.V[in.x] ^= c.V[in.y]
	return next, nil
}

// The flag is always written after the result: with X=F the flag wins.

// 8XY4
func (c *CPU) addReg(in instr) (action, error) {
	sum := uint16(c.V[in.x]) + uint16(c.V[in.y])
	c.V[in.x] = uint8(sum)
	c.V[flagReg] = b2u8(sum > 0xFF)
	return next, nil
}

// 8XY5: VF is 1 when there's no borrow.
func (c *CPU) sub(in instr) (action, error) {
	vx, vy := c.V[in.x], c.V[in.y]
	c.V[in.x] = vx - vy
	c.V[flagReg] = b2u8(vx >= vy)
	return next, nil
}

// 8XY6: shifts VX itself, VY is ignored.
func (c *CPU) shr(in instr) (action, error) {
	v := c.V[in.x]
	c.V[in.x] = v >> 1
	c.V[flagReg] = v & 0x01
	return next, nil
}

// 8XY7: VF is 1 when there's no borrow.
func (c *CPU) subn(in instr) (action, error) {
	vx, vy := c.V[in.x], c.V[in.y]
	c.V[in.x] = vy - vx
	c.V[flagReg] = b2u8(vy >= vx)
	return next, nil
}

// 8XYE: shifts VX itself, VY is ignored.
func (c *CPU) shl(in instr) (action, error) {
	v := c.V[in.x]
	c.V[in.x] = v << 1
	c.V[flagReg] = v >> 7
	return next, nil
}

// 9XY0
func (c *CPU) sneReg(in instr) (action, error) {
	return skipIf(c.V[in.x] != c.V[in.y]), nil
}

// ANNN
func (c *CPU) ldI(in instr) (action, error) {
	c.I = in.addr
	return next, nil
}

// BNNN
func (c *CPU) jpV0(in instr) (action, error) {
	return jump(in.addr + uint16(c.V[0])), nil
}

// CXKK
func (c *CPU) rnd(in instr) (action, error) {
	c.V[in.x] = uint8(c.rng.Uint32()) & in.kk
	return next, nil
}

// DXYN: sprites are 8 pixels wide, rows are read from I. Coordinates wrap
// around the screen edges.
func (c *CPU) drw(in instr) (action, error) {
	var rows [15]uint8
	sprite := rows[:in.n]
	if err := c.Mem.checkRange("sprite", c.I, len(sprite)); err != nil {
		return next, err
	}
	for i := range sprite {
		b, err := c.Mem.Read8(c.I + uint16(i))
		if err != nil {
			return next, fmt.Errorf("sprite row %d: %w", i, err)
		}
		sprite[i] = b
	}

	x0, y0 := int(c.V[in.x]), int(c.V[in.y])
	collision := false
	for row, bits := range sprite {
		y := (y0 + row) % ScreenHeight
		for col := range 8 {
			if bits&(0x80>>col) == 0 {
				continue
			}
			x := (x0 + col) % ScreenWidth
			if c.Screen.flip(x, y) {
				collision = true
			}
		}
	}

	c.V[flagReg] = b2u8(collision)
	c.dirty = true
	return next, nil
}

// EX9E
func (c *CPU) skp(in instr) (action, error) {
	return skipIf(c.keys.Pressed(c.V[in.x])), nil
}

// EXA1
func (c *CPU) sknp(in instr) (action, error) {
	return skipIf(!c.keys.Pressed(c.V[in.x])), nil
}

// FX07
func (c *CPU) ldVxDT(in instr) (action, error) {
	c.V[in.x] = c.DT
	return next, nil
}

// FX0A: the instruction repeats itself until a key goes down. Keys already
// held when the wait starts must be released and pressed again.
func (c *CPU) ldKey(in instr) (action, error) {
	if !c.waitingKey {
		c.waitingKey = true
		c.prevKeys = c.keys
		return jump(c.PC), nil
	}

	for k := range NumKeys {
		if c.keys[k] && !c.prevKeys[k] {
			c.V[in.x] = uint8(k)
			c.waitingKey = false
			return next, nil
		}
	}
	c.prevKeys = c.keys
	return jump(c.PC), nil
}

// FX15
func (c *CPU) ldDTVx(in instr) (action, error) {
	c.DT = c.V[in.x]
	return next, nil
}

// FX18
func (c *CPU) ldSTVx(in instr) (action, error) {
	c.ST = c.V[in.x]
	return next, nil
}

// FX1E
func (c *CPU) addI(in instr) (action, error) {
	c.I += uint16(c.V[in.x])
	return next, nil
}

// FX29
func (c *CPU) ldF(in instr) (action, error) {
	c.I = GlyphAddr(c.V[in.x])
	return next, nil
}

// FX33: nothing is written when the destination doesn't fit in memory.
func (c *CPU) ldB(in instr) (action, error) {
	if err := c.Mem.checkRange("bcd", c.I, 3); err != nil {
		return next, err
	}
	v := c.V[in.x]
	digits := [3]uint8{v / 100, (v / 10) % 10, v % 10}
	for i := range digits {
		if err := c.Mem.Write8(c.I+uint16(i), digits[i]); err != nil {
			return next, err
		}
	}
	return next, nil
}

// FX55: I is left unchanged.
func (c *CPU) store(in instr) (action, error) {
	if err := c.Mem.checkRange("store", c.I, int(in.x)+1); err != nil {
		return next, err
	}
	for i := range int(in.x) + 1 {
		if err := c.Mem.Write8(c.I+uint16(i), c.V[i]); err != nil {
			return next, err
		}
	}
	return next, nil
}

// FX65: I is left unchanged.
func (c *CPU) load(in instr) (action, error) {
	if err := c.Mem.checkRange("load", c.I, int(in.x)+1); err != nil {
		return next, err
	}
	var regs [NumRegs]uint8
	for i := range int(in.x) + 1 {
		v, err := c.Mem.Read8(c.I + uint16(i))
		if err != nil {
			return next, err
		}
		regs[i] = v
	}
	copy(c.V[:in.x+1], regs[:in.x+1])
	return next, nil
}
