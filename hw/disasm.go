package hw

import (
	"bufio"
	"fmt"
	"io"
)

type DisasmOp struct {
	PC     uint16
	Raw    uint16 // raw opcode
	Opcode string // mnemonic
	Oper   string // operands, if any
	Valid  bool   // false for words that don't decode to an instruction
}

// Disasm decodes the instruction opcode located at pc.
func Disasm(pc, opcode uint16) DisasmOp {
	info := lookup(opcode)
	dis := DisasmOp{
		PC:     pc,
		Raw:    opcode,
		Opcode: info.name,
		Valid:  info.valid,
	}
	if info.valid {
		dis.Oper = info.oper(decode(opcode))
	} else {
		dis.Oper = fmt.Sprintf("$%04X", opcode)
	}
	return dis
}

// Disasm decodes the instruction at pc, without side effects.
func (c *CPU) Disasm(pc uint16) DisasmOp {
	return Disasm(pc, c.Mem.Peek16(pc))
}

func hexEncode(dst []byte, v byte) {
	const hextable = "0123456789ABCDEF"
	dst[0] = hextable[v>>4]
	dst[1] = hextable[v&0x0f]
}

// Bytes returns the fixed-width text representation of a DisasmOp, without
// trailing newline. This is the format of the execution trace.
func (d DisasmOp) Bytes() []byte {
	const mnemonicWidth = 5
	buf := make([]byte, 13, 13+mnemonicWidth+1+len(d.Oper))

	hexEncode(buf[0:], byte(d.PC>>8))
	hexEncode(buf[2:], byte(d.PC))
	buf[4], buf[5] = ' ', ' '
	hexEncode(buf[6:], byte(d.Raw>>8))
	buf[8] = ' '
	hexEncode(buf[9:], byte(d.Raw))
	buf[11], buf[12] = ' ', ' '

	buf = append(buf, d.Opcode...)
	if d.Oper == "" {
		return buf
	}
	for i := len(d.Opcode); i < mnemonicWidth; i++ {
		buf = append(buf, ' ')
	}
	buf = append(buf, ' ')
	return append(buf, d.Oper...)
}

func (d DisasmOp) String() string { return string(d.Bytes()) }

// DisasmProgram writes the linear disassembly of a program image, as if it
// were loaded at ProgramStart. Every word is decoded, data included.
func DisasmProgram(w io.Writer, prg []byte) error {
	bw := bufio.NewWriter(w)
	pc := uint16(ProgramStart)
	for off := 0; off+1 < len(prg); off += 2 {
		opcode := uint16(prg[off])<<8 | uint16(prg[off+1])
		bw.Write(Disasm(pc, opcode).Bytes())
		bw.WriteByte('\n')
		pc += 2
	}
	if len(prg)%2 != 0 {
		fmt.Fprintf(bw, "%04X  %02X     DB    $%02X\n", pc, prg[len(prg)-1], prg[len(prg)-1])
	}
	return bw.Flush()
}
