package hw

import (
	"fmt"
	"io"

	"github.com/go-faster/jx"

	"chipper/emu/log"
)

// A Tracer is called once per decoded instruction, before its execution. It
// must not modify the machine state.
type Tracer interface {
	Trace(pc, opcode uint16)
}

// NopTracer is the silent tracer.
type NopTracer struct{}

func (NopTracer) Trace(pc, opcode uint16) {}

// traceWriter stops writing after the first error, which is logged once.
type traceWriter struct {
	w   io.Writer
	err error
}

func (tw *traceWriter) write(p []byte) {
	if tw.err != nil {
		return
	}
	if _, err := tw.w.Write(p); err != nil {
		tw.err = err
		log.ModCPU.ErrorZ("Trace output failed, tracing disabled").
			Error("err", err).
			End()
	}
}

// Err returns the error that stopped the trace output, if any.
func (tw *traceWriter) Err() error { return tw.err }

// TextTracer writes one disassembled line per executed instruction.
type TextTracer struct {
	traceWriter
	buf []byte
}

func NewTextTracer(w io.Writer) *TextTracer {
	return &TextTracer{traceWriter: traceWriter{w: w}}
}

func (t *TextTracer) Trace(pc, opcode uint16) {
	if t.err != nil {
		return
	}
	t.buf = append(t.buf[:0], Disasm(pc, opcode).Bytes()...)
	t.buf = append(t.buf, '\n')
	t.write(t.buf)
}

// JSONTracer writes one JSON object per executed instruction (JSON lines):
//
//	{"pc":"0200","op":"6A02","asm":"LD VA, $02"}
type JSONTracer struct {
	traceWriter
	e jx.Encoder
}

func NewJSONTracer(w io.Writer) *JSONTracer {
	return &JSONTracer{traceWriter: traceWriter{w: w}}
}

func (t *JSONTracer) Trace(pc, opcode uint16) {
	if t.err != nil {
		return
	}
	dis := Disasm(pc, opcode)

	t.e.Reset()
	t.e.ObjStart()
	t.e.FieldStart("pc")
	t.e.Str(fmt.Sprintf("%04X", pc))
	t.e.FieldStart("op")
	t.e.Str(fmt.Sprintf("%04X", opcode))
	t.e.FieldStart("asm")
	if dis.Oper == "" {
		t.e.Str(dis.Opcode)
	} else {
		t.e.Str(dis.Opcode + " " + dis.Oper)
	}
	if !dis.Valid {
		t.e.FieldStart("invalid")
		t.e.Bool(true)
	}
	t.e.ObjEnd()

	t.write(append(t.e.Bytes(), '\n'))
}

// TracerFunc adapts a function to the Tracer interface.
type TracerFunc func(pc, opcode uint16)

func (f TracerFunc) Trace(pc, opcode uint16) { f(pc, opcode) }
