package hw

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestTraceFormat(t *testing.T) {
	want := []string{
		`0200  6A 02  LD    VA, $02`,
		`0202  5A B1  DW    $5AB1`,
		`0204  00 E0  CLS`,
	}

	var out bytes.Buffer
	tr := NewTextTracer(&out)
	tr.Trace(0x200, 0x6A02)
	tr.Trace(0x202, 0x5AB1)
	tr.Trace(0x204, 0x00E0)

	got := strings.Split(strings.TrimSuffix(out.String(), "\n"), "\n")
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("trace mismatch (-want +got):\n%s", diff)
	}
}

func TestJSONTraceFormat(t *testing.T) {
	want := `{"pc":"0200","op":"6A02","asm":"LD VA, $02"}` + "\n" +
		`{"pc":"0202","op":"5AB1","asm":"DW $5AB1","invalid":true}` + "\n" +
		`{"pc":"0204","op":"00E0","asm":"CLS"}` + "\n"

	var out bytes.Buffer
	tr := NewJSONTracer(&out)
	tr.Trace(0x200, 0x6A02)
	tr.Trace(0x202, 0x5AB1)
	tr.Trace(0x204, 0x00E0)

	if diff := cmp.Diff(want, out.String()); diff != "" {
		t.Errorf("trace mismatch (-want +got):\n%s", diff)
	}
}

func TestTracerFromCPU(t *testing.T) {
	var out bytes.Buffer

	c := newTestCPU(t, 0x6A02, 0x1200)
	c.tracer = NewTextTracer(&out)
	step(t, c, 3)

	const want = "0200  6A 02  LD    VA, $02\n" +
		"0202  12 00  JP    $200\n" +
		"0200  6A 02  LD    VA, $02\n"
	if diff := cmp.Diff(want, out.String()); diff != "" {
		t.Errorf("trace mismatch (-want +got):\n%s", diff)
	}
}

type failingWriter struct{ calls int }

var errDiskFull = errors.New("disk full")

func (w *failingWriter) Write(p []byte) (int, error) {
	w.calls++
	return 0, errDiskFull
}

type errTracer interface {
	Tracer
	Err() error
}

func TestTraceWriteError(t *testing.T) {
	cases := []struct {
		name   string
		tracer func(w *failingWriter) errTracer
	}{
		{name: "text", tracer: func(w *failingWriter) errTracer { return NewTextTracer(w) }},
		{name: "json", tracer: func(w *failingWriter) errTracer { return NewJSONTracer(w) }},
	}
	for _, tt := range cases {
		t.Run(tt.name, func(t *testing.T) {
			w := &failingWriter{}
			tr := tt.tracer(w)
			if tr.Err() != nil {
				t.Fatalf("Err() = %v before tracing", tr.Err())
			}
			for range 3 {
				tr.Trace(0x200, 0x6A02)
			}
			if w.calls != 1 {
				t.Errorf("writer called %d times, want 1", w.calls)
			}
			if !errors.Is(tr.Err(), errDiskFull) {
				t.Errorf("Err() = %v, want %v", tr.Err(), errDiskFull)
			}
		})
	}
}
