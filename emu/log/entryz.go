package log

import (
	"fmt"
	"sync"
	"time"

	"gopkg.in/Sirupsen/logrus.v0"
)

const maxZFields = 16

// EntryZ is a log entry built field by field. All methods accept a nil
// receiver, which is what disabled levels return.
type EntryZ struct {
	lvl   Level
	msg   string
	mod   Module
	zfbuf [maxZFields]ZField
	zfidx int
}

var entryPool = sync.Pool{
	New: func() any { return new(EntryZ) },
}

func newEntryZ() *EntryZ {
	return entryPool.Get().(*EntryZ)
}

func (z *EntryZ) add() *ZField {
	if z.zfidx == maxZFields {
		return nil
	}
	f := &z.zfbuf[z.zfidx]
	z.zfidx++
	return f
}

func (z *EntryZ) Bool(key string, b bool) *EntryZ {
	if z != nil {
		if f := z.add(); f != nil {
			*f = ZField{Type: FieldTypeBool, Key: key, Boolean: b}
		}
	}
	return z
}

func (z *EntryZ) String(key string, s string) *EntryZ {
	if z != nil {
		if f := z.add(); f != nil {
			*f = ZField{Type: FieldTypeString, Key: key, String: s}
		}
	}
	return z
}

func (z *EntryZ) Hex8(key string, v uint8) *EntryZ {
	if z != nil {
		if f := z.add(); f != nil {
			*f = ZField{Type: FieldTypeHex8, Key: key, Integer: uint64(v)}
		}
	}
	return z
}

func (z *EntryZ) Hex16(key string, v uint16) *EntryZ {
	if z != nil {
		if f := z.add(); f != nil {
			*f = ZField{Type: FieldTypeHex16, Key: key, Integer: uint64(v)}
		}
	}
	return z
}

func (z *EntryZ) Int(key string, v int) *EntryZ {
	if z != nil {
		if f := z.add(); f != nil {
			*f = ZField{Type: FieldTypeInt, Key: key, Integer: uint64(v)}
		}
	}
	return z
}

func (z *EntryZ) Uint(key string, v uint64) *EntryZ {
	if z != nil {
		if f := z.add(); f != nil {
			*f = ZField{Type: FieldTypeUint, Key: key, Integer: v}
		}
	}
	return z
}

func (z *EntryZ) Error(key string, err error) *EntryZ {
	if z != nil {
		if f := z.add(); f != nil {
			*f = ZField{Type: FieldTypeError, Key: key, Error: err}
		}
	}
	return z
}

func (z *EntryZ) Duration(key string, d time.Duration) *EntryZ {
	if z != nil {
		if f := z.add(); f != nil {
			*f = ZField{Type: FieldTypeDuration, Key: key, Duration: d}
		}
	}
	return z
}

func (z *EntryZ) Stringer(key string, s fmt.Stringer) *EntryZ {
	if z != nil {
		if f := z.add(); f != nil {
			*f = ZField{Type: FieldTypeStringer, Key: key, Interface: s}
		}
	}
	return z
}

func (z *EntryZ) Blob(key string, buf []byte) *EntryZ {
	if z != nil {
		if f := z.add(); f != nil {
			*f = ZField{Type: FieldTypeBlob, Key: key, Blob: buf}
		}
	}
	return z
}

// End emits the entry and recycles it. The entry must not be used after.
func (z *EntryZ) End() {
	if z == nil {
		return
	}

	fields := make(logrus.Fields, z.zfidx+2)
	fields["_mod"] = z.mod.String()
	for i := range z.zfbuf[:z.zfidx] {
		fields[z.zfbuf[i].Key] = z.zfbuf[i].Value()
	}
	contextFields(fields)

	entry := logrus.StandardLogger().WithFields(fields)
	lvl, msg := z.lvl, z.msg

	*z = EntryZ{}
	entryPool.Put(z)

	switch lvl {
	case DebugLevel:
		entry.Debug(msg)
	case InfoLevel:
		entry.Info(msg)
	case WarnLevel:
		entry.Warn(msg)
	case ErrorLevel:
		entry.Error(msg)
	case FatalLevel:
		entry.Fatal(msg)
	case PanicLevel:
		entry.Panic(msg)
	}
}
