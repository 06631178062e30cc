package log

import (
	"io"
	"sync"
	"sync/atomic"

	"gopkg.in/Sirupsen/logrus.v0"
)

type Fields logrus.Fields

type Level logrus.Level

const (
	PanicLevel = Level(logrus.PanicLevel)
	FatalLevel = Level(logrus.FatalLevel)
	ErrorLevel = Level(logrus.ErrorLevel)
	WarnLevel  = Level(logrus.WarnLevel)
	InfoLevel  = Level(logrus.InfoLevel)
	DebugLevel = Level(logrus.DebugLevel)
)

func init() {
	// Filtering is done per module, let everything through logrus.
	logrus.SetLevel(logrus.DebugLevel)
}

var disabled atomic.Bool

// Disable turns off all logging, including warnings and errors.
func Disable() { disabled.Store(true) }

// SetOutput redirects all log output to w.
func SetOutput(w io.Writer) { logrus.SetOutput(w) }

// A Context adds fields to every log line, for example the CPU program
// counter.
type Context interface {
	AddLogContext(e *EntryZ)
}

var (
	ctxmu    sync.Mutex
	contexts []Context
)

func AddContext(c Context) {
	ctxmu.Lock()
	contexts = append(contexts, c)
	ctxmu.Unlock()
}

func RemoveContext(c Context) {
	ctxmu.Lock()
	defer ctxmu.Unlock()
	for i := range contexts {
		if contexts[i] == c {
			contexts = append(contexts[:i], contexts[i+1:]...)
			return
		}
	}
}

func contextFields(fields logrus.Fields) {
	ctxmu.Lock()
	cs := contexts
	ctxmu.Unlock()

	var z EntryZ
	for _, c := range cs {
		c.AddLogContext(&z)
	}
	for i := range z.zfbuf[:z.zfidx] {
		fields[z.zfbuf[i].Key] = z.zfbuf[i].Value()
	}
}

// Like a logrus.Entry, but is nullable. This allows us to selectively disable
// logging while also removing all code overhead associated with it
type Entry struct {
	mod    Module
	fields Fields
}

func (entry Entry) log() *logrus.Entry {
	fields := make(logrus.Fields, len(entry.fields)+2)
	fields["_mod"] = entry.mod.String()
	for k, v := range entry.fields {
		fields[k] = v
	}
	contextFields(fields)
	return logrus.StandardLogger().WithFields(fields)
}

func (entry Entry) WithField(key string, value any) Entry {
	fields := make(Fields, len(entry.fields)+1)
	for k, v := range entry.fields {
		fields[k] = v
	}
	fields[key] = value
	entry.fields = fields
	return entry
}

func (entry Entry) Debugf(format string, args ...any) {
	if entry.mod.Enabled(DebugLevel) {
		entry.log().Debugf(format, args...)
	}
}

func (entry Entry) Infof(format string, args ...any) {
	if entry.mod.Enabled(InfoLevel) {
		entry.log().Infof(format, args...)
	}
}

func (entry Entry) Warnf(format string, args ...any) {
	if entry.mod.Enabled(WarnLevel) {
		entry.log().Warnf(format, args...)
	}
}

func (entry Entry) Errorf(format string, args ...any) {
	if entry.mod.Enabled(ErrorLevel) {
		entry.log().Errorf(format, args...)
	}
}

func (entry Entry) Fatalf(format string, args ...any) {
	if entry.mod.Enabled(FatalLevel) {
		entry.log().Fatalf(format, args...)
	}
}
