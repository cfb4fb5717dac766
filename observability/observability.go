package observability

import (
	"fmt"
	"io"
	"sync"
)

// Logger is the structured logging interface used across the library.
type Logger interface {
	Debug(msg string, fields ...Field)
	Info(msg string, fields ...Field)
	Warn(msg string, fields ...Field)
	Error(msg string, fields ...Field)
	With(fields ...Field) Logger
}

// Field is a typed key/value logging attribute.
type Field interface {
	Key() string
	Value() interface{}
}

type stringField struct{ key, val string }

func (f stringField) Key() string        { return f.key }
func (f stringField) Value() interface{} { return f.val }

type intField struct {
	key string
	val int
}

func (f intField) Key() string        { return f.key }
func (f intField) Value() interface{} { return f.val }

type float64Field struct {
	key string
	val float64
}

func (f float64Field) Key() string        { return f.key }
func (f float64Field) Value() interface{} { return f.val }

type errorField struct {
	key string
	err error
}

func (f errorField) Key() string        { return f.key }
func (f errorField) Value() interface{} { return f.err }

func String(key, value string) Field        { return stringField{key, value} }
func Int(key string, value int) Field       { return intField{key, value} }
func Float64(key string, v float64) Field   { return float64Field{key, v} }
func Error(key string, err error) Field     { return errorField{key, err} }

// NopLogger discards everything.
type NopLogger struct{}

func (NopLogger) Debug(string, ...Field) {}
func (NopLogger) Info(string, ...Field)  {}
func (NopLogger) Warn(string, ...Field)  {}
func (NopLogger) Error(string, ...Field) {}
func (NopLogger) With(...Field) Logger   { return NopLogger{} }

// NewWriterLogger returns a Logger writing "LEVEL msg key=value ..." lines to w.
// Writes are serialized; w does not need to be safe for concurrent use.
func NewWriterLogger(w io.Writer) Logger {
	return &writerLogger{w: w, mu: &sync.Mutex{}}
}

type writerLogger struct {
	w    io.Writer
	mu   *sync.Mutex
	with []Field
}

func (l *writerLogger) log(level, msg string, fields []Field) {
	l.mu.Lock()
	defer l.mu.Unlock()
	fmt.Fprintf(l.w, "%s %s", level, msg)
	for _, f := range l.with {
		fmt.Fprintf(l.w, " %s=%v", f.Key(), f.Value())
	}
	for _, f := range fields {
		fmt.Fprintf(l.w, " %s=%v", f.Key(), f.Value())
	}
	fmt.Fprintln(l.w)
}

func (l *writerLogger) Debug(msg string, fields ...Field) { l.log("DEBUG", msg, fields) }
func (l *writerLogger) Info(msg string, fields ...Field)  { l.log("INFO", msg, fields) }
func (l *writerLogger) Warn(msg string, fields ...Field)  { l.log("WARN", msg, fields) }
func (l *writerLogger) Error(msg string, fields ...Field) { l.log("ERROR", msg, fields) }

func (l *writerLogger) With(fields ...Field) Logger {
	child := &writerLogger{w: l.w, mu: l.mu}
	child.with = append(append([]Field{}, l.with...), fields...)
	return child
}
