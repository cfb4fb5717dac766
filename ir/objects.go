// Package ir holds the raw PDF object model the writer serializes:
// names, numbers, strings, arrays, dictionaries, streams and indirect
// references. It covers document generation only; there is no parser.
package ir

import "fmt"

// ObjectRef identifies an indirect object by number and generation.
type ObjectRef struct {
	Num int
	Gen int
}

func (r ObjectRef) String() string { return fmt.Sprintf("%d %d R", r.Num, r.Gen) }

// Object is the base interface for all raw PDF objects.
type Object interface {
	Type() string
}

// NameObj is a PDF name.
type NameObj struct{ Val string }

func (n NameObj) Type() string  { return "name" }
func (n NameObj) Value() string { return n.Val }

// NumberObj is a PDF number, integer or real.
type NumberObj struct {
	I     int64
	F     float64
	IsInt bool
}

func (n NumberObj) Type() string { return "number" }
func (n NumberObj) Int() int64   { return n.I }
func (n NumberObj) Float() float64 {
	if n.IsInt {
		return float64(n.I)
	}
	return n.F
}
func (n NumberObj) IsInteger() bool { return n.IsInt }

// BoolObj is a PDF boolean.
type BoolObj struct{ V bool }

func (b BoolObj) Type() string { return "boolean" }
func (b BoolObj) Value() bool  { return b.V }

// StringObj is a PDF literal string.
type StringObj struct{ Bytes []byte }

func (s StringObj) Type() string  { return "string" }
func (s StringObj) Value() []byte { return s.Bytes }

// ArrayObj is a PDF array.
type ArrayObj struct{ Items []Object }

func (a *ArrayObj) Type() string    { return "array" }
func (a *ArrayObj) Len() int        { return len(a.Items) }
func (a *ArrayObj) Append(o Object) { a.Items = append(a.Items, o) }

// DictObj is a PDF dictionary.
type DictObj struct{ KV map[string]Object }

func (d *DictObj) Type() string { return "dict" }
func (d *DictObj) Len() int     { return len(d.KV) }
func (d *DictObj) Get(key string) (Object, bool) {
	o, ok := d.KV[key]
	return o, ok
}
func (d *DictObj) Set(key string, value Object) {
	if d.KV == nil {
		d.KV = make(map[string]Object)
	}
	d.KV[key] = value
}

// StreamObj is a PDF stream: a dictionary plus encoded data. The caller is
// responsible for keeping /Length and any /Filter entries consistent with
// Data.
type StreamObj struct {
	Dict *DictObj
	Data []byte
}

func (s *StreamObj) Type() string { return "stream" }

// RefObj is an indirect object reference.
type RefObj struct{ R ObjectRef }

func (r RefObj) Type() string   { return "ref" }
func (r RefObj) Ref() ObjectRef { return r.R }

// Constructors.

func Name(v string) NameObj        { return NameObj{Val: v} }
func Int(i int64) NumberObj        { return NumberObj{I: i, IsInt: true} }
func Float(f float64) NumberObj    { return NumberObj{F: f} }
func Bool(v bool) BoolObj          { return BoolObj{V: v} }
func Str(b []byte) StringObj       { return StringObj{Bytes: b} }
func Array(items ...Object) *ArrayObj { return &ArrayObj{Items: items} }
func Dict() *DictObj               { return &DictObj{KV: make(map[string]Object)} }
func Ref(num, gen int) RefObj      { return RefObj{R: ObjectRef{Num: num, Gen: gen}} }

func Stream(dict *DictObj, data []byte) *StreamObj {
	dict.Set("Length", Int(int64(len(data))))
	return &StreamObj{Dict: dict, Data: data}
}
