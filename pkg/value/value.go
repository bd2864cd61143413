// Package value implements the tagged value universe that flows through
// streams: Null, Bool, I64, String, Bytes, Array, Record, and Unit.
package value

import (
	"fmt"
	"sort"
)

// Kind tags the concrete variant of a Value.
type Kind int

const (
	KindNull Kind = iota
	KindBool
	KindI64
	KindString
	KindBytes
	KindArray
	KindRecord
	KindUnit
)

func (k Kind) String() string {
	switch k {
	case KindNull:
		return "Null"
	case KindBool:
		return "Bool"
	case KindI64:
		return "I64"
	case KindString:
		return "String"
	case KindBytes:
		return "Bytes"
	case KindArray:
		return "Array"
	case KindRecord:
		return "Record"
	case KindUnit:
		return "Unit"
	default:
		return "Unknown"
	}
}

// Value is the tagged union. Concrete types below implement it.
type Value interface {
	Kind() Kind
	String() string
}

type Null struct{}

func (Null) Kind() Kind     { return KindNull }
func (Null) String() string { return "null" }

type Bool bool

func (Bool) Kind() Kind { return KindBool }
func (b Bool) String() string {
	if b {
		return "true"
	}
	return "false"
}

type I64 int64

func (I64) Kind() Kind        { return KindI64 }
func (i I64) String() string  { return fmt.Sprintf("%d", int64(i)) }

type String string

func (String) Kind() Kind       { return KindString }
func (s String) String() string { return string(s) }

// Bytes is an octet sequence. Disjoint from String: codecs never silently
// coerce between the two.
type Bytes []byte

func (Bytes) Kind() Kind       { return KindBytes }
func (b Bytes) String() string { return fmt.Sprintf("%v", []byte(b)) }

type Array []Value

func (Array) Kind() Kind { return KindArray }
func (a Array) String() string {
	return fmt.Sprintf("%v", []Value(a))
}

// Record is a mapping from string to Value, always iterated in sorted key
// order at serialization boundaries (see SortedKeys).
type Record map[string]Value

func (Record) Kind() Kind { return KindRecord }
func (r Record) String() string {
	return fmt.Sprintf("Record(%d fields)", len(r))
}

// SortedKeys returns the record's keys sorted ascending, the deterministic
// iteration order required at every sink and codec boundary.
func (r Record) SortedKeys() []string {
	keys := make([]string, 0, len(r))
	for k := range r {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Unit is the singleton return value of sink stages. It never enters pure
// stages as meaningful data.
type Unit struct{}

func (Unit) Kind() Kind     { return KindUnit }
func (Unit) String() string { return "unit" }

// Equal reports structural equality over the Value model, used by group-key
// comparison and array.contains.
func Equal(a, b Value) bool {
	if a.Kind() != b.Kind() {
		return false
	}
	switch av := a.(type) {
	case Null:
		return true
	case Unit:
		return true
	case Bool:
		return av == b.(Bool)
	case I64:
		return av == b.(I64)
	case String:
		return av == b.(String)
	case Bytes:
		bv := b.(Bytes)
		if len(av) != len(bv) {
			return false
		}
		for i := range av {
			if av[i] != bv[i] {
				return false
			}
		}
		return true
	case Array:
		bv := b.(Array)
		if len(av) != len(bv) {
			return false
		}
		for i := range av {
			if !Equal(av[i], bv[i]) {
				return false
			}
		}
		return true
	case Record:
		bv := b.(Record)
		if len(av) != len(bv) {
			return false
		}
		for k, v := range av {
			ov, ok := bv[k]
			if !ok || !Equal(v, ov) {
				return false
			}
		}
		return true
	default:
		return false
	}
}

// GroupKey is a structural key usable as a Go map key for first-seen-order
// grouping (group.collect_all, group.count, group.topn_items all need a
// comparable representation of a possibly-nested Value).
func GroupKey(v Value) string {
	return jsonKeyString(v)
}

func jsonKeyString(v Value) string {
	switch vv := v.(type) {
	case Array:
		out := "A["
		for _, item := range vv {
			out += jsonKeyString(item) + ","
		}
		return out + "]"
	case Record:
		out := "R{"
		for _, k := range vv.SortedKeys() {
			out += fmt.Sprintf("%q:%s,", k, jsonKeyString(vv[k]))
		}
		return out + "}"
	default:
		return fmt.Sprintf("%s:%q", v.Kind(), v.String())
	}
}
