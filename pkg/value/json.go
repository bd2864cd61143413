package value

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"

	"github.com/hall-dev/flowlang/pkg/flowerr"
)

// ToJSON converts a Value to a plain JSON-able Go value per the mapping:
// I64 -> number, Bytes -> array of byte-as-number, Record -> object (sorted
// key iteration, expressed as ordered marshaling below), Unit -> null,
// everything else by identity. Bytes/Unit are accepted here: the json
// stage's forward direction rejects them before converting, while the
// ui.table sink stores them as a byte array and null.
func ToJSON(v Value) (interface{}, error) {
	switch vv := v.(type) {
	case Null:
		return nil, nil
	case Unit:
		return nil, nil
	case Bool:
		return bool(vv), nil
	case I64:
		return int64(vv), nil
	case String:
		return string(vv), nil
	case Bytes:
		out := make([]interface{}, len(vv))
		for i, b := range vv {
			out[i] = int64(b)
		}
		return out, nil
	case Array:
		out := make([]interface{}, len(vv))
		for i, item := range vv {
			j, err := ToJSON(item)
			if err != nil {
				return nil, err
			}
			out[i] = j
		}
		return out, nil
	case Record:
		out := make(map[string]interface{}, len(vv))
		for _, k := range vv.SortedKeys() {
			j, err := ToJSON(vv[k])
			if err != nil {
				return nil, err
			}
			out[k] = j
		}
		return out, nil
	default:
		return nil, flowerr.New(flowerr.TypeError, "value has no JSON representation: %T", v)
	}
}

// MarshalJSON renders a Value directly to JSON bytes with deterministic
// (sorted) record key order, used by sinks and the json codec's forward
// direction.
func MarshalJSON(v Value) ([]byte, error) {
	var buf bytes.Buffer
	if err := writeJSON(&buf, v); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func writeJSON(buf *bytes.Buffer, v Value) error {
	switch vv := v.(type) {
	case Null, Unit:
		buf.WriteString("null")
	case Bool:
		if vv {
			buf.WriteString("true")
		} else {
			buf.WriteString("false")
		}
	case I64:
		fmt.Fprintf(buf, "%d", int64(vv))
	case String:
		enc, err := json.Marshal(string(vv))
		if err != nil {
			return err
		}
		buf.Write(enc)
	case Bytes:
		buf.WriteByte('[')
		for i, b := range vv {
			if i > 0 {
				buf.WriteByte(',')
			}
			fmt.Fprintf(buf, "%d", b)
		}
		buf.WriteByte(']')
	case Array:
		buf.WriteByte('[')
		for i, item := range vv {
			if i > 0 {
				buf.WriteByte(',')
			}
			if err := writeJSON(buf, item); err != nil {
				return err
			}
		}
		buf.WriteByte(']')
	case Record:
		buf.WriteByte('{')
		for i, k := range vv.SortedKeys() {
			if i > 0 {
				buf.WriteByte(',')
			}
			enc, err := json.Marshal(k)
			if err != nil {
				return err
			}
			buf.Write(enc)
			buf.WriteByte(':')
			if err := writeJSON(buf, vv[k]); err != nil {
				return err
			}
		}
		buf.WriteByte('}')
	default:
		return flowerr.New(flowerr.TypeError, "value has no JSON representation: %T", v)
	}
	return nil
}

// FromJSON parses JSON bytes into a Value tree. Non-integer or
// out-of-i64-range numbers clamp to I64(0); this preserves the behavior of
// the original hand-rolled parser rather than rejecting such input.
func FromJSON(data []byte) (Value, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var raw interface{}
	if err := dec.Decode(&raw); err != nil {
		return nil, flowerr.Wrap(flowerr.ParseError, err, "invalid JSON")
	}
	return fromAny(raw), nil
}

func fromAny(raw interface{}) Value {
	switch rv := raw.(type) {
	case nil:
		return Null{}
	case bool:
		return Bool(rv)
	case json.Number:
		return numberToI64(rv)
	case string:
		return String(rv)
	case []interface{}:
		out := make(Array, len(rv))
		for i, item := range rv {
			out[i] = fromAny(item)
		}
		return out
	case map[string]interface{}:
		out := make(Record, len(rv))
		for k, item := range rv {
			out[k] = fromAny(item)
		}
		return out
	default:
		return Null{}
	}
}

func numberToI64(n json.Number) Value {
	if i, err := n.Int64(); err == nil {
		return I64(i)
	}
	f, err := n.Float64()
	if err != nil {
		return I64(0)
	}
	if math.Trunc(f) != f || f >= math.MaxInt64 || f < math.MinInt64 {
		return I64(0)
	}
	return I64(int64(f))
}
