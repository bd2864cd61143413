package stage

import (
	"encoding/base64"
	"unicode/utf8"

	"github.com/hall-dev/flowlang/pkg/flowerr"
	"github.com/hall-dev/flowlang/pkg/value"
)

// direction helpers shared by the three reversible codecs. Inverse==false
// is Auto mode (infer forward vs inverse per §4.4); Inverse==true disables
// inference and always applies the inverse.

func applyReversible(
	in Stream,
	inverseMode bool,
	forwardAccept func(value.Value) bool,
	forward func(value.Value) (value.Value, error),
	inverseAccept func(value.Value) bool,
	inverse func(value.Value) (value.Value, error),
) (Stream, error) {
	if inverseMode {
		out := make(Stream, len(in))
		for i, item := range in {
			v, err := inverse(item)
			if err != nil {
				return nil, err
			}
			out[i] = v
		}
		return out, nil
	}

	allForward := true
	allInverse := true
	for _, item := range in {
		if !forwardAccept(item) {
			allForward = false
		}
		if !inverseAccept(item) {
			allInverse = false
		}
	}

	var apply func(value.Value) (value.Value, error)
	switch {
	case allForward:
		apply = forward
	case allInverse:
		apply = inverse
	default:
		return nil, flowerr.New(flowerr.NoDirectionMatch, "no applicable direction for reversible stage over this stream")
	}

	out := make(Stream, len(in))
	for i, item := range in {
		v, err := apply(item)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

// JsonStage: forward converts any value except Bytes/Unit to its UTF-8 JSON
// encoding (Bytes); inverse parses JSON bytes back to a Value.
type JsonStage struct {
	Inverse bool
}

func (*JsonStage) Category() Category { return CategoryReversible }
func (s *JsonStage) Invert() Stage    { return &JsonStage{Inverse: !s.Inverse} }

func jsonForwardAccept(v value.Value) bool {
	switch v.(type) {
	case value.Bytes, value.Unit:
		return false
	default:
		return true
	}
}

func jsonInverseAccept(v value.Value) bool {
	_, ok := v.(value.Bytes)
	return ok
}

func (s *JsonStage) Apply(_ *State, in Stream) (Stream, error) {
	return applyReversible(in, s.Inverse, jsonForwardAccept, jsonForward, jsonInverseAccept, jsonInverse)
}

func jsonForward(v value.Value) (value.Value, error) {
	b, err := value.MarshalJSON(v)
	if err != nil {
		return nil, flowerr.Wrap(flowerr.TypeError, err, "json: value has no JSON representation")
	}
	return value.Bytes(b), nil
}

func jsonInverse(v value.Value) (value.Value, error) {
	b, ok := v.(value.Bytes)
	if !ok {
		return nil, flowerr.New(flowerr.TypeError, "json inverse requires Bytes, got %s", v.Kind())
	}
	parsed, err := value.FromJSON(b)
	if err != nil {
		return nil, err
	}
	return parsed, nil
}

// Utf8Stage: forward String -> Bytes (UTF-8 encode); inverse Bytes ->
// String, failing on invalid UTF-8.
type Utf8Stage struct {
	Inverse bool
}

func (*Utf8Stage) Category() Category { return CategoryReversible }
func (s *Utf8Stage) Invert() Stage    { return &Utf8Stage{Inverse: !s.Inverse} }

func utf8ForwardAccept(v value.Value) bool {
	_, ok := v.(value.String)
	return ok
}

func utf8InverseAccept(v value.Value) bool {
	_, ok := v.(value.Bytes)
	return ok
}

func (s *Utf8Stage) Apply(_ *State, in Stream) (Stream, error) {
	return applyReversible(in, s.Inverse, utf8ForwardAccept, utf8Forward, utf8InverseAccept, utf8Inverse)
}

func utf8Forward(v value.Value) (value.Value, error) {
	s, ok := v.(value.String)
	if !ok {
		return nil, flowerr.New(flowerr.TypeError, "utf8 forward requires String, got %s", v.Kind())
	}
	return value.Bytes([]byte(string(s))), nil
}

func utf8Inverse(v value.Value) (value.Value, error) {
	b, ok := v.(value.Bytes)
	if !ok {
		return nil, flowerr.New(flowerr.TypeError, "utf8 inverse requires Bytes, got %s", v.Kind())
	}
	if !utf8.Valid([]byte(b)) {
		return nil, flowerr.New(flowerr.TypeError, "utf8 inverse: invalid UTF-8 byte sequence")
	}
	return value.String(string(b)), nil
}

// Base64Stage: forward Bytes -> String (standard alphabet, '=' padding);
// inverse String -> Bytes, rejecting non-multiple-of-4 length or
// non-alphabet characters in non-padding positions.
type Base64Stage struct {
	Inverse bool
}

func (*Base64Stage) Category() Category { return CategoryReversible }
func (s *Base64Stage) Invert() Stage    { return &Base64Stage{Inverse: !s.Inverse} }

func base64ForwardAccept(v value.Value) bool {
	_, ok := v.(value.Bytes)
	return ok
}

func base64InverseAccept(v value.Value) bool {
	_, ok := v.(value.String)
	return ok
}

func (s *Base64Stage) Apply(_ *State, in Stream) (Stream, error) {
	return applyReversible(in, s.Inverse, base64ForwardAccept, base64Forward, base64InverseAccept, base64Inverse)
}

func base64Forward(v value.Value) (value.Value, error) {
	b, ok := v.(value.Bytes)
	if !ok {
		return nil, flowerr.New(flowerr.TypeError, "base64 forward requires Bytes, got %s", v.Kind())
	}
	return value.String(base64.StdEncoding.EncodeToString([]byte(b))), nil
}

func base64Inverse(v value.Value) (value.Value, error) {
	s, ok := v.(value.String)
	if !ok {
		return nil, flowerr.New(flowerr.TypeError, "base64 inverse requires String, got %s", v.Kind())
	}
	str := string(s)
	if len(str)%4 != 0 {
		return nil, flowerr.New(flowerr.InvalidParameter, "base64: input length must be a multiple of 4")
	}
	for i, r := range str {
		if r == '=' {
			if i < len(str)-2 {
				return nil, flowerr.New(flowerr.InvalidParameter, "base64: '=' padding only allowed in final group")
			}
			continue
		}
		if !isBase64Alphabet(r) {
			return nil, flowerr.New(flowerr.InvalidParameter, "base64: invalid alphabet character %q", r)
		}
	}
	decoded, err := base64.StdEncoding.DecodeString(str)
	if err != nil {
		return nil, flowerr.Wrap(flowerr.InvalidParameter, err, "base64: decode failed")
	}
	return value.Bytes(decoded), nil
}

func isBase64Alphabet(r rune) bool {
	switch {
	case r >= 'A' && r <= 'Z', r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '+', r == '/':
		return true
	default:
		return false
	}
}
