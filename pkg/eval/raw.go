package eval

import (
	"strconv"
	"strings"
	"unicode"

	"github.com/hall-dev/flowlang/pkg/flowerr"
	"github.com/hall-dev/flowlang/pkg/value"
)

// EvalRaw evaluates the residual raw infix sub-language the structured
// grammar doesn't cover: top-level `>` (I64 comparison to Bool) and `+`
// (I64 addition or String concatenation), with `>` binding tighter than `+`
// per spec, dotted field access on `_`, and integer/string literals.
func EvalRaw(text string, env Env) (value.Value, error) {
	toks, err := tokenizeRaw(text)
	if err != nil {
		return nil, err
	}
	p := &rawParser{toks: toks}
	v, err := p.parseAdditive(env)
	if err != nil {
		return nil, err
	}
	if p.peek().kind != rawEOF {
		return nil, flowerr.New(flowerr.ParseError, "unexpected trailing text in raw expression %q", text)
	}
	return v, nil
}

type rawParser struct {
	toks []rawToken
	pos  int
}

func (p *rawParser) peek() rawToken {
	if p.pos >= len(p.toks) {
		return rawToken{kind: rawEOF}
	}
	return p.toks[p.pos]
}

func (p *rawParser) advance() rawToken {
	t := p.peek()
	if p.pos < len(p.toks) {
		p.pos++
	}
	return t
}

func (p *rawParser) parseAdditive(env Env) (value.Value, error) {
	left, err := p.parseComparison(env)
	if err != nil {
		return nil, err
	}
	for p.peek().kind == rawPlus {
		p.advance()
		right, err := p.parseComparison(env)
		if err != nil {
			return nil, err
		}
		left, err = addValues(left, right)
		if err != nil {
			return nil, err
		}
	}
	return left, nil
}

func (p *rawParser) parseComparison(env Env) (value.Value, error) {
	left, err := p.parsePrimary(env)
	if err != nil {
		return nil, err
	}
	if p.peek().kind == rawGT {
		p.advance()
		right, err := p.parsePrimary(env)
		if err != nil {
			return nil, err
		}
		return gtValues(left, right)
	}
	return left, nil
}

func (p *rawParser) parsePrimary(env Env) (value.Value, error) {
	t := p.advance()
	switch t.kind {
	case rawUnderscore:
		cur, err := lookup(env, "_")
		if err != nil {
			return nil, err
		}
		return p.parseFieldChain(cur)
	case rawIdent:
		cur, err := lookup(env, t.text)
		if err != nil {
			return nil, err
		}
		return p.parseFieldChain(cur)
	case rawNumber:
		return value.I64(t.num), nil
	case rawString:
		return value.String(t.str), nil
	default:
		return nil, flowerr.New(flowerr.ParseError, "unexpected token in raw expression")
	}
}

// parseFieldChain consumes any trailing `.field` runs, performing
// successive field access on the receiver from left to right (`_.a.b`
// reads a, then b).
func (p *rawParser) parseFieldChain(cur value.Value) (value.Value, error) {
	for p.peek().kind == rawDot {
		p.advance()
		name := p.advance()
		if name.kind != rawIdent {
			return nil, flowerr.New(flowerr.ParseError, "expected field name after '.'")
		}
		next, err := fieldAccess(cur, name.text)
		if err != nil {
			return nil, err
		}
		cur = next
	}
	return cur, nil
}

func addValues(a, b value.Value) (value.Value, error) {
	ai, aok := a.(value.I64)
	bi, bok := b.(value.I64)
	if aok && bok {
		return value.I64(ai + bi), nil
	}
	as, asok := a.(value.String)
	bs, bsok := b.(value.String)
	if asok && bsok {
		return value.String(string(as) + string(bs)), nil
	}
	return nil, flowerr.New(flowerr.TypeError, "+ requires two I64 or two String operands, got %s and %s", a.Kind(), b.Kind())
}

func gtValues(a, b value.Value) (value.Value, error) {
	ai, aok := a.(value.I64)
	bi, bok := b.(value.I64)
	if !aok || !bok {
		return nil, flowerr.New(flowerr.TypeError, "> requires two I64 operands, got %s and %s", a.Kind(), b.Kind())
	}
	return value.Bool(ai > bi), nil
}

type rawTokenKind int

const (
	rawEOF rawTokenKind = iota
	rawPlus
	rawGT
	rawDot
	rawIdent
	rawUnderscore
	rawNumber
	rawString
)

type rawToken struct {
	kind rawTokenKind
	text string
	num  int64
	str  string
}

func tokenizeRaw(text string) ([]rawToken, error) {
	runes := []rune(text)
	var toks []rawToken
	i := 0
	for i < len(runes) {
		r := runes[i]
		switch {
		case unicode.IsSpace(r):
			i++
		case r == '+':
			toks = append(toks, rawToken{kind: rawPlus})
			i++
		case r == '>':
			toks = append(toks, rawToken{kind: rawGT})
			i++
		case r == '.':
			toks = append(toks, rawToken{kind: rawDot})
			i++
		case r == '_':
			j := i + 1
			for j < len(runes) && isRawIdentCont(runes[j]) {
				j++
			}
			if j == i+1 {
				toks = append(toks, rawToken{kind: rawUnderscore})
			} else {
				toks = append(toks, rawToken{kind: rawIdent, text: string(runes[i:j])})
			}
			i = j
		case unicode.IsLetter(r):
			j := i + 1
			for j < len(runes) && isRawIdentCont(runes[j]) {
				j++
			}
			toks = append(toks, rawToken{kind: rawIdent, text: string(runes[i:j])})
			i = j
		case unicode.IsDigit(r) || (r == '-' && i+1 < len(runes) && unicode.IsDigit(runes[i+1])):
			j := i + 1
			if r == '-' {
				j = i + 1
			}
			for j < len(runes) && unicode.IsDigit(runes[j]) {
				j++
			}
			n, err := strconv.ParseInt(string(runes[i:j]), 10, 64)
			if err != nil {
				return nil, flowerr.Wrap(flowerr.ParseError, err, "invalid integer literal in raw expression")
			}
			toks = append(toks, rawToken{kind: rawNumber, num: n})
			i = j
		case r == '"':
			j := i + 1
			var b strings.Builder
			closed := false
			for j < len(runes) {
				if runes[j] == '"' {
					closed = true
					j++
					break
				}
				if runes[j] == '\\' && j+1 < len(runes) {
					j++
					switch runes[j] {
					case '"':
						b.WriteRune('"')
					case '\\':
						b.WriteRune('\\')
					case 'n':
						b.WriteRune('\n')
					case 't':
						b.WriteRune('\t')
					default:
						b.WriteRune(runes[j])
					}
					j++
					continue
				}
				b.WriteRune(runes[j])
				j++
			}
			if !closed {
				return nil, flowerr.New(flowerr.ParseError, "unterminated string literal in raw expression")
			}
			toks = append(toks, rawToken{kind: rawString, str: b.String()})
			i = j
		default:
			return nil, flowerr.New(flowerr.ParseError, "unexpected character %q in raw expression", r)
		}
	}
	return toks, nil
}

func isRawIdentCont(r rune) bool {
	return r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r)
}
