package syntax

import (
	"strings"

	"github.com/hall-dev/flowlang/pkg/flowerr"
)

// Parse lexes and parses program source into a Program, grounded on the
// recursive-descent structure of the original dsl_syntax parser
// (parseProgram -> parseStmt -> parsePipeline -> parseCompose -> parseUnary
// -> parsePostfix -> parsePrimary), with a token-level bracket/string-aware
// fallback that demotes any argument expression the structured grammar
// can't fully consume to a Raw node for pkg/eval's infix mini-evaluator.
func Parse(src string) (*Program, error) {
	toks, err := lex(src)
	if err != nil {
		return nil, err
	}
	p := &parser{toks: toks}
	prog, err := p.parseProgram()
	if err != nil {
		return nil, err
	}
	return prog, nil
}

type parser struct {
	toks []token
	pos  int
}

func (p *parser) peek() token {
	if p.pos >= len(p.toks) {
		return token{kind: tEOF}
	}
	return p.toks[p.pos]
}

func (p *parser) peekAt(offset int) token {
	idx := p.pos + offset
	if idx >= len(p.toks) {
		return token{kind: tEOF}
	}
	return p.toks[idx]
}

func (p *parser) advance() token {
	t := p.peek()
	if p.pos < len(p.toks) {
		p.pos++
	}
	return t
}

func (p *parser) expect(k tokenKind) (token, error) {
	t := p.peek()
	if t.kind != k {
		return token{}, flowerr.New(flowerr.ParseError, "expected %s, found %s at %d", k, t.kind, t.pos)
	}
	return p.advance(), nil
}

func (p *parser) parseProgram() (*Program, error) {
	prog := &Program{}
	for p.peek().kind != tEOF {
		stmt, err := p.parseStmt()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(tSemi); err != nil {
			return nil, err
		}
		prog.Statements = append(prog.Statements, stmt)
	}
	return prog, nil
}

func (p *parser) parseStmt() (Stmt, error) {
	if p.peek().kind == tIdent && p.peekAt(1).kind == tAssign {
		name := p.advance().text
		p.advance() // :=
		expr, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		return &BindingStmt{Name: name, Expr: expr}, nil
	}
	expr, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	return &PipelineStmt{Expr: expr}, nil
}

func (p *parser) parseExpr() (Expr, error) {
	return p.parsePipeline()
}

func (p *parser) parsePipeline() (Expr, error) {
	input, err := p.parseCompose()
	if err != nil {
		return nil, err
	}
	var stages []Expr
	for p.peek().kind == tPipe {
		p.advance()
		stage, err := p.parseCompose()
		if err != nil {
			return nil, err
		}
		stages = append(stages, stage)
	}
	if len(stages) == 0 {
		return input, nil
	}
	return NewPipelineExpr(input, stages), nil
}

func (p *parser) parseCompose() (Expr, error) {
	left, err := p.parseUnary()
	if err != nil {
		return nil, err
	}
	for p.peek().kind == tCompose {
		p.advance()
		right, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		left = NewComposeExpr(left, right)
	}
	return left, nil
}

func (p *parser) parseUnary() (Expr, error) {
	if p.peek().kind == tTilde {
		p.advance()
		inner, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		return NewInverseExpr(inner), nil
	}
	return p.parsePostfix()
}

func (p *parser) parsePostfix() (Expr, error) {
	e, err := p.parsePrimary()
	if err != nil {
		return nil, err
	}
	for {
		switch p.peek().kind {
		case tDot:
			p.advance()
			name, err := p.expect(tIdent)
			if err != nil {
				return nil, err
			}
			e = NewFieldAccessExpr(e, name.text)
		case tLParen:
			args, err := p.parseCallArgs()
			if err != nil {
				return nil, err
			}
			e = NewCallExpr(e, args)
		default:
			return e, nil
		}
	}
}

func (p *parser) parsePrimary() (Expr, error) {
	t := p.peek()
	switch t.kind {
	case tLParen:
		p.advance()
		e, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(tRParen); err != nil {
			return nil, err
		}
		return e, nil
	case tLBracket:
		p.advance()
		var items []Expr
		if p.peek().kind != tRBracket {
			for {
				item, err := p.parseExpr()
				if err != nil {
					return nil, err
				}
				items = append(items, item)
				if p.peek().kind != tComma {
					break
				}
				p.advance()
			}
		}
		if _, err := p.expect(tRBracket); err != nil {
			return nil, err
		}
		return NewArrayExpr(items), nil
	case tLBrace:
		p.advance()
		var fields []RecordField
		if p.peek().kind != tRBrace {
			for {
				f, err := p.parseRecordField()
				if err != nil {
					return nil, err
				}
				fields = append(fields, f)
				if p.peek().kind != tComma {
					break
				}
				p.advance()
			}
		}
		if _, err := p.expect(tRBrace); err != nil {
			return nil, err
		}
		return NewRecordExpr(fields), nil
	case tString:
		p.advance()
		return NewStringExpr(t.str), nil
	case tNumber:
		p.advance()
		return NewNumberExpr(t.num), nil
	case tUnderscore:
		p.advance()
		return NewPlaceholderExpr(), nil
	case tIdent:
		p.advance()
		return NewIdentExpr(t.text), nil
	default:
		return nil, flowerr.New(flowerr.ParseError, "unexpected token %s at %d", t.kind, t.pos)
	}
}

func (p *parser) parseRecordField() (RecordField, error) {
	var name string
	switch p.peek().kind {
	case tIdent:
		name = p.advance().text
	case tString:
		name = p.advance().str
	default:
		return RecordField{}, flowerr.New(flowerr.ParseError, "expected field name at %d", p.peek().pos)
	}
	if _, err := p.expect(tColon); err != nil {
		return RecordField{}, err
	}
	value, err := p.parseExpr()
	if err != nil {
		return RecordField{}, err
	}
	return RecordField{Name: name, Value: value}, nil
}

func (p *parser) parseCallArgs() ([]CallArg, error) {
	if _, err := p.expect(tLParen); err != nil {
		return nil, err
	}
	var args []CallArg
	if p.peek().kind != tRParen {
		for {
			arg, err := p.parseCallArg()
			if err != nil {
				return nil, err
			}
			args = append(args, arg)
			if p.peek().kind != tComma {
				break
			}
			p.advance()
		}
	}
	if _, err := p.expect(tRParen); err != nil {
		return nil, err
	}
	return args, nil
}

// parseCallArg handles both positional and named (name=expr) arguments,
// applying the Raw fallback: the sub-expression between here and the next
// top-level comma/close-paren is re-parsed in isolation; if it isn't fully
// consumed, it's demoted to a Raw node.
func (p *parser) parseCallArg() (CallArg, error) {
	var name string
	hasName := false
	if p.peek().kind == tIdent && p.peekAt(1).kind == tEq {
		name = p.advance().text
		p.advance() // =
		hasName = true
	}

	sub := p.collectBalanced()
	if len(sub) == 0 {
		return nil, flowerr.New(flowerr.ArgumentError, "empty argument at %d", p.peek().pos)
	}
	expr := parseSubexprOrRaw(sub)

	if hasName {
		return NamedArg{Name: name, Value: expr}, nil
	}
	return PositionalArg{Value: expr}, nil
}

// collectBalanced collects tokens from the current position up to (but not
// including) the next comma or close-paren at bracket depth 0, advancing the
// parser position past the collected tokens.
func (p *parser) collectBalanced() []token {
	depth := 0
	start := p.pos
	for p.pos < len(p.toks) {
		t := p.toks[p.pos]
		switch t.kind {
		case tLParen, tLBracket, tLBrace:
			depth++
		case tRParen, tRBracket, tRBrace:
			if depth == 0 {
				return p.toks[start:p.pos]
			}
			depth--
		case tComma:
			if depth == 0 {
				return p.toks[start:p.pos]
			}
		case tEOF:
			return p.toks[start:p.pos]
		}
		p.pos++
	}
	return p.toks[start:p.pos]
}

// parseSubexprOrRaw attempts a full structured parse of an isolated token
// run; if the structured grammar can't consume every token, the run is
// rendered back to text and wrapped as a Raw node for pkg/eval's infix
// mini-evaluator (this is how `_ + 1`, `_.score > 3` etc. become Raw).
func parseSubexprOrRaw(toks []token) Expr {
	withEOF := make([]token, len(toks)+1)
	copy(withEOF, toks)
	withEOF[len(toks)] = token{kind: tEOF}

	sub := &parser{toks: withEOF}
	expr, err := safeParseExpr(sub)
	if err == nil && sub.pos == len(toks) {
		return expr
	}
	return NewRawExpr(renderTokens(toks))
}

func safeParseExpr(p *parser) (expr Expr, err error) {
	return p.parseExpr()
}

func renderTokens(toks []token) string {
	parts := make([]string, len(toks))
	for i, t := range toks {
		parts[i] = t.text
	}
	return strings.Join(parts, " ")
}
