package syntax

import (
	"fmt"
	"strings"
)

// ExprType tags the concrete variant of an Expr node, mirroring the
// DataType/ExpressionType enum idiom the teacher uses for its own AST nodes.
type ExprType int

const (
	ExprIdent ExprType = iota
	ExprPlaceholder
	ExprNumber
	ExprString
	ExprArray
	ExprRecord
	ExprFieldAccess
	ExprCall
	ExprPipeline
	ExprCompose
	ExprInverse
	ExprRaw
)

func (t ExprType) String() string {
	switch t {
	case ExprIdent:
		return "Ident"
	case ExprPlaceholder:
		return "Placeholder"
	case ExprNumber:
		return "Number"
	case ExprString:
		return "String"
	case ExprArray:
		return "Array"
	case ExprRecord:
		return "Record"
	case ExprFieldAccess:
		return "FieldAccess"
	case ExprCall:
		return "Call"
	case ExprPipeline:
		return "Pipeline"
	case ExprCompose:
		return "Compose"
	case ExprInverse:
		return "Inverse"
	case ExprRaw:
		return "Raw"
	default:
		return "Unknown"
	}
}

// Expr is the expression AST node interface. Each concrete type below
// implements it, matching the teacher's Expression interface pattern
// (pkg/coordination/expressions/ast.go) of a Type() tag plus String().
type Expr interface {
	Type() ExprType
	String() string
}

type IdentExpr struct {
	Name string
}

func NewIdentExpr(name string) *IdentExpr { return &IdentExpr{Name: name} }
func (*IdentExpr) Type() ExprType         { return ExprIdent }
func (e *IdentExpr) String() string       { return e.Name }

type PlaceholderExpr struct{}

func NewPlaceholderExpr() *PlaceholderExpr { return &PlaceholderExpr{} }
func (*PlaceholderExpr) Type() ExprType    { return ExprPlaceholder }
func (*PlaceholderExpr) String() string    { return "_" }

type NumberExpr struct {
	Value int64
}

func NewNumberExpr(v int64) *NumberExpr { return &NumberExpr{Value: v} }
func (*NumberExpr) Type() ExprType      { return ExprNumber }
func (e *NumberExpr) String() string    { return fmt.Sprintf("%d", e.Value) }

type StringExpr struct {
	Value string
}

func NewStringExpr(v string) *StringExpr { return &StringExpr{Value: v} }
func (*StringExpr) Type() ExprType       { return ExprString }
func (e *StringExpr) String() string     { return fmt.Sprintf("%q", e.Value) }

type ArrayExpr struct {
	Items []Expr
}

func NewArrayExpr(items []Expr) *ArrayExpr { return &ArrayExpr{Items: items} }
func (*ArrayExpr) Type() ExprType          { return ExprArray }
func (e *ArrayExpr) String() string {
	parts := make([]string, len(e.Items))
	for i, it := range e.Items {
		parts[i] = it.String()
	}
	return "[" + strings.Join(parts, ", ") + "]"
}

type RecordField struct {
	Name  string
	Value Expr
}

type RecordExpr struct {
	Fields []RecordField
}

func NewRecordExpr(fields []RecordField) *RecordExpr { return &RecordExpr{Fields: fields} }
func (*RecordExpr) Type() ExprType                   { return ExprRecord }
func (e *RecordExpr) String() string {
	parts := make([]string, len(e.Fields))
	for i, f := range e.Fields {
		parts[i] = fmt.Sprintf("%s: %s", f.Name, f.Value.String())
	}
	return "{" + strings.Join(parts, ", ") + "}"
}

type FieldAccessExpr struct {
	Expr  Expr
	Field string
}

func NewFieldAccessExpr(expr Expr, field string) *FieldAccessExpr {
	return &FieldAccessExpr{Expr: expr, Field: field}
}
func (*FieldAccessExpr) Type() ExprType { return ExprFieldAccess }
func (e *FieldAccessExpr) String() string {
	return fmt.Sprintf("%s.%s", e.Expr.String(), e.Field)
}

// CallArg is either a Positional or a Named argument.
type CallArg interface {
	isCallArg()
	ArgString() string
}

type PositionalArg struct {
	Value Expr
}

func (PositionalArg) isCallArg() {}
func (a PositionalArg) ArgString() string { return a.Value.String() }

type NamedArg struct {
	Name  string
	Value Expr
}

func (NamedArg) isCallArg() {}
func (a NamedArg) ArgString() string { return fmt.Sprintf("%s=%s", a.Name, a.Value.String()) }

type CallExpr struct {
	Callee Expr
	Args   []CallArg
}

func NewCallExpr(callee Expr, args []CallArg) *CallExpr { return &CallExpr{Callee: callee, Args: args} }
func (*CallExpr) Type() ExprType                        { return ExprCall }
func (e *CallExpr) String() string {
	parts := make([]string, len(e.Args))
	for i, a := range e.Args {
		parts[i] = a.ArgString()
	}
	return fmt.Sprintf("%s(%s)", e.Callee.String(), strings.Join(parts, ", "))
}

// CalleeName renders an Ident or dotted FieldAccess chain (e.g.
// input.json, group.collect_all) to its flat call name. Returns false if
// the callee isn't a dotted-identifier chain.
func CalleeName(e Expr) (string, bool) {
	switch v := e.(type) {
	case *IdentExpr:
		return v.Name, true
	case *FieldAccessExpr:
		base, ok := CalleeName(v.Expr)
		if !ok {
			return "", false
		}
		return base + "." + v.Field, true
	default:
		return "", false
	}
}

type PipelineExpr struct {
	Input  Expr
	Stages []Expr
}

func NewPipelineExpr(input Expr, stages []Expr) *PipelineExpr {
	return &PipelineExpr{Input: input, Stages: stages}
}
func (*PipelineExpr) Type() ExprType { return ExprPipeline }
func (e *PipelineExpr) String() string {
	parts := make([]string, len(e.Stages))
	for i, s := range e.Stages {
		parts[i] = s.String()
	}
	return e.Input.String() + " |> " + strings.Join(parts, " |> ")
}

type ComposeExpr struct {
	Left  Expr
	Right Expr
}

func NewComposeExpr(left, right Expr) *ComposeExpr { return &ComposeExpr{Left: left, Right: right} }
func (*ComposeExpr) Type() ExprType                { return ExprCompose }
func (e *ComposeExpr) String() string {
	return e.Left.String() + " >> " + e.Right.String()
}

type InverseExpr struct {
	Expr Expr
}

func NewInverseExpr(expr Expr) *InverseExpr { return &InverseExpr{Expr: expr} }
func (*InverseExpr) Type() ExprType         { return ExprInverse }
func (e *InverseExpr) String() string       { return "~" + e.Expr.String() }

// RawExpr holds unparsed infix text for the top-level >/+ mini-grammar,
// evaluated separately by pkg/eval.
type RawExpr struct {
	Text string
}

func NewRawExpr(text string) *RawExpr { return &RawExpr{Text: text} }
func (*RawExpr) Type() ExprType       { return ExprRaw }
func (e *RawExpr) String() string     { return e.Text }

// Stmt is a top-level program statement.
type Stmt interface {
	isStmt()
	String() string
}

type BindingStmt struct {
	Name string
	Expr Expr
}

func (*BindingStmt) isStmt() {}
func (s *BindingStmt) String() string {
	return fmt.Sprintf("%s := %s;", s.Name, s.Expr.String())
}

type PipelineStmt struct {
	Expr Expr
}

func (*PipelineStmt) isStmt() {}
func (s *PipelineStmt) String() string { return s.Expr.String() + ";" }

type Program struct {
	Statements []Stmt
}
