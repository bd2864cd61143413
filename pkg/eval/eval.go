// Package eval evaluates argument expressions (map/filter/group-key/
// order-by/lookup-key and the array.* builtin callbacks) against a current
// item bound to `_` and a small environment, plus the Raw infix
// mini-language for unparsed `>`/`+` text.
package eval

import (
	"github.com/hall-dev/flowlang/pkg/flowerr"
	"github.com/hall-dev/flowlang/pkg/syntax"
	"github.com/hall-dev/flowlang/pkg/value"
)

// Env is the expression evaluation environment. Only "_" is ever defined by
// the stream context; nested array.* callbacks re-bind "_" to the current
// element for the duration of the callback.
type Env map[string]value.Value

func NewEnv(current value.Value) Env {
	return Env{"_": current}
}

// Eval evaluates expr against env.
func Eval(expr syntax.Expr, env Env) (value.Value, error) {
	switch e := expr.(type) {
	case *syntax.PlaceholderExpr:
		return lookup(env, "_")
	case *syntax.IdentExpr:
		return lookup(env, e.Name)
	case *syntax.NumberExpr:
		return value.I64(e.Value), nil
	case *syntax.StringExpr:
		return value.String(e.Value), nil
	case *syntax.ArrayExpr:
		items := make(value.Array, len(e.Items))
		for i, it := range e.Items {
			v, err := Eval(it, env)
			if err != nil {
				return nil, err
			}
			items[i] = v
		}
		return items, nil
	case *syntax.RecordExpr:
		rec := make(value.Record, len(e.Fields))
		for _, f := range e.Fields {
			v, err := Eval(f.Value, env)
			if err != nil {
				return nil, err
			}
			rec[f.Name] = v
		}
		return rec, nil
	case *syntax.FieldAccessExpr:
		base, err := Eval(e.Expr, env)
		if err != nil {
			return nil, err
		}
		return fieldAccess(base, e.Field)
	case *syntax.CallExpr:
		return evalCall(e, env)
	case *syntax.RawExpr:
		return EvalRaw(e.Text, env)
	default:
		return nil, flowerr.New(flowerr.TypeError, "expression form %T is not valid in this position", expr)
	}
}

func lookup(env Env, name string) (value.Value, error) {
	v, ok := env[name]
	if !ok {
		return nil, flowerr.New(flowerr.UnknownName, "undefined name %q", name)
	}
	return v, nil
}

func fieldAccess(base value.Value, field string) (value.Value, error) {
	rec, ok := base.(value.Record)
	if !ok {
		return nil, flowerr.New(flowerr.TypeError, "field access %q on non-record value", field)
	}
	v, ok := rec[field]
	if !ok {
		return nil, flowerr.New(flowerr.TypeError, "field %q not present on record", field)
	}
	return v, nil
}
