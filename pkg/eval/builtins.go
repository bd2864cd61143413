package eval

import (
	"github.com/hall-dev/flowlang/pkg/flowerr"
	"github.com/hall-dev/flowlang/pkg/syntax"
	"github.com/hall-dev/flowlang/pkg/value"
)

// evalCall dispatches the restricted built-in call set: array.map, .filter,
// .any, .flat_map, .contains, and default(x, fallback). Every other call
// name is a parse/construction-time concern (stage constructors, sources)
// handled by pkg/runtime, not by this evaluator.
func evalCall(e *syntax.CallExpr, env Env) (value.Value, error) {
	name, ok := syntax.CalleeName(e.Callee)
	if !ok {
		return nil, flowerr.New(flowerr.TypeError, "call target is not a name")
	}
	args := positionalArgs(e.Args)

	switch name {
	case "array.map":
		return arrayMap(args, env)
	case "array.filter":
		return arrayFilter(args, env)
	case "array.any":
		return arrayAny(args, env)
	case "array.flat_map":
		return arrayFlatMap(args, env)
	case "array.contains":
		return arrayContains(args, env)
	case "default":
		return defaultFn(args, env)
	default:
		return nil, flowerr.New(flowerr.UnknownName, "unknown call %q", name)
	}
}

func positionalArgs(args []syntax.CallArg) []syntax.Expr {
	out := make([]syntax.Expr, 0, len(args))
	for _, a := range args {
		if pa, ok := a.(syntax.PositionalArg); ok {
			out = append(out, pa.Value)
		}
	}
	return out
}

func requireArgs(name string, args []syntax.Expr, n int) error {
	if len(args) != n {
		return flowerr.New(flowerr.ArgumentError, "%s expects %d positional arguments, got %d", name, n, len(args))
	}
	return nil
}

func evalArray(expr syntax.Expr, env Env) (value.Array, error) {
	v, err := Eval(expr, env)
	if err != nil {
		return nil, err
	}
	arr, ok := v.(value.Array)
	if !ok {
		return nil, flowerr.New(flowerr.TypeError, "expected Array, got %s", v.Kind())
	}
	return arr, nil
}

func arrayMap(args []syntax.Expr, env Env) (value.Value, error) {
	if err := requireArgs("array.map", args, 2); err != nil {
		return nil, err
	}
	arr, err := evalArray(args[0], env)
	if err != nil {
		return nil, err
	}
	out := make(value.Array, len(arr))
	for i, item := range arr {
		v, err := Eval(args[1], withCurrent(env, item))
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

func arrayFilter(args []syntax.Expr, env Env) (value.Value, error) {
	if err := requireArgs("array.filter", args, 2); err != nil {
		return nil, err
	}
	arr, err := evalArray(args[0], env)
	if err != nil {
		return nil, err
	}
	var out value.Array
	for _, item := range arr {
		v, err := Eval(args[1], withCurrent(env, item))
		if err != nil {
			return nil, err
		}
		b, ok := v.(value.Bool)
		if !ok {
			return nil, flowerr.New(flowerr.TypeError, "array.filter predicate must evaluate to Bool")
		}
		if bool(b) {
			out = append(out, item)
		}
	}
	return out, nil
}

func arrayAny(args []syntax.Expr, env Env) (value.Value, error) {
	if err := requireArgs("array.any", args, 2); err != nil {
		return nil, err
	}
	arr, err := evalArray(args[0], env)
	if err != nil {
		return nil, err
	}
	for _, item := range arr {
		v, err := Eval(args[1], withCurrent(env, item))
		if err != nil {
			return nil, err
		}
		b, ok := v.(value.Bool)
		if !ok {
			return nil, flowerr.New(flowerr.TypeError, "array.any predicate must evaluate to Bool")
		}
		if bool(b) {
			return value.Bool(true), nil
		}
	}
	return value.Bool(false), nil
}

func arrayFlatMap(args []syntax.Expr, env Env) (value.Value, error) {
	if err := requireArgs("array.flat_map", args, 2); err != nil {
		return nil, err
	}
	arr, err := evalArray(args[0], env)
	if err != nil {
		return nil, err
	}
	var out value.Array
	for _, item := range arr {
		v, err := Eval(args[1], withCurrent(env, item))
		if err != nil {
			return nil, err
		}
		sub, ok := v.(value.Array)
		if !ok {
			return nil, flowerr.New(flowerr.TypeError, "array.flat_map callback must evaluate to Array")
		}
		out = append(out, sub...)
	}
	return out, nil
}

func arrayContains(args []syntax.Expr, env Env) (value.Value, error) {
	if err := requireArgs("array.contains", args, 2); err != nil {
		return nil, err
	}
	arr, err := evalArray(args[0], env)
	if err != nil {
		return nil, err
	}
	needle, err := Eval(args[1], env)
	if err != nil {
		return nil, err
	}
	for _, item := range arr {
		if value.Equal(item, needle) {
			return value.Bool(true), nil
		}
	}
	return value.Bool(false), nil
}

func defaultFn(args []syntax.Expr, env Env) (value.Value, error) {
	if err := requireArgs("default", args, 2); err != nil {
		return nil, err
	}
	v, err := Eval(args[0], env)
	if err != nil {
		return nil, err
	}
	if _, isNull := v.(value.Null); isNull {
		return Eval(args[1], env)
	}
	return v, nil
}

func withCurrent(env Env, current value.Value) Env {
	next := make(Env, len(env))
	for k, v := range env {
		next[k] = v
	}
	next["_"] = current
	return next
}
