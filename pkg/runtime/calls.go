package runtime

import (
	"fmt"

	"github.com/hall-dev/flowlang/pkg/flowerr"
	"github.com/hall-dev/flowlang/pkg/stage"
	"github.com/hall-dev/flowlang/pkg/syntax"
	"github.com/hall-dev/flowlang/pkg/value"
)

// evalCall dispatches a CallExpr to a Stage constructor or the input.json
// source, per the recognized-call-name table in spec.md §6.1.
func (d *Driver) evalCall(call *syntax.CallExpr) (binding, error) {
	name, ok := syntax.CalleeName(call.Callee)
	if !ok {
		return binding{}, flowerr.New(flowerr.UnknownName, "call target is not a recognized name")
	}

	switch name {
	case "input.json":
		return d.evalInputJSON(call)
	case "map":
		expr, err := exactlyOnePositional(call, name)
		if err != nil {
			return binding{}, err
		}
		return stageBinding(&stage.MapStage{Expr: expr}), nil
	case "filter":
		expr, err := exactlyOnePositional(call, name)
		if err != nil {
			return binding{}, err
		}
		return stageBinding(&stage.FilterStage{Expr: expr}), nil
	case "flat_map":
		expr, err := exactlyOnePositional(call, name)
		if err != nil {
			return binding{}, err
		}
		return stageBinding(&stage.FlatMapStage{Expr: expr}), nil
	case "group.collect_all":
		named, err := namedArgs(call, name, "by_key", "within_ms", "limit")
		if err != nil {
			return binding{}, err
		}
		withinMs, err := intLiteral(named["within_ms"], name, "within_ms")
		if err != nil {
			return binding{}, err
		}
		limit, err := intLiteral(named["limit"], name, "limit")
		if err != nil {
			return binding{}, err
		}
		return stageBinding(&stage.GroupCollectAllStage{ByKey: named["by_key"], WithinMs: withinMs, Limit: limit}), nil
	case "group.count":
		named, err := namedArgs(call, name, "by_key")
		if err != nil {
			return binding{}, err
		}
		return stageBinding(&stage.GroupCountStage{ByKey: named["by_key"]}), nil
	case "rank.topk":
		named, err := namedArgs(call, name, "k", "by", "order")
		if err != nil {
			return binding{}, err
		}
		k, err := intLiteral(named["k"], name, "k")
		if err != nil {
			return binding{}, err
		}
		order, err := stringLiteral(named["order"], name, "order")
		if err != nil {
			return binding{}, err
		}
		return stageBinding(&stage.RankTopKStage{K: k, By: named["by"], Order: order}), nil
	case "group.topn_items":
		named, err := namedArgs(call, name, "by_key", "n", "order_by", "order")
		if err != nil {
			return binding{}, err
		}
		n, err := intLiteral(named["n"], name, "n")
		if err != nil {
			return binding{}, err
		}
		order, err := stringLiteral(named["order"], name, "order")
		if err != nil {
			return binding{}, err
		}
		return stageBinding(&stage.GroupTopNItemsStage{ByKey: named["by_key"], N: n, OrderBy: named["order_by"], Order: order}), nil
	case "kv.load":
		named, err := namedArgs(call, name, "store")
		if err != nil {
			return binding{}, err
		}
		store, err := stringLiteral(named["store"], name, "store")
		if err != nil {
			return binding{}, err
		}
		return stageBinding(&stage.KvLoadStage{Store: store}), nil
	case "lookup.kv":
		named, err := namedArgs(call, name, "store", "key")
		if err != nil {
			return binding{}, err
		}
		store, err := stringLiteral(named["store"], name, "store")
		if err != nil {
			return binding{}, err
		}
		return stageBinding(&stage.LookupKvStage{Store: store, Key: named["key"]}), nil
	case "lookup.batch_kv":
		named, err := namedArgs(call, name, "store", "key", "batch_size", "within_ms")
		if err != nil {
			return binding{}, err
		}
		store, err := stringLiteral(named["store"], name, "store")
		if err != nil {
			return binding{}, err
		}
		batchSize, err := intLiteral(named["batch_size"], name, "batch_size")
		if err != nil {
			return binding{}, err
		}
		withinMs, err := intLiteral(named["within_ms"], name, "within_ms")
		if err != nil {
			return binding{}, err
		}
		return stageBinding(&stage.LookupBatchKvStage{Store: store, Key: named["key"], BatchSize: batchSize, WithinMs: withinMs}), nil
	case "rbac.evaluate":
		named, err := namedArgs(call, name, "principal_bindings", "role_perms", "resource_ancestors")
		if err != nil {
			return binding{}, err
		}
		pb, err := stringLiteral(named["principal_bindings"], name, "principal_bindings")
		if err != nil {
			return binding{}, err
		}
		rp, err := stringLiteral(named["role_perms"], name, "role_perms")
		if err != nil {
			return binding{}, err
		}
		ra, err := stringLiteral(named["resource_ancestors"], name, "resource_ancestors")
		if err != nil {
			return binding{}, err
		}
		return stageBinding(&stage.RbacEvaluateStage{PrincipalBindings: pb, RolePerms: rp, ResourceAncestors: ra}), nil
	case "ui.table":
		nameArg, err := exactlyOnePositional(call, name)
		if err != nil {
			return binding{}, err
		}
		s, err := stringLiteral(nameArg, name, "name")
		if err != nil {
			return binding{}, err
		}
		return stageBinding(&stage.UiTableStage{Name: s}), nil
	case "ui.log":
		nameArg, err := exactlyOnePositional(call, name)
		if err != nil {
			return binding{}, err
		}
		s, err := stringLiteral(nameArg, name, "name")
		if err != nil {
			return binding{}, err
		}
		return stageBinding(&stage.UiLogStage{Name: s}), nil
	default:
		return binding{}, flowerr.New(flowerr.UnknownName, "unrecognized call name %q", name)
	}
}

func (d *Driver) evalInputJSON(call *syntax.CallExpr) (binding, error) {
	nameArg, err := exactlyOnePositional(call, "input.json")
	if err != nil {
		return binding{}, err
	}
	fixtureName, err := stringLiteral(nameArg, "input.json", "fixture name")
	if err != nil {
		return binding{}, err
	}
	fv, ok := d.state.Fixtures[fixtureName]
	if !ok {
		return binding{}, flowerr.New(flowerr.MissingFixture, "fixture %q not present", fixtureName)
	}
	arr, ok := fv.(value.Array)
	if !ok {
		return binding{}, flowerr.New(flowerr.MissingFixture, "fixture %q must be a JSON array", fixtureName)
	}
	d.explain = append(d.explain, fmt.Sprintf("  [source] input.json(%s)", fixtureName))
	out := make(stage.Stream, len(arr))
	for i, item := range arr {
		b, err := value.MarshalJSON(item)
		if err != nil {
			return binding{}, flowerr.Wrap(flowerr.TypeError, err, "fixture %q element has no JSON representation", fixtureName)
		}
		out[i] = value.Bytes(b)
	}
	return streamBinding(out), nil
}

func exactlyOnePositional(call *syntax.CallExpr, name string) (syntax.Expr, error) {
	var positional []syntax.Expr
	for _, a := range call.Args {
		p, ok := a.(syntax.PositionalArg)
		if !ok {
			return nil, flowerr.New(flowerr.ArgumentError, "%s: expected a positional argument, got named", name)
		}
		positional = append(positional, p.Value)
	}
	if len(positional) != 1 {
		return nil, flowerr.New(flowerr.ArgumentError, "%s: expected exactly one argument, got %d", name, len(positional))
	}
	return positional[0], nil
}

func namedArgs(call *syntax.CallExpr, name string, required ...string) (map[string]syntax.Expr, error) {
	out := make(map[string]syntax.Expr)
	for _, a := range call.Args {
		n, ok := a.(syntax.NamedArg)
		if !ok {
			return nil, flowerr.New(flowerr.ArgumentError, "%s: expected named arguments, got positional", name)
		}
		out[n.Name] = n.Value
	}
	for _, r := range required {
		if _, ok := out[r]; !ok {
			return nil, flowerr.New(flowerr.ArgumentError, "%s: missing required named argument %q", name, r)
		}
	}
	return out, nil
}

func stringLiteral(e syntax.Expr, callName, argName string) (string, error) {
	s, ok := e.(*syntax.StringExpr)
	if !ok {
		return "", flowerr.New(flowerr.ArgumentError, "%s: argument %q must be a string literal", callName, argName)
	}
	return s.Value, nil
}

func intLiteral(e syntax.Expr, callName, argName string) (int64, error) {
	n, ok := e.(*syntax.NumberExpr)
	if !ok {
		return 0, flowerr.New(flowerr.ArgumentError, "%s: argument %q must be an integer literal", callName, argName)
	}
	return n.Value, nil
}
