package stage

import (
	"github.com/hall-dev/flowlang/pkg/flowerr"
	"github.com/hall-dev/flowlang/pkg/rbac"
	"github.com/hall-dev/flowlang/pkg/value"
)

// RbacEvaluateStage evaluates each stream item (a {principal, action,
// resource} Record) against three named fixture tables rather than the
// pipeline's own stream context.
type RbacEvaluateStage struct {
	PrincipalBindings string
	RolePerms         string
	ResourceAncestors string
}

func (*RbacEvaluateStage) Category() Category { return CategoryPure }

func (s *RbacEvaluateStage) Apply(state *State, in Stream) (Stream, error) {
	bindings, err := loadBindings(state, s.PrincipalBindings)
	if err != nil {
		return nil, err
	}
	perms, err := loadPerms(state, s.RolePerms)
	if err != nil {
		return nil, err
	}
	ancestors, err := loadAncestors(state, s.ResourceAncestors)
	if err != nil {
		return nil, err
	}

	out := make(Stream, len(in))
	for i, item := range in {
		rec, ok := item.(value.Record)
		if !ok {
			return nil, flowerr.New(flowerr.RbacSchema, "rbac request must be a Record")
		}
		req, err := requestFromRecord(rec)
		if err != nil {
			return nil, err
		}
		d := rbac.Evaluate(bindings, perms, ancestors, req)
		decision := "deny"
		if d.Allow {
			decision = "allow"
		}
		matches := make(value.Array, len(d.Matches))
		for j, m := range d.Matches {
			matches[j] = value.Record{
				"role":     value.String(m.Role),
				"action":   value.String(m.Action),
				"resource": value.String(m.Resource),
			}
		}
		out[i] = value.Record{
			"request":  item,
			"decision": value.String(decision),
			"matches":  matches,
		}
	}
	return out, nil
}

func fixtureRows(state *State, name string) (value.Array, error) {
	fv, ok := state.Fixtures[name]
	if !ok {
		return nil, flowerr.New(flowerr.MissingFixture, "rbac: missing fixture %q", name)
	}
	arr, ok := fv.(value.Array)
	if !ok {
		return nil, flowerr.New(flowerr.RbacSchema, "rbac: fixture %q must be an array", name)
	}
	return arr, nil
}

func recordField(rec value.Record, field, fixtureName string) (string, error) {
	v, ok := rec[field]
	if !ok {
		return "", flowerr.New(flowerr.RbacSchema, "rbac: fixture %q row missing field %q", fixtureName, field)
	}
	s, ok := v.(value.String)
	if !ok {
		return "", flowerr.New(flowerr.RbacSchema, "rbac: fixture %q field %q must be a String", fixtureName, field)
	}
	return string(s), nil
}

func loadBindings(state *State, name string) ([]rbac.Binding, error) {
	rows, err := fixtureRows(state, name)
	if err != nil {
		return nil, err
	}
	out := make([]rbac.Binding, len(rows))
	for i, row := range rows {
		rec, ok := row.(value.Record)
		if !ok {
			return nil, flowerr.New(flowerr.RbacSchema, "rbac: fixture %q row must be a Record", name)
		}
		principal, err := recordField(rec, "principal", name)
		if err != nil {
			return nil, err
		}
		role, err := recordField(rec, "role", name)
		if err != nil {
			return nil, err
		}
		out[i] = rbac.Binding{Principal: principal, Role: role}
	}
	return out, nil
}

func loadPerms(state *State, name string) ([]rbac.Perm, error) {
	rows, err := fixtureRows(state, name)
	if err != nil {
		return nil, err
	}
	out := make([]rbac.Perm, len(rows))
	for i, row := range rows {
		rec, ok := row.(value.Record)
		if !ok {
			return nil, flowerr.New(flowerr.RbacSchema, "rbac: fixture %q row must be a Record", name)
		}
		role, err := recordField(rec, "role", name)
		if err != nil {
			return nil, err
		}
		action, err := recordField(rec, "action", name)
		if err != nil {
			return nil, err
		}
		resource, err := recordField(rec, "resource", name)
		if err != nil {
			return nil, err
		}
		out[i] = rbac.Perm{Role: role, Action: action, Resource: resource}
	}
	return out, nil
}

func loadAncestors(state *State, name string) ([]rbac.Edge, error) {
	rows, err := fixtureRows(state, name)
	if err != nil {
		return nil, err
	}
	out := make([]rbac.Edge, len(rows))
	for i, row := range rows {
		rec, ok := row.(value.Record)
		if !ok {
			return nil, flowerr.New(flowerr.RbacSchema, "rbac: fixture %q row must be a Record", name)
		}
		resource, err := recordField(rec, "resource", name)
		if err != nil {
			return nil, err
		}
		ancestor, err := recordField(rec, "ancestor", name)
		if err != nil {
			return nil, err
		}
		out[i] = rbac.Edge{Resource: resource, Ancestor: ancestor}
	}
	return out, nil
}

func requestFromRecord(rec value.Record) (rbac.Request, error) {
	principal, err := recordField(rec, "principal", "request")
	if err != nil {
		return rbac.Request{}, err
	}
	action, err := recordField(rec, "action", "request")
	if err != nil {
		return rbac.Request{}, err
	}
	resource, err := recordField(rec, "resource", "request")
	if err != nil {
		return rbac.Request{}, err
	}
	return rbac.Request{Principal: principal, Action: action, Resource: resource}, nil
}
