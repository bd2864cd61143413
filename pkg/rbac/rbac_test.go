package rbac

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEvaluateAncestorClosureGrantsAccess(t *testing.T) {
	bindings := []Binding{{Principal: "alice", Role: "editor"}}
	perms := []Perm{{Role: "editor", Action: "read", Resource: "org"}}
	ancestors := []Edge{{Resource: "doc-1", Ancestor: "folder-1"}, {Resource: "folder-1", Ancestor: "org"}}

	d := Evaluate(bindings, perms, ancestors, Request{Principal: "alice", Action: "read", Resource: "doc-1"})
	assert.True(t, d.Allow)
	assert.Equal(t, []Perm{{Role: "editor", Action: "read", Resource: "org"}}, d.Matches)
}

func TestEvaluateDeniesWhenNoMatchingPerm(t *testing.T) {
	bindings := []Binding{{Principal: "alice", Role: "viewer"}}
	perms := []Perm{{Role: "editor", Action: "write", Resource: "doc-1"}}
	ancestors := []Edge{}

	d := Evaluate(bindings, perms, ancestors, Request{Principal: "alice", Action: "write", Resource: "doc-1"})
	assert.False(t, d.Allow)
	assert.Empty(t, d.Matches)
}

func TestEvaluateDuplicateRoleBindingsDuplicateMatches(t *testing.T) {
	bindings := []Binding{
		{Principal: "alice", Role: "editor"},
		{Principal: "alice", Role: "editor"},
	}
	perms := []Perm{{Role: "editor", Action: "read", Resource: "doc-1"}}

	d := Evaluate(bindings, perms, nil, Request{Principal: "alice", Action: "read", Resource: "doc-1"})
	assert.True(t, d.Allow)
	assert.Len(t, d.Matches, 2)
}

func TestAncestorClosureDedupsAndPreservesDiscoveryOrder(t *testing.T) {
	edges := []Edge{
		{Resource: "a", Ancestor: "b"},
		{Resource: "a", Ancestor: "c"},
		{Resource: "b", Ancestor: "c"},
		{Resource: "c", Ancestor: "d"},
	}
	got := ancestorClosure(edges, "a")
	assert.Equal(t, []string{"a", "b", "c", "d"}, got)
}

func TestEvaluateUnknownPrincipalHasNoRoles(t *testing.T) {
	d := Evaluate(nil, nil, nil, Request{Principal: "ghost", Action: "read", Resource: "doc-1"})
	assert.False(t, d.Allow)
}
