package stage

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hall-dev/flowlang/pkg/value"
)

func rbacFixtures() map[string]value.Value {
	return map[string]value.Value{
		"principal_bindings": value.Array{
			value.Record{"principal": value.String("alice"), "role": value.String("editor")},
		},
		"role_perms": value.Array{
			value.Record{"role": value.String("editor"), "action": value.String("read"), "resource": value.String("org")},
		},
		"resource_ancestors": value.Array{
			value.Record{"resource": value.String("doc-1"), "ancestor": value.String("org")},
		},
	}
}

func TestRbacEvaluateStageAllows(t *testing.T) {
	s := NewState(rbacFixtures())
	st := &RbacEvaluateStage{
		PrincipalBindings: "principal_bindings",
		RolePerms:         "role_perms",
		ResourceAncestors: "resource_ancestors",
	}
	in := Stream{value.Record{"principal": value.String("alice"), "action": value.String("read"), "resource": value.String("doc-1")}}
	out, err := st.Apply(s, in)
	require.NoError(t, err)
	rec := out[0].(value.Record)
	assert.Equal(t, value.String("allow"), rec["decision"])
	matches := rec["matches"].(value.Array)
	require.Len(t, matches, 1)
}

func TestRbacEvaluateStageMissingFixture(t *testing.T) {
	s := NewState(map[string]value.Value{})
	st := &RbacEvaluateStage{
		PrincipalBindings: "principal_bindings",
		RolePerms:         "role_perms",
		ResourceAncestors: "resource_ancestors",
	}
	_, err := st.Apply(s, Stream{value.Record{"principal": value.String("a"), "action": value.String("read"), "resource": value.String("r")}})
	require.Error(t, err)
}

func TestRbacEvaluateStageRejectsNonRecordRequest(t *testing.T) {
	s := NewState(rbacFixtures())
	st := &RbacEvaluateStage{
		PrincipalBindings: "principal_bindings",
		RolePerms:         "role_perms",
		ResourceAncestors: "resource_ancestors",
	}
	_, err := st.Apply(s, Stream{value.I64(1)})
	require.Error(t, err)
}
