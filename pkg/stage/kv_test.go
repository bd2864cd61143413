package stage

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hall-dev/flowlang/pkg/syntax"
	"github.com/hall-dev/flowlang/pkg/value"
)

func TestKvLoadAndLookup(t *testing.T) {
	s := newTestState()
	load := &KvLoadStage{Store: "users"}
	_, err := load.Apply(s, Stream{value.Record{"key": value.String("u1"), "value": value.I64(42)}})
	require.NoError(t, err)

	lookup := &LookupKvStage{Store: "users", Key: syntax.NewFieldAccessExpr(syntax.NewPlaceholderExpr(), "id")}
	out, err := lookup.Apply(s, Stream{value.Record{"id": value.String("u1")}})
	require.NoError(t, err)
	rec := out[0].(value.Record)
	assert.Equal(t, value.I64(42), rec["right"])
}

func TestLookupKvMissingStoreResolvesNull(t *testing.T) {
	s := newTestState()
	lookup := &LookupKvStage{Store: "absent", Key: syntax.NewFieldAccessExpr(syntax.NewPlaceholderExpr(), "id")}
	out, err := lookup.Apply(s, Stream{value.Record{"id": value.String("u1")}})
	require.NoError(t, err)
	rec := out[0].(value.Record)
	assert.Equal(t, value.Null{}, rec["right"])
}

func TestLookupBatchKvRejectsNegativeParams(t *testing.T) {
	s := newTestState()
	lookup := &LookupBatchKvStage{Store: "users", Key: syntax.NewPlaceholderExpr(), BatchSize: -1}
	_, err := lookup.Apply(s, Stream{value.String("x")})
	require.Error(t, err)
}

func TestKvLoadRejectsNonRecord(t *testing.T) {
	s := newTestState()
	load := &KvLoadStage{Store: "users"}
	_, err := load.Apply(s, Stream{value.I64(1)})
	require.Error(t, err)
}
