package stage

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hall-dev/flowlang/pkg/syntax"
	"github.com/hall-dev/flowlang/pkg/value"
)

func newTestState() *State {
	return NewState(map[string]value.Value{})
}

func TestMapStage(t *testing.T) {
	st := &MapStage{Expr: syntax.NewRawExpr("_ + 1")}
	out, err := st.Apply(newTestState(), Stream{value.I64(1), value.I64(2)})
	require.NoError(t, err)
	assert.Equal(t, Stream{value.I64(2), value.I64(3)}, out)
}

func TestFilterStageRejectsNonBool(t *testing.T) {
	st := &FilterStage{Expr: syntax.NewNumberExpr(1)}
	_, err := st.Apply(newTestState(), Stream{value.I64(1)})
	require.Error(t, err)
}

func TestFlatMapStage(t *testing.T) {
	field := syntax.NewFieldAccessExpr(syntax.NewPlaceholderExpr(), "items")
	st := &FlatMapStage{Expr: field}
	in := Stream{
		value.Record{"items": value.Array{value.I64(1), value.I64(2)}},
		value.Record{"items": value.Array{value.I64(3)}},
	}
	out, err := st.Apply(newTestState(), in)
	require.NoError(t, err)
	assert.Equal(t, Stream{value.I64(1), value.I64(2), value.I64(3)}, out)
}

func recordWithKey(key string, n int64) value.Value {
	return value.Record{"k": value.String(key), "n": value.I64(n)}
}

func TestGroupCountFirstSeenOrder(t *testing.T) {
	st := &GroupCountStage{ByKey: syntax.NewFieldAccessExpr(syntax.NewPlaceholderExpr(), "k")}
	in := Stream{recordWithKey("b", 1), recordWithKey("a", 2), recordWithKey("b", 3)}
	out, err := st.Apply(newTestState(), in)
	require.NoError(t, err)
	require.Len(t, out, 2)
	assert.Equal(t, value.String("b"), out[0].(value.Record)["key"])
	assert.Equal(t, value.I64(2), out[0].(value.Record)["count"])
	assert.Equal(t, value.String("a"), out[1].(value.Record)["key"])
	assert.Equal(t, value.I64(1), out[1].(value.Record)["count"])
}

func TestGroupCollectAllLimit(t *testing.T) {
	st := &GroupCollectAllStage{ByKey: syntax.NewFieldAccessExpr(syntax.NewPlaceholderExpr(), "k"), Limit: 1}
	in := Stream{recordWithKey("a", 1), recordWithKey("a", 2)}
	out, err := st.Apply(newTestState(), in)
	require.NoError(t, err)
	items := out[0].(value.Record)["items"].(value.Array)
	assert.Len(t, items, 1)
}

func TestRankTopKStableTieBreakAndKLargerThanInput(t *testing.T) {
	st := &RankTopKStage{K: 10, By: syntax.NewFieldAccessExpr(syntax.NewPlaceholderExpr(), "n"), Order: "asc"}
	in := Stream{recordWithKey("x", 1), recordWithKey("y", 1), recordWithKey("z", 0)}
	out, err := st.Apply(newTestState(), in)
	require.NoError(t, err)
	require.Len(t, out, 3)
	assert.Equal(t, value.String("z"), out[0].(value.Record)["k"])
	assert.Equal(t, value.String("x"), out[1].(value.Record)["k"])
	assert.Equal(t, value.String("y"), out[2].(value.Record)["k"])
}

func TestGroupTopNItemsTies(t *testing.T) {
	st := &GroupTopNItemsStage{
		ByKey:   syntax.NewFieldAccessExpr(syntax.NewPlaceholderExpr(), "k"),
		N:       1,
		OrderBy: syntax.NewFieldAccessExpr(syntax.NewPlaceholderExpr(), "n"),
		Order:   "desc",
	}
	in := Stream{recordWithKey("a", 1), recordWithKey("a", 1)}
	out, err := st.Apply(newTestState(), in)
	require.NoError(t, err)
	items := out[0].(value.Record)["items"].(value.Array)
	require.Len(t, items, 1)
	assert.Equal(t, value.I64(1), items[0].(value.Record)["n"])
}

func TestSortKeyLessI64BeforeString(t *testing.T) {
	assert.True(t, sortKeyLess(value.I64(5), value.String("a")))
	assert.False(t, sortKeyLess(value.String("a"), value.I64(5)))
}

func TestParseOrderRejectsUnknown(t *testing.T) {
	_, err := parseOrder("sideways")
	require.Error(t, err)
}
