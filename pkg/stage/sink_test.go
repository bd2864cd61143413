package stage

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hall-dev/flowlang/pkg/value"
)

func TestUiTableStageAccumulatesConvertedJSON(t *testing.T) {
	st := &UiTableStage{Name: "report"}
	s := newTestState()
	out, err := st.Apply(s, Stream{value.I64(1)})
	require.NoError(t, err)
	assert.Equal(t, Stream{value.Unit{}}, out)
	_, err = st.Apply(s, Stream{value.I64(2)})
	require.NoError(t, err)
	assert.Equal(t, []interface{}{int64(1), int64(2)}, s.Outputs.Tables["report"])
}

func TestUiLogStageAppendsSerializedRows(t *testing.T) {
	st := &UiLogStage{Name: "events"}
	s := newTestState()
	out, err := st.Apply(s, Stream{value.I64(7)})
	require.NoError(t, err)
	assert.Equal(t, Stream{value.Unit{}}, out)
	assert.Equal(t, []string{"7"}, s.Outputs.Logs["events"])
}
