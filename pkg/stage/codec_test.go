package stage

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hall-dev/flowlang/pkg/flowerr"
	"github.com/hall-dev/flowlang/pkg/value"
)

func TestJsonStageRoundTrip(t *testing.T) {
	fwd := &JsonStage{}
	out, err := fwd.Apply(newTestState(), Stream{value.Record{"a": value.I64(1)}})
	require.NoError(t, err)
	b, ok := out[0].(value.Bytes)
	require.True(t, ok)

	inv := fwd.Invert().(*JsonStage)
	assert.True(t, inv.Inverse)
	back, err := inv.Apply(newTestState(), Stream{b})
	require.NoError(t, err)
	assert.True(t, value.Equal(back[0], value.Record{"a": value.I64(1)}))
}

func TestJsonStageAutoRejectsBytesInForwardOnlyStream(t *testing.T) {
	st := &JsonStage{}
	_, err := st.Apply(newTestState(), Stream{value.I64(1), value.Bytes("x")})
	require.Error(t, err)
	assert.True(t, flowerr.Is(err, flowerr.NoDirectionMatch))
}

func TestUtf8StageForwardAndInverse(t *testing.T) {
	st := &Utf8Stage{}
	out, err := st.Apply(newTestState(), Stream{value.String("hi")})
	require.NoError(t, err)
	assert.Equal(t, value.Bytes("hi"), out[0])

	inv := st.Invert()
	back, err := inv.Apply(newTestState(), Stream{value.Bytes("hi")})
	require.NoError(t, err)
	assert.Equal(t, value.String("hi"), back[0])
}

func TestUtf8StageInvalidBytes(t *testing.T) {
	inv := &Utf8Stage{Inverse: true}
	_, err := inv.Apply(newTestState(), Stream{value.Bytes([]byte{0xff, 0xfe})})
	require.Error(t, err)
}

func TestBase64RoundTrip(t *testing.T) {
	st := &Base64Stage{}
	out, err := st.Apply(newTestState(), Stream{value.Bytes("abc")})
	require.NoError(t, err)
	encoded := out[0].(value.String)

	inv := st.Invert()
	back, err := inv.Apply(newTestState(), Stream{encoded})
	require.NoError(t, err)
	assert.Equal(t, value.Bytes("abc"), back[0])
}

func TestBase64RejectsBadLength(t *testing.T) {
	inv := &Base64Stage{Inverse: true}
	_, err := inv.Apply(newTestState(), Stream{value.String("abc")})
	require.Error(t, err)
	assert.True(t, flowerr.Is(err, flowerr.InvalidParameter))
}

func TestDoubleInvertReturnsToAuto(t *testing.T) {
	st := &JsonStage{}
	once := st.Invert().(*JsonStage)
	twice := once.Invert().(*JsonStage)
	assert.False(t, twice.Inverse)
}
