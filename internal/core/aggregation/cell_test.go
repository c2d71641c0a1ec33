package aggregation

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCell_JSON(t *testing.T) {
	b, err := json.Marshal([]Cell{Value("West"), Null(), All(), Value("")})
	require.NoError(t, err)
	require.JSONEq(t, `["West", null, {"all":true}, ""]`, string(b))

	var cells []Cell
	require.NoError(t, json.Unmarshal(b, &cells))
	require.Equal(t, []Cell{Value("West"), Null(), All(), Value("")}, cells)

	var c Cell
	require.Error(t, json.Unmarshal([]byte(`{"all":false}`), &c))
}

func TestCell_AllIsDistinct(t *testing.T) {
	require.NotEqual(t, All(), Null())
	require.NotEqual(t, All(), Value("ALL"))
	require.NotEqual(t, Null(), Value(""))

	require.Negative(t, Null().Compare(Value("")))
	require.Negative(t, Value("zzz").Compare(All()))
	require.Negative(t, Value("East").Compare(Value("West")))
	require.Zero(t, All().Compare(All()))

	v, ok := Value("x").Str()
	require.True(t, ok)
	require.Equal(t, "x", v)
	_, ok = All().Str()
	require.False(t, ok)
	require.Equal(t, "ALL", All().String())
	require.Equal(t, "NULL", Null().String())
}
