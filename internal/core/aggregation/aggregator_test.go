package aggregation

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func nd(s string) decimal.NullDecimal {
	if s == "" {
		return decimal.NullDecimal{}
	}
	return decimal.NewNullDecimal(decimal.RequireFromString(s))
}

func TestOperators_Accumulate(t *testing.T) {
	tests := []struct {
		name   string
		op     string
		scale  int32
		inputs []string
		want   string
	}{
		{name: "count skips nulls", op: OpCount, inputs: []string{"3", "", "4"}, want: "2"},
		{name: "count of nothing is zero", op: OpCount, want: "0"},
		{name: "sum", op: OpSum, scale: 2, inputs: []string{"0.10", "0.20", "", "0.30"}, want: "0.60"},
		{name: "sum of nothing is null", op: OpSum, inputs: []string{"", ""}, want: ""},
		{name: "avg rounds half up", op: OpAvg, scale: 2, inputs: []string{"1.00", "2.00", "2.00"}, want: "1.67"},
		{name: "avg half boundary", op: OpAvg, scale: 2, inputs: []string{"0.01", "0.00"}, want: "0.01"},
		{name: "avg ignores nulls", op: OpAvg, scale: 0, inputs: []string{"4", "", "6"}, want: "5"},
		{name: "avg of nothing is null", op: OpAvg, scale: 2, want: ""},
		{name: "min keeps lower", op: OpMin, inputs: []string{"9", "3", "4"}, want: "3"},
		{name: "min handles negatives", op: OpMin, inputs: []string{"-1.5", "2"}, want: "-1.5"},
		{name: "max keeps higher", op: OpMax, inputs: []string{"3", "9", "4"}, want: "9"},
		{name: "max of nulls is null", op: OpMax, inputs: []string{""}, want: ""},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			agg, ok := Operators[tc.op]
			require.True(t, ok)

			acc := agg.New(tc.scale)
			for _, in := range tc.inputs {
				acc.Add(nd(in))
			}
			got := acc.Result()
			if tc.want == "" {
				require.False(t, got.Valid)
				return
			}
			require.True(t, got.Valid)
			require.True(t, nd(tc.want).Decimal.Equal(got.Decimal), "got %s", got.Decimal)
		})
	}
}

func TestValidOperator(t *testing.T) {
	for _, op := range []string{OpCount, OpSum, OpAvg, OpMin, OpMax} {
		require.True(t, ValidOperator(op), op)
	}
	require.False(t, ValidOperator("median"))
	require.False(t, ValidOperator(""))
}

func TestOperators_NumericInput(t *testing.T) {
	require.False(t, Operators[OpCount].Numeric())
	require.True(t, Operators[OpSum].Numeric())
	require.True(t, Operators[OpAvg].Numeric())
}
