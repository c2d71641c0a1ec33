package v1

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/aevon-lab/salescube/internal/core/aggregation"
	"github.com/aevon-lab/salescube/internal/core/dimension"
)

func TestDimensionVersionRequest_Validate(t *testing.T) {
	tests := []struct {
		name    string
		req     DimensionVersionRequest
		wantErr string
	}{
		{name: "valid", req: DimensionVersionRequest{NaturalKey: "S-1", EffectiveDate: "2024-03-01"}},
		{name: "missing natural key", req: DimensionVersionRequest{EffectiveDate: "2024-03-01"}, wantErr: "natural_key is required"},
		{name: "missing date", req: DimensionVersionRequest{NaturalKey: "S-1"}, wantErr: "effective_date is required"},
		{name: "malformed date", req: DimensionVersionRequest{NaturalKey: "S-1", EffectiveDate: "03/01/2024"}, wantErr: "YYYY-MM-DD"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := tc.req.Validate()
			if tc.wantErr != "" {
				require.ErrorContains(t, err, tc.wantErr)
				return
			}
			require.NoError(t, err)
			require.Equal(t, time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC), got)
		})
	}
}

func TestSaleRequest_Validate(t *testing.T) {
	var req SaleRequest
	require.NoError(t, json.Unmarshal([]byte(`{
		"business_date": "2024-02-01",
		"store": "S-1",
		"product": "P-1",
		"customer": "C-1",
		"quantity": 3,
		"unit_price": "19.99",
		"discount": 5
	}`), &req))

	sale, err := req.Validate()
	require.NoError(t, err)
	require.True(t, sale.UnitPrice.Equal(decimal.RequireFromString("19.99")))
	require.True(t, sale.UnitCost.IsZero())

	req.Customer = " "
	_, err = req.Validate()
	require.ErrorContains(t, err, "customer is required")

	req.Customer = "C-1"
	req.Quantity = decimal.Zero
	_, err = req.Validate()
	require.ErrorContains(t, err, "quantity must be > 0")
}

func TestQueryRequest_Validate(t *testing.T) {
	var req QueryRequest
	require.NoError(t, json.Unmarshal([]byte(`{
		"from": "2024-01-01",
		"group_by": ["store.region", "product.category"],
		"mode": "ROLLUP",
		"aggregates": [{"function": "sum", "measure": "total_amount"}],
		"windows": [{"kind": "rank", "column": "sum_total_amount", "descending": false}],
		"levels": [0, 3]
	}`), &req))

	q, err := req.Validate()
	require.NoError(t, err)
	require.Equal(t, aggregation.ModeRollup, q.Mode)
	require.Equal(t, time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), q.Selection.From)
	require.True(t, q.Selection.To.IsZero())
	require.NotNil(t, q.Windows[0].Descending)
	require.False(t, *q.Windows[0].Descending)
	require.Equal(t, []uint64{0, 3}, q.Levels)

	req.Mode = "pivot"
	_, err = req.Validate()
	require.ErrorContains(t, err, "mode must be")

	req.Mode = ""
	req.To = "tomorrow"
	_, err = req.Validate()
	require.ErrorContains(t, err, "to must be YYYY-MM-DD")

	_, err = (&QueryRequest{}).Validate()
	require.ErrorContains(t, err, "at least one aggregate")
}

func TestNewDimensionVersion(t *testing.T) {
	to := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	v := NewDimensionVersion(dimension.Version{
		SurrogateKey: 4,
		Dimension:    "customer",
		NaturalKey:   "C-1",
		Attributes:   map[string]string{"name": "sealed"},
		ValidFrom:    time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		ValidTo:      &to,
	}, map[string]string{"name": "Ada"})

	b, err := json.Marshal(v)
	require.NoError(t, err)
	require.JSONEq(t, `{
		"surrogate_key": 4,
		"dimension": "customer",
		"natural_key": "C-1",
		"attributes": {"name": "Ada"},
		"valid_from": "2024-01-01",
		"valid_to": "2024-03-01",
		"is_current": false
	}`, string(b))
}
