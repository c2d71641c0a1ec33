package report

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	v1 "github.com/aevon-lab/salescube/internal/api/v1"
	"github.com/aevon-lab/salescube/internal/core/codec"
	httperr "github.com/aevon-lab/salescube/internal/core/errors"
	"github.com/aevon-lab/salescube/internal/core/schema"
	"github.com/aevon-lab/salescube/internal/warehouse"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// newTestRouter seeds stores A and B (West) and C (East) with sales of
// 75000, 140000 and 3500 in February 2024.
func newTestRouter(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	ctx := context.Background()

	wh := warehouse.New(schema.Sales(), codec.WithCodec(codec.Identity{}, nil))
	opened := day(2024, 1, 1)
	for _, s := range []struct{ key, name, region string }{
		{"S-A", "A", "West"},
		{"S-B", "B", "West"},
		{"S-C", "C", "East"},
	} {
		_, err := wh.UpsertDimension(ctx, schema.DimStore, s.key, map[string]string{"name": s.name, "region": s.region}, opened)
		require.NoError(t, err)
	}
	_, err := wh.UpsertDimension(ctx, schema.DimProduct, "P-1", map[string]string{"name": "Roadster", "category": "Bikes"}, opened)
	require.NoError(t, err)
	_, err = wh.UpsertDimension(ctx, schema.DimCustomer, "C-1", map[string]string{"name": "Ada", "region": "South"}, opened)
	require.NoError(t, err)

	for i, s := range []struct {
		store  string
		amount int64
	}{{"S-A", 75000}, {"S-B", 140000}, {"S-C", 3500}} {
		_, err := wh.RecordSale(ctx, warehouse.Sale{
			BusinessDate: day(2024, 2, i+1),
			Store:        s.store,
			Product:      "P-1",
			Customer:     "C-1",
			Quantity:     decimal.NewFromInt(1),
			UnitPrice:    decimal.NewFromInt(s.amount),
		})
		require.NoError(t, err)
	}

	repo, err := NewFileSystemRepository(writeReports(t, map[string]string{
		"contribution.yaml": storeContribution,
		"rollup.yaml":       regionRollup,
	}), schema.Sales())
	require.NoError(t, err)

	r := gin.New()
	NewService(wh, repo).RegisterRoutes(r)
	return r
}

func serve(r *gin.Engine, method, path string, body []byte) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, bytes.NewReader(body))
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)
	return resp
}

func decodeResponse(t *testing.T, resp *httptest.ResponseRecorder) v1.QueryResponse {
	t.Helper()
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())
	var out v1.QueryResponse
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &out))
	return out
}

func TestHandleQuery_StoreShare(t *testing.T) {
	r := newTestRouter(t)

	body := []byte(`{
		"group_by": ["store.name"],
		"aggregates": [{"function": "sum", "measure": "total_amount", "alias": "store_sales"}],
		"windows": [{"kind": "ratio_to_total", "column": "store_sales", "alias": "share"}]
	}`)
	out := decodeResponse(t, serve(r, http.MethodPost, "/v1/reports/query", body))

	require.NotEmpty(t, out.QueryID)
	require.Equal(t, []string{"store_sales", "share"}, out.Result.Columns)
	require.Len(t, out.Result.Rows, 3)

	b := out.Result.Rows[1]
	name, _ := b.Keys[0].Str()
	require.Equal(t, "B", name)
	require.True(t, b.Values[1].Decimal.Equal(decimal.RequireFromString("0.6407")), b.Values[1].Decimal.String())
}

func TestHandleQuery_Errors(t *testing.T) {
	r := newTestRouter(t)

	tests := []struct {
		name      string
		body      string
		status    int
		errorType string
	}{
		{
			name:      "malformed json",
			body:      `{"group_by":`,
			status:    http.StatusBadRequest,
			errorType: httperr.HttpInvalidJsonError,
		},
		{
			name:      "no aggregates",
			body:      `{"group_by":["store.name"]}`,
			status:    http.StatusBadRequest,
			errorType: httperr.HttpInvalidGroupingSpec,
		},
		{
			name:      "unknown attribute",
			body:      `{"group_by":["store.color"],"aggregates":[{"function":"count"}]}`,
			status:    http.StatusBadRequest,
			errorType: httperr.HttpInvalidGroupingSpec,
		},
		{
			name:      "unsupported aggregate",
			body:      `{"group_by":["store.name"],"aggregates":[{"function":"median","measure":"total_amount"}]}`,
			status:    http.StatusBadRequest,
			errorType: httperr.HttpUnsupportedAggregate,
		},
		{
			name:      "inverted range",
			body:      `{"from":"2024-03-01","to":"2024-02-01","group_by":["store.name"],"aggregates":[{"function":"count"}]}`,
			status:    http.StatusConflict,
			errorType: httperr.HttpInvalidDate,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			resp := serve(r, http.MethodPost, "/v1/reports/query", []byte(tc.body))
			require.Equal(t, tc.status, resp.Code, resp.Body.String())
			var errResp httperr.ErrorResponse
			require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &errResp))
			require.Equal(t, tc.errorType, errResp.ErrorType)
		})
	}
}

func TestHandleList(t *testing.T) {
	r := newTestRouter(t)

	resp := serve(r, http.MethodGet, "/v1/reports", nil)
	require.Equal(t, http.StatusOK, resp.Code)

	var defs []Definition
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &defs))
	require.Len(t, defs, 2)
	require.Equal(t, "region_rollup", defs[0].Name)
	require.NotEmpty(t, defs[0].Fingerprint)
}

func TestHandleRun_SavedReport(t *testing.T) {
	r := newTestRouter(t)

	// West only; C's sale is filtered out by the definition.
	out := decodeResponse(t, serve(r, http.MethodGet, "/v1/reports/store_contribution", nil))
	require.Equal(t, "store_contribution", out.Report)
	require.Len(t, out.Result.Rows, 2)
	require.Equal(t, []string{"store_sales", "share", "rank_store_sales"}, out.Result.Columns)

	// B has the larger share and ranks first.
	b := out.Result.Rows[1]
	require.True(t, b.Values[0].Decimal.Equal(decimal.NewFromInt(140000)))
	require.True(t, b.Values[2].Decimal.Equal(decimal.NewFromInt(1)))

	// The date range excludes A's sale on Feb 1.
	out = decodeResponse(t, serve(r, http.MethodGet, "/v1/reports/store_contribution?from=2024-02-02&to=2024-03-01", nil))
	require.Len(t, out.Result.Rows, 1)
	require.True(t, out.Result.Rows[0].Values[1].Decimal.Equal(decimal.NewFromInt(1)))
}

func TestHandleRun_RollupLevels(t *testing.T) {
	r := newTestRouter(t)

	out := decodeResponse(t, serve(r, http.MethodGet, "/v1/reports/region_rollup", nil))
	// Levels 0 (region x category) and 3 (grand total).
	require.Len(t, out.Result.Rows, 3)
	total := out.Result.Rows[len(out.Result.Rows)-1]
	require.Equal(t, uint64(3), total.GroupingID)
	require.True(t, total.Keys[0].IsAll())
	require.True(t, total.Values[0].Decimal.Equal(decimal.NewFromInt(3)))
}

func TestHandleRun_Errors(t *testing.T) {
	r := newTestRouter(t)

	resp := serve(r, http.MethodGet, "/v1/reports/missing", nil)
	require.Equal(t, http.StatusNotFound, resp.Code)

	resp = serve(r, http.MethodGet, "/v1/reports/store_contribution?from=Feb", nil)
	require.Equal(t, http.StatusBadRequest, resp.Code)
	var errResp httperr.ErrorResponse
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &errResp))
	require.Equal(t, httperr.HttpInvalidDate, errResp.ErrorType)
}
