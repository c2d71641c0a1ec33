package report

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/aevon-lab/salescube/internal/core/aggregation"
	werr "github.com/aevon-lab/salescube/internal/core/errors"
	"github.com/aevon-lab/salescube/internal/core/schema"
	"github.com/aevon-lab/salescube/internal/core/window"
	"github.com/aevon-lab/salescube/internal/warehouse"
)

const storeContribution = `
name: store_contribution
description: Share of revenue per store
group_by: [store.name]
aggregates:
  - function: sum
    measure: total_amount
    alias: store_sales
windows:
  - kind: ratio_to_total
    column: store_sales
    alias: share
  - kind: rank
    column: store_sales
filters:
  store.region: [West]
`

const regionRollup = `
name: region_rollup
group_by: [store.region, product.category]
mode: rollup
aggregates:
  - function: count
  - function: avg
    measure: unit_price
levels: [0, 3]
`

func writeReports(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	for name, body := range files {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(body), 0o600))
	}
	return dir
}

func TestFileSystemRepository_Load(t *testing.T) {
	dir := writeReports(t, map[string]string{
		"contribution.yaml": storeContribution,
		"rollup.yml":        regionRollup,
		"notes.txt":         "not a report",
		"empty.yaml":        "# nothing here\n",
	})

	repo, err := NewFileSystemRepository(dir, schema.Sales())
	require.NoError(t, err)

	defs, err := repo.List(context.Background())
	require.NoError(t, err)
	require.Len(t, defs, 2)
	require.Equal(t, "region_rollup", defs[0].Name)
	require.Equal(t, "store_contribution", defs[1].Name)

	def, err := repo.Get(context.Background(), "store_contribution")
	require.NoError(t, err)
	require.Equal(t, aggregation.ModePlain, def.Mode)
	require.Equal(t, "store_sales", def.Aggregates[0].Label())
	require.Len(t, def.Windows, 2)
	require.Equal(t, window.KindRatioToTotal, def.Windows[0].Kind)
	require.Equal(t, []string{"West"}, def.Filters["store.region"])
	require.Len(t, def.Fingerprint, 64)

	rollup, err := repo.Get(context.Background(), "region_rollup")
	require.NoError(t, err)
	require.Equal(t, aggregation.ModeRollup, rollup.Mode)
	require.Equal(t, []uint64{0, 3}, rollup.Levels)
	require.NotEqual(t, def.Fingerprint, rollup.Fingerprint)

	_, err = repo.Get(context.Background(), "missing")
	require.ErrorIs(t, err, werr.ErrNotFound)
}

func TestFileSystemRepository_MissingDirIsEmpty(t *testing.T) {
	repo, err := NewFileSystemRepository(filepath.Join(t.TempDir(), "absent"), schema.Sales())
	require.NoError(t, err)
	require.Empty(t, repo.Definitions())
}

func TestFileSystemRepository_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		files   map[string]string
		wantErr string
	}{
		{
			name:    "malformed yaml",
			files:   map[string]string{"a.yaml": "name: [unterminated"},
			wantErr: "parsing report file",
		},
		{
			name:    "unknown mode",
			files:   map[string]string{"a.yaml": "name: a\nmode: pivot\naggregates: [{function: count}]\n"},
			wantErr: "grouping mode",
		},
		{
			name:    "unknown attribute",
			files:   map[string]string{"a.yaml": "name: a\ngroup_by: [store.color]\naggregates: [{function: count}]\n"},
			wantErr: "store.color",
		},
		{
			name:    "sensitive attribute",
			files:   map[string]string{"a.yaml": "name: a\ngroup_by: [customer.name]\naggregates: [{function: count}]\n"},
			wantErr: "customer.name",
		},
		{
			name:    "no aggregates",
			files:   map[string]string{"a.yaml": "name: a\ngroup_by: [store.region]\n"},
			wantErr: "at least one aggregate",
		},
		{
			name:    "unknown function",
			files:   map[string]string{"a.yaml": "name: a\naggregates: [{function: median, measure: total_amount}]\n"},
			wantErr: `unsupported aggregate function "median"`,
		},
		{
			name:    "unknown measure",
			files:   map[string]string{"a.yaml": "name: a\naggregates: [{function: sum, measure: margin}]\n"},
			wantErr: `unknown measure "margin"`,
		},
		{
			name:    "unknown window",
			files:   map[string]string{"a.yaml": "name: a\naggregates: [{function: count}]\nwindows: [{kind: ntile, column: count_all}]\n"},
			wantErr: `unsupported window kind "ntile"`,
		},
		{
			name: "duplicate name",
			files: map[string]string{
				"a.yaml": "name: a\naggregates: [{function: count}]\n",
				"b.yaml": "name: a\naggregates: [{function: sum, measure: quantity}]\n",
			},
			wantErr: "duplicate report name",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := NewFileSystemRepository(writeReports(t, tc.files), schema.Sales())
			require.ErrorContains(t, err, tc.wantErr)
		})
	}
}

func TestFileSystemRepository_NotADirectory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "file.yaml")
	require.NoError(t, os.WriteFile(path, []byte(storeContribution), 0o600))

	_, err := NewFileSystemRepository(path, schema.Sales())
	require.ErrorContains(t, err, "is not a directory")
}

func TestDefinition_QueryMergesSelection(t *testing.T) {
	def := Definition{
		GroupBy:    []string{"store.name"},
		Aggregates: []aggregation.Spec{{Function: aggregation.OpSum, Measure: schema.MeasureTotalAmount}},
		Filters:    map[string][]string{"store.region": {"West"}, "product.category": {"Bikes"}},
	}
	from := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	q := def.Query(warehouse.Selection{From: from, Filters: map[string][]string{"store.region": {"East"}}})
	require.Equal(t, from, q.Selection.From)
	require.Equal(t, []string{"East"}, q.Selection.Filters["store.region"])
	require.Equal(t, []string{"Bikes"}, q.Selection.Filters["product.category"])
	// The definition itself is untouched.
	require.Equal(t, []string{"West"}, def.Filters["store.region"])
}
