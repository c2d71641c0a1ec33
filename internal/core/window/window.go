// Package window computes analytic columns over an aggregated result:
// running totals, ratio to total and ranks, each within partitions of rows
// that share a grouping set and optional partition attributes.
package window

import (
	"sort"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/aevon-lab/salescube/internal/core/aggregation"
	werr "github.com/aevon-lab/salescube/internal/core/errors"
)

// Kind names a window function.
type Kind string

const (
	KindRunningTotal Kind = "running_total"
	KindRatioToTotal Kind = "ratio_to_total"
	KindRank         Kind = "rank"
	KindDenseRank    Kind = "dense_rank"
)

// DefaultRatioScale is the number of fractional digits of ratio_to_total.
const DefaultRatioScale int32 = 4

// Spec describes one window column.
//
// Column is the value column the function reads. OrderBy names a group-by
// attribute or value column to order by and defaults to Column. Descending
// applies to OrderBy; ranks default to descending by Column, other kinds to
// ascending. ratio_to_total keeps input order unless OrderBy is set.
// PartitionBy lists group-by attributes that further split each grouping set.
type Spec struct {
	Kind        Kind     `json:"kind" yaml:"kind"`
	Column      string   `json:"column" yaml:"column"`
	OrderBy     string   `json:"order_by,omitempty" yaml:"order_by"`
	Descending  *bool    `json:"descending,omitempty" yaml:"descending"`
	PartitionBy []string `json:"partition_by,omitempty" yaml:"partition_by"`
	Alias       string   `json:"alias,omitempty" yaml:"alias"`
	Scale       *int32   `json:"scale,omitempty" yaml:"scale"`
}

// Label is the output column name of the spec.
func (s Spec) Label() string {
	if s.Alias != "" {
		return s.Alias
	}
	return string(s.Kind) + "_" + s.Column
}

// ValidKind reports whether k is a supported window function.
func ValidKind(k Kind) bool {
	switch k {
	case KindRunningTotal, KindRatioToTotal, KindRank, KindDenseRank:
		return true
	}
	return false
}

func (s Spec) descending() bool {
	if s.Descending != nil {
		return *s.Descending
	}
	return s.Kind == KindRank || s.Kind == KindDenseRank
}

func (s Spec) scale() int32 {
	if s.Scale != nil {
		return *s.Scale
	}
	return DefaultRatioScale
}

// orderKey reads the sort key of a row: either a group-by cell or a value.
type orderKey struct {
	attr  int
	value int
}

func (k orderKey) compare(a, b *aggregation.ResultRow) int {
	if k.attr >= 0 {
		return a.Keys[k.attr].Compare(b.Keys[k.attr])
	}
	return compareNullable(a.Values[k.value], b.Values[k.value])
}

// compareNullable orders NULL before any value.
func compareNullable(a, b decimal.NullDecimal) int {
	switch {
	case !a.Valid && !b.Valid:
		return 0
	case !a.Valid:
		return -1
	case !b.Valid:
		return 1
	default:
		return a.Decimal.Cmp(b.Decimal)
	}
}

// Apply evaluates specs in order and returns a new result with one value
// column appended per spec. Later specs may read columns added by earlier
// ones. The final row order is the order produced by the last spec; res is
// not modified.
func Apply(res *aggregation.Result, specs ...Spec) (*aggregation.Result, error) {
	out := res.Clone()
	for _, s := range specs {
		var err error
		if out, err = apply(out, s); err != nil {
			return nil, err
		}
	}
	return out, nil
}

func apply(res *aggregation.Result, s Spec) (*aggregation.Result, error) {
	if !ValidKind(s.Kind) {
		return nil, werr.New(werr.KindUnsupportedAggregate, string(s.Kind), "unknown window function")
	}
	col, ok := res.Column(s.Column)
	if !ok {
		return nil, werr.New(werr.KindInvalidGroupingSpec, s.Column, "unknown value column")
	}
	if _, dup := res.Column(s.Label()); dup {
		return nil, werr.New(werr.KindInvalidGroupingSpec, s.Label(), "duplicate output column")
	}

	key := orderKey{attr: -1, value: col}
	if s.OrderBy != "" {
		if i, ok := res.Attribute(s.OrderBy); ok {
			key = orderKey{attr: i, value: -1}
		} else if i, ok := res.Column(s.OrderBy); ok {
			key = orderKey{attr: -1, value: i}
		} else {
			return nil, werr.New(werr.KindInvalidGroupingSpec, s.OrderBy, "unknown order key")
		}
	}

	partAttrs := make([]int, len(s.PartitionBy))
	for i, p := range s.PartitionBy {
		idx, ok := res.Attribute(p)
		if !ok {
			return nil, werr.New(werr.KindInvalidGroupingSpec, p, "partition attribute is not grouped")
		}
		partAttrs[i] = idx
	}

	parts := partition(res.Rows, partAttrs)
	desc := s.descending()

	ordered := s.Kind != KindRatioToTotal || s.OrderBy != ""

	rows := make([]aggregation.ResultRow, 0, len(res.Rows))
	for _, p := range parts {
		if ordered {
			sort.SliceStable(p, func(i, j int) bool {
				c := key.compare(&p[i], &p[j])
				if desc {
					return c > 0
				}
				return c < 0
			})
		}
		values := evaluate(s, p, col, key)
		for i := range p {
			p[i].Values = append(p[i].Values, values[i])
		}
		rows = append(rows, p...)
	}

	res.Columns = append(res.Columns, s.Label())
	res.Rows = rows
	return res, nil
}

// partition splits rows by grouping ID and the given attribute positions,
// keeping partitions in order of first appearance.
func partition(rows []aggregation.ResultRow, attrs []int) [][]aggregation.ResultRow {
	index := make(map[string]int)
	var parts [][]aggregation.ResultRow
	var b strings.Builder
	for _, row := range rows {
		b.Reset()
		b.WriteString(strconv.FormatUint(row.GroupingID, 10))
		for _, a := range attrs {
			b.WriteByte('|')
			row.Keys[a].AppendKey(&b)
		}
		i, ok := index[b.String()]
		if !ok {
			i = len(parts)
			index[b.String()] = i
			parts = append(parts, nil)
		}
		parts[i] = append(parts[i], row)
	}
	return parts
}

func evaluate(s Spec, rows []aggregation.ResultRow, col int, key orderKey) []decimal.NullDecimal {
	out := make([]decimal.NullDecimal, len(rows))
	switch s.Kind {
	case KindRunningTotal:
		acc := decimal.Zero
		for i := range rows {
			if v := rows[i].Values[col]; v.Valid {
				acc = acc.Add(v.Decimal)
			}
			out[i] = decimal.NewNullDecimal(acc)
		}

	case KindRatioToTotal:
		total := decimal.Zero
		for i := range rows {
			if v := rows[i].Values[col]; v.Valid {
				total = total.Add(v.Decimal)
			}
		}
		for i := range rows {
			v := rows[i].Values[col]
			switch {
			case !v.Valid:
				out[i] = decimal.NullDecimal{}
			case total.IsZero():
				out[i] = decimal.NewNullDecimal(decimal.Zero)
			default:
				out[i] = decimal.NewNullDecimal(v.Decimal.DivRound(total, s.scale()))
			}
		}

	case KindRank, KindDenseRank:
		var rank, dense int64
		for i := range rows {
			if i == 0 || key.compare(&rows[i-1], &rows[i]) != 0 {
				rank = int64(i + 1)
				dense++
			}
			if s.Kind == KindRank {
				out[i] = decimal.NewNullDecimal(decimal.NewFromInt(rank))
			} else {
				out[i] = decimal.NewNullDecimal(decimal.NewFromInt(dense))
			}
		}
	}
	return out
}
