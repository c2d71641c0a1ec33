package aggregation

import (
	"github.com/shopspring/decimal"
)

// Supported aggregate functions.
const (
	OpCount = "count"
	OpSum   = "sum"
	OpAvg   = "avg"
	OpMin   = "min"
	OpMax   = "max"
)

// CountAll is the measure name for COUNT(*).
const CountAll = "*"

// Spec requests one aggregate column: Function over Measure, labeled Alias.
// Measure may be a fact measure or, for count, a dimension attribute reference.
type Spec struct {
	Function string `json:"function" yaml:"function"`
	Measure  string `json:"measure" yaml:"measure"`
	Alias    string `json:"alias,omitempty" yaml:"alias"`
}

// Label is the output column name of the spec.
func (s Spec) Label() string {
	if s.Alias != "" {
		return s.Alias
	}
	if s.Measure == "" || s.Measure == CountAll {
		return s.Function + "_all"
	}
	return s.Function + "_" + s.Measure
}

// Query is one aggregation request over a fact view.
type Query struct {
	GroupBy    []string
	Mode       Mode
	Aggregates []Spec
}

// ResultRow is one output group. Keys align with Result.GroupBy and hold
// All for attributes rolled up in this row's grouping set. GroupingID has
// bit n-1-i set when GroupBy[i] is All.
type ResultRow struct {
	Keys       []Cell                `json:"keys"`
	Values     []decimal.NullDecimal `json:"values"`
	GroupingID uint64                `json:"grouping_id"`
}

// Result is a labeled table of grouped rows, concatenated across grouping sets.
type Result struct {
	GroupBy []string    `json:"group_by"`
	Columns []string    `json:"columns"`
	Rows    []ResultRow `json:"rows"`
}

// Attribute returns the index of a group-by attribute.
func (r *Result) Attribute(name string) (int, bool) {
	for i, a := range r.GroupBy {
		if a == name {
			return i, true
		}
	}
	return -1, false
}

// Column returns the index of a value column.
func (r *Result) Column(name string) (int, bool) {
	for i, c := range r.Columns {
		if c == name {
			return i, true
		}
	}
	return -1, false
}

// Level returns the rows of one grouping set.
// Level(0) is the leaf level, Level(AllMask(n)) the grand total.
func (r *Result) Level(mask uint64) []ResultRow {
	var out []ResultRow
	for _, row := range r.Rows {
		if row.GroupingID == mask {
			out = append(out, row)
		}
	}
	return out
}

// GrandTotal returns the row where every attribute is All.
func (r *Result) GrandTotal() (ResultRow, bool) {
	rows := r.Level(AllMask(len(r.GroupBy)))
	if len(rows) == 0 {
		return ResultRow{}, false
	}
	return rows[0], true
}

// Filter returns a copy holding only rows whose grouping ID is in masks.
// No masks keeps every row.
func (r *Result) Filter(masks ...uint64) *Result {
	out := r.Clone()
	if len(masks) == 0 {
		return out
	}
	keep := make(map[uint64]bool, len(masks))
	for _, m := range masks {
		keep[m] = true
	}
	rows := out.Rows[:0]
	for _, row := range out.Rows {
		if keep[row.GroupingID] {
			rows = append(rows, row)
		}
	}
	out.Rows = rows
	return out
}

// Clone deep-copies the result.
func (r *Result) Clone() *Result {
	out := &Result{
		GroupBy: append([]string(nil), r.GroupBy...),
		Columns: append([]string(nil), r.Columns...),
		Rows:    make([]ResultRow, len(r.Rows)),
	}
	for i, row := range r.Rows {
		out.Rows[i] = ResultRow{
			Keys:       append([]Cell(nil), row.Keys...),
			Values:     append([]decimal.NullDecimal(nil), row.Values...),
			GroupingID: row.GroupingID,
		}
	}
	return out
}
