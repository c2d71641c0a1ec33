package aggregation

import (
	"time"

	"github.com/shopspring/decimal"
)

// View is a joined fact view: each row carries its resolved attribute cells,
// aligned with Attributes, and its measures.
type View struct {
	Attributes []string
	Rows       []ViewRow
	index      map[string]int
}

// ViewRow is one fact with its dimension attributes resolved.
type ViewRow struct {
	FactID       int64
	BusinessDate time.Time
	Cells        []Cell
	Measures     map[string]decimal.NullDecimal
}

// NewView creates an empty view over the given attribute references.
func NewView(attributes []string) *View {
	index := make(map[string]int, len(attributes))
	for i, a := range attributes {
		index[a] = i
	}
	return &View{Attributes: attributes, index: index}
}

// Column returns the cell position of an attribute reference.
func (v *View) Column(ref string) (int, bool) {
	if v.index == nil {
		v.index = make(map[string]int, len(v.Attributes))
		for i, a := range v.Attributes {
			v.index[a] = i
		}
	}
	i, ok := v.index[ref]
	return i, ok
}

// Cell returns the value of ref in row, or Null when the view has no such column.
func (v *View) Cell(row *ViewRow, ref string) Cell {
	i, ok := v.Column(ref)
	if !ok || i >= len(row.Cells) {
		return Null()
	}
	return row.Cells[i]
}

// Append adds a row; cells must align with Attributes.
func (v *View) Append(row ViewRow) {
	v.Rows = append(v.Rows, row)
}

// Len returns the number of rows.
func (v *View) Len() int {
	return len(v.Rows)
}
