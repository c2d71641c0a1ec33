package warehouse

import (
	"context"
	"log/slog"
	"time"

	"github.com/aevon-lab/salescube/internal/core/aggregation"
	"github.com/aevon-lab/salescube/internal/core/dimension"
	werr "github.com/aevon-lab/salescube/internal/core/errors"
	"github.com/aevon-lab/salescube/internal/core/fact"
	"github.com/aevon-lab/salescube/internal/core/schema"
	"github.com/aevon-lab/salescube/internal/core/window"
)

// Selection restricts the facts entering a query. From and To bound the
// business date as [From, To); a zero bound is open. Filters keeps facts
// whose attribute value is one of the listed values.
type Selection struct {
	From    time.Time
	To      time.Time
	Filters map[string][]string
}

// Query is one request at the warehouse boundary.
type Query struct {
	Selection  Selection
	GroupBy    []string
	Mode       aggregation.Mode
	Aggregates []aggregation.Spec
	Windows    []window.Spec
	// Levels keeps only rows of these grouping IDs after windowing; empty keeps all.
	Levels []uint64
}

// SnapshotInfo describes the store state a snapshot reflects.
type SnapshotInfo struct {
	Facts    int   `json:"facts"`
	Selected int   `json:"selected"`
	Sequence int64 `json:"dimension_sequence"`
}

type filter struct {
	cell   int
	values map[string]bool
}

// Snapshot joins every selected fact with the dimension versions it
// references and returns a view over all groupable attributes. Both stores
// are read-locked once, dimensions first; the returned view is independent
// of later writes.
func (w *Warehouse) Snapshot(sel Selection) (*aggregation.View, SnapshotInfo, error) {
	refs := w.star.GroupableRefs()
	parsed := make([]schema.Ref, len(refs))
	for i, ref := range refs {
		parsed[i], _ = schema.ParseRef(ref)
	}
	view := aggregation.NewView(refs)

	filters := make([]filter, 0, len(sel.Filters))
	for ref, values := range sel.Filters {
		if _, err := w.star.GroupableAttribute(ref); err != nil {
			return nil, SnapshotInfo{}, err
		}
		i, _ := view.Column(ref)
		f := filter{cell: i, values: make(map[string]bool, len(values))}
		for _, v := range values {
			f.values[v] = true
		}
		filters = append(filters, f)
	}

	from, to := schema.Day(sel.From), schema.Day(sel.To)
	if !sel.From.IsZero() && !sel.To.IsZero() && !from.Before(to) {
		return nil, SnapshotInfo{}, werr.New(werr.KindInvalidDate, to.Format(schema.DateLayout), "selection end must be after start")
	}

	var info SnapshotInfo
	w.dims.Read(func(tx dimension.ReadTx) {
		info.Sequence = tx.Seq()
		w.facts.Scan(func(row *fact.Row) bool {
			info.Facts++
			if !sel.From.IsZero() && row.BusinessDate.Before(from) {
				return true
			}
			if !sel.To.IsZero() && !row.BusinessDate.Before(to) {
				return true
			}

			cells := make([]aggregation.Cell, len(parsed))
			for i, ref := range parsed {
				cells[i] = aggregation.Null()
				v, ok := tx.Version(row.Keys[ref.Dimension])
				if !ok {
					continue
				}
				if val, ok := v.Attributes[ref.Attribute]; ok {
					cells[i] = aggregation.Value(val)
				}
			}
			for _, f := range filters {
				val, ok := cells[f.cell].Str()
				if !ok || !f.values[val] {
					return true
				}
			}

			view.Append(aggregation.ViewRow{
				FactID:       row.ID,
				BusinessDate: row.BusinessDate,
				Cells:        cells,
				Measures:     row.Measures,
			})
			return true
		})
	})
	info.Selected = view.Len()
	return view, info, nil
}

// Query runs the full pipeline: snapshot, grouping-set aggregation, window
// pass and level filter. The result is a new table; the stores are not
// touched beyond the snapshot read.
func (w *Warehouse) Query(ctx context.Context, q Query) (*aggregation.Result, error) {
	for _, ref := range q.GroupBy {
		if _, err := w.star.GroupableAttribute(ref); err != nil {
			return nil, err
		}
	}

	view, info, err := w.Snapshot(q.Selection)
	if err != nil {
		return nil, err
	}

	res, err := w.engine.Aggregate(ctx, view, aggregation.Query{
		GroupBy:    q.GroupBy,
		Mode:       q.Mode,
		Aggregates: q.Aggregates,
	})
	if err != nil {
		return nil, err
	}

	if len(q.Windows) > 0 {
		specs := make([]window.Spec, len(q.Windows))
		for i, s := range q.Windows {
			if s.Kind == window.KindRatioToTotal && s.Scale == nil {
				scale := w.ratioScale
				s.Scale = &scale
			}
			specs[i] = s
		}
		if res, err = window.Apply(res, specs...); err != nil {
			return nil, err
		}
	}

	if len(q.Levels) > 0 {
		res = res.Filter(q.Levels...)
	}

	slog.Debug("[Warehouse] Query evaluated",
		"group_by", q.GroupBy,
		"mode", q.Mode,
		"facts", info.Facts,
		"selected", info.Selected,
		"rows", len(res.Rows))
	return res, nil
}
