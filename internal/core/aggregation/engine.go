package aggregation

import (
	"context"
	"sort"
	"strings"

	"github.com/shopspring/decimal"

	werr "github.com/aevon-lab/salescube/internal/core/errors"
	"github.com/aevon-lab/salescube/internal/core/schema"
)

// Engine evaluates aggregate queries over joined fact views.
// It holds no data and is safe for concurrent use.
type Engine struct {
	star    *schema.Star
	maxCube int
}

// Option configures an Engine.
type Option func(*Engine)

// WithMaxCubeAttributes overrides DefaultMaxCubeAttributes.
func WithMaxCubeAttributes(n int) Option {
	return func(e *Engine) {
		if n > 0 {
			e.maxCube = n
		}
	}
}

// NewEngine creates an engine for the measures of star.
func NewEngine(star *schema.Star, opts ...Option) *Engine {
	e := &Engine{star: star, maxCube: DefaultMaxCubeAttributes}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

type inputKind int

const (
	inputRows inputKind = iota
	inputMeasure
	inputAttribute
)

// column is one compiled aggregate spec.
type column struct {
	label   string
	agg     Aggregator
	kind    inputKind
	measure string
	cell    int
	scale   int32
}

func (c column) value(row *ViewRow) decimal.NullDecimal {
	switch c.kind {
	case inputMeasure:
		return row.Measures[c.measure]
	case inputAttribute:
		if row.Cells[c.cell].IsNull() {
			return decimal.NullDecimal{}
		}
		return decimal.NewNullDecimal(decimal.Zero)
	default:
		return decimal.NewNullDecimal(decimal.Zero)
	}
}

type group struct {
	keys []Cell
	accs []Accumulator
}

// Aggregate expands q.GroupBy into grouping sets and computes every
// aggregate per non-empty group of every set. Rows are ordered by grouping
// set in expansion order, then by key cells. Cancellation of ctx between
// grouping sets aborts the whole query.
func (e *Engine) Aggregate(ctx context.Context, view *View, q Query) (*Result, error) {
	positions := make([]int, len(q.GroupBy))
	for i, ref := range q.GroupBy {
		p, ok := view.Column(ref)
		if !ok {
			return nil, werr.New(werr.KindInvalidGroupingSpec, ref, "attribute is not groupable")
		}
		positions[i] = p
	}

	cols, err := e.compile(view, q.Aggregates)
	if err != nil {
		return nil, err
	}

	sets, err := expand(q.GroupBy, q.Mode, e.maxCube)
	if err != nil {
		return nil, err
	}

	res := &Result{
		GroupBy: append([]string(nil), q.GroupBy...),
		Columns: make([]string, len(cols)),
		Rows:    []ResultRow{},
	}
	for i, c := range cols {
		res.Columns[i] = c.label
	}

	n := len(q.GroupBy)
	for _, set := range sets {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		groups := make(map[string]*group)
		var order []*group
		var key strings.Builder
		for r := range view.Rows {
			row := &view.Rows[r]
			key.Reset()
			for i, p := range positions {
				if !Rolled(set.Mask, i, n) {
					row.Cells[p].AppendKey(&key)
				}
			}
			g, ok := groups[key.String()]
			if !ok {
				g = &group{keys: make([]Cell, n), accs: make([]Accumulator, len(cols))}
				for i, p := range positions {
					if Rolled(set.Mask, i, n) {
						g.keys[i] = All()
					} else {
						g.keys[i] = row.Cells[p]
					}
				}
				for i, c := range cols {
					g.accs[i] = c.agg.New(c.scale)
				}
				groups[key.String()] = g
				order = append(order, g)
			}
			for i, c := range cols {
				g.accs[i].Add(c.value(row))
			}
		}

		sort.SliceStable(order, func(i, j int) bool {
			return compareKeys(order[i].keys, order[j].keys) < 0
		})
		for _, g := range order {
			values := make([]decimal.NullDecimal, len(cols))
			for i, acc := range g.accs {
				values[i] = acc.Result()
			}
			res.Rows = append(res.Rows, ResultRow{Keys: g.keys, Values: values, GroupingID: set.Mask})
		}
	}
	return res, nil
}

func (e *Engine) compile(view *View, specs []Spec) ([]column, error) {
	cols := make([]column, 0, len(specs))
	labels := make(map[string]bool, len(specs))
	for _, s := range specs {
		fn := strings.ToLower(strings.TrimSpace(s.Function))
		agg, ok := Operators[fn]
		if !ok {
			return nil, werr.New(werr.KindUnsupportedAggregate, s.Function, "unknown aggregate function")
		}
		s.Function = fn
		c := column{label: s.Label(), agg: agg}

		switch {
		case s.Measure == "" || s.Measure == CountAll:
			if agg.Numeric() {
				return nil, werr.New(werr.KindUnsupportedAggregate, fn+"(*)", "%s requires a measure", fn)
			}
			c.kind = inputRows
		default:
			if m, ok := e.star.Measure(s.Measure); ok {
				c.kind, c.measure, c.scale = inputMeasure, m.Name, m.Scale
				break
			}
			if _, _, err := e.star.Attribute(s.Measure); err != nil {
				return nil, werr.New(werr.KindInvalidGroupingSpec, s.Measure, "unknown measure")
			}
			if agg.Numeric() {
				return nil, werr.New(werr.KindUnsupportedAggregate, fn+"("+s.Measure+")", "%s over a dimension attribute", fn)
			}
			p, ok := view.Column(s.Measure)
			if !ok {
				return nil, werr.New(werr.KindInvalidGroupingSpec, s.Measure, "attribute is not countable")
			}
			c.kind, c.cell = inputAttribute, p
		}

		if labels[c.label] {
			return nil, werr.New(werr.KindInvalidGroupingSpec, c.label, "duplicate output column")
		}
		labels[c.label] = true
		cols = append(cols, c)
	}
	return cols, nil
}

func compareKeys(a, b []Cell) int {
	for i := range a {
		if c := a[i].Compare(b[i]); c != 0 {
			return c
		}
	}
	return 0
}
