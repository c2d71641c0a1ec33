// Package warehouse composes the dimension store, fact store, aggregation
// engine and window pass into the sales cube, and optionally writes every
// mutation through to a journal.
package warehouse

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/aevon-lab/salescube/internal/core/aggregation"
	"github.com/aevon-lab/salescube/internal/core/codec"
	"github.com/aevon-lab/salescube/internal/core/dimension"
	"github.com/aevon-lab/salescube/internal/core/fact"
	"github.com/aevon-lab/salescube/internal/core/schema"
	"github.com/aevon-lab/salescube/internal/core/storage"
	"github.com/aevon-lab/salescube/internal/core/window"
)

// Warehouse is the in-process sales cube.
type Warehouse struct {
	star       *schema.Star
	dims       *dimension.Store
	facts      *fact.Store
	engine     *aggregation.Engine
	journal    storage.Journal
	ratioScale int32
	maxCube    int

	// versionMu orders dimension upserts and their journal writes alike.
	versionMu sync.Mutex
	// generation counts applied mutations; bumped after the store changes.
	generation atomic.Uint64
}

// Option configures a Warehouse.
type Option func(*Warehouse)

// WithJournal enables write-through persistence and Hydrate.
func WithJournal(j storage.Journal) Option {
	return func(w *Warehouse) { w.journal = j }
}

// WithRatioScale sets the default scale of ratio_to_total columns.
func WithRatioScale(scale int32) Option {
	return func(w *Warehouse) { w.ratioScale = scale }
}

// WithMaxCubeAttributes bounds cube expansion.
func WithMaxCubeAttributes(n int) Option {
	return func(w *Warehouse) { w.maxCube = n }
}

// New creates an empty warehouse over star. keyring seals sensitive
// attributes; nil stores them with the identity codec.
func New(star *schema.Star, keyring *codec.Keyring, opts ...Option) *Warehouse {
	w := &Warehouse{
		star:       star,
		ratioScale: window.DefaultRatioScale,
		maxCube:    aggregation.DefaultMaxCubeAttributes,
	}
	for _, opt := range opts {
		opt(w)
	}
	w.dims = dimension.NewStore(star, keyring)
	w.facts = fact.NewStore(star, w.dims)
	w.engine = aggregation.NewEngine(star, aggregation.WithMaxCubeAttributes(w.maxCube))
	return w
}

func (w *Warehouse) Star() *schema.Star {
	return w.star
}

func (w *Warehouse) Dimensions() *dimension.Store {
	return w.dims
}

func (w *Warehouse) Facts() *fact.Store {
	return w.facts
}

// Generation returns a counter that grows with every applied mutation.
// A snapshot taken after reading generation g reflects every mutation
// counted up to g.
func (w *Warehouse) Generation() uint64 {
	return w.generation.Load()
}

// UpsertDimension records a dimension version and journals the change.
// The in-memory store is updated first; a journal failure is returned but
// does not roll the store back. Upserts are serialized through the journal
// write, so the journal sees changes in the order the store applied them.
func (w *Warehouse) UpsertDimension(ctx context.Context, dim, naturalKey string, attrs map[string]string, effectiveDate time.Time) (dimension.Change, error) {
	w.versionMu.Lock()
	defer w.versionMu.Unlock()

	change, err := w.dims.UpsertVersion(dim, naturalKey, attrs, effectiveDate)
	if err != nil {
		return dimension.Change{}, err
	}
	if change.Noop() {
		return change, nil
	}
	w.generation.Add(1)

	slog.Debug("[Warehouse] Dimension version recorded",
		"dimension", dim,
		"natural_key", naturalKey,
		"surrogate_key", change.Current.SurrogateKey,
		"closed", change.Closed != nil)

	if w.journal != nil {
		if err := w.journal.SaveVersion(ctx, change); err != nil {
			slog.Error("[Warehouse] Failed to journal dimension version",
				"dimension", dim, "natural_key", naturalKey, "error", err)
			return change, fmt.Errorf("journal dimension version: %w", err)
		}
	}
	return change, nil
}

// AppendFact appends a fact keyed by surrogate keys and journals it.
func (w *Warehouse) AppendFact(ctx context.Context, row fact.Row) (fact.Row, error) {
	stored, err := w.facts.Append(row)
	if err != nil {
		return fact.Row{}, err
	}
	w.generation.Add(1)

	if w.journal != nil {
		if err := w.journal.SaveFact(ctx, stored); err != nil {
			slog.Error("[Warehouse] Failed to journal fact", "fact_id", stored.ID, "error", err)
			return stored, fmt.Errorf("journal fact: %w", err)
		}
	}
	return stored, nil
}
