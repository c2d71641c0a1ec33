package storage

import (
	"context"

	"github.com/aevon-lab/salescube/internal/core/dimension"
	"github.com/aevon-lab/salescube/internal/core/fact"
)

// Journal persists warehouse mutations so the in-memory stores can be
// rebuilt at startup. The in-memory stores stay authoritative for reads.
type Journal interface {
	// SaveVersion persists the outcome of one dimension upsert: the current
	// version and, for SCD2 changes, the version it closed. Both are written
	// atomically.
	SaveVersion(ctx context.Context, change dimension.Change) error

	SaveFact(ctx context.Context, row fact.Row) error

	// LoadVersions returns every persisted version ordered by surrogate key.
	LoadVersions(ctx context.Context) ([]dimension.Version, error)

	// LoadFacts returns every persisted fact ordered by ID.
	LoadFacts(ctx context.Context) ([]fact.Row, error)
}
