package warehouse

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/aevon-lab/salescube/internal/core/dimension"
	"github.com/aevon-lab/salescube/internal/core/fact"
)

// Hydrate rebuilds the in-memory stores from the journal. Versions and facts
// are loaded concurrently; versions are restored before facts. It must run
// before the warehouse serves writes.
func (w *Warehouse) Hydrate(ctx context.Context) error {
	if w.journal == nil {
		return nil
	}
	start := time.Now()

	var versions []dimension.Version
	var facts []fact.Row

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		versions, err = w.journal.LoadVersions(gctx)
		if err != nil {
			return fmt.Errorf("load versions: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		facts, err = w.journal.LoadFacts(gctx)
		if err != nil {
			return fmt.Errorf("load facts: %w", err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return err
	}

	for _, v := range versions {
		if err := w.dims.Restore(v); err != nil {
			return fmt.Errorf("restore version %d: %w", v.SurrogateKey, err)
		}
	}
	for _, row := range facts {
		if err := w.facts.Restore(row); err != nil {
			return fmt.Errorf("restore fact %d: %w", row.ID, err)
		}
	}

	w.generation.Add(1)

	slog.Info("[Warehouse] Hydrated from journal",
		"versions", len(versions),
		"facts", len(facts),
		"duration", time.Since(start))
	return nil
}
