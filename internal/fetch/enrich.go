package fetch

import (
	"context"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/xiaoheixi/crypto-screener/pkg/contracts/domain"
)

// Enricher resolves a category label for a single record id. Implementations
// are injectable so the normalization pipeline can be tested without any
// network access.
type Enricher interface {
	Category(ctx context.Context, id string) (string, error)
}

// EnrichCategories fills the Category field on each record using the
// enricher, at most workers lookups in flight at once.
//
// Failure is isolated per record: a lookup error leaves that record's
// Category absent and never fails the batch. The records slice is modified
// in place and returned; it is the caller's working copy, produced by
// normalization for this batch only.
func EnrichCategories(ctx context.Context, enricher Enricher, records []domain.MarketRecord, workers int, logger *slog.Logger) []domain.MarketRecord {
	if enricher == nil || workers <= 0 || len(records) == 0 {
		return records
	}

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)

	for i := range records {
		g.Go(func() error {
			category, err := enricher.Category(ctx, records[i].ID)
			if err != nil {
				logger.DebugContext(ctx, "category enrichment failed",
					slog.String("id", records[i].ID),
					slog.String("error", err.Error()))
				return nil
			}
			records[i].Category = category
			return nil
		})
	}

	// Workers never return errors; Wait only orders the writes above
	g.Wait()

	return records
}
