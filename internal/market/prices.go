// Package market refreshes market prices of locally known types.
package market

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/asteroid-belt/eveuniverse/internal/db"
	"github.com/asteroid-belt/eveuniverse/internal/esi"
	"github.com/asteroid-belt/eveuniverse/internal/log"
	"github.com/asteroid-belt/eveuniverse/internal/models"
	"github.com/asteroid-belt/eveuniverse/internal/schema"
)

// DefaultStaleAfter is how long prices are considered current.
const DefaultStaleAfter = 60 * time.Minute

// Refresher updates eve_market_prices from the remote prices endpoint.
type Refresher struct {
	db         *db.DB
	client     esi.Client
	staleAfter time.Duration
	now        func() time.Time
	logger     zerolog.Logger
}

// New creates a refresher. A non-positive staleAfter selects
// DefaultStaleAfter.
func New(database *db.DB, client esi.Client, staleAfter time.Duration) *Refresher {
	if staleAfter <= 0 {
		staleAfter = DefaultStaleAfter
	}
	return &Refresher{
		db:         database,
		client:     client,
		staleAfter: staleAfter,
		now:        time.Now,
		logger:     log.Logger().With().Str("component", "market").Logger(),
	}
}

// Refresh stores the current prices of every type present locally and
// returns the number of prices written. Prices are left alone while fresher
// than the stale threshold unless force is set.
func (r *Refresher) Refresh(ctx context.Context, force bool) (int, error) {
	last, err := r.db.GetSyncTime(models.SyncMetaLastPriceUpdate)
	if err != nil {
		return 0, fmt.Errorf("read last price update: %w", err)
	}
	now := r.now().UTC()
	if !force && !last.IsZero() && now.Sub(last) < r.staleAfter {
		r.logger.Debug().Time("last_update", last).Msg("prices are current")
		return 0, nil
	}

	prices, err := r.client.MarketPrices(ctx)
	if err != nil {
		return 0, fmt.Errorf("fetch market prices: %w", err)
	}
	ids := make([]int64, 0, len(prices))
	for _, p := range prices {
		ids = append(ids, p.TypeID)
	}
	known, err := r.db.KnownIDs(schema.TableTypes, ids)
	if err != nil {
		return 0, err
	}

	rows := make([]models.EveMarketPrice, 0, len(known))
	for _, p := range prices {
		if !known[p.TypeID] {
			continue
		}
		rows = append(rows, models.EveMarketPrice{
			EveTypeID:     p.TypeID,
			AdjustedPrice: p.AdjustedPrice,
			AveragePrice:  p.AveragePrice,
			UpdatedAt:     now,
		})
	}
	if err := r.db.UpsertMarketPrices(rows); err != nil {
		return 0, err
	}
	if err := r.db.SetSyncTime(models.SyncMetaLastPriceUpdate, now); err != nil {
		return 0, err
	}
	r.logger.Info().Int("received", len(prices)).Int("stored", len(rows)).Msg("market prices refreshed")
	return len(rows), nil
}
