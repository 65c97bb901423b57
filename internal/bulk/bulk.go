// Package bulk resolves large sets of ids to lightweight EveEntity records
// through the remote names endpoint, bypassing the per-record synchronizer.
package bulk

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strconv"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/asteroid-belt/eveuniverse/internal/cache"
	"github.com/asteroid-belt/eveuniverse/internal/db"
	"github.com/asteroid-belt/eveuniverse/internal/esi"
	"github.com/asteroid-belt/eveuniverse/internal/log"
	"github.com/asteroid-belt/eveuniverse/internal/metrics"
	"github.com/asteroid-belt/eveuniverse/internal/models"
)

// MaxBatchSize is the largest id list the names endpoint accepts.
const MaxBatchSize = 1000

// ErrUnresolvable means the remote API does not know the id.
var ErrUnresolvable = errors.New("id cannot be resolved")

// Config is passed to New.
type Config struct {
	MaxBatchSize int
	Workers      int
	// MissingTTL is how long an unresolvable id is remembered.
	MissingTTL time.Duration
}

// DefaultConfig returns the defaults used when no configuration is given.
func DefaultConfig() Config {
	return Config{MaxBatchSize: MaxBatchSize, Workers: 4, MissingTTL: 24 * time.Hour}
}

// Resolver creates EveEntity records in bulk.
type Resolver struct {
	cfg    Config
	db     *db.DB
	client esi.Client
	cache  cache.Cache
	logger zerolog.Logger
}

// New creates a resolver. A nil cache disables remembering unresolvable
// ids.
func New(cfg Config, database *db.DB, client esi.Client, c cache.Cache) *Resolver {
	if cfg.MaxBatchSize <= 0 || cfg.MaxBatchSize > MaxBatchSize {
		cfg.MaxBatchSize = MaxBatchSize
	}
	if cfg.Workers <= 0 {
		cfg.Workers = 1
	}
	return &Resolver{
		cfg:    cfg,
		db:     database,
		client: client,
		cache:  c,
		logger: log.Logger().With().Str("component", "bulk").Logger(),
	}
}

// BulkCreate creates records for every id not yet stored and returns how
// many were created. Ids the remote API does not know are skipped.
func (r *Resolver) BulkCreate(ctx context.Context, ids []int64) (int, error) {
	ids = normalize(ids)
	known, err := r.db.KnownIDs("eve_entities", ids)
	if err != nil {
		return 0, err
	}

	todo := make([]int64, 0, len(ids))
	for _, id := range ids {
		switch {
		case known[id]:
			metrics.BulkResolved.WithLabelValues("known").Inc()
		case r.isMissing(id):
			metrics.BulkResolved.WithLabelValues("unresolvable").Inc()
		default:
			todo = append(todo, id)
		}
	}
	if len(todo) == 0 {
		return 0, nil
	}

	names, err := r.resolve(ctx, todo)
	if err != nil {
		return 0, err
	}
	if err := r.store(names); err != nil {
		return 0, err
	}
	r.logger.Debug().Int("requested", len(ids)).Int("created", len(names)).Msg("bulk create finished")
	return len(names), nil
}

// GetOrCreate returns the stored record, creating it when missing.
func (r *Resolver) GetOrCreate(ctx context.Context, id int64) (*models.EveEntity, error) {
	e, err := db.Get[models.EveEntity](r.db, id)
	if err != nil || e != nil {
		return e, err
	}
	if _, err := r.BulkCreate(ctx, []int64{id}); err != nil {
		return nil, err
	}
	e, err = db.Get[models.EveEntity](r.db, id)
	if err != nil {
		return nil, err
	}
	if e == nil {
		return nil, fmt.Errorf("%w: %d", ErrUnresolvable, id)
	}
	return e, nil
}

// UpdateOrCreate fetches the name of id and stores it whether or not it
// is already known.
func (r *Resolver) UpdateOrCreate(ctx context.Context, id int64) (*models.EveEntity, error) {
	names, err := r.client.Names(ctx, []int64{id})
	if err != nil {
		if errors.Is(err, esi.ErrNotFound) {
			r.markMissing(id)
			return nil, fmt.Errorf("%w: %d", ErrUnresolvable, id)
		}
		return nil, fmt.Errorf("resolve %d: %w", id, err)
	}
	if err := r.store(names); err != nil {
		return nil, err
	}
	return db.Get[models.EveEntity](r.db, id)
}

// Names returns the names of ids, resolving unknown ones first. Ids that
// cannot be resolved are absent from the result.
func (r *Resolver) Names(ctx context.Context, ids []int64) (map[int64]string, error) {
	if _, err := r.BulkCreate(ctx, ids); err != nil {
		return nil, err
	}
	return r.db.EveEntityNames(normalize(ids))
}

// resolve fetches names chunk by chunk with bounded parallelism.
func (r *Resolver) resolve(ctx context.Context, ids []int64) ([]esi.Name, error) {
	var (
		mu  sync.Mutex
		out = make([]esi.Name, 0, len(ids))
	)
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(r.cfg.Workers)
	for chunk := range slices.Chunk(ids, r.cfg.MaxBatchSize) {
		g.Go(func() error {
			names, err := r.resolveChunk(ctx, chunk)
			if err != nil {
				return err
			}
			mu.Lock()
			out = append(out, names...)
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

// resolveChunk bisects a chunk the remote API rejects until the unknown
// ids are isolated.
func (r *Resolver) resolveChunk(ctx context.Context, ids []int64) ([]esi.Name, error) {
	names, err := r.client.Names(ctx, ids)
	if err == nil {
		metrics.BulkResolved.WithLabelValues("resolved").Add(float64(len(names)))
		return names, nil
	}
	if !errors.Is(err, esi.ErrNotFound) {
		return nil, fmt.Errorf("resolve names: %w", err)
	}
	if len(ids) == 1 {
		r.logger.Debug().Int64("id", ids[0]).Msg("id cannot be resolved")
		r.markMissing(ids[0])
		metrics.BulkResolved.WithLabelValues("unresolvable").Inc()
		return nil, nil
	}

	mid := len(ids) / 2
	left, err := r.resolveChunk(ctx, ids[:mid])
	if err != nil {
		return nil, err
	}
	right, err := r.resolveChunk(ctx, ids[mid:])
	if err != nil {
		return nil, err
	}
	return append(left, right...), nil
}

func (r *Resolver) store(names []esi.Name) error {
	if len(names) == 0 {
		return nil
	}
	entities := make([]models.EveEntity, 0, len(names))
	for _, n := range names {
		e := models.EveEntity{Entity: models.Entity{ID: n.ID, Name: n.Name}}
		if n.Category != "" {
			category := n.Category
			e.Category = &category
		}
		entities = append(entities, e)
	}
	return r.db.UpsertEveEntities(entities)
}

func (r *Resolver) isMissing(id int64) bool {
	if r.cache == nil {
		return false
	}
	_, ok := r.cache.Get(missingKey(id))
	return ok
}

func (r *Resolver) markMissing(id int64) {
	if r.cache == nil {
		return
	}
	if err := r.cache.Set(missingKey(id), []byte{1}, r.cfg.MissingTTL); err != nil {
		r.logger.Debug().Err(err).Int64("id", id).Msg("remember unresolvable id")
	}
}

func missingKey(id int64) string {
	return cache.Key("names", "missing", strconv.FormatInt(id, 10))
}

// normalize drops invalid ids and duplicates.
func normalize(ids []int64) []int64 {
	out := make([]int64, 0, len(ids))
	seen := make(map[int64]bool, len(ids))
	for _, id := range ids {
		if id <= 0 || seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out
}
