package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/asteroid-belt/eveuniverse/internal/bulk"
	"github.com/asteroid-belt/eveuniverse/internal/cache"
	"github.com/asteroid-belt/eveuniverse/internal/config"
	"github.com/asteroid-belt/eveuniverse/internal/db"
	"github.com/asteroid-belt/eveuniverse/internal/esi"
	"github.com/asteroid-belt/eveuniverse/internal/market"
	"github.com/asteroid-belt/eveuniverse/internal/metrics"
	"github.com/asteroid-belt/eveuniverse/internal/sde"
	"github.com/asteroid-belt/eveuniverse/internal/syncer"
	"github.com/asteroid-belt/eveuniverse/internal/tasks"
)

// App holds the services the commands work with.
type App struct {
	Config *config.Config
	DB     *db.DB
	Cache  cache.Cache
	Client esi.Client
	SDE    *sde.Source
	Syncer *syncer.Service
	// Queue is nil when children are always loaded inline.
	Queue  *tasks.Queue
	Bulk   *bulk.Resolver
	Market *market.Refresher
}

// NewApp opens the database and cache and wires the services. The task
// queue is started and runs until ctx is cancelled or Close is called.
func NewApp(ctx context.Context, cfg *config.Config) (*App, error) {
	paths := config.GetPaths(cfg)

	database, err := db.New(db.DefaultConfig(paths.Database))
	if err != nil {
		return nil, fmt.Errorf("initialize database: %w", err)
	}

	c, err := cache.New(cfg.Cache.Backend, paths.Cache)
	if err != nil {
		_ = database.Close()
		return nil, fmt.Errorf("open cache: %w", err)
	}

	client := esi.NewHTTPClient(esi.Config{
		BaseURL:    cfg.ESI.BaseURL,
		Datasource: cfg.ESI.Datasource,
		RateLimit:  cfg.ESI.RateLimit,
		Timeout:    cfg.ESI.Timeout,
		UserAgent:  cfg.ESI.UserAgent,
		CacheTTL:   cfg.ESI.CacheTTL,
		Breaker: esi.BreakerConfig{
			MaxRequests:      cfg.ESI.Breaker.MaxRequests,
			Interval:         cfg.ESI.Breaker.Interval,
			Timeout:          cfg.ESI.Breaker.Timeout,
			FailureThreshold: cfg.ESI.Breaker.FailureThreshold,
		},
	}, c)

	app, err := newApp(ctx, cfg, database, client, c, true)
	if err != nil {
		_ = c.Close()
		_ = database.Close()
		return nil, err
	}
	return app, nil
}

func newApp(ctx context.Context, cfg *config.Config, database *db.DB, client esi.Client, c cache.Cache, withQueue bool) (*App, error) {
	materials := sde.New(sde.Config{
		TypeMaterialsURL: cfg.SDE.TypeMaterialsURL,
		UnitsURL:         cfg.SDE.UnitsURL,
		CacheTTL:         cfg.SDE.CacheTTL,
		Timeout:          cfg.SDE.Timeout,
	}, c)

	svc, err := syncer.New(syncer.Config{
		DefaultSections: cfg.DefaultSections(),
		Materials:       materials,
		Metrics:         metrics.Prometheus{},
	}, database, client)
	if err != nil {
		return nil, fmt.Errorf("create synchronizer: %w", err)
	}

	app := &App{
		Config: cfg,
		DB:     database,
		Cache:  c,
		Client: client,
		SDE:    materials,
		Syncer: svc,
		Bulk: bulk.New(bulk.Config{
			MaxBatchSize: cfg.Bulk.MaxBatchSize,
			Workers:      cfg.Bulk.Workers,
			MissingTTL:   cfg.Bulk.MissingTTL,
		}, database, client, c),
		Market: market.New(database, client, cfg.Market.StaleAfter),
	}

	if withQueue {
		q, err := tasks.New(tasks.Config{
			Workers: cfg.Tasks.Workers,
			Timeout: cfg.Tasks.Timeout,
			Buffer:  cfg.Tasks.Buffer,
		}, svc, database)
		if err != nil {
			return nil, fmt.Errorf("create task queue: %w", err)
		}
		if err := q.Start(ctx); err != nil {
			_ = q.Close()
			return nil, fmt.Errorf("start task queue: %w", err)
		}
		svc.UseQueue(q)
		app.Queue = q
	}
	return app, nil
}

// Close stops the queue and closes the cache and database.
func (a *App) Close() error {
	var errs []error
	if a.Queue != nil {
		errs = append(errs, a.Queue.Close())
	}
	if a.Cache != nil {
		errs = append(errs, a.Cache.Close())
	}
	if a.DB != nil {
		errs = append(errs, a.DB.Close())
	}
	return errors.Join(errs...)
}
