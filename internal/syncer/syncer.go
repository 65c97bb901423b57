// Package syncer mirrors remote entities into the local store. It fetches
// payloads, maps them, upserts records with their inline objects, resolves
// foreign keys recursively and loads child collections and optional
// sections either inline or through a task queue.
package syncer

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/asteroid-belt/eveuniverse/internal/db"
	"github.com/asteroid-belt/eveuniverse/internal/esi"
	"github.com/asteroid-belt/eveuniverse/internal/log"
	"github.com/asteroid-belt/eveuniverse/internal/mapper"
	"github.com/asteroid-belt/eveuniverse/internal/metrics"
	"github.com/asteroid-belt/eveuniverse/internal/schema"
	"github.com/asteroid-belt/eveuniverse/internal/sde"
)

var (
	// ErrNotFound means the remote system has no record with the id.
	ErrNotFound = errors.New("entity not found")

	// ErrUnknownKind means no descriptor is registered for the kind.
	ErrUnknownKind = errors.New("unknown entity kind")

	// ErrNotSyncable means the kind is an enumeration with no remote source.
	ErrNotSyncable = errors.New("entity kind cannot be synced")
)

// SyncError carries the record a failed sync was about. It is logged once
// where it is created.
type SyncError struct {
	Kind schema.Kind
	ID   int64
	Err  error
}

func (e *SyncError) Error() string {
	return fmt.Sprintf("sync %s %d: %v", e.Kind, e.ID, e.Err)
}

func (e *SyncError) Unwrap() error { return e.Err }

// Request selects what is loaded beyond the record itself.
type Request struct {
	// IncludeChildren loads child collections, and sections that gate them.
	IncludeChildren bool `json:"include_children"`
	// WaitForChildren loads children inline instead of enqueueing them.
	WaitForChildren bool `json:"wait_for_children"`
	// Sections are requested in addition to the configured defaults.
	Sections []string `json:"sections,omitempty"`
	// Force reloads sections already marked as loaded.
	Force bool `json:"force,omitempty"`
}

// Result describes a finished sync.
type Result struct {
	Kind    schema.Kind
	ID      int64
	Created bool
	// Sections lists every section recorded as loaded afterwards.
	Sections []string
}

// Enqueuer hands a load off to background workers.
type Enqueuer interface {
	Enqueue(ctx context.Context, kind schema.Kind, id int64, req Request) error
}

// MaterialSource supplies reprocessing materials per type.
type MaterialSource interface {
	TypeMaterials(ctx context.Context, typeID int64) ([]sde.TypeMaterial, error)
}

// Config is passed to New.
type Config struct {
	Registry *schema.Registry
	// DefaultSections are loaded on every sync unless already loaded.
	DefaultSections []string
	Materials       MaterialSource
	Metrics         metrics.Recorder
}

// Service is the entity synchronizer. It is safe for concurrent use.
type Service struct {
	registry  *schema.Registry
	db        *db.DB
	client    esi.Client
	defaults  []string
	materials MaterialSource
	metrics   metrics.Recorder
	logger    zerolog.Logger
	queue     Enqueuer
}

// New creates a synchronizer.
func New(cfg Config, database *db.DB, client esi.Client) (*Service, error) {
	registry := cfg.Registry
	if registry == nil {
		var err error
		if registry, err = schema.Default(); err != nil {
			return nil, err
		}
	}
	rec := cfg.Metrics
	if rec == nil {
		rec = metrics.Nop{}
	}
	return &Service{
		registry:  registry,
		db:        database,
		client:    client,
		defaults:  append([]string(nil), cfg.DefaultSections...),
		materials: cfg.Materials,
		metrics:   rec,
		logger:    log.Logger().With().Str("component", "syncer").Logger(),
	}, nil
}

// UseQueue enables asynchronous child loading. Without a queue children
// are always loaded inline.
func (s *Service) UseQueue(q Enqueuer) { s.queue = q }

// Registry returns the descriptors the service syncs.
func (s *Service) Registry() *schema.Registry { return s.registry }

// GetOrCreate returns the local record, creating it from the remote side
// when missing. An existing record is only touched to load sections not
// yet recorded as loaded.
func (s *Service) GetOrCreate(ctx context.Context, kind schema.Kind, id int64, req Request) (*Result, error) {
	return s.getOrCreate(ctx, newChain(), kind, id, req)
}

// UpdateOrCreate fetches the record and applies it whether or not it
// already exists locally.
func (s *Service) UpdateOrCreate(ctx context.Context, kind schema.Kind, id int64, req Request) (*Result, error) {
	return s.updateOrCreate(ctx, newChain(), kind, id, req)
}

// LoadAll syncs every id of the kind's list endpoint, restricted to ids
// when any are given. Each record is loaded inline when
// req.WaitForChildren is set or no queue is in use; otherwise one task per
// id is enqueued. List-only kinds are always stored inline from a single
// list fetch. It returns the number of records dispatched.
func (s *Service) LoadAll(ctx context.Context, kind schema.Kind, ids []int64, req Request) (int, error) {
	d, err := s.descriptor(kind)
	if err != nil {
		return 0, err
	}
	if d.ListEndpoint == "" {
		return 0, fmt.Errorf("%w: %s has no id list", ErrNotSyncable, kind)
	}
	if d.IsListOnly() {
		return s.loadList(ctx, d, ids, req)
	}
	remote, err := s.client.ListIDs(ctx, d.ListEndpoint)
	if err != nil {
		return 0, fmt.Errorf("list %s: %w", kind, err)
	}
	wanted := idFilter(ids)
	kept := remote[:0]
	for _, id := range remote {
		if wanted(id) {
			kept = append(kept, id)
		}
	}
	remote = kept
	for _, id := range remote {
		if err := s.dispatch(ctx, newChain(), kind, id, req); err != nil {
			return 0, err
		}
	}
	return len(remote), nil
}

// loadList upserts every item of a list-only kind's list endpoint.
func (s *Service) loadList(ctx context.Context, d *schema.Descriptor, ids []int64, req Request) (int, error) {
	items, err := s.client.ListObjects(ctx, d.ListEndpoint)
	if err != nil {
		return 0, fmt.Errorf("list %s: %w", d.Kind, err)
	}
	wanted := idFilter(ids)
	n := 0
	for _, item := range items {
		id, ok := mapper.ToInt64(item[d.RemoteIDField()])
		if !ok {
			return n, fmt.Errorf("%s list item has no %s", d.Kind, d.RemoteIDField())
		}
		if !wanted(id) {
			continue
		}
		if _, err := s.updateOrCreateFrom(ctx, newChain(), d.Kind, id, item, req); err != nil {
			return n, err
		}
		n++
	}
	return n, nil
}

// idFilter reports whether an id is among ids. An empty ids admits all.
func idFilter(ids []int64) func(int64) bool {
	if len(ids) == 0 {
		return func(int64) bool { return true }
	}
	wanted := make(map[int64]bool, len(ids))
	for _, id := range ids {
		wanted[id] = true
	}
	return func(id int64) bool { return wanted[id] }
}

// LoadTypes loads categories and groups with their children, and types on
// their own. The request's sections apply to every record.
func (s *Service) LoadTypes(ctx context.Context, categoryIDs, groupIDs, typeIDs []int64, req Request) error {
	withChildren := req
	withChildren.IncludeChildren = true
	batches := []struct {
		kind schema.Kind
		ids  []int64
		req  Request
	}{
		{schema.KindCategory, categoryIDs, withChildren},
		{schema.KindGroup, groupIDs, withChildren},
		{schema.KindType, typeIDs, req},
	}
	for _, b := range batches {
		for _, id := range b.ids {
			if err := s.dispatch(ctx, newChain(), b.kind, id, b.req); err != nil {
				return err
			}
		}
	}
	return nil
}

func (s *Service) descriptor(kind schema.Kind) (*schema.Descriptor, error) {
	d, ok := s.registry.Lookup(kind)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownKind, kind)
	}
	return d, nil
}

// fail wraps err for the record and logs it, unless a nested sync already
// did.
func (s *Service) fail(kind schema.Kind, id int64, err error) error {
	var nested *SyncError
	if !errors.As(err, &nested) {
		s.logger.Warn().Str("kind", kind.String()).Int64("id", id).Err(err).Msg("sync failed")
	}
	return &SyncError{Kind: kind, ID: id, Err: err}
}

func (s *Service) observe(kind schema.Kind, mode, outcome string, start time.Time) {
	s.metrics.ObserveSync(kind.String(), mode, outcome, time.Since(start))
}
