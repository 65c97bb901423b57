package syncer

import (
	"context"

	"github.com/asteroid-belt/eveuniverse/internal/schema"
)

type key struct {
	kind schema.Kind
	id   int64
}

// chain is the state of one top-level call. Records being synced further
// up the call stack are in flight; a reference to one of them is deferred
// (left null) instead of recursing again.
type chain struct {
	inflight map[key]bool
	// pending is the record whose row is about to be written in the
	// current frame's transaction. Its inline rows may reference it.
	pending *key
}

func newChain() *chain {
	return &chain{inflight: make(map[key]bool)}
}

// enter marks k in flight and returns the function restoring the caller's
// frame.
func (c *chain) enter(k key) func() {
	c.inflight[k] = true
	saved := c.pending
	c.pending = nil
	return func() {
		delete(c.inflight, k)
		c.pending = saved
	}
}

// resolver resolves foreign keys for one frame of a chain.
type resolver struct {
	s  *Service
	ch *chain
}

// ResolveForeignKey implements mapper.Resolver.
func (r resolver) ResolveForeignKey(ctx context.Context, target schema.Kind, id int64, create bool) (*int64, error) {
	d, err := r.s.descriptor(target)
	if err != nil {
		return nil, err
	}
	k := key{kind: target, id: id}

	if r.ch.pending != nil && *r.ch.pending == k {
		return &id, nil
	}
	exists, err := r.s.db.EntityExists(d.Table, id)
	if err != nil {
		return nil, err
	}
	if exists {
		return &id, nil
	}
	if r.ch.inflight[k] {
		r.s.logger.Debug().Str("kind", target.String()).Int64("id", id).Msg("reference to record in flight deferred")
		return nil, nil
	}
	if !create || d.Enumeration {
		return nil, nil
	}

	if _, err := r.s.getOrCreate(ctx, r.ch, target, id, Request{}); err != nil {
		return nil, err
	}
	return &id, nil
}
