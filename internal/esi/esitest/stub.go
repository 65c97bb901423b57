// Package esitest provides an in-memory esi.Client for tests.
package esitest

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"sync"

	"github.com/goccy/go-json"

	"github.com/asteroid-belt/eveuniverse/internal/esi"
)

// Stub serves canned payloads and counts calls. Payloads are round-tripped
// through JSON on the way out, so callers see float64 numbers and may
// mutate what they receive.
type Stub struct {
	mu      sync.Mutex
	objects map[string]map[int64]map[string]any
	lists   map[string][]map[string]any
	ids     map[string][]int64
	names   map[int64]esi.Name
	routes  map[[2]int64][]int64
	prices  []esi.MarketPrice
	calls   map[string]int
}

// New creates an empty stub.
func New() *Stub {
	return &Stub{
		objects: make(map[string]map[int64]map[string]any),
		lists:   make(map[string][]map[string]any),
		ids:     make(map[string][]int64),
		names:   make(map[int64]esi.Name),
		routes:  make(map[[2]int64][]int64),
		calls:   make(map[string]int),
	}
}

// AddObject registers the payload returned by Object(endpoint, id).
func (s *Stub) AddObject(endpoint string, id int64, payload map[string]any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.objects[endpoint] == nil {
		s.objects[endpoint] = make(map[int64]map[string]any)
	}
	s.objects[endpoint][id] = payload
}

// SetList registers the payload returned by ListObjects(endpoint).
func (s *Stub) SetList(endpoint string, items ...map[string]any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lists[endpoint] = items
}

// SetIDs registers the payload returned by ListIDs(endpoint).
func (s *Stub) SetIDs(endpoint string, ids ...int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ids[endpoint] = ids
}

// AddName registers a name known to the names endpoint.
func (s *Stub) AddName(id int64, name, category string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.names[id] = esi.Name{ID: id, Name: name, Category: category}
}

// SetRoute registers a route.
func (s *Stub) SetRoute(origin, destination int64, systems ...int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.routes[[2]int64{origin, destination}] = systems
}

// SetPrices registers the market prices payload.
func (s *Stub) SetPrices(prices ...esi.MarketPrice) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.prices = prices
}

// Calls returns how often Object(endpoint, id) was requested.
func (s *Stub) Calls(endpoint string, id int64) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls[esi.ObjectPath(endpoint, id)]
}

// CallsTo returns how often a path without placeholder was requested, for
// example "/universe/names/" or a list endpoint.
func (s *Stub) CallsTo(path string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls[path]
}

// TotalCalls returns the number of requests of any kind.
func (s *Stub) TotalCalls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, c := range s.calls {
		n += c
	}
	return n
}

// ResetCalls clears the call counters.
func (s *Stub) ResetCalls() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = make(map[string]int)
}

// Object implements esi.Client.
func (s *Stub) Object(ctx context.Context, endpoint string, id int64) (map[string]any, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	path := esi.ObjectPath(endpoint, id)

	s.mu.Lock()
	s.calls[path]++
	payload, ok := s.objects[endpoint][id]
	s.mu.Unlock()

	if !ok {
		return nil, fmt.Errorf("GET %s: %w", path, esi.ErrNotFound)
	}
	var out map[string]any
	return out, roundTrip(payload, &out)
}

// ListObjects implements esi.Client.
func (s *Stub) ListObjects(ctx context.Context, endpoint string) ([]map[string]any, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	s.calls[endpoint]++
	items, ok := s.lists[endpoint]
	s.mu.Unlock()

	if !ok {
		return nil, fmt.Errorf("GET %s: %w", endpoint, esi.ErrNotFound)
	}
	var out []map[string]any
	return out, roundTrip(items, &out)
}

// ListIDs implements esi.Client.
func (s *Stub) ListIDs(ctx context.Context, endpoint string) ([]int64, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls[endpoint]++
	ids, ok := s.ids[endpoint]
	if !ok {
		return nil, fmt.Errorf("GET %s: %w", endpoint, esi.ErrNotFound)
	}
	return append([]int64(nil), ids...), nil
}

// Names implements esi.Client.
func (s *Stub) Names(ctx context.Context, ids []int64) ([]esi.Name, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls["/universe/names/"]++

	out := make([]esi.Name, 0, len(ids))
	for _, id := range ids {
		n, ok := s.names[id]
		if !ok {
			return nil, fmt.Errorf("POST /universe/names/ (id %s): %w", strconv.FormatInt(id, 10), esi.ErrNotFound)
		}
		out = append(out, n)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// Route implements esi.Client.
func (s *Stub) Route(ctx context.Context, origin, destination int64) ([]int64, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	path := "/route/" + strconv.FormatInt(origin, 10) + "/" + strconv.FormatInt(destination, 10) + "/"
	s.calls[path]++
	route, ok := s.routes[[2]int64{origin, destination}]
	if !ok {
		return nil, fmt.Errorf("GET %s: %w", path, esi.ErrNotFound)
	}
	return append([]int64(nil), route...), nil
}

// MarketPrices implements esi.Client.
func (s *Stub) MarketPrices(ctx context.Context) ([]esi.MarketPrice, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls["/markets/prices/"]++
	return append([]esi.MarketPrice(nil), s.prices...), nil
}

func roundTrip(in, out any) error {
	data, err := json.Marshal(in)
	if err != nil {
		return err
	}
	return json.Unmarshal(data, out)
}

var _ esi.Client = (*Stub)(nil)
