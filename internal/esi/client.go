// Package esi talks to the EVE Swagger Interface, the remote API the
// universe is mirrored from.
package esi

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ErrNotFound is returned when the remote API answers 404.
var ErrNotFound = errors.New("esi: not found")

// StatusError is returned for any other non-success status.
type StatusError struct {
	Method string
	Path   string
	Code   int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("esi: %s %s: status %d", e.Method, e.Path, e.Code)
}

// Name is one entry of the bulk names endpoint.
type Name struct {
	ID       int64  `json:"id"`
	Name     string `json:"name"`
	Category string `json:"category"`
}

// MarketPrice is one entry of the market prices endpoint.
type MarketPrice struct {
	TypeID        int64    `json:"type_id"`
	AdjustedPrice *float64 `json:"adjusted_price"`
	AveragePrice  *float64 `json:"average_price"`
}

// Client is the subset of the remote API the mirror needs. Payloads are
// returned as decoded JSON objects; numbers are float64.
type Client interface {
	// Object fetches one record. endpoint contains an {id} placeholder.
	Object(ctx context.Context, endpoint string, id int64) (map[string]any, error)
	// ListObjects fetches an endpoint returning an array of objects.
	ListObjects(ctx context.Context, endpoint string) ([]map[string]any, error)
	// ListIDs fetches an endpoint returning an array of ids.
	ListIDs(ctx context.Context, endpoint string) ([]int64, error)
	// Names resolves ids in one request. Any unknown id fails the whole
	// request with ErrNotFound.
	Names(ctx context.Context, ids []int64) ([]Name, error)
	// Route returns the system ids of the shortest route, both ends
	// included.
	Route(ctx context.Context, origin, destination int64) ([]int64, error)
	MarketPrices(ctx context.Context) ([]MarketPrice, error)
}

// ObjectPath expands the {id} placeholder of an endpoint.
func ObjectPath(endpoint string, id int64) string {
	return strings.ReplaceAll(endpoint, "{id}", strconv.FormatInt(id, 10))
}
