package syncer

import (
	"context"
	"errors"
	"fmt"

	"github.com/asteroid-belt/eveuniverse/internal/db"
	"github.com/asteroid-belt/eveuniverse/internal/esi"
	"github.com/asteroid-belt/eveuniverse/internal/models"
	"github.com/asteroid-belt/eveuniverse/internal/schema"
)

// Distance units.
const (
	MetersPerLightYear = 9_460_730_472_580_800.0
	MetersPerAU        = 149_597_870_700.0
)

// LightYears converts meters to light years.
func LightYears(meters float64) float64 { return meters / MetersPerLightYear }

// AU converts meters to astronomical units.
func AU(meters float64) float64 { return meters / MetersPerAU }

// Route returns the solar system ids of the shortest route, both ends
// included. It returns nil when no route exists, for example into
// wormhole space.
func (s *Service) Route(ctx context.Context, origin, destination int64) ([]int64, error) {
	route, err := s.client.Route(ctx, origin, destination)
	if err != nil {
		if errors.Is(err, esi.ErrNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("route %d to %d: %w", origin, destination, err)
	}
	return route, nil
}

// Jumps returns the number of jumps between two systems. ok is false when
// no route exists.
func (s *Service) Jumps(ctx context.Context, origin, destination int64) (int, bool, error) {
	route, err := s.Route(ctx, origin, destination)
	if err != nil || len(route) == 0 {
		return 0, false, err
	}
	return len(route) - 1, true, nil
}

// Distance returns the distance in meters between two systems, syncing
// them when missing. ok is false when either system is in wormhole space.
func (s *Service) Distance(ctx context.Context, a, b int64) (float64, bool, error) {
	systems := make([]*models.EveSolarSystem, 0, 2)
	for _, id := range []int64{a, b} {
		if _, err := s.GetOrCreate(ctx, schema.KindSolarSystem, id, Request{}); err != nil {
			return 0, false, err
		}
		sys, err := db.Get[models.EveSolarSystem](s.db, id)
		if err != nil {
			return 0, false, err
		}
		if sys == nil {
			return 0, false, fmt.Errorf("%w: %s %d", ErrNotFound, schema.KindSolarSystem, id)
		}
		systems = append(systems, sys)
	}
	d, ok := systems[0].DistanceTo(systems[1])
	return d, ok, nil
}
