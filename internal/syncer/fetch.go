package syncer

import (
	"context"
	"errors"
	"fmt"

	"github.com/asteroid-belt/eveuniverse/internal/esi"
	"github.com/asteroid-belt/eveuniverse/internal/mapper"
	"github.com/asteroid-belt/eveuniverse/internal/schema"
)

// fetch returns the remote payload of a record, completed by the kind's
// enrichment. Remote 404s and ids missing from list-only endpoints become
// ErrNotFound.
func (s *Service) fetch(ctx context.Context, d *schema.Descriptor, id int64) (map[string]any, error) {
	var (
		payload map[string]any
		err     error
	)
	if d.IsListOnly() {
		payload, err = s.fetchFromList(ctx, d, id)
	} else {
		payload, err = s.client.Object(ctx, d.ObjectEndpoint, id)
	}
	if err != nil {
		if errors.Is(err, esi.ErrNotFound) {
			return nil, fmt.Errorf("%w: %s %d", ErrNotFound, d.Kind, id)
		}
		return nil, err
	}

	switch d.Enrich {
	case schema.EnrichParentPlanet:
		err = s.enrichParentPlanet(ctx, d, id, payload)
	case schema.EnrichPlanetChildren:
		err = s.enrichPlanetChildren(ctx, id, payload)
	}
	if err != nil {
		return nil, fmt.Errorf("enrich %s %d: %w", d.Kind, id, err)
	}
	return payload, nil
}

func (s *Service) fetchFromList(ctx context.Context, d *schema.Descriptor, id int64) (map[string]any, error) {
	items, err := s.client.ListObjects(ctx, d.ListEndpoint)
	if err != nil {
		return nil, err
	}
	for _, item := range items {
		if v, ok := mapper.ToInt64(item[d.RemoteIDField()]); ok && v == id {
			return item, nil
		}
	}
	return nil, esi.ErrNotFound
}

// systemPlanets returns the planets entries of the solar system named in
// payload.
func (s *Service) systemPlanets(ctx context.Context, payload map[string]any) ([]map[string]any, error) {
	systemID, ok := mapper.ToInt64(payload["system_id"])
	if !ok {
		return nil, fmt.Errorf("payload has no system_id")
	}
	sd, err := s.descriptor(schema.KindSolarSystem)
	if err != nil {
		return nil, err
	}
	system, err := s.client.Object(ctx, sd.ObjectEndpoint, systemID)
	if err != nil {
		return nil, err
	}
	raw, _ := system["planets"].([]any)
	planets := make([]map[string]any, 0, len(raw))
	for _, p := range raw {
		if m, ok := p.(map[string]any); ok {
			planets = append(planets, m)
		}
	}
	return planets, nil
}

// enrichParentPlanet sets planet_id on a moon or asteroid belt payload,
// which the remote API only exposes through the solar system.
func (s *Service) enrichParentPlanet(ctx context.Context, d *schema.Descriptor, id int64, payload map[string]any) error {
	planets, err := s.systemPlanets(ctx, payload)
	if err != nil {
		return err
	}
	for _, planet := range planets {
		ids, err := mapper.IDs(planet[d.PlanetListKey], "")
		if err != nil {
			return err
		}
		for _, childID := range ids {
			if childID == id {
				payload["planet_id"] = planet["planet_id"]
				return nil
			}
		}
	}
	return fmt.Errorf("no planet lists %s %d", d.Kind, id)
}

// enrichPlanetChildren copies the moon and asteroid belt ids of a planet
// from the solar system payload.
func (s *Service) enrichPlanetChildren(ctx context.Context, id int64, payload map[string]any) error {
	planets, err := s.systemPlanets(ctx, payload)
	if err != nil {
		return err
	}
	for _, planet := range planets {
		if pid, ok := mapper.ToInt64(planet["planet_id"]); ok && pid == id {
			for _, k := range []string{"moons", "asteroid_belts"} {
				if v, ok := planet[k]; ok {
					payload[k] = v
				}
			}
			return nil
		}
	}
	return nil
}
