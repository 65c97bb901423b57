package schema

import (
	"fmt"
	"strings"
)

// Kind identifies an entity type. It is the only handle the rest of the
// module uses to address a type; strings are converted once via ParseKind.
type Kind int

const (
	KindUnknown Kind = iota
	KindAncestry
	KindAsteroidBelt
	KindBloodline
	KindCategory
	KindConstellation
	KindDogmaAttribute
	KindDogmaEffect
	KindFaction
	KindGraphic
	KindGroup
	KindMarketGroup
	KindMoon
	KindPlanet
	KindRace
	KindRegion
	KindSolarSystem
	KindStar
	KindStargate
	KindStation
	KindType
	KindUnit
)

var kindNames = map[Kind]string{
	KindAncestry:       "EveAncestry",
	KindAsteroidBelt:   "EveAsteroidBelt",
	KindBloodline:      "EveBloodline",
	KindCategory:       "EveCategory",
	KindConstellation:  "EveConstellation",
	KindDogmaAttribute: "EveDogmaAttribute",
	KindDogmaEffect:    "EveDogmaEffect",
	KindFaction:        "EveFaction",
	KindGraphic:        "EveGraphic",
	KindGroup:          "EveGroup",
	KindMarketGroup:    "EveMarketGroup",
	KindMoon:           "EveMoon",
	KindPlanet:         "EvePlanet",
	KindRace:           "EveRace",
	KindRegion:         "EveRegion",
	KindSolarSystem:    "EveSolarSystem",
	KindStar:           "EveStar",
	KindStargate:       "EveStargate",
	KindStation:        "EveStation",
	KindType:           "EveType",
	KindUnit:           "EveUnit",
}

// String returns the canonical type name, e.g. "EveType".
func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// Kinds returns all known kinds in declaration order.
func Kinds() []Kind {
	kinds := make([]Kind, 0, len(kindNames))
	for k := KindAncestry; k <= KindUnit; k++ {
		kinds = append(kinds, k)
	}
	return kinds
}

// ParseKind converts a type name into a Kind. Both the canonical form
// ("EveSolarSystem") and the short snake form ("solar_system") are accepted.
func ParseKind(name string) (Kind, error) {
	want := normalizeKindName(name)
	for k, canonical := range kindNames {
		if normalizeKindName(canonical) == want {
			return k, nil
		}
	}
	return KindUnknown, fmt.Errorf("unknown entity type %q", name)
}

func normalizeKindName(name string) string {
	n := strings.ToLower(strings.TrimSpace(name))
	n = strings.ReplaceAll(n, "_", "")
	n = strings.ReplaceAll(n, "-", "")
	return strings.TrimPrefix(n, "eve")
}
