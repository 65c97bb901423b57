package schema

// Section names shared across entity types.
const (
	SectionAsteroidBelts = "asteroid_belts"
	SectionDogmas        = "dogmas"
	SectionGraphics      = "graphics"
	SectionMarketGroups  = "market_groups"
	SectionMoons         = "moons"
	SectionPlanets       = "planets"
	SectionStargates     = "stargates"
	SectionStars         = "stars"
	SectionStations      = "stations"
	SectionTypeMaterials = "type_materials"
)

// AllSections lists every section name known to the catalog.
var AllSections = []string{
	SectionAsteroidBelts,
	SectionDogmas,
	SectionGraphics,
	SectionMarketGroups,
	SectionMoons,
	SectionPlanets,
	SectionStargates,
	SectionStars,
	SectionStations,
	SectionTypeMaterials,
}

// SectionSet is the persisted per-record bitset of loaded sections. Bit i
// corresponds to Descriptor.Sections[i].
type SectionSet uint64

// Has reports whether every bit in other is set.
func (s SectionSet) Has(other SectionSet) bool { return s&other == other }

// Union returns s | other.
func (s SectionSet) Union(other SectionSet) SectionSet { return s | other }

// Without returns s with the bits of other cleared.
func (s SectionSet) Without(other SectionSet) SectionSet { return s &^ other }

// Empty reports whether no bit is set.
func (s SectionSet) Empty() bool { return s == 0 }
