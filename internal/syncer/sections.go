package syncer

import (
	"github.com/asteroid-belt/eveuniverse/internal/schema"
)

// effectiveSections returns the sections a call must load: configured
// defaults plus requested ones, minus those already loaded unless forced.
// Sections gating child collections need IncludeChildren.
func (s *Service) effectiveSections(d *schema.Descriptor, req Request, loaded schema.SectionSet) schema.SectionSet {
	want := d.SectionSet(s.defaults...).Union(d.SectionSet(req.Sections...))
	if !req.IncludeChildren {
		want = want.Without(d.ChildSections())
	}
	if req.Force {
		return want
	}
	return want.Without(loaded)
}

func (s *Service) loadedSections(d *schema.Descriptor, id int64) (schema.SectionSet, error) {
	if !d.HasSections() {
		return 0, nil
	}
	return s.db.LoadedSections(d.Table, id)
}

// isGatedOut reports whether something gated by section is outside set.
func isGatedOut(d *schema.Descriptor, section string, set schema.SectionSet) bool {
	if section == "" {
		return false
	}
	bit, _ := d.SectionBit(section)
	return !set.Has(bit)
}
