// Package schema holds the declarative description of every entity type:
// where it lives remotely, how its payload maps onto local columns, and which
// relations and optional sections hang off it.
package schema

import (
	"errors"
	"fmt"
)

var (
	// ErrConfiguration reports a descriptor missing a mandatory attribute.
	ErrConfiguration = errors.New("schema configuration error")

	// ErrMappingAmbiguity reports a remote path nested deeper than one level.
	ErrMappingAmbiguity = errors.New("schema mapping ambiguity")
)

// FieldKind selects how a remote value is translated.
type FieldKind int

const (
	// Scalar values pass through unchanged, null included.
	Scalar FieldKind = iota
	// Text values coerce null to the empty string.
	Text
	// ForeignKey values are resolved against the target kind.
	ForeignKey
)

// Field maps one local column onto a remote payload value.
type Field struct {
	Column string
	// Remote is the payload path. Empty means the column name; two
	// segments address payload[outer][inner].
	Remote []string
	Kind   FieldKind
	Target Kind
	// Optional fields are left out of the upsert when the remote value is
	// absent so the column default wins.
	Optional bool
	// DontCreate foreign keys are looked up locally and never fetched.
	DontCreate bool
	// Section gates the field behind an optional section.
	Section string
}

// Source returns the remote path for the field.
func (f Field) Source() []string {
	if len(f.Remote) == 0 {
		return []string{f.Column}
	}
	return f.Remote
}

// Child declares a collection of independently fetchable records whose ids
// are listed in the parent payload.
type Child struct {
	Key    string
	Target Kind
	// IDField is set when the payload list holds objects instead of bare ids.
	IDField string
	Section string
}

// InlineShape selects how an inline collection is stored.
type InlineShape int

const (
	// InlineRows are objects keyed by (parent, secondary key).
	InlineRows InlineShape = iota
	// InlineNames are bare strings linked to the parent through a join table.
	InlineNames
)

// Inline declares a collection embedded in the parent payload with no
// remote identity of its own.
type Inline struct {
	Key          string
	Table        string
	Shape        InlineShape
	ParentColumn string
	// KeyField is the secondary part of the functional key. When it is a
	// foreign key the referenced record is get-or-created.
	KeyField Field
	Fields   []Field
	Section  string

	// JoinTable and JoinColumn are used by InlineNames.
	JoinTable  string
	JoinColumn string
}

// Dataset names an auxiliary flat-file source feeding a section.
type Dataset int

const (
	DatasetNone Dataset = iota
	DatasetTypeMaterials
)

// Section is a named, independently loadable group of data.
type Section struct {
	Name    string
	Dataset Dataset
}

// Enrichment describes extra remote lookups needed to complete a payload.
type Enrichment int

const (
	EnrichNone Enrichment = iota
	// EnrichParentPlanet finds the owning planet by scanning the solar
	// system payload's planets[].<PlanetListKey> for the record id.
	EnrichParentPlanet
	// EnrichPlanetChildren copies moons and asteroid belts from the
	// solar system payload's entry for this planet.
	EnrichPlanetChildren
)

// Descriptor is the static metadata for one entity type.
type Descriptor struct {
	Kind           Kind
	Table          string
	IDField        string
	ListEndpoint   string
	ObjectEndpoint string
	Fields         []Field
	ChildRelations []Child
	Inlines        []Inline
	Sections       []Section
	Enrich         Enrichment
	PlanetListKey  string
	// Enumeration types have no remote fetch capability.
	Enumeration bool
}

// RemoteIDField returns the payload key holding the record id.
func (d *Descriptor) RemoteIDField() string { return d.IDField }

// IsListOnly reports whether a single record must be found by scanning the
// list endpoint.
func (d *Descriptor) IsListOnly() bool {
	if d.ListEndpoint == "" {
		return false
	}
	return d.ObjectEndpoint == "" || d.ObjectEndpoint == d.ListEndpoint
}

// ForeignKeys returns the foreign key fields of the record itself.
func (d *Descriptor) ForeignKeys() []Field {
	var fks []Field
	for _, f := range d.Fields {
		if f.Kind == ForeignKey {
			fks = append(fks, f)
		}
	}
	return fks
}

// Children returns the declared child collections.
func (d *Descriptor) Children() []Child { return d.ChildRelations }

// InlineObjects returns the declared inline collections.
func (d *Descriptor) InlineObjects() []Inline { return d.Inlines }

// OptionalSections returns the section names in bit order.
func (d *Descriptor) OptionalSections() []string {
	names := make([]string, len(d.Sections))
	for i, s := range d.Sections {
		names[i] = s.Name
	}
	return names
}

// HasSections reports whether the record carries a section bitset.
func (d *Descriptor) HasSections() bool { return len(d.Sections) > 0 }

// SectionBit returns the bit for a section name.
func (d *Descriptor) SectionBit(name string) (SectionSet, bool) {
	for i, s := range d.Sections {
		if s.Name == name {
			return SectionSet(1) << uint(i), true
		}
	}
	return 0, false
}

// SectionSet converts names into a bitset, ignoring names unknown to the type.
func (d *Descriptor) SectionSet(names ...string) SectionSet {
	var set SectionSet
	for _, n := range names {
		if bit, ok := d.SectionBit(n); ok {
			set |= bit
		}
	}
	return set
}

// SectionNames converts a bitset back into names.
func (d *Descriptor) SectionNames(set SectionSet) []string {
	var names []string
	for i, s := range d.Sections {
		if set.Has(SectionSet(1) << uint(i)) {
			names = append(names, s.Name)
		}
	}
	return names
}

// ChildSections returns the bits of sections that gate child collections.
func (d *Descriptor) ChildSections() SectionSet {
	var set SectionSet
	for _, c := range d.ChildRelations {
		if c.Section != "" {
			set |= d.SectionSet(c.Section)
		}
	}
	return set
}

// Validate checks the descriptor contract.
func (d *Descriptor) Validate() error {
	if d.Table == "" {
		return fmt.Errorf("%w: %s has no table", ErrConfiguration, d.Kind)
	}
	if d.IDField == "" {
		return fmt.Errorf("%w: %s has no remote id field", ErrConfiguration, d.Kind)
	}
	if !d.Enumeration && d.ListEndpoint == "" && d.ObjectEndpoint == "" {
		return fmt.Errorf("%w: %s defines no endpoint", ErrConfiguration, d.Kind)
	}
	if err := d.validateFields(d.Fields); err != nil {
		return err
	}
	for _, c := range d.ChildRelations {
		if c.Target == KindUnknown {
			return fmt.Errorf("%w: %s child %q has no target", ErrConfiguration, d.Kind, c.Key)
		}
		if err := d.checkSection(c.Section); err != nil {
			return err
		}
	}
	for _, in := range d.Inlines {
		if in.Table == "" || in.ParentColumn == "" {
			return fmt.Errorf("%w: %s inline %q is incomplete", ErrConfiguration, d.Kind, in.Key)
		}
		if in.Shape == InlineNames && (in.JoinTable == "" || in.JoinColumn == "") {
			return fmt.Errorf("%w: %s inline %q has no join table", ErrConfiguration, d.Kind, in.Key)
		}
		if err := d.checkSection(in.Section); err != nil {
			return err
		}
		if in.Shape == InlineRows {
			if err := d.validateFields(append([]Field{in.KeyField}, in.Fields...)); err != nil {
				return err
			}
		}
	}
	return nil
}

func (d *Descriptor) validateFields(fields []Field) error {
	for _, f := range fields {
		if f.Column == "" {
			return fmt.Errorf("%w: %s has a field without column", ErrConfiguration, d.Kind)
		}
		if len(f.Remote) > 2 {
			return fmt.Errorf("%w: %s.%s maps to %v", ErrMappingAmbiguity, d.Kind, f.Column, f.Remote)
		}
		if f.Kind == ForeignKey && f.Target == KindUnknown {
			return fmt.Errorf("%w: %s.%s has no target", ErrConfiguration, d.Kind, f.Column)
		}
		if err := d.checkSection(f.Section); err != nil {
			return err
		}
	}
	return nil
}

func (d *Descriptor) checkSection(name string) error {
	if name == "" {
		return nil
	}
	if _, ok := d.SectionBit(name); !ok {
		return fmt.Errorf("%w: %s references undeclared section %q", ErrConfiguration, d.Kind, name)
	}
	return nil
}
