package schema

import (
	"fmt"
	"sync"
)

// Registry maps kinds to their descriptors. It is immutable once built.
type Registry struct {
	descriptors map[Kind]*Descriptor
	order       []Kind
}

// NewRegistry validates the descriptors and builds a registry.
func NewRegistry(descriptors ...Descriptor) (*Registry, error) {
	r := &Registry{descriptors: make(map[Kind]*Descriptor, len(descriptors))}
	for i := range descriptors {
		d := descriptors[i]
		if d.Kind == KindUnknown {
			return nil, fmt.Errorf("%w: descriptor for table %q has no kind", ErrConfiguration, d.Table)
		}
		if _, dup := r.descriptors[d.Kind]; dup {
			return nil, fmt.Errorf("%w: %s registered twice", ErrConfiguration, d.Kind)
		}
		if err := d.Validate(); err != nil {
			return nil, err
		}
		r.descriptors[d.Kind] = &d
		r.order = append(r.order, d.Kind)
	}
	for _, d := range r.descriptors {
		if err := r.checkTargets(d); err != nil {
			return nil, err
		}
	}
	return r, nil
}

func (r *Registry) checkTargets(d *Descriptor) error {
	targets := make([]Kind, 0)
	for _, f := range d.ForeignKeys() {
		targets = append(targets, f.Target)
	}
	for _, c := range d.ChildRelations {
		targets = append(targets, c.Target)
	}
	for _, in := range d.Inlines {
		if in.KeyField.Kind == ForeignKey {
			targets = append(targets, in.KeyField.Target)
		}
		for _, f := range in.Fields {
			if f.Kind == ForeignKey {
				targets = append(targets, f.Target)
			}
		}
	}
	for _, t := range targets {
		if _, ok := r.descriptors[t]; !ok {
			return fmt.Errorf("%w: %s references unregistered %s", ErrConfiguration, d.Kind, t)
		}
	}
	return nil
}

// Lookup returns the descriptor for a kind.
func (r *Registry) Lookup(kind Kind) (*Descriptor, bool) {
	d, ok := r.descriptors[kind]
	return d, ok
}

// Kinds returns registered kinds in registration order.
func (r *Registry) Kinds() []Kind {
	out := make([]Kind, len(r.order))
	copy(out, r.order)
	return out
}

var (
	defaultOnce     sync.Once
	defaultRegistry *Registry
	defaultErr      error
)

// Default returns the registry for the built-in catalog. It is built and
// validated on first use.
func Default() (*Registry, error) {
	defaultOnce.Do(func() {
		defaultRegistry, defaultErr = NewRegistry(Catalog()...)
	})
	return defaultRegistry, defaultErr
}

// Tables returns the table of every registered kind in registration order.
func (r *Registry) Tables() []string {
	out := make([]string, 0, len(r.order))
	for _, k := range r.order {
		out = append(out, r.descriptors[k].Table)
	}
	return out
}
