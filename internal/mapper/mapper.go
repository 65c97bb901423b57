// Package mapper translates remote payloads into flat column maps ready
// for upsert, resolving foreign keys through a Resolver.
package mapper

import (
	"context"
	"fmt"
	"math"
	"strconv"

	"github.com/goccy/go-json"

	"github.com/asteroid-belt/eveuniverse/internal/schema"
)

// Resolver turns a remote foreign key value into a local reference.
type Resolver interface {
	// ResolveForeignKey returns the local id of target record id, or nil
	// when the reference must be left null. With create set, a missing
	// record may be fetched and created.
	ResolveForeignKey(ctx context.Context, target schema.Kind, id int64, create bool) (*int64, error)
}

// Options controls a mapping pass.
type Options struct {
	// Sections are the sections in effect. Fields gated by any other
	// section are skipped.
	Sections schema.SectionSet
	// OnlySections maps section-gated fields only, for delta loads.
	OnlySections bool
	Resolver     Resolver
}

// Map produces the column map of a record from its payload. The id column
// is not included.
func Map(ctx context.Context, d *schema.Descriptor, payload map[string]any, opts Options) (map[string]any, error) {
	return MapFields(ctx, d, d.Fields, payload, opts)
}

// MapFields maps an explicit field list, as used for inline rows. Section
// gating is evaluated against d.
func MapFields(ctx context.Context, d *schema.Descriptor, fields []schema.Field, payload map[string]any, opts Options) (map[string]any, error) {
	out := make(map[string]any, len(fields))
	for _, f := range fields {
		if f.Section != "" {
			bit, _ := d.SectionBit(f.Section)
			if !opts.Sections.Has(bit) {
				continue
			}
		} else if opts.OnlySections {
			continue
		}

		v, present, err := Lookup(payload, f.Source())
		if err != nil {
			return nil, fmt.Errorf("%s.%s: %w", d.Kind, f.Column, err)
		}
		if !present {
			switch {
			case f.Optional:
			case f.Kind == schema.Text:
				out[f.Column] = ""
			default:
				out[f.Column] = nil
			}
			continue
		}

		value, err := mapValue(ctx, f, v, opts.Resolver)
		if err != nil {
			return nil, fmt.Errorf("%s.%s: %w", d.Kind, f.Column, err)
		}
		out[f.Column] = value
	}
	return out, nil
}

func mapValue(ctx context.Context, f schema.Field, v any, r Resolver) (any, error) {
	switch f.Kind {
	case schema.ForeignKey:
		id, ok := ToInt64(v)
		if !ok {
			return nil, fmt.Errorf("foreign key value %v is not an id", v)
		}
		if r == nil {
			return id, nil
		}
		ref, err := r.ResolveForeignKey(ctx, f.Target, id, !f.DontCreate)
		if err != nil {
			return nil, err
		}
		if ref == nil {
			return nil, nil
		}
		return *ref, nil

	case schema.Text:
		if s, ok := v.(string); ok {
			return s, nil
		}
		return fmt.Sprint(v), nil

	default:
		switch v.(type) {
		case map[string]any, []any:
			return nil, fmt.Errorf("value of type %T is not a scalar", v)
		}
		return v, nil
	}
}

// Lookup resolves a payload path of one or two segments. A missing key at
// either level, or a null, is reported as absent.
func Lookup(payload map[string]any, path []string) (any, bool, error) {
	switch len(path) {
	case 1:
		v, ok := payload[path[0]]
		return v, ok && v != nil, nil
	case 2:
		outer, ok := payload[path[0]].(map[string]any)
		if !ok {
			return nil, false, nil
		}
		v, ok := outer[path[1]]
		return v, ok && v != nil, nil
	default:
		return nil, false, fmt.Errorf("%w: path %v", schema.ErrMappingAmbiguity, path)
	}
}

// ToInt64 converts a decoded JSON number into an id.
func ToInt64(v any) (int64, bool) {
	switch n := v.(type) {
	case int64:
		return n, true
	case int:
		return int64(n), true
	case int32:
		return int64(n), true
	case float64:
		if n != math.Trunc(n) {
			return 0, false
		}
		return int64(n), true
	case json.Number:
		i, err := n.Int64()
		return i, err == nil
	case string:
		i, err := strconv.ParseInt(n, 10, 64)
		return i, err == nil
	default:
		return 0, false
	}
}

// IDs extracts ids from a payload list. Elements are bare ids, or objects
// carrying the id under idField.
func IDs(list any, idField string) ([]int64, error) {
	items, ok := list.([]any)
	if !ok {
		if list == nil {
			return nil, nil
		}
		return nil, fmt.Errorf("expected a list, got %T", list)
	}
	ids := make([]int64, 0, len(items))
	for _, item := range items {
		if obj, ok := item.(map[string]any); ok {
			item = obj[idField]
		}
		id, ok := ToInt64(item)
		if !ok {
			return nil, fmt.Errorf("list element %v is not an id", item)
		}
		ids = append(ids, id)
	}
	return ids, nil
}
