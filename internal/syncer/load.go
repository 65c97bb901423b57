package syncer

import (
	"context"
	"fmt"
	"time"

	"github.com/asteroid-belt/eveuniverse/internal/db"
	"github.com/asteroid-belt/eveuniverse/internal/mapper"
	"github.com/asteroid-belt/eveuniverse/internal/schema"
)

func (s *Service) getOrCreate(ctx context.Context, ch *chain, kind schema.Kind, id int64, req Request) (*Result, error) {
	d, err := s.descriptor(kind)
	if err != nil {
		return nil, err
	}
	exists, err := s.db.EntityExists(d.Table, id)
	if err != nil {
		return nil, err
	}
	if !exists {
		if d.Enumeration {
			return nil, fmt.Errorf("%w: %s %d is not present", ErrNotSyncable, kind, id)
		}
		return s.updateOrCreate(ctx, ch, kind, id, req)
	}

	start := time.Now()
	loaded, err := s.loadedSections(d, id)
	if err != nil {
		return nil, err
	}
	effective := s.effectiveSections(d, req, loaded)
	if effective.Empty() {
		s.observe(kind, "get", "skipped", start)
		return &Result{Kind: kind, ID: id, Sections: d.SectionNames(loaded)}, nil
	}

	defer ch.enter(key{kind: kind, id: id})()
	if _, err := s.load(ctx, ch, d, id, nil, req, effective, true); err != nil {
		s.observe(kind, "get", "error", start)
		return nil, s.fail(kind, id, err)
	}
	s.observe(kind, "get", "updated", start)
	return &Result{Kind: kind, ID: id, Sections: d.SectionNames(loaded.Union(effective))}, nil
}

func (s *Service) updateOrCreate(ctx context.Context, ch *chain, kind schema.Kind, id int64, req Request) (*Result, error) {
	return s.updateOrCreateFrom(ctx, ch, kind, id, nil, req)
}

// updateOrCreateFrom is updateOrCreate on a payload already at hand. A nil
// payload is fetched.
func (s *Service) updateOrCreateFrom(ctx context.Context, ch *chain, kind schema.Kind, id int64, payload map[string]any, req Request) (*Result, error) {
	d, err := s.descriptor(kind)
	if err != nil {
		return nil, err
	}
	if d.Enumeration {
		return nil, fmt.Errorf("%w: %s", ErrNotSyncable, kind)
	}

	start := time.Now()
	defer ch.enter(key{kind: kind, id: id})()

	loaded, err := s.loadedSections(d, id)
	if err != nil {
		return nil, s.fail(kind, id, err)
	}
	effective := s.effectiveSections(d, req, loaded)

	created, err := s.load(ctx, ch, d, id, payload, req, effective, false)
	if err != nil {
		s.observe(kind, "update", "error", start)
		return nil, s.fail(kind, id, err)
	}

	outcome := "updated"
	if created {
		outcome = "created"
	}
	s.observe(kind, "update", outcome, start)
	return &Result{Kind: kind, ID: id, Created: created, Sections: d.SectionNames(loaded.Union(effective))}, nil
}

// load runs one sync of a record, fetching its payload unless one is
// given. A delta load only applies the given sections to an existing record
// and leaves everything else untouched.
func (s *Service) load(ctx context.Context, ch *chain, d *schema.Descriptor, id int64, payload map[string]any, req Request, sections schema.SectionSet, delta bool) (bool, error) {
	if payload == nil {
		var err error
		if payload, err = s.fetch(ctx, d, id); err != nil {
			return false, err
		}
	}

	res := resolver{s: s, ch: ch}
	row, err := mapper.Map(ctx, d, payload, mapper.Options{Sections: sections, OnlySections: delta, Resolver: res})
	if err != nil {
		return false, err
	}

	// Remote lookups for dependencies happen before the transaction opens
	// so it only ever holds local writes.
	self := key{kind: d.Kind, id: id}
	ch.pending = &self
	inlines, err := s.prepareInlines(ctx, res, d, id, payload, sections, delta)
	if err != nil {
		return false, err
	}
	datasets, err := s.prepareDatasets(ctx, res, d, id, sections)
	if err != nil {
		return false, err
	}
	inlines.rows = append(inlines.rows, datasets...)

	var created bool
	err = s.db.Transaction(func(tx *db.DB) error {
		var err error
		if delta {
			err = tx.UpdateEntityColumns(d.Table, id, row)
		} else {
			created, err = tx.UpsertEntity(d.Table, id, row)
		}
		if err != nil {
			return err
		}
		return inlines.apply(tx)
	})
	ch.pending = nil
	if err != nil {
		return false, err
	}

	if err := s.loadChildren(ctx, ch, d, payload, req, sections, delta); err != nil {
		return created, err
	}
	if d.HasSections() {
		if err := s.db.MarkSections(d.Table, id, sections); err != nil {
			return created, err
		}
	}
	return created, nil
}

type inlineRow struct {
	table  string
	key    map[string]any
	values map[string]any
}

type nameLink struct {
	inline schema.Inline
	names  []string
}

type preparedInlines struct {
	parentID int64
	rows     []inlineRow
	links    []nameLink
}

func (p *preparedInlines) apply(tx *db.DB) error {
	for _, r := range p.rows {
		if err := tx.UpsertInline(r.table, r.key, r.values); err != nil {
			return err
		}
	}
	for _, l := range p.links {
		in := l.inline
		if err := tx.LinkByName(in.Table, in.JoinTable, in.ParentColumn, in.JoinColumn, p.parentID, l.names); err != nil {
			return err
		}
	}
	return nil
}

// prepareInlines maps the inline collections in effect. A delta load only
// covers collections gated by one of its sections.
func (s *Service) prepareInlines(ctx context.Context, res resolver, d *schema.Descriptor, id int64, payload map[string]any, sections schema.SectionSet, delta bool) (*preparedInlines, error) {
	p := &preparedInlines{parentID: id}
	for _, in := range d.InlineObjects() {
		if isGatedOut(d, in.Section, sections) || (delta && in.Section == "") {
			continue
		}
		items, _ := payload[in.Key].([]any)
		if len(items) == 0 {
			continue
		}

		if in.Shape == schema.InlineNames {
			names := make([]string, 0, len(items))
			for _, item := range items {
				if name, ok := item.(string); ok && name != "" {
					names = append(names, name)
				}
			}
			p.links = append(p.links, nameLink{inline: in, names: names})
			continue
		}

		for _, item := range items {
			obj, ok := item.(map[string]any)
			if !ok {
				return nil, fmt.Errorf("%s.%s: element is not an object", d.Kind, in.Key)
			}
			keyValue, ok, err := s.inlineKey(ctx, res, d, in, obj)
			if err != nil {
				return nil, err
			}
			if !ok {
				continue
			}
			values, err := mapper.MapFields(ctx, d, in.Fields, obj, mapper.Options{Sections: sections, Resolver: res})
			if err != nil {
				return nil, err
			}
			p.rows = append(p.rows, inlineRow{
				table:  in.Table,
				key:    map[string]any{in.ParentColumn: id, in.KeyField.Column: keyValue},
				values: values,
			})
		}
	}
	return p, nil
}

// inlineKey maps the secondary key of an inline row. Rows whose key cannot
// be resolved are skipped.
func (s *Service) inlineKey(ctx context.Context, res resolver, d *schema.Descriptor, in schema.Inline, obj map[string]any) (any, bool, error) {
	mapped, err := mapper.MapFields(ctx, d, []schema.Field{in.KeyField}, obj, mapper.Options{Resolver: res})
	if err != nil {
		return nil, false, err
	}
	v := mapped[in.KeyField.Column]
	if v == nil || v == "" {
		s.logger.Debug().Str("kind", d.Kind.String()).Str("inline", in.Key).Msg("inline row without key skipped")
		return nil, false, nil
	}
	return v, true, nil
}

// prepareDatasets maps rows of auxiliary datasets for the sections in
// effect.
func (s *Service) prepareDatasets(ctx context.Context, res resolver, d *schema.Descriptor, id int64, sections schema.SectionSet) ([]inlineRow, error) {
	var rows []inlineRow
	for _, sec := range d.Sections {
		if sec.Dataset == schema.DatasetNone || isGatedOut(d, sec.Name, sections) {
			continue
		}
		switch sec.Dataset {
		case schema.DatasetTypeMaterials:
			if s.materials == nil {
				s.logger.Debug().Str("section", sec.Name).Msg("no material source configured")
				continue
			}
			materials, err := s.materials.TypeMaterials(ctx, id)
			if err != nil {
				return nil, fmt.Errorf("load type materials: %w", err)
			}
			for _, m := range materials {
				ref, err := res.ResolveForeignKey(ctx, schema.KindType, m.MaterialTypeID, true)
				if err != nil {
					return nil, err
				}
				if ref == nil {
					continue
				}
				rows = append(rows, inlineRow{
					table:  schema.TableTypeMaterials,
					key:    map[string]any{"eve_type_id": id, "material_eve_type_id": *ref},
					values: map[string]any{"quantity": m.Quantity},
				})
			}
		}
	}
	return rows, nil
}

// loadChildren syncs child collections listed in the payload. Children
// gated by a section follow that section; the others need IncludeChildren
// and are never part of a delta load.
func (s *Service) loadChildren(ctx context.Context, ch *chain, d *schema.Descriptor, payload map[string]any, req Request, sections schema.SectionSet, delta bool) error {
	childReq := Request{
		IncludeChildren: req.IncludeChildren,
		WaitForChildren: req.WaitForChildren,
		Sections:        req.Sections,
	}
	for _, c := range d.Children() {
		if c.Section != "" {
			if isGatedOut(d, c.Section, sections) {
				continue
			}
		} else if delta || !req.IncludeChildren {
			continue
		}

		ids, err := mapper.IDs(payload[c.Key], c.IDField)
		if err != nil {
			return fmt.Errorf("%s.%s: %w", d.Kind, c.Key, err)
		}
		for _, id := range ids {
			if err := s.dispatch(ctx, ch, c.Target, id, childReq); err != nil {
				return err
			}
		}
	}
	return nil
}

// dispatch loads a record inline or enqueues it.
func (s *Service) dispatch(ctx context.Context, ch *chain, kind schema.Kind, id int64, req Request) error {
	if req.WaitForChildren || s.queue == nil {
		if !req.WaitForChildren {
			s.logger.Debug().Str("kind", kind.String()).Int64("id", id).Msg("no task queue, loading inline")
		}
		_, err := s.updateOrCreate(ctx, ch, kind, id, req)
		return err
	}
	if err := s.queue.Enqueue(ctx, kind, id, req); err != nil {
		return fmt.Errorf("enqueue %s %d: %w", kind, id, err)
	}
	return nil
}
