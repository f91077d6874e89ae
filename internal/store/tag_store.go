package store

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/nhle/tasktracker/internal/model"
)

// GetOrCreateTags resolves canonical tag names to persisted tags, creating
// rows for names not seen before. Input duplicates are collapsed and the
// result preserves first-occurrence order. New rows are durable only once
// the session commits.
func (s *sqliteSession) GetOrCreateTags(ctx context.Context, names []string) ([]model.Tag, error) {
	if len(names) == 0 {
		return nil, nil
	}

	unique := dedupeNames(names)

	query, args, err := sqlx.In("SELECT id, name FROM tags WHERE name IN (?)", unique)
	if err != nil {
		return nil, fmt.Errorf("building tag lookup: %w", err)
	}

	var existing []model.Tag
	if err := s.tx.SelectContext(ctx, &existing, query, args...); err != nil {
		return nil, fmt.Errorf("querying tags: %w", err)
	}

	byName := make(map[string]model.Tag, len(unique))
	for _, tag := range existing {
		byName[tag.Name] = tag
	}

	for _, name := range unique {
		if _, ok := byName[name]; ok {
			continue
		}
		tag, err := s.createTag(ctx, name)
		if err != nil {
			return nil, err
		}
		byName[name] = tag
	}

	tags := make([]model.Tag, len(unique))
	for i, name := range unique {
		tags[i] = byName[name]
	}
	return tags, nil
}

// createTag inserts a single tag row. A UNIQUE violation means a
// concurrent creator won the race between our lookup and this insert;
// re-read the row once instead of failing the caller.
func (s *sqliteSession) createTag(ctx context.Context, name string) (model.Tag, error) {
	res, err := s.tx.ExecContext(ctx, "INSERT INTO tags (name) VALUES (?)", name)
	if err != nil {
		if !isUniqueViolation(err) {
			return model.Tag{}, fmt.Errorf("creating tag %q: %w", name, err)
		}
		var tag model.Tag
		if err := s.tx.GetContext(ctx, &tag,
			"SELECT id, name FROM tags WHERE name = ?", name); err != nil {
			return model.Tag{}, fmt.Errorf("re-reading tag %q after unique violation: %w", name, err)
		}
		return tag, nil
	}

	id, err := res.LastInsertId()
	if err != nil {
		return model.Tag{}, fmt.Errorf("reading new tag id: %w", err)
	}
	return model.Tag{ID: id, Name: name}, nil
}

// dedupeNames collapses duplicates while preserving first-occurrence order.
func dedupeNames(names []string) []string {
	seen := make(map[string]struct{}, len(names))
	unique := make([]string, 0, len(names))
	for _, name := range names {
		if _, ok := seen[name]; ok {
			continue
		}
		seen[name] = struct{}{}
		unique = append(unique, name)
	}
	return unique
}
