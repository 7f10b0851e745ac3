package state

import (
	"context"
	"fmt"

	"clinicalsnap/pkg/domain"
)

// CreateAnnotation persists a new annotation. The variant payload arrives
// pre-normalized to [0,1] image-relative coordinates and is stored opaquely.
func (s *Store) CreateAnnotation(ctx context.Context, annotation domain.Annotation) (domain.Annotation, error) {
	err := s.instrument(ctx, "create_annotation", func(ctx context.Context) error {
		if annotation.Data == nil {
			return fmt.Errorf("annotation payload required")
		}
		annotation.ID = s.newID()
		now := s.now()
		annotation.CreatedAt = now
		annotation.UpdatedAt = now
		if err := s.db.Put(ctx, domain.CollectionAnnotations, annotation); err != nil {
			return err
		}
		s.mu.Lock()
		s.annotations[annotation.ID] = annotation
		s.mu.Unlock()
		return nil
	})
	return annotation, err
}

// UpdateAnnotation applies mutate to a copy, bumps UpdatedAt, persists, then
// replaces the mirror entry. Unknown id is a silent no-op.
func (s *Store) UpdateAnnotation(ctx context.Context, id string, mutate func(*domain.Annotation)) (domain.Annotation, bool, error) {
	var (
		updated domain.Annotation
		found   bool
	)
	err := s.instrument(ctx, "update_annotation", func(ctx context.Context) error {
		s.mu.Lock()
		defer s.mu.Unlock()
		current, ok := s.annotations[id]
		if !ok {
			return nil
		}
		mutate(&current)
		current.ID = id
		current.UpdatedAt = s.now()
		if current.Data == nil {
			return fmt.Errorf("annotation payload required")
		}
		if err := s.db.Put(ctx, domain.CollectionAnnotations, current); err != nil {
			return err
		}
		s.annotations[id] = current
		updated, found = current, true
		return nil
	})
	return updated, found, err
}

// DeleteAnnotation removes a single annotation. Unknown id is a no-op.
func (s *Store) DeleteAnnotation(ctx context.Context, id string) error {
	return s.instrument(ctx, "delete_annotation", func(ctx context.Context) error {
		s.mu.RLock()
		_, ok := s.annotations[id]
		s.mu.RUnlock()
		if !ok {
			return nil
		}
		return s.applyCascade(ctx, cascadeSet{annotations: []string{id}})
	})
}
