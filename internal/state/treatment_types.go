package state

import (
	"context"

	"clinicalsnap/pkg/domain"
)

// CreateTreatmentType adds an entry to the global catalog.
func (s *Store) CreateTreatmentType(ctx context.Context, tt domain.TreatmentType) (domain.TreatmentType, error) {
	err := s.instrument(ctx, "create_treatment_type", func(ctx context.Context) error {
		tt.ID = s.newID()
		tt.CreatedAt = s.now()
		if err := s.db.Put(ctx, domain.CollectionTreatmentTypes, tt); err != nil {
			return err
		}
		s.mu.Lock()
		s.treatmentTypes[tt.ID] = tt
		s.mu.Unlock()
		return nil
	})
	return tt, err
}

// UpdateTreatmentType renames or recolors a catalog entry. Unknown id is a
// silent no-op.
func (s *Store) UpdateTreatmentType(ctx context.Context, id string, mutate func(*domain.TreatmentType)) (domain.TreatmentType, bool, error) {
	var (
		updated domain.TreatmentType
		found   bool
	)
	err := s.instrument(ctx, "update_treatment_type", func(ctx context.Context) error {
		s.mu.Lock()
		defer s.mu.Unlock()
		current, ok := s.treatmentTypes[id]
		if !ok {
			return nil
		}
		mutate(&current)
		current.ID = id
		if err := s.db.Put(ctx, domain.CollectionTreatmentTypes, current); err != nil {
			return err
		}
		s.treatmentTypes[id] = current
		updated, found = current, true
		return nil
	})
	return updated, found, err
}

// DeleteTreatmentType removes a catalog entry. Sessions referencing it keep
// the id; readers resolve references against the catalog and skip missing
// ones.
func (s *Store) DeleteTreatmentType(ctx context.Context, id string) error {
	return s.instrument(ctx, "delete_treatment_type", func(ctx context.Context) error {
		s.mu.Lock()
		defer s.mu.Unlock()
		if _, ok := s.treatmentTypes[id]; !ok {
			return nil
		}
		if err := s.db.Delete(ctx, domain.CollectionTreatmentTypes, id); err != nil {
			return err
		}
		delete(s.treatmentTypes, id)
		return nil
	})
}
