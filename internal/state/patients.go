package state

import (
	"context"

	"clinicalsnap/pkg/domain"
)

// CreatePatient stamps a new id and timestamps, persists the record, then
// mirrors it. The durable write completes before the method returns.
func (s *Store) CreatePatient(ctx context.Context, patient domain.Patient) (domain.Patient, error) {
	err := s.instrument(ctx, "create_patient", func(ctx context.Context) error {
		patient.ID = s.newID()
		now := s.now()
		patient.CreatedAt = now
		patient.UpdatedAt = now
		if err := s.db.Put(ctx, domain.CollectionPatients, patient); err != nil {
			return err
		}
		s.mu.Lock()
		s.patients[patient.ID] = patient
		s.mu.Unlock()
		return nil
	})
	return patient, err
}

// UpdatePatient applies mutate to a copy of the current record, bumps
// UpdatedAt, persists, then replaces the mirror entry. An unknown id is a
// silent no-op, reported by the boolean. The write lock is held across the
// durable write and the mirror write, so concurrent updates to the same id
// serialize and the last one to run wins in both layers.
func (s *Store) UpdatePatient(ctx context.Context, id string, mutate func(*domain.Patient)) (domain.Patient, bool, error) {
	var (
		updated domain.Patient
		found   bool
	)
	err := s.instrument(ctx, "update_patient", func(ctx context.Context) error {
		s.mu.Lock()
		defer s.mu.Unlock()
		current, ok := s.patients[id]
		if !ok {
			return nil
		}
		mutate(&current)
		current.ID = id
		current.UpdatedAt = s.now()
		if err := s.db.Put(ctx, domain.CollectionPatients, current); err != nil {
			return err
		}
		s.patients[id] = current
		updated, found = current, true
		return nil
	})
	return updated, found, err
}

// DeletePatient removes the patient and, transitively, all its sessions,
// photos, annotations, pairings and voice memos. An unknown id is a no-op.
func (s *Store) DeletePatient(ctx context.Context, id string) error {
	return s.instrument(ctx, "delete_patient", func(ctx context.Context) error {
		s.mu.RLock()
		_, ok := s.patients[id]
		var set cascadeSet
		if ok {
			set = s.collectPatientCascade(id)
		}
		s.mu.RUnlock()
		if !ok {
			return nil
		}
		return s.applyCascade(ctx, set)
	})
}
