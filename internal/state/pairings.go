package state

import (
	"context"
	"fmt"

	"clinicalsnap/pkg/domain"
)

// CreatePairing persists a before/after pairing after checking that both
// referenced photos exist and belong to the pairing's session. PatientID is
// derived from the session when not supplied.
func (s *Store) CreatePairing(ctx context.Context, pairing domain.BeforeAfterPairing) (domain.BeforeAfterPairing, error) {
	err := s.instrument(ctx, "create_pairing", func(ctx context.Context) error {
		s.mu.Lock()
		defer s.mu.Unlock()
		session, sessionOK := s.sessions[pairing.SessionID]
		before, beforeOK := s.photos[pairing.BeforePhotoID]
		after, afterOK := s.photos[pairing.AfterPhotoID]
		if !sessionOK {
			return fmt.Errorf("pairing: session %s not found", pairing.SessionID)
		}
		if !beforeOK || before.SessionID != pairing.SessionID {
			return fmt.Errorf("pairing: before photo %s does not belong to session %s", pairing.BeforePhotoID, pairing.SessionID)
		}
		if !afterOK || after.SessionID != pairing.SessionID {
			return fmt.Errorf("pairing: after photo %s does not belong to session %s", pairing.AfterPhotoID, pairing.SessionID)
		}
		pairing.ID = s.newID()
		if pairing.PatientID == "" {
			pairing.PatientID = session.PatientID
		}
		pairing.CreatedAt = s.now()
		if err := s.db.Put(ctx, domain.CollectionPairings, pairing); err != nil {
			return err
		}
		s.pairings[pairing.ID] = pairing
		return nil
	})
	return pairing, err
}

// DeletePairing removes a single pairing. Unknown id is a no-op.
func (s *Store) DeletePairing(ctx context.Context, id string) error {
	return s.instrument(ctx, "delete_pairing", func(ctx context.Context) error {
		s.mu.RLock()
		_, ok := s.pairings[id]
		s.mu.RUnlock()
		if !ok {
			return nil
		}
		return s.applyCascade(ctx, cascadeSet{pairings: []string{id}})
	})
}
