package state

import (
	"context"

	"clinicalsnap/pkg/domain"
)

// CreateSession stamps and persists a new session. The record is normalized
// before it is written so the multi-valued treatment field is always present.
func (s *Store) CreateSession(ctx context.Context, session domain.Session) (domain.Session, error) {
	err := s.instrument(ctx, "create_session", func(ctx context.Context) error {
		session.ID = s.newID()
		now := s.now()
		session.CreatedAt = now
		session.UpdatedAt = now
		session = domain.NormalizeSession(session)
		if err := s.db.Put(ctx, domain.CollectionSessions, session); err != nil {
			return err
		}
		s.mu.Lock()
		s.sessions[session.ID] = session
		s.mu.Unlock()
		return nil
	})
	return session, err
}

// UpdateSession applies mutate to a copy, re-normalizes, bumps UpdatedAt,
// persists, then replaces the mirror entry, all under the write lock so
// concurrent updates serialize. Unknown id is a silent no-op.
func (s *Store) UpdateSession(ctx context.Context, id string, mutate func(*domain.Session)) (domain.Session, bool, error) {
	var (
		updated domain.Session
		found   bool
	)
	err := s.instrument(ctx, "update_session", func(ctx context.Context) error {
		s.mu.Lock()
		defer s.mu.Unlock()
		current, ok := s.sessions[id]
		if !ok {
			return nil
		}
		mutate(&current)
		current.ID = id
		current.UpdatedAt = s.now()
		current = domain.NormalizeSession(current)
		if err := s.db.Put(ctx, domain.CollectionSessions, current); err != nil {
			return err
		}
		s.sessions[id] = current
		updated, found = current, true
		return nil
	})
	return updated, found, err
}

// DeleteSession removes the session and everything under it: photos, their
// annotations, the session's pairings and voice memos.
func (s *Store) DeleteSession(ctx context.Context, id string) error {
	return s.instrument(ctx, "delete_session", func(ctx context.Context) error {
		s.mu.RLock()
		_, ok := s.sessions[id]
		var set cascadeSet
		if ok {
			set = s.collectSessionCascade(id)
		}
		s.mu.RUnlock()
		if !ok {
			return nil
		}
		return s.applyCascade(ctx, set)
	})
}
