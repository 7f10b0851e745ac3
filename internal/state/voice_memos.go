package state

import (
	"context"

	"go.uber.org/zap"

	"clinicalsnap/pkg/domain"
)

// CreateVoiceMemo stores the audio payload (sniffing the MIME type when the
// recorder did not supply one), persists the memo record and the owning
// session's back-reference, then mirrors both. The create is all-or-nothing:
// if the session link fails to persist, the memo record and audio payload are
// rolled back and nothing is mirrored.
func (s *Store) CreateVoiceMemo(ctx context.Context, memo domain.VoiceMemo) (domain.VoiceMemo, error) {
	err := s.instrument(ctx, "create_voice_memo", func(ctx context.Context) error {
		memo.ID = s.newID()
		memo.CreatedAt = s.now()
		if err := s.media.SaveAudio(ctx, &memo); err != nil {
			return err
		}

		s.mu.Lock()
		defer s.mu.Unlock()
		if err := s.db.Put(ctx, domain.CollectionVoiceMemos, memo); err != nil {
			if derr := s.media.DeleteAudio(ctx, memo.ID); derr != nil {
				s.log.Warn("orphaned memo payload", zap.String("memo_id", memo.ID), zap.Error(derr))
			}
			return err
		}
		if session, ok := s.sessions[memo.SessionID]; ok {
			session.VoiceMemoID = memo.ID
			session.UpdatedAt = s.now()
			if err := s.db.Put(ctx, domain.CollectionSessions, session); err != nil {
				if derr := s.db.Delete(ctx, domain.CollectionVoiceMemos, memo.ID); derr != nil {
					s.log.Warn("orphaned memo record", zap.String("memo_id", memo.ID), zap.Error(derr))
				}
				if derr := s.media.DeleteAudio(ctx, memo.ID); derr != nil {
					s.log.Warn("orphaned memo payload", zap.String("memo_id", memo.ID), zap.Error(derr))
				}
				return err
			}
			s.sessions[session.ID] = session
		}
		s.voiceMemos[memo.ID] = memo
		return nil
	})
	return memo, err
}

// DeleteVoiceMemo removes the memo record, its audio payload, and detaches it
// from the owning session. Unknown id is a no-op.
func (s *Store) DeleteVoiceMemo(ctx context.Context, id string) error {
	return s.instrument(ctx, "delete_voice_memo", func(ctx context.Context) error {
		s.mu.RLock()
		memo, ok := s.voiceMemos[id]
		s.mu.RUnlock()
		if !ok {
			return nil
		}
		if err := s.applyCascade(ctx, cascadeSet{voiceMemos: []string{id}}); err != nil {
			return err
		}
		return s.setSessionMemo(ctx, memo.SessionID, "")
	})
}

// setSessionMemo points the session's voice-memo reference at memoID ("" to
// clear), durably then in memory, under the write lock. A missing session is
// a no-op; the memo record itself is already consistent.
func (s *Store) setSessionMemo(ctx context.Context, sessionID, memoID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	session, ok := s.sessions[sessionID]
	if !ok || session.VoiceMemoID == memoID {
		return nil
	}
	session.VoiceMemoID = memoID
	session.UpdatedAt = s.now()
	if err := s.db.Put(ctx, domain.CollectionSessions, session); err != nil {
		return err
	}
	s.sessions[sessionID] = session
	return nil
}
