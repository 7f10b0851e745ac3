package state

import (
	"context"

	"go.uber.org/zap"

	"clinicalsnap/pkg/domain"
)

// cascadeSet is the full id set a delete touches, captured from the in-memory
// mirror before any delete is issued so a partially-mutated collection is
// never re-read mid-operation.
type cascadeSet struct {
	patients    []string
	sessions    []string
	photos      []string
	annotations []string
	pairings    []string
	voiceMemos  []string
}

func (c cascadeSet) recordIDs() map[domain.Collection][]string {
	out := make(map[domain.Collection][]string)
	if len(c.patients) > 0 {
		out[domain.CollectionPatients] = c.patients
	}
	if len(c.sessions) > 0 {
		out[domain.CollectionSessions] = c.sessions
	}
	if len(c.photos) > 0 {
		out[domain.CollectionPhotos] = c.photos
	}
	if len(c.annotations) > 0 {
		out[domain.CollectionAnnotations] = c.annotations
	}
	if len(c.pairings) > 0 {
		out[domain.CollectionPairings] = c.pairings
	}
	if len(c.voiceMemos) > 0 {
		out[domain.CollectionVoiceMemos] = c.voiceMemos
	}
	return out
}

// collectPatientCascade gathers the patient, its sessions, and everything
// under them. Caller must hold at least a read lock.
func (s *Store) collectPatientCascade(id string) cascadeSet {
	set := cascadeSet{patients: []string{id}}
	for _, session := range s.sessions {
		if session.PatientID == id {
			s.collectSessionInto(&set, session.ID)
		}
	}
	return set
}

// collectSessionCascade gathers one session and everything under it.
func (s *Store) collectSessionCascade(id string) cascadeSet {
	var set cascadeSet
	s.collectSessionInto(&set, id)
	return set
}

func (s *Store) collectSessionInto(set *cascadeSet, sessionID string) {
	set.sessions = append(set.sessions, sessionID)
	for _, photo := range s.photos {
		if photo.SessionID == sessionID {
			s.collectPhotoInto(set, photo.ID)
		}
	}
	for _, pairing := range s.pairings {
		if pairing.SessionID == sessionID && !contains(set.pairings, pairing.ID) {
			set.pairings = append(set.pairings, pairing.ID)
		}
	}
	for _, memo := range s.voiceMemos {
		if memo.SessionID == sessionID {
			set.voiceMemos = append(set.voiceMemos, memo.ID)
		}
	}
}

// collectPhotoCascade gathers one photo, its annotations, and any pairing
// referencing it on either side.
func (s *Store) collectPhotoCascade(id string) cascadeSet {
	var set cascadeSet
	s.collectPhotoInto(&set, id)
	return set
}

func (s *Store) collectPhotoInto(set *cascadeSet, photoID string) {
	set.photos = append(set.photos, photoID)
	for _, annotation := range s.annotations {
		if annotation.PhotoID == photoID {
			set.annotations = append(set.annotations, annotation.ID)
		}
	}
	for _, pairing := range s.pairings {
		if (pairing.BeforePhotoID == photoID || pairing.AfterPhotoID == photoID) && !contains(set.pairings, pairing.ID) {
			set.pairings = append(set.pairings, pairing.ID)
		}
	}
}

func contains(ids []string, id string) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}

// applyCascade deletes every record in the set durably in one unit, applies a
// single in-memory transition, drops any selection that pointed at a deleted
// record, then removes the media payloads best effort. The write lock spans
// the durable delete and the mirror transition so a concurrent update cannot
// re-persist a record between the two.
func (s *Store) applyCascade(ctx context.Context, set cascadeSet) error {
	ids := set.recordIDs()
	if len(ids) == 0 {
		return nil
	}
	s.mu.Lock()
	if err := s.db.DeleteMany(ctx, ids); err != nil {
		s.mu.Unlock()
		return err
	}
	for _, id := range set.patients {
		delete(s.patients, id)
	}
	for _, id := range set.sessions {
		delete(s.sessions, id)
	}
	for _, id := range set.photos {
		delete(s.photos, id)
	}
	for _, id := range set.annotations {
		delete(s.annotations, id)
	}
	for _, id := range set.pairings {
		delete(s.pairings, id)
	}
	for _, id := range set.voiceMemos {
		delete(s.voiceMemos, id)
	}
	s.pruneSelectionLocked()
	s.mu.Unlock()

	for _, photoID := range set.photos {
		if err := s.media.DeletePhoto(ctx, photoID); err != nil {
			s.log.Warn("orphaned photo payload", zap.String("photo_id", photoID), zap.Error(err))
		}
	}
	for _, memoID := range set.voiceMemos {
		if err := s.media.DeleteAudio(ctx, memoID); err != nil {
			s.log.Warn("orphaned memo payload", zap.String("memo_id", memoID), zap.Error(err))
		}
	}
	return nil
}

// pruneSelectionLocked clears selection ids that no longer resolve. Caller
// must hold the write lock.
func (s *Store) pruneSelectionLocked() {
	if s.selection.PatientID != "" {
		if _, ok := s.patients[s.selection.PatientID]; !ok {
			s.selection = Selection{}
			return
		}
	}
	if s.selection.SessionID != "" {
		if _, ok := s.sessions[s.selection.SessionID]; !ok {
			s.selection.SessionID = ""
			s.selection.PhotoID = ""
			s.selection.PairingID = ""
			return
		}
	}
	if s.selection.PhotoID != "" {
		if _, ok := s.photos[s.selection.PhotoID]; !ok {
			s.selection.PhotoID = ""
		}
	}
	if s.selection.PairingID != "" {
		if _, ok := s.pairings[s.selection.PairingID]; !ok {
			s.selection.PairingID = ""
		}
	}
}
