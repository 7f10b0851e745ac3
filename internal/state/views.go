package state

import "clinicalsnap/pkg/domain"

// Read accessors return copies; callers never see the live maps. Ordering is
// unspecified, sorting is a presentation concern.

func (s *Store) Patients() []domain.Patient {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.Patient, 0, len(s.patients))
	for _, p := range s.patients {
		out = append(out, p)
	}
	return out
}

func (s *Store) Patient(id string) (domain.Patient, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.patients[id]
	return p, ok
}

func (s *Store) Sessions() []domain.Session {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.Session, 0, len(s.sessions))
	for _, v := range s.sessions {
		out = append(out, v)
	}
	return out
}

func (s *Store) Session(id string) (domain.Session, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.sessions[id]
	return v, ok
}

// SessionsForPatient returns the sessions belonging to one patient.
func (s *Store) SessionsForPatient(patientID string) []domain.Session {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []domain.Session
	for _, v := range s.sessions {
		if v.PatientID == patientID {
			out = append(out, v)
		}
	}
	return out
}

func (s *Store) Photos() []domain.Photo {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.Photo, 0, len(s.photos))
	for _, v := range s.photos {
		out = append(out, v)
	}
	return out
}

func (s *Store) Photo(id string) (domain.Photo, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.photos[id]
	return v, ok
}

// PhotosForSession returns the photos belonging to one session.
func (s *Store) PhotosForSession(sessionID string) []domain.Photo {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []domain.Photo
	for _, v := range s.photos {
		if v.SessionID == sessionID {
			out = append(out, v)
		}
	}
	return out
}

func (s *Store) Annotations() []domain.Annotation {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.Annotation, 0, len(s.annotations))
	for _, v := range s.annotations {
		out = append(out, v)
	}
	return out
}

// AnnotationsForPhoto returns the annotations on one photo.
func (s *Store) AnnotationsForPhoto(photoID string) []domain.Annotation {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []domain.Annotation
	for _, v := range s.annotations {
		if v.PhotoID == photoID {
			out = append(out, v)
		}
	}
	return out
}

func (s *Store) Pairings() []domain.BeforeAfterPairing {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.BeforeAfterPairing, 0, len(s.pairings))
	for _, v := range s.pairings {
		out = append(out, v)
	}
	return out
}

func (s *Store) Pairing(id string) (domain.BeforeAfterPairing, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.pairings[id]
	return v, ok
}

func (s *Store) TreatmentTypes() []domain.TreatmentType {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.TreatmentType, 0, len(s.treatmentTypes))
	for _, v := range s.treatmentTypes {
		out = append(out, v)
	}
	return out
}

func (s *Store) TreatmentType(id string) (domain.TreatmentType, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.treatmentTypes[id]
	return v, ok
}

func (s *Store) VoiceMemos() []domain.VoiceMemo {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.VoiceMemo, 0, len(s.voiceMemos))
	for _, v := range s.voiceMemos {
		out = append(out, v)
	}
	return out
}

func (s *Store) VoiceMemo(id string) (domain.VoiceMemo, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.voiceMemos[id]
	return v, ok
}

// Settings returns the current settings singleton.
func (s *Store) Settings() domain.AppSettings {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.settings
}

// Selection returns the current UI selection.
func (s *Store) Selection() Selection {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.selection
}

// SelectPatient sets the selected patient and clears the narrower selections.
// An unknown id is a silent no-op; an empty id clears the selection.
func (s *Store) SelectPatient(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if id != "" {
		if _, ok := s.patients[id]; !ok {
			return
		}
	}
	s.selection = Selection{PatientID: id}
}

// SelectSession sets the selected session, keeping the patient selection.
func (s *Store) SelectSession(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if id != "" {
		if _, ok := s.sessions[id]; !ok {
			return
		}
	}
	s.selection.SessionID = id
	s.selection.PhotoID = ""
	s.selection.PairingID = ""
}

// SelectPhoto sets the selected photo.
func (s *Store) SelectPhoto(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if id != "" {
		if _, ok := s.photos[id]; !ok {
			return
		}
	}
	s.selection.PhotoID = id
}

// SelectPairing sets the selected pairing.
func (s *Store) SelectPairing(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if id != "" {
		if _, ok := s.pairings[id]; !ok {
			return
		}
	}
	s.selection.PairingID = id
}
