package domain

// EffectiveTreatmentTypeIDs reconciles the deprecated single-valued
// treatment-type field with its multi-valued replacement: the multi-valued
// field wins when present and non-empty, else the legacy field is treated as
// a single-element set, else the set is empty. Every read of a session's
// treatment set goes through this one function.
func EffectiveTreatmentTypeIDs(s Session) []string {
	if len(s.TreatmentTypeIDs) > 0 {
		return append([]string(nil), s.TreatmentTypeIDs...)
	}
	if s.TreatmentTypeID != "" {
		return []string{s.TreatmentTypeID}
	}
	return []string{}
}

// NormalizeSession returns the session with TreatmentTypeIDs set to its
// effective treatment set. The legacy field is left intact; normalization is
// additive and idempotent.
func NormalizeSession(s Session) Session {
	s.TreatmentTypeIDs = EffectiveTreatmentTypeIDs(s)
	return s
}
