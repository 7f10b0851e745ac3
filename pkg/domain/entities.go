// Package domain defines the persistent entities, the object-store contract,
// and the normalization primitives used by the clinicalsnap core.
package domain

// EntityType identifies the type of record stored in the core domain.
type EntityType string

// Supported entity type identifiers used in persistence collections.
const (
	// EntityPatient identifies a patient record, the root of ownership.
	EntityPatient EntityType = "patient"
	// EntitySession identifies a clinical visit record.
	EntitySession EntityType = "session"
	// EntityPhoto identifies a captured or imported photo record.
	EntityPhoto EntityType = "photo"
	// EntityAnnotation identifies a photo annotation record.
	EntityAnnotation EntityType = "annotation"
	// EntityPairing identifies a before/after photo pairing record.
	EntityPairing EntityType = "pairing"
	// EntityTreatmentType identifies a global treatment-type catalog record.
	EntityTreatmentType EntityType = "treatment_type"
	// EntityVoiceMemo identifies a session voice memo record.
	EntityVoiceMemo EntityType = "voice_memo"
)

// Millis is a timestamp expressed as integer milliseconds since the Unix
// epoch, the format the original dataset persists.
type Millis = int64

// Patient is the root of ownership: it owns sessions and, transitively,
// photos, annotations, pairings, and voice memos.
type Patient struct {
	ID               string `json:"id"`
	Name             string `json:"name"`
	ExternalID       string `json:"patientId"`
	DateOfBirth      string `json:"dateOfBirth"`
	TreatmentHistory string `json:"treatmentHistory"`
	CreatedAt        Millis `json:"createdAt"`
	UpdatedAt        Millis `json:"updatedAt"`
}

// Session records a single clinical visit for one patient.
//
// TreatmentTypeID is the deprecated single-valued predecessor of
// TreatmentTypeIDs. Migration backfills the multi-valued field but leaves the
// legacy one intact; readers must go through EffectiveTreatmentTypeIDs.
type Session struct {
	ID               string   `json:"id"`
	PatientID        string   `json:"patientId"`
	Title            string   `json:"title"`
	Date             string   `json:"date"`
	TreatmentTypeID  string   `json:"treatmentTypeId,omitempty"`
	TreatmentTypeIDs []string `json:"treatmentTypeIds"`
	VoiceMemoID      string   `json:"voiceMemoId,omitempty"`
	CreatedAt        Millis   `json:"createdAt"`
	UpdatedAt        Millis   `json:"updatedAt"`
}

// Photo holds the metadata of one captured or imported image. The
// full-resolution payload and the downsized thumbnail are stored separately
// in the blob layer; ImageData/ThumbnailData are hydrated in memory only and
// never serialized into the record document.
type Photo struct {
	ID            string `json:"id"`
	SessionID     string `json:"sessionId"`
	PatientID     string `json:"patientId"`
	ImageData     []byte `json:"-"`
	ThumbnailData []byte `json:"-"`
	ImageSize     int64  `json:"imageSize"`
	ThumbnailSize int64  `json:"thumbnailSize"`
	CapturedAt    Millis `json:"capturedAt"`
	Width         int    `json:"width"`
	Height        int    `json:"height"`
	ViewTemplate  string `json:"viewTemplate,omitempty"`
}

// BeforeAfterPairing links a "before" and an "after" photo of one session.
type BeforeAfterPairing struct {
	ID            string `json:"id"`
	SessionID     string `json:"sessionId"`
	PatientID     string `json:"patientId"`
	BeforePhotoID string `json:"beforePhotoId"`
	AfterPhotoID  string `json:"afterPhotoId"`
	CreatedAt     Millis `json:"createdAt"`
}

// TreatmentType is a global reference entity, referenced by sessions by id
// and never embedded.
type TreatmentType struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Color     string `json:"color"`
	CreatedAt Millis `json:"createdAt"`
}

// VoiceMemo holds the metadata of one recorded memo. The audio payload lives
// in the blob layer; AudioData is hydrated in memory only. MIMEType may be
// absent on legacy records and is backfilled by migration via DetectAudioMIME.
type VoiceMemo struct {
	ID        string  `json:"id"`
	SessionID string  `json:"sessionId"`
	AudioData []byte  `json:"-"`
	AudioSize int64   `json:"audioSize"`
	Duration  float64 `json:"duration"`
	MIMEType  string  `json:"mimeType,omitempty"`
	CreatedAt Millis  `json:"createdAt"`
}

// BrandingSettings configures the clinic identity shown by the UI.
type BrandingSettings struct {
	ClinicName     string `json:"clinicName"`
	LogoData       []byte `json:"logoData,omitempty"`
	UseDefaultLogo bool   `json:"useDefaultLogo"`
}

// PrivacySettings configures the PIN lock. Only the SHA-256 hash of the PIN
// is ever stored. AutoLockTimeout is minutes; 0 means never.
type PrivacySettings struct {
	PINEnabled      bool   `json:"pinEnabled"`
	PINHash         string `json:"pinHash,omitempty"`
	AutoLockTimeout int    `json:"autoLockTimeout"`
}

// AppSettings is the process-wide singleton, created on first run and only
// updated afterwards.
type AppSettings struct {
	Branding BrandingSettings `json:"branding"`
	Privacy  PrivacySettings  `json:"privacy"`
}

// RecordID implements Document.
func (p Patient) RecordID() string { return p.ID }

// IndexValues implements Document; patients carry no secondary indexes.
func (p Patient) IndexValues() map[Index]string { return nil }

// RecordID implements Document.
func (s Session) RecordID() string { return s.ID }

// IndexValues implements Document.
func (s Session) IndexValues() map[Index]string {
	return map[Index]string{IndexPatientID: s.PatientID}
}

// RecordID implements Document.
func (p Photo) RecordID() string { return p.ID }

// IndexValues implements Document.
func (p Photo) IndexValues() map[Index]string {
	return map[Index]string{IndexSessionID: p.SessionID, IndexPatientID: p.PatientID}
}

// RecordID implements Document.
func (b BeforeAfterPairing) RecordID() string { return b.ID }

// IndexValues implements Document.
func (b BeforeAfterPairing) IndexValues() map[Index]string {
	return map[Index]string{IndexSessionID: b.SessionID}
}

// RecordID implements Document.
func (t TreatmentType) RecordID() string { return t.ID }

// IndexValues implements Document; the catalog carries no secondary indexes.
func (t TreatmentType) IndexValues() map[Index]string { return nil }

// RecordID implements Document.
func (v VoiceMemo) RecordID() string { return v.ID }

// IndexValues implements Document.
func (v VoiceMemo) IndexValues() map[Index]string {
	return map[Index]string{IndexSessionID: v.SessionID}
}
