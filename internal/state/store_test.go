package state

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"testing"
	"time"

	"clinicalsnap/internal/blob"
	"clinicalsnap/internal/infra/persistence/memory"
	"clinicalsnap/internal/media"
	"clinicalsnap/pkg/domain"
)

func newTestStore(t *testing.T) (*Store, *memory.Store) {
	t.Helper()
	db := memory.NewStore()
	if err := db.Init(context.Background()); err != nil {
		t.Fatalf("init backend: %v", err)
	}
	var seq int
	clock := domain.Millis(1000)
	store := New(db, media.NewLibrary(blob.NewMemory()),
		WithIDGenerator(func() string {
			seq++
			return fmt.Sprintf("id-%d", seq)
		}),
		WithClock(func() domain.Millis {
			clock++
			return clock
		}),
	)
	if err := store.LoadData(context.Background()); err != nil {
		t.Fatalf("load data: %v", err)
	}
	return store, db
}

// buildFixture creates one patient with one session holding two photos,
// three annotations split across them, one pairing, and one voice memo.
func buildFixture(t *testing.T, store *Store) (patient domain.Patient, session domain.Session, photos []domain.Photo) {
	t.Helper()
	ctx := context.Background()

	patient, err := store.CreatePatient(ctx, domain.Patient{Name: "Jane Doe"})
	if err != nil {
		t.Fatalf("create patient: %v", err)
	}
	session, err = store.CreateSession(ctx, domain.Session{PatientID: patient.ID, Title: "Initial visit", Date: "2026-08-29"})
	if err != nil {
		t.Fatalf("create session: %v", err)
	}
	for i := 0; i < 2; i++ {
		photo, err := store.CreatePhoto(ctx, domain.Photo{
			SessionID: session.ID,
			PatientID: patient.ID,
			ImageData: []byte(fmt.Sprintf("image-%d", i)),
			Width:     800,
			Height:    600,
		})
		if err != nil {
			t.Fatalf("create photo %d: %v", i, err)
		}
		photos = append(photos, photo)
	}
	annotationDatas := []domain.AnnotationData{
		domain.PenStroke{Points: []domain.Point{{X: 0.1, Y: 0.1}, {X: 0.5, Y: 0.5}}, Color: "#ff0000", Size: 2},
		domain.TextLabel{Text: "crown margin", X: 0.4, Y: 0.2, Color: "#000000", Size: 12},
		domain.DirectionalStamp{X: 0.7, Y: 0.7, Angle: 45, Color: "#00ff00", Size: 10},
	}
	for i, data := range annotationDatas {
		photoID := photos[i%2].ID
		if _, err := store.CreateAnnotation(ctx, domain.Annotation{PhotoID: photoID, Data: data}); err != nil {
			t.Fatalf("create annotation %d: %v", i, err)
		}
	}
	if _, err := store.CreatePairing(ctx, domain.BeforeAfterPairing{
		SessionID:     session.ID,
		BeforePhotoID: photos[0].ID,
		AfterPhotoID:  photos[1].ID,
	}); err != nil {
		t.Fatalf("create pairing: %v", err)
	}
	if _, err := store.CreateVoiceMemo(ctx, domain.VoiceMemo{
		SessionID: session.ID,
		AudioData: []byte("OggSaudio"),
		Duration:  2.5,
	}); err != nil {
		t.Fatalf("create voice memo: %v", err)
	}
	return patient, session, photos
}

func TestCreateStampsAndMirrors(t *testing.T) {
	store, db := newTestStore(t)
	ctx := context.Background()

	patient, err := store.CreatePatient(ctx, domain.Patient{Name: "Jane Doe", ExternalID: "EXT-7"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if patient.ID == "" || patient.CreatedAt == 0 || patient.CreatedAt != patient.UpdatedAt {
		t.Fatalf("stamps missing: %+v", patient)
	}
	if got, ok := store.Patient(patient.ID); !ok || got.Name != "Jane Doe" {
		t.Fatalf("mirror miss: ok=%v got=%+v", ok, got)
	}
	raw, ok, err := db.GetByID(ctx, domain.CollectionPatients, patient.ID)
	if err != nil || !ok {
		t.Fatalf("durable miss: ok=%v err=%v", ok, err)
	}
	var stored domain.Patient
	if err := json.Unmarshal(raw, &stored); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if stored != patient {
		t.Fatalf("durable %+v != returned %+v", stored, patient)
	}
}

func TestUpdateUnknownIDIsSilentNoop(t *testing.T) {
	store, _ := newTestStore(t)
	_, found, err := store.UpdatePatient(context.Background(), "ghost", func(p *domain.Patient) {
		p.Name = "nobody"
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if found {
		t.Fatal("ghost id reported found")
	}
}

func TestUpdateMergesAndConverges(t *testing.T) {
	store, db := newTestStore(t)
	ctx := context.Background()

	patient, err := store.CreatePatient(ctx, domain.Patient{Name: "Jane Doe"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	// two updates with disjoint fields; the later write wins field-by-field
	// over the state it read, and memory matches the durable record
	if _, _, err := store.UpdatePatient(ctx, patient.ID, func(p *domain.Patient) {
		p.DateOfBirth = "1990-01-01"
	}); err != nil {
		t.Fatalf("first update: %v", err)
	}
	updated, found, err := store.UpdatePatient(ctx, patient.ID, func(p *domain.Patient) {
		p.TreatmentHistory = "veneers 2025"
	})
	if err != nil || !found {
		t.Fatalf("second update: found=%v err=%v", found, err)
	}
	if updated.DateOfBirth != "1990-01-01" || updated.TreatmentHistory != "veneers 2025" {
		t.Fatalf("merge lost fields: %+v", updated)
	}
	if updated.UpdatedAt <= patient.UpdatedAt {
		t.Fatalf("updatedAt not bumped: %d <= %d", updated.UpdatedAt, patient.UpdatedAt)
	}
	raw, _, _ := db.GetByID(ctx, domain.CollectionPatients, patient.ID)
	var stored domain.Patient
	if err := json.Unmarshal(raw, &stored); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if stored != updated {
		t.Fatalf("memory %+v diverged from durable %+v", updated, stored)
	}
}

func TestFailedWriteLeavesMirrorUntouched(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()

	patient, err := store.CreatePatient(ctx, domain.Patient{Name: "Jane Doe"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	failing := &failingStore{ObjectStore: store.db}
	store.db = failing
	failing.fail = true

	if _, _, err := store.UpdatePatient(ctx, patient.ID, func(p *domain.Patient) {
		p.Name = "changed"
	}); err == nil {
		t.Fatal("expected write failure")
	}
	if got, _ := store.Patient(patient.ID); got.Name != "Jane Doe" {
		t.Fatalf("mirror mutated on failed write: %+v", got)
	}
	if _, err := store.CreatePatient(ctx, domain.Patient{Name: "Other"}); err == nil {
		t.Fatal("expected create failure")
	}
	if got := len(store.Patients()); got != 1 {
		t.Fatalf("mirror grew on failed create: %d patients", got)
	}
}

func TestFullPatientDeletion(t *testing.T) {
	store, db := newTestStore(t)
	ctx := context.Background()

	patient, session, photos := buildFixture(t, store)
	store.SelectPatient(patient.ID)
	store.SelectSession(session.ID)
	store.SelectPhoto(photos[0].ID)

	if err := store.DeletePatient(ctx, patient.ID); err != nil {
		t.Fatalf("delete patient: %v", err)
	}

	if n := len(store.Patients()) + len(store.Sessions()) + len(store.Photos()) +
		len(store.Annotations()) + len(store.Pairings()) + len(store.VoiceMemos()); n != 0 {
		t.Fatalf("in-memory leftovers after cascade: %d records", n)
	}
	for _, col := range []domain.Collection{
		domain.CollectionPatients, domain.CollectionSessions, domain.CollectionPhotos,
		domain.CollectionAnnotations, domain.CollectionPairings, domain.CollectionVoiceMemos,
	} {
		raws, err := db.GetAll(ctx, col)
		if err != nil {
			t.Fatalf("get all %s: %v", col, err)
		}
		if len(raws) != 0 {
			t.Fatalf("durable leftovers in %s: %d records", col, len(raws))
		}
	}
	if sel := store.Selection(); sel != (Selection{}) {
		t.Fatalf("selection not cleared: %+v", sel)
	}
}

func TestDeleteSessionCascades(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()

	patient, session, _ := buildFixture(t, store)
	if err := store.DeleteSession(ctx, session.ID); err != nil {
		t.Fatalf("delete session: %v", err)
	}
	if _, ok := store.Patient(patient.ID); !ok {
		t.Fatal("patient must survive session deletion")
	}
	if n := len(store.Sessions()) + len(store.Photos()) + len(store.Annotations()) +
		len(store.Pairings()) + len(store.VoiceMemos()); n != 0 {
		t.Fatalf("leftovers after session cascade: %d records", n)
	}
}

func TestDeletePhotoCascadesAnnotationsAndPairings(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()

	_, _, photos := buildFixture(t, store)
	if err := store.DeletePhoto(ctx, photos[0].ID); err != nil {
		t.Fatalf("delete photo: %v", err)
	}
	if _, ok := store.Photo(photos[0].ID); ok {
		t.Fatal("photo survived")
	}
	if _, ok := store.Photo(photos[1].ID); !ok {
		t.Fatal("sibling photo must survive")
	}
	for _, a := range store.Annotations() {
		if a.PhotoID == photos[0].ID {
			t.Fatalf("dangling annotation %s", a.ID)
		}
	}
	if n := len(store.Pairings()); n != 0 {
		t.Fatalf("pairing referencing deleted photo survived: %d", n)
	}
}

func TestDeleteUnknownIDsAreNoops(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()
	for name, fn := range map[string]func(context.Context, string) error{
		"patient":    store.DeletePatient,
		"session":    store.DeleteSession,
		"photo":      store.DeletePhoto,
		"annotation": store.DeleteAnnotation,
		"pairing":    store.DeletePairing,
		"memo":       store.DeleteVoiceMemo,
	} {
		if err := fn(ctx, "ghost"); err != nil {
			t.Fatalf("delete unknown %s: %v", name, err)
		}
	}
}

func TestPairingRejectsForeignPhotos(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()

	patient, sessionA, photosA := buildFixture(t, store)
	sessionB, err := store.CreateSession(ctx, domain.Session{PatientID: patient.ID, Title: "Follow-up"})
	if err != nil {
		t.Fatalf("create session: %v", err)
	}
	photoB, err := store.CreatePhoto(ctx, domain.Photo{SessionID: sessionB.ID, PatientID: patient.ID, ImageData: []byte("x")})
	if err != nil {
		t.Fatalf("create photo: %v", err)
	}
	if _, err := store.CreatePairing(ctx, domain.BeforeAfterPairing{
		SessionID:     sessionA.ID,
		BeforePhotoID: photosA[0].ID,
		AfterPhotoID:  photoB.ID,
	}); err == nil {
		t.Fatal("pairing across sessions accepted")
	}
}

func TestVoiceMemoAttachesToSession(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()

	_, session, _ := buildFixture(t, store)
	got, ok := store.Session(session.ID)
	if !ok || got.VoiceMemoID == "" {
		t.Fatalf("session not pointing at memo: %+v", got)
	}
	memoID := got.VoiceMemoID
	memo, ok := store.VoiceMemo(memoID)
	if !ok {
		t.Fatal("memo missing from mirror")
	}
	if memo.MIMEType != "audio/ogg" {
		t.Fatalf("sniffed mime = %q", memo.MIMEType)
	}
	if err := store.DeleteVoiceMemo(ctx, memoID); err != nil {
		t.Fatalf("delete memo: %v", err)
	}
	got, _ = store.Session(session.ID)
	if got.VoiceMemoID != "" {
		t.Fatalf("session still references deleted memo: %+v", got)
	}
}

func TestLoadDataNormalizesAndHydrates(t *testing.T) {
	store, db := newTestStore(t)
	ctx := context.Background()

	patient, _, photos := buildFixture(t, store)
	// a legacy session written behind the state store's back
	legacy := domain.Session{ID: "legacy-1", PatientID: patient.ID, Title: "Old visit", TreatmentTypeID: "t1"}
	if err := db.Put(ctx, domain.CollectionSessions, legacy); err != nil {
		t.Fatalf("seed legacy session: %v", err)
	}

	fresh := New(db, store.media)
	if fresh.Initialized() {
		t.Fatal("initialized before load")
	}
	if err := fresh.LoadData(ctx); err != nil {
		t.Fatalf("load: %v", err)
	}
	if !fresh.Initialized() {
		t.Fatal("initialized flag not set after load")
	}
	loaded, ok := fresh.Session("legacy-1")
	if !ok {
		t.Fatal("legacy session missing")
	}
	if len(loaded.TreatmentTypeIDs) != 1 || loaded.TreatmentTypeIDs[0] != "t1" {
		t.Fatalf("legacy session not normalized: %+v", loaded)
	}
	photo, ok := fresh.Photo(photos[0].ID)
	if !ok || len(photo.ImageData) == 0 {
		t.Fatalf("photo payload not hydrated: ok=%v %+v", ok, photo)
	}
}

func TestSelectUnknownIDIsNoop(t *testing.T) {
	store, _ := newTestStore(t)
	patient, _, _ := buildFixture(t, store)

	store.SelectPatient(patient.ID)
	store.SelectPatient("ghost")
	if sel := store.Selection(); sel.PatientID != patient.ID {
		t.Fatalf("selection clobbered by unknown id: %+v", sel)
	}
	store.SelectPatient("")
	if sel := store.Selection(); sel != (Selection{}) {
		t.Fatalf("empty id must clear: %+v", sel)
	}
}

func TestUpdateSettingsShallowMerge(t *testing.T) {
	store, db := newTestStore(t)
	ctx := context.Background()

	enabled := true
	hash := "deadbeef"
	merged, err := store.UpdateSettings(ctx, SettingsPatch{
		Privacy: &PrivacyPatch{PINEnabled: &enabled, PINHash: &hash},
	})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if !merged.Privacy.PINEnabled || merged.Privacy.PINHash != "deadbeef" {
		t.Fatalf("privacy not merged: %+v", merged.Privacy)
	}
	if merged.Branding.ClinicName != domain.DefaultClinicName {
		t.Fatalf("branding disturbed by privacy patch: %+v", merged.Branding)
	}
	if merged.Privacy.AutoLockTimeout != domain.DefaultAutoLockMinutes {
		t.Fatalf("untouched field changed: %+v", merged.Privacy)
	}
	raw, ok, err := db.GetSetting(ctx, domain.SettingAppSettings)
	if err != nil || !ok {
		t.Fatalf("settings not persisted: ok=%v err=%v", ok, err)
	}
	var stored domain.AppSettings
	if err := json.Unmarshal(raw, &stored); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if stored.Privacy != merged.Privacy {
		t.Fatalf("durable settings diverged: %+v", stored.Privacy)
	}
}

// failingStore wraps a working backend and fails writes on demand.
type failingStore struct {
	domain.ObjectStore
	fail bool
}

func (f *failingStore) Put(ctx context.Context, col domain.Collection, doc domain.Document) error {
	if f.fail {
		return errors.New("disk full")
	}
	return f.ObjectStore.Put(ctx, col, doc)
}

func (f *failingStore) DeleteMany(ctx context.Context, ids map[domain.Collection][]string) error {
	if f.fail {
		return errors.New("disk full")
	}
	return f.ObjectStore.DeleteMany(ctx, ids)
}

// gatedStore stalls matching Puts until released, holding the write mid-flight.
type gatedStore struct {
	domain.ObjectStore
	gate    func(domain.Document) bool
	entered chan struct{}
	release chan struct{}
}

func (g *gatedStore) Put(ctx context.Context, col domain.Collection, doc domain.Document) error {
	if g.gate(doc) {
		g.entered <- struct{}{}
		<-g.release
	}
	return g.ObjectStore.Put(ctx, col, doc)
}

func TestConcurrentUpdatesAgreeWithDurable(t *testing.T) {
	store, db := newTestStore(t)
	ctx := context.Background()

	patient, err := store.CreatePatient(ctx, domain.Patient{Name: "Jane Doe"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	gated := &gatedStore{
		ObjectStore: store.db,
		entered:     make(chan struct{}),
		release:     make(chan struct{}),
		gate: func(doc domain.Document) bool {
			p, ok := doc.(domain.Patient)
			return ok && p.DateOfBirth != "" && p.TreatmentHistory == ""
		},
	}
	store.db = gated

	firstDone := make(chan error, 1)
	go func() {
		_, _, err := store.UpdatePatient(ctx, patient.ID, func(p *domain.Patient) {
			p.DateOfBirth = "1990-01-01"
		})
		firstDone <- err
	}()
	<-gated.entered

	// The first update is stalled mid durable write; a second update to the
	// same id must not complete until the first releases the write path.
	secondDone := make(chan error, 1)
	go func() {
		_, _, err := store.UpdatePatient(ctx, patient.ID, func(p *domain.Patient) {
			p.TreatmentHistory = "veneers 2025"
		})
		secondDone <- err
	}()
	select {
	case <-secondDone:
		t.Fatal("second update completed while the first held the write path")
	case <-time.After(50 * time.Millisecond):
	}

	close(gated.release)
	if err := <-firstDone; err != nil {
		t.Fatalf("first update: %v", err)
	}
	if err := <-secondDone; err != nil {
		t.Fatalf("second update: %v", err)
	}

	got, ok := store.Patient(patient.ID)
	if !ok || got.DateOfBirth != "1990-01-01" || got.TreatmentHistory != "veneers 2025" {
		t.Fatalf("mirror lost an update: %+v", got)
	}
	raw, ok, err := db.GetByID(ctx, domain.CollectionPatients, patient.ID)
	if err != nil || !ok {
		t.Fatalf("durable miss: ok=%v err=%v", ok, err)
	}
	var stored domain.Patient
	if err := json.Unmarshal(raw, &stored); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if stored != got {
		t.Fatalf("durable %+v diverges from mirror %+v", stored, got)
	}
}

// collectionFailingStore fails Puts to one collection only.
type collectionFailingStore struct {
	domain.ObjectStore
	failCol domain.Collection
}

func (f *collectionFailingStore) Put(ctx context.Context, col domain.Collection, doc domain.Document) error {
	if col == f.failCol {
		return errors.New("disk full")
	}
	return f.ObjectStore.Put(ctx, col, doc)
}

func TestCreateVoiceMemoRollsBackOnLinkFailure(t *testing.T) {
	store, db := newTestStore(t)
	ctx := context.Background()

	patient, err := store.CreatePatient(ctx, domain.Patient{Name: "Jane Doe"})
	if err != nil {
		t.Fatalf("create patient: %v", err)
	}
	session, err := store.CreateSession(ctx, domain.Session{PatientID: patient.ID, Title: "Visit"})
	if err != nil {
		t.Fatalf("create session: %v", err)
	}
	store.db = &collectionFailingStore{ObjectStore: store.db, failCol: domain.CollectionSessions}

	memo, err := store.CreateVoiceMemo(ctx, domain.VoiceMemo{
		SessionID: session.ID,
		AudioData: []byte("OggSx"),
		Duration:  1.5,
	})
	if err == nil {
		t.Fatal("expected session link failure")
	}
	if got := len(store.VoiceMemos()); got != 0 {
		t.Fatalf("memo mirrored despite failed create: %d", got)
	}
	raws, err := db.GetAll(ctx, domain.CollectionVoiceMemos)
	if err != nil {
		t.Fatalf("get memos: %v", err)
	}
	if len(raws) != 0 {
		t.Fatalf("memo record survived rollback: %d records", len(raws))
	}
	if got, _ := store.Session(session.ID); got.VoiceMemoID != "" {
		t.Fatalf("session links a memo that was never created: %+v", got)
	}
	orphan := domain.VoiceMemo{ID: memo.ID}
	if err := store.media.LoadAudio(ctx, &orphan); err == nil {
		t.Fatal("audio payload survived rollback")
	}
}
