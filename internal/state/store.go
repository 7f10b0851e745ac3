// Package state holds the in-memory mirror of every persisted collection plus
// the current UI selection, and mediates all writes: durable first, memory
// second, so the mirror never diverges ahead of the object store.
package state

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"clinicalsnap/internal/media"
	"clinicalsnap/internal/observability"
	"clinicalsnap/pkg/domain"
)

// Selection is the UI selection state. Empty strings mean nothing selected.
type Selection struct {
	PatientID string
	SessionID string
	PhotoID   string
	PairingID string
}

// Store is the application state store. All exported methods are safe for
// concurrent use. Writes hold mu across the durable write and the in-memory
// mirror write, so concurrent updates to the same id serialize and the last
// writer wins in both layers.
type Store struct {
	db      domain.ObjectStore
	media   *media.Library
	log     *zap.Logger
	metrics observability.MetricsRecorder
	tracer  observability.Tracer
	now     func() domain.Millis
	newID   func() string

	mu             sync.RWMutex
	initialized    bool
	patients       map[string]domain.Patient
	sessions       map[string]domain.Session
	photos         map[string]domain.Photo
	annotations    map[string]domain.Annotation
	pairings       map[string]domain.BeforeAfterPairing
	treatmentTypes map[string]domain.TreatmentType
	voiceMemos     map[string]domain.VoiceMemo
	settings       domain.AppSettings
	selection      Selection
}

// Option configures a Store.
type Option func(*Store)

// WithLogger sets the store logger.
func WithLogger(log *zap.Logger) Option { return func(s *Store) { s.log = log } }

// WithMetrics sets the metrics recorder observing every operation.
func WithMetrics(rec observability.MetricsRecorder) Option {
	return func(s *Store) { s.metrics = rec }
}

// WithTracer sets the tracer wrapping every operation.
func WithTracer(tr observability.Tracer) Option { return func(s *Store) { s.tracer = tr } }

// WithClock overrides the timestamp source (tests).
func WithClock(now func() domain.Millis) Option { return func(s *Store) { s.now = now } }

// WithIDGenerator overrides the id source (tests).
func WithIDGenerator(newID func() string) Option { return func(s *Store) { s.newID = newID } }

// New constructs an empty store over the given object store and media
// library. Call LoadData before serving reads.
func New(db domain.ObjectStore, lib *media.Library, opts ...Option) *Store {
	s := &Store{
		db:             db,
		media:          lib,
		log:            zap.NewNop(),
		metrics:        observability.NopMetricsRecorder{},
		tracer:         observability.NopTracer{},
		now:            func() domain.Millis { return time.Now().UnixMilli() },
		newID:          uuid.NewString,
		patients:       make(map[string]domain.Patient),
		sessions:       make(map[string]domain.Session),
		photos:         make(map[string]domain.Photo),
		annotations:    make(map[string]domain.Annotation),
		pairings:       make(map[string]domain.BeforeAfterPairing),
		treatmentTypes: make(map[string]domain.TreatmentType),
		voiceMemos:     make(map[string]domain.VoiceMemo),
		settings:       domain.DefaultAppSettings(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// instrument wraps one state-store operation with tracing and metrics.
func (s *Store) instrument(ctx context.Context, op string, fn func(context.Context) error) error {
	ctx, span := s.tracer.Start(ctx, op)
	start := time.Now()
	err := fn(ctx)
	span.End(err)
	s.metrics.Observe(ctx, op, err == nil, time.Since(start))
	if err != nil {
		s.log.Warn("state operation failed", zap.String("operation", op), zap.Error(err))
	}
	return err
}

// Initialized reports whether LoadData has completed successfully. Dependent
// surfaces (the lock screen in particular) gate on it.
func (s *Store) Initialized() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.initialized
}

// LoadData fetches every collection and the settings singleton in parallel,
// normalizes every session, hydrates media payloads, and swaps the whole
// in-memory state in one transition.
func (s *Store) LoadData(ctx context.Context) error {
	return s.instrument(ctx, "load_data", s.loadData)
}

func (s *Store) loadData(ctx context.Context) error {
	var (
		patients       map[string]domain.Patient
		sessions       map[string]domain.Session
		photos         map[string]domain.Photo
		annotations    map[string]domain.Annotation
		pairings       map[string]domain.BeforeAfterPairing
		treatmentTypes map[string]domain.TreatmentType
		voiceMemos     map[string]domain.VoiceMemo
		settings       = domain.DefaultAppSettings()
	)

	var wg sync.WaitGroup
	errs := make([]error, 8)
	run := func(i int, fn func() error) {
		wg.Add(1)
		go func() {
			defer wg.Done()
			errs[i] = fn()
		}()
	}
	run(0, func() (err error) {
		patients, err = loadCollection[domain.Patient](ctx, s.db, domain.CollectionPatients)
		return
	})
	run(1, func() (err error) {
		sessions, err = loadCollection[domain.Session](ctx, s.db, domain.CollectionSessions)
		return
	})
	run(2, func() (err error) {
		photos, err = loadCollection[domain.Photo](ctx, s.db, domain.CollectionPhotos)
		return
	})
	run(3, func() (err error) {
		annotations, err = loadCollection[domain.Annotation](ctx, s.db, domain.CollectionAnnotations)
		return
	})
	run(4, func() (err error) {
		pairings, err = loadCollection[domain.BeforeAfterPairing](ctx, s.db, domain.CollectionPairings)
		return
	})
	run(5, func() (err error) {
		treatmentTypes, err = loadCollection[domain.TreatmentType](ctx, s.db, domain.CollectionTreatmentTypes)
		return
	})
	run(6, func() (err error) {
		voiceMemos, err = loadCollection[domain.VoiceMemo](ctx, s.db, domain.CollectionVoiceMemos)
		return
	})
	run(7, func() error {
		raw, ok, err := s.db.GetSetting(ctx, domain.SettingAppSettings)
		if err != nil {
			return err
		}
		if ok {
			return json.Unmarshal(raw, &settings)
		}
		return nil
	})
	wg.Wait()
	for _, err := range errs {
		if err != nil {
			return err
		}
	}

	for id, session := range sessions {
		sessions[id] = domain.NormalizeSession(session)
	}
	// Media payloads are hydrated best effort: a record whose blob is gone is
	// still served, with empty payload, rather than failing the whole boot.
	for id, photo := range photos {
		if err := s.media.LoadPhoto(ctx, &photo); err != nil {
			s.log.Warn("photo payload missing", zap.String("photo_id", id), zap.Error(err))
			continue
		}
		photos[id] = photo
	}
	for id, memo := range voiceMemos {
		if err := s.media.LoadAudio(ctx, &memo); err != nil {
			s.log.Warn("memo payload missing", zap.String("memo_id", id), zap.Error(err))
			continue
		}
		voiceMemos[id] = memo
	}

	s.mu.Lock()
	s.patients = patients
	s.sessions = sessions
	s.photos = photos
	s.annotations = annotations
	s.pairings = pairings
	s.treatmentTypes = treatmentTypes
	s.voiceMemos = voiceMemos
	s.settings = settings
	s.selection = Selection{}
	s.initialized = true
	s.mu.Unlock()
	return nil
}

func loadCollection[T domain.Document](ctx context.Context, db domain.ObjectStore, col domain.Collection) (map[string]T, error) {
	raws, err := db.GetAll(ctx, col)
	if err != nil {
		return nil, err
	}
	out := make(map[string]T, len(raws))
	for _, raw := range raws {
		var rec T
		if err := json.Unmarshal(raw, &rec); err != nil {
			return nil, fmt.Errorf("decode %s record: %w", col, err)
		}
		out[rec.RecordID()] = rec
	}
	return out, nil
}
