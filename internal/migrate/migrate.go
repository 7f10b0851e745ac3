// Package migrate brings a possibly-absent or outdated persisted dataset to
// the shape the current application expects. Every step is independently
// idempotent: a second consecutive run performs zero additional writes, and a
// failed run can simply be retried in full on next boot.
package migrate

import (
	"context"
	"encoding/json"
	"fmt"
	"slices"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"clinicalsnap/internal/media"
	"clinicalsnap/pkg/domain"
)

// Report summarizes the writes one migration run performed.
type Report struct {
	FirstRun           bool
	SeededTypes        int
	AddedTypes         int
	NormalizedSessions int
	BackfilledMemos    int
}

// Writes is the total number of records a run persisted.
func (r Report) Writes() int {
	return r.SeededTypes + r.AddedTypes + r.NormalizedSessions + r.BackfilledMemos
}

// Runner executes the startup migration against one object store.
type Runner struct {
	db    domain.ObjectStore
	media *media.Library
	log   *zap.Logger
	now   func() domain.Millis
	newID func() string
}

// Option configures a Runner.
type Option func(*Runner)

// WithLogger sets the runner logger.
func WithLogger(log *zap.Logger) Option { return func(r *Runner) { r.log = log } }

// WithClock overrides the timestamp source (tests).
func WithClock(now func() domain.Millis) Option { return func(r *Runner) { r.now = now } }

// WithIDGenerator overrides the id source (tests).
func WithIDGenerator(newID func() string) Option { return func(r *Runner) { r.newID = newID } }

// NewRunner constructs a Runner over the given store and media library.
func NewRunner(db domain.ObjectStore, lib *media.Library, opts ...Option) *Runner {
	r := &Runner{
		db:    db,
		media: lib,
		log:   zap.NewNop(),
		now:   func() domain.Millis { return time.Now().UnixMilli() },
		newID: uuid.NewString,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Run initializes the object store and applies every migration step in order:
// first-run seeding or catalog growth, then the unconditional session and
// voice-memo backfills.
func (r *Runner) Run(ctx context.Context) (Report, error) {
	var report Report
	if err := r.db.Init(ctx); err != nil {
		return report, err
	}

	raw, ok, err := r.db.GetSetting(ctx, domain.SettingInitialized)
	if err != nil {
		return report, fmt.Errorf("read initialized flag: %w", err)
	}
	initialized := false
	if ok {
		if err := json.Unmarshal(raw, &initialized); err != nil {
			return report, fmt.Errorf("decode initialized flag: %w", err)
		}
	}

	if !initialized {
		report.FirstRun = true
		if report.SeededTypes, err = r.seed(ctx); err != nil {
			return report, err
		}
	} else {
		if report.AddedTypes, err = r.growCatalog(ctx); err != nil {
			return report, err
		}
	}

	if report.NormalizedSessions, err = r.normalizeSessions(ctx); err != nil {
		return report, err
	}
	if report.BackfilledMemos, err = r.backfillMemoMIME(ctx); err != nil {
		return report, err
	}

	r.log.Info("migration complete",
		zap.Bool("first_run", report.FirstRun),
		zap.Int("seeded_types", report.SeededTypes),
		zap.Int("added_types", report.AddedTypes),
		zap.Int("normalized_sessions", report.NormalizedSessions),
		zap.Int("backfilled_memos", report.BackfilledMemos),
	)
	return report, nil
}

// seed writes the full default catalog and the default settings singleton,
// then sets the initialized flag.
func (r *Runner) seed(ctx context.Context) (int, error) {
	seeded := 0
	for _, def := range domain.DefaultTreatmentTypes() {
		tt := domain.TreatmentType{
			ID:        r.newID(),
			Name:      def.Name,
			Color:     def.Color,
			CreatedAt: r.now(),
		}
		if err := r.db.Put(ctx, domain.CollectionTreatmentTypes, tt); err != nil {
			return seeded, fmt.Errorf("seed treatment type %q: %w", def.Name, err)
		}
		seeded++
	}
	if err := r.db.PutSetting(ctx, domain.SettingAppSettings, domain.DefaultAppSettings()); err != nil {
		return seeded, fmt.Errorf("seed settings: %w", err)
	}
	if err := r.db.PutSetting(ctx, domain.SettingInitialized, true); err != nil {
		return seeded, fmt.Errorf("set initialized flag: %w", err)
	}
	return seeded, nil
}

// growCatalog inserts every default treatment type whose name is not already
// present. Matching is by exact name, so user-renamed entries are left alone
// and never duplicated by id.
func (r *Runner) growCatalog(ctx context.Context) (int, error) {
	raws, err := r.db.GetAll(ctx, domain.CollectionTreatmentTypes)
	if err != nil {
		return 0, fmt.Errorf("read catalog: %w", err)
	}
	existing := make(map[string]bool, len(raws))
	for _, raw := range raws {
		var tt domain.TreatmentType
		if err := json.Unmarshal(raw, &tt); err != nil {
			return 0, fmt.Errorf("decode treatment type: %w", err)
		}
		existing[tt.Name] = true
	}
	added := 0
	for _, def := range domain.DefaultTreatmentTypes() {
		if existing[def.Name] {
			continue
		}
		tt := domain.TreatmentType{
			ID:        r.newID(),
			Name:      def.Name,
			Color:     def.Color,
			CreatedAt: r.now(),
		}
		if err := r.db.Put(ctx, domain.CollectionTreatmentTypes, tt); err != nil {
			return added, fmt.Errorf("add treatment type %q: %w", def.Name, err)
		}
		r.log.Info("catalog entry added", zap.String("name", def.Name))
		added++
	}
	return added, nil
}

// normalizeSessions backfills the multi-valued treatment field on every
// session whose persisted form differs from its normalized form. The legacy
// single-valued field is left intact.
func (r *Runner) normalizeSessions(ctx context.Context) (int, error) {
	raws, err := r.db.GetAll(ctx, domain.CollectionSessions)
	if err != nil {
		return 0, fmt.Errorf("read sessions: %w", err)
	}
	changed := 0
	for _, raw := range raws {
		var session domain.Session
		if err := json.Unmarshal(raw, &session); err != nil {
			return changed, fmt.Errorf("decode session: %w", err)
		}
		normalized := domain.NormalizeSession(session)
		if session.TreatmentTypeIDs != nil && slices.Equal(session.TreatmentTypeIDs, normalized.TreatmentTypeIDs) {
			continue
		}
		if err := r.db.Put(ctx, domain.CollectionSessions, normalized); err != nil {
			return changed, fmt.Errorf("normalize session %s: %w", session.ID, err)
		}
		changed++
	}
	return changed, nil
}

// backfillMemoMIME sniffs a MIME type for every voice memo lacking one. When
// the audio payload cannot be read the default type is recorded, so the memo
// is not re-examined on every boot.
func (r *Runner) backfillMemoMIME(ctx context.Context) (int, error) {
	raws, err := r.db.GetAll(ctx, domain.CollectionVoiceMemos)
	if err != nil {
		return 0, fmt.Errorf("read voice memos: %w", err)
	}
	changed := 0
	for _, raw := range raws {
		var memo domain.VoiceMemo
		if err := json.Unmarshal(raw, &memo); err != nil {
			return changed, fmt.Errorf("decode voice memo: %w", err)
		}
		if memo.MIMEType != "" {
			continue
		}
		if err := r.media.LoadAudio(ctx, &memo); err != nil {
			r.log.Warn("memo payload unreadable, defaulting mime",
				zap.String("memo_id", memo.ID), zap.Error(err))
		}
		memo.MIMEType = domain.DetectAudioMIME(memo.AudioData)
		memo.AudioData = nil
		if err := r.db.Put(ctx, domain.CollectionVoiceMemos, memo); err != nil {
			return changed, fmt.Errorf("backfill memo %s: %w", memo.ID, err)
		}
		changed++
	}
	return changed, nil
}
