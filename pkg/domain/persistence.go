package domain

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
)

// Collection names a persisted set of records of one entity type.
type Collection string

// Persisted collections, one per entity type.
const (
	CollectionPatients       Collection = "patients"
	CollectionSessions       Collection = "sessions"
	CollectionPhotos         Collection = "photos"
	CollectionAnnotations    Collection = "annotations"
	CollectionPairings       Collection = "pairings"
	CollectionTreatmentTypes Collection = "treatment_types"
	CollectionVoiceMemos     Collection = "voice_memos"
)

// Index names a secondary index mapping a foreign-key field value to the ids
// of matching records.
type Index string

// Secondary index names shared by all object-store backends.
const (
	IndexPatientID Index = "patient_id"
	IndexSessionID Index = "session_id"
	IndexPhotoID   Index = "photo_id"
)

// Keys in the key-value settings collection.
const (
	SettingInitialized = "initialized"
	SettingAppSettings = "appSettings"
)

// CollectionSpec declares a collection and its secondary indexes; backends
// derive their schema from it.
type CollectionSpec struct {
	Name    Collection
	Indexes []Index
}

// Collections returns the full persistent schema. Init on every backend must
// be able to apply it any number of times without disturbing existing data.
func Collections() []CollectionSpec {
	return []CollectionSpec{
		{Name: CollectionPatients},
		{Name: CollectionSessions, Indexes: []Index{IndexPatientID}},
		{Name: CollectionPhotos, Indexes: []Index{IndexSessionID, IndexPatientID}},
		{Name: CollectionAnnotations, Indexes: []Index{IndexPhotoID}},
		{Name: CollectionPairings, Indexes: []Index{IndexSessionID}},
		{Name: CollectionTreatmentTypes},
		{Name: CollectionVoiceMemos, Indexes: []Index{IndexSessionID}},
	}
}

// Document is the shape every persisted record exposes to the object store:
// its primary key and the values of its secondary-index fields.
type Document interface {
	RecordID() string
	IndexValues() map[Index]string
}

// ErrStorageUnavailable indicates the persistent store could not be opened.
// Fatal at boot; the core never falls back to memory-only operation.
var ErrStorageUnavailable = errors.New("storage unavailable")

// StorageError wraps a failed object-store operation. The state store must
// leave its in-memory mirror untouched when one is returned.
type StorageError struct {
	Op         string
	Collection Collection
	Err        error
}

func (e *StorageError) Error() string {
	if e.Collection != "" {
		return fmt.Sprintf("storage: %s %s: %v", e.Op, e.Collection, e.Err)
	}
	return fmt.Sprintf("storage: %s: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error { return e.Err }

// ObjectStore is the durable persistence contract: named collections of
// JSON documents keyed by id, with optional secondary indexes, plus a
// key-value settings collection.
//
// GetByID reports a missing id via the boolean, never an error. Delete of an
// absent id is a no-op. Put is a full-record upsert and must be
// all-or-nothing. DeleteMany removes records across collections in a single
// atomic unit where the backend supports one.
type ObjectStore interface {
	Init(ctx context.Context) error
	GetAll(ctx context.Context, col Collection) ([]json.RawMessage, error)
	GetByID(ctx context.Context, col Collection, id string) (json.RawMessage, bool, error)
	GetByIndex(ctx context.Context, col Collection, idx Index, value string) ([]json.RawMessage, error)
	Put(ctx context.Context, col Collection, doc Document) error
	Delete(ctx context.Context, col Collection, id string) error
	DeleteMany(ctx context.Context, ids map[Collection][]string) error
	GetSetting(ctx context.Context, key string) (json.RawMessage, bool, error)
	PutSetting(ctx context.Context, key string, value any) error
	Close() error
}
