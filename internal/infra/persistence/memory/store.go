// Package memory provides an in-memory implementation of the object-store
// contract used for tests and ephemeral environments.
package memory

import (
	"clinicalsnap/pkg/domain"
	"context"
	"encoding/json"
	"errors"
	"sync"
)

// Compile-time contract assertion.
var _ domain.ObjectStore = (*Store)(nil)

var errUnknownCollection = errors.New("unknown collection")

type record struct {
	doc     []byte
	indexes map[domain.Index]string
}

// Store keeps every collection as a map of encoded documents guarded by one
// mutex. Semantics match the sqlite backend: full-record upserts, silent
// deletes of absent ids, atomic DeleteMany.
type Store struct {
	mu          sync.RWMutex
	collections map[domain.Collection]map[string]record
	settings    map[string][]byte
}

// NewStore constructs an empty in-memory object store.
func NewStore() *Store {
	return &Store{
		collections: make(map[domain.Collection]map[string]record),
		settings:    make(map[string][]byte),
	}
}

// Init creates every declared collection. Safe to call repeatedly.
func (s *Store) Init(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, spec := range domain.Collections() {
		if _, ok := s.collections[spec.Name]; !ok {
			s.collections[spec.Name] = make(map[string]record)
		}
	}
	return nil
}

func (s *Store) collection(col domain.Collection) (map[string]record, error) {
	records, ok := s.collections[col]
	if !ok {
		return nil, &domain.StorageError{Op: "lookup", Collection: col, Err: errUnknownCollection}
	}
	return records, nil
}

// GetAll returns every document in the collection, order unspecified.
func (s *Store) GetAll(_ context.Context, col domain.Collection) ([]json.RawMessage, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	records, err := s.collection(col)
	if err != nil {
		return nil, err
	}
	out := make([]json.RawMessage, 0, len(records))
	for _, rec := range records {
		out = append(out, cloneDoc(rec.doc))
	}
	return out, nil
}

// GetByID returns the document or reports absence via the boolean.
func (s *Store) GetByID(_ context.Context, col domain.Collection, id string) (json.RawMessage, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	records, err := s.collection(col)
	if err != nil {
		return nil, false, err
	}
	rec, ok := records[id]
	if !ok {
		return nil, false, nil
	}
	return cloneDoc(rec.doc), true, nil
}

// GetByIndex returns all documents whose indexed field equals value.
func (s *Store) GetByIndex(_ context.Context, col domain.Collection, idx domain.Index, value string) ([]json.RawMessage, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	records, err := s.collection(col)
	if err != nil {
		return nil, err
	}
	var out []json.RawMessage
	for _, rec := range records {
		if rec.indexes[idx] == value {
			out = append(out, cloneDoc(rec.doc))
		}
	}
	return out, nil
}

// Put upserts the full document.
func (s *Store) Put(_ context.Context, col domain.Collection, doc domain.Document) error {
	encoded, err := json.Marshal(doc)
	if err != nil {
		return &domain.StorageError{Op: "put", Collection: col, Err: err}
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	records, err := s.collection(col)
	if err != nil {
		return err
	}
	indexes := make(map[domain.Index]string, len(doc.IndexValues()))
	for idx, value := range doc.IndexValues() {
		indexes[idx] = value
	}
	records[doc.RecordID()] = record{doc: encoded, indexes: indexes}
	return nil
}

// Delete removes the record if present; absent ids are a no-op.
func (s *Store) Delete(_ context.Context, col domain.Collection, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	records, err := s.collection(col)
	if err != nil {
		return err
	}
	delete(records, id)
	return nil
}

// DeleteMany removes records across collections in one state transition.
func (s *Store) DeleteMany(_ context.Context, ids map[domain.Collection][]string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for col := range ids {
		if _, err := s.collection(col); err != nil {
			return err
		}
	}
	for col, colIDs := range ids {
		records := s.collections[col]
		for _, id := range colIDs {
			delete(records, id)
		}
	}
	return nil
}

// GetSetting returns the raw value stored under key.
func (s *Store) GetSetting(_ context.Context, key string) (json.RawMessage, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	value, ok := s.settings[key]
	if !ok {
		return nil, false, nil
	}
	return cloneDoc(value), true, nil
}

// PutSetting upserts a settings value under key.
func (s *Store) PutSetting(_ context.Context, key string, value any) error {
	encoded, err := json.Marshal(value)
	if err != nil {
		return &domain.StorageError{Op: "put setting", Err: err}
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.settings[key] = encoded
	return nil
}

// Close releases nothing; present to satisfy the contract.
func (s *Store) Close() error { return nil }

func cloneDoc(doc []byte) json.RawMessage {
	return json.RawMessage(append([]byte(nil), doc...))
}
