// Package postgres implements the object-store contract on PostgreSQL for
// deployments that already run a server. The schema mirrors the sqlite
// backend: one table per collection with a JSONB document and a column per
// secondary index. This remains a single-writer store; it is not a sync or
// multi-device mechanism.
package postgres

import (
	"clinicalsnap/pkg/domain"
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"

	_ "github.com/jackc/pgx/v5/stdlib" // register pgx as a database/sql driver
)

// Compile-time contract assertion.
var _ domain.ObjectStore = (*Store)(nil)

const (
	defaultDriver = "pgx"
	defaultDSN    = "postgres://localhost/clinicalsnap?sslmode=disable"
)

var (
	sqlOpen = sql.Open
	openMu  sync.Mutex
)

// Store persists collections in PostgreSQL.
type Store struct {
	db *sql.DB
}

// NewStore opens a connection using the provided DSN (falls back to
// defaultDSN). Connection failures wrap domain.ErrStorageUnavailable.
func NewStore(ctx context.Context, dsn string) (*Store, error) {
	if dsn == "" {
		dsn = defaultDSN
	}
	openMu.Lock()
	db, err := sqlOpen(defaultDriver, dsn)
	openMu.Unlock()
	if err != nil {
		return nil, fmt.Errorf("%w: open postgres: %v", domain.ErrStorageUnavailable, err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("%w: ping postgres: %v", domain.ErrStorageUnavailable, err)
	}
	return &Store{db: db}, nil
}

// Init applies the collection schema idempotently.
func (s *Store) Init(ctx context.Context) error {
	for _, spec := range domain.Collections() {
		cols := []string{"id TEXT PRIMARY KEY"}
		for _, idx := range spec.Indexes {
			cols = append(cols, fmt.Sprintf("%s TEXT NOT NULL DEFAULT ''", idx))
		}
		cols = append(cols, "doc JSONB NOT NULL")
		ddl := fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s (%s)", spec.Name, strings.Join(cols, ", "))
		if _, err := s.db.ExecContext(ctx, ddl); err != nil {
			return fmt.Errorf("%w: create %s: %v", domain.ErrStorageUnavailable, spec.Name, err)
		}
		for _, idx := range spec.Indexes {
			ddl := fmt.Sprintf("CREATE INDEX IF NOT EXISTS %s_%s ON %s(%s)", spec.Name, idx, spec.Name, idx)
			if _, err := s.db.ExecContext(ctx, ddl); err != nil {
				return fmt.Errorf("%w: index %s.%s: %v", domain.ErrStorageUnavailable, spec.Name, idx, err)
			}
		}
	}
	if _, err := s.db.ExecContext(ctx, `CREATE TABLE IF NOT EXISTS settings (key TEXT PRIMARY KEY, value JSONB NOT NULL)`); err != nil {
		return fmt.Errorf("%w: create settings: %v", domain.ErrStorageUnavailable, err)
	}
	return nil
}

func collectionSpec(col domain.Collection) (domain.CollectionSpec, error) {
	for _, spec := range domain.Collections() {
		if spec.Name == col {
			return spec, nil
		}
	}
	return domain.CollectionSpec{}, fmt.Errorf("unknown collection %q", col)
}

func indexed(spec domain.CollectionSpec, idx domain.Index) bool {
	for _, candidate := range spec.Indexes {
		if candidate == idx {
			return true
		}
	}
	return false
}

// GetAll returns every document in the collection, order unspecified.
func (s *Store) GetAll(ctx context.Context, col domain.Collection) ([]json.RawMessage, error) {
	if _, err := collectionSpec(col); err != nil {
		return nil, &domain.StorageError{Op: "get all", Collection: col, Err: err}
	}
	return s.queryDocs(ctx, col, fmt.Sprintf("SELECT doc FROM %s", col))
}

// GetByID returns the document or reports absence via the boolean.
func (s *Store) GetByID(ctx context.Context, col domain.Collection, id string) (json.RawMessage, bool, error) {
	if _, err := collectionSpec(col); err != nil {
		return nil, false, &domain.StorageError{Op: "get", Collection: col, Err: err}
	}
	var doc []byte
	query := fmt.Sprintf("SELECT doc FROM %s WHERE id = $1", col)
	err := s.db.QueryRowContext(ctx, query, id).Scan(&doc)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, &domain.StorageError{Op: "get", Collection: col, Err: err}
	}
	return doc, true, nil
}

// GetByIndex returns all documents whose indexed field equals value.
func (s *Store) GetByIndex(ctx context.Context, col domain.Collection, idx domain.Index, value string) ([]json.RawMessage, error) {
	spec, err := collectionSpec(col)
	if err != nil {
		return nil, &domain.StorageError{Op: "get by index", Collection: col, Err: err}
	}
	if !indexed(spec, idx) {
		return nil, &domain.StorageError{Op: "get by index", Collection: col, Err: fmt.Errorf("no index %q", idx)}
	}
	query := fmt.Sprintf("SELECT doc FROM %s WHERE %s = $1", col, idx)
	return s.queryDocs(ctx, col, query, value)
}

func (s *Store) queryDocs(ctx context.Context, col domain.Collection, query string, args ...any) ([]json.RawMessage, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, &domain.StorageError{Op: "query", Collection: col, Err: err}
	}
	defer func() { _ = rows.Close() }()
	var out []json.RawMessage
	for rows.Next() {
		var doc []byte
		if err := rows.Scan(&doc); err != nil {
			return nil, &domain.StorageError{Op: "scan", Collection: col, Err: err}
		}
		out = append(out, doc)
	}
	if err := rows.Err(); err != nil {
		return nil, &domain.StorageError{Op: "iterate", Collection: col, Err: err}
	}
	return out, nil
}

// Put upserts the full document in one statement.
func (s *Store) Put(ctx context.Context, col domain.Collection, doc domain.Document) error {
	spec, err := collectionSpec(col)
	if err != nil {
		return &domain.StorageError{Op: "put", Collection: col, Err: err}
	}
	encoded, err := json.Marshal(doc)
	if err != nil {
		return &domain.StorageError{Op: "put", Collection: col, Err: err}
	}
	columns := []string{"id"}
	args := []any{doc.RecordID()}
	values := doc.IndexValues()
	for _, idx := range spec.Indexes {
		columns = append(columns, string(idx))
		args = append(args, values[idx])
	}
	columns = append(columns, "doc")
	args = append(args, encoded)

	placeholders := make([]string, len(columns))
	for i := range columns {
		placeholders[i] = fmt.Sprintf("$%d", i+1)
	}
	var updates []string
	for _, column := range columns[1:] {
		updates = append(updates, fmt.Sprintf("%s=EXCLUDED.%s", column, column))
	}
	query := fmt.Sprintf(
		"INSERT INTO %s(%s) VALUES(%s) ON CONFLICT(id) DO UPDATE SET %s",
		col, strings.Join(columns, ","), strings.Join(placeholders, ","), strings.Join(updates, ","),
	)
	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		return &domain.StorageError{Op: "put", Collection: col, Err: err}
	}
	return nil
}

// Delete removes the record if present; absent ids are a no-op.
func (s *Store) Delete(ctx context.Context, col domain.Collection, id string) error {
	if _, err := collectionSpec(col); err != nil {
		return &domain.StorageError{Op: "delete", Collection: col, Err: err}
	}
	query := fmt.Sprintf("DELETE FROM %s WHERE id = $1", col)
	if _, err := s.db.ExecContext(ctx, query, id); err != nil {
		return &domain.StorageError{Op: "delete", Collection: col, Err: err}
	}
	return nil
}

// DeleteMany removes records across collections inside one transaction.
func (s *Store) DeleteMany(ctx context.Context, ids map[domain.Collection][]string) (retErr error) {
	for col := range ids {
		if _, err := collectionSpec(col); err != nil {
			return &domain.StorageError{Op: "delete many", Collection: col, Err: err}
		}
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return &domain.StorageError{Op: "delete many", Err: err}
	}
	defer func() {
		if retErr != nil {
			_ = tx.Rollback()
		}
	}()
	for col, colIDs := range ids {
		query := fmt.Sprintf("DELETE FROM %s WHERE id = $1", col)
		for _, id := range colIDs {
			if _, err := tx.ExecContext(ctx, query, id); err != nil {
				retErr = &domain.StorageError{Op: "delete many", Collection: col, Err: err}
				return retErr
			}
		}
	}
	if err := tx.Commit(); err != nil {
		retErr = &domain.StorageError{Op: "delete many", Err: err}
	}
	return retErr
}

// GetSetting returns the raw value stored under key.
func (s *Store) GetSetting(ctx context.Context, key string) (json.RawMessage, bool, error) {
	var value []byte
	err := s.db.QueryRowContext(ctx, `SELECT value FROM settings WHERE key = $1`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, &domain.StorageError{Op: "get setting", Err: err}
	}
	return value, true, nil
}

// PutSetting upserts a settings value under key.
func (s *Store) PutSetting(ctx context.Context, key string, value any) error {
	encoded, err := json.Marshal(value)
	if err != nil {
		return &domain.StorageError{Op: "put setting", Err: err}
	}
	query := `INSERT INTO settings(key,value) VALUES($1,$2) ON CONFLICT(key) DO UPDATE SET value=EXCLUDED.value`
	if _, err := s.db.ExecContext(ctx, query, key, encoded); err != nil {
		return &domain.StorageError{Op: "put setting", Err: err}
	}
	return nil
}

// Close releases the database handle.
func (s *Store) Close() error { return s.db.Close() }

// DB exposes the underlying sql.DB for integration testing hooks.
func (s *Store) DB() *sql.DB { return s.db }

// OverrideSQLOpen swaps the sqlOpen function for tests and returns a restore function.
func OverrideSQLOpen(fn func(driverName, dataSourceName string) (*sql.DB, error)) func() {
	openMu.Lock()
	defer openMu.Unlock()
	prev := sqlOpen
	sqlOpen = fn
	return func() {
		openMu.Lock()
		defer openMu.Unlock()
		sqlOpen = prev
	}
}
