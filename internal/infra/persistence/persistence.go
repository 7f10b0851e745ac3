// Package persistence selects and opens an object-store backend.
package persistence

import (
	"context"
	"fmt"
	"os"

	"clinicalsnap/internal/infra/persistence/memory"
	"clinicalsnap/internal/infra/persistence/postgres"
	"clinicalsnap/internal/infra/persistence/sqlite"
	"clinicalsnap/pkg/domain"
)

// Driver identifies a concrete persistent storage implementation.
type Driver string

const (
	DriverMemory   Driver = "memory"   // in-memory only (tests / ephemeral)
	DriverSQLite   Driver = "sqlite"   // embedded sqlite file
	DriverPostgres Driver = "postgres" // PostgreSQL server
)

// Open selects a backend using environment variables. Defaults to sqlite
// when unset. An open failure wraps domain.ErrStorageUnavailable; there is no
// fallback to memory-only operation.
//
//	CLINICALSNAP_STORAGE_DRIVER: memory|sqlite|postgres (default sqlite)
//	CLINICALSNAP_SQLITE_PATH: path to sqlite file (default ./clinicalsnap.db)
//	CLINICALSNAP_POSTGRES_DSN: postgres DSN when driver=postgres
func Open(ctx context.Context) (domain.ObjectStore, error) {
	driver := os.Getenv("CLINICALSNAP_STORAGE_DRIVER")
	if driver == "" {
		driver = string(DriverSQLite)
	}
	switch Driver(driver) {
	case DriverMemory:
		return memory.NewStore(), nil
	case DriverSQLite:
		return sqlite.NewStore(os.Getenv("CLINICALSNAP_SQLITE_PATH"))
	case DriverPostgres:
		return postgres.NewStore(ctx, os.Getenv("CLINICALSNAP_POSTGRES_DSN"))
	default:
		return nil, fmt.Errorf("unknown storage driver %s", driver)
	}
}
