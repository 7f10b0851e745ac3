// Command clinicalsnap-admin opens the configured object store, runs the
// startup migration, and prints a summary of the dataset: collection counts,
// branding and privacy settings (hash elided), and the migration report.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"time"

	"go.uber.org/zap"

	"clinicalsnap/internal/blob"
	"clinicalsnap/internal/infra/persistence"
	"clinicalsnap/internal/logging"
	"clinicalsnap/internal/media"
	"clinicalsnap/internal/migrate"
	"clinicalsnap/pkg/domain"
)

var exitFunc = os.Exit

func main() {
	exitFunc(run(os.Args[1:]))
}

func run(args []string) int {
	fs := flag.NewFlagSet("clinicalsnap-admin", flag.ContinueOnError)
	migrateOnly := fs.Bool("migrate-only", false, "run migrations and exit without printing the dataset summary")
	timeout := fs.Duration("timeout", 30*time.Second, "overall deadline for store access")
	logLevel := fs.String("log-level", "info", "log level: debug|info|warn|error")
	if err := fs.Parse(args); err != nil {
		return 2
	}

	log, err := buildLogger(*logLevel)
	if err != nil {
		fmt.Fprintln(os.Stderr, "logger:", err)
		return 1
	}
	defer func() { _ = log.Sync() }()

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	db, err := persistence.Open(ctx)
	if err != nil {
		log.Error("open store", zap.Error(err))
		return 1
	}
	defer func() { _ = db.Close() }()

	blobs, err := blob.Open(ctx)
	if err != nil {
		log.Error("open blob store", zap.Error(err))
		return 1
	}
	lib := media.NewLibrary(blobs)

	report, err := migrate.NewRunner(db, lib, migrate.WithLogger(log)).Run(ctx)
	if err != nil {
		log.Error("migration failed", zap.Error(err))
		return 1
	}
	fmt.Printf("migration: first_run=%v seeded=%d added=%d normalized=%d backfilled=%d\n",
		report.FirstRun, report.SeededTypes, report.AddedTypes,
		report.NormalizedSessions, report.BackfilledMemos)
	if *migrateOnly {
		return 0
	}

	if err := printSummary(ctx, db); err != nil {
		log.Error("summary failed", zap.Error(err))
		return 1
	}
	return 0
}

func buildLogger(level string) (*zap.Logger, error) {
	return logging.New(level, "console", "clinicalsnap-admin")
}

func printSummary(ctx context.Context, db domain.ObjectStore) error {
	for _, spec := range domain.Collections() {
		raws, err := db.GetAll(ctx, spec.Name)
		if err != nil {
			return err
		}
		fmt.Printf("%-16s %d\n", spec.Name, len(raws))
	}

	raw, ok, err := db.GetSetting(ctx, domain.SettingAppSettings)
	if err != nil {
		return err
	}
	if !ok {
		fmt.Println("settings: absent")
		return nil
	}
	var settings domain.AppSettings
	if err := json.Unmarshal(raw, &settings); err != nil {
		return err
	}
	fmt.Printf("clinic: %q default_logo=%v\n", settings.Branding.ClinicName, settings.Branding.UseDefaultLogo)
	fmt.Printf("privacy: pin_enabled=%v auto_lock_minutes=%d\n",
		settings.Privacy.PINEnabled, settings.Privacy.AutoLockTimeout)
	return nil
}
