package database

import (
	"context"
	"embed"
	"fmt"
	"io/fs"
	"sort"
	"strings"

	"github.com/MonkyMars/gecho"
	"github.com/uptrace/bun"
)

//go:embed migrations/*.sql
var migrationFiles embed.FS

// SchemaMigration records an applied migration file
type SchemaMigration struct {
	bun.BaseModel `bun:"table:schema_migrations"`
	Version       string `bun:"version,pk"`
}

// Migrate applies every embedded .sql file not yet recorded in
// schema_migrations, in file name order, each in its own transaction.
func Migrate(ctx context.Context, db *bun.DB, logger *gecho.Logger) error {
	return migrate(ctx, db, migrationFiles, logger)
}

func migrate(ctx context.Context, db *bun.DB, fsys fs.FS, logger *gecho.Logger) error {
	_, err := db.NewRaw(`CREATE TABLE IF NOT EXISTS schema_migrations (
		version TEXT PRIMARY KEY,
		applied_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`).Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to create schema_migrations table: %w", err)
	}

	files, err := fs.Glob(fsys, "migrations/*.sql")
	if err != nil {
		return fmt.Errorf("failed to list migrations: %w", err)
	}
	sort.Strings(files)

	var applied []string
	if err := db.NewSelect().Model((*SchemaMigration)(nil)).Column("version").Scan(ctx, &applied); err != nil {
		return fmt.Errorf("failed to read applied migrations: %w", err)
	}
	done := make(map[string]bool, len(applied))
	for _, v := range applied {
		done[v] = true
	}

	for _, file := range files {
		version := strings.TrimPrefix(file, "migrations/")
		if done[version] {
			logger.Debug("Skipping already applied migration", gecho.Field("file", version))
			continue
		}

		content, err := fs.ReadFile(fsys, file)
		if err != nil {
			return fmt.Errorf("failed to read migration file %s: %w", version, err)
		}

		logger.Info("Applying migration", gecho.Field("file", version))

		err = db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
			if _, err := tx.ExecContext(ctx, string(content)); err != nil {
				return err
			}
			_, err := tx.NewInsert().Model(&SchemaMigration{Version: version}).Exec(ctx)
			return err
		})
		if err != nil {
			return fmt.Errorf("failed to execute migration %s: %w", version, err)
		}
	}

	return nil
}
