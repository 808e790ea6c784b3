package postgres

import (
	"context"
	"embed"
	"io/fs"
	"sort"

	ierr "github.com/factusapp/factusapp/internal/errors"
)

//go:embed migrations/*.sql
var migrations embed.FS

// Migrate applies every embedded migration in file name order. Statements
// are idempotent so running it twice is harmless.
func (db *DB) Migrate(ctx context.Context) error {
	files, err := fs.Glob(migrations, "migrations/*.sql")
	if err != nil {
		return ierr.WithError(err).Mark(ierr.ErrSystem)
	}
	sort.Strings(files)

	return db.WithTx(ctx, func(ctx context.Context) error {
		for _, name := range files {
			stmt, err := migrations.ReadFile(name)
			if err != nil {
				return ierr.WithError(err).Mark(ierr.ErrSystem)
			}
			if _, err := db.GetQuerier(ctx).ExecContext(ctx, string(stmt)); err != nil {
				return ierr.WithError(err).
					WithHintf("Migration %s failed", name).
					Mark(ierr.ErrDatabase)
			}
			db.logger.Infow("applied migration", "file", name)
		}
		return nil
	})
}
