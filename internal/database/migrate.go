package database

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"io/fs"
	"sort"
	"strings"

	"go.uber.org/zap"
)

// Each file holds exactly one statement and is safe to re-run.
//
//go:embed migrations/*.sql
var migrationFiles embed.FS

// Migration is one schema statement.
type Migration struct {
	Name string
	SQL  string
}

// Migrations returns the embedded migrations in apply order.
func Migrations() ([]Migration, error) {
	names, err := fs.Glob(migrationFiles, "migrations/*.sql")
	if err != nil {
		return nil, err
	}
	sort.Strings(names)

	out := make([]Migration, 0, len(names))
	for _, name := range names {
		b, err := migrationFiles.ReadFile(name)
		if err != nil {
			return nil, err
		}
		out = append(out, Migration{
			Name: strings.TrimPrefix(name, "migrations/"),
			SQL:  strings.TrimSpace(string(b)),
		})
	}
	return out, nil
}

// Migrate applies every migration in order and stops at the first failure.
func Migrate(ctx context.Context, db *sql.DB, logger *zap.Logger) error {
	migrations, err := Migrations()
	if err != nil {
		return fmt.Errorf("read migrations: %w", err)
	}
	for _, m := range migrations {
		if _, err := db.ExecContext(ctx, m.SQL); err != nil {
			return fmt.Errorf("migration %s: %w", m.Name, err)
		}
		logger.Debug("migration applied", zap.String("name", m.Name))
	}
	logger.Info("schema up to date", zap.Int("migrations", len(migrations)))
	return nil
}
