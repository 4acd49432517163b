// Package migrator handles database schema migrations using golang-migrate.
package migrator

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"strings"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/pgx/v5"
	"github.com/golang-migrate/migrate/v4/source/iofs"
)

// Migrator applies schema migrations from an embedded filesystem.
type Migrator struct {
	migrationsFS fs.FS
}

// NewWithFS creates a Migrator reading .sql files from the given filesystem.
func NewWithFS(migrationsFS fs.FS) (*Migrator, error) {
	if migrationsFS == nil {
		return nil, errors.New("migrationsFS cannot be nil")
	}

	return &Migrator{
		migrationsFS: migrationsFS,
	}, nil
}

// Up runs all pending migrations. A database with no pending
// migrations is not an error.
func (m *Migrator) Up(ctx context.Context, databaseURL string) error {
	if databaseURL == "" {
		return errors.New("database URL cannot be empty")
	}

	migrator, err := m.open(databaseURL)
	if err != nil {
		return err
	}
	defer migrator.Close()

	if err := migrator.Up(); err != nil {
		if errors.Is(err, migrate.ErrNoChange) {
			return nil
		}
		return fmt.Errorf("run migrations: %w", err)
	}

	return nil
}

// Version returns the current migration version and dirty state. A
// database with no applied migrations reports version 0, clean.
func (m *Migrator) Version(ctx context.Context, databaseURL string) (version uint, dirty bool, err error) {
	if databaseURL == "" {
		return 0, false, errors.New("database URL cannot be empty")
	}

	migrator, err := m.open(databaseURL)
	if err != nil {
		return 0, false, err
	}
	defer migrator.Close()

	version, dirty, err = migrator.Version()
	if err != nil {
		if errors.Is(err, migrate.ErrNilVersion) {
			return 0, false, nil
		}
		return 0, false, fmt.Errorf("get version: %w", err)
	}

	return version, dirty, nil
}

func (m *Migrator) open(databaseURL string) (*migrate.Migrate, error) {
	sourceDriver, err := iofs.New(m.migrationsFS, ".")
	if err != nil {
		return nil, fmt.Errorf("create iofs source: %w", err)
	}

	migrator, err := migrate.NewWithSourceInstance("iofs", sourceDriver, convertToPgx5URL(databaseURL))
	if err != nil {
		return nil, fmt.Errorf("create migrator: %w", err)
	}

	return migrator, nil
}

// convertToPgx5URL rewrites postgres:// and postgresql:// schemes to
// pgx5:// so golang-migrate selects the pgx/v5 driver.
func convertToPgx5URL(databaseURL string) string {
	if rest, ok := strings.CutPrefix(databaseURL, "postgres://"); ok {
		return "pgx5://" + rest
	}
	if rest, ok := strings.CutPrefix(databaseURL, "postgresql://"); ok {
		return "pgx5://" + rest
	}
	return databaseURL
}
