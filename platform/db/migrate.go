package db

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"medleads_backend/platform/config"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
)

// RunMigrations brings the leads schema up to date from the SQL files in
// migrationsDir. An empty directory disables migrations, for deployments
// that run them out of band. Already-current schemas are not an error.
func RunMigrations(_ context.Context, cfg config.DatabaseConfig, migrationsDir string) error {
	dir := strings.TrimSpace(migrationsDir)
	if dir == "" {
		return nil
	}

	m, err := migrate.New("file://"+dir, cfg.GetDatabaseURL())
	if err != nil {
		return fmt.Errorf("open migrations at %s: %w", dir, err)
	}
	defer m.Close()

	err = m.Up()
	if err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("apply migrations: %w", err)
	}

	return nil
}
