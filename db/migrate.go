package db

import (
	"embed"
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	migratemysql "github.com/golang-migrate/migrate/v4/database/mysql"
	migratesqlite "github.com/golang-migrate/migrate/v4/database/sqlite3"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"go.uber.org/zap"
)

//go:embed migrations
var migrationsFS embed.FS

// MigrateResult describes what happened during migration.
type MigrateResult struct {
	Version uint
	Dirty   bool
	Changed bool
}

// Migrate runs all pending migrations for the manager's driver.
func (m *Manager) Migrate() (*MigrateResult, error) {
	source, err := iofs.New(migrationsFS, "migrations/"+m.driver)
	if err != nil {
		return nil, fmt.Errorf("migration source: %w", err)
	}

	var mg *migrate.Migrate
	switch m.driver {
	case DriverMySQL:
		driver, err := migratemysql.WithInstance(m.db, &migratemysql.Config{})
		if err != nil {
			return nil, fmt.Errorf("migration driver: %w", err)
		}
		mg, err = migrate.NewWithInstance("iofs", source, "mysql", driver)
		if err != nil {
			return nil, fmt.Errorf("migration instance: %w", err)
		}
	default:
		driver, err := migratesqlite.WithInstance(m.db, &migratesqlite.Config{})
		if err != nil {
			return nil, fmt.Errorf("migration driver: %w", err)
		}
		mg, err = migrate.NewWithInstance("iofs", source, "sqlite3", driver)
		if err != nil {
			return nil, fmt.Errorf("migration instance: %w", err)
		}
	}
	// mg.Close would close the shared *sql.DB, so it is left open.

	err = mg.Up()
	changed := true
	if errors.Is(err, migrate.ErrNoChange) {
		changed = false
		err = nil
	}
	if err != nil {
		return nil, fmt.Errorf("migration up: %w", err)
	}

	version, dirty, _ := mg.Version()
	if changed {
		m.logger.Info("migrations applied", zap.Uint("version", version))
	} else {
		m.logger.Debug("migrations up to date", zap.Uint("version", version))
	}
	return &MigrateResult{Version: version, Dirty: dirty, Changed: changed}, nil
}
