// Package migration creates the schema on startup so a fresh deployment
// is usable out of the box.
package migration

import (
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"io/fs"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	collectiondomain "github.com/smallbiznis/collecta/internal/collection/domain"
	debtordomain "github.com/smallbiznis/collecta/internal/debtor/domain"
	invoicedomain "github.com/smallbiznis/collecta/internal/invoice/domain"
	organizationdomain "github.com/smallbiznis/collecta/internal/organization/domain"
	sequencedomain "github.com/smallbiznis/collecta/internal/sequence/domain"
	"gorm.io/gorm"
)

//go:embed migrations/*.sql
var embeddedMigrations embed.FS

const migrationsDir = "migrations"

// RunMigrations applies the embedded SQL migrations against postgres.
func RunMigrations(db *sql.DB) error {
	if db == nil {
		return errors.New("migration database handle is required")
	}

	sub, err := fs.Sub(embeddedMigrations, migrationsDir)
	if err != nil {
		return fmt.Errorf("open migrations: %w", err)
	}

	source, err := iofs.New(sub, ".")
	if err != nil {
		return fmt.Errorf("create migration source: %w", err)
	}

	driver, err := postgres.WithInstance(db, &postgres.Config{})
	if err != nil {
		return fmt.Errorf("create migration driver: %w", err)
	}

	migrator, err := migrate.NewWithInstance("iofs", source, "postgres", driver)
	if err != nil {
		return fmt.Errorf("create migrator: %w", err)
	}

	upErr := migrator.Up()
	if upErr != nil && !errors.Is(upErr, migrate.ErrNoChange) {
		return fmt.Errorf("apply migrations: %w", upErr)
	}
	return nil
}

// AutoMigrate builds the schema from the gorm models. Used for mysql and
// sqlite, where the embedded SQL is postgres-specific.
func AutoMigrate(db *gorm.DB) error {
	if db == nil {
		return errors.New("migration database handle is required")
	}
	return db.AutoMigrate(
		&organizationdomain.Organization{},
		&debtordomain.Debtor{},
		&sequencedomain.Sequence{},
		&sequencedomain.Step{},
		&invoicedomain.Invoice{},
		&collectiondomain.ScheduledStep{},
		&collectiondomain.Action{},
	)
}
