package migrations

import (
	"embed"
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	migrateMySQL "github.com/golang-migrate/migrate/v4/database/mysql"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"storefront.GO/config"
	"storefront.GO/core/logging"
	catalogRepo "storefront.GO/model/repository/catalog"
	orderRepo "storefront.GO/model/repository/order"
)

//go:embed mysql/*.sql
var mysqlFiles embed.FS

// Entities lists every table the application owns, for gorm AutoMigrate.
func Entities() []interface{} {
	return append(catalogRepo.Entities(), orderRepo.Entities()...)
}

// Up brings the schema to the latest version. MySQL runs the embedded SQL migrations;
// SQLite, used for local runs and tests, is auto-migrated from the entities.
func Up(db *gorm.DB, logger *zap.Logger) error {
	logger = logging.OrNop(logger)
	if db.Dialector.Name() != config.DriverMySQL {
		if err := db.AutoMigrate(Entities()...); err != nil {
			return fmt.Errorf("auto-migrate: %w", err)
		}
		logger.Info("schema auto-migrated", zap.String("dialect", db.Dialector.Name()))
		return nil
	}

	m, err := newMySQLMigrate(db)
	if err != nil {
		return err
	}
	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("migrate up: %w", err)
	}
	version, dirty, err := m.Version()
	if err != nil && !errors.Is(err, migrate.ErrNilVersion) {
		return err
	}
	logger.Info("schema migrated", zap.Uint("version", version), zap.Bool("dirty", dirty))
	return nil
}

// Down rolls back steps MySQL migrations.
func Down(db *gorm.DB, steps int) error {
	if db.Dialector.Name() != config.DriverMySQL {
		return fmt.Errorf("migrate down: not supported for %s", db.Dialector.Name())
	}
	m, err := newMySQLMigrate(db)
	if err != nil {
		return err
	}
	if err := m.Steps(-steps); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("migrate down: %w", err)
	}
	return nil
}

func newMySQLMigrate(db *gorm.DB) (*migrate.Migrate, error) {
	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	src, err := iofs.New(mysqlFiles, "mysql")
	if err != nil {
		return nil, fmt.Errorf("migration source: %w", err)
	}
	driver, err := migrateMySQL.WithInstance(sqlDB, &migrateMySQL.Config{})
	if err != nil {
		return nil, fmt.Errorf("migration driver: %w", err)
	}
	return migrate.NewWithInstance("iofs", src, config.DriverMySQL, driver)
}
