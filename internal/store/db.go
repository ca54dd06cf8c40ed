// Package store opens the relational database behind the link and provider
// repositories.
package store

import (
	"fmt"
	"strings"

	"github.com/glebarez/sqlite"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/linkbridge/linkbridge/internal/config"
	"github.com/linkbridge/linkbridge/internal/logging"
	"github.com/linkbridge/linkbridge/internal/models"
)

// MemoryName opens a private in-memory SQLite database.
const MemoryName = ":memory:"

// Open connects to the configured driver and migrates the schema.
func Open(cfg config.DatabaseConfig, logger *zap.Logger) (*gorm.DB, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	dialector, err := dialectorFor(cfg)
	if err != nil {
		return nil, err
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger:         logging.NewGormLogger(logger, cfg.LogLevel),
		TranslateError: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to %s database: %w", cfg.Driver, err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get SQL database: %w", err)
	}
	if isMemory(cfg) {
		// Every new connection to :memory: is a fresh empty database.
		sqlDB.SetMaxOpenConns(1)
		sqlDB.SetMaxIdleConns(1)
	} else {
		if cfg.MaxOpenConns > 0 {
			sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
		}
		if cfg.MaxIdleConns > 0 {
			sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
		}
	}

	if err := Migrate(db); err != nil {
		_ = sqlDB.Close()
		return nil, err
	}
	logger.Debug("database ready", zap.String("driver", driverName(cfg)))
	return db, nil
}

// Migrate creates or updates the links and providers tables.
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(&models.Link{}, &models.Provider{}); err != nil {
		return fmt.Errorf("failed to migrate database: %w", err)
	}
	return nil
}

// Close releases the underlying connection pool.
func Close(db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func dialectorFor(cfg config.DatabaseConfig) (gorm.Dialector, error) {
	switch driverName(cfg) {
	case "sqlite":
		return sqlite.Open(sqliteDSN(cfg.Name)), nil
	case "postgres":
		if cfg.DSN == "" {
			return nil, fmt.Errorf("postgres driver requires a dsn")
		}
		return postgres.Open(cfg.DSN), nil
	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.Driver)
	}
}

func driverName(cfg config.DatabaseConfig) string {
	if cfg.Driver == "" {
		return "sqlite"
	}
	return strings.ToLower(cfg.Driver)
}

func isMemory(cfg config.DatabaseConfig) bool {
	return driverName(cfg) == "sqlite" && (cfg.Name == "" || cfg.Name == MemoryName)
}

// sqliteDSN adds a busy timeout to file databases so concurrent writers wait
// instead of failing with SQLITE_BUSY.
func sqliteDSN(name string) string {
	switch {
	case name == "":
		return MemoryName
	case name == MemoryName || strings.Contains(name, "?"):
		return name
	}
	return name + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"
}
