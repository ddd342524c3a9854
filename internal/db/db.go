package db

import (
	"fmt"                               // Error formatting
	"time"                              // Connection lifetimes
	"trading_simulator/internal/config" // Custom package for configuration

	"github.com/google/uuid"  // Unique in-memory database names
	"gorm.io/driver/mysql"    // MySQL driver for GORM
	"gorm.io/driver/postgres" // PostgreSQL driver for GORM
	"gorm.io/driver/sqlite"   // SQLite driver for GORM
	"gorm.io/gorm"            // GORM ORM library
	"gorm.io/gorm/logger"     // GORM logger levels
)

// Supported values of DB_DRIVER
const (
	DriverSQLite   = "sqlite"
	DriverMySQL    = "mysql"
	DriverPostgres = "postgres"
)

// Open connects to the database selected by cfg.DBDriver
func Open(cfg *config.Config) (*gorm.DB, error) {
	switch cfg.DBDriver {
	case DriverSQLite, "":
		// WAL lets readers proceed while the single writer holds the lock
		return openSQLite(cfg.DBPath + "?_busy_timeout=5000&_journal_mode=WAL&_fk=1")
	case DriverMySQL:
		return open(mysql.Open(cfg.MySQLDSN()))
	case DriverPostgres:
		return open(postgres.Open(cfg.PostgresDSN()))
	default:
		return nil, fmt.Errorf("unsupported DB_DRIVER %q", cfg.DBDriver)
	}
}

// OpenInMemory returns a private, empty in-memory SQLite database with the schema migrated
func OpenInMemory() (*gorm.DB, error) {
	db, err := openSQLite("file:" + uuid.NewString() + "?mode=memory&cache=shared&_fk=1")
	if err != nil {
		return nil, err
	}
	if err := Migrate(db); err != nil {
		return nil, err
	}
	return db, nil
}

func openSQLite(dsn string) (*gorm.DB, error) {
	db, err := open(sqlite.Open(dsn))
	if err != nil {
		return nil, err
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	// SQLite has a single writer; one connection avoids "database is locked" errors
	sqlDB.SetMaxOpenConns(1)
	sqlDB.SetConnMaxLifetime(0)
	return db, nil
}

func open(dialector gorm.Dialector) (*gorm.DB, error) {
	db, err := gorm.Open(dialector, &gorm.Config{
		TranslateError: true,                                // Map unique violations to gorm.ErrDuplicatedKey
		Logger:         logger.Default.LogMode(logger.Warn), // Only slow queries and errors
	})
	if err != nil {
		return nil, err
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetConnMaxIdleTime(5 * time.Minute)
	return db, nil
}
