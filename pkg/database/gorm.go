package database

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	_ "modernc.org/sqlite"
)

// Options selects the registry database. A non-empty DSN opens Postgres,
// otherwise SQLitePath is used (":memory:" for an in-memory database).
type Options struct {
	DSN        string
	SQLitePath string
	Quiet      bool
}

func getLogger(quiet bool) logger.Interface {
	level := logger.Warn
	if quiet {
		level = logger.Silent
	}
	return logger.New(
		log.New(os.Stdout, "\r\n", log.LstdFlags),
		logger.Config{
			SlowThreshold:             time.Second,
			LogLevel:                  level,
			IgnoreRecordNotFoundError: true,
			ParameterizedQueries:      true,
			Colorful:                  true,
		},
	)
}

func configureConnectionPool(db *gorm.DB, maxOpen int) error {
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}

	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetMaxOpenConns(maxOpen)
	sqlDB.SetConnMaxLifetime(time.Hour)

	return nil
}

// Open connects to the database named by opts.
func Open(opts Options) (*gorm.DB, error) {
	if opts.DSN != "" {
		return NewGormDBFromDSN(opts.DSN, opts.Quiet)
	}
	return NewSQLiteDB(opts.SQLitePath, opts.Quiet)
}

func NewGormDBFromDSN(dsn string, quiet bool) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: getLogger(quiet),
	})
	if err != nil {
		return nil, err
	}

	if err := configureConnectionPool(db, 100); err != nil {
		return nil, err
	}

	return db, nil
}

// NewSQLiteDB opens a pure-Go SQLite database at path.
func NewSQLiteDB(path string, quiet bool) (*gorm.DB, error) {
	if path == "" {
		path = ":memory:"
	}
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("creating registry directory: %w", err)
		}
	}

	db, err := gorm.Open(sqlite.New(sqlite.Config{
		DriverName: "sqlite",
		DSN:        path,
	}), &gorm.Config{
		Logger: getLogger(quiet),
	})
	if err != nil {
		return nil, err
	}

	// One connection avoids "database is locked" and keeps :memory: a single database.
	if err := configureConnectionPool(db, 1); err != nil {
		return nil, err
	}
	if err := db.Exec("PRAGMA busy_timeout = 5000").Error; err != nil {
		return nil, fmt.Errorf("setting busy timeout: %w", err)
	}

	return db, nil
}
