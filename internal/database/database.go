package database

import (
	"fmt"
	"strings"
	"time"

	pkgLogger "github.com/fintelis/fintelis-api/pkg/logger"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// sqlitePrefix selects the embedded SQLite driver, used for local runs and tests
const sqlitePrefix = "sqlite://"

// Options tunes the connection
type Options struct {
	Production    bool
	SlowThreshold time.Duration
}

// Connect establishes a connection to the database named by databaseURL.
// PostgreSQL URLs are the default; sqlite:// URLs open a SQLite database.
func Connect(databaseURL string, opts Options) (*gorm.DB, error) {
	// Configure GORM logger
	logLevel := logger.Silent
	if !opts.Production {
		logLevel = logger.Warn
	}
	slow := opts.SlowThreshold
	if slow == 0 {
		slow = 200 * time.Millisecond
	}
	gormConfig := &gorm.Config{
		Logger:                 pkgLogger.NewGormLogger(logLevel, slow),
		SkipDefaultTransaction: true,
		TranslateError:         true,
	}

	if strings.HasPrefix(databaseURL, sqlitePrefix) {
		return connectSQLite(strings.TrimPrefix(databaseURL, sqlitePrefix), gormConfig)
	}

	gormConfig.PrepareStmt = true
	db, err := gorm.Open(postgres.Open(databaseURL), gormConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// Get underlying SQL database
	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database instance: %w", err)
	}

	// Configure connection pool
	sqlDB.SetMaxIdleConns(5)
	sqlDB.SetMaxOpenConns(50)
	sqlDB.SetConnMaxLifetime(time.Hour)
	sqlDB.SetConnMaxIdleTime(5 * time.Minute)

	// Verify connection
	if err := sqlDB.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return db, nil
}

// connectSQLite opens dsn with a single connection. SQLite has no row
// locks; one connection serializes every unit of work instead, and keeps
// a shared in-memory database alive for the lifetime of the pool.
func connectSQLite(dsn string, gormConfig *gorm.Config) (*gorm.DB, error) {
	db, err := gorm.Open(sqlite.Open(dsn), gormConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database instance: %w", err)
	}
	sqlDB.SetMaxOpenConns(1)
	sqlDB.SetMaxIdleConns(1)
	sqlDB.SetConnMaxLifetime(0)
	sqlDB.SetConnMaxIdleTime(0)

	return db, nil
}

// MemoryURL returns a sqlite:// URL for a private in-memory database
func MemoryURL(name string) string {
	return fmt.Sprintf("%sfile:%s?mode=memory&cache=shared", sqlitePrefix, name)
}
