// Package db opens the gorm database behind the archive, the settings
// repository and the fallback session store.
package db

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	detadapters "phish_backend/internal/feature/detection/adapters"
	"phish_backend/internal/platform/config"
)

// Config holds the Postgres connection parameters.
type Config struct {
	User     string
	Password string
	Name     string
	Host     string
	Port     string
	SSLMode  string
}

// FromConfig extracts the Postgres parameters from the service configuration.
func FromConfig(c config.DBConfig) Config {
	return Config{
		User:     c.User,
		Password: c.Password,
		Name:     c.Name,
		Host:     c.Host,
		Port:     c.Port,
	}
}

// BuildDSN renders a Postgres keyword/value DSN.
func BuildDSN(cfg Config) string {
	port := cfg.Port
	if port == "" {
		port = "5432"
	}
	ssl := cfg.SSLMode
	if ssl == "" {
		ssl = "disable"
	}
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s TimeZone=UTC",
		cfg.Host, port, cfg.User, cfg.Password, cfg.Name, ssl)
}

// Opener opens a gorm connection for a DSN.
type Opener func(dsn string) (*gorm.DB, error)

// PostgresOpener is the production Opener.
func PostgresOpener(dsn string) (*gorm.DB, error) {
	return gorm.Open(postgres.Open(dsn), &gorm.Config{})
}

// ConnectWithRetry calls open until it succeeds or timeout elapses, backing
// off from 250ms up to 3s between attempts.
func ConnectWithRetry(dsn string, timeout time.Duration, open Opener) (*gorm.DB, error) {
	deadline := time.Now().Add(timeout)
	delay := 250 * time.Millisecond
	for {
		db, err := open(dsn)
		if err == nil {
			return db, nil
		}
		if permanent(err) {
			return nil, fmt.Errorf("db connect failed: %w", err)
		}
		if time.Now().Add(delay).After(deadline) {
			return nil, fmt.Errorf("db connect failed after %s: %w", timeout, err)
		}
		slog.Warn("db connect failed, retrying", "delay", delay, "error", err)
		time.Sleep(delay)
		delay = min(delay*2, 3*time.Second)
	}
}

// permanent reports errors that retrying cannot fix: rejected credentials
// or a missing database.
func permanent(err error) bool {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return false
	}
	switch pgErr.Code {
	case "28000", "28P01", "3D000":
		return true
	}
	return false
}

// OpenSQLite opens (creating if needed) the SQLite database at path.
// ":memory:" opens a private in-memory database.
func OpenSQLite(path string) (*gorm.DB, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
			return nil, fmt.Errorf("failed to create db directory: %w", err)
		}
	}
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite %s: %w", path, err)
	}
	return db, nil
}

// Migrate creates or updates the detection tables.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&detadapters.SessionModel{},
		&detadapters.AuditModel{},
		&detadapters.SettingsModel{},
	)
}

// Open connects to the configured database and migrates it.
func Open(cfg *config.Config) (*gorm.DB, error) {
	var (
		db  *gorm.DB
		err error
	)
	switch cfg.DB.Driver {
	case "postgres":
		db, err = ConnectWithRetry(BuildDSN(FromConfig(cfg.DB)), 60*time.Second, PostgresOpener)
	default:
		db, err = OpenSQLite(cfg.SQLitePath())
	}
	if err != nil {
		return nil, err
	}
	if err := Migrate(db); err != nil {
		return nil, fmt.Errorf("failed to migrate: %w", err)
	}
	return db, nil
}
