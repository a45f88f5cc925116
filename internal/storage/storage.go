// Package storage persists canonical match records and serves the
// aggregate queries built on them. It speaks both SQLite (the default,
// one file on disk) and PostgreSQL (shared deployments) through the
// same portable SQL: text keys, UTC ISO-8601 timestamp text, and
// question-mark placeholders rebound per driver.
package storage

import (
	"context"
	_ "embed"
	"fmt"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"
)

//go:embed schema.sql
var schemaSQL string

// Supported backends.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// ManualID is the platform id assigned to hand-entered matches. It is
// exempt from duplicate detection, manual entries may repeat.
const ManualID = "manual"

const timeLayout = "2006-01-02T15:04:05Z"

// DB wraps the database handle for the match stats store.
type DB struct {
	db     *sqlx.DB
	driver string
}

// Open connects to the store and applies the schema. For "sqlite" the
// dsn is a file path (":memory:" works for tests); for "postgres" it is
// a connection URL.
func Open(driver, dsn string) (*DB, error) {
	switch driver {
	case DriverSQLite:
		return openSQLite(dsn)
	case DriverPostgres:
		return openPostgres(dsn)
	default:
		return nil, fmt.Errorf("unknown db driver %q", driver)
	}
}

func openSQLite(path string) (*DB, error) {
	conn, err := sqlx.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	// One writer connection; WAL keeps readers from blocking on it.
	conn.SetMaxOpenConns(1)
	for _, pragma := range []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA busy_timeout = 5000",
		"PRAGMA foreign_keys = ON",
	} {
		if _, err := conn.Exec(pragma); err != nil {
			conn.Close()
			return nil, fmt.Errorf("apply %q: %w", pragma, err)
		}
	}
	db := &DB{db: conn, driver: DriverSQLite}
	if err := db.applySchema(); err != nil {
		conn.Close()
		return nil, err
	}
	return db, nil
}

func openPostgres(url string) (*DB, error) {
	conn, err := sqlx.Open("pgx", url)
	if err != nil {
		return nil, fmt.Errorf("open postgres db: %w", err)
	}
	conn.SetMaxOpenConns(25)
	conn.SetMaxIdleConns(5)
	conn.SetConnMaxLifetime(time.Hour)
	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	db := &DB{db: conn, driver: DriverPostgres}
	if err := db.applySchema(); err != nil {
		conn.Close()
		return nil, err
	}
	return db, nil
}

// applySchema runs the embedded DDL one statement at a time; pgx does
// not accept multi-statement strings over the extended protocol.
func (db *DB) applySchema() error {
	for _, stmt := range strings.Split(schemaSQL, ";") {
		stmt = strings.TrimSpace(stmt)
		if stmt == "" {
			continue
		}
		if _, err := db.db.Exec(stmt); err != nil {
			return fmt.Errorf("apply schema: %w", err)
		}
	}
	return nil
}

// Close closes the underlying connection pool.
func (db *DB) Close() error {
	return db.db.Close()
}

// Driver returns which backend this store runs on.
func (db *DB) Driver() string {
	return db.driver
}

func (db *DB) rebind(query string) string {
	return db.db.Rebind(query)
}

func formatTimestamp(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

// parseTimestamp accepts the store's canonical layout plus the bare
// "2006-01-02 15:04:05" form found in rows imported from older tools.
func parseTimestamp(s string) (time.Time, error) {
	if t, err := time.Parse(timeLayout, s); err == nil {
		return t, nil
	}
	t, err := time.ParseInLocation("2006-01-02 15:04:05", s, time.UTC)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse timestamp %q: %w", s, err)
	}
	return t, nil
}

// withLockRetry retries fn while it fails on lock contention, with a
// bounded exponential backoff. Any other error is permanent and comes
// back immediately.
func withLockRetry(ctx context.Context, fn func() error) error {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 50 * time.Millisecond
	b.MaxInterval = time.Second
	b.Multiplier = 2.0
	b.RandomizationFactor = 0.2
	b.MaxElapsedTime = 5 * time.Second

	op := func() error {
		err := fn()
		if err == nil {
			return nil
		}
		if isLockContention(err) {
			return err
		}
		return backoff.Permanent(err)
	}
	return backoff.Retry(op, backoff.WithContext(b, ctx))
}

// isLockContention matches the busy/locked errors both engines emit
// while another writer holds the database.
func isLockContention(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "SQLITE_BUSY") ||
		strings.Contains(msg, "SQLITE_LOCKED") ||
		strings.Contains(msg, "database is locked") ||
		strings.Contains(msg, "could not obtain lock")
}
