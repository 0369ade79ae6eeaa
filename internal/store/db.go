// Package store is the SQL-backed compliance repository used when the service
// runs without an external backend. It serves the system map dataset, the
// impact edge writes, and node position storage.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"strings"
	"time"

	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"
)

type Dialect int

const (
	SQLite Dialect = iota
	Postgres
)

func ParseDialect(driver string) (Dialect, error) {
	switch strings.ToLower(driver) {
	case "sqlite", "sqlite3":
		return SQLite, nil
	case "postgres", "postgresql", "pq":
		return Postgres, nil
	}
	return 0, fmt.Errorf("unsupported database driver %q", driver)
}

func (d Dialect) driverName() string {
	if d == Postgres {
		return "postgres"
	}
	return "sqlite"
}

// rebind rewrites ? placeholders into $n for postgres.
func (d Dialect) rebind(query string) string {
	if d != Postgres {
		return query
	}
	var b strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

type DB struct {
	db      *sql.DB
	dialect Dialect
	now     func() time.Time
}

// New wraps an open connection. It does not run migrations.
func New(db *sql.DB, dialect Dialect) *DB {
	return &DB{db: db, dialect: dialect, now: time.Now}
}

// Open connects, applies the schema, and returns a ready store.
func Open(ctx context.Context, driver, dsn string) (*DB, error) {
	dialect, err := ParseDialect(driver)
	if err != nil {
		return nil, err
	}

	db, err := sql.Open(dialect.driverName(), dsn)
	if err != nil {
		return nil, fmt.Errorf("cannot open database: %w", err)
	}

	if dialect == SQLite {
		// one writer; also keeps :memory: databases on a single connection
		db.SetMaxOpenConns(1)
		if _, err := db.ExecContext(ctx, "PRAGMA busy_timeout = 5000"); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("cannot configure database: %w", err)
		}
	}

	s := New(db, dialect)
	if err := s.Migrate(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

func (s *DB) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

func (s *DB) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

var schema = []string{
	`CREATE TABLE IF NOT EXISTS regulations (
		organization_id TEXT NOT NULL,
		id TEXT NOT NULL,
		name TEXT NOT NULL,
		framework TEXT NOT NULL DEFAULT '',
		status TEXT NOT NULL DEFAULT '',
		PRIMARY KEY (organization_id, id)
	)`,
	`CREATE TABLE IF NOT EXISTS articles (
		organization_id TEXT NOT NULL,
		id TEXT NOT NULL,
		article_number TEXT NOT NULL,
		title TEXT,
		regulation_id TEXT NOT NULL,
		PRIMARY KEY (organization_id, id)
	)`,
	`CREATE TABLE IF NOT EXISTS systems (
		organization_id TEXT NOT NULL,
		id TEXT NOT NULL,
		name TEXT NOT NULL,
		category TEXT,
		criticality TEXT,
		PRIMARY KEY (organization_id, id)
	)`,
	`CREATE TABLE IF NOT EXISTS impacts (
		organization_id TEXT NOT NULL,
		article_id TEXT NOT NULL,
		system_id TEXT NOT NULL,
		impact_level TEXT NOT NULL,
		notes TEXT,
		updated_at TEXT NOT NULL,
		PRIMARY KEY (organization_id, article_id, system_id)
	)`,
	`CREATE TABLE IF NOT EXISTS node_positions (
		storage_key TEXT PRIMARY KEY,
		value TEXT NOT NULL,
		updated_at TEXT NOT NULL
	)`,
}

func (s *DB) Migrate(ctx context.Context) error {
	for _, stmt := range schema {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to migrate schema: %w", err)
		}
	}
	return nil
}

func (s *DB) exec(ctx context.Context, query string, args ...any) (sql.Result, error) {
	return s.db.ExecContext(ctx, s.dialect.rebind(query), args...)
}

func (s *DB) query(ctx context.Context, query string, args ...any) (*sql.Rows, error) {
	return s.db.QueryContext(ctx, s.dialect.rebind(query), args...)
}

func (s *DB) queryRow(ctx context.Context, query string, args ...any) *sql.Row {
	return s.db.QueryRowContext(ctx, s.dialect.rebind(query), args...)
}

func (s *DB) timestamp() string {
	return s.now().UTC().Format(time.RFC3339Nano)
}

func nullString(p *string) sql.NullString {
	if p == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *p, Valid: true}
}

func stringPtr(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	s := ns.String
	return &s
}
