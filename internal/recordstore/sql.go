package recordstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	_ "github.com/jackc/pgx/v5/stdlib" // registers the "pgx" database/sql driver
	_ "github.com/mattn/go-sqlite3"    // sqlite3 driver
)

type dialect struct {
	name   string
	ddl    string
	get    string
	upsert string
}

var (
	sqliteDialect = dialect{
		name: "sqlite",
		ddl: `CREATE TABLE IF NOT EXISTS records (
			collection TEXT PRIMARY KEY,
			payload BLOB NOT NULL,
			updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)`,
		get: `SELECT payload FROM records WHERE collection = ?`,
		upsert: `INSERT INTO records(collection, payload, updated_at) VALUES(?, ?, CURRENT_TIMESTAMP)
			ON CONFLICT(collection) DO UPDATE SET payload = excluded.payload, updated_at = excluded.updated_at`,
	}
	postgresDialect = dialect{
		name: "postgres",
		ddl: `CREATE TABLE IF NOT EXISTS records (
			collection TEXT PRIMARY KEY,
			payload JSONB NOT NULL,
			updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)`,
		get: `SELECT payload FROM records WHERE collection = $1`,
		upsert: `INSERT INTO records(collection, payload, updated_at) VALUES($1, $2::jsonb, now())
			ON CONFLICT(collection) DO UPDATE SET payload = EXCLUDED.payload, updated_at = EXCLUDED.updated_at`,
	}
)

// SQLStore keeps one row per collection in a "records" table.
type SQLStore struct {
	db      *sql.DB
	dialect dialect
	path    string
}

// NewSQLiteStore opens (creating if needed) the SQLite file at path.
func NewSQLiteStore(ctx context.Context, path string) (*SQLStore, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	db, err := sql.Open("sqlite3", path+"?_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// one writer at a time keeps SQLite away from "database is locked"
	db.SetMaxOpenConns(1)

	store, err := newSQLStore(ctx, db, sqliteDialect)
	if err != nil {
		return nil, err
	}
	store.path = path
	return store, nil
}

// NewPostgresStore connects through the pgx database/sql driver.
func NewPostgresStore(ctx context.Context, dsn string, maxConns int) (*SQLStore, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open postgres: %w", err)
	}
	if maxConns > 0 {
		db.SetMaxOpenConns(maxConns)
	}
	return newSQLStore(ctx, db, postgresDialect)
}

func newSQLStore(ctx context.Context, db *sql.DB, d dialect) (*SQLStore, error) {
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to connect to %s: %w", d.name, err)
	}
	if _, err := db.ExecContext(ctx, d.ddl); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ensure records table: %w", err)
	}
	return &SQLStore{db: db, dialect: d}, nil
}

func (s *SQLStore) Get(ctx context.Context, collection string) ([]byte, error) {
	var payload []byte
	err := s.db.QueryRowContext(ctx, s.dialect.get, collection).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("select %s: %w", collection, err)
	}
	return payload, nil
}

func (s *SQLStore) Put(ctx context.Context, collection string, payload []byte) error {
	var arg any = payload
	if s.dialect.name == postgresDialect.name {
		arg = string(payload)
	}
	if _, err := s.db.ExecContext(ctx, s.dialect.upsert, collection, arg); err != nil {
		return fmt.Errorf("upsert %s: %w", collection, err)
	}
	return nil
}

// Path is the SQLite file backing the store, empty for Postgres.
func (s *SQLStore) Path() string { return s.path }

func (s *SQLStore) Close() error {
	return s.db.Close()
}
