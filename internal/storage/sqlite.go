package storage

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // Pure-Go SQLite driver

	"github.com/haiintel/dashboard/internal/logging"
)

// SQLiteDB is a durable, client-local storage file. Each scope is a namespace of keys.
type SQLiteDB struct {
	sql *sql.DB
	log *logging.Logger
}

type migration struct {
	Version int
	Name    string
	SQL     string
}

var migrations = []migration{
	{
		Version: 1,
		Name:    "create local_storage",
		SQL: `
			CREATE TABLE local_storage (
				scope      TEXT NOT NULL,
				key        TEXT NOT NULL,
				value      TEXT NOT NULL,
				updated_at TEXT NOT NULL DEFAULT (datetime('now')),
				PRIMARY KEY (scope, key)
			);
		`,
	},
}

// OpenSQLite opens (or creates) the database at path and runs migrations.
func OpenSQLite(path string, log *logging.Logger) (*SQLiteDB, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, fmt.Errorf("creating storage directory: %w", err)
	}

	sqlDB, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening sqlite: %w", err)
	}

	if _, err := sqlDB.Exec("PRAGMA journal_mode=WAL"); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("setting WAL mode: %w", err)
	}

	db := &SQLiteDB{sql: sqlDB, log: log.Sub("storage")}
	if err := db.migrate(); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	db.log.Debug().Str("path", path).Msg("local storage opened")
	return db, nil
}

// Close closes the database.
func (db *SQLiteDB) Close() error {
	return db.sql.Close()
}

// Scope implements Registry.
func (db *SQLiteDB) Scope(id string) Storage {
	return &sqliteScope{db: db.sql, scope: id}
}

func (db *SQLiteDB) migrate() error {
	if _, err := db.sql.Exec(`
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INTEGER PRIMARY KEY,
			applied_at TEXT NOT NULL DEFAULT (datetime('now'))
		)
	`); err != nil {
		return fmt.Errorf("creating migrations table: %w", err)
	}

	for _, m := range migrations {
		var count int
		if err := db.sql.QueryRow("SELECT COUNT(*) FROM schema_migrations WHERE version = ?", m.Version).Scan(&count); err != nil {
			return fmt.Errorf("checking migration %d: %w", m.Version, err)
		}
		if count > 0 {
			continue
		}

		db.log.Info().Int("version", m.Version).Str("name", m.Name).Msg("applying migration")

		tx, err := db.sql.Begin()
		if err != nil {
			return fmt.Errorf("begin migration %d: %w", m.Version, err)
		}
		if _, err := tx.Exec(m.SQL); err != nil {
			tx.Rollback()
			return fmt.Errorf("migration %d (%s): %w", m.Version, m.Name, err)
		}
		if _, err := tx.Exec("INSERT INTO schema_migrations (version) VALUES (?)", m.Version); err != nil {
			tx.Rollback()
			return fmt.Errorf("recording migration %d: %w", m.Version, err)
		}
		if err := tx.Commit(); err != nil {
			return fmt.Errorf("commit migration %d: %w", m.Version, err)
		}
	}
	return nil
}

type sqliteScope struct {
	db    *sql.DB
	scope string
}

func (s *sqliteScope) GetItem(key string) (string, bool, error) {
	var value string
	err := s.db.QueryRow(
		`SELECT value FROM local_storage WHERE scope = ? AND key = ?`, s.scope, key,
	).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("get item %s: %w", key, err)
	}
	return value, true, nil
}

func (s *sqliteScope) SetItem(key, value string) error {
	_, err := s.db.Exec(
		`INSERT INTO local_storage (scope, key, value, updated_at) VALUES (?, ?, ?, ?)
		 ON CONFLICT(scope, key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
		s.scope, key, value, time.Now().UTC().Format(time.DateTime),
	)
	if err != nil {
		return fmt.Errorf("set item %s: %w", key, err)
	}
	return nil
}

func (s *sqliteScope) RemoveItem(key string) error {
	if _, err := s.db.Exec(`DELETE FROM local_storage WHERE scope = ? AND key = ?`, s.scope, key); err != nil {
		return fmt.Errorf("remove item %s: %w", key, err)
	}
	return nil
}
