package store

import (
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	_ "embed"

	_ "github.com/mattn/go-sqlite3"
)

// DefaultDirPermissions is used when creating the database file's directory.
const DefaultDirPermissions = 0755

// sqlitePragmas are appended to DSNs that carry no query string of their own.
const sqlitePragmas = "?_foreign_keys=on&_busy_timeout=5000&_journal_mode=WAL"

//go:embed migrations_sqlite.sql
var sqliteMigrations string

// SQLiteStore keeps funnel data in a single SQLite file, usually in the state directory.
type SQLiteStore struct {
	*sqlStore
}

// NewSQLiteStore opens (creating if needed) the SQLite file named by the DSN and applies
// the schema. "file:" prefixes and query parameters are accepted.
func NewSQLiteStore(opts ...Option) (*SQLiteStore, error) {
	var cfg Opts
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.DSN == "" {
		slog.Error("NewSQLiteStore: DSN not set")
		return nil, ErrDSNNotSet
	}

	dir := filepath.Dir(sqliteFilePath(cfg.DSN))
	if err := os.MkdirAll(dir, DefaultDirPermissions); err != nil {
		slog.Error("NewSQLiteStore: cannot create database directory", "error", err, "dir", dir)
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	dsn := cfg.DSN
	if !strings.Contains(dsn, "?") {
		dsn += sqlitePragmas
	}
	db, err := openMigrated("sqlite3", dsn, sqliteMigrations, func(db *sql.DB) {
		// a single connection serializes writers; concurrent handlers would otherwise hit SQLITE_BUSY
		db.SetMaxOpenConns(1)
	})
	if err != nil {
		return nil, err
	}
	slog.Info("NewSQLiteStore: funnel database ready", "path", sqliteFilePath(cfg.DSN))
	return &SQLiteStore{sqlStore: &sqlStore{db: db, name: "SQLiteStore"}}, nil
}

// sqliteFilePath strips the "file:" scheme and any query parameters from a DSN.
func sqliteFilePath(dsn string) string {
	path := strings.TrimPrefix(dsn, "file:")
	if i := strings.IndexByte(path, '?'); i >= 0 {
		path = path[:i]
	}
	return path
}
