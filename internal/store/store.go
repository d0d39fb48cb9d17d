package store

import (
	"context"
	_ "embed"
	"fmt"
	"log/slog"

	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"

	"github.com/IshaanNene/presscorpus/internal/types"
)

//go:embed schema.sql
var schemaSQL string

// Schema version tracking:
// 1 - links and content tables
const currentSchemaVersion = 1

const contentTableSQL = `CREATE TABLE content (
    id INTEGER PRIMARY KEY,
    title TEXT,
    publish_date TEXT,
    text TEXT,
    FOREIGN KEY (id) REFERENCES links (id) ON DELETE CASCADE
)`

// Store is the SQLite article database: links and content keyed by the
// shared link id.
type Store struct {
	db     *sqlx.DB
	logger *slog.Logger
}

// Open creates or opens the database at path, applies pragmas and checks
// the schema version. Foreign keys are enforced and a single connection is
// used.
func Open(path string, logger *slog.Logger) (*Store, error) {
	db, err := sqlx.Open("sqlite3", path)
	if err != nil {
		return nil, &types.StorageError{Backend: "sqlite", Err: fmt.Errorf("open database: %w", err)}
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, &types.StorageError{Backend: "sqlite", Err: fmt.Errorf("connect to database: %w", err)}
	}

	// Pragmas are per connection, so keep exactly one.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if err := applyPragmas(db); err != nil {
		db.Close()
		return nil, &types.StorageError{Backend: "sqlite", Err: err}
	}

	if err := applySchema(db); err != nil {
		db.Close()
		return nil, &types.StorageError{Backend: "sqlite", Err: err}
	}

	return &Store{db: db, logger: logger.With("component", "store")}, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

// DB returns the underlying handle for queries not covered by Store.
func (s *Store) DB() *sqlx.DB {
	return s.db
}

// WithTx runs fn inside a transaction. fn's error, or a panic, rolls back.
func (s *Store) WithTx(ctx context.Context, fn func(tx *sqlx.Tx) error) (err error) {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
		if err != nil {
			if rbErr := tx.Rollback(); rbErr != nil {
				s.logger.Error("rollback failed", "error", rbErr)
			}
		}
	}()

	if err = fn(tx); err != nil {
		return err
	}
	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// InitializeSchema creates links if absent and drops and recreates content,
// so each load starts from an empty content table.
func (s *Store) InitializeSchema(ctx context.Context) error {
	return s.WithTx(ctx, func(tx *sqlx.Tx) error {
		if _, err := tx.ExecContext(ctx, schemaSQL); err != nil {
			return fmt.Errorf("create tables: %w", err)
		}
		if _, err := tx.ExecContext(ctx, "DROP TABLE IF EXISTS content"); err != nil {
			return fmt.Errorf("drop content: %w", err)
		}
		if _, err := tx.ExecContext(ctx, contentTableSQL); err != nil {
			return fmt.Errorf("create content: %w", err)
		}
		s.logger.Info("schema initialized")
		return nil
	})
}

func applyPragmas(db *sqlx.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA busy_timeout = 5000",
		"PRAGMA foreign_keys = ON",
	}

	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			return fmt.Errorf("failed to execute %q: %w", pragma, err)
		}
	}
	return nil
}

func applySchema(db *sqlx.DB) error {
	var version int
	if err := db.Get(&version, "PRAGMA user_version"); err != nil {
		return fmt.Errorf("get user_version: %w", err)
	}
	if version > currentSchemaVersion {
		return fmt.Errorf("database schema version %d is newer than supported version %d", version, currentSchemaVersion)
	}

	if _, err := db.Exec(schemaSQL); err != nil {
		return fmt.Errorf("failed to execute schema: %w", err)
	}

	if _, err := db.Exec(fmt.Sprintf("PRAGMA user_version = %d", currentSchemaVersion)); err != nil {
		return fmt.Errorf("set user_version: %w", err)
	}
	return nil
}
