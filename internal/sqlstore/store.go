// Package sqlstore is a SQLite-backed backend for the handle protocol.
// Each root value lives in one row, its tree encoded as JSON and
// zstd-compressed past a size threshold. Child handles address a root by
// key plus a path of positions; every Perform rewrites the root's row in
// one transaction, so a call either fully applies or leaves the row
// untouched.
//
// Descriptors are reference-identified and process-resident, so the store
// persists values only. Attach rebinds a handle to an existing root with a
// caller-supplied descriptor.
package sqlstore

import (
	"context"
	"database/sql"
	_ "embed"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/klauspost/compress/zstd"
	_ "github.com/mattn/go-sqlite3"

	"github.com/burrowdb/burrow/internal/handle"
	"github.com/burrowdb/burrow/internal/typesys"
)

//go:embed schema.sql
var schemaSQL string

// Schema version tracking:
// 0 - Initial schema (pre-migration)
// 1 - Added type_name column for diagnostics
const currentSchemaVersion = 1

// Store provides durable storage for burrow values.
// Uses SQLite with WAL mode for concurrent read access.
type Store struct {
	db *sql.DB

	mu    sync.Mutex
	types map[string]*typesys.Type // root id -> descriptor, this process

	zenc *zstd.Encoder
	zdec *zstd.Decoder
}

// Open creates or opens a SQLite database at the given path.
// Applies required pragmas and migrations automatically.
//
// The database is configured with:
//   - WAL mode for concurrent reads during writes
//   - NORMAL synchronous mode (balance durability/performance)
//   - 5-second busy timeout for lock contention
//   - Foreign key enforcement
//
// This function is idempotent - safe to call multiple times.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// SQLite only supports one writer at a time, so limit connections
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if err := applyPragmas(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to apply pragmas: %w", err)
	}

	if err := applySchema(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to apply schema: %w", err)
	}

	zenc, err := zstd.NewWriter(nil)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("zstd encoder: %w", err)
	}
	zdec, err := zstd.NewReader(nil)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("zstd decoder: %w", err)
	}

	return &Store{
		db:    db,
		types: make(map[string]*typesys.Type),
		zenc:  zenc,
		zdec:  zdec,
	}, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	s.zenc.Close()
	s.zdec.Close()
	return s.db.Close()
}

// New constructs a default-valued root for t.
func (s *Store) New(t *typesys.Type) (*handle.Handle, error) {
	if t == nil {
		return nil, fmt.Errorf("sqlstore: nil type")
	}
	return s.insertRoot(t, defaultVal(t))
}

// NewValue constructs a root seeded with a native value.
func (s *Store) NewValue(t *typesys.Type, v any) (*handle.Handle, error) {
	if err := handle.CheckNative(t, v); err != nil {
		return nil, err
	}
	return s.insertRoot(t, valFromNative(t, v))
}

// Attach rebinds a handle to an existing root. The caller supplies the
// descriptor the root was created with; the store cannot recover
// reference-identified descriptors from disk.
func (s *Store) Attach(id string, t *typesys.Type) (*handle.Handle, error) {
	if t == nil {
		return nil, fmt.Errorf("sqlstore: nil type")
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	var exists int
	err := s.db.QueryRowContext(context.Background(),
		`SELECT COUNT(*) FROM roots WHERE id = ?`, id).Scan(&exists)
	if err != nil {
		return nil, fmt.Errorf("sqlstore: attach %s: %w", id, err)
	}
	if exists == 0 {
		return nil, fmt.Errorf("sqlstore: attach %s: no such root", id)
	}
	s.types[id] = t
	return handle.New(t, &loc{st: s, rootID: id, rootType: t, typ: t}, s), nil
}

// RootID reports the root key a handle is stored under, for later Attach.
// Fails for handles from other stores.
func (s *Store) RootID(h *handle.Handle) (string, error) {
	l, ok := h.Location().(*loc)
	if !ok || l.st != s {
		return "", handle.ErrCrossStore
	}
	return l.rootID, nil
}

func (s *Store) insertRoot(t *typesys.Type, v *val) (*handle.Handle, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	enc, err := s.encode(v)
	if err != nil {
		return nil, err
	}
	id := uuid.Must(uuid.NewV7()).String()
	typeName, _ := t.Name()

	_, err = s.db.ExecContext(context.Background(), `
		INSERT INTO roots (id, type_name, enc)
		VALUES (?, ?, ?)
		ON CONFLICT(id) DO NOTHING
	`, id, typeName, enc)
	if err != nil {
		return nil, fmt.Errorf("sqlstore: insert root: %w", err)
	}

	s.types[id] = t
	return handle.New(t, &loc{st: s, rootID: id, rootType: t, typ: t}, s), nil
}

// loadRoot reads and decodes a root's tree. Callers hold s.mu.
func (s *Store) loadRoot(q queryer, id string, t *typesys.Type) (*val, error) {
	var enc []byte
	err := q.QueryRowContext(context.Background(),
		`SELECT enc FROM roots WHERE id = ?`, id).Scan(&enc)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("sqlstore: root %s: no such root", id)
	}
	if err != nil {
		return nil, fmt.Errorf("sqlstore: load root %s: %w", id, err)
	}
	return s.decode(enc, t)
}

// saveRoot re-encodes and rewrites a root's tree. Callers hold s.mu.
func (s *Store) saveRoot(tx *sql.Tx, id string, v *val) error {
	enc, err := s.encode(v)
	if err != nil {
		return err
	}
	res, err := tx.ExecContext(context.Background(),
		`UPDATE roots SET enc = ? WHERE id = ?`, enc, id)
	if err != nil {
		return fmt.Errorf("sqlstore: save root %s: %w", id, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("sqlstore: save root %s: no such root", id)
	}
	return nil
}

// queryer is satisfied by *sql.DB and *sql.Tx.
type queryer interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// applyPragmas sets required SQLite configuration.
func applyPragmas(db *sql.DB) error {
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

// applySchema creates tables if they don't exist and runs migrations.
// This function is idempotent.
func applySchema(db *sql.DB) error {
	if _, err := db.Exec(schemaSQL); err != nil {
		return fmt.Errorf("failed to execute schema: %w", err)
	}
	if err := runMigrations(db); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}
	return nil
}

// runMigrations applies incremental schema migrations based on user_version.
func runMigrations(db *sql.DB) error {
	var version int
	if err := db.QueryRow("PRAGMA user_version").Scan(&version); err != nil {
		return fmt.Errorf("get user_version: %w", err)
	}

	if version < 1 {
		if err := migrateToV1(db); err != nil {
			return err
		}
		version = 1
	}

	if _, err := db.Exec(fmt.Sprintf("PRAGMA user_version = %d", currentSchemaVersion)); err != nil {
		return fmt.Errorf("set user_version: %w", err)
	}
	return nil
}

// migrateToV1 backfills the type_name column for databases created before
// it existed. New databases get the column from schema.sql.
func migrateToV1(db *sql.DB) error {
	var count int
	err := db.QueryRow(`SELECT COUNT(*) FROM pragma_table_info('roots') WHERE name = 'type_name'`).Scan(&count)
	if err != nil {
		return fmt.Errorf("migrate to v1: %w", err)
	}
	if count == 0 {
		if _, err := db.Exec(`ALTER TABLE roots ADD COLUMN type_name TEXT NOT NULL DEFAULT ''`); err != nil {
			return fmt.Errorf("migrate to v1: %w", err)
		}
	}
	return nil
}
