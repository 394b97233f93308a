// Package store persists note blocks and their embedding vectors in a
// SQLite database: the single source of truth the indexer writes to and
// the NN index is rebuilt from.
package store

import (
	"context"
	"database/sql"
	"encoding/binary"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sync"

	_ "modernc.org/sqlite" // pure Go driver, no CGO

	"github.com/danimelchor/mindmap-go/internal/block"
	"github.com/danimelchor/mindmap-go/internal/errs"
)

// Row is one persisted block: its location, text, and embedding vector.
type Row struct {
	ID        int64
	Path      string
	StartLine int
	EndLine   int
	Content   string
	Vector    []float32
}

// Store is a SQLite-backed table of blocks. It serializes every mutation
// behind a single connection, matching the single-writer contract the
// watcher and any concurrent CLI invocation must honor.
type Store struct {
	mu sync.Mutex
	db *sql.DB
}

// Open opens (creating if absent) the database at path in WAL mode and
// ensures the blocks schema exists.
func Open(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, errs.Wrap(errs.KindStore, "failed to create database directory", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, errs.Wrap(errs.KindStore, "failed to open database", err)
	}

	// Single writer: SQLite serializes writers regardless, and WAL mode
	// lets the server process read concurrently with the watcher's writes.
	db.SetMaxOpenConns(1)

	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA busy_timeout = 5000",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA foreign_keys = ON",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			_ = db.Close()
			return nil, errs.Wrap(errs.KindStore, "failed to set pragma", err)
		}
	}

	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) migrate() error {
	const schema = `
	CREATE TABLE IF NOT EXISTS blocks (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		path TEXT NOT NULL,
		start_line INTEGER NOT NULL,
		end_line INTEGER NOT NULL,
		content TEXT NOT NULL,
		vector BLOB NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_blocks_path ON blocks(path);
	`
	if _, err := s.db.Exec(schema); err != nil {
		return errs.Wrap(errs.KindStore, "failed to migrate schema", err)
	}
	return nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// InsertMany inserts entries in one transaction, so a reader sees either
// none or all of the entries passed in a single call.
func (s *Store) InsertMany(ctx context.Context, entries []block.EmbeddedBlock) error {
	if len(entries) == 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return errs.Wrap(errs.KindStore, "failed to begin transaction", err)
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO blocks (path, start_line, end_line, content, vector)
		VALUES (?, ?, ?, ?, ?)
	`)
	if err != nil {
		return errs.Wrap(errs.KindStore, "failed to prepare insert", err)
	}
	defer stmt.Close()

	for _, e := range entries {
		blob, err := encodeVector(e.Vector)
		if err != nil {
			return err
		}
		if _, err := stmt.ExecContext(ctx, e.Path, e.StartLine, e.EndLine, e.Content, blob); err != nil {
			return errs.Wrap(errs.KindStore, "failed to insert block", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return errs.Wrap(errs.KindStore, "failed to commit transaction", err)
	}
	return nil
}

// DeleteByPath removes all rows for a file, in preparation for
// reinserting its freshly computed blocks.
func (s *Store) DeleteByPath(ctx context.Context, path string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.db.ExecContext(ctx, `DELETE FROM blocks WHERE path = ?`, path); err != nil {
		return errs.Wrap(errs.KindStore, "failed to delete rows for path", err)
	}
	return nil
}

// DeleteAll empties the table, used before a full reindex.
func (s *Store) DeleteAll(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.db.ExecContext(ctx, `DELETE FROM blocks`); err != nil {
		return errs.Wrap(errs.KindStore, "failed to delete all rows", err)
	}
	return nil
}

// GetAll returns every row in the table, decoding each vector blob. A row
// whose blob length isn't a multiple of 4 bytes is reported as a
// KindStore error rather than silently skipped.
func (s *Store) GetAll(ctx context.Context) ([]Row, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rows, err := s.db.QueryContext(ctx, `SELECT id, path, start_line, end_line, content, vector FROM blocks`)
	if err != nil {
		return nil, errs.Wrap(errs.KindStore, "failed to query blocks", err)
	}
	defer rows.Close()

	var out []Row
	for rows.Next() {
		var r Row
		var blob []byte
		if err := rows.Scan(&r.ID, &r.Path, &r.StartLine, &r.EndLine, &r.Content, &blob); err != nil {
			return nil, errs.Wrap(errs.KindStore, "failed to scan block row", err)
		}
		vec, err := decodeVector(blob)
		if err != nil {
			return nil, err
		}
		r.Vector = vec
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, errs.Wrap(errs.KindStore, "failed iterating block rows", err)
	}
	return out, nil
}

// CountByPath reports how many blocks are currently stored for path.
func (s *Store) CountByPath(ctx context.Context, path string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var count int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM blocks WHERE path = ?`, path).Scan(&count)
	if err != nil {
		return 0, errs.Wrap(errs.KindStore, "failed to count blocks for path", err)
	}
	return count, nil
}

// encodeVector serializes a float32 vector as a little-endian binary32 blob.
func encodeVector(v []float32) ([]byte, error) {
	buf := make([]byte, len(v)*4)
	for i, f := range v {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(f))
	}
	return buf, nil
}

// decodeVector parses a little-endian binary32 blob back into a float32
// vector, returning a KindStore error if its length isn't a multiple of 4.
func decodeVector(blob []byte) ([]float32, error) {
	if len(blob)%4 != 0 {
		return nil, errs.New(errs.KindStore, fmt.Sprintf("vector blob length %d is not a multiple of 4", len(blob)), nil)
	}
	n := len(blob) / 4
	out := make([]float32, n)
	for i := 0; i < n; i++ {
		bits := binary.LittleEndian.Uint32(blob[i*4:])
		out[i] = math.Float32frombits(bits)
	}
	return out, nil
}
