package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/deepnoodle-ai/docdb/wire"
	_ "modernc.org/sqlite"
)

var _ Store = &SQLiteStore{}

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS documents (
	uri        TEXT PRIMARY KEY,
	content    BLOB NOT NULL,
	format     TEXT NOT NULL,
	mime_type  TEXT NOT NULL,
	metadata   TEXT NOT NULL,
	version    INTEGER NOT NULL,
	updated_at TEXT NOT NULL
);`

// SQLiteStore implements Store using a single SQLite table
type SQLiteStore struct {
	mu  sync.RWMutex
	db  *sql.DB
	now func() time.Time
}

// NewSQLiteStore opens or creates a database at path. Use ":memory:" for a
// private in-memory database.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite %q: %w", path, err)
	}
	if isMemoryPath(path) {
		// every connection would otherwise get its own empty database
		db.SetMaxOpenConns(1)
	}
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}
	if _, err := db.Exec(sqliteSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}
	return &SQLiteStore{db: db, now: time.Now}, nil
}

type querier interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func (s *SQLiteStore) Get(ctx context.Context, uri string) (*Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return get(ctx, s.db, uri)
}

func get(ctx context.Context, q querier, uri string) (*Record, error) {
	row := q.QueryRowContext(ctx,
		"SELECT uri, content, format, mime_type, metadata, version, updated_at FROM documents WHERE uri = ?", uri)
	rec, err := scanRecord(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, uri)
	}
	if err != nil {
		return nil, fmt.Errorf("get %q: %w", uri, err)
	}
	return rec, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRecord(row scanner) (*Record, error) {
	var (
		rec       Record
		format    string
		metaJSON  string
		updatedAt string
	)
	if err := row.Scan(&rec.URI, &rec.Content, &format, &rec.MimeType, &metaJSON, &rec.Version, &updatedAt); err != nil {
		return nil, err
	}
	rec.Format = wire.Format(format)
	rec.Metadata = wire.NewMetadata()
	if err := json.Unmarshal([]byte(metaJSON), rec.Metadata); err != nil {
		return nil, fmt.Errorf("invalid metadata for %q: %w", rec.URI, err)
	}
	rec.UpdatedAt, _ = time.Parse(time.RFC3339Nano, updatedAt)
	if rec.Content == nil {
		rec.Content = []byte{}
	}
	return &rec, nil
}

func (s *SQLiteStore) Put(ctx context.Context, rec *Record) error {
	if err := ValidateURI(rec.URI); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.inTx(ctx, func(tx *sql.Tx) error {
		return put(ctx, tx, rec.URI, rec, s.now())
	})
}

func put(ctx context.Context, q querier, uri string, rec *Record, now time.Time) error {
	var version int64
	err := q.QueryRowContext(ctx, "SELECT version FROM documents WHERE uri = ?", uri).Scan(&version)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("put %q: %w", uri, err)
	}
	var previous *Record
	if err == nil {
		previous = &Record{Version: version}
	}
	stored := prepare(rec, previous, now)
	stored.URI = uri
	if stored.Content == nil {
		stored.Content = []byte{}
	}
	meta, err := json.Marshal(stored.Metadata)
	if err != nil {
		return fmt.Errorf("put %q: marshal metadata: %w", uri, err)
	}
	_, err = q.ExecContext(ctx, `
		INSERT INTO documents (uri, content, format, mime_type, metadata, version, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(uri) DO UPDATE SET
			content = excluded.content,
			format = excluded.format,
			mime_type = excluded.mime_type,
			metadata = excluded.metadata,
			version = excluded.version,
			updated_at = excluded.updated_at`,
		uri, stored.Content, string(stored.Format), stored.MimeType, string(meta),
		stored.Version, stored.UpdatedAt.Format(time.RFC3339Nano))
	if err != nil {
		return fmt.Errorf("put %q: %w", uri, err)
	}
	return nil
}

func (s *SQLiteStore) Delete(ctx context.Context, uri string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx, "DELETE FROM documents WHERE uri = ?", uri)
	if err != nil {
		return fmt.Errorf("delete %q: %w", uri, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, uri)
	}
	return nil
}

func (s *SQLiteStore) List(ctx context.Context, prefix string) ([]*Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx,
		"SELECT uri, content, format, mime_type, metadata, version, updated_at FROM documents WHERE substr(uri, 1, length(?)) = ? ORDER BY uri",
		prefix, prefix)
	if err != nil {
		return nil, fmt.Errorf("list %q: %w", prefix, err)
	}
	defer rows.Close()

	var out []*Record
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("list %q: %w", prefix, err)
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list %q: %w", prefix, err)
	}
	// SQLite orders by byte value, which matches strings.Compare
	sortRecords(out)
	return out, nil
}

func (s *SQLiteStore) Apply(ctx context.Context, changes []Change) error {
	for _, c := range changes {
		if c.Record != nil {
			if err := ValidateURI(c.URI); err != nil {
				return err
			}
		}
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	return s.inTx(ctx, func(tx *sql.Tx) error {
		for _, c := range changes {
			if c.Record == nil {
				if _, err := tx.ExecContext(ctx, "DELETE FROM documents WHERE uri = ?", c.URI); err != nil {
					return fmt.Errorf("apply delete %q: %w", c.URI, err)
				}
				continue
			}
			if err := put(ctx, tx, c.URI, c.Record, now); err != nil {
				return fmt.Errorf("apply: %w", err)
			}
		}
		return nil
	})
}

func (s *SQLiteStore) inTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	if err := fn(tx); err != nil {
		tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// isMemoryPath reports whether path selects an in-memory database
func isMemoryPath(path string) bool {
	return path == ":memory:" || strings.HasPrefix(path, "file::memory:")
}
