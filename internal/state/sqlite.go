package state

import (
	"context"
	"database/sql"
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	_ "modernc.org/sqlite" // registers the "sqlite" driver
)

// SQLiteStore implements Store using SQLite.
type SQLiteStore struct {
	db   *sql.DB
	path string
}

var _ Store = (*SQLiteStore)(nil)

// NewSQLiteStore creates a new SQLite state store instance.
func NewSQLiteStore() *SQLiteStore {
	return &SQLiteStore{}
}

// Open opens a connection to the SQLite database and applies migrations.
// Use ":memory:" for an in-memory database.
func Open(path string) (*SQLiteStore, error) {
	s := NewSQLiteStore()
	if err := s.Open(path); err != nil {
		return nil, err
	}
	if err := s.Migrate(); err != nil {
		_ = s.Close()
		return nil, err
	}
	return s, nil
}

// Open opens a connection to the SQLite database.
// Use ":memory:" for an in-memory database.
func (s *SQLiteStore) Open(path string) error {
	dsn := path
	if path != ":memory:" {
		dsn = fmt.Sprintf("file:%s?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)", path)
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return fmt.Errorf("failed to open sqlite database: %w", err)
	}

	// Every connection to :memory: is a separate database.
	if path == ":memory:" {
		db.SetMaxOpenConns(1)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return fmt.Errorf("failed to ping sqlite database: %w", err)
	}

	s.db = db
	s.path = path
	return nil
}

// Path returns the path the store was opened with.
func (s *SQLiteStore) Path() string {
	return s.path
}

// Close closes the SQLite database connection.
func (s *SQLiteStore) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// --- Embedding operations ---

// GetEmbeddings returns the cached vectors for hashes. Missing hashes are
// absent from the result.
func (s *SQLiteStore) GetEmbeddings(ctx context.Context, model string, hashes []string) (map[string][]float32, error) {
	if s.db == nil {
		return nil, fmt.Errorf("database not opened")
	}

	out := make(map[string][]float32, len(hashes))
	// SQLite's default variable limit is far above this.
	const batch = 500
	for lo := 0; lo < len(hashes); lo += batch {
		chunk := hashes[lo:min(lo+batch, len(hashes))]
		args := make([]any, 0, len(chunk)+1)
		args = append(args, model)
		for _, h := range chunk {
			args = append(args, h)
		}
		query := `SELECT content_hash, vector FROM embeddings WHERE model = ? AND content_hash IN (?` +
			strings.Repeat(",?", len(chunk)-1) + `)`

		rows, err := s.db.QueryContext(ctx, query, args...)
		if err != nil {
			return nil, fmt.Errorf("failed to query embeddings: %w", err)
		}
		for rows.Next() {
			var hash string
			var blob []byte
			if err := rows.Scan(&hash, &blob); err != nil {
				rows.Close()
				return nil, fmt.Errorf("failed to scan embedding: %w", err)
			}
			vec, err := decodeVector(blob)
			if err != nil {
				rows.Close()
				return nil, fmt.Errorf("embedding %s: %w", hash, err)
			}
			out[hash] = vec
		}
		err = rows.Err()
		rows.Close()
		if err != nil {
			return nil, fmt.Errorf("failed to read embeddings: %w", err)
		}
	}
	return out, nil
}

// PutEmbeddings stores vectors in a single transaction.
func (s *SQLiteStore) PutEmbeddings(ctx context.Context, model string, vectors map[string][]float32) error {
	if s.db == nil {
		return fmt.Errorf("database not opened")
	}
	if len(vectors) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO embeddings (model, content_hash, dims, vector, created_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT (model, content_hash) DO UPDATE SET
			dims = excluded.dims,
			vector = excluded.vector,
			created_at = excluded.created_at`)
	if err != nil {
		return fmt.Errorf("failed to prepare insert: %w", err)
	}
	defer stmt.Close()

	now := time.Now().UTC()
	for hash, vec := range vectors {
		if _, err := stmt.ExecContext(ctx, model, hash, len(vec), encodeVector(vec), now); err != nil {
			return fmt.Errorf("failed to store embedding %s: %w", hash, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit embeddings: %w", err)
	}
	return nil
}

// CountEmbeddings returns how many vectors are cached for model.
func (s *SQLiteStore) CountEmbeddings(ctx context.Context, model string) (int, error) {
	if s.db == nil {
		return 0, fmt.Errorf("database not opened")
	}
	var n int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM embeddings WHERE model = ?`, model).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("failed to count embeddings: %w", err)
	}
	return n, nil
}

// --- Source operations ---

// GetSource returns the indexed state of path, or nil if it was never indexed.
func (s *SQLiteStore) GetSource(ctx context.Context, path string) (*Source, error) {
	if s.db == nil {
		return nil, fmt.Errorf("database not opened")
	}

	src := &Source{Path: path}
	err := s.db.QueryRowContext(ctx,
		`SELECT content_hash, chunks, updated_at FROM sources WHERE path = ?`, path,
	).Scan(&src.ContentHash, &src.Chunks, &src.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get source: %w", err)
	}
	return src, nil
}

// SetSource records the indexed state of a guideline file.
func (s *SQLiteStore) SetSource(ctx context.Context, src Source) error {
	if s.db == nil {
		return fmt.Errorf("database not opened")
	}
	if src.UpdatedAt.IsZero() {
		src.UpdatedAt = time.Now().UTC()
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO sources (path, content_hash, chunks, updated_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT (path) DO UPDATE SET
			content_hash = excluded.content_hash,
			chunks = excluded.chunks,
			updated_at = excluded.updated_at`,
		src.Path, src.ContentHash, src.Chunks, src.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to set source: %w", err)
	}
	return nil
}

// ListSources returns every indexed guideline file ordered by path.
func (s *SQLiteStore) ListSources(ctx context.Context) ([]Source, error) {
	if s.db == nil {
		return nil, fmt.Errorf("database not opened")
	}

	rows, err := s.db.QueryContext(ctx, `SELECT path, content_hash, chunks, updated_at FROM sources ORDER BY path`)
	if err != nil {
		return nil, fmt.Errorf("failed to list sources: %w", err)
	}
	defer rows.Close()

	var sources []Source
	for rows.Next() {
		var src Source
		if err := rows.Scan(&src.Path, &src.ContentHash, &src.Chunks, &src.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan source: %w", err)
		}
		sources = append(sources, src)
	}
	return sources, rows.Err()
}

// encodeVector packs a vector as little-endian float32 values.
func encodeVector(vec []float32) []byte {
	buf := make([]byte, 4*len(vec))
	for i, v := range vec {
		binary.LittleEndian.PutUint32(buf[4*i:], math.Float32bits(v))
	}
	return buf
}

func decodeVector(buf []byte) ([]float32, error) {
	if len(buf)%4 != 0 {
		return nil, fmt.Errorf("corrupt vector: %d bytes", len(buf))
	}
	vec := make([]float32, len(buf)/4)
	for i := range vec {
		vec[i] = math.Float32frombits(binary.LittleEndian.Uint32(buf[4*i:]))
	}
	return vec, nil
}
