// Package state persists knowledge-base state in SQLite: embedding vectors
// keyed by embedder and chunk hash, and the content hash of every guideline
// file that has been indexed.
package state

import (
	"context"
	"time"
)

// Store is the persistence contract used by the knowledge base.
type Store interface {
	// GetEmbeddings returns the cached vectors for the hashes that are present.
	GetEmbeddings(ctx context.Context, model string, hashes []string) (map[string][]float32, error)
	// PutEmbeddings stores vectors, replacing existing entries.
	PutEmbeddings(ctx context.Context, model string, vectors map[string][]float32) error
	// CountEmbeddings returns how many vectors are cached for model.
	CountEmbeddings(ctx context.Context, model string) (int, error)

	// GetSource returns the last indexed state of a guideline file.
	GetSource(ctx context.Context, path string) (*Source, error)
	// SetSource records that a guideline file was indexed.
	SetSource(ctx context.Context, src Source) error
	// ListSources returns every indexed guideline file ordered by path.
	ListSources(ctx context.Context) ([]Source, error)

	Close() error
}

// Source is an indexed guideline file.
type Source struct {
	Path        string    `json:"path"`
	ContentHash string    `json:"content_hash"`
	Chunks      int       `json:"chunks"`
	UpdatedAt   time.Time `json:"updated_at"`
}
