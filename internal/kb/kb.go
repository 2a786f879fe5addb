package kb

import (
	"context"
	"fmt"
	"sort"
	"sync"
)

// Match is one search hit.
type Match struct {
	Score   float64 `json:"score"`
	Excerpt string  `json:"excerpt"`
	Source  string  `json:"source"`
}

// Searcher finds the guideline chunks most similar to a query.
type Searcher interface {
	Similar(ctx context.Context, query string, k int) ([]Match, error)
}

// Chunk is an indexed piece of a guideline file.
type Chunk struct {
	Text   string
	Source string
}

// KB is an in-memory vector index over guideline chunks. It is safe for
// concurrent use.
type KB struct {
	embedder Embedder

	mu      sync.RWMutex
	chunks  []Chunk
	vectors [][]float32
	sources []string
}

var _ Searcher = (*KB)(nil)

// New creates an empty knowledge base.
func New(embedder Embedder) *KB {
	if embedder == nil {
		embedder = NewHashEmbedder(0)
	}
	return &KB{embedder: embedder}
}

// Embedder returns the embedder used for chunks and queries.
func (k *KB) Embedder() Embedder {
	return k.embedder
}

// Add chunks text, embeds the chunks and indexes them under source.
// It returns the number of chunks added.
func (k *KB) Add(ctx context.Context, source, text string) (int, error) {
	chunks := ChunkText(text, DefaultChunkSize)
	if len(chunks) == 0 {
		k.addSource(source)
		return 0, nil
	}

	vectors, err := k.embedder.Embed(ctx, chunks)
	if err != nil {
		return 0, fmt.Errorf("embed %s: %w", source, err)
	}
	if len(vectors) != len(chunks) {
		return 0, fmt.Errorf("embed %s: got %d vectors for %d chunks", source, len(vectors), len(chunks))
	}

	k.mu.Lock()
	defer k.mu.Unlock()
	for i, c := range chunks {
		k.chunks = append(k.chunks, Chunk{Text: c, Source: source})
		k.vectors = append(k.vectors, vectors[i])
	}
	k.appendSourceLocked(source)
	return len(chunks), nil
}

func (k *KB) addSource(source string) {
	k.mu.Lock()
	defer k.mu.Unlock()
	k.appendSourceLocked(source)
}

func (k *KB) appendSourceLocked(source string) {
	for _, s := range k.sources {
		if s == source {
			return
		}
	}
	k.sources = append(k.sources, source)
}

// Similar returns up to n chunks ordered by descending cosine similarity to
// query. Equal scores keep index order. An empty KB returns no matches.
func (k *KB) Similar(ctx context.Context, query string, n int) ([]Match, error) {
	k.mu.RLock()
	defer k.mu.RUnlock()

	if len(k.vectors) == 0 || n <= 0 {
		return nil, nil
	}

	qv, err := k.embedder.Embed(ctx, []string{query})
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}
	if len(qv) != 1 {
		return nil, fmt.Errorf("embed query: got %d vectors", len(qv))
	}

	matches := make([]Match, len(k.vectors))
	for i, v := range k.vectors {
		matches[i] = Match{
			Score:   Cosine(qv[0], v),
			Excerpt: k.chunks[i].Text,
			Source:  k.chunks[i].Source,
		}
	}
	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].Score > matches[j].Score
	})
	return matches[:min(n, len(matches))], nil
}

// Len returns the number of indexed chunks.
func (k *KB) Len() int {
	k.mu.RLock()
	defer k.mu.RUnlock()
	return len(k.chunks)
}

// Sources returns the files indexed so far, in load order.
func (k *KB) Sources() []string {
	k.mu.RLock()
	defer k.mu.RUnlock()
	out := make([]string, len(k.sources))
	copy(out, k.sources)
	return out
}

// Chunks returns a copy of the indexed chunks.
func (k *KB) Chunks() []Chunk {
	k.mu.RLock()
	defer k.mu.RUnlock()
	out := make([]Chunk, len(k.chunks))
	copy(out, k.chunks)
	return out
}
