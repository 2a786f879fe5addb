package kb

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"log/slog"

	"github.com/leapstack-labs/leapcheck/internal/state"
)

// CachedEmbedder serves vectors from a state.Store and only sends texts it
// has not seen to the wrapped embedder. Store failures are logged and the
// wrapped embedder is used directly.
type CachedEmbedder struct {
	inner  Embedder
	store  state.Store
	logger *slog.Logger
}

// NewCachedEmbedder wraps inner with store.
func NewCachedEmbedder(inner Embedder, store state.Store, logger *slog.Logger) *CachedEmbedder {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &CachedEmbedder{inner: inner, store: store, logger: logger}
}

// Name implements Embedder. Cached and uncached vectors share a space.
func (c *CachedEmbedder) Name() string {
	return c.inner.Name()
}

// Embed implements Embedder.
func (c *CachedEmbedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	hashes := make([]string, len(texts))
	for i, text := range texts {
		hashes[i] = ContentHash(text)
	}

	cached, err := c.store.GetEmbeddings(ctx, c.inner.Name(), hashes)
	if err != nil {
		c.logger.Warn("embedding cache read failed", "error", err)
		cached = nil
	}

	out := make([][]float32, len(texts))
	var missTexts []string
	var missIdx []int
	for i, h := range hashes {
		if vec, ok := cached[h]; ok {
			out[i] = vec
			continue
		}
		missTexts = append(missTexts, texts[i])
		missIdx = append(missIdx, i)
	}
	c.logger.Debug("embedding cache lookup", "hits", len(texts)-len(missTexts), "misses", len(missTexts))
	if len(missTexts) == 0 {
		return out, nil
	}

	fresh, err := c.inner.Embed(ctx, missTexts)
	if err != nil {
		return nil, err
	}
	if len(fresh) != len(missTexts) {
		return nil, fmt.Errorf("embedder %s returned %d vectors for %d texts", c.inner.Name(), len(fresh), len(missTexts))
	}

	toStore := make(map[string][]float32, len(fresh))
	for j, vec := range fresh {
		i := missIdx[j]
		out[i] = vec
		toStore[hashes[i]] = vec
	}
	if err := c.store.PutEmbeddings(ctx, c.inner.Name(), toStore); err != nil {
		c.logger.Warn("embedding cache write failed", "error", err)
	}
	return out, nil
}

// ContentHash returns the hex SHA-256 of s.
func ContentHash(s string) string {
	sum := sha256.Sum256([]byte(s))
	return hex.EncodeToString(sum[:])
}
