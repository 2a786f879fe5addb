package kb

import (
	"context"
	"fmt"
	"hash/fnv"
	"math"
	"regexp"
	"strings"
)

// Embedder turns texts into vectors. Vectors for the same input must be
// comparable across calls with the same Name.
type Embedder interface {
	// Name identifies the embedding space, e.g. "openai:text-embedding-3-small".
	Name() string
	// Embed returns one vector per text, in order.
	Embed(ctx context.Context, texts []string) ([][]float32, error)
}

// DefaultHashDims is the vector size of the hashing embedder.
const DefaultHashDims = 512

var tokenPattern = regexp.MustCompile(`[\p{L}\p{N}]+`)

// HashEmbedder is a deterministic, offline embedder based on feature
// hashing of lowercase word unigrams and bigrams. It needs no credentials
// and gives lexical-overlap similarity.
type HashEmbedder struct {
	dims int
}

// NewHashEmbedder creates a hashing embedder with dims dimensions.
// Non-positive dims select DefaultHashDims.
func NewHashEmbedder(dims int) *HashEmbedder {
	if dims <= 0 {
		dims = DefaultHashDims
	}
	return &HashEmbedder{dims: dims}
}

// Name implements Embedder.
func (h *HashEmbedder) Name() string {
	return fmt.Sprintf("hash-%d", h.dims)
}

// Embed implements Embedder. It never fails.
func (h *HashEmbedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, text := range texts {
		out[i] = h.vector(text)
	}
	return out, nil
}

func (h *HashEmbedder) vector(text string) []float32 {
	vec := make([]float32, h.dims)
	tokens := tokenPattern.FindAllString(strings.ToLower(text), -1)
	for i, tok := range tokens {
		h.add(vec, tok, 1)
		if i > 0 {
			h.add(vec, tokens[i-1]+" "+tok, 0.5)
		}
	}

	var norm float64
	for _, v := range vec {
		norm += float64(v) * float64(v)
	}
	if norm == 0 {
		return vec
	}
	scale := float32(1 / math.Sqrt(norm))
	for i := range vec {
		vec[i] *= scale
	}
	return vec
}

func (h *HashEmbedder) add(vec []float32, feature string, weight float32) {
	hasher := fnv.New32a()
	_, _ = hasher.Write([]byte(feature))
	sum := hasher.Sum32()
	idx := int(sum % uint32(h.dims))
	// The top bit picks the sign so collisions tend to cancel.
	if sum&(1<<31) != 0 {
		weight = -weight
	}
	vec[idx] += weight
}

// Cosine returns the cosine similarity of a and b over their common prefix.
func Cosine(a, b []float32) float64 {
	n := min(len(a), len(b))
	var dot, na, nb float64
	for i := range n {
		x, y := float64(a[i]), float64(b[i])
		dot += x * y
		na += x * x
		nb += y * y
	}
	return dot / (math.Sqrt(na)*math.Sqrt(nb) + 1e-8)
}
