package embedding

import (
	"context"
	"fmt"
	"hash/fnv"
)

// DefaultHashingDimensions matches the width of common MiniLM sentence encoders.
const DefaultHashingDimensions = 384

// Hashing is an offline embedder built on signed feature hashing of words and
// character trigrams. It captures lexical overlap only, not meaning, but is
// deterministic and needs no model server.
type Hashing struct {
	dims      int
	tokenizer *Tokenizer
}

// NewHashing creates a hashing embedder. dims <= 0 selects
// DefaultHashingDimensions.
func NewHashing(dims int) *Hashing {
	if dims <= 0 {
		dims = DefaultHashingDimensions
	}
	return &Hashing{dims: dims, tokenizer: NewTokenizer(DefaultStopwords)}
}

// Name implements Embedder.
func (h *Hashing) Name() string {
	return fmt.Sprintf("hashing-%d", h.dims)
}

// Embed implements Embedder.
func (h *Hashing) Embed(_ context.Context, text string) (Vector, error) {
	return h.vector(text), nil
}

// EmbedBatch implements Embedder.
func (h *Hashing) EmbedBatch(ctx context.Context, texts []string) ([]Vector, error) {
	vectors := make([]Vector, len(texts))
	for i, text := range texts {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		vectors[i] = h.vector(text)
	}
	return vectors, nil
}

const trigramWeight = 0.5

func (h *Hashing) vector(text string) Vector {
	v := make(Vector, h.dims)
	for _, tok := range h.tokenizer.Tokenize(text) {
		h.add(v, "w:"+tok, 1)
		padded := []rune(" " + tok + " ")
		for i := 0; i+3 <= len(padded); i++ {
			h.add(v, "t:"+string(padded[i:i+3]), trigramWeight)
		}
	}
	return Normalize(v)
}

func (h *Hashing) add(v Vector, feature string, weight float64) {
	hasher := fnv.New64a()
	hasher.Write([]byte(feature))
	sum := hasher.Sum64()
	idx := int(sum % uint64(h.dims))
	if sum&(1<<63) != 0 {
		weight = -weight
	}
	v[idx] += weight
}
