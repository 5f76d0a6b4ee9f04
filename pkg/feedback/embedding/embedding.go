// Package embedding turns comments into fixed-length vectors whose distance
// approximates semantic similarity.
package embedding

import (
	"context"
	"math"
)

// Vector is a dense embedding vector
type Vector []float64

// Embedder generates embedding vectors from text
type Embedder interface {
	// Embed generates a vector for a single text
	Embed(ctx context.Context, text string) (Vector, error)

	// EmbedBatch generates one vector per text, in input order
	EmbedBatch(ctx context.Context, texts []string) ([]Vector, error)

	// Name returns the model name
	Name() string
}

// Normalize scales v to unit length in place. Zero vectors are left as is.
func Normalize(v Vector) Vector {
	var sum float64
	for _, x := range v {
		sum += x * x
	}
	if sum == 0 {
		return v
	}
	norm := math.Sqrt(sum)
	for i := range v {
		v[i] /= norm
	}
	return v
}

// embedOne adapts a batch call to a single text.
func embedOne(ctx context.Context, e Embedder, text string) (Vector, error) {
	vecs, err := e.EmbedBatch(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vecs[0], nil
}
