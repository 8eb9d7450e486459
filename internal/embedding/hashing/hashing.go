package hashing

import (
	"context"
	"hash/fnv"
	"math"

	"ragmail/internal/textutil"
)

const DefaultDimension = 512

// Embedder is a local bag-of-words embedder using the hashing trick. It needs no corpus
// preparation and no network, so an index built with it can be queried from a later run.
// Vectors are term frequencies with sublinear scaling, L2-normalized.
type Embedder struct {
	dimension int
}

func NewEmbedder(dimension int) *Embedder {
	if dimension <= 0 {
		dimension = DefaultDimension
	}
	return &Embedder{dimension: dimension}
}

func (e *Embedder) Name() string { return "hashing" }

func (e *Embedder) Dimension() int { return e.dimension }

func (e *Embedder) Embed(_ context.Context, text string) ([]float64, error) {
	vec := make([]float64, e.dimension)
	tf := make(map[int]int)
	for _, tok := range textutil.Tokens(text) {
		tf[e.bucket(tok)]++
	}
	for idx, count := range tf {
		vec[idx] = 1 + math.Log(float64(count))
	}
	// L2 normalize
	norm := 0.0
	for _, v := range vec {
		norm += v * v
	}
	norm = math.Sqrt(norm)
	if norm > 0 {
		for i := range vec {
			vec[i] /= norm
		}
	}
	return vec, nil
}

func (e *Embedder) bucket(token string) int {
	h := fnv.New32a()
	_, _ = h.Write([]byte(token))
	return int(h.Sum32() % uint32(e.dimension))
}
