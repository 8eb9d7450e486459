package hashing

import (
	"context"
	"math"
	"testing"
)

func dot(a, b []float64) float64 {
	s := 0.0
	for i := range a {
		s += a[i] * b[i]
	}
	return s
}

func TestEmbed_DeterministicAndNormalized(t *testing.T) {
	e := NewEmbedder(64)
	ctx := context.Background()
	a, err := e.Embed(ctx, "Budget review meeting on Friday")
	if err != nil {
		t.Fatalf("Embed: %v", err)
	}
	b, _ := e.Embed(ctx, "Budget review meeting on Friday")
	if len(a) != 64 {
		t.Fatalf("dimension = %d, want 64", len(a))
	}
	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("embedding not deterministic at %d", i)
		}
	}
	if n := math.Sqrt(dot(a, a)); math.Abs(n-1) > 1e-9 {
		t.Errorf("norm = %v, want 1", n)
	}
}

func TestEmbed_SimilarTextsAreCloser(t *testing.T) {
	e := NewEmbedder(DefaultDimension)
	ctx := context.Background()
	q, _ := e.Embed(ctx, "when is the assignment deadline")
	near, _ := e.Embed(ctx, "The assignment deadline is next Monday at noon.")
	far, _ := e.Embed(ctx, "Lunch menu includes soup and salad.")
	if dot(q, near) <= dot(q, far) {
		t.Errorf("similarity near=%v far=%v", dot(q, near), dot(q, far))
	}
}

func TestEmbed_OnlyStopwords(t *testing.T) {
	vec, err := NewEmbedder(8).Embed(context.Background(), "the and of")
	if err != nil {
		t.Fatalf("Embed: %v", err)
	}
	for _, v := range vec {
		if v != 0 {
			t.Fatalf("expected zero vector, got %v", vec)
		}
	}
}
