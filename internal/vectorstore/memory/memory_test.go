package memory

import (
	"context"
	"errors"
	"testing"

	"ragmail/internal/domain"
)

func chunks(texts ...string) []domain.Chunk {
	out := make([]domain.Chunk, len(texts))
	for i, t := range texts {
		out[i] = domain.Chunk{Index: i, Content: t}
	}
	return out
}

func TestSearch_BeforeReplace(t *testing.T) {
	s := NewStorage()
	_, err := s.Search(context.Background(), []float64{1, 0}, 2)
	if !errors.Is(err, domain.ErrIndexNotFound) {
		t.Fatalf("err = %v, want ErrIndexNotFound", err)
	}
}

func TestExists(t *testing.T) {
	s := NewStorage()
	ctx := context.Background()
	if ok, _ := s.Exists(ctx); ok {
		t.Error("Exists before Replace = true")
	}
	_ = s.Replace(ctx, nil, nil)
	if ok, _ := s.Exists(ctx); ok {
		t.Error("Exists for an empty index = true")
	}
	_ = s.Replace(ctx, chunks("a"), [][]float64{{1}})
	if ok, err := s.Exists(ctx); !ok || err != nil {
		t.Errorf("Exists = %v, %v", ok, err)
	}
}

func TestSearch_OrderAndLimit(t *testing.T) {
	s := NewStorage()
	ctx := context.Background()
	vectors := [][]float64{{0, 1}, {1, 0}, {1, 1}}
	if err := s.Replace(ctx, chunks("north", "east", "north-east"), vectors); err != nil {
		t.Fatalf("Replace: %v", err)
	}
	res, err := s.Search(ctx, []float64{2, 0.1}, 2)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(res) != 2 {
		t.Fatalf("got %d results, want 2", len(res))
	}
	if res[0].Chunk.Content != "east" || res[1].Chunk.Content != "north-east" {
		t.Errorf("order = %q, %q", res[0].Chunk.Content, res[1].Chunk.Content)
	}
	if res[0].Score < res[1].Score {
		t.Errorf("scores not descending: %v", res)
	}
}

func TestSearch_TiesKeepChunkOrder(t *testing.T) {
	s := NewStorage()
	ctx := context.Background()
	_ = s.Replace(ctx, chunks("a", "b", "c"), [][]float64{{1, 0}, {1, 0}, {1, 0}})
	res, _ := s.Search(ctx, []float64{1, 0}, 3)
	for i, r := range res {
		if r.Chunk.Index != i {
			t.Errorf("result %d is chunk %d", i, r.Chunk.Index)
		}
	}
}

func TestReplace_DiscardsPrevious(t *testing.T) {
	s := NewStorage()
	ctx := context.Background()
	_ = s.Replace(ctx, chunks("old", "older"), [][]float64{{1}, {1}})
	_ = s.Replace(ctx, chunks("new"), [][]float64{{1}})
	if s.Len() != 1 {
		t.Fatalf("Len = %d, want 1", s.Len())
	}
	res, _ := s.Search(ctx, []float64{1}, 4)
	if len(res) != 1 || res[0].Chunk.Content != "new" {
		t.Errorf("results = %+v", res)
	}
}

func TestReplace_Mismatch(t *testing.T) {
	s := NewStorage()
	ctx := context.Background()
	if err := s.Replace(ctx, chunks("a"), nil); err == nil {
		t.Error("expected length mismatch error")
	}
	if err := s.Replace(ctx, chunks("a", "b"), [][]float64{{1, 0}, {1}}); err == nil {
		t.Error("expected dimension mismatch error")
	}
}

func TestSearch_EmptyIndex(t *testing.T) {
	s := NewStorage()
	ctx := context.Background()
	_ = s.Replace(ctx, nil, nil)
	if _, err := s.Search(ctx, []float64{1}, 1); !errors.Is(err, domain.ErrIndexNotFound) {
		t.Fatalf("err = %v, want ErrIndexNotFound", err)
	}
}
