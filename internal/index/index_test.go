package index

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"ragmail/internal/chunker"
	"ragmail/internal/domain"
	"ragmail/internal/vectorstore/memory"
	"ragmail/internal/vectorstore/sqlite"
)

// keywordEmbedder counts a fixed vocabulary, which makes similarities easy to reason about.
type keywordEmbedder struct {
	vocab []string
	calls int
	fail  bool
}

func (e *keywordEmbedder) Name() string { return "keyword" }

func (e *keywordEmbedder) Embed(_ context.Context, text string) ([]float64, error) {
	e.calls++
	if e.fail {
		return nil, errors.New("service unavailable")
	}
	lower := strings.ToLower(text)
	vec := make([]float64, len(e.vocab))
	for i, w := range e.vocab {
		vec[i] = float64(strings.Count(lower, w))
	}
	return vec, nil
}

func threeChunks() []domain.Chunk {
	return []domain.Chunk{
		{Index: 0, Content: "The invoice is due on the first of the month."},
		{Index: 1, Content: "The deadline for the report is Friday. Deadline is firm."},
		{Index: 2, Content: "Submit the report to the deadline portal."},
	}
}

func TestQuery_BeforeBuild(t *testing.T) {
	x := New(&keywordEmbedder{vocab: []string{"deadline"}}, memory.NewStorage(), nil)
	_, err := x.Query(context.Background(), "deadline", 2)
	if !errors.Is(err, domain.ErrIndexNotFound) {
		t.Fatalf("err = %v, want ErrIndexNotFound", err)
	}
}

func TestQuery_MissingIndexSkipsEmbedder(t *testing.T) {
	emb := &keywordEmbedder{vocab: []string{"deadline"}, fail: true}
	ctx := context.Background()
	cases := map[string]domain.VectorStore{
		"memory": memory.NewStorage(),
		"sqlite": sqlite.NewStorage(sqlite.Config{Path: filepath.Join(t.TempDir(), "index.db")}),
	}
	for name, store := range cases {
		t.Run(name, func(t *testing.T) {
			emb.calls = 0
			_, err := New(emb, store, nil).Query(ctx, "deadline", 2)
			if !errors.Is(err, domain.ErrIndexNotFound) {
				t.Fatalf("err = %v, want ErrIndexNotFound", err)
			}
			if emb.calls != 0 {
				t.Errorf("embedder called %d times before the index was found", emb.calls)
			}
		})
	}
}

func TestQuery_EmptyIndex(t *testing.T) {
	emb := &keywordEmbedder{vocab: []string{"deadline"}}
	x := New(emb, memory.NewStorage(), nil)
	ctx := context.Background()
	if _, err := x.Build(ctx, nil); err != nil {
		t.Fatalf("Build: %v", err)
	}
	if _, err := x.Query(ctx, "deadline", 2); !errors.Is(err, domain.ErrIndexNotFound) {
		t.Fatalf("err = %v, want ErrIndexNotFound", err)
	}
	if emb.calls != 0 {
		t.Errorf("embedder called %d times for an empty index", emb.calls)
	}
}

func TestBuildAndQuery_TopTwo(t *testing.T) {
	stores := map[string]domain.VectorStore{
		"memory": memory.NewStorage(),
		"sqlite": sqlite.NewStorage(sqlite.Config{Path: filepath.Join(t.TempDir(), "index.db")}),
	}
	for name, store := range stores {
		t.Run(name, func(t *testing.T) {
			emb := &keywordEmbedder{vocab: []string{"invoice", "deadline", "report"}}
			x := New(emb, store, nil)
			ctx := context.Background()
			n, err := x.Build(ctx, threeChunks())
			if err != nil {
				t.Fatalf("Build: %v", err)
			}
			if n != 3 || emb.calls != 3 {
				t.Fatalf("indexed %d chunks with %d embed calls", n, emb.calls)
			}
			res, err := x.Query(ctx, "deadline deadline", 2)
			if err != nil {
				t.Fatalf("Query: %v", err)
			}
			if len(res) != 2 {
				t.Fatalf("got %d results, want 2", len(res))
			}
			if res[0].Chunk.Index != 1 || res[1].Chunk.Index != 2 {
				t.Errorf("order = [%d %d], want [1 2]", res[0].Chunk.Index, res[1].Chunk.Index)
			}
			if res[0].Score < res[1].Score {
				t.Errorf("scores not descending: %v >= %v", res[0].Score, res[1].Score)
			}
		})
	}
}

func TestBuild_EmbeddingFailure(t *testing.T) {
	x := New(&keywordEmbedder{vocab: []string{"a"}, fail: true}, memory.NewStorage(), nil)
	_, err := x.Build(context.Background(), threeChunks())
	if !errors.Is(err, domain.ErrEmbeddingService) {
		t.Fatalf("err = %v, want ErrEmbeddingService", err)
	}
	if !errors.Is(err, domain.ErrExternalService) {
		t.Errorf("embedding failure should also be an external service error")
	}
}

func TestBuild_FromChunker(t *testing.T) {
	text := strings.Repeat("Quarterly invoice details follow. ", 40)
	chunks, err := chunker.NewRecursiveChunker(400, 100).Chunk(domain.Document{Text: text})
	if err != nil {
		t.Fatalf("Chunk: %v", err)
	}
	emb := &keywordEmbedder{vocab: []string{"invoice"}}
	n, err := New(emb, memory.NewStorage(), nil).Build(context.Background(), chunks)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if n != len(chunks) {
		t.Errorf("indexed %d, want %d", n, len(chunks))
	}
}
