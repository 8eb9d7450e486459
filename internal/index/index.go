package index

import (
	"context"
	"fmt"

	"ragmail/internal/common"
	"ragmail/internal/domain"
)

// Index embeds chunks and keeps them in a vector store. Each Build replaces the previous index.
type Index struct {
	embedder domain.Embedder
	store    domain.VectorStore
	logger   *common.Logger
}

func New(embedder domain.Embedder, store domain.VectorStore, logger *common.Logger) *Index {
	if logger == nil {
		logger = common.NewDiscardLogger()
	}
	return &Index{embedder: embedder, store: store, logger: logger}
}

// Build embeds every chunk once and replaces the stored index. It returns the number of chunks indexed.
func (x *Index) Build(ctx context.Context, chunks []domain.Chunk) (int, error) {
	vectors := make([][]float64, len(chunks))
	for i, ch := range chunks {
		vec, err := x.embedder.Embed(ctx, ch.Content)
		if err != nil {
			return 0, fmt.Errorf("%w: embed chunk %d with %s: %w", domain.ErrEmbeddingService, i, x.embedder.Name(), err)
		}
		vectors[i] = vec
	}
	x.logger.Debugf("embedded %d chunks with %s", len(chunks), x.embedder.Name())
	if err := x.store.Replace(ctx, chunks, vectors); err != nil {
		return 0, fmt.Errorf("store index: %w", err)
	}
	return len(chunks), nil
}

// Query returns the k chunks most similar to text, most similar first. The store is checked
// before text is embedded, so a missing index is reported without calling the embedder.
func (x *Index) Query(ctx context.Context, text string, k int) ([]domain.SearchResult, error) {
	ok, err := x.store.Exists(ctx)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, domain.ErrIndexNotFound
	}
	vec, err := x.embedder.Embed(ctx, text)
	if err != nil {
		return nil, fmt.Errorf("%w: embed query with %s: %w", domain.ErrEmbeddingService, x.embedder.Name(), err)
	}
	return x.store.Search(ctx, vec, k)
}

func (x *Index) Close() error {
	return x.store.Close()
}
