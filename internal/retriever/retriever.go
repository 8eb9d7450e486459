package retriever

import (
	"context"
	"strings"

	"ragmail/internal/domain"
)

const DefaultTopK = 4

const (
	queryPrefix = "Extract relevant information to help respond to this email:\n\n"
	querySuffix = "\n\nThe email may ask for deliverables, clarifications, or deadlines."
)

// Searcher is the part of the index the retriever needs.
type Searcher interface {
	Query(ctx context.Context, text string, k int) ([]domain.SearchResult, error)
}

type Retriever struct {
	index Searcher
	topK  int
}

func New(index Searcher, topK int) *Retriever {
	if topK <= 0 {
		topK = DefaultTopK
	}
	return &Retriever{index: index, topK: topK}
}

// BuildQuery frames the current message as a retrieval task.
func BuildQuery(currentMessage string) string {
	return queryPrefix + strings.TrimSpace(currentMessage) + querySuffix
}

// Retrieve joins the text of the k most similar chunks with blank lines, most similar first.
// k <= 0 uses the retriever's default. An empty or absent index yields domain.ErrIndexNotFound.
func (r *Retriever) Retrieve(ctx context.Context, query string, k int) (string, error) {
	results, err := r.Search(ctx, query, k)
	if err != nil {
		return "", err
	}
	parts := make([]string, len(results))
	for i, res := range results {
		parts[i] = res.Chunk.Content
	}
	return strings.Join(parts, "\n\n"), nil
}

// Search returns the scored results behind Retrieve.
func (r *Retriever) Search(ctx context.Context, query string, k int) ([]domain.SearchResult, error) {
	if k <= 0 {
		k = r.topK
	}
	results, err := r.index.Query(ctx, query, k)
	if err != nil {
		return nil, err
	}
	if len(results) == 0 {
		return nil, domain.ErrIndexNotFound
	}
	return results, nil
}
