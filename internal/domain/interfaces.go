package domain

import (
	"context"
	"time"
)

// Document is the extracted text of a reference file.
type Document struct {
	Source string
	Text   string
	Pages  int
}

// Chunk is a bounded excerpt of a document used as the unit of embedding and retrieval.
type Chunk struct {
	Index   int
	Content string
}

// SearchResult represents a matching chunk with a relevance score.
type SearchResult struct {
	Chunk Chunk
	Score float64
}

// EmailThread is a raw thread split into the newest message and the quoted history.
type EmailThread struct {
	CurrentMessage string
	FullThread     string
	// MarkerFound is false when no quoting header was found and both fields hold the whole input.
	MarkerFound bool
	Subject     string
	From        string
}

// Persona is a writing-style profile applied to generated replies.
type Persona struct {
	Name    string   `yaml:"name" toml:"name"`
	Tone    string   `yaml:"tone" toml:"tone"`
	Phrases []string `yaml:"phrases" toml:"phrases"`
	Signoff string   `yaml:"signoff" toml:"signoff"`
}

// LogEntry is one record of the run log. Entries are never mutated once written.
type LogEntry struct {
	ID               string    `json:"id"`
	Timestamp        time.Time `json:"timestamp"`
	Model            string    `json:"model,omitempty"`
	QueryEmail       string    `json:"query_email"`
	EmailThread      string    `json:"email_thread"`
	RetrievedContext *string   `json:"retrieved_context"`
	GeneratedReply   string    `json:"generated_reply"`
}

// Embedder converts free text into a numeric vector representation.
type Embedder interface {
	Name() string
	Embed(ctx context.Context, text string) ([]float64, error)
}

// Chunker splits documents into chunks suitable for retrieval indexing.
type Chunker interface {
	Chunk(document Document) ([]Chunk, error)
}

// VectorStore holds chunk embeddings and supports similarity search.
// Replace discards whatever the store held before. Exists reports whether a non-empty index is
// available to search.
type VectorStore interface {
	Replace(ctx context.Context, chunks []Chunk, vectors [][]float64) error
	Exists(ctx context.Context) (bool, error)
	Search(ctx context.Context, vector []float64, topK int) ([]SearchResult, error)
	Close() error
}

// GenerateOptions bounds a single completion call.
type GenerateOptions struct {
	Model       string
	MaxTokens   int
	Temperature float64
}

// Generator produces text from a prompt using a hosted language model.
type Generator interface {
	Name() string
	Generate(ctx context.Context, prompt string, opts GenerateOptions) (string, error)
}

// Summarizer produces a brief summary of the provided text.
type Summarizer interface {
	Summarize(text string, maxSentences int) (string, error)
}
