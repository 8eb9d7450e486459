package cmd

import (
	"fmt"
	"time"

	"ragmail/internal/chunker"
	"ragmail/internal/composer"
	"ragmail/internal/config"
	"ragmail/internal/domain"
	"ragmail/internal/embedding/hashing"
	"ragmail/internal/index"
	"ragmail/internal/provider/ollama"
	"ragmail/internal/provider/openai"
	"ragmail/internal/runlog"
	"ragmail/internal/service"
	"ragmail/internal/summarizer"
	"ragmail/internal/vectorstore/memory"
	"ragmail/internal/vectorstore/qdrant"
	"ragmail/internal/vectorstore/sqlite"
)

func seconds(n int) time.Duration { return time.Duration(n) * time.Second }

func newOpenAI(c *config.AppConfig) (*openai.Client, error) {
	return openai.NewClient(openai.Config{
		BaseURL:        c.OpenAI.BaseURL,
		APIKeyEnv:      c.OpenAI.APIKeyEnv,
		EmbeddingModel: c.OpenAI.EmbeddingModel,
		Timeout:        seconds(c.OpenAI.TimeoutSecs),
	})
}

func newOllama(c *config.AppConfig) (*ollama.Client, error) {
	return ollama.NewClient(ollama.Config{
		URL:            c.Ollama.URL,
		EmbeddingModel: c.Ollama.EmbeddingModel,
		Timeout:        seconds(c.Ollama.TimeoutSecs),
	})
}

// newEmbedder returns the configured embedder and a key identifying its vector space.
func newEmbedder(c *config.AppConfig) (domain.Embedder, string, error) {
	switch c.Embedder.Type {
	case "openai":
		client, err := newOpenAI(c)
		if err != nil {
			return nil, "", err
		}
		return client, "openai/" + c.OpenAI.EmbeddingModel, nil
	case "ollama":
		client, err := newOllama(c)
		if err != nil {
			return nil, "", err
		}
		return client, "ollama/" + c.Ollama.EmbeddingModel, nil
	case "hashing":
		e := hashing.NewEmbedder(c.Embedder.Dimension)
		return e, fmt.Sprintf("hashing/%d", e.Dimension()), nil
	default:
		return nil, "", fmt.Errorf("%w: unknown embedder %q", domain.ErrConfiguration, c.Embedder.Type)
	}
}

func newGenerator(c *config.AppConfig) (domain.Generator, error) {
	switch c.Generator.Type {
	case "openai":
		return newOpenAI(c)
	case "ollama":
		return newOllama(c)
	default:
		return nil, fmt.Errorf("%w: unknown generator %q", domain.ErrConfiguration, c.Generator.Type)
	}
}

func newChunker(c *config.AppConfig) (domain.Chunker, error) {
	switch c.Chunker.Type {
	case "recursive":
		return chunker.NewRecursiveChunker(c.Chunker.ChunkSize, c.Chunker.ChunkOverlap), nil
	case "sentence":
		return chunker.NewSentenceChunker(c.Chunker.SentencesPerChunk, c.Chunker.OverlapSentences), nil
	default:
		return nil, fmt.Errorf("%w: unknown chunker %q", domain.ErrConfiguration, c.Chunker.Type)
	}
}

func newStore(c *config.AppConfig, embedderKey string) (domain.VectorStore, error) {
	switch c.VectorStore.Type {
	case "sqlite":
		return sqlite.NewStorage(sqlite.Config{Path: c.VectorStore.Path, Embedder: embedderKey}), nil
	case "memory":
		return memory.NewStorage(), nil
	case "qdrant":
		q := c.VectorStore.Qdrant
		if q == nil {
			return nil, fmt.Errorf("%w: qdrant config missing", domain.ErrConfiguration)
		}
		return qdrant.NewStorage(qdrant.Config{
			Host:       q.Host,
			Port:       q.Port,
			APIKey:     q.APIKey,
			UseTLS:     q.UseTLS,
			Collection: q.Collection,
		})
	default:
		return nil, fmt.Errorf("%w: unknown vector store %q", domain.ErrConfiguration, c.VectorStore.Type)
	}
}

func newSummarizer(c *config.AppConfig) (domain.Summarizer, error) {
	switch c.Summarizer.Type {
	case "frequency":
		return summarizer.NewFrequencySummarizer(), nil
	default:
		return nil, fmt.Errorf("%w: unknown summarizer %q", domain.ErrConfiguration, c.Summarizer.Type)
	}
}

type serviceOptions struct {
	generate    bool
	personaPath string
	noLog       bool
}

// newService assembles the pipeline from cfg. The generator is only built when opts.generate is
// set, so commands that never call the language model need no credentials for it.
func newService(opts serviceOptions) (*service.ReplyService, error) {
	emb, key, err := newEmbedder(cfg)
	if err != nil {
		return nil, err
	}
	ch, err := newChunker(cfg)
	if err != nil {
		return nil, err
	}
	store, err := newStore(cfg, key)
	if err != nil {
		return nil, err
	}
	sum, err := newSummarizer(cfg)
	if err != nil {
		_ = store.Close()
		return nil, err
	}
	var comp *composer.Composer
	if opts.generate {
		gen, err := newGenerator(cfg)
		if err != nil {
			_ = store.Close()
			return nil, err
		}
		personaPath := opts.personaPath
		if personaPath == "" {
			personaPath = cfg.Persona.Path
		}
		comp = composer.New(gen, composer.Config{
			PersonaPath: personaPath,
			Model:       cfg.Generator.Model,
			MaxTokens:   cfg.Generator.MaxTokens,
			Temperature: cfg.Generator.Temperature,
		}, logger)
	}
	var rl *runlog.Log
	if !opts.noLog {
		rl = runlog.New(cfg.RunLog.Path)
	}
	return service.NewReplyService(service.Config{
		Chunker:             ch,
		Index:               index.New(emb, store, logger),
		Composer:            comp,
		Summarizer:          sum,
		RunLog:              rl,
		Logger:              logger,
		TopK:                cfg.Retriever.TopK,
		SummaryMaxSentences: cfg.Summarizer.MaxSentences,
	}), nil
}
