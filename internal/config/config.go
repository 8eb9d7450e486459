package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	"ragmail/internal/domain"
)

// OpenAIConfig holds configuration for the OpenAI-compatible API.
type OpenAIConfig struct {
	BaseURL        string `yaml:"base_url" toml:"base_url"`
	APIKeyEnv      string `yaml:"api_key_env" toml:"api_key_env"`
	EmbeddingModel string `yaml:"embedding_model" toml:"embedding_model"`
	TimeoutSecs    int    `yaml:"timeout_secs" toml:"timeout_secs"`
}

// OllamaConfig holds configuration for a local Ollama server.
type OllamaConfig struct {
	URL            string `yaml:"url" toml:"url"`
	EmbeddingModel string `yaml:"embedding_model" toml:"embedding_model"`
	TimeoutSecs    int    `yaml:"timeout_secs" toml:"timeout_secs"`
}

// EmbedderConfig selects the text embedder implementation.
type EmbedderConfig struct {
	Type string `yaml:"type" toml:"type"`
	// Dimension applies to the hashing embedder.
	Dimension int `yaml:"dimension" toml:"dimension"`
}

// GeneratorConfig selects the language model used for replies.
type GeneratorConfig struct {
	Type        string  `yaml:"type" toml:"type"`
	Model       string  `yaml:"model" toml:"model"`
	MaxTokens   int     `yaml:"max_tokens" toml:"max_tokens"`
	Temperature float64 `yaml:"temperature" toml:"temperature"`
}

// ChunkerConfig configures how documents are split into chunks.
type ChunkerConfig struct {
	Type              string `yaml:"type" toml:"type"`
	ChunkSize         int    `yaml:"chunk_size" toml:"chunk_size"`
	ChunkOverlap      int    `yaml:"chunk_overlap" toml:"chunk_overlap"`
	SentencesPerChunk int    `yaml:"sentences_per_chunk" toml:"sentences_per_chunk"`
	OverlapSentences  int    `yaml:"overlap_sentences" toml:"overlap_sentences"`
}

// VectorStoreConfig selects and configures the vector store implementation.
type VectorStoreConfig struct {
	Type   string        `yaml:"type" toml:"type"`
	Path   string        `yaml:"path" toml:"path"`
	Qdrant *QdrantConfig `yaml:"qdrant,omitempty" toml:"qdrant,omitempty"`
}

// QdrantConfig contains connection details for a Qdrant vector store.
type QdrantConfig struct {
	Host       string `yaml:"host" toml:"host"`
	Port       int    `yaml:"port" toml:"port"`
	APIKey     string `yaml:"api_key" toml:"api_key"`
	UseTLS     bool   `yaml:"use_tls" toml:"use_tls"`
	Collection string `yaml:"collection" toml:"collection"`
}

type RetrieverConfig struct {
	TopK int `yaml:"top_k" toml:"top_k"`
}

type PersonaConfig struct {
	Path string `yaml:"path" toml:"path"`
}

type RunLogConfig struct {
	Path string `yaml:"path" toml:"path"`
}

type SummarizerConfig struct {
	Type         string `yaml:"type" toml:"type"`
	MaxSentences int    `yaml:"max_sentences" toml:"max_sentences"`
}

// AppConfig is the root application configuration structure.
type AppConfig struct {
	OpenAI      OpenAIConfig      `yaml:"openai" toml:"openai"`
	Ollama      OllamaConfig      `yaml:"ollama" toml:"ollama"`
	Embedder    EmbedderConfig    `yaml:"embedder" toml:"embedder"`
	Generator   GeneratorConfig   `yaml:"generator" toml:"generator"`
	Chunker     ChunkerConfig     `yaml:"chunker" toml:"chunker"`
	VectorStore VectorStoreConfig `yaml:"vector_store" toml:"vector_store"`
	Retriever   RetrieverConfig   `yaml:"retriever" toml:"retriever"`
	Persona     PersonaConfig     `yaml:"persona" toml:"persona"`
	RunLog      RunLogConfig      `yaml:"run_log" toml:"run_log"`
	Summarizer  SummarizerConfig  `yaml:"summarizer" toml:"summarizer"`
}

// Load reads a config from a specified path. If the file does not exist, returns defaults.
// Files ending in .toml are decoded as TOML, everything else as YAML.
func Load(path string) (*AppConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return defaultConfig(), nil
		}
		return nil, err
	}
	cfg := defaultConfig()
	if strings.EqualFold(filepath.Ext(path), ".toml") {
		err = toml.Unmarshal(data, cfg)
	} else {
		err = yaml.Unmarshal(data, cfg)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: parse %s: %v", domain.ErrConfiguration, path, err)
	}
	applyConfigDefaults(cfg)
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", domain.ErrConfiguration, path, err)
	}
	return cfg, nil
}

// LoadDefault tries ./ragmail.yaml, ./ragmail.toml, then ~/.config/ragmail/config.yaml.
// If none exists, it writes defaults to ~/.config/ragmail/config.yaml and returns them.
func LoadDefault() (*AppConfig, string, error) {
	for _, p := range []string{"ragmail.yaml", "ragmail.toml"} {
		if _, err := os.Stat(p); err == nil {
			cfg, err := Load(p)
			return cfg, p, err
		}
	}
	userPath, err := defaultUserConfigPath()
	if err != nil {
		return nil, "", err
	}
	if _, err := os.Stat(userPath); err == nil {
		cfg, err := Load(userPath)
		return cfg, userPath, err
	}
	cfg := defaultConfig()
	if err := Save(userPath, cfg); err != nil {
		return nil, "", err
	}
	return cfg, userPath, nil
}

// Save writes the config to the given path, creating directories as needed.
func Save(path string, cfg *AppConfig) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	var data []byte
	var err error
	if strings.EqualFold(filepath.Ext(path), ".toml") {
		var b strings.Builder
		err = toml.NewEncoder(&b).Encode(cfg)
		data = []byte(b.String())
	} else {
		data, err = yaml.Marshal(cfg)
	}
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

// Validate rejects unknown component types.
func (c *AppConfig) Validate() error {
	check := func(field, value string, allowed ...string) error {
		for _, a := range allowed {
			if value == a {
				return nil
			}
		}
		return fmt.Errorf("unknown %s %q (want one of %s)", field, value, strings.Join(allowed, ", "))
	}
	if err := check("embedder", c.Embedder.Type, "openai", "ollama", "hashing"); err != nil {
		return err
	}
	if err := check("generator", c.Generator.Type, "openai", "ollama"); err != nil {
		return err
	}
	if err := check("chunker", c.Chunker.Type, "recursive", "sentence"); err != nil {
		return err
	}
	if err := check("vector store", c.VectorStore.Type, "sqlite", "memory", "qdrant"); err != nil {
		return err
	}
	if err := check("summarizer", c.Summarizer.Type, "frequency"); err != nil {
		return err
	}
	if c.VectorStore.Type == "qdrant" && c.VectorStore.Qdrant == nil {
		return errors.New("qdrant config missing")
	}
	if c.Chunker.ChunkOverlap >= c.Chunker.ChunkSize {
		return fmt.Errorf("chunk_overlap %d must be smaller than chunk_size %d", c.Chunker.ChunkOverlap, c.Chunker.ChunkSize)
	}
	return nil
}

func defaultUserConfigPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", "ragmail", "config.yaml"), nil
}

func defaultConfig() *AppConfig {
	cfg := &AppConfig{
		Embedder:    EmbedderConfig{Type: "openai"},
		Generator:   GeneratorConfig{Type: "openai", Model: "gpt-3.5-turbo", MaxTokens: 400, Temperature: 0.3},
		Chunker:     ChunkerConfig{Type: "recursive", ChunkSize: 400, ChunkOverlap: 100},
		VectorStore: VectorStoreConfig{Type: "sqlite", Path: filepath.Join("vectorstore", "index.db")},
		Retriever:   RetrieverConfig{TopK: 4},
		Persona:     PersonaConfig{Path: "persona.json"},
		RunLog:      RunLogConfig{Path: "response_log.json"},
		Summarizer:  SummarizerConfig{Type: "frequency", MaxSentences: 3},
	}
	applyConfigDefaults(cfg)
	return cfg
}

func applyConfigDefaults(cfg *AppConfig) {
	if cfg.OpenAI.BaseURL == "" {
		cfg.OpenAI.BaseURL = "https://api.openai.com/v1"
	}
	if cfg.OpenAI.APIKeyEnv == "" {
		cfg.OpenAI.APIKeyEnv = "OPENAI_API_KEY"
	}
	if cfg.OpenAI.EmbeddingModel == "" {
		cfg.OpenAI.EmbeddingModel = "text-embedding-3-small"
	}
	if cfg.OpenAI.TimeoutSecs == 0 {
		cfg.OpenAI.TimeoutSecs = 60
	}
	if cfg.Ollama.URL == "" {
		cfg.Ollama.URL = "http://localhost:11434"
	}
	if cfg.Ollama.EmbeddingModel == "" {
		cfg.Ollama.EmbeddingModel = "nomic-embed-text"
	}
	if cfg.Ollama.TimeoutSecs == 0 {
		cfg.Ollama.TimeoutSecs = 300
	}
	if cfg.Embedder.Type == "hashing" && cfg.Embedder.Dimension == 0 {
		cfg.Embedder.Dimension = 512
	}
	if cfg.Generator.Type == "" {
		cfg.Generator.Type = "openai"
	}
	if cfg.Generator.Model == "" {
		cfg.Generator.Model = "gpt-3.5-turbo"
	}
	if cfg.Generator.MaxTokens == 0 {
		cfg.Generator.MaxTokens = 400
	}
	if cfg.Chunker.Type == "" {
		cfg.Chunker.Type = "recursive"
	}
	if cfg.Chunker.ChunkSize == 0 {
		cfg.Chunker.ChunkSize = 400
	}
	if cfg.Chunker.SentencesPerChunk == 0 {
		cfg.Chunker.SentencesPerChunk = 5
	}
	if cfg.VectorStore.Type == "" {
		cfg.VectorStore.Type = "sqlite"
	}
	if cfg.VectorStore.Path == "" {
		cfg.VectorStore.Path = filepath.Join("vectorstore", "index.db")
	}
	if q := cfg.VectorStore.Qdrant; q != nil {
		if q.Host == "" {
			q.Host = "localhost"
		}
		if q.Port == 0 {
			q.Port = 6334
		}
		if q.Collection == "" {
			q.Collection = "ragmail"
		}
	}
	if cfg.Retriever.TopK == 0 {
		cfg.Retriever.TopK = 4
	}
	if cfg.Persona.Path == "" {
		cfg.Persona.Path = "persona.json"
	}
	if cfg.RunLog.Path == "" {
		cfg.RunLog.Path = "response_log.json"
	}
	if cfg.Summarizer.Type == "" {
		cfg.Summarizer.Type = "frequency"
	}
	if cfg.Summarizer.MaxSentences == 0 {
		cfg.Summarizer.MaxSentences = 3
	}
}
