package composer

import (
	"context"

	"ragmail/internal/common"
	"ragmail/internal/domain"
	"ragmail/internal/persona"
)

const (
	DefaultModel       = "gpt-3.5-turbo"
	DefaultMaxTokens   = 400
	DefaultTemperature = 0.3
)

// Config holds the generation settings shared by every reply.
type Config struct {
	PersonaPath string
	Model       string
	MaxTokens   int
	Temperature float64
}

// Composer turns a split thread and optional document context into a reply.
type Composer struct {
	generator domain.Generator
	cfg       Config
	logger    *common.Logger
}

func New(generator domain.Generator, cfg Config, logger *common.Logger) *Composer {
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = DefaultMaxTokens
	}
	if logger == nil {
		logger = common.NewDiscardLogger()
	}
	return &Composer{generator: generator, cfg: cfg, logger: logger}
}

// Input describes one reply. Empty Model and PersonaPath fall back to the composer config.
type Input struct {
	Thread      domain.EmailThread
	Context     *string
	Model       string
	PersonaPath string
}

// Model reports the model a reply for in would use.
func (c *Composer) Model(in Input) string {
	if in.Model != "" {
		return in.Model
	}
	return c.cfg.Model
}

// Compose loads the persona, builds the prompt and returns the generated text verbatim.
// Generator errors are returned unchanged.
func (c *Composer) Compose(ctx context.Context, in Input) (string, error) {
	path := in.PersonaPath
	if path == "" {
		path = c.cfg.PersonaPath
	}
	p, err := persona.Load(path)
	if err != nil {
		return "", err
	}
	prompt, err := BuildPrompt(PromptInput{Thread: in.Thread, Context: in.Context, Persona: p})
	if err != nil {
		return "", err
	}
	opts := domain.GenerateOptions{
		Model:       c.Model(in),
		MaxTokens:   c.cfg.MaxTokens,
		Temperature: c.cfg.Temperature,
	}
	c.logger.Debugf("generating reply with %s model %s (%d prompt chars)", c.generator.Name(), opts.Model, len(prompt))
	return c.generator.Generate(ctx, prompt, opts)
}
