package sentiment

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
)

const (
	aiTemperature     = 0.2
	aiMaxOutputTokens = 8192
	webSearchMaxUses  = 5
)

// ModelInvoker sends one prompt to a generative model and returns its raw
// answer. Implementations own their timeout and perform no retries.
type ModelInvoker interface {
	Invoke(ctx context.Context, prompt string) (RawModelResponse, error)
}

// InvokerFunc adapts a function to ModelInvoker.
type InvokerFunc func(ctx context.Context, prompt string) (RawModelResponse, error)

// Invoke calls f.
func (f InvokerFunc) Invoke(ctx context.Context, prompt string) (RawModelResponse, error) {
	return f(ctx, prompt)
}

type invokerConfig struct {
	Provider     string
	Model        string
	BaseURL      string
	APIKey       string
	SystemPrompt string
	Logger       *slog.Logger
}

var errMissingAPIKey = errors.New("api key is not configured")

// newInvoker is swapped in tests.
var newInvoker = buildInvoker

func buildInvoker(cfg invokerConfig) (ModelInvoker, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, errMissingAPIKey
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	switch cfg.Provider {
	case ProviderGemini, "":
		return &geminiInvoker{cfg: cfg}, nil
	case ProviderOpenAI:
		return newOpenAIInvoker(cfg), nil
	case ProviderAnthropic:
		return newAnthropicInvoker(cfg), nil
	}
	return nil, fmt.Errorf("unsupported provider: %s", cfg.Provider)
}

func logPromptDebug(logger *slog.Logger, provider, model, prompt string) {
	if logger == nil || !logger.Enabled(context.Background(), slog.LevelDebug) {
		return
	}
	logger.Debug("ai prompt", "provider", provider, "model", model, "prompt_chars", len(prompt), "prompt", prompt)
}
