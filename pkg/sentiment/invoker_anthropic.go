package sentiment

import (
	"context"
	"fmt"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
)

type anthropicInvoker struct {
	cfg    invokerConfig
	client anthropic.Client
}

func newAnthropicInvoker(cfg invokerConfig) *anthropicInvoker {
	opts := []option.RequestOption{option.WithAPIKey(cfg.APIKey)}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}
	return &anthropicInvoker{cfg: cfg, client: anthropic.NewClient(opts...)}
}

func (a *anthropicInvoker) Invoke(ctx context.Context, prompt string) (RawModelResponse, error) {
	logPromptDebug(a.cfg.Logger, ProviderAnthropic, a.cfg.Model, prompt)

	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(a.cfg.Model),
		MaxTokens: aiMaxOutputTokens,
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(prompt)),
		},
		Temperature: anthropic.Float(aiTemperature),
		Tools: []anthropic.ToolUnionParam{{
			OfWebSearchTool20250305: &anthropic.WebSearchTool20250305Param{
				MaxUses: anthropic.Int(webSearchMaxUses),
			},
		}},
	}
	if a.cfg.SystemPrompt != "" {
		params.System = []anthropic.TextBlockParam{{Text: a.cfg.SystemPrompt}}
	}

	message, err := a.client.Messages.New(ctx, params)
	if err != nil {
		return RawModelResponse{}, fmt.Errorf("anthropic messages request failed: %w", err)
	}

	var text strings.Builder
	cites := URLCitations{}
	for _, block := range message.Content {
		if block.Type != "text" {
			continue
		}
		text.WriteString(block.Text)
		for _, c := range block.Citations {
			if c.URL == "" {
				continue
			}
			cites = append(cites, URLCitation{URL: c.URL, Title: c.Title})
		}
	}
	model := string(message.Model)
	if model == "" {
		model = a.cfg.Model
	}
	return RawModelResponse{
		Text:      text.String(),
		Model:     model,
		Grounding: []GroundingMetadata{cites},
	}, nil
}
