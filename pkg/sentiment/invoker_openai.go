package sentiment

import (
	"context"
	"fmt"
	"strings"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

type openAIInvoker struct {
	cfg    invokerConfig
	client openai.Client
}

func newOpenAIInvoker(cfg invokerConfig) *openAIInvoker {
	opts := []option.RequestOption{option.WithAPIKey(cfg.APIKey)}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}
	return &openAIInvoker{cfg: cfg, client: openai.NewClient(opts...)}
}

func (o *openAIInvoker) Invoke(ctx context.Context, prompt string) (RawModelResponse, error) {
	logPromptDebug(o.cfg.Logger, ProviderOpenAI, o.cfg.Model, prompt)

	params := openai.ChatCompletionNewParams{
		Model: o.cfg.Model,
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(o.cfg.SystemPrompt),
			openai.UserMessage(prompt),
		},
		MaxCompletionTokens: openai.Int(aiMaxOutputTokens),
	}
	// Search models reject sampling parameters.
	if !strings.Contains(o.cfg.Model, "search") {
		params.Temperature = openai.Float(aiTemperature)
	}

	completion, err := o.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return RawModelResponse{}, fmt.Errorf("openai chat completion failed: %w", err)
	}
	if len(completion.Choices) == 0 {
		return RawModelResponse{Model: completion.Model}, nil
	}

	message := completion.Choices[0].Message
	cites := URLCitations{}
	for _, a := range message.Annotations {
		if a.URLCitation.URL == "" {
			continue
		}
		cites = append(cites, URLCitation{URL: a.URLCitation.URL, Title: a.URLCitation.Title})
	}
	model := completion.Model
	if model == "" {
		model = o.cfg.Model
	}
	return RawModelResponse{
		Text:      message.Content,
		Model:     model,
		Grounding: []GroundingMetadata{cites},
	}, nil
}
