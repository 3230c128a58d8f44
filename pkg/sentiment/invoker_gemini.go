package sentiment

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"google.golang.org/genai"
)

const defaultGeminiBaseURL = "https://generativelanguage.googleapis.com/v1beta"

type geminiInvoker struct {
	cfg invokerConfig
}

func (g *geminiInvoker) Invoke(ctx context.Context, prompt string) (RawModelResponse, error) {
	logPromptDebug(g.cfg.Logger, ProviderGemini, g.cfg.Model, prompt)

	clientConfig, err := buildGeminiClientConfig(g.cfg.BaseURL, g.cfg.APIKey)
	if err != nil {
		return RawModelResponse{}, err
	}
	client, err := genai.NewClient(ctx, clientConfig)
	if err != nil {
		return RawModelResponse{}, fmt.Errorf("create gemini client failed: %w", err)
	}

	// Search grounding cannot be combined with a JSON response MIME type, so
	// the JSON shape is enforced by the prompt and the extractor instead.
	requestConfig := &genai.GenerateContentConfig{
		SystemInstruction: &genai.Content{
			Parts: []*genai.Part{{Text: g.cfg.SystemPrompt}},
		},
		Temperature:     genai.Ptr(float32(aiTemperature)),
		MaxOutputTokens: aiMaxOutputTokens,
		Tools:           []*genai.Tool{{GoogleSearch: &genai.GoogleSearch{}}},
	}

	response, err := client.Models.GenerateContent(ctx, g.cfg.Model, genai.Text(prompt), requestConfig)
	if err != nil {
		return RawModelResponse{}, fmt.Errorf("gemini generate content failed: %w", err)
	}
	model := strings.TrimSpace(response.ModelVersion)
	if model == "" {
		model = g.cfg.Model
	}
	return RawModelResponse{
		Text:      response.Text(),
		Model:     model,
		Grounding: geminiGrounding(response),
	}, nil
}

func geminiGrounding(response *genai.GenerateContentResponse) []GroundingMetadata {
	if response == nil {
		return nil
	}
	var out []GroundingMetadata
	for _, cand := range response.Candidates {
		if cand == nil {
			continue
		}
		if gm := cand.GroundingMetadata; gm != nil {
			chunks := WebChunks{}
			for _, chunk := range gm.GroundingChunks {
				if chunk == nil || chunk.Web == nil {
					continue
				}
				chunks = append(chunks, WebChunk{URI: chunk.Web.URI, Title: chunk.Web.Title, Domain: chunk.Web.Domain})
			}
			out = append(out, chunks)
		}
		if cm := cand.CitationMetadata; cm != nil {
			sources := CitationSources{}
			for _, c := range cm.Citations {
				if c == nil {
					continue
				}
				sources = append(sources, CitationSource{
					URI:        c.URI,
					Title:      c.Title,
					StartIndex: int(c.StartIndex),
					EndIndex:   int(c.EndIndex),
				})
			}
			out = append(out, sources)
		}
	}
	return out
}

func buildGeminiClientConfig(endpoint, apiKey string) (*genai.ClientConfig, error) {
	baseURL, apiVersion, err := parseGeminiBaseURLAndVersion(endpoint)
	if err != nil {
		return nil, err
	}
	return &genai.ClientConfig{
		APIKey:  strings.TrimSpace(apiKey),
		Backend: genai.BackendGeminiAPI,
		HTTPOptions: genai.HTTPOptions{
			BaseURL:    baseURL,
			APIVersion: apiVersion,
		},
	}, nil
}

// parseGeminiBaseURLAndVersion splits an endpoint such as
// https://proxy.example.com/google/v1beta into the SDK base URL and the API
// version segment.
func parseGeminiBaseURLAndVersion(endpoint string) (string, string, error) {
	trimmed := strings.TrimSpace(endpoint)
	if trimmed == "" {
		trimmed = defaultGeminiBaseURL
	}
	if !strings.Contains(trimmed, "://") {
		trimmed = "https://" + trimmed
	}

	parsed, err := url.Parse(trimmed)
	if err != nil {
		return "", "", fmt.Errorf("invalid gemini endpoint: %w", err)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return "", "", fmt.Errorf("invalid gemini endpoint scheme: %s", parsed.Scheme)
	}
	if parsed.Host == "" {
		return "", "", fmt.Errorf("invalid gemini endpoint host")
	}

	apiVersion := "v1beta"
	var prefix []string
	path := strings.Trim(parsed.Path, "/")
	if path != "" {
		segments := strings.Split(path, "/")
		prefix = segments
		for idx, segment := range segments {
			if strings.HasPrefix(strings.ToLower(segment), "v1") {
				apiVersion = segment
				prefix = segments[:idx]
				break
			}
		}
	}

	baseURL := fmt.Sprintf("%s://%s/", parsed.Scheme, parsed.Host)
	if basePath := strings.Join(prefix, "/"); basePath != "" {
		baseURL += basePath + "/"
	}
	return baseURL, apiVersion, nil
}
