package sentiment

import (
	"context"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
)

// Stage names reported to progress callbacks.
const (
	StageInvoking = "invoking"
	StageIngest   = "ingesting"
)

const rawPreviewLimit = 2000

// Analyze asks the configured model for a sentiment analysis of req.Symbol
// and returns the validated result.
func (c *Core) Analyze(ctx context.Context, req AnalysisRequest) (*SentimentAnalysis, error) {
	return c.AnalyzeWithProgress(ctx, req, nil)
}

// AnalyzeWithProgress is Analyze with a callback invoked before each stage.
func (c *Core) AnalyzeWithProgress(ctx context.Context, req AnalysisRequest, onStage func(stage string)) (*SentimentAnalysis, error) {
	normalized, err := normalizeAnalysisRequest(req)
	if err != nil {
		return nil, err
	}
	traceID := uuid.NewString()
	logger := c.logger.With("analysis_id", traceID, "symbol", normalized.Symbol, "exchange", normalized.Exchange)

	invoker, model, err := c.resolveInvoker(normalized)
	if err != nil {
		logger.Warn("ai invoker unavailable", "err", err)
		return nil, err
	}

	notify(onStage, StageInvoking)
	callCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	started := time.Now()
	raw, err := invoker.Invoke(callCtx, BuildPrompt(normalized.Symbol, normalized.Exchange))
	if err != nil {
		logger.Error("ai request failed", "model", model, "duration_ms", time.Since(started).Milliseconds(), "err", err)
		return nil, WrapError(ErrCodeTransportFailure, "model request failed", err)
	}
	logger.Info("ai request completed",
		"model", raw.Model,
		"duration_ms", time.Since(started).Milliseconds(),
		"response_chars", len(raw.Text),
		"grounding_variants", len(raw.Grounding),
	)
	logger.Debug("ai raw response", "text", raw.Text)

	notify(onStage, StageIngest)
	analysis, err := Ingest(raw)
	if err != nil {
		logger.Warn("ai response rejected",
			"code", CodeOf(err),
			"err", err,
			"raw_preview", preview(raw.Text, rawPreviewLimit),
		)
		return nil, err
	}
	logger.Info("analysis ready",
		"sentiment", analysis.OverallSentiment,
		"recommendation", analysis.Recommendation,
		"history_points", len(analysis.HistoricalData),
		"data_sources", len(analysis.DataSources),
	)
	return analysis, nil
}

func (c *Core) resolveInvoker(req AnalysisRequest) (ModelInvoker, string, error) {
	if c.invoker != nil {
		return c.invoker, req.Model, nil
	}
	settings, err := c.GetModelSettings()
	if err != nil {
		return nil, "", err
	}
	if req.Provider != "" && req.Provider != settings.Provider {
		settings = ModelSettings{Provider: req.Provider}
	}
	if req.Model != "" {
		settings.Model = req.Model
	}
	if req.BaseURL != "" {
		settings.BaseURL = req.BaseURL
	}
	settings, err = NormalizeModelSettings(settings)
	if err != nil {
		return nil, "", err
	}

	apiKey := req.APIKey
	if apiKey == "" {
		apiKey = c.apiKeys(settings.Provider)
	}
	invoker, err := newInvoker(invokerConfig{
		Provider:     settings.Provider,
		Model:        settings.Model,
		BaseURL:      settings.BaseURL,
		APIKey:       apiKey,
		SystemPrompt: analysisSystemPrompt,
		Logger:       c.logger,
	})
	if err != nil {
		return nil, "", WrapError(ErrCodeTransportFailure, "model client unavailable", err)
	}
	return invoker, settings.Model, nil
}

func notify(onStage func(string), stage string) {
	if onStage != nil {
		onStage(stage)
	}
}

func preview(s string, limit int) string {
	if len(s) <= limit {
		return s
	}
	cut := limit
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut] + "..."
}
