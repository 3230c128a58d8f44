package api

import (
	"encoding/json"

	"stocksentiment/pkg/sentiment"
)

type analyzePayload struct {
	Symbol   string `json:"symbol"`
	Exchange string `json:"exchange"`
	Provider string `json:"provider"`
	Model    string `json:"model"`
	BaseURL  string `json:"base_url"`
	APIKey   string `json:"api_key"`
}

func (p analyzePayload) request() sentiment.AnalysisRequest {
	return sentiment.AnalysisRequest{
		Symbol:   p.Symbol,
		Exchange: p.Exchange,
		Provider: p.Provider,
		Model:    p.Model,
		BaseURL:  p.BaseURL,
		APIKey:   p.APIKey,
	}
}

// ingestPayload replays a captured model reply through the pipeline.
// Grounding accepts any of the provider metadata shapes.
type ingestPayload struct {
	Text      string          `json:"text"`
	Grounding json.RawMessage `json:"grounding"`
}

type analysisResponse struct {
	Analysis *sentiment.SentimentAnalysis `json:"analysis"`
	Charts   sentiment.ChartData          `json:"charts"`
	Alert    *sentiment.AlertTrigger      `json:"alert,omitempty"`
}

type sharePayload struct {
	Analysis *sentiment.SentimentAnalysis `json:"analysis"`
	PageURL  string                       `json:"page_url"`
}

type aiSettingsPayload struct {
	Provider string `json:"provider"`
	Model    string `json:"model"`
	BaseURL  string `json:"base_url"`
}

type alertPayload struct {
	Target       float64 `json:"target"`
	CurrentPrice float64 `json:"current_price"`
}

type alertCheckPayload struct {
	Price          float64 `json:"price"`
	CurrencySymbol string  `json:"currency_symbol"`
}

type alertCheckResponse struct {
	Triggered bool                    `json:"triggered"`
	Trigger   *sentiment.AlertTrigger `json:"trigger,omitempty"`
}
