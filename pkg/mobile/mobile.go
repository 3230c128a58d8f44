package mobile

import (
	"context"
	"encoding/json"
	"strings"

	"stocksentiment/pkg/sentiment"
)

// ProgressListener receives analysis stage names. Implemented on the
// platform side of the binding.
type ProgressListener interface {
	OnStage(stage string)
}

// Core wraps the sentiment core for gomobile bindings.
type Core struct {
	core *sentiment.Core
}

// Open initializes the core with a database path.
func Open(dbPath string) (*Core, error) {
	core, err := sentiment.Open(dbPath)
	if err != nil {
		return nil, err
	}
	return &Core{core: core}, nil
}

// Close releases resources.
func (c *Core) Close() error {
	if c == nil || c.core == nil {
		return nil
	}
	return c.core.Close()
}

// AnalyzeJSON runs an analysis described by payloadJSON and returns the
// analysis, chart series and any fired price alert as JSON.
func (c *Core) AnalyzeJSON(payloadJSON string, listener ProgressListener) (string, error) {
	var payload analyzePayload
	if err := unmarshalPayload(payloadJSON, &payload); err != nil {
		return "", err
	}
	var onStage func(string)
	if listener != nil {
		onStage = listener.OnStage
	}
	analysis, err := c.core.AnalyzeWithProgress(context.Background(), sentiment.AnalysisRequest{
		Symbol:   payload.Symbol,
		Exchange: payload.Exchange,
		Provider: payload.Provider,
		Model:    payload.Model,
		BaseURL:  payload.BaseURL,
		APIKey:   payload.APIKey,
	}, onStage)
	if err != nil {
		return "", err
	}

	exchange := strings.TrimSpace(payload.Exchange)
	if exchange == "" {
		exchange = sentiment.DefaultExchange
	}
	trigger, err := c.core.CheckPriceAlert(exchange, payload.Symbol, analysis.CurrencySymbol, analysis.CurrentPrice)
	if err != nil {
		return "", err
	}
	return marshalJSON(analysisResult{Analysis: analysis, Charts: sentiment.BuildCharts(analysis), Alert: trigger})
}

// IngestJSON validates a captured model reply. groundingJSON may be empty.
func IngestJSON(text, groundingJSON string) (string, error) {
	grounding, err := sentiment.ParseGroundingJSON([]byte(groundingJSON))
	if err != nil {
		return "", err
	}
	analysis, err := sentiment.Ingest(sentiment.RawModelResponse{Text: text, Grounding: grounding})
	if err != nil {
		return "", err
	}
	return marshalJSON(analysisResult{Analysis: analysis, Charts: sentiment.BuildCharts(analysis)})
}

// ChartsJSON derives chart series from an analysis JSON document.
func ChartsJSON(analysisJSON string) (string, error) {
	analysis, err := decodeAnalysis(analysisJSON)
	if err != nil {
		return "", err
	}
	return marshalJSON(sentiment.BuildCharts(analysis))
}

// ExportCSV renders an analysis JSON document as CSV.
func ExportCSV(analysisJSON string) (string, error) {
	analysis, err := decodeAnalysis(analysisJSON)
	if err != nil {
		return "", err
	}
	var b strings.Builder
	if err := sentiment.WriteCSV(&b, analysis); err != nil {
		return "", err
	}
	return b.String(), nil
}

// ShareLinksJSON returns share URLs for an analysis.
func ShareLinksJSON(analysisJSON, pageURL string) (string, error) {
	analysis, err := decodeAnalysis(analysisJSON)
	if err != nil {
		return "", err
	}
	return marshalJSON(sentiment.BuildShareLinks(analysis, pageURL))
}

// ExchangesJSON lists supported exchanges.
func ExchangesJSON() (string, error) {
	return marshalJSON(sentiment.Exchanges())
}

// UserMessage maps an error returned by this package to display text.
func UserMessage(err error) string {
	return sentiment.UserMessage(err)
}

// ErrorCode returns the classification code of err.
func ErrorCode(err error) string {
	return string(sentiment.CodeOf(err))
}

// SetPriceAlertJSON saves an alert and returns it as JSON.
func (c *Core) SetPriceAlertJSON(exchange, symbol string, target, currentPrice float64) (string, error) {
	alert, err := c.core.SetPriceAlert(exchange, symbol, target, currentPrice)
	if err != nil {
		return "", err
	}
	return marshalJSON(alert)
}

// GetPriceAlertJSON returns the saved alert, or "null".
func (c *Core) GetPriceAlertJSON(exchange, symbol string) (string, error) {
	alert, err := c.core.GetPriceAlert(exchange, symbol)
	if err != nil && !sentiment.IsErrorCode(err, sentiment.ErrCodeNotFound) {
		return "", err
	}
	return marshalJSON(alert)
}

// RemovePriceAlert deletes an alert.
func (c *Core) RemovePriceAlert(exchange, symbol string) error {
	return c.core.RemovePriceAlert(exchange, symbol)
}

// ListPriceAlertsJSON returns all alerts.
func (c *Core) ListPriceAlertsJSON() (string, error) {
	alerts, err := c.core.ListPriceAlerts()
	if err != nil {
		return "", err
	}
	if alerts == nil {
		alerts = []sentiment.PriceAlert{}
	}
	return marshalJSON(alerts)
}

// CheckAnalysisAlertJSON checks a previously fetched analysis against the
// saved alert. It returns "null" when nothing fired.
func (c *Core) CheckAnalysisAlertJSON(exchange, analysisJSON string) (string, error) {
	analysis, err := decodeAnalysis(analysisJSON)
	if err != nil {
		return "", err
	}
	trigger, err := c.core.CheckAnalysisAlert(exchange, analysis)
	if err != nil {
		return "", err
	}
	return marshalJSON(trigger)
}

// GetModelSettingsJSON returns the persisted model settings.
func (c *Core) GetModelSettingsJSON() (string, error) {
	settings, err := c.core.GetModelSettings()
	if err != nil {
		return "", err
	}
	return marshalJSON(settings)
}

// SetModelSettingsJSON saves model settings and returns the normalized copy.
func (c *Core) SetModelSettingsJSON(settingsJSON string) (string, error) {
	var settings sentiment.ModelSettings
	if err := unmarshalPayload(settingsJSON, &settings); err != nil {
		return "", err
	}
	saved, err := c.core.SetModelSettings(settings)
	if err != nil {
		return "", err
	}
	return marshalJSON(saved)
}

func decodeAnalysis(analysisJSON string) (*sentiment.SentimentAnalysis, error) {
	var analysis sentiment.SentimentAnalysis
	if err := unmarshalPayload(analysisJSON, &analysis); err != nil {
		return nil, err
	}
	return &analysis, nil
}

func unmarshalPayload(data string, v any) error {
	if err := json.Unmarshal([]byte(data), v); err != nil {
		return sentiment.WrapError(sentiment.ErrCodeInvalidInput, "invalid JSON payload", err)
	}
	return nil
}

func marshalJSON(value any) (string, error) {
	data, err := json.Marshal(value)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

type analyzePayload struct {
	Symbol   string `json:"symbol"`
	Exchange string `json:"exchange"`
	Provider string `json:"provider"`
	Model    string `json:"model"`
	BaseURL  string `json:"base_url"`
	APIKey   string `json:"api_key"`
}

type analysisResult struct {
	Analysis *sentiment.SentimentAnalysis `json:"analysis"`
	Charts   sentiment.ChartData          `json:"charts"`
	Alert    *sentiment.AlertTrigger      `json:"alert,omitempty"`
}
