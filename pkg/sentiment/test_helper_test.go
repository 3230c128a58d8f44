package sentiment

import (
	"encoding/json"
	"io"
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func setupTestCore(t *testing.T, opts Options) *Core {
	t.Helper()
	opts.DBPath = filepath.Join(t.TempDir(), "test.db")
	if opts.Logger == nil {
		opts.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	core, err := OpenWithOptions(opts)
	require.NoError(t, err)
	t.Cleanup(func() { _ = core.Close() })
	return core
}

// validPayload returns a fresh, fully valid model payload.
func validPayload() map[string]any {
	return map[string]any{
		"companyName":           "Reliance Industries",
		"stockSymbol":           "RELIANCE",
		"overallSentiment":      "Positive",
		"sentimentScore":        0.6,
		"summary":               "Strong retail and telecom growth.",
		"recommendation":        "Buy",
		"recommendationSummary": "Accumulate on dips.",
		"positivePoints": []any{
			map[string]any{"point": "Jio growth", "reason": "Subscriber additions beat estimates."},
		},
		"negativePoints": []any{
			map[string]any{"point": "Refining margins", "reason": "Weak global cracks."},
		},
		"currentPrice":     2950.5,
		"currencySymbol":   "₹",
		"fiftyTwoWeekHigh": 3024.9,
		"fiftyTwoWeekLow":  2220.3,
		"currentVolume":    5100000.0,
		"averageVolume":    4800000.0,
		"technicalIndicators": map[string]any{
			"movingAverage50":  2890.1,
			"movingAverage200": 2700.4,
			"rsi14":            62.5,
		},
		"aspectSentiment": map[string]any{
			"financials":     0.7,
			"product":        nil,
			"management":     0.5,
			"marketPosition": 0.8,
		},
		"newsArticles": []any{
			map[string]any{"title": "Q2 results", "snippet": "Profit up 9%.", "uri": "https://news.example.com/q2"},
		},
		"historicalData": []any{
			map[string]any{"date": "2024-01", "price": 2600.0, "volume": 4000000.0, "sentimentScore": 0.2},
			map[string]any{"date": "2024-02", "price": 2700.0, "volume": 4100000.0, "sentimentScore": 0.4},
			map[string]any{"date": "2024-03", "price": 2650.0, "volume": 4200000.0, "sentimentScore": 0.3},
		},
	}
}

func mustJSON(t *testing.T, v any) string {
	t.Helper()
	data, err := json.Marshal(v)
	require.NoError(t, err)
	return string(data)
}

func ptr(v float64) *float64 {
	return &v
}
