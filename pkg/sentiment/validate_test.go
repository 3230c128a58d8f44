package sentiment

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidatePayloadAcceptsValidPayload(t *testing.T) {
	t.Parallel()

	p, err := ValidatePayload(mustJSON(t, validPayload()))
	require.NoError(t, err)

	a := p.SentimentAnalysis
	assert.Equal(t, "Reliance Industries", a.CompanyName)
	assert.Equal(t, SentimentPositive, a.OverallSentiment)
	assert.Equal(t, RecommendationBuy, a.Recommendation)
	assert.InDelta(t, 0.6, a.SentimentScore, 1e-9)
	assert.Equal(t, 62.5, a.TechnicalIndicators.RSI14)
	require.Len(t, a.PositivePoints, 1)
	assert.Equal(t, PointReason{Point: "Jio growth", Reason: "Subscriber additions beat estimates."}, a.PositivePoints[0])
	require.Len(t, a.HistoricalData, 3)
	assert.Equal(t, "2024-02", a.HistoricalData[1].Date)
	assert.Nil(t, a.HistoricalData[1].MA50)
	require.NotNil(t, a.CurrentVolume)
	assert.Equal(t, 5100000.0, *a.CurrentVolume)
	assert.Contains(t, a.AspectSentiment, AspectProduct)
	assert.Nil(t, a.AspectSentiment[AspectProduct])
	assert.Empty(t, a.DataSources)
}

func TestValidatePayloadMalformed(t *testing.T) {
	t.Parallel()

	for _, input := range []string{"I cannot help with that.", "{\"companyName\": ", ""} {
		_, err := ValidatePayload(input)
		require.Error(t, err)
		assert.True(t, IsErrorCode(err, ErrCodeMalformedResponse), "input %q: %v", input, err)
		var e *Error
		require.ErrorAs(t, err, &e)
		assert.Equal(t, input, e.Raw)
	}
}

func TestValidatePayloadStrictFields(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		mutate func(m map[string]any)
		field  string
	}{
		{name: "non object root", field: "(root)"},
		{name: "missing company", mutate: func(m map[string]any) { delete(m, "companyName") }, field: "companyName"},
		{name: "empty symbol", mutate: func(m map[string]any) { m["stockSymbol"] = "  " }, field: "stockSymbol"},
		{name: "numeric currency", mutate: func(m map[string]any) { m["currencySymbol"] = 1 }, field: "currencySymbol"},
		{name: "unknown sentiment", mutate: func(m map[string]any) { m["overallSentiment"] = "Bullish" }, field: "overallSentiment"},
		{name: "unknown recommendation", mutate: func(m map[string]any) { m["recommendation"] = "Strong Buy" }, field: "recommendation"},
		{name: "string price", mutate: func(m map[string]any) { m["currentPrice"] = "2950" }, field: "currentPrice"},
		{name: "missing low", mutate: func(m map[string]any) { delete(m, "fiftyTwoWeekLow") }, field: "fiftyTwoWeekLow"},
		{name: "missing indicators", mutate: func(m map[string]any) { delete(m, "technicalIndicators") }, field: "technicalIndicators"},
		{name: "missing rsi", mutate: func(m map[string]any) {
			delete(m["technicalIndicators"].(map[string]any), "rsi14")
		}, field: "technicalIndicators.rsi14"},
		{name: "points not array", mutate: func(m map[string]any) { m["positivePoints"] = "many" }, field: "positivePoints"},
		{name: "point missing reason", mutate: func(m map[string]any) {
			m["negativePoints"] = []any{map[string]any{"point": "Debt"}}
		}, field: "negativePoints[0].reason"},
		{name: "point not object", mutate: func(m map[string]any) {
			m["positivePoints"] = []any{map[string]any{"point": "a", "reason": "b"}, "c"}
		}, field: "positivePoints[1]"},
		{name: "first violation wins", mutate: func(m map[string]any) {
			m["recommendation"] = "Maybe"
			delete(m, "companyName")
		}, field: "companyName"},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			input := `[1,2,3]`
			if tc.mutate != nil {
				m := validPayload()
				tc.mutate(m)
				input = mustJSON(t, m)
			}
			_, err := ValidatePayload(input)
			require.Error(t, err)
			var e *Error
			require.ErrorAs(t, err, &e)
			assert.Equal(t, ErrCodeInvalidSchema, e.Code)
			assert.Equal(t, tc.field, e.Field)
		})
	}
}

func TestValidatePayloadLenientArrays(t *testing.T) {
	t.Parallel()

	m := validPayload()
	m["newsArticles"] = []any{
		map[string]any{"title": "ok", "snippet": "s", "uri": "https://a.example.com/1"},
		map[string]any{"title": "bad uri", "snippet": "s", "uri": "not-a-url"},
		map[string]any{"title": "ftp", "snippet": "s", "uri": "ftp://a.example.com/f"},
		map[string]any{"title": "missing snippet", "uri": "https://a.example.com/2"},
		"junk",
		map[string]any{"title": "ok2", "snippet": "s", "uri": "http://b.example.com/2"},
	}
	m["historicalData"] = []any{
		map[string]any{"date": "2024-01", "price": 10.0},
		map[string]any{"price": 11.0},
		map[string]any{"date": 202402, "price": 12.0},
		map[string]any{"date": "2024-03", "price": "n/a", "rsi14": 55.0},
		nil,
	}

	p, err := ValidatePayload(mustJSON(t, m))
	require.NoError(t, err)

	a := p.SentimentAnalysis
	require.Len(t, a.NewsArticles, 2)
	assert.Equal(t, "ok", a.NewsArticles[0].Title)
	assert.Equal(t, "ok2", a.NewsArticles[1].Title)

	require.Len(t, a.HistoricalData, 2)
	assert.Equal(t, "2024-01", a.HistoricalData[0].Date)
	assert.Equal(t, "2024-03", a.HistoricalData[1].Date)
	assert.Nil(t, a.HistoricalData[1].Price)
	require.NotNil(t, a.HistoricalData[1].RSI14)
	assert.Equal(t, 55.0, *a.HistoricalData[1].RSI14)
}

func TestValidatePayloadCoercions(t *testing.T) {
	t.Parallel()

	m := validPayload()
	m["sentimentScore"] = 3.5
	m["aspectSentiment"] = map[string]any{"financials": -2.0, "management": "good"}
	delete(m, "summary")
	delete(m, "recommendationSummary")
	delete(m, "positivePoints")
	m["negativePoints"] = nil
	m["newsArticles"] = "none"
	delete(m, "historicalData")
	m["currentVolume"] = "high"
	delete(m, "averageVolume")

	p, err := ValidatePayload(mustJSON(t, m))
	require.NoError(t, err)

	a := p.SentimentAnalysis
	assert.Equal(t, 1.0, a.SentimentScore)
	require.NotNil(t, a.AspectSentiment[AspectFinancials])
	assert.Equal(t, -1.0, *a.AspectSentiment[AspectFinancials])
	assert.Nil(t, a.AspectSentiment[AspectManagement])
	assert.Contains(t, a.AspectSentiment, AspectMarketPosition)
	assert.Nil(t, a.AspectSentiment[AspectMarketPosition])
	assert.Equal(t, "", a.Summary)
	assert.Equal(t, "", a.RecommendationSummary)
	assert.NotNil(t, a.PositivePoints)
	assert.Empty(t, a.PositivePoints)
	assert.Empty(t, a.NegativePoints)
	assert.Empty(t, a.NewsArticles)
	assert.NotNil(t, a.HistoricalData)
	assert.Empty(t, a.HistoricalData)
	assert.Nil(t, a.CurrentVolume)
	assert.Nil(t, a.AverageVolume)
}

func TestValidatePayloadMissingScoreDefaultsToZero(t *testing.T) {
	t.Parallel()

	m := validPayload()
	delete(m, "sentimentScore")
	p, err := ValidatePayload(mustJSON(t, m))
	require.NoError(t, err)
	assert.Equal(t, 0.0, p.SentimentScore)
}

func TestValidatePayloadKeepsShortHistoryInOrder(t *testing.T) {
	t.Parallel()

	m := validPayload()
	m["historicalData"] = []any{
		map[string]any{"date": "2024-05", "price": 1.0},
		map[string]any{"date": "2024-03", "price": 2.0},
	}
	p, err := ValidatePayload(mustJSON(t, m))
	require.NoError(t, err)
	require.Len(t, p.HistoricalData, 2)
	assert.Equal(t, "2024-05", p.HistoricalData[0].Date)
	assert.Equal(t, "2024-03", p.HistoricalData[1].Date)
}
