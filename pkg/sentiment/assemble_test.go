package sentiment

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIngestFencedResponseWithGrounding(t *testing.T) {
	t.Parallel()

	text := "Sure! ```json\n" + mustJSON(t, validPayload()) + "\n``` Thanks."
	analysis, err := Ingest(RawModelResponse{
		Text: text,
		Grounding: []GroundingMetadata{
			WebChunks{{URI: "https://u1.example.com", Title: "T1"}},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, "Reliance Industries", analysis.CompanyName)
	assert.Equal(t, []DataSource{{Title: "T1", URI: "https://u1.example.com"}}, analysis.DataSources)
}

func TestIngestDropsMalformedNewsAndHistory(t *testing.T) {
	t.Parallel()

	m := validPayload()
	m["newsArticles"] = []any{
		map[string]any{"title": "good", "snippet": "s", "uri": "https://n.example.com/1"},
		map[string]any{"title": "bad", "snippet": "s", "uri": "not-a-url"},
	}
	m["historicalData"] = []any{
		map[string]any{"date": "2024-01", "price": 1.0},
		map[string]any{"price": 2.0},
	}
	analysis, err := Ingest(RawModelResponse{Text: "```json\n" + mustJSON(t, m) + "\n```"})
	require.NoError(t, err)
	require.Len(t, analysis.NewsArticles, 1)
	assert.Equal(t, "good", analysis.NewsArticles[0].Title)
	require.Len(t, analysis.HistoricalData, 1)
	assert.Equal(t, "2024-01", analysis.HistoricalData[0].Date)
}

func TestIngestRejectsProse(t *testing.T) {
	t.Parallel()

	_, err := Ingest(RawModelResponse{Text: "I cannot help with that."})
	require.Error(t, err)
	assert.True(t, IsErrorCode(err, ErrCodeMalformedResponse))
	assert.Equal(t, "Invalid response format from AI model.", UserMessage(err))

	var e *Error
	require.ErrorAs(t, err, &e)
	assert.Equal(t, "I cannot help with that.", e.Raw)
}

func TestIngestRejectsUnknownSentiment(t *testing.T) {
	t.Parallel()

	m := validPayload()
	m["overallSentiment"] = "Bullish"
	_, err := Ingest(RawModelResponse{Text: mustJSON(t, m)})
	require.Error(t, err)

	var e *Error
	require.ErrorAs(t, err, &e)
	assert.Equal(t, ErrCodeInvalidSchema, e.Code)
	assert.Equal(t, "overallSentiment", e.Field)
}

func TestIngestDeduplicatesSources(t *testing.T) {
	t.Parallel()

	analysis, err := Ingest(RawModelResponse{
		Text: mustJSON(t, validPayload()),
		Grounding: []GroundingMetadata{
			WebChunks{{URI: "https://x.example.com", Title: "A"}},
			SearchQueryResults{{Results: []SearchResult{{URI: "https://x.example.com", Title: "B"}}}},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, []DataSource{{Title: "A", URI: "https://x.example.com"}}, analysis.DataSources)
}

func TestAssembleDoesNotAliasPayload(t *testing.T) {
	t.Parallel()

	p, err := ValidatePayload(mustJSON(t, validPayload()))
	require.NoError(t, err)
	a := Assemble(p, []DataSource{{Title: "t", URI: "https://t.example.com"}})
	assert.Len(t, a.DataSources, 1)
	assert.Empty(t, p.DataSources)

	b := Assemble(p, nil)
	assert.NotNil(t, b.DataSources)
	assert.Empty(t, b.DataSources)
}

func TestAssembleResultsAreIndependent(t *testing.T) {
	t.Parallel()

	p, err := ValidatePayload(mustJSON(t, validPayload()))
	require.NoError(t, err)
	require.NotEmpty(t, p.PositivePoints)
	require.NotEmpty(t, p.HistoricalData)
	require.NotNil(t, p.HistoricalData[0].Price)

	sources := []DataSource{{Title: "t", URI: "https://t.example.com"}}
	a := Assemble(p, sources)
	b := Assemble(p, sources)

	a.PositivePoints[0].Point = "changed"
	*a.HistoricalData[0].Price = -1
	*a.AspectSentiment[AspectFinancials] = -1
	a.AspectSentiment["extra"] = nil
	a.DataSources[0].Title = "changed"

	assert.NotEqual(t, "changed", b.PositivePoints[0].Point)
	assert.NotEqual(t, "changed", p.PositivePoints[0].Point)
	assert.NotEqual(t, -1.0, *b.HistoricalData[0].Price)
	assert.NotEqual(t, -1.0, *p.HistoricalData[0].Price)
	assert.NotEqual(t, -1.0, *b.AspectSentiment[AspectFinancials])
	assert.NotContains(t, p.AspectSentiment, "extra")
	assert.Equal(t, "t", b.DataSources[0].Title)
	assert.Equal(t, "t", sources[0].Title)
}

func TestAnalysisRoundTrip(t *testing.T) {
	t.Parallel()

	m := validPayload()
	m["historicalData"] = append(m["historicalData"].([]any), map[string]any{"date": "2024-04", "price": nil, "ma50": 2500.0})
	original, err := Ingest(RawModelResponse{
		Text:      mustJSON(t, m),
		Grounding: []GroundingMetadata{CitationSources{{URI: "https://s.example.com/a"}}},
	})
	require.NoError(t, err)

	data, err := json.Marshal(original)
	require.NoError(t, err)
	again, err := Ingest(RawModelResponse{Text: string(data), Grounding: []GroundingMetadata{URLCitations{
		{URL: original.DataSources[0].URI, Title: original.DataSources[0].Title},
	}}})
	require.NoError(t, err)
	assert.Equal(t, original, again)
}
