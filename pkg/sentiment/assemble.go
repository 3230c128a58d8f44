package sentiment

import "slices"

// Assemble combines a validated payload with merged grounding sources. The
// result shares no memory with p or sources.
func Assemble(p *Payload, sources []DataSource) *SentimentAnalysis {
	a := cloneAnalysis(&p.SentimentAnalysis)
	a.DataSources = slices.Clone(sources)
	if a.DataSources == nil {
		a.DataSources = []DataSource{}
	}
	return a
}

func cloneAnalysis(src *SentimentAnalysis) *SentimentAnalysis {
	a := *src
	a.PositivePoints = slices.Clone(src.PositivePoints)
	a.NegativePoints = slices.Clone(src.NegativePoints)
	a.NewsArticles = slices.Clone(src.NewsArticles)
	a.DataSources = slices.Clone(src.DataSources)
	a.CurrentVolume = clonePtr(src.CurrentVolume)
	a.AverageVolume = clonePtr(src.AverageVolume)

	if src.AspectSentiment != nil {
		a.AspectSentiment = make(map[string]*float64, len(src.AspectSentiment))
		for k, v := range src.AspectSentiment {
			a.AspectSentiment[k] = clonePtr(v)
		}
	}
	if src.HistoricalData != nil {
		a.HistoricalData = make([]HistoricalDataPoint, len(src.HistoricalData))
		for i, h := range src.HistoricalData {
			a.HistoricalData[i] = HistoricalDataPoint{
				Date:           h.Date,
				Price:          clonePtr(h.Price),
				MA50:           clonePtr(h.MA50),
				MA200:          clonePtr(h.MA200),
				RSI14:          clonePtr(h.RSI14),
				Volume:         clonePtr(h.Volume),
				SentimentScore: clonePtr(h.SentimentScore),
			}
		}
	}
	return &a
}

func clonePtr(v *float64) *float64 {
	if v == nil {
		return nil
	}
	c := *v
	return &c
}

// Ingest runs a raw model response through extraction, validation, grounding
// merge and assembly. It either returns a fully valid analysis or the first
// stage failure.
func Ingest(raw RawModelResponse) (*SentimentAnalysis, error) {
	payload, err := ValidatePayload(ExtractJSON(raw.Text))
	if err != nil {
		return nil, withRaw(err, raw.Text)
	}
	return Assemble(payload, MergeGrounding(raw.Grounding...)), nil
}
