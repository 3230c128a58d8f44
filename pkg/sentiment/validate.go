package sentiment

import (
	"encoding/json"
	"fmt"
	"math"
	"net/url"
	"strings"
)

// ArrayPolicy decides what happens to an array element that does not match
// its schema.
type ArrayPolicy int

const (
	// PolicyLenient drops offending elements and keeps the rest.
	PolicyLenient ArrayPolicy = iota
	// PolicyStrict rejects the whole payload on the first offending element.
	PolicyStrict
)

// Payload is a schema-valid analysis that has not been merged with grounding
// sources yet. DataSources is always empty.
type Payload struct {
	SentimentAnalysis
}

var validSentiments = map[Sentiment]struct{}{
	SentimentPositive: {},
	SentimentNeutral:  {},
	SentimentNegative: {},
}

var validRecommendations = map[Recommendation]struct{}{
	RecommendationBuy:  {},
	RecommendationSell: {},
	RecommendationHold: {},
}

// ValidatePayload parses a JSON candidate and checks it against the analysis
// schema. News and history elements are filtered leniently; required fields
// and the point arrays are checked strictly and the first violation is named.
func ValidatePayload(candidate string) (*Payload, error) {
	var decoded any
	if err := json.Unmarshal([]byte(candidate), &decoded); err != nil {
		return nil, &Error{Code: ErrCodeMalformedResponse, Message: "response is not valid JSON", Raw: candidate, Err: err}
	}
	obj, ok := decoded.(map[string]any)
	if !ok {
		e := schemaError("(root)", "response must be a JSON object")
		e.Raw = candidate
		return nil, e
	}

	news, _ := decodeArray(obj, "newsArticles", PolicyLenient, decodeNewsArticle)
	history, _ := decodeArray(obj, "historicalData", PolicyLenient, decodeHistoricalPoint)

	p := &Payload{}
	a := &p.SentimentAnalysis
	a.NewsArticles = news
	a.HistoricalData = history

	if err := validateRequired(obj, a); err != nil {
		err.Raw = candidate
		return nil, err
	}

	var err error
	if a.PositivePoints, err = decodeArray(obj, "positivePoints", PolicyStrict, decodePointReason); err != nil {
		return nil, withRaw(err, candidate)
	}
	if a.NegativePoints, err = decodeArray(obj, "negativePoints", PolicyStrict, decodePointReason); err != nil {
		return nil, withRaw(err, candidate)
	}

	a.SentimentScore = clampScore(numberOr(obj["sentimentScore"], 0))
	a.Summary, _ = obj["summary"].(string)
	a.RecommendationSummary, _ = obj["recommendationSummary"].(string)
	a.CurrentVolume = optionalNumber(obj["currentVolume"])
	a.AverageVolume = optionalNumber(obj["averageVolume"])
	a.AspectSentiment = decodeAspects(obj["aspectSentiment"])
	a.DataSources = []DataSource{}
	return p, nil
}

func validateRequired(obj map[string]any, a *SentimentAnalysis) *Error {
	var ok bool
	if a.CompanyName, ok = nonEmptyString(obj, "companyName"); !ok {
		return schemaError("companyName", "missing or empty string")
	}
	if a.StockSymbol, ok = nonEmptyString(obj, "stockSymbol"); !ok {
		return schemaError("stockSymbol", "missing or empty string")
	}
	if a.CurrencySymbol, ok = nonEmptyString(obj, "currencySymbol"); !ok {
		return schemaError("currencySymbol", "missing or empty string")
	}

	sentiment, _ := obj["overallSentiment"].(string)
	if _, ok := validSentiments[Sentiment(sentiment)]; !ok {
		return schemaError("overallSentiment", fmt.Sprintf("unsupported value %q", sentiment))
	}
	a.OverallSentiment = Sentiment(sentiment)

	recommendation, _ := obj["recommendation"].(string)
	if _, ok := validRecommendations[Recommendation(recommendation)]; !ok {
		return schemaError("recommendation", fmt.Sprintf("unsupported value %q", recommendation))
	}
	a.Recommendation = Recommendation(recommendation)

	numbers := []struct {
		key string
		dst *float64
	}{
		{"currentPrice", &a.CurrentPrice},
		{"fiftyTwoWeekHigh", &a.FiftyTwoWeekHigh},
		{"fiftyTwoWeekLow", &a.FiftyTwoWeekLow},
	}
	for _, n := range numbers {
		v, ok := numberValue(obj[n.key])
		if !ok {
			return schemaError(n.key, "missing or not a number")
		}
		*n.dst = v
	}

	ti, ok := obj["technicalIndicators"].(map[string]any)
	if !ok {
		return schemaError("technicalIndicators", "missing or not an object")
	}
	indicators := []struct {
		key string
		dst *float64
	}{
		{"movingAverage50", &a.TechnicalIndicators.MovingAverage50},
		{"movingAverage200", &a.TechnicalIndicators.MovingAverage200},
		{"rsi14", &a.TechnicalIndicators.RSI14},
	}
	for _, n := range indicators {
		v, ok := numberValue(ti[n.key])
		if !ok {
			return schemaError("technicalIndicators."+n.key, "missing or not a number")
		}
		*n.dst = v
	}
	return nil
}

// decodeArray reads obj[field] as an array of T. decode reports the offending
// sub-field when an element is rejected.
//
// A missing or null field is an empty list under both policies. A non-array
// value is an empty list under PolicyLenient and an error under PolicyStrict.
func decodeArray[T any](obj map[string]any, field string, policy ArrayPolicy, decode func(any) (T, string, bool)) ([]T, error) {
	out := []T{}
	raw, present := obj[field]
	if !present || raw == nil {
		return out, nil
	}
	items, ok := raw.([]any)
	if !ok {
		if policy == PolicyStrict {
			return nil, schemaError(field, "must be an array")
		}
		return out, nil
	}
	for i, item := range items {
		v, sub, ok := decode(item)
		if ok {
			out = append(out, v)
			continue
		}
		if policy == PolicyStrict {
			path := fmt.Sprintf("%s[%d]", field, i)
			if sub != "" {
				path += "." + sub
			}
			return nil, schemaError(path, "element does not match schema")
		}
	}
	return out, nil
}

func decodePointReason(v any) (PointReason, string, bool) {
	obj, ok := v.(map[string]any)
	if !ok {
		return PointReason{}, "", false
	}
	point, ok := obj["point"].(string)
	if !ok {
		return PointReason{}, "point", false
	}
	reason, ok := obj["reason"].(string)
	if !ok {
		return PointReason{}, "reason", false
	}
	return PointReason{Point: point, Reason: reason}, "", true
}

func decodeNewsArticle(v any) (NewsArticle, string, bool) {
	obj, ok := v.(map[string]any)
	if !ok {
		return NewsArticle{}, "", false
	}
	title, ok := nonEmptyString(obj, "title")
	if !ok {
		return NewsArticle{}, "title", false
	}
	snippet, ok := nonEmptyString(obj, "snippet")
	if !ok {
		return NewsArticle{}, "snippet", false
	}
	uri, ok := nonEmptyString(obj, "uri")
	if !ok || !isWebURL(uri) {
		return NewsArticle{}, "uri", false
	}
	return NewsArticle{Title: title, Snippet: snippet, URI: uri}, "", true
}

func decodeHistoricalPoint(v any) (HistoricalDataPoint, string, bool) {
	obj, ok := v.(map[string]any)
	if !ok {
		return HistoricalDataPoint{}, "", false
	}
	date, ok := nonEmptyString(obj, "date")
	if !ok {
		return HistoricalDataPoint{}, "date", false
	}
	return HistoricalDataPoint{
		Date:           date,
		Price:          optionalNumber(obj["price"]),
		MA50:           optionalNumber(obj["ma50"]),
		MA200:          optionalNumber(obj["ma200"]),
		RSI14:          optionalNumber(obj["rsi14"]),
		Volume:         optionalNumber(obj["volume"]),
		SentimentScore: optionalNumber(obj["sentimentScore"]),
	}, "", true
}

func decodeAspects(v any) map[string]*float64 {
	out := make(map[string]*float64, len(requiredAspects)+1)
	for _, key := range requiredAspects {
		out[key] = nil
	}
	obj, ok := v.(map[string]any)
	if !ok {
		return out
	}
	for key, raw := range obj {
		if score, ok := numberValue(raw); ok {
			clamped := clampScore(score)
			out[key] = &clamped
			continue
		}
		out[key] = nil
	}
	return out
}

func nonEmptyString(obj map[string]any, key string) (string, bool) {
	s, ok := obj[key].(string)
	if !ok || strings.TrimSpace(s) == "" {
		return "", false
	}
	return s, true
}

func numberValue(v any) (float64, bool) {
	f, ok := v.(float64)
	if !ok || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

func numberOr(v any, fallback float64) float64 {
	if f, ok := numberValue(v); ok {
		return f
	}
	return fallback
}

func optionalNumber(v any) *float64 {
	f, ok := numberValue(v)
	if !ok {
		return nil
	}
	return &f
}

func clampScore(v float64) float64 {
	return math.Max(-1, math.Min(1, v))
}

func isWebURL(raw string) bool {
	parsed, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return false
	}
	scheme := strings.ToLower(parsed.Scheme)
	return (scheme == "http" || scheme == "https") && parsed.Host != ""
}

func withRaw(err error, raw string) error {
	if e, ok := err.(*Error); ok {
		e.Raw = raw
	}
	return err
}
