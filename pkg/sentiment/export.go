package sentiment

import (
	"encoding/csv"
	"fmt"
	"io"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// ExportFileName returns the CSV file name for an analysis exported at t.
func ExportFileName(symbol string, t time.Time) string {
	return fmt.Sprintf("%s_sentiment_analysis_%s.csv", strings.ToUpper(strings.TrimSpace(symbol)), t.Format("2006-01-02"))
}

// WriteCSV writes a metric summary followed by the positive and negative
// point tables.
func WriteCSV(w io.Writer, a *SentimentAnalysis) error {
	cw := csv.NewWriter(w)
	rows := [][]string{
		{"Metric", "Value"},
		{"Company Name", a.CompanyName},
		{"Stock Symbol", a.StockSymbol},
		{"Overall Sentiment", string(a.OverallSentiment)},
		{"Sentiment Score", strconv.FormatFloat(a.SentimentScore, 'f', 2, 64)},
		{"Current Price", FormatPrice(a.CurrencySymbol, a.CurrentPrice)},
		{"52-Week High", FormatPrice(a.CurrencySymbol, a.FiftyTwoWeekHigh)},
		{"52-Week Low", FormatPrice(a.CurrencySymbol, a.FiftyTwoWeekLow)},
		{"Recommendation", string(a.Recommendation)},
		{"Recommendation Summary", a.RecommendationSummary},
		{"50-Day MA", decimal.NewFromFloat(a.TechnicalIndicators.MovingAverage50).StringFixed(2)},
		{"200-Day MA", decimal.NewFromFloat(a.TechnicalIndicators.MovingAverage200).StringFixed(2)},
		{"RSI (14)", decimal.NewFromFloat(a.TechnicalIndicators.RSI14).StringFixed(2)},
		{"Summary", a.Summary},
		{},
		{"Positive Points"},
		{"Point", "Reason"},
	}
	for _, p := range a.PositivePoints {
		rows = append(rows, []string{p.Point, p.Reason})
	}
	rows = append(rows, []string{}, []string{"Negative Points"}, []string{"Point", "Reason"})
	for _, p := range a.NegativePoints {
		rows = append(rows, []string{p.Point, p.Reason})
	}
	if err := cw.WriteAll(rows); err != nil {
		return fmt.Errorf("write csv: %w", err)
	}
	return nil
}

// ShareLinks are prefilled share URLs for a finished analysis.
type ShareLinks struct {
	WhatsApp string `json:"whatsapp"`
	Telegram string `json:"telegram"`
	LinkedIn string `json:"linkedin"`
}

// BuildShareLinks builds share URLs pointing at pageURL.
func BuildShareLinks(a *SentimentAnalysis, pageURL string) ShareLinks {
	title := fmt.Sprintf("%s (%s) Sentiment Analysis", a.CompanyName, a.StockSymbol)
	text := fmt.Sprintf("Check out the %s sentiment analysis for %s (%s): %s. Recommendation: %s.",
		strings.ToLower(string(a.OverallSentiment)), a.CompanyName, a.StockSymbol, a.Summary, a.Recommendation)

	whatsapp := url.Values{"text": {text + " " + pageURL}}
	telegram := url.Values{"url": {pageURL}, "text": {text}}
	linkedin := url.Values{"mini": {"true"}, "url": {pageURL}, "title": {title}, "summary": {a.Summary}}

	return ShareLinks{
		WhatsApp: "https://wa.me/?" + whatsapp.Encode(),
		Telegram: "https://t.me/share/url?" + telegram.Encode(),
		LinkedIn: "https://www.linkedin.com/shareArticle?" + linkedin.Encode(),
	}
}
