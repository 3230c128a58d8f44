package cli

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"stocksentiment/pkg/sentiment"
)

var (
	titleStyle = lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("#7C3AED"))

	panelStyle = lipgloss.NewStyle().
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("#3B82F6")).
		Padding(0, 1)

	alertPanelStyle = lipgloss.NewStyle().
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("#F59E0B")).
		Padding(0, 1)

	labelStyle = lipgloss.NewStyle().
		Foreground(lipgloss.Color("#6B7280"))

	stageStyle = lipgloss.NewStyle().
		Foreground(lipgloss.Color("#F59E0B"))

	successStyle = lipgloss.NewStyle().
		Foreground(lipgloss.Color("#10B981")).
		Bold(true)

	errorStyle = lipgloss.NewStyle().
		Foreground(lipgloss.Color("#EF4444")).
		Bold(true)

	mutedStyle = lipgloss.NewStyle().
		Foreground(lipgloss.Color("#6B7280")).
		Italic(true)

	positiveStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#10B981"))
	negativeStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#EF4444"))
	neutralStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#9CA3AF"))
)

func stageLabel(stage string) string {
	switch stage {
	case sentiment.StageInvoking:
		return "asking the model (web search grounded)..."
	case sentiment.StageIngest:
		return "validating the response..."
	}
	return stage
}

func sentimentStyle(s sentiment.Sentiment) lipgloss.Style {
	switch s {
	case sentiment.SentimentPositive:
		return positiveStyle
	case sentiment.SentimentNegative:
		return negativeStyle
	}
	return neutralStyle
}

func recommendationStyle(r sentiment.Recommendation) lipgloss.Style {
	switch r {
	case sentiment.RecommendationBuy:
		return positiveStyle
	case sentiment.RecommendationSell:
		return negativeStyle
	}
	return neutralStyle
}

func field(label, value string) string {
	return labelStyle.Render(fmt.Sprintf("%-14s", label)) + value
}

func renderAnalysis(a *sentiment.SentimentAnalysis, charts sentiment.ChartData) string {
	var b strings.Builder

	title := a.StockSymbol
	if a.CompanyName != "" {
		title = fmt.Sprintf("%s (%s)", a.CompanyName, a.StockSymbol)
	}
	b.WriteString(titleStyle.Render(title))
	b.WriteString("\n\n")

	lines := []string{
		field("Sentiment", sentimentStyle(a.OverallSentiment).Render(fmt.Sprintf("%s (%.2f)", a.OverallSentiment, a.SentimentScore))),
		field("Call", recommendationStyle(a.Recommendation).Render(string(a.Recommendation))),
		field("Price", sentiment.FormatPrice(a.CurrencySymbol, a.CurrentPrice)),
		field("52w range", sentiment.FormatPrice(a.CurrencySymbol, a.FiftyTwoWeekLow)+" - "+sentiment.FormatPrice(a.CurrencySymbol, a.FiftyTwoWeekHigh)),
		field("RSI (14)", fmt.Sprintf("%.1f %s", charts.RSI, charts.RSIZone)),
		field("MA 50/200", fmt.Sprintf("%.2f / %.2f", a.TechnicalIndicators.MovingAverage50, a.TechnicalIndicators.MovingAverage200)),
	}
	b.WriteString(panelStyle.Render(strings.Join(lines, "\n")))
	b.WriteString("\n")

	if a.Summary != "" {
		b.WriteString("\n" + a.Summary + "\n")
	}
	if a.RecommendationSummary != "" {
		b.WriteString("\n" + labelStyle.Render("Why: ") + a.RecommendationSummary + "\n")
	}

	writePoints(&b, "Positives", "+", positiveStyle, a.PositivePoints)
	writePoints(&b, "Negatives", "-", negativeStyle, a.NegativePoints)

	if len(a.AspectSentiment) > 0 {
		b.WriteString("\n" + titleStyle.Render("Aspects") + "\n")
		for _, key := range []string{sentiment.AspectFinancials, sentiment.AspectManagement, sentiment.AspectMarketPosition, sentiment.AspectProduct} {
			score, ok := a.AspectSentiment[key]
			if !ok {
				continue
			}
			value := mutedStyle.Render("n/a")
			if score != nil {
				value = fmt.Sprintf("%.2f", *score)
			}
			b.WriteString("  " + field(key, value) + "\n")
		}
	}

	if len(a.NewsArticles) > 0 {
		b.WriteString("\n" + titleStyle.Render("News") + "\n")
		for _, n := range a.NewsArticles {
			fmt.Fprintf(&b, "  • %s\n    %s\n", n.Title, labelStyle.Render(n.URI))
		}
	}

	if len(a.DataSources) > 0 {
		b.WriteString("\n" + titleStyle.Render("Sources") + "\n")
		for i, s := range a.DataSources {
			fmt.Fprintf(&b, "  [%d] %s %s\n", i+1, s.Title, labelStyle.Render(s.URI))
		}
	}

	return strings.TrimRight(b.String(), "\n")
}

func writePoints(b *strings.Builder, heading, bullet string, style lipgloss.Style, points []sentiment.PointReason) {
	if len(points) == 0 {
		return
	}
	b.WriteString("\n" + titleStyle.Render(heading) + "\n")
	for _, p := range points {
		fmt.Fprintf(b, "  %s %s\n", style.Render(bullet), p.Point)
		if p.Reason != "" {
			fmt.Fprintf(b, "    %s\n", labelStyle.Render(p.Reason))
		}
	}
}

func renderExchanges(exchanges []sentiment.Exchange) string {
	lines := make([]string, 0, len(exchanges))
	for _, e := range exchanges {
		lines = append(lines, fmt.Sprintf("%-8s %s", e.Code, labelStyle.Render(e.Label)))
	}
	return strings.Join(lines, "\n")
}

func renderAlerts(alerts []sentiment.PriceAlert) string {
	if len(alerts) == 0 {
		return mutedStyle.Render("no price alerts")
	}
	lines := make([]string, 0, len(alerts))
	for _, a := range alerts {
		created := time.UnixMilli(a.CreatedAt).Format("2006-01-02")
		lines = append(lines, fmt.Sprintf("%-20s %-5s %s  %s",
			a.Key, a.Type, a.Target.StringFixed(2), labelStyle.Render("since "+created)))
	}
	return strings.Join(lines, "\n")
}

func renderTrigger(t *sentiment.AlertTrigger) string {
	return alertPanelStyle.Render(titleStyle.Render(t.Title) + "\n" + t.Body)
}

func renderSettings(s sentiment.ModelSettings, hasKey bool) string {
	baseURL := s.BaseURL
	if baseURL == "" {
		baseURL = mutedStyle.Render("provider default")
	}
	key := errorStyle.Render("missing")
	if hasKey {
		key = successStyle.Render("set")
	}
	return strings.Join([]string{
		field("Provider", s.Provider),
		field("Model", s.Model),
		field("Base URL", baseURL),
		field("API key", key),
	}, "\n")
}

// renderError shows pipeline failures with their user-facing message and
// everything else verbatim.
func renderError(err error) string {
	var e *sentiment.Error
	if !errors.As(err, &e) {
		return errorStyle.Render("✗ " + err.Error())
	}
	msg := "✗ " + sentiment.UserMessage(err)
	if e.Field != "" {
		msg += " (" + e.Field + ")"
	}
	return errorStyle.Render(msg)
}
