package sentiment

import (
	"fmt"
	"strings"
)

const analysisSystemPrompt = `You are an equity research assistant that reports market sentiment.
Answer with a single valid JSON object and nothing else. Do not use markdown.`

const analysisPromptTemplate = `Analyze the market sentiment for the stock symbol "%s" listed on the "%s" exchange.
Base the analysis on recent news, financial reports and social media trends, and include key technical indicators.

Return one JSON object with exactly this structure:
{
  "companyName": "string",
  "stockSymbol": "string",
  "overallSentiment": "Positive" | "Neutral" | "Negative",
  "sentimentScore": number,
  "summary": "string",
  "positivePoints": [ { "point": "string", "reason": "string" } ],
  "negativePoints": [ { "point": "string", "reason": "string" } ],
  "currentPrice": number,
  "fiftyTwoWeekHigh": number,
  "fiftyTwoWeekLow": number,
  "currentVolume": number,
  "averageVolume": number,
  "currencySymbol": "string",
  "recommendation": "Buy" | "Hold" | "Sell",
  "recommendationSummary": "string",
  "aspectSentiment": {
    "financials": number,
    "product": number | null,
    "management": number,
    "marketPosition": number
  },
  "newsArticles": [ { "title": "string", "snippet": "string", "uri": "string" } ],
  "historicalData": [
    {
      "date": "YYYY-MM",
      "price": number | null,
      "volume": number | null,
      "sentimentScore": number | null,
      "ma50": number | null,
      "ma200": number | null,
      "rsi14": number | null
    }
  ],
  "technicalIndicators": {
    "movingAverage50": number,
    "movingAverage200": number,
    "rsi14": number
  }
}

Rules:
- sentimentScore and every aspectSentiment score must be between -1.0 and 1.0.
- summary is concise and names the main drivers; recommendationSummary is one short sentence.
- Every positive and negative point has a descriptive reason.
- historicalData has 12 entries, one per month for the last 12 months, oldest first. price is the monthly close. Use null for unavailable metrics.
- newsArticles has at most 5 recent articles with absolute http(s) links.
- All prices are in the local currency of the exchange; currencySymbol is that currency's symbol.`

// BuildPrompt renders the analysis prompt for a symbol on an exchange.
func BuildPrompt(symbol, exchange string) string {
	return fmt.Sprintf(analysisPromptTemplate, strings.TrimSpace(symbol), strings.TrimSpace(exchange))
}
