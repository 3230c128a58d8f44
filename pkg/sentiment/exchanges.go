package sentiment

import "strings"

// DefaultExchange is used when a request names no exchange.
const DefaultExchange = "NSE"

// Exchange is a stock exchange offered to users.
type Exchange struct {
	Code  string `json:"code"`
	Label string `json:"label"`
}

var exchanges = []Exchange{
	{Code: "NSE", Label: "National Stock Exchange of India"},
	{Code: "BOM", Label: "Bombay Stock Exchange"},
	{Code: "NASDAQ", Label: "NASDAQ"},
	{Code: "NYSE", Label: "New York Stock Exchange"},
	{Code: "LON", Label: "London Stock Exchange"},
	{Code: "TYO", Label: "Tokyo Stock Exchange"},
}

// Exchanges returns the exchanges offered to users.
func Exchanges() []Exchange {
	out := make([]Exchange, len(exchanges))
	copy(out, exchanges)
	return out
}

// IsKnownExchange reports whether code is one of Exchanges.
func IsKnownExchange(code string) bool {
	code = strings.ToUpper(strings.TrimSpace(code))
	for _, e := range exchanges {
		if e.Code == code {
			return true
		}
	}
	return false
}

func normalizeAnalysisRequest(req AnalysisRequest) (AnalysisRequest, error) {
	req.Symbol = strings.ToUpper(strings.TrimSpace(req.Symbol))
	if req.Symbol == "" {
		return AnalysisRequest{}, NewError(ErrCodeInvalidInput, "stock symbol is required")
	}
	req.Exchange = strings.ToUpper(strings.TrimSpace(req.Exchange))
	if req.Exchange == "" {
		req.Exchange = DefaultExchange
	}
	req.Provider = strings.ToLower(strings.TrimSpace(req.Provider))
	req.Model = strings.TrimSpace(req.Model)
	req.BaseURL = trimTrailingSlash(req.BaseURL)
	req.APIKey = strings.TrimSpace(req.APIKey)
	return req, nil
}

func alertKey(exchange, symbol string) string {
	return strings.ToUpper(strings.TrimSpace(exchange)) + ":" + strings.ToUpper(strings.TrimSpace(symbol))
}
