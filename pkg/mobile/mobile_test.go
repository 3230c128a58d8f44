package mobile

import (
	"context"
	"encoding/json"
	"math"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"stocksentiment/pkg/sentiment"
)

const reply = `{
  "companyName": "Apple Inc.",
  "stockSymbol": "AAPL",
  "overallSentiment": "Positive",
  "sentimentScore": 0.6,
  "summary": "Services growth keeps margins high.",
  "recommendation": "Buy",
  "recommendationSummary": "Steady compounding.",
  "positivePoints": [{"point": "Services", "reason": "Recurring revenue."}],
  "negativePoints": [{"point": "China", "reason": "Demand softness."}],
  "currentPrice": 189.5,
  "currencySymbol": "$",
  "fiftyTwoWeekHigh": 199.6,
  "fiftyTwoWeekLow": 164.1,
  "technicalIndicators": {"movingAverage50": 185, "movingAverage200": 180, "rsi14": 28},
  "aspectSentiment": {"financials": 0.7, "management": 0.5, "marketPosition": 0.8},
  "historicalData": [
    {"date": "2024-01", "price": 180, "volume": 100, "sentimentScore": 0.4},
    {"date": "2024-02", "price": 185, "volume": 90, "sentimentScore": 0.5},
    {"date": "2024-03", "price": 189, "volume": 120, "sentimentScore": 0.6}
  ],
  "newsArticles": []
}`

type stageRecorder struct {
	mu     sync.Mutex
	stages []string
}

func (r *stageRecorder) OnStage(stage string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.stages = append(r.stages, stage)
}

func setupMobileCore(t *testing.T) *Core {
	t.Helper()
	core, err := sentiment.OpenWithOptions(sentiment.Options{
		DBPath: filepath.Join(t.TempDir(), "test.db"),
		Invoker: sentiment.InvokerFunc(func(ctx context.Context, prompt string) (sentiment.RawModelResponse, error) {
			return sentiment.RawModelResponse{Text: reply}, nil
		}),
	})
	if err != nil {
		t.Fatalf("OpenWithOptions: %v", err)
	}
	c := &Core{core: core}
	t.Cleanup(func() { _ = c.Close() })
	return c
}

func TestOpen(t *testing.T) {
	c, err := Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if err := c.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if _, err := Open(""); err == nil {
		t.Fatalf("expected error for empty db path")
	}
}

func TestAnalyzeJSONFlow(t *testing.T) {
	c := setupMobileCore(t)

	if _, err := c.SetPriceAlertJSON("NASDAQ", "AAPL", 185, 190); err != nil {
		t.Fatalf("SetPriceAlertJSON: %v", err)
	}

	listener := &stageRecorder{}
	resp, err := c.AnalyzeJSON(`{"symbol":"aapl","exchange":"NASDAQ"}`, listener)
	if err != nil {
		t.Fatalf("AnalyzeJSON: %v", err)
	}
	var result analysisResult
	if err := json.Unmarshal([]byte(resp), &result); err != nil {
		t.Fatalf("unmarshal analysis: %v", err)
	}
	if result.Analysis == nil || result.Analysis.StockSymbol != "AAPL" {
		t.Fatalf("unexpected analysis: %+v", result.Analysis)
	}
	if result.Charts.RSIZone != sentiment.RSIOversold {
		t.Fatalf("expected oversold zone, got %q", result.Charts.RSIZone)
	}
	// 189.5 is above the 185 "below" target, so nothing fires.
	if result.Alert != nil {
		t.Fatalf("expected no alert, got %+v", result.Alert)
	}
	if got := strings.Join(listener.stages, ","); got != "invoking,ingesting" {
		t.Fatalf("unexpected stages: %s", got)
	}

	if _, err := c.AnalyzeJSON(`{"symbol":"AAPL"}`, nil); err != nil {
		t.Fatalf("AnalyzeJSON without listener: %v", err)
	}
}

func TestAnalyzeJSONErrors(t *testing.T) {
	c := setupMobileCore(t)

	_, err := c.AnalyzeJSON("{bad json}", nil)
	if ErrorCode(err) != string(sentiment.ErrCodeInvalidInput) {
		t.Fatalf("expected INVALID_INPUT, got %v", err)
	}
	_, err = c.AnalyzeJSON(`{"symbol":"  "}`, nil)
	if ErrorCode(err) != string(sentiment.ErrCodeInvalidInput) {
		t.Fatalf("expected INVALID_INPUT for empty symbol, got %v", err)
	}
	if msg := UserMessage(err); msg != "stock symbol is required" {
		t.Fatalf("unexpected user message: %q", msg)
	}
}

func TestIngestChartsExportShare(t *testing.T) {
	resp, err := IngestJSON("```json\n"+reply+"\n```", `{"groundingChunks":[{"web":{"uri":"https://finance.example.com/aapl","title":"AAPL quote"}}]}`)
	if err != nil {
		t.Fatalf("IngestJSON: %v", err)
	}
	var result analysisResult
	if err := json.Unmarshal([]byte(resp), &result); err != nil {
		t.Fatalf("unmarshal ingest: %v", err)
	}
	if len(result.Analysis.DataSources) != 1 || result.Analysis.DataSources[0].Title != "AAPL quote" {
		t.Fatalf("unexpected data sources: %+v", result.Analysis.DataSources)
	}

	analysisJSON, err := json.Marshal(result.Analysis)
	if err != nil {
		t.Fatalf("marshal analysis: %v", err)
	}

	chartsResp, err := ChartsJSON(string(analysisJSON))
	if err != nil {
		t.Fatalf("ChartsJSON: %v", err)
	}
	var charts sentiment.ChartData
	if err := json.Unmarshal([]byte(chartsResp), &charts); err != nil {
		t.Fatalf("unmarshal charts: %v", err)
	}
	if !charts.HasBands || len(charts.Volume) != 3 {
		t.Fatalf("unexpected charts: %+v", charts)
	}

	csv, err := ExportCSV(string(analysisJSON))
	if err != nil {
		t.Fatalf("ExportCSV: %v", err)
	}
	if !strings.Contains(csv, "Services") {
		t.Fatalf("csv missing positive point: %s", csv)
	}

	linksResp, err := ShareLinksJSON(string(analysisJSON), "https://app.example.com/AAPL")
	if err != nil {
		t.Fatalf("ShareLinksJSON: %v", err)
	}
	if !strings.Contains(linksResp, "app.example.com") {
		t.Fatalf("share links missing page url: %s", linksResp)
	}

	if _, err := IngestJSON("no json here", ""); ErrorCode(err) != string(sentiment.ErrCodeMalformedResponse) {
		t.Fatalf("expected MALFORMED_RESPONSE, got %v", err)
	}
	if _, err := ChartsJSON("{bad json}"); err == nil {
		t.Fatalf("expected error for invalid analysis JSON")
	}
}

func TestExchangesJSON(t *testing.T) {
	resp, err := ExchangesJSON()
	if err != nil {
		t.Fatalf("ExchangesJSON: %v", err)
	}
	var exchanges []sentiment.Exchange
	if err := json.Unmarshal([]byte(resp), &exchanges); err != nil {
		t.Fatalf("unmarshal exchanges: %v", err)
	}
	if len(exchanges) != len(sentiment.Exchanges()) {
		t.Fatalf("expected %d exchanges, got %d", len(sentiment.Exchanges()), len(exchanges))
	}
}

func TestPriceAlertJSONFlows(t *testing.T) {
	c := setupMobileCore(t)

	if got, err := c.GetPriceAlertJSON("NSE", "TCS"); err != nil || got != "null" {
		t.Fatalf("GetPriceAlertJSON missing: %q, %v", got, err)
	}

	if _, err := c.SetPriceAlertJSON("NSE", "TCS", 4200, 3900); err != nil {
		t.Fatalf("SetPriceAlertJSON: %v", err)
	}
	got, err := c.GetPriceAlertJSON("nse", "tcs")
	if err != nil {
		t.Fatalf("GetPriceAlertJSON: %v", err)
	}
	var alert sentiment.PriceAlert
	if err := json.Unmarshal([]byte(got), &alert); err != nil {
		t.Fatalf("unmarshal alert: %v", err)
	}
	if alert.Key != "NSE:TCS" || alert.Type != sentiment.AlertAbove {
		t.Fatalf("unexpected alert: %+v", alert)
	}

	list, err := c.ListPriceAlertsJSON()
	if err != nil {
		t.Fatalf("ListPriceAlertsJSON: %v", err)
	}
	if !strings.Contains(list, "NSE:TCS") {
		t.Fatalf("list missing alert: %s", list)
	}

	below := `{"stockSymbol":"TCS","currentPrice":4100,"currencySymbol":"₹"}`
	if got, err := c.CheckAnalysisAlertJSON("NSE", below); err != nil || got != "null" {
		t.Fatalf("CheckAnalysisAlertJSON below target: %q, %v", got, err)
	}
	above := `{"stockSymbol":"TCS","currentPrice":4250,"currencySymbol":"₹"}`
	got, err = c.CheckAnalysisAlertJSON("NSE", above)
	if err != nil {
		t.Fatalf("CheckAnalysisAlertJSON: %v", err)
	}
	var trigger sentiment.AlertTrigger
	if err := json.Unmarshal([]byte(got), &trigger); err != nil {
		t.Fatalf("unmarshal trigger: %v", err)
	}
	if trigger.Body != "TCS has reached your target of ₹4200.00. Current price: ₹4250.00" {
		t.Fatalf("unexpected trigger body: %q", trigger.Body)
	}

	list, err = c.ListPriceAlertsJSON()
	if err != nil {
		t.Fatalf("ListPriceAlertsJSON: %v", err)
	}
	if list != "[]" {
		t.Fatalf("expected fired alert to be removed, got %s", list)
	}

	if _, err := c.SetPriceAlertJSON("NSE", "INFY", 1500, 1600); err != nil {
		t.Fatalf("SetPriceAlertJSON: %v", err)
	}
	if err := c.RemovePriceAlert("NSE", "INFY"); err != nil {
		t.Fatalf("RemovePriceAlert: %v", err)
	}

	if _, err := c.SetPriceAlertJSON("NSE", "INFY", math.Inf(1), 1600); ErrorCode(err) != string(sentiment.ErrCodeInvalidInput) {
		t.Fatalf("expected INVALID_INPUT for infinite target, got %v", err)
	}
	if _, err := c.SetPriceAlertJSON("NSE", "INFY", 1500, math.NaN()); ErrorCode(err) != string(sentiment.ErrCodeInvalidInput) {
		t.Fatalf("expected INVALID_INPUT for NaN current price, got %v", err)
	}
}

func TestModelSettingsJSON(t *testing.T) {
	c := setupMobileCore(t)

	saved, err := c.SetModelSettingsJSON(`{"provider":"anthropic","base_url":"https://proxy.example.com/"}`)
	if err != nil {
		t.Fatalf("SetModelSettingsJSON: %v", err)
	}
	var settings sentiment.ModelSettings
	if err := json.Unmarshal([]byte(saved), &settings); err != nil {
		t.Fatalf("unmarshal settings: %v", err)
	}
	if settings.Provider != sentiment.ProviderAnthropic || settings.Model == "" || settings.BaseURL != "https://proxy.example.com" {
		t.Fatalf("unexpected settings: %+v", settings)
	}

	got, err := c.GetModelSettingsJSON()
	if err != nil {
		t.Fatalf("GetModelSettingsJSON: %v", err)
	}
	if got != saved {
		t.Fatalf("expected %s, got %s", saved, got)
	}

	if _, err := c.SetModelSettingsJSON(`{"provider":"cohere"}`); err == nil {
		t.Fatalf("expected error for unknown provider")
	}
}

func TestMobileCoreCloseNil(t *testing.T) {
	var c *Core
	if err := c.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
}
