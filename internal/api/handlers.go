package api

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"stocksentiment/pkg/sentiment"
)

var errSymbolRequired = sentiment.NewError(sentiment.ErrCodeInvalidInput, "stock symbol is required")

var stageMessages = map[string]string{
	"start":                 "Starting analysis",
	sentiment.StageInvoking: "Searching the web and asking the model",
	sentiment.StageIngest:   "Validating the model response",
}

func (h *handler) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *handler) getExchanges(w http.ResponseWriter, r *http.Request) {
	writeSuccess(w, sentiment.Exchanges())
}

func (h *handler) analyze(w http.ResponseWriter, r *http.Request) {
	var payload analyzePayload
	if err := decodeJSON(r, &payload); err != nil {
		writeBadRequest(w, r, err)
		return
	}

	analysis, err := h.core.Analyze(r.Context(), payload.request())
	if err != nil {
		writeErrorResponse(w, r, http.StatusInternalServerError, err)
		return
	}
	writeSuccess(w, h.buildAnalysisResponse(payload, analysis))
}

func (h *handler) analyzeStream(w http.ResponseWriter, r *http.Request) {
	var payload analyzePayload
	if err := decodeJSON(r, &payload); err != nil {
		writeBadRequest(w, r, err)
		return
	}
	if strings.TrimSpace(payload.Symbol) == "" {
		writeBadRequest(w, r, errSymbolRequired)
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		writeErrorResponse(w, r, http.StatusInternalServerError, errors.New("streaming unsupported"))
		return
	}

	initSSEHeaders(w)
	w.WriteHeader(http.StatusOK)
	var streamMu sync.Mutex
	send := func(event string, data any) error {
		streamMu.Lock()
		defer streamMu.Unlock()
		return writeSSEEvent(w, flusher, event, data)
	}
	progress := func(stage string) {
		if err := send("progress", map[string]string{"stage": stage, "message": stageMessages[stage]}); err != nil {
			h.logger.Warn("analysis stream write failed", "stage", stage, "err", err)
		}
	}

	progress("start")
	analysis, err := h.core.AnalyzeWithProgress(r.Context(), payload.request(), progress)
	if err != nil {
		body := map[string]string{"error": sentiment.UserMessage(err), "error_code": string(sentiment.CodeOf(err))}
		var sErr *sentiment.Error
		if errors.As(err, &sErr) && sErr.Field != "" {
			body["field"] = sErr.Field
		}
		_ = send("error", body)
		_ = send("done", map[string]any{"ok": false})
		return
	}

	_ = send("result", h.buildAnalysisResponse(payload, analysis))
	_ = send("done", map[string]any{"ok": true})
}

// buildAnalysisResponse attaches chart series and, if the fresh price
// crosses a saved alert, the triggered notification.
func (h *handler) buildAnalysisResponse(payload analyzePayload, analysis *sentiment.SentimentAnalysis) analysisResponse {
	exchange := payload.Exchange
	if strings.TrimSpace(exchange) == "" {
		exchange = sentiment.DefaultExchange
	}
	trigger, err := h.core.CheckPriceAlert(exchange, payload.Symbol, analysis.CurrencySymbol, analysis.CurrentPrice)
	if err != nil {
		h.logger.Warn("price alert check failed", "symbol", payload.Symbol, "err", err)
	}
	return analysisResponse{
		Analysis: analysis,
		Charts:   sentiment.BuildCharts(analysis),
		Alert:    trigger,
	}
}

func (h *handler) ingest(w http.ResponseWriter, r *http.Request) {
	var payload ingestPayload
	if err := decodeJSON(r, &payload); err != nil {
		writeBadRequest(w, r, err)
		return
	}
	if strings.TrimSpace(payload.Text) == "" {
		writeBadRequest(w, r, sentiment.NewError(sentiment.ErrCodeInvalidInput, "text is required"))
		return
	}
	grounding, err := sentiment.ParseGroundingJSON(payload.Grounding)
	if err != nil {
		writeBadRequest(w, r, err)
		return
	}

	analysis, err := sentiment.Ingest(sentiment.RawModelResponse{Text: payload.Text, Grounding: grounding})
	if err != nil {
		writeErrorResponse(w, r, http.StatusUnprocessableEntity, err)
		return
	}
	writeSuccess(w, analysisResponse{Analysis: analysis, Charts: sentiment.BuildCharts(analysis)})
}

func (h *handler) analytics(w http.ResponseWriter, r *http.Request) {
	analysis, ok := decodeAnalysis(w, r)
	if !ok {
		return
	}
	writeSuccess(w, sentiment.BuildCharts(analysis))
}

func (h *handler) exportCSV(w http.ResponseWriter, r *http.Request) {
	analysis, ok := decodeAnalysis(w, r)
	if !ok {
		return
	}

	var buf bytes.Buffer
	if err := sentiment.WriteCSV(&buf, analysis); err != nil {
		writeErrorResponse(w, r, http.StatusInternalServerError, err)
		return
	}
	name := sentiment.ExportFileName(analysis.StockSymbol, time.Now())
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf.Bytes())
}

func (h *handler) share(w http.ResponseWriter, r *http.Request) {
	var payload sharePayload
	if err := decodeJSON(r, &payload); err != nil {
		writeBadRequest(w, r, err)
		return
	}
	if payload.Analysis == nil || strings.TrimSpace(payload.Analysis.StockSymbol) == "" {
		writeBadRequest(w, r, sentiment.NewError(sentiment.ErrCodeInvalidInput, "analysis is required"))
		return
	}
	if strings.TrimSpace(payload.PageURL) == "" {
		writeBadRequest(w, r, sentiment.NewError(sentiment.ErrCodeInvalidInput, "page_url is required"))
		return
	}
	writeSuccess(w, sentiment.BuildShareLinks(payload.Analysis, strings.TrimSpace(payload.PageURL)))
}

func (h *handler) getAISettings(w http.ResponseWriter, r *http.Request) {
	settings, err := h.core.GetModelSettings()
	if err != nil {
		writeErrorResponse(w, r, http.StatusInternalServerError, err)
		return
	}
	writeSuccess(w, settings)
}

func (h *handler) setAISettings(w http.ResponseWriter, r *http.Request) {
	var payload aiSettingsPayload
	if err := decodeJSON(r, &payload); err != nil {
		writeBadRequest(w, r, err)
		return
	}
	settings, err := h.core.SetModelSettings(sentiment.ModelSettings{
		Provider: payload.Provider,
		Model:    payload.Model,
		BaseURL:  payload.BaseURL,
	})
	if err != nil {
		writeErrorResponse(w, r, http.StatusInternalServerError, err)
		return
	}
	writeSuccessWithMessage(w, "settings saved", settings)
}

func initSSEHeaders(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")
}

func writeSSEEvent(w http.ResponseWriter, flusher http.Flusher, event string, payload any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event, data); err != nil {
		return err
	}
	flusher.Flush()
	return nil
}

// Helpers.

func decodeJSON(r *http.Request, dst any) error {
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(dst); err != nil {
		return sentiment.WrapError(sentiment.ErrCodeInvalidInput, fmt.Sprintf("invalid request body: %v", err), err)
	}
	return nil
}

func decodeAnalysis(w http.ResponseWriter, r *http.Request) (*sentiment.SentimentAnalysis, bool) {
	var analysis sentiment.SentimentAnalysis
	if err := decodeJSON(r, &analysis); err != nil {
		writeBadRequest(w, r, err)
		return nil, false
	}
	if strings.TrimSpace(analysis.StockSymbol) == "" {
		writeBadRequest(w, r, sentiment.NewError(sentiment.ErrCodeInvalidInput, "stockSymbol is required"))
		return nil, false
	}
	return &analysis, true
}
