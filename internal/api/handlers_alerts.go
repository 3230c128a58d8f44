package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

func alertParams(r *http.Request) (string, string) {
	return chi.URLParam(r, "exchange"), chi.URLParam(r, "symbol")
}

func (h *handler) listAlerts(w http.ResponseWriter, r *http.Request) {
	alerts, err := h.core.ListPriceAlerts()
	if err != nil {
		writeErrorResponse(w, r, http.StatusInternalServerError, err)
		return
	}
	writeSuccess(w, alerts)
}

func (h *handler) getAlert(w http.ResponseWriter, r *http.Request) {
	exchange, symbol := alertParams(r)
	alert, err := h.core.GetPriceAlert(exchange, symbol)
	if err != nil {
		writeErrorResponse(w, r, http.StatusInternalServerError, err)
		return
	}
	writeSuccess(w, alert)
}

func (h *handler) setAlert(w http.ResponseWriter, r *http.Request) {
	var payload alertPayload
	if err := decodeJSON(r, &payload); err != nil {
		writeBadRequest(w, r, err)
		return
	}
	exchange, symbol := alertParams(r)
	alert, err := h.core.SetPriceAlert(exchange, symbol, payload.Target, payload.CurrentPrice)
	if err != nil {
		writeErrorResponse(w, r, http.StatusInternalServerError, err)
		return
	}
	writeSuccessWithMessage(w, "alert saved", alert)
}

func (h *handler) deleteAlert(w http.ResponseWriter, r *http.Request) {
	exchange, symbol := alertParams(r)
	if err := h.core.RemovePriceAlert(exchange, symbol); err != nil {
		writeErrorResponse(w, r, http.StatusInternalServerError, err)
		return
	}
	writeSuccessWithMessage(w, "alert removed", nil)
}

func (h *handler) checkAlert(w http.ResponseWriter, r *http.Request) {
	var payload alertCheckPayload
	if err := decodeJSON(r, &payload); err != nil {
		writeBadRequest(w, r, err)
		return
	}
	exchange, symbol := alertParams(r)
	trigger, err := h.core.CheckPriceAlert(exchange, symbol, payload.CurrencySymbol, payload.Price)
	if err != nil {
		writeErrorResponse(w, r, http.StatusInternalServerError, err)
		return
	}
	writeSuccess(w, alertCheckResponse{Triggered: trigger != nil, Trigger: trigger})
}
