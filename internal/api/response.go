package api

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5/middleware"

	"stocksentiment/pkg/sentiment"
)

// Response wraps every successful API payload.
type Response struct {
	Code    int    `json:"code"`
	Message string `json:"message,omitempty"`
	Data    any    `json:"data,omitempty"`
}

// ErrorResponse is the body of every failed API call. Message is safe to
// show to end users; ErrorCode and Field are for clients that branch on
// the failure kind.
type ErrorResponse struct {
	Code      int    `json:"code"`
	Message   string `json:"message"`
	ErrorCode string `json:"error_code,omitempty"`
	Field     string `json:"field,omitempty"`
	RequestID string `json:"request_id,omitempty"`
}

// errorRecorder is implemented by the logging response writer so the
// access log carries the underlying error rather than the user message.
type errorRecorder interface {
	SetErrorMessage(message string)
}

func writeSuccess(w http.ResponseWriter, data any) {
	writeJSON(w, http.StatusOK, Response{Code: 0, Data: data})
}

func writeSuccessWithMessage(w http.ResponseWriter, message string, data any) {
	writeJSON(w, http.StatusOK, Response{Code: 0, Message: message, Data: data})
}

// writeErrorResponse maps err onto an HTTP status. Structured errors pick
// their own status; anything else uses fallback and its own text.
func writeErrorResponse(w http.ResponseWriter, r *http.Request, fallback int, err error) {
	if recorder, ok := w.(errorRecorder); ok {
		recorder.SetErrorMessage(err.Error())
	}

	response := ErrorResponse{
		Code:    fallback,
		Message: err.Error(),
	}
	if r != nil {
		response.RequestID = middleware.GetReqID(r.Context())
	}

	var sErr *sentiment.Error
	if errors.As(err, &sErr) {
		response.Code = mapErrorCodeToHTTPStatus(sErr.Code)
		response.ErrorCode = string(sErr.Code)
		response.Field = sErr.Field
		response.Message = sentiment.UserMessage(sErr)
	}

	writeJSON(w, response.Code, response)
}

func writeBadRequest(w http.ResponseWriter, r *http.Request, err error) {
	writeErrorResponse(w, r, http.StatusBadRequest, err)
}

func mapErrorCodeToHTTPStatus(code sentiment.ErrorCode) int {
	switch code {
	case sentiment.ErrCodeInvalidInput:
		return http.StatusBadRequest
	case sentiment.ErrCodeNotFound:
		return http.StatusNotFound
	case sentiment.ErrCodeMalformedResponse, sentiment.ErrCodeInvalidSchema:
		return http.StatusUnprocessableEntity
	case sentiment.ErrCodeTransportFailure:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
