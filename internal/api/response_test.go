package api

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"stocksentiment/pkg/sentiment"
)

func TestWriteErrorResponse(t *testing.T) {
	t.Run("structured error", func(t *testing.T) {
		rr := httptest.NewRecorder()
		err := fmt.Errorf("ingest: %w", &sentiment.Error{
			Code:    sentiment.ErrCodeInvalidSchema,
			Message: "must be an array",
			Field:   "positivePoints",
		})
		writeErrorResponse(rr, nil, http.StatusInternalServerError, err)

		assert.Equal(t, http.StatusUnprocessableEntity, rr.Code)
		resp := decodeError(t, rr)
		assert.Equal(t, "INVALID_SCHEMA", resp.ErrorCode)
		assert.Equal(t, "positivePoints", resp.Field)
		assert.Equal(t, "Invalid data structure received from AI model.", resp.Message)
		assert.Empty(t, resp.RequestID)
	})

	t.Run("plain error keeps fallback", func(t *testing.T) {
		rr := httptest.NewRecorder()
		writeErrorResponse(rr, nil, http.StatusBadRequest, errors.New("bad input"))

		assert.Equal(t, http.StatusBadRequest, rr.Code)
		resp := decodeError(t, rr)
		assert.Equal(t, "bad input", resp.Message)
		assert.Empty(t, resp.ErrorCode)
	})
}

func TestMapErrorCodeToHTTPStatus(t *testing.T) {
	tests := map[sentiment.ErrorCode]int{
		sentiment.ErrCodeInvalidInput:      http.StatusBadRequest,
		sentiment.ErrCodeNotFound:          http.StatusNotFound,
		sentiment.ErrCodeMalformedResponse: http.StatusUnprocessableEntity,
		sentiment.ErrCodeInvalidSchema:     http.StatusUnprocessableEntity,
		sentiment.ErrCodeTransportFailure:  http.StatusBadGateway,
		sentiment.ErrCodeDatabase:          http.StatusInternalServerError,
		sentiment.ErrCodeInternal:          http.StatusInternalServerError,
		sentiment.ErrorCode("OTHER"):       http.StatusInternalServerError,
	}
	for code, want := range tests {
		assert.Equal(t, want, mapErrorCodeToHTTPStatus(code), code)
	}
}

func TestWriteSuccessWithMessage(t *testing.T) {
	rr := httptest.NewRecorder()
	writeSuccessWithMessage(rr, "done", map[string]string{"status": "ok"})

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{"code":0,"message":"done","data":{"status":"ok"}}`, rr.Body.String())
}
