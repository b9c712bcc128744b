package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/sirupsen/logrus"

	"github.com/m-stoeckel/duui-uima/internal/logger"
	"github.com/m-stoeckel/duui-uima/internal/model"
	"github.com/m-stoeckel/duui-uima/internal/ner"
	"github.com/m-stoeckel/duui-uima/internal/offsets"
	"github.com/m-stoeckel/duui-uima/internal/pipeline"
)

// Error kinds reported in model.ErrorMessage
const (
	KindInvalidJSON        = "invalid_json"
	KindInvalidRequest     = "invalid_request"
	KindInvalidBoundary    = "invalid_boundary"
	KindOffsetUnitMismatch = "offset_unit_mismatch"
	KindSpanOutOfRange     = "span_out_of_range"
	KindAnnotator          = "annotator_error"
	KindTimeout            = "timeout"
	KindCancelled          = "cancelled"
	KindTooLarge           = "request_too_large"
	KindRateLimited        = "rate_limited"
	KindInternal           = "internal"
)

var errRateLimited = errors.New("rate limit exceeded")

// classify maps a processing error to its status code and kind
func classify(err error) (int, string) {
	var tooLarge *http.MaxBytesError
	switch {
	case errors.As(err, &tooLarge):
		return http.StatusRequestEntityTooLarge, KindTooLarge
	case errors.Is(err, pipeline.ErrInvalidRequest):
		return http.StatusBadRequest, KindInvalidRequest
	case errors.Is(err, offsets.ErrInvalidBoundary):
		return http.StatusBadRequest, KindInvalidBoundary
	case errors.Is(err, offsets.ErrOffsetUnitMismatch):
		return http.StatusInternalServerError, KindOffsetUnitMismatch
	// The backend reported a span outside the sentence it was given
	case errors.Is(err, offsets.ErrSpanOutOfRange):
		return http.StatusBadGateway, KindSpanOutOfRange
	// A backend timing out on its own is still a backend failure
	case errors.Is(err, ner.ErrAnnotator):
		return http.StatusBadGateway, KindAnnotator
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout, KindTimeout
	case errors.Is(err, context.Canceled):
		return http.StatusServiceUnavailable, KindCancelled
	default:
		return http.StatusInternalServerError, KindInternal
	}
}

// decodeError classifies a failure to read the request body
func decodeError(err error) (int, string) {
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		return http.StatusRequestEntityTooLarge, KindTooLarge
	}
	return http.StatusBadRequest, KindInvalidJSON
}

func renderError(w http.ResponseWriter, r *http.Request, status int, kind string, err error) {
	entry := logger.Get().WithFields(logrus.Fields{
		"request_id": middleware.GetReqID(r.Context()),
		"status":     status,
		"kind":       kind,
	}).WithError(err)
	if status >= http.StatusInternalServerError {
		entry.Error("request failed")
	} else {
		entry.Debug("request rejected")
	}

	writeJSON(w, status, model.ErrorMessage{
		Message: err.Error(),
		Kind:    kind,
	})
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.Header().Set("X-Content-Type-Options", "nosniff")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Get().WithError(err).Warn("write response")
	}
}
