package server

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5/middleware"

	"github.com/m-stoeckel/duui-uima/internal/model"
	"github.com/m-stoeckel/duui-uima/internal/pipeline"
)

func (s *Server) handleDocumentation(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.docs)
}

func (s *Server) handleTypeSystem(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/xml")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(s.typeSystem)
}

func (s *Server) handleCommunicationLayer(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(s.communicationLayer)
}

// handleProcess annotates one document. Any failure yields an error body,
// never a partial prediction list.
func (s *Server) handleProcess(w http.ResponseWriter, r *http.Request) {
	body := r.Body
	if s.cfg.MaxBodyBytes > 0 {
		body = http.MaxBytesReader(w, r.Body, s.cfg.MaxBodyBytes)
	}

	var req model.Request
	if err := json.NewDecoder(body).Decode(&req); err != nil {
		status, kind := decodeError(err)
		renderError(w, r, status, kind, err)
		return
	}

	if err := pipeline.Validate(&req); err != nil {
		status, kind := classify(err)
		renderError(w, r, status, kind, err)
		return
	}

	ctx := r.Context()
	if s.cfg.RequestTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.cfg.RequestTimeout)
		defer cancel()
	}

	requestID := middleware.GetReqID(ctx)
	if requestID != "" {
		ctx = pipeline.WithRequestID(ctx, requestID)
		w.Header().Set(RequestIDHeader, requestID)
	}

	resp, err := s.processor.Process(ctx, &req)
	if err != nil {
		status, kind := classify(err)
		renderError(w, r, status, kind, err)
		return
	}

	writeJSON(w, http.StatusOK, resp)
}
