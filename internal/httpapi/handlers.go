package httpapi

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/draftdesk/research-orchestrator/internal/models"
	"github.com/draftdesk/research-orchestrator/internal/pipeline"
)

// ResearchHandler exposes the pipeline over HTTP.
type ResearchHandler struct {
	orchestrator *pipeline.Orchestrator
	logger       *zap.Logger
}

func NewResearchHandler(o *pipeline.Orchestrator, logger *zap.Logger) *ResearchHandler {
	return &ResearchHandler{orchestrator: o, logger: logger}
}

// RegisterRoutes registers the research routes on the provided mux.
func (h *ResearchHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/v1/research", h.handleResearch)
	mux.HandleFunc("POST /api/v1/queries", h.handleQueries)
}

type queriesResponse struct {
	Queries models.QuerySet `json:"queries"`
}

func (h *ResearchHandler) decodeRequest(w http.ResponseWriter, r *http.Request) (pipeline.Request, bool) {
	var req pipeline.Request
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		h.logger.Warn("request decode error", zap.Error(err))
		http.Error(w, `{"error":"invalid JSON"}`, http.StatusBadRequest)
		return req, false
	}
	if req.Subject == "" || req.Purpose == "" {
		http.Error(w, `{"error":"subject and purpose are required"}`, http.StatusBadRequest)
		return req, false
	}
	return req, true
}

func (h *ResearchHandler) handleResearch(w http.ResponseWriter, r *http.Request) {
	req, ok := h.decodeRequest(w, r)
	if !ok {
		return
	}

	result, err := h.orchestrator.RunPipeline(r.Context(), req)
	if err != nil {
		h.logger.Error("pipeline run failed",
			zap.String("subject", req.Subject),
			zap.Error(err))
		http.Error(w, `{"error":"research run failed"}`, http.StatusInternalServerError)
		return
	}
	writeJSON(w, result)
}

func (h *ResearchHandler) handleQueries(w http.ResponseWriter, r *http.Request) {
	req, ok := h.decodeRequest(w, r)
	if !ok {
		return
	}
	qs := h.orchestrator.GenerateQueries(r.Context(), req)
	writeJSON(w, queriesResponse{Queries: qs})
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(v)
}

// StartAPIServer starts the public research API server. Research runs can
// take minutes, so the write timeout is generous.
func StartAPIServer(port int, o *pipeline.Orchestrator, logger *zap.Logger) *http.Server {
	handler := NewResearchHandler(o, logger)
	mux := http.NewServeMux()
	handler.RegisterRoutes(mux)

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", port),
		Handler:      withCORS(withRequestLogging(mux, logger)),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 10 * time.Minute,
		IdleTimeout:  120 * time.Second,
	}
	go func() {
		logger.Info("Starting research API server", zap.Int("port", port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("Research API server failed", zap.Error(err))
		}
	}()
	return srv
}
