package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/rickey-cpu/AIQuery/pkg/connectors"
	"github.com/rickey-cpu/AIQuery/pkg/history"
	"github.com/rickey-cpu/AIQuery/pkg/pipeline"
)

// QueryHandler exposes the query pipeline over HTTP.
type QueryHandler struct {
	supervisor *pipeline.Supervisor
	history    history.Store
	factory    connectors.Factory
	logger     *zap.Logger
}

// NewQueryHandler creates a new query handler.
func NewQueryHandler(supervisor *pipeline.Supervisor, historyStore history.Store, factory connectors.Factory, logger *zap.Logger) *QueryHandler {
	return &QueryHandler{
		supervisor: supervisor,
		history:    historyStore,
		factory:    factory,
		logger:     logger,
	}
}

// RegisterRoutes registers the query handler's routes on the given mux.
func (h *QueryHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/query", h.ResolveQuery)
	mux.HandleFunc("POST /api/query/multi", h.ResolveAcross)
	mux.HandleFunc("GET /api/agents/{agent_id}/history", h.History)
	mux.HandleFunc("GET /api/databases/types", h.ListDatabaseTypes)
}

type queryRequest struct {
	Question string `json:"question"`
	AgentID  string `json:"agent_id"`
	SourceID string `json:"source_id,omitempty"`
	// Execute defaults to true; send false to get the validated SQL back
	// without running it.
	Execute *bool `json:"execute,omitempty"`
}

func (r *queryRequest) toPipeline(w http.ResponseWriter, logger *zap.Logger) (pipeline.Request, bool) {
	if r.Question == "" {
		writeError(w, logger, http.StatusBadRequest, "missing_question", "Question is required")
		return pipeline.Request{}, false
	}
	agentID, err := uuid.Parse(r.AgentID)
	if err != nil {
		writeError(w, logger, http.StatusBadRequest, "invalid_agent_id", "Invalid agent ID format")
		return pipeline.Request{}, false
	}

	req := pipeline.Request{
		Question: r.Question,
		AgentID:  agentID,
		Execute:  r.Execute == nil || *r.Execute,
	}
	if r.SourceID != "" {
		sourceID, err := uuid.Parse(r.SourceID)
		if err != nil {
			writeError(w, logger, http.StatusBadRequest, "invalid_source_id", "Invalid source ID format")
			return pipeline.Request{}, false
		}
		req.SourceID = &sourceID
	}
	return req, true
}

// ResolveQuery handles POST /api/query
func (h *QueryHandler) ResolveQuery(w http.ResponseWriter, r *http.Request) {
	var req queryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, h.logger, http.StatusBadRequest, "invalid_request", "Invalid request body")
		return
	}

	pipelineReq, ok := req.toPipeline(w, h.logger)
	if !ok {
		return
	}

	result := h.supervisor.ResolveQuery(r.Context(), pipelineReq)
	if err := WriteJSON(w, http.StatusOK, result); err != nil {
		h.logger.Error("Failed to write query response", zap.Error(err))
	}
}

type multiQueryRequest struct {
	Question  string   `json:"question"`
	AgentID   string   `json:"agent_id"`
	SourceIDs []string `json:"source_ids"`
	Execute   *bool    `json:"execute,omitempty"`
}

// ResolveAcross handles POST /api/query/multi
func (h *QueryHandler) ResolveAcross(w http.ResponseWriter, r *http.Request) {
	var req multiQueryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, h.logger, http.StatusBadRequest, "invalid_request", "Invalid request body")
		return
	}
	if req.Question == "" {
		writeError(w, h.logger, http.StatusBadRequest, "missing_question", "Question is required")
		return
	}
	if len(req.SourceIDs) == 0 {
		writeError(w, h.logger, http.StatusBadRequest, "missing_source_ids", "At least one source ID is required")
		return
	}
	agentID, err := uuid.Parse(req.AgentID)
	if err != nil {
		writeError(w, h.logger, http.StatusBadRequest, "invalid_agent_id", "Invalid agent ID format")
		return
	}
	sourceIDs := make([]uuid.UUID, len(req.SourceIDs))
	for i, raw := range req.SourceIDs {
		id, err := uuid.Parse(raw)
		if err != nil {
			writeError(w, h.logger, http.StatusBadRequest, "invalid_source_id", "Invalid source ID format")
			return
		}
		sourceIDs[i] = id
	}

	execute := req.Execute == nil || *req.Execute
	results := h.supervisor.ResolveAcross(r.Context(), req.Question, agentID, sourceIDs, execute)

	if err := WriteJSON(w, http.StatusOK, ApiResponse{
		Success: true,
		Data:    results,
	}); err != nil {
		h.logger.Error("Failed to write multi query response", zap.Error(err))
	}
}

// History handles GET /api/agents/{agent_id}/history
func (h *QueryHandler) History(w http.ResponseWriter, r *http.Request) {
	agentID, err := uuid.Parse(r.PathValue("agent_id"))
	if err != nil {
		writeError(w, h.logger, http.StatusBadRequest, "invalid_agent_id", "Invalid agent ID format")
		return
	}

	limit := 50
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			writeError(w, h.logger, http.StatusBadRequest, "invalid_limit", "Limit must be a positive integer")
			return
		}
		limit = parsed
	}

	records, err := h.history.Recent(r.Context(), agentID, limit)
	if err != nil {
		h.logger.Error("Failed to read history", zap.Error(err))
		writeError(w, h.logger, http.StatusInternalServerError, "history_failed", err.Error())
		return
	}

	if err := WriteJSON(w, http.StatusOK, ApiResponse{
		Success: true,
		Data:    records,
	}); err != nil {
		h.logger.Error("Failed to write history response", zap.Error(err))
	}
}

// ListDatabaseTypes handles GET /api/databases/types
func (h *QueryHandler) ListDatabaseTypes(w http.ResponseWriter, r *http.Request) {
	if err := WriteJSON(w, http.StatusOK, ApiResponse{
		Success: true,
		Data:    h.factory.ListTypes(),
	}); err != nil {
		h.logger.Error("Failed to write database types response", zap.Error(err))
	}
}

func writeError(w http.ResponseWriter, logger *zap.Logger, status int, code, message string) {
	if err := ErrorResponse(w, status, code, message); err != nil {
		logger.Error("Failed to write error response", zap.Error(err))
	}
}
