package handlers

import (
	"net/http"
	"strconv"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/jobctl/internal/common"
	"github.com/ternarybob/jobctl/internal/services/audit"
)

// APIHandler serves version, health and audit endpoints
type APIHandler struct {
	audit  *audit.Sink
	logger arbor.ILogger
}

// NewAPIHandler creates a new API handler
func NewAPIHandler(auditSink *audit.Sink, logger arbor.ILogger) *APIHandler {
	return &APIHandler{
		audit:  auditSink,
		logger: logger,
	}
}

// VersionHandler handles GET /api/version
func (h *APIHandler) VersionHandler(w http.ResponseWriter, r *http.Request) {
	WriteJSON(w, http.StatusOK, map[string]string{
		"version": common.GetVersion(),
		"build":   common.GetFullVersion(),
	})
}

// HealthHandler handles GET /api/health
func (h *APIHandler) HealthHandler(w http.ResponseWriter, r *http.Request) {
	WriteJSON(w, http.StatusOK, map[string]string{
		"status": "healthy",
	})
}

// AuditEventsHandler handles GET /api/audit?limit=N
func (h *APIHandler) AuditEventsHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, "GET") {
		return
	}

	limit := 100
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil && parsed > 0 {
			limit = parsed
		}
	}

	events, err := h.audit.Recent(r.Context(), limit)
	if err != nil {
		h.logger.Error().Err(err).Msg("Failed to list audit events")
		WriteServiceError(w, err)
		return
	}

	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"events": events,
		"count":  len(events),
	})
}

// NotFoundHandler handles unmatched /api/ routes
func (h *APIHandler) NotFoundHandler(w http.ResponseWriter, r *http.Request) {
	WriteError(w, http.StatusNotFound, "Unknown API endpoint")
}
