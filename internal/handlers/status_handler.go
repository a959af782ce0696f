// -----------------------------------------------------------------------
// Status Handler - HTTP surface for chain status and batch progress
// -----------------------------------------------------------------------

package handlers

import (
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/jobctl/internal/services/status"
)

// StatusHandler handles HTTP requests for job status aggregation
type StatusHandler struct {
	status *status.Service
	logger arbor.ILogger
}

// NewStatusHandler creates a new status handler
func NewStatusHandler(statusService *status.Service, logger arbor.ILogger) *StatusHandler {
	if statusService == nil {
		panic("statusService cannot be nil")
	}
	if logger == nil {
		panic("logger cannot be nil")
	}

	return &StatusHandler{
		status: statusService,
		logger: logger,
	}
}

// ChainStatusHandler handles GET /api/jobs/{id}/status
func (h *StatusHandler) ChainStatusHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, "GET") {
		return
	}

	jobID, ok := h.idFromPath(w, r)
	if !ok {
		return
	}

	chainStatus, err := h.status.GetChainStatus(r.Context(), jobID)
	if err != nil {
		WriteServiceError(w, err)
		return
	}

	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"job_id":   jobID.String(),
		"status":   chainStatus.Status,
		"complete": chainStatus.Complete,
	})
}

// BatchProgressHandler handles GET /api/jobs/{id}/progress
func (h *StatusHandler) BatchProgressHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, "GET") {
		return
	}

	jobID, ok := h.idFromPath(w, r)
	if !ok {
		return
	}

	progress, err := h.status.GetBatchProgress(r.Context(), jobID)
	if err != nil {
		WriteServiceError(w, err)
		return
	}

	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"job_id":    jobID.String(),
		"total":     progress.Total,
		"succeeded": progress.Succeeded,
		"failed":    progress.Failed,
		"pending":   progress.Pending(),
		"progress":  progress.Progress(),
	})
}

func (h *StatusHandler) idFromPath(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	path := strings.TrimPrefix(r.URL.Path, "/api/jobs/")
	idPart := strings.SplitN(path, "/", 2)[0]

	jobID, err := uuid.Parse(idPart)
	if err != nil {
		WriteError(w, http.StatusBadRequest, "Invalid job ID")
		return uuid.Nil, false
	}
	return jobID, true
}
