// -----------------------------------------------------------------------
// Job Handler - HTTP surface for scheduled job lifecycle
// -----------------------------------------------------------------------

package handlers

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/jobctl/internal/services/scheduling"
	"github.com/ternarybob/jobctl/internal/services/templates"
)

// JobHandler handles HTTP requests for scheduled job management
type JobHandler struct {
	scheduling *scheduling.Service
	templates  *templates.Service
	logger     arbor.ILogger
}

// NewJobHandler creates a new job handler
func NewJobHandler(schedulingService *scheduling.Service, templateService *templates.Service, logger arbor.ILogger) *JobHandler {
	if schedulingService == nil {
		panic("schedulingService cannot be nil")
	}
	if templateService == nil {
		panic("templateService cannot be nil")
	}
	if logger == nil {
		panic("logger cannot be nil")
	}

	return &JobHandler{
		scheduling: schedulingService,
		templates:  templateService,
		logger:     logger,
	}
}

// jobRequest is the JSON body for create and update.
type jobRequest struct {
	JobType           string            `json:"job_type"`
	JobName           string            `json:"job_name"`
	Parameters        map[string]string `json:"parameters"`
	ScheduledAt       *time.Time        `json:"scheduled_at,omitempty"`
	IsExternalTrigger bool              `json:"is_external_trigger"`
	Labels            []string          `json:"labels,omitempty"`
}

// startRequest is the JSON body for start. All fields are optional.
type startRequest struct {
	Postfix    string                 `json:"postfix,omitempty"`
	Parameters map[string]interface{} `json:"parameters,omitempty"`
}

// ListJobsHandler handles GET /api/jobs
func (h *JobHandler) ListJobsHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, "GET") {
		return
	}

	jobs, err := h.scheduling.ListJobs(r.Context())
	if err != nil {
		h.logger.Error().Err(err).Msg("Failed to list jobs")
		WriteServiceError(w, err)
		return
	}

	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"jobs":  jobs,
		"count": len(jobs),
	})
}

// CreateJobHandler handles POST /api/jobs
func (h *JobHandler) CreateJobHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, "POST") {
		return
	}

	var req jobRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.JobType == "" {
		WriteError(w, http.StatusBadRequest, "job_type is required")
		return
	}
	if req.JobName == "" {
		WriteError(w, http.StatusBadRequest, "job_name is required")
		return
	}

	jobID, err := h.scheduling.CreateJob(r.Context(), scheduling.CreateJobRequest{
		JobType:           req.JobType,
		JobName:           req.JobName,
		Parameters:        req.Parameters,
		ScheduledAt:       req.ScheduledAt,
		IsExternalTrigger: req.IsExternalTrigger,
		Labels:            req.Labels,
		Actor:             actorFromRequest(r),
	})
	if err != nil {
		h.logger.Error().Err(err).Str("job_type", req.JobType).Msg("Failed to create job")
		WriteServiceError(w, err)
		return
	}

	WriteJSON(w, http.StatusCreated, map[string]string{
		"status": "created",
		"job_id": jobID.String(),
	})
}

// GetJobHandler handles GET /api/jobs/{id}
func (h *JobHandler) GetJobHandler(w http.ResponseWriter, r *http.Request) {
	jobID, ok := h.jobIDFromPath(w, r)
	if !ok {
		return
	}

	job, err := h.scheduling.GetJob(r.Context(), jobID)
	if err != nil {
		WriteServiceError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, job)
}

// UpdateJobHandler handles PUT /api/jobs/{id}
func (h *JobHandler) UpdateJobHandler(w http.ResponseWriter, r *http.Request) {
	jobID, ok := h.jobIDFromPath(w, r)
	if !ok {
		return
	}

	var req jobRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	err := h.scheduling.UpdateJob(r.Context(), scheduling.UpdateJobRequest{
		JobID:             jobID,
		JobType:           req.JobType,
		JobName:           req.JobName,
		Parameters:        req.Parameters,
		ScheduledAt:       req.ScheduledAt,
		IsExternalTrigger: req.IsExternalTrigger,
		Labels:            req.Labels,
		Actor:             actorFromRequest(r),
	})
	if err != nil {
		h.logger.Error().Err(err).Str("job_id", jobID.String()).Msg("Failed to update job")
		WriteServiceError(w, err)
		return
	}

	WriteSuccess(w, "Job updated")
}

// DeleteJobHandler handles DELETE /api/jobs/{id}
func (h *JobHandler) DeleteJobHandler(w http.ResponseWriter, r *http.Request) {
	jobID, ok := h.jobIDFromPath(w, r)
	if !ok {
		return
	}

	if err := h.scheduling.DeleteJob(r.Context(), jobID, actorFromRequest(r)); err != nil {
		h.logger.Error().Err(err).Str("job_id", jobID.String()).Msg("Failed to delete job")
		WriteServiceError(w, err)
		return
	}

	WriteSuccess(w, "Job deleted")
}

// StartJobHandler handles POST /api/jobs/{id}/start. Templates are cloned and
// the clone started; ordinary jobs start directly.
func (h *JobHandler) StartJobHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, "POST") {
		return
	}

	jobID, ok := h.jobIDFromPath(w, r)
	if !ok {
		return
	}

	var req startRequest
	if r.Body != nil && r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			WriteError(w, http.StatusBadRequest, "Invalid request body")
			return
		}
	}

	startedID, err := h.templates.StartJob(r.Context(), jobID, req.Postfix, req.Parameters)
	if err != nil {
		h.logger.Error().Err(err).Str("job_id", jobID.String()).Msg("Failed to start job")
		WriteServiceError(w, err)
		return
	}

	WriteJSON(w, http.StatusOK, map[string]string{
		"status": "started",
		"job_id": startedID.String(),
	})
}

// ResolveParametersHandler handles GET /api/jobs/{id}/parameters
func (h *JobHandler) ResolveParametersHandler(w http.ResponseWriter, r *http.Request) {
	jobID, ok := h.jobIDFromPath(w, r)
	if !ok {
		return
	}

	params, err := h.scheduling.ResolveParameters(r.Context(), jobID)
	if err != nil {
		WriteServiceError(w, err)
		return
	}

	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"job_id":     jobID.String(),
		"parameters": params,
	})
}

// DeleteParametersHandler handles DELETE /api/jobs/{id}/parameters
func (h *JobHandler) DeleteParametersHandler(w http.ResponseWriter, r *http.Request) {
	jobID, ok := h.jobIDFromPath(w, r)
	if !ok {
		return
	}

	if err := h.scheduling.DeleteParameters(r.Context(), jobID); err != nil {
		WriteServiceError(w, err)
		return
	}
	WriteSuccess(w, "Parameters deleted")
}

// OrphanedParameterSetsHandler handles GET /api/parameter-sets/orphaned
func (h *JobHandler) OrphanedParameterSetsHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, "GET") {
		return
	}

	orphans, err := h.scheduling.ListOrphanedParameterSets(r.Context())
	if err != nil {
		WriteServiceError(w, err)
		return
	}

	ids := make([]string, len(orphans))
	for i, id := range orphans {
		ids[i] = id.String()
	}
	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"orphaned": ids,
		"count":    len(ids),
	})
}

// jobIDFromPath extracts the job UUID from /api/jobs/{id}[/suffix].
func (h *JobHandler) jobIDFromPath(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	path := strings.TrimPrefix(r.URL.Path, "/api/jobs/")
	idPart := strings.SplitN(path, "/", 2)[0]

	jobID, err := uuid.Parse(idPart)
	if err != nil {
		WriteError(w, http.StatusBadRequest, "Invalid job ID")
		return uuid.Nil, false
	}
	return jobID, true
}

// actorFromRequest identifies the caller for audit purposes.
func actorFromRequest(r *http.Request) string {
	if actor := r.Header.Get("X-Actor"); actor != "" {
		return actor
	}
	return "api"
}
