// -----------------------------------------------------------------------
// Template Handler - HTTP surface for template clone and execution
// -----------------------------------------------------------------------

package handlers

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/jobctl/internal/services/templates"
)

// TemplateHandler handles HTTP requests for template management
type TemplateHandler struct {
	templates *templates.Service
	logger    arbor.ILogger
}

// NewTemplateHandler creates a new template handler
func NewTemplateHandler(templateService *templates.Service, logger arbor.ILogger) *TemplateHandler {
	if templateService == nil {
		panic("templateService cannot be nil")
	}
	if logger == nil {
		panic("logger cannot be nil")
	}

	return &TemplateHandler{
		templates: templateService,
		logger:    logger,
	}
}

type cloneRequest struct {
	Postfix    string                 `json:"postfix,omitempty"`
	Parameters map[string]interface{} `json:"parameters,omitempty"`
}

// ListTemplatesHandler handles GET /api/templates
func (h *TemplateHandler) ListTemplatesHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, "GET") {
		return
	}

	list, err := h.templates.ListTemplates(r.Context())
	if err != nil {
		h.logger.Error().Err(err).Msg("Failed to list templates")
		WriteServiceError(w, err)
		return
	}

	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"templates": list,
		"count":     len(list),
	})
}

// GetTemplateHandler handles GET /api/templates/{id}
func (h *TemplateHandler) GetTemplateHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, "GET") {
		return
	}

	templateID, ok := h.templateIDFromPath(w, r)
	if !ok {
		return
	}

	template, err := h.templates.GetTemplate(r.Context(), templateID)
	if err != nil {
		WriteServiceError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, template)
}

// CloneTemplateHandler handles POST /api/templates/{id}/clone. The clone keeps
// the template label; parameter overrides are not accepted on this path.
func (h *TemplateHandler) CloneTemplateHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, "POST") {
		return
	}

	templateID, ok := h.templateIDFromPath(w, r)
	if !ok {
		return
	}

	req, ok := h.decodeCloneRequest(w, r)
	if !ok {
		return
	}

	newID, err := h.templates.CloneTemplate(r.Context(), templateID, req.Postfix)
	if err != nil {
		h.logger.Error().Err(err).Str("template_id", templateID.String()).Msg("Failed to clone template")
		WriteServiceError(w, err)
		return
	}

	WriteJSON(w, http.StatusCreated, map[string]string{
		"status":      "created",
		"template_id": newID.String(),
	})
}

// ExecuteTemplateHandler handles POST /api/templates/{id}/execute. The clone
// drops the template label and starts immediately.
func (h *TemplateHandler) ExecuteTemplateHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, "POST") {
		return
	}

	templateID, ok := h.templateIDFromPath(w, r)
	if !ok {
		return
	}

	req, ok := h.decodeCloneRequest(w, r)
	if !ok {
		return
	}

	jobID, err := h.templates.ExecuteTemplate(r.Context(), templateID, req.Postfix, req.Parameters)
	if err != nil {
		h.logger.Error().Err(err).Str("template_id", templateID.String()).Msg("Failed to execute template")
		WriteServiceError(w, err)
		return
	}

	WriteJSON(w, http.StatusOK, map[string]string{
		"status": "started",
		"job_id": jobID.String(),
	})
}

func (h *TemplateHandler) decodeCloneRequest(w http.ResponseWriter, r *http.Request) (cloneRequest, bool) {
	var req cloneRequest
	if r.Body != nil && r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			WriteError(w, http.StatusBadRequest, "Invalid request body")
			return req, false
		}
	}
	return req, true
}

func (h *TemplateHandler) templateIDFromPath(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	path := strings.TrimPrefix(r.URL.Path, "/api/templates/")
	idPart := strings.SplitN(path, "/", 2)[0]

	templateID, err := uuid.Parse(idPart)
	if err != nil {
		WriteError(w, http.StatusBadRequest, "Invalid template ID")
		return uuid.Nil, false
	}
	return templateID, true
}
