package handlers

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/jobctl/internal/interfaces"
	"github.com/ternarybob/jobctl/internal/models"
)

// DefinitionHandler exposes the read-only job definition registry
type DefinitionHandler struct {
	definitions interfaces.DefinitionLookup
	logger      arbor.ILogger
}

// NewDefinitionHandler creates a new definition handler
func NewDefinitionHandler(definitions interfaces.DefinitionLookup, logger arbor.ILogger) *DefinitionHandler {
	if definitions == nil {
		panic("definitions cannot be nil")
	}
	if logger == nil {
		panic("logger cannot be nil")
	}

	return &DefinitionHandler{
		definitions: definitions,
		logger:      logger,
	}
}

// ListDefinitionsHandler handles GET /api/definitions
func (h *DefinitionHandler) ListDefinitionsHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, "GET") {
		return
	}

	defs := h.definitions.All()
	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"definitions": defs,
		"count":       len(defs),
	})
}

// GetDefinitionHandler handles GET /api/definitions/{type}
func (h *DefinitionHandler) GetDefinitionHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, "GET") {
		return
	}

	jobType := strings.TrimPrefix(r.URL.Path, "/api/definitions/")
	if jobType == "" {
		WriteError(w, http.StatusBadRequest, "Job type is required")
		return
	}

	def := h.definitions.FindByType(jobType)
	if def == nil {
		WriteServiceError(w, fmt.Errorf("job type '%s': %w", jobType, models.ErrJobTypeNotFound))
		return
	}
	WriteJSON(w, http.StatusOK, def)
}
