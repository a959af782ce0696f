package server

import (
	"net/http"
	"strings"
)

// setupRoutes builds the route table.
func (s *Server) setupRoutes() *http.ServeMux {
	mux := http.NewServeMux()

	// Job lifecycle
	mux.HandleFunc("/api/jobs", func(w http.ResponseWriter, r *http.Request) {
		RouteResourceCollection(w, r, s.app.JobHandler.ListJobsHandler, s.app.JobHandler.CreateJobHandler)
	})
	mux.HandleFunc("/api/jobs/", s.handleJobRoutes) // /{id} and subpaths

	// Templates
	mux.HandleFunc("/api/templates", s.app.TemplateHandler.ListTemplatesHandler)
	mux.HandleFunc("/api/templates/", s.handleTemplateRoutes) // /{id}, /{id}/clone, /{id}/execute

	// Definitions
	mux.HandleFunc("/api/definitions", s.app.DefinitionHandler.ListDefinitionsHandler)
	mux.HandleFunc("/api/definitions/", s.app.DefinitionHandler.GetDefinitionHandler)

	// Parameter set maintenance
	mux.HandleFunc("/api/parameter-sets/orphaned", s.app.JobHandler.OrphanedParameterSetsHandler)

	// System
	mux.HandleFunc("/api/audit", s.app.APIHandler.AuditEventsHandler)
	mux.HandleFunc("/api/version", s.app.APIHandler.VersionHandler)
	mux.HandleFunc("/api/health", s.app.APIHandler.HealthHandler)
	mux.HandleFunc("/api/", s.app.APIHandler.NotFoundHandler)

	return mux
}

// handleJobRoutes dispatches /api/jobs/{id} and its subpaths.
func (s *Server) handleJobRoutes(w http.ResponseWriter, r *http.Request) {
	path := strings.TrimPrefix(r.URL.Path, "/api/jobs/")
	parts := strings.Split(path, "/")

	if len(parts) >= 2 && parts[1] != "" {
		switch parts[1] {
		case "start":
			s.app.JobHandler.StartJobHandler(w, r)
		case "status":
			s.app.StatusHandler.ChainStatusHandler(w, r)
		case "progress":
			s.app.StatusHandler.BatchProgressHandler(w, r)
		case "parameters":
			RouteCRUD(w, r,
				s.app.JobHandler.ResolveParametersHandler,
				nil, nil,
				s.app.JobHandler.DeleteParametersHandler)
		default:
			http.NotFound(w, r)
		}
		return
	}

	RouteResourceItem(w, r,
		s.app.JobHandler.GetJobHandler,
		s.app.JobHandler.UpdateJobHandler,
		s.app.JobHandler.DeleteJobHandler)
}

// handleTemplateRoutes dispatches /api/templates/{id} and its subpaths.
func (s *Server) handleTemplateRoutes(w http.ResponseWriter, r *http.Request) {
	path := strings.TrimPrefix(r.URL.Path, "/api/templates/")
	parts := strings.Split(path, "/")

	if len(parts) >= 2 && parts[1] != "" {
		switch parts[1] {
		case "clone":
			s.app.TemplateHandler.CloneTemplateHandler(w, r)
		case "execute":
			s.app.TemplateHandler.ExecuteTemplateHandler(w, r)
		default:
			http.NotFound(w, r)
		}
		return
	}

	s.app.TemplateHandler.GetTemplateHandler(w, r)
}
