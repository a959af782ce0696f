// -----------------------------------------------------------------------
// App - dependency wiring for the jobctl server
// -----------------------------------------------------------------------

package app

import (
	"context"
	"fmt"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/jobctl/internal/common"
	"github.com/ternarybob/jobctl/internal/handlers"
	"github.com/ternarybob/jobctl/internal/interfaces"
	"github.com/ternarybob/jobctl/internal/scheduler"
	"github.com/ternarybob/jobctl/internal/services/audit"
	"github.com/ternarybob/jobctl/internal/services/definitions"
	"github.com/ternarybob/jobctl/internal/services/parameters"
	"github.com/ternarybob/jobctl/internal/services/scheduling"
	"github.com/ternarybob/jobctl/internal/services/status"
	"github.com/ternarybob/jobctl/internal/services/templates"
	"github.com/ternarybob/jobctl/internal/services/validation"
	badgerstorage "github.com/ternarybob/jobctl/internal/storage/badger"
)

// App holds all application components and dependencies
type App struct {
	Config *common.Config
	Logger arbor.ILogger

	DB       *badgerstorage.BadgerDB
	Registry interfaces.DefinitionLookup

	// Execution engine adapter (scheduling writes + execution reads)
	Scheduler *scheduler.BadgerScheduler

	// Core services
	SchedulingService *scheduling.Service
	TemplateService   *templates.Service
	StatusService     *status.Service
	AuditSink         *audit.Sink

	// HTTP handlers
	JobHandler        *handlers.JobHandler
	TemplateHandler   *handlers.TemplateHandler
	StatusHandler     *handlers.StatusHandler
	DefinitionHandler *handlers.DefinitionHandler
	APIHandler        *handlers.APIHandler
}

// New creates and wires the application. Startup order matters: storage,
// definitions, engine adapter, services, handlers.
func New(ctx context.Context, config *common.Config, logger arbor.ILogger) (*App, error) {
	db, err := badgerstorage.NewBadgerDB(logger, &config.Storage.Badger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize storage: %w", err)
	}

	loader := definitions.NewLoader(logger)
	registry, err := loader.LoadDir(config.Jobs.DefinitionsDir)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to load job definitions: %w", err)
	}

	var paramStore interfaces.ParameterSetStore
	if config.Jobs.ExternalParameterStorage {
		paramStore = badgerstorage.NewParameterSetStorage(db, logger)
	} else {
		logger.Warn().Msg("External parameter storage disabled, jobs declaring external parameters will fail at creation")
	}

	auditStorage := badgerstorage.NewAuditStorage(db, logger)
	auditSink := audit.NewSink(auditStorage, logger)

	engine := scheduler.NewBadgerScheduler(db, registry, logger)
	if paramStore != nil {
		engine.RegisterFilter(scheduler.NewParameterCleanupFilter(paramStore, registry, logger))
	}

	validator := validation.NewParameterValidator()
	coordinator := parameters.NewCoordinator(paramStore, logger)

	schedulingService := scheduling.NewService(registry, engine, validator, coordinator, auditSink, logger)
	templateService := templates.NewService(engine, coordinator, logger)
	statusService := status.NewService(engine,
		config.Monitoring.EngineReadRate,
		config.Monitoring.EngineReadBurst,
		config.Monitoring.BatchProgressTimeoutDuration(),
		logger)

	app := &App{
		Config:            config,
		Logger:            logger,
		DB:                db,
		Registry:          registry,
		Scheduler:         engine,
		SchedulingService: schedulingService,
		TemplateService:   templateService,
		StatusService:     statusService,
		AuditSink:         auditSink,
		JobHandler:        handlers.NewJobHandler(schedulingService, templateService, logger),
		TemplateHandler:   handlers.NewTemplateHandler(templateService, logger),
		StatusHandler:     handlers.NewStatusHandler(statusService, logger),
		DefinitionHandler: handlers.NewDefinitionHandler(registry, logger),
		APIHandler:        handlers.NewAPIHandler(auditSink, logger),
	}

	logger.Info().
		Int("definitions", len(registry.All())).
		Bool("external_parameter_storage", paramStore != nil).
		Msg("Application initialized")

	return app, nil
}

// Close releases application resources.
func (a *App) Close() error {
	if a.DB != nil {
		return a.DB.Close()
	}
	return nil
}
