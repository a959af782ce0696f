// -----------------------------------------------------------------------
// Scheduling Service - create/update/delete orchestration over the
// execution engine's scheduling port
// -----------------------------------------------------------------------

package scheduling

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/jobctl/internal/interfaces"
	"github.com/ternarybob/jobctl/internal/models"
	"github.com/ternarybob/jobctl/internal/services/parameters"
	"github.com/ternarybob/jobctl/internal/services/validation"
)

// Service orchestrates the job lifecycle: it validates input, drives the
// parameter lifecycle coordinator, and calls the scheduling port.
type Service struct {
	definitions interfaces.DefinitionLookup
	scheduler   interfaces.Scheduler
	validator   *validation.ParameterValidator
	params      *parameters.Coordinator
	audit       interfaces.AuditSink
	logger      arbor.ILogger
}

// NewService creates a new scheduling service
func NewService(
	definitions interfaces.DefinitionLookup,
	scheduler interfaces.Scheduler,
	validator *validation.ParameterValidator,
	params *parameters.Coordinator,
	audit interfaces.AuditSink,
	logger arbor.ILogger,
) *Service {
	return &Service{
		definitions: definitions,
		scheduler:   scheduler,
		validator:   validator,
		params:      params,
		audit:       audit,
		logger:      logger,
	}
}

// CreateJobRequest carries the operator input for creating a scheduled job.
type CreateJobRequest struct {
	JobType           string
	JobName           string
	Parameters        map[string]string
	ScheduledAt       *time.Time
	IsExternalTrigger bool
	Labels            []string
	Actor             string
}

// CreateJob creates a new scheduled job.
//
// Inline definitions schedule in a single phase. External definitions require
// the two-phase protocol because the parameter set key must equal the job ID,
// which the engine assigns at scheduling time:
//  1. schedule the job with an empty parameter map to obtain its ID
//  2. store the parameter set keyed by that ID
//  3. update the job's parameter map to hold only the reference
//
// Scheduling first guarantees a stable ID. If step 2 or 3 fails after step 1
// succeeded, the job exists but is not yet usable; step 3 is idempotent and
// safe to retry, and orphans surface via ListOrphanedParameterSets.
func (s *Service) CreateJob(ctx context.Context, req CreateJobRequest) (uuid.UUID, error) {
	def := s.definitions.FindByType(req.JobType)
	if def == nil {
		return uuid.Nil, fmt.Errorf("job type '%s': %w", req.JobType, models.ErrJobTypeNotFound)
	}

	converted, err := s.validator.ConvertAndValidate(def, req.Parameters)
	if err != nil {
		return uuid.Nil, err
	}

	scheduledAt, err := effectiveScheduledAt(req.ScheduledAt, req.IsExternalTrigger)
	if err != nil {
		return uuid.Nil, err
	}

	var jobID uuid.UUID

	if def.UsesExternalParameters() {
		s.logger.Debug().Str("job_type", req.JobType).Msg("Using two-phase create for external parameters")

		// Prepare fails fast when no store is configured, before the job exists
		emptyParams, err := s.params.Prepare(def, req.JobType, converted)
		if err != nil {
			return uuid.Nil, err
		}

		jobID, err = s.scheduler.ScheduleJob(ctx, interfaces.ScheduleRequest{
			Definition:            def,
			JobName:               req.JobName,
			Parameters:            emptyParams,
			ExternallyTriggerable: req.IsExternalTrigger,
			ScheduledAt:           scheduledAt,
			Labels:                req.Labels,
		})
		if err != nil {
			return uuid.Nil, fmt.Errorf("failed to schedule job: %w", err)
		}

		if err := s.params.StoreForJob(ctx, jobID, def, req.JobType, converted); err != nil {
			return uuid.Nil, err
		}

		reference := s.params.CreateReference(jobID, def)
		if err := s.scheduler.UpdateJobParameters(ctx, jobID, reference); err != nil {
			return uuid.Nil, fmt.Errorf("failed to attach parameter reference to job %s: %w", jobID, err)
		}

		s.logger.Info().
			Str("job_id", jobID.String()).
			Str("job_type", req.JobType).
			Msg("Created job with external parameters")
	} else {
		jobID, err = s.scheduler.ScheduleJob(ctx, interfaces.ScheduleRequest{
			Definition:            def,
			JobName:               req.JobName,
			Parameters:            converted,
			ExternallyTriggerable: req.IsExternalTrigger,
			ScheduledAt:           scheduledAt,
			Labels:                req.Labels,
		})
		if err != nil {
			return uuid.Nil, fmt.Errorf("failed to schedule job: %w", err)
		}
	}

	s.audit.Record(ctx, models.AuditEvent{
		ID:         uuid.New(),
		Actor:      req.Actor,
		Verb:       "create",
		JobName:    req.JobName,
		JobID:      jobID,
		Parameters: converted,
		OccurredAt: time.Now(),
	})

	return jobID, nil
}

// UpdateJobRequest carries the operator input for updating a scheduled job.
type UpdateJobRequest struct {
	JobID             uuid.UUID
	JobType           string
	JobName           string
	Parameters        map[string]string
	ScheduledAt       *time.Time
	IsExternalTrigger bool
	Labels            []string
	Actor             string
}

// UpdateJob updates a scheduled job in place. Unlike create, no two-phase
// protocol is needed: the job ID already exists, so external definitions get
// an in-place parameter set update plus a reference-only job parameter map in
// a single scheduler call.
func (s *Service) UpdateJob(ctx context.Context, req UpdateJobRequest) error {
	def := s.definitions.FindByType(req.JobType)
	if def == nil {
		return fmt.Errorf("job type '%s': %w", req.JobType, models.ErrJobTypeNotFound)
	}

	converted, err := s.validator.ConvertAndValidate(def, req.Parameters)
	if err != nil {
		return err
	}

	scheduledAt, err := effectiveScheduledAt(req.ScheduledAt, req.IsExternalTrigger)
	if err != nil {
		return err
	}

	var jobParams map[string]interface{}
	if def.UsesExternalParameters() {
		if err := s.params.UpdateForJob(ctx, req.JobID, def, req.JobType, converted); err != nil {
			return err
		}
		jobParams = s.params.CreateReference(req.JobID, def)
	} else {
		jobParams = converted
	}

	if err := s.scheduler.UpdateJob(ctx, req.JobID, interfaces.ScheduleRequest{
		Definition:            def,
		JobName:               req.JobName,
		Parameters:            jobParams,
		ExternallyTriggerable: req.IsExternalTrigger,
		ScheduledAt:           scheduledAt,
		Labels:                req.Labels,
	}); err != nil {
		return fmt.Errorf("failed to update job %s: %w", req.JobID, err)
	}

	s.audit.Record(ctx, models.AuditEvent{
		ID:         uuid.New(),
		Actor:      req.Actor,
		Verb:       "update",
		JobName:    req.JobName,
		JobID:      req.JobID,
		Parameters: converted,
		OccurredAt: time.Now(),
	})

	return nil
}

// DeleteJob deletes a scheduled job. Parameter cleanup is best-effort and runs
// first; a cleanup failure is logged and never blocks the job deletion, which
// is the authoritative operation. The engine-level cleanup filter covers jobs
// deleted outside this orchestrator.
func (s *Service) DeleteJob(ctx context.Context, jobID uuid.UUID, actor string) error {
	job, err := s.scheduler.GetScheduledJobByID(ctx, jobID)
	if err != nil {
		return fmt.Errorf("failed to load job %s: %w", jobID, err)
	}

	jobName := "unknown"
	if job != nil {
		jobName = job.JobName

		if job.HasExternalParameters() {
			setID := jobID
			if refID, ok := job.ParameterSetID(); ok {
				setID = refID
			}
			if err := s.params.DeleteForJob(ctx, setID); err != nil {
				s.logger.Warn().Err(err).
					Str("job_id", jobID.String()).
					Msg("Failed to clean up external parameters, continuing with job deletion")
			}
		}
	}

	if err := s.scheduler.DeleteScheduledJob(ctx, jobID); err != nil {
		return fmt.Errorf("failed to delete job %s: %w", jobID, err)
	}

	s.audit.Record(ctx, models.AuditEvent{
		ID:         uuid.New(),
		Actor:      actor,
		Verb:       "delete",
		JobName:    jobName,
		JobID:      jobID,
		OccurredAt: time.Now(),
	})

	return nil
}

// GetJob returns a scheduled job by ID.
func (s *Service) GetJob(ctx context.Context, jobID uuid.UUID) (*models.ScheduledJobInfo, error) {
	job, err := s.scheduler.GetScheduledJobByID(ctx, jobID)
	if err != nil {
		return nil, fmt.Errorf("failed to load job %s: %w", jobID, err)
	}
	if job == nil {
		return nil, fmt.Errorf("job '%s': %w", jobID, models.ErrJobNotFound)
	}
	return job, nil
}

// ListJobs returns all scheduled jobs.
func (s *Service) ListJobs(ctx context.Context) ([]*models.ScheduledJobInfo, error) {
	return s.scheduler.GetScheduledJobs(ctx)
}

// ResolveParameters returns the actual parameters of a job, loading external
// parameter sets when applicable.
func (s *Service) ResolveParameters(ctx context.Context, jobID uuid.UUID) (map[string]interface{}, error) {
	job, err := s.GetJob(ctx, jobID)
	if err != nil {
		return nil, err
	}
	return s.params.Resolve(ctx, job), nil
}

// DeleteParameters removes a job's external parameter set without touching
// the job itself. Idempotent.
func (s *Service) DeleteParameters(ctx context.Context, jobID uuid.UUID) error {
	return s.params.DeleteForJob(ctx, jobID)
}

// ListOrphanedParameterSets reports jobs referenced by no parameter set and
// vice versa is intentionally out of scope; this reconciliation pass lists
// scheduled external-parameter jobs whose parameter set is missing, the
// visible symptom of a two-phase create interrupted between its steps.
func (s *Service) ListOrphanedParameterSets(ctx context.Context) ([]uuid.UUID, error) {
	jobs, err := s.scheduler.GetScheduledJobs(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list jobs: %w", err)
	}

	var orphans []uuid.UUID
	for _, job := range jobs {
		if job.Definition == nil || !job.Definition.UsesExternalParameters() {
			continue
		}
		if !job.HasExternalParameters() {
			// Job was scheduled but never got its reference attached
			orphans = append(orphans, job.JobID)
		}
	}
	return orphans, nil
}

// effectiveScheduledAt translates the external-trigger flag into the sentinel
// schedule time the engine storage requires.
func effectiveScheduledAt(scheduledAt *time.Time, isExternalTrigger bool) (time.Time, error) {
	if isExternalTrigger {
		return models.ExternalTriggerDate, nil
	}
	if scheduledAt == nil {
		return time.Time{}, errors.New("scheduledAt is required when the job is not externally triggered")
	}
	return *scheduledAt, nil
}
