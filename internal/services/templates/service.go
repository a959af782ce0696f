// -----------------------------------------------------------------------
// Template Service - clones template jobs into executable instances
// -----------------------------------------------------------------------

package templates

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/jobctl/internal/interfaces"
	"github.com/ternarybob/jobctl/internal/models"
	"github.com/ternarybob/jobctl/internal/services/parameters"
)

const postfixDateLayout = "20060102"

// Service clones templates into jobs and starts jobs, template or not. A
// template is an ordinary job carrying the template label and an externally
// triggerable schedule.
type Service struct {
	scheduler interfaces.Scheduler
	params    *parameters.Coordinator
	logger    arbor.ILogger
}

// NewService creates a new template service
func NewService(scheduler interfaces.Scheduler, params *parameters.Coordinator, logger arbor.ILogger) *Service {
	return &Service{
		scheduler: scheduler,
		params:    params,
		logger:    logger,
	}
}

// ListTemplates returns all jobs carrying the template label.
func (s *Service) ListTemplates(ctx context.Context) ([]*models.ScheduledJobInfo, error) {
	jobs, err := s.scheduler.GetScheduledJobs(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list jobs: %w", err)
	}

	var templates []*models.ScheduledJobInfo
	for _, job := range jobs {
		if job.IsTemplate() {
			templates = append(templates, job)
		}
	}
	return templates, nil
}

// GetTemplate returns a template by ID, failing when the job does not exist
// or does not carry the template label.
func (s *Service) GetTemplate(ctx context.Context, templateID uuid.UUID) (*models.ScheduledJobInfo, error) {
	job, err := s.scheduler.GetScheduledJobByID(ctx, templateID)
	if err != nil {
		return nil, fmt.Errorf("failed to load template %s: %w", templateID, err)
	}
	if job == nil || !job.IsTemplate() {
		return nil, fmt.Errorf("template '%s': %w", templateID, models.ErrTemplateNotFound)
	}
	return job, nil
}

// CloneTemplate clones a template into a new template: an independent copy
// with a new name that keeps the template label. No parameter overrides apply.
func (s *Service) CloneTemplate(ctx context.Context, templateID uuid.UUID, postfix string) (uuid.UUID, error) {
	if _, err := s.GetTemplate(ctx, templateID); err != nil {
		return uuid.Nil, err
	}
	return s.clone(ctx, templateID, postfix, nil, []string{models.TemplateLabel})
}

// ExecuteTemplate clones a template into an executable job (without the
// template label), applies parameter overrides, and starts it immediately.
func (s *Service) ExecuteTemplate(ctx context.Context, templateID uuid.UUID, postfix string, overrides map[string]interface{}) (uuid.UUID, error) {
	if _, err := s.GetTemplate(ctx, templateID); err != nil {
		return uuid.Nil, err
	}

	newJobID, err := s.clone(ctx, templateID, postfix, overrides, nil)
	if err != nil {
		return uuid.Nil, err
	}

	if err := s.scheduler.ExecuteJobNow(ctx, newJobID, overrides); err != nil {
		return uuid.Nil, fmt.Errorf("failed to start cloned job %s: %w", newJobID, err)
	}

	s.logger.Info().
		Str("template_id", templateID.String()).
		Str("job_id", newJobID.String()).
		Msg("Started cloned job from template")

	return newJobID, nil
}

// StartJob starts a job. Templates are cloned (without the template label)
// and the clone is started; ordinary jobs are started directly. Both paths
// end with the job running; no other states are introduced here.
func (s *Service) StartJob(ctx context.Context, jobID uuid.UUID, postfix string, overrides map[string]interface{}) (uuid.UUID, error) {
	job, err := s.scheduler.GetScheduledJobByID(ctx, jobID)
	if err != nil {
		return uuid.Nil, fmt.Errorf("failed to load job %s: %w", jobID, err)
	}
	if job == nil {
		return uuid.Nil, fmt.Errorf("job '%s': %w", jobID, models.ErrJobNotFound)
	}

	if job.IsTemplate() {
		s.logger.Debug().Str("job_id", jobID.String()).Msg("Job is a template, cloning before start")

		newJobID, err := s.clone(ctx, jobID, postfix, overrides, nil)
		if err != nil {
			return uuid.Nil, err
		}
		if err := s.scheduler.ExecuteJobNow(ctx, newJobID, overrides); err != nil {
			return uuid.Nil, fmt.Errorf("failed to start cloned job %s: %w", newJobID, err)
		}
		return newJobID, nil
	}

	if err := s.scheduler.ExecuteJobNow(ctx, jobID, overrides); err != nil {
		return uuid.Nil, fmt.Errorf("failed to start job %s: %w", jobID, err)
	}
	return jobID, nil
}

// clone copies a source job into a new externally-triggerable job. The new
// name is sourceName + "-" + postfix; name collisions are a caller concern.
// Parameters start from the source's resolved values with caller overrides
// applied key by key (shallow replace). External definitions go through the
// same two-phase protocol as create.
func (s *Service) clone(ctx context.Context, sourceID uuid.UUID, postfix string, overrides map[string]interface{}, labels []string) (uuid.UUID, error) {
	source, err := s.scheduler.GetScheduledJobByID(ctx, sourceID)
	if err != nil {
		return uuid.Nil, fmt.Errorf("failed to load source job %s: %w", sourceID, err)
	}
	if source == nil {
		return uuid.Nil, fmt.Errorf("job '%s': %w", sourceID, models.ErrJobNotFound)
	}

	newName := generateJobName(source.JobName, postfix)
	def := source.Definition

	merged := s.params.Resolve(ctx, source)
	for k, v := range overrides {
		merged[k] = v
	}
	if len(overrides) > 0 {
		s.logger.Debug().Int("overrides", len(overrides)).Msg("Applied parameter overrides to clone")
	}

	var newJobID uuid.UUID

	if def != nil && def.UsesExternalParameters() {
		// Two-phase: schedule empty, store payload keyed by the new ID, then
		// attach the reference.
		emptyParams, err := s.params.Prepare(def, def.JobType, merged)
		if err != nil {
			return uuid.Nil, err
		}

		newJobID, err = s.scheduler.ScheduleJob(ctx, interfaces.ScheduleRequest{
			Definition:            def,
			JobName:               newName,
			Parameters:            emptyParams,
			ExternallyTriggerable: true,
			ScheduledAt:           models.ExternalTriggerDate,
			Labels:                labels,
		})
		if err != nil {
			return uuid.Nil, fmt.Errorf("failed to schedule clone: %w", err)
		}

		if err := s.params.StoreForJob(ctx, newJobID, def, def.JobType, merged); err != nil {
			return uuid.Nil, err
		}

		reference := s.params.CreateReference(newJobID, def)
		if err := s.scheduler.UpdateJobParameters(ctx, newJobID, reference); err != nil {
			return uuid.Nil, fmt.Errorf("failed to attach parameter reference to clone %s: %w", newJobID, err)
		}
	} else {
		newJobID, err = s.scheduler.ScheduleJob(ctx, interfaces.ScheduleRequest{
			Definition:            def,
			JobName:               newName,
			Parameters:            merged,
			ExternallyTriggerable: true,
			ScheduledAt:           models.ExternalTriggerDate,
			Labels:                labels,
		})
		if err != nil {
			return uuid.Nil, fmt.Errorf("failed to schedule clone: %w", err)
		}
	}

	s.logger.Info().
		Str("source_id", sourceID.String()).
		Str("job_id", newJobID.String()).
		Str("job_name", newName).
		Msg("Cloned job")

	return newJobID, nil
}

// generateJobName appends the postfix to the source name, defaulting to the
// current date in yyyyMMdd form when the postfix is blank.
func generateJobName(baseName, postfix string) string {
	if postfix == "" {
		postfix = time.Now().Format(postfixDateLayout)
	}
	return baseName + "-" + postfix
}
