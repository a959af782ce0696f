package interfaces

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/ternarybob/jobctl/internal/models"
)

// ScheduleRequest carries everything the execution engine needs to persist a
// new scheduled job.
type ScheduleRequest struct {
	Definition            *models.JobDefinition
	JobName               string
	Parameters            map[string]interface{}
	ExternallyTriggerable bool
	ScheduledAt           time.Time
	Labels                []string
}

// Scheduler is the port onto the external job-execution engine's scheduling
// surface. All job lifecycle writes go through this interface.
type Scheduler interface {
	// ScheduleJob persists a new job and returns its engine-assigned ID.
	ScheduleJob(ctx context.Context, req ScheduleRequest) (uuid.UUID, error)

	// UpdateJob replaces a scheduled job's name, parameters, schedule and labels
	// in place, preserving its ID.
	UpdateJob(ctx context.Context, jobID uuid.UUID, req ScheduleRequest) error

	// UpdateJobParameters replaces only the job's parameter map. Used by the
	// final step of the two-phase create protocol; must be safe to retry.
	UpdateJobParameters(ctx context.Context, jobID uuid.UUID, parameters map[string]interface{}) error

	// DeleteScheduledJob removes a job. The engine owns the DELETED transition.
	DeleteScheduledJob(ctx context.Context, jobID uuid.UUID) error

	// GetScheduledJobs returns all scheduled jobs.
	GetScheduledJobs(ctx context.Context) ([]*models.ScheduledJobInfo, error)

	// GetScheduledJobByID returns a job or nil when unknown.
	GetScheduledJobByID(ctx context.Context, jobID uuid.UUID) (*models.ScheduledJobInfo, error)

	// ExecuteJobNow triggers immediate execution of a scheduled job.
	ExecuteJobNow(ctx context.Context, jobID uuid.UUID, metadata map[string]interface{}) error
}

// JobExecution is the read-only port used by status aggregation.
type JobExecution interface {
	// GetJobExecutionByID returns execution state or nil when unknown.
	GetJobExecutionByID(ctx context.Context, jobID uuid.UUID) (*models.JobExecutionInfo, error)

	// GetContinuations returns the jobs scheduled to run after the given job.
	GetContinuations(ctx context.Context, jobID uuid.UUID) ([]*models.JobExecutionInfo, error)

	// GetChildStats aggregates the direct children of a batch job by state.
	GetChildStats(ctx context.Context, parentID uuid.UUID) (*models.JobChildStats, error)
}
