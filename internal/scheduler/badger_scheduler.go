// -----------------------------------------------------------------------
// Badger Scheduler - embedded execution engine adapter
// -----------------------------------------------------------------------

package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/jobctl/internal/interfaces"
	"github.com/ternarybob/jobctl/internal/models"
	badgerstorage "github.com/ternarybob/jobctl/internal/storage/badger"
	"github.com/timshannon/badgerhold/v4"
)

// BadgerScheduler is an embedded execution engine backed by BadgerDB. It
// implements both the scheduling write port and the execution read port.
// Deleted jobs keep their records in DELETED state so that status queries
// keep working after deletion; they disappear from scheduling reads.
type BadgerScheduler struct {
	db          *badgerstorage.BadgerDB
	definitions interfaces.DefinitionLookup
	logger      arbor.ILogger

	mu      sync.Mutex
	filters []StateFilter
}

// NewBadgerScheduler creates a scheduler over the given database.
func NewBadgerScheduler(db *badgerstorage.BadgerDB, definitions interfaces.DefinitionLookup, logger arbor.ILogger) *BadgerScheduler {
	return &BadgerScheduler{
		db:          db,
		definitions: definitions,
		logger:      logger,
	}
}

// RegisterFilter adds a state filter. Filters run in registration order on
// every state transition.
func (s *BadgerScheduler) RegisterFilter(filter StateFilter) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.filters = append(s.filters, filter)
}

// ScheduleJob persists a new job in ENQUEUED state and returns its ID.
func (s *BadgerScheduler) ScheduleJob(ctx context.Context, req interfaces.ScheduleRequest) (uuid.UUID, error) {
	record := s.buildRecord(uuid.New(), req)

	if err := s.db.Store().Insert(record.ID, record); err != nil {
		return uuid.Nil, fmt.Errorf("failed to schedule job '%s': %w", req.JobName, err)
	}

	s.logger.Info().
		Str("job_id", record.ID.String()).
		Str("job_name", record.Name).
		Str("job_type", record.JobType).
		Str("queue", record.Queue).
		Msg("Scheduled job")

	return record.ID, nil
}

// UpdateJob replaces a job's name, parameters, schedule and labels in place.
func (s *BadgerScheduler) UpdateJob(ctx context.Context, jobID uuid.UUID, req interfaces.ScheduleRequest) error {
	record, err := s.getRecord(jobID)
	if err != nil {
		return err
	}
	if record == nil || record.State == models.JobStatusDeleted {
		return fmt.Errorf("job '%s': %w", jobID, models.ErrJobNotFound)
	}

	updated := s.buildRecord(jobID, req)
	updated.CreatedAt = record.CreatedAt
	updated.State = record.State
	updated.ParentID = record.ParentID
	updated.ContinuationOf = record.ContinuationOf
	updated.BatchTotal = record.BatchTotal
	updated.StartedAt = record.StartedAt
	updated.FinishedAt = record.FinishedAt

	if err := s.db.Store().Update(jobID, updated); err != nil {
		return fmt.Errorf("failed to update job %s: %w", jobID, err)
	}

	s.logger.Info().Str("job_id", jobID.String()).Str("job_name", updated.Name).Msg("Updated job")
	return nil
}

// UpdateJobParameters replaces only the parameter map. Safe to retry: the
// write is a plain replacement with no read-modify-write of the parameters.
func (s *BadgerScheduler) UpdateJobParameters(ctx context.Context, jobID uuid.UUID, parameters map[string]interface{}) error {
	record, err := s.getRecord(jobID)
	if err != nil {
		return err
	}
	if record == nil || record.State == models.JobStatusDeleted {
		return fmt.Errorf("job '%s': %w", jobID, models.ErrJobNotFound)
	}

	record.Parameters = copyMap(parameters)
	if record.Parameters == nil {
		record.Parameters = make(map[string]interface{})
	}
	record.UpdatedAt = time.Now()

	if err := s.db.Store().Update(jobID, record); err != nil {
		return fmt.Errorf("failed to update parameters for job %s: %w", jobID, err)
	}
	return nil
}

// DeleteScheduledJob transitions a job to DELETED. The record is retained so
// execution reads still resolve; state filters run on the transition.
func (s *BadgerScheduler) DeleteScheduledJob(ctx context.Context, jobID uuid.UUID) error {
	record, err := s.getRecord(jobID)
	if err != nil {
		return err
	}
	if record == nil || record.State == models.JobStatusDeleted {
		return fmt.Errorf("job '%s': %w", jobID, models.ErrJobNotFound)
	}

	if err := s.transition(ctx, record, models.JobStatusDeleted); err != nil {
		return err
	}

	s.logger.Info().Str("job_id", jobID.String()).Str("job_name", record.Name).Msg("Deleted job")
	return nil
}

// GetScheduledJobs returns all non-deleted root jobs.
func (s *BadgerScheduler) GetScheduledJobs(ctx context.Context) ([]*models.ScheduledJobInfo, error) {
	var records []JobRecord
	query := badgerhold.Where("State").Ne(models.JobStatusDeleted).SortBy("CreatedAt")
	if err := s.db.Store().Find(&records, query); err != nil {
		return nil, fmt.Errorf("failed to list jobs: %w", err)
	}

	jobs := make([]*models.ScheduledJobInfo, 0, len(records))
	for i := range records {
		record := &records[i]
		if record.ParentID != uuid.Nil || record.ContinuationOf != uuid.Nil {
			continue
		}
		jobs = append(jobs, record.ToScheduledJobInfo(s.definitions.FindByType(record.JobType)))
	}
	return jobs, nil
}

// GetScheduledJobByID returns a job or nil when unknown or deleted.
func (s *BadgerScheduler) GetScheduledJobByID(ctx context.Context, jobID uuid.UUID) (*models.ScheduledJobInfo, error) {
	record, err := s.getRecord(jobID)
	if err != nil {
		return nil, err
	}
	if record == nil || record.State == models.JobStatusDeleted {
		return nil, nil
	}
	return record.ToScheduledJobInfo(s.definitions.FindByType(record.JobType)), nil
}

// ExecuteJobNow moves a job into PROCESSING immediately, recording any
// trigger metadata on the record.
func (s *BadgerScheduler) ExecuteJobNow(ctx context.Context, jobID uuid.UUID, metadata map[string]interface{}) error {
	record, err := s.getRecord(jobID)
	if err != nil {
		return err
	}
	if record == nil || record.State == models.JobStatusDeleted {
		return fmt.Errorf("job '%s': %w", jobID, models.ErrJobNotFound)
	}
	if record.State.IsTerminal() {
		return fmt.Errorf("job '%s' already finished (%s)", jobID, record.State)
	}

	if len(metadata) > 0 {
		if record.Metadata == nil {
			record.Metadata = make(map[string]interface{})
		}
		for k, v := range metadata {
			record.Metadata[k] = v
		}
	}
	now := time.Now()
	record.StartedAt = &now

	if err := s.transition(ctx, record, models.JobStatusProcessing); err != nil {
		return err
	}

	s.logger.Info().Str("job_id", jobID.String()).Str("job_name", record.Name).Msg("Triggered job")
	return nil
}

// -----------------------------------------------------------------------
// Execution read port
// -----------------------------------------------------------------------

// GetJobExecutionByID returns execution state or nil when unknown. Deleted
// jobs resolve here; deletion is a state, not an absence.
func (s *BadgerScheduler) GetJobExecutionByID(ctx context.Context, jobID uuid.UUID) (*models.JobExecutionInfo, error) {
	record, err := s.getRecord(jobID)
	if err != nil {
		return nil, err
	}
	if record == nil {
		return nil, nil
	}
	return record.ToExecutionInfo(), nil
}

// GetContinuations returns the jobs scheduled to run after the given job.
func (s *BadgerScheduler) GetContinuations(ctx context.Context, jobID uuid.UUID) ([]*models.JobExecutionInfo, error) {
	var records []JobRecord
	if err := s.db.Store().Find(&records, badgerhold.Where("ContinuationOf").Eq(jobID).SortBy("CreatedAt")); err != nil {
		return nil, fmt.Errorf("failed to list continuations of %s: %w", jobID, err)
	}

	out := make([]*models.JobExecutionInfo, len(records))
	for i := range records {
		out[i] = records[i].ToExecutionInfo()
	}
	return out, nil
}

// GetChildStats aggregates the direct children of a batch job by state.
func (s *BadgerScheduler) GetChildStats(ctx context.Context, parentID uuid.UUID) (*models.JobChildStats, error) {
	var records []JobRecord
	if err := s.db.Store().Find(&records, badgerhold.Where("ParentID").Eq(parentID)); err != nil {
		return nil, fmt.Errorf("failed to list children of %s: %w", parentID, err)
	}

	stats := &models.JobChildStats{}
	for i := range records {
		stats.Total++
		switch records[i].State {
		case models.JobStatusSucceeded:
			stats.Succeeded++
		case models.JobStatusFailed:
			stats.Failed++
		default:
			stats.Running++
		}
	}
	return stats, nil
}

// -----------------------------------------------------------------------
// Engine-side helpers for workers and tests
// -----------------------------------------------------------------------

// AddContinuation schedules a job that runs after the given job finishes.
func (s *BadgerScheduler) AddContinuation(ctx context.Context, afterID uuid.UUID, req interfaces.ScheduleRequest) (uuid.UUID, error) {
	parent, err := s.getRecord(afterID)
	if err != nil {
		return uuid.Nil, err
	}
	if parent == nil {
		return uuid.Nil, fmt.Errorf("job '%s': %w", afterID, models.ErrJobNotFound)
	}

	record := s.buildRecord(uuid.New(), req)
	record.ContinuationOf = afterID

	if err := s.db.Store().Insert(record.ID, record); err != nil {
		return uuid.Nil, fmt.Errorf("failed to add continuation to %s: %w", afterID, err)
	}
	return record.ID, nil
}

// AddBatchChild schedules a child under a batch parent.
func (s *BadgerScheduler) AddBatchChild(ctx context.Context, parentID uuid.UUID, req interfaces.ScheduleRequest) (uuid.UUID, error) {
	parent, err := s.getRecord(parentID)
	if err != nil {
		return uuid.Nil, err
	}
	if parent == nil {
		return uuid.Nil, fmt.Errorf("job '%s': %w", parentID, models.ErrJobNotFound)
	}
	if parent.Kind != models.JobKindBatch {
		return uuid.Nil, fmt.Errorf("job '%s' (%s) is not a batch job", parentID, parent.JobType)
	}

	record := s.buildRecord(uuid.New(), req)
	record.ParentID = parentID

	if err := s.db.Store().Insert(record.ID, record); err != nil {
		return uuid.Nil, fmt.Errorf("failed to add batch child to %s: %w", parentID, err)
	}
	return record.ID, nil
}

// SetBatchTotal records the declared child count on a batch parent.
func (s *BadgerScheduler) SetBatchTotal(ctx context.Context, jobID uuid.UUID, total int64) error {
	record, err := s.getRecord(jobID)
	if err != nil {
		return err
	}
	if record == nil {
		return fmt.Errorf("job '%s': %w", jobID, models.ErrJobNotFound)
	}

	record.BatchTotal = total
	record.UpdatedAt = time.Now()
	if err := s.db.Store().Update(jobID, record); err != nil {
		return fmt.Errorf("failed to set batch total for %s: %w", jobID, err)
	}
	return nil
}

// SetJobState forces a job into the given state, running state filters. Used
// by workers reporting completion.
func (s *BadgerScheduler) SetJobState(ctx context.Context, jobID uuid.UUID, state models.JobStatus) error {
	if !models.IsValidJobStatus(state) {
		return fmt.Errorf("invalid job state '%s'", state)
	}

	record, err := s.getRecord(jobID)
	if err != nil {
		return err
	}
	if record == nil {
		return fmt.Errorf("job '%s': %w", jobID, models.ErrJobNotFound)
	}

	if state.IsTerminal() && record.FinishedAt == nil {
		now := time.Now()
		record.FinishedAt = &now
	}
	return s.transition(ctx, record, state)
}

// -----------------------------------------------------------------------
// Internals
// -----------------------------------------------------------------------

func (s *BadgerScheduler) buildRecord(id uuid.UUID, req interfaces.ScheduleRequest) *JobRecord {
	kind := models.JobKindSimple
	jobType := ""
	queue := ""
	retries := -1

	if req.Definition != nil {
		jobType = req.Definition.JobType
		if req.Definition.Kind != "" {
			kind = req.Definition.Kind
		}
		queue = req.Definition.Settings.Queue
		retries = req.Definition.Settings.Retries
	}

	defaults := defaultsForKind(kind)
	if queue == "" {
		queue = defaults.queue
	}
	if retries < 0 {
		retries = defaults.retries
	}

	params := copyMap(req.Parameters)
	if params == nil {
		params = make(map[string]interface{})
	}

	now := time.Now()
	return &JobRecord{
		ID:                    id,
		Name:                  req.JobName,
		JobType:               jobType,
		Kind:                  kind,
		State:                 models.JobStatusEnqueued,
		Parameters:            params,
		ScheduledAt:           req.ScheduledAt,
		ExternallyTriggerable: req.ExternallyTriggerable,
		Labels:                append([]string(nil), req.Labels...),
		Queue:                 queue,
		Retries:               retries,
		CreatedAt:             now,
		UpdatedAt:             now,
	}
}

func (s *BadgerScheduler) getRecord(jobID uuid.UUID) (*JobRecord, error) {
	var record JobRecord
	err := s.db.Store().Get(jobID, &record)
	if err == badgerhold.ErrNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load job %s: %w", jobID, err)
	}
	return &record, nil
}

// transition persists the state change, then runs filters with the old and
// new states. Filter failures never roll the transition back.
func (s *BadgerScheduler) transition(ctx context.Context, record *JobRecord, to models.JobStatus) error {
	from := record.State
	record.State = to
	record.UpdatedAt = time.Now()

	if err := s.db.Store().Update(record.ID, record); err != nil {
		record.State = from
		return fmt.Errorf("failed to transition job %s to %s: %w", record.ID, to, err)
	}

	s.mu.Lock()
	filters := append([]StateFilter(nil), s.filters...)
	s.mu.Unlock()

	for _, filter := range filters {
		filter.OnStateChange(ctx, record, from, to)
	}
	return nil
}
