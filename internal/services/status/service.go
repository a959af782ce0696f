// -----------------------------------------------------------------------
// Status Service - chain status evaluation and batch progress reporting
// -----------------------------------------------------------------------

package status

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/jobctl/internal/interfaces"
	"github.com/ternarybob/jobctl/internal/models"
	"golang.org/x/time/rate"
)

// Service answers status queries over the execution engine's read surface.
// Engine reads are throttled by a shared limiter so that chain fan-out over
// large continuation trees cannot saturate the engine's storage.
type Service struct {
	execution       interfaces.JobExecution
	limiter         *rate.Limiter
	progressTimeout time.Duration
	logger          arbor.ILogger
}

// NewService creates a new status service. readRate of 0 disables throttling.
func NewService(execution interfaces.JobExecution, readRate float64, readBurst int, progressTimeout time.Duration, logger arbor.ILogger) *Service {
	limit := rate.Inf
	if readRate > 0 {
		limit = rate.Limit(readRate)
	}
	if readBurst < 1 {
		readBurst = 1
	}
	if progressTimeout <= 0 {
		progressTimeout = 5 * time.Second
	}
	return &Service{
		execution:       execution,
		limiter:         rate.NewLimiter(limit, readBurst),
		progressTimeout: progressTimeout,
		logger:          logger,
	}
}

// GetChainStatus evaluates the overall status of a job and its continuation
// tree. The result reflects the leaves of the tree: a chain is whatever its
// last jobs are doing.
//
//   - no continuations: the job's own status, complete when terminal
//   - any non-terminal leaf: PROCESSING, not complete
//   - all leaves terminal: FAILED when any leaf failed, otherwise SUCCEEDED
func (s *Service) GetChainStatus(ctx context.Context, jobID uuid.UUID) (*models.ChainStatus, error) {
	parent, err := s.getExecution(ctx, jobID)
	if err != nil {
		return nil, err
	}
	if parent == nil {
		return nil, fmt.Errorf("job '%s': %w", jobID, models.ErrJobNotFound)
	}

	leaves, err := s.collectLeaves(ctx, parent)
	if err != nil {
		// Continuation reads failing must not mask a finished parent. Report
		// the parent's own status as the chain result.
		s.logger.Warn().
			Str("job_id", jobID.String()).
			Err(err).
			Msg("Continuation lookup failed, reporting parent status")
		return &models.ChainStatus{Complete: true, Status: parent.Status}, nil
	}

	if len(leaves) == 1 && leaves[0].JobID == parent.JobID {
		return &models.ChainStatus{
			Complete: parent.Status.IsTerminal(),
			Status:   parent.Status,
		}, nil
	}

	anyFailed := false
	for _, leaf := range leaves {
		if !leaf.Status.IsTerminal() {
			return &models.ChainStatus{Complete: false, Status: models.JobStatusProcessing}, nil
		}
		if leaf.Status == models.JobStatusFailed {
			anyFailed = true
		}
	}

	final := models.JobStatusSucceeded
	if anyFailed {
		final = models.JobStatusFailed
	}
	return &models.ChainStatus{Complete: true, Status: final}, nil
}

// GetBatchProgress reports progress for a batch job. The whole query is time
// boxed; hitting the box returns ErrProgressTimeout rather than a partial
// result.
func (s *Service) GetBatchProgress(ctx context.Context, jobID uuid.UUID) (*models.BatchProgress, error) {
	ctx, cancel := context.WithTimeout(ctx, s.progressTimeout)
	defer cancel()

	execution, err := s.getExecution(ctx, jobID)
	if err != nil {
		return nil, wrapTimeout(err)
	}
	if execution == nil {
		return nil, fmt.Errorf("job '%s': %w", jobID, models.ErrJobNotFound)
	}
	if !execution.IsBatch {
		return nil, fmt.Errorf("job '%s' (%s) is not a batch job", jobID, execution.JobType)
	}

	if err := s.limiter.Wait(ctx); err != nil {
		return nil, wrapTimeout(err)
	}
	stats, err := s.execution.GetChildStats(ctx, jobID)
	if err != nil {
		return nil, wrapTimeout(fmt.Errorf("failed to read child stats for %s: %w", jobID, err))
	}

	// Total comes from the batch's own metadata, not a child count: children
	// may not all be enqueued yet.
	progress, err := models.NewBatchProgress(execution.BatchTotal, stats.Succeeded, stats.Failed)
	if err != nil {
		return nil, fmt.Errorf("inconsistent batch counters for %s: %w", jobID, err)
	}
	return progress, nil
}

// getExecution is a throttled GetJobExecutionByID.
func (s *Service) getExecution(ctx context.Context, jobID uuid.UUID) (*models.JobExecutionInfo, error) {
	if err := s.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	execution, err := s.execution.GetJobExecutionByID(ctx, jobID)
	if err != nil {
		return nil, fmt.Errorf("failed to read execution state for %s: %w", jobID, err)
	}
	return execution, nil
}

// collectLeaves walks the continuation tree below root and returns its leaf
// executions. A root with no continuations is its own single leaf.
func (s *Service) collectLeaves(ctx context.Context, root *models.JobExecutionInfo) ([]*models.JobExecutionInfo, error) {
	if err := s.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	continuations, err := s.execution.GetContinuations(ctx, root.JobID)
	if err != nil {
		return nil, err
	}
	if len(continuations) == 0 {
		return []*models.JobExecutionInfo{root}, nil
	}

	var leaves []*models.JobExecutionInfo
	for _, child := range continuations {
		childLeaves, err := s.collectLeaves(ctx, child)
		if err != nil {
			return nil, err
		}
		leaves = append(leaves, childLeaves...)
	}
	return leaves, nil
}

func wrapTimeout(err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return models.ErrProgressTimeout
	}
	return err
}
