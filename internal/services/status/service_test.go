package status

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/jobctl/internal/models"
)

// fakeExecution is an in-memory execution read port.
type fakeExecution struct {
	executions      map[uuid.UUID]*models.JobExecutionInfo
	continuations   map[uuid.UUID][]uuid.UUID
	stats           map[uuid.UUID]*models.JobChildStats
	continuationErr error
	readDelay       time.Duration
}

func newFakeExecution() *fakeExecution {
	return &fakeExecution{
		executions:    make(map[uuid.UUID]*models.JobExecutionInfo),
		continuations: make(map[uuid.UUID][]uuid.UUID),
		stats:         make(map[uuid.UUID]*models.JobChildStats),
	}
}

func (f *fakeExecution) add(status models.JobStatus) uuid.UUID {
	id := uuid.New()
	f.executions[id] = &models.JobExecutionInfo{JobID: id, Status: status}
	return id
}

func (f *fakeExecution) addBatch(status models.JobStatus, total int64) uuid.UUID {
	id := f.add(status)
	f.executions[id].IsBatch = true
	f.executions[id].BatchTotal = total
	return id
}

func (f *fakeExecution) link(parent, child uuid.UUID) {
	f.continuations[parent] = append(f.continuations[parent], child)
}

func (f *fakeExecution) GetJobExecutionByID(ctx context.Context, jobID uuid.UUID) (*models.JobExecutionInfo, error) {
	if f.readDelay > 0 {
		select {
		case <-time.After(f.readDelay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	return f.executions[jobID], nil
}

func (f *fakeExecution) GetContinuations(ctx context.Context, jobID uuid.UUID) ([]*models.JobExecutionInfo, error) {
	if f.continuationErr != nil {
		return nil, f.continuationErr
	}
	var out []*models.JobExecutionInfo
	for _, childID := range f.continuations[jobID] {
		out = append(out, f.executions[childID])
	}
	return out, nil
}

func (f *fakeExecution) GetChildStats(ctx context.Context, parentID uuid.UUID) (*models.JobChildStats, error) {
	if stats, ok := f.stats[parentID]; ok {
		return stats, nil
	}
	return &models.JobChildStats{}, nil
}

func newTestService(exec *fakeExecution) *Service {
	return NewService(exec, 0, 1, time.Second, arbor.NewLogger())
}

func TestGetChainStatus_UnknownJob(t *testing.T) {
	svc := newTestService(newFakeExecution())

	_, err := svc.GetChainStatus(context.Background(), uuid.New())
	require.ErrorIs(t, err, models.ErrJobNotFound)
}

func TestGetChainStatus_NoContinuations(t *testing.T) {
	tests := []struct {
		name         string
		parentStatus models.JobStatus
		wantComplete bool
	}{
		{name: "succeeded parent is complete", parentStatus: models.JobStatusSucceeded, wantComplete: true},
		{name: "failed parent is complete", parentStatus: models.JobStatusFailed, wantComplete: true},
		{name: "processing parent is incomplete", parentStatus: models.JobStatusProcessing, wantComplete: false},
		{name: "enqueued parent is incomplete", parentStatus: models.JobStatusEnqueued, wantComplete: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			exec := newFakeExecution()
			jobID := exec.add(tt.parentStatus)
			svc := newTestService(exec)

			result, err := svc.GetChainStatus(context.Background(), jobID)
			require.NoError(t, err)
			assert.Equal(t, tt.parentStatus, result.Status)
			assert.Equal(t, tt.wantComplete, result.Complete)
		})
	}
}

func TestGetChainStatus_LeafEvaluation(t *testing.T) {
	tests := []struct {
		name         string
		leaves       []models.JobStatus
		wantStatus   models.JobStatus
		wantComplete bool
	}{
		{
			name:         "running leaf keeps chain processing",
			leaves:       []models.JobStatus{models.JobStatusSucceeded, models.JobStatusProcessing},
			wantStatus:   models.JobStatusProcessing,
			wantComplete: false,
		},
		{
			name:         "any failed leaf fails the chain",
			leaves:       []models.JobStatus{models.JobStatusSucceeded, models.JobStatusFailed},
			wantStatus:   models.JobStatusFailed,
			wantComplete: true,
		},
		{
			name:         "all succeeded leaves succeed the chain",
			leaves:       []models.JobStatus{models.JobStatusSucceeded, models.JobStatusSucceeded},
			wantStatus:   models.JobStatusSucceeded,
			wantComplete: true,
		},
		{
			name:         "enqueued leaf keeps chain processing",
			leaves:       []models.JobStatus{models.JobStatusEnqueued},
			wantStatus:   models.JobStatusProcessing,
			wantComplete: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			exec := newFakeExecution()
			parentID := exec.add(models.JobStatusSucceeded)
			for _, leafStatus := range tt.leaves {
				exec.link(parentID, exec.add(leafStatus))
			}
			svc := newTestService(exec)

			result, err := svc.GetChainStatus(context.Background(), parentID)
			require.NoError(t, err)
			assert.Equal(t, tt.wantStatus, result.Status)
			assert.Equal(t, tt.wantComplete, result.Complete)
		})
	}
}

func TestGetChainStatus_OnlyLeavesCount(t *testing.T) {
	// parent -> mid (FAILED) -> leaf (SUCCEEDED): the failed middle node must
	// not fail the chain, only leaves matter.
	exec := newFakeExecution()
	parentID := exec.add(models.JobStatusSucceeded)
	midID := exec.add(models.JobStatusFailed)
	leafID := exec.add(models.JobStatusSucceeded)
	exec.link(parentID, midID)
	exec.link(midID, leafID)
	svc := newTestService(exec)

	result, err := svc.GetChainStatus(context.Background(), parentID)
	require.NoError(t, err)
	assert.Equal(t, models.JobStatusSucceeded, result.Status)
	assert.True(t, result.Complete)
}

func TestGetChainStatus_ContinuationErrorReportsParent(t *testing.T) {
	exec := newFakeExecution()
	parentID := exec.add(models.JobStatusProcessing)
	exec.continuationErr = errors.New("storage read failed")
	svc := newTestService(exec)

	result, err := svc.GetChainStatus(context.Background(), parentID)
	require.NoError(t, err)
	assert.Equal(t, models.JobStatusProcessing, result.Status)
	assert.True(t, result.Complete, "continuation failures report the parent as the final answer")
}

func TestGetBatchProgress(t *testing.T) {
	exec := newFakeExecution()
	jobID := exec.addBatch(models.JobStatusProcessing, 10)
	exec.stats[jobID] = &models.JobChildStats{Total: 6, Succeeded: 4, Failed: 1, Running: 1}
	svc := newTestService(exec)

	progress, err := svc.GetBatchProgress(context.Background(), jobID)
	require.NoError(t, err)

	assert.Equal(t, int64(10), progress.Total, "total comes from batch metadata, not child count")
	assert.Equal(t, int64(4), progress.Succeeded)
	assert.Equal(t, int64(1), progress.Failed)
	assert.Equal(t, int64(5), progress.Pending())
	assert.Equal(t, 50.0, progress.Progress())
}

func TestGetBatchProgress_NotABatchJob(t *testing.T) {
	exec := newFakeExecution()
	jobID := exec.add(models.JobStatusProcessing)
	svc := newTestService(exec)

	_, err := svc.GetBatchProgress(context.Background(), jobID)
	require.Error(t, err)
	assert.NotErrorIs(t, err, models.ErrJobNotFound)
}

func TestGetBatchProgress_UnknownJob(t *testing.T) {
	svc := newTestService(newFakeExecution())

	_, err := svc.GetBatchProgress(context.Background(), uuid.New())
	require.ErrorIs(t, err, models.ErrJobNotFound)
}

func TestGetBatchProgress_Timeout(t *testing.T) {
	exec := newFakeExecution()
	jobID := exec.addBatch(models.JobStatusProcessing, 10)
	exec.readDelay = 200 * time.Millisecond

	svc := NewService(exec, 0, 1, 20*time.Millisecond, arbor.NewLogger())

	_, err := svc.GetBatchProgress(context.Background(), jobID)
	require.ErrorIs(t, err, models.ErrProgressTimeout)
}
