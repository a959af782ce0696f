package scheduler

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/jobctl/internal/common"
	"github.com/ternarybob/jobctl/internal/interfaces"
	"github.com/ternarybob/jobctl/internal/models"
	"github.com/ternarybob/jobctl/internal/services/definitions"
	badgerstorage "github.com/ternarybob/jobctl/internal/storage/badger"
)

func newTestScheduler(t *testing.T, defs ...*models.JobDefinition) (*BadgerScheduler, *badgerstorage.BadgerDB) {
	t.Helper()

	logger := arbor.NewLogger()
	db, err := badgerstorage.NewBadgerDB(logger, &common.BadgerConfig{
		Path: filepath.Join(t.TempDir(), "db"),
	})
	if err != nil {
		t.Fatalf("Failed to open badger database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	registry, err := definitions.NewRegistry(defs)
	require.NoError(t, err)

	return NewBadgerScheduler(db, registry, logger), db
}

func simpleDefinition() *models.JobDefinition {
	return &models.JobDefinition{
		JobType: "report-export",
		Kind:    models.JobKindSimple,
		Handler: "reports.Exporter",
	}
}

func batchDefinition() *models.JobDefinition {
	return &models.JobDefinition{
		JobType: "bulk-import",
		Kind:    models.JobKindBatch,
		Handler: "imports.BulkImporter",
	}
}

func scheduleRequest(def *models.JobDefinition, name string) interfaces.ScheduleRequest {
	return interfaces.ScheduleRequest{
		Definition:  def,
		JobName:     name,
		Parameters:  map[string]interface{}{"region": "EU"},
		ScheduledAt: time.Now().Add(time.Hour),
	}
}

func TestScheduleAndGetJob(t *testing.T) {
	def := simpleDefinition()
	sched, _ := newTestScheduler(t, def)
	ctx := context.Background()

	jobID, err := sched.ScheduleJob(ctx, scheduleRequest(def, "nightly-report"))
	require.NoError(t, err)
	require.NotEqual(t, uuid.Nil, jobID)

	job, err := sched.GetScheduledJobByID(ctx, jobID)
	require.NoError(t, err)
	require.NotNil(t, job)
	assert.Equal(t, "nightly-report", job.JobName)
	assert.Equal(t, "report-export", job.Definition.JobType)
	assert.Equal(t, "EU", job.Parameters["region"])

	jobs, err := sched.GetScheduledJobs(ctx)
	require.NoError(t, err)
	require.Len(t, jobs, 1)
	assert.Equal(t, jobID, jobs[0].JobID)
}

func TestGetScheduledJobByIDUnknown(t *testing.T) {
	sched, _ := newTestScheduler(t)

	job, err := sched.GetScheduledJobByID(context.Background(), uuid.New())
	require.NoError(t, err)
	assert.Nil(t, job)
}

func TestKindDefaults(t *testing.T) {
	tests := []struct {
		name        string
		def         *models.JobDefinition
		wantQueue   string
		wantRetries int
	}{
		{
			name:        "simple defaults",
			def:         simpleDefinition(),
			wantQueue:   "default",
			wantRetries: 3,
		},
		{
			name:        "batch defaults",
			def:         batchDefinition(),
			wantQueue:   "batch",
			wantRetries: 0,
		},
		{
			name: "definition overrides win",
			def: &models.JobDefinition{
				JobType:  "custom-export",
				Kind:     models.JobKindSimple,
				Handler:  "reports.Exporter",
				Settings: models.JobSettings{Queue: "priority", Retries: 7},
			},
			wantQueue:   "priority",
			wantRetries: 7,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sched, db := newTestScheduler(t, tt.def)

			jobID, err := sched.ScheduleJob(context.Background(), scheduleRequest(tt.def, "job"))
			require.NoError(t, err)

			var record JobRecord
			require.NoError(t, db.Store().Get(jobID, &record))
			assert.Equal(t, tt.wantQueue, record.Queue)
			assert.Equal(t, tt.wantRetries, record.Retries)
		})
	}
}

func TestUpdateJobPreservesLifecycleFields(t *testing.T) {
	def := simpleDefinition()
	sched, db := newTestScheduler(t, def)
	ctx := context.Background()

	jobID, err := sched.ScheduleJob(ctx, scheduleRequest(def, "nightly-report"))
	require.NoError(t, err)

	var before JobRecord
	require.NoError(t, db.Store().Get(jobID, &before))

	req := scheduleRequest(def, "nightly-report-v2")
	req.Parameters = map[string]interface{}{"region": "US"}
	require.NoError(t, sched.UpdateJob(ctx, jobID, req))

	var after JobRecord
	require.NoError(t, db.Store().Get(jobID, &after))
	assert.Equal(t, "nightly-report-v2", after.Name)
	assert.Equal(t, "US", after.Parameters["region"])
	assert.Equal(t, before.State, after.State)
	assert.WithinDuration(t, before.CreatedAt, after.CreatedAt, time.Millisecond)
}

func TestUpdateJobUnknown(t *testing.T) {
	def := simpleDefinition()
	sched, _ := newTestScheduler(t, def)

	err := sched.UpdateJob(context.Background(), uuid.New(), scheduleRequest(def, "ghost"))
	require.Error(t, err)
	assert.ErrorIs(t, err, models.ErrJobNotFound)
}

func TestUpdateJobParametersRetrySafe(t *testing.T) {
	def := simpleDefinition()
	sched, _ := newTestScheduler(t, def)
	ctx := context.Background()

	jobID, err := sched.ScheduleJob(ctx, scheduleRequest(def, "nightly-report"))
	require.NoError(t, err)

	reference := map[string]interface{}{models.DefaultParameterSetField: jobID.String()}
	require.NoError(t, sched.UpdateJobParameters(ctx, jobID, reference))
	// A retry of the same write must land in the same state.
	require.NoError(t, sched.UpdateJobParameters(ctx, jobID, reference))

	job, err := sched.GetScheduledJobByID(ctx, jobID)
	require.NoError(t, err)
	require.NotNil(t, job)
	assert.Equal(t, reference, job.Parameters)
}

func TestDeleteJobRetainsExecutionRecord(t *testing.T) {
	def := simpleDefinition()
	sched, _ := newTestScheduler(t, def)
	ctx := context.Background()

	jobID, err := sched.ScheduleJob(ctx, scheduleRequest(def, "nightly-report"))
	require.NoError(t, err)
	require.NoError(t, sched.DeleteScheduledJob(ctx, jobID))

	// Scheduling reads no longer see the job.
	job, err := sched.GetScheduledJobByID(ctx, jobID)
	require.NoError(t, err)
	assert.Nil(t, job)

	jobs, err := sched.GetScheduledJobs(ctx)
	require.NoError(t, err)
	assert.Empty(t, jobs)

	// Execution reads still resolve it in DELETED state.
	execution, err := sched.GetJobExecutionByID(ctx, jobID)
	require.NoError(t, err)
	require.NotNil(t, execution)
	assert.Equal(t, models.JobStatusDeleted, execution.Status)

	// A second delete reports the job as gone.
	err = sched.DeleteScheduledJob(ctx, jobID)
	assert.ErrorIs(t, err, models.ErrJobNotFound)
}

func TestDeleteRunsParameterCleanupFilter(t *testing.T) {
	def := simpleDefinition()
	def.ExternalParameters = true
	sched, db := newTestScheduler(t, def)
	ctx := context.Background()

	registry, err := definitions.NewRegistry([]*models.JobDefinition{def})
	require.NoError(t, err)

	store := badgerstorage.NewParameterSetStorage(db, arbor.NewLogger())
	sched.RegisterFilter(NewParameterCleanupFilter(store, registry, arbor.NewLogger()))

	jobID, err := sched.ScheduleJob(ctx, interfaces.ScheduleRequest{
		Definition:  def,
		JobName:     "nightly-report",
		Parameters:  map[string]interface{}{},
		ScheduledAt: models.ExternalTriggerDate,
	})
	require.NoError(t, err)

	set := models.NewParameterSet(jobID, def.JobType, map[string]interface{}{"region": "EU"})
	require.NoError(t, store.Store(ctx, set))
	require.NoError(t, sched.UpdateJobParameters(ctx, jobID, map[string]interface{}{
		models.DefaultParameterSetField: jobID.String(),
	}))

	require.NoError(t, sched.DeleteScheduledJob(ctx, jobID))

	loaded, err := store.FindByID(ctx, jobID)
	require.NoError(t, err)
	assert.Nil(t, loaded, "parameter set should be removed on delete")
}

func TestExecuteJobNow(t *testing.T) {
	def := simpleDefinition()
	sched, _ := newTestScheduler(t, def)
	ctx := context.Background()

	jobID, err := sched.ScheduleJob(ctx, scheduleRequest(def, "nightly-report"))
	require.NoError(t, err)

	require.NoError(t, sched.ExecuteJobNow(ctx, jobID, map[string]interface{}{"trigger": "manual"}))

	execution, err := sched.GetJobExecutionByID(ctx, jobID)
	require.NoError(t, err)
	require.NotNil(t, execution)
	assert.Equal(t, models.JobStatusProcessing, execution.Status)
	assert.NotNil(t, execution.StartedAt)
	assert.Equal(t, "manual", execution.Metadata["trigger"])

	// Finished jobs cannot be triggered again.
	require.NoError(t, sched.SetJobState(ctx, jobID, models.JobStatusSucceeded))
	err = sched.ExecuteJobNow(ctx, jobID, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "already finished")
}

func TestSetJobStateStampsFinishedAt(t *testing.T) {
	def := simpleDefinition()
	sched, _ := newTestScheduler(t, def)
	ctx := context.Background()

	jobID, err := sched.ScheduleJob(ctx, scheduleRequest(def, "nightly-report"))
	require.NoError(t, err)

	require.Error(t, sched.SetJobState(ctx, jobID, models.JobStatus("bogus")))

	require.NoError(t, sched.SetJobState(ctx, jobID, models.JobStatusFailed))
	execution, err := sched.GetJobExecutionByID(ctx, jobID)
	require.NoError(t, err)
	assert.Equal(t, models.JobStatusFailed, execution.Status)
	assert.NotNil(t, execution.FinishedAt)
}

func TestContinuations(t *testing.T) {
	def := simpleDefinition()
	sched, _ := newTestScheduler(t, def)
	ctx := context.Background()

	parentID, err := sched.ScheduleJob(ctx, scheduleRequest(def, "stage-one"))
	require.NoError(t, err)

	contID, err := sched.AddContinuation(ctx, parentID, scheduleRequest(def, "stage-two"))
	require.NoError(t, err)

	continuations, err := sched.GetContinuations(ctx, parentID)
	require.NoError(t, err)
	require.Len(t, continuations, 1)
	assert.Equal(t, contID, continuations[0].JobID)
	assert.Equal(t, "stage-two", continuations[0].JobName)

	// Continuations never surface as root scheduled jobs.
	jobs, err := sched.GetScheduledJobs(ctx)
	require.NoError(t, err)
	require.Len(t, jobs, 1)
	assert.Equal(t, parentID, jobs[0].JobID)
}

func TestBatchChildrenAndStats(t *testing.T) {
	batchDef := batchDefinition()
	childDef := simpleDefinition()
	sched, _ := newTestScheduler(t, batchDef, childDef)
	ctx := context.Background()

	parentID, err := sched.ScheduleJob(ctx, scheduleRequest(batchDef, "bulk-import-jan"))
	require.NoError(t, err)
	require.NoError(t, sched.SetBatchTotal(ctx, parentID, 3))

	var childIDs []uuid.UUID
	for i := 0; i < 3; i++ {
		childID, err := sched.AddBatchChild(ctx, parentID, scheduleRequest(childDef, "import-chunk"))
		require.NoError(t, err)
		childIDs = append(childIDs, childID)
	}

	require.NoError(t, sched.SetJobState(ctx, childIDs[0], models.JobStatusSucceeded))
	require.NoError(t, sched.SetJobState(ctx, childIDs[1], models.JobStatusFailed))

	stats, err := sched.GetChildStats(ctx, parentID)
	require.NoError(t, err)
	assert.Equal(t, int64(3), stats.Total)
	assert.Equal(t, int64(1), stats.Succeeded)
	assert.Equal(t, int64(1), stats.Failed)
	assert.Equal(t, int64(1), stats.Running)

	execution, err := sched.GetJobExecutionByID(ctx, parentID)
	require.NoError(t, err)
	assert.True(t, execution.IsBatch)
	assert.Equal(t, int64(3), execution.BatchTotal)
}

func TestAddBatchChildRejectsSimpleParent(t *testing.T) {
	def := simpleDefinition()
	sched, _ := newTestScheduler(t, def)
	ctx := context.Background()

	parentID, err := sched.ScheduleJob(ctx, scheduleRequest(def, "nightly-report"))
	require.NoError(t, err)

	_, err = sched.AddBatchChild(ctx, parentID, scheduleRequest(def, "child"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not a batch job")
}
