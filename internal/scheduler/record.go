// -----------------------------------------------------------------------
// Job Record - persisted engine-side state for one scheduled job
// -----------------------------------------------------------------------

package scheduler

import (
	"time"

	"github.com/google/uuid"
	"github.com/ternarybob/jobctl/internal/models"
)

// JobRecord is the engine's persisted view of a job. The orchestration layer
// never touches records directly; it sees ScheduledJobInfo and
// JobExecutionInfo projections.
type JobRecord struct {
	ID         uuid.UUID              `badgerhold:"key"`
	Name       string                 `json:"name"`
	JobType    string                 `json:"job_type"`
	Kind       models.JobKind         `json:"kind"`
	State      models.JobStatus       `json:"state"`
	Parameters map[string]interface{} `json:"parameters"`
	Metadata   map[string]interface{} `json:"metadata,omitempty"`

	ScheduledAt           time.Time `json:"scheduled_at"`
	ExternallyTriggerable bool      `json:"externally_triggerable"`
	Labels                []string  `json:"labels,omitempty"`

	// ParentID links a batch child to its batch parent; ContinuationOf links
	// a job to the job it runs after. Both are Nil for root jobs.
	ParentID       uuid.UUID `json:"parent_id,omitempty"`
	ContinuationOf uuid.UUID `json:"continuation_of,omitempty"`

	// BatchTotal is the declared number of children for batch jobs.
	BatchTotal int64 `json:"batch_total,omitempty"`

	Queue   string `json:"queue"`
	Retries int    `json:"retries"`

	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at"`
	StartedAt  *time.Time `json:"started_at,omitempty"`
	FinishedAt *time.Time `json:"finished_at,omitempty"`
}

// kindDefaults carries the per-kind scheduling defaults applied when a
// definition does not override them.
type kindDefaults struct {
	queue   string
	retries int
}

// kindDefaultsTable maps each job kind to its defaults. Adding a kind means
// adding a row here and a constant in models; nothing switches on kind
// elsewhere in this package.
var kindDefaultsTable = map[models.JobKind]kindDefaults{
	models.JobKindSimple: {queue: "default", retries: 3},
	models.JobKindBatch:  {queue: "batch", retries: 0},
}

// defaultsForKind resolves defaults, treating unknown kinds as simple.
func defaultsForKind(kind models.JobKind) kindDefaults {
	if d, ok := kindDefaultsTable[kind]; ok {
		return d
	}
	return kindDefaultsTable[models.JobKindSimple]
}

// ToScheduledJobInfo projects the record onto the scheduling port's view.
func (r *JobRecord) ToScheduledJobInfo(definition *models.JobDefinition) *models.ScheduledJobInfo {
	return models.NewScheduledJobInfo(r.ID, r.Name, definition, r.ScheduledAt,
		copyMap(r.Parameters), r.ExternallyTriggerable, append([]string(nil), r.Labels...))
}

// ToExecutionInfo projects the record onto the execution read port's view.
func (r *JobRecord) ToExecutionInfo() *models.JobExecutionInfo {
	return &models.JobExecutionInfo{
		JobID:      r.ID,
		JobName:    r.Name,
		JobType:    r.JobType,
		Status:     r.State,
		StartedAt:  r.StartedAt,
		FinishedAt: r.FinishedAt,
		Parameters: copyMap(r.Parameters),
		Metadata:   copyMap(r.Metadata),
		BatchTotal: r.BatchTotal,
		IsBatch:    r.Kind == models.JobKindBatch,
	}
}

func copyMap(m map[string]interface{}) map[string]interface{} {
	if m == nil {
		return nil
	}
	out := make(map[string]interface{}, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
