package models

import (
	"time"

	"github.com/google/uuid"
)

// JobExecutionInfo is a read-only view of a job's execution state as reported
// by the execution engine.
type JobExecutionInfo struct {
	JobID      uuid.UUID              `json:"job_id"`
	JobName    string                 `json:"job_name"`
	JobType    string                 `json:"job_type"`
	Status     JobStatus              `json:"status"`
	StartedAt  *time.Time             `json:"started_at,omitempty"`
	FinishedAt *time.Time             `json:"finished_at,omitempty"`
	Parameters map[string]interface{} `json:"parameters,omitempty"`
	Metadata   map[string]interface{} `json:"metadata,omitempty"`

	// BatchTotal is the declared child count for batch jobs, 0 otherwise.
	BatchTotal int64 `json:"batch_total,omitempty"`
	IsBatch    bool  `json:"is_batch"`
}

// JobChildStats aggregates the states of a job's direct children.
type JobChildStats struct {
	Total     int64 `json:"total"`
	Succeeded int64 `json:"succeeded"`
	Failed    int64 `json:"failed"`
	Running   int64 `json:"running"`
}

// AuditEvent records who did what to which job. Events are fire-and-forget:
// recording must never block or fail the operation being audited.
type AuditEvent struct {
	ID         uuid.UUID              `json:"id" badgerhold:"key"`
	Actor      string                 `json:"actor"`
	Verb       string                 `json:"verb"`
	JobName    string                 `json:"job_name"`
	JobID      uuid.UUID              `json:"job_id"`
	Parameters map[string]interface{} `json:"parameters,omitempty"`
	OccurredAt time.Time              `json:"occurred_at"`
}
