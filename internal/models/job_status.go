package models

// JobStatus represents the state of a job as reported by the execution engine.
// The engine is authoritative for status; this module only reads and aggregates.
type JobStatus string

const (
	JobStatusEnqueued   JobStatus = "ENQUEUED"
	JobStatusProcessing JobStatus = "PROCESSING"
	JobStatusProcessed  JobStatus = "PROCESSED"
	JobStatusSucceeded  JobStatus = "SUCCEEDED"
	JobStatusFailed     JobStatus = "FAILED"

	// JobStatusDeleted is a terminal state surfaced by the execution engine for
	// removed jobs. It is not part of the regular lifecycle set above.
	JobStatusDeleted JobStatus = "DELETED"
)

// IsTerminal returns true if the status will not change anymore.
func (s JobStatus) IsTerminal() bool {
	switch s {
	case JobStatusSucceeded, JobStatusFailed, JobStatusDeleted:
		return true
	default:
		return false
	}
}

// IsValidJobStatus checks if a given JobStatus is one of the known constants.
func IsValidJobStatus(status JobStatus) bool {
	switch status {
	case JobStatusEnqueued, JobStatusProcessing, JobStatusProcessed,
		JobStatusSucceeded, JobStatusFailed, JobStatusDeleted:
		return true
	default:
		return false
	}
}

// ChainStatus is the aggregated status of a job and its continuation chain.
// Complete is true when every relevant leaf of the chain reached a terminal state.
type ChainStatus struct {
	Complete bool      `json:"complete"`
	Status   JobStatus `json:"status"`
}
