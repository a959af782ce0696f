// -----------------------------------------------------------------------
// Scheduled Job - One job instance as observed through the scheduling port
// -----------------------------------------------------------------------

package models

import (
	"time"

	"github.com/google/uuid"
)

// TemplateLabel marks a job as a reusable template. Template jobs never run on
// their own schedule and are only executed via clone/start.
const TemplateLabel = "template"

// ExternalTriggerDate is the sentinel schedule time for externally triggered
// jobs. The scheduling storage always needs a concrete time, so "triggered from
// outside" is modeled as scheduled far in the future rather than as a null time.
var ExternalTriggerDate = time.Date(2999, time.December, 31, 0, 0, 0, 0, time.UTC)

// ScheduledJobInfo represents one scheduled job instance.
type ScheduledJobInfo struct {
	JobID       uuid.UUID              `json:"job_id"`
	JobName     string                 `json:"job_name"`
	Definition  *JobDefinition         `json:"definition"`
	ScheduledAt time.Time              `json:"scheduled_at"`
	Parameters  map[string]interface{} `json:"parameters"`

	// ExternallyTriggerable jobs wait for an external trigger instead of
	// running at their scheduled time (see ExternalTriggerDate).
	ExternallyTriggerable bool     `json:"externally_triggerable"`
	Labels                []string `json:"labels,omitempty"`

	// Template mirrors the "template" label as an explicit flag. The label is
	// kept on the job for backward-compatible external observability.
	Template bool `json:"template"`
}

// NewScheduledJobInfo builds a job info snapshot, normalizing nil maps and
// deriving the Template flag from the label set.
func NewScheduledJobInfo(jobID uuid.UUID, jobName string, definition *JobDefinition,
	scheduledAt time.Time, parameters map[string]interface{}, externallyTriggerable bool,
	labels []string) *ScheduledJobInfo {

	if parameters == nil {
		parameters = make(map[string]interface{})
	}

	return &ScheduledJobInfo{
		JobID:                 jobID,
		JobName:               jobName,
		Definition:            definition,
		ScheduledAt:           scheduledAt,
		Parameters:            parameters,
		ExternallyTriggerable: externallyTriggerable,
		Labels:                labels,
		Template:              containsLabel(labels, TemplateLabel),
	}
}

func containsLabel(labels []string, label string) bool {
	for _, l := range labels {
		if l == label {
			return true
		}
	}
	return false
}

// JobType returns the job type of the underlying definition.
func (j *ScheduledJobInfo) JobType() string {
	if j.Definition == nil {
		return ""
	}
	return j.Definition.JobType
}

// IsTemplate returns true if this job is a reusable template.
func (j *ScheduledJobInfo) IsTemplate() bool {
	return j.Template || containsLabel(j.Labels, TemplateLabel)
}

// HasExternalParameters returns true if the job's parameter map carries an
// external parameter set reference instead of inline values.
func (j *ScheduledJobInfo) HasExternalParameters() bool {
	_, ok := j.Parameters[DefaultParameterSetField]
	return ok
}

// ParameterSetID returns the external parameter set ID if present. The ID
// always equals the owning job's ID when created through the two-phase
// protocol, but the stored reference value is authoritative.
func (j *ScheduledJobInfo) ParameterSetID() (uuid.UUID, bool) {
	raw, ok := j.Parameters[DefaultParameterSetField]
	if !ok {
		return uuid.Nil, false
	}
	str, ok := raw.(string)
	if !ok {
		return uuid.Nil, false
	}
	id, err := uuid.Parse(str)
	if err != nil {
		return uuid.Nil, false
	}
	return id, true
}
