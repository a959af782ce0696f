// -----------------------------------------------------------------------
// Job Definition - Static job metadata discovered once at startup
// -----------------------------------------------------------------------

package models

import (
	"errors"
	"fmt"

	"github.com/robfig/cron/v3"
)

// JobKind distinguishes simple single-run jobs from batch jobs that fan out
// into child jobs.
type JobKind string

const (
	JobKindSimple JobKind = "simple"
	JobKindBatch  JobKind = "batch"
)

// IsValidJobKind checks if a given JobKind is one of the valid constants.
func IsValidJobKind(kind JobKind) bool {
	switch kind {
	case JobKindSimple, JobKindBatch:
		return true
	default:
		return false
	}
}

// ParameterType represents the data type of a job parameter.
type ParameterType string

const (
	ParameterTypeString    ParameterType = "string"
	ParameterTypeMultiline ParameterType = "multiline"
	ParameterTypeInteger   ParameterType = "integer"
	ParameterTypeBoolean   ParameterType = "boolean"
	ParameterTypeDate      ParameterType = "date"
	ParameterTypeDateTime  ParameterType = "datetime"
	ParameterTypeEnum      ParameterType = "enum"
	ParameterTypeMultiEnum ParameterType = "multi_enum"
)

// IsValidParameterType checks if a given ParameterType is one of the valid constants.
func IsValidParameterType(t ParameterType) bool {
	switch t {
	case ParameterTypeString, ParameterTypeMultiline, ParameterTypeInteger,
		ParameterTypeBoolean, ParameterTypeDate, ParameterTypeDateTime,
		ParameterTypeEnum, ParameterTypeMultiEnum:
		return true
	default:
		return false
	}
}

// JobParameter describes a single parameter in a job definition's schema.
type JobParameter struct {
	Name       string        `json:"name" toml:"name" validate:"required"`
	Type       ParameterType `json:"type" toml:"type" validate:"required"`
	Required   bool          `json:"required" toml:"required"`
	Default    string        `json:"default,omitempty" toml:"default"`
	EnumValues []string      `json:"enum_values,omitempty" toml:"enum_values"`
	Order      int           `json:"order" toml:"order"`
}

// JobSettings holds execution settings for a job definition.
type JobSettings struct {
	Retries         int      `json:"retries" toml:"retries"`
	Labels          []string `json:"labels,omitempty" toml:"labels"`
	Queue           string   `json:"queue,omitempty" toml:"queue"`
	Mutex           string   `json:"mutex,omitempty" toml:"mutex"`
	RateLimiter     string   `json:"rate_limiter,omitempty" toml:"rate_limiter"`
	ProcessTimeout  string   `json:"process_timeout,omitempty" toml:"process_timeout"`
	DeleteOnSuccess string   `json:"delete_on_success,omitempty" toml:"delete_on_success"`
	DeleteOnFailure string   `json:"delete_on_failure,omitempty" toml:"delete_on_failure"`
}

// DefaultParameterSetField is the parameter map key holding the external
// parameter set reference. The value is always the owning job's ID.
const DefaultParameterSetField = "__parameterSetId"

// JobDefinition represents a configurable job type. Definitions are discovered
// from the definitions directory once at startup and are immutable afterwards.
type JobDefinition struct {
	JobType     string         `json:"job_type" toml:"job_type" validate:"required"`
	DisplayName string         `json:"display_name,omitempty" toml:"display_name"`
	Description string         `json:"description,omitempty" toml:"description"`
	Kind        JobKind        `json:"kind" toml:"kind"`
	Handler     string         `json:"handler" toml:"handler" validate:"required"`
	Parameters  []JobParameter `json:"parameters" toml:"parameters"`
	Settings    JobSettings    `json:"settings" toml:"settings"`

	// Schedule is an optional cron expression used by operators that create
	// recurring instances outside this module. Validated at discovery time only.
	Schedule string `json:"schedule,omitempty" toml:"schedule"`

	// External parameter storage. When enabled, job instances carry only a
	// reference in their own parameter map and the payload lives in the
	// parameter set store keyed by the job ID.
	ExternalParameters bool   `json:"external_parameters" toml:"external_parameters"`
	ParameterSetField  string `json:"parameter_set_field,omitempty" toml:"parameter_set_field"`
}

// UsesExternalParameters returns true if this definition stores its parameters
// outside the job record.
func (d *JobDefinition) UsesExternalParameters() bool {
	return d.ExternalParameters
}

// ParameterSetFieldName returns the parameter map key used for the external
// reference, falling back to the default field name.
func (d *JobDefinition) ParameterSetFieldName() string {
	if d.ParameterSetField != "" {
		return d.ParameterSetField
	}
	return DefaultParameterSetField
}

// IsBatchJob returns true for definitions that fan out into child jobs.
func (d *JobDefinition) IsBatchJob() bool {
	return d.Kind == JobKindBatch
}

// ParameterNames returns the schema parameter names in declaration order.
func (d *JobDefinition) ParameterNames() []string {
	names := make([]string, len(d.Parameters))
	for i, p := range d.Parameters {
		names[i] = p.Name
	}
	return names
}

// FindParameter returns the schema entry for a parameter name.
func (d *JobDefinition) FindParameter(name string) (JobParameter, bool) {
	for _, p := range d.Parameters {
		if p.Name == name {
			return p, true
		}
	}
	return JobParameter{}, false
}

// Validate validates the job definition after discovery.
func (d *JobDefinition) Validate() error {
	if d.JobType == "" {
		return errors.New("job definition job_type is required")
	}
	if d.Handler == "" {
		return errors.New("job definition handler is required")
	}
	if d.Kind == "" {
		d.Kind = JobKindSimple
	}
	if !IsValidJobKind(d.Kind) {
		return fmt.Errorf("invalid job kind: %s (must be one of: simple, batch)", d.Kind)
	}

	seen := make(map[string]bool, len(d.Parameters))
	for i, p := range d.Parameters {
		if p.Name == "" {
			return fmt.Errorf("parameter %d: name is required", i)
		}
		if seen[p.Name] {
			return fmt.Errorf("parameter %d: duplicate name %q", i, p.Name)
		}
		seen[p.Name] = true
		if !IsValidParameterType(p.Type) {
			return fmt.Errorf("parameter %q: invalid type %q", p.Name, p.Type)
		}
		if (p.Type == ParameterTypeEnum || p.Type == ParameterTypeMultiEnum) && len(p.EnumValues) == 0 {
			return fmt.Errorf("parameter %q: enum types require enum_values", p.Name)
		}
	}

	if d.Schedule != "" {
		parser := cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)
		if _, err := parser.Parse(d.Schedule); err != nil {
			return fmt.Errorf("invalid cron schedule '%s': %w", d.Schedule, err)
		}
	}

	return nil
}
