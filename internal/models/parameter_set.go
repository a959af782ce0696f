package models

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// ParameterSet is a job's parameter payload persisted outside the job record.
// Its ID equals the owning job's ID when created via the two-phase protocol.
type ParameterSet struct {
	ID             uuid.UUID              `json:"id" badgerhold:"key"`
	JobType        string                 `json:"job_type"`
	Parameters     map[string]interface{} `json:"parameters"`
	CreatedAt      time.Time              `json:"created_at"`
	UpdatedAt      time.Time              `json:"updated_at"`
	LastAccessedAt time.Time              `json:"last_accessed_at"`
}

// NewParameterSet creates a parameter set with current timestamps.
func NewParameterSet(id uuid.UUID, jobType string, parameters map[string]interface{}) *ParameterSet {
	if parameters == nil {
		parameters = make(map[string]interface{})
	}
	now := time.Now()
	return &ParameterSet{
		ID:             id,
		JobType:        jobType,
		Parameters:     parameters,
		CreatedAt:      now,
		UpdatedAt:      now,
		LastAccessedAt: now,
	}
}

// Validate enforces the parameter set invariants.
func (p *ParameterSet) Validate() error {
	if p.ID == uuid.Nil {
		return errors.New("parameter set ID is required")
	}
	if p.JobType == "" {
		return errors.New("parameter set job type is required")
	}
	if p.Parameters == nil {
		return errors.New("parameter set parameters cannot be nil")
	}
	return nil
}

// GetString retrieves a string parameter value.
func (p *ParameterSet) GetString(name string) (string, bool) {
	val, ok := p.Parameters[name]
	if !ok {
		return "", false
	}
	str, ok := val.(string)
	return str, ok
}

// GetInt retrieves an int parameter value. JSON round-trips turn numbers into
// float64, so both are accepted.
func (p *ParameterSet) GetInt(name string) (int, bool) {
	val, ok := p.Parameters[name]
	if !ok {
		return 0, false
	}
	switch v := val.(type) {
	case int:
		return v, true
	case int64:
		return int(v), true
	case float64:
		return int(v), true
	default:
		return 0, false
	}
}

// GetBool retrieves a bool parameter value.
func (p *ParameterSet) GetBool(name string) (bool, bool) {
	val, ok := p.Parameters[name]
	if !ok {
		return false, false
	}
	b, ok := val.(bool)
	return b, ok
}
