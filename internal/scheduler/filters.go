package scheduler

import (
	"context"

	"github.com/google/uuid"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/jobctl/internal/interfaces"
	"github.com/ternarybob/jobctl/internal/models"
)

// StateFilter observes engine state transitions. Filters run after the new
// state is persisted; their errors are logged, never propagated, so a filter
// cannot veto a transition.
type StateFilter interface {
	OnStateChange(ctx context.Context, record *JobRecord, from, to models.JobStatus)
}

// ParameterCleanupFilter removes a job's external parameter set when the job
// transitions to DELETED. Combined with the best-effort cleanup in the delete
// operation this makes parameter removal exactly-once in effect: whichever
// side runs first deletes, the other finds nothing.
type ParameterCleanupFilter struct {
	store       interfaces.ParameterSetStore
	definitions interfaces.DefinitionLookup
	logger      arbor.ILogger
}

// NewParameterCleanupFilter creates a cleanup filter.
func NewParameterCleanupFilter(store interfaces.ParameterSetStore, definitions interfaces.DefinitionLookup, logger arbor.ILogger) *ParameterCleanupFilter {
	return &ParameterCleanupFilter{
		store:       store,
		definitions: definitions,
		logger:      logger,
	}
}

// OnStateChange deletes the referenced parameter set on DELETED transitions.
func (f *ParameterCleanupFilter) OnStateChange(ctx context.Context, record *JobRecord, from, to models.JobStatus) {
	if to != models.JobStatusDeleted || f.store == nil {
		return
	}

	setID, ok := f.parameterSetID(record)
	if !ok {
		return
	}

	if err := f.store.DeleteByID(ctx, setID); err != nil {
		f.logger.Warn().
			Str("job_id", record.ID.String()).
			Str("parameter_set_id", setID.String()).
			Err(err).
			Msg("Failed to clean up parameter set on delete")
		return
	}

	f.logger.Debug().
		Str("job_id", record.ID.String()).
		Str("parameter_set_id", setID.String()).
		Msg("Cleaned up parameter set on delete")
}

// parameterSetID extracts the external parameter reference, honoring a
// definition-specific field name when the job type declares one.
func (f *ParameterCleanupFilter) parameterSetID(record *JobRecord) (uuid.UUID, bool) {
	field := models.DefaultParameterSetField
	if f.definitions != nil {
		if def := f.definitions.FindByType(record.JobType); def != nil {
			field = def.ParameterSetFieldName()
		}
	}

	raw, ok := record.Parameters[field]
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
