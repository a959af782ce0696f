// -----------------------------------------------------------------------
// Parameter Lifecycle Coordinator - hides the inline/external storage
// decision from the scheduling orchestrators
// -----------------------------------------------------------------------

package parameters

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/jobctl/internal/interfaces"
	"github.com/ternarybob/jobctl/internal/models"
)

// Coordinator decides per job definition whether parameters live inline in the
// job record or externally in the parameter set store, and executes the
// store/update/reference/cleanup steps. The store may be nil when external
// parameter storage is not configured; inline jobs keep working either way.
type Coordinator struct {
	store  interfaces.ParameterSetStore
	logger arbor.ILogger
}

// NewCoordinator creates a new parameter lifecycle coordinator
func NewCoordinator(store interfaces.ParameterSetStore, logger arbor.ILogger) *Coordinator {
	return &Coordinator{
		store:  store,
		logger: logger,
	}
}

// ExternalStorageAvailable returns true when a parameter set store is configured.
func (c *Coordinator) ExternalStorageAvailable() bool {
	return c.store != nil
}

// Prepare returns the parameter map to hand to the scheduler for a job that
// has not been created yet. Inline definitions pass through unchanged.
// External definitions return an empty map: the payload cannot be stored yet
// because its key must equal the not-yet-known job ID, so the orchestrator
// drives the two-phase protocol via StoreForJob and CreateReference.
func (c *Coordinator) Prepare(def *models.JobDefinition, jobType string, converted map[string]interface{}) (map[string]interface{}, error) {
	if !def.UsesExternalParameters() {
		return converted, nil
	}

	if !c.ExternalStorageAvailable() {
		return nil, &models.StorageUnavailableError{JobType: jobType}
	}

	return map[string]interface{}{}, nil
}

// StoreForJob persists a parameter set using the job ID as its identifier.
// Phase two of the two-phase create protocol.
func (c *Coordinator) StoreForJob(ctx context.Context, jobID uuid.UUID, def *models.JobDefinition, jobType string, converted map[string]interface{}) error {
	if !def.UsesExternalParameters() {
		return nil
	}

	if !c.ExternalStorageAvailable() {
		return &models.StorageUnavailableError{JobType: jobType}
	}

	set := models.NewParameterSet(jobID, jobType, converted)
	if err := c.store.Store(ctx, set); err != nil {
		return fmt.Errorf("failed to store parameter set for job %s: %w", jobID, err)
	}

	c.logger.Info().
		Str("parameter_set_id", jobID.String()).
		Str("job_type", jobType).
		Msg("Stored parameters externally")

	return nil
}

// UpdateForJob replaces the stored payload in place, preserving the identifier
// and creation timestamp. Used on job edit; the job ID already exists so no
// two-phase dance is needed.
func (c *Coordinator) UpdateForJob(ctx context.Context, jobID uuid.UUID, def *models.JobDefinition, jobType string, converted map[string]interface{}) error {
	if !def.UsesExternalParameters() {
		return nil
	}

	if !c.ExternalStorageAvailable() {
		return &models.StorageUnavailableError{JobType: jobType}
	}

	set := models.NewParameterSet(jobID, jobType, converted)
	if err := c.store.Update(ctx, set); err != nil {
		return fmt.Errorf("failed to update parameter set for job %s: %w", jobID, err)
	}

	c.logger.Info().
		Str("parameter_set_id", jobID.String()).
		Str("job_type", jobType).
		Msg("Updated parameters externally")

	return nil
}

// CreateReference returns the parameter map written into the job record
// itself: empty for inline definitions, or a single entry mapping the
// definition's reference field to the job ID for external ones.
func (c *Coordinator) CreateReference(jobID uuid.UUID, def *models.JobDefinition) map[string]interface{} {
	if !def.UsesExternalParameters() {
		return map[string]interface{}{}
	}

	return map[string]interface{}{
		def.ParameterSetFieldName(): jobID.String(),
	}
}

// Resolve returns a job's actual parameters. Jobs without an external
// reference return their inline map verbatim. External jobs load the
// parameter set keyed by the job's own ID; a missing set degrades to the
// (empty) inline map with a warning since read paths feed display code that
// must stay available.
func (c *Coordinator) Resolve(ctx context.Context, job *models.ScheduledJobInfo) map[string]interface{} {
	if !job.HasExternalParameters() {
		return copyParams(job.Parameters)
	}

	setID := job.JobID
	if refID, ok := job.ParameterSetID(); ok {
		setID = refID
	}

	if !c.ExternalStorageAvailable() {
		c.logger.Warn().
			Str("job_id", job.JobID.String()).
			Msg("External parameter storage not configured, returning inline parameters")
		return copyParams(job.Parameters)
	}

	set, err := c.store.FindByID(ctx, setID)
	if err != nil {
		c.logger.Warn().Err(err).
			Str("parameter_set_id", setID.String()).
			Msg("Failed to load parameter set, returning inline parameters")
		return copyParams(job.Parameters)
	}
	if set == nil {
		c.logger.Warn().
			Str("parameter_set_id", setID.String()).
			Msg("Parameter set not found, returning inline parameters")
		return copyParams(job.Parameters)
	}

	if err := c.store.UpdateLastAccessed(ctx, setID); err != nil {
		c.logger.Debug().Err(err).
			Str("parameter_set_id", setID.String()).
			Msg("Failed to update last accessed timestamp")
	}

	return copyParams(set.Parameters)
}

// DeleteForJob removes the parameter set owned by a job. Idempotent: deleting
// a set that does not exist is a no-op.
func (c *Coordinator) DeleteForJob(ctx context.Context, jobID uuid.UUID) error {
	if !c.ExternalStorageAvailable() {
		return nil
	}

	if err := c.store.DeleteByID(ctx, jobID); err != nil {
		return fmt.Errorf("failed to delete parameter set for job %s: %w", jobID, err)
	}

	c.logger.Debug().Str("parameter_set_id", jobID.String()).Msg("Deleted parameter set")
	return nil
}

func copyParams(params map[string]interface{}) map[string]interface{} {
	result := make(map[string]interface{}, len(params))
	for k, v := range params {
		result[k] = v
	}
	return result
}
