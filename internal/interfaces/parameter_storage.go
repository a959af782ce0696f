package interfaces

import (
	"context"

	"github.com/google/uuid"
	"github.com/ternarybob/jobctl/internal/models"
)

// ParameterSetStore persists externally stored parameter payloads, keyed by an
// ID equal to the owning job's ID. Implementations must tolerate concurrent
// writes to disjoint IDs; per-ID concurrent mutation is last-write-wins.
type ParameterSetStore interface {
	// Store persists a new parameter set.
	Store(ctx context.Context, set *models.ParameterSet) error

	// FindByID returns the parameter set or nil when absent.
	FindByID(ctx context.Context, id uuid.UUID) (*models.ParameterSet, error)

	// Update upserts: replaces the payload in place when present (preserving
	// CreatedAt), inserts otherwise.
	Update(ctx context.Context, set *models.ParameterSet) error

	// DeleteByID removes a parameter set. No-op when absent.
	DeleteByID(ctx context.Context, id uuid.UUID) error

	// UpdateLastAccessed bumps the last-access timestamp. No-op when absent.
	UpdateLastAccessed(ctx context.Context, id uuid.UUID) error
}

// DefinitionLookup is the read-only registry of job definitions discovered at
// startup. Injected explicitly so tests can run independent instances.
type DefinitionLookup interface {
	// FindByType returns the definition for a job type or nil when unknown.
	FindByType(jobType string) *models.JobDefinition

	// All returns every discovered definition, ordered by job type.
	All() []*models.JobDefinition
}

// AuditSink records audit events. Fire-and-forget: implementations swallow
// their own failures and must never block the calling operation.
type AuditSink interface {
	Record(ctx context.Context, event models.AuditEvent)
}
