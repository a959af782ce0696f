package audit

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/jobctl/internal/models"
	badgerstorage "github.com/ternarybob/jobctl/internal/storage/badger"
)

// Sink records job lifecycle events. Recording is fire and forget: a failed
// write is logged and dropped, never surfaced to the operation that caused
// the event.
type Sink struct {
	storage *badgerstorage.AuditStorage
	logger  arbor.ILogger
}

// NewSink creates a new audit sink. storage may be nil, in which case events
// are only logged.
func NewSink(storage *badgerstorage.AuditStorage, logger arbor.ILogger) *Sink {
	return &Sink{
		storage: storage,
		logger:  logger,
	}
}

// Record persists an audit event.
func (s *Sink) Record(ctx context.Context, event models.AuditEvent) {
	if event.ID == uuid.Nil {
		event.ID = uuid.New()
	}
	if event.OccurredAt.IsZero() {
		event.OccurredAt = time.Now()
	}
	if event.Actor == "" {
		event.Actor = "system"
	}

	s.logger.Info().
		Str("actor", event.Actor).
		Str("verb", event.Verb).
		Str("job_name", event.JobName).
		Str("job_id", event.JobID.String()).
		Msg("Audit event")

	if s.storage == nil {
		return
	}
	if err := s.storage.SaveEvent(ctx, &event); err != nil {
		s.logger.Warn().Err(err).Str("verb", event.Verb).Msg("Failed to persist audit event")
	}
}

// Recent returns the most recent audit events, newest first.
func (s *Sink) Recent(ctx context.Context, limit int) ([]*models.AuditEvent, error) {
	if s.storage == nil {
		return nil, nil
	}
	return s.storage.ListEvents(ctx, limit)
}
