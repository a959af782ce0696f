package badger

import (
	"context"
	"fmt"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/jobctl/internal/models"
	"github.com/timshannon/badgerhold/v4"
)

// AuditStorage persists audit events for operator review
type AuditStorage struct {
	db     *BadgerDB
	logger arbor.ILogger
}

// NewAuditStorage creates a new AuditStorage instance
func NewAuditStorage(db *BadgerDB, logger arbor.ILogger) *AuditStorage {
	return &AuditStorage{
		db:     db,
		logger: logger,
	}
}

// SaveEvent persists a single audit event
func (s *AuditStorage) SaveEvent(ctx context.Context, event *models.AuditEvent) error {
	if err := s.db.Store().Upsert(event.ID, event); err != nil {
		return fmt.Errorf("failed to save audit event: %w", err)
	}
	return nil
}

// ListEvents returns the most recent audit events, newest first
func (s *AuditStorage) ListEvents(ctx context.Context, limit int) ([]*models.AuditEvent, error) {
	query := badgerhold.Where("Actor").Ne("").SortBy("OccurredAt").Reverse()
	if limit > 0 {
		query = query.Limit(limit)
	}

	var events []models.AuditEvent
	if err := s.db.Store().Find(&events, query); err != nil {
		return nil, fmt.Errorf("failed to list audit events: %w", err)
	}

	result := make([]*models.AuditEvent, len(events))
	for i := range events {
		result[i] = &events[i]
	}
	return result, nil
}
