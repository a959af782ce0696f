package badger

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/jobctl/internal/interfaces"
	"github.com/ternarybob/jobctl/internal/models"
	"github.com/timshannon/badgerhold/v4"
)

// ParameterSetStorage implements the ParameterSetStore interface for Badger
type ParameterSetStorage struct {
	db     *BadgerDB
	logger arbor.ILogger
}

// NewParameterSetStorage creates a new ParameterSetStorage instance
func NewParameterSetStorage(db *BadgerDB, logger arbor.ILogger) interfaces.ParameterSetStore {
	return &ParameterSetStorage{
		db:     db,
		logger: logger,
	}
}

func (s *ParameterSetStorage) Store(ctx context.Context, set *models.ParameterSet) error {
	if err := set.Validate(); err != nil {
		return fmt.Errorf("invalid parameter set: %w", err)
	}

	if err := s.db.Store().Upsert(set.ID, set); err != nil {
		return fmt.Errorf("failed to store parameter set: %w", err)
	}
	return nil
}

func (s *ParameterSetStorage) FindByID(ctx context.Context, id uuid.UUID) (*models.ParameterSet, error) {
	var set models.ParameterSet
	if err := s.db.Store().Get(id, &set); err != nil {
		if err == badgerhold.ErrNotFound {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get parameter set: %w", err)
	}
	return &set, nil
}

// Update replaces the payload in place, preserving ID and CreatedAt. Inserts
// when no set exists yet.
func (s *ParameterSetStorage) Update(ctx context.Context, set *models.ParameterSet) error {
	if err := set.Validate(); err != nil {
		return fmt.Errorf("invalid parameter set: %w", err)
	}

	var existing models.ParameterSet
	err := s.db.Store().Get(set.ID, &existing)
	if err != nil && err != badgerhold.ErrNotFound {
		return fmt.Errorf("failed to load parameter set for update: %w", err)
	}
	if err == nil {
		set.CreatedAt = existing.CreatedAt
	}
	set.UpdatedAt = time.Now()

	if err := s.db.Store().Upsert(set.ID, set); err != nil {
		return fmt.Errorf("failed to update parameter set: %w", err)
	}
	return nil
}

func (s *ParameterSetStorage) DeleteByID(ctx context.Context, id uuid.UUID) error {
	err := s.db.Store().Delete(id, &models.ParameterSet{})
	if err == badgerhold.ErrNotFound {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to delete parameter set: %w", err)
	}
	return nil
}

func (s *ParameterSetStorage) UpdateLastAccessed(ctx context.Context, id uuid.UUID) error {
	var set models.ParameterSet
	if err := s.db.Store().Get(id, &set); err != nil {
		if err == badgerhold.ErrNotFound {
			return nil
		}
		return fmt.Errorf("failed to load parameter set: %w", err)
	}

	set.LastAccessedAt = time.Now()
	if err := s.db.Store().Upsert(id, &set); err != nil {
		return fmt.Errorf("failed to update last accessed: %w", err)
	}
	return nil
}
