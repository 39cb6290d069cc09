package badger

import (
	"context"
	"fmt"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/menuscout/internal/interfaces"
	"github.com/ternarybob/menuscout/internal/models"
	"github.com/timshannon/badgerhold/v4"
)

// RunStorage implements the RunStorage interface for Badger
type RunStorage struct {
	db     *BadgerDB
	logger arbor.ILogger
}

// NewRunStorage creates a new RunStorage instance
func NewRunStorage(db *BadgerDB, logger arbor.ILogger) *RunStorage {
	return &RunStorage{
		db:     db,
		logger: logger,
	}
}

func (s *RunStorage) SaveRun(ctx context.Context, run *models.CollectionRun) error {
	if run.ID == "" {
		return fmt.Errorf("run ID is required")
	}

	if err := s.db.Store().Upsert(run.ID, run); err != nil {
		return fmt.Errorf("failed to save run: %w", err)
	}

	s.logger.Debug().
		Str("run_id", run.ID).
		Str("status", string(run.Status)).
		Msg("Collection run saved")

	return nil
}

func (s *RunStorage) GetRun(ctx context.Context, id string) (*models.CollectionRun, error) {
	var run models.CollectionRun
	if err := s.db.Store().Get(id, &run); err != nil {
		if err == badgerhold.ErrNotFound {
			return nil, interfaces.ErrRunNotFound
		}
		return nil, fmt.Errorf("failed to get run: %w", err)
	}
	return &run, nil
}

func (s *RunStorage) ListRuns(ctx context.Context, limit int) ([]*models.CollectionRun, error) {
	query := badgerhold.Where("ID").Ne("").SortBy("StartedAt").Reverse()
	if limit > 0 {
		query = query.Limit(limit)
	}

	var runs []models.CollectionRun
	if err := s.db.Store().Find(&runs, query); err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}

	result := make([]*models.CollectionRun, len(runs))
	for i := range runs {
		result[i] = &runs[i]
	}
	return result, nil
}

// Close closes the underlying database
func (s *RunStorage) Close() error {
	return s.db.Close()
}
