package storage

import (
	"context"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/menuscout/internal/common"
	"github.com/ternarybob/menuscout/internal/interfaces"
	"github.com/ternarybob/menuscout/internal/models"
	"github.com/ternarybob/menuscout/internal/storage/badger"
)

// NewRunStorage returns the Badger run history store, or a no-op store when history is disabled
func NewRunStorage(logger arbor.ILogger, config *common.Config) (interfaces.RunStorage, error) {
	if !config.Storage.Badger.Enabled {
		logger.Debug().Msg("Run history disabled")
		return NoopRunStorage{}, nil
	}

	db, err := badger.NewBadgerDB(logger, &config.Storage.Badger)
	if err != nil {
		return nil, err
	}
	return badger.NewRunStorage(db, logger), nil
}

// NoopRunStorage discards runs
type NoopRunStorage struct{}

func (NoopRunStorage) SaveRun(ctx context.Context, run *models.CollectionRun) error { return nil }

func (NoopRunStorage) GetRun(ctx context.Context, id string) (*models.CollectionRun, error) {
	return nil, interfaces.ErrRunNotFound
}

func (NoopRunStorage) ListRuns(ctx context.Context, limit int) ([]*models.CollectionRun, error) {
	return []*models.CollectionRun{}, nil
}

func (NoopRunStorage) Close() error { return nil }
