package interfaces

import (
	"context"
	"errors"

	"github.com/ternarybob/menuscout/internal/models"
)

// ErrRunNotFound is returned when a collection run is not in storage
var ErrRunNotFound = errors.New("collection run not found")

// RunStorage defines persistence for collection run history
type RunStorage interface {
	// SaveRun inserts or replaces a run by ID
	SaveRun(ctx context.Context, run *models.CollectionRun) error

	// GetRun retrieves a run by ID, returns ErrRunNotFound if missing
	GetRun(ctx context.Context, id string) (*models.CollectionRun, error)

	// ListRuns returns runs ordered by StartedAt DESC; limit <= 0 returns all
	ListRuns(ctx context.Context, limit int) ([]*models.CollectionRun, error)

	// Close releases the underlying store
	Close() error
}
