package app

import (
	"context"
	"errors"
	"path/filepath"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/menuscout/internal/common"
	"github.com/ternarybob/menuscout/internal/handlers"
	"github.com/ternarybob/menuscout/internal/interfaces"
	"github.com/ternarybob/menuscout/internal/models"
	"github.com/ternarybob/menuscout/internal/services/collection"
	"github.com/ternarybob/menuscout/internal/services/places"
	"github.com/ternarybob/menuscout/internal/services/scheduler"
	"github.com/ternarybob/menuscout/internal/storage"
	"github.com/ternarybob/menuscout/internal/storage/jsonfile"
)

// App holds all application components and dependencies
type App struct {
	Config *common.Config
	Logger arbor.ILogger

	// Run history (no-op when disabled)
	RunStorage interfaces.RunStorage

	// Places service
	PlacesService interfaces.PlacesService

	// Collection orchestrator and its cron/on-demand trigger
	CollectionService *collection.Service
	Scheduler         *scheduler.Scheduler

	// HTTP handlers
	RestaurantHandler *handlers.RestaurantHandler
	RunHandler        *handlers.RunHandler

	now func() time.Time
}

// New initializes the application with all dependencies.
// Returns common.ErrMissingAPIKey (wrapped) before any network call when no key is configured.
func New(cfg *common.Config, logger arbor.ILogger) (*App, error) {
	apiKey, err := common.LoadCredentials(&cfg.Places)
	if err != nil {
		return nil, err
	}

	app := &App{
		Config: cfg,
		Logger: logger,
		now:    time.Now,
	}

	app.initDatabase()

	app.initServices(apiKey)
	app.initHandlers()

	logger.Debug().
		Str("environment", cfg.Environment).
		Bool("history", cfg.Storage.Badger.Enabled).
		Msg("Application initialized")

	return app, nil
}

// initDatabase opens run history. A failure falls back to the no-op store.
func (a *App) initDatabase() {
	runStorage, err := storage.NewRunStorage(a.Logger, a.Config)
	if err != nil {
		a.Logger.Warn().
			Err(err).
			Str("path", a.Config.Storage.Badger.Path).
			Msg("Run history unavailable, continuing without it")
		runStorage = storage.NoopRunStorage{}
	}
	a.RunStorage = runStorage
}

func (a *App) initServices(apiKey string) {
	a.PlacesService = places.NewService(&a.Config.Places, apiKey, a.Logger)
	a.CollectionService = collection.NewService(a.PlacesService, a.Config, a.Logger)
	a.Scheduler = scheduler.NewScheduler(a, collection.CollectRequest{
		Latitude:       a.Config.Collection.Latitude,
		Longitude:      a.Config.Collection.Longitude,
		NumRestaurants: a.Config.Collection.NumRestaurants,
	}, a.Logger)
}

func (a *App) initHandlers() {
	dataPath := filepath.Join(a.Config.Output.DataDir, a.Config.Output.Filename)
	a.RestaurantHandler = handlers.NewRestaurantHandler(a.PlacesService, dataPath, a.Logger)
	a.RunHandler = handlers.NewRunHandler(a.RunStorage, a.Scheduler, a.Logger)
}

// RunCollection collects restaurants, writes the dataset and records the run.
// Nothing is written when no record was collected. The returned run is always non-nil.
func (a *App) RunCollection(ctx context.Context, req collection.CollectRequest) (*models.CollectionRun, error) {
	if req.NumRestaurants <= 0 {
		req.NumRestaurants = a.Config.Collection.NumRestaurants
	}

	run := &models.CollectionRun{
		ID:        common.NewRunID(),
		StartedAt: a.now(),
		Latitude:  req.Latitude,
		Longitude: req.Longitude,
		Radius:    a.Config.Places.Radius,
		Keyword:   a.Config.Places.Keyword,
		Requested: req.NumRestaurants,
	}

	result, err := a.CollectionService.GenerateSampleData(ctx, req)
	if result != nil {
		run.Collected = len(result.Records)
		run.SkippedPlaces = result.SkippedPlaces
		run.PhotosDownloaded = result.PhotosDownloaded
		run.PhotosSkipped = result.PhotosSkipped
	}

	switch {
	case errors.Is(err, collection.ErrSearchFailed):
		run.Status = models.RunStatusSearchFailed
		run.Error = err.Error()
	case err != nil:
		run.Status = models.RunStatusFailed
		run.Error = err.Error()
	case run.Collected == 0:
		run.Status = models.RunStatusEmpty
	default:
		path, saveErr := jsonfile.SaveToJSON(result.Records, a.Config.Output.DataDir, a.Config.Output.Filename)
		if saveErr != nil {
			err = saveErr
			run.Status = models.RunStatusFailed
			run.Error = saveErr.Error()
			break
		}
		run.OutputPath = path
		run.Status = models.RunStatusCompleted
	}

	run.CompletedAt = a.now()
	a.recordRun(run)

	return run, err
}

// recordRun saves a run summary; failures only warn
func (a *App) recordRun(run *models.CollectionRun) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := a.RunStorage.SaveRun(ctx, run); err != nil {
		a.Logger.Warn().Err(err).Str("run_id", run.ID).Msg("Failed to record collection run")
		return
	}

	a.Logger.Debug().
		Str("run_id", run.ID).
		Str("status", string(run.Status)).
		Dur("duration", run.Duration()).
		Msg("Collection run recorded")
}

// Close waits for any triggered run, then closes all application resources
func (a *App) Close() error {
	if a.Scheduler != nil {
		a.Scheduler.Stop()
	}
	if a.RunStorage != nil {
		if err := a.RunStorage.Close(); err != nil {
			a.Logger.Warn().Err(err).Msg("Failed to close run history")
			return err
		}
	}
	return nil
}
