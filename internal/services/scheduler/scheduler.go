package scheduler

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/menuscout/internal/models"
	"github.com/ternarybob/menuscout/internal/services/collection"
)

// Collector runs one collection and records it
type Collector interface {
	RunCollection(ctx context.Context, req collection.CollectRequest) (*models.CollectionRun, error)
}

// Scheduler triggers collection runs on a cron schedule or on demand.
// At most one run is in progress; a trigger that arrives during a run is dropped.
type Scheduler struct {
	collector Collector
	request   collection.CollectRequest
	cron      *cron.Cron
	started   atomic.Bool
	running   atomic.Bool
	inflight  sync.WaitGroup
	timeout   time.Duration
	logger    arbor.ILogger
}

// NewScheduler creates a new collection scheduler
func NewScheduler(collector Collector, request collection.CollectRequest, logger arbor.ILogger) *Scheduler {
	return &Scheduler{
		collector: collector,
		request:   request,
		cron:      cron.New(cron.WithSeconds()),
		timeout:   30 * time.Minute,
		logger:    logger,
	}
}

// Start begins scheduled collection using a six-field cron expression
func (s *Scheduler) Start(schedule string) error {
	if _, err := s.cron.AddFunc(schedule, s.scheduledRun); err != nil {
		return err
	}

	s.cron.Start()
	s.started.Store(true)
	s.logger.Info().
		Str("schedule", schedule).
		Msg("Collection scheduler started")

	return nil
}

// Stop stops the schedule and waits for any run in progress
func (s *Scheduler) Stop() {
	if s.started.CompareAndSwap(true, false) {
		<-s.cron.Stop().Done()
		s.logger.Info().Msg("Collection scheduler stopped")
	}
	s.inflight.Wait()
}

// RunNow starts a collection in the background.
// Returns false without starting anything when a run is already in progress.
func (s *Scheduler) RunNow() bool {
	if !s.running.CompareAndSwap(false, true) {
		return false
	}

	s.logger.Info().Msg("Triggering immediate collection run")
	s.inflight.Add(1)
	go func() {
		defer s.inflight.Done()
		s.collect()
	}()
	return true
}

func (s *Scheduler) scheduledRun() {
	if !s.running.CompareAndSwap(false, true) {
		s.logger.Warn().Msg("Previous collection still running, skipping scheduled run")
		return
	}
	s.collect()
}

// collect runs one collection; the caller must have set running
func (s *Scheduler) collect() {
	defer s.running.Store(false)

	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	s.logger.Info().Msg("Starting collection run")

	run, err := s.collector.RunCollection(ctx, s.request)
	if err != nil {
		s.logger.Error().
			Err(err).
			Str("run_id", run.ID).
			Msg("Collection run failed")
		return
	}

	s.logger.Info().
		Str("run_id", run.ID).
		Str("status", string(run.Status)).
		Int("collected", run.Collected).
		Dur("duration", run.Duration()).
		Msg("Collection run completed")
}
