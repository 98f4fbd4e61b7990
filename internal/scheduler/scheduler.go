// Package scheduler triggers the nightly full-roster sync sweep. The core
// only exposes SyncAll; this is the external timer collaborator invoking it
// on a fixed cadence.
package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/go-co-op/gocron"
	"github.com/rs/zerolog"

	"github.com/noah-isme/spms-go-api/internal/service"
)

// Scheduler runs the daily sweep job.
type Scheduler struct {
	scheduler *gocron.Scheduler
	sync      service.SyncService
	hourUTC   int
	logger    zerolog.Logger
}

// New creates a scheduler sweeping daily at the given UTC hour.
func New(sync service.SyncService, hourUTC int, logger zerolog.Logger) *Scheduler {
	return &Scheduler{
		scheduler: gocron.NewScheduler(time.UTC),
		sync:      sync,
		hourUTC:   hourUTC,
		logger:    logger.With().Str("component", "scheduler").Logger(),
	}
}

// Start registers the sweep job and begins running it asynchronously.
func (s *Scheduler) Start() error {
	at := fmt.Sprintf("%02d:00", s.hourUTC)
	if _, err := s.scheduler.Every(1).Day().At(at).Do(s.runSweep); err != nil {
		return fmt.Errorf("schedule daily sweep: %w", err)
	}

	s.scheduler.StartAsync()
	s.logger.Info().Str("at", at).Msg("daily sweep scheduled")

	return nil
}

// Stop halts the scheduler. A sweep already in flight runs to completion;
// sync units are short and idempotent, so there is no mid-unit cancellation.
func (s *Scheduler) Stop() {
	s.scheduler.Stop()
}

func (s *Scheduler) runSweep() {
	result, err := s.sync.SyncAll(context.Background())
	if err != nil {
		s.logger.Error().Err(err).Msg("scheduled sweep failed to start")
		return
	}

	s.logger.Info().
		Str("run_id", result.RunID).
		Int("total", result.Total).
		Int("failed", result.Failed).
		Msg("scheduled sweep finished")
}
