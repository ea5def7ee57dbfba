package refresh

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
)

// Scheduler runs the periodic refresh job.
type Scheduler struct {
	cron      *cron.Cron
	refresher *Refresher
	log       zerolog.Logger
}

// NewScheduler creates a scheduler around the refresher
func NewScheduler(refresher *Refresher, log zerolog.Logger) *Scheduler {
	return &Scheduler{
		cron:      cron.New(cron.WithSeconds()),
		refresher: refresher,
		log:       log.With().Str("component", "scheduler").Logger(),
	}
}

// Schedule registers the refresh job. Schedules use six-field cron
// syntax, e.g. "0 */30 * * * *" for every 30 minutes.
func (s *Scheduler) Schedule(spec string) error {
	_, err := s.cron.AddFunc(spec, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
		defer cancel()

		if _, err := s.refresher.RefreshAll(ctx); err != nil {
			s.log.Error().Err(err).Msg("scheduled refresh failed")
		}
	})
	if err != nil {
		return err
	}

	s.log.Info().Str("schedule", spec).Msg("refresh job registered")
	return nil
}

// Start starts the scheduler
func (s *Scheduler) Start() {
	s.cron.Start()
	s.log.Info().Msg("scheduler started")
}

// Stop stops the scheduler and waits for running jobs
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	s.log.Info().Msg("scheduler stopped")
}
