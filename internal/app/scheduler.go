package app

import (
	"context"

	"github.com/robfig/cron/v3"
)

// Scheduler runs the periodic sweep and the record TTL purge on cron
// expressions from config.
type Scheduler struct {
	app  *App
	cron *cron.Cron
}

// NewScheduler creates the scheduler; Start registers the jobs.
func NewScheduler(app *App) *Scheduler {
	return &Scheduler{
		app:  app,
		cron: cron.New(),
	}
}

// Start registers the cron entries and launches the runner.
func (s *Scheduler) Start() error {
	cfg := s.app.Config.Refresh

	if _, err := s.cron.AddFunc(cfg.SweepCron, s.runSweep); err != nil {
		return err
	}
	if _, err := s.cron.AddFunc(cfg.PurgeCron, s.runPurge); err != nil {
		return err
	}

	s.cron.Start()
	s.app.Logger.Info().
		Str("sweep", cfg.SweepCron).
		Str("purge", cfg.PurgeCron).
		Msg("Scheduler started")
	return nil
}

// Stop halts the cron runner. Jobs already executing run to completion.
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	s.app.Logger.Info().Msg("Scheduler stopped")
}

func (s *Scheduler) runSweep() {
	ctx, cancel := context.WithTimeout(context.Background(), s.app.Config.Refresh.GetSweepTimeout())
	defer cancel()

	if err := s.app.Coordinator.Sweep(ctx); err != nil {
		s.app.Logger.Warn().Err(err).Msg("Scheduled sweep ended early")
	}
}

func (s *Scheduler) runPurge() {
	ctx := context.Background()
	days := s.app.Config.Refresh.GetPurgeDays()

	count, err := s.app.Storage.AnalysisStore().PurgeOlderThan(ctx, days)
	if err != nil {
		s.app.Logger.Error().Err(err).Msg("Scheduled purge failed")
		return
	}
	s.app.Logger.Info().Int("purged", count).Int("days", days).Msg("Scheduled purge complete")
}
