// Package scheduler implements background task scheduling for
// Worldforge, including daily build-history pruning and host
// resource reporting.
package scheduler

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/worldforge-project/worldforge/internal/config"
	"github.com/worldforge-project/worldforge/internal/util"
)

// HistoryPruner is the slice of the history store the scheduler needs.
type HistoryPruner interface {
	Prune(retentionDays int) (int64, error)
}

// Scheduler manages periodic background tasks.
type Scheduler struct {
	cfg     *config.Config
	history HistoryPruner
}

// NewScheduler creates a new task scheduler.
func NewScheduler(cfg *config.Config, history HistoryPruner) *Scheduler {
	return &Scheduler{
		cfg:     cfg,
		history: history,
	}
}

// Start begins running all scheduled tasks. It blocks until the
// context is cancelled.
func (s *Scheduler) Start(ctx context.Context) {
	log.Info().Msg("scheduler started")

	if s.history != nil && s.cfg.Database.RetentionDays > 0 {
		go s.runPruneLoop(ctx)
	}

	go s.runResourceReportLoop(ctx)

	<-ctx.Done()
	log.Info().Msg("scheduler stopped")
}

// runPruneLoop prunes the build history once a day at the quiet hour.
func (s *Scheduler) runPruneLoop(ctx context.Context) {
	for {
		nextRun := nextDailyRun(4, 0) // 4:00 AM local time
		sleepDuration := time.Until(nextRun)
		if sleepDuration <= 0 {
			sleepDuration = 24 * time.Hour
		}

		log.Info().
			Time("next_run", nextRun).
			Dur("sleep", sleepDuration).
			Msg("history prune scheduled")

		select {
		case <-ctx.Done():
			return
		case <-time.After(sleepDuration):
			s.runPrune()
		}
	}
}

// runPrune deletes history entries outside the retention window.
func (s *Scheduler) runPrune() {
	retentionDays := s.cfg.Database.RetentionDays

	deleted, err := s.history.Prune(retentionDays)
	if err != nil {
		log.Warn().Err(err).Msg("history prune failed")
		return
	}

	log.Info().
		Int64("deleted_rows", deleted).
		Int("retention_days", retentionDays).
		Msg("history prune completed")
}

// runResourceReportLoop logs host resource usage periodically so the
// log file carries a baseline for postmortems.
func (s *Scheduler) runResourceReportLoop(ctx context.Context) {
	ticker := time.NewTicker(time.Hour)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.reportResources()
		}
	}
}

// reportResources logs current CPU and memory usage.
func (s *Scheduler) reportResources() {
	event := log.Info()

	if cpuUsage, err := util.GetCPUUsage(); err == nil {
		event = event.Float64("cpu_percent", cpuUsage)
	}
	if memUsage, err := util.GetMemoryUsage(); err == nil {
		event = event.Float64("memory_percent", memUsage.UsedPercent)
	}

	event.Msg("host resource usage")
}

// nextDailyRun returns the next occurrence of the given local time.
func nextDailyRun(hour, minute int) time.Time {
	now := time.Now()
	next := time.Date(now.Year(), now.Month(), now.Day(), hour, minute, 0, 0, now.Location())

	if next.Before(now) {
		next = next.Add(24 * time.Hour)
	}

	return next
}
