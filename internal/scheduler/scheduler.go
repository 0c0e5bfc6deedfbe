// Package scheduler runs periodic maintenance jobs for the server.
package scheduler

import (
	"fmt"
	"log/slog"

	"github.com/robfig/cron/v3"
)

// SessionCleaner removes expired sessions. auth.Service implements it.
type SessionCleaner interface {
	Cleanup() (int64, error)
}

// Scheduler manages the cron jobs.
type Scheduler struct {
	cron     *cron.Cron
	sessions SessionCleaner
}

// New creates a scheduler. Overlapping runs of a job are skipped.
func New(sessions SessionCleaner) *Scheduler {
	return &Scheduler{
		cron: cron.New(cron.WithChain(
			cron.Recover(cron.DefaultLogger),
			cron.SkipIfStillRunning(cron.DefaultLogger),
		)),
		sessions: sessions,
	}
}

// Register adds the session cleanup job on spec, a standard five-field cron
// expression or a descriptor such as "@hourly".
func (s *Scheduler) Register(spec string) error {
	if _, err := s.cron.AddFunc(spec, s.RunCleanup); err != nil {
		return fmt.Errorf("register session cleanup %q: %w", spec, err)
	}
	return nil
}

// Start runs the scheduler in the background.
func (s *Scheduler) Start() {
	s.cron.Start()
	slog.Info("scheduler started", "jobs", len(s.cron.Entries()))
}

// Stop stops the scheduler and waits for running jobs to finish.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
	slog.Info("scheduler stopped")
}

// RunCleanup removes expired sessions now.
func (s *Scheduler) RunCleanup() {
	n, err := s.sessions.Cleanup()
	if err != nil {
		slog.Error("session cleanup failed", "error", err)
		return
	}
	if n > 0 {
		slog.Info("expired sessions removed", "count", n)
	}
}
