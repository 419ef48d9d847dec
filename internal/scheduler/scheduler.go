package scheduler

import (
	"context"
	"fmt"
	"time"

	"BreadthLab/internal/usecase"
	applogger "BreadthLab/pkg/logger"

	"github.com/robfig/cron/v3"
)

const refreshTimeout = 10 * time.Minute

// Scheduler runs the indicator refresh on a cron spec.
type Scheduler struct {
	cron      *cron.Cron
	refresher *usecase.RefreshUseCase
	l         *applogger.Logger
}

func New(refresher *usecase.RefreshUseCase, l *applogger.Logger) *Scheduler {
	return &Scheduler{
		cron:      cron.New(cron.WithSeconds()),
		refresher: refresher,
		l:         l,
	}
}

// Register adds the refresh job. Spec uses the six-field cron format with
// seconds, e.g. "0 30 16 * * 1-5" for 16:30 on weekdays.
func (s *Scheduler) Register(spec string) error {
	if _, err := s.cron.AddFunc(spec, s.refresh); err != nil {
		return fmt.Errorf("register refresh job: %w", err)
	}
	return nil
}

func (s *Scheduler) Start() {
	s.cron.Start()
	s.l.Info("scheduler started")
}

// Stop stops the cron loop and waits for a running job to finish.
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	s.l.Info("scheduler stopped")
}

// RunNow executes the refresh immediately, used for run-on-start.
func (s *Scheduler) RunNow() {
	s.refresh()
}

func (s *Scheduler) refresh() {
	ctx, cancel := context.WithTimeout(context.Background(), refreshTimeout)
	defer cancel()

	start := time.Now()
	if err := s.refresher.Refresh(ctx); err != nil {
		s.l.Error("scheduled refresh failed", applogger.Error(err))
		return
	}
	s.l.Info("scheduled refresh finished", applogger.Duration("duration_ms", time.Since(start)))
}
