package jobs

import (
	"context"
	"time"

	"go.uber.org/zap"

	"classpulse/internal/config"
	"classpulse/internal/repository"
	"classpulse/internal/service/notify"
)

// Sweeper runs the periodic maintenance loops: deadline reminders for
// upcoming tasks and deletion of expired notifications.
type Sweeper struct {
	cfg     *config.Config
	svc     *notify.Service
	classes repository.ClassRepository
	log     *zap.Logger
}

func NewSweeper(cfg *config.Config, svc *notify.Service, classes repository.ClassRepository, logger *zap.Logger) *Sweeper {
	return &Sweeper{cfg: cfg, svc: svc, classes: classes, log: logger}
}

// Run blocks until ctx is cancelled. Both sweeps are idempotent, so a missed
// or doubled tick is harmless.
func (s *Sweeper) Run(ctx context.Context) {
	remind := time.NewTicker(s.cfg.ReminderInterval)
	expire := time.NewTicker(s.cfg.ExpireInterval)
	defer remind.Stop()
	defer expire.Stop()

	s.log.Info("sweeper started",
		zap.Duration("reminder_interval", s.cfg.ReminderInterval),
		zap.Duration("expire_interval", s.cfg.ExpireInterval),
	)

	for {
		select {
		case <-ctx.Done():
			s.log.Info("sweeper stopped")
			return
		case <-remind.C:
			s.sweepReminders(ctx)
		case <-expire.C:
			s.sweepExpired(ctx)
		}
	}
}

func (s *Sweeper) sweepReminders(ctx context.Context) {
	cutoff := time.Now().UTC().Add(s.cfg.ReminderLookahead)
	tasks, err := s.classes.ListTasksDueBefore(ctx, cutoff)
	if err != nil {
		s.log.Error("task lookup failed", zap.Error(err))
		return
	}
	for _, task := range tasks {
		count, err := s.svc.RemindTask(ctx, task)
		if err != nil {
			s.log.Error("reminder sweep failed",
				zap.Int64("task_id", task.ID),
				zap.Error(err),
			)
			continue
		}
		if count > 0 {
			s.log.Info("reminders sent",
				zap.Int64("task_id", task.ID),
				zap.Int("count", count),
			)
		}
	}
}

func (s *Sweeper) sweepExpired(ctx context.Context) {
	count, err := s.svc.Expire(ctx)
	if err != nil {
		s.log.Error("expiry sweep failed", zap.Error(err))
		return
	}
	if count > 0 {
		s.log.Info("expired notifications removed", zap.Int64("count", count))
	}
}
