package audit

import (
	"context"
	"time"

	"go.uber.org/zap"

	"classpulse/internal/config"
	"classpulse/internal/domain"
	"classpulse/internal/model"
	"classpulse/internal/repository"
)

type Broadcaster interface {
	Broadcast(room, event string, data any)
}

// Recorder appends immutable audit entries and keeps the live activity feed
// current. It deliberately has no error return: audit persistence failing
// must never abort the action being audited.
type Recorder struct {
	store    repository.AuditRepository
	bus      Broadcaster
	log      *zap.Logger
	feedSize int
}

func NewRecorder(cfg *config.Config, store repository.AuditRepository, bus Broadcaster, logger *zap.Logger) *Recorder {
	return &Recorder{
		store:    store,
		bus:      bus,
		log:      logger,
		feedSize: cfg.ActivityFeedSize,
	}
}

func (r *Recorder) Record(ctx context.Context, e model.AuditEntry) model.AuditEntry {
	if e.Status == "" {
		e.Status = domain.AuditStatusSuccess
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now().UTC()
	}
	created, err := r.store.CreateAuditEntry(ctx, e)
	if err != nil {
		r.log.Error("audit entry persist failed",
			zap.String("user_id", e.UserID),
			zap.String("action", e.Action),
			zap.Error(err),
		)
		return e
	}

	feed, err := r.store.ListRecentAuditEntries(ctx, r.feedSize)
	if err != nil {
		r.log.Error("audit feed refresh failed", zap.Error(err))
		return created
	}
	r.bus.Broadcast(domain.ActivityRoom, domain.EventActivityFeed, feed)
	return created
}

func (r *Recorder) Feed(ctx context.Context) ([]model.AuditEntry, error) {
	return r.store.ListRecentAuditEntries(ctx, r.feedSize)
}
