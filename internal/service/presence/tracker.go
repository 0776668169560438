package presence

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"classpulse/internal/domain"
	"classpulse/internal/model"
	"classpulse/internal/repository"
)

// Broadcaster is the slice of the hub the tracker needs. Presence changes
// are public, so they go to every open connection.
type Broadcaster interface {
	BroadcastAll(event string, data any)
}

// Tracker reference-counts live connections per user. A user is online while
// the count is above zero; closing one of several connections never flips
// them offline.
type Tracker struct {
	users repository.UserRepository
	bus   Broadcaster
	log   *zap.Logger

	mu    sync.Mutex
	conns map[string]int
}

func NewTracker(users repository.UserRepository, bus Broadcaster, logger *zap.Logger) *Tracker {
	return &Tracker{
		users: users,
		bus:   bus,
		log:   logger,
		conns: make(map[string]int),
	}
}

func (t *Tracker) Connect(ctx context.Context, userID string) {
	t.mu.Lock()
	t.conns[userID]++
	first := t.conns[userID] == 1
	t.mu.Unlock()

	if first {
		t.setStatus(ctx, userID, domain.PresenceOnline)
	}
}

func (t *Tracker) Disconnect(ctx context.Context, userID string) {
	t.mu.Lock()
	if t.conns[userID] > 0 {
		t.conns[userID]--
	}
	last := t.conns[userID] == 0
	if last {
		delete(t.conns, userID)
	}
	t.mu.Unlock()

	if last {
		t.setStatus(ctx, userID, domain.PresenceOffline)
	}
}

// SetAway is driven by a client heartbeat, never by connect/disconnect. It
// only applies while the user still has a live connection.
func (t *Tracker) SetAway(ctx context.Context, userID string) {
	if !t.IsOnline(userID) {
		return
	}
	t.setStatus(ctx, userID, domain.PresenceAway)
}

func (t *Tracker) IsOnline(userID string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.conns[userID] > 0
}

// setStatus persists and broadcasts; a failed persist is logged but still
// broadcast, since the in-memory count is the authority for liveness.
func (t *Tracker) setStatus(ctx context.Context, userID, status string) {
	if err := t.users.SetPresence(ctx, userID, status, time.Now().UTC()); err != nil {
		t.log.Error("set presence failed",
			zap.String("user_id", userID),
			zap.String("status", status),
			zap.Error(err),
		)
	}
	t.bus.BroadcastAll(domain.EventUserStatusUpdate, model.StatusUpdate{
		UserID: userID,
		Status: status,
	})
}
