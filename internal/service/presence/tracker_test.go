package presence

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"classpulse/internal/domain"
	"classpulse/internal/model"
	"classpulse/internal/store/memory"
)

type busSpy struct {
	mu     sync.Mutex
	events []model.StatusUpdate
}

func (b *busSpy) BroadcastAll(event string, data any) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if update, ok := data.(model.StatusUpdate); ok && event == domain.EventUserStatusUpdate {
		b.events = append(b.events, update)
	}
}

func (b *busSpy) snapshot() []model.StatusUpdate {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]model.StatusUpdate(nil), b.events...)
}

func newFixture(t *testing.T) (*Tracker, *busSpy, *memory.Store) {
	t.Helper()
	store := memory.New(zap.NewNop())
	store.PutUser(model.User{ID: "u-1", Name: "Ada", Role: domain.RoleStudent})
	bus := &busSpy{}
	return NewTracker(store, bus, zap.NewNop()), bus, store
}

func TestTrackerConnectDisconnect(t *testing.T) {
	ctx := context.Background()

	t.Run("first connection flips online", func(t *testing.T) {
		tracker, bus, store := newFixture(t)
		tracker.Connect(ctx, "u-1")

		require.True(t, tracker.IsOnline("u-1"))
		events := bus.snapshot()
		require.Len(t, events, 1)
		require.Equal(t, model.StatusUpdate{UserID: "u-1", Status: domain.PresenceOnline}, events[0])

		u, err := store.GetUser(ctx, "u-1")
		require.NoError(t, err)
		require.Equal(t, domain.PresenceOnline, u.Status)
		require.False(t, u.LastSeen.IsZero())
	})

	t.Run("second connection is silent", func(t *testing.T) {
		tracker, bus, _ := newFixture(t)
		tracker.Connect(ctx, "u-1")
		tracker.Connect(ctx, "u-1")

		require.Len(t, bus.snapshot(), 1)
	})

	t.Run("closing one of two stays online", func(t *testing.T) {
		tracker, bus, store := newFixture(t)
		tracker.Connect(ctx, "u-1")
		tracker.Connect(ctx, "u-1")
		tracker.Disconnect(ctx, "u-1")

		require.True(t, tracker.IsOnline("u-1"))
		require.Len(t, bus.snapshot(), 1)

		u, err := store.GetUser(ctx, "u-1")
		require.NoError(t, err)
		require.Equal(t, domain.PresenceOnline, u.Status)
	})

	t.Run("last disconnect flips offline", func(t *testing.T) {
		tracker, bus, _ := newFixture(t)
		tracker.Connect(ctx, "u-1")
		tracker.Connect(ctx, "u-1")
		tracker.Disconnect(ctx, "u-1")
		tracker.Disconnect(ctx, "u-1")

		require.False(t, tracker.IsOnline("u-1"))
		events := bus.snapshot()
		require.Len(t, events, 2)
		require.Equal(t, domain.PresenceOffline, events[1].Status)
	})

	t.Run("disconnect without connect is a no-op", func(t *testing.T) {
		tracker, bus, _ := newFixture(t)
		tracker.Disconnect(ctx, "u-1")

		require.Empty(t, bus.snapshot())
	})
}

func TestTrackerSetAway(t *testing.T) {
	ctx := context.Background()

	t.Run("away while connected", func(t *testing.T) {
		tracker, bus, _ := newFixture(t)
		tracker.Connect(ctx, "u-1")
		tracker.SetAway(ctx, "u-1")

		events := bus.snapshot()
		require.Len(t, events, 2)
		require.Equal(t, domain.PresenceAway, events[1].Status)
		require.True(t, tracker.IsOnline("u-1"))
	})

	t.Run("away without a connection is ignored", func(t *testing.T) {
		tracker, bus, _ := newFixture(t)
		tracker.SetAway(ctx, "u-1")

		require.Empty(t, bus.snapshot())
	})
}

func TestTrackerBroadcastsForUnknownUser(t *testing.T) {
	// The store has no record, but the in-memory count is still the
	// authority: the broadcast goes out anyway.
	ctx := context.Background()
	store := memory.New(zap.NewNop())
	bus := &busSpy{}
	tracker := NewTracker(store, bus, zap.NewNop())

	tracker.Connect(ctx, "ghost")
	require.True(t, tracker.IsOnline("ghost"))
	require.Len(t, bus.snapshot(), 1)
}
