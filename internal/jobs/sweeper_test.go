package jobs

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"classpulse/internal/config"
	"classpulse/internal/domain"
	"classpulse/internal/email"
	"classpulse/internal/model"
	auditsvc "classpulse/internal/service/audit"
	"classpulse/internal/service/notify"
	"classpulse/internal/store/memory"
)

type nopBus struct{}

func (nopBus) Broadcast(room, event string, data any) {}

type nopMailer struct{}

func (nopMailer) Send(...*email.Message) {}

func newSweeperFixture(t *testing.T) (*Sweeper, *memory.Store, *notify.Service) {
	t.Helper()
	cfg := &config.Config{
		ActivityFeedSize:  10,
		ReminderLookahead: 24 * time.Hour,
		ReminderInterval:  10 * time.Millisecond,
		ExpireInterval:    10 * time.Millisecond,
	}
	store := memory.New(zap.NewNop())
	recorder := auditsvc.NewRecorder(cfg, store, nopBus{}, zap.NewNop())
	svc := notify.NewService(store, store, recorder, nopBus{}, nopMailer{}, zap.NewNop())
	return NewSweeper(cfg, svc, store, zap.NewNop()), store, svc
}

func eventually(t *testing.T, check func() bool) {
	t.Helper()
	require.Eventually(t, check, time.Second, 5*time.Millisecond)
}

func TestSweeperReminders(t *testing.T) {
	sweeper, store, _ := newSweeperFixture(t)
	store.PutUser(model.User{ID: "s-1", Role: domain.RoleStudent, ClassIDs: []string{"c-1"}})
	store.PutTask(model.Task{
		ClassID: "c-1",
		Title:   "Essay",
		DueAt:   time.Now().UTC().Add(2 * time.Hour),
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go sweeper.Run(ctx)

	eventually(t, func() bool {
		list, err := store.ListNotifications(ctx, "s-1", model.NotificationFilter{})
		return err == nil && len(list) == 1
	})

	// Give the ticker a few more rounds: the dedupe must hold the count at one.
	time.Sleep(50 * time.Millisecond)
	list, err := store.ListNotifications(ctx, "s-1", model.NotificationFilter{})
	require.NoError(t, err)
	require.Len(t, list, 1)
	require.Equal(t, "Reminder: Essay", list[0].Title)
}

func TestSweeperExpiry(t *testing.T) {
	sweeper, store, _ := newSweeperFixture(t)
	past := time.Now().UTC().Add(-time.Minute)
	_, err := store.CreateNotification(context.Background(), model.Notification{
		UserID: "s-1", Title: "stale", Message: "m", Type: domain.NotificationTypeInfo,
		Priority: domain.PriorityMedium, ExpiresAt: &past,
	})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go sweeper.Run(ctx)

	eventually(t, func() bool {
		list, err := store.ListNotifications(ctx, "s-1", model.NotificationFilter{})
		return err == nil && len(list) == 0
	})
}

func TestSweeperStopsOnCancel(t *testing.T) {
	sweeper, _, _ := newSweeperFixture(t)
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan struct{})
	go func() {
		sweeper.Run(ctx)
		close(done)
	}()

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("sweeper did not stop on cancel")
	}
}
