package notify

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"classpulse/internal/config"
	"classpulse/internal/domain"
	"classpulse/internal/email"
	"classpulse/internal/model"
	auditsvc "classpulse/internal/service/audit"
	"classpulse/internal/store/memory"
)

type busCall struct {
	Room  string
	Event string
	Data  any
}

type busSpy struct {
	mu    sync.Mutex
	calls []busCall
}

func (b *busSpy) Broadcast(room, event string, data any) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.calls = append(b.calls, busCall{Room: room, Event: event, Data: data})
}

func (b *busSpy) byEvent(event string) []busCall {
	b.mu.Lock()
	defer b.mu.Unlock()
	var out []busCall
	for _, c := range b.calls {
		if c.Event == event {
			out = append(out, c)
		}
	}
	return out
}

type mailerSpy struct {
	mu       sync.Mutex
	messages []*email.Message
}

func (m *mailerSpy) Send(messages ...*email.Message) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.messages = append(m.messages, messages...)
}

func (m *mailerSpy) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.messages)
}

func newFixture(t *testing.T) (*Service, *memory.Store, *busSpy, *mailerSpy) {
	t.Helper()
	store := memory.New(zap.NewNop())
	bus := &busSpy{}
	mailer := &mailerSpy{}
	recorder := auditsvc.NewRecorder(&config.Config{ActivityFeedSize: 10}, store, bus, zap.NewNop())
	svc := NewService(store, store, recorder, bus, mailer, zap.NewNop())
	return svc, store, bus, mailer
}

func seedUser(store *memory.Store, id, role string, classIDs, guardianIDs []string) {
	store.PutUser(model.User{
		ID:          id,
		Name:        "User " + id,
		Email:       id + "@school.test",
		Role:        role,
		ClassIDs:    classIDs,
		GuardianIDs: guardianIDs,
	})
}

func TestServiceCreate(t *testing.T) {
	ctx := context.Background()

	t.Run("missing recipient", func(t *testing.T) {
		svc, _, _, _ := newFixture(t)
		_, err := svc.Create(ctx, "t-1", model.Notification{Title: "a", Message: "b"})
		require.ErrorIs(t, err, domain.ErrValidation)
	})

	t.Run("missing title", func(t *testing.T) {
		svc, _, _, _ := newFixture(t)
		_, err := svc.Create(ctx, "t-1", model.Notification{UserID: "u-1", Message: "b"})
		require.ErrorIs(t, err, domain.ErrValidation)
	})

	t.Run("invalid type", func(t *testing.T) {
		svc, _, _, _ := newFixture(t)
		_, err := svc.Create(ctx, "t-1", model.Notification{
			UserID: "u-1", Title: "a", Message: "b", Type: "bogus",
		})
		require.ErrorIs(t, err, domain.ErrInvalidNotificationType)
	})

	t.Run("invalid priority", func(t *testing.T) {
		svc, _, _, _ := newFixture(t)
		_, err := svc.Create(ctx, "t-1", model.Notification{
			UserID: "u-1", Title: "a", Message: "b", Priority: "critical",
		})
		require.ErrorIs(t, err, domain.ErrInvalidPriority)
	})

	t.Run("defaults type and priority", func(t *testing.T) {
		svc, _, _, _ := newFixture(t)
		created, err := svc.Create(ctx, "t-1", model.Notification{
			UserID: "u-1", Title: "a", Message: "b",
		})
		require.NoError(t, err)
		require.Equal(t, domain.NotificationTypeInfo, created.Type)
		require.Equal(t, domain.PriorityMedium, created.Priority)
		require.NotZero(t, created.ID)
	})

	t.Run("delivers, audits, mails", func(t *testing.T) {
		svc, store, bus, mailer := newFixture(t)
		seedUser(store, "u-1", domain.RoleStudent, nil, nil)

		created, err := svc.Create(ctx, "t-1", model.Notification{
			UserID: "u-1", Title: "Exam moved", Message: "Now on Friday",
		})
		require.NoError(t, err)

		pushes := bus.byEvent(domain.EventNotificationNew)
		require.Len(t, pushes, 1)
		require.Equal(t, domain.UserRoom("u-1"), pushes[0].Room)
		require.Equal(t, created, pushes[0].Data)

		stats := bus.byEvent(domain.EventDashboardStats)
		require.Len(t, stats, 1)
		require.Equal(t, domain.UserRoom("u-1"), stats[0].Room)

		feed, err := store.ListRecentAuditEntries(ctx, 10)
		require.NoError(t, err)
		require.Len(t, feed, 1)
		require.Equal(t, domain.ActionCreateNotification, feed[0].Action)
		require.Equal(t, "t-1", feed[0].UserID)

		require.Equal(t, 1, mailer.count())
		require.Equal(t, "u-1@school.test", mailer.messages[0].ToAddr)
		require.Equal(t, "Exam moved", mailer.messages[0].Subject)
	})

	t.Run("no email without address", func(t *testing.T) {
		svc, store, _, mailer := newFixture(t)
		store.PutUser(model.User{ID: "u-1", Role: domain.RoleStudent})

		_, err := svc.Create(ctx, "t-1", model.Notification{
			UserID: "u-1", Title: "a", Message: "b",
		})
		require.NoError(t, err)
		require.Zero(t, mailer.count())
	})
}

func TestServiceCreateBatch(t *testing.T) {
	ctx := context.Background()
	svc, store, bus, _ := newFixture(t)

	ids := []string{"u-1", "u-2", "u-3"}
	created, err := svc.CreateBatch(ctx, "a-1", ids, model.Notification{
		Title: "Snow day", Message: "School closed",
	})
	require.NoError(t, err)
	require.Len(t, created, 3)
	for i, n := range created {
		require.Equal(t, ids[i], n.UserID)
		require.NotZero(t, n.ID)
	}

	require.Len(t, bus.byEvent(domain.EventNotificationNew), 3)

	feed, err := store.ListRecentAuditEntries(ctx, 10)
	require.NoError(t, err)
	require.Len(t, feed, 1)
	require.Equal(t, domain.ActionBatchNotification, feed[0].Action)
	require.Contains(t, feed[0].Details, "3 recipients")
}

func TestServiceCreateForRoles(t *testing.T) {
	ctx := context.Background()
	svc, store, _, _ := newFixture(t)
	seedUser(store, "t-1", domain.RoleTeacher, nil, nil)
	seedUser(store, "t-2", domain.RoleTeacher, nil, nil)
	seedUser(store, "s-1", domain.RoleStudent, nil, nil)

	created, err := svc.CreateForRoles(ctx, "a-1", []string{domain.RoleTeacher}, model.Notification{
		Title: "Staff meeting", Message: "3pm in the hall",
	})
	require.NoError(t, err)
	require.Len(t, created, 2)
	for _, n := range created {
		require.NotEqual(t, "s-1", n.UserID)
	}
}

func TestServiceCreateForClassRoster(t *testing.T) {
	ctx := context.Background()

	t.Run("students only", func(t *testing.T) {
		svc, store, _, _ := newFixture(t)
		seedUser(store, "s-1", domain.RoleStudent, []string{"c-1"}, nil)
		seedUser(store, "s-2", domain.RoleStudent, []string{"c-1"}, nil)
		seedUser(store, "s-3", domain.RoleStudent, []string{"c-2"}, nil)

		created, err := svc.CreateForClassRoster(ctx, "t-1", "c-1", model.Notification{
			Title: "Field trip", Message: "Bring a signed form",
		}, nil)
		require.NoError(t, err)
		require.Len(t, created, 2)
	})

	t.Run("guardians get their own wording, deduplicated", func(t *testing.T) {
		svc, store, _, _ := newFixture(t)
		// Siblings in the same class sharing one guardian.
		seedUser(store, "g-1", domain.RoleParent, nil, nil)
		seedUser(store, "s-1", domain.RoleStudent, []string{"c-1"}, []string{"g-1"})
		seedUser(store, "s-2", domain.RoleStudent, []string{"c-1"}, []string{"g-1"})

		created, err := svc.CreateForClassRoster(ctx, "t-1", "c-1", model.Notification{
			Title: "Field trip", Message: "Bring a signed form",
		}, &model.Notification{
			Title: "Field trip", Message: "Please sign your child's form",
		})
		require.NoError(t, err)
		require.Len(t, created, 3)

		var guardianCopies int
		for _, n := range created {
			if n.UserID == "g-1" {
				guardianCopies++
				require.Equal(t, "Please sign your child's form", n.Message)
			} else {
				require.Equal(t, "Bring a signed form", n.Message)
			}
		}
		require.Equal(t, 1, guardianCopies)

		feed, err := store.ListRecentAuditEntries(ctx, 10)
		require.NoError(t, err)
		var classAudits int
		for _, e := range feed {
			if e.Action == domain.ActionClassNotification {
				classAudits++
				require.Contains(t, e.Details, "3 notifications")
			}
		}
		require.Equal(t, 1, classAudits)
	})
}

func TestServiceMarkRead(t *testing.T) {
	ctx := context.Background()

	t.Run("owner marks read", func(t *testing.T) {
		svc, _, bus, _ := newFixture(t)
		created, err := svc.Create(ctx, "t-1", model.Notification{
			UserID: "u-1", Title: "a", Message: "b",
		})
		require.NoError(t, err)

		updated, err := svc.MarkRead(ctx, created.ID, "u-1")
		require.NoError(t, err)
		require.True(t, updated.Read)
		require.NotNil(t, updated.ReadAt)

		require.Len(t, bus.byEvent(domain.EventNotificationUpdate), 1)
	})

	t.Run("read timestamp does not move", func(t *testing.T) {
		svc, _, _, _ := newFixture(t)
		created, err := svc.Create(ctx, "t-1", model.Notification{
			UserID: "u-1", Title: "a", Message: "b",
		})
		require.NoError(t, err)

		first, err := svc.MarkRead(ctx, created.ID, "u-1")
		require.NoError(t, err)
		time.Sleep(5 * time.Millisecond)
		second, err := svc.MarkRead(ctx, created.ID, "u-1")
		require.NoError(t, err)
		require.Equal(t, first.ReadAt, second.ReadAt)
	})

	t.Run("another user's id is not found", func(t *testing.T) {
		svc, _, _, _ := newFixture(t)
		created, err := svc.Create(ctx, "t-1", model.Notification{
			UserID: "u-1", Title: "a", Message: "b",
		})
		require.NoError(t, err)

		_, err = svc.MarkRead(ctx, created.ID, "u-2")
		require.ErrorIs(t, err, domain.ErrNotFound)
	})
}

func TestServiceBulkOps(t *testing.T) {
	ctx := context.Background()
	svc, _, _, _ := newFixture(t)

	for i := 0; i < 3; i++ {
		_, err := svc.Create(ctx, "t-1", model.Notification{
			UserID: "u-1", Title: "a", Message: "b",
		})
		require.NoError(t, err)
	}
	_, err := svc.Create(ctx, "t-1", model.Notification{
		UserID: "u-2", Title: "a", Message: "b",
	})
	require.NoError(t, err)

	count, err := svc.MarkAllRead(ctx, "u-1")
	require.NoError(t, err)
	require.Equal(t, int64(3), count)

	// Second pass has nothing left to mark.
	count, err = svc.MarkAllRead(ctx, "u-1")
	require.NoError(t, err)
	require.Zero(t, count)

	deleted, err := svc.DeleteAllRead(ctx, "u-1")
	require.NoError(t, err)
	require.Equal(t, int64(3), deleted)

	stats, err := svc.Stats(ctx, "u-2")
	require.NoError(t, err)
	require.Equal(t, int64(1), stats.Total)
	require.Equal(t, int64(1), stats.Unread)
}

func TestServiceStats(t *testing.T) {
	ctx := context.Background()
	svc, _, _, _ := newFixture(t)

	n1, err := svc.Create(ctx, "t-1", model.Notification{
		UserID: "u-1", Title: "a", Message: "b", Type: domain.NotificationTypeGrade,
	})
	require.NoError(t, err)
	_, err = svc.Create(ctx, "t-1", model.Notification{
		UserID: "u-1", Title: "a", Message: "b", Type: domain.NotificationTypeGrade,
	})
	require.NoError(t, err)
	_, err = svc.Create(ctx, "t-1", model.Notification{
		UserID: "u-1", Title: "a", Message: "b", Priority: domain.PriorityHigh,
	})
	require.NoError(t, err)

	_, err = svc.MarkRead(ctx, n1.ID, "u-1")
	require.NoError(t, err)

	stats, err := svc.Stats(ctx, "u-1")
	require.NoError(t, err)
	require.Equal(t, int64(3), stats.Total)
	require.Equal(t, int64(2), stats.Unread)
	require.Equal(t, int64(2), stats.ByType[domain.NotificationTypeGrade])
	require.Equal(t, int64(1), stats.ByPriority[domain.PriorityHigh])
}

func TestServiceExpire(t *testing.T) {
	ctx := context.Background()
	svc, store, _, _ := newFixture(t)

	past := time.Now().UTC().Add(-time.Hour)
	future := time.Now().UTC().Add(time.Hour)
	_, err := store.CreateNotification(ctx, model.Notification{
		UserID: "u-1", Title: "old", Message: "m", Type: domain.NotificationTypeInfo,
		Priority: domain.PriorityMedium, ExpiresAt: &past,
	})
	require.NoError(t, err)
	_, err = store.CreateNotification(ctx, model.Notification{
		UserID: "u-1", Title: "fresh", Message: "m", Type: domain.NotificationTypeInfo,
		Priority: domain.PriorityMedium, ExpiresAt: &future,
	})
	require.NoError(t, err)
	_, err = store.CreateNotification(ctx, model.Notification{
		UserID: "u-1", Title: "keeper", Message: "m", Type: domain.NotificationTypeInfo,
		Priority: domain.PriorityMedium,
	})
	require.NoError(t, err)

	count, err := svc.Expire(ctx)
	require.NoError(t, err)
	require.Equal(t, int64(1), count)

	remaining, err := svc.List(ctx, "u-1", model.NotificationFilter{})
	require.NoError(t, err)
	require.Len(t, remaining, 2)

	feed, err := store.ListRecentAuditEntries(ctx, 10)
	require.NoError(t, err)
	require.Len(t, feed, 1)
	require.Equal(t, domain.ActionExpireNotifications, feed[0].Action)
	require.Equal(t, "system", feed[0].UserID)

	// Nothing left to expire, and no audit noise for a no-op sweep.
	count, err = svc.Expire(ctx)
	require.NoError(t, err)
	require.Zero(t, count)
	feed, err = store.ListRecentAuditEntries(ctx, 10)
	require.NoError(t, err)
	require.Len(t, feed, 1)
}

func TestServiceRemindTask(t *testing.T) {
	ctx := context.Background()
	svc, store, _, _ := newFixture(t)
	seedUser(store, "s-1", domain.RoleStudent, []string{"c-1"}, nil)
	seedUser(store, "s-2", domain.RoleStudent, []string{"c-1"}, nil)

	task := store.PutTask(model.Task{
		ClassID: "c-1",
		Title:   "Essay",
		DueAt:   time.Now().UTC().Add(6 * time.Hour),
	})

	count, err := svc.RemindTask(ctx, task)
	require.NoError(t, err)
	require.Equal(t, 2, count)

	list, err := svc.List(ctx, "s-1", model.NotificationFilter{})
	require.NoError(t, err)
	require.Len(t, list, 1)
	require.Equal(t, "Reminder: Essay", list[0].Title)
	require.Equal(t, domain.NotificationTypeTask, list[0].Type)
	require.Equal(t, domain.PriorityHigh, list[0].Priority)
	require.Equal(t, domain.CategoryReminder, list[0].Category)

	// A second sweep for the same deadline creates nothing.
	count, err = svc.RemindTask(ctx, task)
	require.NoError(t, err)
	require.Zero(t, count)

	list, err = svc.List(ctx, "s-1", model.NotificationFilter{})
	require.NoError(t, err)
	require.Len(t, list, 1)
}
