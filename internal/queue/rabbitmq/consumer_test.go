package rabbitmq

import (
	"context"
	"sync"
	"testing"

	amqp "github.com/rabbitmq/amqp091-go"
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

type busSpy struct {
	mu    sync.Mutex
	calls []struct {
		Room  string
		Event string
		Data  any
	}
}

func (b *busSpy) Broadcast(room, event string, data any) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.calls = append(b.calls, struct {
		Room  string
		Event string
		Data  any
	}{room, event, data})
}

func (b *busSpy) byEvent(event string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	n := 0
	for _, c := range b.calls {
		if c.Event == event {
			n++
		}
	}
	return n
}

type nopMailer struct{}

func (nopMailer) Send(...*email.Message) {}

func newConsumerFixture(t *testing.T) (*Consumer, *memory.Store, *busSpy) {
	t.Helper()
	cfg := &config.Config{
		RabbitPublishPrefix: "school",
		SnapshotLimit:       50,
		ActivityFeedSize:    10,
	}
	store := memory.New(zap.NewNop())
	bus := &busSpy{}
	recorder := auditsvc.NewRecorder(cfg, store, bus, zap.NewNop())
	svc := notify.NewService(store, store, recorder, bus, nopMailer{}, zap.NewNop())
	consumer := &Consumer{
		cfg:     cfg,
		svc:     svc,
		classes: store,
		bus:     bus,
		logger:  zap.NewNop(),
	}
	return consumer, store, bus
}

func delivery(routingKey, body string) amqp.Delivery {
	return amqp.Delivery{RoutingKey: routingKey, Body: []byte(body)}
}

func TestHandleNotificationSend(t *testing.T) {
	ctx := context.Background()

	t.Run("single recipient", func(t *testing.T) {
		consumer, store, bus := newConsumerFixture(t)
		consumer.handleMessage(ctx, delivery("school.notification.send",
			`{"user_id":"s-1","title":"Exam","message":"Friday","type":"warning"}`))

		list, err := store.ListNotifications(ctx, "s-1", model.NotificationFilter{})
		require.NoError(t, err)
		require.Len(t, list, 1)
		require.Equal(t, "Exam", list[0].Title)
		require.Equal(t, domain.NotificationTypeWarning, list[0].Type)
		require.Equal(t, 1, bus.byEvent(domain.EventNotificationNew))
	})

	t.Run("id list fans out", func(t *testing.T) {
		consumer, store, _ := newConsumerFixture(t)
		consumer.handleMessage(ctx, delivery("school.notification.send",
			`{"user_ids":["s-1","s-2"],"title":"Snow day","message":"Closed"}`))

		for _, id := range []string{"s-1", "s-2"} {
			list, err := store.ListNotifications(ctx, id, model.NotificationFilter{})
			require.NoError(t, err)
			require.Len(t, list, 1)
		}
	})

	t.Run("malformed payload is dropped", func(t *testing.T) {
		consumer, store, _ := newConsumerFixture(t)
		consumer.handleMessage(ctx, delivery("school.notification.send", `{not json`))
		consumer.handleMessage(ctx, delivery("school.notification.send",
			`{"user_id":"s-1","title":"","message":""}`))

		list, err := store.ListNotifications(ctx, "s-1", model.NotificationFilter{})
		require.NoError(t, err)
		require.Empty(t, list)
	})
}

func TestHandleCommentPosted(t *testing.T) {
	ctx := context.Background()
	consumer, store, bus := newConsumerFixture(t)
	_, err := store.CreateComment(ctx, model.Comment{ClassID: "c-1", UserID: "s-1", Text: "hi"})
	require.NoError(t, err)

	consumer.handleMessage(ctx, delivery("school.comment.posted", `{"class_id":"c-1"}`))

	require.Equal(t, 1, bus.byEvent(domain.EventCommentUpdate))
	require.Equal(t, domain.ClassRoom("c-1"), bus.calls[len(bus.calls)-1].Room)
	comments := bus.calls[len(bus.calls)-1].Data.([]model.Comment)
	require.Len(t, comments, 1)
	require.Equal(t, "hi", comments[0].Text)
}

func TestHandleAnnouncementCreated(t *testing.T) {
	ctx := context.Background()

	t.Run("broadcast only", func(t *testing.T) {
		consumer, _, bus := newConsumerFixture(t)
		consumer.handleMessage(ctx, delivery("school.announcement.created", `{"class_id":"c-1"}`))
		require.Equal(t, 1, bus.byEvent(domain.EventAnnouncementUpdate))
		require.Zero(t, bus.byEvent(domain.EventNotificationNew))
	})

	t.Run("roster fanout", func(t *testing.T) {
		consumer, store, bus := newConsumerFixture(t)
		store.PutUser(model.User{ID: "s-1", Role: domain.RoleStudent, ClassIDs: []string{"c-1"}})
		store.PutUser(model.User{ID: "s-2", Role: domain.RoleStudent, ClassIDs: []string{"c-1"}})

		consumer.handleMessage(ctx, delivery("school.announcement.created",
			`{"class_id":"c-1","title":"Sports day","body":"This Saturday","notify_roster":true}`))

		require.Equal(t, 1, bus.byEvent(domain.EventAnnouncementUpdate))
		require.Equal(t, 2, bus.byEvent(domain.EventNotificationNew))

		list, err := store.ListNotifications(ctx, "s-1", model.NotificationFilter{})
		require.NoError(t, err)
		require.Len(t, list, 1)
		require.Equal(t, domain.NotificationTypeAnnouncement, list[0].Type)
	})
}

func TestHandleGradeSaved(t *testing.T) {
	ctx := context.Background()
	consumer, store, _ := newConsumerFixture(t)

	consumer.handleMessage(ctx, delivery("school.grade.saved",
		`{"student_id":"s-1","class_id":"c-1","subject":"Math"}`))

	list, err := store.ListNotifications(ctx, "s-1", model.NotificationFilter{})
	require.NoError(t, err)
	require.Len(t, list, 1)
	require.Equal(t, domain.NotificationTypeGrade, list[0].Type)
	require.Contains(t, list[0].Message, "Math")
	require.Equal(t, "c-1", list[0].Metadata["class_id"])
}

func TestHandleUnknownRoutingKey(t *testing.T) {
	ctx := context.Background()
	consumer, store, bus := newConsumerFixture(t)

	consumer.handleMessage(ctx, delivery("school.enrollment.changed", `{"anything":true}`))

	list, err := store.ListNotifications(ctx, "s-1", model.NotificationFilter{})
	require.NoError(t, err)
	require.Empty(t, list)
	require.Empty(t, bus.calls)
}
