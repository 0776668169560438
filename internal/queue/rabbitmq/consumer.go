package rabbitmq

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.uber.org/zap"

	"classpulse/internal/config"
	"classpulse/internal/domain"
	"classpulse/internal/model"
	"classpulse/internal/queue"
	"classpulse/internal/repository"
	"classpulse/internal/service/notify"
)

const handleTimeout = 5 * time.Second

type Broadcaster interface {
	Broadcast(room, event string, data any)
}

type noopConsumer struct{}

func (n *noopConsumer) Start(ctx context.Context) error {
	<-ctx.Done()
	return nil
}

// Consumer subscribes to the school event exchange and turns domain events
// published by the management backend into notifications and room broadcasts.
type Consumer struct {
	cfg     *config.Config
	svc     *notify.Service
	classes repository.ClassRepository
	bus     Broadcaster
	logger  *zap.Logger
}

func NewConsumer(
	cfg *config.Config,
	svc *notify.Service,
	classes repository.ClassRepository,
	bus Broadcaster,
	logger *zap.Logger,
) queue.Consumer {
	if cfg.RabbitMQURL == "" {
		logger.Info("RABBITMQ_URL not set, event intake disabled")
		return &noopConsumer{}
	}
	return &Consumer{cfg: cfg, svc: svc, classes: classes, bus: bus, logger: logger}
}

func (c *Consumer) Start(ctx context.Context) error {
	conn, err := amqp.Dial(c.cfg.RabbitMQURL)
	if err != nil {
		return fmt.Errorf("rabbitmq dial: %w", err)
	}
	defer func() { _ = conn.Close() }()

	ch, err := conn.Channel()
	if err != nil {
		return fmt.Errorf("rabbitmq channel: %w", err)
	}
	defer func() { _ = ch.Close() }()

	if err := ch.Qos(10, 0, false); err != nil {
		return fmt.Errorf("rabbitmq qos: %w", err)
	}

	if err := ch.ExchangeDeclare(
		c.cfg.RabbitExchange,
		"topic",
		true,
		false,
		false,
		false,
		nil,
	); err != nil {
		return fmt.Errorf("rabbitmq exchange declare: %w", err)
	}

	q, err := ch.QueueDeclare(
		c.cfg.RabbitQueue,
		true,
		false,
		false,
		false,
		nil,
	)
	if err != nil {
		return fmt.Errorf("rabbitmq queue declare: %w", err)
	}

	if err := ch.QueueBind(q.Name, c.cfg.RabbitRoutingKey, c.cfg.RabbitExchange, false, nil); err != nil {
		return fmt.Errorf("rabbitmq queue bind: %w", err)
	}

	deliveries, err := ch.Consume(
		q.Name,
		c.cfg.RabbitConsumerTag,
		false,
		false,
		false,
		false,
		nil,
	)
	if err != nil {
		return fmt.Errorf("rabbitmq consume: %w", err)
	}

	c.logger.Info("event consumer started",
		zap.String("queue", q.Name),
		zap.String("binding", c.cfg.RabbitRoutingKey),
	)

	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-deliveries:
			if !ok {
				return fmt.Errorf("rabbitmq deliveries channel closed")
			}
			c.handleMessage(ctx, msg)
		}
	}
}

type notificationSendEvent struct {
	UserID    string   `json:"user_id"`
	UserIDs   []string `json:"user_ids"`
	Title     string   `json:"title"`
	Message   string   `json:"message"`
	Type      string   `json:"type"`
	Priority  string   `json:"priority"`
	Category  string   `json:"category"`
	ActionURL string   `json:"action_url"`
}

type commentPostedEvent struct {
	ClassID string `json:"class_id"`
}

type announcementCreatedEvent struct {
	ClassID       string `json:"class_id"`
	Title         string `json:"title"`
	Body          string `json:"body"`
	NotifyRoster  bool   `json:"notify_roster"`
	ParentMessage string `json:"parent_message"`
}

type gradeSavedEvent struct {
	StudentID string `json:"student_id"`
	ClassID   string `json:"class_id"`
	Subject   string `json:"subject"`
}

// handleMessage routes one delivery by its routing-key suffix. A payload that
// cannot be decoded is acked and dropped; a store failure nacks with requeue
// so the event survives a transient outage.
func (c *Consumer) handleMessage(ctx context.Context, msg amqp.Delivery) {
	ctx = otel.GetTextMapPropagator().Extract(ctx, amqpHeaderCarrier(msg.Headers))
	ctx, span := otel.Tracer("queue.consumer").Start(ctx, "consume "+msg.RoutingKey)
	defer span.End()
	span.SetAttributes(
		attribute.String("messaging.system", "rabbitmq"),
		attribute.String("messaging.routing_key", msg.RoutingKey),
	)

	ctx, cancel := context.WithTimeout(ctx, handleTimeout)
	defer cancel()

	suffix := strings.TrimPrefix(msg.RoutingKey, c.cfg.RabbitPublishPrefix+".")

	var err error
	switch suffix {
	case "notification.send":
		err = c.handleNotificationSend(ctx, msg.Body)
	case "comment.posted":
		err = c.handleCommentPosted(ctx, msg.Body)
	case "announcement.created":
		err = c.handleAnnouncementCreated(ctx, msg.Body)
	case "grade.saved":
		err = c.handleGradeSaved(ctx, msg.Body)
	default:
		c.logger.Debug("ignoring event", zap.String("routing_key", msg.RoutingKey))
		_ = msg.Ack(false)
		return
	}

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		if isBadPayload(err) {
			c.logger.Warn("dropping malformed event",
				zap.String("routing_key", msg.RoutingKey),
				zap.Error(err),
			)
			_ = msg.Ack(false)
			return
		}
		c.logger.Error("event handling failed, requeueing",
			zap.String("routing_key", msg.RoutingKey),
			zap.Error(err),
		)
		_ = msg.Nack(false, true)
		return
	}
	_ = msg.Ack(false)
}

func (c *Consumer) handleNotificationSend(ctx context.Context, body []byte) error {
	var ev notificationSendEvent
	if err := json.Unmarshal(body, &ev); err != nil {
		return badPayload(err)
	}
	template := model.Notification{
		Title:     ev.Title,
		Message:   ev.Message,
		Type:      ev.Type,
		Priority:  ev.Priority,
		Category:  ev.Category,
		ActionURL: ev.ActionURL,
	}
	if len(ev.UserIDs) > 0 {
		_, err := c.svc.CreateBatch(ctx, "system", ev.UserIDs, template)
		return wrapValidation(err)
	}
	template.UserID = ev.UserID
	_, err := c.svc.Create(ctx, "system", template)
	return wrapValidation(err)
}

func (c *Consumer) handleCommentPosted(ctx context.Context, body []byte) error {
	var ev commentPostedEvent
	if err := json.Unmarshal(body, &ev); err != nil || ev.ClassID == "" {
		return badPayload(fmt.Errorf("comment.posted: class_id missing"))
	}
	comments, err := c.classes.ListComments(ctx, ev.ClassID, c.cfg.SnapshotLimit)
	if err != nil {
		return err
	}
	c.bus.Broadcast(domain.ClassRoom(ev.ClassID), domain.EventCommentUpdate, comments)
	return nil
}

func (c *Consumer) handleAnnouncementCreated(ctx context.Context, body []byte) error {
	var ev announcementCreatedEvent
	if err := json.Unmarshal(body, &ev); err != nil || ev.ClassID == "" {
		return badPayload(fmt.Errorf("announcement.created: class_id missing"))
	}

	announcements, err := c.classes.ListAnnouncements(ctx, ev.ClassID, c.cfg.SnapshotLimit)
	if err != nil {
		return err
	}
	c.bus.Broadcast(domain.ClassRoom(ev.ClassID), domain.EventAnnouncementUpdate, announcements)

	if ev.NotifyRoster && ev.Title != "" {
		template := model.Notification{
			Title:    ev.Title,
			Message:  ev.Body,
			Type:     domain.NotificationTypeAnnouncement,
			Priority: domain.PriorityMedium,
		}
		var parentTemplate *model.Notification
		if ev.ParentMessage != "" {
			pt := template
			pt.Message = ev.ParentMessage
			parentTemplate = &pt
		}
		if _, err := c.svc.CreateForClassRoster(ctx, "system", ev.ClassID, template, parentTemplate); err != nil {
			return wrapValidation(err)
		}
	}
	return nil
}

func (c *Consumer) handleGradeSaved(ctx context.Context, body []byte) error {
	var ev gradeSavedEvent
	if err := json.Unmarshal(body, &ev); err != nil || ev.StudentID == "" {
		return badPayload(fmt.Errorf("grade.saved: student_id missing"))
	}
	subject := ev.Subject
	if subject == "" {
		subject = "one of your classes"
	}
	_, err := c.svc.Create(ctx, "system", model.Notification{
		UserID:   ev.StudentID,
		Title:    "New grade posted",
		Message:  fmt.Sprintf("A new grade was posted in %s.", subject),
		Type:     domain.NotificationTypeGrade,
		Priority: domain.PriorityMedium,
		Metadata: map[string]string{"class_id": ev.ClassID},
	})
	return wrapValidation(err)
}

type payloadError struct{ err error }

func (e *payloadError) Error() string { return e.err.Error() }
func (e *payloadError) Unwrap() error { return e.err }

func badPayload(err error) error { return &payloadError{err: err} }

func isBadPayload(err error) bool {
	var pe *payloadError
	return errors.As(err, &pe)
}

// Validation failures are a property of the payload, not of our state, so
// they must not requeue.
func wrapValidation(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, domain.ErrValidation) ||
		errors.Is(err, domain.ErrInvalidNotificationType) ||
		errors.Is(err, domain.ErrInvalidPriority) {
		return badPayload(err)
	}
	return err
}
