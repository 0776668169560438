package notify

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"classpulse/internal/domain"
	"classpulse/internal/email"
	"classpulse/internal/metrics"
	"classpulse/internal/model"
	"classpulse/internal/repository"
	auditsvc "classpulse/internal/service/audit"
)

type Broadcaster interface {
	Broadcast(room, event string, data any)
}

// Service owns the notification lifecycle. Persistence of the notification
// record is the primary effect and the only one whose failure propagates;
// broadcast, audit and email are best-effort side channels.
type Service struct {
	store  repository.NotificationRepository
	users  repository.UserRepository
	audit  *auditsvc.Recorder
	bus    Broadcaster
	mailer email.Mailer
	log    *zap.Logger
}

func NewService(
	store repository.NotificationRepository,
	users repository.UserRepository,
	recorder *auditsvc.Recorder,
	bus Broadcaster,
	mailer email.Mailer,
	logger *zap.Logger,
) *Service {
	return &Service{
		store:  store,
		users:  users,
		audit:  recorder,
		bus:    bus,
		mailer: mailer,
		log:    logger,
	}
}

func (s *Service) Create(ctx context.Context, actorID string, n model.Notification) (model.Notification, error) {
	if err := normalize(&n); err != nil {
		return model.Notification{}, err
	}
	created, err := s.store.CreateNotification(ctx, n)
	if err != nil {
		s.log.Error("store create notification failed",
			zap.String("user_id", n.UserID),
			zap.String("type", n.Type),
			zap.Error(err),
		)
		return model.Notification{}, err
	}
	metrics.NotificationsCreated.Inc()

	s.audit.Record(ctx, model.AuditEntry{
		UserID:       actorID,
		Action:       domain.ActionCreateNotification,
		ResourceType: "notification",
		ResourceID:   fmt.Sprintf("%d", created.ID),
	})
	s.deliver(ctx, created)
	return created, nil
}

// CreateBatch fans one template out as len(userIDs) independent records with
// a single aggregated audit entry. Individual store failures are logged and
// skipped so one bad recipient does not sink the batch.
func (s *Service) CreateBatch(ctx context.Context, actorID string, userIDs []string, template model.Notification) ([]model.Notification, error) {
	if err := normalizeTemplate(&template); err != nil {
		return nil, err
	}
	created := make([]model.Notification, 0, len(userIDs))
	for _, userID := range userIDs {
		n := template
		n.UserID = userID
		record, err := s.store.CreateNotification(ctx, n)
		if err != nil {
			s.log.Error("batch notification create failed",
				zap.String("user_id", userID),
				zap.Error(err),
			)
			continue
		}
		metrics.NotificationsCreated.Inc()
		created = append(created, record)
		s.deliver(ctx, record)
	}

	s.audit.Record(ctx, model.AuditEntry{
		UserID:       actorID,
		Action:       domain.ActionBatchNotification,
		ResourceType: "notification",
		Details:      fmt.Sprintf("%q to %d recipients", template.Title, len(created)),
	})
	return created, nil
}

func (s *Service) CreateForRoles(ctx context.Context, actorID string, roles []string, template model.Notification) ([]model.Notification, error) {
	users, err := s.users.ListUsersByRoles(ctx, roles)
	if err != nil {
		return nil, err
	}
	return s.CreateBatch(ctx, actorID, userIDs(users), template)
}

// CreateForClassRoster delivers the template to every enrolled student and,
// when parentTemplate is given, a separately worded message to each linked
// guardian.
func (s *Service) CreateForClassRoster(ctx context.Context, actorID, classID string, template model.Notification, parentTemplate *model.Notification) ([]model.Notification, error) {
	roster, err := s.users.ListClassRoster(ctx, classID)
	if err != nil {
		return nil, err
	}
	studentIDs := userIDs(roster)
	created, err := s.CreateBatch(ctx, actorID, studentIDs, template)
	if err != nil {
		return nil, err
	}

	if parentTemplate != nil {
		guardians, err := s.users.ListGuardians(ctx, studentIDs)
		if err != nil {
			s.log.Error("guardian lookup failed", zap.String("class_id", classID), zap.Error(err))
		} else {
			parentCreated, err := s.CreateBatch(ctx, actorID, userIDs(guardians), *parentTemplate)
			if err != nil {
				return nil, err
			}
			created = append(created, parentCreated...)
		}
	}

	s.audit.Record(ctx, model.AuditEntry{
		UserID:       actorID,
		Action:       domain.ActionClassNotification,
		ResourceType: "class",
		ResourceID:   classID,
		Details:      fmt.Sprintf("%d notifications delivered", len(created)),
	})
	return created, nil
}

// MarkRead only succeeds for the notification's recipient; any other id,
// including one that exists for someone else, is a plain NotFound.
func (s *Service) MarkRead(ctx context.Context, id int64, requesterID string) (model.Notification, error) {
	updated, err := s.store.MarkNotificationRead(ctx, id, requesterID, time.Now().UTC())
	if err != nil {
		return model.Notification{}, err
	}
	s.bus.Broadcast(domain.UserRoom(requesterID), domain.EventNotificationUpdate, updated)
	s.pushStats(ctx, requesterID)
	return updated, nil
}

func (s *Service) MarkAllRead(ctx context.Context, userID string) (int64, error) {
	count, err := s.store.MarkAllNotificationsRead(ctx, userID, time.Now().UTC())
	if err != nil {
		return 0, err
	}
	if count > 0 {
		s.pushStats(ctx, userID)
	}
	return count, nil
}

func (s *Service) Delete(ctx context.Context, id int64, requesterID string) error {
	if err := s.store.DeleteNotification(ctx, id, requesterID); err != nil {
		return err
	}
	s.pushStats(ctx, requesterID)
	return nil
}

func (s *Service) DeleteAllRead(ctx context.Context, userID string) (int64, error) {
	count, err := s.store.DeleteReadNotifications(ctx, userID)
	if err != nil {
		return 0, err
	}
	if count > 0 {
		s.pushStats(ctx, userID)
	}
	return count, nil
}

func (s *Service) List(ctx context.Context, userID string, f model.NotificationFilter) ([]model.Notification, error) {
	return s.store.ListNotifications(ctx, userID, f)
}

// Stats aggregates at query time rather than maintaining running counters.
func (s *Service) Stats(ctx context.Context, userID string) (model.NotificationStats, error) {
	return s.store.NotificationStats(ctx, userID)
}

// Expire deletes notifications past their expiry. Idempotent and safe to
// run concurrently with itself: each row is deleted at most once.
func (s *Service) Expire(ctx context.Context) (int64, error) {
	count, err := s.store.DeleteExpiredNotifications(ctx, time.Now().UTC())
	if err != nil {
		return 0, err
	}
	if count > 0 {
		s.audit.Record(ctx, model.AuditEntry{
			UserID:       "system",
			Action:       domain.ActionExpireNotifications,
			ResourceType: "notification",
			Details:      fmt.Sprintf("%d expired", count),
		})
	}
	return count, nil
}

// RemindTask notifies every enrolled student about an approaching deadline.
// A student who already holds a reminder with the same title is skipped, so
// repeated sweeps for the same deadline create nothing new.
func (s *Service) RemindTask(ctx context.Context, task model.Task) (int, error) {
	roster, err := s.users.ListClassRoster(ctx, task.ClassID)
	if err != nil {
		return 0, err
	}
	title := "Reminder: " + task.Title
	createdCount := 0
	for _, student := range roster {
		exists, err := s.store.HasSimilarNotification(ctx, student.ID, domain.CategoryReminder, title)
		if err != nil {
			s.log.Error("reminder dedupe check failed", zap.String("user_id", student.ID), zap.Error(err))
			continue
		}
		if exists {
			continue
		}
		record, err := s.store.CreateNotification(ctx, model.Notification{
			UserID:   student.ID,
			Title:    title,
			Message:  fmt.Sprintf("%s is due %s.", task.Title, task.DueAt.Format("Mon Jan 2 15:04")),
			Type:     domain.NotificationTypeTask,
			Priority: domain.PriorityHigh,
			Category: domain.CategoryReminder,
		})
		if err != nil {
			s.log.Error("reminder create failed", zap.String("user_id", student.ID), zap.Error(err))
			continue
		}
		metrics.NotificationsCreated.Inc()
		createdCount++
		s.deliver(ctx, record)
	}

	if createdCount > 0 {
		s.audit.Record(ctx, model.AuditEntry{
			UserID:       "system",
			Action:       domain.ActionSendReminders,
			ResourceType: "task",
			ResourceID:   fmt.Sprintf("%d", task.ID),
			Details:      fmt.Sprintf("%d reminders sent", createdCount),
		})
	}
	return createdCount, nil
}

// deliver pushes the real-time event and the email. Both are fire-and-forget
// hints; the durable record already exists, so a miss only costs the client
// a pull refresh.
func (s *Service) deliver(ctx context.Context, n model.Notification) {
	s.bus.Broadcast(domain.UserRoom(n.UserID), domain.EventNotificationNew, n)
	s.pushStats(ctx, n.UserID)

	recipient, err := s.users.GetUser(ctx, n.UserID)
	if err != nil {
		s.log.Debug("email recipient lookup failed", zap.String("user_id", n.UserID), zap.Error(err))
		return
	}
	if recipient.Email == "" {
		return
	}
	s.mailer.Send(&email.Message{
		ToName:  recipient.Name,
		ToAddr:  recipient.Email,
		Subject: n.Title,
		Body:    n.Message,
	})
}

func (s *Service) pushStats(ctx context.Context, userID string) {
	stats, err := s.store.NotificationStats(ctx, userID)
	if err != nil {
		s.log.Error("stats refresh failed", zap.String("user_id", userID), zap.Error(err))
		return
	}
	s.bus.Broadcast(domain.UserRoom(userID), domain.EventDashboardStats, stats)
}

func normalize(n *model.Notification) error {
	if n.UserID == "" {
		return fmt.Errorf("%w: recipient is required", domain.ErrValidation)
	}
	return normalizeTemplate(n)
}

func normalizeTemplate(n *model.Notification) error {
	if n.Title == "" {
		return fmt.Errorf("%w: title is required", domain.ErrValidation)
	}
	if n.Message == "" {
		return fmt.Errorf("%w: message is required", domain.ErrValidation)
	}
	if n.Type == "" {
		n.Type = domain.NotificationTypeInfo
	}
	if !domain.IsValidNotificationType(n.Type) {
		return domain.ErrInvalidNotificationType
	}
	if n.Priority == "" {
		n.Priority = domain.PriorityMedium
	}
	if !domain.IsValidPriority(n.Priority) {
		return domain.ErrInvalidPriority
	}
	return nil
}

func userIDs(users []model.User) []string {
	ids := make([]string, 0, len(users))
	for _, u := range users {
		ids = append(ids, u.ID)
	}
	return ids
}
