package repository

import (
	"context"
	"time"

	"classpulse/internal/model"
)

// Mutating reads and writes are scoped by userID so ownership is enforced in
// the store itself: a cross-user id yields domain.ErrNotFound, never the
// other user's record.
type NotificationRepository interface {
	CreateNotification(ctx context.Context, n model.Notification) (model.Notification, error)
	GetNotification(ctx context.Context, id int64, userID string) (model.Notification, error)
	ListNotifications(ctx context.Context, userID string, f model.NotificationFilter) ([]model.Notification, error)
	MarkNotificationRead(ctx context.Context, id int64, userID string, at time.Time) (model.Notification, error)
	MarkAllNotificationsRead(ctx context.Context, userID string, at time.Time) (int64, error)
	DeleteNotification(ctx context.Context, id int64, userID string) error
	DeleteReadNotifications(ctx context.Context, userID string) (int64, error)
	DeleteExpiredNotifications(ctx context.Context, now time.Time) (int64, error)
	NotificationStats(ctx context.Context, userID string) (model.NotificationStats, error)
	HasSimilarNotification(ctx context.Context, userID, category, title string) (bool, error)
}

type AuditRepository interface {
	CreateAuditEntry(ctx context.Context, e model.AuditEntry) (model.AuditEntry, error)
	ListRecentAuditEntries(ctx context.Context, limit int) ([]model.AuditEntry, error)
}

type UserRepository interface {
	GetUser(ctx context.Context, id string) (model.User, error)
	ListUsersByRoles(ctx context.Context, roles []string) ([]model.User, error)
	ListClassRoster(ctx context.Context, classID string) ([]model.User, error)
	ListGuardians(ctx context.Context, studentIDs []string) ([]model.User, error)
	SetPresence(ctx context.Context, userID, status string, lastSeen time.Time) error
}

type ClassRepository interface {
	CreateComment(ctx context.Context, c model.Comment) (model.Comment, error)
	ListComments(ctx context.Context, classID string, limit int) ([]model.Comment, error)
	CreateAnnouncement(ctx context.Context, a model.Announcement) (model.Announcement, error)
	ListAnnouncements(ctx context.Context, classID string, limit int) ([]model.Announcement, error)
	ListTasksDueBefore(ctx context.Context, cutoff time.Time) ([]model.Task, error)
}

// Store is what the store factory hands out: one backend covering every
// repository the services need.
type Store interface {
	NotificationRepository
	AuditRepository
	UserRepository
	ClassRepository
}
