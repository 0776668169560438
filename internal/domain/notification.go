package domain

import "errors"

const (
	NotificationTypeInfo         = "info"
	NotificationTypeSuccess      = "success"
	NotificationTypeWarning      = "warning"
	NotificationTypeError        = "error"
	NotificationTypeTask         = "task"
	NotificationTypeAnnouncement = "announcement"
	NotificationTypeGrade        = "grade"
	NotificationTypeAttendance   = "attendance"
	NotificationTypeSystem       = "system"
)

const (
	PriorityLow    = "low"
	PriorityMedium = "medium"
	PriorityHigh   = "high"
	PriorityUrgent = "urgent"
)

// CategoryReminder marks deadline reminders so the sweep can deduplicate
// against notifications it already delivered.
const CategoryReminder = "reminder"

var (
	ErrInvalidNotificationType = errors.New("invalid notification type")
	ErrInvalidPriority         = errors.New("invalid notification priority")
	ErrValidation              = errors.New("validation failed")
	ErrNotFound                = errors.New("not found")
)

func IsValidNotificationType(value string) bool {
	switch value {
	case NotificationTypeInfo, NotificationTypeSuccess, NotificationTypeWarning,
		NotificationTypeError, NotificationTypeTask, NotificationTypeAnnouncement,
		NotificationTypeGrade, NotificationTypeAttendance, NotificationTypeSystem:
		return true
	default:
		return false
	}
}

func IsValidPriority(value string) bool {
	switch value {
	case PriorityLow, PriorityMedium, PriorityHigh, PriorityUrgent:
		return true
	default:
		return false
	}
}
