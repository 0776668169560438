package model

import "time"

type Notification struct {
	ID          int64             `json:"id"`
	UserID      string            `json:"user_id"`
	Title       string            `json:"title"`
	Message     string            `json:"message"`
	Type        string            `json:"type"`
	Priority    string            `json:"priority"`
	Category    string            `json:"category,omitempty"`
	Read        bool              `json:"read"`
	ReadAt      *time.Time        `json:"read_at,omitempty"`
	ActionURL   string            `json:"action_url,omitempty"`
	ActionLabel string            `json:"action_label,omitempty"`
	Metadata    map[string]string `json:"metadata,omitempty"`
	ExpiresAt   *time.Time        `json:"expires_at,omitempty"`
	CreatedAt   time.Time         `json:"created_at"`
}

// NotificationFilter narrows ListNotifications. Nil/zero fields match all.
type NotificationFilter struct {
	Read     *bool
	Type     string
	Category string
	Priority string
	Limit    int
	Offset   int
}

type NotificationStats struct {
	Total      int64            `json:"total"`
	Unread     int64            `json:"unread"`
	ByType     map[string]int64 `json:"by_type"`
	ByPriority map[string]int64 `json:"by_priority"`
}
