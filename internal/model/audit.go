package model

import "time"

// AuditEntry is append-only: there is no update path anywhere in the repo.
type AuditEntry struct {
	ID           int64     `json:"id"`
	UserID       string    `json:"user_id"`
	ActorName    string    `json:"actor_name,omitempty"`
	Action       string    `json:"action"`
	ResourceType string    `json:"resource_type"`
	ResourceID   string    `json:"resource_id,omitempty"`
	Details      string    `json:"details,omitempty"`
	Status       string    `json:"status"`
	ErrorMessage string    `json:"error_message,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}
