package dto

type CreateNotificationRequest struct {
	UserID      string            `json:"user_id"`
	UserIDs     []string          `json:"user_ids,omitempty"`
	Roles       []string          `json:"roles,omitempty"`
	ClassID     string            `json:"class_id,omitempty"`
	Title       string            `json:"title"`
	Message     string            `json:"message"`
	Type        string            `json:"type"`
	Priority    string            `json:"priority"`
	Category    string            `json:"category"`
	ActionURL   string            `json:"action_url"`
	ActionLabel string            `json:"action_label"`
	Metadata    map[string]string `json:"metadata"`

	// ParentMessage, when set on a class_id request, is delivered to the
	// students' guardians instead of the student wording.
	ParentTitle   string `json:"parent_title,omitempty"`
	ParentMessage string `json:"parent_message,omitempty"`
}

type PublishEventRequest struct {
	Event   string         `json:"event"`
	Payload map[string]any `json:"payload"`
}

type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type StatusResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Count   int64  `json:"count,omitempty"`
}
