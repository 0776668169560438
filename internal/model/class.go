package model

import "time"

type Comment struct {
	ID         int64     `json:"id"`
	ClassID    string    `json:"class_id"`
	UserID     string    `json:"user_id"`
	AuthorName string    `json:"author_name,omitempty"`
	Text       string    `json:"text"`
	CreatedAt  time.Time `json:"created_at"`
}

type Announcement struct {
	ID        int64     `json:"id"`
	ClassID   string    `json:"class_id"`
	Title     string    `json:"title"`
	Body      string    `json:"body"`
	CreatedAt time.Time `json:"created_at"`
}

// Task is the slice of the academic schema the reminder sweep needs: an
// upcoming deadline scoped to a class.
type Task struct {
	ID      int64     `json:"id"`
	ClassID string    `json:"class_id"`
	Title   string    `json:"title"`
	DueAt   time.Time `json:"due_at"`
}
