package model

import "time"

type User struct {
	ID       string    `json:"id"`
	Name     string    `json:"name"`
	Email    string    `json:"email"`
	Role     string    `json:"role"`
	Status   string    `json:"status"`
	LastSeen time.Time `json:"last_seen"`

	// ClassIDs is the set of classes the user is enrolled in (students)
	// or teaches. GuardianIDs links a student to its guardians.
	ClassIDs    []string `json:"class_ids,omitempty"`
	GuardianIDs []string `json:"-"`
}

type StatusUpdate struct {
	UserID string `json:"userId"`
	Status string `json:"status"`
}
