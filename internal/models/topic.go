package models

import "time"

// Topic is a checklist item of a subject's learning plan.
type Topic struct {
	ID          string    `db:"id" json:"id"`
	SubjectID   string    `db:"subject_id" json:"subject_id"`
	Name        string    `db:"name" json:"name"`
	IsCompleted bool      `db:"is_completed" json:"is_completed"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
}

// TopicRequest creates a topic.
type TopicRequest struct {
	SubjectID string `json:"subject_id" validate:"required,uuid"`
	Name      string `json:"name" validate:"required,max=100"`
}
