package models

import "time"

// Student is a learner whose grades are tracked.
type Student struct {
	ID        string    `db:"id" json:"id"`
	Name      string    `db:"name" json:"name"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// StudentRequest creates or renames a student.
type StudentRequest struct {
	Name string `json:"name" validate:"required,max=100"`
}

// ResetResult reports what a student reset removed.
type ResetResult struct {
	StudentID     string `json:"student_id"`
	GradesDeleted int64  `json:"grades_deleted"`
	TopicsReset   int64  `json:"topics_reset"`
}
