package models

import "time"

// DefaultGradeType labels grades created without an explicit type.
const DefaultGradeType = "Exam"

// Grade is a single mark a student received in a subject.
type Grade struct {
	ID        string    `db:"id" json:"id"`
	StudentID string    `db:"student_id" json:"student_id"`
	SubjectID string    `db:"subject_id" json:"subject_id"`
	Value     float64   `db:"value" json:"value"`
	Type      string    `db:"grade_type" json:"type"`
	Date      Date      `db:"grade_date" json:"date"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// GradeFilter narrows grade listings. Empty fields match everything.
type GradeFilter struct {
	StudentID string
	SubjectID string
}

// CreateGradeRequest is the payload for recording a grade.
type CreateGradeRequest struct {
	StudentID string   `json:"student_id" validate:"omitempty,uuid"`
	SubjectID string   `json:"subject_id" validate:"required,uuid"`
	Value     *float64 `json:"value" validate:"required"`
	Type      string   `json:"type" validate:"omitempty,max=50"`
	Date      *Date    `json:"date" validate:"required"`
}

// GradeScale bounds valid grade values, inclusive on both ends.
type GradeScale struct {
	Min float64 `json:"min"`
	Max float64 `json:"max"`
}

// Contains reports whether v lies within the scale.
func (s GradeScale) Contains(v float64) bool {
	return v >= s.Min && v <= s.Max
}
