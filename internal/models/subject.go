package models

import "time"

// DefaultSubjectWeight applies when a subject is created without a weight.
const DefaultSubjectWeight = 1.0

// Subject is a school subject with its weight in the overall average.
type Subject struct {
	ID        string    `db:"id" json:"id"`
	Name      string    `db:"name" json:"name"`
	Weight    float64   `db:"weight" json:"weight"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// SubjectRequest creates or updates a subject.
type SubjectRequest struct {
	Name   string   `json:"name" validate:"required,max=100"`
	Weight *float64 `json:"weight" validate:"omitempty,gt=0"`
}
