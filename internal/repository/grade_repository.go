package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/notenpfad-api/internal/models"
)

const gradeColumns = "id, student_id, subject_id, value, grade_type, grade_date, created_at"

// GradeRepository handles persistence for grades.
type GradeRepository struct {
	db *sqlx.DB
}

// NewGradeRepository creates a new repository instance.
func NewGradeRepository(db *sqlx.DB) *GradeRepository {
	return &GradeRepository{db: db}
}

// List returns grades matching the filter in insertion order.
func (r *GradeRepository) List(ctx context.Context, filter models.GradeFilter) ([]models.Grade, error) {
	var conditions []string
	var args []interface{}
	if filter.StudentID != "" {
		args = append(args, filter.StudentID)
		conditions = append(conditions, fmt.Sprintf("student_id = $%d", len(args)))
	}
	if filter.SubjectID != "" {
		args = append(args, filter.SubjectID)
		conditions = append(conditions, fmt.Sprintf("subject_id = $%d", len(args)))
	}

	query := "SELECT " + gradeColumns + " FROM grades"
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY seq"

	var grades []models.Grade
	if err := r.db.SelectContext(ctx, &grades, query, args...); err != nil {
		return nil, fmt.Errorf("list grades: %w", err)
	}
	return grades, nil
}

// FindByID returns a grade by id.
func (r *GradeRepository) FindByID(ctx context.Context, id string) (*models.Grade, error) {
	query := "SELECT " + gradeColumns + " FROM grades WHERE id = $1"
	var grade models.Grade
	if err := r.db.GetContext(ctx, &grade, query, id); err != nil {
		return nil, err
	}
	return &grade, nil
}

// Create persists a new grade. Unknown student or subject ids yield ErrMissingReference.
func (r *GradeRepository) Create(ctx context.Context, grade *models.Grade) error {
	if grade.ID == "" {
		grade.ID = uuid.NewString()
	}
	if grade.CreatedAt.IsZero() {
		grade.CreatedAt = time.Now().UTC()
	}
	if grade.Type == "" {
		grade.Type = models.DefaultGradeType
	}

	const query = `INSERT INTO grades (id, student_id, subject_id, value, grade_type, grade_date, created_at) VALUES (:id, :student_id, :subject_id, :value, :grade_type, :grade_date, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, grade); err != nil {
		return fmt.Errorf("create grade: %w", translate(err, ErrMissingReference))
	}
	return nil
}

// Delete removes a single grade.
func (r *GradeRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM grades WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete grade: %w", err)
	}
	return requireAffected(res, "delete grade")
}

// ResetStudent deletes every grade of a student and reopens all topics in one transaction.
func (r *GradeRepository) ResetStudent(ctx context.Context, studentID string) (*models.ResetResult, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin reset: %w", err)
	}

	res, err := tx.ExecContext(ctx, `DELETE FROM grades WHERE student_id = $1`, studentID)
	if err != nil {
		tx.Rollback() //nolint:errcheck
		return nil, fmt.Errorf("delete student grades: %w", err)
	}
	deleted, err := res.RowsAffected()
	if err != nil {
		tx.Rollback() //nolint:errcheck
		return nil, fmt.Errorf("delete student grades rows affected: %w", err)
	}

	res, err = tx.ExecContext(ctx, `UPDATE topics SET is_completed = FALSE WHERE is_completed`)
	if err != nil {
		tx.Rollback() //nolint:errcheck
		return nil, fmt.Errorf("reset topics: %w", err)
	}
	reset, err := res.RowsAffected()
	if err != nil {
		tx.Rollback() //nolint:errcheck
		return nil, fmt.Errorf("reset topics rows affected: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit reset: %w", err)
	}
	return &models.ResetResult{StudentID: studentID, GradesDeleted: deleted, TopicsReset: reset}, nil
}
