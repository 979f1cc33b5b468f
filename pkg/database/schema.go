package database

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
)

// schemaStatements creates the entity tables. The seq columns carry insertion
// order; grade references are restricted so referenced rows cannot vanish.
var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS students (
		seq BIGSERIAL,
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		created_at TIMESTAMPTZ NOT NULL,
		updated_at TIMESTAMPTZ NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS subjects (
		seq BIGSERIAL,
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		weight DOUBLE PRECISION NOT NULL CHECK (weight > 0),
		created_at TIMESTAMPTZ NOT NULL,
		updated_at TIMESTAMPTZ NOT NULL
	)`,
	`CREATE UNIQUE INDEX IF NOT EXISTS subjects_name_key ON subjects (LOWER(name))`,
	`CREATE TABLE IF NOT EXISTS grades (
		seq BIGSERIAL,
		id TEXT PRIMARY KEY,
		student_id TEXT NOT NULL REFERENCES students(id) ON DELETE RESTRICT,
		subject_id TEXT NOT NULL REFERENCES subjects(id) ON DELETE RESTRICT,
		value DOUBLE PRECISION NOT NULL,
		grade_type TEXT NOT NULL DEFAULT 'Exam',
		grade_date DATE NOT NULL,
		created_at TIMESTAMPTZ NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS grades_student_idx ON grades (student_id, seq)`,
	`CREATE TABLE IF NOT EXISTS topics (
		seq BIGSERIAL,
		id TEXT PRIMARY KEY,
		subject_id TEXT NOT NULL REFERENCES subjects(id) ON DELETE CASCADE,
		name TEXT NOT NULL,
		is_completed BOOLEAN NOT NULL DEFAULT FALSE,
		created_at TIMESTAMPTZ NOT NULL
	)`,
}

// EnsureSchema creates missing tables and indexes. Safe to run on every start.
func EnsureSchema(ctx context.Context, db *sqlx.DB) error {
	for i, stmt := range schemaStatements {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("ensure schema step %d: %w", i+1, err)
		}
	}
	return nil
}
