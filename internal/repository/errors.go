package repository

import (
	"errors"

	"github.com/lib/pq"
)

var (
	// ErrMissingReference reports a write pointing at a student or subject that does not exist.
	ErrMissingReference = errors.New("referenced entity does not exist")
	// ErrHasDependents reports a delete blocked by grades still referencing the row.
	ErrHasDependents = errors.New("entity is still referenced")
	// ErrDuplicate reports a unique constraint violation.
	ErrDuplicate = errors.New("duplicate entity")
)

const (
	pqForeignKeyViolation = "23503"
	pqUniqueViolation     = "23505"
)

// translate maps Postgres constraint violations onto the repository sentinels.
// onForeignKey is returned for FK violations since inserts and deletes mean different things.
func translate(err error, onForeignKey error) error {
	var pqErr *pq.Error
	if !errors.As(err, &pqErr) {
		return err
	}
	switch pqErr.Code {
	case pqForeignKeyViolation:
		return onForeignKey
	case pqUniqueViolation:
		return ErrDuplicate
	}
	return err
}
