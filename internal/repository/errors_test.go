package repository

import (
	"errors"
	"testing"

	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
)

func TestTranslate(t *testing.T) {
	plain := errors.New("connection reset")
	assert.Same(t, plain, translate(plain, ErrMissingReference))

	assert.ErrorIs(t, translate(&pq.Error{Code: pqForeignKeyViolation}, ErrHasDependents), ErrHasDependents)
	assert.ErrorIs(t, translate(&pq.Error{Code: pqForeignKeyViolation}, ErrMissingReference), ErrMissingReference)
	assert.ErrorIs(t, translate(&pq.Error{Code: pqUniqueViolation}, ErrMissingReference), ErrDuplicate)

	other := &pq.Error{Code: "42P01"}
	assert.Equal(t, other, translate(other, ErrMissingReference))
}
