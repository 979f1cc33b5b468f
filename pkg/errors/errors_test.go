package errors

import (
	stdErrors "errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFromErrorWrapsUnknownAsInternal(t *testing.T) {
	appErr := FromError(fmt.Errorf("boom"))
	assert.Equal(t, ErrInternal.Code, appErr.Code)
	assert.Equal(t, http.StatusInternalServerError, appErr.Status)
	assert.EqualError(t, appErr, "internal server error: boom")
}

func TestFromErrorKeepsTypedError(t *testing.T) {
	wrapped := fmt.Errorf("grade: %w", Clone(ErrForbidden, "other student"))
	appErr := FromError(wrapped)
	assert.Equal(t, "FORBIDDEN", appErr.Code)
	assert.Equal(t, "other student", appErr.Message)
}

func TestIsMatchesByCode(t *testing.T) {
	assert.True(t, stdErrors.Is(Validation("value out of range"), ErrValidation))
	assert.True(t, stdErrors.Is(Wrap(stdErrors.New("x"), ErrNoData.Code, ErrNoData.Status, "empty"), ErrNoData))
	assert.False(t, stdErrors.Is(ErrNotFound, ErrNoData))
}

func TestCloneKeepsOriginalUntouched(t *testing.T) {
	clone := Clone(ErrConflict, "subject in use")
	assert.Equal(t, "conflict", ErrConflict.Message)
	assert.Equal(t, "subject in use", clone.Message)
	assert.Nil(t, Clone(nil, "x"))
}
