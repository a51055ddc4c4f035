package store_test

import (
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/abctag/abc-server/internal/store"
)

func TestError_ErrorWithCause(t *testing.T) {
	cause := errors.New("disk I/O error")
	err := store.ErrNotFound.WithMessage("book b-1 not found").WithCause(cause)

	assert.Equal(t, "book b-1 not found: disk I/O error", err.Error())
	assert.Equal(t, http.StatusNotFound, err.HTTPCode())
	assert.ErrorIs(t, err, cause)
}

func TestError_IsMatchesByCode(t *testing.T) {
	err := store.ErrNotFound.WithMessage("book b-1 not found")

	assert.ErrorIs(t, err, store.ErrNotFound)
	assert.NotErrorIs(t, err, store.ErrAlreadyExists)
	assert.False(t, errors.Is(errors.New("plain"), store.ErrNotFound))
}
