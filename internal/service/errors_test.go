package service

import (
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"

	domainerrors "github.com/abctag/abc-server/internal/errors"
	"github.com/abctag/abc-server/internal/store"
)

func TestStoreError(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		want       *domainerrors.Error
		wantStatus int
		keepsCause bool
	}{
		{
			name:       "not found",
			err:        store.ErrNotFound.WithMessage("book b-1 not found"),
			want:       domainerrors.ErrNotFound,
			wantStatus: http.StatusNotFound,
		},
		{
			name:       "duplicate id",
			err:        store.ErrAlreadyExists.WithMessage("book b-1 already exists"),
			want:       domainerrors.ErrAlreadyExists,
			wantStatus: http.StatusConflict,
			keepsCause: true,
		},
		{
			name:       "invalid input",
			err:        store.ErrInvalidInput.WithMessage("book id is required"),
			want:       domainerrors.ErrValidation,
			wantStatus: http.StatusBadRequest,
			keepsCause: true,
		},
		{
			name:       "anything else",
			err:        errors.New("database is locked"),
			want:       domainerrors.ErrInternal,
			wantStatus: http.StatusInternalServerError,
			keepsCause: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := storeError(tt.err, "create book", "b-1")

			assert.ErrorIs(t, got, tt.want)
			if tt.keepsCause {
				assert.ErrorIs(t, got, tt.err)
			}

			var de *domainerrors.Error
			assert.True(t, domainerrors.As(got, &de))
			assert.Equal(t, tt.wantStatus, de.HTTPStatus())
		})
	}

	assert.NoError(t, storeError(nil, "create book", "b-1"))
}
