package service

import (
	"fmt"

	domainerrors "github.com/abctag/abc-server/internal/errors"
	"github.com/abctag/abc-server/internal/store"
)

// storeError translates a store failure into a domain error.
// Store failures other than not-found, conflict and invalid-input are reported as internal and never retried.
func storeError(err error, op, id string) error {
	switch {
	case err == nil:
		return nil
	case domainerrors.Is(err, store.ErrNotFound):
		return domainerrors.NotFoundf("book %s not found", id)
	case domainerrors.Is(err, store.ErrAlreadyExists):
		return domainerrors.ErrAlreadyExists.WithCause(err)
	case domainerrors.Is(err, store.ErrInvalidInput):
		return domainerrors.Wrap(err, domainerrors.CodeValidation, "invalid input")
	default:
		return domainerrors.Wrap(err, domainerrors.CodeInternal, fmt.Sprintf("failed to %s", op))
	}
}
