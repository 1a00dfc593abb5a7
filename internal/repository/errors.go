package repository

import (
	"errors"
	"fmt"

	"gorm.io/gorm"

	apperrors "classsite/internal/errors"
)

// translate maps gorm faults onto the application error kinds.
func translate(op string, err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return apperrors.ErrNotFound
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return fmt.Errorf("%w: %s", apperrors.ErrConflict, op)
	default:
		return apperrors.Storage(op, err)
	}
}
