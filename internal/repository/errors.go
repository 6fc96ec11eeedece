// Package repository implements the postgres-backed stores with gorm.
package repository

import (
	"errors"

	"gorm.io/gorm"

	"github.com/kvishal2109/magicofresinn/internal/apperr"
)

// translate maps gorm errors onto the application taxonomy.
func translate(op, what string, err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return apperr.NotFound(what)
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return apperr.Conflict(what + " already exists")
	case errors.Is(err, apperr.ErrNotFound), errors.Is(err, apperr.ErrConflict), apperr.IsValidation(err):
		return err
	default:
		return apperr.Unavailable(op, err)
	}
}
