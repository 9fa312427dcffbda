package repository

import (
	"errors"

	"github.com/mattn/go-sqlite3"
)

// IsConstraintViolation reports whether err comes from a sqlite constraint
// failure (unique key on re-import, foreign key on invalid category).
// Such errors are counted by callers, never fatal for a batch.
func IsConstraintViolation(err error) bool {
	var serr sqlite3.Error
	if errors.As(err, &serr) {
		return serr.Code == sqlite3.ErrConstraint
	}
	return false
}

// IsUniqueViolation reports whether err is specifically a duplicate-row
// failure on the transaction identity tuple.
func IsUniqueViolation(err error) bool {
	var serr sqlite3.Error
	if errors.As(err, &serr) {
		return serr.ExtendedCode == sqlite3.ErrConstraintUnique ||
			serr.ExtendedCode == sqlite3.ErrConstraintPrimaryKey
	}
	return false
}
