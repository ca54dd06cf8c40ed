package repository

import (
	"errors"
	"strings"

	"gorm.io/gorm"
)

var (
	// ErrNotFound is returned when no row matches the lookup.
	ErrNotFound = errors.New("record not found")
	// ErrDuplicateToken is returned by Insert when the token is already taken.
	ErrDuplicateToken = errors.New("duplicate link token")
	// ErrDuplicateName is returned when a provider name is already registered.
	ErrDuplicateName = errors.New("duplicate provider name")
)

// isUniqueViolation recognises unique-constraint failures. gorm.ErrDuplicatedKey
// is only produced when the dialector translates errors, so the driver
// messages for SQLite and Postgres are matched as well.
func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "unique constraint failed") ||
		strings.Contains(msg, "duplicate key value") ||
		strings.Contains(msg, "sqlstate 23505")
}
