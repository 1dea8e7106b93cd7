package store

import (
	"errors"
	"strings"

	"gorm.io/gorm"
)

// ErrUnsupportedDriver is returned when the configured driver is unknown
var ErrUnsupportedDriver = errors.New("unsupported database driver")

// isUniqueViolation recognises unique index failures from both drivers.
// TranslateError covers the common case; the string checks catch driver
// versions that do not translate.
func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "UNIQUE constraint failed") ||
		strings.Contains(msg, "duplicate key value")
}
