package services

import (
	"errors"
	"strings"

	"gorm.io/gorm"
)

// Domain errors. Handlers map them to form messages through their codes.
var (
	ErrNotFound           = errors.New("not_found")
	ErrInvalidCredentials = errors.New("invalid_credentials")
	ErrDuplicateUserName  = errors.New("user_name_taken")
	ErrProjectNotOpen     = errors.New("project_not_open")
	ErrDuplicateSerial    = errors.New("duplicate_serial")
)

// isUniqueViolation recognises a unique-constraint failure from any of the
// supported drivers, translated or not.
func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "duplicate") || strings.Contains(msg, "unique constraint")
}

func notFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	return err
}
