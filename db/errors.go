package db

import "strings"

// IsUniqueViolation reports whether err is a unique-constraint failure
// from either backend. SQLite says "UNIQUE constraint failed", MySQL
// says "Duplicate entry".
func IsUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "UNIQUE constraint") || strings.Contains(msg, "Duplicate entry")
}
