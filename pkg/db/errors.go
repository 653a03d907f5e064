package db

import "strings"

// IsUniqueViolation reports whether err comes from a unique/primary key
// violation on postgres or sqlite. When constraintName is provided, the
// helper only matches errors that mention it.
func IsUniqueViolation(err error, constraintName string) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	if constraintName != "" && !strings.Contains(msg, constraintName) {
		return false
	}
	return strings.Contains(msg, "duplicate key value") ||
		strings.Contains(msg, "UNIQUE constraint failed")
}
