package db

import "strings"

// IsUniqueViolation reports whether the provided error is a unique
// constraint violation. Postgres names the violated constraint in its
// message; sqlite names table.column, so the generic wording of either
// backend is accepted when the constraint text is absent.
func IsUniqueViolation(err error, constraintName string) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	if constraintName != "" && strings.Contains(msg, constraintName) {
		return true
	}
	return strings.Contains(msg, "duplicate key value") ||
		strings.Contains(msg, "UNIQUE constraint failed")
}
