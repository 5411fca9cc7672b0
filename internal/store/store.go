package store

import (
	"errors"
	"strings"
)

var (
	// ErrNotFound is returned when a requested row does not exist.
	ErrNotFound = errors.New("not found")

	// ErrArtifactTypeMismatch is returned when a refine targets an artifact
	// stored under a different artifact type.
	ErrArtifactTypeMismatch = errors.New("artifact type mismatch")

	// ErrInvalidTemperature is returned for a model temperature outside [0, 1].
	ErrInvalidTemperature = errors.New("temperature must be between 0 and 1")
)

// isUniqueConstraintError reports whether err is a primary key or unique index
// violation from any of the supported drivers.
func isUniqueConstraintError(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "unique constraint") || // SQLite & PostgreSQL
		strings.Contains(msg, "duplicate key") || // PostgreSQL
		strings.Contains(msg, "duplicate entry") // MySQL
}
