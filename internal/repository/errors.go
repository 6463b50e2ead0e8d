package repository

import (
	"errors"

	"github.com/lib/pq"
)

var (
	// ErrDuplicate reports a unique constraint violation on a natural key.
	ErrDuplicate = errors.New("duplicate record")
	// ErrBootstrapClosed reports that the users table was no longer empty
	// when a bootstrap insert ran.
	ErrBootstrapClosed = errors.New("bootstrap closed")
)

const uniqueViolation = "23505"

// Unique index names from the schema migrations.
const (
	constraintUserEmail     = "users_email_key"
	constraintUserBootstrap = "users_bootstrap_key"
)

// uniqueConstraint returns the violated constraint name when err is a unique
// violation.
func uniqueConstraint(err error) (string, bool) {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
		return pqErr.Constraint, true
	}
	return "", false
}
