package lightbnb

import (
	"errors"
	"fmt"
)

// Error types
var (
	// ErrUserNotFound indicates no user matched the lookup
	ErrUserNotFound = errors.New("user not found")

	// ErrPropertyNotFound indicates no property matched the lookup
	ErrPropertyNotFound = errors.New("property not found")

	// ErrInvalidCredentials indicates an unknown email or a wrong password
	ErrInvalidCredentials = errors.New("invalid email or password")
)

// ConstraintKind names the kind of schema constraint a write violated.
type ConstraintKind string

const (
	ConstraintUnique     ConstraintKind = "unique"
	ConstraintForeignKey ConstraintKind = "foreign_key"
	ConstraintNotNull    ConstraintKind = "not_null"
	ConstraintCheck      ConstraintKind = "check"
	ConstraintOther      ConstraintKind = "other"
)

// ConnectionError reports that the database could not be reached or the
// connection was lost while running Op.
type ConnectionError struct {
	Op  string
	Err error
}

func (e *ConnectionError) Error() string {
	return fmt.Sprintf("%s: database connection failed: %v", e.Op, e.Err)
}

func (e *ConnectionError) Unwrap() error {
	return e.Err
}

// ConstraintViolation reports a write rejected by a schema constraint.
type ConstraintViolation struct {
	Op         string
	Kind       ConstraintKind
	Table      string
	Column     string
	Constraint string
	Err        error
}

func (e *ConstraintViolation) Error() string {
	target := e.Constraint
	if target == "" {
		target = e.Column
	}
	if target == "" {
		return fmt.Sprintf("%s: %s constraint violated on %s", e.Op, e.Kind, e.Table)
	}
	return fmt.Sprintf("%s: %s constraint %s violated on %s", e.Op, e.Kind, target, e.Table)
}

func (e *ConstraintViolation) Unwrap() error {
	return e.Err
}

// QueryError reports any other failure of a statement. Code carries the
// SQLSTATE when the server returned one.
type QueryError struct {
	Op   string
	Code string
	Err  error
}

func (e *QueryError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("%s: query failed (code %s): %v", e.Op, e.Code, e.Err)
	}
	return fmt.Sprintf("%s: query failed: %v", e.Op, e.Err)
}

func (e *QueryError) Unwrap() error {
	return e.Err
}

// ErrorKind returns a short label for err, used in logs and metrics.
func ErrorKind(err error) string {
	var connErr *ConnectionError
	var constraintErr *ConstraintViolation
	var queryErr *QueryError
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrUserNotFound), errors.Is(err, ErrPropertyNotFound):
		return "not_found"
	case errors.Is(err, ErrInvalidCredentials):
		return "invalid_credentials"
	case errors.As(err, &connErr):
		return "connection"
	case errors.As(err, &constraintErr):
		return "constraint_" + string(constraintErr.Kind)
	case errors.As(err, &queryErr):
		return "query"
	default:
		return "unknown"
	}
}
