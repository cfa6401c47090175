package postgres

import (
	"context"
	"errors"
	"io"
	"net"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lightbnb/lightbnb/pkg/lightbnb"
)

// classifyError converts a driver error into one of the typed lightbnb
// errors. Callers handle pgx.ErrNoRows before getting here.
func classifyError(op string, err error) error {
	if err == nil {
		return nil
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch {
		case strings.HasPrefix(pgErr.Code, "23"): // integrity_constraint_violation
			return &lightbnb.ConstraintViolation{
				Op:         op,
				Kind:       constraintKind(pgErr.Code),
				Table:      pgErr.TableName,
				Column:     pgErr.ColumnName,
				Constraint: pgErr.ConstraintName,
				Err:        err,
			}
		case strings.HasPrefix(pgErr.Code, "08"), // connection_exception
			pgErr.Code == "57P01", // admin_shutdown
			pgErr.Code == "57P02", // crash_shutdown
			pgErr.Code == "57P03": // cannot_connect_now
			return &lightbnb.ConnectionError{Op: op, Err: err}
		default:
			return &lightbnb.QueryError{Op: op, Code: pgErr.Code, Err: err}
		}
	}

	if isConnectionFailure(err) {
		return &lightbnb.ConnectionError{Op: op, Err: err}
	}

	return &lightbnb.QueryError{Op: op, Err: err}
}

func constraintKind(code string) lightbnb.ConstraintKind {
	switch code {
	case "23505": // unique_violation
		return lightbnb.ConstraintUnique
	case "23503": // foreign_key_violation
		return lightbnb.ConstraintForeignKey
	case "23502": // not_null_violation
		return lightbnb.ConstraintNotNull
	case "23514": // check_violation
		return lightbnb.ConstraintCheck
	default:
		return lightbnb.ConstraintOther
	}
}

func isConnectionFailure(err error) bool {
	var connectErr *pgconn.ConnectError
	if errors.As(err, &connectErr) {
		return true
	}
	if pgconn.Timeout(err) {
		return true
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr)
}
