package api

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-chi/render"
	"github.com/lightbnb/lightbnb/pkg/lightbnb"
	"github.com/rs/zerolog/log"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// ErrorResponse is the body of every error response
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

// badRequest marks an error caused by malformed client input.
type badRequest struct {
	msg string
}

func (e *badRequest) Error() string { return e.msg }

func badRequestf(format string, args ...interface{}) error {
	return &badRequest{msg: fmt.Sprintf(format, args...)}
}

// writeError maps err onto a status code and JSON body. Internal details of
// connection and query failures are not exposed.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	status, body := errorResponse(err)
	if status >= http.StatusInternalServerError {
		log.Ctx(r.Context()).Error().Err(err).Str("path", r.URL.Path).Msg("request failed")
	}
	render.Status(r, status)
	render.JSON(w, r, body)
}

func errorResponse(err error) (int, ErrorResponse) {
	var br *badRequest
	var cv *lightbnb.ConstraintViolation
	var connErr *lightbnb.ConnectionError

	switch {
	case errors.As(err, &br):
		return http.StatusBadRequest, ErrorResponse{Error: br.msg, Code: "bad_request"}
	case errors.Is(err, errUnauthorized):
		return http.StatusUnauthorized, ErrorResponse{Error: errUnauthorized.Error(), Code: "unauthorized"}
	case errors.Is(err, lightbnb.ErrInvalidCredentials):
		return http.StatusUnauthorized, ErrorResponse{Error: err.Error(), Code: "invalid_credentials"}
	case errors.Is(err, lightbnb.ErrUserNotFound):
		return http.StatusNotFound, ErrorResponse{Error: "user not found", Code: "not_found"}
	case errors.Is(err, lightbnb.ErrPropertyNotFound):
		return http.StatusNotFound, ErrorResponse{Error: "property not found", Code: "not_found"}
	case errors.As(err, &cv):
		return constraintResponse(cv)
	case errors.As(err, &connErr):
		return http.StatusServiceUnavailable, ErrorResponse{Error: "database unavailable", Code: "unavailable"}
	default:
		return http.StatusInternalServerError, ErrorResponse{Error: "internal server error", Code: "internal"}
	}
}

func constraintResponse(cv *lightbnb.ConstraintViolation) (int, ErrorResponse) {
	field := humanize(constraintField(cv))
	switch cv.Kind {
	case lightbnb.ConstraintUnique:
		return http.StatusConflict, ErrorResponse{Error: field + " already exists", Code: "duplicate"}
	case lightbnb.ConstraintForeignKey:
		return http.StatusBadRequest, ErrorResponse{Error: field + " refers to a record that does not exist", Code: "invalid_reference"}
	case lightbnb.ConstraintNotNull:
		return http.StatusBadRequest, ErrorResponse{Error: field + " is required", Code: "missing_field"}
	default:
		return http.StatusBadRequest, ErrorResponse{Error: field + " is invalid", Code: "invalid_value"}
	}
}

// constraintField names the column behind a violation, falling back to the
// PostgreSQL default constraint naming (table_column_key / table_column_fkey).
func constraintField(cv *lightbnb.ConstraintViolation) string {
	if cv.Column != "" {
		return cv.Column
	}
	name := cv.Constraint
	if name == "" {
		return "value"
	}
	name = strings.TrimPrefix(name, cv.Table+"_")
	for _, suffix := range []string{"_fkey", "_pkey", "_key", "_check"} {
		name = strings.TrimSuffix(name, suffix)
	}
	return name
}

// humanize turns a snake_case column into Title Case: owner_id -> "Owner Id".
func humanize(column string) string {
	return cases.Title(language.English).String(strings.ReplaceAll(column, "_", " "))
}
