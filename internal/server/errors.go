package server

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/google/uuid"

	"github.com/jonathan/ray-assessment/internal/run"
)

// ErrEmailAlreadyExists indicates email is already registered
type ErrEmailAlreadyExists struct {
	Email string
}

func (e *ErrEmailAlreadyExists) Error() string {
	return fmt.Sprintf("email already registered: %s", e.Email)
}

// ErrInvalidCredentials indicates invalid login credentials
type ErrInvalidCredentials struct{}

func (e *ErrInvalidCredentials) Error() string {
	return "invalid email or password"
}

// ErrUserNotFound indicates user was not found
type ErrUserNotFound struct {
	UserID uuid.UUID
}

func (e *ErrUserNotFound) Error() string {
	return fmt.Sprintf("user not found: %s", e.UserID)
}

// HTTPStatus maps service and auth errors to HTTP status codes. The run
// error taxonomy maps one kind to one status class: authorization to 403,
// missing to 404, state conflicts to 409, bad data to 422, integrity
// failures and transient store errors to 5xx.
func HTTPStatus(err error) int {
	var (
		authErr      *run.AuthorizationError
		notFoundErr  *run.NotFoundError
		stateErr     *run.StateError
		dataErr      *run.DataError
		integrityErr *run.IntegrityError
		transientErr *run.TransientError
	)
	switch {
	case errors.As(err, &authErr):
		return http.StatusForbidden
	case errors.As(err, &notFoundErr):
		return http.StatusNotFound
	case errors.As(err, &stateErr):
		return http.StatusConflict
	case errors.As(err, &dataErr):
		return http.StatusUnprocessableEntity
	case errors.As(err, &integrityErr):
		if integrityErr.Missing {
			return http.StatusNotFound
		}
		return http.StatusInternalServerError
	case errors.As(err, &transientErr):
		return http.StatusServiceUnavailable
	}

	switch err.(type) {
	case *ErrEmailAlreadyExists:
		return http.StatusConflict
	case *ErrInvalidCredentials:
		return http.StatusUnauthorized
	case *ErrUserNotFound:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}
