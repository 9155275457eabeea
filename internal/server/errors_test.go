package server

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"github.com/jonathan/ray-assessment/internal/run"
)

func TestHTTPStatus_RunErrors(t *testing.T) {
	runID := uuid.New()

	tests := []struct {
		name string
		err  error
		want int
	}{
		{
			name: "authorization error",
			err:  &run.AuthorizationError{Message: "run belongs to a different user"},
			want: http.StatusForbidden,
		},
		{
			name: "gate denial",
			err:  &run.AuthorizationError{Message: "cannot start a new run", Reason: "needs_upgrade"},
			want: http.StatusForbidden,
		},
		{
			name: "not found",
			err:  &run.NotFoundError{RunID: runID},
			want: http.StatusNotFound,
		},
		{
			name: "state conflict",
			err:  &run.StateError{Code: run.CodeInvalidTransition, Message: "cannot start a completed run"},
			want: http.StatusConflict,
		},
		{
			name: "run not active",
			err:  &run.StateError{Code: run.CodeRunNotActive, Message: "completed concurrently"},
			want: http.StatusConflict,
		},
		{
			name: "insufficient responses",
			err:  &run.DataError{Code: run.CodeInsufficientResponses, Message: "answered 40%, need 70%"},
			want: http.StatusUnprocessableEntity,
		},
		{
			name: "malformed response",
			err:  &run.DataError{Code: run.CodeMalformedResponse, Message: "value out of range"},
			want: http.StatusUnprocessableEntity,
		},
		{
			name: "missing signature pair",
			err:  &run.IntegrityError{RunID: runID, Missing: true, Message: "no signature pair on file"},
			want: http.StatusNotFound,
		},
		{
			name: "integrity failure",
			err:  &run.IntegrityError{RunID: runID, Message: "stored hashes inconsistent"},
			want: http.StatusInternalServerError,
		},
		{
			name: "transient store error",
			err:  &run.TransientError{Message: "connection refused"},
			want: http.StatusServiceUnavailable,
		},
		{
			name: "wrapped run error",
			err:  fmt.Errorf("failed to load run: %w", &run.NotFoundError{RunID: runID}),
			want: http.StatusNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, HTTPStatus(tt.err))
		})
	}
}

func TestHTTPStatus_AuthErrors(t *testing.T) {
	assert.Equal(t, http.StatusConflict, HTTPStatus(&ErrEmailAlreadyExists{Email: "a@b.com"}))
	assert.Equal(t, http.StatusUnauthorized, HTTPStatus(&ErrInvalidCredentials{}))
	assert.Equal(t, http.StatusNotFound, HTTPStatus(&ErrUserNotFound{UserID: uuid.New()}))
}

func TestHTTPStatus_UnknownError(t *testing.T) {
	assert.Equal(t, http.StatusInternalServerError, HTTPStatus(errors.New("boom")))
}
