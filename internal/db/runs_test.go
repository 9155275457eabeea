package db

import (
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"

	"github.com/jonathan/ray-assessment/internal/run"
)

func TestIsRunNumberCollision(t *testing.T) {
	runNumberViolation := &pgconn.PgError{
		Code:           "23505",
		ConstraintName: "runs_user_id_run_number_key",
	}

	tests := []struct {
		name string
		err  error
		want bool
	}{
		{
			name: "unique violation on the run number constraint",
			err:  runNumberViolation,
			want: true,
		},
		{
			name: "wrapped violation still detected",
			err:  fmt.Errorf("failed to create run: %w", runNumberViolation),
			want: true,
		},
		{
			name: "unique violation on another constraint",
			err:  &pgconn.PgError{Code: "23505", ConstraintName: "users_email_key"},
			want: false,
		},
		{
			name: "different error code",
			err:  &pgconn.PgError{Code: "40001", ConstraintName: "runs_user_id_run_number_key"},
			want: false,
		},
		{
			name: "plain error",
			err:  errors.New("connection reset"),
			want: false,
		},
		{
			name: "nil error",
			err:  nil,
			want: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, isRunNumberCollision(tt.err))
		})
	}
}

func TestClassify_RunNumberCollisionIsNotTransient(t *testing.T) {
	// The collision is handled by CreateRun's own re-execution loop, not
	// the generic transient classification.
	err := classify("failed to create run", &pgconn.PgError{
		Code:           "23505",
		ConstraintName: "runs_user_id_run_number_key",
	})
	assert.False(t, run.IsTransient(err))
}
