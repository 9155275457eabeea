package types

import (
	"time"

	"github.com/google/uuid"
)

// BillingState is the billing posture of a user, as mirrored from the
// payment provider. It is a read-only input to the entitlement gate.
type BillingState string

const (
	BillingNone        BillingState = "none"
	BillingOneTime     BillingState = "one_time"
	BillingSubActive   BillingState = "sub_active"
	BillingSubCanceled BillingState = "sub_canceled"
	BillingPastDue     BillingState = "past_due"
)

// Entitlement is the per-user billing record read before every run creation.
type Entitlement struct {
	UserID           uuid.UUID    `json:"user_id"`
	BillingState     BillingState `json:"billing_state"`
	CurrentPeriodEnd *time.Time   `json:"current_period_end,omitempty"`
	UpdatedAt        time.Time    `json:"updated_at"`
}

// EntitlementSnapshot freezes the gate decision taken when a run was
// created, for later audit.
type EntitlementSnapshot struct {
	BillingState      BillingState `json:"billing_state"`
	CompletedRunCount int          `json:"completed_run_count"`
	Allowed           bool         `json:"allowed"`
	Reason            string       `json:"reason,omitempty"`
	EvaluatedAt       time.Time    `json:"evaluated_at"`
}
