// Package entitlement decides whether an identity may start a new
// assessment run given its billing state and run history.
//
// The gate is a pure function: it reads only its input, has no side
// effects, and must be re-evaluated fresh on every run-creation request.
// Billing decisions are never cached against stale state.
package entitlement

import (
	"time"

	"github.com/jonathan/ray-assessment/internal/types"
)

// GracePeriod is how long after a canceled subscription's period end a
// user may still start a run.
const GracePeriod = 7 * 24 * time.Hour

// Denial reasons surfaced to the caller.
const (
	ReasonRun1Used             = "paid_43_run1_used"
	ReasonReactivationRequired = "reactivation_required"
	ReasonNeedsUpgrade         = "needs_upgrade"
)

// GateInput carries everything the gate may consider. Now is passed in so
// the decision is reproducible.
type GateInput struct {
	BillingState      types.BillingState
	CompletedRunCount int
	CurrentPeriodEnd  *time.Time
	Now               time.Time
	Override          bool // operator override: always allow
}

// Decision is the gate outcome. Reason is set only on denial.
type Decision struct {
	Allowed bool   `json:"allowed"`
	Reason  string `json:"reason,omitempty"`
}

// CanStartRun applies the gate rules in priority order.
func CanStartRun(in GateInput) Decision {
	if in.Override {
		return Decision{Allowed: true}
	}

	switch in.BillingState {
	case types.BillingOneTime:
		// A one-time purchase covers exactly one run, ever.
		if in.CompletedRunCount == 0 {
			return Decision{Allowed: true}
		}
		return Decision{Allowed: false, Reason: ReasonRun1Used}

	case types.BillingSubActive:
		return Decision{Allowed: true}

	case types.BillingSubCanceled:
		if in.CurrentPeriodEnd != nil && in.Now.Before(in.CurrentPeriodEnd.Add(GracePeriod)) {
			return Decision{Allowed: true}
		}
		return Decision{Allowed: false, Reason: ReasonReactivationRequired}

	case types.BillingPastDue:
		return Decision{Allowed: false, Reason: ReasonReactivationRequired}

	default:
		return Decision{Allowed: false, Reason: ReasonNeedsUpgrade}
	}
}
