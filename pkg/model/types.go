package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Credentials identifies the account on the portal.
type Credentials struct {
	Login    string `json:"login"`
	Password string `json:"-"`
}

// Observation is a single balance reading taken from the portal.
type Observation struct {
	Value      decimal.Decimal `json:"value"`
	ObservedAt time.Time       `json:"observed_at"`
}

// CheckState is the last notified balance and when it was taken.
type CheckState struct {
	LastValue     decimal.Decimal `json:"last_value" db:"last_value"`
	LastCheckedAt time.Time       `json:"last_checked_at" db:"last_checked_at"`
}

// StateFrom builds the state that replaces the persisted one after a notification.
func StateFrom(obs Observation) CheckState {
	return CheckState{
		LastValue:     obs.Value,
		LastCheckedAt: obs.ObservedAt,
	}
}

// Thresholds control when a new observation warrants another notification.
type Thresholds struct {
	Step    decimal.Decimal `json:"step"`
	Timeout time.Duration   `json:"timeout"`
}

const (
	DefaultStep      = 10
	DefaultTimeoutMS = 3_600_000
)

// DefaultThresholds returns a 10 unit step and a one hour timeout.
func DefaultThresholds() Thresholds {
	return Thresholds{
		Step:    decimal.NewFromInt(DefaultStep),
		Timeout: DefaultTimeoutMS * time.Millisecond,
	}
}

// Reason explains a notification decision.
type Reason string

const (
	ReasonNoPriorState        Reason = "no_prior_state"
	ReasonBalanceDropExceeded Reason = "balance_drop_exceeded"
	ReasonTimeoutExceeded     Reason = "timeout_exceeded"
	ReasonWithinLimits        Reason = "within_limits"
)

// Decision is the outcome of evaluating one observation against the persisted state.
type Decision struct {
	ShouldNotify bool        `json:"should_notify"`
	Reason       Reason      `json:"reason"`
	NewState     CheckState  `json:"new_state"`
	Observation  Observation `json:"observation"`

	// Limits are zero when there was no prior state.
	LimitValue decimal.Decimal `json:"limit_value"`
	LimitTime  time.Time       `json:"limit_time"`
}

// TruncateMillis drops sub-millisecond precision so timestamps survive a
// round trip through millisecond based stores unchanged.
func TruncateMillis(t time.Time) time.Time {
	return time.UnixMilli(t.UnixMilli()).UTC()
}
