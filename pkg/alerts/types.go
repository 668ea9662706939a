package alerts

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/ogulcanaydogan/balchk/pkg/model"
	"github.com/ogulcanaydogan/balchk/pkg/policy"
)

// Alert is a rendered balance notification.
type Alert struct {
	ID              string       `json:"id"`
	Reason          model.Reason `json:"reason"`
	Login           string       `json:"login,omitempty"`
	Balance         string       `json:"balance"`
	PreviousBalance string       `json:"previous_balance,omitempty"`
	Message         string       `json:"message"`
	ObservedAt      time.Time    `json:"observed_at"`
}

// NewAlert builds the alert for a notifying decision. prior may be nil.
func NewAlert(d model.Decision, prior *model.CheckState, login, message string) Alert {
	a := Alert{
		ID:         uuid.New().String(),
		Reason:     d.Reason,
		Login:      login,
		Balance:    policy.FormatBalance(d.Observation),
		Message:    message,
		ObservedAt: d.Observation.ObservedAt,
	}
	if prior != nil {
		a.PreviousBalance = policy.FormatBalance(model.Observation{Value: prior.LastValue})
	}
	return a
}

// Notifier delivers alerts to the user.
type Notifier interface {
	// Name returns the notifier identifier.
	Name() string

	// Send delivers an alert. Implementations must be safe for concurrent use.
	Send(ctx context.Context, alert Alert) error
}
