package policy

import (
	"time"

	"github.com/ogulcanaydogan/balchk/pkg/model"
)

// Evaluate decides whether obs warrants a notification given the persisted
// state. A balance drop is checked before the timeout, so it wins when both
// hold. Both comparisons are inclusive.
//
// When the result is ReasonWithinLimits the returned NewState is the prior
// state and must not be persisted.
func Evaluate(obs model.Observation, prior *model.CheckState, th model.Thresholds) model.Decision {
	if prior == nil {
		return model.Decision{
			ShouldNotify: true,
			Reason:       model.ReasonNoPriorState,
			NewState:     model.StateFrom(obs),
			Observation:  obs,
		}
	}

	limitValue := prior.LastValue.Sub(th.Step)
	limitMillis := prior.LastCheckedAt.UnixMilli() + th.Timeout.Milliseconds()

	d := model.Decision{
		Observation: obs,
		LimitValue:  limitValue,
		LimitTime:   time.UnixMilli(limitMillis).UTC(),
	}

	switch {
	case obs.Value.LessThanOrEqual(limitValue):
		d.ShouldNotify = true
		d.Reason = model.ReasonBalanceDropExceeded
		d.NewState = model.StateFrom(obs)
	case obs.ObservedAt.UnixMilli() >= limitMillis:
		d.ShouldNotify = true
		d.Reason = model.ReasonTimeoutExceeded
		d.NewState = model.StateFrom(obs)
	default:
		d.Reason = model.ReasonWithinLimits
		d.NewState = *prior
	}

	return d
}
