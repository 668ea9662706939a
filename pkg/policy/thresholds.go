package policy

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/ogulcanaydogan/balchk/pkg/model"
)

// maxTimeoutMS is the largest timeout a time.Duration can hold.
const maxTimeoutMS = math.MaxInt64 / int64(time.Millisecond)

// RawThresholds holds threshold values as they appear in a configuration
// source. Empty fields fall back to the defaults.
type RawThresholds struct {
	Step      string
	TimeoutMS string
}

// Merge returns r with empty fields taken from fallback.
func (r RawThresholds) Merge(fallback RawThresholds) RawThresholds {
	if strings.TrimSpace(r.Step) == "" {
		r.Step = fallback.Step
	}
	if strings.TrimSpace(r.TimeoutMS) == "" {
		r.TimeoutMS = fallback.TimeoutMS
	}
	return r
}

// ResolveThresholds parses raw into Thresholds, applying defaults for
// missing values. Values that do not parse or are not positive are rejected.
func ResolveThresholds(raw RawThresholds) (model.Thresholds, error) {
	th := model.DefaultThresholds()

	if s := strings.TrimSpace(raw.Step); s != "" {
		step, err := decimal.NewFromString(s)
		if err != nil {
			return model.Thresholds{}, fmt.Errorf("parse notification step %q: %w", s, err)
		}
		if !step.IsPositive() {
			return model.Thresholds{}, fmt.Errorf("notification step must be positive, got %s", s)
		}
		th.Step = step
	}

	if s := strings.TrimSpace(raw.TimeoutMS); s != "" {
		ms, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			return model.Thresholds{}, fmt.Errorf("parse notification timeout %q: %w", s, err)
		}
		if ms <= 0 {
			return model.Thresholds{}, fmt.Errorf("notification timeout must be positive, got %s", s)
		}
		if ms > maxTimeoutMS {
			return model.Thresholds{}, fmt.Errorf("notification timeout %s exceeds %d ms", s, maxTimeoutMS)
		}
		th.Timeout = time.Duration(ms) * time.Millisecond
	}

	return th, nil
}
