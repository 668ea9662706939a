package policy

import (
	"strings"

	"github.com/ogulcanaydogan/balchk/pkg/model"
)

// DefaultTemplate is used when no message template is configured.
const DefaultTemplate = "Current balance is %balance"

const (
	balancePlaceholder = "%balance"
	loginPlaceholder   = "%login"
)

// RenderMessage substitutes %balance and %login in template. The balance is
// rounded half to even at two decimals with trailing zeros dropped, so 100.00
// renders as "100", 12.345 as "12.34" and 12.355 as "12.36".
func RenderMessage(template string, obs model.Observation, login string) string {
	if template == "" {
		template = DefaultTemplate
	}
	r := strings.NewReplacer(
		balancePlaceholder, FormatBalance(obs),
		loginPlaceholder, login,
	)
	return r.Replace(template)
}

// FormatBalance renders the observed value the way messages show it.
func FormatBalance(obs model.Observation) string {
	return obs.Value.RoundBank(2).String()
}
