package checker

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/ogulcanaydogan/balchk/pkg/alerts"
	"github.com/ogulcanaydogan/balchk/pkg/model"
	"github.com/ogulcanaydogan/balchk/pkg/policy"
	"github.com/ogulcanaydogan/balchk/pkg/storage"
)

// Fetcher reads the current balance from the portal.
type Fetcher interface {
	Fetch(ctx context.Context, creds model.Credentials) (model.Observation, error)
}

// Result describes one check cycle.
type Result struct {
	Decision model.Decision `json:"decision"`
	Message  string         `json:"message,omitempty"`

	// Delivered and Failed name the notifiers that did or did not accept the
	// alert. Both are empty when no notification was due.
	Delivered []string `json:"delivered,omitempty"`
	Failed    []string `json:"failed,omitempty"`
}

// Checker runs the fetch, evaluate, persist, notify cycle.
type Checker struct {
	fetcher    Fetcher
	store      storage.StateStore
	notifiers  []alerts.Notifier
	thresholds model.Thresholds
	template   string
	logger     *slog.Logger

	mu sync.Mutex
}

// New creates a checker. An empty template means policy.DefaultTemplate.
func New(fetcher Fetcher, store storage.StateStore, notifiers []alerts.Notifier, thresholds model.Thresholds, template string, logger *slog.Logger) *Checker {
	if template == "" {
		template = policy.DefaultTemplate
	}
	return &Checker{
		fetcher:    fetcher,
		store:      store,
		notifiers:  notifiers,
		thresholds: thresholds,
		template:   template,
		logger:     logger,
	}
}

// Run performs one check. Fetch and store errors are returned unchanged in
// kind; notifier failures are only logged and listed in the result. Calls
// are serialised so the store sees a single writer.
func (c *Checker) Run(ctx context.Context, creds model.Credentials) (*Result, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	prior, err := c.store.LoadState(ctx)
	if err != nil {
		return nil, fmt.Errorf("load state: %w", err)
	}

	obs, err := c.fetcher.Fetch(ctx, creds)
	if err != nil {
		return nil, fmt.Errorf("fetch balance: %w", err)
	}

	d := policy.Evaluate(obs, prior, c.thresholds)
	c.logDecision(d)

	result := &Result{Decision: d}
	if !d.ShouldNotify {
		return result, nil
	}

	if err := c.store.SaveState(ctx, d.NewState); err != nil {
		return nil, fmt.Errorf("save state: %w", err)
	}

	result.Message = policy.RenderMessage(c.template, obs, creds.Login)
	alert := alerts.NewAlert(d, prior, creds.Login, result.Message)

	for _, n := range c.notifiers {
		if err := n.Send(ctx, alert); err != nil {
			c.logger.Error("send alert failed",
				"notifier", n.Name(),
				"alert_id", alert.ID,
				"error", err,
			)
			result.Failed = append(result.Failed, n.Name())
			continue
		}
		result.Delivered = append(result.Delivered, n.Name())
	}

	return result, nil
}

// Probe fetches the balance and renders the message without reading or
// writing state and without notifying.
func (c *Checker) Probe(ctx context.Context, creds model.Credentials) (model.Observation, string, error) {
	obs, err := c.fetcher.Fetch(ctx, creds)
	if err != nil {
		return model.Observation{}, "", fmt.Errorf("fetch balance: %w", err)
	}
	c.logger.Info("current balance", "login", creds.Login, "balance", obs.Value.String())
	return obs, policy.RenderMessage(c.template, obs, creds.Login), nil
}

// State returns the persisted state, or nil if there is none.
func (c *Checker) State(ctx context.Context) (*model.CheckState, error) {
	return c.store.LoadState(ctx)
}

func (c *Checker) logDecision(d model.Decision) {
	balance := d.Observation.Value.String()
	switch d.Reason {
	case model.ReasonNoPriorState:
		c.logger.Info("no previous check result found", "balance", balance)
	case model.ReasonBalanceDropExceeded:
		c.logger.Info("balance reached limit value",
			"balance", balance,
			"limit_value", d.LimitValue.String(),
		)
	case model.ReasonTimeoutExceeded:
		c.logger.Info("notification timeout reached",
			"observed_at", d.Observation.ObservedAt,
			"limit_time", d.LimitTime,
		)
	default:
		c.logger.Info("balance within limits",
			"balance", balance,
			"observed_at", d.Observation.ObservedAt,
			"limit_value", d.LimitValue.String(),
			"limit_time", d.LimitTime,
		)
	}
}
