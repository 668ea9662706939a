package alerts

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// Webhook headers. Event repeats the payload's event so receivers can route
// without decoding the body; Delivery carries the alert ID for deduplication.
const (
	HeaderEvent     = "X-Balchk-Event"
	HeaderDelivery  = "X-Balchk-Delivery"
	HeaderSignature = "X-Signature-256"
)

// EventName returns the webhook event for an alert, such as
// "balance.balance_drop_exceeded".
func EventName(a Alert) string {
	return "balance." + string(a.Reason)
}

// WebhookNotifier posts balance alerts as JSON to an arbitrary endpoint,
// signing the body with HMAC-SHA256 when a secret is configured.
type WebhookNotifier struct {
	url    string
	secret []byte
	client *http.Client
	now    func() time.Time
}

func NewWebhookNotifier(url, secret string) *WebhookNotifier {
	return &WebhookNotifier{
		url:    url,
		secret: []byte(secret),
		client: &http.Client{Timeout: 10 * time.Second},
		now:    time.Now,
	}
}

func (w *WebhookNotifier) Name() string { return "webhook" }

type webhookPayload struct {
	Event      string    `json:"event"`
	Login      string    `json:"login"`
	Balance    string    `json:"balance"`
	Previous   string    `json:"previous_balance,omitempty"`
	ObservedAt time.Time `json:"observed_at"`
	SentAt     time.Time `json:"sent_at"`
	Alert      Alert     `json:"alert"`
}

func (w *WebhookNotifier) Send(ctx context.Context, alert Alert) error {
	event := EventName(alert)
	body, err := json.Marshal(webhookPayload{
		Event:      event,
		Login:      alert.Login,
		Balance:    alert.Balance,
		Previous:   alert.PreviousBalance,
		ObservedAt: alert.ObservedAt,
		SentAt:     w.now().UTC().Truncate(time.Second),
		Alert:      alert,
	})
	if err != nil {
		return fmt.Errorf("marshal webhook payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create webhook request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", "balchk/1.0")
	req.Header.Set(HeaderEvent, event)
	req.Header.Set(HeaderDelivery, alert.ID)
	if len(w.secret) > 0 {
		req.Header.Set(HeaderSignature, "sha256="+sign(body, w.secret))
	}

	resp, err := w.client.Do(req)
	if err != nil {
		return fmt.Errorf("post %s alert: %w", event, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode/100 != 2 {
		return fmt.Errorf("webhook rejected %s alert %s: status %d", event, alert.ID, resp.StatusCode)
	}
	return nil
}

func sign(body, key []byte) string {
	mac := hmac.New(sha256.New, key)
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}
