package alerts_test

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ogulcanaydogan/balchk/pkg/alerts"
	"github.com/ogulcanaydogan/balchk/pkg/model"
)

func TestWebhookNotifier_Name(t *testing.T) {
	n := alerts.NewWebhookNotifier("https://example.com/webhook", "")
	assert.Equal(t, "webhook", n.Name())
}

func TestWebhookNotifier_Send(t *testing.T) {
	var received map[string]any
	var delivery, event string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		assert.Equal(t, "balchk/1.0", r.Header.Get("User-Agent"))
		assert.Equal(t, http.MethodPost, r.Method)
		delivery = r.Header.Get(alerts.HeaderDelivery)
		event = r.Header.Get(alerts.HeaderEvent)

		err := json.NewDecoder(r.Body).Decode(&received)
		require.NoError(t, err)
		w.WriteHeader(http.StatusNoContent)
	}))
	defer server.Close()

	n := alerts.NewWebhookNotifier(server.URL, "")
	alert := sampleAlert(model.ReasonBalanceDropExceeded)

	err := n.Send(context.Background(), alert)
	require.NoError(t, err)
	assert.Equal(t, "balance.balance_drop_exceeded", received["event"])
	assert.Equal(t, "balance.balance_drop_exceeded", event)
	assert.Equal(t, alert.ID, delivery)
	assert.Equal(t, "alice", received["login"])
	assert.Equal(t, "85.5", received["balance"])
	assert.Equal(t, "100", received["previous_balance"])
	assert.Equal(t, "2024-05-01T10:00:00Z", received["observed_at"])
	assert.NotEmpty(t, received["sent_at"])

	body, ok := received["alert"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "balance_drop_exceeded", body["reason"])
	assert.Equal(t, "85.5", body["balance"])
}

func TestEventName(t *testing.T) {
	tests := []struct {
		reason model.Reason
		want   string
	}{
		{model.ReasonNoPriorState, "balance.no_prior_state"},
		{model.ReasonBalanceDropExceeded, "balance.balance_drop_exceeded"},
		{model.ReasonTimeoutExceeded, "balance.timeout_exceeded"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, alerts.EventName(sampleAlert(tt.reason)))
	}
}

func TestWebhookNotifier_Send_WithHMAC(t *testing.T) {
	var signature string
	var payload []byte
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		signature = r.Header.Get(alerts.HeaderSignature)
		payload, _ = io.ReadAll(r.Body)
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	n := alerts.NewWebhookNotifier(server.URL, "test-secret")
	err := n.Send(context.Background(), sampleAlert(model.ReasonTimeoutExceeded))
	require.NoError(t, err)

	mac := hmac.New(sha256.New, []byte("test-secret"))
	mac.Write(payload)
	assert.Equal(t, "sha256="+hex.EncodeToString(mac.Sum(nil)), signature)
}

func TestWebhookNotifier_Send_NoHMAC(t *testing.T) {
	var hasSignature bool
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hasSignature = r.Header.Get(alerts.HeaderSignature) != ""
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	n := alerts.NewWebhookNotifier(server.URL, "")
	err := n.Send(context.Background(), sampleAlert(model.ReasonNoPriorState))
	require.NoError(t, err)
	assert.False(t, hasSignature)
}

func TestWebhookNotifier_Send_ServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	n := alerts.NewWebhookNotifier(server.URL, "")
	err := n.Send(context.Background(), sampleAlert(model.ReasonNoPriorState))
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "status 503")
}
