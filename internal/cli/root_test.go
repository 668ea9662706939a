package cli

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ogulcanaydogan/balchk/internal/config"
	"github.com/ogulcanaydogan/balchk/pkg/portal"
	"github.com/ogulcanaydogan/balchk/pkg/storage"
)

func noPrompt() (string, error) {
	return "", fmt.Errorf("%w: password is not specified", errMissingInput)
}

func TestResolveCredentials_Precedence(t *testing.T) {
	cfg := &config.Config{}
	cfg.Credentials.Login = "cfg-user"
	cfg.Credentials.Password = "cfg-pass"
	settings := storage.Settings{Login: "file-user", Password: "file-pass"}

	creds, err := resolveCredentials(cliFlags{login: "flag-user", password: "flag-pass"}, cfg, settings, noPrompt)
	require.NoError(t, err)
	assert.Equal(t, "flag-user", creds.Login)
	assert.Equal(t, "flag-pass", creds.Password)

	creds, err = resolveCredentials(cliFlags{}, cfg, settings, noPrompt)
	require.NoError(t, err)
	assert.Equal(t, "cfg-user", creds.Login)
	assert.Equal(t, "cfg-pass", creds.Password)

	creds, err = resolveCredentials(cliFlags{}, &config.Config{}, settings, noPrompt)
	require.NoError(t, err)
	assert.Equal(t, "file-user", creds.Login)
	assert.Equal(t, "file-pass", creds.Password)
}

func TestResolveCredentials_FlagLoginDoesNotUseStoredPassword(t *testing.T) {
	settings := storage.Settings{Login: "file-user", Password: "file-pass"}
	prompted := false
	prompt := func() (string, error) {
		prompted = true
		return "typed", nil
	}

	creds, err := resolveCredentials(cliFlags{login: "other"}, &config.Config{}, settings, prompt)
	require.NoError(t, err)
	assert.True(t, prompted)
	assert.Equal(t, "other", creds.Login)
	assert.Equal(t, "typed", creds.Password)
}

func TestResolveCredentials_Missing(t *testing.T) {
	_, err := resolveCredentials(cliFlags{}, &config.Config{}, storage.Settings{}, noPrompt)
	require.Error(t, err)
	assert.True(t, errors.Is(err, errMissingInput))
	assert.Contains(t, err.Error(), "login is not specified")
	assert.Equal(t, exitMissingInput, exitCode(err))

	_, err = resolveCredentials(cliFlags{login: "alice"}, &config.Config{}, storage.Settings{}, noPrompt)
	require.Error(t, err)
	assert.Equal(t, exitMissingInput, exitCode(err))

	empty := func() (string, error) { return "", nil }
	_, err = resolveCredentials(cliFlags{login: "alice"}, &config.Config{}, storage.Settings{}, empty)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "password is not specified")
}

func TestResolveThresholds_ConfigOverFile(t *testing.T) {
	cfg := &config.Config{}
	cfg.Notification.Step = "5"
	settings := storage.Settings{Step: "20", TimeoutMS: "1000"}

	th, err := resolveThresholds(cfg, settings)
	require.NoError(t, err)
	assert.Equal(t, "5", th.Step.String())
	assert.Equal(t, time.Second, th.Timeout)

	th, err = resolveThresholds(&config.Config{}, storage.Settings{})
	require.NoError(t, err)
	assert.Equal(t, "10", th.Step.String())
	assert.Equal(t, time.Hour, th.Timeout)

	_, err = resolveThresholds(&config.Config{}, storage.Settings{Step: "ten"})
	require.Error(t, err)
	assert.Equal(t, exitFailure, exitCode(err))
}

func TestErrorMessage(t *testing.T) {
	authErr := fmt.Errorf("fetch balance: %w", &portal.Error{Kind: portal.ErrAuthentication, Op: "check login"})
	assert.Equal(t, "login and password mismatch", errorMessage(authErr))
	assert.Equal(t, exitFailure, exitCode(authErr))

	parseErr := fmt.Errorf("fetch balance: %w", &portal.Error{Kind: portal.ErrParse, Op: "locate balance"})
	assert.Contains(t, errorMessage(parseErr), "error: fetch balance")
}

func TestInitClient(t *testing.T) {
	cfg := &config.Config{}
	cfg.Portal.Timeout = "5s"

	_, err := initClient(cfg)
	require.Error(t, err)
	assert.Equal(t, exitMissingInput, exitCode(err))

	cfg.Portal.URL = "https://cabinet.example.net/"
	client, err := initClient(cfg)
	require.NoError(t, err)
	assert.Equal(t, "https://cabinet.example.net/", client.Profile().URL)

	cfg.Portal.Timeout = "soon"
	_, err = initClient(cfg)
	assert.Error(t, err)
}

func TestInitNotifiers(t *testing.T) {
	cfg := &config.Config{}
	assert.Empty(t, initNotifiers(cfg))

	cfg.Alerts.Desktop.Enabled = true
	cfg.Alerts.Desktop.Command = "notify-send"
	cfg.Alerts.Slack.Enabled = true
	cfg.Alerts.Webhook.Enabled = true
	cfg.Alerts.Webhook.URL = "https://hooks.example.net/"

	var names []string
	for _, n := range initNotifiers(cfg) {
		names = append(names, n.Name())
	}
	assert.Equal(t, []string{"desktop", "webhook"}, names)
}
