package cli

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/ogulcanaydogan/balchk/internal/config"
	"github.com/ogulcanaydogan/balchk/pkg/alerts"
	"github.com/ogulcanaydogan/balchk/pkg/checker"
	"github.com/ogulcanaydogan/balchk/pkg/model"
	"github.com/ogulcanaydogan/balchk/pkg/policy"
	"github.com/ogulcanaydogan/balchk/pkg/portal"
	"github.com/ogulcanaydogan/balchk/pkg/storage"
)

// Version is set at build time via ldflags.
var Version = "dev"

// Exit codes.
const (
	exitOK           = 0
	exitMissingInput = 1
	exitFailure      = 2
)

var errMissingInput = errors.New("missing input")

var (
	cfgFile string
	flags   cliFlags
)

// cliFlags are the values given on the command line. Empty strings mean
// "not given".
type cliFlags struct {
	login    string
	password string
	state    string
	format   string
	notify   bool
}

var rootCmd = &cobra.Command{
	Use:   "balchk",
	Short: "Balance checker - fetch a prepaid account balance and notify on changes",
	Long: `balchk logs in to a provider's self-service portal, reads the account balance
and prints it. With --notify it compares the balance to the last notified one
and sends a notification when it dropped by more than the configured step or
when the notification timeout has passed.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	Args:          cobra.NoArgs,
	RunE:          runCheck,
}

// Execute runs the CLI and exits with a status code describing the outcome.
func Execute() {
	err := rootCmd.Execute()
	if err == nil {
		os.Exit(exitOK)
	}
	fmt.Fprintln(os.Stderr, errorMessage(err))
	os.Exit(exitCode(err))
}

func exitCode(err error) int {
	if errors.Is(err, errMissingInput) {
		return exitMissingInput
	}
	return exitFailure
}

func errorMessage(err error) string {
	if errors.Is(err, portal.ErrAuthentication) {
		return portal.ErrAuthentication.Error()
	}
	return "error: " + err.Error()
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&cfgFile, "config", "", "config file (default: ~/.balchk/config.yaml)")
	pf.StringVarP(&flags.login, "login", "l", "", "portal login")
	pf.StringVarP(&flags.password, "password", "p", "", "portal password (prompted when omitted)")
	pf.StringVarP(&flags.state, "state", "s", "", "state file path (default: ~/.balance_checker/checker.properties)")
	pf.StringVarP(&flags.format, "format", "f", "", "message template, %balance and %login are replaced")
	rootCmd.Flags().BoolVarP(&flags.notify, "notify", "n", false, "compare with the last notified balance and notify")
}

func runCheck(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	logger := newLogger(cfg)

	if !flags.notify {
		return runProbe(cmd, cfg, logger)
	}

	app, err := newApp(cfg, logger)
	if err != nil {
		return err
	}
	defer app.store.Close()

	result, err := app.checker.Run(cmd.Context(), app.creds)
	if err != nil {
		return err
	}
	if result.Decision.ShouldNotify {
		fmt.Fprintln(cmd.OutOrStdout(), result.Message)
	}
	return nil
}

// runProbe prints the current balance without touching the state.
func runProbe(cmd *cobra.Command, cfg *config.Config, logger *slog.Logger) error {
	if flags.login == "" && cfg.Credentials.Login == "" {
		return fmt.Errorf("%w: login is not specified", errMissingInput)
	}
	creds, err := resolveCredentials(flags, cfg, storage.Settings{}, promptPassword)
	if err != nil {
		return err
	}

	client, err := initClient(cfg)
	if err != nil {
		return err
	}
	c := checker.New(client, nil, nil, model.DefaultThresholds(), messageTemplate(cfg), logger)

	_, msg, err := c.Probe(cmd.Context(), creds)
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), msg)
	return nil
}

// app is the wired notify pipeline shared by the root command and watch.
type app struct {
	checker *checker.Checker
	store   storage.StateStore
	creds   model.Credentials
}

func newApp(cfg *config.Config, logger *slog.Logger) (*app, error) {
	store, err := initStore(cfg)
	if err != nil {
		return nil, err
	}

	var settings storage.Settings
	if props, ok := store.(*storage.Properties); ok {
		settings, err = props.Settings()
		if err != nil {
			store.Close()
			return nil, err
		}
	}

	creds, err := resolveCredentials(flags, cfg, settings, promptPassword)
	if err != nil {
		store.Close()
		return nil, err
	}
	thresholds, err := resolveThresholds(cfg, settings)
	if err != nil {
		store.Close()
		return nil, err
	}
	client, err := initClient(cfg)
	if err != nil {
		store.Close()
		return nil, err
	}

	logger.Debug("thresholds resolved",
		"step", thresholds.Step.String(),
		"timeout_ms", thresholds.Timeout.Milliseconds(),
	)

	c := checker.New(client, store, initNotifiers(cfg), thresholds, messageTemplate(cfg), logger)
	return &app{checker: c, store: store, creds: creds}, nil
}

// loadConfig loads the configuration.
func loadConfig() (*config.Config, error) {
	return config.Load(cfgFile)
}

// newLogger creates a structured logger from config.
func newLogger(cfg *config.Config) *slog.Logger {
	level := slog.LevelInfo
	switch cfg.Logging.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}

	var handler slog.Handler
	if cfg.Logging.Format == "text" {
		handler = slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})
	} else {
		handler = slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: level})
	}

	return slog.New(handler)
}

func messageTemplate(cfg *config.Config) string {
	if flags.format != "" {
		return flags.format
	}
	return cfg.Notification.Format
}

// initClient builds the portal client from the profile file, if any, with
// portal.url taking precedence over the profile's url.
func initClient(cfg *config.Config) (*portal.Client, error) {
	profile := portal.DefaultProfile()
	if cfg.Portal.Profile != "" {
		p, err := portal.LoadProfile(cfg.Portal.Profile)
		if err != nil {
			return nil, err
		}
		profile = p
	}
	if cfg.Portal.URL != "" {
		profile.URL = cfg.Portal.URL
	}
	if profile.URL == "" {
		return nil, fmt.Errorf("%w: portal url is not specified", errMissingInput)
	}

	timeout, err := time.ParseDuration(cfg.Portal.Timeout)
	if err != nil {
		return nil, fmt.Errorf("parse portal timeout %q: %w", cfg.Portal.Timeout, err)
	}
	return portal.NewClient(profile, timeout), nil
}

// initStore opens the state backend. --state overrides state.path; a sqlite
// backend left on the default properties path gets a .db file beside it.
func initStore(cfg *config.Config) (storage.StateStore, error) {
	path := cfg.State.Path
	if flags.state != "" {
		path = flags.state
	} else if cfg.State.Backend == storage.BackendSQLite && path == config.DefaultStatePath() {
		path = filepath.Join(filepath.Dir(path), "checker.db")
	}
	return storage.Open(cfg.State.Backend, path)
}

// initNotifiers creates alert notifiers from config.
func initNotifiers(cfg *config.Config) []alerts.Notifier {
	var notifiers []alerts.Notifier

	if cfg.Alerts.Desktop.Enabled && cfg.Alerts.Desktop.Command != "" {
		notifiers = append(notifiers, alerts.NewDesktopNotifier(
			cfg.Alerts.Desktop.Command,
			cfg.Alerts.Desktop.Args...,
		))
	}

	if cfg.Alerts.Slack.Enabled && cfg.Alerts.Slack.WebhookURL != "" {
		notifiers = append(notifiers, alerts.NewSlackNotifier(
			cfg.Alerts.Slack.WebhookURL,
			cfg.Alerts.Slack.Channel,
		))
	}

	if cfg.Alerts.Webhook.Enabled && cfg.Alerts.Webhook.URL != "" {
		notifiers = append(notifiers, alerts.NewWebhookNotifier(
			cfg.Alerts.Webhook.URL,
			cfg.Alerts.Webhook.Secret,
		))
	}

	return notifiers
}

// resolveCredentials picks the login and password from flags, then config,
// then the properties file. A missing password is prompted for.
func resolveCredentials(f cliFlags, cfg *config.Config, settings storage.Settings, prompt func() (string, error)) (model.Credentials, error) {
	login := firstNonEmpty(f.login, cfg.Credentials.Login, settings.Login)
	if login == "" {
		return model.Credentials{}, fmt.Errorf("%w: login is not specified", errMissingInput)
	}

	password := firstNonEmpty(f.password, cfg.Credentials.Password)
	if password == "" && f.login == "" {
		// The stored password belongs to the stored login only.
		password = settings.Password
	}
	if password == "" {
		p, err := prompt()
		if err != nil {
			return model.Credentials{}, err
		}
		password = p
	}
	if password == "" {
		return model.Credentials{}, fmt.Errorf("%w: password is not specified", errMissingInput)
	}

	return model.Credentials{Login: login, Password: password}, nil
}

// resolveThresholds merges config thresholds with the properties file ones
// and applies defaults.
func resolveThresholds(cfg *config.Config, settings storage.Settings) (model.Thresholds, error) {
	fromFile := policy.RawThresholds{Step: settings.Step, TimeoutMS: settings.TimeoutMS}
	return policy.ResolveThresholds(cfg.RawThresholds().Merge(fromFile))
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
