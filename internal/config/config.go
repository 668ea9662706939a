package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"

	"github.com/ogulcanaydogan/balchk/pkg/policy"
)

// Config holds all balchk configuration.
type Config struct {
	Portal       PortalConfig       `mapstructure:"portal"`
	Credentials  CredentialsConfig  `mapstructure:"credentials"`
	Notification NotificationConfig `mapstructure:"notification"`
	State        StateConfig        `mapstructure:"state"`
	Alerts       AlertsConfig       `mapstructure:"alerts"`
	Schedule     ScheduleConfig     `mapstructure:"schedule"`
	Server       ServerConfig       `mapstructure:"server"`
	Logging      LoggingConfig      `mapstructure:"logging"`
}

// PortalConfig defines how the portal is reached. Profile, when set, points
// to a YAML file with the full locator description; URL overrides its url.
type PortalConfig struct {
	URL     string `mapstructure:"url"`
	Timeout string `mapstructure:"timeout"`
	Profile string `mapstructure:"profile"`
}

// CredentialsConfig holds the portal login.
type CredentialsConfig struct {
	Login    string `mapstructure:"login"`
	Password string `mapstructure:"password"`
}

// NotificationConfig holds the message template and raw thresholds. The
// thresholds have no defaults here; see Thresholds.
type NotificationConfig struct {
	Format    string `mapstructure:"format"`
	Step      string `mapstructure:"step"`
	TimeoutMS string `mapstructure:"timeout_ms"`
}

// StateConfig selects where the last observation is kept.
type StateConfig struct {
	Backend string `mapstructure:"backend"`
	Path    string `mapstructure:"path"`
}

// AlertsConfig defines notification sinks.
type AlertsConfig struct {
	Desktop DesktopConfig `mapstructure:"desktop"`
	Slack   SlackConfig   `mapstructure:"slack"`
	Webhook WebhookConfig `mapstructure:"webhook"`
}

// DesktopConfig defines the desktop notification command.
type DesktopConfig struct {
	Enabled bool     `mapstructure:"enabled"`
	Command string   `mapstructure:"command"`
	Args    []string `mapstructure:"args"`
}

// SlackConfig defines Slack webhook settings.
type SlackConfig struct {
	Enabled    bool   `mapstructure:"enabled"`
	WebhookURL string `mapstructure:"webhook_url"`
	Channel    string `mapstructure:"channel"`
}

// WebhookConfig defines generic webhook settings.
type WebhookConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	URL     string `mapstructure:"url"`
	Secret  string `mapstructure:"secret"`
}

// ScheduleConfig drives the watch command.
type ScheduleConfig struct {
	Cron       string `mapstructure:"cron"`
	RunOnStart bool   `mapstructure:"run_on_start"`
}

// ServerConfig defines the status API served in watch mode.
type ServerConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Listen  string `mapstructure:"listen"`
}

// LoggingConfig defines logging settings.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// DefaultStatePath returns ~/.balance_checker/checker.properties.
func DefaultStatePath() string {
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".balance_checker", "checker.properties")
}

// Load reads configuration from file and environment variables.
func Load(cfgFile string) (*Config, error) {
	v := viper.New()

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("find home directory: %w", err)
		}

		v.AddConfigPath(filepath.Join(home, ".balchk"))
		v.AddConfigPath(".")
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}

	v.SetDefault("portal.url", "")
	v.SetDefault("portal.timeout", "30s")
	v.SetDefault("portal.profile", "")
	v.SetDefault("credentials.login", "")
	v.SetDefault("credentials.password", "")
	v.SetDefault("notification.format", policy.DefaultTemplate)
	v.SetDefault("notification.step", "")
	v.SetDefault("notification.timeout_ms", "")
	v.SetDefault("state.backend", "properties")
	v.SetDefault("state.path", DefaultStatePath())
	v.SetDefault("alerts.desktop.enabled", true)
	v.SetDefault("alerts.desktop.command", "notify-send")
	v.SetDefault("alerts.slack.channel", "#balance")
	v.SetDefault("schedule.cron", "@every 15m")
	v.SetDefault("schedule.run_on_start", true)
	v.SetDefault("server.enabled", false)
	v.SetDefault("server.listen", ":8080")
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "text")

	// Environment variables
	v.SetEnvPrefix("BALCHK")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Read config file (ignore if not found)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	return &cfg, nil
}

// RawThresholds returns the configured thresholds as written, for
// policy.ResolveThresholds.
func (c *Config) RawThresholds() policy.RawThresholds {
	return policy.RawThresholds{
		Step:      c.Notification.Step,
		TimeoutMS: c.Notification.TimeoutMS,
	}
}
