package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

const envPrefix = "OUTPOST_"

// Config holds everything both controllers consume. Required settings are
// validated at cold start; a missing one is fatal before any signal is
// handled.
type Config struct {
	// StatePrefix scopes every state-store key, e.g. "/outpost/prod".
	StatePrefix string `yaml:"state_prefix"`

	// LaunchTemplateID identifies the launch template replacements are
	// created from.
	LaunchTemplateID string `yaml:"launch_template_id"`

	// DNSZoneID and DNSRecordID identify the Cloudflare record kept in
	// sync with the instance's public address.
	DNSZoneID   string `yaml:"dns_zone_id"`
	DNSRecordID string `yaml:"dns_record_id"`

	// LogLevel is one of debug, info, warn, error.
	LogLevel string `yaml:"log_level"`

	// QueueURL is the SQS queue the daemon long-polls for signals.
	// Required by `outpost run`, unused by the one-shot commands.
	QueueURL string `yaml:"queue_url"`

	// MetricsAddr is the listen address for /metrics and /healthz.
	MetricsAddr string `yaml:"metrics_addr"`

	// LocalStorePath switches the state store from SSM to a local bbolt
	// file, for development and testing.
	LocalStorePath string `yaml:"local_store_path"`

	// StorePassphrase encrypts secret values in the local store. Ignored
	// when the SSM backend is active (SSM handles encryption itself).
	StorePassphrase string `yaml:"store_passphrase"`

	Policy Policy `yaml:"policy"`
}

// Policy collects the numeric budgets of the control loops. The defaults
// are the shipped behavior; they are knobs, not constants.
type Policy struct {
	// Readiness poll for a freshly launched replacement.
	PollInterval Duration `yaml:"poll_interval"`
	PollAttempts int      `yaml:"poll_attempts"`

	// Public-address lookup retry.
	LookupAttempts  int      `yaml:"lookup_attempts"`
	LookupBaseDelay Duration `yaml:"lookup_base_delay"`

	// DNS record update retry.
	UpdateAttempts  int      `yaml:"update_attempts"`
	UpdateBaseDelay Duration `yaml:"update_base_delay"`

	// Redeliveries is how many extra times the dispatcher re-invokes a
	// handler that returned an error.
	Redeliveries int `yaml:"redeliveries"`
}

// DefaultPolicy returns the shipped budgets.
func DefaultPolicy() Policy {
	return Policy{
		PollInterval:    Duration(10 * time.Second),
		PollAttempts:    30,
		LookupAttempts:  5,
		LookupBaseDelay: Duration(2 * time.Second),
		UpdateAttempts:  3,
		UpdateBaseDelay: Duration(1 * time.Second),
		Redeliveries:    2,
	}
}

// Duration is a time.Duration that unmarshals from YAML strings like "10s".
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler.
func (d *Duration) UnmarshalYAML(node *yaml.Node) error {
	var raw string
	if err := node.Decode(&raw); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(raw)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", raw, err)
	}
	*d = Duration(parsed)
	return nil
}

// Std returns the value as a time.Duration.
func (d Duration) Std() time.Duration {
	return time.Duration(d)
}

// Load builds the configuration: shipped defaults, then the optional YAML
// file at path (skipped when path is empty), then OUTPOST_* environment
// variables, then validation.
func Load(path string) (*Config, error) {
	cfg := &Config{
		LogLevel:    "info",
		MetricsAddr: ":9090",
		Policy:      DefaultPolicy(),
	}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	}

	cfg.applyEnv()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() {
	setString := func(dst *string, key string) {
		if v, ok := os.LookupEnv(envPrefix + key); ok {
			*dst = v
		}
	}
	setString(&c.StatePrefix, "STATE_PREFIX")
	setString(&c.LaunchTemplateID, "LAUNCH_TEMPLATE_ID")
	setString(&c.DNSZoneID, "DNS_ZONE_ID")
	setString(&c.DNSRecordID, "DNS_RECORD_ID")
	setString(&c.LogLevel, "LOG_LEVEL")
	setString(&c.QueueURL, "QUEUE_URL")
	setString(&c.MetricsAddr, "METRICS_ADDR")
	setString(&c.LocalStorePath, "LOCAL_STORE_PATH")
	setString(&c.StorePassphrase, "STORE_PASSPHRASE")
}

// Validate checks the required settings and budget sanity.
func (c *Config) Validate() error {
	required := []struct {
		name  string
		value string
	}{
		{"state_prefix (OUTPOST_STATE_PREFIX)", c.StatePrefix},
		{"launch_template_id (OUTPOST_LAUNCH_TEMPLATE_ID)", c.LaunchTemplateID},
		{"dns_zone_id (OUTPOST_DNS_ZONE_ID)", c.DNSZoneID},
		{"dns_record_id (OUTPOST_DNS_RECORD_ID)", c.DNSRecordID},
	}
	for _, r := range required {
		if r.value == "" {
			return fmt.Errorf("missing required configuration: %s", r.name)
		}
	}

	switch c.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("invalid log_level %q", c.LogLevel)
	}

	p := c.Policy
	if p.PollInterval <= 0 || p.PollAttempts <= 0 {
		return fmt.Errorf("readiness poll budget must be positive")
	}
	if p.LookupAttempts <= 0 || p.LookupBaseDelay <= 0 {
		return fmt.Errorf("address lookup retry budget must be positive")
	}
	if p.UpdateAttempts <= 0 || p.UpdateBaseDelay <= 0 {
		return fmt.Errorf("dns update retry budget must be positive")
	}
	if p.Redeliveries < 0 {
		return fmt.Errorf("redeliveries cannot be negative")
	}
	return nil
}
