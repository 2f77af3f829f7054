// Package config resolves the audit configuration from flags, POSTURE_*
// environment variables, an optional YAML file and built-in defaults, in
// that order of precedence.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/pankaj-dahiya-devops/cloud-posture/internal/rules"
)

// Viper keys.
const (
	ProfileKey      = "profile"
	RegionsKey      = "regions"
	ConcurrencyKey  = "concurrency"
	CallTimeoutKey  = "call_timeout"
	TimeoutKey      = "timeout"
	MaxAttemptsKey  = "max_attempts"
	OutputKey       = "output"
	FormatKey       = "format"
	PolicyKey       = "policy"
	WildcardsKey    = "wildcards"
	EndpointKey     = "endpoint"
	LogLevelKey     = "log.level"
	LogFormatKey    = "log.format"
	LogNoColorKey   = "log.no_color"
	OtelEndpointKey = "otel.endpoint"
)

// EnvPrefix is prepended to every environment variable (POSTURE_CONCURRENCY).
const EnvPrefix = "POSTURE"

// DefaultOutput is where the report is written when no output is configured.
const DefaultOutput = "cloud_audit_report.json"

// Output formats for the stdout rendering.
const (
	FormatTable   = "table"
	FormatJSON    = "json"
	FormatSummary = "summary"
)

// Config is the resolved configuration of one invocation.
type Config struct {
	Profile     string        `mapstructure:"profile"`
	Regions     []string      `mapstructure:"regions"`
	Concurrency int           `mapstructure:"concurrency"`
	CallTimeout time.Duration `mapstructure:"call_timeout"`
	Timeout     time.Duration `mapstructure:"timeout"`
	MaxAttempts int           `mapstructure:"max_attempts"`
	Output      string        `mapstructure:"output"`
	Format      string        `mapstructure:"format"`
	Policy      string        `mapstructure:"policy"`
	Wildcards   string        `mapstructure:"wildcards"`
	Endpoint    string        `mapstructure:"endpoint"`
	Log         LogConfig     `mapstructure:"log"`
	Otel        OtelConfig    `mapstructure:"otel"`
}

type LogConfig struct {
	Level   string `mapstructure:"level"`
	Format  string `mapstructure:"format"`
	NoColor bool   `mapstructure:"no_color"`
}

type OtelConfig struct {
	// Endpoint is the OTLP/HTTP collector address. Empty disables export
	// unless OTEL_EXPORTER_OTLP_ENDPOINT is set.
	Endpoint string `mapstructure:"endpoint"`
}

// New returns a viper instance with defaults and environment binding set up.
func New() *viper.Viper {
	v := viper.New()
	SetDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()
	return v
}

// SetDefaults registers the built-in defaults on v.
func SetDefaults(v *viper.Viper) {
	v.SetDefault(ProfileKey, "")
	v.SetDefault(RegionsKey, []string{})
	v.SetDefault(ConcurrencyKey, 8)
	v.SetDefault(CallTimeoutKey, 30*time.Second)
	v.SetDefault(TimeoutKey, time.Duration(0))
	v.SetDefault(MaxAttemptsKey, 3)
	v.SetDefault(OutputKey, DefaultOutput)
	v.SetDefault(FormatKey, FormatTable)
	v.SetDefault(PolicyKey, "")
	v.SetDefault(WildcardsKey, string(rules.WildcardExact))
	v.SetDefault(EndpointKey, "")
	v.SetDefault(LogLevelKey, "info")
	v.SetDefault(LogFormatKey, "console")
	v.SetDefault(LogNoColorKey, false)
	v.SetDefault(OtelEndpointKey, "")
}

// BindFlags binds every flag in fs whose name maps onto a config key.
// Flag names use dashes; "log-level" binds to "log.level".
func BindFlags(v *viper.Viper, fs *pflag.FlagSet) error {
	var errs []error
	fs.VisitAll(func(f *pflag.Flag) {
		key := flagKey(f.Name)
		if key == "" {
			return
		}
		if err := v.BindPFlag(key, f); err != nil {
			errs = append(errs, fmt.Errorf("bind flag --%s: %w", f.Name, err))
		}
	})
	return errors.Join(errs...)
}

var flagKeys = map[string]string{
	"profile":       ProfileKey,
	"region":        RegionsKey,
	"concurrency":   ConcurrencyKey,
	"call-timeout":  CallTimeoutKey,
	"timeout":       TimeoutKey,
	"max-attempts":  MaxAttemptsKey,
	"output":        OutputKey,
	"format":        FormatKey,
	"policy":        PolicyKey,
	"wildcards":     WildcardsKey,
	"endpoint":      EndpointKey,
	"log-level":     LogLevelKey,
	"log-format":    LogFormatKey,
	"no-color":      LogNoColorKey,
	"otel-endpoint": OtelEndpointKey,
}

func flagKey(name string) string { return flagKeys[name] }

// ReadFile loads the config file. An explicit path must exist; otherwise
// .posture.yaml is searched in the working directory, $HOME and the user
// config dir, and its absence is not an error. It returns the file used.
func ReadFile(v *viper.Viper, explicit string) (string, error) {
	if explicit != "" {
		v.SetConfigFile(explicit)
	} else {
		v.AddConfigPath(".")
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(home)
		}
		if dir, err := os.UserConfigDir(); err == nil {
			v.AddConfigPath(filepath.Join(dir, "posture"))
		}
		v.SetConfigType("yaml")
		v.SetConfigName(".posture")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if explicit == "" && errors.As(err, &notFound) {
			return "", nil
		}
		return "", fmt.Errorf("read config: %w", err)
	}
	return v.ConfigFileUsed(), nil
}

// Load decodes v into a Config and validates it.
func Load(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	cfg.Regions = splitRegions(cfg.Regions)
	if cfg.Endpoint == "" {
		cfg.Endpoint = os.Getenv("AWS_ENDPOINT_URL")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// splitRegions accepts both repeated values and comma-separated lists
// (POSTURE_REGIONS="us-east-1,eu-west-1").
func splitRegions(in []string) []string {
	var out []string
	for _, r := range in {
		for _, part := range strings.FieldsFunc(r, func(c rune) bool { return c == ',' || c == ' ' }) {
			out = append(out, part)
		}
	}
	return out
}

// Validate reports every invalid setting at once.
func (c *Config) Validate() error {
	var errs []error
	if c.Concurrency < 1 {
		errs = append(errs, fmt.Errorf("concurrency: must be at least 1, got %d", c.Concurrency))
	}
	if c.CallTimeout <= 0 {
		errs = append(errs, fmt.Errorf("call_timeout: must be positive, got %s", c.CallTimeout))
	}
	if c.Timeout < 0 {
		errs = append(errs, fmt.Errorf("timeout: must not be negative, got %s", c.Timeout))
	}
	if c.MaxAttempts < 1 {
		errs = append(errs, fmt.Errorf("max_attempts: must be at least 1, got %d", c.MaxAttempts))
	}
	if strings.TrimSpace(c.Output) == "" {
		errs = append(errs, errors.New("output: must not be empty"))
	}
	switch c.Format {
	case FormatTable, FormatJSON, FormatSummary:
	default:
		errs = append(errs, fmt.Errorf("format: unknown value %q; valid values: table, json, summary", c.Format))
	}
	if _, err := rules.ParseWildcardMode(c.Wildcards); err != nil {
		errs = append(errs, fmt.Errorf("wildcards: %w", err))
	}
	return errors.Join(errs...)
}

// WildcardMode returns the parsed wildcard mode. Validate has already
// rejected unknown values.
func (c *Config) WildcardMode() rules.WildcardMode {
	m, _ := rules.ParseWildcardMode(c.Wildcards)
	return m
}
