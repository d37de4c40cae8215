package inputgate

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/lmittmann/tint"
	"github.com/viant/afs"
	"gopkg.in/yaml.v3"
)

// Duration is a time.Duration that unmarshals from duration strings like
// "30s" in YAML and environment variables.
type Duration time.Duration

// Duration returns the wrapped time.Duration.
func (d Duration) Duration() time.Duration { return time.Duration(d) }

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *Duration) UnmarshalText(text []byte) error {
	parsed, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	*d = Duration(parsed)
	return nil
}

// UnmarshalYAML implements yaml.Unmarshaler.
func (d *Duration) UnmarshalYAML(node *yaml.Node) error {
	return d.UnmarshalText([]byte(node.Value))
}

// Config is a serialisable representation of the gate configuration. It can
// be populated from YAML and overridden by environment variables. The
// zero-value is useful, all fields inherit their package defaults.
type Config struct {
	// ReconcileTimeout bounds how long reconciliation waits for the engine
	// to reattach its state after a restart.
	ReconcileTimeout Duration `json:"reconcileTimeout" yaml:"reconcileTimeout" env:"INPUTGATE_RECONCILE_TIMEOUT"`
	// AllowUnsafeIDs disables approval identifier safety validation.
	AllowUnsafeIDs bool `json:"allowUnsafeIDs" yaml:"allowUnsafeIDs" env:"INPUTGATE_ALLOW_UNSAFE_IDS"`
	// StoreBaseURL, when set, keeps run records on the file system under
	// this location instead of in memory.
	StoreBaseURL string `json:"storeBaseURL" yaml:"storeBaseURL" env:"INPUTGATE_STORE_BASE_URL"`

	Logging LoggingConfig `json:"logging" yaml:"logging"`
}

// LoggingConfig controls the structured logger built by Config.Logger.
type LoggingConfig struct {
	Level  string `json:"level" yaml:"level" env:"INPUTGATE_LOG_LEVEL"`
	Format string `json:"format" yaml:"format" env:"INPUTGATE_LOG_FORMAT"`
}

// DefaultConfig returns a Config populated with the same defaults the
// constructors use. Callers may modify the returned struct before passing it
// to New.
func DefaultConfig() *Config {
	return &Config{
		ReconcileTimeout: Duration(60 * time.Second),
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// LoadConfig reads a YAML configuration from the supplied URL and applies
// environment variable overrides on top.
func LoadConfig(ctx context.Context, URL string) (*Config, error) {
	ret := DefaultConfig()
	if URL != "" {
		data, err := afs.New().DownloadWithURL(ctx, URL)
		if err != nil {
			return nil, fmt.Errorf("failed to load config %v: %w", URL, err)
		}
		if err := yaml.Unmarshal(data, ret); err != nil {
			return nil, fmt.Errorf("failed to parse config %v: %w", URL, err)
		}
	}
	if err := env.Parse(ret); err != nil {
		return nil, fmt.Errorf("failed to apply config env overrides: %w", err)
	}
	if err := ret.Validate(); err != nil {
		return nil, err
	}
	return ret, nil
}

// Validate returns an error describing invalid settings or nil.
func (c *Config) Validate() error {
	if c == nil {
		return nil
	}
	if c.ReconcileTimeout < 0 {
		return fmt.Errorf("reconcileTimeout must not be negative")
	}
	switch strings.ToLower(c.Logging.Format) {
	case "", "text", "json":
	default:
		return fmt.Errorf("unsupported logging format: %v", c.Logging.Format)
	}
	return nil
}

// Logger builds the structured logger described by the logging section, a
// tinted console handler for text and slog's JSON handler otherwise.
func (c *Config) Logger() *slog.Logger {
	level := slog.LevelInfo
	switch strings.ToLower(c.Logging.Level) {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}
	var handler slog.Handler
	if strings.ToLower(c.Logging.Format) == "json" {
		handler = slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: level})
	} else {
		handler = tint.NewHandler(os.Stderr, &tint.Options{Level: level, TimeFormat: time.Kitchen})
	}
	return slog.New(handler)
}
