package config

import (
	"errors"
	"fmt"
	"strconv"

	sharedcfg "github.com/couchcryptid/storm-data-shared/config"

	"github.com/couchcryptid/climate-trend-etl/internal/domain"
)

// Config holds all run settings, populated from environment variables.
type Config struct {
	InputDir  string
	OutputDir string
	LogLevel  string
	LogFormat string

	// Analysis settings.
	Window      domain.Window
	FitWorkers  int
	Policy      domain.InsufficientDataPolicy
	StrictJoins bool

	// Optional outputs.
	XLSXEnabled     bool
	ChartEnabled    bool
	MetricsTextfile string

	// Kafka publishing is enabled when KafkaBrokers is non-empty.
	KafkaBrokers []string
	KafkaTopic   string

	// GCS output is used instead of OutputDir when GCSBucket is set.
	GCSBucket string
	GCSPrefix string
}

// Load reads configuration from environment variables, applying defaults where unset.
func Load() (*Config, error) {
	start, err := parseInt("ANALYSIS_START_YEAR", domain.DefaultWindow.Start)
	if err != nil {
		return nil, err
	}
	end, err := parseInt("ANALYSIS_END_YEAR", domain.DefaultWindow.End)
	if err != nil {
		return nil, err
	}
	workers, err := parseInt("FIT_WORKERS", 0)
	if err != nil {
		return nil, err
	}
	policy, err := domain.ParsePolicy(sharedcfg.EnvOrDefault("INSUFFICIENT_DATA_POLICY", string(domain.PolicySkip)))
	if err != nil {
		return nil, fmt.Errorf("invalid INSUFFICIENT_DATA_POLICY: %w", err)
	}
	strict, err := parseBool("STRICT_JOINS", false)
	if err != nil {
		return nil, err
	}
	xlsx, err := parseBool("XLSX_ENABLED", true)
	if err != nil {
		return nil, err
	}
	chart, err := parseBool("CHART_ENABLED", true)
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		InputDir:        sharedcfg.EnvOrDefault("INPUT_DIR", "data/input"),
		OutputDir:       sharedcfg.EnvOrDefault("OUTPUT_DIR", "data/output"),
		LogLevel:        sharedcfg.EnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:       sharedcfg.EnvOrDefault("LOG_FORMAT", "json"),
		Window:          domain.Window{Start: start, End: end},
		FitWorkers:      workers,
		Policy:          policy,
		StrictJoins:     strict,
		XLSXEnabled:     xlsx,
		ChartEnabled:    chart,
		MetricsTextfile: sharedcfg.EnvOrDefault("METRICS_TEXTFILE", ""),
		KafkaTopic:      sharedcfg.EnvOrDefault("KAFKA_TOPIC", "climate-trends"),
		GCSBucket:       sharedcfg.EnvOrDefault("GCS_BUCKET", ""),
		GCSPrefix:       sharedcfg.EnvOrDefault("GCS_PREFIX", ""),
	}
	if raw := sharedcfg.EnvOrDefault("KAFKA_BROKERS", ""); raw != "" {
		cfg.KafkaBrokers = sharedcfg.ParseBrokers(raw)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks cross-field constraints. It is called by Load and again
// after command-line overrides are applied.
func (c *Config) Validate() error {
	if c.InputDir == "" {
		return errors.New("INPUT_DIR is required")
	}
	if c.OutputDir == "" && c.GCSBucket == "" {
		return errors.New("OUTPUT_DIR or GCS_BUCKET is required")
	}
	if c.Window.End <= c.Window.Start {
		return fmt.Errorf("ANALYSIS_END_YEAR (%d) must be after ANALYSIS_START_YEAR (%d)", c.Window.End, c.Window.Start)
	}
	if c.FitWorkers < 0 {
		return errors.New("FIT_WORKERS must not be negative")
	}
	if _, err := domain.ParsePolicy(string(c.Policy)); err != nil {
		return fmt.Errorf("invalid INSUFFICIENT_DATA_POLICY: %w", err)
	}
	if len(c.KafkaBrokers) > 0 && c.KafkaTopic == "" {
		return errors.New("KAFKA_TOPIC is required when KAFKA_BROKERS is set")
	}
	switch c.LogFormat {
	case "json", "text":
	default:
		return fmt.Errorf("invalid LOG_FORMAT %q (want json or text)", c.LogFormat)
	}
	return nil
}

// PublishEnabled reports whether ranked rows are published to Kafka.
func (c *Config) PublishEnabled() bool {
	return len(c.KafkaBrokers) > 0
}

func parseInt(key string, def int) (int, error) {
	s := sharedcfg.EnvOrDefault(key, strconv.Itoa(def))
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return n, nil
}

func parseBool(key string, def bool) (bool, error) {
	s := sharedcfg.EnvOrDefault(key, strconv.FormatBool(def))
	b, err := strconv.ParseBool(s)
	if err != nil {
		return false, fmt.Errorf("invalid %s: %w", key, err)
	}
	return b, nil
}
