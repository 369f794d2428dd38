package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/climate-trend-etl/internal/domain"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "data/input", cfg.InputDir)
	assert.Equal(t, "data/output", cfg.OutputDir)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "json", cfg.LogFormat)
	assert.Equal(t, domain.Window{Start: 1895, End: 2019}, cfg.Window)
	assert.Equal(t, 0, cfg.FitWorkers)
	assert.Equal(t, domain.PolicySkip, cfg.Policy)
	assert.False(t, cfg.StrictJoins)
	assert.True(t, cfg.XLSXEnabled)
	assert.True(t, cfg.ChartEnabled)
	assert.Empty(t, cfg.MetricsTextfile)
	assert.Empty(t, cfg.KafkaBrokers)
	assert.False(t, cfg.PublishEnabled())
	assert.Equal(t, "climate-trends", cfg.KafkaTopic)
	assert.Empty(t, cfg.GCSBucket)
}

func TestLoad_CustomEnv(t *testing.T) {
	t.Setenv("INPUT_DIR", "/data/climdiv")
	t.Setenv("OUTPUT_DIR", "/data/out")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("LOG_FORMAT", "text")
	t.Setenv("ANALYSIS_START_YEAR", "1950")
	t.Setenv("ANALYSIS_END_YEAR", "2020")
	t.Setenv("FIT_WORKERS", "8")
	t.Setenv("INSUFFICIENT_DATA_POLICY", "fail")
	t.Setenv("STRICT_JOINS", "true")
	t.Setenv("XLSX_ENABLED", "false")
	t.Setenv("CHART_ENABLED", "false")
	t.Setenv("METRICS_TEXTFILE", "/var/lib/node_exporter/climate.prom")
	t.Setenv("KAFKA_BROKERS", "broker1:9092,broker2:9092")
	t.Setenv("KAFKA_TOPIC", "ranked-trends")
	t.Setenv("GCS_BUCKET", "climate-outputs")
	t.Setenv("GCS_PREFIX", "runs/latest")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "/data/climdiv", cfg.InputDir)
	assert.Equal(t, "/data/out", cfg.OutputDir)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, "text", cfg.LogFormat)
	assert.Equal(t, domain.Window{Start: 1950, End: 2020}, cfg.Window)
	assert.Equal(t, 8, cfg.FitWorkers)
	assert.Equal(t, domain.PolicyFail, cfg.Policy)
	assert.True(t, cfg.StrictJoins)
	assert.False(t, cfg.XLSXEnabled)
	assert.False(t, cfg.ChartEnabled)
	assert.Equal(t, "/var/lib/node_exporter/climate.prom", cfg.MetricsTextfile)
	assert.Equal(t, []string{"broker1:9092", "broker2:9092"}, cfg.KafkaBrokers)
	assert.True(t, cfg.PublishEnabled())
	assert.Equal(t, "ranked-trends", cfg.KafkaTopic)
	assert.Equal(t, "climate-outputs", cfg.GCSBucket)
	assert.Equal(t, "runs/latest", cfg.GCSPrefix)
}

func TestLoad_InvalidYear(t *testing.T) {
	t.Setenv("ANALYSIS_START_YEAR", "eighteen ninety five")
	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ANALYSIS_START_YEAR")
}

func TestLoad_InvertedWindow(t *testing.T) {
	t.Setenv("ANALYSIS_START_YEAR", "2000")
	t.Setenv("ANALYSIS_END_YEAR", "1990")
	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ANALYSIS_END_YEAR")
}

func TestLoad_InvalidPolicy(t *testing.T) {
	t.Setenv("INSUFFICIENT_DATA_POLICY", "ignore")
	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "INSUFFICIENT_DATA_POLICY")
}

func TestLoad_NegativeWorkers(t *testing.T) {
	t.Setenv("FIT_WORKERS", "-2")
	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "FIT_WORKERS")
}

func TestLoad_InvalidBool(t *testing.T) {
	t.Setenv("STRICT_JOINS", "sometimes")
	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "STRICT_JOINS")
}

func TestLoad_InvalidLogFormat(t *testing.T) {
	t.Setenv("LOG_FORMAT", "xml")
	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "LOG_FORMAT")
}

func TestValidate_GCSWithoutOutputDir(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	cfg.OutputDir = ""
	require.Error(t, cfg.Validate())

	cfg.GCSBucket = "bucket"
	assert.NoError(t, cfg.Validate())
}

func TestValidate_BrokersWithoutTopic(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	cfg.KafkaBrokers = []string{"localhost:9092"}
	cfg.KafkaTopic = ""
	err = cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "KAFKA_TOPIC")
}
