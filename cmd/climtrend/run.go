package main

import (
	"context"
	"log/slog"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/couchcryptid/climate-trend-etl/internal/adapter/input"
	kafkaadapter "github.com/couchcryptid/climate-trend-etl/internal/adapter/kafka"
	"github.com/couchcryptid/climate-trend-etl/internal/adapter/output"
	"github.com/couchcryptid/climate-trend-etl/internal/adapter/storage"
	"github.com/couchcryptid/climate-trend-etl/internal/config"
	"github.com/couchcryptid/climate-trend-etl/internal/domain"
	"github.com/couchcryptid/climate-trend-etl/internal/observability"
	"github.com/couchcryptid/climate-trend-etl/internal/pipeline"
)

// runFlags override the matching environment variables when set.
type runFlags struct {
	inputDir    string
	outputDir   string
	startYear   int
	endYear     int
	workers     int
	policy      string
	strictJoins bool
	noXLSX      bool
	noChart     bool
	logLevel    string
	logFormat   string
	metricsFile string
	brokers     []string
	topic       string
	gcsBucket   string
	gcsPrefix   string
}

func newRunCmd() *cobra.Command {
	var f runFlags
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the trend analysis once and write all outputs",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if err := f.apply(cmd, cfg); err != nil {
				return err
			}

			logger := observability.NewLogger(cfg)
			metrics := observability.NewMetrics()

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			runErr := run(ctx, cfg, logger, metrics)
			if cfg.MetricsTextfile != "" {
				if err := metrics.WriteTextfile(cfg.MetricsTextfile); err != nil {
					logger.Error("metrics textfile", "error", err, "path", cfg.MetricsTextfile)
				}
			}
			if runErr != nil {
				logger.Error("run failed", "error", runErr)
			}
			return runErr
		},
	}

	f.register(cmd)
	return cmd
}

func (f *runFlags) register(cmd *cobra.Command) {
	fl := cmd.Flags()
	fl.StringVar(&f.inputDir, "input", "", "input directory (INPUT_DIR)")
	fl.StringVar(&f.outputDir, "output", "", "output directory (OUTPUT_DIR)")
	fl.IntVar(&f.startYear, "start-year", 0, "first year of the analysis window (ANALYSIS_START_YEAR)")
	fl.IntVar(&f.endYear, "end-year", 0, "last year of the analysis window (ANALYSIS_END_YEAR)")
	fl.IntVar(&f.workers, "workers", 0, "concurrent group fits, 0 for GOMAXPROCS (FIT_WORKERS)")
	fl.StringVar(&f.policy, "insufficient-data", "", "skip or fail (INSUFFICIENT_DATA_POLICY)")
	fl.BoolVar(&f.strictJoins, "strict-joins", false, "fail on any join mismatch (STRICT_JOINS)")
	fl.BoolVar(&f.noXLSX, "no-xlsx", false, "skip the Excel workbook")
	fl.BoolVar(&f.noChart, "no-chart", false, "skip the national chart")
	fl.StringVar(&f.logLevel, "log-level", "", "debug, info, warn or error (LOG_LEVEL)")
	fl.StringVar(&f.logFormat, "log-format", "", "json or text (LOG_FORMAT)")
	fl.StringVar(&f.metricsFile, "metrics-textfile", "", "write Prometheus metrics here after the run (METRICS_TEXTFILE)")
	fl.StringSliceVar(&f.brokers, "kafka-brokers", nil, "publish ranked rows to these brokers (KAFKA_BROKERS)")
	fl.StringVar(&f.topic, "kafka-topic", "", "topic for ranked rows (KAFKA_TOPIC)")
	fl.StringVar(&f.gcsBucket, "gcs-bucket", "", "write outputs to this bucket instead of the output directory (GCS_BUCKET)")
	fl.StringVar(&f.gcsPrefix, "gcs-prefix", "", "object name prefix inside the bucket (GCS_PREFIX)")
}

// apply copies every flag the user set onto cfg and revalidates it.
func (f *runFlags) apply(cmd *cobra.Command, cfg *config.Config) error {
	fl := cmd.Flags()
	if fl.Changed("input") {
		cfg.InputDir = f.inputDir
	}
	if fl.Changed("output") {
		cfg.OutputDir = f.outputDir
	}
	if fl.Changed("start-year") {
		cfg.Window.Start = f.startYear
	}
	if fl.Changed("end-year") {
		cfg.Window.End = f.endYear
	}
	if fl.Changed("workers") {
		cfg.FitWorkers = f.workers
	}
	if fl.Changed("insufficient-data") {
		cfg.Policy = domain.InsufficientDataPolicy(f.policy)
	}
	if fl.Changed("strict-joins") {
		cfg.StrictJoins = f.strictJoins
	}
	if fl.Changed("no-xlsx") {
		cfg.XLSXEnabled = !f.noXLSX
	}
	if fl.Changed("no-chart") {
		cfg.ChartEnabled = !f.noChart
	}
	if fl.Changed("log-level") {
		cfg.LogLevel = f.logLevel
	}
	if fl.Changed("log-format") {
		cfg.LogFormat = f.logFormat
	}
	if fl.Changed("metrics-textfile") {
		cfg.MetricsTextfile = f.metricsFile
	}
	if fl.Changed("kafka-brokers") {
		cfg.KafkaBrokers = f.brokers
	}
	if fl.Changed("kafka-topic") {
		cfg.KafkaTopic = f.topic
	}
	if fl.Changed("gcs-bucket") {
		cfg.GCSBucket = f.gcsBucket
	}
	if fl.Changed("gcs-prefix") {
		cfg.GCSPrefix = f.gcsPrefix
	}
	return cfg.Validate()
}

// run wires the stages for cfg and executes one pass.
func run(ctx context.Context, cfg *config.Config, logger *slog.Logger, metrics *observability.Metrics) error {
	sink, err := storage.New(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() {
		if err := sink.Close(); err != nil {
			logger.Error("storage close error", "error", err)
		}
	}()

	loaders := pipeline.Loaders{
		output.NewLoader(sink, output.Options{Workbook: cfg.XLSXEnabled, Chart: cfg.ChartEnabled}, logger, metrics),
	}
	if cfg.PublishEnabled() {
		writer := kafkaadapter.NewWriter(cfg, logger)
		defer func() {
			if err := writer.Close(); err != nil {
				logger.Error("kafka writer close error", "error", err)
			}
		}()
		loaders = append(loaders, writer)
		logger.Info("kafka publishing enabled", "topic", cfg.KafkaTopic, "brokers", cfg.KafkaBrokers)
	}

	transformer := pipeline.NewTransformer(domain.AnalyzeOptions{
		Window: cfg.Window,
		Aggregator: domain.Aggregator{
			Policy:  cfg.Policy,
			Workers: cfg.FitWorkers,
			Logger:  logger,
		},
		StrictJoins: cfg.StrictJoins,
	}, logger, metrics)

	p := pipeline.New(input.NewExtractor(cfg.InputDir, logger, metrics), transformer, loaders, logger, metrics)
	return p.Run(ctx)
}
