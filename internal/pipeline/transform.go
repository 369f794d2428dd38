package pipeline

import (
	"context"
	"log/slog"

	"github.com/google/uuid"

	"github.com/couchcryptid/climate-trend-etl/internal/domain"
	"github.com/couchcryptid/climate-trend-etl/internal/observability"
)

const (
	directionMissingFromLookup  = "missing_from_lookup"
	directionMissingFromResults = "missing_from_results"
)

// TrendTransformer implements Transformer with domain.Analyze and stamps each
// analysis with a fresh run id.
type TrendTransformer struct {
	opts    domain.AnalyzeOptions
	logger  *slog.Logger
	metrics *observability.Metrics
	newID   func() string
}

// NewTransformer creates a TrendTransformer. The aggregator logger defaults
// to logger when unset.
func NewTransformer(opts domain.AnalyzeOptions, logger *slog.Logger, metrics *observability.Metrics) *TrendTransformer {
	if opts.Aggregator.Logger == nil {
		opts.Aggregator.Logger = logger
	}
	return &TrendTransformer{
		opts:    opts,
		logger:  logger,
		metrics: metrics,
		newID:   uuid.NewString,
	}
}

func (t *TrendTransformer) Transform(_ context.Context, ds domain.Dataset) (domain.Analysis, error) {
	a, err := domain.Analyze(ds, t.opts)
	if err != nil {
		return domain.Analysis{}, err
	}
	a.RunID = t.newID()

	if a.National != nil {
		t.metrics.UnitsRanked.WithLabelValues(string(domain.LevelNational)).Set(1)
	}
	t.metrics.UnitsRanked.WithLabelValues(string(domain.LevelState)).Set(float64(len(a.StateAnnual.Rows)))
	t.metrics.UnitsRanked.WithLabelValues(string(domain.LevelCounty)).Set(float64(len(a.CountyAnnual.Rows)))

	for _, s := range a.Diagnostics.Skipped {
		t.metrics.GroupsSkipped.WithLabelValues(s.Stage).Inc()
	}
	for _, m := range a.Diagnostics.Mismatches {
		t.metrics.JoinMismatches.WithLabelValues(m.Join, directionMissingFromLookup).Set(float64(len(m.MissingFromLookup)))
		t.metrics.JoinMismatches.WithLabelValues(m.Join, directionMissingFromResults).Set(float64(len(m.MissingFromResults)))
		if !m.Empty() {
			t.logger.Warn("join mismatch",
				"join", m.Join,
				"missing_from_lookup", len(m.MissingFromLookup),
				"missing_from_results", len(m.MissingFromResults),
			)
		}
	}

	t.logger.Info("analysis complete",
		"run_id", a.RunID,
		"window_start", a.Window.Start,
		"window_end", a.Window.End,
		"counties", len(a.CountyAnnual.Rows),
		"states", len(a.StateAnnual.Rows),
	)
	return a, nil
}
