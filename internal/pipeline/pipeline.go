package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/couchcryptid/climate-trend-etl/internal/domain"
	"github.com/couchcryptid/climate-trend-etl/internal/observability"
)

// Extractor reads every input table of a run.
type Extractor interface {
	Extract(ctx context.Context) (domain.Dataset, error)
}

// Transformer derives the trend tables from a dataset.
type Transformer interface {
	Transform(ctx context.Context, ds domain.Dataset) (domain.Analysis, error)
}

// Loader writes or publishes an analysis.
type Loader interface {
	Load(ctx context.Context, a domain.Analysis) error
}

// Loaders runs several loaders in order and stops at the first failure.
type Loaders []Loader

func (ls Loaders) Load(ctx context.Context, a domain.Analysis) error {
	for _, l := range ls {
		if err := l.Load(ctx, a); err != nil {
			return err
		}
	}
	return nil
}

// Pipeline runs one extract-transform-load pass.
type Pipeline struct {
	extractor   Extractor
	transformer Transformer
	loader      Loader
	logger      *slog.Logger
	metrics     *observability.Metrics
}

// New creates a Pipeline with the given stages and observability.
func New(e Extractor, t Transformer, l Loader, logger *slog.Logger, metrics *observability.Metrics) *Pipeline {
	return &Pipeline{
		extractor:   e,
		transformer: t,
		loader:      l,
		logger:      logger,
		metrics:     metrics,
	}
}

// Run executes the stages in order. Nothing is loaded unless extraction and
// transformation both succeed. A cancelled context stops the run between
// stages and is returned as the error.
func (p *Pipeline) Run(ctx context.Context) error {
	p.logger.Info("pipeline started")
	p.metrics.PipelineRunning.Set(1)
	defer p.metrics.PipelineRunning.Set(0)
	start := time.Now()

	var ds domain.Dataset
	err := p.stage(ctx, "extract", func() (err error) {
		ds, err = p.extractor.Extract(ctx)
		return err
	})
	if err != nil {
		return err
	}

	var a domain.Analysis
	err = p.stage(ctx, "transform", func() (err error) {
		a, err = p.transformer.Transform(ctx, ds)
		return err
	})
	if err != nil {
		return err
	}

	if err := p.stage(ctx, "load", func() error { return p.loader.Load(ctx, a) }); err != nil {
		return err
	}

	p.metrics.LastSuccess.SetToCurrentTime()
	p.logger.Info("pipeline finished",
		"run_id", a.RunID,
		"states", len(a.StateAnnual.Rows),
		"counties", len(a.CountyAnnual.Rows),
		"skipped", len(a.Diagnostics.Skipped),
		"duration", time.Since(start),
	)
	return nil
}

func (p *Pipeline) stage(ctx context.Context, name string, fn func() error) error {
	if err := ctx.Err(); err != nil {
		p.logger.Info("pipeline stopping", "stage", name, "reason", err)
		return err
	}
	start := time.Now()
	err := fn()
	p.metrics.StageDuration.WithLabelValues(name).Observe(time.Since(start).Seconds())
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return err
		}
		p.logger.Error(name+" failed", "error", err)
		return fmt.Errorf("%s: %w", name, err)
	}
	p.logger.Debug("stage complete", "stage", name, "duration", time.Since(start))
	return nil
}
