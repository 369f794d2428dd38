// Package output renders an Analysis into its CSV, GeoJSON, workbook, chart
// and manifest artifacts and stores them through a storage.Sink.
package output

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/couchcryptid/climate-trend-etl/internal/adapter/chart"
	"github.com/couchcryptid/climate-trend-etl/internal/adapter/geo"
	"github.com/couchcryptid/climate-trend-etl/internal/adapter/storage"
	"github.com/couchcryptid/climate-trend-etl/internal/adapter/table"
	"github.com/couchcryptid/climate-trend-etl/internal/adapter/xlsx"
	"github.com/couchcryptid/climate-trend-etl/internal/domain"
	"github.com/couchcryptid/climate-trend-etl/internal/observability"
)

// Artifact names.
const (
	NationalAnnual  = "national_annual.csv"
	StateAnnual     = "state_annual.csv"
	CountyAnnual    = "county_annual.csv"
	StateSeasonal   = "state_seasonal.csv"
	CountySeasonal  = "county_seasonal.csv"
	PopulationByBin = "population_by_bin.csv"
	CountyTrends    = "county_trends.geojson"
	Workbook        = "climate_trends.xlsx"
	NationalChart   = "national_trend.png"
	ManifestFile    = "manifest.yaml"
)

const manifestVersion = 1

// Options selects the optional artifacts.
type Options struct {
	Workbook bool
	Chart    bool
}

// Loader writes every artifact of a run.
// It implements pipeline.Loader.
type Loader struct {
	sink    storage.Sink
	opts    Options
	logger  *slog.Logger
	metrics *observability.Metrics
}

// NewLoader creates a Loader writing to sink.
func NewLoader(sink storage.Sink, opts Options, logger *slog.Logger, metrics *observability.Metrics) *Loader {
	return &Loader{sink: sink, opts: opts, logger: logger, metrics: metrics}
}

type artifact struct {
	name string
	data []byte
}

// Load renders every artifact in memory first so a rendering error leaves
// the sink untouched, then stores them. The manifest is written last and
// lists the others.
func (l *Loader) Load(ctx context.Context, a domain.Analysis) error {
	artifacts, err := l.render(a)
	if err != nil {
		return err
	}

	label := sinkLabel(l.sink)
	written := make([]ManifestArtifact, 0, len(artifacts))
	for _, art := range artifacts {
		if err := l.sink.Put(ctx, art.name, art.data); err != nil {
			return fmt.Errorf("write %s: %w", art.name, err)
		}
		l.metrics.OutputsWritten.WithLabelValues(label).Inc()
		written = append(written, ManifestArtifact{Name: art.name, Location: l.sink.Location(art.name), Bytes: len(art.data)})
		l.logger.Debug("artifact written", "name", art.name, "bytes", len(art.data))
	}

	manifest, err := yaml.Marshal(NewManifest(a, written))
	if err != nil {
		return fmt.Errorf("encode manifest: %w", err)
	}
	if err := l.sink.Put(ctx, ManifestFile, manifest); err != nil {
		return fmt.Errorf("write %s: %w", ManifestFile, err)
	}
	l.metrics.OutputsWritten.WithLabelValues(label).Inc()

	l.logger.Info("outputs written",
		"run_id", a.RunID,
		"artifacts", len(artifacts)+1,
		"manifest", l.sink.Location(ManifestFile),
	)
	return nil
}

func (l *Loader) render(a domain.Analysis) ([]artifact, error) {
	var out []artifact
	add := func(name string, write func(io.Writer) error) error {
		var buf bytes.Buffer
		if err := write(&buf); err != nil {
			return fmt.Errorf("render %s: %w", name, err)
		}
		out = append(out, artifact{name: name, data: buf.Bytes()})
		return nil
	}

	var national []domain.RankedRow
	if a.National != nil {
		national = []domain.RankedRow{*a.National}
	}
	steps := []struct {
		name  string
		write func(io.Writer) error
	}{
		{NationalAnnual, func(w io.Writer) error { return table.WriteRanked(w, national) }},
		{StateAnnual, func(w io.Writer) error { return table.WriteRanked(w, a.StateAnnual.Rows) }},
		{CountyAnnual, func(w io.Writer) error { return table.WriteRanked(w, a.CountyAnnual.Rows) }},
		{StateSeasonal, func(w io.Writer) error { return table.WriteSeasonal(w, a.StateSeasonal) }},
		{CountySeasonal, func(w io.Writer) error { return table.WriteSeasonal(w, a.CountySeasonal) }},
		{PopulationByBin, func(w io.Writer) error { return table.WritePopulationBins(w, a.PopulationBins) }},
	}
	for _, s := range steps {
		if err := add(s.name, s.write); err != nil {
			return nil, err
		}
	}

	if len(a.Geo) > 0 {
		if err := add(CountyTrends, func(w io.Writer) error { return geo.EncodeFeatures(w, a.Geo) }); err != nil {
			return nil, err
		}
	}

	if l.opts.Workbook {
		data, err := xlsx.Build(a)
		if err != nil {
			return nil, fmt.Errorf("render %s: %w", Workbook, err)
		}
		out = append(out, artifact{name: Workbook, data: data})
	}

	if l.opts.Chart {
		if a.National == nil || len(a.NationalSeries) < 2 {
			l.logger.Warn("national chart skipped, no national series")
		} else if err := add(NationalChart, func(w io.Writer) error {
			return chart.RenderNational(w, a.NationalSeries, a.National.Trend)
		}); err != nil {
			return nil, err
		}
	}
	return out, nil
}

func sinkLabel(s storage.Sink) string {
	if _, ok := s.(*storage.GCSSink); ok {
		return "gcs"
	}
	return "local"
}

// Manifest summarizes one run for downstream consumers.
type Manifest struct {
	Version     int                `yaml:"version"`
	RunID       string             `yaml:"run_id"`
	GeneratedAt time.Time          `yaml:"generated_at"`
	Window      ManifestWindow     `yaml:"window"`
	Counts      ManifestCounts     `yaml:"counts"`
	Skipped     []ManifestSkip     `yaml:"skipped,omitempty"`
	Mismatches  []ManifestMismatch `yaml:"mismatches,omitempty"`
	Artifacts   []ManifestArtifact `yaml:"artifacts"`
}

type ManifestWindow struct {
	Start int `yaml:"start"`
	End   int `yaml:"end"`
}

type ManifestCounts struct {
	National       int `yaml:"national"`
	States         int `yaml:"states"`
	Counties       int `yaml:"counties"`
	StateSeasonal  int `yaml:"state_seasonal"`
	CountySeasonal int `yaml:"county_seasonal"`
	GeoFeatures    int `yaml:"geo_features"`
}

type ManifestSkip struct {
	Stage  string `yaml:"stage"`
	Group  string `yaml:"group"`
	Points int    `yaml:"points"`
	Reason string `yaml:"reason"`
}

// ManifestMismatch lists the unmatched ids of one join. Clean joins are omitted.
type ManifestMismatch struct {
	Join               string   `yaml:"join"`
	MissingFromLookup  []string `yaml:"missing_from_lookup,omitempty"`
	MissingFromResults []string `yaml:"missing_from_results,omitempty"`
}

type ManifestArtifact struct {
	Name     string `yaml:"name"`
	Location string `yaml:"location"`
	Bytes    int    `yaml:"bytes"`
}

// NewManifest builds the manifest for a and its written artifacts.
func NewManifest(a domain.Analysis, artifacts []ManifestArtifact) Manifest {
	m := Manifest{
		Version:     manifestVersion,
		RunID:       a.RunID,
		GeneratedAt: a.GeneratedAt,
		Window:      ManifestWindow{Start: a.Window.Start, End: a.Window.End},
		Counts: ManifestCounts{
			States:         len(a.StateAnnual.Rows),
			Counties:       len(a.CountyAnnual.Rows),
			StateSeasonal:  len(a.StateSeasonal),
			CountySeasonal: len(a.CountySeasonal),
			GeoFeatures:    len(a.Geo),
		},
		Artifacts: artifacts,
	}
	if a.National != nil {
		m.Counts.National = 1
	}
	for _, s := range a.Diagnostics.Skipped {
		m.Skipped = append(m.Skipped, ManifestSkip(s))
	}
	for _, mm := range a.Diagnostics.Mismatches {
		if mm.Empty() {
			continue
		}
		m.Mismatches = append(m.Mismatches, ManifestMismatch(mm))
	}
	return m
}
