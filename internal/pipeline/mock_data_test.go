package pipeline_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/couchcryptid/climate-trend-etl/internal/adapter/input"
	"github.com/couchcryptid/climate-trend-etl/internal/adapter/output"
	"github.com/couchcryptid/climate-trend-etl/internal/adapter/storage"
	"github.com/couchcryptid/climate-trend-etl/internal/adapter/table"
	"github.com/couchcryptid/climate-trend-etl/internal/domain"
	"github.com/couchcryptid/climate-trend-etl/internal/mockdata"
	"github.com/couchcryptid/climate-trend-etl/internal/observability"
	"github.com/couchcryptid/climate-trend-etl/internal/pipeline"
)

func TestPipeline_WithMockData(t *testing.T) {
	inDir := filepath.Join(t.TempDir(), "input")
	outDir := filepath.Join(t.TempDir(), "output")
	require.NoError(t, mockdata.WriteDir(inDir, mockdata.Default()))

	logger := discardLogger()
	metrics := observability.NewMetricsForTesting()
	sink, err := storage.NewLocalSink(outDir)
	require.NoError(t, err)

	p := pipeline.New(
		input.NewExtractor(inDir, logger, metrics),
		pipeline.NewTransformer(domain.AnalyzeOptions{
			Window:     domain.DefaultWindow,
			Aggregator: domain.Aggregator{Policy: domain.PolicySkip},
		}, logger, metrics),
		output.NewLoader(sink, output.Options{Workbook: true, Chart: true}, logger, metrics),
		logger, metrics,
	)
	require.NoError(t, p.Run(context.Background()))

	rows := readRanked(t, filepath.Join(outDir, output.CountyAnnual))
	require.Len(t, rows, 3)
	assert.Equal(t, []string{"01005", "01001", "01003"}, []string{rows[0].UnitID, rows[1].UnitID, rows[2].UnitID})
	assert.Equal(t, []int{1, 2, 3}, []int{rows[0].Rank, rows[1].Rank, rows[2].Rank})
	assert.InDelta(t, 0.03*124/1.8, rows[0].Trend.TempChgC, 1e-6)
	assert.Equal(t, domain.BinOverTwo, rows[0].Bin)
	assert.InDelta(t, 0.01*124/1.8, rows[1].Trend.TempChgC, 1e-6)
	assert.Equal(t, domain.BinUpToOne, rows[1].Bin)
	assert.InDelta(t, 0, rows[2].Trend.TempChgC, 1e-6)
	assert.Equal(t, "Barbour", rows[0].Info.Name)
	assert.Equal(t, "AL", rows[0].Info.StateAbbr)

	national := readRanked(t, filepath.Join(outDir, output.NationalAnnual))
	require.Len(t, national, 1)
	assert.InDelta(t, 0.015, national[0].Trend.Slope, 1e-9)

	f, err := os.Open(filepath.Join(outDir, output.PopulationByBin))
	require.NoError(t, err)
	defer f.Close()
	bins, err := table.ReadPopulationBins(f, output.PopulationByBin)
	require.NoError(t, err)
	require.Len(t, bins, len(domain.WarmingBins))
	var total float64
	for _, b := range bins {
		total += b.Percent
	}
	assert.InDelta(t, 100, total, 1e-9)
	assert.InDelta(t, 24881.0/298504*100, bins[domain.BinOverTwo].Percent, 1e-9)

	for _, name := range []string{output.StateSeasonal, output.CountySeasonal, output.CountyTrends, output.Workbook, output.NationalChart} {
		assert.FileExists(t, filepath.Join(outDir, name))
	}

	raw, err := os.ReadFile(filepath.Join(outDir, output.ManifestFile))
	require.NoError(t, err)
	var manifest output.Manifest
	require.NoError(t, yaml.Unmarshal(raw, &manifest))
	assert.NotEmpty(t, manifest.RunID)
	assert.Equal(t, 3, manifest.Counts.Counties)
	assert.Equal(t, 3, manifest.Counts.GeoFeatures)
	assert.Empty(t, manifest.Mismatches)
}

func TestPipeline_WithMockData_NoisySeries(t *testing.T) {
	spec := mockdata.Default()
	spec.Noise = 0.5
	spec.Seed = 7
	files, err := mockdata.Generate(spec)
	require.NoError(t, err)

	inDir := t.TempDir()
	for name, data := range files {
		require.NoError(t, os.WriteFile(filepath.Join(inDir, name), data, 0o644))
	}
	logger := discardLogger()
	metrics := observability.NewMetricsForTesting()

	ds, err := input.NewExtractor(inDir, logger, metrics).Extract(context.Background())
	require.NoError(t, err)

	a, err := pipeline.NewTransformer(domain.AnalyzeOptions{}, logger, metrics).Transform(context.Background(), ds)
	require.NoError(t, err)

	// Slopes are far enough apart that noise cannot reorder them.
	ranked := a.CountyAnnual.Rows
	require.Len(t, ranked, 3)
	assert.Equal(t, "01005", ranked[0].UnitID)
	assert.Equal(t, "01001", ranked[1].UnitID)
	assert.Equal(t, "01003", ranked[2].UnitID)
	assert.Less(t, ranked[0].Trend.PValue, 1e-6)
}

func readRanked(t *testing.T, path string) []domain.RankedRow {
	t.Helper()
	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()
	rows, err := table.ReadRanked(f, filepath.Base(path))
	require.NoError(t, err)
	return rows
}
