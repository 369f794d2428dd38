package input

import (
	"context"
	"errors"
	"io"
	"io/fs"
	"log/slog"
	"testing"
	"testing/fstest"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/climate-trend-etl/internal/domain"
	"github.com/couchcryptid/climate-trend-etl/internal/observability"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func file(s string) *fstest.MapFile { return &fstest.MapFile{Data: []byte(s)} }

const boundaries = `{"type":"FeatureCollection","features":[
{"type":"Feature","properties":{"GEOID":"01001","ALAND":1539602123},
 "geometry":{"type":"Polygon","coordinates":[[[0,0],[1,0],[1,1],[0,1],[0,0]]]}}]}`

func fullFS() fstest.MapFS {
	return fstest.MapFS{
		StateMonthly:     file("fips,year,month,temp\n1,1900,Jan,44\n1,1900,Jul,80\n"),
		CountyMonthly:    file("fips,year,month,temp\n1001,1900,Jan,45\n1003,1900,Jan,50\n"),
		NationalAnnual:   file("fips,year,temp\n0,1900,52.1\n0,1901,52.3\n"),
		StateFIPS:        file("state_fips,state_name,state_abbr\n1,Alabama,AL\n"),
		CountyNames:      file("fips,county_name,state_name\n1001,Autauga,Alabama\n"),
		CountyPopulation: file("fips,pop_2018\n1001,55601\n1003,\n"),
		CountyBoundaries: file(boundaries),
	}
}

func TestExtract(t *testing.T) {
	m := observability.NewMetricsForTesting()
	e := NewFSExtractor(fullFS(), discardLogger(), m)

	ds, err := e.Extract(context.Background())
	require.NoError(t, err)

	assert.Len(t, ds.StateMonthly, 2)
	assert.Equal(t, "01", ds.StateMonthly[0].UnitID)
	assert.Len(t, ds.CountyMonthly, 2)
	assert.Equal(t, []domain.Record{
		{UnitID: "00", Year: 1900, Value: 52.1},
		{UnitID: "00", Year: 1901, Value: 52.3},
	}, ds.NationalAnnual)
	assert.Empty(t, ds.NationalMonthly)
	assert.Empty(t, ds.CountyAnnual)

	require.Contains(t, ds.States, "01")
	assert.Equal(t, "AL", ds.States["01"].StateAbbr)

	require.Len(t, ds.Counties, 2)
	autauga := ds.Counties["01001"]
	assert.Equal(t, "Autauga", autauga.Name)
	assert.Equal(t, "AL", autauga.StateAbbr)
	require.NotNil(t, autauga.Population)
	assert.InDelta(t, 55601, *autauga.Population, 0)
	assert.Nil(t, ds.Counties["01003"].Population)
	assert.Equal(t, "Alabama", ds.Counties["01003"].StateName, "state name filled from prefix")

	require.Len(t, ds.Boundaries, 1)
	assert.Equal(t, "01001", ds.Boundaries[0].UnitID)

	assert.InDelta(t, 2, testutil.ToFloat64(m.RecordsLoaded.WithLabelValues(CountyMonthly)), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(m.RecordsLoaded.WithLabelValues(CountyBoundaries)), 0)
}

func TestExtract_OnlyRequiredTables(t *testing.T) {
	fsys := fstest.MapFS{
		StateMonthly:  fullFS()[StateMonthly],
		CountyMonthly: fullFS()[CountyMonthly],
	}
	ds, err := NewFSExtractor(fsys, discardLogger(), observability.NewMetricsForTesting()).Extract(context.Background())
	require.NoError(t, err)
	assert.Nil(t, ds.States)
	assert.Nil(t, ds.Counties)
	assert.Nil(t, ds.Boundaries)
}

func TestExtract_MissingRequired(t *testing.T) {
	fsys := fullFS()
	delete(fsys, CountyMonthly)

	_, err := NewFSExtractor(fsys, discardLogger(), observability.NewMetricsForTesting()).Extract(context.Background())
	require.Error(t, err)
	assert.True(t, errors.Is(err, fs.ErrNotExist))
	assert.Contains(t, err.Error(), CountyMonthly)
}

func TestExtract_SchemaError(t *testing.T) {
	fsys := fullFS()
	fsys[CountyPopulation] = file("fips,population\n01001,5\n")

	_, err := NewFSExtractor(fsys, discardLogger(), observability.NewMetricsForTesting()).Extract(context.Background())
	var schemaErr *domain.SchemaError
	require.ErrorAs(t, err, &schemaErr)
	assert.Contains(t, err.Error(), CountyPopulation)
}

func TestExtract_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewFSExtractor(fullFS(), discardLogger(), observability.NewMetricsForTesting()).Extract(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}
