// Package input reads the climate, lookup and boundary tables of one run from
// a directory.
package input

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"

	"github.com/couchcryptid/climate-trend-etl/internal/adapter/geo"
	"github.com/couchcryptid/climate-trend-etl/internal/adapter/table"
	"github.com/couchcryptid/climate-trend-etl/internal/domain"
	"github.com/couchcryptid/climate-trend-etl/internal/observability"
)

// Input file names.
const (
	NationalMonthly  = "national_monthly.csv"
	NationalAnnual   = "national_annual.csv"
	StateMonthly     = "state_monthly.csv"
	StateAnnual      = "state_annual.csv"
	CountyMonthly    = "county_monthly.csv"
	CountyAnnual     = "county_annual.csv"
	CountyPopulation = "county_population.csv"
	CountyNames      = "county_names.csv"
	StateFIPS        = "state_fips.csv"
	CountyBoundaries = "county_boundaries.geojson"
)

// Extractor loads a domain.Dataset from a file tree.
// It implements pipeline.Extractor.
type Extractor struct {
	fsys    fs.FS
	logger  *slog.Logger
	metrics *observability.Metrics
}

// NewExtractor reads from the directory dir.
func NewExtractor(dir string, logger *slog.Logger, metrics *observability.Metrics) *Extractor {
	return NewFSExtractor(os.DirFS(dir), logger, metrics)
}

// NewFSExtractor reads from an arbitrary file system.
func NewFSExtractor(fsys fs.FS, logger *slog.Logger, metrics *observability.Metrics) *Extractor {
	return &Extractor{fsys: fsys, logger: logger, metrics: metrics}
}

type recordTable struct {
	name     string
	required bool
	monthly  bool
	width    int
	dst      *[]domain.Record
}

// Extract reads every table. The state and county monthly tables are
// required; every other file is optional and leaves its field empty when
// absent.
func (e *Extractor) Extract(ctx context.Context) (domain.Dataset, error) {
	var ds domain.Dataset

	tables := []recordTable{
		{name: NationalMonthly, monthly: true, width: table.StateIDWidth, dst: &ds.NationalMonthly},
		{name: NationalAnnual, width: table.StateIDWidth, dst: &ds.NationalAnnual},
		{name: StateMonthly, required: true, monthly: true, width: table.StateIDWidth, dst: &ds.StateMonthly},
		{name: StateAnnual, width: table.StateIDWidth, dst: &ds.StateAnnual},
		{name: CountyMonthly, required: true, monthly: true, width: table.CountyIDWidth, dst: &ds.CountyMonthly},
		{name: CountyAnnual, width: table.CountyIDWidth, dst: &ds.CountyAnnual},
	}
	for _, t := range tables {
		if err := ctx.Err(); err != nil {
			return domain.Dataset{}, err
		}
		err := e.read(t.name, t.required, func(r io.Reader) (int, error) {
			var err error
			if t.monthly {
				*t.dst, err = table.ReadMonthly(r, t.name, t.width)
			} else {
				*t.dst, err = table.ReadAnnual(r, t.name, t.width)
			}
			return len(*t.dst), err
		})
		if err != nil {
			return domain.Dataset{}, err
		}
	}

	var (
		states     domain.Lookup
		names      map[string]table.CountyName
		population map[string]*float64
	)
	lookups := []struct {
		name string
		read func(io.Reader) (int, error)
	}{
		{StateFIPS, func(r io.Reader) (n int, err error) {
			states, err = table.ReadStates(r, StateFIPS)
			return len(states), err
		}},
		{CountyNames, func(r io.Reader) (n int, err error) {
			names, err = table.ReadCountyNames(r, CountyNames)
			return len(names), err
		}},
		{CountyPopulation, func(r io.Reader) (n int, err error) {
			population, err = table.ReadPopulation(r, CountyPopulation)
			return len(population), err
		}},
		{CountyBoundaries, func(r io.Reader) (n int, err error) {
			ds.Boundaries, err = geo.DecodeBoundaries(r, CountyBoundaries)
			return len(ds.Boundaries), err
		}},
	}
	for _, l := range lookups {
		if err := ctx.Err(); err != nil {
			return domain.Dataset{}, err
		}
		if err := e.read(l.name, false, l.read); err != nil {
			return domain.Dataset{}, err
		}
	}

	ds.States = states
	if names != nil || population != nil {
		ds.Counties = table.CountyLookup(names, population, states)
	}
	return ds, nil
}

func (e *Extractor) read(name string, required bool, parse func(io.Reader) (int, error)) error {
	f, err := e.fsys.Open(name)
	if errors.Is(err, fs.ErrNotExist) && !required {
		e.logger.Debug("optional input absent", "table", name)
		return nil
	}
	if err != nil {
		return fmt.Errorf("open %s: %w", name, err)
	}
	defer f.Close()

	n, err := parse(f)
	if err != nil {
		return fmt.Errorf("read %s: %w", name, err)
	}
	e.metrics.RecordsLoaded.WithLabelValues(name).Add(float64(n))
	e.logger.Info("input loaded", "table", name, "rows", n)
	return nil
}
