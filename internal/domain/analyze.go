package domain

import (
	"errors"
	"sort"
	"time"
)

// Dataset is every input table for one run.
type Dataset struct {
	NationalMonthly []Record
	NationalAnnual  []Record
	StateMonthly    []Record
	StateAnnual     []Record
	CountyMonthly   []Record
	CountyAnnual    []Record

	States     Lookup // 2-digit state FIPS
	Counties   Lookup // 5-digit county FIPS
	Boundaries []Boundary
}

// AnalyzeOptions configures Analyze.
type AnalyzeOptions struct {
	Window      Window
	Aggregator  Aggregator
	StrictJoins bool
}

// Diagnostics collects the non-fatal conditions found during a run.
type Diagnostics struct {
	Skipped    []Skip
	Mismatches []JoinMismatch
}

// Analysis is the full set of derived tables for one run.
type Analysis struct {
	RunID       string // assigned by the caller; empty from Analyze
	GeneratedAt time.Time
	Window      Window

	National       *RankedRow // nil without national input
	NationalSeries []Point    // annual means inside the window, by year

	StateAnnual    RankedTable
	CountyAnnual   RankedTable
	StateSeasonal  []SeasonalSummaryRow
	CountySeasonal []SeasonalSummaryRow
	PopulationBins []BinShare
	Geo            []GeoFeature

	Diagnostics Diagnostics
}

// Analyze runs the annual and seasonal pipelines at every level present in
// the dataset. Unrecognized months and, under PolicyFail, unfit groups abort
// the run. Join mismatches abort only when StrictJoins is set.
func Analyze(ds Dataset, opts AnalyzeOptions) (Analysis, error) {
	if opts.Window == (Window{}) {
		opts.Window = DefaultWindow
	}
	opts.Aggregator.Span = opts.Window.Span()

	out := Analysis{GeneratedAt: clock.Now().UTC(), Window: opts.Window}
	diag := &out.Diagnostics

	nationalSeries := annualSeries(ds.NationalMonthly, ds.NationalAnnual, opts.Window)
	if len(nationalSeries) > 0 {
		trends, err := fitAnnual(opts.Aggregator, nationalSeries, "national annual", diag)
		if err != nil {
			return Analysis{}, err
		}
		national := Rank(LevelNational, trends, nil)
		if len(national.Rows) > 0 {
			row := national.Rows[0]
			out.National = &row
			out.NationalSeries = seriesFor(nationalSeries, row.UnitID)
		}
	}

	stateTrends, err := fitAnnual(opts.Aggregator, annualSeries(ds.StateMonthly, ds.StateAnnual, opts.Window), "state annual", diag)
	if err != nil {
		return Analysis{}, err
	}
	out.StateAnnual = Rank(LevelState, stateTrends, ds.States)
	diag.Mismatches = append(diag.Mismatches, out.StateAnnual.Mismatch)

	countyTrends, err := fitAnnual(opts.Aggregator, annualSeries(ds.CountyMonthly, ds.CountyAnnual, opts.Window), "county annual", diag)
	if err != nil {
		return Analysis{}, err
	}
	out.CountyAnnual = Rank(LevelCounty, countyTrends, ds.Counties)
	diag.Mismatches = append(diag.Mismatches, out.CountyAnnual.Mismatch)
	out.PopulationBins = PopulationByBin(out.CountyAnnual.Rows)

	seasonal := SeasonalOptions{Window: opts.Window, Aggregator: opts.Aggregator}
	out.StateSeasonal, err = buildSeasonalStage(ds.StateMonthly, stateTrends, ds.States, seasonal, "state seasonal", diag)
	if err != nil {
		return Analysis{}, err
	}
	out.CountySeasonal, err = buildSeasonalStage(ds.CountyMonthly, countyTrends, ds.Counties, seasonal, "county seasonal", diag)
	if err != nil {
		return Analysis{}, err
	}

	if len(ds.Boundaries) > 0 {
		var mismatch JoinMismatch
		out.Geo, mismatch = JoinBoundaries(ds.Boundaries, out.CountyAnnual.Rows)
		diag.Mismatches = append(diag.Mismatches, mismatch)
	}

	if opts.StrictJoins {
		var errs []error
		for _, m := range diag.Mismatches {
			errs = append(errs, m.Err())
		}
		if err := errors.Join(errs...); err != nil {
			return Analysis{}, err
		}
	}
	return out, nil
}

// annualSeries prefers the annual table and falls back to calendar-year means
// of the monthly table, then restricts to the window.
func annualSeries(monthly, annual []Record, w Window) []Record {
	if len(annual) == 0 {
		annual = AnnualMeans(monthly)
	}
	return FilterWindow(annual, w)
}

func fitAnnual(agg Aggregator, records []Record, stage string, diag *Diagnostics) ([]UnitTrend, error) {
	res, err := Aggregate(agg, records,
		func(r Record) string { return r.UnitID },
		func(r Record) Point { return Point{Year: r.Year, Value: r.Value} },
	)
	if err != nil {
		return nil, err
	}
	diag.Skipped = append(diag.Skipped, stamp(res.Skipped, stage)...)
	return Trends(res), nil
}

func buildSeasonalStage(monthly []Record, annual []UnitTrend, lookup Lookup, opts SeasonalOptions, stage string, diag *Diagnostics) ([]SeasonalSummaryRow, error) {
	rows, skipped, err := BuildSeasonal(monthly, annual, lookup, opts)
	if err != nil {
		return nil, err
	}
	diag.Skipped = append(diag.Skipped, stamp(skipped, stage)...)
	return rows, nil
}

func stamp(skips []Skip, stage string) []Skip {
	for i := range skips {
		skips[i].Stage = stage
	}
	return skips
}

func seriesFor(records []Record, unitID string) []Point {
	var pts []Point
	for _, r := range records {
		if r.UnitID == unitID {
			pts = append(pts, Point{Year: r.Year, Value: r.Value})
		}
	}
	sort.Slice(pts, func(i, j int) bool { return pts[i].Year < pts[j].Year })
	return pts
}
