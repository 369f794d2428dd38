package domain

import "sort"

// SeasonalSummaryRow is one unit's annual and per-season Celsius change.
// Seasons is indexed by Season; a nil entry means the unit had no fit for it.
type SeasonalSummaryRow struct {
	UnitID           string
	Info             UnitInfo
	Annual           *float64
	Seasons          [len(Seasons)]*float64
	MaxWarmingSeason Season
}

// SeasonalOptions configures BuildSeasonal.
type SeasonalOptions struct {
	Window     Window
	Aggregator Aggregator
}

type seasonKey struct {
	UnitID string
	Season Season
}

func (k seasonKey) String() string {
	return k.UnitID + "/" + k.Season.String()
}

type seasonCell struct {
	key        seasonKey
	seasonYear int
}

type seasonMean struct {
	key        seasonKey
	seasonYear int
	value      float64
}

// BuildSeasonal turns monthly records into one summary row per unit:
//  1. classify every record into (season, season year)
//  2. average values within each (unit, season, season year)
//  3. keep season years inside the window
//  4. fit one trend per (unit, season)
//  5. pivot seasons into columns
//  6. pick the maximum-warming season, ties in Season order
//  7. join the annual Celsius change and lookup info
//  8. sort by annual change descending; ties keep unit id order, units
//     without an annual trend go last
func BuildSeasonal(records []Record, annual []UnitTrend, lookup Lookup, opts SeasonalOptions) ([]SeasonalSummaryRow, []Skip, error) {
	if opts.Window == (Window{}) {
		opts.Window = DefaultWindow
	}
	if opts.Aggregator.Span == 0 {
		opts.Aggregator.Span = opts.Window.Span()
	}

	means, err := seasonMeans(records)
	if err != nil {
		return nil, nil, err
	}

	inWindow := make([]seasonMean, 0, len(means))
	for _, m := range means {
		if opts.Window.Contains(m.seasonYear) {
			inWindow = append(inWindow, m)
		}
	}

	agg, err := Aggregate(opts.Aggregator, inWindow,
		func(m seasonMean) seasonKey { return m.key },
		func(m seasonMean) Point { return Point{Year: m.seasonYear, Value: m.value} },
	)
	if err != nil {
		return nil, nil, err
	}

	rowsByUnit := make(map[string]*SeasonalSummaryRow)
	for _, r := range agg.Results {
		row, ok := rowsByUnit[r.Key.UnitID]
		if !ok {
			row = &SeasonalSummaryRow{UnitID: r.Key.UnitID}
			rowsByUnit[r.Key.UnitID] = row
		}
		c := r.Trend.TempChgC
		row.Seasons[r.Key.Season] = &c
	}

	annualByUnit := make(map[string]float64, len(annual))
	for _, ut := range annual {
		annualByUnit[ut.UnitID] = ut.Trend.TempChgC
	}

	rows := make([]SeasonalSummaryRow, 0, len(rowsByUnit))
	for id, row := range rowsByUnit {
		row.MaxWarmingSeason = maxWarmingSeason(row.Seasons)
		if c, ok := annualByUnit[id]; ok {
			row.Annual = &c
		}
		if info, ok := lookup[id]; ok {
			row.Info = info
		} else {
			row.Info = UnitInfo{UnitID: id}
		}
		rows = append(rows, *row)
	}

	sortSeasonal(rows)
	return rows, agg.Skipped, nil
}

// seasonMeans classifies and averages monthly records, preserving the order
// in which (unit, season, season year) cells first appear.
func seasonMeans(records []Record) ([]seasonMean, error) {
	type acc struct {
		sum   float64
		count int
	}
	order := make([]seasonCell, 0)
	sums := make(map[seasonCell]*acc)
	for _, rec := range records {
		sa, err := Classify(rec)
		if err != nil {
			return nil, err
		}
		c := seasonCell{key: seasonKey{UnitID: rec.UnitID, Season: sa.Season}, seasonYear: sa.SeasonYear}
		a, ok := sums[c]
		if !ok {
			a = &acc{}
			sums[c] = a
			order = append(order, c)
		}
		a.sum += rec.Value
		a.count++
	}

	out := make([]seasonMean, 0, len(order))
	for _, c := range order {
		a := sums[c]
		out = append(out, seasonMean{key: c.key, seasonYear: c.seasonYear, value: a.sum / float64(a.count)})
	}
	return out, nil
}

func maxWarmingSeason(seasons [len(Seasons)]*float64) Season {
	best := Seasons[0]
	var bestVal *float64
	for _, s := range Seasons {
		v := seasons[s]
		if v == nil {
			continue
		}
		if bestVal == nil || *v > *bestVal {
			best, bestVal = s, v
		}
	}
	return best
}

func sortSeasonal(rows []SeasonalSummaryRow) {
	sort.Slice(rows, func(i, j int) bool { return rows[i].UnitID < rows[j].UnitID })
	sort.SliceStable(rows, func(i, j int) bool {
		a, b := rows[i].Annual, rows[j].Annual
		switch {
		case a == nil:
			return false
		case b == nil:
			return true
		default:
			return *a > *b
		}
	})
}
