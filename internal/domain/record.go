package domain

import "sort"

// Level is the geographic aggregation of a series.
type Level string

const (
	LevelNational Level = "national"
	LevelState    Level = "state"
	LevelCounty   Level = "county"
)

// NationalUnitID identifies the contiguous-US series.
const NationalUnitID = "00"

// Record is one row of a climate-division temperature table. Month is empty
// for annual tables.
type Record struct {
	UnitID string
	Year   int
	Month  string
	Value  float64 // °F
}

// Point is a single (year, value) observation fed to the trend model.
type Point struct {
	Year  int
	Value float64
}

// Window is the inclusive range of years included in the analysis.
type Window struct {
	Start int
	End   int
}

// DefaultWindow covers the full nClimDiv record used for the published ranking.
var DefaultWindow = Window{Start: 1895, End: 2019}

// Span is the number of years a slope is projected over.
func (w Window) Span() float64 {
	return float64(w.End - w.Start)
}

// Contains reports whether year falls inside the window.
func (w Window) Contains(year int) bool {
	return year >= w.Start && year <= w.End
}

// UnitInfo carries display names and population for a geographic unit.
type UnitInfo struct {
	UnitID     string
	Name       string // county name, or state name for state units
	StateName  string
	StateAbbr  string
	Population *float64 // 2018 estimate; nil when unknown
}

// Lookup maps unit id to its descriptive record.
type Lookup map[string]UnitInfo

// IDs returns the lookup's unit ids in ascending order.
func (l Lookup) IDs() []string {
	ids := make([]string, 0, len(l))
	for id := range l {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// UnitTrend pairs a unit with its fitted trend.
type UnitTrend struct {
	UnitID string
	Trend  Trend
}

// AnnualMeans collapses monthly records into one calendar-year mean per unit
// and year, averaging whichever months are present. Records already without
// a month pass through unchanged. Output order follows first appearance.
func AnnualMeans(records []Record) []Record {
	type cell struct {
		unit string
		year int
	}
	type acc struct {
		sum   float64
		count int
	}

	order := make([]cell, 0)
	sums := make(map[cell]*acc)
	for _, r := range records {
		c := cell{unit: r.UnitID, year: r.Year}
		a, ok := sums[c]
		if !ok {
			a = &acc{}
			sums[c] = a
			order = append(order, c)
		}
		a.sum += r.Value
		a.count++
	}

	out := make([]Record, 0, len(order))
	for _, c := range order {
		a := sums[c]
		out = append(out, Record{UnitID: c.unit, Year: c.year, Value: a.sum / float64(a.count)})
	}
	return out
}

// FilterWindow keeps records whose year falls inside w.
func FilterWindow(records []Record, w Window) []Record {
	out := make([]Record, 0, len(records))
	for _, r := range records {
		if w.Contains(r.Year) {
			out = append(out, r)
		}
	}
	return out
}
