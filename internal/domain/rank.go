package domain

import (
	"fmt"
	"sort"
)

// JoinMismatch lists ids present on only one side of a join.
type JoinMismatch struct {
	Join               string
	MissingFromLookup  []string // in results, absent from the lookup
	MissingFromResults []string // in the lookup, absent from the results
}

// Empty reports whether both sides matched completely.
func (m JoinMismatch) Empty() bool {
	return len(m.MissingFromLookup) == 0 && len(m.MissingFromResults) == 0
}

// Err returns nil for a clean join, otherwise an error wrapping ErrJoinMismatch.
func (m JoinMismatch) Err() error {
	if m.Empty() {
		return nil
	}
	return fmt.Errorf("%w: %s: %d ids missing from lookup, %d missing from results",
		ErrJoinMismatch, m.Join, len(m.MissingFromLookup), len(m.MissingFromResults))
}

// CompareKeys checks both directions of a join between result ids and lookup
// ids. Output slices are sorted and free of duplicates.
func CompareKeys(join string, resultIDs, lookupIDs []string) JoinMismatch {
	results := toSet(resultIDs)
	lookup := toSet(lookupIDs)
	return JoinMismatch{
		Join:               join,
		MissingFromLookup:  difference(results, lookup),
		MissingFromResults: difference(lookup, results),
	}
}

func toSet(ids []string) map[string]struct{} {
	s := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		s[id] = struct{}{}
	}
	return s
}

func difference(a, b map[string]struct{}) []string {
	var out []string
	for id := range a {
		if _, ok := b[id]; !ok {
			out = append(out, id)
		}
	}
	sort.Strings(out)
	return out
}

// RankedRow is one unit in a ranked annual table.
type RankedRow struct {
	Rank   int
	UnitID string
	Info   UnitInfo
	Trend  Trend
	Bin    WarmingBin
}

// RankedTable is an annual ranking at one geographic level.
type RankedTable struct {
	Level    Level
	Rows     []RankedRow
	Mismatch JoinMismatch
}

// Rank left-joins trends to lookup, orders rows by Celsius change descending
// and bins every row. Ties keep ascending unit id order. A nil lookup skips
// the join and its mismatch check.
func Rank(level Level, trends []UnitTrend, lookup Lookup) RankedTable {
	rows := make([]RankedRow, 0, len(trends))
	ids := make([]string, 0, len(trends))
	for _, ut := range trends {
		info, ok := lookup[ut.UnitID]
		if !ok {
			info = UnitInfo{UnitID: ut.UnitID}
		}
		bin, _ := BinFor(ut.Trend.TempChgC)
		rows = append(rows, RankedRow{UnitID: ut.UnitID, Info: info, Trend: ut.Trend, Bin: bin})
		ids = append(ids, ut.UnitID)
	}

	sort.Slice(rows, func(i, j int) bool { return rows[i].UnitID < rows[j].UnitID })
	sort.SliceStable(rows, func(i, j int) bool { return rows[i].Trend.TempChgC > rows[j].Trend.TempChgC })
	for i := range rows {
		rows[i].Rank = i + 1
	}

	table := RankedTable{Level: level, Rows: rows}
	if lookup != nil {
		table.Mismatch = CompareKeys(string(level)+" lookup", ids, lookup.IDs())
	}
	return table
}

// Trends flattens an aggregation keyed by unit id.
func Trends(agg Aggregation[string]) []UnitTrend {
	out := make([]UnitTrend, 0, len(agg.Results))
	for _, r := range agg.Results {
		out = append(out, UnitTrend{UnitID: r.Key, Trend: r.Trend})
	}
	return out
}
