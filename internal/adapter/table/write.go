package table

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"github.com/couchcryptid/climate-trend-etl/internal/domain"
)

// RankedHeader is the column layout of the annual ranking tables.
var RankedHeader = []string{
	"rank", ColFIPS, "name", ColStateName, ColStateAbbr, "population",
	"slope", "intercept", "p_value", "r_squared", "n",
	"tempchg", "centurychg", "decadechg", "tempchg_c", "decadechg_c", "bin",
}

// SeasonalHeader is the column layout of the seasonal summary tables.
var SeasonalHeader = []string{
	ColFIPS, "name", ColStateName, ColStateAbbr, "population",
	"Annual", "Winter", "Spring", "Summer", "Fall", "max_warming_season",
}

// PopulationBinHeader is the column layout of population_by_bin.csv.
var PopulationBinHeader = []string{"bin", "units", "population", "percent"}

// FormatFloat renders v with the fewest digits that parse back to v.
func FormatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}

func formatNullable(v *float64) string {
	if v == nil {
		return ""
	}
	return FormatFloat(*v)
}

func writeAll(w io.Writer, header []string, n int, row func(i int) []string) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for i := 0; i < n; i++ {
		if err := cw.Write(row(i)); err != nil {
			return fmt.Errorf("write row %d: %w", i+1, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteRanked writes ranked rows in rank order.
func WriteRanked(w io.Writer, rows []domain.RankedRow) error {
	return writeAll(w, RankedHeader, len(rows), func(i int) []string {
		r := rows[i]
		t := r.Trend
		return []string{
			strconv.Itoa(r.Rank), r.UnitID, r.Info.Name, r.Info.StateName, r.Info.StateAbbr, formatNullable(r.Info.Population),
			FormatFloat(t.Slope), FormatFloat(t.Intercept), FormatFloat(t.PValue), FormatFloat(t.RSquared), strconv.Itoa(t.N),
			FormatFloat(t.TempChg), FormatFloat(t.CenturyChg), FormatFloat(t.DecadeChg),
			FormatFloat(t.TempChgC), FormatFloat(t.DecadeChgC), r.Bin.String(),
		}
	})
}

// ReadRanked reads a table written by WriteRanked.
func ReadRanked(r io.Reader, table string) ([]domain.RankedRow, error) {
	rs, err := newRows(r, table, RankedHeader...)
	if err != nil {
		return nil, err
	}
	var out []domain.RankedRow
	for {
		ok, err := rs.next()
		if err != nil {
			return nil, err
		}
		if !ok {
			return out, nil
		}
		row, err := rankedRow(rs)
		if err != nil {
			return nil, err
		}
		out = append(out, row)
	}
}

func rankedRow(rs *rows) (domain.RankedRow, error) {
	var row domain.RankedRow
	var err error
	if row.Rank, err = rs.integer("rank"); err != nil {
		return row, err
	}
	row.UnitID = rs.str(ColFIPS)
	row.Info = domain.UnitInfo{
		UnitID:    row.UnitID,
		Name:      rs.str("name"),
		StateName: rs.str(ColStateName),
		StateAbbr: rs.str(ColStateAbbr),
	}
	if row.Info.Population, err = rs.nullable("population"); err != nil {
		return row, err
	}
	if row.Trend.N, err = rs.integer("n"); err != nil {
		return row, err
	}
	fields := []struct {
		col string
		dst *float64
	}{
		{"slope", &row.Trend.Slope},
		{"intercept", &row.Trend.Intercept},
		{"p_value", &row.Trend.PValue},
		{"r_squared", &row.Trend.RSquared},
		{"tempchg", &row.Trend.TempChg},
		{"centurychg", &row.Trend.CenturyChg},
		{"decadechg", &row.Trend.DecadeChg},
		{"tempchg_c", &row.Trend.TempChgC},
		{"decadechg_c", &row.Trend.DecadeChgC},
	}
	for _, f := range fields {
		s := rs.str(f.col)
		v, perr := strconv.ParseFloat(s, 64)
		if perr != nil {
			return row, rs.schemaErr(f.col, "not a number: %q", s)
		}
		*f.dst = v
	}
	if row.Bin, err = domain.ParseWarmingBin(rs.str("bin")); err != nil {
		return row, rs.schemaErr("bin", "%v", err)
	}
	return row, nil
}

// WriteSeasonal writes seasonal summary rows. Missing values are empty cells.
func WriteSeasonal(w io.Writer, rows []domain.SeasonalSummaryRow) error {
	return writeAll(w, SeasonalHeader, len(rows), func(i int) []string {
		r := rows[i]
		rec := []string{r.UnitID, r.Info.Name, r.Info.StateName, r.Info.StateAbbr, formatNullable(r.Info.Population), formatNullable(r.Annual)}
		for _, s := range domain.Seasons {
			rec = append(rec, formatNullable(r.Seasons[s]))
		}
		return append(rec, r.MaxWarmingSeason.String())
	})
}

// ReadSeasonal reads a table written by WriteSeasonal.
func ReadSeasonal(r io.Reader, table string) ([]domain.SeasonalSummaryRow, error) {
	rs, err := newRows(r, table, SeasonalHeader...)
	if err != nil {
		return nil, err
	}
	var out []domain.SeasonalSummaryRow
	for {
		ok, err := rs.next()
		if err != nil {
			return nil, err
		}
		if !ok {
			return out, nil
		}
		row := domain.SeasonalSummaryRow{UnitID: rs.str(ColFIPS)}
		row.Info = domain.UnitInfo{
			UnitID:    row.UnitID,
			Name:      rs.str("name"),
			StateName: rs.str(ColStateName),
			StateAbbr: rs.str(ColStateAbbr),
		}
		if row.Info.Population, err = rs.nullable("population"); err != nil {
			return nil, err
		}
		if row.Annual, err = rs.nullable("Annual"); err != nil {
			return nil, err
		}
		for _, s := range domain.Seasons {
			if row.Seasons[s], err = rs.nullable(s.String()); err != nil {
				return nil, err
			}
		}
		if row.MaxWarmingSeason, err = domain.ParseSeason(rs.str("max_warming_season")); err != nil {
			return nil, rs.schemaErr("max_warming_season", "%v", err)
		}
		out = append(out, row)
	}
}

// WritePopulationBins writes one row per warming bin.
func WritePopulationBins(w io.Writer, shares []domain.BinShare) error {
	return writeAll(w, PopulationBinHeader, len(shares), func(i int) []string {
		s := shares[i]
		return []string{s.Bin.String(), strconv.Itoa(s.Units), FormatFloat(s.Population), FormatFloat(s.Percent)}
	})
}

// ReadPopulationBins reads a table written by WritePopulationBins.
func ReadPopulationBins(r io.Reader, table string) ([]domain.BinShare, error) {
	rs, err := newRows(r, table, PopulationBinHeader...)
	if err != nil {
		return nil, err
	}
	var out []domain.BinShare
	for {
		ok, err := rs.next()
		if err != nil {
			return nil, err
		}
		if !ok {
			return out, nil
		}
		var s domain.BinShare
		if s.Bin, err = domain.ParseWarmingBin(rs.str("bin")); err != nil {
			return nil, rs.schemaErr("bin", "%v", err)
		}
		if s.Units, err = rs.integer("units"); err != nil {
			return nil, err
		}
		if s.Population, err = rs.finite("population"); err != nil {
			return nil, err
		}
		if s.Percent, err = rs.finite("percent"); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
}
