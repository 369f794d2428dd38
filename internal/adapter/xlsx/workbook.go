// Package xlsx renders the ranked and seasonal tables as one Excel workbook.
package xlsx

import (
	"fmt"
	"math"

	"github.com/xuri/excelize/v2"

	"github.com/couchcryptid/climate-trend-etl/internal/domain"
)

// Sheet names, in workbook order.
const (
	SheetNational       = "National"
	SheetStateAnnual    = "State Annual"
	SheetCountyAnnual   = "County Annual"
	SheetStateSeasonal  = "State Seasonal"
	SheetCountySeasonal = "County Seasonal"
	SheetPopulationBins = "Population by Bin"
)

var rankedHeader = []any{
	"Rank", "FIPS", "Name", "State", "Abbr", "Population",
	"Slope (°F/yr)", "p-value", "R²", "N",
	"Change (°F)", "Change (°C)", "Per decade (°C)", "Bin",
}

var seasonalHeader = []any{
	"FIPS", "Name", "State", "Population", "Annual (°C)",
	"Winter (°C)", "Spring (°C)", "Summer (°C)", "Fall (°C)", "Max warming season",
}

var binHeader = []any{"Bin (°C)", "Units", "Population", "Percent"}

// Build returns the workbook as xlsx bytes.
func Build(a domain.Analysis) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return nil, fmt.Errorf("create header style: %w", err)
	}
	b := &builder{f: f, headerStyle: bold}

	var national []domain.RankedRow
	if a.National != nil {
		national = []domain.RankedRow{*a.National}
	}

	if err := f.SetSheetName("Sheet1", SheetNational); err != nil {
		return nil, fmt.Errorf("rename default sheet: %w", err)
	}
	b.ranked(SheetNational, national)
	b.ranked(SheetStateAnnual, a.StateAnnual.Rows)
	b.ranked(SheetCountyAnnual, a.CountyAnnual.Rows)
	b.seasonal(SheetStateSeasonal, a.StateSeasonal)
	b.seasonal(SheetCountySeasonal, a.CountySeasonal)
	b.bins(SheetPopulationBins, a.PopulationBins)
	if b.err != nil {
		return nil, b.err
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("write workbook: %w", err)
	}
	return buf.Bytes(), nil
}

// builder records the first excelize error so sheet writers stay linear.
type builder struct {
	f           *excelize.File
	headerStyle int
	err         error
}

func (b *builder) sheet(name string, header []any) {
	if b.err != nil {
		return
	}
	if idx, _ := b.f.GetSheetIndex(name); idx < 0 {
		if _, err := b.f.NewSheet(name); err != nil {
			b.err = fmt.Errorf("create sheet %s: %w", name, err)
			return
		}
	}
	b.row(name, 1, header)
	last, _ := excelize.CoordinatesToCellName(len(header), 1)
	if err := b.f.SetCellStyle(name, "A1", last, b.headerStyle); err != nil {
		b.err = fmt.Errorf("style %s header: %w", name, err)
		return
	}
	if err := b.f.SetPanes(name, &excelize.Panes{Freeze: true, YSplit: 1, TopLeftCell: "A2", ActivePane: "bottomLeft"}); err != nil {
		b.err = fmt.Errorf("freeze %s header: %w", name, err)
	}
}

func (b *builder) row(sheet string, n int, values []any) {
	if b.err != nil {
		return
	}
	cell, _ := excelize.CoordinatesToCellName(1, n)
	if err := b.f.SetSheetRow(sheet, cell, &values); err != nil {
		b.err = fmt.Errorf("write %s row %d: %w", sheet, n, err)
	}
}

func (b *builder) ranked(sheet string, rows []domain.RankedRow) {
	b.sheet(sheet, rankedHeader)
	for i, r := range rows {
		t := r.Trend
		b.row(sheet, i+2, []any{
			r.Rank, r.UnitID, r.Info.Name, r.Info.StateName, r.Info.StateAbbr, nullable(r.Info.Population),
			num(t.Slope), num(t.PValue), num(t.RSquared), t.N,
			num(t.TempChg), num(t.TempChgC), num(t.DecadeChgC), r.Bin.String(),
		})
	}
}

func (b *builder) seasonal(sheet string, rows []domain.SeasonalSummaryRow) {
	b.sheet(sheet, seasonalHeader)
	for i, r := range rows {
		values := []any{r.UnitID, r.Info.Name, r.Info.StateName, nullable(r.Info.Population), nullable(r.Annual)}
		for _, s := range domain.Seasons {
			values = append(values, nullable(r.Seasons[s]))
		}
		b.row(sheet, i+2, append(values, r.MaxWarmingSeason.String()))
	}
}

func (b *builder) bins(sheet string, shares []domain.BinShare) {
	b.sheet(sheet, binHeader)
	for i, s := range shares {
		b.row(sheet, i+2, []any{s.Bin.String(), s.Units, s.Population, num(s.Percent)})
	}
}

// num leaves non-finite values as blank cells.
func num(v float64) any {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return ""
	}
	return v
}

func nullable(v *float64) any {
	if v == nil {
		return ""
	}
	return num(*v)
}
