package xlsx

import (
	"bytes"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/couchcryptid/climate-trend-etl/internal/domain"
)

func sampleAnalysis() domain.Analysis {
	pop := 55601.0
	annual := 0.69
	summer := 0.41
	return domain.Analysis{
		National: &domain.RankedRow{Rank: 1, UnitID: "00", Trend: domain.Trend{Slope: 0.015, TempChgC: 1.03, N: 125}, Bin: domain.BinUpToOneHalf},
		StateAnnual: domain.RankedTable{Level: domain.LevelState, Rows: []domain.RankedRow{
			{Rank: 1, UnitID: "01", Info: domain.UnitInfo{Name: "Alabama", StateAbbr: "AL"}, Trend: domain.Trend{PValue: math.NaN()}},
		}},
		CountyAnnual: domain.RankedTable{Level: domain.LevelCounty, Rows: []domain.RankedRow{
			{Rank: 1, UnitID: "01005", Info: domain.UnitInfo{Name: "Barbour", Population: &pop}, Trend: domain.Trend{TempChgC: 2.07}, Bin: domain.BinOverTwo},
			{Rank: 2, UnitID: "01001", Info: domain.UnitInfo{Name: "Autauga"}, Trend: domain.Trend{TempChgC: 0.69}, Bin: domain.BinUpToOne},
		}},
		CountySeasonal: []domain.SeasonalSummaryRow{
			{UnitID: "01001", Annual: &annual, Seasons: [4]*float64{nil, nil, &summer, nil}, MaxWarmingSeason: domain.Summer},
		},
		PopulationBins: domain.PopulationByBin(nil),
	}
}

func TestBuild(t *testing.T) {
	data, err := Build(sampleAnalysis())
	require.NoError(t, err)

	f, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{
		SheetNational, SheetStateAnnual, SheetCountyAnnual,
		SheetStateSeasonal, SheetCountySeasonal, SheetPopulationBins,
	}, f.GetSheetList())

	rows, err := f.GetRows(SheetCountyAnnual)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, "Rank", rows[0][0])
	assert.Equal(t, "01005", rows[1][1])
	assert.Equal(t, "Barbour", rows[1][2])
	assert.Equal(t, "55601", rows[1][5])
	assert.Equal(t, "(2, inf)", rows[1][13])
	assert.Equal(t, "01001", rows[2][1])

	seasonal, err := f.GetRows(SheetCountySeasonal)
	require.NoError(t, err)
	require.Len(t, seasonal, 2)
	assert.Equal(t, "", seasonal[1][5], "missing winter is blank")
	assert.Equal(t, "0.41", seasonal[1][7])
	assert.Equal(t, "Summer", seasonal[1][9])

	bins, err := f.GetRows(SheetPopulationBins)
	require.NoError(t, err)
	assert.Len(t, bins, 1+len(domain.WarmingBins))

	state, err := f.GetRows(SheetStateAnnual)
	require.NoError(t, err)
	assert.Equal(t, "", state[1][7], "NaN p-value is blank")
}

func TestBuild_EmptyAnalysis(t *testing.T) {
	data, err := Build(domain.Analysis{})
	require.NoError(t, err)
	assert.NotEmpty(t, data)
}
