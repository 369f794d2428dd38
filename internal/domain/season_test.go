package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		month      string
		season     Season
		seasonYear int
	}{
		{"Dec", Winter, 1999},
		{"Jan", Winter, 1998},
		{"Feb", Winter, 1998},
		{"Mar", Spring, 1999},
		{"Apr", Spring, 1999},
		{"May", Spring, 1999},
		{"Jun", Summer, 1999},
		{"Jul", Summer, 1999},
		{"Aug", Summer, 1999},
		{"Sep", Fall, 1999},
		{"Oct", Fall, 1999},
		{"Nov", Fall, 1999},
	}

	for _, tt := range tests {
		t.Run(tt.month, func(t *testing.T) {
			sa, err := Classify(Record{UnitID: "01001", Year: 1999, Month: tt.month, Value: 40})
			require.NoError(t, err)
			assert.Equal(t, tt.season, sa.Season)
			assert.Equal(t, tt.seasonYear, sa.SeasonYear)
		})
	}
}

func TestClassify_DecemberJoinsFollowingWinter(t *testing.T) {
	dec, err := Classify(Record{Year: 2000, Month: "Dec"})
	require.NoError(t, err)
	jan, err := Classify(Record{Year: 2001, Month: "Jan"})
	require.NoError(t, err)
	feb, err := Classify(Record{Year: 2001, Month: "Feb"})
	require.NoError(t, err)

	assert.Equal(t, dec, jan)
	assert.Equal(t, dec, feb)
	assert.Equal(t, SeasonAssignment{Season: Winter, SeasonYear: 2000}, dec)
}

func TestClassify_PartitionsMonths(t *testing.T) {
	// Three years of months must land in distinct (season, season year) cells
	// exactly three months at a time, with no month counted twice.
	cells := map[SeasonAssignment]int{}
	for year := 2000; year <= 2002; year++ {
		for _, m := range Months {
			sa, err := Classify(Record{UnitID: "06", Year: year, Month: m})
			require.NoError(t, err)
			cells[sa]++
		}
	}

	total := 0
	for sa, n := range cells {
		total += n
		edge := (sa.Season == Winter && (sa.SeasonYear == 1999 || sa.SeasonYear == 2002))
		if edge {
			continue
		}
		assert.Equal(t, 3, n, "cell %v", sa)
	}
	assert.Equal(t, 36, total)
	assert.Equal(t, 2, cells[SeasonAssignment{Season: Winter, SeasonYear: 1999}])
	assert.Equal(t, 1, cells[SeasonAssignment{Season: Winter, SeasonYear: 2002}])
}

func TestClassify_UnrecognizedMonth(t *testing.T) {
	for _, month := range []string{"", "January", "jan", "DEC", "13", "Sept"} {
		t.Run(month, func(t *testing.T) {
			_, err := Classify(Record{UnitID: "48001", Year: 1950, Month: month})
			require.Error(t, err)

			var monthErr *UnrecognizedMonthError
			require.ErrorAs(t, err, &monthErr)
			assert.Equal(t, "48001", monthErr.UnitID)
			assert.Equal(t, month, monthErr.Month)
			assert.Contains(t, err.Error(), "48001")
		})
	}
}

func TestParseSeason(t *testing.T) {
	for _, s := range Seasons {
		got, err := ParseSeason(s.String())
		require.NoError(t, err)
		assert.Equal(t, s, got)
	}

	_, err := ParseSeason("Monsoon")
	assert.Error(t, err)
}
