package domain

import (
	"fmt"
	"strings"
)

// Season is a meteorological season. The declaration order is the tie-break
// precedence used when picking a unit's maximum-warming season.
type Season int

const (
	Winter Season = iota
	Spring
	Summer
	Fall
)

// Seasons lists every season in precedence order.
var Seasons = [...]Season{Winter, Spring, Summer, Fall}

func (s Season) String() string {
	switch s {
	case Winter:
		return "Winter"
	case Spring:
		return "Spring"
	case Summer:
		return "Summer"
	case Fall:
		return "Fall"
	default:
		return fmt.Sprintf("Season(%d)", int(s))
	}
}

// ParseSeason is the inverse of Season.String.
func ParseSeason(s string) (Season, error) {
	for _, season := range Seasons {
		if season.String() == strings.TrimSpace(s) {
			return season, nil
		}
	}
	return 0, fmt.Errorf("unknown season %q", s)
}

// Months lists the accepted month abbreviations in calendar order.
var Months = [...]string{"Jan", "Feb", "Mar", "Apr", "May", "Jun", "Jul", "Aug", "Sep", "Oct", "Nov", "Dec"}

var monthSeason = map[string]Season{
	"Dec": Winter, "Jan": Winter, "Feb": Winter,
	"Mar": Spring, "Apr": Spring, "May": Spring,
	"Jun": Summer, "Jul": Summer, "Aug": Summer,
	"Sep": Fall, "Oct": Fall, "Nov": Fall,
}

// SeasonAssignment is the season and season year a monthly record counts toward.
type SeasonAssignment struct {
	Season     Season
	SeasonYear int
}

// Classify maps a monthly record to its season. January and February belong
// to the winter that began the previous December, so their season year is
// year−1. Month must be one of [Months] exactly.
func Classify(rec Record) (SeasonAssignment, error) {
	season, ok := monthSeason[rec.Month]
	if !ok {
		return SeasonAssignment{}, &UnrecognizedMonthError{UnitID: rec.UnitID, Year: rec.Year, Month: rec.Month}
	}
	year := rec.Year
	if rec.Month == "Jan" || rec.Month == "Feb" {
		year--
	}
	return SeasonAssignment{Season: season, SeasonYear: year}, nil
}
