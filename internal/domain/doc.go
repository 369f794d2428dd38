// Package domain models NOAA climate-division temperature records and the
// warming-trend analysis computed over them.
//
// # Data Source
//
// Temperature series originate from the NOAA nClimDiv dataset
// (https://www.ncei.noaa.gov/pub/data/cirs/climdiv/), which publishes monthly
// average temperatures in degrees Fahrenheit for the contiguous United States,
// each state, and each county from 1895 onward. Upstream tooling flattens the
// fixed-width climdiv files into CSV tables keyed by FIPS code.
//
// # Unit Identifiers
//
//	County:   5-digit state+county FIPS, zero padded ("01001" = Autauga, AL)
//	State:    2-digit state FIPS ("06" = California)
//	National: the constant "00"
//
// # Seasons
//
// Meteorological seasons group whole months:
//
//	Winter: Dec, Jan, Feb
//	Spring: Mar, Apr, May
//	Summer: Jun, Jul, Aug
//	Fall:   Sep, Oct, Nov
//
// December belongs to the winter that continues into the following January,
// so January and February are attributed to the previous year's season year:
//
//	Dec 1999, Jan 2000, Feb 2000  →  Winter, season year 1999
//
// # Trend Model
//
// Each series is fit with ordinary least squares of temperature on year. The
// slope (°F per year) is projected over the analysis window:
//
//	tempchg    = slope × (end − start)   124 years for 1895–2019
//	centurychg = slope × 100
//	decadechg  = slope × 10
//	*_c        = Fahrenheit change / 1.8
//
// The p-value is the two-sided t-test on the slope coefficient with n−2
// degrees of freedom.
//
// # Warming Bins
//
// Celsius change over the window is bucketed for population summaries:
//
//	(−∞, 0]  (0, 0.5]  (0.5, 1.0]  (1.0, 1.5]  (1.5, 2.0]  (2.0, ∞)
//
// # Joins
//
// Results join names and 2018 population estimates by unit id. Ids present on
// only one side of a join are reported as a [JoinMismatch] in both directions
// rather than dropped.
package domain
