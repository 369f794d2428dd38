package domain

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/gonum/stat/distuv"
)

const (
	fahrenheitPerCelsius = 1.8
	yearsPerCentury      = 100
	yearsPerDecade       = 10
)

// Trend is the OLS fit of a temperature series against year, plus the rate
// projections derived from its slope.
type Trend struct {
	Slope     float64 // °F per year
	Intercept float64
	PValue    float64
	RSquared  float64
	N         int

	TempChg    float64 // °F over the analysis window
	CenturyChg float64
	DecadeChg  float64
	TempChgC   float64 // °C over the analysis window
	DecadeChgC float64
}

// Fit fits value on year over the default analysis window.
func Fit(points []Point) (Trend, error) {
	return FitSpan(points, DefaultWindow.Span())
}

// FitSpan fits value on year with an intercept and projects the slope over
// span years. Returns ErrInsufficientData when fewer than two points are given
// or every point shares the same year.
func FitSpan(points []Point, span float64) (Trend, error) {
	n := len(points)
	if n < 2 {
		return Trend{}, fmt.Errorf("%w: %d points", ErrInsufficientData, n)
	}

	x := make([]float64, n)
	y := make([]float64, n)
	distinct := make(map[int]struct{}, n)
	for i, p := range points {
		x[i] = float64(p.Year)
		y[i] = p.Value
		distinct[p.Year] = struct{}{}
	}
	if len(distinct) < 2 {
		return Trend{}, fmt.Errorf("%w: zero year variance", ErrInsufficientData)
	}

	intercept, slope := stat.LinearRegression(x, y, nil, false)

	xMean := stat.Mean(x, nil)
	yMean := stat.Mean(y, nil)
	var sxx, sse, sst float64
	for i := range x {
		dx := x[i] - xMean
		sxx += dx * dx
		resid := y[i] - (intercept + slope*x[i])
		sse += resid * resid
		dy := y[i] - yMean
		sst += dy * dy
	}

	t := Trend{
		Slope:     slope,
		Intercept: intercept,
		PValue:    slopePValue(slope, sse, sxx, n),
		RSquared:  rSquared(sse, sst),
		N:         n,
	}
	t.TempChg = slope * span
	t.CenturyChg = slope * yearsPerCentury
	t.DecadeChg = slope * yearsPerDecade
	t.TempChgC = t.TempChg / fahrenheitPerCelsius
	t.DecadeChgC = t.DecadeChg / fahrenheitPerCelsius
	return t, nil
}

// slopePValue is the two-sided p-value of the t statistic slope / se(slope).
// Two points leave no residual degrees of freedom and yield NaN. An exact fit
// yields 0 for a non-zero slope and 1 for a flat line.
func slopePValue(slope, sse, sxx float64, n int) float64 {
	df := float64(n - 2)
	if df < 1 {
		return math.NaN()
	}
	se := math.Sqrt(sse / df / sxx)
	if se == 0 || math.IsNaN(se) {
		if slope == 0 {
			return 1
		}
		return 0
	}
	tStat := math.Abs(slope / se)
	dist := distuv.StudentsT{Mu: 0, Sigma: 1, Nu: df}
	return 2 * (1 - dist.CDF(tStat))
}

// rSquared treats a constant series fit exactly by a flat line as R² = 1.
func rSquared(sse, sst float64) float64 {
	if sst == 0 {
		return 1
	}
	return 1 - sse/sst
}
