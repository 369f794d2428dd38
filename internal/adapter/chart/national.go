// Package chart renders the national annual series and its fitted trend as a PNG.
package chart

import (
	"errors"
	"fmt"
	"io"
	"strconv"

	"github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"

	"github.com/couchcryptid/climate-trend-etl/internal/domain"
)

// ErrTooFewPoints is returned when there is no line to draw.
var ErrTooFewPoints = errors.New("chart needs at least two points")

// Chart dimensions in pixels.
const (
	Width  = 900
	Height = 420
)

// RenderNational draws the annual mean temperature series with the OLS line
// over the same years.
func RenderNational(w io.Writer, series []domain.Point, trend domain.Trend) error {
	if len(series) < 2 {
		return ErrTooFewPoints
	}

	xs := make([]float64, len(series))
	ys := make([]float64, len(series))
	fit := make([]float64, len(series))
	for i, p := range series {
		xs[i] = float64(p.Year)
		ys[i] = p.Value
		fit[i] = trend.Intercept + trend.Slope*xs[i]
	}

	graph := chart.Chart{
		Title: fmt.Sprintf("Contiguous US annual mean temperature (%+.2f °C over %d-%d)",
			trend.TempChgC, series[0].Year, series[len(series)-1].Year),
		TitleStyle: chart.Style{FontSize: 14, FontColor: drawing.ColorBlack},
		Width:      Width,
		Height:     Height,
		Background: chart.Style{Padding: chart.Box{Top: 50, Left: 20, Right: 20, Bottom: 20}},
		XAxis: chart.XAxis{
			Name:           "Year",
			ValueFormatter: func(v any) string { return strconv.Itoa(int(v.(float64))) },
		},
		YAxis: chart.YAxis{
			Name:           "°F",
			ValueFormatter: func(v any) string { return strconv.FormatFloat(v.(float64), 'f', 1, 64) },
		},
		Series: []chart.Series{
			chart.ContinuousSeries{
				Name:    "Annual mean",
				Style:   chart.Style{StrokeColor: drawing.Color{R: 51, G: 102, B: 204, A: 255}, StrokeWidth: 1.5},
				XValues: xs,
				YValues: ys,
			},
			chart.ContinuousSeries{
				Name:    "Linear trend",
				Style:   chart.Style{StrokeColor: drawing.Color{R: 204, G: 0, B: 0, A: 255}, StrokeWidth: 2, StrokeDashArray: []float64{6, 4}},
				XValues: xs,
				YValues: fit,
			},
		},
	}
	graph.Elements = []chart.Renderable{chart.Legend(&graph)}

	if err := graph.Render(chart.PNG, w); err != nil {
		return fmt.Errorf("render national chart: %w", err)
	}
	return nil
}
