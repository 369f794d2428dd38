// Package mockdata generates synthetic input tables whose trends are known in
// advance, for fixtures and end-to-end checks.
package mockdata

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"math/rand/v2"
	"os"
	"path/filepath"
	"strconv"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	"gonum.org/v1/gonum/stat/distuv"

	"github.com/couchcryptid/climate-trend-etl/internal/adapter/input"
	"github.com/couchcryptid/climate-trend-etl/internal/domain"
)

// State is a synthetic state series.
type State struct {
	FIPS  string
	Name  string
	Abbr  string
	Slope float64 // °F per year
}

// County is a synthetic county series.
type County struct {
	FIPS       string
	Name       string
	Population float64
	Slope      float64 // °F per year
	LandArea   float64 // m²
}

// Spec describes a synthetic dataset.
type Spec struct {
	Window        domain.Window
	NationalSlope float64
	States        []State
	Counties      []County
	Noise         float64 // standard deviation of monthly noise, °F
	Seed          uint64
}

// monthOffset is a rough mid-latitude annual cycle, °F from the annual mean.
var monthOffset = [12]float64{-20, -17, -10, 0, 9, 17, 21, 19, 12, 2, -8, -17}

const baseTemp = 52.0

// Default is a three-county, one-state dataset with well separated slopes.
func Default() Spec {
	return Spec{
		Window:        domain.DefaultWindow,
		NationalSlope: 0.015,
		States:        []State{{FIPS: "01", Name: "Alabama", Abbr: "AL", Slope: 0.005}},
		Counties: []County{
			{FIPS: "01001", Name: "Autauga", Population: 55601, Slope: 0.01, LandArea: 1539602123},
			{FIPS: "01003", Name: "Baldwin", Population: 218022, Slope: 0, LandArea: 4117546676},
			{FIPS: "01005", Name: "Barbour", Population: 24881, Slope: 0.03, LandArea: 2292144656},
		},
	}
}

// Generate renders every input table of s, keyed by input file name.
func Generate(s Spec) (map[string][]byte, error) {
	noise := func() float64 { return 0 }
	if s.Noise > 0 {
		dist := distuv.Normal{Mu: 0, Sigma: s.Noise, Src: rand.NewPCG(s.Seed, s.Seed^0x9e3779b97f4a7c15)}
		noise = dist.Rand
	}

	files := make(map[string][]byte)
	put := func(name string, header []string, rows [][]string) error {
		var buf bytes.Buffer
		w := csv.NewWriter(&buf)
		if err := w.Write(header); err != nil {
			return err
		}
		if err := w.WriteAll(rows); err != nil {
			return fmt.Errorf("write %s: %w", name, err)
		}
		files[name] = buf.Bytes()
		return nil
	}
	monthly := func(ids []string, slopes []float64) [][]string {
		var rows [][]string
		for i, id := range ids {
			for y := s.Window.Start; y <= s.Window.End; y++ {
				for m, month := range domain.Months {
					v := baseTemp + slopes[i]*float64(y-s.Window.Start) + monthOffset[m] + noise()
					rows = append(rows, []string{id, strconv.Itoa(y), month, strconv.FormatFloat(v, 'f', 3, 64)})
				}
			}
		}
		return rows
	}
	monthlyHeader := []string{"fips", "year", "month", "temp"}

	if err := put(input.NationalMonthly, monthlyHeader, monthly([]string{domain.NationalUnitID}, []float64{s.NationalSlope})); err != nil {
		return nil, err
	}

	var (
		stateIDs    []string
		stateSlopes []float64
		stateRows   [][]string
	)
	for _, st := range s.States {
		stateIDs = append(stateIDs, st.FIPS)
		stateSlopes = append(stateSlopes, st.Slope)
		stateRows = append(stateRows, []string{st.FIPS, st.Name, st.Abbr})
	}
	if err := put(input.StateMonthly, monthlyHeader, monthly(stateIDs, stateSlopes)); err != nil {
		return nil, err
	}
	if err := put(input.StateFIPS, []string{"state_fips", "state_name", "state_abbr"}, stateRows); err != nil {
		return nil, err
	}

	stateName := make(map[string]string, len(s.States))
	for _, st := range s.States {
		stateName[st.FIPS] = st.Name
	}
	var (
		countyIDs    []string
		countySlopes []float64
		nameRows     [][]string
		popRows      [][]string
	)
	fc := geojson.NewFeatureCollection()
	for i, c := range s.Counties {
		countyIDs = append(countyIDs, c.FIPS)
		countySlopes = append(countySlopes, c.Slope)
		nameRows = append(nameRows, []string{c.FIPS, c.Name, stateName[c.FIPS[:2]]})
		popRows = append(popRows, []string{c.FIPS, strconv.FormatFloat(c.Population, 'f', -1, 64)})

		x := float64(i)
		f := geojson.NewFeature(orb.Polygon{{{x, 0}, {x + 1, 0}, {x + 1, 1}, {x, 1}, {x, 0}}})
		f.Properties["GEOID"] = c.FIPS
		f.Properties["ALAND"] = c.LandArea
		f.Properties["NAME"] = c.Name
		fc.Append(f)
	}
	if err := put(input.CountyMonthly, monthlyHeader, monthly(countyIDs, countySlopes)); err != nil {
		return nil, err
	}
	if err := put(input.CountyNames, []string{"fips", "county_name", "state_name"}, nameRows); err != nil {
		return nil, err
	}
	if err := put(input.CountyPopulation, []string{"fips", "pop_2018"}, popRows); err != nil {
		return nil, err
	}

	geo, err := fc.MarshalJSON()
	if err != nil {
		return nil, fmt.Errorf("encode boundaries: %w", err)
	}
	files[input.CountyBoundaries] = geo
	return files, nil
}

// WriteDir generates s into dir, creating it if needed.
func WriteDir(dir string, s Spec) error {
	files, err := Generate(s)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create %s: %w", dir, err)
	}
	for name, data := range files {
		if err := os.WriteFile(filepath.Join(dir, name), data, 0o644); err != nil {
			return fmt.Errorf("write %s: %w", name, err)
		}
	}
	return nil
}
