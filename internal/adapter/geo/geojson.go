// Package geo reads county boundary polygons and writes the joined trend map
// as GeoJSON.
package geo

import (
	"fmt"
	"io"
	"maps"
	"strconv"
	"strings"

	"github.com/paulmach/orb/geojson"

	"github.com/couchcryptid/climate-trend-etl/internal/adapter/table"
	"github.com/couchcryptid/climate-trend-etl/internal/domain"
)

// Property names on boundary and output features.
const (
	PropGEOID      = "GEOID"
	PropLandArea   = "ALAND"
	PropName       = "name"
	PropStateName  = "state_name"
	PropStateAbbr  = "state_abbr"
	PropRank       = "rank"
	PropTempChg    = "tempchg"
	PropTempChgC   = "tempchg_c"
	PropBin        = "bin"
	PropPopulation = "population"
	PropDensity    = "pop_density"
)

// DecodeBoundaries reads a FeatureCollection of county polygons keyed by the
// GEOID property. ALAND, when present, is the land area in square meters.
func DecodeBoundaries(r io.Reader, source string) ([]domain.Boundary, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", source, err)
	}
	fc, err := geojson.UnmarshalFeatureCollection(data)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", source, err)
	}

	out := make([]domain.Boundary, 0, len(fc.Features))
	for i, f := range fc.Features {
		id, ok := propString(f.Properties, PropGEOID)
		if !ok || id == "" {
			return nil, &domain.SchemaError{Table: source, Column: PropGEOID, Row: i + 1, Reason: "missing feature id"}
		}
		land, err := propFloat(f.Properties, PropLandArea)
		if err != nil {
			return nil, &domain.SchemaError{Table: source, Column: PropLandArea, Row: i + 1, Reason: err.Error()}
		}
		out = append(out, domain.Boundary{
			UnitID:     table.NormalizeID(id, table.CountyIDWidth),
			LandArea:   land,
			Geometry:   f.Geometry,
			Properties: maps.Clone(map[string]any(f.Properties)),
		})
	}
	return out, nil
}

// EncodeFeatures writes one feature per boundary. Boundaries without a
// modeled county carry null analytical properties.
func EncodeFeatures(w io.Writer, features []domain.GeoFeature) error {
	fc := geojson.NewFeatureCollection()
	for _, gf := range features {
		f := geojson.NewFeature(gf.Boundary.Geometry)
		f.ID = gf.Boundary.UnitID
		if gf.Boundary.Properties != nil {
			f.Properties = maps.Clone(geojson.Properties(gf.Boundary.Properties))
		}
		f.Properties[PropGEOID] = gf.Boundary.UnitID
		for k, v := range trendProperties(gf) {
			f.Properties[k] = v
		}
		fc.Append(f)
	}

	data, err := fc.MarshalJSON()
	if err != nil {
		return fmt.Errorf("encode features: %w", err)
	}
	if _, err := w.Write(data); err != nil {
		return fmt.Errorf("write features: %w", err)
	}
	return nil
}

func trendProperties(gf domain.GeoFeature) map[string]any {
	props := map[string]any{
		PropName:       nil,
		PropStateName:  nil,
		PropStateAbbr:  nil,
		PropRank:       nil,
		PropTempChg:    nil,
		PropTempChgC:   nil,
		PropBin:        nil,
		PropPopulation: nil,
		PropDensity:    nil,
	}
	if gf.Row == nil {
		return props
	}
	r := gf.Row
	props[PropName] = r.Info.Name
	props[PropStateName] = r.Info.StateName
	props[PropStateAbbr] = r.Info.StateAbbr
	props[PropRank] = r.Rank
	props[PropTempChg] = r.Trend.TempChg
	props[PropTempChgC] = r.Trend.TempChgC
	props[PropBin] = r.Bin.String()
	if r.Info.Population != nil {
		props[PropPopulation] = *r.Info.Population
	}
	if gf.Density != nil {
		props[PropDensity] = *gf.Density
	}
	return props
}

func propString(p geojson.Properties, key string) (string, bool) {
	switch v := p[key].(type) {
	case string:
		return strings.TrimSpace(v), true
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64), true
	default:
		return "", false
	}
}

// propFloat returns 0 for an absent property.
func propFloat(p geojson.Properties, key string) (float64, error) {
	switch v := p[key].(type) {
	case nil:
		return 0, nil
	case float64:
		return v, nil
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil {
			return 0, fmt.Errorf("not a number: %q", v)
		}
		return f, nil
	default:
		return 0, fmt.Errorf("unexpected type %T", v)
	}
}
