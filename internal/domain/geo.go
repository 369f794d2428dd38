package domain

import "github.com/paulmach/orb"

const squareMetersPerKm2 = 1e6

// Boundary is a county polygon from the census cartographic boundary files.
type Boundary struct {
	UnitID     string
	LandArea   float64 // m²; 0 when unknown
	Geometry   orb.Geometry
	Properties map[string]any
}

// GeoFeature is a boundary joined with its ranked trend. Row and Density are
// nil for boundaries without a modeled unit.
type GeoFeature struct {
	Boundary Boundary
	Row      *RankedRow
	Density  *float64 // people per km² of land
}

// JoinBoundaries left-joins every boundary to the ranked rows by unit id.
// Boundaries are never dropped. The mismatch reports rows without a boundary
// as MissingFromLookup and boundaries without a row as MissingFromResults.
func JoinBoundaries(boundaries []Boundary, rows []RankedRow) ([]GeoFeature, JoinMismatch) {
	byID := make(map[string]int, len(rows))
	rowIDs := make([]string, 0, len(rows))
	for i, r := range rows {
		byID[r.UnitID] = i
		rowIDs = append(rowIDs, r.UnitID)
	}

	features := make([]GeoFeature, 0, len(boundaries))
	shapeIDs := make([]string, 0, len(boundaries))
	for _, b := range boundaries {
		shapeIDs = append(shapeIDs, b.UnitID)
		f := GeoFeature{Boundary: b}
		if i, ok := byID[b.UnitID]; ok {
			row := rows[i]
			f.Row = &row
			if row.Info.Population != nil && b.LandArea > 0 {
				d := *row.Info.Population / (b.LandArea / squareMetersPerKm2)
				f.Density = &d
			}
		}
		features = append(features, f)
	}

	return features, CompareKeys("county boundaries", rowIDs, shapeIDs)
}
