package domain

import (
	"fmt"
	"math"
)

// WarmingBin buckets Celsius change over the analysis window.
type WarmingBin int

const (
	BinCooling     WarmingBin = iota // (−∞, 0]
	BinUpToHalf                      // (0, 0.5]
	BinUpToOne                       // (0.5, 1.0]
	BinUpToOneHalf                   // (1.0, 1.5]
	BinUpToTwo                       // (1.5, 2.0]
	BinOverTwo                       // (2.0, ∞)
)

// WarmingBins lists every bin from coolest to warmest.
var WarmingBins = [...]WarmingBin{BinCooling, BinUpToHalf, BinUpToOne, BinUpToOneHalf, BinUpToTwo, BinOverTwo}

// binUpper holds the inclusive upper edge of each bounded bin.
var binUpper = [...]float64{0, 0.5, 1.0, 1.5, 2.0}

// BinFor returns the bin containing tempChgC. NaN has no bin.
func BinFor(tempChgC float64) (WarmingBin, bool) {
	if math.IsNaN(tempChgC) {
		return 0, false
	}
	for i, upper := range binUpper {
		if tempChgC <= upper {
			return WarmingBins[i], true
		}
	}
	return BinOverTwo, true
}

// String renders the bin as a half-open interval, e.g. "(0.5, 1]".
func (b WarmingBin) String() string {
	switch {
	case b == BinCooling:
		return "(-inf, 0]"
	case b == BinOverTwo:
		return "(2, inf)"
	case b > BinCooling && b < BinOverTwo:
		return fmt.Sprintf("(%g, %g]", binUpper[b-1], binUpper[b])
	default:
		return fmt.Sprintf("WarmingBin(%d)", int(b))
	}
}

// ParseWarmingBin is the inverse of WarmingBin.String.
func ParseWarmingBin(s string) (WarmingBin, error) {
	for _, b := range WarmingBins {
		if b.String() == s {
			return b, nil
		}
	}
	return 0, fmt.Errorf("unknown warming bin %q", s)
}

// BinShare is one row of the population-by-bin summary.
type BinShare struct {
	Bin        WarmingBin
	Units      int
	Population float64
	Percent    float64
}

// PopulationByBin sums population per warming bin over rows with a known
// population. Percent is each bin's share of the total known population. All
// bins are returned, coolest first; empty bins report zero.
func PopulationByBin(rows []RankedRow) []BinShare {
	shares := make([]BinShare, len(WarmingBins))
	for i, b := range WarmingBins {
		shares[i].Bin = b
	}

	var total float64
	for _, r := range rows {
		shares[r.Bin].Units++
		if r.Info.Population == nil {
			continue
		}
		shares[r.Bin].Population += *r.Info.Population
		total += *r.Info.Population
	}

	if total > 0 {
		for i := range shares {
			shares[i].Percent = shares[i].Population / total * 100
		}
	}
	return shares
}
