// Command validate re-reads the outputs of a climtrend run and checks them
// for internal consistency: ranking order, warming bins, population shares,
// seasonal summaries and the run manifest.
//
// Usage:
//
//	go run ./cmd/validate --dir data/output
package main

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"math"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/couchcryptid/climate-trend-etl/internal/adapter/output"
	"github.com/couchcryptid/climate-trend-etl/internal/adapter/table"
	"github.com/couchcryptid/climate-trend-etl/internal/domain"
)

const percentTolerance = 1e-6

// phase tracks pass/fail for a validation phase.
type phase struct {
	name   string
	errors []string
}

func (p *phase) errorf(format string, args ...any) {
	p.errors = append(p.errors, fmt.Sprintf(format, args...))
}

func (p *phase) passed() bool { return len(p.errors) == 0 }

// outputs is everything validate reads from a run directory.
type outputs struct {
	national       []domain.RankedRow
	states         []domain.RankedRow
	counties       []domain.RankedRow
	stateSeasonal  []domain.SeasonalSummaryRow
	countySeasonal []domain.SeasonalSummaryRow
	bins           []domain.BinShare
	manifest       *output.Manifest
}

func main() {
	var dir string
	cmd := &cobra.Command{
		Use:          "validate",
		Short:        "Check the outputs of a climtrend run",
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			out, err := load(dir)
			if err != nil {
				return err
			}
			phases := validate(out)
			if !report(cmd.OutOrStdout(), phases, out) {
				return errors.New("validation failed")
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&dir, "dir", "data/output", "run output directory")

	if err := cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

// ── Data loading ──

func load(dir string) (*outputs, error) {
	var out outputs
	ranked := []struct {
		name string
		dst  *[]domain.RankedRow
	}{
		{output.NationalAnnual, &out.national},
		{output.StateAnnual, &out.states},
		{output.CountyAnnual, &out.counties},
	}
	for _, r := range ranked {
		rows, err := readFile(dir, r.name, table.ReadRanked)
		if err != nil {
			return nil, err
		}
		*r.dst = rows
	}

	var err error
	if out.stateSeasonal, err = readFile(dir, output.StateSeasonal, table.ReadSeasonal); err != nil {
		return nil, err
	}
	if out.countySeasonal, err = readFile(dir, output.CountySeasonal, table.ReadSeasonal); err != nil {
		return nil, err
	}
	if out.bins, err = readFile(dir, output.PopulationByBin, table.ReadPopulationBins); err != nil {
		return nil, err
	}

	raw, err := os.ReadFile(filepath.Join(dir, output.ManifestFile))
	switch {
	case errors.Is(err, fs.ErrNotExist):
	case err != nil:
		return nil, err
	default:
		var m output.Manifest
		if err := yaml.Unmarshal(raw, &m); err != nil {
			return nil, fmt.Errorf("parse %s: %w", output.ManifestFile, err)
		}
		out.manifest = &m
	}
	return &out, nil
}

func readFile[T any](dir, name string, read func(r io.Reader, table string) (T, error)) (T, error) {
	var zero T
	f, err := os.Open(filepath.Join(dir, name))
	if err != nil {
		return zero, err
	}
	defer f.Close()
	v, err := read(f, name)
	if err != nil {
		return zero, fmt.Errorf("read %s: %w", name, err)
	}
	return v, nil
}

// ── Validation phases ──

func validate(out *outputs) []*phase {
	return []*phase{
		validateRanking("state ranking", out.states),
		validateRanking("county ranking", out.counties),
		validateNational(out.national),
		validateBins(out.bins, out.counties),
		validateSeasonal("state seasonal", out.stateSeasonal),
		validateSeasonal("county seasonal", out.countySeasonal),
		validateManifest(out),
	}
}

func validateRanking(name string, rows []domain.RankedRow) *phase {
	p := &phase{name: name}
	for i, r := range rows {
		if r.Rank != i+1 {
			p.errorf("%s: rank %d at position %d", r.UnitID, r.Rank, i+1)
		}
		if i > 0 && r.Trend.TempChgC > rows[i-1].Trend.TempChgC {
			p.errorf("%s: tempchg_c %g above previous %g", r.UnitID, r.Trend.TempChgC, rows[i-1].Trend.TempChgC)
		}
		if want, ok := domain.BinFor(r.Trend.TempChgC); ok && want != r.Bin {
			p.errorf("%s: bin %s, want %s for %g", r.UnitID, r.Bin, want, r.Trend.TempChgC)
		}
		if r.Trend.N < 2 {
			p.errorf("%s: fit on %d points", r.UnitID, r.Trend.N)
		}
	}
	return p
}

func validateNational(rows []domain.RankedRow) *phase {
	p := &phase{name: "national trend"}
	if len(rows) > 1 {
		p.errorf("%d national rows, want at most 1", len(rows))
	}
	return p
}

func validateBins(bins []domain.BinShare, counties []domain.RankedRow) *phase {
	p := &phase{name: "population by bin"}
	if len(bins) != len(domain.WarmingBins) {
		p.errorf("%d bins, want %d", len(bins), len(domain.WarmingBins))
		return p
	}

	units := make(map[domain.WarmingBin]int)
	pop := make(map[domain.WarmingBin]float64)
	var total float64
	for _, r := range counties {
		units[r.Bin]++
		if r.Info.Population != nil {
			pop[r.Bin] += *r.Info.Population
			total += *r.Info.Population
		}
	}

	var percent float64
	for i, b := range bins {
		if b.Bin != domain.WarmingBins[i] {
			p.errorf("bin %d is %s, want %s", i, b.Bin, domain.WarmingBins[i])
		}
		if b.Units != units[b.Bin] {
			p.errorf("bin %s: %d units, counties table has %d", b.Bin, b.Units, units[b.Bin])
		}
		if math.Abs(b.Population-pop[b.Bin]) > 0.5 {
			p.errorf("bin %s: population %g, counties table sums to %g", b.Bin, b.Population, pop[b.Bin])
		}
		percent += b.Percent
	}
	if total > 0 && math.Abs(percent-100) > percentTolerance {
		p.errorf("percentages sum to %g", percent)
	}
	return p
}

func validateSeasonal(name string, rows []domain.SeasonalSummaryRow) *phase {
	p := &phase{name: name}
	for i, r := range rows {
		best := domain.Winter
		var bestVal *float64
		for _, s := range domain.Seasons {
			if v := r.Seasons[s]; v != nil && (bestVal == nil || *v > *bestVal) {
				best, bestVal = s, v
			}
		}
		if best != r.MaxWarmingSeason {
			p.errorf("%s: max_warming_season %s, want %s", r.UnitID, r.MaxWarmingSeason, best)
		}
		if i == 0 {
			continue
		}
		prev := rows[i-1].Annual
		switch {
		case prev == nil && r.Annual != nil:
			p.errorf("%s: annual value after a row without one", r.UnitID)
		case prev != nil && r.Annual != nil && *r.Annual > *prev:
			p.errorf("%s: Annual %g above previous %g", r.UnitID, *r.Annual, *prev)
		}
	}
	return p
}

func validateManifest(out *outputs) *phase {
	p := &phase{name: "manifest"}
	m := out.manifest
	if m == nil {
		p.errorf("%s missing", output.ManifestFile)
		return p
	}
	if m.RunID == "" {
		p.errorf("run_id empty")
	}
	counts := []struct {
		field     string
		got, want int
	}{
		{"national", m.Counts.National, len(out.national)},
		{"states", m.Counts.States, len(out.states)},
		{"counties", m.Counts.Counties, len(out.counties)},
		{"state_seasonal", m.Counts.StateSeasonal, len(out.stateSeasonal)},
		{"county_seasonal", m.Counts.CountySeasonal, len(out.countySeasonal)},
	}
	for _, c := range counts {
		if c.got != c.want {
			p.errorf("counts.%s is %d, file has %d rows", c.field, c.got, c.want)
		}
	}
	return p
}

// ── Reporting ──

func report(w io.Writer, phases []*phase, out *outputs) bool {
	fmt.Fprintln(w, "=== Climate Trend Output Validation ===")
	fmt.Fprintln(w)

	allPassed := true
	for _, p := range phases {
		status := "\033[32mPASS\033[0m"
		if !p.passed() {
			status = fmt.Sprintf("\033[31mFAIL (%d errors)\033[0m", len(p.errors))
			allPassed = false
		}
		fmt.Fprintf(w, "  %-42s %s\n", p.name, status)
	}

	fmt.Fprintln(w)
	fmt.Fprintf(w, "Rows: %d state, %d county, %d state seasonal, %d county seasonal\n",
		len(out.states), len(out.counties), len(out.stateSeasonal), len(out.countySeasonal))

	for _, p := range phases {
		if p.passed() {
			continue
		}
		fmt.Fprintf(w, "\n--- %s ---\n", p.name)
		for i, e := range p.errors {
			fmt.Fprintf(w, "  [%d] %s\n", i+1, e)
		}
	}

	if allPassed {
		fmt.Fprintln(w, "\nAll validations passed.")
	} else {
		fmt.Fprintln(w, "\nValidation FAILED.")
	}
	return allPassed
}
