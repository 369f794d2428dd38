// Command genmock writes a synthetic nClimDiv-style input directory whose
// county, state and national slopes are known, so a climtrend run over it can
// be checked by eye or with the validate command.
//
// Usage:
//
//	go run ./cmd/genmock --out data/input --noise 0.5 --seed 1
package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/couchcryptid/climate-trend-etl/internal/domain"
	"github.com/couchcryptid/climate-trend-etl/internal/mockdata"
)

func main() {
	if err := newCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func newCmd() *cobra.Command {
	spec := mockdata.Default()
	var out string

	cmd := &cobra.Command{
		Use:          "genmock",
		Short:        "Generate a synthetic input directory with known trends",
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if spec.Window.End <= spec.Window.Start {
				return fmt.Errorf("--end-year (%d) must be after --start-year (%d)", spec.Window.End, spec.Window.Start)
			}
			if spec.Noise < 0 {
				return fmt.Errorf("--noise must not be negative")
			}
			if err := mockdata.WriteDir(out, spec); err != nil {
				return err
			}

			logger := slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), nil))
			logger.Info("mock input written",
				"dir", out,
				"window_start", spec.Window.Start,
				"window_end", spec.Window.End,
				"counties", len(spec.Counties),
				"noise", spec.Noise,
			)
			for _, c := range spec.Counties {
				logger.Info("county", "fips", c.FIPS, "slope", c.Slope, "expected_tempchg_c", c.Slope*spec.Window.Span()/1.8)
			}
			return nil
		},
	}

	fl := cmd.Flags()
	fl.StringVar(&out, "out", "data/input", "directory to write the input tables to")
	fl.IntVar(&spec.Window.Start, "start-year", domain.DefaultWindow.Start, "first generated year")
	fl.IntVar(&spec.Window.End, "end-year", domain.DefaultWindow.End, "last generated year")
	fl.Float64Var(&spec.Noise, "noise", 0, "standard deviation of monthly noise in °F")
	fl.Uint64Var(&spec.Seed, "seed", 1, "noise seed")
	fl.Float64Var(&spec.NationalSlope, "national-slope", spec.NationalSlope, "national slope in °F per year")
	return cmd
}
