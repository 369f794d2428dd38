package main

import "github.com/spf13/cobra"

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "climtrend",
		Short: "Climate division temperature trend ETL",
		Long: `climtrend fits a linear trend to every county, state and national
temperature series in a window of years, ranks units by warming and writes
CSV, GeoJSON, workbook and chart outputs. Settings come from the environment
and can be overridden with flags.`,
		SilenceUsage: true,
	}
	root.AddCommand(newRunCmd())
	return root
}
