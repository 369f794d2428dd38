// Command climtrend computes county, state and national temperature trends
// from NOAA nClimDiv tables and writes ranked and seasonal summaries.
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
