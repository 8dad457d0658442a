package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/gotal/tal/logging"
)

var (
	flagConfig  string
	flagSplit   string
	flagVerbose bool
)

func main() {
	root := &cobra.Command{
		Use:   "talstat",
		Short: "Inspect temporal action localization datasets",
		Long: `talstat loads an annotation database plus its precomputed video
features and reports split statistics, class coverage, and segment-duration
distributions, without touching any model code.`,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			logging.Init(flagVerbose)
		},
	}
	root.PersistentFlags().StringVarP(&flagConfig, "config", "c", "", "path to dataset YAML config")
	root.PersistentFlags().StringVar(&flagSplit, "split", "", "split to load (overrides config)")
	root.PersistentFlags().BoolVarP(&flagVerbose, "verbose", "v", false, "enable debug logging")
	_ = root.MarkPersistentFlagRequired("config")

	root.AddCommand(newInspectCommand())
	root.AddCommand(newPlotCommand())

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
