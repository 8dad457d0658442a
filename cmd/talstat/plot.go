package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/gotal/tal/config"
	"github.com/gotal/tal/datasets"
)

func newPlotCommand() *cobra.Command {
	var (
		out  string
		bins int
	)
	cmd := &cobra.Command{
		Use:   "plot",
		Short: "Render a histogram of annotated segment durations",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(flagConfig)
			if err != nil {
				return err
			}
			ds, err := datasets.FromConfig(cfg, flagSplit, false)
			if err != nil {
				return err
			}

			var durations plotter.Values
			for i := range ds.Records {
				rec := &ds.Records[i]
				for _, seg := range rec.Segments {
					// Segments are stored in frames; back to seconds.
					durations = append(durations, (seg[1]-seg[0])/rec.FPS)
				}
			}
			if len(durations) == 0 {
				return fmt.Errorf("split has no annotated segments to plot")
			}

			split := flagSplit
			if split == "" {
				split = cfg.Dataset.Split
			}
			p := plot.New()
			p.Title.Text = fmt.Sprintf("%s segment durations (%s)", cfg.Dataset.Name, split)
			p.X.Label.Text = "duration (s)"
			p.Y.Label.Text = "count"

			h, err := plotter.NewHist(durations, bins)
			if err != nil {
				return fmt.Errorf("failed to build histogram: %w", err)
			}
			p.Add(h)
			p.Add(plotter.NewGrid())

			if err := p.Save(8*vg.Inch, 6*vg.Inch, out); err != nil {
				return fmt.Errorf("failed to save plot: %w", err)
			}
			fmt.Printf("wrote %s (%d segments)\n", out, len(durations))
			return nil
		},
	}
	cmd.Flags().StringVarP(&out, "out", "o", "durations.png", "output image path")
	cmd.Flags().IntVar(&bins, "bins", 50, "histogram bin count")
	return cmd
}
