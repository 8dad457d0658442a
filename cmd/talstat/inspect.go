package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/gotal/tal/config"
	"github.com/gotal/tal/datasets"
)

func newInspectCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "inspect",
		Short: "Print split statistics and class coverage",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(flagConfig)
			if err != nil {
				return err
			}
			ds, err := datasets.FromConfig(cfg, flagSplit, false)
			if err != nil {
				return err
			}

			annotated, segs := 0, 0
			for i := range ds.Records {
				if ds.Records[i].Annotated() {
					annotated++
					segs += len(ds.Records[i].Segments)
				}
			}

			attrs := ds.Attributes()
			fmt.Printf("dataset:        %s\n", attrs.Name)
			fmt.Printf("videos:         %d (%d annotated)\n", ds.Len(), annotated)
			fmt.Printf("segments:       %d\n", segs)
			fmt.Printf("labels:         %d distinct\n", ds.Dict.Len())
			fmt.Printf("tiou:           %v\n", attrs.TIoUThresholds)
			if len(attrs.EmptyLabelIDs) > 0 {
				fmt.Printf("empty classes:  %v\n", attrs.EmptyLabelIDs)
				for _, id := range attrs.EmptyLabelIDs {
					if name := ds.Dict.Name(id); name != "" {
						fmt.Printf("  %4d  %s\n", id, name)
					}
				}
			} else {
				fmt.Printf("empty classes:  none\n")
			}
			return nil
		},
	}
}
