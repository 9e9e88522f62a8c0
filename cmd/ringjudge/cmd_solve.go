package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"ringjudge/internal/grid"
	"ringjudge/internal/oracle"
	"ringjudge/internal/report"
	"ringjudge/internal/suite"
)

func newSolveCmd() *cobra.Command {
	var showMap bool
	cmd := &cobra.Command{
		Use:   "solve [suite-file]",
		Short: "Print the oracle's shortest path lengths without running a candidate",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, ws, err := loadConfig()
			if err != nil {
				return err
			}
			cases, err := suite.ReadFile(inWorkspace(ws, args[0]))
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			for _, c := range cases {
				m, err := c.Definition()
				if err != nil {
					return err
				}
				hazards := grid.NewHazardCache(m)
				res := oracle.Solve(m, hazards)
				fmt.Fprintf(out, "case %d v%d: %s\n", c.Index, c.Variant, res)
				if showMap {
					fmt.Fprintln(out, report.RenderASCII(m, hazards.Zone(grid.Loadout{}), "*"))
				}
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&showMap, "map", false, "Also draw each board with its base hazards")
	return cmd
}
