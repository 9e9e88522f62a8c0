package main

import (
	"fmt"
	"sort"
	"time"

	"github.com/spf13/cobra"

	"ringjudge/internal/interactor"
	"ringjudge/internal/store"
)

func newHistoryCmd() *cobra.Command {
	var (
		algo  string
		limit int
	)
	cmd := &cobra.Command{
		Use:   "history",
		Short: "List recent judged runs and verdict counts from the ledger",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, ws, err := loadConfig()
			if err != nil {
				return err
			}
			ledger, err := store.NewLedger(inWorkspace(ws, cfg.Store.Path))
			if err != nil {
				return err
			}
			defer ledger.Close()

			entries, err := ledger.Recent(algo, limit)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if len(entries) == 0 {
				fmt.Fprintln(out, "No runs recorded.")
				return nil
			}
			for _, e := range entries {
				fmt.Fprintf(out, "%s  %-12s case %-4d v%d  %-22s moves=%d toggles=%d runtime=%s\n",
					e.RecordedAt.Local().Format(time.DateTime), e.Algo, e.CaseIndex, e.Variant,
					e.Reason, e.Moves, e.Toggles, e.Runtime.Round(time.Millisecond))
			}

			counts, err := ledger.ReasonCounts(algo)
			if err != nil {
				return err
			}
			reasons := make([]interactor.Reason, 0, len(counts))
			for r := range counts {
				reasons = append(reasons, r)
			}
			sort.Slice(reasons, func(i, j int) bool {
				if counts[reasons[i]] != counts[reasons[j]] {
					return counts[reasons[i]] > counts[reasons[j]]
				}
				return reasons[i] < reasons[j]
			})
			fmt.Fprintln(out, "\nVerdicts:")
			for _, r := range reasons {
				fmt.Fprintf(out, "  %-22s %d\n", r, counts[r])
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&algo, "algo", "a", "", "Only show this candidate")
	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Number of runs to list")
	return cmd
}
