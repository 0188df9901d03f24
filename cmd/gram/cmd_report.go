package main

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/gramlab/gram/internal/store"
)

func newReportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "report [dir]",
		Short: "Report stored run results",
		Long: `List recorded runs in the results database, or show the
per-condition metrics of one run.

Examples:
  gram report results/run1
  gram report results/run1 --run 3`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			runID, _ := cmd.Flags().GetInt64("run")
			jsonOut, _ := cmd.Flags().GetBool("json")

			dir := "."
			if len(args) == 1 {
				dir = args[0]
			}
			st, err := store.Open(dir)
			if err != nil {
				return err
			}
			defer st.Close()

			ctx := cmd.Context()

			if runID > 0 {
				metrics, err := st.RunMetrics(ctx, runID)
				if err != nil {
					return err
				}
				if len(metrics) == 0 {
					return fmt.Errorf("no metrics recorded for run %d", runID)
				}
				if jsonOut {
					return json.NewEncoder(cmd.OutOrStdout()).Encode(metrics)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Run %d:\n", runID)
				printMetrics(cmd, metrics)
				return nil
			}

			runs, err := st.ListRuns(ctx)
			if err != nil {
				return err
			}
			if jsonOut {
				return json.NewEncoder(cmd.OutOrStdout()).Encode(runs)
			}
			if len(runs) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No runs recorded.")
				return nil
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%-5s %-20s %-10s %-13s %-8s %s\n",
				"ID", "CREATED", "MODEL", "TRAJECTORIES", "SEED", "MODE")
			for _, r := range runs {
				fmt.Fprintf(cmd.OutOrStdout(), "%-5d %-20s %-10s %-13d %-8d %s\n",
					r.ID, r.CreatedAt.Format(time.DateTime), r.Model, r.Trajectories, r.Seed, r.Mode)
			}
			return nil
		},
	}
	cmd.Flags().Int64("run", 0, "Show metrics of one run")
	return cmd
}
