package main

import (
	"fmt"
	"math/rand/v2"
	"os"
	"path/filepath"
	"sort"

	"github.com/spf13/cobra"

	"github.com/gramlab/gram/internal/comparison"
	"github.com/gramlab/gram/internal/condition"
	"github.com/gramlab/gram/internal/plotting"
	"github.com/gramlab/gram/internal/simulation"
)

func newPlotCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "plot [dir]",
		Short: "Plot saved trajectory sets",
		Long: `Render sampled before/after trajectories of a saved simulation as
PNG images, one per condition.

The simulation must have been run with --saveall so that raw trajectory
sets are available.

Examples:
  gram plot results/run1
  gram plot results/run1 --trajectories 50`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			n, _ := cmd.Flags().GetInt("trajectories")
			seed, _ := cmd.Flags().GetUint64("seed")
			deviations, _ := cmd.Flags().GetBool("deviations")

			dir := "."
			if len(args) == 1 {
				dir = args[0]
			}

			dynamics, err := simulation.LoadDynamics(dir)
			if err != nil {
				return err
			}
			if len(dynamics) == 0 {
				return fmt.Errorf("no saved trajectory sets in %s (run with --saveall)", dir)
			}

			names := make([]string, 0, len(dynamics))
			for name := range dynamics {
				names = append(names, name)
			}
			sort.Strings(names)

			for _, name := range names {
				dyn := dynamics[name]
				cmp, err := comparison.Compare(dyn.Before, dyn.After, dyn.Before.Channels()-1,
					comparison.Options{Deviations: deviations})
				if err != nil {
					return fmt.Errorf("plotting %s: %w", name, err)
				}

				display := name
				if c, err := condition.Lookup(name); err == nil {
					display = c.DisplayName
				}
				title := panelTitle(display, cmp)

				path := filepath.Join(dir, name+".png")
				f, err := os.Create(path)
				if err != nil {
					return fmt.Errorf("plotting %s: %w", name, err)
				}
				rng := rand.New(rand.NewPCG(seed, 0))
				if err := plotting.TrajectoryOverlay(f, cmp, title, n, rng); err != nil {
					f.Close()
					return fmt.Errorf("plotting %s: %w", name, err)
				}
				if err := f.Close(); err != nil {
					return fmt.Errorf("plotting %s: %w", name, err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s\n", path)
			}
			return nil
		},
	}
	cmd.Flags().IntP("trajectories", "n", 0, "Trajectories to sample per set")
	cmd.Flags().Uint64("seed", 0, "Sampling seed")
	cmd.Flags().Bool("deviations", false, "Plot deviations from initial values")
	return cmd
}

// panelTitle labels one condition's panel with its threshold error.
func panelTitle(display string, cmp *comparison.Comparison) string {
	if !cmp.ReachedComparison {
		return fmt.Sprintf("%s (comparison point not reached)", display)
	}
	return fmt.Sprintf("%s (threshold error %s)", display, comparison.FormatPercent(cmp.ThresholdError))
}
