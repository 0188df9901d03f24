package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/gramlab/gram/internal/comparison"
	"github.com/gramlab/gram/internal/config"
	"github.com/gramlab/gram/internal/logging"
	"github.com/gramlab/gram/internal/plotting"
	"github.com/gramlab/gram/internal/simulation"
	"github.com/gramlab/gram/internal/store"
	"github.com/gramlab/gram/internal/sweep"
)

func newSweepCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sweep",
		Short: "Explore model parameter space",
	}
	cmd.AddCommand(
		newSweepRunCmd(),
		newSweepStatusCmd(),
		newSweepHistCmd(),
	)
	return cmd
}

func newSweepRunCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run a parameter sweep in process",
		Long: `Sample the parameter space of a model family, simulate each sample,
and record error metrics in the results database.

For cluster-scale sweeps, use 'gram batch build' instead and submit the
generated script.

Examples:
  gram sweep run --family linear --samples 100 --output results/sweep
  gram sweep run --family simple --samples 50 --trajectories 1000 --output results/sweep`,
		RunE: func(cmd *cobra.Command, args []string) error {
			family, _ := cmd.Flags().GetString("family")
			samples, _ := cmd.Flags().GetInt("samples")
			output, _ := cmd.Flags().GetString("output")
			configPath, _ := cmd.Flags().GetString("config")
			trajectories, _ := cmd.Flags().GetInt("trajectories")
			logLevel, _ := cmd.Flags().GetString("log-level")

			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}
			if trajectories > 0 {
				cfg.Simulation.Trajectories = trajectories
			}
			if logLevel != "" {
				cfg.Logging.Level = logLevel
			}
			if err := cfg.Validate(); err != nil {
				return err
			}

			s, err := sweep.ByName(family, samples)
			if err != nil {
				return err
			}
			st, err := store.Open(output)
			if err != nil {
				return err
			}
			defer st.Close()

			logger := logging.NewLogger(cfg.Logging.Level, os.Stderr)
			events := logging.NewEventLogger(output, cfg.Logging.Level)
			defer events.Close()

			ctx, cancel := signalContext()
			defer cancel()

			logger.Info("starting sweep", "family", family, "samples", samples)
			completed, err := s.Run(ctx, st, sweep.RunOptions{
				Pulse:  cfg.BuildPulse(),
				Engine: cfg.BuildEngine(),
				Simulation: simulation.RunOptions{
					N:             cfg.Simulation.Trajectories,
					Mode:          comparison.Mode(cfg.Comparison.Mode),
					Bandwidth:     cfg.Comparison.Bandwidth,
					FractionOfMax: cfg.Comparison.FractionOfMax,
					Deviations:    cfg.Comparison.Deviations,
				},
				Logger: logger,
			})
			if err != nil {
				return err
			}
			events.Log(map[string]any{"kind": "sweep_done", "family": family, "completed": completed})

			fmt.Fprintf(cmd.OutOrStdout(), "Sweep complete: %d/%d samples\n", completed, samples)
			return nil
		},
	}
	cmd.Flags().String("family", "linear", "Model family: simple, linear, hill, twostate")
	cmd.Flags().Int("samples", 1000, "Number of parameter samples")
	cmd.Flags().StringP("output", "o", ".", "Output directory")
	cmd.Flags().StringP("config", "c", "config.yaml", "Configuration file")
	cmd.Flags().IntP("trajectories", "N", 0, "Override trajectory count")
	return cmd
}

func newSweepStatusCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "status [dir]",
		Short: "Show sweep completion",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			family, _ := cmd.Flags().GetString("family")
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

			pct, err := st.PercentComplete(cmd.Context(), family)
			if err != nil {
				return err
			}
			if jsonOut {
				return json.NewEncoder(cmd.OutOrStdout()).Encode(map[string]any{
					"family":   family,
					"complete": pct,
				})
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s sweep: %s complete\n",
				family, comparison.FormatPercent(pct))
			return nil
		},
	}
	cmd.Flags().String("family", "linear", "Model family")
	return cmd
}

func newSweepHistCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "hist [dir]",
		Short: "Plot a histogram of sweep error metrics",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			family, _ := cmd.Flags().GetString("family")
			cond, _ := cmd.Flags().GetString("condition")
			mode, _ := cmd.Flags().GetString("mode")
			out, _ := cmd.Flags().GetString("out")
			bins, _ := cmd.Flags().GetInt("bins")

			dir := "."
			if len(args) == 1 {
				dir = args[0]
			}
			st, err := store.Open(dir)
			if err != nil {
				return err
			}
			defer st.Close()

			values, err := st.SweepValues(cmd.Context(), family, cond, mode)
			if err != nil {
				return err
			}
			if len(values) == 0 {
				return fmt.Errorf("no %s values recorded for %s under %s", mode, family, cond)
			}

			f, err := os.Create(out)
			if err != nil {
				return err
			}
			title := fmt.Sprintf("%s %s (%s)", family, mode, cond)
			if err := plotting.Histogram(f, values, title, bins); err != nil {
				f.Close()
				return err
			}
			if err := f.Close(); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s\n", out)
			return nil
		},
	}
	cmd.Flags().String("family", "linear", "Model family")
	cmd.Flags().String("condition", "normal", "Metabolic condition")
	cmd.Flags().String("mode", "threshold_error", "Metric: above, below, error, above_threshold, below_threshold, threshold_error")
	cmd.Flags().String("out", "sweep.png", "Output image path")
	cmd.Flags().Int("bins", 20, "Histogram bins")
	return cmd
}
