package main

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/gramlab/gram/internal/comparison"
	"github.com/gramlab/gram/internal/condition"
	"github.com/gramlab/gram/internal/config"
	"github.com/gramlab/gram/internal/logging"
	"github.com/gramlab/gram/internal/simulation"
	"github.com/gramlab/gram/internal/store"
)

func newRunCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run a conditioned perturbation simulation",
		Long: `Run the configured model before and after feedback removal under
each metabolic condition and score the change in pulse response.

Results are written to the output directory: per-condition error metrics
in results.yaml and a record in the results database. With --saveall the
raw trajectory sets are written as Arrow files.

Examples:
  gram run --config config.yaml --output results/run1
  gram run --output results/run1 --trajectories 100 --saveall`,
		RunE: func(cmd *cobra.Command, args []string) error {
			configPath, _ := cmd.Flags().GetString("config")
			output, _ := cmd.Flags().GetString("output")
			trajectories, _ := cmd.Flags().GetInt("trajectories")
			saveall, _ := cmd.Flags().GetBool("saveall")
			deviations, _ := cmd.Flags().GetBool("deviations")
			mode, _ := cmd.Flags().GetString("mode")
			jsonOut, _ := cmd.Flags().GetBool("json")
			logLevel, _ := cmd.Flags().GetString("log-level")

			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}
			if trajectories > 0 {
				cfg.Simulation.Trajectories = trajectories
			}
			if deviations {
				cfg.Comparison.Deviations = true
			}
			if mode != "" {
				cfg.Comparison.Mode = mode
			}
			if logLevel != "" {
				cfg.Logging.Level = logLevel
			}
			if err := cfg.Validate(); err != nil {
				return err
			}

			logger := logging.NewLogger(cfg.Logging.Level, os.Stderr)
			events := logging.NewEventLogger(output, cfg.Logging.Level)
			defer events.Close()

			model, err := cfg.BuildModel()
			if err != nil {
				return err
			}
			conditions, err := condition.Resolve(cfg.Simulation.Conditions)
			if err != nil {
				return err
			}

			cs := simulation.New(model, cfg.BuildPulse(), cfg.BuildEngine())
			cs.Conditions = conditions

			ctx, cancel := signalContext()
			defer cancel()

			logger.Info("starting conditioned simulation",
				"model", model.Name(),
				"trajectories", cfg.Simulation.Trajectories,
				"conditions", len(conditions))
			start := time.Now()

			err = cs.Run(ctx, simulation.RunOptions{
				N:             cfg.Simulation.Trajectories,
				Mode:          comparison.Mode(cfg.Comparison.Mode),
				Bandwidth:     cfg.Comparison.Bandwidth,
				FractionOfMax: cfg.Comparison.FractionOfMax,
				Deviations:    cfg.Comparison.Deviations,
				Logger:        logger,
			})
			if err != nil {
				return err
			}
			logger.Info("simulation finished", "elapsed", time.Since(start))

			if err := cs.Save(output, saveall); err != nil {
				return err
			}

			metrics := cs.Metrics()
			for _, m := range metrics {
				events.Log(map[string]any{
					"kind":            "condition_done",
					"condition":       m.Condition,
					"threshold_error": m.ThresholdError,
				})
			}

			st, err := store.Open(output)
			if err != nil {
				return err
			}
			defer st.Close()
			runID, err := st.RecordRun(ctx, store.RunRecord{
				Model:        model.Name(),
				Trajectories: cfg.Simulation.Trajectories,
				Seed:         cfg.Simulation.Seed,
				Mode:         cfg.Comparison.Mode,
			}, metrics)
			if err != nil {
				return err
			}

			if jsonOut {
				return json.NewEncoder(cmd.OutOrStdout()).Encode(map[string]any{
					"run":     runID,
					"output":  output,
					"metrics": metrics,
				})
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Run %d complete. Feedback removal impact:\n", runID)
			printMetrics(cmd, metrics)
			return nil
		},
	}
	cmd.Flags().StringP("config", "c", "config.yaml", "Configuration file")
	cmd.Flags().StringP("output", "o", ".", "Output directory")
	cmd.Flags().IntP("trajectories", "N", 0, "Override trajectory count")
	cmd.Flags().BoolP("saveall", "S", false, "Save raw trajectory sets")
	cmd.Flags().BoolP("deviations", "D", false, "Compare deviations from initial values")
	cmd.Flags().String("mode", "", "Comparison mode: empirical, area, cdf, threshold")
	return cmd
}

// printMetrics writes one line per condition with the error as a
// percentage.
func printMetrics(cmd *cobra.Command, metrics []simulation.ConditionMetrics) {
	for _, m := range metrics {
		name := m.Condition
		if c, err := condition.Lookup(m.Condition); err == nil {
			name = c.DisplayName
		}
		if !m.ReachedComparison {
			fmt.Fprintf(cmd.OutOrStdout(), "  %-22s comparison point not reached\n", name)
			continue
		}
		fmt.Fprintf(cmd.OutOrStdout(), "  %-22s %s\n", name, comparison.FormatPercent(m.ThresholdError))
	}
}
