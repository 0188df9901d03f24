package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/gramlab/gram/internal/batch"
	"github.com/gramlab/gram/internal/comparison"
	"github.com/gramlab/gram/internal/config"
	"github.com/gramlab/gram/internal/sweep"
)

func newBatchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "batch",
		Short: "Prepare and track cluster batch jobs",
	}
	cmd.AddCommand(
		newBatchBuildCmd(),
		newBatchStatusCmd(),
	)
	return cmd
}

func newBatchBuildCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "build",
		Short: "Build a batch directory tree for cluster execution",
		Long: `Sample the parameter space of a model family and lay the samples out
as a batch directory: one simulation directory per sample, path files
grouping samples into scheduler jobs, and a submission script.

Submit the batch with the generated script:
  bash <batch-dir>/scripts/submit.sh

Examples:
  gram batch build --family linear --samples 1000 --dir batches
  gram batch build --family hill --samples 500 --batch-size 10 --account b1022`,
		RunE: func(cmd *cobra.Command, args []string) error {
			family, _ := cmd.Flags().GetString("family")
			samples, _ := cmd.Flags().GetInt("samples")
			dir, _ := cmd.Flags().GetString("dir")
			batchSize, _ := cmd.Flags().GetInt("batch-size")
			account, _ := cmd.Flags().GetString("account")
			walltime, _ := cmd.Flags().GetString("walltime")
			configPath, _ := cmd.Flags().GetString("config")
			jsonOut, _ := cmd.Flags().GetBool("json")

			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}
			if err := cfg.Validate(); err != nil {
				return err
			}

			s, err := sweep.ByName(family, samples)
			if err != nil {
				return err
			}
			b, err := batch.Build(dir, s, batch.Options{
				BatchSize: batchSize,
				Template:  cfg,
				Account:   account,
				Walltime:  walltime,
			})
			if err != nil {
				return err
			}

			if jsonOut {
				return json.NewEncoder(cmd.OutOrStdout()).Encode(map[string]any{
					"path":    b.Path,
					"samples": b.Manifest.Samples,
				})
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Built %s (%d simulations, %d per job)\n",
				b.Path, b.Manifest.Samples, b.Manifest.BatchSize)
			fmt.Fprintf(cmd.OutOrStdout(), "Submit with: bash %s/scripts/submit.sh\n", b.Path)
			return nil
		},
	}
	cmd.Flags().String("family", "linear", "Model family: simple, linear, hill, twostate")
	cmd.Flags().Int("samples", 1000, "Number of parameter samples")
	cmd.Flags().String("dir", ".", "Destination directory")
	cmd.Flags().Int("batch-size", batch.DefaultBatchSize, "Simulations per scheduler job")
	cmd.Flags().String("account", "", "Scheduler account")
	cmd.Flags().String("walltime", "", "Per-job walltime limit")
	cmd.Flags().StringP("config", "c", "config.yaml", "Template configuration file")
	return cmd
}

func newBatchStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status <batch-dir>",
		Short: "Show batch completion",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			jsonOut, _ := cmd.Flags().GetBool("json")

			b, err := batch.Load(args[0])
			if err != nil {
				return err
			}
			done := b.Completed()
			pct := b.PercentComplete()

			if jsonOut {
				return json.NewEncoder(cmd.OutOrStdout()).Encode(map[string]any{
					"family":    b.Manifest.Family,
					"samples":   b.Manifest.Samples,
					"completed": len(done),
					"complete":  pct,
				})
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s batch: %d/%d simulations done (%s)\n",
				b.Manifest.Family, len(done), b.Manifest.Samples, comparison.FormatPercent(pct))
			return nil
		},
	}
}
