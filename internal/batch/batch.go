// Package batch lays out parameter sweeps as directory trees for cluster
// execution. Each sample becomes a simulation directory holding a config
// file; a generated submission script dispatches batches of simulations to
// the scheduler.
package batch

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/gramlab/gram/internal/config"
	"github.com/gramlab/gram/internal/models"
	"github.com/gramlab/gram/internal/simulation"
	"github.com/gramlab/gram/internal/sweep"
)

// DefaultBatchSize is the number of simulations grouped into one scheduler
// job.
const DefaultBatchSize = 25

// Manifest files within a batch directory.
const (
	manifestFile = "batch.yaml"
	indexFile    = "index.txt"
	submitFile   = "submit.sh"
	configFile   = "config.yaml"
)

// Manifest describes a built batch.
type Manifest struct {
	Family    string    `yaml:"family"`
	Samples   int       `yaml:"samples"`
	BatchSize int       `yaml:"batch_size"`
	Labels    []string  `yaml:"labels,omitempty"`
	CreatedAt time.Time `yaml:"created_at"`
}

// Batch is a directory tree of simulation jobs.
type Batch struct {
	Path     string
	Manifest Manifest
}

// Options configure batch construction.
type Options struct {
	// BatchSize is the number of simulations per scheduler job. Zero
	// means DefaultBatchSize.
	BatchSize int

	// Template supplies pulse, engine, comparison, and logging settings
	// shared by every simulation. Nil means config.Default().
	Template *config.Config

	// Account is the scheduler account the submission script charges
	// jobs to.
	Account string

	// Walltime is the per-job time limit written into the submission
	// script. Empty means "04:00:00".
	Walltime string
}

// Build creates the batch directory tree under dir for every sample of s.
// The tree contains one simulation directory per sample, path files that
// group simulations into scheduler jobs, and a submission script.
func Build(dir string, s *sweep.Sweep, opts Options) (*Batch, error) {
	if s == nil || s.N() == 0 {
		return nil, fmt.Errorf("building batch: sweep has no samples")
	}

	batchSize := opts.BatchSize
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}
	template := opts.Template
	if template == nil {
		template = config.Default()
	}

	name := fmt.Sprintf("%s_%s", s.Name, time.Now().Format("060102_150405"))
	path := filepath.Join(dir, name)
	for _, sub := range []string{"scripts", "simulations", "batches"} {
		if err := os.MkdirAll(filepath.Join(path, sub), 0755); err != nil {
			return nil, fmt.Errorf("building batch: %w", err)
		}
	}

	// One config per sample, under simulations/<i>/.
	for i, params := range s.Samples {
		simDir := filepath.Join(path, "simulations", strconv.Itoa(i))
		if err := os.MkdirAll(simDir, 0755); err != nil {
			return nil, fmt.Errorf("building batch: sample %d: %w", i, err)
		}
		cfg, err := sampleConfig(s.Name, params, template)
		if err != nil {
			return nil, fmt.Errorf("building batch: sample %d: %w", i, err)
		}
		if err := cfg.Save(filepath.Join(simDir, configFile)); err != nil {
			return nil, fmt.Errorf("building batch: sample %d: %w", i, err)
		}
	}

	if err := writePathFiles(path, s.N(), batchSize); err != nil {
		return nil, err
	}
	if err := writeSubmitScript(path, opts); err != nil {
		return nil, err
	}

	b := &Batch{
		Path: path,
		Manifest: Manifest{
			Family:    s.Name,
			Samples:   s.N(),
			BatchSize: batchSize,
			Labels:    s.Labels,
			CreatedAt: time.Now().UTC(),
		},
	}
	if err := b.saveManifest(); err != nil {
		return nil, err
	}
	return b, nil
}

// sampleConfig binds one parameter vector into a model config of the given
// family, keeping the template's non-model settings.
func sampleConfig(family string, params []float64, template *config.Config) (*config.Config, error) {
	cfg := *template
	cfg.Model = config.ModelConfig{Type: family}

	f := func(v float64) *float64 { return &v }

	switch family {
	case "simple":
		if len(params) != 3 {
			return nil, fmt.Errorf("expected 3 parameters, got %d", len(params))
		}
		cfg.Model.K1 = f(params[0])
		cfg.Model.G1 = params[1]
		cfg.Model.Feedback = []models.FeedbackPathway{
			{EtaProtein: params[2], Perturbed: true},
		}

	case "linear", "twostate":
		if len(params) != 9 {
			return nil, fmt.Errorf("expected 9 parameters, got %d", len(params))
		}
		cfg.Model.K0 = f(params[0])
		cfg.Model.K1 = f(params[1])
		cfg.Model.K2 = f(params[2])
		cfg.Model.G0 = f(params[3])
		cfg.Model.G1 = params[4]
		cfg.Model.G2 = params[5]
		cfg.Model.Feedback = []models.FeedbackPathway{
			{EtaGene: params[6], EtaRNA: params[7], EtaProtein: params[8], Perturbed: false},
			{EtaGene: params[6], EtaRNA: params[7], EtaProtein: params[8], Perturbed: true},
		}

	case "hill":
		if len(params) != 8 {
			return nil, fmt.Errorf("expected 8 parameters, got %d", len(params))
		}
		cfg.Model.K1 = f(params[0])
		cfg.Model.K2 = f(params[1])
		cfg.Model.G1 = params[2]
		cfg.Model.G2 = params[3]
		cfg.Model.KM = params[4]
		cfg.Model.N = params[5]
		cfg.Model.Feedback = []models.FeedbackPathway{
			{EtaRNA: params[6], EtaProtein: params[7], Perturbed: false},
			{EtaRNA: params[6], EtaProtein: params[7], Perturbed: true},
		}

	default:
		return nil, fmt.Errorf("unknown model family %q", family)
	}

	return &cfg, nil
}

// writePathFiles groups simulation directories into batch files and writes
// the batch index.
func writePathFiles(path string, n, batchSize int) error {
	batchesDir := filepath.Join(path, "batches")

	var index strings.Builder
	var current strings.Builder
	batchID := 0

	flush := func() error {
		if current.Len() == 0 {
			return nil
		}
		name := fmt.Sprintf("%d.txt", batchID)
		if err := os.WriteFile(filepath.Join(batchesDir, name), []byte(current.String()), 0644); err != nil {
			return fmt.Errorf("building batch: writing path file: %w", err)
		}
		fmt.Fprintf(&index, "./batches/%s\n", name)
		current.Reset()
		batchID++
		return nil
	}

	for i := 0; i < n; i++ {
		fmt.Fprintf(&current, "simulations/%d\n", i)
		if (i+1)%batchSize == 0 {
			if err := flush(); err != nil {
				return err
			}
		}
	}
	if err := flush(); err != nil {
		return err
	}

	if err := os.WriteFile(filepath.Join(batchesDir, indexFile), []byte(index.String()), 0644); err != nil {
		return fmt.Errorf("building batch: writing index: %w", err)
	}
	return nil
}

// writeSubmitScript writes a SLURM submission script that dispatches one
// job per batch file. Each job runs every simulation listed in its file.
func writeSubmitScript(path string, opts Options) error {
	walltime := opts.Walltime
	if walltime == "" {
		walltime = "04:00:00"
	}

	var b strings.Builder
	b.WriteString("#!/bin/bash\n")
	b.WriteString("# Submit one scheduler job per batch file.\n")
	fmt.Fprintf(&b, "cd %q\n\n", mustAbs(path))
	b.WriteString("while IFS= read -r BATCH\n")
	b.WriteString("do\n")
	b.WriteString("  sbatch <<EOJ\n")
	b.WriteString("#!/bin/bash\n")
	if opts.Account != "" {
		fmt.Fprintf(&b, "#SBATCH --account=%s\n", opts.Account)
	}
	fmt.Fprintf(&b, "#SBATCH --time=%s\n", walltime)
	b.WriteString("#SBATCH --nodes=1 --ntasks=1\n")
	b.WriteString("#SBATCH --mem=1G\n")
	// The submitting shell substitutes the batch path into the log
	// directives; sbatch itself does not expand variables there.
	b.WriteString("#SBATCH --output=${BATCH}.outlog\n")
	b.WriteString("#SBATCH --error=${BATCH}.errlog\n\n")
	b.WriteString("while IFS= read -r SIM\n")
	b.WriteString("do\n")
	b.WriteString("  gram run --config \"\\${SIM}/config.yaml\" --output \"\\${SIM}\"\n")
	b.WriteString("done < \"${BATCH}\"\n")
	b.WriteString("EOJ\n")
	b.WriteString("done < ./batches/index.txt\n")
	b.WriteString("echo \"All batches submitted as of $(date)\"\n")

	scriptPath := filepath.Join(path, "scripts", submitFile)
	if err := os.WriteFile(scriptPath, []byte(b.String()), 0755); err != nil {
		return fmt.Errorf("building batch: writing submission script: %w", err)
	}
	return nil
}

func mustAbs(path string) string {
	abs, err := filepath.Abs(path)
	if err != nil {
		return path
	}
	return abs
}

func (b *Batch) saveManifest() error {
	data, err := yaml.Marshal(b.Manifest)
	if err != nil {
		return fmt.Errorf("saving batch manifest: %w", err)
	}
	if err := os.WriteFile(filepath.Join(b.Path, manifestFile), data, 0644); err != nil {
		return fmt.Errorf("saving batch manifest: %w", err)
	}
	return nil
}

// Load opens a built batch directory.
func Load(path string) (*Batch, error) {
	data, err := os.ReadFile(filepath.Join(path, manifestFile))
	if err != nil {
		return nil, fmt.Errorf("loading batch: %w", err)
	}
	var m Manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("loading batch: %w", err)
	}
	return &Batch{Path: path, Manifest: m}, nil
}

// SimulationDir returns the directory of the i-th simulation.
func (b *Batch) SimulationDir(i int) string {
	return filepath.Join(b.Path, "simulations", strconv.Itoa(i))
}

// LoadConfig loads the i-th simulation's configuration.
func (b *Batch) LoadConfig(i int) (*config.Config, error) {
	return config.LoadFromFile(filepath.Join(b.SimulationDir(i), configFile))
}

// Completed returns the indices of simulations whose results have been
// written.
func (b *Batch) Completed() []int {
	var done []int
	for i := 0; i < b.Manifest.Samples; i++ {
		if _, err := simulation.LoadMetrics(b.SimulationDir(i)); err == nil {
			done = append(done, i)
		}
	}
	return done
}

// PercentComplete returns the fraction of simulations that have results.
func (b *Batch) PercentComplete() float64 {
	if b.Manifest.Samples == 0 {
		return 0
	}
	return float64(len(b.Completed())) / float64(b.Manifest.Samples)
}

// Apply calls fn with each completed simulation's metrics, keyed by sample
// index.
func (b *Batch) Apply(fn func(index int, metrics []simulation.ConditionMetrics) error) error {
	for _, i := range b.Completed() {
		metrics, err := simulation.LoadMetrics(b.SimulationDir(i))
		if err != nil {
			return fmt.Errorf("applying to batch: sample %d: %w", i, err)
		}
		if err := fn(i, metrics); err != nil {
			return err
		}
	}
	return nil
}
