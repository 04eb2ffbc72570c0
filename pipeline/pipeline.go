package pipeline

import (
	"context"
	"runtime"
	"strconv"
	"time"

	"github.com/fatih/color"
	"github.com/google/uuid"

	tagtrain "github.com/kawanami/tagtrain"
)

// Option set values for the --use flag
const (
	UseCLI    = "cli"
	UseConfig = "config"
)

// Step names reported in results and summaries
const (
	StepDataset = "dataset-build"
	StepVocab   = "vocab-build"
	StepTrain   = "train"
)

// Options is the resolved option set driving a single pipeline run.
// Every field holds a value at dispatch time, either user-supplied or
// its default.
type Options struct {
	Train  string
	Dev    string
	Config string
	Fields string
	Write  string
	Use    string
	Build  string
}

// Step describes one external invocation
type Step struct {
	Name    string
	Command string
	Args    []string

	// Env is the full child environment. nil inherits the parent's.
	Env []string
}

// Result represents the outcome of a single step
type Result struct {
	Step     string
	Command  string
	Args     []string
	ExitCode int
	Duration time.Duration
	Err      error
}

// Success reports whether the step exited cleanly
func (r Result) Success() bool {
	return r.Err == nil && r.ExitCode == 0
}

// Runner executes one external step and reports its outcome. The
// production implementation shells out; tests substitute a fake.
type Runner interface {
	Run(ctx context.Context, step Step) Result
}

// Summary represents the overall pipeline outcome
type Summary struct {
	RunID           string
	Results         []Result
	ExitCode        int
	TrainingSkipped bool
	TotalDuration   time.Duration
}

// Pipeline sequences the dataset-build, vocab-build, and training steps.
// Execution is strictly sequential; the first failing step terminates
// the run and its exit code becomes the pipeline's.
type Pipeline struct {
	config  *tagtrain.Config
	runner  Runner
	verbose bool
	quiet   bool
}

// New creates a pipeline over the given configuration and runner
func New(config *tagtrain.Config, runner Runner) *Pipeline {
	return &Pipeline{
		config: config,
		runner: runner,
	}
}

// SetVerbose enables or disables verbose output
func (p *Pipeline) SetVerbose(verbose bool) {
	p.verbose = verbose
}

// SetQuiet suppresses all non-error output
func (p *Pipeline) SetQuiet(quiet bool) {
	p.quiet = quiet
}

// ResolveOptions fills dataset-build parameters from the config file when
// the use mode requests it. Under "cli" the options pass through unchanged.
func ResolveOptions(config *tagtrain.Config, opts Options) (Options, error) {
	if opts.Use != UseConfig {
		return opts, nil
	}

	if config.Data.Train == "" || config.Data.Dev == "" {
		return opts, tagtrain.ErrDataPathsRequired
	}

	opts.Train = config.Data.Train
	opts.Dev = config.Data.Dev

	if len(config.Fields) > 0 {
		opts.Fields = tagtrain.JoinFields(config.Fields)
	}

	return opts, nil
}

// Run executes the pipeline steps in order
func (p *Pipeline) Run(ctx context.Context, opts Options) *Summary {
	summary := &Summary{
		RunID:   uuid.New().String(),
		Results: make([]Result, 0, 3),
	}

	startTime := time.Now()
	defer func() {
		summary.TotalDuration = time.Since(startTime)
	}()

	if p.verbose {
		color.Cyan("Pipeline run %s", summary.RunID)
	}

	// The scorer must be resolvable before the trainer runs, since the
	// trainer calls it during validation.
	env, err := prepareScorer(p.config.Tools.Scorer)
	if err != nil {
		// A missing explicitly-configured scorer deserves a warning; the
		// built-in default being absent only matters under verbose.
		explicit := p.config.Tools.Scorer != tagtrain.DefaultScorer
		if (explicit && !p.quiet) || (!explicit && p.verbose) {
			color.Yellow("scorer script unavailable: %v", err)
		}

		env = nil
	}

	datasetStep := Step{
		Name:    StepDataset,
		Command: p.config.Tools.DatasetBuilder,
		Args: []string{
			"--train", opts.Train,
			"--dev", opts.Dev,
			"--config", opts.Config,
			"--fields", opts.Fields,
			"--write", opts.Write,
			"--use", opts.Use,
		},
		Env: env,
	}
	if !p.runStep(ctx, summary, datasetStep) {
		return summary
	}

	threads := threadHint()
	if p.verbose {
		color.Cyan("vocab build will use %d thread(s)", threads)
	}

	vocabStep := Step{
		Name:    StepVocab,
		Command: p.config.Tools.VocabBuilder,
		Args: []string{
			"-config", opts.Config,
			"-n_sample", strconv.Itoa(p.config.Vocab.NSample),
			"-num_threads", strconv.Itoa(threads),
		},
		Env: env,
	}
	if !p.runStep(ctx, summary, vocabStep) {
		return summary
	}

	// Training runs only when build is exactly "false". The inverted
	// reading of the flag is deliberate: --build true means "build the
	// dataset and vocabulary only".
	if opts.Build != "false" {
		summary.TrainingSkipped = true

		if opts.Build != "true" && !p.quiet {
			color.Yellow("--build value '%s' is neither true nor false; training skipped", opts.Build)
		} else if p.verbose {
			color.Cyan("--build %s: training skipped", opts.Build)
		}

		if !p.quiet {
			color.Green("Dataset and vocabulary built")
		}

		return summary
	}

	trainStep := Step{
		Name:    StepTrain,
		Command: p.config.Tools.Trainer,
		Args:    []string{"-config", opts.Config},
		Env:     env,
	}
	if !p.runStep(ctx, summary, trainStep) {
		return summary
	}

	if !p.quiet {
		color.Green("Training completed")
	}

	return summary
}

// runStep executes one step and records its result. It reports whether
// the pipeline may continue.
func (p *Pipeline) runStep(ctx context.Context, summary *Summary, step Step) bool {
	if !p.quiet {
		color.Blue("==> %s", step.Name)
	}

	if p.verbose {
		color.Cyan("    %s %v", step.Command, step.Args)
	}

	result := p.runner.Run(ctx, step)
	summary.Results = append(summary.Results, result)

	if !result.Success() {
		summary.ExitCode = result.ExitCode
		if summary.ExitCode == 0 {
			summary.ExitCode = 1
		}

		if !p.quiet {
			color.Red("%s failed (exit %d)", step.Name, summary.ExitCode)
			if result.Err != nil {
				color.Red("    %v", result.Err)
			}
		}

		return false
	}

	if p.verbose {
		color.Cyan("    %s finished in %.3fs", step.Name, result.Duration.Seconds())
	}

	return true
}

// threadHint reports the host's processing unit count for the vocabulary
// build. Detection cannot fail on supported platforms, but anything below
// one falls back to a single thread.
func threadHint() int {
	n := runtime.NumCPU()
	if n < 1 {
		return 1
	}

	return n
}
