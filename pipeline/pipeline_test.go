package pipeline

import (
	"bytes"
	"context"
	"path/filepath"
	"strings"
	"testing"

	"github.com/alecthomas/assert/v2"
	"github.com/fatih/color"

	tagtrain "github.com/kawanami/tagtrain"
)

// fakeRunner records dispatched steps and fails the ones it is told to
type fakeRunner struct {
	calls []Step
	fail  map[string]int // step name -> exit code
}

func (f *fakeRunner) Run(_ context.Context, step Step) Result {
	f.calls = append(f.calls, step)

	result := Result{
		Step:    step.Name,
		Command: step.Command,
		Args:    step.Args,
	}

	if code, ok := f.fail[step.Name]; ok {
		result.ExitCode = code
	}

	return result
}

func testConfig() *tagtrain.Config {
	config, err := tagtrain.LoadConfig("nonexistent.yaml")
	if err != nil {
		panic(err)
	}

	return config
}

func defaultOptions() Options {
	return Options{
		Train:  ".",
		Dev:    ".",
		Config: ".",
		Fields: "deprel",
		Write:  "false",
		Use:    "cli",
		Build:  "false",
	}
}

func newQuietPipeline(runner Runner) *Pipeline {
	p := New(testConfig(), runner)
	p.SetQuiet(true)

	return p
}

func TestPipelineRun(t *testing.T) {
	t.Run("AllStepsInOrder", func(t *testing.T) {
		runner := &fakeRunner{}
		p := newQuietPipeline(runner)

		summary := p.Run(context.Background(), defaultOptions())

		assert.Equal(t, 0, summary.ExitCode)
		assert.False(t, summary.TrainingSkipped)
		assert.Equal(t, 3, len(runner.calls))
		assert.Equal(t, StepDataset, runner.calls[0].Name)
		assert.Equal(t, StepVocab, runner.calls[1].Name)
		assert.Equal(t, StepTrain, runner.calls[2].Name)
		assert.NotZero(t, summary.RunID)
	})

	t.Run("DatasetArguments", func(t *testing.T) {
		runner := &fakeRunner{}
		p := newQuietPipeline(runner)

		opts := Options{
			Train:  "train.conllu",
			Dev:    "dev.conllu",
			Config: "cfg.yaml",
			Fields: "upos-deprel",
			Write:  "true",
			Use:    "cli",
			Build:  "true",
		}
		summary := p.Run(context.Background(), opts)

		assert.Equal(t, 0, summary.ExitCode)
		assert.Equal(t, []string{
			"--train", "train.conllu",
			"--dev", "dev.conllu",
			"--config", "cfg.yaml",
			"--fields", "upos-deprel",
			"--write", "true",
			"--use", "cli",
		}, runner.calls[0].Args)
	})

	t.Run("VocabArguments", func(t *testing.T) {
		runner := &fakeRunner{}
		p := newQuietPipeline(runner)

		p.Run(context.Background(), defaultOptions())

		vocab := runner.calls[1]
		assert.Equal(t, "onmt-build-vocab", vocab.Command)
		assert.Equal(t, "-config", vocab.Args[0])
		assert.Equal(t, ".", vocab.Args[1])
		assert.Equal(t, "-n_sample", vocab.Args[2])
		assert.Equal(t, "-1", vocab.Args[3])
		assert.Equal(t, "-num_threads", vocab.Args[4])
		assert.NotEqual(t, "0", vocab.Args[5])
	})

	t.Run("BuildTrueSkipsTraining", func(t *testing.T) {
		runner := &fakeRunner{}
		p := newQuietPipeline(runner)

		opts := defaultOptions()
		opts.Build = "true"
		summary := p.Run(context.Background(), opts)

		assert.Equal(t, 0, summary.ExitCode)
		assert.True(t, summary.TrainingSkipped)
		assert.Equal(t, 2, len(runner.calls))
	})

	t.Run("AnyNonFalseBuildSkipsTraining", func(t *testing.T) {
		// Only the literal "false" triggers training; this mirrors the
		// documented launcher behavior, surprising as it is.
		runner := &fakeRunner{}
		p := newQuietPipeline(runner)

		opts := defaultOptions()
		opts.Build = "yes"
		summary := p.Run(context.Background(), opts)

		assert.True(t, summary.TrainingSkipped)
		assert.Equal(t, 2, len(runner.calls))
	})

	t.Run("DatasetFailureAbortsImmediately", func(t *testing.T) {
		runner := &fakeRunner{fail: map[string]int{StepDataset: 3}}
		p := newQuietPipeline(runner)

		summary := p.Run(context.Background(), defaultOptions())

		assert.Equal(t, 3, summary.ExitCode)
		assert.Equal(t, 1, len(runner.calls))
	})

	t.Run("VocabFailureSkipsTraining", func(t *testing.T) {
		runner := &fakeRunner{fail: map[string]int{StepVocab: 5}}
		p := newQuietPipeline(runner)

		summary := p.Run(context.Background(), defaultOptions())

		assert.Equal(t, 5, summary.ExitCode)
		assert.Equal(t, 2, len(runner.calls))
	})

	t.Run("TrainerFailurePropagates", func(t *testing.T) {
		runner := &fakeRunner{fail: map[string]int{StepTrain: 9}}
		p := newQuietPipeline(runner)

		summary := p.Run(context.Background(), defaultOptions())

		assert.Equal(t, 9, summary.ExitCode)
		assert.Equal(t, 3, len(runner.calls))
	})
}

func TestResolveOptions(t *testing.T) {
	t.Run("CLIModePassesThrough", func(t *testing.T) {
		opts := defaultOptions()
		resolved, err := ResolveOptions(testConfig(), opts)
		assert.NoError(t, err)
		assert.Equal(t, opts, resolved)
	})

	t.Run("ConfigModeTakesConfigPaths", func(t *testing.T) {
		config := testConfig()
		config.Data.Train = "corpora/train.conllu"
		config.Data.Dev = "corpora/dev.conllu"
		config.Fields = []string{"upos", "deprel"}

		opts := defaultOptions()
		opts.Use = UseConfig

		resolved, err := ResolveOptions(config, opts)
		assert.NoError(t, err)
		assert.Equal(t, "corpora/train.conllu", resolved.Train)
		assert.Equal(t, "corpora/dev.conllu", resolved.Dev)
		assert.Equal(t, "upos-deprel", resolved.Fields)
	})

	t.Run("ConfigModeRequiresDataPaths", func(t *testing.T) {
		opts := defaultOptions()
		opts.Use = UseConfig

		_, err := ResolveOptions(testConfig(), opts)
		assert.IsError(t, err, tagtrain.ErrDataPathsRequired)
	})

	t.Run("ConfigModeKeepsCLIFieldsWhenConfigHasNone", func(t *testing.T) {
		config := testConfig()
		config.Data.Train = "a.conllu"
		config.Data.Dev = "b.conllu"

		opts := defaultOptions()
		opts.Use = UseConfig
		opts.Fields = "deprel"

		resolved, err := ResolveOptions(config, opts)
		assert.NoError(t, err)
		assert.Equal(t, "deprel", resolved.Fields)
	})
}

// captureColorOutput redirects the color package's writer for one test
func captureColorOutput(t *testing.T) *bytes.Buffer {
	t.Helper()

	var buf bytes.Buffer

	prevOutput := color.Output
	prevNoColor := color.NoColor
	color.Output = &buf
	color.NoColor = true
	t.Cleanup(func() {
		color.Output = prevOutput
		color.NoColor = prevNoColor
	})

	return &buf
}

func TestScorerWarning(t *testing.T) {
	t.Run("MissingDefaultScorerStaysSilent", func(t *testing.T) {
		buf := captureColorOutput(t)

		p := New(testConfig(), &fakeRunner{})
		p.Run(context.Background(), defaultOptions())

		assert.False(t, strings.Contains(buf.String(), "scorer script unavailable"))
	})

	t.Run("MissingDefaultScorerShowsUnderVerbose", func(t *testing.T) {
		buf := captureColorOutput(t)

		p := New(testConfig(), &fakeRunner{})
		p.SetVerbose(true)
		p.Run(context.Background(), defaultOptions())

		assert.Contains(t, buf.String(), "scorer script unavailable")
	})

	t.Run("MissingExplicitScorerWarns", func(t *testing.T) {
		buf := captureColorOutput(t)

		config := testConfig()
		config.Tools.Scorer = filepath.Join(t.TempDir(), "absent.sh")

		p := New(config, &fakeRunner{})
		p.Run(context.Background(), defaultOptions())

		assert.Contains(t, buf.String(), "scorer script unavailable")
	})
}

func TestThreadHint(t *testing.T) {
	assert.True(t, threadHint() >= 1)
}
