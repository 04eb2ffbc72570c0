package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/alecthomas/kong"

	tagtrain "github.com/kawanami/tagtrain"
	"github.com/kawanami/tagtrain/pipeline"
)

// CLI represents the command-line interface
type CLI struct {
	Train   string `short:"t" default:"." help:"Path to the training data file (CoNLL-U)."`
	Dev     string `short:"d" default:"." help:"Path to the validation data file (CoNLL-U)."`
	Config  string `short:"c" default:"." help:"Path to the training configuration file."`
	Fields  string `short:"f" default:"deprel" help:"Dash-separated annotation fields to validate, e.g. upos-deprel."`
	Write   string `short:"w" default:"false" enum:"true,false" help:"Persist dataset settings back into the config file."`
	Use     string `short:"u" default:"cli" enum:"cli,config" help:"Source of dataset-build parameters: cli or config."`
	Build   string `short:"b" default:"false" help:"Build the dataset and vocabulary only, skipping training."`
	Verbose bool   `short:"v" help:"Enable verbose output."`
	Quiet   bool   `short:"q" help:"Suppress output."`
}

// Usage errors and help requests exit with this status; anything else
// propagates the exit code of the first failing pipeline step.
const exitUsage = 2

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr, &pipeline.ExecRunner{}))
}

// run holds the launcher logic so tests never hit os.Exit
func run(args []string, stdout, stderr io.Writer, runner pipeline.Runner) int {
	var cli CLI

	helpRequested := false

	parser, err := kong.New(&cli,
		kong.Name("tagtrain"),
		kong.Description("Sequence the dataset-build, vocabulary-build, and training steps of a treebank tagger workflow."),
		kong.Writers(stdout, stderr),
		kong.Exit(func(int) {
			helpRequested = true
		}),
	)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return exitUsage
	}

	// An empty invocation is a user error: show usage.
	if len(args) == 0 {
		_, _ = parser.Parse([]string{"--help"})
		return exitUsage
	}

	_, err = parser.Parse(args)
	if helpRequested {
		return exitUsage
	}

	if err != nil {
		fmt.Fprintf(stderr, "tagtrain: error: %v\n", err)
		_, _ = parser.Parse([]string{"--help"})

		return exitUsage
	}

	if _, err := tagtrain.ParseFields(cli.Fields); err != nil {
		fmt.Fprintf(stderr, "tagtrain: error: invalid --fields: %v\n", err)
		return exitUsage
	}

	if cli.Use == pipeline.UseConfig {
		if info, statErr := os.Stat(cli.Config); statErr != nil || info.IsDir() {
			fmt.Fprintf(stderr, "tagtrain: error: --use config: %v: %s\n", tagtrain.ErrConfigFileNotFound, cli.Config)
			return exitUsage
		}
	}

	config, err := tagtrain.LoadConfig(cli.Config)
	if err != nil {
		fmt.Fprintf(stderr, "tagtrain: error: %v\n", err)
		return 1
	}

	opts, err := pipeline.ResolveOptions(config, pipeline.Options{
		Train:  cli.Train,
		Dev:    cli.Dev,
		Config: cli.Config,
		Fields: cli.Fields,
		Write:  cli.Write,
		Use:    cli.Use,
		Build:  cli.Build,
	})
	if err != nil {
		if errors.Is(err, tagtrain.ErrDataPathsRequired) {
			fmt.Fprintf(stderr, "tagtrain: error: --use config: %v\n", err)
			return exitUsage
		}

		fmt.Fprintf(stderr, "tagtrain: error: %v\n", err)
		return 1
	}

	p := pipeline.New(config, runner)
	p.SetVerbose(cli.Verbose)
	p.SetQuiet(cli.Quiet)

	summary := p.Run(context.Background(), opts)

	return summary.ExitCode
}
