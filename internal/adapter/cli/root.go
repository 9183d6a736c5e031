// Package cli wires the cobra command surface.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/mdekker/sonarlens/internal/usecase/run"
)

// ErrVersionRequested indicates the user requested the CLI version and no
// further work should be done.
var ErrVersionRequested = errors.New("version requested")

// RunOptions carries flag overrides into the pipeline wiring.
type RunOptions struct {
	Publisher   string
	Repository  string
	PullNumber  int
	CommitSHA   string
	MinSeverity string
	DryRun      bool
}

// PipelineRunner defines the dependency required to run the pipeline.
type PipelineRunner func(ctx context.Context, opts RunOptions) (run.Summary, error)

// Arguments encapsulates IO writers injected from the host process.
type Arguments struct {
	OutWriter io.Writer
	ErrWriter io.Writer
}

// Dependencies captures the collaborators for the CLI.
type Dependencies struct {
	Runner  PipelineRunner
	Args    Arguments
	Version string
}

// NewRootCommand constructs the root Cobra command.
func NewRootCommand(deps Dependencies) *cobra.Command {
	versionString := deps.Version
	if versionString == "" {
		versionString = "v0.0.0"
	}

	root := &cobra.Command{
		Use:   "sonarlens",
		Short: "Enrich SonarQube findings with LLM explanations and publish them",
	}
	root.SilenceUsage = true
	root.SilenceErrors = true

	outWriter := deps.Args.OutWriter
	if outWriter == nil {
		outWriter = os.Stdout
	}
	errWriter := deps.Args.ErrWriter
	if errWriter == nil {
		errWriter = os.Stderr
	}
	root.SetOut(outWriter)
	root.SetErr(errWriter)

	root.AddCommand(runCommand(deps.Runner))

	var showVersion bool
	root.PersistentFlags().BoolVarP(&showVersion, "version", "v", false, "Show version and exit")
	versionHandler := func(cmd *cobra.Command, args []string) error {
		if showVersion {
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), versionString)
			return ErrVersionRequested
		}
		return nil
	}
	root.PersistentPreRunE = versionHandler
	root.RunE = func(cmd *cobra.Command, args []string) error {
		if err := versionHandler(cmd, args); err != nil {
			return err
		}
		return cmd.Help()
	}

	return root
}

func runCommand(runner PipelineRunner) *cobra.Command {
	var opts RunOptions

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Fetch, enrich, and publish unresolved findings",
		RunE: func(cmd *cobra.Command, args []string) error {
			summary, err := runner(cmd.Context(), opts)
			if err != nil {
				return err
			}
			if summary.PublishFailures > 0 {
				_, _ = fmt.Fprintf(cmd.ErrOrStderr(), "warning: %d comments failed to publish\n", summary.PublishFailures)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&opts.Publisher, "publisher", "", "Publisher strategy: console or github (default from config)")
	cmd.Flags().StringVar(&opts.Repository, "repository", "", "GitHub repository as owner/repo (default from config or the local checkout)")
	cmd.Flags().IntVar(&opts.PullNumber, "pr", 0, "Pull request number (default from config)")
	cmd.Flags().StringVar(&opts.CommitSHA, "commit", "", "Head commit SHA for review comments (default from config or the local checkout)")
	cmd.Flags().StringVar(&opts.MinSeverity, "min-severity", "", "Skip findings below this severity (INFO, MINOR, MAJOR, CRITICAL, BLOCKER)")
	cmd.Flags().BoolVar(&opts.DryRun, "dry-run", false, "Print to the console instead of posting review comments")

	return cmd
}
