// Package cli defines the command-line surface. All collaborators are
// injected from the host process; the package itself owns only flag
// parsing and dispatch.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/mshafer/prreview/internal/domain"
)

// ErrVersionRequested indicates the user requested the CLI version and no
// further work should be done.
var ErrVersionRequested = errors.New("version requested")

// ReviewOptions carries the review command's flags.
type ReviewOptions struct {
	Owner           string
	Repo            string
	PullNumber      int
	CommitSHA       string
	RulesFile       string
	Instructions    string
	PostStartNotice bool
	Debug           bool

	// Local switches to a local git diff between BaseRef and TargetRef.
	Local     bool
	BaseRef   string
	TargetRef string

	// DryRun prints comments to stdout instead of posting them.
	DryRun bool
}

// RunFunc executes a review with fully parsed options.
type RunFunc func(ctx context.Context, opts ReviewOptions) (*domain.RunSummary, error)

// Arguments encapsulates IO writers injected from the host process.
type Arguments struct {
	OutWriter io.Writer
	ErrWriter io.Writer
}

// Dependencies captures the collaborators for the CLI.
type Dependencies struct {
	RunReview        RunFunc
	Args             Arguments
	DefaultRulesFile string
	Version          string
}

// NewRootCommand constructs the root Cobra command.
func NewRootCommand(deps Dependencies) *cobra.Command {
	versionString := deps.Version
	if versionString == "" {
		versionString = "v0.0.0"
	}

	root := &cobra.Command{
		Use:   "prreview",
		Short: "Anchored AI review comments for pull requests",
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

	root.AddCommand(reviewCommand(deps.RunReview, deps.DefaultRulesFile))
	root.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print the version and exit",
		RunE: func(cmd *cobra.Command, args []string) error {
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), versionString)
			return nil
		},
	})

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

func reviewCommand(run RunFunc, defaultRulesFile string) *cobra.Command {
	var opts ReviewOptions

	cmd := &cobra.Command{
		Use:   "review",
		Short: "Review a pull request and post inline comments",
		Long: `Review fetches the pull request diff, asks the model for suggestions
per changed file, validates every suggestion against the diff, and posts
the survivors as anchored inline comments.

Without --owner/--repo/--pr the pull request is taken from the GitHub
Actions event payload. With --local the diff comes from the local
repository instead of a hosted pull request.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if run == nil {
				return errors.New("review runner is not configured")
			}
			if opts.Local && opts.BaseRef == "" {
				return errors.New("--local requires --base")
			}

			summary, err := run(cmd.Context(), opts)
			if summary != nil {
				_, _ = fmt.Fprintln(cmd.OutOrStdout(), summary.String())
			}
			return err
		},
	}

	cmd.Flags().StringVar(&opts.Owner, "owner", "", "Repository owner")
	cmd.Flags().StringVar(&opts.Repo, "repo", "", "Repository name")
	cmd.Flags().IntVar(&opts.PullNumber, "pr", 0, "Pull request number")
	cmd.Flags().StringVar(&opts.CommitSHA, "commit", "", "Head commit SHA (fetched from the PR when empty)")
	cmd.Flags().StringVar(&opts.RulesFile, "rules-file", defaultRulesFile, "Path to a project rules file")
	cmd.Flags().StringVar(&opts.Instructions, "instructions", "", "Extra instructions for the reviewer")
	cmd.Flags().BoolVar(&opts.PostStartNotice, "post-start-notice", false, "Post a comment when the review starts")
	cmd.Flags().BoolVar(&opts.Debug, "debug", false, "Enable debug logging")
	cmd.Flags().BoolVar(&opts.Local, "local", false, "Diff the local repository instead of a hosted PR")
	cmd.Flags().StringVar(&opts.BaseRef, "base", "", "Base ref for --local diffs")
	cmd.Flags().StringVar(&opts.TargetRef, "target", "HEAD", "Target ref for --local diffs")
	cmd.Flags().BoolVar(&opts.DryRun, "dry-run", false, "Print comments instead of posting them")

	return cmd
}
