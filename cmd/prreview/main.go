package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/mshafer/prreview/internal/adapter/actions"
	"github.com/mshafer/prreview/internal/adapter/cli"
	githubadapter "github.com/mshafer/prreview/internal/adapter/github"
	llmhttp "github.com/mshafer/prreview/internal/adapter/llm/http"
	"github.com/mshafer/prreview/internal/adapter/llm/openai"
	"github.com/mshafer/prreview/internal/adapter/repository"
	"github.com/mshafer/prreview/internal/config"
	"github.com/mshafer/prreview/internal/domain"
	"github.com/mshafer/prreview/internal/rules"
	ghpost "github.com/mshafer/prreview/internal/usecase/github"
	"github.com/mshafer/prreview/internal/usecase/review"
	"github.com/mshafer/prreview/internal/version"
)

func main() {
	if err := run(); err != nil {
		message := llmhttp.RedactURLSecrets(err.Error())
		log.Println(message)
		if actions.Detect() {
			actions.Errorf("%s", message)
		}
		os.Exit(1)
	}
}

func run() error {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	cfg, err := config.Load(config.LoaderOptions{
		ConfigPaths: []string{"."},
		FileName:    "prreview",
		EnvPrefix:   "PRREVIEW",
	})
	if err != nil {
		return fmt.Errorf("config load failed: %w", err)
	}

	root := cli.NewRootCommand(cli.Dependencies{
		RunReview: func(ctx context.Context, opts cli.ReviewOptions) (*domain.RunSummary, error) {
			return executeReview(ctx, cfg, opts)
		},
		DefaultRulesFile: cfg.Review.RulesFile,
		Version:          version.Value(),
	})

	if err := root.ExecuteContext(ctx); err != nil {
		if errors.Is(err, cli.ErrVersionRequested) {
			return nil
		}
		return err
	}
	return nil
}

func executeReview(ctx context.Context, cfg config.Config, opts cli.ReviewOptions) (*domain.RunSummary, error) {
	logger := buildLogger(cfg.Logging, opts.Debug)

	// A dry run against the local repository needs no GitHub credentials,
	// so full validation only applies when something will be posted.
	if opts.DryRun && opts.Local {
		if cfg.OpenAI.APIKey == "" {
			return nil, errors.New("invalid configuration: openai api key is required (set OPENAI_API_KEY)")
		}
	} else if err := cfg.Validate(); err != nil {
		return nil, err
	}

	rulesResult, err := rules.Load(opts.RulesFile)
	if err != nil {
		return nil, err
	}
	if rulesResult.Path != "" && !rulesResult.Found {
		logger.LogInfo(ctx, "rules file not found, continuing without project rules",
			map[string]interface{}{"path": rulesResult.Path})
	}

	openaiClient := openai.NewHTTPClient(cfg.OpenAI.APIKey, cfg.OpenAI.Model, logger)
	if timeout, err := time.ParseDuration(cfg.HTTP.Timeout); err == nil {
		openaiClient.SetTimeout(timeout)
	}
	provider := openai.NewProvider(openaiClient, cfg.OpenAI.Temperature, cfg.OpenAI.MaxTokens)

	target, source, poster, err := buildTransport(cfg, opts, logger)
	if err != nil {
		return nil, err
	}

	orchestrator := review.NewOrchestrator(review.Deps{
		Source:   source,
		Provider: provider,
		Poster:   poster,
		Logger:   logger,
	})

	instructions := opts.Instructions
	if instructions == "" {
		instructions = cfg.Review.Instructions
	}

	summary, err := orchestrator.Run(ctx, review.Request{
		Target:            target,
		Rules:             rulesResult.Content,
		Instructions:      instructions,
		ExcludePatterns:   cfg.Review.ExcludePatterns,
		Concurrency:       cfg.Review.Concurrency,
		MaxDiffTokens:     cfg.Review.MaxDiffTokens,
		AllowContextLines: cfg.Review.AllowContextLines,
		PostStartNotice:   opts.PostStartNotice || cfg.Review.PostStartNotice,
	})

	if summary != nil && actions.Detect() {
		actions.Notice("review finished: %d submitted, %d failed, %d rejected",
			summary.CommentsSubmitted, summary.CommentsFailed, len(summary.Rejections))
		for _, r := range summary.Rejections {
			actions.Warning("suggestion rejected: %s", r.String())
		}
	}

	return summary, err
}

// buildTransport resolves where the diff comes from and where comments go.
func buildTransport(cfg config.Config, opts cli.ReviewOptions, logger llmhttp.Logger) (ghpost.Target, review.DiffSource, review.Poster, error) {
	var target ghpost.Target
	var source review.DiffSource
	var poster review.Poster

	if opts.Local {
		local := repository.NewLocalSource(".")
		source = repository.NewDiffSource(local, opts.BaseRef, opts.TargetRef)
		if !opts.DryRun {
			return target, nil, nil, errors.New("--local reviews must use --dry-run; there is no pull request to post to")
		}
		poster = cli.NewStdoutPoster(os.Stdout)
		return target, source, poster, nil
	}

	owner, repo, pullNumber := opts.Owner, opts.Repo, opts.PullNumber
	headSHA := opts.CommitSHA
	if owner == "" || repo == "" || pullNumber == 0 {
		if !actions.Detect() {
			return target, nil, nil, errors.New("--owner, --repo, and --pr are required outside GitHub Actions")
		}
		eventCtx, err := actions.FromEnv()
		if err != nil {
			return target, nil, nil, fmt.Errorf("resolving pull request from event payload: %w", err)
		}
		owner, repo, pullNumber = eventCtx.Owner, eventCtx.Repo, eventCtx.PullNumber
		if headSHA == "" {
			headSHA = eventCtx.HeadSHA
		}
	}

	target = ghpost.Target{
		Owner:      owner,
		Repo:       repo,
		PullNumber: pullNumber,
		CommitSHA:  headSHA,
	}

	ghClient := githubadapter.NewClient(cfg.GitHub.Token)
	if cfg.GitHub.BaseURL != "" {
		ghClient.SetBaseURL(cfg.GitHub.BaseURL)
	}
	if cfg.HTTP.MaxRetries > 0 {
		ghClient.SetMaxRetries(cfg.HTTP.MaxRetries)
	}
	if backoff, err := time.ParseDuration(cfg.HTTP.InitialBackoff); err == nil {
		ghClient.SetInitialBackoff(backoff)
	}

	source = githubadapter.NewDiffSource(ghClient, owner, repo, pullNumber)

	if opts.DryRun {
		poster = cli.NewStdoutPoster(os.Stdout)
	} else {
		poster = ghpost.NewCoordinator(githubadapter.NewPoster(ghClient), githubadapter.Summaries{}, logger)
	}

	return target, source, poster, nil
}

func buildLogger(cfg config.LoggingConfig, debug bool) llmhttp.Logger {
	level := llmhttp.LogLevelInfo
	switch cfg.Level {
	case "debug":
		level = llmhttp.LogLevelDebug
	case "error":
		level = llmhttp.LogLevelError
	}
	if debug {
		level = llmhttp.LogLevelDebug
	}

	format := llmhttp.AutoFormat()
	switch cfg.Format {
	case "json":
		format = llmhttp.LogFormatJSON
	case "human":
		format = llmhttp.LogFormatHuman
	}

	return llmhttp.NewDefaultLogger(level, format)
}

// Compile-time interface compliance checks
var _ review.DiffSource = (*githubadapter.DiffSource)(nil)
var _ review.DiffSource = (*repository.DiffSource)(nil)
var _ review.SuggestionProvider = (*openai.Provider)(nil)
var _ review.Poster = (*ghpost.Coordinator)(nil)
var _ review.Poster = (*cli.StdoutPoster)(nil)
var _ ghpost.Client = (*githubadapter.Poster)(nil)
var _ ghpost.SummaryBuilder = githubadapter.Summaries{}
