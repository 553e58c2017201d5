// Package review orchestrates a full review run: fetch the diff, parse
// it, gather model suggestions per file, validate and deduplicate them,
// and hand the survivors to the posting coordinator.
package review

import (
	"context"
	"fmt"
	"path"
	"sort"
	"sync"

	llmhttp "github.com/mshafer/prreview/internal/adapter/llm/http"
	"github.com/mshafer/prreview/internal/diff"
	"github.com/mshafer/prreview/internal/domain"
	"github.com/mshafer/prreview/internal/usecase/dedup"
	ghpost "github.com/mshafer/prreview/internal/usecase/github"
	"github.com/mshafer/prreview/internal/usecase/normalize"
)

// DiffInfo is everything a diff source knows about the change under review.
type DiffInfo struct {
	Text    string
	HeadSHA string
	Title   string
	Body    string
}

// DiffSource fetches the unified diff and its metadata.
type DiffSource interface {
	Diff(ctx context.Context) (DiffInfo, error)
}

// SuggestionProvider asks the model to review one file's diff.
type SuggestionProvider interface {
	Suggest(ctx context.Context, file, systemMsg, userMsg string) ([]domain.Suggestion, error)
}

// Poster submits the prepared comments.
type Poster interface {
	Post(ctx context.Context, req ghpost.PostRequest) (ghpost.PostResult, error)
}

// Deps captures the orchestrator's outbound ports.
type Deps struct {
	Source   DiffSource
	Provider SuggestionProvider
	Poster   Poster
	Logger   llmhttp.Logger
}

// Request configures one review run.
type Request struct {
	Target ghpost.Target

	// Rules is the project rules content, already loaded.
	Rules string

	// Instructions are extra free-form system prompt instructions.
	Instructions string

	// ExcludePatterns are glob patterns for files to skip.
	ExcludePatterns []string

	// Concurrency bounds parallel file analysis. Must be at least 1.
	Concurrency int

	// MaxDiffTokens bounds the per-file diff in a prompt.
	MaxDiffTokens int

	// AllowContextLines permits anchoring on unchanged lines.
	AllowContextLines bool

	// PostStartNotice posts a conversation comment when the run begins.
	PostStartNotice bool

	// Title and Body override the diff source's PR metadata when set.
	Title string
	Body  string
}

// Orchestrator wires the ports together for a run.
type Orchestrator struct {
	deps Deps
}

// NewOrchestrator creates an orchestrator from its dependencies.
func NewOrchestrator(deps Deps) *Orchestrator {
	return &Orchestrator{deps: deps}
}

// fileResult carries one file's analysis out of the worker pool.
type fileResult struct {
	order       int
	path        string
	suggestions []domain.Suggestion
	err         error
}

// Run executes a complete review. The returned summary is valid even when
// some files or comments failed; the error is non-nil only for failures
// that doom the run (unfetchable diff, unparseable diff, dead credentials).
func (o *Orchestrator) Run(ctx context.Context, req Request) (*domain.RunSummary, error) {
	if req.Concurrency < 1 {
		req.Concurrency = 1
	}

	info, err := o.deps.Source.Diff(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetching diff: %w", err)
	}
	if req.Title == "" {
		req.Title = info.Title
	}
	if req.Body == "" {
		req.Body = info.Body
	}
	if req.Target.CommitSHA == "" {
		req.Target.CommitSHA = info.HeadSHA
	}

	patch, err := diff.Parse(info.Text)
	if err != nil {
		return nil, fmt.Errorf("parsing diff: %w", err)
	}

	summary := &domain.RunSummary{FilesChanged: len(patch.Files)}
	for _, d := range patch.Diagnostics {
		summary.Diagnostics = append(summary.Diagnostics, d.String())
	}

	reviewable := o.selectFiles(ctx, patch, req.ExcludePatterns)
	summary.FilesReviewed = len(reviewable)

	suggestions := o.gatherSuggestions(ctx, reviewable, req, summary)
	summary.SuggestionsReceived = len(suggestions)

	normalizer := normalize.New(diff.AnchorPolicy{AllowContext: req.AllowContextLines})
	normalized := normalizer.NormalizeAll(patch, suggestions)
	summary.Rejections = normalized.Rejections

	comments := dedup.Deduplicate(normalized.Comments)
	summary.DuplicatesCollapsed = len(normalized.Comments) - len(comments)
	comments = dedup.Order(comments, patch.FileOrder())

	postResult, err := o.deps.Poster.Post(ctx, ghpost.PostRequest{
		Target:          req.Target,
		Comments:        comments,
		FilesChanged:    summary.FilesChanged,
		PostStartNotice: req.PostStartNotice,
	})
	summary.CommentsAttempted = postResult.Attempted
	summary.CommentsSubmitted = postResult.Submitted
	summary.CommentsFailed = postResult.Failed
	if err != nil {
		return summary, fmt.Errorf("posting review: %w", err)
	}

	return summary, nil
}

// selectFiles filters the patch down to files worth sending to the model.
func (o *Orchestrator) selectFiles(ctx context.Context, patch diff.Patch, excludes []string) []diff.File {
	var out []diff.File
	for _, f := range patch.Files {
		if f.Binary || f.Change == diff.ChangeDeleted || len(f.Hunks) == 0 {
			continue
		}
		if matchesAny(f.Path(), excludes) {
			o.info(ctx, "file excluded from review", map[string]interface{}{"file": f.Path()})
			continue
		}
		out = append(out, f)
	}
	return out
}

// gatherSuggestions runs per-file analysis through a bounded worker pool.
// A file whose analysis fails contributes a diagnostic, never an error.
func (o *Orchestrator) gatherSuggestions(ctx context.Context, files []diff.File, req Request, summary *domain.RunSummary) []domain.Suggestion {
	if len(files) == 0 {
		return nil
	}

	systemMsg := BuildSystemMessage(req.Rules, req.Instructions)

	results := make(chan fileResult, len(files))
	sem := make(chan struct{}, req.Concurrency)
	var wg sync.WaitGroup

	for i, f := range files {
		wg.Add(1)
		go func(order int, f diff.File) {
			defer wg.Done()

			sem <- struct{}{}
			defer func() { <-sem }()

			if err := ctx.Err(); err != nil {
				results <- fileResult{order: order, path: f.Path(), err: err}
				return
			}

			userMsg := BuildUserMessage(req.Title, req.Body, FileDiffContext(f, req.MaxDiffTokens))
			suggestions, err := o.deps.Provider.Suggest(ctx, f.Path(), systemMsg, userMsg)
			results <- fileResult{order: order, path: f.Path(), suggestions: suggestions, err: err}
		}(i, f)
	}

	wg.Wait()
	close(results)

	collected := make([]fileResult, 0, len(files))
	for r := range results {
		collected = append(collected, r)
	}
	// Restore diff order so output is deterministic regardless of which
	// worker finished first.
	sort.Slice(collected, func(i, j int) bool { return collected[i].order < collected[j].order })

	var suggestions []domain.Suggestion
	for _, r := range collected {
		if r.err != nil {
			msg := fmt.Sprintf("analysis of %s failed: %v", r.path, r.err)
			summary.Diagnostics = append(summary.Diagnostics, msg)
			o.warn(ctx, "file analysis failed", map[string]interface{}{"file": r.path, "error": r.err.Error()})
			continue
		}
		suggestions = append(suggestions, r.suggestions...)
	}
	return suggestions
}

func matchesAny(file string, patterns []string) bool {
	for _, pattern := range patterns {
		if pattern == "" {
			continue
		}
		if ok, err := path.Match(pattern, file); err == nil && ok {
			return true
		}
		// Also match against the basename so "*.pb.go" style patterns
		// work for nested files.
		if ok, err := path.Match(pattern, path.Base(file)); err == nil && ok {
			return true
		}
	}
	return false
}

func (o *Orchestrator) info(ctx context.Context, msg string, fields map[string]interface{}) {
	if o.deps.Logger != nil {
		o.deps.Logger.LogInfo(ctx, msg, fields)
	}
}

func (o *Orchestrator) warn(ctx context.Context, msg string, fields map[string]interface{}) {
	if o.deps.Logger != nil {
		o.deps.Logger.LogWarning(ctx, msg, fields)
	}
}
