// Package github coordinates the posting of validated review comments.
//
// The protocol favors the atomic batch endpoint and degrades to serialized
// per-comment submission when the platform rejects an anchor, so one bad
// comment costs only itself rather than the whole review.
package github

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	llmhttp "github.com/mshafer/prreview/internal/adapter/llm/http"
	"github.com/mshafer/prreview/internal/domain"
)

// Target identifies the pull request and commit being reviewed.
type Target struct {
	Owner      string
	Repo       string
	PullNumber int
	CommitSHA  string
}

// Client is the outbound port to the hosted review API.
type Client interface {
	// CreateReview submits every comment atomically in one review.
	CreateReview(ctx context.Context, target Target, summary string, comments []domain.Comment) error

	// CreateComment submits one inline comment outside a review.
	CreateComment(ctx context.Context, target Target, comment domain.Comment) error

	// CreateIssueComment posts a plain comment on the PR conversation.
	CreateIssueComment(ctx context.Context, target Target, body string) error
}

// SummaryBuilder renders the non-inline bodies the coordinator posts.
type SummaryBuilder interface {
	ReviewBody(commentCount int) string
	NoIssuesBody() string
	StartNoticeBody(fileCount int) string
}

// CommentState tracks one comment through the posting protocol.
type CommentState int

const (
	StatePending CommentState = iota
	StateSubmitted
	StateFailed
)

// String returns a human-readable state name.
func (s CommentState) String() string {
	switch s {
	case StatePending:
		return "pending"
	case StateSubmitted:
		return "submitted"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// CommentResult records the terminal state of one comment.
type CommentResult struct {
	Comment domain.Comment
	State   CommentState
	Err     error
}

// PostRequest is everything the coordinator needs for one run.
type PostRequest struct {
	Target          Target
	Comments        []domain.Comment
	FilesChanged    int
	PostStartNotice bool
}

// PostResult summarizes a posting run.
type PostResult struct {
	Attempted    int
	Submitted    int
	Failed       int
	UsedFallback bool
	Results      []CommentResult
}

// Coordinator drives the posting protocol. Not safe for concurrent use;
// one coordinator serves one review run.
type Coordinator struct {
	client    Client
	summaries SummaryBuilder
	logger    llmhttp.Logger

	// submitted guards against double submission across batch and
	// fallback paths. Keys are inserted exactly once.
	submitted map[domain.DedupKey]bool
}

// NewCoordinator creates a posting coordinator.
func NewCoordinator(client Client, summaries SummaryBuilder, logger llmhttp.Logger) *Coordinator {
	return &Coordinator{
		client:    client,
		summaries: summaries,
		logger:    logger,
		submitted: make(map[domain.DedupKey]bool),
	}
}

// Post executes the posting protocol. The returned error is non-nil only
// for failures that doom the whole run, such as an authentication error;
// individual comment failures are reported in the result.
func (c *Coordinator) Post(ctx context.Context, req PostRequest) (PostResult, error) {
	if req.PostStartNotice {
		notice := c.summaries.StartNoticeBody(req.FilesChanged)
		if err := c.client.CreateIssueComment(ctx, req.Target, notice); err != nil {
			if isAuthError(err) {
				return PostResult{}, fmt.Errorf("posting start notice: %w", err)
			}
			c.warn(ctx, "start notice could not be posted", err)
		}
	}

	if len(req.Comments) == 0 {
		if err := c.client.CreateIssueComment(ctx, req.Target, c.summaries.NoIssuesBody()); err != nil {
			return PostResult{}, fmt.Errorf("posting no-issues comment: %w", err)
		}
		return PostResult{}, nil
	}

	// Comments already submitted this run are never attempted again.
	pending := make([]domain.Comment, 0, len(req.Comments))
	for _, comment := range req.Comments {
		if c.submitted[comment.Key] {
			continue
		}
		pending = append(pending, comment)
	}

	result := PostResult{Attempted: len(pending)}
	if len(pending) == 0 {
		return result, nil
	}

	summary := c.summaries.ReviewBody(len(pending))
	err := c.client.CreateReview(ctx, req.Target, summary, pending)
	if err == nil {
		for _, comment := range pending {
			c.submitted[comment.Key] = true
			result.Results = append(result.Results, CommentResult{Comment: comment, State: StateSubmitted})
		}
		result.Submitted = len(pending)
		return result, nil
	}

	if isAuthError(err) {
		for _, comment := range pending {
			result.Results = append(result.Results, CommentResult{Comment: comment, State: StateFailed, Err: err})
		}
		result.Failed = len(pending)
		return result, fmt.Errorf("review submission: %w", err)
	}

	if !isAnchorRejection(err) {
		// Transient failure that survived retries. Nothing was posted.
		for _, comment := range pending {
			result.Results = append(result.Results, CommentResult{Comment: comment, State: StateFailed, Err: err})
		}
		result.Failed = len(pending)
		return result, nil
	}

	// The platform refused at least one anchor and the batch is all or
	// nothing. Post serially so the good comments still land.
	c.warn(ctx, "batch review rejected, falling back to per-comment submission", err)
	result.UsedFallback = true

	for i, comment := range pending {
		if err := ctx.Err(); err != nil {
			for _, rest := range pending[i:] {
				result.Results = append(result.Results, CommentResult{Comment: rest, State: StateFailed, Err: err})
				result.Failed++
			}
			return result, err
		}

		err := c.client.CreateComment(ctx, req.Target, comment)
		if err == nil {
			c.submitted[comment.Key] = true
			result.Results = append(result.Results, CommentResult{Comment: comment, State: StateSubmitted})
			result.Submitted++
			continue
		}

		if isAuthError(err) {
			// Credentials will not heal mid-run.
			for _, rest := range pending[i:] {
				result.Results = append(result.Results, CommentResult{Comment: rest, State: StateFailed, Err: err})
				result.Failed++
			}
			return result, fmt.Errorf("comment submission: %w", err)
		}

		c.warn(ctx, fmt.Sprintf("comment on %s:%d failed", comment.Path, comment.Line), err)
		result.Results = append(result.Results, CommentResult{Comment: comment, State: StateFailed, Err: err})
		result.Failed++
	}

	return result, nil
}

func (c *Coordinator) warn(ctx context.Context, message string, err error) {
	if c.logger == nil {
		return
	}
	c.logger.LogWarning(ctx, message, map[string]interface{}{"error": err.Error()})
}

func isAuthError(err error) bool {
	var httpErr *llmhttp.Error
	if !errors.As(err, &httpErr) {
		return false
	}
	return httpErr.Type == llmhttp.ErrTypeAuthentication
}

func isAnchorRejection(err error) bool {
	var httpErr *llmhttp.Error
	if !errors.As(err, &httpErr) {
		return false
	}
	return httpErr.StatusCode == http.StatusUnprocessableEntity
}
