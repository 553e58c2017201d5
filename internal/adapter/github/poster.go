package github

import (
	"context"

	"github.com/mshafer/prreview/internal/domain"
	ghusecase "github.com/mshafer/prreview/internal/usecase/github"
)

// Poster adapts the REST client to the posting coordinator's port.
type Poster struct {
	client *Client
}

// NewPoster wraps a GitHub client as a coordinator port.
func NewPoster(client *Client) *Poster {
	return &Poster{client: client}
}

// CreateReview submits all comments atomically in one COMMENT review.
func (p *Poster) CreateReview(ctx context.Context, target ghusecase.Target, summary string, comments []domain.Comment) error {
	review := CreateReviewRequest{
		CommitID: target.CommitSHA,
		Event:    EventComment,
		Body:     summary,
		Comments: BuildReviewComments(comments),
	}
	_, err := p.client.CreateReview(ctx, target.Owner, target.Repo, target.PullNumber, review)
	return err
}

// CreateComment submits one inline comment outside a review.
func (p *Poster) CreateComment(ctx context.Context, target ghusecase.Target, comment domain.Comment) error {
	req := BuildCommentRequest(target.CommitSHA, comment)
	_, err := p.client.CreateReviewComment(ctx, target.Owner, target.Repo, target.PullNumber, req)
	return err
}

// CreateIssueComment posts a plain comment on the PR conversation.
func (p *Poster) CreateIssueComment(ctx context.Context, target ghusecase.Target, body string) error {
	_, err := p.client.CreateIssueComment(ctx, target.Owner, target.Repo, target.PullNumber, body)
	return err
}

// Summaries renders the non-inline bodies the coordinator posts.
type Summaries struct{}

// ReviewBody renders the batch review summary.
func (Summaries) ReviewBody(commentCount int) string {
	return BuildReviewBody(commentCount)
}

// NoIssuesBody renders the comment posted when nothing was found.
func (Summaries) NoIssuesBody() string {
	return NoIssuesBody()
}

// StartNoticeBody renders the run-started comment.
func (Summaries) StartNoticeBody(fileCount int) string {
	return StartNoticeBody(fileCount)
}
