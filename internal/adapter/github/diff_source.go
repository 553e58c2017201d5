package github

import (
	"context"

	"github.com/mshafer/prreview/internal/usecase/review"
)

// DiffSource fetches a pull request's diff and metadata from the API.
type DiffSource struct {
	client     *Client
	owner      string
	repo       string
	pullNumber int
}

// NewDiffSource creates a diff source for one pull request.
func NewDiffSource(client *Client, owner, repo string, pullNumber int) *DiffSource {
	return &DiffSource{
		client:     client,
		owner:      owner,
		repo:       repo,
		pullNumber: pullNumber,
	}
}

// Diff fetches PR metadata and the raw unified diff.
func (s *DiffSource) Diff(ctx context.Context) (review.DiffInfo, error) {
	pr, err := s.client.GetPullRequest(ctx, s.owner, s.repo, s.pullNumber)
	if err != nil {
		return review.DiffInfo{}, err
	}

	text, err := s.client.GetDiff(ctx, s.owner, s.repo, s.pullNumber)
	if err != nil {
		return review.DiffInfo{}, err
	}

	return review.DiffInfo{
		Text:    text,
		HeadSHA: pr.Head.SHA,
		Title:   pr.Title,
		Body:    pr.Body,
	}, nil
}
