package repository

import (
	"context"
	"fmt"

	"github.com/mshafer/prreview/internal/usecase/review"
)

// DiffSource adapts a local git diff to the orchestrator's source port,
// for dry runs against branches that have no hosted pull request.
type DiffSource struct {
	source    *LocalSource
	baseRef   string
	targetRef string
}

// NewDiffSource creates a local diff source between two refs.
func NewDiffSource(source *LocalSource, baseRef, targetRef string) *DiffSource {
	return &DiffSource{
		source:    source,
		baseRef:   baseRef,
		targetRef: targetRef,
	}
}

// Diff computes the local diff and synthesizes PR-shaped metadata.
func (s *DiffSource) Diff(ctx context.Context) (review.DiffInfo, error) {
	result, err := s.source.Diff(ctx, s.baseRef, s.targetRef)
	if err != nil {
		return review.DiffInfo{}, err
	}

	return review.DiffInfo{
		Text:    result.DiffText,
		HeadSHA: result.HeadSHA,
		Title:   fmt.Sprintf("Local changes %s..%s", s.baseRef, s.targetRef),
		Body:    "",
	}, nil
}
