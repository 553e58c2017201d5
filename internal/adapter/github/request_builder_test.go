package github

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mshafer/prreview/internal/domain"
)

func TestBuildReviewCommentsSingleLine(t *testing.T) {
	comments := []domain.Comment{
		{Path: "a.go", Position: 0, Line: 1, Side: domain.SideRight, Body: "first"},
		{Path: "a.go", Position: 6, Line: 13, Side: domain.SideRight, Body: "second"},
	}

	out := BuildReviewComments(comments)
	require.Len(t, out, 2)

	// The API counts positions from 1; internal positions count from 0.
	assert.Equal(t, 1, out[0].Position)
	assert.Equal(t, 7, out[1].Position)
	assert.Zero(t, out[0].Line)
	assert.Empty(t, out[0].Side)
}

func TestBuildReviewCommentsMultiline(t *testing.T) {
	comments := []domain.Comment{
		{Path: "a.go", Position: 3, Line: 5, StartLine: 3, Side: domain.SideRight, Body: "range"},
	}

	out := BuildReviewComments(comments)
	require.Len(t, out, 1)

	rc := out[0]
	assert.Zero(t, rc.Position, "multiline comments must not set position")
	assert.Equal(t, 5, rc.Line)
	assert.Equal(t, 3, rc.StartLine)
	assert.Equal(t, domain.SideRight, rc.Side)
	assert.Equal(t, domain.SideRight, rc.StartSide)
}

func TestBuildCommentRequest(t *testing.T) {
	single := BuildCommentRequest("sha1", domain.Comment{
		Path: "a.go", Position: 2, Line: 3, Side: domain.SideRight, Body: "note",
	})
	assert.Equal(t, "sha1", single.CommitID)
	assert.Equal(t, 3, single.Line)
	assert.Equal(t, domain.SideRight, single.Side)
	assert.Zero(t, single.StartLine)

	multi := BuildCommentRequest("sha1", domain.Comment{
		Path: "a.go", Position: 4, Line: 5, StartLine: 3, Side: domain.SideRight, Body: "range",
	})
	assert.Equal(t, 3, multi.StartLine)
	assert.Equal(t, domain.SideRight, multi.StartSide)
}

func TestBuildReviewBody(t *testing.T) {
	one := BuildReviewBody(1)
	assert.Contains(t, one, "1 issue ")

	many := BuildReviewBody(4)
	assert.Contains(t, many, "4 issues")
}

func TestSummaryBodies(t *testing.T) {
	assert.Contains(t, NoIssuesBody(), "No significant issues")
	assert.Contains(t, StartNoticeBody(3), "3 changed file(s)")
}
