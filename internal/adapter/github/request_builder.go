package github

import (
	"fmt"
	"strings"

	"github.com/mshafer/prreview/internal/domain"
)

// reviewHeader opens the summary body of a batch review submission.
const reviewHeader = "AI Code Review"

// BuildReviewComments converts prepared comments to the wire form of the
// batch review endpoint. Single-line comments carry the 1-indexed diff
// position; multi-line comments switch to the line/side form because the
// position field cannot express a range. Pure function.
func BuildReviewComments(comments []domain.Comment) []ReviewComment {
	out := make([]ReviewComment, 0, len(comments))

	for _, c := range comments {
		rc := ReviewComment{
			Path: c.Path,
			Body: c.Body,
		}
		if c.Multiline() {
			rc.Line = c.Line
			rc.Side = c.Side
			rc.StartLine = c.StartLine
			rc.StartSide = c.Side
		} else {
			rc.Position = c.Position + 1
		}
		out = append(out, rc)
	}

	return out
}

// BuildCommentRequest converts one prepared comment to the wire form of the
// per-comment endpoint used during serialized fallback. That endpoint has
// no position field, so both forms anchor by line and side.
func BuildCommentRequest(commitSHA string, c domain.Comment) CreateReviewCommentRequest {
	req := CreateReviewCommentRequest{
		CommitID: commitSHA,
		Path:     c.Path,
		Body:     c.Body,
		Line:     c.Line,
		Side:     c.Side,
	}
	if c.Multiline() {
		req.StartLine = c.StartLine
		req.StartSide = c.Side
	}
	return req
}

// BuildReviewBody renders the summary body for a batch review.
func BuildReviewBody(commentCount int) string {
	var sb strings.Builder
	sb.WriteString("## ")
	sb.WriteString(reviewHeader)
	sb.WriteString("\n\n")
	if commentCount == 1 {
		sb.WriteString("Found 1 issue worth a look.")
	} else {
		sb.WriteString(fmt.Sprintf("Found %d issues worth a look.", commentCount))
	}
	return sb.String()
}

// NoIssuesBody is the issue comment posted when a review run produces no
// valid comments.
func NoIssuesBody() string {
	return "## " + reviewHeader + "\n\nNo significant issues found in this pull request."
}

// StartNoticeBody is the issue comment posted when a run begins, if the
// start notice is enabled.
func StartNoticeBody(fileCount int) string {
	return fmt.Sprintf("## %s\n\nReview started for %d changed file(s).", reviewHeader, fileCount)
}
