package domain

import (
	"fmt"
	"strings"
)

// RunSummary is the accounting for one review run. The run must always be
// able to say how many comments were attempted, how many succeeded, how
// many were rejected by validation, and how many failed after retries;
// silently dropping a suggestion is never acceptable.
type RunSummary struct {
	FilesChanged        int
	FilesReviewed       int
	SuggestionsReceived int
	DuplicatesCollapsed int

	CommentsAttempted int
	CommentsSubmitted int
	CommentsFailed    int

	// Rejections are the normalizer's per-suggestion validation failures.
	Rejections []Rejection

	// Diagnostics are recoverable parse problems (skipped hunks, binary
	// files) recorded while consuming the diff.
	Diagnostics []string
}

// String renders the summary for log output.
func (s RunSummary) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "reviewed %d/%d files: %d suggestions, %d comments attempted, %d submitted, %d failed, %d rejected by validation, %d duplicates collapsed",
		s.FilesReviewed, s.FilesChanged, s.SuggestionsReceived,
		s.CommentsAttempted, s.CommentsSubmitted, s.CommentsFailed,
		len(s.Rejections), s.DuplicatesCollapsed)
	for _, r := range s.Rejections {
		fmt.Fprintf(&b, "\n  rejected %s", r)
	}
	for _, d := range s.Diagnostics {
		fmt.Fprintf(&b, "\n  diagnostic: %s", d)
	}
	return b.String()
}
