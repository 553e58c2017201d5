package domain

import "fmt"

// RejectionReason classifies why a suggestion could not be turned into a
// postable comment.
type RejectionReason string

const (
	// RejectFileNotFound means the suggestion targets a file the diff does
	// not touch.
	RejectFileNotFound RejectionReason = "file_not_found"

	// RejectLineNotInDiff means the claimed line number falls outside every
	// hunk of the file's patch.
	RejectLineNotInDiff RejectionReason = "line_not_in_diff"

	// RejectLineNotAdded means the claimed line exists in the patch but is a
	// context or removed line. Comments only land on added lines.
	RejectLineNotAdded RejectionReason = "line_not_added"

	// RejectMalformedRange means a multi-line suggestion's end precedes its
	// start, or the range spans a deletion gap or only partially overlaps
	// the added lines.
	RejectMalformedRange RejectionReason = "malformed_range"
)

// Rejection records a suggestion that failed validation. Rejections are
// never fatal; they accumulate into the run summary.
type Rejection struct {
	File    string
	Line    int
	EndLine int
	Reason  RejectionReason
	Detail  string
}

func (r Rejection) String() string {
	loc := fmt.Sprintf("%s:%d", r.File, r.Line)
	if r.EndLine > r.Line {
		loc = fmt.Sprintf("%s:%d-%d", r.File, r.Line, r.EndLine)
	}
	if r.Detail == "" {
		return fmt.Sprintf("%s: %s", loc, r.Reason)
	}
	return fmt.Sprintf("%s: %s (%s)", loc, r.Reason, r.Detail)
}
