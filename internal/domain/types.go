package domain

// Suggestion is a candidate review comment produced by the model for a
// single file. It is untrusted external input: line numbers and paths are
// whatever the model claimed and must pass through the normalizer before
// they can be posted anywhere.
type Suggestion struct {
	// File is the path of the file the suggestion targets, relative to the
	// repository root.
	File string `json:"file"`

	// Line is the claimed line number in the NEW version of the file.
	Line int `json:"line"`

	// EndLine is the last line of a multi-line suggestion. Zero (or equal
	// to Line) for single-line suggestions.
	EndLine int `json:"endLine"`

	// Body is the free-text review comment in Markdown.
	Body string `json:"comment"`

	// Replacement is an optional code block that should replace the
	// claimed line range. Rendered into a GitHub suggestion fence by the
	// normalizer.
	Replacement string `json:"replacement"`

	// Severity is an optional tag such as "critical", "high", "medium", "low".
	Severity string `json:"severity"`

	// Category is an optional tag such as "security" or "performance".
	Category string `json:"category"`
}

// SideRight identifies the right (new file) side of a split diff.
// Added lines always live on the right side.
const SideRight = "RIGHT"

// Comment is a validated, anchor-resolved suggestion ready for posting.
// Created by the normalizer, possibly merged by the deduplicator, and
// consumed exactly once by the posting coordinator.
type Comment struct {
	// Path is the file path relative to the repository root.
	Path string

	// Position is the zero-based cumulative diff position of the anchor
	// line within the file's patch (lines below the first @@, with
	// subsequent hunk headers consuming a slot).
	Position int

	// Line is the anchor line number in the new file. For multi-line
	// comments this is the last line of the range.
	Line int

	// StartLine is the first line of a multi-line range. Zero for
	// single-line comments.
	StartLine int

	// Side is the diff side for line-based addressing.
	Side string

	// Body is the finished Markdown body, including any rendered
	// suggestion fence.
	Body string

	// HasReplacement records whether the body carries a suggestion fence.
	// The deduplicator prefers replacement-bearing comments on key ties.
	HasReplacement bool

	// Severity is carried through from the suggestion for summary output.
	Severity string

	// Key is the stable deduplication key for this comment.
	Key DedupKey
}

// Multiline reports whether the comment spans more than one line.
func (c Comment) Multiline() bool {
	return c.StartLine != 0 && c.StartLine != c.Line
}
