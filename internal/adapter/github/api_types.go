package github

// GitHub Pulls API types.
// See: https://docs.github.com/en/rest/pulls

// ReviewEvent represents the action to take when submitting a review.
type ReviewEvent string

const (
	// EventComment submits the review without approval.
	EventComment ReviewEvent = "COMMENT"

	// EventApprove approves the pull request.
	EventApprove ReviewEvent = "APPROVE"

	// EventRequestChanges requests changes to the pull request.
	EventRequestChanges ReviewEvent = "REQUEST_CHANGES"
)

// CreateReviewRequest is the request body for POST /repos/{owner}/{repo}/pulls/{pull_number}/reviews.
type CreateReviewRequest struct {
	// CommitID is the SHA of the head commit of the PR.
	CommitID string `json:"commit_id"`

	// Event is the review action: APPROVE, REQUEST_CHANGES, or COMMENT.
	Event ReviewEvent `json:"event"`

	// Body is the review summary comment.
	Body string `json:"body"`

	// Comments are the inline review comments.
	Comments []ReviewComment `json:"comments,omitempty"`
}

// ReviewComment is one inline comment inside a review submission.
//
// Single-line comments use Position, the 1-indexed offset into the file's
// diff counted from the first hunk header. Multi-line comments use the
// line/side form instead, anchored to new-file line numbers.
type ReviewComment struct {
	// Path is the relative path of the file to comment on.
	Path string `json:"path"`

	// Position anchors a single-line comment (1-indexed diff offset).
	Position int `json:"position,omitempty"`

	// Line and Side anchor the last line of a multi-line comment.
	Line int    `json:"line,omitempty"`
	Side string `json:"side,omitempty"`

	// StartLine and StartSide anchor the first line of a multi-line comment.
	StartLine int    `json:"start_line,omitempty"`
	StartSide string `json:"start_side,omitempty"`

	// Body is the comment text (GitHub-flavored Markdown).
	Body string `json:"body"`
}

// CreateReviewCommentRequest is the request body for
// POST /repos/{owner}/{repo}/pulls/{pull_number}/comments, used when a
// batch review is rejected and comments are submitted one at a time.
type CreateReviewCommentRequest struct {
	CommitID  string `json:"commit_id"`
	Path      string `json:"path"`
	Body      string `json:"body"`
	Line      int    `json:"line,omitempty"`
	Side      string `json:"side,omitempty"`
	StartLine int    `json:"start_line,omitempty"`
	StartSide string `json:"start_side,omitempty"`
}

// IssueCommentRequest is the request body for
// POST /repos/{owner}/{repo}/issues/{issue_number}/comments.
type IssueCommentRequest struct {
	Body string `json:"body"`
}

// CreateReviewResponse is the response from creating a review.
type CreateReviewResponse struct {
	ID          int64  `json:"id"`
	NodeID      string `json:"node_id"`
	User        User   `json:"user"`
	Body        string `json:"body"`
	State       string `json:"state"`
	HTMLURL     string `json:"html_url"`
	SubmittedAt string `json:"submitted_at"`
}

// CommentResponse is the response from creating a review or issue comment.
type CommentResponse struct {
	ID      int64  `json:"id"`
	NodeID  string `json:"node_id"`
	HTMLURL string `json:"html_url"`
	Body    string `json:"body"`
}

// PullRequest is the subset of GET /repos/{owner}/{repo}/pulls/{pull_number}
// this tool reads.
type PullRequest struct {
	Number       int    `json:"number"`
	Title        string `json:"title"`
	Body         string `json:"body"`
	State        string `json:"state"`
	ChangedFiles int    `json:"changed_files"`
	Head         struct {
		SHA string `json:"sha"`
		Ref string `json:"ref"`
	} `json:"head"`
	Base struct {
		SHA string `json:"sha"`
		Ref string `json:"ref"`
	} `json:"base"`
}

// User represents a GitHub user in API responses.
type User struct {
	Login string `json:"login"`
	ID    int64  `json:"id"`
	Type  string `json:"type"` // "User" or "Bot"
}

// ErrorResponse represents an error response from the GitHub API.
type ErrorResponse struct {
	Message          string `json:"message"`
	DocumentationURL string `json:"documentation_url"`
	Errors           []struct {
		Resource string `json:"resource"`
		Field    string `json:"field"`
		Code     string `json:"code"`
		Message  string `json:"message"`
	} `json:"errors,omitempty"`
}
