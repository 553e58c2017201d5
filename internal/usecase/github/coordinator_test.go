package github

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	llmhttp "github.com/mshafer/prreview/internal/adapter/llm/http"
	"github.com/mshafer/prreview/internal/domain"
)

// mockClient implements Client with scripted responses.
type mockClient struct {
	reviewErr      error
	commentErrs    map[string]error // keyed by "path:line"
	issueErr       error
	reviewCalls    int
	commentCalls   []string
	issueBodies    []string
	reviewComments []domain.Comment
}

func newMockClient() *mockClient {
	return &mockClient{commentErrs: make(map[string]error)}
}

func (m *mockClient) CreateReview(ctx context.Context, target Target, summary string, comments []domain.Comment) error {
	m.reviewCalls++
	m.reviewComments = comments
	return m.reviewErr
}

func (m *mockClient) CreateComment(ctx context.Context, target Target, comment domain.Comment) error {
	key := fmt.Sprintf("%s:%d", comment.Path, comment.Line)
	m.commentCalls = append(m.commentCalls, key)
	return m.commentErrs[key]
}

func (m *mockClient) CreateIssueComment(ctx context.Context, target Target, body string) error {
	m.issueBodies = append(m.issueBodies, body)
	return m.issueErr
}

type staticSummaries struct{}

func (staticSummaries) ReviewBody(n int) string      { return fmt.Sprintf("review %d", n) }
func (staticSummaries) NoIssuesBody() string         { return "no issues" }
func (staticSummaries) StartNoticeBody(n int) string { return fmt.Sprintf("start %d", n) }

func anchorRejection() error {
	return &llmhttp.Error{
		Type:       llmhttp.ErrTypeInvalidRequest,
		Message:    "pull request review thread position is invalid",
		StatusCode: 422,
		Provider:   "github",
	}
}

func authError() error {
	return &llmhttp.Error{
		Type:       llmhttp.ErrTypeAuthentication,
		Message:    "bad credentials",
		StatusCode: 401,
		Provider:   "github",
	}
}

func transientError() error {
	return &llmhttp.Error{
		Type:       llmhttp.ErrTypeServiceUnavailable,
		Message:    "boom",
		StatusCode: 503,
		Retryable:  true,
		Provider:   "github",
	}
}

func testComment(path string, line int, body string) domain.Comment {
	return domain.Comment{
		Path: path,
		Line: line,
		Side: domain.SideRight,
		Body: body,
		Key:  domain.NewDedupKey(path, line, body),
	}
}

func testTarget() Target {
	return Target{Owner: "octo", Repo: "demo", PullNumber: 7, CommitSHA: "abc123"}
}

func TestPostBatchSuccess(t *testing.T) {
	client := newMockClient()
	c := NewCoordinator(client, staticSummaries{}, nil)

	comments := []domain.Comment{
		testComment("a.go", 3, "one"),
		testComment("b.go", 9, "two"),
	}
	result, err := c.Post(context.Background(), PostRequest{Target: testTarget(), Comments: comments})

	require.NoError(t, err)
	assert.Equal(t, 2, result.Attempted)
	assert.Equal(t, 2, result.Submitted)
	assert.Zero(t, result.Failed)
	assert.False(t, result.UsedFallback)
	assert.Equal(t, 1, client.reviewCalls)
	assert.Empty(t, client.commentCalls, "batch success must not trigger fallback")
}

func TestPostEmptyBatchPostsNoIssuesComment(t *testing.T) {
	client := newMockClient()
	c := NewCoordinator(client, staticSummaries{}, nil)

	result, err := c.Post(context.Background(), PostRequest{Target: testTarget()})

	require.NoError(t, err)
	assert.Zero(t, result.Attempted)
	require.Len(t, client.issueBodies, 1)
	assert.Equal(t, "no issues", client.issueBodies[0])
	assert.Zero(t, client.reviewCalls)
}

func TestPostStartNotice(t *testing.T) {
	client := newMockClient()
	c := NewCoordinator(client, staticSummaries{}, nil)

	_, err := c.Post(context.Background(), PostRequest{
		Target:          testTarget(),
		Comments:        []domain.Comment{testComment("a.go", 1, "x")},
		FilesChanged:    5,
		PostStartNotice: true,
	})

	require.NoError(t, err)
	require.Len(t, client.issueBodies, 1)
	assert.Equal(t, "start 5", client.issueBodies[0])
}

func TestPostFallbackPartialFailure(t *testing.T) {
	client := newMockClient()
	client.reviewErr = anchorRejection()
	client.commentErrs["b.go:9"] = transientError()
	c := NewCoordinator(client, staticSummaries{}, nil)

	comments := []domain.Comment{
		testComment("a.go", 3, "one"),
		testComment("b.go", 9, "two"),
		testComment("c.go", 1, "three"),
	}
	result, err := c.Post(context.Background(), PostRequest{Target: testTarget(), Comments: comments})

	require.NoError(t, err)
	assert.True(t, result.UsedFallback)
	assert.Equal(t, 3, result.Attempted)
	assert.Equal(t, 2, result.Submitted)
	assert.Equal(t, 1, result.Failed)

	// Comments 1 and 3 landed even though 2 failed.
	assert.Equal(t, []string{"a.go:3", "b.go:9", "c.go:1"}, client.commentCalls)
	assert.Equal(t, StateSubmitted, result.Results[0].State)
	assert.Equal(t, StateFailed, result.Results[1].State)
	assert.Equal(t, StateSubmitted, result.Results[2].State)
}

func TestPostAuthErrorOnBatchFailsEverything(t *testing.T) {
	client := newMockClient()
	client.reviewErr = authError()
	c := NewCoordinator(client, staticSummaries{}, nil)

	comments := []domain.Comment{testComment("a.go", 3, "one"), testComment("b.go", 9, "two")}
	result, err := c.Post(context.Background(), PostRequest{Target: testTarget(), Comments: comments})

	require.Error(t, err)
	assert.Equal(t, 2, result.Failed)
	assert.Zero(t, result.Submitted)
	assert.Empty(t, client.commentCalls, "auth failure must not attempt the fallback")
}

func TestPostAuthErrorDuringFallbackStopsRemaining(t *testing.T) {
	client := newMockClient()
	client.reviewErr = anchorRejection()
	client.commentErrs["b.go:9"] = authError()
	c := NewCoordinator(client, staticSummaries{}, nil)

	comments := []domain.Comment{
		testComment("a.go", 3, "one"),
		testComment("b.go", 9, "two"),
		testComment("c.go", 1, "three"),
	}
	result, err := c.Post(context.Background(), PostRequest{Target: testTarget(), Comments: comments})

	require.Error(t, err)
	assert.Equal(t, 1, result.Submitted)
	assert.Equal(t, 2, result.Failed)
	// The third comment was never attempted.
	assert.Equal(t, []string{"a.go:3", "b.go:9"}, client.commentCalls)
}

func TestPostTransientBatchFailureDoesNotFallBack(t *testing.T) {
	client := newMockClient()
	client.reviewErr = transientError()
	c := NewCoordinator(client, staticSummaries{}, nil)

	comments := []domain.Comment{testComment("a.go", 3, "one")}
	result, err := c.Post(context.Background(), PostRequest{Target: testTarget(), Comments: comments})

	require.NoError(t, err)
	assert.False(t, result.UsedFallback)
	assert.Equal(t, 1, result.Failed)
	assert.Empty(t, client.commentCalls)
}

func TestPostNeverSubmitsSameKeyTwice(t *testing.T) {
	client := newMockClient()
	c := NewCoordinator(client, staticSummaries{}, nil)

	comments := []domain.Comment{testComment("a.go", 3, "one")}
	_, err := c.Post(context.Background(), PostRequest{Target: testTarget(), Comments: comments})
	require.NoError(t, err)

	// A second run with the same coordinator and the same key attempts
	// nothing.
	result, err := c.Post(context.Background(), PostRequest{Target: testTarget(), Comments: comments})
	require.NoError(t, err)
	assert.Zero(t, result.Attempted)
	assert.Equal(t, 1, client.reviewCalls)
}

func TestPostPlainErrorIsNotAnchorRejection(t *testing.T) {
	client := newMockClient()
	client.reviewErr = errors.New("connection reset")
	c := NewCoordinator(client, staticSummaries{}, nil)

	result, err := c.Post(context.Background(), PostRequest{
		Target:   testTarget(),
		Comments: []domain.Comment{testComment("a.go", 3, "one")},
	})

	require.NoError(t, err)
	assert.False(t, result.UsedFallback)
	assert.Equal(t, 1, result.Failed)
}
