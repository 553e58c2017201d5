package github

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mshafer/prreview/internal/domain"
)

func newServerClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	c := NewClient("ghs_test")
	c.SetBaseURL(server.URL)
	c.SetMaxRetries(2)
	c.SetInitialBackoff(time.Millisecond)
	return c
}

func TestGetPullRequest(t *testing.T) {
	client := newServerClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/repos/octo/demo/pulls/7", r.URL.Path)
		assert.Equal(t, "Bearer ghs_test", r.Header.Get("Authorization"))
		assert.Equal(t, "application/vnd.github+json", r.Header.Get("Accept"))
		assert.Equal(t, "2022-11-28", r.Header.Get("X-GitHub-Api-Version"))
		w.Write([]byte(`{"number":7,"title":"Add caching","head":{"sha":"deadbeef"},"changed_files":3}`))
	})

	pr, err := client.GetPullRequest(context.Background(), "octo", "demo", 7)
	require.NoError(t, err)
	assert.Equal(t, "Add caching", pr.Title)
	assert.Equal(t, "deadbeef", pr.Head.SHA)
	assert.Equal(t, 3, pr.ChangedFiles)
}

func TestGetDiff(t *testing.T) {
	const diffText = "diff --git a/a.go b/a.go\n"
	client := newServerClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "application/vnd.github.v3.diff", r.Header.Get("Accept"))
		w.Write([]byte(diffText))
	})

	diff, err := client.GetDiff(context.Background(), "octo", "demo", 7)
	require.NoError(t, err)
	assert.Equal(t, diffText, diff)
}

func TestCreateReviewSendsWireForm(t *testing.T) {
	var gotReq CreateReviewRequest
	client := newServerClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/repos/octo/demo/pulls/7/reviews", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotReq))
		w.Write([]byte(`{"id":99,"state":"COMMENTED"}`))
	})

	comments := BuildReviewComments([]domain.Comment{
		{Path: "a.go", Position: 4, Line: 5, Side: domain.SideRight, Body: "note"},
	})
	resp, err := client.CreateReview(context.Background(), "octo", "demo", 7, CreateReviewRequest{
		CommitID: "deadbeef",
		Event:    EventComment,
		Body:     "summary",
		Comments: comments,
	})

	require.NoError(t, err)
	assert.Equal(t, int64(99), resp.ID)
	assert.Equal(t, "deadbeef", gotReq.CommitID)
	require.Len(t, gotReq.Comments, 1)
	assert.Equal(t, 5, gotReq.Comments[0].Position)
}

func TestDoRetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	client := newServerClient(t, func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 2 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.Write([]byte(`{"number":7}`))
	})

	_, err := client.GetPullRequest(context.Background(), "octo", "demo", 7)
	require.NoError(t, err)
	assert.Equal(t, int32(2), calls.Load())
}

func TestDoDoesNotRetryValidationFailure(t *testing.T) {
	var calls atomic.Int32
	client := newServerClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusUnprocessableEntity)
		w.Write([]byte(`{"message":"Validation Failed"}`))
	})

	_, err := client.CreateReview(context.Background(), "octo", "demo", 7, CreateReviewRequest{})
	require.Error(t, err)
	assert.True(t, IsAnchorRejection(err))
	assert.Equal(t, int32(1), calls.Load())
}

func TestGetUsesConditionalCache(t *testing.T) {
	var calls atomic.Int32
	client := newServerClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("If-None-Match") == `"v1"` {
			calls.Add(1)
			w.WriteHeader(http.StatusNotModified)
			return
		}
		w.Header().Set("ETag", `"v1"`)
		w.Write([]byte(`{"number":7,"title":"cached"}`))
	})

	first, err := client.GetPullRequest(context.Background(), "octo", "demo", 7)
	require.NoError(t, err)

	second, err := client.GetPullRequest(context.Background(), "octo", "demo", 7)
	require.NoError(t, err)

	assert.Equal(t, first.Title, second.Title)
	assert.Equal(t, int32(1), calls.Load(), "second GET should revalidate with If-None-Match")
}
