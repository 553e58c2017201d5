package github

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/gregjones/httpcache"

	llmhttp "github.com/mshafer/prreview/internal/adapter/llm/http"
)

const (
	defaultBaseURL        = "https://api.github.com"
	defaultTimeout        = 30 * time.Second
	defaultMaxRetries     = 3
	defaultInitialBackoff = 2 * time.Second

	acceptJSON = "application/vnd.github+json"
	acceptDiff = "application/vnd.github.v3.diff"
)

// Client is an HTTP client for the GitHub Pulls API.
//
// Reads go through an in-memory conditional-request cache so repeated GETs
// within a run revalidate via ETag instead of spending rate limit budget.
// Writes bypass the cache. All calls retry transient failures with
// exponential backoff; 4xx responses surface immediately as typed errors.
type Client struct {
	token       string
	baseURL     string
	httpClient  *http.Client
	cacheClient *http.Client
	retryConf   llmhttp.RetryConfig
}

// NewClient creates a GitHub API client with the given token.
// The token is a personal access token or GITHUB_TOKEN from Actions.
func NewClient(token string) *Client {
	cacheTransport := httpcache.NewMemoryCacheTransport()
	return &Client{
		token:       token,
		baseURL:     defaultBaseURL,
		httpClient:  &http.Client{Timeout: defaultTimeout},
		cacheClient: &http.Client{Timeout: defaultTimeout, Transport: cacheTransport},
		retryConf: llmhttp.RetryConfig{
			MaxRetries:     defaultMaxRetries,
			InitialBackoff: defaultInitialBackoff,
			MaxBackoff:     32 * time.Second,
			Multiplier:     2.0,
		},
	}
}

// SetBaseURL sets a custom base URL (for testing).
func (c *Client) SetBaseURL(url string) {
	c.baseURL = url
}

// SetTimeout sets the HTTP timeout.
func (c *Client) SetTimeout(timeout time.Duration) {
	c.httpClient.Timeout = timeout
	c.cacheClient.Timeout = timeout
}

// SetMaxRetries sets the maximum number of retry attempts.
func (c *Client) SetMaxRetries(maxRetries int) {
	c.retryConf.MaxRetries = maxRetries
}

// SetInitialBackoff sets the initial backoff duration for retries.
func (c *Client) SetInitialBackoff(backoff time.Duration) {
	c.retryConf.InitialBackoff = backoff
}

// GetPullRequest fetches pull request metadata, including the head commit
// SHA that anchored comments must reference.
func (c *Client) GetPullRequest(ctx context.Context, owner, repo string, pullNumber int) (*PullRequest, error) {
	url := fmt.Sprintf("%s/repos/%s/%s/pulls/%d", c.baseURL, owner, repo, pullNumber)

	body, err := c.do(ctx, http.MethodGet, url, nil, acceptJSON)
	if err != nil {
		return nil, err
	}

	var pr PullRequest
	if err := json.Unmarshal(body, &pr); err != nil {
		return nil, fmt.Errorf("failed to parse pull request response: %w", err)
	}
	return &pr, nil
}

// GetDiff fetches the unified diff of a pull request as raw text.
func (c *Client) GetDiff(ctx context.Context, owner, repo string, pullNumber int) (string, error) {
	url := fmt.Sprintf("%s/repos/%s/%s/pulls/%d", c.baseURL, owner, repo, pullNumber)

	body, err := c.do(ctx, http.MethodGet, url, nil, acceptDiff)
	if err != nil {
		return "", err
	}
	return string(body), nil
}

// CreateReview submits a batch review with inline comments. The submission
// is atomic: either every comment lands or the platform rejects the whole
// review, typically with a 422 when an anchor is invalid.
func (c *Client) CreateReview(ctx context.Context, owner, repo string, pullNumber int, review CreateReviewRequest) (*CreateReviewResponse, error) {
	url := fmt.Sprintf("%s/repos/%s/%s/pulls/%d/reviews", c.baseURL, owner, repo, pullNumber)

	body, err := c.do(ctx, http.MethodPost, url, review, acceptJSON)
	if err != nil {
		return nil, err
	}

	var resp CreateReviewResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("failed to parse review response: %w", err)
	}
	return &resp, nil
}

// CreateReviewComment submits a single inline comment outside a review.
// Used during serialized fallback after a batch rejection.
func (c *Client) CreateReviewComment(ctx context.Context, owner, repo string, pullNumber int, comment CreateReviewCommentRequest) (*CommentResponse, error) {
	url := fmt.Sprintf("%s/repos/%s/%s/pulls/%d/comments", c.baseURL, owner, repo, pullNumber)

	body, err := c.do(ctx, http.MethodPost, url, comment, acceptJSON)
	if err != nil {
		return nil, err
	}

	var resp CommentResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("failed to parse comment response: %w", err)
	}
	return &resp, nil
}

// CreateIssueComment posts a plain comment on the pull request conversation.
func (c *Client) CreateIssueComment(ctx context.Context, owner, repo string, issueNumber int, text string) (*CommentResponse, error) {
	url := fmt.Sprintf("%s/repos/%s/%s/issues/%d/comments", c.baseURL, owner, repo, issueNumber)

	body, err := c.do(ctx, http.MethodPost, url, IssueCommentRequest{Body: text}, acceptJSON)
	if err != nil {
		return nil, err
	}

	var resp CommentResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("failed to parse comment response: %w", err)
	}
	return &resp, nil
}

// do executes one API call with retry, returning the response body.
func (c *Client) do(ctx context.Context, method, url string, payload interface{}, accept string) ([]byte, error) {
	var jsonData []byte
	if payload != nil {
		var err error
		jsonData, err = json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request: %w", err)
		}
	}

	client := c.httpClient
	if method == http.MethodGet {
		client = c.cacheClient
	}

	var respBody []byte
	err := llmhttp.RetryWithBackoff(ctx, func(ctx context.Context) error {
		var reqBody io.Reader
		if jsonData != nil {
			reqBody = bytes.NewReader(jsonData)
		}

		req, reqErr := http.NewRequestWithContext(ctx, method, url, reqBody)
		if reqErr != nil {
			return &llmhttp.Error{
				Type:      llmhttp.ErrTypeUnknown,
				Message:   reqErr.Error(),
				Retryable: false,
				Provider:  providerName,
			}
		}

		req.Header.Set("Authorization", "Bearer "+c.token)
		req.Header.Set("Accept", accept)
		req.Header.Set("X-GitHub-Api-Version", "2022-11-28")
		if jsonData != nil {
			req.Header.Set("Content-Type", "application/json")
		}

		resp, callErr := client.Do(req)
		if callErr != nil {
			// Could be a timeout or network error.
			return &llmhttp.Error{
				Type:      llmhttp.ErrTypeTimeout,
				Message:   callErr.Error(),
				Retryable: true,
				Provider:  providerName,
			}
		}
		defer resp.Body.Close()

		bodyBytes, readErr := io.ReadAll(resp.Body)
		if readErr != nil {
			return &llmhttp.Error{
				Type:       llmhttp.ErrTypeUnknown,
				Message:    fmt.Sprintf("HTTP %d (failed to read response: %v)", resp.StatusCode, readErr),
				StatusCode: resp.StatusCode,
				Retryable:  resp.StatusCode >= 500,
				Provider:   providerName,
			}
		}

		if resp.StatusCode >= 400 {
			return MapHTTPError(resp.StatusCode, bodyBytes)
		}

		respBody = bodyBytes
		return nil
	}, c.retryConf)

	if err != nil {
		return nil, err
	}
	return respBody, nil
}
