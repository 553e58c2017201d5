// Package actions integrates with the GitHub Actions runtime: reading the
// triggering event payload and emitting workflow commands.
package actions

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
)

// Context identifies the pull request a workflow run is reviewing.
type Context struct {
	Owner      string
	Repo       string
	PullNumber int
	Title      string
	Body       string
	HeadSHA    string
}

// eventPayload is the subset of the pull_request webhook payload we read.
type eventPayload struct {
	Number      int `json:"number"`
	PullRequest struct {
		Number int    `json:"number"`
		Title  string `json:"title"`
		Body   string `json:"body"`
		Head   struct {
			SHA string `json:"sha"`
		} `json:"head"`
	} `json:"pull_request"`
	Repository struct {
		FullName string `json:"full_name"`
		Name     string `json:"name"`
		Owner    struct {
			Login string `json:"login"`
		} `json:"owner"`
	} `json:"repository"`
}

// FromEnv builds the run context from the Actions environment. It reads the
// event payload at GITHUB_EVENT_PATH, which for pull_request triggers
// carries the PR number, title, body, and head SHA.
func FromEnv() (*Context, error) {
	path := os.Getenv("GITHUB_EVENT_PATH")
	if path == "" {
		return nil, fmt.Errorf("GITHUB_EVENT_PATH is not set; not running inside GitHub Actions")
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read event payload: %w", err)
	}

	var payload eventPayload
	if err := json.Unmarshal(data, &payload); err != nil {
		return nil, fmt.Errorf("failed to parse event payload: %w", err)
	}

	owner := payload.Repository.Owner.Login
	repo := payload.Repository.Name
	if owner == "" || repo == "" {
		// Fall back to "owner/repo" if the nested fields are absent.
		parts := strings.SplitN(payload.Repository.FullName, "/", 2)
		if len(parts) == 2 {
			owner, repo = parts[0], parts[1]
		}
	}
	if owner == "" || repo == "" {
		return nil, fmt.Errorf("event payload has no repository information")
	}

	number := payload.PullRequest.Number
	if number == 0 {
		number = payload.Number
	}
	if number == 0 {
		return nil, fmt.Errorf("event payload has no pull request number; only pull_request events are supported")
	}

	return &Context{
		Owner:      owner,
		Repo:       repo,
		PullNumber: number,
		Title:      payload.PullRequest.Title,
		Body:       payload.PullRequest.Body,
		HeadSHA:    payload.PullRequest.Head.SHA,
	}, nil
}
