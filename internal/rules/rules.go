// Package rules loads project review rules that are prepended to the
// model's system prompt.
package rules

import (
	"fmt"
	"os"
	"strings"
)

// LoadResult reports what happened when loading a rules file, so the
// caller can log a missing file without treating it as an error.
type LoadResult struct {
	Content string
	Path    string
	Found   bool
}

// Load reads the rules file at path. An empty path disables rules
// entirely. A missing file is not an error: the review proceeds without
// rules and the caller decides whether to log it. Any other read failure
// is returned.
func Load(path string) (LoadResult, error) {
	if strings.TrimSpace(path) == "" {
		return LoadResult{}, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return LoadResult{Path: path}, nil
		}
		return LoadResult{Path: path}, fmt.Errorf("read rules file %s: %w", path, err)
	}

	return LoadResult{
		Content: strings.TrimSpace(string(data)),
		Path:    path,
		Found:   true,
	}, nil
}
