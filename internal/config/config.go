package config

import (
	"errors"
	"fmt"
	"strings"
)

// Config represents the full application configuration.
type Config struct {
	GitHub  GitHubConfig  `yaml:"github"`
	OpenAI  OpenAIConfig  `yaml:"openai"`
	Review  ReviewConfig  `yaml:"review"`
	HTTP    HTTPConfig    `yaml:"http"`
	Logging LoggingConfig `yaml:"logging"`
}

// GitHubConfig configures access to the GitHub API.
type GitHubConfig struct {
	Token string `yaml:"token"`

	// BaseURL overrides the API endpoint (GitHub Enterprise).
	BaseURL string `yaml:"baseURL"`
}

// OpenAIConfig configures the suggestion model.
type OpenAIConfig struct {
	APIKey      string  `yaml:"apiKey"`
	Model       string  `yaml:"model"`
	Temperature float64 `yaml:"temperature"`
	MaxTokens   int     `yaml:"maxTokens"`
}

// ReviewConfig configures the review behavior.
type ReviewConfig struct {
	// RulesFile is the path to a project rules file prepended to the
	// system prompt. Empty disables rules loading; a missing file is
	// logged and ignored.
	RulesFile string `yaml:"rulesFile"`

	// Instructions are extra free-form instructions appended to the
	// system prompt.
	Instructions string `yaml:"instructions"`

	// ExcludePatterns are glob patterns for files that should not be
	// reviewed.
	ExcludePatterns []string `yaml:"excludePatterns"`

	// Concurrency bounds the number of files analyzed in parallel.
	Concurrency int `yaml:"concurrency"`

	// MaxDiffTokens bounds the per-file diff included in a prompt.
	MaxDiffTokens int `yaml:"maxDiffTokens"`

	// AllowContextLines permits anchoring comments on unchanged lines.
	AllowContextLines bool `yaml:"allowContextLines"`

	// PostStartNotice posts a conversation comment when a run begins.
	PostStartNotice bool `yaml:"postStartNotice"`
}

// HTTPConfig holds global HTTP client settings.
type HTTPConfig struct {
	Timeout           string  `yaml:"timeout"`
	MaxRetries        int     `yaml:"maxRetries"`
	InitialBackoff    string  `yaml:"initialBackoff"`
	MaxBackoff        string  `yaml:"maxBackoff"`
	BackoffMultiplier float64 `yaml:"backoffMultiplier"`
}

// LoggingConfig configures log output.
type LoggingConfig struct {
	Level  string `yaml:"level"`  // debug, info, error
	Format string `yaml:"format"` // json, human, auto
}

// Validate reports configuration problems that make a run impossible.
// A validation failure aborts before any network call.
func (c Config) Validate() error {
	var problems []string

	if strings.TrimSpace(c.GitHub.Token) == "" {
		problems = append(problems, "github token is required (set GITHUB_TOKEN)")
	}
	if strings.TrimSpace(c.OpenAI.APIKey) == "" {
		problems = append(problems, "openai api key is required (set OPENAI_API_KEY)")
	}
	if c.OpenAI.Model == "" {
		problems = append(problems, "openai model must not be empty")
	}
	if c.Review.Concurrency < 1 {
		problems = append(problems, fmt.Sprintf("review concurrency must be at least 1, got %d", c.Review.Concurrency))
	}
	if c.OpenAI.MaxTokens < 1 {
		problems = append(problems, fmt.Sprintf("openai max tokens must be at least 1, got %d", c.OpenAI.MaxTokens))
	}

	if len(problems) > 0 {
		return errors.New("invalid configuration: " + strings.Join(problems, "; "))
	}
	return nil
}
