package openai

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"

	"github.com/mshafer/prreview/internal/domain"
)

// suggestionSchema constrains model output to a parseable suggestion list.
// Models that honor json_schema never emit prose around the payload;
// parseSuggestionJSON still strips markdown fences for the ones that do.
const suggestionSchema = `{
  "type": "object",
  "properties": {
    "reviews": {
      "type": "array",
      "items": {
        "type": "object",
        "properties": {
          "file": {"type": "string"},
          "line": {"type": "integer"},
          "endLine": {"type": "integer"},
          "comment": {"type": "string"},
          "replacement": {"type": "string"},
          "severity": {"type": "string"},
          "category": {"type": "string"}
        },
        "required": ["line", "comment"],
        "additionalProperties": false
      }
    }
  },
  "required": ["reviews"],
  "additionalProperties": false
}`

// Provider produces review suggestions for one file diff via the OpenAI
// chat API. It implements the suggestion provider port of the review
// orchestrator.
type Provider struct {
	client      *HTTPClient
	temperature float64
	maxTokens   int
}

// NewProvider wraps an OpenAI client as a suggestion provider.
func NewProvider(client *HTTPClient, temperature float64, maxTokens int) *Provider {
	return &Provider{
		client:      client,
		temperature: temperature,
		maxTokens:   maxTokens,
	}
}

// Suggest asks the model to review one file's diff and parses the reply
// into untrusted suggestions. The file path is stamped onto each
// suggestion so downstream validation never trusts the model to echo it.
func (p *Provider) Suggest(ctx context.Context, file, systemMsg, userMsg string) ([]domain.Suggestion, error) {
	messages := []Message{
		{Role: "system", Content: systemMsg},
		{Role: "user", Content: userMsg},
	}

	resp, err := p.client.Call(ctx, messages, CallOptions{
		Temperature: p.temperature,
		MaxTokens:   p.maxTokens,
		ResponseFormat: &ResponseFormat{
			Type: "json_schema",
			JSONSchema: &JSONSchema{
				Name:   "code_review_suggestions",
				Strict: false,
				Schema: json.RawMessage(suggestionSchema),
			},
		},
	})
	if err != nil {
		return nil, err
	}

	suggestions, err := parseSuggestionJSON(resp.Text)
	if err != nil {
		return nil, fmt.Errorf("model reply for %s was not parseable: %w", file, err)
	}

	for i := range suggestions {
		suggestions[i].File = file
	}
	return suggestions, nil
}

func parseSuggestionJSON(text string) ([]domain.Suggestion, error) {
	jsonText := extractJSONFromMarkdown(text)
	if jsonText == "" {
		jsonText = text
	}

	var result struct {
		Reviews []domain.Suggestion `json:"reviews"`
	}
	if err := json.Unmarshal([]byte(jsonText), &result); err != nil {
		return nil, fmt.Errorf("failed to parse JSON: %w", err)
	}

	return result.Reviews, nil
}

var markdownJSONRE = regexp.MustCompile("(?s)```(?:json)?\\s*({.*?})\\s*```")

// extractJSONFromMarkdown attempts to extract JSON from markdown code blocks.
func extractJSONFromMarkdown(text string) string {
	matches := markdownJSONRE.FindStringSubmatch(text)
	if len(matches) > 1 {
		return matches[1]
	}
	return ""
}
