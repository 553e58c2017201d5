package openai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseSuggestionJSON(t *testing.T) {
	plain := `{"reviews":[{"file":"a.go","line":3,"comment":"check errors","severity":"warning"}]}`
	suggestions, err := parseSuggestionJSON(plain)
	require.NoError(t, err)
	require.Len(t, suggestions, 1)
	assert.Equal(t, 3, suggestions[0].Line)
	assert.Equal(t, "check errors", suggestions[0].Body)
	assert.Equal(t, "warning", suggestions[0].Severity)
}

func TestParseSuggestionJSONFenced(t *testing.T) {
	fenced := "Here is my review:\n```json\n" +
		`{"reviews":[{"line":5,"comment":"x","replacement":"y"}]}` +
		"\n```\nHope that helps."
	suggestions, err := parseSuggestionJSON(fenced)
	require.NoError(t, err)
	require.Len(t, suggestions, 1)
	assert.Equal(t, "y", suggestions[0].Replacement)
}

func TestParseSuggestionJSONBareFence(t *testing.T) {
	fenced := "```\n" + `{"reviews":[]}` + "\n```"
	suggestions, err := parseSuggestionJSON(fenced)
	require.NoError(t, err)
	assert.Empty(t, suggestions)
}

func TestParseSuggestionJSONGarbage(t *testing.T) {
	_, err := parseSuggestionJSON("I could not find any issues, great work!")
	require.Error(t, err)
}

func TestSuggestStampsFilePath(t *testing.T) {
	var gotReq ChatCompletionRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotReq))
		body := `{"reviews":[{"file":"spoofed.go","line":2,"comment":"note"}]}`
		w.Write([]byte(chatResponse(body)))
	}))
	defer server.Close()

	client := newTestClient(server.URL)
	provider := NewProvider(client, 0.1, 500)

	suggestions, err := provider.Suggest(context.Background(), "real.go", "system", "user")
	require.NoError(t, err)
	require.Len(t, suggestions, 1)

	// The model cannot redirect a suggestion to another file.
	assert.Equal(t, "real.go", suggestions[0].File)

	require.NotNil(t, gotReq.ResponseFormat)
	assert.Equal(t, "json_schema", gotReq.ResponseFormat.Type)
	require.NotNil(t, gotReq.ResponseFormat.JSONSchema)
	assert.Equal(t, "code_review_suggestions", gotReq.ResponseFormat.JSONSchema.Name)

	require.Len(t, gotReq.Messages, 2)
	assert.Equal(t, "system", gotReq.Messages[0].Role)
	assert.Equal(t, "user", gotReq.Messages[1].Role)
}

func TestSuggestUnparseableReply(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(chatResponse("sorry, plain prose today")))
	}))
	defer server.Close()

	provider := NewProvider(newTestClient(server.URL), 0.1, 500)
	_, err := provider.Suggest(context.Background(), "a.go", "s", "u")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "a.go")
}
