package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewGeneratorRejectsUnknownProvider(t *testing.T) {
	_, err := NewGenerator(context.Background(), Config{Provider: "carrier-pigeon", APIKey: "k"})
	assert.ErrorContains(t, err, "unsupported provider")
}

func TestNewGeneratorRequiresKey(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "")
	_, err := NewGenerator(context.Background(), Config{Provider: ProviderOpenAI})
	assert.ErrorContains(t, err, "missing API key")
}

func TestKeyOrEnv(t *testing.T) {
	t.Setenv("GEMINI_API_KEY", "")
	t.Setenv("GOOGLE_API_KEY", "from-google")
	assert.Equal(t, "explicit", keyOrEnv("explicit", "GEMINI_API_KEY"))
	assert.Equal(t, "from-google", keyOrEnv("", "GEMINI_API_KEY", "GOOGLE_API_KEY"))
}

func TestOpenAIGenerate(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		var req map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "gpt-test", req["model"])

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"id":      "chatcmpl-1",
			"object":  "chat.completion",
			"choices": []map[string]any{{"index": 0, "message": map[string]any{"role": "assistant", "content": "```html\n<p>hi</p>\n```"}}},
		})
	}))
	defer srv.Close()

	gen, err := NewOpenAI("gpt-test", srv.URL, "test-key")
	require.NoError(t, err)

	out, err := gen.Generate(context.Background(), "write an email")
	require.NoError(t, err)
	assert.Equal(t, "```html\n<p>hi</p>\n```", out)
}

func TestOpenAINoChoices(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"x","choices":[]}`))
	}))
	defer srv.Close()

	gen, err := NewOpenAI("", srv.URL, "test-key")
	require.NoError(t, err)
	_, err = gen.Generate(context.Background(), "p")
	assert.ErrorContains(t, err, "no choices")
}
