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

func TestRenderPrompt(t *testing.T) {
	template := "Disease: {disease}, Symptom: {symptom}, Extra: {additional_instructions}"

	t.Run("all placeholders substituted", func(t *testing.T) {
		out := RenderPrompt(template, "anxiety", "racing heart", "focus on breath")
		assert.Equal(t, "Disease: anxiety, Symptom: racing heart, Extra: focus on breath", out)
	})

	t.Run("empty additional instructions render as None", func(t *testing.T) {
		out := RenderPrompt(template, "anxiety", "racing heart", "")
		assert.Equal(t, "Disease: anxiety, Symptom: racing heart, Extra: None", out)
	})

	t.Run("repeated placeholders all substituted", func(t *testing.T) {
		out := RenderPrompt("{disease} and {disease}", "insomnia", "", "x")
		assert.Equal(t, "insomnia and insomnia", out)
	})
}

func TestChatClient_Generate(t *testing.T) {
	var gotAuth string
	var gotBody map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"choices": []map[string]any{
				{"message": map[string]any{"role": "assistant", "content": "breathe in <break> breathe out"}},
			},
		})
	}))
	defer srv.Close()

	client := NewChatClient(WithBaseURL(srv.URL))

	text, err := client.Generate(context.Background(), Request{
		APIKey: "sk-test",
		Model:  "gpt-4o-mini",
		Prompt: "write a meditation",
	})
	require.NoError(t, err)
	assert.Equal(t, "breathe in <break> breathe out", text)
	assert.Equal(t, "Bearer sk-test", gotAuth)
	assert.Equal(t, "gpt-4o-mini", gotBody["model"])
}

func TestChatClient_Generate_MissingAPIKey(t *testing.T) {
	client := NewChatClient()

	_, err := client.Generate(context.Background(), Request{Model: "gpt-4o-mini"})
	assert.ErrorIs(t, err, ErrAPIKeyRequired)
}

func TestChatClient_Generate_EmptyCompletion(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{"choices": []map[string]any{}})
	}))
	defer srv.Close()

	client := NewChatClient(WithBaseURL(srv.URL))

	_, err := client.Generate(context.Background(), Request{APIKey: "sk-test", Model: "gpt-4o-mini"})
	assert.ErrorIs(t, err, ErrEmptyCompletion)
}

func TestChatClient_Generate_ServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error": {"message": "rate limited"}}`, http.StatusTooManyRequests)
	}))
	defer srv.Close()

	client := NewChatClient(WithBaseURL(srv.URL))

	_, err := client.Generate(context.Background(), Request{APIKey: "sk-test", Model: "gpt-4o-mini"})
	require.Error(t, err)
}
