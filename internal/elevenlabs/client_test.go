package elevenlabs

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validRequest() Request {
	return Request{
		APIKey:  "el-test",
		ModelID: "eleven_turbo_v2_5",
		VoiceID: "voice-123",
		Speed:   1.0,
		Text:    "breathe in deeply",
	}
}

func TestSynthesize(t *testing.T) {
	var gotPath, gotKey string
	var gotBody ttsRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotKey = r.Header.Get("xi-api-key")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		w.Header().Set("Content-Type", "audio/mpeg")
		_, _ = w.Write([]byte("mp3-bytes"))
	}))
	defer srv.Close()

	client := NewClient(WithBaseURL(srv.URL))

	audio, err := client.Synthesize(context.Background(), validRequest())
	require.NoError(t, err)

	assert.Equal(t, []byte("mp3-bytes"), audio)
	assert.Equal(t, "/text-to-speech/voice-123", gotPath)
	assert.Equal(t, "el-test", gotKey)
	assert.Equal(t, "breathe in deeply", gotBody.Text)
	assert.Equal(t, "eleven_turbo_v2_5", gotBody.ModelID)
	assert.InDelta(t, 0.5, gotBody.VoiceSettings.Stability, 0.001)
	assert.InDelta(t, 0.75, gotBody.VoiceSettings.SimilarityBoost, 0.001)
}

func TestSynthesize_Validation(t *testing.T) {
	client := NewClient()
	ctx := context.Background()

	t.Run("missing API key", func(t *testing.T) {
		req := validRequest()
		req.APIKey = ""
		_, err := client.Synthesize(ctx, req)
		assert.ErrorIs(t, err, ErrAPIKeyRequired)
	})

	t.Run("missing voice ID", func(t *testing.T) {
		req := validRequest()
		req.VoiceID = ""
		_, err := client.Synthesize(ctx, req)
		assert.ErrorIs(t, err, ErrVoiceIDRequired)
	})

	t.Run("empty text", func(t *testing.T) {
		req := validRequest()
		req.Text = ""
		_, err := client.Synthesize(ctx, req)
		assert.ErrorIs(t, err, ErrEmptyText)
	})
}

func TestSynthesize_APIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"detail": "voice not found"}`, http.StatusNotFound)
	}))
	defer srv.Close()

	client := NewClient(WithBaseURL(srv.URL))

	_, err := client.Synthesize(context.Background(), validRequest())
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrRequestFailed)
	assert.Contains(t, err.Error(), "voice not found")
}

func TestSynthesize_ContextCancelled(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}))
	defer srv.Close()

	client := NewClient(WithBaseURL(srv.URL))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := client.Synthesize(ctx, validRequest())
	require.Error(t, err)
}
