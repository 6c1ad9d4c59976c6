package audio

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewFFmpegProcessor_Defaults(t *testing.T) {
	p := NewFFmpegProcessor("", "")
	assert.Equal(t, "ffmpeg", p.ffmpegPath)
	assert.Equal(t, "ffprobe", p.ffprobePath)

	custom := NewFFmpegProcessor("/opt/bin/ffmpeg", "/opt/bin/ffprobe")
	assert.Equal(t, "/opt/bin/ffmpeg", custom.ffmpegPath)
	assert.Equal(t, "/opt/bin/ffprobe", custom.ffprobePath)
}

func TestParseDuration(t *testing.T) {
	t.Run("valid output", func(t *testing.T) {
		probe := []byte(`{"format": {"filename": "final.mp3", "duration": "612.483265"}}`)
		dur, err := ParseDuration(probe)
		require.NoError(t, err)
		assert.InDelta(t, 612.483, dur, 0.001)
	})

	t.Run("missing duration", func(t *testing.T) {
		_, err := ParseDuration([]byte(`{"format": {}}`))
		require.Error(t, err)
	})

	t.Run("malformed JSON", func(t *testing.T) {
		_, err := ParseDuration([]byte(`not json`))
		require.Error(t, err)
	})

	t.Run("non-numeric duration", func(t *testing.T) {
		_, err := ParseDuration([]byte(`{"format": {"duration": "N/A"}}`))
		require.Error(t, err)
	})
}
