package storage

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDisabled(t *testing.T) {
	store := Disabled{}
	ctx := context.Background()

	_, err := store.Upload(ctx, "meditations/abc.mp3", strings.NewReader("data"))
	assert.ErrorIs(t, err, ErrNotConfigured)

	assert.ErrorIs(t, store.Delete(ctx, "meditations/abc.mp3"), ErrNotConfigured)
}

func TestS3Storage_ObjectURL(t *testing.T) {
	t.Run("AWS URL without endpoint", func(t *testing.T) {
		s := &S3Storage{bucket: "meditation-audio", region: "eu-west-1"}
		assert.Equal(t,
			"https://meditation-audio.s3.eu-west-1.amazonaws.com/meditations/abc.mp3",
			s.objectURL("meditations/abc.mp3"),
		)
	})

	t.Run("custom endpoint URL", func(t *testing.T) {
		s := &S3Storage{
			bucket:   "meditation-audio",
			region:   "eu-west-1",
			endpoint: "https://abc.supabase.co/storage/v1/s3/",
		}
		assert.Equal(t,
			"https://abc.supabase.co/storage/v1/s3/meditation-audio/meditations/abc.mp3",
			s.objectURL("meditations/abc.mp3"),
		)
	})
}

func TestNewS3Storage(t *testing.T) {
	store, err := NewS3Storage(S3Config{
		Bucket:          "meditation-audio",
		Region:          "eu-west-1",
		AccessKeyID:     "key",
		SecretAccessKey: "secret",
	})
	assert.NoError(t, err)
	assert.NotNil(t, store)
}
