package meditation

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/smilejoy0916/ai-meditation-backend/internal/elevenlabs"
	"github.com/smilejoy0916/ai-meditation-backend/internal/openai"
	"github.com/smilejoy0916/ai-meditation-backend/internal/settings"
	"github.com/smilejoy0916/ai-meditation-backend/internal/storage"
)

// fakeTextClient returns a canned script or an error.
type fakeTextClient struct {
	script  string
	err     error
	prompts []string
}

func (f *fakeTextClient) Generate(_ context.Context, req openai.Request) (string, error) {
	f.prompts = append(f.prompts, req.Prompt)
	if f.err != nil {
		return "", f.err
	}
	return f.script, nil
}

// fakeSpeechClient records synthesized chapters.
type fakeSpeechClient struct {
	err   error
	texts []string
}

func (f *fakeSpeechClient) Synthesize(_ context.Context, req elevenlabs.Request) ([]byte, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.texts = append(f.texts, req.Text)
	return []byte("mp3:" + req.Text), nil
}

// fakeProcessor writes marker files and records concatenation inputs.
type fakeProcessor struct {
	concatInputs []string
	silenceSecs  []int
	overlayed    bool
	duration     float64
	err          error
}

func (f *fakeProcessor) CreateSilence(_ context.Context, seconds int, outputPath string) error {
	if f.err != nil {
		return f.err
	}
	f.silenceSecs = append(f.silenceSecs, seconds)
	return os.WriteFile(outputPath, []byte("silence"), 0600)
}

func (f *fakeProcessor) Concatenate(_ context.Context, inputs []string, outputPath string) error {
	if f.err != nil {
		return f.err
	}
	f.concatInputs = append([]string{}, inputs...)
	return os.WriteFile(outputPath, []byte("combined"), 0600)
}

func (f *fakeProcessor) Overlay(_ context.Context, voicePath, musicPath, outputPath string) error {
	if f.err != nil {
		return f.err
	}
	f.overlayed = true
	return os.WriteFile(outputPath, []byte("mixed"), 0600)
}

func (f *fakeProcessor) Duration(_ context.Context, _ string) (float64, error) {
	if f.err != nil {
		return 0, f.err
	}
	return f.duration, nil
}

// fakeStorage records uploads.
type fakeStorage struct {
	uploads map[string][]byte
	deleted []string
	err     error
}

func newFakeStorage() *fakeStorage {
	return &fakeStorage{uploads: make(map[string][]byte)}
}

func (f *fakeStorage) Upload(_ context.Context, key string, data io.Reader) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	b, _ := io.ReadAll(data)
	f.uploads[key] = b
	return "https://storage.example.com/" + key, nil
}

func (f *fakeStorage) Delete(_ context.Context, key string) error {
	if f.err != nil {
		return f.err
	}
	f.deleted = append(f.deleted, key)
	return nil
}

func testResolver() *settings.Resolver {
	return settings.NewResolver(nil, settings.Fallback{
		OpenAIAPIKey:      "sk-test",
		OpenAIModel:       "gpt-4o-mini",
		ElevenLabsAPIKey:  "el-test",
		ElevenLabsModel:   "eleven_turbo_v2_5",
		ElevenLabsVoiceID: "voice-1",
		ElevenLabsSpeed:   1.0,
		ChapterCount:      3,
		SilenceSeconds:    60,
	}, nil)
}

func newTestService(t *testing.T, text *fakeTextClient, speech *fakeSpeechClient, proc *fakeProcessor, store storage.Storage, opts ...ServiceOption) (*Service, *MemoryRepository) {
	t.Helper()
	repo := NewMemoryRepository()
	opts = append([]ServiceOption{WithTempDir(t.TempDir())}, opts...)
	svc := NewService(repo, testResolver(), text, speech, proc, store, nil, opts...)
	return svc, repo
}

func TestService_EndToEnd_ThreeChaptersTwoGaps(t *testing.T) {
	text := &fakeTextClient{script: "settle down <break> relax deeper <break> visualise healing"}
	speech := &fakeSpeechClient{}
	proc := &fakeProcessor{duration: 612.5}
	store := newFakeStorage()
	svc, _ := newTestService(t, text, speech, proc, store)
	ctx := context.Background()

	m, err := svc.StartGeneration(ctx, GenerateInput{
		Disease: "anxiety",
		Symptom: "racing heart",
	})
	require.NoError(t, err)
	assert.Equal(t, StatusPending, m.Status)
	assert.NotEmpty(t, m.SessionID)

	require.NoError(t, svc.ProcessSession(ctx, m.SessionID))

	// All three chapters synthesized in order.
	assert.Equal(t, []string{"settle down", "relax deeper", "visualise healing"}, speech.texts)

	// Exactly two silence gaps between three chapters.
	silenceCount := 0
	for _, in := range proc.concatInputs {
		if strings.HasSuffix(in, "silence.mp3") {
			silenceCount++
		}
	}
	assert.Equal(t, 2, silenceCount)
	assert.Len(t, proc.concatInputs, 5)
	assert.Equal(t, []int{60}, proc.silenceSecs)

	got, err := svc.GetBySessionID(ctx, m.SessionID)
	require.NoError(t, err)
	assert.Equal(t, StatusCompleted, got.Status)
	assert.Equal(t, StepDone, got.Step)
	assert.InDelta(t, 612.5, got.DurationSeconds, 0.001)
	assert.Equal(t, "https://storage.example.com/meditations/"+m.SessionID+".mp3", got.AudioURL)
	assert.Contains(t, got.Text, "<break>")

	// The final artifact was uploaded.
	assert.Contains(t, store.uploads, "meditations/"+m.SessionID+".mp3")
}

func TestService_PromptRendersUserInput(t *testing.T) {
	text := &fakeTextClient{script: "a <break> b <break> c"}
	svc, _ := newTestService(t, text, &fakeSpeechClient{}, &fakeProcessor{duration: 1}, newFakeStorage())
	ctx := context.Background()

	m, err := svc.StartGeneration(ctx, GenerateInput{
		Disease:                "insomnia",
		Symptom:                "restlessness",
		AdditionalInstructions: "mention the ocean",
	})
	require.NoError(t, err)
	require.NoError(t, svc.ProcessSession(ctx, m.SessionID))

	require.Len(t, text.prompts, 1)
	assert.Contains(t, text.prompts[0], "insomnia")
	assert.Contains(t, text.prompts[0], "restlessness")
	assert.Contains(t, text.prompts[0], "mention the ocean")
}

func TestService_TextGenerationFailure(t *testing.T) {
	text := &fakeTextClient{err: errors.New("model overloaded")}
	svc, _ := newTestService(t, text, &fakeSpeechClient{}, &fakeProcessor{duration: 1}, newFakeStorage())
	ctx := context.Background()

	m, err := svc.StartGeneration(ctx, GenerateInput{Disease: "anxiety", Symptom: "racing heart"})
	require.NoError(t, err)

	require.Error(t, svc.ProcessSession(ctx, m.SessionID))

	got, err := svc.GetBySessionID(ctx, m.SessionID)
	require.NoError(t, err)
	assert.Equal(t, StatusError, got.Status)
	assert.Contains(t, got.Error, "model overloaded")
}

func TestService_SynthesisFailure(t *testing.T) {
	text := &fakeTextClient{script: "a <break> b <break> c"}
	speech := &fakeSpeechClient{err: errors.New("voice not found")}
	svc, _ := newTestService(t, text, speech, &fakeProcessor{duration: 1}, newFakeStorage())
	ctx := context.Background()

	m, err := svc.StartGeneration(ctx, GenerateInput{Disease: "anxiety", Symptom: "racing heart"})
	require.NoError(t, err)

	require.Error(t, svc.ProcessSession(ctx, m.SessionID))

	got, _ := svc.GetBySessionID(ctx, m.SessionID)
	assert.Equal(t, StatusError, got.Status)
	assert.Contains(t, got.Error, "voice not found")
}

func TestService_StorageNotConfigured_KeepsLocalArtifact(t *testing.T) {
	text := &fakeTextClient{script: "a <break> b <break> c"}
	svc, _ := newTestService(t, text, &fakeSpeechClient{}, &fakeProcessor{duration: 42}, storage.Disabled{})
	ctx := context.Background()

	m, err := svc.StartGeneration(ctx, GenerateInput{Disease: "anxiety", Symptom: "racing heart"})
	require.NoError(t, err)
	require.NoError(t, svc.ProcessSession(ctx, m.SessionID))

	got, err := svc.GetBySessionID(ctx, m.SessionID)
	require.NoError(t, err)
	assert.Equal(t, StatusCompleted, got.Status)
	assert.Empty(t, got.AudioURL)
	assert.NotEmpty(t, got.AudioPath)
	_, statErr := os.Stat(got.AudioPath)
	assert.NoError(t, statErr)
}

func TestService_StorageFailure_MarksError(t *testing.T) {
	text := &fakeTextClient{script: "a <break> b <break> c"}
	store := newFakeStorage()
	store.err = errors.New("bucket unavailable")
	svc, _ := newTestService(t, text, &fakeSpeechClient{}, &fakeProcessor{duration: 1}, store)
	ctx := context.Background()

	m, err := svc.StartGeneration(ctx, GenerateInput{Disease: "anxiety", Symptom: "racing heart"})
	require.NoError(t, err)

	require.Error(t, svc.ProcessSession(ctx, m.SessionID))

	got, _ := svc.GetBySessionID(ctx, m.SessionID)
	assert.Equal(t, StatusError, got.Status)
	assert.Contains(t, got.Error, "bucket unavailable")
}

func TestService_BackgroundMusicOverlay(t *testing.T) {
	musicDir := t.TempDir()
	musicPath := filepath.Join(musicDir, "music.mp3")
	require.NoError(t, os.WriteFile(musicPath, []byte("music"), 0600))

	text := &fakeTextClient{script: "a <break> b <break> c"}
	proc := &fakeProcessor{duration: 1}
	svc, _ := newTestService(t, text, &fakeSpeechClient{}, proc, newFakeStorage(),
		WithBackgroundMusic(musicPath))
	ctx := context.Background()

	m, err := svc.StartGeneration(ctx, GenerateInput{Disease: "anxiety", Symptom: "racing heart"})
	require.NoError(t, err)
	require.NoError(t, svc.ProcessSession(ctx, m.SessionID))

	assert.True(t, proc.overlayed)

	got, _ := svc.GetBySessionID(ctx, m.SessionID)
	assert.True(t, strings.HasSuffix(got.AudioPath, "final.mp3"))
}

func TestService_SingleChapter_NoSilence(t *testing.T) {
	text := &fakeTextClient{script: "just one chapter, no markers"}
	proc := &fakeProcessor{duration: 1}
	svc, _ := newTestService(t, text, &fakeSpeechClient{}, proc, newFakeStorage())
	ctx := context.Background()

	m, err := svc.StartGeneration(ctx, GenerateInput{Disease: "anxiety", Symptom: "racing heart"})
	require.NoError(t, err)
	require.NoError(t, svc.ProcessSession(ctx, m.SessionID))

	// One synthesized chapter, no silence files created.
	assert.Empty(t, proc.silenceSecs)
	assert.Len(t, proc.concatInputs, 1)
}

func TestService_Delete_RemovesArtifacts(t *testing.T) {
	text := &fakeTextClient{script: "a <break> b <break> c"}
	store := newFakeStorage()
	svc, _ := newTestService(t, text, &fakeSpeechClient{}, &fakeProcessor{duration: 1}, store)
	ctx := context.Background()

	m, err := svc.StartGeneration(ctx, GenerateInput{Disease: "anxiety", Symptom: "racing heart"})
	require.NoError(t, err)
	require.NoError(t, svc.ProcessSession(ctx, m.SessionID))

	stored, err := svc.GetBySessionID(ctx, m.SessionID)
	require.NoError(t, err)

	require.NoError(t, svc.Delete(ctx, stored.ID))

	_, err = svc.GetByID(ctx, stored.ID)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Equal(t, []string{"meditations/" + m.SessionID + ".mp3"}, store.deleted)
}

func TestService_ProcessUnknownSession(t *testing.T) {
	svc, _ := newTestService(t, &fakeTextClient{}, &fakeSpeechClient{}, &fakeProcessor{}, newFakeStorage())

	err := svc.ProcessSession(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}
