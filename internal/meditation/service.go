package meditation

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/smilejoy0916/ai-meditation-backend/internal/audio"
	"github.com/smilejoy0916/ai-meditation-backend/internal/elevenlabs"
	"github.com/smilejoy0916/ai-meditation-backend/internal/openai"
	"github.com/smilejoy0916/ai-meditation-backend/internal/settings"
	"github.com/smilejoy0916/ai-meditation-backend/internal/storage"
)

// GenerateInput contains the user-submitted parameters for one request.
type GenerateInput struct {
	Disease                string
	Symptom                string
	AdditionalInstructions string
}

// Service orchestrates the generation pipeline: text generation, speech
// synthesis per chapter, audio assembly and persistence.
type Service struct {
	repo      Repository
	resolver  *settings.Resolver
	text      openai.Client
	speech    elevenlabs.Client
	processor audio.Processor
	store     storage.Storage
	logger    *slog.Logger
	tempDir   string
	musicPath string
}

// ServiceOption is a function that configures a Service.
type ServiceOption func(*Service)

// WithTempDir sets the directory holding per-session working files.
func WithTempDir(dir string) ServiceOption {
	return func(s *Service) {
		if dir != "" {
			s.tempDir = dir
		}
	}
}

// WithBackgroundMusic sets the static music file mixed under the voice
// track. When empty, the mixing step is skipped.
func WithBackgroundMusic(path string) ServiceOption {
	return func(s *Service) {
		s.musicPath = path
	}
}

// NewService creates a new generation Service.
func NewService(
	repo Repository,
	resolver *settings.Resolver,
	text openai.Client,
	speech elevenlabs.Client,
	processor audio.Processor,
	store storage.Storage,
	logger *slog.Logger,
	opts ...ServiceOption,
) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	if store == nil {
		store = storage.Disabled{}
	}
	s := &Service{
		repo:      repo,
		resolver:  resolver,
		text:      text,
		speech:    speech,
		processor: processor,
		store:     store,
		logger:    logger,
		tempDir:   filepath.Join(os.TempDir(), "meditations"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// StartGeneration creates a pending meditation record and returns it.
// The caller is expected to run ProcessSession in the background.
func (s *Service) StartGeneration(ctx context.Context, input GenerateInput) (*Meditation, error) {
	m := New(input.Disease, input.Symptom, input.AdditionalInstructions)

	s.logger.Info("starting meditation generation",
		slog.String("session_id", m.SessionID),
		slog.String("disease", input.Disease),
		slog.String("symptom", input.Symptom),
	)

	if err := s.repo.Save(ctx, m); err != nil {
		return nil, fmt.Errorf("save meditation: %w", err)
	}
	return m, nil
}

// ProcessSession runs the full pipeline for a previously created record.
// Any step failure marks the record errored with the failure reason and
// aborts the remaining steps.
func (s *Service) ProcessSession(ctx context.Context, sessionID string) error {
	m, err := s.repo.FindBySessionID(ctx, sessionID)
	if err != nil {
		return fmt.Errorf("find meditation: %w", err)
	}

	sessionDir := filepath.Join(s.tempDir, sessionID)
	if err := os.MkdirAll(sessionDir, 0750); err != nil {
		return s.fail(ctx, m, sessionDir, fmt.Errorf("create session directory: %w", err))
	}

	resolved := s.resolver.Resolve(ctx)

	// Step 0: generate the meditation script.
	s.advance(ctx, m, StepGeneratingText)
	prompt := openai.RenderPrompt(resolved.SystemPrompt, m.Disease, m.Symptom, m.AdditionalInstructions)
	script, err := s.text.Generate(ctx, openai.Request{
		APIKey: resolved.OpenAIAPIKey,
		Model:  resolved.OpenAIModel,
		Prompt: prompt,
	})
	if err != nil {
		return s.fail(ctx, m, sessionDir, err)
	}
	m.Text = script

	chapters := SplitChapters(script, resolved.ChapterCount)

	// Step 1: synthesize each non-empty chapter.
	s.advance(ctx, m, StepSynthesizing)
	var chapterPaths []string
	for i, chapter := range chapters {
		if chapter == "" {
			continue
		}
		audioBytes, synthErr := s.speech.Synthesize(ctx, elevenlabs.Request{
			APIKey:  resolved.ElevenLabsAPIKey,
			ModelID: resolved.ElevenLabsModel,
			VoiceID: resolved.ElevenLabsVoiceID,
			Speed:   resolved.ElevenLabsSpeed,
			Text:    chapter,
		})
		if synthErr != nil {
			return s.fail(ctx, m, sessionDir, synthErr)
		}
		chapterPath := filepath.Join(sessionDir, fmt.Sprintf("chapter%d.mp3", i+1))
		if writeErr := os.WriteFile(chapterPath, audioBytes, 0600); writeErr != nil {
			return s.fail(ctx, m, sessionDir, fmt.Errorf("write chapter audio: %w", writeErr))
		}
		chapterPaths = append(chapterPaths, chapterPath)
	}
	if len(chapterPaths) == 0 {
		return s.fail(ctx, m, sessionDir, errors.New("generated script contained no chapters"))
	}

	// Step 2: concatenate chapters with silence gaps between them.
	s.advance(ctx, m, StepCombining)
	combinedPath := filepath.Join(sessionDir, "combined.mp3")
	silencePath := ""
	inputs := chapterPaths
	if len(chapterPaths) > 1 && resolved.SilenceSeconds > 0 {
		silencePath = filepath.Join(sessionDir, "silence.mp3")
		if silErr := s.processor.CreateSilence(ctx, resolved.SilenceSeconds, silencePath); silErr != nil {
			return s.fail(ctx, m, sessionDir, silErr)
		}
		inputs = interleave(chapterPaths, silencePath)
	}
	if concatErr := s.processor.Concatenate(ctx, inputs, combinedPath); concatErr != nil {
		return s.fail(ctx, m, sessionDir, concatErr)
	}

	// Step 3: mix background music under the voice track, if configured.
	finalPath := combinedPath
	if s.musicPath != "" {
		s.advance(ctx, m, StepMixing)
		finalPath = filepath.Join(sessionDir, "final.mp3")
		if mixErr := s.processor.Overlay(ctx, combinedPath, s.musicPath, finalPath); mixErr != nil {
			return s.fail(ctx, m, sessionDir, mixErr)
		}
	}

	// Step 4: probe duration, upload and complete.
	duration, err := s.processor.Duration(ctx, finalPath)
	if err != nil {
		return s.fail(ctx, m, sessionDir, err)
	}

	audioURL := ""
	key := objectKey(sessionID)
	f, err := os.Open(finalPath)
	if err != nil {
		return s.fail(ctx, m, sessionDir, fmt.Errorf("open final audio: %w", err))
	}
	audioURL, err = s.store.Upload(ctx, key, f)
	_ = f.Close()
	if err != nil {
		if !errors.Is(err, storage.ErrNotConfigured) {
			return s.fail(ctx, m, sessionDir, err)
		}
		audioURL = ""
	}

	s.cleanupIntermediates(chapterPaths, silencePath, combinedPath, finalPath)

	if err := m.Complete(finalPath, audioURL, duration); err != nil {
		return err
	}
	if err := s.repo.Save(ctx, m); err != nil {
		return fmt.Errorf("save completed meditation: %w", err)
	}

	s.logger.Info("meditation generation completed",
		slog.String("session_id", sessionID),
		slog.Float64("duration_seconds", duration),
		slog.Int("chapters", len(chapterPaths)),
	)
	return nil
}

// GetBySessionID retrieves a meditation for the polling client.
func (s *Service) GetBySessionID(ctx context.Context, sessionID string) (*Meditation, error) {
	return s.repo.FindBySessionID(ctx, sessionID)
}

// GetByID retrieves a meditation by database id.
func (s *Service) GetByID(ctx context.Context, id int64) (*Meditation, error) {
	return s.repo.FindByID(ctx, id)
}

// List returns meditations ordered by creation time descending.
func (s *Service) List(ctx context.Context, limit, offset int) ([]*Meditation, error) {
	return s.repo.List(ctx, limit, offset)
}

// Delete removes a meditation record together with its audio artifacts.
func (s *Service) Delete(ctx context.Context, id int64) error {
	m, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return err
	}

	if rmErr := os.RemoveAll(filepath.Join(s.tempDir, m.SessionID)); rmErr != nil {
		s.logger.Warn("failed to remove session directory",
			slog.String("session_id", m.SessionID),
			slog.String("error", rmErr.Error()),
		)
	}
	if m.AudioURL != "" {
		if delErr := s.store.Delete(ctx, objectKey(m.SessionID)); delErr != nil && !errors.Is(delErr, storage.ErrNotConfigured) {
			s.logger.Warn("failed to delete stored audio",
				slog.String("session_id", m.SessionID),
				slog.String("error", delErr.Error()),
			)
		}
	}

	return s.repo.Delete(ctx, id)
}

// advance records the current pipeline step for the polling client.
func (s *Service) advance(ctx context.Context, m *Meditation, step int) {
	m.SetStep(step)
	if err := s.repo.Save(ctx, m); err != nil {
		s.logger.Warn("failed to save pipeline step",
			slog.String("session_id", m.SessionID),
			slog.Int("step", step),
			slog.String("error", err.Error()),
		)
	}
}

// fail marks the record errored, removes the session working directory
// and returns the original error.
func (s *Service) fail(ctx context.Context, m *Meditation, sessionDir string, cause error) error {
	s.logger.Error("meditation generation failed",
		slog.String("session_id", m.SessionID),
		slog.Int("step", m.Step),
		slog.String("error", cause.Error()),
	)

	if err := m.Fail(cause.Error()); err == nil {
		if saveErr := s.repo.Save(ctx, m); saveErr != nil {
			s.logger.Error("failed to save errored meditation",
				slog.String("session_id", m.SessionID),
				slog.String("error", saveErr.Error()),
			)
		}
	}

	if err := os.RemoveAll(sessionDir); err != nil {
		s.logger.Warn("failed to remove session directory",
			slog.String("session_id", m.SessionID),
			slog.String("error", err.Error()),
		)
	}
	return cause
}

// cleanupIntermediates removes per-chapter and scratch files, keeping
// only the final artifact.
func (s *Service) cleanupIntermediates(chapterPaths []string, silencePath, combinedPath, finalPath string) {
	for _, p := range chapterPaths {
		_ = os.Remove(p)
	}
	if silencePath != "" {
		_ = os.Remove(silencePath)
	}
	if combinedPath != finalPath {
		_ = os.Remove(combinedPath)
	}
}

// interleave places the silence file between consecutive chapters.
func interleave(chapterPaths []string, silencePath string) []string {
	out := make([]string, 0, len(chapterPaths)*2-1)
	for i, p := range chapterPaths {
		out = append(out, p)
		if i < len(chapterPaths)-1 {
			out = append(out, silencePath)
		}
	}
	return out
}

// objectKey builds the storage key for a session's final audio.
func objectKey(sessionID string) string {
	return "meditations/" + sessionID + ".mp3"
}
