package settings

import (
	"context"
	"errors"
	"log/slog"
)

// Fallback carries the environment-variable values applied per field
// when the store is unreachable or a stored field is empty.
type Fallback struct {
	OpenAIAPIKey      string
	OpenAIModel       string
	ElevenLabsAPIKey  string
	ElevenLabsModel   string
	ElevenLabsVoiceID string
	ElevenLabsSpeed   float64
	SystemPrompt      string
	ChapterCount      int
	SilenceSeconds    int
	UserPassword      string
	AdminPassword     string
}

// Resolver combines the settings store with environment fallbacks.
// Every field falls back independently: a reachable store with a blank
// openai_api_key still picks up OPENAI_API_KEY from the environment.
type Resolver struct {
	store    Store
	fallback Fallback
	logger   *slog.Logger
}

// NewResolver creates a Resolver. store may be nil, in which case every
// resolution uses the fallback values only.
func NewResolver(store Store, fallback Fallback, logger *slog.Logger) *Resolver {
	if logger == nil {
		logger = slog.Default()
	}
	return &Resolver{
		store:    store,
		fallback: fallback,
		logger:   logger,
	}
}

// Store returns the underlying store, or nil when none is configured.
func (r *Resolver) Store() Store {
	return r.store
}

// Resolve returns the effective settings for a generation request.
// Store errors degrade to fallback values rather than failing the request.
func (r *Resolver) Resolve(ctx context.Context) Settings {
	var stored Settings
	if r.store != nil {
		s, err := r.store.Get(ctx)
		switch {
		case err == nil:
			stored = *s
		case errors.Is(err, ErrNotFound):
			// No row yet; fall through to fallbacks.
		default:
			r.logger.Warn("settings store unreachable, using environment fallback",
				slog.String("error", err.Error()),
			)
		}
	}
	return r.merge(stored)
}

// Update applies a patch through the store and returns the stored result.
func (r *Resolver) Update(ctx context.Context, patch Patch) (*Settings, error) {
	if r.store == nil {
		return nil, ErrNotFound
	}
	return r.store.Update(ctx, patch)
}

// merge fills empty stored fields from the fallback and normalizes bounds.
func (r *Resolver) merge(s Settings) Settings {
	fb := r.fallback

	if s.OpenAIAPIKey == "" {
		s.OpenAIAPIKey = fb.OpenAIAPIKey
	}
	if s.OpenAIModel == "" {
		s.OpenAIModel = fb.OpenAIModel
	}
	if s.ElevenLabsAPIKey == "" {
		s.ElevenLabsAPIKey = fb.ElevenLabsAPIKey
	}
	if s.ElevenLabsModel == "" {
		s.ElevenLabsModel = fb.ElevenLabsModel
	}
	if s.ElevenLabsVoiceID == "" {
		s.ElevenLabsVoiceID = fb.ElevenLabsVoiceID
	}
	if s.ElevenLabsSpeed <= 0 {
		s.ElevenLabsSpeed = fb.ElevenLabsSpeed
	}
	if s.ElevenLabsSpeed <= 0 {
		s.ElevenLabsSpeed = 1.0
	}
	if s.SystemPrompt == "" {
		s.SystemPrompt = fb.SystemPrompt
	}
	if s.SystemPrompt == "" {
		s.SystemPrompt = DefaultSystemPrompt
	}
	if s.ChapterCount == 0 {
		s.ChapterCount = fb.ChapterCount
	}
	s.ChapterCount = clampChapterCount(s.ChapterCount)
	if s.SilenceSeconds <= 0 {
		s.SilenceSeconds = fb.SilenceSeconds
	}
	if s.UserPassword == "" {
		s.UserPassword = fb.UserPassword
	}
	if s.AdminPassword == "" {
		s.AdminPassword = fb.AdminPassword
	}
	return s
}
