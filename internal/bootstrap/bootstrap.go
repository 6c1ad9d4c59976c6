// Package bootstrap provides dependency initialization for the
// meditation API.
package bootstrap

import (
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/smilejoy0916/ai-meditation-backend/internal/audio"
	"github.com/smilejoy0916/ai-meditation-backend/internal/auth"
	"github.com/smilejoy0916/ai-meditation-backend/internal/config"
	"github.com/smilejoy0916/ai-meditation-backend/internal/database"
	"github.com/smilejoy0916/ai-meditation-backend/internal/elevenlabs"
	"github.com/smilejoy0916/ai-meditation-backend/internal/meditation"
	"github.com/smilejoy0916/ai-meditation-backend/internal/openai"
	"github.com/smilejoy0916/ai-meditation-backend/internal/settings"
	"github.com/smilejoy0916/ai-meditation-backend/internal/storage"
)

// Dependencies holds all initialized dependencies for the HTTP server.
type Dependencies struct {
	MeditationService *meditation.Service
	Resolver          *settings.Resolver
	Tokens            *auth.TokenManager
	Processor         *audio.FFmpegProcessor

	db *sql.DB
}

// Close releases held resources.
func (d *Dependencies) Close() error {
	if d.db != nil {
		return d.db.Close()
	}
	return nil
}

// NewDependencies creates and initializes all dependencies for the application.
func NewDependencies(cfg *config.Config, logger *slog.Logger) (*Dependencies, error) {
	var (
		db            *sql.DB
		settingsStore settings.Store
		repo          meditation.Repository
	)
	if cfg.DatabaseEnabled() {
		var err error
		db, err = database.Open(cfg.DatabaseURL)
		if err != nil {
			return nil, fmt.Errorf("open database: %w", err)
		}
		settingsStore = settings.NewPostgresStore(db)
		repo = meditation.NewPostgresRepository(db)
		logger.Info("database configured")
	} else {
		settingsStore = settings.NewMemoryStore()
		repo = meditation.NewMemoryRepository()
		logger.Warn("no DATABASE_URL set, settings and meditations are in-memory only")
	}

	resolver := settings.NewResolver(settingsStore, settings.Fallback{
		OpenAIAPIKey:      cfg.OpenAIAPIKey,
		OpenAIModel:       cfg.OpenAIModel,
		ElevenLabsAPIKey:  cfg.ElevenLabsAPIKey,
		ElevenLabsModel:   cfg.ElevenLabsModel,
		ElevenLabsVoiceID: cfg.ElevenLabsVoice,
		ElevenLabsSpeed:   cfg.ElevenLabsSpeed,
		SystemPrompt:      cfg.SystemPrompt,
		ChapterCount:      cfg.ChapterCount,
		SilenceSeconds:    cfg.SilenceSeconds,
		UserPassword:      cfg.UserPassword,
		AdminPassword:     cfg.AdminPassword,
	}, logger)

	store, err := initStorage(cfg, logger)
	if err != nil {
		if db != nil {
			db.Close()
		}
		return nil, err
	}

	processor := audio.NewFFmpegProcessor(cfg.FFmpegPath, cfg.FFprobePath)

	svc := meditation.NewService(
		repo,
		resolver,
		openai.NewChatClient(),
		elevenlabs.NewClient(),
		processor,
		store,
		logger,
		meditation.WithTempDir(cfg.TempDir),
		meditation.WithBackgroundMusic(cfg.BackgroundMusic),
	)

	return &Dependencies{
		MeditationService: svc,
		Resolver:          resolver,
		Tokens:            auth.NewTokenManager(),
		Processor:         processor,
		db:                db,
	}, nil
}

// initStorage creates the appropriate storage backend based on configuration.
func initStorage(cfg *config.Config, logger *slog.Logger) (storage.Storage, error) {
	if !cfg.StorageEnabled() {
		logger.Info("object storage not configured, audio is served locally")
		return storage.Disabled{}, nil
	}

	s3Store, err := storage.NewS3Storage(storage.S3Config{
		Bucket:          cfg.StorageBucket,
		Region:          cfg.StorageRegion,
		Endpoint:        cfg.StorageEndpoint,
		AccessKeyID:     cfg.StorageKeyID,
		SecretAccessKey: cfg.StorageSecret,
	})
	if err != nil {
		return nil, fmt.Errorf("create object storage: %w", err)
	}
	logger.Info("object storage configured",
		slog.String("bucket", cfg.StorageBucket),
		slog.String("region", cfg.StorageRegion),
	)
	return s3Store, nil
}
