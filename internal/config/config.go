// Package config provides configuration loading from environment variables.
package config

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/sethvargo/go-envconfig"
)

// Config holds all configuration for the application.
type Config struct {
	// Server settings
	Port        int    `env:"PORT, default=8080" json:"port"`
	FrontendURL string `env:"FRONTEND_URL, default=http://localhost:3000" json:"frontend_url"`

	// Database settings. When DATABASE_URL is empty the service runs
	// with in-memory persistence and env-var settings only.
	DatabaseURL string `env:"DATABASE_URL" json:"-"` // Masked in JSON

	// Storage settings
	TempDir         string `env:"TEMP_DIR, default=/tmp/meditations" json:"temp_dir"`
	StorageBucket   string `env:"STORAGE_BUCKET" json:"storage_bucket,omitempty"`
	StorageRegion   string `env:"STORAGE_REGION" json:"storage_region,omitempty"`
	StorageEndpoint string `env:"STORAGE_ENDPOINT" json:"storage_endpoint,omitempty"`
	StorageKeyID    string `env:"STORAGE_ACCESS_KEY_ID" json:"-"`     // Masked in JSON
	StorageSecret   string `env:"STORAGE_SECRET_ACCESS_KEY" json:"-"` // Masked in JSON

	// Audio settings
	FFmpegPath      string `env:"FFMPEG_PATH, default=ffmpeg" json:"ffmpeg_path"`
	FFprobePath     string `env:"FFPROBE_PATH, default=ffprobe" json:"ffprobe_path"`
	BackgroundMusic string `env:"BACKGROUND_MUSIC_PATH" json:"background_music_path,omitempty"`

	// Per-field fallbacks for the settings singleton, used when the
	// database is unreachable or a stored field is empty.
	OpenAIAPIKey     string  `env:"OPENAI_API_KEY" json:"-"` // Masked in JSON
	OpenAIModel      string  `env:"OPENAI_MODEL, default=gpt-4o-mini" json:"openai_model"`
	ElevenLabsAPIKey string  `env:"ELEVENLABS_API_KEY" json:"-"` // Masked in JSON
	ElevenLabsModel  string  `env:"ELEVENLABS_MODEL_ID, default=eleven_turbo_v2_5" json:"elevenlabs_model_id"`
	ElevenLabsVoice  string  `env:"ELEVENLABS_VOICE_ID, default=21m00Tcm4TlvDq8ikWAM" json:"elevenlabs_voice_id"`
	ElevenLabsSpeed  float64 `env:"ELEVENLABS_SPEED, default=1.0" json:"elevenlabs_speed"`
	ChapterCount     int     `env:"CHAPTER_COUNT, default=3" json:"chapter_count"`
	SilenceSeconds   int     `env:"SILENCE_DURATION_SECONDS, default=60" json:"silence_duration_seconds"`
	SystemPrompt     string  `env:"SYSTEM_PROMPT" json:"system_prompt,omitempty"`
	UserPassword     string  `env:"USER_PASSWORD" json:"-"`  // Masked in JSON
	AdminPassword    string  `env:"ADMIN_PASSWORD" json:"-"` // Masked in JSON

	// Logging settings
	LogFormat string `env:"LOG_FORMAT, default=text" json:"log_format"` // "json" or "text"
	LogLevel  string `env:"LOG_LEVEL, default=info" json:"log_level"`   // "debug", "info", "warn", "error"
}

// DatabaseEnabled returns true if a database connection string is provided.
func (c *Config) DatabaseEnabled() bool {
	return c.DatabaseURL != ""
}

// StorageEnabled returns true if object storage configuration is provided.
func (c *Config) StorageEnabled() bool {
	return c.StorageBucket != "" && c.StorageRegion != ""
}

// Load reads configuration from environment variables using go-envconfig.
func Load() (*Config, error) {
	cfg := &Config{}

	if err := envconfig.Process(context.Background(), cfg); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}

	return cfg, nil
}

// NewLogger creates a structured logger based on the configuration.
// When LogFormat is "json", it outputs JSON logs suitable for production.
// Otherwise, it outputs human-readable text logs.
func (c *Config) NewLogger() *slog.Logger {
	level := parseLogLevel(c.LogLevel)

	var handler slog.Handler
	if strings.ToLower(c.LogFormat) == "json" {
		handler = slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
			Level: level,
		})
	} else {
		handler = slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
			Level: level,
		})
	}

	return slog.New(handler)
}

// String returns a string representation of the config with sensitive values masked.
func (c *Config) String() string {
	return fmt.Sprintf(
		"Config{Port: %d, TempDir: %s, StorageBucket: %s, StorageRegion: %s, OpenAIModel: %s, ElevenLabsModel: %s, ChapterCount: %d, SilenceSeconds: %d, LogFormat: %s, LogLevel: %s}",
		c.Port,
		c.TempDir,
		c.StorageBucket,
		c.StorageRegion,
		c.OpenAIModel,
		c.ElevenLabsModel,
		c.ChapterCount,
		c.SilenceSeconds,
		c.LogFormat,
		c.LogLevel,
	)
}

// parseLogLevel converts a string log level to slog.Level.
func parseLogLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
