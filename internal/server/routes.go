package server

import (
	"log/slog"
	"net/http"
)

// Config contains server configuration options.
type Config struct {
	// AllowedOrigins is the list of allowed CORS origins.
	AllowedOrigins []string
}

// DefaultConfig returns a Config with default values.
func DefaultConfig() Config {
	return Config{
		AllowedOrigins: []string{"*"},
	}
}

// NewRouter creates a new HTTP router with all routes configured.
// It uses Go 1.22+ ServeMux with method-based routing.
func NewRouter(h *Handlers, logger *slog.Logger, cfg Config) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /health", h.Health)
	mux.HandleFunc("GET /api/ffmpeg-status", h.FFmpegStatus)

	mux.HandleFunc("POST /api/auth", h.Auth)
	mux.HandleFunc("POST /api/generate", h.Generate)
	mux.HandleFunc("GET /api/status", h.Status)
	mux.HandleFunc("GET /api/audio", h.Audio)

	mux.HandleFunc("GET /api/admin/settings", h.GetSettings)
	mux.HandleFunc("PUT /api/admin/settings", h.UpdateSettings)
	mux.HandleFunc("GET /api/admin/meditations", h.ListMeditations)
	mux.HandleFunc("GET /api/admin/meditations/{id}", h.GetMeditation)
	mux.HandleFunc("DELETE /api/admin/meditations/{id}", h.DeleteMeditation)

	chain := ChainMiddleware(
		RecoveryMiddleware(logger),
		LoggingMiddleware(logger),
		CORSMiddleware(cfg.AllowedOrigins),
	)

	return chain(mux)
}
