package server

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/smilejoy0916/ai-meditation-backend/internal/audio"
	"github.com/smilejoy0916/ai-meditation-backend/internal/auth"
	"github.com/smilejoy0916/ai-meditation-backend/internal/meditation"
	"github.com/smilejoy0916/ai-meditation-backend/internal/settings"
)

// defaultListLimit bounds admin meditation listings without an explicit
// limit parameter.
const defaultListLimit = 50

// StatusProber reports ffmpeg tooling availability for diagnostics.
type StatusProber interface {
	Probe(ctx context.Context) audio.ToolStatus
}

// Handlers contains the HTTP handlers for the API.
type Handlers struct {
	service            *meditation.Service
	resolver           *settings.Resolver
	tokens             *auth.TokenManager
	prober             StatusProber
	validator          *validator.Validate
	logger             *slog.Logger
	enableAsyncProcess bool
}

// HandlerOption is a function that configures a Handlers instance.
type HandlerOption func(*Handlers)

// WithAsyncProcessing enables or disables background processing.
// When disabled, Generate only creates the record and returns without
// starting the pipeline. Used by tests.
func WithAsyncProcessing(enabled bool) HandlerOption {
	return func(h *Handlers) {
		h.enableAsyncProcess = enabled
	}
}

// NewHandlers creates a new Handlers instance.
func NewHandlers(
	service *meditation.Service,
	resolver *settings.Resolver,
	tokens *auth.TokenManager,
	prober StatusProber,
	logger *slog.Logger,
	opts ...HandlerOption,
) *Handlers {
	if logger == nil {
		logger = slog.Default()
	}
	h := &Handlers{
		service:            service,
		resolver:           resolver,
		tokens:             tokens,
		prober:             prober,
		validator:          validator.New(),
		logger:             logger,
		enableAsyncProcess: true,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Health handles GET /health requests.
func (h *Handlers) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, HealthResponse{Status: "ok"})
}

// FFmpegStatus handles GET /api/ffmpeg-status requests.
func (h *Handlers) FFmpegStatus(w http.ResponseWriter, r *http.Request) {
	if h.prober == nil {
		writeError(w, http.StatusServiceUnavailable, "audio tooling not configured", "FFMPEG_UNAVAILABLE")
		return
	}
	writeJSON(w, http.StatusOK, h.prober.Probe(r.Context()))
}

// Auth handles POST /api/auth requests. A valid role password yields a
// bearer token for subsequent requests.
func (h *Handlers) Auth(w http.ResponseWriter, r *http.Request) {
	var req AuthRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body", "INVALID_JSON")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error(), "VALIDATION_ERROR")
		return
	}

	role, err := auth.ParseRole(req.Role)
	if err != nil {
		writeError(w, http.StatusBadRequest, "role must be user or admin", "INVALID_ROLE")
		return
	}

	resolved := h.resolver.Resolve(r.Context())
	stored := resolved.UserPassword
	if role == auth.RoleAdmin {
		stored = resolved.AdminPassword
	}
	if !auth.VerifyPassword(stored, req.Password) {
		h.logger.Warn("authentication failed",
			slog.String("role", string(role)),
			slog.String("remote_addr", r.RemoteAddr),
		)
		writeError(w, http.StatusUnauthorized, "invalid credentials", "INVALID_CREDENTIALS")
		return
	}

	token, err := h.tokens.Issue(role)
	if err != nil {
		h.logger.Error("failed to issue token", slog.String("error", err.Error()))
		writeError(w, http.StatusInternalServerError, "failed to issue token", "TOKEN_ISSUE_FAILED")
		return
	}

	writeJSON(w, http.StatusOK, AuthResponse{
		Token:     token,
		Role:      string(role),
		ExpiresAt: time.Now().Add(h.tokens.TTL()).UTC().Format(time.RFC3339),
	})
}

// Generate handles POST /api/generate requests.
func (h *Handlers) Generate(w http.ResponseWriter, r *http.Request) {
	var req GenerateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.Warn("failed to decode request body",
			slog.String("error", err.Error()),
		)
		writeError(w, http.StatusBadRequest, "invalid JSON body", "INVALID_JSON")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		h.logger.Warn("request validation failed",
			slog.String("error", err.Error()),
		)
		writeError(w, http.StatusBadRequest, err.Error(), "VALIDATION_ERROR")
		return
	}

	input := meditation.GenerateInput{
		Disease:                strings.TrimSpace(req.Disease),
		Symptom:                strings.TrimSpace(req.Symptom),
		AdditionalInstructions: strings.TrimSpace(req.AdditionalInstructions),
	}
	if input.Disease == "" || input.Symptom == "" {
		writeError(w, http.StatusBadRequest, "disease and symptom are required", "VALIDATION_ERROR")
		return
	}

	created, err := h.service.StartGeneration(r.Context(), input)
	if err != nil {
		h.logger.Error("failed to start generation", slog.String("error", err.Error()))
		writeError(w, http.StatusInternalServerError, "failed to start generation", "GENERATION_START_FAILED")
		return
	}

	// Run the pipeline detached from the request lifetime.
	if h.enableAsyncProcess {
		go func(ctx context.Context, sessionID string) {
			if processErr := h.service.ProcessSession(ctx, sessionID); processErr != nil {
				h.logger.Error("background generation failed",
					slog.String("session_id", sessionID),
					slog.String("error", processErr.Error()),
				)
			}
		}(context.WithoutCancel(r.Context()), created.SessionID)
	}

	writeJSON(w, http.StatusAccepted, GenerateResponse{
		SessionID: created.SessionID,
		Status:    string(created.Status),
	})
}

// Status handles GET /api/status requests.
func (h *Handlers) Status(w http.ResponseWriter, r *http.Request) {
	sessionID := r.URL.Query().Get("sessionId")
	if sessionID == "" {
		writeError(w, http.StatusBadRequest, "sessionId is required", "MISSING_SESSION_ID")
		return
	}

	m, err := h.service.GetBySessionID(r.Context(), sessionID)
	if err != nil {
		if errors.Is(err, meditation.ErrNotFound) {
			writeError(w, http.StatusNotFound, "session not found", "SESSION_NOT_FOUND")
			return
		}
		h.logger.Error("failed to get session",
			slog.String("session_id", sessionID),
			slog.String("error", err.Error()),
		)
		writeError(w, http.StatusInternalServerError, "failed to get session", "SESSION_FETCH_FAILED")
		return
	}

	writeJSON(w, http.StatusOK, StatusResponse{
		Status:          string(m.Status),
		CurrentStep:     m.Step,
		AudioURL:        m.AudioURL,
		DurationSeconds: m.DurationSeconds,
		Error:           m.Error,
	})
}

// Audio handles GET /api/audio requests. Completed meditations stream
// the local file when present, otherwise redirect to the storage URL.
func (h *Handlers) Audio(w http.ResponseWriter, r *http.Request) {
	sessionID := r.URL.Query().Get("sessionId")
	if sessionID == "" {
		writeError(w, http.StatusBadRequest, "sessionId is required", "MISSING_SESSION_ID")
		return
	}

	m, err := h.service.GetBySessionID(r.Context(), sessionID)
	if err != nil {
		if errors.Is(err, meditation.ErrNotFound) {
			writeError(w, http.StatusNotFound, "session not found", "SESSION_NOT_FOUND")
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to get session", "SESSION_FETCH_FAILED")
		return
	}
	if m.Status != meditation.StatusCompleted {
		writeError(w, http.StatusNotFound, "audio not ready", "AUDIO_NOT_READY")
		return
	}

	if m.AudioPath != "" {
		if _, statErr := os.Stat(m.AudioPath); statErr == nil {
			w.Header().Set("Content-Type", "audio/mpeg")
			w.Header().Set("Cache-Control", "public, max-age=3600")
			http.ServeFile(w, r, m.AudioPath)
			return
		}
	}
	if m.AudioURL != "" {
		w.Header().Set("Cache-Control", "public, max-age=3600")
		http.Redirect(w, r, m.AudioURL, http.StatusFound)
		return
	}

	writeError(w, http.StatusNotFound, "audio file not available", "AUDIO_NOT_FOUND")
}

// GetSettings handles GET /api/admin/settings requests.
func (h *Handlers) GetSettings(w http.ResponseWriter, r *http.Request) {
	if !h.requireAdmin(w, r) {
		return
	}
	writeJSON(w, http.StatusOK, h.resolver.Resolve(r.Context()))
}

// UpdateSettings handles PUT /api/admin/settings requests.
func (h *Handlers) UpdateSettings(w http.ResponseWriter, r *http.Request) {
	if !h.requireAdmin(w, r) {
		return
	}

	var patch settings.Patch
	if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body", "INVALID_JSON")
		return
	}

	updated, err := h.resolver.Update(r.Context(), patch)
	if err != nil {
		if errors.Is(err, settings.ErrNotFound) {
			writeError(w, http.StatusServiceUnavailable, "settings store not configured", "SETTINGS_STORE_UNAVAILABLE")
			return
		}
		h.logger.Error("failed to update settings", slog.String("error", err.Error()))
		writeError(w, http.StatusInternalServerError, "failed to update settings", "SETTINGS_UPDATE_FAILED")
		return
	}

	writeJSON(w, http.StatusOK, updated)
}

// ListMeditations handles GET /api/admin/meditations requests.
func (h *Handlers) ListMeditations(w http.ResponseWriter, r *http.Request) {
	if !h.requireAdmin(w, r) {
		return
	}

	limit := queryInt(r, "limit", defaultListLimit)
	offset := queryInt(r, "offset", 0)
	if limit <= 0 {
		limit = defaultListLimit
	}
	if offset < 0 {
		offset = 0
	}

	items, err := h.service.List(r.Context(), limit, offset)
	if err != nil {
		h.logger.Error("failed to list meditations", slog.String("error", err.Error()))
		writeError(w, http.StatusInternalServerError, "failed to list meditations", "MEDITATION_LIST_FAILED")
		return
	}

	resp := MeditationListResponse{
		Meditations: make([]MeditationResponse, 0, len(items)),
		Limit:       limit,
		Offset:      offset,
		Count:       len(items),
	}
	for _, m := range items {
		resp.Meditations = append(resp.Meditations, toMeditationResponse(m))
	}
	writeJSON(w, http.StatusOK, resp)
}

// GetMeditation handles GET /api/admin/meditations/{id} requests.
func (h *Handlers) GetMeditation(w http.ResponseWriter, r *http.Request) {
	if !h.requireAdmin(w, r) {
		return
	}

	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid meditation id", "INVALID_MEDITATION_ID")
		return
	}

	m, err := h.service.GetByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, meditation.ErrNotFound) {
			writeError(w, http.StatusNotFound, "meditation not found", "MEDITATION_NOT_FOUND")
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to get meditation", "MEDITATION_FETCH_FAILED")
		return
	}
	writeJSON(w, http.StatusOK, toMeditationResponse(m))
}

// DeleteMeditation handles DELETE /api/admin/meditations/{id} requests.
func (h *Handlers) DeleteMeditation(w http.ResponseWriter, r *http.Request) {
	if !h.requireAdmin(w, r) {
		return
	}

	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid meditation id", "INVALID_MEDITATION_ID")
		return
	}

	if err := h.service.Delete(r.Context(), id); err != nil {
		if errors.Is(err, meditation.ErrNotFound) {
			writeError(w, http.StatusNotFound, "meditation not found", "MEDITATION_NOT_FOUND")
			return
		}
		h.logger.Error("failed to delete meditation",
			slog.Int64("id", id),
			slog.String("error", err.Error()),
		)
		writeError(w, http.StatusInternalServerError, "failed to delete meditation", "MEDITATION_DELETE_FAILED")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// requireAdmin authorizes admin routes. A bearer token issued for the
// admin role is preferred; the password query parameter remains as a
// compatibility path. Writes the error response on failure.
func (h *Handlers) requireAdmin(w http.ResponseWriter, r *http.Request) bool {
	if header := r.Header.Get("Authorization"); strings.HasPrefix(header, "Bearer ") {
		token := strings.TrimPrefix(header, "Bearer ")
		role, err := h.tokens.Validate(token)
		if err == nil && role == auth.RoleAdmin {
			return true
		}
		writeError(w, http.StatusUnauthorized, "invalid or expired token", "INVALID_TOKEN")
		return false
	}

	if password := r.URL.Query().Get("password"); password != "" {
		resolved := h.resolver.Resolve(r.Context())
		if auth.VerifyPassword(resolved.AdminPassword, password) {
			return true
		}
	}

	writeError(w, http.StatusUnauthorized, "admin authorization required", "UNAUTHORIZED")
	return false
}

// toMeditationResponse maps the domain record onto the admin DTO.
func toMeditationResponse(m *meditation.Meditation) MeditationResponse {
	return MeditationResponse{
		ID:                     m.ID,
		SessionID:              m.SessionID,
		Disease:                m.Disease,
		Symptom:                m.Symptom,
		AdditionalInstructions: m.AdditionalInstructions,
		Text:                   m.Text,
		AudioURL:               m.AudioURL,
		DurationSeconds:        m.DurationSeconds,
		Status:                 string(m.Status),
		Error:                  m.Error,
		CreatedAt:              m.CreatedAt.UTC().Format(time.RFC3339),
	}
}

// queryInt parses an integer query parameter with a default.
func queryInt(r *http.Request, name string, def int) int {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return def
	}
	return n
}

// writeJSON writes a JSON response.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		slog.Error("failed to encode JSON response", slog.String("error", err.Error()))
	}
}

// writeError writes an error response in the standard format.
func writeError(w http.ResponseWriter, status int, message, code string) {
	writeJSON(w, status, ErrorResponse{
		Error: message,
		Code:  code,
	})
}
