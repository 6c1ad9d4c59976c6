// Package server provides the HTTP layer of the meditation API.
// It includes handlers, middleware, routes, and DTOs separated from
// domain types.
package server

// AuthRequest is the HTTP request body for obtaining a session token.
type AuthRequest struct {
	// Role is the requested access level, "user" or "admin".
	Role string `json:"role" validate:"required"`
	// Password is the role password.
	Password string `json:"password" validate:"required"`
}

// AuthResponse is the HTTP response after successful authentication.
type AuthResponse struct {
	// Token is the bearer token for subsequent requests.
	Token string `json:"token"`
	// Role is the granted access level.
	Role string `json:"role"`
	// ExpiresAt is the RFC 3339 expiry time of the token.
	ExpiresAt string `json:"expires_at"`
}

// GenerateRequest is the HTTP request body for starting a generation.
type GenerateRequest struct {
	// Disease is the condition the meditation addresses.
	Disease string `json:"disease" validate:"required,max=500"`
	// Symptom is the symptom the meditation addresses.
	Symptom string `json:"symptom" validate:"required,max=500"`
	// AdditionalInstructions carries optional free-form guidance.
	AdditionalInstructions string `json:"additionalInstructions" validate:"max=2000"`
}

// GenerateResponse is the HTTP response after starting a generation.
type GenerateResponse struct {
	// SessionID identifies the generation for polling.
	SessionID string `json:"sessionId"`
	// Status is the initial record status.
	Status string `json:"status"`
}

// StatusResponse is the HTTP response for polling a generation.
type StatusResponse struct {
	// Status is "pending", "completed" or "error".
	Status string `json:"status"`
	// CurrentStep is the pipeline step (0-4).
	CurrentStep int `json:"currentStep"`
	// AudioURL is the storage URL of the final audio, if uploaded.
	AudioURL string `json:"audioUrl,omitempty"`
	// DurationSeconds is the length of the final audio once completed.
	DurationSeconds float64 `json:"durationSeconds,omitempty"`
	// Error contains the failure reason when status is "error".
	Error string `json:"error,omitempty"`
}

// MeditationResponse is one meditation record in admin responses.
type MeditationResponse struct {
	ID                     int64   `json:"id"`
	SessionID              string  `json:"sessionId"`
	Disease                string  `json:"disease"`
	Symptom                string  `json:"symptom"`
	AdditionalInstructions string  `json:"additionalInstructions,omitempty"`
	Text                   string  `json:"text,omitempty"`
	AudioURL               string  `json:"audioUrl,omitempty"`
	DurationSeconds        float64 `json:"durationSeconds"`
	Status                 string  `json:"status"`
	Error                  string  `json:"error,omitempty"`
	CreatedAt              string  `json:"createdAt"`
}

// MeditationListResponse is the HTTP response for listing meditations.
type MeditationListResponse struct {
	Meditations []MeditationResponse `json:"meditations"`
	Limit       int                  `json:"limit"`
	Offset      int                  `json:"offset"`
	Count       int                  `json:"count"`
}

// ErrorResponse is the standard error response format.
type ErrorResponse struct {
	// Error is the human-readable error message.
	Error string `json:"error"`
	// Code is the error code for programmatic handling.
	Code string `json:"code"`
}

// HealthResponse is the HTTP response for the health check endpoint.
type HealthResponse struct {
	// Status is the health status of the service.
	Status string `json:"status"`
}
