// Package meditation provides the Meditation aggregate and the
// generation pipeline that turns a disease/symptom request into a
// narrated audio file.
package meditation

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// Status represents the lifecycle state of a meditation record.
type Status string

const (
	// StatusPending indicates generation is in progress.
	StatusPending Status = "pending"
	// StatusCompleted indicates the audio artifact is ready.
	StatusCompleted Status = "completed"
	// StatusError indicates generation failed.
	StatusError Status = "error"
)

// Pipeline steps reported through the status endpoint.
const (
	StepGeneratingText = 0
	StepSynthesizing   = 1
	StepCombining      = 2
	StepMixing         = 3
	StepDone           = 4
)

// ErrInvalidTransition is returned when a terminal record is mutated.
var ErrInvalidTransition = errors.New("invalid status transition")

// Meditation is the persisted result of one generation request.
// Once completed or errored it is never mutated again except by deletion.
type Meditation struct {
	// ID is the database identifier.
	ID int64
	// SessionID is the unique identifier handed to the polling client.
	SessionID string
	// Disease is the user-submitted condition.
	Disease string
	// Symptom is the user-submitted symptom.
	Symptom string
	// AdditionalInstructions carries optional free-form guidance.
	AdditionalInstructions string
	// Text is the generated meditation script including break markers.
	Text string
	// AudioURL is the object-storage URL of the final audio, if uploaded.
	AudioURL string
	// AudioPath is the local path of the final audio file.
	AudioPath string
	// DurationSeconds is the length of the final audio.
	DurationSeconds float64
	// Status is the lifecycle state.
	Status Status
	// Step is the current pipeline step (0-4).
	Step int
	// Error holds the failure reason when Status is error.
	Error string
	// CreatedAt is when the record was created.
	CreatedAt time.Time
	// UpdatedAt is when the record was last updated.
	UpdatedAt time.Time
}

// New creates a pending Meditation with a fresh session id.
func New(disease, symptom, additionalInstructions string) *Meditation {
	now := time.Now()
	return &Meditation{
		SessionID:              uuid.NewString(),
		Disease:                disease,
		Symptom:                symptom,
		AdditionalInstructions: additionalInstructions,
		Status:                 StatusPending,
		Step:                   StepGeneratingText,
		CreatedAt:              now,
		UpdatedAt:              now,
	}
}

// IsTerminal returns true once the record is completed or errored.
func (m *Meditation) IsTerminal() bool {
	return m.Status == StatusCompleted || m.Status == StatusError
}

// SetStep advances the reported pipeline step.
func (m *Meditation) SetStep(step int) {
	m.Step = step
	m.UpdatedAt = time.Now()
}

// Complete marks the record completed with the final artifact.
func (m *Meditation) Complete(audioPath, audioURL string, durationSeconds float64) error {
	if m.IsTerminal() {
		return ErrInvalidTransition
	}
	m.Status = StatusCompleted
	m.Step = StepDone
	m.AudioPath = audioPath
	m.AudioURL = audioURL
	m.DurationSeconds = durationSeconds
	m.UpdatedAt = time.Now()
	return nil
}

// Fail marks the record errored with the failure reason.
func (m *Meditation) Fail(reason string) error {
	if m.IsTerminal() {
		return ErrInvalidTransition
	}
	m.Status = StatusError
	m.Error = reason
	m.UpdatedAt = time.Now()
	return nil
}

// Clone creates a copy of the record for safe reads.
func (m *Meditation) Clone() *Meditation {
	out := *m
	return &out
}
