package models

import "time"

// GenerationStatus is the lifecycle state of a text-to-speech generation.
type GenerationStatus string

const (
	GenerationStatusProcessing GenerationStatus = "PROCESSING"
	GenerationStatusCompleted  GenerationStatus = "COMPLETED"
	GenerationStatusFailed     GenerationStatus = "FAILED"
)

// IsTerminal reports whether no further transitions are allowed.
func (s GenerationStatus) IsTerminal() bool {
	return s == GenerationStatusCompleted || s == GenerationStatusFailed
}

// Generation records a single text-to-speech request.
// CreditsCost always equals CharacterCount.
type Generation struct {
	ID             string           `json:"id"`
	UserID         string           `json:"user_id"`
	VoiceID        string           `json:"voice_id"`
	Text           string           `json:"text"`
	Language       string           `json:"language"`
	Status         GenerationStatus `json:"status"`
	CharacterCount int64            `json:"character_count"`
	CreditsCost    int64            `json:"credits_cost"`
	AudioURL       string           `json:"audio_url,omitempty"`
	DurationSecs   float64          `json:"duration_seconds,omitempty"`
	ErrorMessage   string           `json:"error_message,omitempty"`
	CreatedAt      time.Time        `json:"created_at"`
	CompletedAt    *time.Time       `json:"completed_at,omitempty"`
}
