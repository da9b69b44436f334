package models

import "time"

// VoiceStatus is the lifecycle state of a cloned voice.
type VoiceStatus string

const (
	VoiceStatusProcessing VoiceStatus = "PROCESSING"
	VoiceStatusReady      VoiceStatus = "READY"
	VoiceStatusFailed     VoiceStatus = "FAILED"
	VoiceStatusDeleted    VoiceStatus = "DELETED"
)

// Voice is either a user's cloned voice or a system preset.
// Presets have no UserID and are never persisted.
type Voice struct {
	ID              string      `json:"id"`
	UserID          string      `json:"user_id,omitempty"`
	Name            string      `json:"name"`
	Language        string      `json:"language"`
	ExternalVoiceID string      `json:"-"`
	SampleURL       string      `json:"sample_url,omitempty"`
	Status          VoiceStatus `json:"status"`
	IsPreset        bool        `json:"is_preset"`
	ErrorMessage    string      `json:"error_message,omitempty"`
	CreatedAt       time.Time   `json:"created_at"`
	UpdatedAt       time.Time   `json:"updated_at"`
}

// IsReady reports whether the voice can be used for synthesis.
func (v *Voice) IsReady() bool {
	return v.Status == VoiceStatusReady
}
