package handlers

import (
	"context"
	"net/http"

	"github.com/Ahmedkhn143/NexLevel-Speech-sub000/internal/models"
	"github.com/Ahmedkhn143/NexLevel-Speech-sub000/internal/service"
	"github.com/Ahmedkhn143/NexLevel-Speech-sub000/internal/synth"
)

// MaxVoiceBodyBytes bounds clone requests. Samples are base64 encoded.
const MaxVoiceBodyBytes = 16 << 20

// VoiceHandler handles voice endpoints.
type VoiceHandler struct {
	voiceSvc *service.VoiceService
}

// NewVoiceHandler creates a new voice handler.
func NewVoiceHandler(voiceSvc *service.VoiceService) *VoiceHandler {
	return &VoiceHandler{voiceSvc: voiceSvc}
}

// ListVoicesOutput lists preset and cloned voices.
type ListVoicesOutput struct {
	Body struct {
		Voices []*models.Voice `json:"voices"`
	}
}

// ListVoices returns the presets followed by the caller's voices.
func (h *VoiceHandler) ListVoices(ctx context.Context, input *struct{}) (*ListVoicesOutput, error) {
	userID, err := requireUserID(ctx)
	if err != nil {
		return nil, err
	}

	voices, err := h.voiceSvc.List(ctx, userID)
	if err != nil {
		return nil, toHTTPError(err, "failed to list voices")
	}

	out := &ListVoicesOutput{}
	out.Body.Voices = voices
	return out, nil
}

// CloneVoiceInput is a voice cloning request.
type CloneVoiceInput struct {
	Body struct {
		Name        string `json:"name" minLength:"1" maxLength:"100" doc:"Display name"`
		Language    string `json:"language,omitempty" doc:"Language code (defaults to en)"`
		SampleAudio []byte `json:"sampleAudio" contentEncoding:"base64" doc:"Base64 encoded audio sample"`
		Filename    string `json:"filename,omitempty" doc:"Original file name of the sample"`
		ContentType string `json:"contentType,omitempty" doc:"MIME type of the sample (defaults to audio/mpeg)"`
	}
}

// VoiceOutput represents a single voice.
type VoiceOutput struct {
	Body *models.Voice
}

// CloneVoice clones a voice from an audio sample, subject to the plan's voice limit.
func (h *VoiceHandler) CloneVoice(ctx context.Context, input *CloneVoiceInput) (*VoiceOutput, error) {
	userID, err := requireUserID(ctx)
	if err != nil {
		return nil, err
	}

	contentType := input.Body.ContentType
	if contentType == "" {
		contentType = http.DetectContentType(input.Body.SampleAudio)
	}
	filename := input.Body.Filename
	if filename == "" {
		filename = "sample"
	}

	voice, err := h.voiceSvc.Clone(ctx, service.CloneVoiceInput{
		UserID:   userID,
		Name:     input.Body.Name,
		Language: input.Body.Language,
		Sample: synth.Sample{
			Filename:    filename,
			ContentType: contentType,
			Data:        input.Body.SampleAudio,
		},
	})
	if err != nil {
		return nil, toHTTPError(err, "failed to clone voice")
	}
	return &VoiceOutput{Body: voice}, nil
}

// VoiceIDInput identifies a voice.
type VoiceIDInput struct {
	ID string `path:"id" doc:"Voice ID"`
}

// GetVoice returns a preset or one of the caller's voices.
func (h *VoiceHandler) GetVoice(ctx context.Context, input *VoiceIDInput) (*VoiceOutput, error) {
	userID, err := requireUserID(ctx)
	if err != nil {
		return nil, err
	}

	voice, err := h.voiceSvc.Get(ctx, userID, input.ID)
	if err != nil {
		return nil, toHTTPError(err, "failed to get voice")
	}
	return &VoiceOutput{Body: voice}, nil
}

// DeleteVoiceOutput acknowledges a deletion.
type DeleteVoiceOutput struct {
	Body struct {
		Success bool `json:"success"`
	}
}

// DeleteVoice soft-deletes one of the caller's voices.
func (h *VoiceHandler) DeleteVoice(ctx context.Context, input *VoiceIDInput) (*DeleteVoiceOutput, error) {
	userID, err := requireUserID(ctx)
	if err != nil {
		return nil, err
	}

	if err := h.voiceSvc.Delete(ctx, userID, input.ID); err != nil {
		return nil, toHTTPError(err, "failed to delete voice")
	}

	out := &DeleteVoiceOutput{}
	out.Body.Success = true
	return out, nil
}
