package handlers

import (
	"context"

	"github.com/Ahmedkhn143/NexLevel-Speech-sub000/internal/models"
	"github.com/Ahmedkhn143/NexLevel-Speech-sub000/internal/service"
)

// TTSHandler handles text-to-speech endpoints.
type TTSHandler struct {
	genSvc *service.GenerationService
}

// NewTTSHandler creates a new text-to-speech handler.
func NewTTSHandler(genSvc *service.GenerationService) *TTSHandler {
	return &TTSHandler{genSvc: genSvc}
}

// GenerateInput represents a synthesis request.
type GenerateInput struct {
	Body struct {
		VoiceID  string `json:"voiceId" minLength:"1" doc:"Preset or cloned voice ID"`
		Text     string `json:"text" minLength:"1" doc:"Text to synthesize; whitespace is not billed"`
		Language string `json:"language,omitempty" doc:"Language code (defaults to en)"`
	}
}

// GenerateOutput represents a completed synthesis.
type GenerateOutput struct {
	Body *service.GenerateResult
}

// Generate synthesizes speech and debits one credit per non-whitespace character.
func (h *TTSHandler) Generate(ctx context.Context, input *GenerateInput) (*GenerateOutput, error) {
	userID, err := requireUserID(ctx)
	if err != nil {
		return nil, err
	}

	result, err := h.genSvc.Generate(ctx, service.GenerateInput{
		UserID:   userID,
		VoiceID:  input.Body.VoiceID,
		Text:     input.Body.Text,
		Language: input.Body.Language,
	})
	if err != nil {
		return nil, toHTTPError(err, "failed to generate speech")
	}
	return &GenerateOutput{Body: result}, nil
}

// ListGenerationsOutput represents a page of generations.
type ListGenerationsOutput struct {
	Body struct {
		Generations []*models.Generation `json:"generations"`
	}
}

// ListGenerations returns the caller's generation history, newest first.
func (h *TTSHandler) ListGenerations(ctx context.Context, input *PageInput) (*ListGenerationsOutput, error) {
	userID, err := requireUserID(ctx)
	if err != nil {
		return nil, err
	}

	gens, err := h.genSvc.List(ctx, userID, input.Limit, input.Offset)
	if err != nil {
		return nil, toHTTPError(err, "failed to list generations")
	}
	if gens == nil {
		gens = []*models.Generation{}
	}

	out := &ListGenerationsOutput{}
	out.Body.Generations = gens
	return out, nil
}

// GetGenerationInput identifies a generation.
type GetGenerationInput struct {
	ID string `path:"id" doc:"Generation ID"`
}

// GetGenerationOutput represents a single generation.
type GetGenerationOutput struct {
	Body *models.Generation
}

// GetGeneration returns one of the caller's generations.
func (h *TTSHandler) GetGeneration(ctx context.Context, input *GetGenerationInput) (*GetGenerationOutput, error) {
	userID, err := requireUserID(ctx)
	if err != nil {
		return nil, err
	}

	gen, err := h.genSvc.Get(ctx, userID, input.ID)
	if err != nil {
		return nil, toHTTPError(err, "failed to get generation")
	}
	return &GetGenerationOutput{Body: gen}, nil
}

// TodayOutput reports progress against the daily generation limit.
type TodayOutput struct {
	Body struct {
		Count     int `json:"count" doc:"Generations started today"`
		Limit     int `json:"limit" doc:"Daily generation limit"`
		Remaining int `json:"remaining"`
	}
}

// Today returns the caller's generation count since local midnight.
func (h *TTSHandler) Today(ctx context.Context, input *struct{}) (*TodayOutput, error) {
	userID, err := requireUserID(ctx)
	if err != nil {
		return nil, err
	}

	count, limit, err := h.genSvc.TodayCount(ctx, userID)
	if err != nil {
		return nil, toHTTPError(err, "failed to count generations")
	}

	out := &TodayOutput{}
	out.Body.Count = count
	out.Body.Limit = limit
	out.Body.Remaining = max(limit-count, 0)
	return out, nil
}
