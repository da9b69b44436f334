package service

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/Ahmedkhn143/NexLevel-Speech-sub000/internal/config"
	"github.com/Ahmedkhn143/NexLevel-Speech-sub000/internal/models"
	"github.com/Ahmedkhn143/NexLevel-Speech-sub000/internal/repository"
	"github.com/Ahmedkhn143/NexLevel-Speech-sub000/internal/synth"
)

// FreePlanID is the plan assigned at signup.
const FreePlanID = "free"

// maxSampleBytes bounds an uploaded voice sample.
const maxSampleBytes = 10 << 20

// CloneVoiceInput is a request to clone a voice from an audio sample.
type CloneVoiceInput struct {
	UserID   string
	Name     string
	Language string
	Sample   synth.Sample
}

// VoiceService resolves preset and cloned voices and manages cloning.
type VoiceService struct {
	repos   *repository.Repositories
	synth   synth.Synthesizer
	storage ObjectStore
	presets map[string]config.PresetVoice
	logger  *slog.Logger
	now     func() time.Time
}

// NewVoiceService creates a new voice service.
func NewVoiceService(repos *repository.Repositories, synthesizer synth.Synthesizer, storage ObjectStore, presets map[string]config.PresetVoice, logger *slog.Logger) *VoiceService {
	return &VoiceService{
		repos:   repos,
		synth:   synthesizer,
		storage: storage,
		presets: presets,
		logger:  logger,
		now:     time.Now,
	}
}

func presetToVoice(p config.PresetVoice) *models.Voice {
	return &models.Voice{
		ID:              p.ID,
		Name:            p.Name,
		Language:        p.Language,
		ExternalVoiceID: p.ExternalVoiceID,
		Status:          models.VoiceStatusReady,
		IsPreset:        true,
	}
}

// Resolve returns a voice the user may synthesize with: a preset, or one of
// their own voices in READY state. Anything else is ErrNotFound.
func (s *VoiceService) Resolve(ctx context.Context, userID, voiceID string) (*models.Voice, error) {
	if p, ok := s.presets[voiceID]; ok {
		return presetToVoice(p), nil
	}

	voice, err := s.repos.Voice.GetByID(ctx, voiceID)
	if err != nil {
		return nil, fmt.Errorf("failed to get voice: %w", err)
	}
	if voice == nil || voice.UserID != userID {
		return nil, fmt.Errorf("voice %s: %w", voiceID, ErrNotFound)
	}
	if !voice.IsReady() {
		return nil, fmt.Errorf("voice %s is %s: %w", voiceID, strings.ToLower(string(voice.Status)), ErrNotFound)
	}
	return voice, nil
}

// List returns the presets followed by the user's voices.
func (s *VoiceService) List(ctx context.Context, userID string) ([]*models.Voice, error) {
	voices := make([]*models.Voice, 0, len(s.presets))
	for _, p := range s.presets {
		voices = append(voices, presetToVoice(p))
	}
	sort.Slice(voices, func(i, j int) bool { return voices[i].ID < voices[j].ID })

	own, err := s.repos.Voice.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list voices: %w", err)
	}
	return append(voices, own...), nil
}

// Get returns one of the user's voices (any status except DELETED) or a preset.
func (s *VoiceService) Get(ctx context.Context, userID, voiceID string) (*models.Voice, error) {
	if p, ok := s.presets[voiceID]; ok {
		return presetToVoice(p), nil
	}
	voice, err := s.repos.Voice.GetByID(ctx, voiceID)
	if err != nil {
		return nil, fmt.Errorf("failed to get voice: %w", err)
	}
	if voice == nil || voice.UserID != userID || voice.Status == models.VoiceStatusDeleted {
		return nil, fmt.Errorf("voice %s: %w", voiceID, ErrNotFound)
	}
	return voice, nil
}

// voiceLimit returns the voice slot limit of the user's current plan.
func (s *VoiceService) voiceLimit(ctx context.Context, userID string) (int, error) {
	planID := FreePlanID
	sub, err := s.repos.Subscription.GetByUserID(ctx, userID)
	if err != nil {
		return 0, fmt.Errorf("failed to get subscription: %w", err)
	}
	if sub != nil && (sub.Status == models.SubscriptionStatusActive || sub.Status == models.SubscriptionStatusTrial) {
		planID = sub.PlanID
	}

	plan, err := s.repos.Plan.GetByID(ctx, planID)
	if err != nil {
		return 0, fmt.Errorf("failed to get plan: %w", err)
	}
	if plan == nil {
		return 0, fmt.Errorf("plan %s: %w", planID, ErrNotFound)
	}
	return plan.VoiceLimit, nil
}

// Clone uploads the sample, clones it at the synthesis provider and records
// a VOICE_CLONE usage entry. Cloning consumes a voice slot, not credits.
func (s *VoiceService) Clone(ctx context.Context, in CloneVoiceInput) (*models.Voice, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, fmt.Errorf("%w: voice name is required", ErrInvalidInput)
	}
	if len(in.Sample.Data) == 0 {
		return nil, fmt.Errorf("%w: voice sample is required", ErrInvalidInput)
	}
	if len(in.Sample.Data) > maxSampleBytes {
		return nil, fmt.Errorf("%w: voice sample exceeds %d bytes", ErrInvalidInput, maxSampleBytes)
	}

	if _, err := activeUser(ctx, s.repos.User, in.UserID); err != nil {
		return nil, err
	}

	limit, err := s.voiceLimit(ctx, in.UserID)
	if err != nil {
		return nil, err
	}
	count, err := s.repos.Voice.CountActiveByUser(ctx, in.UserID)
	if err != nil {
		return nil, fmt.Errorf("failed to count voices: %w", err)
	}
	if count >= limit {
		return nil, fmt.Errorf("%w (%d of %d)", ErrVoiceLimitReached, count, limit)
	}

	language := in.Language
	if language == "" {
		language = "en"
	}

	now := s.now().UTC()
	voice := &models.Voice{
		ID:        ulid.Make().String(),
		UserID:    in.UserID,
		Name:      name,
		Language:  language,
		Status:    models.VoiceStatusProcessing,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.repos.Voice.Create(ctx, voice); err != nil {
		return nil, fmt.Errorf("failed to create voice: %w", err)
	}

	contentType := in.Sample.ContentType
	if contentType == "" {
		contentType = "audio/mpeg"
	}
	sampleURL, err := s.storage.Store(ctx, voiceSampleKey(in.UserID, voice.ID, in.Sample.Filename), in.Sample.Data, contentType)
	if err != nil {
		return nil, s.failClone(ctx, voice, err)
	}
	voice.SampleURL = sampleURL

	externalID, err := s.synth.CloneVoice(ctx, name, in.Sample)
	if err != nil {
		return nil, s.failClone(ctx, voice, err)
	}

	voice.ExternalVoiceID = externalID
	voice.Status = models.VoiceStatusReady
	voice.UpdatedAt = s.now().UTC()

	err = s.repos.WithTx(ctx, func(tx *repository.Repositories) error {
		if err := tx.Voice.Update(ctx, voice); err != nil {
			return fmt.Errorf("failed to update voice: %w", err)
		}
		return tx.Usage.Create(ctx, &models.UsageRecord{
			ID:          ulid.Make().String(),
			UserID:      in.UserID,
			Type:        models.UsageTypeVoiceClone,
			Credits:     0,
			ReferenceID: voice.ID,
			Description: "Cloned voice " + name,
			CreatedAt:   voice.UpdatedAt,
		})
	})
	if err != nil {
		return nil, s.failClone(ctx, voice, err)
	}

	s.logger.Info("voice cloned", "user_id", in.UserID, "voice_id", voice.ID)
	return voice, nil
}

func (s *VoiceService) failClone(ctx context.Context, voice *models.Voice, cause error) error {
	ctx = context.WithoutCancel(ctx)

	voice.Status = models.VoiceStatusFailed
	voice.ErrorMessage = cause.Error()
	voice.UpdatedAt = s.now().UTC()
	if err := s.repos.Voice.Update(ctx, voice); err != nil {
		s.logger.Error("failed to mark voice failed", "voice_id", voice.ID, "error", err)
	}
	if voice.SampleURL != "" {
		s.storage.Delete(ctx, voice.SampleURL)
	}

	s.logger.Warn("voice clone failed", "user_id", voice.UserID, "voice_id", voice.ID, "error", cause)
	return fmt.Errorf("%w: %v", ErrSynthesisFailure, cause)
}

// Delete soft-deletes a voice. Provider and sample cleanup are best-effort.
func (s *VoiceService) Delete(ctx context.Context, userID, voiceID string) error {
	if _, ok := s.presets[voiceID]; ok {
		return fmt.Errorf("%w: preset voices cannot be deleted", ErrInvalidInput)
	}
	voice, err := s.Get(ctx, userID, voiceID)
	if err != nil {
		return err
	}

	voice.Status = models.VoiceStatusDeleted
	voice.UpdatedAt = s.now().UTC()
	if err := s.repos.Voice.Update(ctx, voice); err != nil {
		return fmt.Errorf("failed to delete voice: %w", err)
	}

	if voice.ExternalVoiceID != "" {
		if err := s.synth.DeleteVoice(ctx, voice.ExternalVoiceID); err != nil {
			s.logger.Warn("failed to delete voice at provider", "voice_id", voice.ID, "error", err)
		}
	}
	if voice.SampleURL != "" {
		s.storage.Delete(ctx, voice.SampleURL)
	}

	s.logger.Info("voice deleted", "user_id", userID, "voice_id", voiceID)
	return nil
}
