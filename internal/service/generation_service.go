package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync/atomic"
	"time"
	"unicode"
	"unicode/utf8"

	"github.com/oklog/ulid/v2"

	"github.com/Ahmedkhn143/NexLevel-Speech-sub000/internal/config"
	"github.com/Ahmedkhn143/NexLevel-Speech-sub000/internal/models"
	"github.com/Ahmedkhn143/NexLevel-Speech-sub000/internal/repository"
	"github.com/Ahmedkhn143/NexLevel-Speech-sub000/internal/synth"
)

const (
	// charsPerWord and wordsPerMinute give the duration estimate.
	charsPerWord   = 5
	wordsPerMinute = 150

	// DefaultSynthTimeout bounds a single synthesis call.
	DefaultSynthTimeout = 60 * time.Second
)

// CountBillableCharacters returns the number of non-whitespace characters.
func CountBillableCharacters(text string) int64 {
	var n int64
	for _, r := range text {
		if !unicode.IsSpace(r) {
			n++
		}
	}
	return n
}

// EstimateDurationSeconds approximates spoken length from billable characters.
func EstimateDurationSeconds(chars int64) float64 {
	return float64(chars) / charsPerWord / wordsPerMinute * 60
}

// GenerateInput is a text-to-speech request.
type GenerateInput struct {
	UserID   string
	VoiceID  string
	Text     string
	Language string
}

// GenerateResult is returned for a completed generation.
type GenerateResult struct {
	ID               string  `json:"id"`
	AudioURL         string  `json:"audio_url"`
	CharacterCount   int64   `json:"character_count"`
	DurationSeconds  float64 `json:"duration"`
	CreditsCost      int64   `json:"credits_cost"`
	RemainingCredits int64   `json:"remaining_credits"`
}

// GenerationService gates, runs and reconciles text-to-speech requests
// against the credit ledger.
type GenerationService struct {
	repos        *repository.Repositories
	credits      *CreditService
	voices       *VoiceService
	synth        synth.Synthesizer
	storage      ObjectStore
	cfg          config.GenerationConfig
	synthTimeout time.Duration
	maxTextChars int
	logger       *slog.Logger
	now          func() time.Time

	inFlight atomic.Int64
}

// NewGenerationService creates a new generation service.
func NewGenerationService(
	repos *repository.Repositories,
	credits *CreditService,
	voices *VoiceService,
	synthesizer synth.Synthesizer,
	storage ObjectStore,
	cfg config.GenerationConfig,
	synthTimeout time.Duration,
	logger *slog.Logger,
) *GenerationService {
	if synthTimeout <= 0 {
		synthTimeout = DefaultSynthTimeout
	}
	if cfg.DailyLimit <= 0 {
		cfg.DailyLimit = config.DefaultDailyGenerationLimit
	}
	return &GenerationService{
		repos:        repos,
		credits:      credits,
		voices:       voices,
		synth:        synthesizer,
		storage:      storage,
		cfg:          cfg,
		synthTimeout: synthTimeout,
		maxTextChars: 5000,
		logger:       logger,
		now:          time.Now,
	}
}

// Generate runs one generation. Validation failures (ErrNotFound,
// ErrPaymentRequired, ErrRateLimited) happen before anything is written.
// Credits are debited only after the audio has been stored.
func (s *GenerationService) Generate(ctx context.Context, in GenerateInput) (*GenerateResult, error) {
	if utf8.RuneCountInString(in.Text) > s.maxTextChars {
		return nil, fmt.Errorf("%w: text exceeds %d characters", ErrInvalidInput, s.maxTextChars)
	}

	if _, err := activeUser(ctx, s.repos.User, in.UserID); err != nil {
		return nil, err
	}

	voice, err := s.voices.Resolve(ctx, in.UserID, in.VoiceID)
	if err != nil {
		return nil, err
	}

	chars := CountBillableCharacters(in.Text)
	if chars == 0 {
		return nil, fmt.Errorf("%w: text is empty", ErrInvalidInput)
	}

	bal, err := s.credits.Authorize(ctx, in.UserID, chars)
	if err != nil {
		return nil, err
	}

	now := s.now()
	today, err := s.repos.Generation.CountSince(ctx, in.UserID, s.cfg.StartOfDay(now))
	if err != nil {
		return nil, fmt.Errorf("failed to count generations: %w", err)
	}
	if today >= s.cfg.DailyLimit {
		return nil, fmt.Errorf("%w (%d per day)", ErrRateLimited, s.cfg.DailyLimit)
	}

	language := in.Language
	if language == "" {
		language = voice.Language
	}
	gen := &models.Generation{
		ID:             ulid.Make().String(),
		UserID:         in.UserID,
		VoiceID:        voice.ID,
		Text:           in.Text,
		Language:       language,
		Status:         models.GenerationStatusProcessing,
		CharacterCount: chars,
		CreditsCost:    chars,
		CreatedAt:      now.UTC(),
	}
	if err := s.repos.Generation.Create(ctx, gen); err != nil {
		return nil, fmt.Errorf("failed to create generation: %w", err)
	}

	s.inFlight.Add(1)
	defer s.inFlight.Add(-1)

	audioURL, err := s.synthesize(ctx, gen, voice.ExternalVoiceID)
	if err != nil {
		s.markFailed(ctx, gen, err.Error())
		return nil, fmt.Errorf("%w: %v", ErrSynthesisFailure, err)
	}

	duration := EstimateDurationSeconds(chars)
	if err := s.complete(ctx, gen, audioURL, duration); err != nil {
		s.markFailed(ctx, gen, "failed to record completion")
		s.storage.Delete(context.WithoutCancel(ctx), audioURL)
		return nil, fmt.Errorf("%w: %v", ErrTransactionFailure, err)
	}

	result := &GenerateResult{
		ID:              gen.ID,
		AudioURL:        audioURL,
		CharacterCount:  chars,
		DurationSeconds: duration,
		CreditsCost:     chars,
	}
	if after, err := s.credits.GetBalance(ctx, in.UserID); err == nil {
		result.RemainingCredits = after.Available
	} else {
		s.logger.Warn("failed to read balance after generation", "user_id", in.UserID, "error", err)
		result.RemainingCredits = bal.Available - chars
	}

	s.logger.Info("generation completed",
		"user_id", in.UserID,
		"generation_id", gen.ID,
		"characters", chars,
		"remaining_credits", result.RemainingCredits,
	)
	return result, nil
}

// synthesize calls the provider under the synthesis timeout and stores the audio.
func (s *GenerationService) synthesize(ctx context.Context, gen *models.Generation, externalVoiceID string) (string, error) {
	synthCtx, cancel := context.WithTimeout(ctx, s.synthTimeout)
	defer cancel()

	audio, err := s.synth.GenerateSpeech(synthCtx, externalVoiceID, gen.Text, gen.Language)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) && ctx.Err() == nil {
			return "", fmt.Errorf("synthesis timed out after %s", s.synthTimeout)
		}
		return "", err
	}
	if len(audio) == 0 {
		return "", synth.ErrEmptyAudio
	}

	url, err := s.storage.Store(ctx, audioKey(gen.UserID, gen.ID), audio, "audio/mpeg")
	if err != nil {
		return "", err
	}
	return url, nil
}

// complete marks the generation COMPLETED, debits the ledger and appends the
// usage record in one transaction.
func (s *GenerationService) complete(ctx context.Context, gen *models.Generation, audioURL string, duration float64) error {
	now := s.now().UTC()
	return s.repos.WithTx(ctx, func(tx *repository.Repositories) error {
		if err := tx.Generation.Complete(ctx, gen.ID, audioURL, duration, now); err != nil {
			return fmt.Errorf("failed to complete generation: %w", err)
		}
		if err := debitLedger(ctx, tx.Ledger, gen.UserID, gen.CreditsCost, now); err != nil {
			return err
		}
		return tx.Usage.Create(ctx, &models.UsageRecord{
			ID:          ulid.Make().String(),
			UserID:      gen.UserID,
			Type:        models.UsageTypeTTSGeneration,
			Credits:     gen.CreditsCost,
			ReferenceID: gen.ID,
			Description: fmt.Sprintf("Generated %d characters", gen.CharacterCount),
			CreatedAt:   now,
		})
	})
}

func (s *GenerationService) markFailed(ctx context.Context, gen *models.Generation, message string) {
	ctx = context.WithoutCancel(ctx)
	message = truncate(message, 500)
	if err := s.repos.Generation.Fail(ctx, gen.ID, message, s.now().UTC()); err != nil && !errors.Is(err, repository.ErrNoRowsAffected) {
		s.logger.Error("failed to mark generation failed", "generation_id", gen.ID, "error", err)
	}
	s.logger.Warn("generation failed",
		"user_id", gen.UserID,
		"generation_id", gen.ID,
		"error", message,
	)
}

// InFlight reports how many generations are between record creation and
// completion in this process.
func (s *GenerationService) InFlight() int64 {
	return s.inFlight.Load()
}

// Get returns one of the user's generations.
func (s *GenerationService) Get(ctx context.Context, userID, id string) (*models.Generation, error) {
	gen, err := s.repos.Generation.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get generation: %w", err)
	}
	if gen == nil || gen.UserID != userID {
		return nil, fmt.Errorf("generation %s: %w", id, ErrNotFound)
	}
	return gen, nil
}

// List returns the user's generations, newest first.
func (s *GenerationService) List(ctx context.Context, userID string, limit, offset int) ([]*models.Generation, error) {
	limit, offset = clampPage(limit, offset)
	gens, err := s.repos.Generation.ListByUser(ctx, userID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list generations: %w", err)
	}
	return gens, nil
}

// TodayCount returns how many generations count against today's cap.
func (s *GenerationService) TodayCount(ctx context.Context, userID string) (int, int, error) {
	n, err := s.repos.Generation.CountSince(ctx, userID, s.cfg.StartOfDay(s.now()))
	if err != nil {
		return 0, 0, fmt.Errorf("failed to count generations: %w", err)
	}
	return n, s.cfg.DailyLimit, nil
}

func clampPage(limit, offset int) (int, int) {
	if limit <= 0 {
		limit = 20
	}
	if limit > 100 {
		limit = 100
	}
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}

// truncate caps s at n bytes without splitting a UTF-8 sequence.
func truncate(s string, n int) string {
	s = strings.TrimSpace(s)
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n]
}
