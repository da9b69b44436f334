package service

import (
	"fmt"
	"log/slog"

	"github.com/Ahmedkhn143/NexLevel-Speech-sub000/internal/config"
	"github.com/Ahmedkhn143/NexLevel-Speech-sub000/internal/crypto"
	"github.com/Ahmedkhn143/NexLevel-Speech-sub000/internal/payment"
	"github.com/Ahmedkhn143/NexLevel-Speech-sub000/internal/repository"
	"github.com/Ahmedkhn143/NexLevel-Speech-sub000/internal/synth"
)

// Services holds all service instances.
type Services struct {
	Account    *AccountService
	Credit     *CreditService
	Voice      *VoiceService
	Generation *GenerationService
	Checkout   *CheckoutService
	Settlement *SettlementService
	Usage      *UsageService
	Storage    *StorageService
	Cleanup    *CleanupService
}

// NewServices creates all service instances.
func NewServices(
	cfg *config.Config,
	repos *repository.Repositories,
	registry *payment.Registry,
	synthesizer synth.Synthesizer,
	logger *slog.Logger,
) (*Services, error) {
	encryptor, err := crypto.NewEncryptor(cfg.EncryptionKey)
	if err != nil {
		return nil, fmt.Errorf("failed to create encryptor: %w", err)
	}

	storageSvc, err := NewStorageService(cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create storage service: %w", err)
	}

	creditSvc := NewCreditService(repos, logger)
	voiceSvc := NewVoiceService(repos, synthesizer, storageSvc, cfg.Generation.Presets, logger)
	generationSvc := NewGenerationService(repos, creditSvc, voiceSvc, synthesizer, storageSvc, cfg.Generation, cfg.SynthTimeout, logger)

	return &Services{
		Account:    NewAccountService(repos, logger),
		Credit:     creditSvc,
		Voice:      voiceSvc,
		Generation: generationSvc,
		Checkout:   NewCheckoutService(repos, registry, logger),
		Settlement: NewSettlementService(repos, registry, encryptor, logger),
		Usage:      NewUsageService(repos, logger),
		Storage:    storageSvc,
		Cleanup:    NewCleanupService(repos.Generation, logger),
	}, nil
}
