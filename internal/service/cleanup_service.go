package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/Ahmedkhn143/NexLevel-Speech-sub000/internal/repository"
)

// staleGenerationMessage is recorded on generations abandoned mid-flight.
const staleGenerationMessage = "generation timed out"

// CleanupService fails generations left PROCESSING by a crashed or
// restarted process. No credits are involved: a PROCESSING generation was
// never debited.
type CleanupService struct {
	genRepo repository.GenerationRepository
	logger  *slog.Logger
	now     func() time.Time
}

// NewCleanupService creates a new cleanup service.
func NewCleanupService(genRepo repository.GenerationRepository, logger *slog.Logger) *CleanupService {
	return &CleanupService{
		genRepo: genRepo,
		logger:  logger.With("component", "cleanup"),
		now:     time.Now,
	}
}

// FailStaleGenerations marks PROCESSING generations older than staleAfter as FAILED.
func (s *CleanupService) FailStaleGenerations(ctx context.Context, staleAfter time.Duration) (int64, error) {
	now := s.now().UTC()
	cutoff := now.Add(-staleAfter)

	n, err := s.genRepo.FailStale(ctx, cutoff, staleGenerationMessage, now)
	if err != nil {
		s.logger.Error("failed to fail stale generations", "error", err)
		return 0, err
	}
	if n > 0 {
		s.logger.Info("failed stale generations", "count", n, "cutoff", cutoff.Format(time.RFC3339))
	}
	return n, nil
}

// RunScheduledCleanup runs immediately and then at the interval until ctx is done.
func (s *CleanupService) RunScheduledCleanup(ctx context.Context, staleAfter, interval time.Duration) {
	s.logger.Info("starting scheduled cleanup",
		"stale_after", staleAfter.String(),
		"interval", interval.String(),
	)

	if _, err := s.FailStaleGenerations(ctx, staleAfter); err != nil {
		s.logger.Error("initial cleanup failed", "error", err)
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("scheduled cleanup stopped")
			return
		case <-ticker.C:
			if _, err := s.FailStaleGenerations(ctx, staleAfter); err != nil {
				s.logger.Error("scheduled cleanup failed", "error", err)
			}
		}
	}
}
