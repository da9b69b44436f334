package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/Ahmedkhn143/NexLevel-Speech-sub000/internal/models"
	"github.com/Ahmedkhn143/NexLevel-Speech-sub000/internal/repository"
)

// UsageHistory is a page of usage records with period totals.
type UsageHistory struct {
	Since   time.Time             `json:"since"`
	Records []*models.UsageRecord `json:"records"`
	Totals  *models.UsageTotals   `json:"totals"`
}

// UsageService reads the append-only usage log.
type UsageService struct {
	repos  *repository.Repositories
	logger *slog.Logger
	now    func() time.Time
}

// NewUsageService creates a new usage service.
func NewUsageService(repos *repository.Repositories, logger *slog.Logger) *UsageService {
	return &UsageService{repos: repos, logger: logger, now: time.Now}
}

// History returns usage since the given time. A zero since means the last 30 days.
func (s *UsageService) History(ctx context.Context, userID string, since time.Time, limit, offset int) (*UsageHistory, error) {
	if since.IsZero() {
		since = s.now().UTC().AddDate(0, 0, -30)
	}
	limit, offset = clampPage(limit, offset)

	records, err := s.repos.Usage.ListByUser(ctx, userID, since, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list usage: %w", err)
	}
	totals, err := s.repos.Usage.Totals(ctx, userID, since)
	if err != nil {
		return nil, fmt.Errorf("failed to get usage totals: %w", err)
	}
	if records == nil {
		records = []*models.UsageRecord{}
	}

	return &UsageHistory{Since: since, Records: records, Totals: totals}, nil
}
