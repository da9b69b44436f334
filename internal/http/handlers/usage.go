package handlers

import (
	"context"
	"time"

	"github.com/danielgtaylor/huma/v2"

	"github.com/Ahmedkhn143/NexLevel-Speech-sub000/internal/service"
)

// UsageHandler handles usage endpoints.
type UsageHandler struct {
	usageSvc *service.UsageService
}

// NewUsageHandler creates a new usage handler.
func NewUsageHandler(usageSvc *service.UsageService) *UsageHandler {
	return &UsageHandler{usageSvc: usageSvc}
}

// GetUsageInput represents usage request.
type GetUsageInput struct {
	PageInput
	Since string `query:"since" doc:"RFC3339 start of the period (defaults to 30 days ago)"`
}

// GetUsageOutput represents usage response.
type GetUsageOutput struct {
	Body *service.UsageHistory
}

// GetUsage returns usage records and per-type totals for a period.
func (h *UsageHandler) GetUsage(ctx context.Context, input *GetUsageInput) (*GetUsageOutput, error) {
	userID, err := requireUserID(ctx)
	if err != nil {
		return nil, err
	}

	var since time.Time
	if input.Since != "" {
		since, err = time.Parse(time.RFC3339, input.Since)
		if err != nil {
			return nil, huma.Error400BadRequest("since must be an RFC3339 timestamp")
		}
	}

	history, err := h.usageSvc.History(ctx, userID, since, input.Limit, input.Offset)
	if err != nil {
		return nil, toHTTPError(err, "failed to get usage")
	}
	return &GetUsageOutput{Body: history}, nil
}
