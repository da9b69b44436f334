package handlers

import (
	"context"

	"github.com/Ahmedkhn143/NexLevel-Speech-sub000/internal/service"
)

// CreditHandler handles credit balance endpoints.
type CreditHandler struct {
	creditSvc *service.CreditService
}

// NewCreditHandler creates a new credit handler.
func NewCreditHandler(creditSvc *service.CreditService) *CreditHandler {
	return &CreditHandler{creditSvc: creditSvc}
}

// BalanceOutput represents the caller's credit balance.
type BalanceOutput struct {
	Body *service.Balance
}

// GetBalance returns total, used, bonus and available credits.
func (h *CreditHandler) GetBalance(ctx context.Context, input *struct{}) (*BalanceOutput, error) {
	userID, err := requireUserID(ctx)
	if err != nil {
		return nil, err
	}

	balance, err := h.creditSvc.GetBalance(ctx, userID)
	if err != nil {
		return nil, toHTTPError(err, "failed to get balance")
	}
	return &BalanceOutput{Body: balance}, nil
}
