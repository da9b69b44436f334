package handlers

import (
	"context"

	"github.com/Ahmedkhn143/NexLevel-Speech-sub000/internal/models"
	"github.com/Ahmedkhn143/NexLevel-Speech-sub000/internal/service"
)

// AccountHandler handles account and plan endpoints.
type AccountHandler struct {
	accountSvc *service.AccountService
}

// NewAccountHandler creates a new account handler.
func NewAccountHandler(accountSvc *service.AccountService) *AccountHandler {
	return &AccountHandler{accountSvc: accountSvc}
}

// GetAccountOutput represents the caller's account.
type GetAccountOutput struct {
	Body *service.Account
}

// GetAccount returns the caller's profile, subscription, plan and balance.
func (h *AccountHandler) GetAccount(ctx context.Context, input *struct{}) (*GetAccountOutput, error) {
	userID, err := requireUserID(ctx)
	if err != nil {
		return nil, err
	}

	account, err := h.accountSvc.Get(ctx, userID)
	if err != nil {
		return nil, toHTTPError(err, "failed to get account")
	}
	return &GetAccountOutput{Body: account}, nil
}

// DeleteAccountOutput acknowledges account deletion.
type DeleteAccountOutput struct {
	Body struct {
		Success bool `json:"success"`
	}
}

// DeleteAccount marks the caller's account deleted. Billing rows are retained.
func (h *AccountHandler) DeleteAccount(ctx context.Context, input *struct{}) (*DeleteAccountOutput, error) {
	userID, err := requireUserID(ctx)
	if err != nil {
		return nil, err
	}

	if err := h.accountSvc.Delete(ctx, userID); err != nil {
		return nil, toHTTPError(err, "failed to delete account")
	}

	out := &DeleteAccountOutput{}
	out.Body.Success = true
	return out, nil
}

// ListPlansOutput lists the active plans.
type ListPlansOutput struct {
	Body struct {
		Plans []*models.Plan `json:"plans"`
	}
}

// ListPlans returns the active plan catalog. Public.
func (h *AccountHandler) ListPlans(ctx context.Context, input *struct{}) (*ListPlansOutput, error) {
	plans, err := h.accountSvc.ListPlans(ctx)
	if err != nil {
		return nil, toHTTPError(err, "failed to list plans")
	}

	out := &ListPlansOutput{}
	out.Body.Plans = plans
	return out, nil
}
