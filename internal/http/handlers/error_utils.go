package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/Ahmedkhn143/NexLevel-Speech-sub000/internal/service"
)

// CreditError is the 402 body returned when a request needs more credits
// than the caller has. It implements huma.StatusError.
type CreditError struct {
	Status    int    `json:"-"`
	Title     string `json:"title"`
	Detail    string `json:"detail"`
	Required  int64  `json:"required"`
	Available int64  `json:"available"`
}

func (e *CreditError) Error() string {
	return e.Detail
}

func (e *CreditError) GetStatus() int {
	return e.Status
}

// StatusFor maps a service error to its HTTP status.
func StatusFor(err error) int {
	switch {
	case errors.Is(err, service.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, service.ErrInvalidInput):
		return http.StatusBadRequest
	case errors.Is(err, service.ErrPaymentRequired):
		return http.StatusPaymentRequired
	case errors.Is(err, service.ErrRateLimited):
		return http.StatusTooManyRequests
	case errors.Is(err, service.ErrUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(err, service.ErrVoiceLimitReached):
		return http.StatusForbidden
	case errors.Is(err, service.ErrSynthesisFailure), errors.Is(err, service.ErrProviderFailure):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// toHTTPError converts a service error into a huma error. Internal errors are
// logged and replaced by fallback so details do not leak to clients.
func toHTTPError(err error, fallback string) error {
	var credits *service.InsufficientCreditsError
	if errors.As(err, &credits) {
		return &CreditError{
			Status:    http.StatusPaymentRequired,
			Title:     http.StatusText(http.StatusPaymentRequired),
			Detail:    "insufficient credits",
			Required:  credits.Required,
			Available: credits.Available,
		}
	}

	status := StatusFor(err)
	switch status {
	case http.StatusInternalServerError:
		slog.Error(fallback, "error", err)
		return huma.Error500InternalServerError(fallback)
	case http.StatusBadGateway:
		slog.Warn(fallback, "error", err)
		return huma.NewError(status, fallback)
	default:
		return huma.NewError(status, err.Error())
	}
}
