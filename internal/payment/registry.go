package payment

import (
	"fmt"
	"log/slog"
	"sort"

	"github.com/Ahmedkhn143/NexLevel-Speech-sub000/internal/config"
	"github.com/Ahmedkhn143/NexLevel-Speech-sub000/internal/models"
)

// Registry maps provider names to adapters. It is built once at startup and
// passed to the services that need it.
type Registry struct {
	providers map[models.PaymentProvider]Provider
}

// NewRegistry creates a registry holding the given adapters. A later adapter
// with the same name replaces an earlier one.
func NewRegistry(providers ...Provider) *Registry {
	r := &Registry{providers: make(map[models.PaymentProvider]Provider, len(providers))}
	for _, p := range providers {
		r.providers[p.Name()] = p
	}
	return r
}

// NewRegistryFromConfig registers every provider that has credentials configured.
func NewRegistryFromConfig(cfg *config.Config, logger *slog.Logger) *Registry {
	var providers []Provider

	if cfg.StripeEnabled() {
		providers = append(providers, NewStripe(StripeConfig{
			SecretKey:     cfg.StripeSecretKey,
			WebhookSecret: cfg.StripeWebhookSecret,
			SuccessURL:    cfg.StripeSuccessURL,
			CancelURL:     cfg.StripeCancelURL,
		}))
	}
	if cfg.JazzCashEnabled() {
		providers = append(providers, NewJazzCash(JazzCashConfig{
			MerchantID:    cfg.JazzCashMerchantID,
			Password:      cfg.JazzCashPassword,
			IntegritySalt: cfg.JazzCashIntegritySalt,
			ReturnURL:     cfg.JazzCashReturnURL,
			Endpoint:      cfg.JazzCashEndpoint,
		}))
	}
	if cfg.EasyPaisaEnabled() {
		providers = append(providers, NewEasyPaisa(EasyPaisaConfig{
			StoreID:     cfg.EasyPaisaStoreID,
			HashKey:     cfg.EasyPaisaHashKey,
			Endpoint:    cfg.EasyPaisaEndpoint,
			PostbackURL: cfg.EasyPaisaPostbackURL,
		}))
	}

	r := NewRegistry(providers...)
	logger.Info("payment providers registered", "providers", r.Names())
	return r
}

// Get returns the adapter for name.
func (r *Registry) Get(name models.PaymentProvider) (Provider, error) {
	p, ok := r.providers[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrProviderNotFound, name)
	}
	return p, nil
}

// Names lists registered providers in stable order.
func (r *Registry) Names() []models.PaymentProvider {
	names := make([]models.PaymentProvider, 0, len(r.providers))
	for name := range r.providers {
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool { return names[i] < names[j] })
	return names
}
