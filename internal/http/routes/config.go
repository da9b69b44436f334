// Package routes provides shared route registration for the NexLevel Speech API.
// Both the server and the OpenAPI generator use the same route definitions,
// so the published document always matches what is served.
package routes

import (
	"github.com/danielgtaylor/huma/v2"

	"github.com/Ahmedkhn143/NexLevel-Speech-sub000/internal/http/mw"
	"github.com/Ahmedkhn143/NexLevel-Speech-sub000/internal/version"
)

// NewHumaConfig creates the shared Huma configuration for the API.
func NewHumaConfig(baseURL string) huma.Config {
	cfg := huma.DefaultConfig("NexLevel Speech API", version.Get().Short())
	cfg.Info.Description = "Credit-metered text-to-speech and voice cloning, billed in PKR through Stripe, JazzCash and EasyPaisa."

	cfg.CreateHooks = nil

	if baseURL != "" {
		cfg.Servers = []*huma.Server{
			{URL: baseURL, Description: "API Server"},
		}
	}

	cfg.Components.SecuritySchemes = map[string]*huma.SecurityScheme{
		mw.SecurityScheme: {
			Type:         "http",
			Scheme:       "bearer",
			BearerFormat: "JWT",
			Description:  "Session token from the identity provider, sent as `Authorization: Bearer <token>`.",
		},
	}

	cfg.Tags = []*huma.Tag{
		{Name: "Speech", Description: "Text-to-speech generation and history", Extensions: map[string]any{"x-displayName": "Speech"}},
		{Name: "Voices", Description: "Preset voices and voice cloning", Extensions: map[string]any{"x-displayName": "Voices"}},
		{Name: "Credits", Description: "Credit balance and usage history", Extensions: map[string]any{"x-displayName": "Credits"}},
		{Name: "Billing", Description: "Plans, checkout and payment history", Extensions: map[string]any{"x-displayName": "Billing"}},
		{Name: "Account", Description: "Account profile", Extensions: map[string]any{"x-displayName": "Account"}},
		{Name: "Health", Description: "System health and status", Extensions: map[string]any{"x-displayName": "Health"}},
	}

	return cfg
}
