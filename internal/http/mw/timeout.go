package mw

import (
	"context"
	"net/http"
	"strings"
	"time"
)

// Route is a method and exact path.
type Route struct {
	Method string
	Path   string
}

func (rt Route) matches(r *http.Request) bool {
	return r.Method == rt.Method && strings.TrimSuffix(r.URL.Path, "/") == rt.Path
}

// TimeoutConfig sets request deadlines by route.
type TimeoutConfig struct {
	// Default applies to most endpoints.
	Default time.Duration
	// Extended applies to ExtendedRoutes (synthesis and voice cloning).
	Extended       time.Duration
	ExtendedRoutes []Route
}

// DefaultTimeoutConfig bounds synthesis and cloning requests above the
// synthesis provider timeout so the provider timeout fires first.
func DefaultTimeoutConfig(synthTimeout time.Duration) TimeoutConfig {
	return TimeoutConfig{
		Default:  30 * time.Second,
		Extended: synthTimeout + 30*time.Second,
		ExtendedRoutes: []Route{
			{Method: http.MethodPost, Path: "/api/v1/tts/generate"},
			{Method: http.MethodPost, Path: "/api/v1/voices"},
		},
	}
}

// Timeout attaches a deadline to the request context. Handlers observe the
// deadline through ctx; nothing is written on their behalf.
func Timeout(cfg TimeoutConfig) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			timeout := cfg.Default
			for _, route := range cfg.ExtendedRoutes {
				if route.matches(r) {
					timeout = cfg.Extended
					break
				}
			}
			if timeout <= 0 {
				next.ServeHTTP(w, r)
				return
			}

			ctx, cancel := context.WithTimeout(r.Context(), timeout)
			defer cancel()
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
