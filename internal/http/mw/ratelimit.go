package mw

import (
	"net/http"
	"time"

	"github.com/go-chi/httprate"
)

// RateLimitConfig holds request rate limits.
type RateLimitConfig struct {
	// UserRequestsPerMinute applies per authenticated user. 0 disables it.
	UserRequestsPerMinute int
	// IPRequestsPerMinute applies to anonymous requests.
	IPRequestsPerMinute int
}

// DefaultRateLimitConfig returns the production limits.
func DefaultRateLimitConfig() RateLimitConfig {
	return RateLimitConfig{
		UserRequestsPerMinute: 120,
		IPRequestsPerMinute:   60,
	}
}

// userOrIPKey keys by user when claims are present and by client IP otherwise.
func userOrIPKey(r *http.Request) (string, error) {
	if claims := GetUserClaims(r.Context()); claims != nil && claims.UserID != "" {
		return "user:" + claims.UserID, nil
	}
	return httprate.KeyByIP(r)
}

// RateLimitByUser rate limits authenticated requests per user and anonymous
// requests per IP. Apply after authentication.
func RateLimitByUser(cfg RateLimitConfig) func(http.Handler) http.Handler {
	var userLimiter *httprate.RateLimiter
	if cfg.UserRequestsPerMinute > 0 {
		userLimiter = httprate.NewRateLimiter(cfg.UserRequestsPerMinute, time.Minute,
			httprate.WithKeyFuncs(userOrIPKey))
	}
	ipLimiter := httprate.NewRateLimiter(cfg.IPRequestsPerMinute, time.Minute,
		httprate.WithKeyFuncs(httprate.KeyByIP))

	return func(next http.Handler) http.Handler {
		limitedUser := next
		if userLimiter != nil {
			limitedUser = userLimiter.Handler(next)
		}
		limitedIP := ipLimiter.Handler(next)

		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if GetUserClaims(r.Context()) != nil {
				limitedUser.ServeHTTP(w, r)
				return
			}
			limitedIP.ServeHTTP(w, r)
		})
	}
}

// RateLimitByIP returns a middleware that rate limits by IP address.
// Used on provider webhooks and other public endpoints.
func RateLimitByIP(requestsPerMinute int) func(http.Handler) http.Handler {
	return httprate.LimitByIP(requestsPerMinute, time.Minute)
}
