package mw

import (
	"net/http"

	"github.com/Ahmedkhn143/NexLevel-Speech-sub000/internal/version"
)

// APIVersion returns middleware that sets X-API-Version on every response.
func APIVersion() func(http.Handler) http.Handler {
	v := version.Get().Short()
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("X-API-Version", v)
			next.ServeHTTP(w, r)
		})
	}
}
