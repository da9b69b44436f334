package mw

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func deadlineFor(t *testing.T, cfg TimeoutConfig, method, path string) (time.Duration, bool) {
	t.Helper()
	var remaining time.Duration
	var ok bool
	h := Timeout(cfg)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var dl time.Time
		dl, ok = r.Context().Deadline()
		remaining = time.Until(dl)
	}))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(method, path, nil))
	return remaining, ok
}

func TestDefaultTimeoutConfig(t *testing.T) {
	cfg := DefaultTimeoutConfig(60 * time.Second)
	if cfg.Extended != 90*time.Second {
		t.Errorf("Extended = %v, want 90s", cfg.Extended)
	}
	if cfg.Default != 30*time.Second {
		t.Errorf("Default = %v, want 30s", cfg.Default)
	}
}

func TestTimeout_DefaultRoutes(t *testing.T) {
	cfg := DefaultTimeoutConfig(60 * time.Second)

	tests := []struct {
		method  string
		path    string
		atLeast time.Duration
		atMost  time.Duration
	}{
		{http.MethodGet, "/api/v1/credits", 29 * time.Second, 30 * time.Second},
		{http.MethodPost, "/api/v1/tts/generate", 89 * time.Second, 90 * time.Second},
		{http.MethodPost, "/api/v1/voices", 89 * time.Second, 90 * time.Second},
		{http.MethodPost, "/api/v1/voices/", 89 * time.Second, 90 * time.Second},
		{http.MethodGet, "/api/v1/voices", 29 * time.Second, 30 * time.Second},
		{http.MethodDelete, "/api/v1/voices/01J0VOICE", 29 * time.Second, 30 * time.Second},
		{http.MethodGet, "/api/v1/tts/generations", 29 * time.Second, 30 * time.Second},
	}
	for _, tt := range tests {
		t.Run(tt.method+" "+tt.path, func(t *testing.T) {
			remaining, ok := deadlineFor(t, cfg, tt.method, tt.path)
			if !ok {
				t.Fatal("expected a deadline")
			}
			if remaining < tt.atLeast || remaining > tt.atMost {
				t.Errorf("remaining = %v, want between %v and %v", remaining, tt.atLeast, tt.atMost)
			}
		})
	}
}

func TestTimeout_Disabled(t *testing.T) {
	if _, ok := deadlineFor(t, TimeoutConfig{}, http.MethodGet, "/api/v1/credits"); ok {
		t.Error("expected no deadline with zero config")
	}
}
