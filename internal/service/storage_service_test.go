package service

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"
	"testing"

	appconfig "github.com/Ahmedkhn143/NexLevel-Speech-sub000/internal/config"
)

// ========================================
// StorageService Tests
// ========================================

func TestNewStorageService_LocalMode(t *testing.T) {
	cfg := &appconfig.Config{
		BaseURL:         "http://localhost:8080",
		LocalStorageDir: t.TempDir(),
	}
	svc, err := NewStorageService(cfg, testLogger())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if svc.IsEnabled() {
		t.Error("expected bucket storage to be disabled")
	}
	if svc.Client() != nil {
		t.Error("expected nil client in local mode")
	}
	if svc.LocalDir() != cfg.LocalStorageDir {
		t.Errorf("local dir = %q", svc.LocalDir())
	}
}

func TestStorageService_LocalStoreAndDelete(t *testing.T) {
	dir := t.TempDir()
	svc, err := NewStorageService(&appconfig.Config{BaseURL: "http://localhost:8080", LocalStorageDir: dir}, testLogger())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	ctx := context.Background()

	url, err := svc.Store(ctx, audioKey("user-1", "gen-1"), []byte("mp3"), "audio/mpeg")
	if err != nil {
		t.Fatalf("Store failed: %v", err)
	}
	if want := "http://localhost:8080/media/audio/user-1/gen-1.mp3"; url != want {
		t.Errorf("url = %q, want %q", url, want)
	}

	path := filepath.Join(dir, "audio", "user-1", "gen-1.mp3")
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("expected file on disk: %v", err)
	}
	if string(data) != "mp3" {
		t.Errorf("data = %q", data)
	}

	key, ok := svc.KeyFromURL(url)
	if !ok || key != "audio/user-1/gen-1.mp3" {
		t.Errorf("KeyFromURL = %q, %v", key, ok)
	}

	svc.Delete(ctx, url)
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Errorf("expected file to be removed, stat err = %v", err)
	}

	// Deleting twice is harmless.
	svc.Delete(ctx, url)
}

func TestStorageService_RejectsTraversal(t *testing.T) {
	svc, _ := NewStorageService(&appconfig.Config{LocalStorageDir: t.TempDir()}, testLogger())

	_, err := svc.Store(context.Background(), "../etc/passwd", []byte("x"), "text/plain")
	if !errors.Is(err, ErrInvalidInput) {
		t.Errorf("err = %v, want ErrInvalidInput", err)
	}
	if _, ok := svc.KeyFromURL("https://elsewhere.test/audio/a.mp3"); ok {
		t.Error("expected foreign URL to be rejected")
	}
}

func TestStorageService_S3Mode(t *testing.T) {
	var mu sync.Mutex
	var requests []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		requests = append(requests, r.Method+" "+r.URL.Path)
		mu.Unlock()
		if r.Method == http.MethodDelete {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	cfg := &appconfig.Config{
		StorageEnabled:   true,
		StorageEndpoint:  srv.URL,
		StorageAccessKey: "test",
		StorageSecretKey: "test",
		StorageBucket:    "media",
		StorageRegion:    "auto",
		StoragePublicURL: "https://cdn.example.com",
	}
	svc, err := NewStorageService(cfg, testLogger())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !svc.IsEnabled() || svc.Bucket() != "media" {
		t.Fatalf("expected bucket storage, got enabled=%v bucket=%q", svc.IsEnabled(), svc.Bucket())
	}

	ctx := context.Background()
	url, err := svc.Store(ctx, voiceSampleKey("user-1", "voice-1", "sample.WAV"), []byte("RIFF"), "audio/wav")
	if err != nil {
		t.Fatalf("Store failed: %v", err)
	}
	if want := "https://cdn.example.com/voices/user-1/voice-1.wav"; url != want {
		t.Errorf("url = %q, want %q", url, want)
	}

	svc.Delete(ctx, url)

	mu.Lock()
	defer mu.Unlock()
	want := []string{
		"PUT /media/voices/user-1/voice-1.wav",
		"DELETE /media/voices/user-1/voice-1.wav",
	}
	if len(requests) != len(want) {
		t.Fatalf("requests = %v, want %v", requests, want)
	}
	for i := range want {
		if requests[i] != want[i] {
			t.Errorf("request[%d] = %q, want %q", i, requests[i], want[i])
		}
	}
}
