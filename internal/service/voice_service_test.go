package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/Ahmedkhn143/NexLevel-Speech-sub000/internal/models"
	"github.com/Ahmedkhn143/NexLevel-Speech-sub000/internal/synth"
)

func sampleFile() synth.Sample {
	return synth.Sample{Filename: "sample.mp3", ContentType: "audio/mpeg", Data: []byte("ID3-sample")}
}

func TestVoiceService_Clone(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.provision(t, "user-1", 2000, 0, 0)

	voice, err := env.voices.Clone(ctx, CloneVoiceInput{UserID: "user-1", Name: " Narrator ", Sample: sampleFile()})
	if err != nil {
		t.Fatalf("Clone failed: %v", err)
	}
	if voice.Status != models.VoiceStatusReady || voice.ExternalVoiceID != "ext-Narrator" {
		t.Errorf("voice = %+v", voice)
	}
	if voice.Language != "en" {
		t.Errorf("language = %q, want en", voice.Language)
	}
	if _, ok := env.store.objects["voices/user-1/"+voice.ID+".mp3"]; !ok {
		t.Error("expected sample to be stored")
	}

	// Cloning costs no credits.
	if l := env.ledger(t, "user-1"); l.UsedCredits != 0 {
		t.Errorf("used = %d, want 0", l.UsedCredits)
	}

	hist, err := env.usage.History(ctx, "user-1", time.Time{}, 0, 0)
	if err != nil {
		t.Fatalf("History failed: %v", err)
	}
	if hist.Totals.VoiceClones != 1 {
		t.Errorf("voice clones = %d, want 1", hist.Totals.VoiceClones)
	}

	voices, err := env.voices.List(ctx, "user-1")
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(voices) != 2 || !voices[0].IsPreset || voices[1].ID != voice.ID {
		t.Errorf("voices = %+v", voices)
	}
}

func TestVoiceService_CloneLimit(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.provision(t, "user-1", 2000, 0, 0)

	if _, err := env.voices.Clone(ctx, CloneVoiceInput{UserID: "user-1", Name: "One", Sample: sampleFile()}); err != nil {
		t.Fatalf("first Clone failed: %v", err)
	}
	// The free plan allows one voice.
	_, err := env.voices.Clone(ctx, CloneVoiceInput{UserID: "user-1", Name: "Two", Sample: sampleFile()})
	if !errors.Is(err, ErrVoiceLimitReached) {
		t.Fatalf("err = %v, want ErrVoiceLimitReached", err)
	}
}

func TestVoiceService_CloneValidation(t *testing.T) {
	env := newTestEnv(t)
	env.provision(t, "user-1", 2000, 0, 0)
	ctx := context.Background()

	tests := []struct {
		name  string
		input CloneVoiceInput
	}{
		{"missing name", CloneVoiceInput{UserID: "user-1", Name: "  ", Sample: sampleFile()}},
		{"missing sample", CloneVoiceInput{UserID: "user-1", Name: "A"}},
		{"oversized sample", CloneVoiceInput{UserID: "user-1", Name: "A", Sample: synth.Sample{Data: make([]byte, maxSampleBytes+1)}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := env.voices.Clone(ctx, tt.input); !errors.Is(err, ErrInvalidInput) {
				t.Errorf("err = %v, want ErrInvalidInput", err)
			}
		})
	}
}

func TestVoiceService_CloneProviderFailure(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.provision(t, "user-1", 2000, 0, 0)
	env.synth.cloneErr = errors.New("sample too short")

	_, err := env.voices.Clone(ctx, CloneVoiceInput{UserID: "user-1", Name: "Short", Sample: sampleFile()})
	if !errors.Is(err, ErrSynthesisFailure) {
		t.Fatalf("err = %v, want ErrSynthesisFailure", err)
	}

	own, err := env.repos.Voice.ListByUser(ctx, "user-1")
	if err != nil {
		t.Fatalf("ListByUser failed: %v", err)
	}
	if len(own) != 1 || own[0].Status != models.VoiceStatusFailed {
		t.Fatalf("expected one FAILED voice, got %+v", own)
	}
	if len(env.store.deleted) != 1 {
		t.Errorf("expected sample cleanup, got %v", env.store.deleted)
	}

	// A failed clone does not hold a slot.
	env.synth.cloneErr = nil
	if _, err := env.voices.Clone(ctx, CloneVoiceInput{UserID: "user-1", Name: "Retry", Sample: sampleFile()}); err != nil {
		t.Errorf("retry Clone failed: %v", err)
	}
}

func TestVoiceService_Delete(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.provision(t, "user-1", 2000, 0, 0)

	voice, err := env.voices.Clone(ctx, CloneVoiceInput{UserID: "user-1", Name: "Temp", Sample: sampleFile()})
	if err != nil {
		t.Fatalf("Clone failed: %v", err)
	}

	if err := env.voices.Delete(ctx, "user-2", voice.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound for another user", err)
	}
	if err := env.voices.Delete(ctx, "user-1", testPresetID); !errors.Is(err, ErrInvalidInput) {
		t.Errorf("err = %v, want ErrInvalidInput for a preset", err)
	}

	if err := env.voices.Delete(ctx, "user-1", voice.ID); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if len(env.synth.deleted) != 1 || env.synth.deleted[0] != "ext-Temp" {
		t.Errorf("provider deletes = %v", env.synth.deleted)
	}
	if _, err := env.voices.Resolve(ctx, "user-1", voice.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound after delete", err)
	}
	if _, err := env.voices.Get(ctx, "user-1", voice.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound after delete", err)
	}
}

func TestVoiceService_LimitFollowsPlan(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.provision(t, "user-1", 2000, 0, 0)

	co := startCheckout(t, env, "user-1", "starter", models.BillingCycleMonthly, models.PaymentProviderJazzCash)
	if _, err := deliver(t, env, "valid", fakeWebhookBody{Status: models.PaymentStatusCompleted, OrderID: co.PaymentID}); err != nil {
		t.Fatalf("HandleWebhook failed: %v", err)
	}

	// Starter allows three voices.
	for _, name := range []string{"A", "B", "C"} {
		if _, err := env.voices.Clone(ctx, CloneVoiceInput{UserID: "user-1", Name: name, Sample: sampleFile()}); err != nil {
			t.Fatalf("Clone %s failed: %v", name, err)
		}
	}
	if _, err := env.voices.Clone(ctx, CloneVoiceInput{UserID: "user-1", Name: "D", Sample: sampleFile()}); !errors.Is(err, ErrVoiceLimitReached) {
		t.Errorf("err = %v, want ErrVoiceLimitReached", err)
	}
}

func TestVoiceService_CloneDeletedUser(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.provision(t, "user-1", 2000, 0, 0)

	if err := env.account.Delete(ctx, "user-1"); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}

	_, err := env.voices.Clone(ctx, CloneVoiceInput{UserID: "user-1", Name: "Ghost", Sample: sampleFile()})
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
	count, err := env.repos.Voice.CountActiveByUser(ctx, "user-1")
	if err != nil {
		t.Fatalf("CountActiveByUser failed: %v", err)
	}
	if count != 0 {
		t.Errorf("voices = %d, want 0", count)
	}
}
