package config

import (
	"strings"
	"testing"
	"time"
)

const validYAML = `
audio:
  backend: miniaudio
vad:
  silence_threshold: 0.05
  min_utterance_ms: 300
chat:
  model: llama-3.3-70b-versatile
mail:
  base_url: https://mail.example.com/api
`

func TestLoadFromReaderAppliesDefaults(t *testing.T) {
	cfg, err := LoadFromReader(strings.NewReader(validYAML))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.VAD.SilenceThreshold != 0.05 {
		t.Errorf("expected configured threshold 0.05, got %v", cfg.VAD.SilenceThreshold)
	}
	if cfg.VAD.MinUtteranceDuration() != 300*time.Millisecond {
		t.Errorf("expected configured min utterance 300ms, got %v", cfg.VAD.MinUtteranceDuration())
	}
	if cfg.VAD.SilenceDuration() != 1500*time.Millisecond {
		t.Errorf("expected default silence duration, got %v", cfg.VAD.SilenceDuration())
	}
	if cfg.Speech.Voice != "aura-2-thalia-en" {
		t.Errorf("expected default voice, got %q", cfg.Speech.Voice)
	}
}

func TestLoadFromReaderRejectsUnknownFields(t *testing.T) {
	if _, err := LoadFromReader(strings.NewReader("vda:\n  silence_threshold: 0.05\n")); err == nil {
		t.Fatalf("expected an error for unknown fields")
	}
}

func TestValidateJoinsAllFailures(t *testing.T) {
	cfg := Default()
	cfg.Audio.Backend = "pulseaudio"
	cfg.VAD.SilenceThreshold = 2
	cfg.VAD.InterruptMultiplier = 0.5
	cfg.Mail.BaseURL = "https://mail.example.com/api"

	err := Validate(cfg)
	if err == nil {
		t.Fatalf("expected validation errors")
	}
	for _, fragment := range []string{"audio.backend", "vad.silence_threshold", "vad.interrupt_multiplier"} {
		if !strings.Contains(err.Error(), fragment) {
			t.Errorf("expected error to mention %s, got %v", fragment, err)
		}
	}
}

func TestValidateRequiresMailForInProcessService(t *testing.T) {
	cfg := Default()
	if err := Validate(cfg); err == nil || !strings.Contains(err.Error(), "mail.base_url") {
		t.Fatalf("expected mail.base_url to be required, got %v", err)
	}

	cfg.Chat.ServiceURL = "http://127.0.0.1:8090"
	cfg.Mail.BaseURL = ""
	if err := Validate(cfg); err != nil {
		t.Fatalf("expected external service config to be valid, got %v", err)
	}
}
