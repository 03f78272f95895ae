// Package config provides the configuration schema and loader for the
// voxmail voice assistant.
package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// AudioBackend selects the audio device implementation.
type AudioBackend string

const (
	BackendMiniaudio AudioBackend = "miniaudio"
	BackendPortaudio AudioBackend = "portaudio"
)

// IsValid reports whether b is a recognised audio backend.
func (b AudioBackend) IsValid() bool {
	return b == BackendMiniaudio || b == BackendPortaudio
}

// Config is the root configuration, typically loaded from a YAML file using
// [Load] or [LoadFromReader].
type Config struct {
	Audio  AudioConfig  `yaml:"audio"`
	VAD    VADConfig    `yaml:"vad"`
	Speech SpeechConfig `yaml:"speech"`
	Chat   ChatConfig   `yaml:"chat"`
	Mail   MailConfig   `yaml:"mail"`
}

// AudioConfig selects and tunes the audio device backend.
type AudioConfig struct {
	// Backend is "miniaudio" (default) or "portaudio".
	Backend AudioBackend `yaml:"backend"`

	// BufferSize is the portaudio device buffer in frames. Ignored by the
	// miniaudio backend.
	BufferSize int `yaml:"buffer_size"`
}

// VADConfig tunes utterance and interruption detection. Durations are in
// milliseconds.
type VADConfig struct {
	// SilenceThreshold is the normalized RMS level above which audio counts
	// as voice.
	SilenceThreshold float64 `yaml:"silence_threshold"`

	MinUtteranceMs int `yaml:"min_utterance_ms"`
	SilenceMs      int `yaml:"silence_ms"`

	// InterruptMultiplier scales the silence threshold for barge-in while
	// the assistant is speaking.
	InterruptMultiplier float64 `yaml:"interrupt_multiplier"`
}

func (c VADConfig) MinUtteranceDuration() time.Duration {
	return time.Duration(c.MinUtteranceMs) * time.Millisecond
}

func (c VADConfig) SilenceDuration() time.Duration {
	return time.Duration(c.SilenceMs) * time.Millisecond
}

// SpeechConfig tunes transcription and synthesis.
type SpeechConfig struct {
	// Voice is the synthesis voice name, e.g. "aura-2-thalia-en".
	Voice string `yaml:"voice"`

	// TranscriptionModel is the speech-to-text model, e.g. "nova-3".
	TranscriptionModel string `yaml:"transcription_model"`

	Language string `yaml:"language"`

	// MaxConcurrentSynthesis caps sentence synthesis running ahead of
	// playback.
	MaxConcurrentSynthesis int `yaml:"max_concurrent_synthesis"`
}

// ChatConfig points the voice core at the conversation service.
type ChatConfig struct {
	// ServiceURL is the base URL of a running conversation service. When
	// empty, the service is hosted in-process on a loopback listener.
	ServiceURL string `yaml:"service_url"`

	// Model is the chat completion model used by the in-process service.
	Model string `yaml:"model"`
}

// MailConfig points the in-process service at the mail provider.
type MailConfig struct {
	BaseURL string `yaml:"base_url"`
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	return &Config{
		Audio: AudioConfig{
			Backend:    BackendMiniaudio,
			BufferSize: 512,
		},
		VAD: VADConfig{
			SilenceThreshold:    0.02,
			MinUtteranceMs:      500,
			SilenceMs:           1500,
			InterruptMultiplier: 3.0,
		},
		Speech: SpeechConfig{
			Voice:                  "aura-2-thalia-en",
			TranscriptionModel:     "nova-3",
			Language:               "en-US",
			MaxConcurrentSynthesis: 3,
		},
		Chat: ChatConfig{
			Model: "llama-3.3-70b-versatile",
		},
	}
}

// Load reads the YAML configuration file at path, fills unset values with
// defaults, and validates the result.
func Load(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("config: open %q: %w", path, err)
	}
	defer f.Close()

	cfg, err := LoadFromReader(f)
	if err != nil {
		return nil, fmt.Errorf("config: parse %q: %w", path, err)
	}
	return cfg, nil
}

// LoadFromReader decodes a YAML config from r and validates the result.
// Useful in tests where configs are constructed from string literals.
func LoadFromReader(r io.Reader) (*Config, error) {
	cfg := Default()
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil {
		return nil, fmt.Errorf("config: decode yaml: %w", err)
	}
	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks that cfg contains a coherent set of values. It returns a
// joined error listing all validation failures found.
func Validate(cfg *Config) error {
	var errs []error

	if !cfg.Audio.Backend.IsValid() {
		errs = append(errs, fmt.Errorf("audio.backend %q is invalid; valid values: miniaudio, portaudio", cfg.Audio.Backend))
	}
	if cfg.Audio.Backend == BackendPortaudio && cfg.Audio.BufferSize <= 0 {
		errs = append(errs, fmt.Errorf("audio.buffer_size must be positive for the portaudio backend"))
	}

	if cfg.VAD.SilenceThreshold <= 0 || cfg.VAD.SilenceThreshold >= 1 {
		errs = append(errs, fmt.Errorf("vad.silence_threshold %.3f is out of range (0, 1)", cfg.VAD.SilenceThreshold))
	}
	if cfg.VAD.MinUtteranceMs <= 0 {
		errs = append(errs, fmt.Errorf("vad.min_utterance_ms must be positive"))
	}
	if cfg.VAD.SilenceMs <= 0 {
		errs = append(errs, fmt.Errorf("vad.silence_ms must be positive"))
	}
	if cfg.VAD.InterruptMultiplier < 1 {
		errs = append(errs, fmt.Errorf("vad.interrupt_multiplier %.2f must be at least 1", cfg.VAD.InterruptMultiplier))
	}

	if cfg.Speech.MaxConcurrentSynthesis <= 0 {
		errs = append(errs, fmt.Errorf("speech.max_concurrent_synthesis must be positive"))
	}

	if cfg.Chat.ServiceURL == "" {
		if cfg.Chat.Model == "" {
			errs = append(errs, fmt.Errorf("chat.model is required when hosting the service in-process"))
		}
		if cfg.Mail.BaseURL == "" {
			errs = append(errs, fmt.Errorf("mail.base_url is required when hosting the service in-process"))
		}
	}

	return errors.Join(errs...)
}
