// Command voxmail runs the voice email assistant: the conversation service
// (in-process unless configured otherwise), the voice session, and the
// terminal UI.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"golang.org/x/sync/errgroup"

	"github.com/voxmail-ai/voxmail-core/config"
	session "github.com/voxmail-ai/voxmail-core/core"
	"github.com/voxmail-ai/voxmail-core/core/audio/miniaudio"
	"github.com/voxmail-ai/voxmail-core/core/audio/portaudio"
	"github.com/voxmail-ai/voxmail-core/core/chat"
	"github.com/voxmail-ai/voxmail-core/core/events"
	"github.com/voxmail-ai/voxmail-core/core/mail"
	"github.com/voxmail-ai/voxmail-core/core/speechtotext"
	sttdeepgram "github.com/voxmail-ai/voxmail-core/core/speechtotext/deepgram"
	ttsdeepgram "github.com/voxmail-ai/voxmail-core/core/texttospeech/deepgram"
	"github.com/voxmail-ai/voxmail-core/internal/tui"
	"github.com/voxmail-ai/voxmail-core/service"
)

func main() {
	configPath := flag.String("config", "", "path to the YAML configuration file")
	flag.Parse()

	if err := run(*configPath); err != nil {
		fmt.Fprintln(os.Stderr, "voxmail:", err)
		os.Exit(1)
	}
}

func run(configPath string) error {
	cfg := config.Default()
	if configPath != "" {
		loaded, err := config.Load(configPath)
		if err != nil {
			return err
		}
		cfg = loaded
	} else if err := config.Validate(cfg); err != nil {
		return err
	}

	// The TUI owns the terminal, so logs go to a file.
	logFile, err := os.OpenFile("voxmail.log", os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("opening log file: %w", err)
	}
	defer logFile.Close()
	slog.SetDefault(slog.New(slog.NewTextHandler(logFile, nil)))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	serviceURL := cfg.Chat.ServiceURL
	if serviceURL == "" {
		listener, err := net.Listen("tcp", "127.0.0.1:0")
		if err != nil {
			return fmt.Errorf("starting conversation service listener: %w", err)
		}
		server := &http.Server{
			Handler: service.NewServer(cfg.Chat.Model, mail.NewClient(cfg.Mail.BaseURL)).Handler(),
		}
		go func() {
			if err := server.Serve(listener); err != nil && err != http.ErrServerClosed {
				slog.Error("conversation service failed", "error", err)
			}
		}()
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			_ = server.Shutdown(shutdownCtx)
		}()
		serviceURL = "http://" + listener.Addr().String()
	}

	var audioClient session.AudioClient
	switch cfg.Audio.Backend {
	case config.BackendPortaudio:
		audioClient, err = portaudio.NewClient(cfg.Audio.BufferSize)
	default:
		audioClient, err = miniaudio.NewClient()
	}
	if err != nil {
		return fmt.Errorf("initializing audio: %w", err)
	}
	defer audioClient.Close()

	transcriptionClient, err := sttdeepgram.NewTranscriptionClient()
	if err != nil {
		return fmt.Errorf("initializing transcription: %w", err)
	}

	voice := ttsdeepgram.VoiceThalia
	for _, available := range ttsdeepgram.GetAvailableVoices() {
		if string(available) == cfg.Speech.Voice {
			voice = available
		}
	}
	synthesizer, err := ttsdeepgram.NewTextToSpeechClient(voice)
	if err != nil {
		return fmt.Errorf("initializing synthesis: %w", err)
	}

	var program *tea.Program
	voiceSession, err := session.New(
		session.WithAudioClient(audioClient),
		session.WithTranscriber(configuredTranscriber{
			client:   transcriptionClient,
			model:    cfg.Speech.TranscriptionModel,
			language: cfg.Speech.Language,
		}),
		session.WithSynthesizer(synthesizer),
		session.WithChatClient(chat.NewClient(serviceURL)),
		session.WithVADConfig(session.VADConfig{
			SilenceThreshold:     cfg.VAD.SilenceThreshold,
			MinUtteranceDuration: cfg.VAD.MinUtteranceDuration(),
			SilenceDuration:      cfg.VAD.SilenceDuration(),
			InterruptMultiplier:  cfg.VAD.InterruptMultiplier,
		}),
		session.WithMaxConcurrentSynthesis(cfg.Speech.MaxConcurrentSynthesis),
		session.WithEventHandler(func(event events.Event) {
			if program != nil {
				program.Send(tui.EventMsg{Event: event})
			}
		}),
	)
	if err != nil {
		return err
	}

	program = tea.NewProgram(tui.New(voiceSession.Stop), tea.WithAltScreen())

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	group := errgroup.Group{}
	group.Go(func() error {
		defer cancel()
		return voiceSession.Run(ctx)
	})
	group.Go(func() error {
		defer cancel()
		_, err := program.Run()
		voiceSession.Stop()
		return err
	})
	group.Go(func() error {
		<-ctx.Done()
		voiceSession.Stop()
		program.Quit()
		return nil
	})

	return group.Wait()
}

// configuredTranscriber applies the configured model and language to every
// transcription call.
type configuredTranscriber struct {
	client   *sttdeepgram.TranscriptionClient
	model    string
	language string
}

func (t configuredTranscriber) Transcribe(ctx context.Context, utterance []byte, opts ...speechtotext.TranscriptionOption) (string, error) {
	if t.model != "" {
		opts = append(opts, speechtotext.WithModel(t.model))
	}
	if t.language != "" {
		opts = append(opts, speechtotext.WithLanguage(t.language))
	}
	return t.client.Transcribe(ctx, utterance, opts...)
}
