package service

import (
	"context"
	"net/http"
	"os"

	"github.com/voxmail-ai/voxmail-core/core/llms"
	"github.com/voxmail-ai/voxmail-core/core/llms/groq"
)

const (
	apiKeyEnv = "GROQ_API_KEY"

	// maxToolRounds caps how many times the model may chain mail tool calls
	// before it has to answer.
	maxToolRounds = 5

	defaultSystemPrompt = "You are a voice assistant for the user's email. " +
		"Use the available tools to search, read, send and reply to emails. " +
		"Answer in short spoken-style sentences without markup, lists or markdown, " +
		"since your reply will be read aloud."
)

type promptFunc func(ctx context.Context, messages []llms.Message, tools []llms.Tool) (*llms.Response, error)
type streamFunc func(ctx context.Context, messages []llms.Message) func(func(llms.StreamChunk, error) bool)

// Server hosts the conversation endpoint consumed by the voice core.
type Server struct {
	model        string
	systemPrompt string
	mail         MailProvider

	prompt promptFunc
	stream streamFunc
}

type ServerOption func(*Server)

func WithSystemPrompt(systemPrompt string) ServerOption {
	return func(s *Server) {
		s.systemPrompt = systemPrompt
	}
}

// NewServer reads the model API key from GROQ_API_KEY.
func NewServer(model string, mailProvider MailProvider, opts ...ServerOption) *Server {
	apiKey := os.Getenv(apiKeyEnv)

	s := &Server{
		model:        model,
		systemPrompt: defaultSystemPrompt,
		mail:         mailProvider,
	}
	s.prompt = func(ctx context.Context, messages []llms.Message, tools []llms.Tool) (*llms.Response, error) {
		return groq.Prompt(ctx, apiKey, s.model, nil, s.systemPrompt, tools,
			llms.WithMessages(messages...),
		)
	}
	s.stream = func(ctx context.Context, messages []llms.Message) func(func(llms.StreamChunk, error) bool) {
		return groq.PromptWithStream(ctx, apiKey, s.model, nil, s.systemPrompt, nil,
			llms.WithMessages(messages...),
		).Chunks(ctx)
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Handler returns the HTTP surface of the service.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /converse", s.converse)
	return mux
}
