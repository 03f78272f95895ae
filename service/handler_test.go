package service

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/voxmail-ai/voxmail-core/core/llms"
	"github.com/voxmail-ai/voxmail-core/core/mail"
)

type fakeMail struct {
	searched []string
}

func (f *fakeMail) Search(_ context.Context, query string, limit int) ([]mail.Summary, error) {
	f.searched = append(f.searched, query)
	return []mail.Summary{
		{ID: "m1", From: "alice@example.com", Subject: "Lunch?", Date: "2026-08-27"},
	}, nil
}

func (f *fakeMail) Read(context.Context, string) (*mail.Email, error) {
	return nil, errors.New("not implemented")
}

func (f *fakeMail) ReadAttachment(context.Context, string, string) (string, error) {
	return "", errors.New("not implemented")
}

func (f *fakeMail) Send(context.Context, string, string, string) (string, error) {
	return "", errors.New("not implemented")
}

func (f *fakeMail) Reply(context.Context, string, string) (string, error) {
	return "", errors.New("not implemented")
}

type fakeContentChunk struct{ content string }

func (c fakeContentChunk) FinishReason() *string { return nil }
func (c fakeContentChunk) Content() string       { return c.content }

func streamOf(chunks ...llms.StreamChunk) streamFunc {
	return func(context.Context, []llms.Message) func(func(llms.StreamChunk, error) bool) {
		return func(yield func(llms.StreamChunk, error) bool) {
			for _, chunk := range chunks {
				if !yield(chunk, nil) {
					return
				}
			}
		}
	}
}

func decodeRecords(t *testing.T, body string) []converseRecord {
	t.Helper()

	records := []converseRecord{}
	scanner := bufio.NewScanner(strings.NewReader(body))
	for scanner.Scan() {
		if strings.TrimSpace(scanner.Text()) == "" {
			continue
		}
		var record converseRecord
		if err := json.Unmarshal(scanner.Bytes(), &record); err != nil {
			t.Fatalf("invalid record %q: %v", scanner.Text(), err)
		}
		records = append(records, record)
	}
	return records
}

func postConverse(t *testing.T, server *Server, body string) *httptest.ResponseRecorder {
	t.Helper()

	recorder := httptest.NewRecorder()
	request := httptest.NewRequest(http.MethodPost, "/converse", strings.NewReader(body))
	server.Handler().ServeHTTP(recorder, request)
	return recorder
}

func TestConverseStreamsDeltasAndDone(t *testing.T) {
	server := &Server{
		mail: &fakeMail{},
		prompt: func(context.Context, []llms.Message, []llms.Tool) (*llms.Response, error) {
			return &llms.Response{Content: "no tools needed"}, nil
		},
		stream: streamOf(
			fakeContentChunk{content: "You have "},
			fakeContentChunk{content: "one email."},
		),
	}

	recorder := postConverse(t, server, `{"message":"Any new mail?"}`)
	if recorder.Code != http.StatusOK {
		t.Fatalf("unexpected status %d", recorder.Code)
	}

	records := decodeRecords(t, recorder.Body.String())
	if len(records) != 3 {
		t.Fatalf("expected 3 records, got %#v", records)
	}
	if records[0].Delta == nil || *records[0].Delta != "You have " {
		t.Errorf("unexpected first record: %+v", records[0])
	}
	terminal := records[2]
	if !terminal.Done || terminal.Reply == nil || *terminal.Reply != "You have one email." {
		t.Fatalf("unexpected terminal record: %+v", terminal)
	}
}

func TestConverseResolvesToolCallsBeforeStreaming(t *testing.T) {
	provider := &fakeMail{}

	calls := 0
	var toolResults []string
	server := &Server{
		mail: provider,
		prompt: func(_ context.Context, messages []llms.Message, _ []llms.Tool) (*llms.Response, error) {
			calls++
			if calls == 1 {
				return &llms.Response{ToolCalls: []llms.ToolCall{
					{ID: "call-1", Name: "search_emails", Arguments: `{"query":"from:alice"}`},
				}}, nil
			}
			for _, message := range messages {
				if message.Role == llms.MessageRoleTool {
					toolResults = append(toolResults, message.Content)
				}
			}
			return &llms.Response{Content: "done"}, nil
		},
		stream: streamOf(fakeContentChunk{content: "I found one email from Alice."}),
	}

	recorder := postConverse(t, server, `{"message":"search emails from alice"}`)
	if recorder.Code != http.StatusOK {
		t.Fatalf("unexpected status %d", recorder.Code)
	}

	if calls != 2 {
		t.Fatalf("expected 2 prompt rounds, got %d", calls)
	}
	if len(provider.searched) != 1 || provider.searched[0] != "from:alice" {
		t.Fatalf("expected the search tool to run, got %v", provider.searched)
	}
	if len(toolResults) != 1 || !strings.Contains(toolResults[0], "alice@example.com") {
		t.Fatalf("expected the tool result in the follow-up round, got %v", toolResults)
	}

	records := decodeRecords(t, recorder.Body.String())
	terminal := records[len(records)-1]
	if !terminal.Done || terminal.Reply == nil || *terminal.Reply != "I found one email from Alice." {
		t.Fatalf("unexpected terminal record: %+v", terminal)
	}
}

func TestConverseCapsToolRounds(t *testing.T) {
	calls := 0
	server := &Server{
		mail: &fakeMail{},
		prompt: func(context.Context, []llms.Message, []llms.Tool) (*llms.Response, error) {
			calls++
			return &llms.Response{ToolCalls: []llms.ToolCall{
				{ID: "loop", Name: "search_emails", Arguments: `{"query":"again"}`},
			}}, nil
		},
		stream: streamOf(fakeContentChunk{content: "Giving up gracefully."}),
	}

	recorder := postConverse(t, server, `{"message":"loop forever"}`)
	if recorder.Code != http.StatusOK {
		t.Fatalf("unexpected status %d", recorder.Code)
	}
	if calls != maxToolRounds {
		t.Fatalf("expected the tool loop to stop after %d rounds, got %d", maxToolRounds, calls)
	}
}

func TestConverseStreamErrorBecomesErrorRecord(t *testing.T) {
	server := &Server{
		mail: &fakeMail{},
		prompt: func(context.Context, []llms.Message, []llms.Tool) (*llms.Response, error) {
			return &llms.Response{}, nil
		},
		stream: func(context.Context, []llms.Message) func(func(llms.StreamChunk, error) bool) {
			return func(yield func(llms.StreamChunk, error) bool) {
				yield(fakeContentChunk{content: "partial"}, nil)
				yield(nil, errors.New("model overloaded"))
			}
		},
	}

	records := decodeRecords(t, postConverse(t, server, `{"message":"hello"}`).Body.String())
	terminal := records[len(records)-1]
	if terminal.Error == nil || !strings.Contains(*terminal.Error, "model overloaded") {
		t.Fatalf("expected an error record, got %+v", terminal)
	}
	if terminal.Done {
		t.Fatalf("expected no done record after an error, got %+v", terminal)
	}
}

func TestConversePromptFailureIsBadGateway(t *testing.T) {
	server := &Server{
		mail: &fakeMail{},
		prompt: func(context.Context, []llms.Message, []llms.Tool) (*llms.Response, error) {
			return nil, errors.New("backend down")
		},
	}

	if recorder := postConverse(t, server, `{"message":"hello"}`); recorder.Code != http.StatusBadGateway {
		t.Fatalf("expected status 502, got %d", recorder.Code)
	}
}

func TestConverseRejectsEmptyMessage(t *testing.T) {
	server := &Server{mail: &fakeMail{}}

	if recorder := postConverse(t, server, `{"message":"  "}`); recorder.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400, got %d", recorder.Code)
	}
	if recorder := postConverse(t, server, `not json`); recorder.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400, got %d", recorder.Code)
	}
}

func TestMailToolFailureIsSpokenText(t *testing.T) {
	tools := mailTools(context.Background(), &failingMail{})

	for _, tool := range tools {
		if tool.Function.Name != "read_email" {
			continue
		}
		result, err := tool.Execute(`{"message_id":"m1"}`)
		if err != nil {
			t.Fatalf("expected provider failure to be folded into text, got %v", err)
		}
		if !strings.Contains(result, "mail provider failed") {
			t.Fatalf("unexpected failure text %q", result)
		}
		return
	}
	t.Fatalf("read_email tool not found")
}

type failingMail struct{ fakeMail }

func (f *failingMail) Read(context.Context, string) (*mail.Email, error) {
	return nil, &mail.Error{Op: "read", StatusCode: http.StatusNotFound, Err: errors.New("message not found")}
}
