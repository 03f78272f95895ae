package chat

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func collectEvents(t *testing.T, stream *Stream) ([]Event, error) {
	t.Helper()

	collected := []Event{}
	var failure error
	stream.Events(context.Background())(func(event Event, err error) bool {
		if err != nil {
			failure = err
			return false
		}
		collected = append(collected, event)
		return true
	})
	return collected, failure
}

func TestStreamDeliversDeltasAndDone(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/converse" {
			t.Errorf("unexpected path %q", r.URL.Path)
		}

		var req requestBody
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decoding request: %v", err)
		}
		if req.Message != "Any new mail?" {
			t.Errorf("unexpected message %q", req.Message)
		}
		if len(req.History) != 2 {
			t.Errorf("expected 2 history turns, got %d", len(req.History))
		}

		w.Write([]byte(`{"delta":"You have "}` + "\n"))
		w.Write([]byte(`{"delta":"two unread messages."}` + "\n"))
		w.Write([]byte(`{"done":true,"reply":"You have two unread messages."}` + "\n"))
	}))
	defer server.Close()

	stream := NewClient(server.URL).Stream(context.Background(), "Any new mail?", []Message{
		{Role: RoleUser, Content: "Hello."},
		{Role: RoleAssistant, Content: "Hi, how can I help?"},
	})

	events, err := collectEvents(t, stream)
	if err != nil {
		t.Fatalf("unexpected stream error: %v", err)
	}
	if len(events) != 3 {
		t.Fatalf("expected 3 events, got %d: %#v", len(events), events)
	}
	if delta, ok := events[0].(Delta); !ok || delta.Text != "You have " {
		t.Errorf("unexpected first event: %#v", events[0])
	}
	if done, ok := events[2].(Done); !ok || done.Reply != "You have two unread messages." {
		t.Errorf("unexpected terminal event: %#v", events[2])
	}
}

func TestStreamFallsBackToConcatenatedDeltas(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"delta":"All "}` + "\n"))
		w.Write([]byte(`{"delta":"done."}` + "\n"))
		w.Write([]byte(`{"done":true}` + "\n"))
	}))
	defer server.Close()

	stream := NewClient(server.URL).Stream(context.Background(), "Send it.", nil)
	events, err := collectEvents(t, stream)
	if err != nil {
		t.Fatalf("unexpected stream error: %v", err)
	}

	done, ok := events[len(events)-1].(Done)
	if !ok {
		t.Fatalf("expected a done event, got %#v", events[len(events)-1])
	}
	if done.Reply != "All done." {
		t.Fatalf("expected reply assembled from deltas, got %q", done.Reply)
	}
}

func TestStreamStopsAtTerminalRecord(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"done":true,"reply":"Done."}` + "\n"))
		w.Write([]byte(`{"delta":"must never be seen"}` + "\n"))
	}))
	defer server.Close()

	stream := NewClient(server.URL).Stream(context.Background(), "Hello.", nil)
	events, err := collectEvents(t, stream)
	if err != nil {
		t.Fatalf("unexpected stream error: %v", err)
	}
	if len(events) != 1 {
		t.Fatalf("expected the stream to end at the terminal record, got %#v", events)
	}
}

func TestStreamReportsErrorRecord(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"delta":"partial"}` + "\n"))
		w.Write([]byte(`{"error":"model overloaded"}` + "\n"))
	}))
	defer server.Close()

	stream := NewClient(server.URL).Stream(context.Background(), "Hello.", nil)
	events, err := collectEvents(t, stream)
	if err != nil {
		t.Fatalf("unexpected stream error: %v", err)
	}

	failure, ok := events[len(events)-1].(Failure)
	if !ok {
		t.Fatalf("expected a failure event, got %#v", events[len(events)-1])
	}
	if failure.Message != "model overloaded" {
		t.Fatalf("unexpected failure message %q", failure.Message)
	}
}

func TestStreamWithoutTerminalRecordFails(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"delta":"cut off"}` + "\n"))
	}))
	defer server.Close()

	stream := NewClient(server.URL).Stream(context.Background(), "Hello.", nil)
	if _, err := collectEvents(t, stream); err == nil {
		t.Fatalf("expected an error for a stream without a terminal record")
	}
}

func TestStreamNonOKStatusFails(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer server.Close()

	stream := NewClient(server.URL).Stream(context.Background(), "Hello.", nil)
	if _, err := collectEvents(t, stream); err == nil {
		t.Fatalf("expected an error for a non-OK response")
	}
}
