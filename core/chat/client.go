package chat

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel/attribute"
)

// Client talks to the assistant's conversation endpoint, which streams its
// reply as newline-delimited JSON records.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		httpClient: &http.Client{Transport: otelhttp.NewTransport(http.DefaultTransport,
			otelhttp.WithSpanNameFormatter(func(operationName string, request *http.Request) string {
				return operationName + " " + request.URL.Path
			}),
		)},
	}
}

// Stream prepares a conversation request. The request is only sent once
// Events is consumed.
func (c *Client) Stream(_ context.Context, message string, history []Message) *Stream {
	return &Stream{
		client:  c,
		message: message,
		history: history,
	}
}

type Stream struct {
	client *Client

	message string
	history []Message
}

type requestBody struct {
	Message string    `json:"message"`
	History []Message `json:"history,omitempty"`
}

// record is one NDJSON line of the response stream. A line is either a delta
// or a terminal (done or error), never both.
type record struct {
	Delta *string `json:"delta,omitempty"`
	Done  bool    `json:"done,omitempty"`
	Reply *string `json:"reply,omitempty"`
	Error *string `json:"error,omitempty"`
}

// Events yields stream events in arrival order. The stream ends after the
// first terminal event; a stream that closes without one yields an error.
func (s *Stream) Events(ctx context.Context) func(func(Event, error) bool) {
	return func(yield func(Event, error) bool) {
		ctx, span := tracer.Start(ctx, "converse stream")
		defer span.End()

		requestBodyBytes, err := json.Marshal(requestBody{
			Message: s.message,
			History: s.history,
		})
		if err != nil {
			err = fmt.Errorf("error marshalling JSON: %w", err)
			span.RecordError(err)
			yield(nil, err)
			return
		}

		req, err := http.NewRequestWithContext(ctx, "POST", s.client.baseURL+"/converse", bytes.NewBuffer(requestBodyBytes))
		if err != nil {
			err = fmt.Errorf("error creating HTTP request: %w", err)
			span.RecordError(err)
			yield(nil, err)
			return
		}
		req.Header.Set("Content-Type", "application/json")

		span.SetAttributes(attribute.String("request.url", req.URL.String()))
		resp, err := s.client.httpClient.Do(req)
		if err != nil {
			err = fmt.Errorf("error sending request: %w", err)
			span.RecordError(err)
			yield(nil, err)
			return
		}
		defer resp.Body.Close()

		span.SetAttributes(attribute.Int("response.status_code", resp.StatusCode))
		if resp.StatusCode != http.StatusOK {
			if errorBody, err := io.ReadAll(resp.Body); err != nil {
				err = fmt.Errorf("error reading error body: %w", err)
				span.RecordError(err)
			} else {
				span.SetAttributes(attribute.String("response.error", string(errorBody)))
			}

			err := fmt.Errorf("non-OK HTTP status: %s", resp.Status)
			span.RecordError(err)
			yield(nil, err)
			return
		}

		deltas := strings.Builder{}
		scanner := bufio.NewScanner(resp.Body)
		for scanner.Scan() {
			line := strings.TrimSpace(scanner.Text())
			if len(line) == 0 {
				continue
			}

			var rec record
			if err := json.Unmarshal([]byte(line), &rec); err != nil {
				err = fmt.Errorf("error unmarshalling JSON: %w", err)
				span.RecordError(err)
				yield(nil, err)
				return
			}

			switch {
			case rec.Error != nil:
				span.AddEvent("received error record")
				yield(Failure{Message: *rec.Error}, nil)
				return

			case rec.Done:
				reply := deltas.String()
				if rec.Reply != nil {
					reply = *rec.Reply
				}
				span.SetAttributes(attribute.Int("response.reply_length", len(reply)))
				yield(Done{Reply: reply}, nil)
				return

			case rec.Delta != nil:
				deltas.WriteString(*rec.Delta)
				if !yield(Delta{Text: *rec.Delta}, nil) {
					return
				}
			}
		}

		if err := scanner.Err(); err != nil {
			err = fmt.Errorf("error reading streamed response: %w", err)
			span.RecordError(err)
			yield(nil, err)
			return
		}

		err = fmt.Errorf("stream ended without a terminal record")
		span.RecordError(err)
		yield(nil, err)
	}
}
