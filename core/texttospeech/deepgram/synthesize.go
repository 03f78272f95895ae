package deepgram

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/gorilla/websocket"
	"github.com/voxmail-ai/voxmail-core/core/texttospeech"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

var _ texttospeech.SpeechSynthesizer = (*TextToSpeechClient)(nil)

// Synthesize generates speech for one sentence and returns the complete raw
// audio clip. The speak websocket confirms a flush only after all audio for
// the text sent before it has been delivered, so the clip is complete when
// the Flushed message arrives.
func (c *TextToSpeechClient) Synthesize(ctx context.Context, text string, opts ...texttospeech.TextToSpeechOption) ([]byte, error) {
	ctx, span := tracer.Start(ctx, "synthesize sentence")
	defer span.End()
	span.SetAttributes(
		attribute.String("request.voice", string(c.voice)),
		attribute.Int("request.text_length", len(text)),
	)

	options := texttospeech.TextToSpeechOptions{EncodingInfo: c.encodingInfo}
	for _, opt := range opts {
		opt(&options)
	}

	conn, err := c.connectWebsocket(ctx, options)
	if err != nil {
		err = fmt.Errorf("failed to open websocket: %w", err)
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	defer conn.Close()

	// Abort the blocking read when the sentence is no longer wanted.
	watchDone := make(chan struct{})
	defer close(watchDone)
	go func() {
		select {
		case <-ctx.Done():
			_ = conn.WriteJSON(clearMsg)
			conn.Close()
		case <-watchDone:
		}
	}()

	if err := conn.WriteJSON(sendTextMsg(text)); err != nil {
		err = fmt.Errorf("failed to send websocket send text message: %w", err)
		span.RecordError(err)
		return nil, err
	}
	if err := conn.WriteJSON(flushMsg); err != nil {
		err = fmt.Errorf("failed to send websocket flush message: %w", err)
		span.RecordError(err)
		return nil, err
	}

	var clip []byte
	for {
		msgType, msg, err := conn.ReadMessage()
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			err = fmt.Errorf("websocket read error: %w", err)
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			return nil, err
		}

		switch msgType {
		case websocket.BinaryMessage:
			clip = append(clip, msg...)
		case websocket.TextMessage:
			var parsedMsg struct {
				Type string `json:"type"`
			}
			if err := json.Unmarshal(msg, &parsedMsg); err != nil {
				logger.WarnContext(ctx, "Failed to unmarshal deepgram message", "error", err)
				continue
			}

			switch parsedMsg.Type {
			case "Flushed":
				_ = conn.WriteJSON(closeMsg)
				span.SetAttributes(attribute.Int("response.audio_bytes", len(clip)))
				return clip, nil
			case "Error":
				err := fmt.Errorf("deepgram speak error: %s", string(msg))
				span.RecordError(err)
				span.SetStatus(codes.Error, err.Error())
				return nil, err
			}
		}
	}
}

func (c *TextToSpeechClient) connectWebsocket(ctx context.Context, options texttospeech.TextToSpeechOptions) (*websocket.Conn, error) {
	urlValues := url.Values{}
	urlValues.Set("encoding", options.EncodingInfo.Format.Name())
	urlValues.Set("sample_rate", strconv.Itoa(options.EncodingInfo.SampleRate))
	urlValues.Set("model", string(c.voice))
	urlValues.Set("container", "none")

	conn, _, err := websocket.DefaultDialer.DialContext(ctx,
		(&url.URL{
			Scheme: "wss",
			Host:   "api.deepgram.com", Path: "/v1/speak",
			RawQuery: urlValues.Encode(),
		}).String(),
		http.Header{"Authorization": {"token " + c.apiKey}})
	if err != nil {
		return nil, fmt.Errorf("failed to open socket connection to deepgram: %w", err)
	}

	return conn, nil
}

type websocketMessage struct {
	Type string `json:"type"`
}

var (
	sendTextMsg = func(text string) struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} {
		return struct {
			Type string `json:"type"`
			Text string `json:"text"`
		}{Type: "Speak", Text: text}
	}
	flushMsg = websocketMessage{Type: "Flush"}
	clearMsg = websocketMessage{Type: "Clear"}
	closeMsg = websocketMessage{Type: "Close"}
)
