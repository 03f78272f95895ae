package deepgram

import (
	"encoding/json"
	"testing"

	api "github.com/deepgram/deepgram-go-sdk/pkg/api/listen/v1/rest/interfaces"
	"github.com/voxmail-ai/voxmail-core/core/audio"
)

func TestExtractTranscript(t *testing.T) {
	payload := `{
		"results": {
			"channels": [
				{
					"alternatives": [
						{"transcript": " read my latest email ", "confidence": 0.98}
					]
				}
			]
		}
	}`

	var response api.PreRecordedResponse
	if err := json.Unmarshal([]byte(payload), &response); err != nil {
		t.Fatalf("failed to unmarshal response: %v", err)
	}

	if got := extractTranscript(&response); got != "read my latest email" {
		t.Fatalf("expected trimmed transcript, got %q", got)
	}
}

func TestExtractTranscriptEmptyResponse(t *testing.T) {
	var response api.PreRecordedResponse
	if err := json.Unmarshal([]byte(`{}`), &response); err != nil {
		t.Fatalf("failed to unmarshal response: %v", err)
	}

	if got := extractTranscript(&response); got != "" {
		t.Fatalf("expected empty transcript, got %q", got)
	}
}

func TestConvertEncoding(t *testing.T) {
	encoding, err := convertEncoding(audio.GetDefaultEncodingInfo())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if encoding.Format.Name() != "linear16" {
		t.Fatalf("expected linear16, got %q", encoding.Format.Name())
	}
	if encoding.SampleRate != audio.DefaultSampleRate {
		t.Fatalf("expected sample rate %d, got %d", audio.DefaultSampleRate, encoding.SampleRate)
	}
}

func TestConvertEncodingRejectsUnsupportedRate(t *testing.T) {
	if _, err := convertEncoding(audio.EncodingInfo{SampleRate: 44100, Format: audio.EncodingLinear16}); err == nil {
		t.Fatal("expected error for unsupported sample rate")
	}
}
