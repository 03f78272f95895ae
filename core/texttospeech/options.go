package texttospeech

import (
	"context"

	"github.com/voxmail-ai/voxmail-core/core/audio"
)

type TextToSpeechOptions struct {
	EncodingInfo audio.EncodingInfo
}

type TextToSpeechOption func(*TextToSpeechOptions)

func WithEncodingInfo(encodingInfo audio.EncodingInfo) TextToSpeechOption {
	return func(o *TextToSpeechOptions) {
		if encodingInfo.IsZero() {
			return
		}

		o.EncodingInfo = encodingInfo
	}
}

// SpeechSynthesizer turns one piece of text into a complete audio clip.
type SpeechSynthesizer interface {
	// Synthesize generates speech for the passed text. Generation is aborted
	// when the context is cancelled; partial audio is discarded.
	Synthesize(ctx context.Context, text string, opts ...TextToSpeechOption) ([]byte, error)
}
