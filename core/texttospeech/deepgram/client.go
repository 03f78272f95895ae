package deepgram

import (
	"fmt"
	"os"
	"slices"

	"github.com/voxmail-ai/voxmail-core/core/audio"
)

type deepgramVoice string

const (
	VoiceThalia  deepgramVoice = "aura-2-thalia-en"
	VoiceAsteria deepgramVoice = "aura-2-asteria-en"
	VoiceOrion   deepgramVoice = "aura-2-orion-en"
	VoiceArcas   deepgramVoice = "aura-2-arcas-en"

	defaultVoice = VoiceThalia
)

func GetAvailableVoices() []deepgramVoice {
	return []deepgramVoice{VoiceThalia, VoiceAsteria, VoiceOrion, VoiceArcas}
}

// TextToSpeechClient synthesizes speech one sentence at a time over
// deepgram's speak websocket.
type TextToSpeechClient struct {
	apiKey string
	voice  deepgramVoice

	encodingInfo audio.EncodingInfo
}

func NewTextToSpeechClient(voice deepgramVoice) (*TextToSpeechClient, error) {
	apiKey, ok := os.LookupEnv("DEEPGRAM_API_KEY")
	if !ok {
		return nil, fmt.Errorf("deepgram api key not found")
	}

	if voice == "" {
		voice = defaultVoice
	}
	if !slices.Contains(GetAvailableVoices(), voice) {
		return nil, fmt.Errorf("invalid voice")
	}

	return &TextToSpeechClient{
		apiKey:       apiKey,
		voice:        voice,
		encodingInfo: audio.GetDefaultEncodingInfo(),
	}, nil
}

func (c *TextToSpeechClient) SetVoice(voice deepgramVoice) error {
	if !slices.Contains(GetAvailableVoices(), voice) {
		return fmt.Errorf("invalid voice")
	}
	c.voice = voice
	return nil
}
