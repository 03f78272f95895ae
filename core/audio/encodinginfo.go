package audio

import "time"

const (
	DefaultSampleRate = 16000
	DefaultFormat     = "linear16"
)

func GetDefaultEncodingInfo() EncodingInfo {
	return EncodingInfo{SampleRate: DefaultSampleRate, Format: encodingFormat(DefaultFormat)}
}

type EncodingInfo struct {
	SampleRate int
	Format     encodingFormat
}

func (e EncodingInfo) IsZero() bool {
	return e.SampleRate == 0 || e.Format.Name() == ""
}

// Duration returns the wall-clock playback time of a raw payload in this
// encoding, or 0 when the encoding is unknown.
func (e EncodingInfo) Duration(payloadBytes int) time.Duration {
	byteSize := e.Format.ByteSize()
	if byteSize <= 0 || e.SampleRate <= 0 {
		return 0
	}

	samples := payloadBytes / byteSize
	return time.Duration(samples) * time.Second / time.Duration(e.SampleRate)
}

// MimeType returns the content type used when submitting raw audio in this
// encoding to transcription backends.
func (e EncodingInfo) MimeType() string {
	switch e.Format {
	case EncodingMulaw:
		return "audio/mulaw"
	case EncodingALaw:
		return "audio/alaw"
	case EncodingLinear16:
		return "audio/l16"
	}

	return "application/octet-stream"
}

type encodingFormat string

func (e encodingFormat) Name() string {
	return string(e)
}

func (e encodingFormat) ByteSize() int {
	switch e {
	case EncodingMulaw, EncodingALaw:
		return 1
	case EncodingLinear16:
		return 2
	}
	return -1
}

const (
	EncodingMulaw    encodingFormat = "mulaw"
	EncodingALaw     encodingFormat = "alaw"
	EncodingLinear16 encodingFormat = "linear16"
)
