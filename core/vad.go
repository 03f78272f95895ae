package session

import "time"

const (
	defaultSilenceThreshold     = 0.02
	defaultMinUtteranceDuration = 500 * time.Millisecond
	defaultSilenceDuration      = 1500 * time.Millisecond
	defaultInterruptMultiplier  = 3.0

	// levelPollInterval bounds how often detectors sample the level monitor.
	levelPollInterval = 16 * time.Millisecond
)

// VADConfig tunes utterance detection. Zero values fall back to the
// reference defaults.
type VADConfig struct {
	// SilenceThreshold is the normalized RMS level above which audio counts
	// as voice.
	SilenceThreshold float64
	// MinUtteranceDuration is the shortest voice burst accepted as an
	// utterance; shorter bursts are discarded.
	MinUtteranceDuration time.Duration
	// SilenceDuration is how long the level must stay below the threshold
	// before an utterance is considered finished.
	SilenceDuration time.Duration
	// InterruptMultiplier scales the silence threshold for barge-in
	// detection while the assistant is speaking.
	InterruptMultiplier float64
}

func (c VADConfig) withDefaults() VADConfig {
	if c.SilenceThreshold <= 0 {
		c.SilenceThreshold = defaultSilenceThreshold
	}
	if c.MinUtteranceDuration <= 0 {
		c.MinUtteranceDuration = defaultMinUtteranceDuration
	}
	if c.SilenceDuration <= 0 {
		c.SilenceDuration = defaultSilenceDuration
	}
	if c.InterruptMultiplier <= 0 {
		c.InterruptMultiplier = defaultInterruptMultiplier
	}
	return c
}

type vadAction int

const (
	vadActionNone vadAction = iota
	// vadActionStart means voice was detected while listening; recording
	// should begin with the current chunk.
	vadActionStart
	// vadActionFinalize means the utterance ended and is long enough to keep.
	vadActionFinalize
	// vadActionDiscard means the voice burst was too short; drop it and
	// resume listening.
	vadActionDiscard
)

// voiceDetector is the utterance-boundary state machine. It is a pure
// transition function over (level, now) so it can be driven without timers.
type voiceDetector struct {
	config VADConfig

	recording  bool
	voiceStart time.Time
	lastVoice  time.Time
}

func newVoiceDetector(config VADConfig) *voiceDetector {
	return &voiceDetector{config: config.withDefaults()}
}

func (d *voiceDetector) Recording() bool { return d.recording }

func (d *voiceDetector) Reset() {
	d.recording = false
	d.voiceStart = time.Time{}
	d.lastVoice = time.Time{}
}

func (d *voiceDetector) Observe(level float64, now time.Time) vadAction {
	voiced := level >= d.config.SilenceThreshold

	if !d.recording {
		if !voiced {
			return vadActionNone
		}
		d.recording = true
		d.voiceStart = now
		d.lastVoice = now
		return vadActionStart
	}

	if voiced {
		d.lastVoice = now
		return vadActionNone
	}

	if now.Sub(d.lastVoice) < d.config.SilenceDuration {
		return vadActionNone
	}

	// Utterance length is measured to the last voiced sample, not to the end
	// of the trailing silence.
	utterance := d.lastVoice.Sub(d.voiceStart)
	d.Reset()
	if utterance < d.config.MinUtteranceDuration {
		return vadActionDiscard
	}
	return vadActionFinalize
}
