package events

const (
	// KindAssistantPlaybackStarted identifies playback start for the current response.
	KindAssistantPlaybackStarted Kind = "assistant_playback.started"
	// KindAssistantSentenceStarted identifies playback start of one synthesized sentence.
	KindAssistantSentenceStarted Kind = "assistant_playback.sentence_started"
	// KindAssistantSentenceEnded identifies playback completion of one synthesized sentence.
	KindAssistantSentenceEnded Kind = "assistant_playback.sentence_ended"
	// KindAssistantPlaybackEnded identifies the playback completion milestone.
	KindAssistantPlaybackEnded Kind = "assistant_playback.ended"
	// KindAssistantInterrupted identifies playback cut short by user speech.
	KindAssistantInterrupted Kind = "assistant_playback.interrupted"
)

// AssistantPlaybackStarted marks the start of assistant playback.
type AssistantPlaybackStarted struct{ Base }

// NewAssistantPlaybackStarted creates an assistant playback started event.
func NewAssistantPlaybackStarted() AssistantPlaybackStarted {
	return AssistantPlaybackStarted{Base: NewBase(KindAssistantPlaybackStarted)}
}

// AssistantSentenceStarted marks playback start of one sentence, in FIFO order.
type AssistantSentenceStarted struct {
	Base
	Index    int
	Sentence string
}

// NewAssistantSentenceStarted creates a sentence playback started event.
func NewAssistantSentenceStarted(index int, sentence string) AssistantSentenceStarted {
	return AssistantSentenceStarted{Base: NewBase(KindAssistantSentenceStarted), Index: index, Sentence: sentence}
}

// AssistantSentenceEnded marks playback completion of one sentence.
type AssistantSentenceEnded struct {
	Base
	Index int
}

// NewAssistantSentenceEnded creates a sentence playback ended event.
func NewAssistantSentenceEnded(index int) AssistantSentenceEnded {
	return AssistantSentenceEnded{Base: NewBase(KindAssistantSentenceEnded), Index: index}
}

// AssistantPlaybackEnded marks the end of assistant playback for the exchange.
type AssistantPlaybackEnded struct{ Base }

// NewAssistantPlaybackEnded creates an assistant playback ended event.
func NewAssistantPlaybackEnded() AssistantPlaybackEnded {
	return AssistantPlaybackEnded{Base: NewBase(KindAssistantPlaybackEnded)}
}

// AssistantInterrupted marks playback cut short by user speech.
type AssistantInterrupted struct{ Base }

// NewAssistantInterrupted creates an assistant interrupted event.
func NewAssistantInterrupted() AssistantInterrupted {
	return AssistantInterrupted{Base: NewBase(KindAssistantInterrupted)}
}
