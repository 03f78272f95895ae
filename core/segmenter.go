package session

import (
	"strings"
	"sync"
	"unicode"
	"unicode/utf8"
)

// sentenceSegmenter splits streamed response deltas into playable sentences.
// A sentence ends at '.', '!' or '?' followed by whitespace or the current
// end of the buffer. One segmenter serves one exchange and is not reusable.
type sentenceSegmenter struct {
	pending string

	sentences []string
	consumed  int
	done      bool
	signal    *sync.Cond
}

func newSentenceSegmenter() *sentenceSegmenter {
	return &sentenceSegmenter{
		signal: sync.NewCond(&sync.Mutex{}),
	}
}

// AddDelta appends streamed text and extracts any newly completed sentences.
func (s *sentenceSegmenter) AddDelta(delta string) {
	s.signal.L.Lock()
	s.pending += delta
	s.extract()
	s.signal.L.Unlock()
	s.signal.Broadcast()
}

// Flush emits any trailing unterminated text as a final sentence and marks
// the segmenter complete.
func (s *sentenceSegmenter) Flush() {
	s.signal.L.Lock()
	if trailing := strings.TrimSpace(s.pending); trailing != "" {
		s.sentences = append(s.sentences, trailing)
	}
	s.pending = ""
	s.done = true
	s.signal.L.Unlock()
	s.signal.Broadcast()
}

// Abandon wakes any blocked consumer without emitting trailing text.
func (s *sentenceSegmenter) Abandon() {
	s.signal.L.Lock()
	s.pending = ""
	s.done = true
	s.signal.L.Unlock()
	s.signal.Broadcast()
}

// Sentences yields completed sentences in stream order, blocking until more
// text arrives or the segmenter is flushed.
func (s *sentenceSegmenter) Sentences(yield func(string) bool) {
	for {
		for {
			s.signal.L.Lock()
			if s.consumed == len(s.sentences) {
				s.signal.L.Unlock()
				break
			}
			sentence := s.sentences[s.consumed]
			s.consumed++
			s.signal.L.Unlock()
			if !yield(sentence) {
				return
			}
		}

		s.signal.L.Lock()
		if s.done && s.consumed == len(s.sentences) {
			s.signal.L.Unlock()
			return
		}
		s.signal.Wait()
		s.signal.L.Unlock()
	}
}

// extract moves completed sentences out of pending. Caller holds the lock.
func (s *sentenceSegmenter) extract() {
	for {
		boundary := -1
		for i := 0; i < len(s.pending); i++ {
			switch s.pending[i] {
			case '.', '!', '?':
			default:
				continue
			}

			next := i + 1
			if next >= len(s.pending) {
				boundary = i
				break
			}
			if r, _ := utf8.DecodeRuneInString(s.pending[next:]); unicode.IsSpace(r) {
				boundary = i
				break
			}
		}
		if boundary == -1 {
			return
		}

		sentence := strings.TrimSpace(s.pending[:boundary+1])
		s.pending = s.pending[boundary+1:]
		if sentence != "" {
			s.sentences = append(s.sentences, sentence)
		}
	}
}
