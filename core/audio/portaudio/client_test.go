package portaudio

import (
	"bytes"
	"sync"
	"testing"
	"time"
)

type recordingWriter struct {
	mu     sync.Mutex
	writes [][]byte
}

func (w *recordingWriter) write(buffer []byte) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.writes = append(w.writes, append([]byte(nil), buffer...))
	return nil
}

func (w *recordingWriter) written() [][]byte {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.writes
}

func newTestClient(bufferSize int, writer *recordingWriter) *Client {
	return &Client{
		bufferSize:  bufferSize,
		writeBuffer: writer.write,
	}
}

func waitForMark(t *testing.T, fired <-chan string) {
	t.Helper()
	select {
	case <-fired:
	case <-time.After(time.Second):
		t.Fatalf("expected the playback mark to fire")
	}
}

func TestMarkFiresAfterBufferedTailFlushes(t *testing.T) {
	writer := &recordingWriter{}
	client := newTestClient(4, writer) // 8-byte device buffers

	clip := []byte{1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12}
	if err := client.SendAudio(clip); err != nil {
		t.Fatalf("unexpected send error: %v", err)
	}

	fired := make(chan string, 1)
	if err := client.Mark("clip-end", func(name string) { fired <- name }); err != nil {
		t.Fatalf("unexpected mark error: %v", err)
	}
	waitForMark(t, fired)

	writes := writer.written()
	if len(writes) != 2 {
		t.Fatalf("expected the clip to drain in 2 device buffers, got %d", len(writes))
	}
	if !bytes.Equal(writes[0], clip[:8]) {
		t.Errorf("expected the first buffer to carry the clip head, got %v", writes[0])
	}
	// The tail is padded with silence up to a full device buffer.
	if expected := []byte{9, 10, 11, 12, 0, 0, 0, 0}; !bytes.Equal(writes[1], expected) {
		t.Errorf("expected the padded tail %v, got %v", expected, writes[1])
	}
	if len(client.leftoverAudio) != 0 {
		t.Errorf("expected no leftover audio after the flush, got %d bytes", len(client.leftoverAudio))
	}
}

func TestMarkWithNothingPendingFiresImmediately(t *testing.T) {
	writer := &recordingWriter{}
	client := newTestClient(4, writer)

	fired := make(chan string, 1)
	if err := client.Mark("empty", func(name string) { fired <- name }); err != nil {
		t.Fatalf("unexpected mark error: %v", err)
	}
	waitForMark(t, fired)

	if writes := writer.written(); len(writes) != 0 {
		t.Fatalf("expected no device writes for an empty queue, got %d", len(writes))
	}
}

func TestSendAudioCarriesLeftoverIntoNextWrite(t *testing.T) {
	writer := &recordingWriter{}
	client := newTestClient(4, writer)

	if err := client.SendAudio([]byte{1, 2, 3, 4, 5, 6}); err != nil {
		t.Fatalf("unexpected send error: %v", err)
	}
	if writes := writer.written(); len(writes) != 0 {
		t.Fatalf("expected a partial buffer to stay queued, got %d writes", len(writes))
	}

	if err := client.SendAudio([]byte{7, 8, 9, 10, 11, 12, 13, 14, 15, 16}); err != nil {
		t.Fatalf("unexpected send error: %v", err)
	}
	writes := writer.written()
	if len(writes) != 2 {
		t.Fatalf("expected 2 device buffers after the second send, got %d", len(writes))
	}
	if !bytes.Equal(writes[0], []byte{1, 2, 3, 4, 5, 6, 7, 8}) {
		t.Errorf("expected the queued tail to lead the next write, got %v", writes[0])
	}
}

func TestClearBufferDropsQueuedTailAndMarks(t *testing.T) {
	writer := &recordingWriter{}
	client := newTestClient(4, writer)

	if err := client.SendAudio([]byte{1, 2, 3, 4}); err != nil {
		t.Fatalf("unexpected send error: %v", err)
	}
	client.mu.Lock()
	client.marks = append(client.marks, playbackMark{
		name:     "dropped",
		position: len(client.leftoverAudio),
		callback: func(string) { t.Errorf("expected the cleared mark to never fire") },
	})
	client.mu.Unlock()

	client.ClearBuffer()

	if len(client.leftoverAudio) != 0 || len(client.marks) != 0 {
		t.Fatalf("expected ClearBuffer to drop queued audio and marks")
	}
	if err := client.flushLeftover(); err != nil {
		t.Fatalf("unexpected flush error: %v", err)
	}
	if writes := writer.written(); len(writes) != 0 {
		t.Fatalf("expected no device writes after ClearBuffer, got %d", len(writes))
	}
}
