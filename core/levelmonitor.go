package session

import (
	"encoding/binary"
	"math"
	"sync/atomic"
)

// levelMonitor tracks the loudness of the most recent input audio chunk as a
// normalized RMS level in [0, 1]. Observe runs on the audio callback path;
// Level can be polled concurrently.
type levelMonitor struct {
	level atomic.Uint64
}

func newLevelMonitor() *levelMonitor {
	return &levelMonitor{}
}

// Observe computes the RMS level of a linear16 little-endian chunk.
// Odd trailing bytes and empty chunks are ignored.
func (m *levelMonitor) Observe(chunk []byte) {
	samples := len(chunk) / 2
	if samples == 0 {
		return
	}

	var sum float64
	for i := 0; i < samples*2; i += 2 {
		sample := float64(int16(binary.LittleEndian.Uint16(chunk[i:])))
		sum += sample * sample
	}
	level := math.Sqrt(sum/float64(samples)) / math.MaxInt16

	m.level.Store(math.Float64bits(level))
}

func (m *levelMonitor) Level() float64 {
	return math.Float64frombits(m.level.Load())
}
