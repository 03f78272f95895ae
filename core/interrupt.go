package session

import (
	"context"
	"time"
)

// interruptDetector watches the shared level monitor while the assistant is
// speaking. Barge-in uses a raised threshold so playback bleeding into the
// microphone does not trip it.
type interruptDetector struct {
	monitor *levelMonitor
	config  VADConfig

	onInterrupt func()
}

func newInterruptDetector(monitor *levelMonitor, config VADConfig, onInterrupt func()) *interruptDetector {
	if onInterrupt == nil {
		onInterrupt = func() {}
	}
	return &interruptDetector{
		monitor:     monitor,
		config:      config.withDefaults(),
		onInterrupt: onInterrupt,
	}
}

// Watch polls until the context is cancelled or the input level crosses the
// barge-in threshold, in which case it fires onInterrupt once and returns.
func (d *interruptDetector) Watch(ctx context.Context) {
	threshold := d.config.SilenceThreshold * d.config.InterruptMultiplier

	ticker := time.NewTicker(levelPollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		if d.monitor.Level() >= threshold {
			d.onInterrupt()
			return
		}
	}
}
