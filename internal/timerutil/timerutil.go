// Package timerutil holds helpers for reusing a time.Timer in select loops.
package timerutil

import "time"

// Reset stops t, drains a pending fire, and resets it to d. A negative d is
// treated as zero.
func Reset(t *time.Timer, d time.Duration) {
	if !t.Stop() {
		Drain(t)
	}
	if d < 0 {
		d = 0
	}
	t.Reset(d)
}

// Drain discards a fire that was not received yet.
func Drain(t *time.Timer) {
	select {
	case <-t.C:
	default:
	}
}
