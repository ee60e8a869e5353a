package timerutil

import (
	"testing"
	"time"
)

func TestResetDropsStaleFire(t *testing.T) {
	timer := time.NewTimer(time.Millisecond)
	defer timer.Stop()
	time.Sleep(10 * time.Millisecond) // fired, not received

	Reset(timer, time.Hour)
	select {
	case <-timer.C:
		t.Fatal("stale fire delivered after Reset")
	case <-time.After(20 * time.Millisecond):
	}
}

func TestResetNegative(t *testing.T) {
	timer := time.NewTimer(time.Hour)
	defer timer.Stop()

	Reset(timer, -time.Second)
	select {
	case <-timer.C:
	case <-time.After(time.Second):
		t.Fatal("negative duration must fire immediately")
	}
}

func TestDrainIdle(t *testing.T) {
	timer := time.NewTimer(time.Hour)
	defer timer.Stop()
	Drain(timer) // must not block
}
