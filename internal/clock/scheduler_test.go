package clock

import (
	"testing"

	"zigpod/internal/hal"
)

func TestFrameLimiterStaysActiveUnderThreshold(t *testing.T) {
	m := hal.NewMock()
	fl := New(m.HAL().System)

	for i := 0; i < IdleThresholdFrames-1; i++ {
		fl.BeginFrame()
		fl.EndFrame(false)
	}
	if fl.CurrentHz() != ActiveHz {
		t.Fatalf("CurrentHz() = %d, want %d before crossing the idle threshold", fl.CurrentHz(), ActiveHz)
	}
}

func TestFrameLimiterDropsToIdleAfterThreshold(t *testing.T) {
	m := hal.NewMock()
	fl := New(m.HAL().System)

	for i := 0; i < IdleThresholdFrames; i++ {
		fl.BeginFrame()
		fl.EndFrame(false)
	}
	if fl.CurrentHz() != IdleHz {
		t.Fatalf("CurrentHz() = %d, want %d after %d idle frames", fl.CurrentHz(), IdleHz, IdleThresholdFrames)
	}
}

func TestFrameLimiterResumesActiveImmediately(t *testing.T) {
	m := hal.NewMock()
	fl := New(m.HAL().System)

	for i := 0; i < IdleThresholdFrames; i++ {
		fl.BeginFrame()
		fl.EndFrame(false)
	}
	fl.BeginFrame()
	fl.EndFrame(true)
	if fl.CurrentHz() != ActiveHz {
		t.Fatalf("CurrentHz() = %d, want %d immediately on the first active frame", fl.CurrentHz(), ActiveHz)
	}
}

func TestFrameLimiterDelaysForRemainder(t *testing.T) {
	m := hal.NewMock()
	fl := New(m.HAL().System)

	fl.BeginFrame()
	fl.EndFrame(true)
	// A fresh mock clock elapses ~0us per frame, so the limiter should
	// have delayed for close to the full active-frame period.
	ticksAfter := m.HAL().System.GetTicksUS()
	if ticksAfter < uint64(1_000_000/ActiveHz-DelayThresholdUS) {
		t.Fatalf("expected the limiter to advance ticks close to one active frame period, got %d", ticksAfter)
	}
}
