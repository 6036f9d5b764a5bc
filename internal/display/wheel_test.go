package display

import (
	"testing"

	"zigpod/internal/hal"
)

func TestTrackerFirstTouchHasZeroDelta(t *testing.T) {
	m := hal.NewMock()
	m.ScriptWheel(hal.ButtonSelect, 10, true)
	tr := NewTracker(m.HAL().ClickWheel)

	ev, err := tr.Poll()
	if err != nil {
		t.Fatalf("Poll: %v", err)
	}
	if ev.Position != 10 || !ev.Touching || ev.Delta != 0 {
		t.Fatalf("first Poll = %+v, want position=10 touching=true delta=0", ev)
	}
}

func TestTrackerComputesDelta(t *testing.T) {
	m := hal.NewMock()
	tr := NewTracker(m.HAL().ClickWheel)

	m.ScriptWheel(0, 10, true)
	tr.Poll()
	m.ScriptWheel(0, 15, true)
	ev, _ := tr.Poll()
	if ev.Delta != 5 {
		t.Fatalf("Delta = %d, want 5", ev.Delta)
	}
}

func TestTrackerWrapsLargeDelta(t *testing.T) {
	m := hal.NewMock()
	tr := NewTracker(m.HAL().ClickWheel)

	m.ScriptWheel(0, 90, true)
	tr.Poll()
	m.ScriptWheel(0, 5, true)
	ev, _ := tr.Poll()
	if ev.Delta != 11 {
		t.Fatalf("Delta = %d, want 11 (90 -> 95 -> 5, wrapped forward)", ev.Delta)
	}
}

func TestTrackerResetsOnRelease(t *testing.T) {
	m := hal.NewMock()
	tr := NewTracker(m.HAL().ClickWheel)

	m.ScriptWheel(0, 10, true)
	tr.Poll()
	m.ScriptWheel(0, 0, false)
	tr.Poll()
	m.ScriptWheel(0, 50, true)
	ev, _ := tr.Poll()
	if ev.Delta != 0 {
		t.Fatalf("Delta = %d, want 0 immediately after a release/re-touch", ev.Delta)
	}
}
