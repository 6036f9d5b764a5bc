package diag

import (
	"testing"
	"time"
)

func drain(l *Logger, want int) []Entry {
	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) {
		if entries := l.GetEntries(); len(entries) >= want {
			return entries
		}
		time.Sleep(time.Millisecond)
	}
	return l.GetEntries()
}

func TestLogDisabledComponentIsDropped(t *testing.T) {
	l := NewLogger(100)
	defer l.Shutdown()

	l.LogAudio(LevelError, "should not appear", nil)
	time.Sleep(10 * time.Millisecond)

	if entries := l.GetEntries(); len(entries) != 0 {
		t.Fatalf("expected no entries for disabled component, got %d", len(entries))
	}
}

func TestLogEnabledComponentRecorded(t *testing.T) {
	l := NewLogger(100)
	defer l.Shutdown()

	l.SetComponentEnabled(ComponentAudio, true)
	l.LogAudio(LevelError, "underrun", nil)

	entries := drain(l, 1)
	if len(entries) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(entries))
	}
	if entries[0].Component != ComponentAudio || entries[0].Message != "underrun" {
		t.Fatalf("unexpected entry: %+v", entries[0])
	}
}

func TestMinLevelFilter(t *testing.T) {
	l := NewLogger(100)
	defer l.Shutdown()

	l.SetComponentEnabled(ComponentBoot, true)
	l.SetMinLevel(LevelWarning)

	l.LogBoot(LevelDebug, "too verbose", nil)
	l.LogBoot(LevelError, "fatal", nil)

	entries := drain(l, 1)
	if len(entries) != 1 {
		t.Fatalf("expected 1 entry past the filter, got %d", len(entries))
	}
	if entries[0].Level != LevelError {
		t.Fatalf("expected only the ERROR entry to survive, got %v", entries[0].Level)
	}
}

func TestCircularBufferWraps(t *testing.T) {
	l := NewLogger(100)
	defer l.Shutdown()
	l.SetComponentEnabled(ComponentSystem, true)

	for i := 0; i < 150; i++ {
		l.LogSystemf(LevelInfo, "entry %d", i)
	}

	entries := drain(l, 100)
	if len(entries) != 100 {
		t.Fatalf("expected buffer capped at 100, got %d", len(entries))
	}
	if entries[len(entries)-1].Message != "entry 149" {
		t.Fatalf("expected most recent entry to be entry 149, got %q", entries[len(entries)-1].Message)
	}
}
