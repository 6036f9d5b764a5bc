package audio

import "testing"

func silentSamples(n int) []int16 {
	s := make([]int16, n*2)
	for i := range s {
		s[i] = int16((i % 100) - 50)
	}
	return s
}

func TestEnginePlayTransitionsThroughBuffering(t *testing.T) {
	e := NewEngine(44100)
	samples := silentSamples(RingCapacityFrames) // enough to fill the ring past threshold
	r := buildWAV(t, 44100, 2, samples)

	if _, err := e.Load(0, &WAVDecoder{}, r); err != nil {
		t.Fatalf("Load: %v", err)
	}
	if err := e.Play(); err != nil {
		t.Fatalf("Play: %v", err)
	}
	if e.State() != StateBuffering {
		t.Fatalf("State() = %v, want Buffering immediately after Play", e.State())
	}

	if err := e.RefillIfNeeded(false); err != nil {
		t.Fatalf("RefillIfNeeded: %v", err)
	}
	if e.State() != StatePlaying {
		t.Fatalf("State() = %v, want Playing after the ring fills past threshold", e.State())
	}
}

func TestEnginePauseStopsRefill(t *testing.T) {
	e := NewEngine(44100)
	samples := silentSamples(1000)
	r := buildWAV(t, 44100, 2, samples)
	e.Load(0, &WAVDecoder{}, r)
	e.Play()

	e.Pause()
	if e.State() != StatePaused {
		t.Fatalf("State() = %v, want Paused", e.State())
	}
	lenBefore := e.ring.Len()
	if err := e.RefillIfNeeded(true); err != nil {
		t.Fatalf("RefillIfNeeded: %v", err)
	}
	if e.ring.Len() != lenBefore {
		t.Fatalf("ring length changed while Paused: %d -> %d", lenBefore, e.ring.Len())
	}
}

func TestEngineStopReleasesSlots(t *testing.T) {
	e := NewEngine(44100)
	samples := silentSamples(100)
	r := buildWAV(t, 44100, 2, samples)
	e.Load(0, &WAVDecoder{}, r)
	e.Play()
	e.Stop()

	if e.State() != StateStopped {
		t.Fatalf("State() = %v, want Stopped", e.State())
	}
	if e.slots[0].loaded {
		t.Fatal("expected slot 0 to be released on Stop")
	}
	if e.ring.Len() != 0 {
		t.Fatal("expected ring to be cleared on Stop")
	}
}

func TestEngineGaplessPreloadSignal(t *testing.T) {
	e := NewEngine(44100)
	samples := silentSamples(GaplessThresholdSamples - 10)
	r := buildWAV(t, 44100, 2, samples)
	e.Load(0, &WAVDecoder{}, r)

	if !e.ShouldPreloadNext() {
		t.Fatal("expected ShouldPreloadNext to report true when remaining samples are below the threshold")
	}

	alt := buildWAV(t, 44100, 2, silentSamples(10))
	if _, err := e.Load(1, &WAVDecoder{}, alt); err != nil {
		t.Fatalf("Load alternate slot: %v", err)
	}
	if e.ShouldPreloadNext() {
		t.Fatal("expected ShouldPreloadNext to report false once the alternate slot is loaded")
	}
}

func TestDoubleBufferUnderrunOnEmptyRing(t *testing.T) {
	db := NewDoubleBuffer()
	e := NewEngine(44100)
	db.RefillInactiveHalf(e.ring)
	if db.Underruns != 1 {
		t.Fatalf("Underruns = %d, want 1 after refilling from an empty ring", db.Underruns)
	}
	for _, s := range db.halves[1] {
		if s != 0 {
			t.Fatal("expected silence fill on underrun")
		}
	}
}

func TestDoubleBufferFlipSwapsActive(t *testing.T) {
	db := NewDoubleBuffer()
	first := db.active
	db.Flip()
	if db.active == first {
		t.Fatal("expected Flip to swap the active half")
	}
}
