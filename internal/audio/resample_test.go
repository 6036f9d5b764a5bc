package audio

import "testing"

func TestResamplerPassthrough(t *testing.T) {
	r := NewResampler(44100, 44100)
	if !r.Passthrough() {
		t.Fatal("expected Passthrough for equal rates")
	}
	in := []int16{1, 2, 3, 4}
	out := make([]int16, 4)
	n := r.Process(in, out)
	if n != 2 || out[0] != 1 || out[1] != 2 {
		t.Fatalf("passthrough Process = %v (n=%d), want [1 2 3 4] n=2", out, n)
	}
}

func TestResamplerUpsamples(t *testing.T) {
	r := NewResampler(22050, 44100)
	if r.Passthrough() {
		t.Fatal("expected non-passthrough for differing rates")
	}
	in := []int16{0, 0, 1000, 1000, 2000, 2000, 3000, 3000}
	out := make([]int16, 16)
	n := r.Process(in, out)
	if n == 0 {
		t.Fatal("expected some frames written")
	}
	if out[0] != 0 {
		t.Fatalf("first output frame should equal the first input frame, got %d", out[0])
	}
}

func TestLerp16Midpoint(t *testing.T) {
	got := lerp16(0, 100, 1<<(resampleFracBits-1))
	if got != 50 {
		t.Fatalf("lerp16(0,100,half) = %d, want 50", got)
	}
}
