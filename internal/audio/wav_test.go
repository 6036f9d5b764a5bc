package audio

import (
	"bytes"
	"encoding/binary"
	"io"
	"testing"
)

// buildWAV constructs a minimal 16-bit PCM WAV file in memory from
// interleaved stereo samples.
func buildWAV(t *testing.T, sampleRate int, channels int, samples []int16) *bytes.Reader {
	t.Helper()
	var data bytes.Buffer
	for _, s := range samples {
		binary.Write(&data, binary.LittleEndian, s)
	}

	var buf bytes.Buffer
	buf.WriteString("RIFF")
	binary.Write(&buf, binary.LittleEndian, uint32(36+data.Len()))
	buf.WriteString("WAVE")

	buf.WriteString("fmt ")
	binary.Write(&buf, binary.LittleEndian, uint32(16))
	binary.Write(&buf, binary.LittleEndian, uint16(1)) // PCM
	binary.Write(&buf, binary.LittleEndian, uint16(channels))
	binary.Write(&buf, binary.LittleEndian, uint32(sampleRate))
	byteRate := sampleRate * channels * 2
	binary.Write(&buf, binary.LittleEndian, uint32(byteRate))
	blockAlign := channels * 2
	binary.Write(&buf, binary.LittleEndian, uint16(blockAlign))
	binary.Write(&buf, binary.LittleEndian, uint16(16)) // bits per sample

	buf.WriteString("data")
	binary.Write(&buf, binary.LittleEndian, uint32(data.Len()))
	buf.Write(data.Bytes())

	return bytes.NewReader(buf.Bytes())
}

func TestWAVDecoderRoundTrip(t *testing.T) {
	samples := []int16{100, -100, 200, -200, 300, -300}
	r := buildWAV(t, 44100, 2, samples)

	var d WAVDecoder
	info, err := d.Init(r)
	if err != nil {
		t.Fatalf("Init: %v", err)
	}
	if info.SampleRate != 44100 || info.Channels != 2 || info.BitsPerSample != 16 {
		t.Fatalf("unexpected TrackInfo: %+v", info)
	}
	if info.TotalSamples != 3 {
		t.Fatalf("TotalSamples = %d, want 3", info.TotalSamples)
	}

	out := make([]int16, 64)
	n, err := d.Decode(out)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if n != 3 {
		t.Fatalf("frames = %d, want 3", n)
	}
	for i, want := range samples {
		if out[i] != want {
			t.Fatalf("sample %d = %d, want %d", i, out[i], want)
		}
	}

	if _, err := d.Decode(out); err != ErrEndOfStream {
		t.Fatalf("expected ErrEndOfStream, got %v", err)
	}
}

func TestWAVDecoderSeek(t *testing.T) {
	samples := []int16{1, 1, 2, 2, 3, 3, 4, 4}
	r := buildWAV(t, 44100, 2, samples)
	var d WAVDecoder
	if _, err := d.Init(r); err != nil {
		t.Fatalf("Init: %v", err)
	}
	if err := d.Seek(2); err != nil {
		t.Fatalf("Seek: %v", err)
	}
	out := make([]int16, 4)
	n, err := d.Decode(out)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if n != 2 || out[0] != 3 || out[1] != 3 {
		t.Fatalf("Decode after seek = %v (n=%d), want [3 3 4 4]", out, n)
	}
}

func TestWAVDecoderRejectsBadMagic(t *testing.T) {
	var d WAVDecoder
	if _, err := d.Init(bytes.NewReader(make([]byte, 16))); err == nil {
		t.Fatal("expected ErrFormat for non-RIFF input")
	}
}

func TestScaleTo16EightBit(t *testing.T) {
	if got := scaleTo16([]byte{255}, 8); got != 127<<8 {
		t.Fatalf("scaleTo16(255, 8) = %d, want %d", got, 127<<8)
	}
	if got := scaleTo16([]byte{0}, 8); got != -128<<8 {
		t.Fatalf("scaleTo16(0, 8) = %d, want %d", got, -128<<8)
	}
}

var _ io.ReadSeeker = (*bytes.Reader)(nil)
