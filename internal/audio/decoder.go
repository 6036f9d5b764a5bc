// Package audio implements the real-time decode → DSP → DMA double-buffer
// playback path (§4.6): decoder slots, a linear resampler, a bass/EQ/
// widener/volume DSP chain, the playback state machine, and gapless
// slot handoff.
package audio

import (
	"errors"
	"io"
)

// Sentinel errors a Decoder implementation reports through init/decode/
// seek, mirroring the streaming contract named in §4.6.
var (
	ErrFormat          = errors.New("audio: unrecognized or malformed stream format")
	ErrEndOfStream     = errors.New("audio: end of stream")
	ErrDecode          = errors.New("audio: decode error")
	ErrSeekUnsupported = errors.New("audio: seek unsupported by this decoder")
)

// TrackInfo is published by a decoder once Init succeeds, per §4.6's
// "Audio Track Info" list.
type TrackInfo struct {
	SampleRate    int
	Channels      int
	BitsPerSample int
	TotalSamples  int64
	DurationMs    int64
	Format        string
	// SeekHint is a per-format seek pointer (byte offset for PCM-like
	// containers, a seek-table index for compressed formats); unused by
	// the reference WAV decoder, which seeks by direct byte offset.
	SeekHint int64
}

// Decoder is the streaming contract every audio format backend
// implements: Init publishes TrackInfo or reports ErrFormat; Decode fills
// out with interleaved L,R,L,R… 16-bit samples at the track's native rate
// and returns the sample-frame count written, ErrEndOfStream, or
// ErrDecode; Seek repositions to a sample index or reports
// ErrSeekUnsupported. Down-conversion to 16 bits happens inside the
// decoder (the "per-decoder scaler" of §4.6); nothing downstream ever
// sees wider samples.
type Decoder interface {
	Init(stream io.ReadSeeker) (TrackInfo, error)
	Decode(out []int16) (framesWritten int, err error)
	Seek(sampleIndex int64) error
	Close() error
}
