package audio

import (
	"encoding/binary"
	"fmt"
	"io"
)

// WAVDecoder is the one reference Decoder implementation: a RIFF/WAVE
// PCM reader. §4.6 names codec bit-stream decoders (FLAC/MP3/AIFF) as
// out of scope and keeps the Decoder contract format-agnostic; WAV is
// kept as the single concrete implementation needed to exercise the
// round-trip and gapless properties end to end, grounded on the
// magic-then-body parse shape of cartridge.LoadROM.
type WAVDecoder struct {
	stream        io.ReadSeeker
	dataStart     int64
	dataSize      int64
	bytesPerFrame int
	bitsPerSample int
	channels      int
	cursorByte    int64
}

func readChunkHeader(r io.Reader) (id [4]byte, size uint32, err error) {
	var hdr [8]byte
	if _, err = io.ReadFull(r, hdr[:]); err != nil {
		return id, 0, err
	}
	copy(id[:], hdr[:4])
	size = binary.LittleEndian.Uint32(hdr[4:8])
	return id, size, nil
}

// Init parses the RIFF/WAVE container: the 12-byte RIFF header, then
// walks chunks until "fmt " and "data" are both found.
func (d *WAVDecoder) Init(stream io.ReadSeeker) (TrackInfo, error) {
	var riff [12]byte
	if _, err := io.ReadFull(stream, riff[:]); err != nil {
		return TrackInfo{}, fmt.Errorf("%w: riff header: %v", ErrFormat, err)
	}
	if string(riff[0:4]) != "RIFF" || string(riff[8:12]) != "WAVE" {
		return TrackInfo{}, fmt.Errorf("%w: not a RIFF/WAVE stream", ErrFormat)
	}

	var sampleRate uint32
	var channels, bitsPerSample uint16
	haveFmt := false

	for {
		id, size, err := readChunkHeader(stream)
		if err != nil {
			return TrackInfo{}, fmt.Errorf("%w: chunk header: %v", ErrFormat, err)
		}
		switch string(id[:]) {
		case "fmt ":
			body := make([]byte, size)
			if _, err := io.ReadFull(stream, body); err != nil {
				return TrackInfo{}, fmt.Errorf("%w: fmt chunk: %v", ErrFormat, err)
			}
			if len(body) < 16 {
				return TrackInfo{}, fmt.Errorf("%w: fmt chunk too small", ErrFormat)
			}
			channels = binary.LittleEndian.Uint16(body[2:4])
			sampleRate = binary.LittleEndian.Uint32(body[4:8])
			bitsPerSample = binary.LittleEndian.Uint16(body[14:16])
			haveFmt = true
		case "data":
			if !haveFmt {
				return TrackInfo{}, fmt.Errorf("%w: data chunk before fmt chunk", ErrFormat)
			}
			pos, err := stream.Seek(0, io.SeekCurrent)
			if err != nil {
				return TrackInfo{}, fmt.Errorf("%w: %v", ErrFormat, err)
			}
			d.stream = stream
			d.dataStart = pos
			d.dataSize = int64(size)
			d.channels = int(channels)
			d.bitsPerSample = int(bitsPerSample)
			d.bytesPerFrame = int(channels) * int(bitsPerSample) / 8
			d.cursorByte = 0
			if d.bytesPerFrame == 0 {
				return TrackInfo{}, fmt.Errorf("%w: zero-size frame", ErrFormat)
			}
			totalFrames := d.dataSize / int64(d.bytesPerFrame)
			info := TrackInfo{
				SampleRate:    int(sampleRate),
				Channels:      d.channels,
				BitsPerSample: d.bitsPerSample,
				TotalSamples:  totalFrames,
				Format:        "WAV",
			}
			if sampleRate != 0 {
				info.DurationMs = totalFrames * 1000 / int64(sampleRate)
			}
			return info, nil
		default:
			// Skip unknown/uninteresting chunks (LIST, fact, etc.), honoring
			// the RIFF even-alignment padding rule.
			skip := int64(size)
			if size%2 == 1 {
				skip++
			}
			if _, err := stream.Seek(skip, io.SeekCurrent); err != nil {
				return TrackInfo{}, fmt.Errorf("%w: skip chunk %q: %v", ErrFormat, id, err)
			}
		}
	}
}

// Decode reads up to len(out)/channels frames, down-converting 8-, 24-,
// and 32-bit samples to 16-bit (the "per-decoder scaler" of §4.6) and
// passing 16-bit source data through unchanged.
func (d *WAVDecoder) Decode(out []int16) (int, error) {
	if d.stream == nil {
		return 0, fmt.Errorf("%w: decoder not initialized", ErrDecode)
	}
	framesRemaining := (d.dataSize - d.cursorByte) / int64(d.bytesPerFrame)
	if framesRemaining <= 0 {
		return 0, ErrEndOfStream
	}
	wantFrames := int64(len(out) / d.channels)
	if wantFrames > framesRemaining {
		wantFrames = framesRemaining
	}
	if wantFrames == 0 {
		return 0, ErrEndOfStream
	}

	raw := make([]byte, int(wantFrames)*d.bytesPerFrame)
	n, err := io.ReadFull(d.stream, raw)
	if err != nil && err != io.ErrUnexpectedEOF {
		return 0, fmt.Errorf("%w: %v", ErrDecode, err)
	}
	framesRead := int64(n) / int64(d.bytesPerFrame)
	d.cursorByte += int64(n)

	bytesPerSample := d.bitsPerSample / 8
	sampleIdx := 0
	for f := int64(0); f < framesRead; f++ {
		for c := 0; c < d.channels; c++ {
			off := int(f)*d.bytesPerFrame + c*bytesPerSample
			out[sampleIdx] = scaleTo16(raw[off:off+bytesPerSample], d.bitsPerSample)
			sampleIdx++
		}
	}
	return int(framesRead), nil
}

// scaleTo16 down- or pass-converts a little-endian PCM sample of the
// given bit depth to a signed 16-bit sample.
func scaleTo16(b []byte, bits int) int16 {
	switch bits {
	case 8:
		// WAV 8-bit PCM is unsigned with a 128 bias.
		return int16((int32(b[0]) - 128) << 8)
	case 16:
		return int16(binary.LittleEndian.Uint16(b))
	case 24:
		v := int32(b[0]) | int32(b[1])<<8 | int32(b[2])<<16
		if v&0x800000 != 0 {
			v |= ^int32(0xFFFFFF)
		}
		return int16(v >> 8)
	case 32:
		v := int32(binary.LittleEndian.Uint32(b))
		return int16(v >> 16)
	default:
		return 0
	}
}

// Seek repositions to the given sample-frame index by computing the
// corresponding byte offset from dataStart.
func (d *WAVDecoder) Seek(sampleIndex int64) error {
	if d.stream == nil {
		return fmt.Errorf("%w: decoder not initialized", ErrDecode)
	}
	byteOff := sampleIndex * int64(d.bytesPerFrame)
	if byteOff < 0 || byteOff > d.dataSize {
		return fmt.Errorf("%w: sample %d out of range", ErrSeekUnsupported, sampleIndex)
	}
	if _, err := d.stream.Seek(d.dataStart+byteOff, io.SeekStart); err != nil {
		return fmt.Errorf("%w: %v", ErrDecode, err)
	}
	d.cursorByte = byteOff
	return nil
}

func (d *WAVDecoder) Close() error { return nil }
