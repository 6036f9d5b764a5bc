package audio

// Resampler maps interleaved stereo samples from an input rate to an
// output rate by linear interpolation — "v1 accepts the quality
// compromise" per §4.6 — or passes through unchanged when the rates
// match.
type Resampler struct {
	inRate, outRate int
	// pos is the fractional read position into the input stream, in
	// Q16.16 fixed point, carried across calls so a source split across
	// multiple Decode buffers resamples continuously.
	pos int64
}

const resampleFracBits = 16

// NewResampler returns a Resampler converting inRate to outRate.
func NewResampler(inRate, outRate int) *Resampler {
	return &Resampler{inRate: inRate, outRate: outRate}
}

// Passthrough reports whether input and output rates are equal, the
// common case that needs no interpolation.
func (r *Resampler) Passthrough() bool { return r.inRate == r.outRate }

// Reset clears carried interpolation state, used when seeking or
// starting a new track.
func (r *Resampler) Reset() {
	r.pos = 0
}

// Process resamples interleaved stereo input (L,R,L,R…) into out,
// returning the number of stereo frames written. When Passthrough is
// true, callers should skip this step entirely per §4.6's "Passthrough
// when rates match".
func (r *Resampler) Process(in []int16, out []int16) int {
	if r.Passthrough() {
		n := copy(out, in)
		return n / 2
	}
	inFrames := len(in) / 2
	outFrames := len(out) / 2
	step := (int64(r.inRate) << resampleFracBits) / int64(r.outRate)

	written := 0
	for written < outFrames {
		idx := r.pos >> resampleFracBits
		frac := r.pos & ((1 << resampleFracBits) - 1)
		if int(idx) >= inFrames-1 {
			break
		}
		l0, r0 := in[idx*2], in[idx*2+1]
		l1, r1 := in[(idx+1)*2], in[(idx+1)*2+1]
		out[written*2] = lerp16(l0, l1, frac)
		out[written*2+1] = lerp16(r0, r1, frac)
		written++
		r.pos += step
	}
	// Retain the fractional position relative to the consumed input for
	// the next Process call on the following buffer.
	consumedFrames := r.pos >> resampleFracBits
	r.pos -= consumedFrames << resampleFracBits
	return written
}

func lerp16(a, b int16, frac int64) int16 {
	delta := int64(b) - int64(a)
	return int16(int64(a) + (delta*frac)>>resampleFracBits)
}
