package audio

import (
	"fmt"
	"io"

	"zigpod/internal/ring"
)

// State is the playback state machine named in §4.6.
type State int

const (
	StateStopped State = iota
	StatePlaying
	StatePaused
	StateBuffering
)

func (s State) String() string {
	switch s {
	case StateStopped:
		return "Stopped"
	case StatePlaying:
		return "Playing"
	case StatePaused:
		return "Paused"
	case StateBuffering:
		return "Buffering"
	default:
		return "Unknown"
	}
}

// RingFillThreshold is the fraction of the ring buffer that must be full
// before Buffering transitions to Playing, per §4.6.
const RingFillThreshold = 0.25

// GaplessThresholdSamples is the "≈2 s worth of" remaining-sample
// threshold from §4.6 at which the engine pre-loads the alternate slot,
// expressed at the reference 44.1 kHz rate.
const GaplessThresholdSamples = 2 * 44100

// RingCapacityFrames is the ring buffer's stereo-frame capacity — "32 Ki
// stereo samples" per §4.6.
const RingCapacityFrames = 32 * 1024

// HalfBufferFrames is one DMA half-buffer's stereo-frame count — "2048
// stereo samples" per §4.6.
const HalfBufferFrames = 2048

// slot holds one decoder's open stream plus its published metadata.
type slot struct {
	decoder Decoder
	info    TrackInfo
	loaded  bool
	samplesDecoded int64
}

// DoubleBuffer is the DMA double-buffer: two interleaved-stereo
// half-buffers, one being drained by DMA while the other is refilled
// from the ring buffer, per §4.6 item 6 and §4.7's completion-IRQ
// contract.
type DoubleBuffer struct {
	halves    [2][]int16 // each HalfBufferFrames*2 samples
	active    int        // half currently owned by DMA
	Underruns uint64
}

// NewDoubleBuffer allocates both halves. In the firmware build these
// would be carved from the DMA-aligned allocator (internal/blockalloc);
// the host/test build uses plain slices since only the real silicon DMA
// engine cares about physical alignment.
func NewDoubleBuffer() *DoubleBuffer {
	db := &DoubleBuffer{}
	db.halves[0] = make([]int16, HalfBufferFrames*2)
	db.halves[1] = make([]int16, HalfBufferFrames*2)
	return db
}

// ActiveHalf returns the half-buffer currently owned by the DMA channel
// (read-only from the main loop's perspective).
func (db *DoubleBuffer) ActiveHalf() []int16 { return db.halves[db.active] }

// RefillInactiveHalf drains up to HalfBufferFrames stereo frames from
// rb into the half not currently owned by DMA. When the ring can't
// supply a full half, the remainder is silence-filled and Underruns is
// incremented, per §4.6's "If the ring buffer is empty, the refill
// writes silence and increments an underrun counter."
func (db *DoubleBuffer) RefillInactiveHalf(rb *ring.Ring[int16]) {
	inactive := db.halves[1-db.active]
	n := rb.Read(inactive)
	if n < len(inactive) {
		for i := n; i < len(inactive); i++ {
			inactive[i] = 0
		}
		db.Underruns++
	}
}

// Flip is called from the DMA completion handler's context: it swaps
// which half is "active" (owned by DMA) so the main loop refills the
// other one next. Per §4.7, the real IRQ handler only flips the index
// and sets a flag — it never touches the ring buffer or the decoder
// itself; that split is preserved here by keeping Flip and
// RefillInactiveHalf as separate calls.
func (db *DoubleBuffer) Flip() { db.active = 1 - db.active }

// Engine ties together two decoder slots, a resampler, a DSP chain, the
// ring buffer, and the DMA double buffer into the playback pipeline
// described in §4.6.
type Engine struct {
	SampleRate int

	slots      [2]slot
	activeSlot int

	resampler *Resampler
	Chain     *Chain
	ring      *ring.Ring[int16]
	dma       *DoubleBuffer

	state State

	decodeScratch []int16
}

// NewEngine builds an Engine fixed to sampleRate (the codec's active
// output rate — see §4.7's MCLK divider, which is driven from this
// value).
func NewEngine(sampleRate int) *Engine {
	e := &Engine{
		SampleRate: sampleRate,
		resampler:  NewResampler(sampleRate, sampleRate),
		Chain:      NewChain(sampleRate),
		ring:       ring.New[int16](RingCapacityFrames * 2),
		dma:        NewDoubleBuffer(),
		state:      StateStopped,
	}
	e.Chain.SetVolumeImmediate(1.0)
	e.decodeScratch = make([]int16, 4096*2)
	return e
}

// State reports the current playback state.
func (e *Engine) State() State { return e.state }

// DMA exposes the double buffer so internal/i2s can wire its DMA
// descriptor's RAM address to the active half (§4.7).
func (e *Engine) DMA() *DoubleBuffer { return e.dma }

// Load opens stream with decoder into slot index (0 or 1) without
// affecting current playback, enabling gapless pre-roll of the next
// track per §4.6.
func (e *Engine) Load(slotIndex int, decoder Decoder, stream io.ReadSeeker) (TrackInfo, error) {
	if slotIndex != 0 && slotIndex != 1 {
		return TrackInfo{}, fmt.Errorf("audio: invalid slot index %d", slotIndex)
	}
	info, err := decoder.Init(stream)
	if err != nil {
		return TrackInfo{}, err
	}
	e.slots[slotIndex] = slot{decoder: decoder, info: info, loaded: true}
	return info, nil
}

// Play transitions Stopped/Paused -> Playing (via Buffering until the
// ring is at least RingFillThreshold full), per §4.6.
func (e *Engine) Play() error {
	if !e.slots[e.activeSlot].loaded {
		return fmt.Errorf("audio: no track loaded in the active slot")
	}
	if e.state == StateStopped || e.state == StatePaused {
		e.state = StateBuffering
		e.resampler = NewResampler(e.slots[e.activeSlot].info.SampleRate, e.SampleRate)
	}
	return nil
}

// Pause stops advancing the decoder; DMA continues draining the
// already-filled half-buffer until it's empty, per §4.6 ("DMA continues
// until the half-buffer drains, then stops" — modeled here by simply
// halting refills; RefillIfNeeded becomes a no-op while Paused).
func (e *Engine) Pause() {
	if e.state == StatePlaying || e.state == StateBuffering {
		e.state = StatePaused
	}
}

// Stop aborts DMA, clears the ring, and releases both decoder slots.
func (e *Engine) Stop() {
	e.state = StateStopped
	e.ring.Reset()
	for i := range e.slots {
		if e.slots[i].loaded {
			e.slots[i].decoder.Close()
		}
		e.slots[i] = slot{}
	}
	e.dma = NewDoubleBuffer()
}

// SetVolume forwards to the DSP chain's ramped volume control.
func (e *Engine) SetVolume(v float64) { e.Chain.SetVolume(v) }

// SetEQBand sets one parametric band's gain in dB by rebuilding the
// chain's gain table for that index; band must be 0..4.
func (e *Engine) SetEQBand(band int, gainDB float64) error {
	if band < 0 || band > 4 {
		return fmt.Errorf("audio: invalid EQ band %d", band)
	}
	e.Chain.bandGainsQ[band] = dbToLinearQ16(gainDB)
	return nil
}

// decodeIntoRing pulls frames from the active decoder, resamples, runs
// the DSP chain, and pushes into the ring buffer until the ring is full
// or the decoder returns EndOfStream/an error. It implements the
// gapless handoff: crossing EndOfStream checks the alternate slot and,
// if its format matches, continues decoding from there with no DMA
// interruption, per §4.6.
func (e *Engine) decodeIntoRing() error {
	active := &e.slots[e.activeSlot]
	for e.ring.Free() >= len(e.decodeScratch) {
		n, err := active.decoder.Decode(e.decodeScratch)
		if err == ErrEndOfStream {
			alt := 1 - e.activeSlot
			altSlot := &e.slots[alt]
			if altSlot.loaded &&
				altSlot.info.SampleRate == active.info.SampleRate &&
				altSlot.info.Channels == active.info.Channels {
				e.activeSlot = alt
				active.decoder.Close()
				*active = slot{}
				active = altSlot
				continue
			}
			e.state = StateStopped
			return nil
		}
		if err != nil {
			return fmt.Errorf("audio: decode: %w", err)
		}
		active.samplesDecoded += int64(n)
		frames := e.decodeScratch[:n*2]
		if !e.resampler.Passthrough() {
			resampled := make([]int16, n*2)
			rn := e.resampler.Process(frames, resampled)
			frames = resampled[:rn*2]
		}
		e.Chain.Process(frames)
		e.ring.Write(frames)
	}
	return nil
}

// RemainingSamples reports how many source samples are left to decode in
// the active slot, used to decide when to pre-load the alternate slot
// ("when the current track has ≤ GAPLESS_THRESHOLD samples remaining" —
// §4.6).
func (e *Engine) RemainingSamples() int64 {
	active := &e.slots[e.activeSlot]
	if !active.loaded {
		return 0
	}
	return active.info.TotalSamples - active.samplesDecoded
}

// ShouldPreloadNext reports whether the caller should Load the next
// track into the inactive slot now.
func (e *Engine) ShouldPreloadNext() bool {
	return !e.slots[1-e.activeSlot].loaded && e.RemainingSamples() <= GaplessThresholdSamples
}

// RefillIfNeeded is the main-loop step named in §5's
// `audio.refillDmaIfNeeded()`: it decodes more into the ring, then — if
// the DMA completion flag is set — refills the drained half-buffer. It
// is a no-op while Paused/Stopped.
func (e *Engine) RefillIfNeeded(dmaFlipped bool) error {
	switch e.state {
	case StatePaused, StateStopped:
		return nil
	}
	if err := e.decodeIntoRing(); err != nil {
		return err
	}
	if e.state == StateBuffering {
		if float64(e.ring.Len())/float64(e.ring.Cap()) >= RingFillThreshold {
			e.state = StatePlaying
		}
	}
	if dmaFlipped {
		e.dma.RefillInactiveHalf(e.ring)
	}
	return nil
}
