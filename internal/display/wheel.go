// Package display drives the click-wheel input tracker and the LCD frame
// surface on top of the hal.ClickWheel/hal.LCD capabilities, adapted from
// the teacher's latch-and-poll input model (§4.8).
package display

import "zigpod/internal/hal"

// positionUnset marks that no prior wheel position has been observed,
// so the first Poll after a touch reports a zero delta instead of a
// spurious wrap-corrected jump from 0.
const positionUnset = -2

// WrapThreshold is the |delta| above which a position jump is assumed to
// be a wheel wrap-around rather than genuine motion, per §4.8.
const WrapThreshold = 48

// WrapAdjust is added to (or subtracted from) an out-of-range delta to
// fold it back into the wheel's 0-95 position ring.
const WrapAdjust = 96

// WheelEvent is one polled sample of the click-wheel's combined button
// and position state.
type WheelEvent struct {
	Buttons  hal.Button
	Position int  // 0-95, or -1 if no finger is on the wheel
	Touching bool
	Delta    int // wrap-corrected change since the previous Poll, 0 if not touching
}

// Tracker polls the click wheel once per frame (the "~100 Hz in
// hardware, main loop polls each frame" model from §5) and derives a
// wrap-corrected position delta, mirroring the teacher's InputSystem
// latch-then-read poll cadence generalized from a digital shift-register
// read to an absolute analog position.
type Tracker struct {
	wheel        hal.ClickWheel
	lastPosition int
}

// NewTracker returns a Tracker reading from wheel.
func NewTracker(wheel hal.ClickWheel) *Tracker {
	return &Tracker{wheel: wheel, lastPosition: positionUnset}
}

// Poll reads the current button and position state and returns a
// WheelEvent with the wrap-corrected delta from the previous Poll.
func (t *Tracker) Poll() (WheelEvent, error) {
	buttons, err := t.wheel.ReadButtons()
	if err != nil {
		return WheelEvent{}, err
	}
	position, touching, err := t.wheel.ReadPosition()
	if err != nil {
		return WheelEvent{}, err
	}

	ev := WheelEvent{Buttons: buttons, Position: position, Touching: touching}
	if !touching {
		t.lastPosition = positionUnset
		return ev, nil
	}
	if t.lastPosition != positionUnset {
		ev.Delta = wrapDelta(position, t.lastPosition)
	}
	t.lastPosition = position
	return ev, nil
}

// wrapDelta computes position-previous, folded by WrapAdjust whenever
// the raw difference exceeds WrapThreshold in magnitude, per §4.8's
// "delta between successive positions wraps with the rule: if |Δ| > 48,
// adjust by ±96."
func wrapDelta(position, previous int) int {
	delta := position - previous
	if delta > WrapThreshold {
		delta -= WrapAdjust
	} else if delta < -WrapThreshold {
		delta += WrapAdjust
	}
	return delta
}
