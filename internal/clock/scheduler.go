// Package clock implements the frame limiter driving the main loop's
// cadence, adapted from a cycle-based multi-component scheduler into a
// single-rate frame-pacing clock (§4.8, §5).
package clock

import (
	"time"

	"zigpod/internal/hal"
)

// ActiveHz and IdleHz are the two frame rates named in §4.8.
const (
	ActiveHz = 60
	IdleHz   = 20
)

// IdleThresholdFrames is the number of consecutive idle frames (no
// input, no redraw required, no playback) after which the limiter drops
// to IdleHz.
const IdleThresholdFrames = 30

// DelayThresholdUS is the minimum remaining time worth handing to the
// HAL delay; smaller remainders are absorbed by the next frame's own
// measurement rather than spent on a delay call.
const DelayThresholdUS = 100

// FrameLimiter paces the main loop at ActiveHz, dropping to IdleHz after
// IdleThresholdFrames consecutive idle frames and resuming ActiveHz
// immediately on the next active frame, per §4.8.
type FrameLimiter struct {
	sys hal.System

	consecutiveIdle int
	idle            bool

	frameStartUS uint64
}

// New returns a FrameLimiter driven by sys's microsecond tick counter
// and delay primitive.
func New(sys hal.System) *FrameLimiter {
	return &FrameLimiter{sys: sys}
}

// CurrentHz reports the rate the limiter is currently pacing at.
func (f *FrameLimiter) CurrentHz() int {
	if f.idle {
		return IdleHz
	}
	return ActiveHz
}

// BeginFrame records the frame's start tick; call once at the top of
// each main-loop iteration.
func (f *FrameLimiter) BeginFrame() {
	f.frameStartUS = f.sys.GetTicksUS()
}

// EndFrame is called once per main-loop iteration after
// app.Update()/audio.RefillIfNeeded(): active reports whether this
// frame had input, a required redraw, or active playback. It updates
// the idle streak, and busy-delays for whatever of the frame period
// remains beyond DelayThresholdUS, per §4.8's "Measures elapsed
// microseconds since frame start; for any remainder >= 100us it calls
// the HAL delay."
func (f *FrameLimiter) EndFrame(active bool) {
	if active {
		f.consecutiveIdle = 0
		f.idle = false // "On return from idle, the first active frame resumes 60 Hz immediately."
	} else {
		f.consecutiveIdle++
		if f.consecutiveIdle >= IdleThresholdFrames {
			f.idle = true
		}
	}

	periodUS := uint64(1_000_000 / f.CurrentHz())
	elapsed := f.sys.GetTicksUS() - f.frameStartUS
	if elapsed >= periodUS {
		return
	}
	remaining := periodUS - elapsed
	if remaining >= DelayThresholdUS {
		f.sys.DelayUS(time.Duration(remaining) * time.Microsecond)
	}
}
