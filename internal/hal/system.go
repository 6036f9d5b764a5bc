package hal

import "time"

// System provides global timing and power primitives that every other
// capability implicitly depends on (delay loops, tick counting for timeout
// budgets, and a hard reset for the fallback path).
type System interface {
	// Init performs one-time silicon bring-up: PLL lock, cache enable,
	// SDRAM controller configuration. Called exactly once at stub entry.
	Init() error

	// DelayUS busy-waits for approximately d microseconds.
	DelayUS(d time.Duration)

	// DelayMS busy-waits for approximately d milliseconds.
	DelayMS(d time.Duration)

	// GetTicksUS returns a free-running microsecond counter used to
	// compute elapsed time for timeout budgets. Wraps per the underlying
	// timer's width; callers must compare via subtraction, never by sign.
	GetTicksUS() uint64

	// Sleep enters a low-power wait state until the next interrupt.
	Sleep()

	// Reset performs a full silicon reset. Does not return on success.
	Reset()
}
