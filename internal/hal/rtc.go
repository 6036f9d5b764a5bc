package hal

import "time"

// RTC is the battery-backed real-time clock.
type RTC interface {
	Now() (time.Time, error)
	Set(t time.Time) error
}
