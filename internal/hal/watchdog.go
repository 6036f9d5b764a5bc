package hal

import "time"

// Watchdog is the hardware reset timer armed by the bootloader before the
// application jump and kicked once per main-loop iteration.
type Watchdog interface {
	Arm(timeout time.Duration) error
	Kick() error
	Disarm() error
}
