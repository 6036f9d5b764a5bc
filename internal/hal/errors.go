package hal

import "errors"

// Sentinel errors returned by HAL operations, per the error taxonomy in §7.
// Callers use errors.Is against these; wrapped with fmt.Errorf("...: %w", ...)
// at each call site to attach register/operation context.
var (
	ErrTimeout         = errors.New("hal: operation timed out")
	ErrDeviceNotReady  = errors.New("hal: device not ready")
	ErrTransferError   = errors.New("hal: transfer error")
	ErrInvalidParam    = errors.New("hal: invalid parameter")
	ErrNotSupported    = errors.New("hal: operation not supported")
	ErrArbitrationLost = errors.New("hal: bus arbitration lost")
	ErrNack            = errors.New("hal: device nacked")
	ErrBufferOverflow  = errors.New("hal: buffer overflow")
	ErrHardwareError   = errors.New("hal: hardware fault")
)
