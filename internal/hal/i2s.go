package hal

// SampleFormat selects the I2S frame format.
type SampleFormat int

const (
	FormatI2S SampleFormat = iota
	FormatLeftJustified
	FormatRightJustified
)

// I2S drives the audio serial interface feeding the WM8758 DAC. Write is
// used only by the host-test backend and by silicon bring-up diagnostics;
// the steady-state playback path writes samples via DMA directly into the
// FIFO address (see DMA.Start), bypassing this call to avoid a CPU copy.
type I2S interface {
	Init(rateHz int, format SampleFormat, bitsPerSample int) error
	Write(samples []int16) (written int, err error)
	TxReady() bool
	TxFreeSlots() int
	Enable(enabled bool) error
}
