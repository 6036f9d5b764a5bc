package i2s

import (
	"fmt"
	"time"

	"zigpod/internal/diag"
	"zigpod/internal/hal"
)

// Driver sequences codec and I2S controller bring-up and owns the DMA
// channel feeding the I2S FIFO from the audio engine's double buffer.
type Driver struct {
	i2s hal.I2S
	i2c hal.I2C
	dma hal.DMA
	sys hal.System
	log *diag.Logger

	dmaChannel int
}

// New returns a Driver wired to the given HAL capabilities.
func New(h *hal.HAL, log *diag.Logger) *Driver {
	return &Driver{i2s: h.I2S, i2c: h.I2C, dma: h.DMA, sys: h.System, log: log, dmaChannel: 0}
}

// Start runs the initialization order from §4.7: the I2S controller
// first (sample-rate divider, MCLK divider for MCLK=256·Fs, format,
// FIFO thresholds — all encapsulated behind hal.I2S.Init, which is the
// HAL boundary separating domain sequencing from register-level MMIO),
// then the WM8758 codec sequence over I2C, then enables the TX FIFO.
func (d *Driver) Start(sampleRateHz, bitsPerSample int) error {
	if err := d.i2c.Init(); err != nil {
		return fmt.Errorf("i2s: i2c init: %w", err)
	}
	d.logf("i2s controller init: rate=%d bits=%d", sampleRateHz, bitsPerSample)
	if err := d.i2s.Init(sampleRateHz, hal.FormatI2S, bitsPerSample); err != nil {
		return fmt.Errorf("i2s: controller init: %w", err)
	}

	if err := d.codecBringUp(); err != nil {
		return err
	}

	d.logf("i2s TX FIFO enable")
	if err := d.i2s.Enable(true); err != nil {
		return fmt.Errorf("i2s: enable: %w", err)
	}
	return nil
}

// codecBringUp runs the WM8758 sequence exactly in §4.7's order:
// software reset → PWRMGMT1 (bias, VMID, PLL) → 5 ms settle → PWRMGMT2
// (outputs) → PWRMGMT3 (DAC, mixer) → audio interface (I2S 16-bit) →
// clock (master mode) → DAC (no mute) → output-mixer (DAC routed to
// L/R out) → volume (0 dB reference).
func (d *Driver) codecBringUp() error {
	steps := []struct {
		name string
		reg  uint8
		val  uint16
		settleMS time.Duration
	}{
		{"software reset", wm8758RegSoftwareReset, 0x000, 0},
		{"power mgmt 1 (bias/VMID/PLL)", wm8758RegPowerMgmt1, 0x1B, 5 * time.Millisecond},
		{"power mgmt 2 (outputs)", wm8758RegPowerMgmt2, 0x1B0, 0},
		{"power mgmt 3 (DAC/mixer)", wm8758RegPowerMgmt3, 0x00C, 0},
		{"audio interface (I2S 16-bit)", wm8758RegAudioInterface, 0x010, 0},
		{"clock gen (master mode)", wm8758RegClockGen, 0x000, 0},
		{"DAC control (no mute)", wm8758RegDACControl, 0x000, 0},
		{"output mixer (DAC -> L/R out)", wm8758RegOutputMixer1, 0x001, 0},
		{"left out volume (0dB ref)", wm8758RegLeftOutVol, 0x079, 0},
		{"right out volume (0dB ref)", wm8758RegRightOutVol, 0x079, 0},
	}
	for _, s := range steps {
		d.logf("codec: %s", s.name)
		if err := writeWM8758Reg(d.i2c, s.reg, s.val); err != nil {
			return fmt.Errorf("i2s: codec %s: %w", s.name, err)
		}
		if s.settleMS > 0 && d.sys != nil {
			d.sys.DelayMS(s.settleMS)
		}
	}
	return nil
}

// SetVolume rewrites the left/right output volume registers to a 0-127
// WM8758 volume code scaled from a 0.0-1.0 engine-side gain.
func (d *Driver) SetVolume(gain float64) error {
	if gain < 0 {
		gain = 0
	}
	if gain > 1 {
		gain = 1
	}
	code := uint16(gain * 127)
	if err := writeWM8758Reg(d.i2c, wm8758RegLeftOutVol, code); err != nil {
		return fmt.Errorf("i2s: set left volume: %w", err)
	}
	if err := writeWM8758Reg(d.i2c, wm8758RegRightOutVol, code); err != nil {
		return fmt.Errorf("i2s: set right volume: %w", err)
	}
	return nil
}

// ArmHalfBuffer configures the DMA channel to transfer buf (one DMA
// double-buffer half, RAM -> I2S FIFO) with request id 2 (DMARequestI2S).
// hal.DMAConfig has no burst-size or interrupt-on-complete field, so
// neither is set here.
func (d *Driver) ArmHalfBuffer(bufAddr uintptr, lengthBytes int) error {
	cfg := hal.DMAConfig{
		SrcAddr: bufAddr,
		DstAddr: 0, // peripheral FIFO, selected by Request
		Length:  lengthBytes,
		Request: hal.DMARequestI2S,
	}
	if err := d.dma.Start(d.dmaChannel, cfg); err != nil {
		return fmt.Errorf("i2s: arm DMA: %w", err)
	}
	return nil
}

func (d *Driver) logf(format string, args ...any) {
	if d.log == nil {
		return
	}
	d.log.LogAudiof(diag.LevelDebug, format, args...)
}
