// Package i2s sequences the I2S controller, the WM8758 codec over I2C,
// and the DMA channel feeding the codec's FIFO, in the exact order named
// in §4.7.
package i2s

import "zigpod/internal/hal"

// WM8758 register addresses (7-bit), each carrying a 9-bit data value
// over the two-byte I2C write format the part uses.
const (
	wm8758RegSoftwareReset  = 0x0F
	wm8758RegPowerMgmt1     = 0x01
	wm8758RegPowerMgmt2     = 0x02
	wm8758RegPowerMgmt3     = 0x03
	wm8758RegAudioInterface = 0x04
	wm8758RegClockGen       = 0x06
	wm8758RegDACControl     = 0x0A
	wm8758RegOutputMixer1   = 0x22
	wm8758RegLeftOutVol     = 0x23
	wm8758RegRightOutVol    = 0x24
)

// writeWM8758Reg packs a 7-bit register address and 9-bit value into the
// part's two-byte I2C write format: byte0 = (reg<<1) | bit8 of data,
// byte1 = low 8 bits of data.
func writeWM8758Reg(bus hal.I2C, reg uint8, data uint16) error {
	payload := [2]byte{
		(reg << 1) | byte(data>>8&0x01),
		byte(data & 0xFF),
	}
	return bus.Write(hal.I2CAddrWM8758, payload[:])
}
