package hal

// Peripheral memory map for the PP5021C, reproduced bit-for-bit from the
// hardware reference tables. Every peripheral base the silicon backend
// touches is named here; internal/hal/silicon.go addresses most registers
// as a named base plus a literal offset.
const (
	BootROMBase = 0x00000000
	BootROMEnd  = 0x0001FFFF

	IRAMBase = 0x10000000
	IRAMEnd  = 0x10017FFF

	LCDBase = 0x30000000
	LCDEnd  = 0x30070000

	CoreBase = 0x60000000 // System/Clock/IRQ/Timer/GPIO
	CoreEnd  = 0x60007FFF

	DMABase = 0x6000A000
	DMAEnd  = 0x6000BFFF

	GPIOPortBase = 0x6000D000 // + 4*port for ports A-L
	GPIOPortEnd  = 0x6000D1FF

	DeviceInitBase = 0x70000000
	DeviceInitEnd  = 0x70000FFF

	I2SBase = 0x70002800 // IISCONFIG, IISCLK, IISFIFO
	I2SEnd  = 0x700028FF

	UARTBase = 0x70006000
	UARTEnd  = 0x7000607F

	I2CBase = 0x7000C000 // 400 kHz fast-mode
	I2CEnd  = 0x7000C0FF

	ClickWheelBase = 0x7000C100 // WHEEL_CTRL, WHEEL_STATUS, WHEEL_DATA
	ClickWheelEnd  = 0x7000C1FF

	ATABase = 0xC3000000 // PIO task file
	ATAEnd  = 0xC30001FF

	USBBase = 0xC5000000
	USBEnd  = 0xC5FFFFFF

	SDRAMCachedBase   = 0x40000000
	SDRAMCachedEnd    = 0x41FFFFFF
	SDRAMUncachedBase = 0x42000000 // DMA-visible alias of SDRAM
	SDRAMUncachedEnd  = 0x43FFFFFF
)

// Click-wheel registers, offsets from ClickWheelBase.
const (
	RegWheelCtrl   = ClickWheelBase + 0x00
	RegWheelStatus = ClickWheelBase + 0x04
	RegWheelData   = ClickWheelBase + 0x08
)

// Click-wheel init magic values, per §4.8.
const (
	WheelInitMagic1 = 0xC00A1F00
	WheelInitMagic2 = 0x01000000
	WheelPacketTag  = 0x1A
)

// LCD / BCM2722 command channel offsets.
const (
	RegBCMParamWrite = LCDBase + 0xE0000
	RegBCMCommand    = LCDBase + 0x1F8
	RegBCMControl    = LCDBase + 0x00004
)

// BCM command-channel encoding and control values, per §4.8.
const (
	BCMUpdateTrigger = 0x31
	LCDUpdateCommand = 0x00000001
)

// EncodeBCMCommand applies the BCM2722's command-channel encoding:
// (~cmd << 16) | cmd. Kept as a free function rather than a method on a
// register type because it transforms a value, not an address.
func EncodeBCMCommand(cmd uint16) uint32 {
	return (uint32(^cmd) << 16) | uint32(cmd)
}

// I2S registers, offsets from I2SBase.
const (
	RegIISConfig = I2SBase + 0x00
	RegIISClock  = I2SBase + 0x04
	RegIISFIFO   = I2SBase + 0x08
)

// DMA request IDs, per §3.
const (
	DMARequestI2S  = 2
	DMARequestSDHC = 13
)

// I2C addresses of the onboard devices.
const (
	I2CAddrWM8758  = 0x1A
	I2CAddrPCF50605 = 0x08
)
