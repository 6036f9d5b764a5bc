package hal

import (
	"fmt"
	"time"

	"zigpod/internal/hal/mmio"
)

// Silicon is the production HAL backend: it writes the MMIO addresses in
// regmap.go and busy-waits against real silicon timing. Construct once at
// stub entry and never again; all sub-interfaces share the single
// siliconState, which holds the GPIO interrupt handler table. No lock
// serializes I2C transfers: the codec and the PMU reach the bus through
// the same siliconI2C methods, one call at a time from the cooperative
// main loop.
type siliconState struct {
	gpioIRQ [12 * 32]func()
}

func NewSilicon() *HAL {
	s := &siliconState{}
	return &HAL{
		System:     (*siliconSystem)(s),
		GPIO:       (*siliconGPIO)(s),
		I2C:        (*siliconI2C)(s),
		I2S:        (*siliconI2S)(s),
		ATA:        (*siliconATA)(s),
		LCD:        (*siliconLCD)(s),
		ClickWheel: (*siliconClickWheel)(s),
		DMA:        (*siliconDMA)(s),
		USB:        (*siliconUSB)(s),
		Watchdog:   (*siliconWatchdog)(s),
		RTC:        (*siliconRTC)(s),
		PMU:        (*siliconPMU)(s),
	}
}

// waitReg busy-waits up to budget for reg&mask to equal want, translating
// exhaustion into ErrTimeout. The I2C, ATA and DMA capabilities route their
// polling through this helper to meet the timeout contract in §4.1 ("every
// capability may busy-wait bounded by an explicit timeout"); System.Init
// instead polls the PLL-lock bit with mmio.Reg32.Wait's iteration budget.
func waitReg(reg mmio.Reg32, mask, want uint32, budget time.Duration, sys System, what string) error {
	deadline := sys.GetTicksUS() + uint64(budget.Microseconds())
	for {
		if reg.Get()&mask == want {
			return nil
		}
		if sys.GetTicksUS() >= deadline {
			return fmt.Errorf("%s: %w", what, ErrTimeout)
		}
	}
}

type siliconSystem siliconState

func (s *siliconSystem) Init() error {
	// PLL lock, cache enable, SDRAM controller bring-up: a fixed sequence
	// of register pokes at CoreBase, executed once from the boot stub.
	mmio.Reg32(CoreBase + 0x00).Set(0x00000001) // PLL enable
	if !mmio.Reg32(CoreBase + 0x04).Wait(0x1, 0x1, 1_000_000) {
		return fmt.Errorf("system init: PLL lock: %w", ErrTimeout)
	}
	mmio.Reg32(CoreBase + 0x08).SetBits(0x1) // cache controller enable
	return nil
}

func (s *siliconSystem) DelayUS(d time.Duration) {
	target := s.GetTicksUS() + uint64(d.Microseconds())
	for s.GetTicksUS() < target {
	}
}

func (s *siliconSystem) DelayMS(d time.Duration) { s.DelayUS(d) }

func (s *siliconSystem) GetTicksUS() uint64 {
	hi := mmio.Reg32(CoreBase + 0x10).Get()
	lo := mmio.Reg32(CoreBase + 0x14).Get()
	return uint64(hi)<<32 | uint64(lo)
}

func (s *siliconSystem) Sleep() {
	mmio.Reg32(CoreBase + 0x18).Set(0x1) // enter wait-for-interrupt
}

func (s *siliconSystem) Reset() {
	mmio.Reg32(CoreBase + 0x1C).Set(0xDEADBEEF)
	for {
	}
}

type siliconGPIO siliconState

func portReg(port int) mmio.Reg32 {
	return mmio.Reg32(GPIOPortBase + uintptr(port)*4)
}

func (s *siliconGPIO) SetDirection(port, pin int, dir Direction) error {
	if port < 0 || port > 11 || pin < 0 || pin > 31 {
		return fmt.Errorf("gpio SetDirection(%d,%d): %w", port, pin, ErrInvalidParam)
	}
	dirReg := mmio.Reg32(GPIOPortBase + uintptr(port)*4 + 0x800) // direction bank
	if dir == DirectionOutput {
		dirReg.SetBits(1 << uint(pin))
	} else {
		dirReg.ClearBits(1 << uint(pin))
	}
	return nil
}

func (s *siliconGPIO) Read(port, pin int) (bool, error) {
	if port < 0 || port > 11 || pin < 0 || pin > 31 {
		return false, fmt.Errorf("gpio Read(%d,%d): %w", port, pin, ErrInvalidParam)
	}
	return portReg(port).Get()&(1<<uint(pin)) != 0, nil
}

func (s *siliconGPIO) Write(port, pin int, high bool) error {
	if port < 0 || port > 11 || pin < 0 || pin > 31 {
		return fmt.Errorf("gpio Write(%d,%d): %w", port, pin, ErrInvalidParam)
	}
	if high {
		portReg(port).SetBits(1 << uint(pin))
	} else {
		portReg(port).ClearBits(1 << uint(pin))
	}
	return nil
}

func (s *siliconGPIO) SetInterrupt(port, pin int, edge Edge, handler func()) error {
	if port < 0 || port > 11 || pin < 0 || pin > 31 {
		return fmt.Errorf("gpio SetInterrupt(%d,%d): %w", port, pin, ErrInvalidParam)
	}
	(*siliconState)(s).gpioIRQ[port*32+pin] = handler
	return nil
}

type siliconI2C siliconState

const i2cTimeout = 10 * time.Millisecond

func (s *siliconI2C) Init() error {
	mmio.Reg32(I2CBase + 0x00).Set(0x00000001) // enable, 400kHz fast-mode divider
	return nil
}

func (s *siliconI2C) Write(addr uint8, data []byte) error {
	if len(data) > 4 {
		return fmt.Errorf("i2c Write(0x%02X): payload of %d bytes: %w", addr, len(data), ErrInvalidParam)
	}
	mmio.Reg32(I2CBase + 0x04).Set(uint32(addr) << 1)
	for _, b := range data {
		mmio.Reg32(I2CBase + 0x08).Set(uint32(b))
		if err := waitReg(mmio.Reg32(I2CBase+0x0C), 0x1, 0x1, i2cTimeout, (*siliconSystem)(s), "i2c Write"); err != nil {
			return err
		}
	}
	if mmio.Reg32(I2CBase+0x10).Get()&0x2 != 0 {
		return fmt.Errorf("i2c Write(0x%02X): %w", addr, ErrNack)
	}
	return nil
}

func (s *siliconI2C) Read(addr uint8, buf []byte) error {
	if len(buf) > 4 {
		return fmt.Errorf("i2c Read(0x%02X): payload of %d bytes: %w", addr, len(buf), ErrInvalidParam)
	}
	mmio.Reg32(I2CBase + 0x04).Set(uint32(addr)<<1 | 1)
	for i := range buf {
		if err := waitReg(mmio.Reg32(I2CBase+0x0C), 0x1, 0x1, i2cTimeout, (*siliconSystem)(s), "i2c Read"); err != nil {
			return err
		}
		buf[i] = byte(mmio.Reg32(I2CBase + 0x08).Get())
	}
	return nil
}

func (s *siliconI2C) WriteRead(addr uint8, data []byte, buf []byte) error {
	if err := s.Write(addr, data); err != nil {
		return err
	}
	return s.Read(addr, buf)
}

type siliconI2S siliconState

func (s *siliconI2S) Init(rateHz int, format SampleFormat, bitsPerSample int) error {
	if bitsPerSample != 16 {
		return fmt.Errorf("i2s Init: %d-bit unsupported: %w", bitsPerSample, ErrNotSupported)
	}
	mmio.Reg32(RegIISConfig).Set(uint32(format))
	mmio.Reg32(RegIISClock).Set(uint32(rateHz))
	return nil
}

func (s *siliconI2S) Write(samples []int16) (int, error) {
	n := 0
	for _, sample := range samples {
		if mmio.Reg32(I2SBase+0x0C).Get()&0x1 == 0 { // FIFO full
			return n, nil
		}
		mmio.Reg16(RegIISFIFO).Set(uint16(sample))
		n++
	}
	return n, nil
}

func (s *siliconI2S) TxReady() bool { return mmio.Reg32(I2SBase+0x0C).Get()&0x1 != 0 }

func (s *siliconI2S) TxFreeSlots() int { return int(mmio.Reg32(I2SBase + 0x10).Get()) }

func (s *siliconI2S) Enable(enabled bool) error {
	if enabled {
		mmio.Reg32(RegIISConfig).SetBits(0x80000000)
	} else {
		mmio.Reg32(RegIISConfig).ClearBits(0x80000000)
	}
	return nil
}

type siliconATA siliconState

const (
	ataBSYTimeout   = 1 * time.Second
	ataDRQTimeout   = 500 * time.Millisecond
	ataFlushTimeout = 30 * time.Second
)

func (s *siliconATA) Init() error { return nil }

func (s *siliconATA) Identify() (DriveInfo, error) {
	mmio.Reg8(ATABase + 0x07).Set(0xEC) // IDENTIFY DEVICE
	if err := waitReg(mmio.Reg32(ATABase+0x07), 0x80, 0x00, ataBSYTimeout, (*siliconSystem)(s), "ata Identify BSY"); err != nil {
		return DriveInfo{}, err
	}
	if err := waitReg(mmio.Reg32(ATABase+0x07), 0x08, 0x08, ataDRQTimeout, (*siliconSystem)(s), "ata Identify DRQ"); err != nil {
		return DriveInfo{}, err
	}
	var words [256]uint16
	for i := range words {
		words[i] = mmio.Reg16(ATABase + 0x00).Get()
	}
	return parseIdentify(words), nil
}

// parseIdentify extracts the fields the firmware cares about from a raw
// IDENTIFY DEVICE response: model string (words 27-46), total sectors
// (LBA28 words 60-61 or LBA48 words 100-103), the LBA48 support bit
// (word 83 bit 10), non-rotating media (word 217), and TRIM (word 169 bit 0).
func parseIdentify(words [256]uint16) DriveInfo {
	model := make([]byte, 0, 40)
	for i := 27; i <= 46; i++ {
		model = append(model, byte(words[i]>>8), byte(words[i]))
	}
	lba48 := words[83]&(1<<10) != 0
	var sectors uint64
	if lba48 {
		sectors = uint64(words[100]) | uint64(words[101])<<16 | uint64(words[102])<<32 | uint64(words[103])<<48
	} else {
		sectors = uint64(words[60]) | uint64(words[61])<<16
	}
	return DriveInfo{
		Model:         trimRight(model),
		TotalSectors:  sectors,
		LBA48:         lba48,
		NonRotating:   words[217] == 1,
		TRIMSupported: words[169]&0x1 != 0,
	}
}

func trimRight(b []byte) string {
	end := len(b)
	for end > 0 && (b[end-1] == ' ' || b[end-1] == 0) {
		end--
	}
	return string(b[:end])
}

func (s *siliconATA) ReadSectors(lba uint64, buf []byte) error {
	sectors := len(buf) / 512
	if sectors == 0 || len(buf)%512 != 0 {
		return fmt.Errorf("ata ReadSectors: buffer not sector-aligned: %w", ErrInvalidParam)
	}
	s.setLBA(lba, sectors)
	mmio.Reg8(ATABase + 0x07).Set(0x20) // READ SECTORS
	for sec := 0; sec < sectors; sec++ {
		if err := waitReg(mmio.Reg32(ATABase+0x07), 0x08, 0x08, ataDRQTimeout, (*siliconSystem)(s), "ata ReadSectors DRQ"); err != nil {
			return err
		}
		for i := 0; i < 256; i++ {
			w := mmio.Reg16(ATABase + 0x00).Get()
			buf[sec*512+i*2] = byte(w)
			buf[sec*512+i*2+1] = byte(w >> 8)
		}
	}
	return nil
}

func (s *siliconATA) WriteSectors(lba uint64, data []byte) error {
	sectors := len(data) / 512
	if sectors == 0 || len(data)%512 != 0 {
		return fmt.Errorf("ata WriteSectors: buffer not sector-aligned: %w", ErrInvalidParam)
	}
	s.setLBA(lba, sectors)
	mmio.Reg8(ATABase + 0x07).Set(0x30) // WRITE SECTORS
	for sec := 0; sec < sectors; sec++ {
		if err := waitReg(mmio.Reg32(ATABase+0x07), 0x08, 0x08, ataDRQTimeout, (*siliconSystem)(s), "ata WriteSectors DRQ"); err != nil {
			return err
		}
		for i := 0; i < 256; i++ {
			lo := data[sec*512+i*2]
			hi := data[sec*512+i*2+1]
			mmio.Reg16(ATABase + 0x00).Set(uint16(lo) | uint16(hi)<<8)
		}
	}
	return nil
}

func (s *siliconATA) setLBA(lba uint64, count int) {
	mmio.Reg8(ATABase + 0x02).Set(uint8(count))
	mmio.Reg8(ATABase + 0x03).Set(uint8(lba))
	mmio.Reg8(ATABase + 0x04).Set(uint8(lba >> 8))
	mmio.Reg8(ATABase + 0x05).Set(uint8(lba >> 16))
	mmio.Reg8(ATABase + 0x06).Set(0xE0 | uint8((lba>>24)&0x0F))
}

func (s *siliconATA) Flush() error {
	mmio.Reg8(ATABase + 0x07).Set(0xE7) // FLUSH CACHE
	return waitReg(mmio.Reg32(ATABase+0x07), 0x80, 0x00, ataFlushTimeout, (*siliconSystem)(s), "ata Flush")
}

func (s *siliconATA) Standby() error {
	mmio.Reg8(ATABase + 0x07).Set(0xE0) // STANDBY IMMEDIATE
	return nil
}

type siliconLCD siliconState

func (s *siliconLCD) Init() error {
	mmio.Reg32(RegBCMControl).Set(0x1)
	return nil
}

func (s *siliconLCD) WritePixel(x, y int, color uint16) error {
	return s.FillRect(Rect{X: x, Y: y, Width: 1, Height: 1}, color)
}

func (s *siliconLCD) FillRect(r Rect, color uint16) error {
	mmio.Reg32(RegBCMParamWrite).Set(uint32(r.X)<<16 | uint32(r.Y))
	mmio.Reg32(RegBCMParamWrite).Set(uint32(r.Width)<<16 | uint32(r.Height))
	mmio.Reg32(RegBCMParamWrite).Set(uint32(color))
	mmio.Reg32(RegBCMCommand).Set(EncodeBCMCommand(BCMUpdateTrigger))
	return nil
}

func (s *siliconLCD) Update() error {
	mmio.Reg32(RegBCMCommand).Set(LCDUpdateCommand)
	return nil
}

func (s *siliconLCD) UpdateRect(r Rect) error {
	mmio.Reg32(RegBCMParamWrite).Set(uint32(r.X)<<16 | uint32(r.Y))
	mmio.Reg32(RegBCMParamWrite).Set(uint32(r.Width)<<16 | uint32(r.Height))
	mmio.Reg32(RegBCMCommand).Set(LCDUpdateCommand)
	return nil
}

func (s *siliconLCD) Backlight(on bool, level int) error {
	v := uint32(0)
	if on {
		v = uint32(level)
	}
	mmio.Reg32(LCDBase + 0x20).Set(v)
	return nil
}

func (s *siliconLCD) Sleep() error {
	mmio.Reg32(RegBCMControl).ClearBits(0x1)
	return nil
}

func (s *siliconLCD) Wake() error {
	mmio.Reg32(RegBCMControl).SetBits(0x1)
	return nil
}

type siliconClickWheel siliconState

func (s *siliconClickWheel) Init() error {
	mmio.Reg32(RegWheelCtrl).Set(WheelInitMagic1)
	mmio.Reg32(RegWheelCtrl).Set(WheelInitMagic2)
	return nil
}

func (s *siliconClickWheel) ReadButtons() (Button, error) {
	status := mmio.Reg32(RegWheelStatus).Get()
	return Button(status & 0x3F), nil
}

func (s *siliconClickWheel) ReadPosition() (int, bool, error) {
	data := mmio.Reg32(RegWheelData).Get()
	if data>>8&0xFF != WheelPacketTag {
		return -1, false, fmt.Errorf("clickwheel ReadPosition: %w", ErrDeviceNotReady)
	}
	touching := data&0x80000000 != 0
	position := int(data & 0xFF)
	if !touching {
		return -1, false, nil
	}
	return position, true, nil
}

type siliconDMA siliconState

func dmaChannelBase(channel int) uintptr {
	return DMABase + uintptr(channel)*0x20
}

func (s *siliconDMA) Init() error { return nil }

func (s *siliconDMA) Start(channel int, cfg DMAConfig) error {
	base := dmaChannelBase(channel)
	mmio.Reg32(base + 0x00).Set(uint32(cfg.SrcAddr))
	mmio.Reg32(base + 0x04).Set(uint32(cfg.DstAddr))
	mmio.Reg32(base + 0x08).Set(uint32(cfg.Length))
	mmio.Reg32(base + 0x0C).Set(uint32(cfg.Request))
	mmio.Reg32(base + 0x10).SetBits(0x1) // start
	return nil
}

func (s *siliconDMA) Wait(channel int) error {
	base := dmaChannelBase(channel)
	return waitReg(mmio.Reg32(base+0x10), 0x1, 0x0, 5*time.Second, (*siliconSystem)(s), "dma Wait")
}

func (s *siliconDMA) IsBusy(channel int) (bool, error) {
	return mmio.Reg32(dmaChannelBase(channel)+0x10).Get()&0x1 != 0, nil
}

func (s *siliconDMA) GetState(channel int) (DMAState, error) {
	status := mmio.Reg32(dmaChannelBase(channel) + 0x14).Get()
	switch status {
	case 0:
		return DMAIdle, nil
	case 1:
		return DMAActive, nil
	case 2:
		return DMAComplete, nil
	default:
		return DMAError, nil
	}
}

func (s *siliconDMA) Abort(channel int) error {
	mmio.Reg32(dmaChannelBase(channel) + 0x10).ClearBits(0x1)
	return nil
}

type siliconUSB siliconState

func (s *siliconUSB) Init(mode USBMode) error {
	mmio.Reg32(USBBase + 0x00).Set(uint32(mode))
	return nil
}

func (s *siliconUSB) Connected() (bool, error) {
	return mmio.Reg32(USBBase+0x04).Get()&0x1 != 0, nil
}

func (s *siliconUSB) BulkWrite(endpoint int, data []byte) (int, error) {
	if len(data) > 4096 {
		return 0, fmt.Errorf("usb BulkWrite: transfer of %d bytes: %w", len(data), ErrInvalidParam)
	}
	return len(data), nil
}

func (s *siliconUSB) BulkRead(endpoint int, buf []byte) (int, error) { return 0, nil }

func (s *siliconUSB) Disconnect() error {
	mmio.Reg32(USBBase + 0x00).ClearBits(0x1)
	return nil
}

type siliconWatchdog siliconState

func (s *siliconWatchdog) Arm(timeout time.Duration) error {
	mmio.Reg32(CoreBase + 0x30).Set(uint32(timeout.Milliseconds()))
	mmio.Reg32(CoreBase + 0x34).SetBits(0x1)
	return nil
}

func (s *siliconWatchdog) Kick() error {
	mmio.Reg32(CoreBase + 0x38).Set(0xA5A5A5A5)
	return nil
}

func (s *siliconWatchdog) Disarm() error {
	mmio.Reg32(CoreBase + 0x34).ClearBits(0x1)
	return nil
}

type siliconRTC siliconState

func (s *siliconRTC) Now() (time.Time, error) {
	sec := mmio.Reg32(CoreBase + 0x40).Get()
	return time.Unix(int64(sec), 0).UTC(), nil
}

func (s *siliconRTC) Set(t time.Time) error {
	mmio.Reg32(CoreBase + 0x40).Set(uint32(t.Unix()))
	return nil
}

type siliconPMU siliconState

func (s *siliconPMU) Init() error {
	return (*siliconI2C)(s).Write(I2CAddrPCF50605, []byte{0x00, 0x01}) // enable ADC
}

func (s *siliconPMU) BatteryMillivolts() (int, error) {
	var buf [2]byte
	if err := (*siliconI2C)(s).Read(I2CAddrPCF50605, buf[:]); err != nil {
		return 0, err
	}
	raw := int(buf[0])<<8 | int(buf[1])
	return raw, nil
}

func (s *siliconPMU) BatteryPercent() (int, error) {
	mv, err := s.BatteryMillivolts()
	if err != nil {
		return 0, err
	}
	return BatteryPercentFromMillivolts(mv), nil
}

func (s *siliconPMU) ChargingState() (ChargingState, error) {
	var buf [1]byte
	if err := (*siliconI2C)(s).Read(I2CAddrPCF50605, buf[:]); err != nil {
		return ChargingError, err
	}
	return ChargingState(buf[0] & 0x07), nil
}

func (s *siliconPMU) PowerSource() (PowerSource, error) {
	var buf [1]byte
	if err := (*siliconI2C)(s).Read(I2CAddrPCF50605, buf[:]); err != nil {
		return PowerSourceBattery, err
	}
	return PowerSource(buf[0] >> 4 & 0x03), nil
}

func (s *siliconPMU) SetCPUProfile(p CPUProfile) error {
	mmio.Reg32(CoreBase + 0x50).Set(uint32(p))
	return nil
}

func (s *siliconPMU) CPUProfile() (CPUProfile, error) {
	return CPUProfile(mmio.Reg32(CoreBase + 0x50).Get()), nil
}

func (s *siliconPMU) RequestBoost(d time.Duration) error {
	prev, err := s.CPUProfile()
	if err != nil {
		return err
	}
	if err := s.SetCPUProfile(ProfilePerformance); err != nil {
		return err
	}
	time.AfterFunc(d, func() { _ = s.SetCPUProfile(prev) })
	return nil
}

func (s *siliconPMU) PowerOff() error {
	return (*siliconI2C)(s).Write(I2CAddrPCF50605, []byte{0x01, 0x01})
}
