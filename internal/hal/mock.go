package hal

import (
	"sync"
	"time"
)

// Mock is a host-test HAL backend: every capability reads and updates
// scripted in-memory state, so that components built against the hal.*
// interfaces can be exercised deterministically off target hardware. Only
// System.Init, System.Sleep, System.Reset and PMU.PowerOff are recorded
// in Calls; the other capabilities record nothing. It
// never touches mmio and is safe to construct in any test binary.
//
// Several capabilities share a method name with a different signature
// (System.Sleep vs LCD.Sleep, System.Init vs ATA.Init, ...), so Mock itself
// only holds state; HAL() wires up one small adapter type per capability
// that forwards into the shared state under the interface's exact shape.
type Mock struct {
	mu sync.Mutex

	ticksUS uint64

	gpioDir map[[2]int]Direction
	gpioVal map[[2]int]bool
	gpioIRQ map[[2]int]func()

	i2cWrites   [][]byte
	i2cReadData map[uint8][]byte

	i2sSamples  []int16
	i2sEnabled  bool
	i2sFreeSlot int

	ataInfo    DriveInfo
	ataSectors map[uint64][512]byte

	lcdPixels map[[2]int]uint16
	lcdAwake  bool

	wheelButtons  Button
	wheelPosition int
	wheelTouching bool

	dmaState map[int]DMAState

	usbConnected bool

	watchdogArmed bool

	rtcNow time.Time

	batteryMV     int
	chargingState ChargingState
	powerSource   PowerSource
	cpuProfile    CPUProfile

	calls []string
}

// NewMock returns a Mock with sane defaults: battery full, RTC at the
// zero time, CPU profile Balanced, no devices touching.
func NewMock() *Mock {
	return &Mock{
		gpioDir:       make(map[[2]int]Direction),
		gpioVal:       make(map[[2]int]bool),
		gpioIRQ:       make(map[[2]int]func()),
		i2cReadData:   make(map[uint8][]byte),
		ataSectors:    make(map[uint64][512]byte),
		lcdPixels:     make(map[[2]int]uint16),
		dmaState:      make(map[int]DMAState),
		wheelPosition: -1,
		batteryMV:     4200,
		cpuProfile:    ProfileBalanced,
	}
}

// HAL wires this Mock's state into one adapter per capability and returns
// the assembled surface, ready to hand to any component under test.
func (m *Mock) HAL() *HAL {
	return &HAL{
		System:     (*mockSystem)(m),
		GPIO:       (*mockGPIO)(m),
		I2C:        (*mockI2C)(m),
		I2S:        (*mockI2S)(m),
		ATA:        (*mockATA)(m),
		LCD:        (*mockLCD)(m),
		ClickWheel: (*mockClickWheel)(m),
		DMA:        (*mockDMA)(m),
		USB:        (*mockUSB)(m),
		Watchdog:   (*mockWatchdog)(m),
		RTC:        (*mockRTC)(m),
		PMU:        (*mockPMU)(m),
	}
}

func (m *Mock) record(call string) {
	m.calls = append(m.calls, call)
}

// Calls returns every call recorded so far, in order.
func (m *Mock) Calls() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, len(m.calls))
	copy(out, m.calls)
	return out
}

// ScriptGPIO seeds the value Read(port, pin) will return.
func (m *Mock) ScriptGPIO(port, pin int, high bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.gpioVal[[2]int{port, pin}] = high
}

// ScriptI2CRead seeds the bytes a subsequent Read/WriteRead from addr returns.
func (m *Mock) ScriptI2CRead(addr uint8, data []byte) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.i2cReadData[addr] = data
}

// I2CWrites returns every payload written so far, across all addresses.
func (m *Mock) I2CWrites() [][]byte {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([][]byte, len(m.i2cWrites))
	copy(out, m.i2cWrites)
	return out
}

// I2SSamples returns every sample handed to I2S.Write so far.
func (m *Mock) I2SSamples() []int16 {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]int16, len(m.i2sSamples))
	copy(out, m.i2sSamples)
	return out
}

// ScriptIdentify seeds the response ATA.Identify returns.
func (m *Mock) ScriptIdentify(info DriveInfo) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ataInfo = info
}

// ScriptSector seeds the 512 bytes at lba for a subsequent ReadSectors.
func (m *Mock) ScriptSector(lba uint64, data [512]byte) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ataSectors[lba] = data
}

// PixelAt returns the color last written to (x, y), for test assertions.
func (m *Mock) PixelAt(x, y int) uint16 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.lcdPixels[[2]int{x, y}]
}

// ScriptWheel seeds the next ReadButtons/ReadPosition responses.
func (m *Mock) ScriptWheel(buttons Button, position int, touching bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.wheelButtons = buttons
	m.wheelPosition = position
	m.wheelTouching = touching
}

// ScriptUSBConnected sets whether USB.Connected reports attached.
func (m *Mock) ScriptUSBConnected(connected bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.usbConnected = connected
}

// WatchdogArmed reports whether Arm has been called without a matching Disarm.
func (m *Mock) WatchdogArmed() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.watchdogArmed
}

// ScriptBattery seeds the millivolt reading BatteryMillivolts/BatteryPercent derive from.
func (m *Mock) ScriptBattery(mv int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.batteryMV = mv
}

// ScriptChargingState seeds the next PMU.ChargingState response.
func (m *Mock) ScriptChargingState(s ChargingState) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.chargingState = s
}

// ScriptPowerSource seeds the next PMU.PowerSource response.
func (m *Mock) ScriptPowerSource(s PowerSource) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.powerSource = s
}

// --- per-capability adapters; each is a distinct named type over *Mock so
// method sets never collide, yet all share the one locked state block. ---

type mockSystem Mock

func (a *mockSystem) m() *Mock { return (*Mock)(a) }

func (a *mockSystem) Init() error {
	m := a.m()
	m.mu.Lock()
	defer m.mu.Unlock()
	m.record("system.Init")
	return nil
}

func (a *mockSystem) DelayUS(d time.Duration) {
	m := a.m()
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ticksUS += uint64(d.Microseconds())
}

func (a *mockSystem) DelayMS(d time.Duration) { a.DelayUS(d) }

func (a *mockSystem) GetTicksUS() uint64 {
	m := a.m()
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.ticksUS
}

func (a *mockSystem) Sleep() {
	m := a.m()
	m.mu.Lock()
	defer m.mu.Unlock()
	m.record("system.Sleep")
}

func (a *mockSystem) Reset() {
	m := a.m()
	m.mu.Lock()
	defer m.mu.Unlock()
	m.record("system.Reset")
}

// AdvanceTicks lets a test move the simulated clock forward without an
// actual sleep, for exercising timeout logic deterministically.
func (m *Mock) AdvanceTicks(us uint64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ticksUS += us
}

type mockGPIO Mock

func (a *mockGPIO) m() *Mock { return (*Mock)(a) }

func (a *mockGPIO) SetDirection(port, pin int, dir Direction) error {
	m := a.m()
	m.mu.Lock()
	defer m.mu.Unlock()
	m.gpioDir[[2]int{port, pin}] = dir
	return nil
}

func (a *mockGPIO) Read(port, pin int) (bool, error) {
	m := a.m()
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.gpioVal[[2]int{port, pin}], nil
}

func (a *mockGPIO) Write(port, pin int, high bool) error {
	m := a.m()
	m.mu.Lock()
	defer m.mu.Unlock()
	m.gpioVal[[2]int{port, pin}] = high
	if fn := m.gpioIRQ[[2]int{port, pin}]; fn != nil {
		fn()
	}
	return nil
}

func (a *mockGPIO) SetInterrupt(port, pin int, edge Edge, handler func()) error {
	m := a.m()
	m.mu.Lock()
	defer m.mu.Unlock()
	m.gpioIRQ[[2]int{port, pin}] = handler
	return nil
}

type mockI2C Mock

func (a *mockI2C) m() *Mock { return (*Mock)(a) }

func (a *mockI2C) Init() error { return nil }

func (a *mockI2C) Write(addr uint8, data []byte) error {
	if len(data) > 4 {
		return ErrInvalidParam
	}
	m := a.m()
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := make([]byte, len(data))
	copy(cp, data)
	m.i2cWrites = append(m.i2cWrites, cp)
	return nil
}

func (a *mockI2C) Read(addr uint8, buf []byte) error {
	if len(buf) > 4 {
		return ErrInvalidParam
	}
	m := a.m()
	m.mu.Lock()
	defer m.mu.Unlock()
	copy(buf, m.i2cReadData[addr])
	return nil
}

func (a *mockI2C) WriteRead(addr uint8, data []byte, buf []byte) error {
	if err := a.Write(addr, data); err != nil {
		return err
	}
	return a.Read(addr, buf)
}

type mockI2S Mock

func (a *mockI2S) m() *Mock { return (*Mock)(a) }

func (a *mockI2S) Init(rateHz int, format SampleFormat, bitsPerSample int) error { return nil }

func (a *mockI2S) Write(samples []int16) (int, error) {
	m := a.m()
	m.mu.Lock()
	defer m.mu.Unlock()
	m.i2sSamples = append(m.i2sSamples, samples...)
	return len(samples), nil
}

func (a *mockI2S) TxReady() bool { return true }

func (a *mockI2S) TxFreeSlots() int {
	m := a.m()
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.i2sFreeSlot == 0 {
		return 4096
	}
	return m.i2sFreeSlot
}

func (a *mockI2S) Enable(enabled bool) error {
	m := a.m()
	m.mu.Lock()
	defer m.mu.Unlock()
	m.i2sEnabled = enabled
	return nil
}

type mockATA Mock

func (a *mockATA) m() *Mock { return (*Mock)(a) }

func (a *mockATA) Init() error { return nil }

func (a *mockATA) Identify() (DriveInfo, error) {
	m := a.m()
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.ataInfo, nil
}

func (a *mockATA) ReadSectors(lba uint64, buf []byte) error {
	m := a.m()
	m.mu.Lock()
	defer m.mu.Unlock()
	sectors := len(buf) / 512
	for i := 0; i < sectors; i++ {
		sec := m.ataSectors[lba+uint64(i)]
		copy(buf[i*512:(i+1)*512], sec[:])
	}
	return nil
}

func (a *mockATA) WriteSectors(lba uint64, data []byte) error {
	m := a.m()
	m.mu.Lock()
	defer m.mu.Unlock()
	sectors := len(data) / 512
	for i := 0; i < sectors; i++ {
		var sec [512]byte
		copy(sec[:], data[i*512:(i+1)*512])
		m.ataSectors[lba+uint64(i)] = sec
	}
	return nil
}

func (a *mockATA) Flush() error   { return nil }
func (a *mockATA) Standby() error { return nil }

type mockLCD Mock

func (a *mockLCD) m() *Mock { return (*Mock)(a) }

func (a *mockLCD) Init() error { return nil }

func (a *mockLCD) WritePixel(x, y int, color uint16) error {
	m := a.m()
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lcdPixels[[2]int{x, y}] = color
	return nil
}

func (a *mockLCD) FillRect(r Rect, color uint16) error {
	m := a.m()
	m.mu.Lock()
	defer m.mu.Unlock()
	for y := r.Y; y < r.Y+r.Height; y++ {
		for x := r.X; x < r.X+r.Width; x++ {
			m.lcdPixels[[2]int{x, y}] = color
		}
	}
	return nil
}

func (a *mockLCD) Update() error                     { return nil }
func (a *mockLCD) UpdateRect(r Rect) error            { return nil }
func (a *mockLCD) Backlight(on bool, level int) error { return nil }

func (a *mockLCD) Sleep() error {
	m := a.m()
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lcdAwake = false
	return nil
}

func (a *mockLCD) Wake() error {
	m := a.m()
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lcdAwake = true
	return nil
}

type mockClickWheel Mock

func (a *mockClickWheel) m() *Mock { return (*Mock)(a) }

func (a *mockClickWheel) Init() error { return nil }

func (a *mockClickWheel) ReadButtons() (Button, error) {
	m := a.m()
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.wheelButtons, nil
}

func (a *mockClickWheel) ReadPosition() (int, bool, error) {
	m := a.m()
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.wheelPosition, m.wheelTouching, nil
}

type mockDMA Mock

func (a *mockDMA) m() *Mock { return (*Mock)(a) }

func (a *mockDMA) Init() error { return nil }

func (a *mockDMA) Start(channel int, cfg DMAConfig) error {
	m := a.m()
	m.mu.Lock()
	defer m.mu.Unlock()
	m.dmaState[channel] = DMAComplete
	return nil
}

func (a *mockDMA) Wait(channel int) error { return nil }

func (a *mockDMA) IsBusy(channel int) (bool, error) {
	m := a.m()
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.dmaState[channel] == DMAActive, nil
}

func (a *mockDMA) GetState(channel int) (DMAState, error) {
	m := a.m()
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.dmaState[channel], nil
}

func (a *mockDMA) Abort(channel int) error {
	m := a.m()
	m.mu.Lock()
	defer m.mu.Unlock()
	m.dmaState[channel] = DMAIdle
	return nil
}

type mockUSB Mock

func (a *mockUSB) m() *Mock { return (*Mock)(a) }

func (a *mockUSB) Init(mode USBMode) error { return nil }

func (a *mockUSB) Connected() (bool, error) {
	m := a.m()
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.usbConnected, nil
}

func (a *mockUSB) BulkWrite(endpoint int, data []byte) (int, error) { return len(data), nil }
func (a *mockUSB) BulkRead(endpoint int, buf []byte) (int, error)   { return 0, nil }
func (a *mockUSB) Disconnect() error                                { return nil }

type mockWatchdog Mock

func (a *mockWatchdog) m() *Mock { return (*Mock)(a) }

func (a *mockWatchdog) Arm(timeout time.Duration) error {
	m := a.m()
	m.mu.Lock()
	defer m.mu.Unlock()
	m.watchdogArmed = true
	return nil
}

func (a *mockWatchdog) Kick() error { return nil }

func (a *mockWatchdog) Disarm() error {
	m := a.m()
	m.mu.Lock()
	defer m.mu.Unlock()
	m.watchdogArmed = false
	return nil
}

type mockRTC Mock

func (a *mockRTC) m() *Mock { return (*Mock)(a) }

func (a *mockRTC) Now() (time.Time, error) {
	m := a.m()
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.rtcNow, nil
}

func (a *mockRTC) Set(t time.Time) error {
	m := a.m()
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rtcNow = t
	return nil
}

type mockPMU Mock

func (a *mockPMU) m() *Mock { return (*Mock)(a) }

func (a *mockPMU) Init() error { return nil }

func (a *mockPMU) BatteryMillivolts() (int, error) {
	m := a.m()
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.batteryMV, nil
}

func (a *mockPMU) BatteryPercent() (int, error) {
	mv, _ := a.BatteryMillivolts()
	return BatteryPercentFromMillivolts(mv), nil
}

func (a *mockPMU) ChargingState() (ChargingState, error) {
	m := a.m()
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.chargingState, nil
}

func (a *mockPMU) PowerSource() (PowerSource, error) {
	m := a.m()
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.powerSource, nil
}

func (a *mockPMU) SetCPUProfile(p CPUProfile) error {
	m := a.m()
	m.mu.Lock()
	defer m.mu.Unlock()
	m.cpuProfile = p
	return nil
}

func (a *mockPMU) CPUProfile() (CPUProfile, error) {
	m := a.m()
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.cpuProfile, nil
}

// RequestBoost leaves the CPU profile unchanged: the mock models no boost
// window and never switches to ProfilePerformance on its own.
func (a *mockPMU) RequestBoost(d time.Duration) error { return nil }

func (a *mockPMU) PowerOff() error {
	m := a.m()
	m.mu.Lock()
	defer m.mu.Unlock()
	m.record("pmu.PowerOff")
	return nil
}
