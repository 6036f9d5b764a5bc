package hal

import (
	"testing"
	"time"
)

func TestBatteryPercentFromMillivoltsKnotsMatchSpec(t *testing.T) {
	cases := []struct {
		mv      int
		percent int
	}{
		{4200, 100},
		{3900, 80},
		{3700, 50},
		{3400, 10},
		{3000, 0},
		{4500, 100}, // clamps above the top knot
		{2000, 0},   // clamps below the bottom knot
	}
	for _, c := range cases {
		if got := BatteryPercentFromMillivolts(c.mv); got != c.percent {
			t.Errorf("BatteryPercentFromMillivolts(%d) = %d, want %d", c.mv, got, c.percent)
		}
	}
}

func TestBatteryPercentFromMillivoltsInterpolates(t *testing.T) {
	got := BatteryPercentFromMillivolts(3800) // halfway between 3700/50 and 3900/80
	if got != 65 {
		t.Fatalf("expected interpolated 65, got %d", got)
	}
}

func TestEncodeBCMCommand(t *testing.T) {
	got := EncodeBCMCommand(BCMUpdateTrigger)
	want := (uint32(^uint16(BCMUpdateTrigger)) << 16) | uint32(BCMUpdateTrigger)
	if got != want {
		t.Fatalf("EncodeBCMCommand(0x%X) = 0x%X, want 0x%X", BCMUpdateTrigger, got, want)
	}
}

func TestMockGPIORoundTrip(t *testing.T) {
	m := NewMock().HAL()
	if err := m.GPIO.SetDirection(3, 5, DirectionOutput); err != nil {
		t.Fatalf("SetDirection: %v", err)
	}
	if err := m.GPIO.Write(3, 5, true); err != nil {
		t.Fatalf("Write: %v", err)
	}
	high, err := m.GPIO.Read(3, 5)
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if !high {
		t.Fatal("expected pin to read high after Write(true)")
	}
}

func TestMockI2CScriptedRead(t *testing.T) {
	m := NewMock()
	m.ScriptI2CRead(I2CAddrWM8758, []byte{0xAB, 0xCD})
	h := m.HAL()
	buf := make([]byte, 2)
	if err := h.I2C.Read(I2CAddrWM8758, buf); err != nil {
		t.Fatalf("Read: %v", err)
	}
	if buf[0] != 0xAB || buf[1] != 0xCD {
		t.Fatalf("unexpected scripted read: %v", buf)
	}
}

func TestMockATASectorRoundTrip(t *testing.T) {
	h := NewMock().HAL()
	var sector [512]byte
	for i := range sector {
		sector[i] = byte(i)
	}
	if err := h.ATA.WriteSectors(100, sector[:]); err != nil {
		t.Fatalf("WriteSectors: %v", err)
	}
	buf := make([]byte, 512)
	if err := h.ATA.ReadSectors(100, buf); err != nil {
		t.Fatalf("ReadSectors: %v", err)
	}
	if buf[10] != sector[10] {
		t.Fatalf("sector round trip mismatch at offset 10")
	}
}

func TestMockWatchdogArmDisarm(t *testing.T) {
	m := NewMock()
	h := m.HAL()
	if m.WatchdogArmed() {
		t.Fatal("expected watchdog disarmed initially")
	}
	if err := h.Watchdog.Arm(30 * time.Second); err != nil {
		t.Fatalf("Arm: %v", err)
	}
	if !m.WatchdogArmed() {
		t.Fatal("expected watchdog armed after Arm")
	}
	if err := h.Watchdog.Disarm(); err != nil {
		t.Fatalf("Disarm: %v", err)
	}
	if m.WatchdogArmed() {
		t.Fatal("expected watchdog disarmed after Disarm")
	}
}

func TestMockPMUBatteryPercent(t *testing.T) {
	m := NewMock()
	m.ScriptBattery(3700)
	h := m.HAL()
	pct, err := h.PMU.BatteryPercent()
	if err != nil {
		t.Fatalf("BatteryPercent: %v", err)
	}
	if pct != 50 {
		t.Fatalf("BatteryPercent() = %d, want 50", pct)
	}
}
