package cpumode

import "testing"

func TestNewContextStartsInSupervisorWithInterruptsMasked(t *testing.T) {
	c := NewContext()
	if c.Mode() != ModeSupervisor {
		t.Fatalf("Mode() = %v, want Supervisor", c.Mode())
	}
	if c.CPSR()&(1<<7) == 0 {
		t.Fatal("expected IRQ masked at reset")
	}
	if c.CPSR()&(1<<6) == 0 {
		t.Fatal("expected FIQ masked at reset")
	}
}

func TestEnterModeBanksSPAndLRSeparately(t *testing.T) {
	c := NewContext()
	c.EnterMode(ModeIRQ, 0x1000, 0x2000)
	if c.SP() != 0x1000 || c.LR() != 0x2000 {
		t.Fatalf("IRQ bank SP/LR = %#x/%#x, want 0x1000/0x2000", c.SP(), c.LR())
	}

	c.EnterMode(ModeFIQ, 0x3000, 0x4000)
	if c.SP() != 0x3000 || c.LR() != 0x4000 {
		t.Fatalf("FIQ bank SP/LR = %#x/%#x, want 0x3000/0x4000", c.SP(), c.LR())
	}

	// Returning from FIQ to IRQ must still see the bank IRQ had before,
	// unclobbered by the intervening FIQ entry.
	c.Return()
	if c.SP() != 0x1000 || c.LR() != 0x2000 {
		t.Fatalf("IRQ bank not preserved across FIQ entry: SP/LR = %#x/%#x", c.SP(), c.LR())
	}
}

func TestEnterModeSavesOldCPSRToTargetSPSR(t *testing.T) {
	c := NewContext()
	beforeCPSR := c.CPSR()
	c.EnterMode(ModeAbort, 0x5000, 0x6000)
	if c.SPSR() != beforeCPSR {
		t.Fatalf("SPSR() = %#x, want old CPSR %#x", c.SPSR(), beforeCPSR)
	}
}

func TestReturnRestoresPriorModeAndCPSR(t *testing.T) {
	c := NewContext()
	beforeCPSR := c.CPSR()
	c.EnterMode(ModeUndefined, 0x7000, 0x8000)
	c.Return()
	if c.Mode() != ModeSupervisor {
		t.Fatalf("Mode() after Return() = %v, want Supervisor", c.Mode())
	}
	if c.CPSR() != beforeCPSR {
		t.Fatalf("CPSR() after Return() = %#x, want %#x", c.CPSR(), beforeCPSR)
	}
}

func TestFIQBanksR8ThroughR12(t *testing.T) {
	c := NewContext()
	for n := 8; n <= 12; n++ {
		c.SetR(n, uint32(n*10))
	}
	c.EnterMode(ModeFIQ, 0, 0)
	for n := 8; n <= 12; n++ {
		c.SetR(n, uint32(n*100))
	}
	c.EnterMode(ModeSupervisor, 0, 0)
	for n := 8; n <= 12; n++ {
		if got := c.R(n); got != uint32(n*10) {
			t.Fatalf("R(%d) after leaving FIQ = %d, want %d (User bank unclobbered)", n, got, n*10)
		}
	}
}

func TestRegistersOutsideR8To12UnaffectedByFIQBank(t *testing.T) {
	c := NewContext()
	c.SetR(0, 111)
	c.EnterMode(ModeFIQ, 0, 0)
	if c.R(0) != 111 {
		t.Fatalf("R(0) changed across FIQ entry: got %d, want 111", c.R(0))
	}
}
