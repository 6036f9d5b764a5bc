package power

import (
	"testing"
	"time"

	"zigpod/internal/hal"
)

func TestProfileForLoadBands(t *testing.T) {
	cases := []struct {
		load int
		want hal.CPUProfile
	}{
		{0, hal.ProfileUltralow},
		{1, hal.ProfilePowersave},
		{29, hal.ProfilePowersave},
		{30, hal.ProfileBalanced},
		{74, hal.ProfileBalanced},
		{75, hal.ProfilePerformance},
		{100, hal.ProfilePerformance},
	}
	for _, c := range cases {
		if got := ProfileForLoad(c.load); got != c.want {
			t.Errorf("ProfileForLoad(%d) = %v, want %v", c.load, got, c.want)
		}
	}
}

func TestUpdateLoadSwitchesProfile(t *testing.T) {
	m := hal.NewMock()
	mgr := NewManager(m.HAL().PMU, nil)

	if err := mgr.UpdateLoad(90); err != nil {
		t.Fatalf("UpdateLoad: %v", err)
	}
	got, _ := m.HAL().PMU.CPUProfile()
	if got != hal.ProfilePerformance {
		t.Fatalf("CPUProfile = %v, want ProfilePerformance", got)
	}

	if err := mgr.UpdateLoad(0); err != nil {
		t.Fatalf("UpdateLoad: %v", err)
	}
	got, _ = m.HAL().PMU.CPUProfile()
	if got != hal.ProfileUltralow {
		t.Fatalf("CPUProfile = %v, want ProfileUltralow", got)
	}
}

func TestRequestBoostSuppressesLoadDownshiftUntilItExpires(t *testing.T) {
	m := hal.NewMock()
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	mgr := NewManager(m.HAL().PMU, func() time.Time { return now })

	if err := mgr.UpdateLoad(90); err != nil {
		t.Fatalf("UpdateLoad: %v", err)
	}
	if err := mgr.RequestBoost(2 * time.Second); err != nil {
		t.Fatalf("RequestBoost: %v", err)
	}

	if err := mgr.UpdateLoad(0); err != nil {
		t.Fatalf("UpdateLoad: %v", err)
	}
	got, _ := m.HAL().PMU.CPUProfile()
	if got != hal.ProfilePerformance {
		t.Fatalf("CPUProfile during boost window = %v, want ProfilePerformance unchanged", got)
	}

	now = now.Add(3 * time.Second)
	if err := mgr.UpdateLoad(0); err != nil {
		t.Fatalf("UpdateLoad: %v", err)
	}
	got, _ = m.HAL().PMU.CPUProfile()
	if got != hal.ProfileUltralow {
		t.Fatalf("CPUProfile after boost window = %v, want ProfileUltralow", got)
	}
}

func TestStatusReadsBatteryAndChargingState(t *testing.T) {
	m := hal.NewMock()
	m.ScriptBattery(3700)
	m.ScriptChargingState(hal.ChargingFast)
	m.ScriptPowerSource(hal.PowerSourceUSB)
	mgr := NewManager(m.HAL().PMU, nil)

	st, err := mgr.Status()
	if err != nil {
		t.Fatalf("Status: %v", err)
	}
	if st.Millivolts != 3700 || st.Percent != 50 {
		t.Fatalf("Status = %+v, want mv=3700 percent=50", st)
	}
	if st.Charging != hal.ChargingFast || st.Source != hal.PowerSourceUSB {
		t.Fatalf("Status = %+v, want charging=Fast source=USB", st)
	}
}
