package bootrom

import (
	"time"

	"zigpod/internal/bootconfig"
	"zigpod/internal/hal"
)

// buttonPollInterval is both the granularity the click wheel is re-sampled
// at while timing a hold (so a release is noticed within one interval) and
// the "samples the wheel-button state for 200 ms" figure named in §4.2
// step 5 — the two reconcile by reading that figure as the poll interval
// a hold is timed against, not the whole override window.
const buttonPollInterval = 200 * time.Millisecond

// buttonCombo is one row of the power-on override table in §6.
type buttonCombo struct {
	mask   hal.Button
	hold   time.Duration
	target bootconfig.BootTarget
}

// buttonCombos is checked in order, so the Menu+Select combo (a superset
// of the plain Menu combo) is tried before Menu alone.
var buttonCombos = []buttonCombo{
	{hal.ButtonMenu | hal.ButtonSelect, 5 * time.Second, bootconfig.TargetRecovery},
	{hal.ButtonMenu, 2 * time.Second, bootconfig.TargetApple},
	{hal.ButtonPlay, 2 * time.Second, bootconfig.TargetDFU},
	{hal.ButtonSelect, 2 * time.Second, bootconfig.TargetSafe},
}

// sampleButtons reads the click wheel once and, if the initial state
// contains one of buttonCombos's required buttons, times whether it stays
// held for that combo's required duration. Returns TargetZigPod (no
// override) if nothing matches or a combo is released early.
func sampleButtons(cw hal.ClickWheel, sys hal.System) (bootconfig.BootTarget, error) {
	initial, err := cw.ReadButtons()
	if err != nil {
		return bootconfig.TargetZigPod, err
	}

	for _, combo := range buttonCombos {
		if initial&combo.mask != combo.mask {
			continue
		}
		held, err := heldFor(cw, sys, combo.mask, combo.hold)
		if err != nil {
			return bootconfig.TargetZigPod, err
		}
		if held {
			return combo.target, nil
		}
	}
	return bootconfig.TargetZigPod, nil
}

// heldFor polls cw every buttonPollInterval until duration has elapsed,
// reporting false the moment mask is no longer fully held.
func heldFor(cw hal.ClickWheel, sys hal.System, mask hal.Button, duration time.Duration) (bool, error) {
	deadline := sys.GetTicksUS() + uint64(duration.Microseconds())
	for sys.GetTicksUS() < deadline {
		sys.DelayUS(buttonPollInterval)
		cur, err := cw.ReadButtons()
		if err != nil {
			return false, err
		}
		if cur&mask != mask {
			return false, nil
		}
	}
	return true, nil
}
