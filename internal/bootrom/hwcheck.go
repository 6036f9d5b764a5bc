package bootrom

import "zigpod/internal/hal"

// minBatteryPercent is the pre-boot battery floor from §4.2 step 6.
const minBatteryPercent = 5

// walkingOnesRegionWords sizes the SDRAM self-test region; §4.2 only
// requires "on ≥1 region", so one region of this size stands in for the
// walking-ones pass a real bring-up would run across several SDRAM banks.
const walkingOnesRegionWords = 1024

// runHwChecks performs the three pre-boot checks named in §4.2 step 6:
// battery floor, an SDRAM walking-ones pass, and ATA IDENTIFY success. It
// returns failed=true and the name of the first check that fails
// ("battery", "sdram" or "ata"), or false and "" if all pass.
func runHwChecks(h *hal.HAL) (failed bool, reason string) {
	pct, err := h.PMU.BatteryPercent()
	if err != nil || pct < minBatteryPercent {
		return true, "battery"
	}
	if !walkingOnesTest(walkingOnesRegionWords) {
		return true, "sdram"
	}
	if _, err := h.ATA.Identify(); err != nil {
		return true, "ata"
	}
	return false, ""
}

// walkingOnesTest runs the classic single-bit-set-at-a-time memory test
// over a freshly allocated buffer of the given word count: write a lone 1
// bit at every position in turn, immediately read it back, and confirm no
// other bit was disturbed.
func walkingOnesTest(words int) bool {
	buf := make([]uint32, words)
	for i := range buf {
		for bit := 0; bit < 32; bit++ {
			want := uint32(1) << uint(bit)
			buf[i] = want
			if buf[i] != want {
				return false
			}
		}
		buf[i] = 0
	}
	return true
}
