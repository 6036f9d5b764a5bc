// zigpod is the firmware entry point: wires hal.NewSilicon(), drives the
// boot stub/bootloader state machine in internal/bootrom, and on success
// falls into the frame-paced main loop. Adapted from the teacher's
// cmd/emulator, which wired a ROM path and an SDL2/Fyne UI onto the CPU
// core; this entry point wires an ATA disk and the PP5021C capability
// surface onto the boot pipeline instead, since there is no windowed
// display target here and the menu/UI shell is an out-of-scope external
// collaborator (see SPEC_FULL.md §1).
package main

import (
	"fmt"
	"os"

	"zigpod/internal/bootrom"
	"zigpod/internal/clock"
	"zigpod/internal/diag"
	"zigpod/internal/display"
	"zigpod/internal/hal"
	"zigpod/internal/power"
	"zigpod/internal/storage/blockdev"
)

// jumpTrampoline actually transfers control to the validated application
// image: on silicon this copies body to loadAddress and branches to
// entryPoint in ARM mode with IRQs disabled. That transfer is a handful
// of assembly instructions with no Go representation, so it is not
// implemented in this tree; a real bring-up links an asm stub here.
var jumpTrampoline = func(entryPoint, loadAddress uint32, body []byte) error {
	return fmt.Errorf("zigpod: no jump trampoline linked for this build (entry=0x%08X load=0x%08X size=%d)",
		entryPoint, loadAddress, len(body))
}

func main() {
	h := hal.NewSilicon()

	log := diag.NewLogger(10000)
	for _, c := range []diag.Component{
		diag.ComponentHAL, diag.ComponentBoot, diag.ComponentStorage,
		diag.ComponentAudio, diag.ComponentDisplay, diag.ComponentPower, diag.ComponentSystem,
	} {
		log.SetComponentEnabled(c, true)
	}
	defer log.Shutdown()

	dev, err := blockdev.NewATADevice(h.ATA)
	if err != nil {
		log.LogSystemf(diag.LevelError, "ATA init failed: %v", err)
		os.Exit(1)
	}

	boot := bootrom.New(h, dev, jumpTrampoline, log)
	if err := boot.Run(); err != nil {
		log.LogBootf(diag.LevelError, "boot failed: %v", err)
		os.Exit(1)
	}

	if boot.State() != bootrom.StateAppRunning {
		log.LogBootf(diag.LevelWarning, "boot fell back to target %d, nothing further to run on this image", boot.Target())
		os.Exit(2)
	}
	if err := boot.SignalSuccess(); err != nil {
		log.LogBootf(diag.LevelError, "signal success failed: %v", err)
		os.Exit(1)
	}

	runMainLoop(h, log)
}

// runMainLoop is the frame-paced loop named in §4.8/§2 ("Frame limiter +
// main loop"): poll the wheel, let the power manager react to load, kick
// the watchdog, and pace to 60/20 Hz. It draws and flushes nothing to the screen, and a
// frame counts as active only while the wheel is touched. Dispatch to the menu/file
// browser/theme UI is the out-of-scope external collaborator named in
// SPEC_FULL.md §1 — this loop only drives the plumbing it would be
// dispatched from.
func runMainLoop(h *hal.HAL, log *diag.Logger) {
	limiter := clock.New(h.System)
	wheel := display.NewTracker(h.ClickWheel)
	pm := power.NewManager(h.PMU, nil)

	for {
		limiter.BeginFrame()

		ev, err := wheel.Poll()
		if err != nil {
			log.LogDisplayf(diag.LevelError, "wheel poll failed: %v", err)
		}

		if err := pm.UpdateLoad(0); err != nil {
			log.LogPowerf(diag.LevelError, "power update failed: %v", err)
		}

		if err := h.Watchdog.Kick(); err != nil {
			log.LogSystemf(diag.LevelError, "watchdog kick failed: %v", err)
		}

		limiter.EndFrame(ev.Touching)
	}
}
