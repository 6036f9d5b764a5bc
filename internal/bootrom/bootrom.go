package bootrom

import (
	"fmt"
	"io"
	"time"

	"zigpod/internal/bootconfig"
	"zigpod/internal/diag"
	"zigpod/internal/firmware"
	"zigpod/internal/hal"
	"zigpod/internal/storage/blockdev"
	"zigpod/internal/storage/fat32"
	"zigpod/internal/storage/mbr"
)

// FirmwarePath is the fixed location of the application image on the
// mounted FAT32 partition, per §6.
const FirmwarePath = "/.zigpod/firmware.bin"

// watchdogTimeout is the window the application has to reach
// SignalSuccess before the watchdog resets the device, per §4.2 step 11.
const watchdogTimeout = 30 * time.Second

// JumpFunc receives the validated image and is responsible for actually
// transferring control to it. On silicon this copies the body to
// loadAddress and branches to entryPoint in ARM mode with IRQs disabled;
// the host simulator instead just records the call.
type JumpFunc func(entryPoint, loadAddress uint32, body []byte) error

// Bootloader drives the state machine in state.go. One instance models
// exactly one power-on attempt: construct a fresh Bootloader (which loads
// the persisted record fresh from the Store) to model a subsequent reboot.
type Bootloader struct {
	h     *hal.HAL
	store *bootconfig.Store
	dev   blockdev.Device
	jump  JumpFunc
	log   *diag.Logger

	state  State
	record bootconfig.Record
	target bootconfig.BootTarget

	vol    *fat32.Volume
	header firmware.Header
	body   []byte
}

// New returns a Bootloader ready to Step/Run from StateBootRom, reading
// firmware.bin from whichever partition dev's MBR names as FAT32 (§4.3).
// The Store itself always reads/writes ConfigSectorLBA on dev directly,
// independent of the partition table, since the configuration record must
// be loadable before the MBR is ever consulted.
func New(h *hal.HAL, dev blockdev.Device, jump JumpFunc, log *diag.Logger) *Bootloader {
	return &Bootloader{
		h:     h,
		store: bootconfig.NewStore(dev),
		dev:   dev,
		jump:  jump,
		log:   log,
	}
}

// State returns the current state.
func (b *Bootloader) State() State { return b.state }

// Target returns the boot target decided at ButtonSample (or the
// record's default before that state runs).
func (b *Bootloader) Target() bootconfig.BootTarget { return b.target }

func (b *Bootloader) logf(format string, args ...interface{}) {
	if b.log != nil {
		b.log.LogBootf(diag.LevelInfo, format, args...)
	}
}

// Step advances the state machine by exactly one transition. It returns
// nil after reaching StateFallback, StateAppRunning, or
// StateSuccessSignalled — all three are stable resting points; further
// Step calls are no-ops once there.
func (b *Bootloader) Step() error {
	switch b.state {
	case StateBootRom:
		if err := b.h.System.Init(); err != nil {
			return fmt.Errorf("bootrom: system init: %w", err)
		}
		b.logf("stub entered, system initialized")
		b.state = StateStubInit

	case StateStubInit:
		b.record = b.store.Load()
		b.target = b.record.EffectiveTarget()
		b.state = StateConfigLoad

	case StateConfigLoad:
		override, err := sampleButtons(b.h.ClickWheel, b.h.System)
		if err != nil {
			return fmt.Errorf("bootrom: button sample: %w", err)
		}
		if override != bootconfig.TargetZigPod {
			b.target = override
		}
		b.state = StateButtonSample

	case StateButtonSample:
		if b.target != bootconfig.TargetZigPod {
			b.logf("target=%d selected by button override or fallback, not loading ZigPod image", b.target)
			b.state = StateFallback
			return nil
		}
		b.state = StateHwCheck

	case StateHwCheck:
		failed, detail := runHwChecks(b.h)
		if failed {
			b.logf("hardware check failed: %s", detail)
			return b.fail(bootconfig.FailureHwCheck)
		}
		b.state = StateImageLoad

	case StateImageLoad:
		if err := b.loadImage(); err != nil {
			b.logf("image load failed: %v", err)
			return b.fail(bootconfig.FailureValidation)
		}
		b.state = StateVerify

	case StateVerify:
		if err := b.header.Validate(b.body); err != nil {
			b.logf("header validation failed: %v", err)
			return b.fail(bootconfig.FailureValidation)
		}
		b.state = StateJump

	case StateJump:
		if err := b.jumpToApplication(); err != nil {
			b.logf("jump failed: %v", err)
			return b.fail(bootconfig.FailureWatchdog)
		}
		b.state = StateAppRunning

	case StateAppRunning, StateSuccessSignalled, StateFallback:
		// Terminal from Step's perspective.
	}
	return nil
}

// loadImage reads the MBR to find the FAT32 partition, mounts it, opens
// FirmwarePath, and reads the 256-byte header plus the body, per §4.2
// steps 9-10.
func (b *Bootloader) loadImage() error {
	table, err := mbr.Read(b.dev)
	if err != nil {
		return fmt.Errorf("read MBR: %w", err)
	}
	part, ok := table.FirstFAT32()
	if !ok {
		return fmt.Errorf("no FAT32 partition in MBR")
	}

	vol, err := fat32.Mount(b.dev, uint64(part.FirstLBA))
	if err != nil {
		return fmt.Errorf("mount: %w", err)
	}
	b.vol = vol

	f, err := vol.Open(FirmwarePath)
	if err != nil {
		return fmt.Errorf("open %s: %w", FirmwarePath, err)
	}

	raw := make([]byte, f.Size())
	if _, err := io.ReadFull(f, raw); err != nil {
		return fmt.Errorf("read %s: %w", FirmwarePath, err)
	}
	if len(raw) < firmware.HeaderSize {
		return fmt.Errorf("%s is %d bytes, shorter than a header", FirmwarePath, len(raw))
	}

	h, err := firmware.Parse(raw)
	if err != nil {
		return err
	}
	b.header = h
	b.body = raw[firmware.HeaderSize:]
	return nil
}

// jumpToApplication persists the pre-jump record (so a hang during this
// attempt still counts per §4.2 step 8), arms the watchdog, and invokes
// the JumpFunc.
func (b *Bootloader) jumpToApplication() error {
	b.record = b.record.OnBootAttempt()
	if err := b.store.Save(b.record); err != nil {
		return fmt.Errorf("persist pre-jump record: %w", err)
	}
	if err := b.h.Watchdog.Arm(watchdogTimeout); err != nil {
		return fmt.Errorf("arm watchdog: %w", err)
	}
	if b.jump != nil {
		return b.jump(b.header.EntryPoint, b.header.LoadAddress, b.body)
	}
	return nil
}

// fail records reason against the persisted record — incrementing
// consecutive_failures the same as a successful jump would (step 8 applies
// regardless of how this attempt ends) — and leaves the state machine
// parked at whatever state called fail. It does not itself decide
// fallback: that check is EffectiveTarget's, applied fresh at the start of
// the next Bootloader's ConfigLoad step against the counter persisted
// here, which is what makes the three-strike threshold a property of the
// Nth power-on rather than of this attempt's own failure.
func (b *Bootloader) fail(reason bootconfig.FailureReason) error {
	b.record = b.record.OnBootAttempt().OnBootFailure(reason)
	if err := b.store.Save(b.record); err != nil {
		return fmt.Errorf("bootrom: persist failure record: %w", err)
	}
	return fmt.Errorf("bootrom: attempt failed at %s: reason=%d", b.state, reason)
}

// SignalSuccess is the entry point the application calls once it reaches
// a stable state, per §4.2's closing paragraph: clears
// consecutive_failures, persists the record, disarms the watchdog.
func (b *Bootloader) SignalSuccess() error {
	b.record = b.record.OnBootSuccess()
	if err := b.store.Save(b.record); err != nil {
		return fmt.Errorf("bootrom: persist success record: %w", err)
	}
	if err := b.h.Watchdog.Disarm(); err != nil {
		return fmt.Errorf("bootrom: disarm watchdog: %w", err)
	}
	b.state = StateSuccessSignalled
	return nil
}

// AcknowledgeFallback resets the persisted consecutive-failure counter once
// the user has dismissed the Apple-fallback screen reached at StateFallback.
// Without this, a record that has hit the three-strike threshold has no way
// back to TargetZigPod: EffectiveTarget keeps returning TargetApple forever,
// since the only other path that clears the counter, SignalSuccess, requires
// the ZigPod application to have booted — exactly what the threshold is now
// preventing. Whatever surfaces the fallback screen calls this once the user
// presses through it.
func (b *Bootloader) AcknowledgeFallback() error {
	b.record = b.record.OnUserAcknowledgeFallback()
	if err := b.store.Save(b.record); err != nil {
		return fmt.Errorf("bootrom: persist fallback acknowledgement: %w", err)
	}
	b.logf("fallback acknowledged, consecutive failure counter reset")
	return nil
}

// Run drives Step to completion, stopping at StateAppRunning,
// StateFallback, or the first error.
func (b *Bootloader) Run() error {
	for {
		prev := b.state
		if err := b.Step(); err != nil {
			return err
		}
		if b.state == StateAppRunning || b.state == StateFallback {
			return nil
		}
		if b.state == prev {
			return fmt.Errorf("bootrom: stuck in state %s", b.state)
		}
	}
}
