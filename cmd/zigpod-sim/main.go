// zigpod-sim drives the firmware's boot sequence and a short idle main
// loop against hal.Mock instead of PP5021C silicon, for regression testing
// and interactive debugging off target hardware. Command-line parsing
// follows go-exfat's cmd/ tree (a tagged options struct handed to
// jessevdk/go-flags) rather than the teacher's bare flag package, per
// the domain stack this module wires in.
package main

import (
	"fmt"
	"os"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/jessevdk/go-flags"

	"zigpod/internal/bootconfig"
	"zigpod/internal/bootrom"
	"zigpod/internal/clock"
	"zigpod/internal/diag"
	"zigpod/internal/display"
	"zigpod/internal/hal"
	"zigpod/internal/power"
	"zigpod/internal/storage/blockdev"
)

type options struct {
	DiskImage  string `short:"d" long:"disk-image" description:"Path to a raw disk image (MBR + FAT32 partition + firmware.bin)" required:"true"`
	BatteryMV  int    `long:"battery-mv" description:"Battery millivolt reading to script" default:"4000"`
	Frames     int    `long:"frames" description:"Number of idle main-loop frames to run after boot" default:"5"`
	Snapshot   string `long:"snapshot" description:"Path to write a post-run gob snapshot to (optional)"`
	LogLevel   string `long:"log-level" description:"none|error|warning|info|debug|trace" default:"info"`
}

func parseLevel(s string) diag.Level {
	switch s {
	case "error":
		return diag.LevelError
	case "warning":
		return diag.LevelWarning
	case "debug":
		return diag.LevelDebug
	case "trace":
		return diag.LevelTrace
	case "none":
		return diag.LevelNone
	default:
		return diag.LevelInfo
	}
}

func main() {
	var opts options
	parser := flags.NewParser(&opts, flags.Default)
	if _, err := parser.Parse(); err != nil {
		os.Exit(1)
	}

	diskBytes, err := os.ReadFile(opts.DiskImage)
	if err != nil {
		fmt.Fprintf(os.Stderr, "zigpod-sim: read disk image: %v\n", err)
		os.Exit(1)
	}
	img, err := blockdev.NewImageFromBytes(diskBytes)
	if err != nil {
		fmt.Fprintf(os.Stderr, "zigpod-sim: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("loaded disk image: %s (%s, %d sectors)\n",
		opts.DiskImage, humanize.Bytes(uint64(len(diskBytes))), img.SectorCount())

	log := diag.NewLogger(10000)
	level := parseLevel(opts.LogLevel)
	for _, c := range []diag.Component{
		diag.ComponentHAL, diag.ComponentBoot, diag.ComponentStorage,
		diag.ComponentAudio, diag.ComponentDisplay, diag.ComponentPower, diag.ComponentSystem,
	} {
		log.SetComponentEnabled(c, level != diag.LevelNone)
	}
	log.SetMinLevel(level)
	defer log.Shutdown()

	m := hal.NewMock()
	m.ScriptBattery(opts.BatteryMV)
	m.ScriptIdentify(hal.DriveInfo{TotalSectors: img.SectorCount()})
	h := m.HAL()

	var jumpedBody []byte
	var entryPoint, loadAddress uint32
	jump := func(entry, load uint32, body []byte) error {
		entryPoint, loadAddress = entry, load
		jumpedBody = body
		fmt.Printf("jump: entry=0x%08X load=0x%08X body=%s\n", entry, load, humanize.Bytes(uint64(len(body))))
		return nil
	}

	boot := bootrom.New(h, img, jump, log)
	if err := boot.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "zigpod-sim: boot failed: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("boot state: %s, target: %d\n", boot.State(), boot.Target())
	if boot.State() != bootrom.StateAppRunning {
		printEntries(log)
		os.Exit(2)
	}
	if err := boot.SignalSuccess(); err != nil {
		fmt.Fprintf(os.Stderr, "zigpod-sim: signal success: %v\n", err)
		os.Exit(1)
	}

	runIdleLoop(h, log, opts.Frames)

	if opts.Snapshot != "" {
		snap := Snapshot{
			Version:     1,
			DiskBytes:   img.Bytes(),
			Record:      bootconfig.NewStore(img).Load(),
			EntryPoint:  entryPoint,
			LoadAddress: loadAddress,
			BodyLength:  len(jumpedBody),
		}
		if err := WriteSnapshot(opts.Snapshot, snap); err != nil {
			fmt.Fprintf(os.Stderr, "zigpod-sim: write snapshot: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("wrote snapshot: %s\n", opts.Snapshot)
	}

	printEntries(log)
}

// runIdleLoop exercises the frame limiter, wheel tracker, and power
// manager the same way the application's main loop would once past
// StateAppRunning — no UI widgets are driven (out of scope), only the
// per-frame plumbing.
func runIdleLoop(h *hal.HAL, log *diag.Logger, frames int) {
	limiter := clock.New(h.System)
	wheel := display.NewTracker(h.ClickWheel)
	pm := power.NewManager(h.PMU, time.Now)

	for i := 0; i < frames; i++ {
		limiter.BeginFrame()
		ev, err := wheel.Poll()
		if err != nil {
			log.LogDisplayf(diag.LevelError, "wheel poll failed: %v", err)
		}
		if err := pm.UpdateLoad(0); err != nil {
			log.LogPowerf(diag.LevelError, "update load failed: %v", err)
		}
		status, err := pm.Status()
		if err == nil {
			log.LogPowerf(diag.LevelDebug, "battery %d%% (%dmV), profile load-driven", status.Percent, status.Millivolts)
		}
		limiter.EndFrame(ev.Touching)
	}
	fmt.Printf("ran %d idle frames at %d Hz\n", frames, limiter.CurrentHz())
}

func printEntries(log *diag.Logger) {
	for _, e := range log.GetRecentEntries(50) {
		fmt.Println(e.Format())
	}
}
