package blockdev

import (
	"fmt"

	"zigpod/internal/hal"
)

// ATADevice adapts hal.ATA to the Device contract used by the rest of the
// storage stack, and performs the IDENTIFY-driven one-time setup (LBA48
// detection, flash-vs-HDD spin-down policy) described in §4.3.
type ATADevice struct {
	ata  hal.ATA
	info hal.DriveInfo
}

// NewATADevice runs IDENTIFY against ata and returns a Device wrapping it.
func NewATADevice(ata hal.ATA) (*ATADevice, error) {
	if err := ata.Init(); err != nil {
		return nil, fmt.Errorf("blockdev: ata init: %w", err)
	}
	info, err := ata.Identify()
	if err != nil {
		return nil, fmt.Errorf("blockdev: ata identify: %w", err)
	}
	return &ATADevice{ata: ata, info: info}, nil
}

// Info returns the drive's parsed IDENTIFY response.
func (d *ATADevice) Info() hal.DriveInfo { return d.info }

func (d *ATADevice) ReadSector(lba uint64, buf []byte) error {
	if len(buf) != SectorSize {
		return fmt.Errorf("blockdev: ReadSector buffer is %d bytes, want %d", len(buf), SectorSize)
	}
	if err := d.ata.ReadSectors(lba, buf); err != nil {
		return fmt.Errorf("%w: %v", ErrIoError, err)
	}
	return nil
}

func (d *ATADevice) WriteSector(lba uint64, data []byte) error {
	if len(data) != SectorSize {
		return fmt.Errorf("blockdev: WriteSector buffer is %d bytes, want %d", len(data), SectorSize)
	}
	if err := d.ata.WriteSectors(lba, data); err != nil {
		return fmt.Errorf("%w: %v", ErrIoError, err)
	}
	return nil
}

func (d *ATADevice) SectorCount() uint64 { return d.info.TotalSectors }

// SpinDown issues a STANDBY command, unless the drive is non-rotating
// flash media, per §4.3 ("Flash media skips the periodic spin-down that is
// enabled for HDDs").
func (d *ATADevice) SpinDown() error {
	if d.info.NonRotating {
		return nil
	}
	return d.ata.Standby()
}
