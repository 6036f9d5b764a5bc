package bootconfig

import (
	"fmt"

	"zigpod/internal/storage/blockdev"
)

// ConfigSectorLBA is the fixed sector the boot configuration record lives
// at, ahead of the partition table's usual start offset so it is reachable
// before FAT32 is ever mounted, matching §4.2 step 4 running before step 9's
// FAT32 mount.
const ConfigSectorLBA = 1

// Store persists a Record to a fixed sector of a block device, independent
// of any filesystem — the bootloader must be able to read it before FAT32
// is mounted.
type Store struct {
	dev blockdev.Device
	lba uint64
}

// NewStore returns a Store reading/writing ConfigSectorLBA on dev.
func NewStore(dev blockdev.Device) *Store {
	return &Store{dev: dev, lba: ConfigSectorLBA}
}

// Load reads the record and validates it; an invalid or unreadable record
// yields Default() rather than an error, per §4.2 step 4 ("if magic or
// checksum invalid, substitutes defaults").
func (s *Store) Load() Record {
	sector := make([]byte, blockdev.SectorSize)
	if err := s.dev.ReadSector(s.lba, sector); err != nil {
		return Default().Checksummed()
	}
	r, err := Decode(sector)
	if err != nil || !r.Valid() {
		return Default().Checksummed()
	}
	return r
}

// Save writes r's on-disk encoding to the reserved sector, padded to a
// full sector.
func (s *Store) Save(r Record) error {
	raw, err := r.Encode()
	if err != nil {
		return fmt.Errorf("bootconfig: encode record: %w", err)
	}
	sector := make([]byte, blockdev.SectorSize)
	copy(sector, raw)
	return s.dev.WriteSector(s.lba, sector)
}

// AcknowledgeFallback resets the persisted fail counter once the user has
// dismissed the Apple-fallback screen, independent of the application ever
// running SignalSuccess — without this, a record that hit the three-strike
// threshold has no path back to TargetZigPod.
func (s *Store) AcknowledgeFallback() error {
	return s.Save(s.Load().OnUserAcknowledgeFallback())
}
