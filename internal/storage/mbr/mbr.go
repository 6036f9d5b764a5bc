// Package mbr parses the Master Boot Record: the 0x55AA-signed sector 0
// partition table every ZigPod storage medium carries (§4.3).
package mbr

import (
	"encoding/binary"
	"fmt"

	"github.com/go-restruct/restruct"

	"zigpod/internal/storage/blockdev"
)

// Signature is the required trailing two bytes of a valid MBR sector.
const Signature = 0x55AA

// Partition type bytes FAT32 is known to use.
const (
	TypeFAT32CHS = 0x0B
	TypeFAT32LBA = 0x0C
)

// Entry is one of the four 16-byte MBR partition table entries.
type Entry struct {
	Status       uint8
	FirstCHS     [3]byte
	PartType     uint8
	LastCHS      [3]byte
	FirstLBA     uint32
	SectorsCount uint32
}

// IsFAT32 reports whether the entry's type byte names a FAT32 variant.
func (e Entry) IsFAT32() bool {
	return e.PartType == TypeFAT32CHS || e.PartType == TypeFAT32LBA
}

// SizeMB returns the partition's size in whole megabytes, derived from its
// sector count at the fixed 512-byte sector size, per §4.3.
func (e Entry) SizeMB() uint32 {
	return uint32(uint64(e.SectorsCount) * blockdev.SectorSize / (1024 * 1024))
}

// IsFATFamily reports whether the entry's type byte names any FAT
// variant, used as the fallback match when no partition is explicitly
// FAT32.
func IsFATFamily(partType uint8) bool {
	switch partType {
	case 0x01, 0x04, 0x06, 0x0B, 0x0C, 0x0E:
		return true
	default:
		return false
	}
}

// Table is the parsed sector-0 partition table.
type Table struct {
	Entries [4]Entry
}

// Read reads sector 0 from dev, validates the 0x55AA signature, and
// returns the four partition entries.
func Read(dev blockdev.Device) (Table, error) {
	sector := make([]byte, blockdev.SectorSize)
	if err := dev.ReadSector(0, sector); err != nil {
		return Table{}, fmt.Errorf("mbr: read sector 0: %w", err)
	}
	sig := binary.LittleEndian.Uint16(sector[510:512])
	if sig != Signature {
		return Table{}, fmt.Errorf("mbr: bad signature 0x%04X", sig)
	}

	var t Table
	for i := 0; i < 4; i++ {
		raw := sector[446+i*16 : 446+(i+1)*16]
		var e Entry
		if err := restruct.Unpack(raw, binary.LittleEndian, &e); err != nil {
			return Table{}, fmt.Errorf("mbr: unpack entry %d: %w", i, err)
		}
		t.Entries[i] = e
	}
	return t, nil
}

// FirstFAT32 returns the first entry whose type is explicitly FAT32, or —
// failing that — the first entry of any FAT family, per §4.3.
func (t Table) FirstFAT32() (Entry, bool) {
	for _, e := range t.Entries {
		if e.IsFAT32() {
			return e, true
		}
	}
	for _, e := range t.Entries {
		if IsFATFamily(e.PartType) {
			return e, true
		}
	}
	return Entry{}, false
}

// FirmwarePartition reports partition 1's metadata, the iPod-specific
// layout function named in §4.3 for locating the firmware partition.
func (t Table) FirmwarePartition() Entry {
	return t.Entries[0]
}
