// Package fat32 implements FAT32 mount, cluster-chain walking, directory
// lookup, and file read/seek over a blockdev.Device partition (§4.3).
package fat32

import (
	"encoding/binary"
	"fmt"

	"github.com/go-restruct/restruct"
)

// ClusterFree, ClusterReserved, ClusterBad, and ClusterEOFMin are the
// reserved FAT32 cluster entry values from §3's glossary.
const (
	ClusterFree     = 0x00000000
	ClusterReserved = 0x00000001
	ClusterBad      = 0x0FFFFFF7
	ClusterEOFMin   = 0x0FFFFFF8
)

// BPB is the on-disk BIOS Parameter Block at the start of a FAT32
// partition. Field order matches the standard FAT32 BPB layout; go-restruct
// unpacks by that order.
type BPB struct {
	JumpBoot       [3]byte
	OEMName        [8]byte
	BytesPerSector uint16
	SectorsPerClus uint8
	ReservedSecs   uint16
	NumFATs        uint8
	RootEntries    uint16 // must be 0 for FAT32
	TotalSecs16    uint16
	MediaType      uint8
	FATSize16      uint16 // must be 0 for FAT32
	SecsPerTrack   uint16
	NumHeads       uint16
	HiddenSecs     uint32
	TotalSecs32    uint32
	FATSize32      uint32
	ExtFlags       uint16
	FSVersion      uint16
	RootCluster    uint32
	FSInfoSector   uint16
	BackupBootSec  uint16
	Reserved       [12]byte
	DriveNumber    uint8
	Reserved1      uint8
	BootSignature  uint8
	VolumeID       uint32
	VolumeLabel    [11]byte
	FSType         [8]byte
}

// Geometry is the derived, cached layout a mounted volume needs for every
// subsequent cluster/sector computation.
type Geometry struct {
	BytesPerSector  uint32
	SectorsPerClus  uint32
	ReservedSecs    uint32
	NumFATs         uint32
	FATSize         uint32
	RootCluster     uint32
	FirstFATSector  uint32
	FirstDataSector uint32
	TotalClusters   uint32
}

// parseBPB reads and validates the BPB from sector 0 of a partition,
// deriving the FAT32 markers check ("root_entries == 0 and fat_size_16 ==
// 0") named in §4.3.
func parseBPB(sector []byte) (BPB, error) {
	var b BPB
	if err := restruct.Unpack(sector, binary.LittleEndian, &b); err != nil {
		return BPB{}, fmt.Errorf("fat32: unpack BPB: %w", err)
	}
	if b.RootEntries != 0 || b.FATSize16 != 0 {
		return BPB{}, fmt.Errorf("fat32: not a FAT32 volume (root_entries=%d, fat_size_16=%d)", b.RootEntries, b.FATSize16)
	}
	return b, nil
}

func (b BPB) geometry() Geometry {
	firstFAT := uint32(b.ReservedSecs)
	firstData := firstFAT + uint32(b.NumFATs)*b.FATSize32
	totalSecs := b.TotalSecs32
	if totalSecs == 0 {
		totalSecs = uint32(b.TotalSecs16)
	}
	dataSecs := totalSecs - firstData
	totalClusters := dataSecs / uint32(b.SectorsPerClus)
	return Geometry{
		BytesPerSector:  uint32(b.BytesPerSector),
		SectorsPerClus:  uint32(b.SectorsPerClus),
		ReservedSecs:    uint32(b.ReservedSecs),
		NumFATs:         uint32(b.NumFATs),
		FATSize:         b.FATSize32,
		RootCluster:     b.RootCluster,
		FirstFATSector:  firstFAT,
		FirstDataSector: firstData,
		TotalClusters:   totalClusters,
	}
}
