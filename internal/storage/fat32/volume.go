package fat32

import (
	"encoding/binary"
	"fmt"
	"strings"

	"zigpod/internal/storage/blockdev"
)

// Volume is a mounted FAT32 partition: cached geometry, a single-sector
// FAT cache, and the underlying block device, per §4.3.
type Volume struct {
	dev           blockdev.Device
	partitionLBA  uint64
	geom          Geometry
	fatCacheSec   uint32
	fatCacheValid bool
	fatCache      []byte
}

// Mount reads the BPB from the partition's first sector (at
// partitionLBA, relative to dev), validates the FAT32 markers, and
// returns a mounted Volume.
func Mount(dev blockdev.Device, partitionLBA uint64) (*Volume, error) {
	sector := make([]byte, blockdev.SectorSize)
	if err := dev.ReadSector(partitionLBA, sector); err != nil {
		return nil, fmt.Errorf("fat32: read BPB: %w: %v", ErrIoError, err)
	}
	bpb, err := parseBPB(sector)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNotFAT32, err)
	}
	v := &Volume{
		dev:          dev,
		partitionLBA: partitionLBA,
		geom:         bpb.geometry(),
		fatCache:     make([]byte, blockdev.SectorSize),
	}
	return v, nil
}

// Geometry returns the volume's derived layout.
func (v *Volume) Geometry() Geometry { return v.geom }

// clusterToSector converts a cluster number to its first absolute LBA.
func (v *Volume) clusterToSector(cluster uint32) uint64 {
	firstSectorOfCluster := v.geom.FirstDataSector + (cluster-2)*v.geom.SectorsPerClus
	return v.partitionLBA + uint64(firstSectorOfCluster)
}

// nextCluster computes the FAT sector holding entry c (byte offset 4c),
// loads it into the single-sector cache if not already resident, masks
// the entry to 28 bits, and returns (0, false) at end-of-chain (entry >=
// ClusterEOFMin), per §4.3.
func (v *Volume) nextCluster(c uint32) (uint32, bool, error) {
	fatOffset := c * 4
	fatSector := v.geom.FirstFATSector + fatOffset/v.geom.BytesPerSector
	entOffset := fatOffset % v.geom.BytesPerSector

	if !v.fatCacheValid || v.fatCacheSec != fatSector {
		if err := v.dev.ReadSector(v.partitionLBA+uint64(fatSector), v.fatCache); err != nil {
			return 0, false, fmt.Errorf("%w: read FAT sector %d: %v", ErrIoError, fatSector, err)
		}
		v.fatCacheSec = fatSector
		v.fatCacheValid = true
	}

	raw := binary.LittleEndian.Uint32(v.fatCache[entOffset:entOffset+4]) & 0x0FFFFFFF
	if raw == ClusterBad {
		return 0, false, ErrCorruptChain
	}
	if raw >= ClusterEOFMin {
		return 0, false, nil
	}
	if raw == ClusterFree || raw == ClusterReserved {
		return 0, false, ErrCorruptChain
	}
	return raw, true, nil
}

// readCluster reads one full cluster's worth of sectors starting at
// cluster into dst, which must be exactly SectorsPerClus*BytesPerSector
// bytes.
func (v *Volume) readCluster(cluster uint32, dst []byte) error {
	lba := v.clusterToSector(cluster)
	secSize := int(v.geom.BytesPerSector)
	for i := uint32(0); i < v.geom.SectorsPerClus; i++ {
		buf := dst[int(i)*secSize : int(i+1)*secSize]
		if err := v.dev.ReadSector(lba+uint64(i), buf); err != nil {
			return fmt.Errorf("%w: %v", ErrIoError, err)
		}
	}
	return nil
}

// dirEntriesInCluster returns every 32-byte record found in the raw bytes
// of one cluster, skipping long-name continuation entries and deleted
// entries.
func dirEntriesInCluster(raw []byte) ([]dirEntry, error) {
	var out []dirEntry
	for off := 0; off+dirEntrySize <= len(raw); off += dirEntrySize {
		rec := raw[off : off+dirEntrySize]
		if rec[0] == direntEnd {
			break
		}
		if rec[0] == direntFree {
			continue
		}
		e, err := parseDirEntry(rec)
		if err != nil {
			return nil, fmt.Errorf("fat32: parse directory entry: %w", err)
		}
		if e.isLongName() {
			continue
		}
		out = append(out, e)
	}
	return out, nil
}

// lookupInDirectory walks the cluster chain rooted at dirCluster
// searching for a case-insensitive 8.3 name match, per §4.3.
func (v *Volume) lookupInDirectory(dirCluster uint32, name string) (dirEntry, error) {
	secSize := int(v.geom.BytesPerSector) * int(v.geom.SectorsPerClus)
	buf := make([]byte, secSize)
	cluster := dirCluster
	for hops := uint32(0); ; hops++ {
		if hops > v.geom.TotalClusters {
			return dirEntry{}, ErrCorruptChain
		}
		if err := v.readCluster(cluster, buf); err != nil {
			return dirEntry{}, err
		}
		entries, err := dirEntriesInCluster(buf)
		if err != nil {
			return dirEntry{}, err
		}
		for _, e := range entries {
			if e.matches8dot3(name) {
				return e, nil
			}
		}
		next, ok, err := v.nextCluster(cluster)
		if err != nil {
			return dirEntry{}, err
		}
		if !ok {
			return dirEntry{}, fmt.Errorf("%w: %q", ErrNotFound, name)
		}
		cluster = next
	}
}

// resolve splits an absolute path on '/' and walks it component by
// component from the root directory, matching 8.3 names
// case-insensitively, per §4.3.
func (v *Volume) resolve(path string) (dirEntry, error) {
	path = strings.Trim(path, "/")
	cluster := v.geom.RootCluster
	if path == "" {
		return dirEntry{Attr: AttrDirectory, FstClusHi: uint16(cluster >> 16), FstClusLo: uint16(cluster)}, nil
	}
	parts := strings.Split(path, "/")
	var entry dirEntry
	for i, part := range parts {
		if part == "" {
			continue
		}
		var err error
		entry, err = v.lookupInDirectory(cluster, part)
		if err != nil {
			return dirEntry{}, err
		}
		if i != len(parts)-1 {
			if !entry.isDirectory() {
				return dirEntry{}, fmt.Errorf("%w: %q", ErrNotADirectory, part)
			}
			cluster = entry.firstCluster()
		}
	}
	return entry, nil
}
