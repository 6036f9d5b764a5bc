package fat32

import (
	"fmt"
	"io"
)

// File is an open handle to a FAT32 file: cluster chain plus a byte
// cursor. Read walks the cluster chain; Seek only moves the cursor, and
// the next Read re-walks from the first cluster when the target lies
// behind the cached cluster, or onward from the cached cluster otherwise.
type File struct {
	vol           *Volume
	firstCluster  uint32
	size          uint32
	clusterBytes  int
	cursor        int64
	curCluster    uint32
	curClusterIdx int64 // index (0-based) of curCluster within the chain
}

// Open resolves path to a regular file and returns a File positioned at
// offset 0.
func (v *Volume) Open(path string) (*File, error) {
	entry, err := v.resolve(path)
	if err != nil {
		return nil, err
	}
	if entry.isDirectory() {
		return nil, fmt.Errorf("%w: %q", ErrNotAFile, path)
	}
	f := &File{
		vol:          v,
		firstCluster: entry.firstCluster(),
		size:         entry.FileSize,
		clusterBytes: int(v.geom.BytesPerSector) * int(v.geom.SectorsPerClus),
		curCluster:   entry.firstCluster(),
	}
	return f, nil
}

// OpenDir resolves path to a directory and returns its entries, adapting
// §4.3's directory-cursor behavior to a single eager listing (the host
// simulator and firmware browser both consume small directories at a
// time, so no incremental cursor state is kept).
func (v *Volume) OpenDir(path string) ([]string, error) {
	entry, err := v.resolve(path)
	if err != nil {
		return nil, err
	}
	if !entry.isDirectory() {
		return nil, fmt.Errorf("%w: %q", ErrNotADirectory, path)
	}
	secSize := int(v.geom.BytesPerSector) * int(v.geom.SectorsPerClus)
	buf := make([]byte, secSize)
	cluster := entry.firstCluster()
	if cluster == 0 {
		cluster = v.geom.RootCluster
	}
	var names []string
	for hops := uint32(0); ; hops++ {
		if hops > v.geom.TotalClusters {
			return nil, ErrCorruptChain
		}
		if err := v.readCluster(cluster, buf); err != nil {
			return nil, err
		}
		entries, err := dirEntriesInCluster(buf)
		if err != nil {
			return nil, err
		}
		for _, e := range entries {
			if e.Attr&AttrVolumeID != 0 {
				continue
			}
			names = append(names, e.shortName())
		}
		next, ok, err := v.nextCluster(cluster)
		if err != nil {
			return nil, err
		}
		if !ok {
			break
		}
		cluster = next
	}
	return names, nil
}

// Size returns the file's length in bytes as recorded in its directory
// entry.
func (f *File) Size() int64 { return int64(f.size) }

// seekToChainIndex moves curCluster to the cluster at position targetIdx
// in the chain. It walks onward from the cached cluster when targetIdx is
// ahead of it and from the first cluster otherwise, so sequential reads
// don't re-walk from the start.
func (f *File) seekToChainIndex(targetIdx int64) error {
	if f.curCluster == 0 {
		return ErrCorruptChain
	}
	if targetIdx == f.curClusterIdx {
		return nil
	}
	cluster := f.firstCluster
	var idx int64
	if targetIdx > f.curClusterIdx {
		cluster = f.curCluster
		idx = f.curClusterIdx
	}
	for hops := uint32(0); idx < targetIdx; hops++ {
		if hops > f.vol.geom.TotalClusters {
			return ErrCorruptChain
		}
		next, ok, err := f.vol.nextCluster(cluster)
		if err != nil {
			return err
		}
		if !ok {
			return ErrCorruptChain
		}
		cluster = next
		idx++
	}
	f.curCluster = cluster
	f.curClusterIdx = idx
	return nil
}

// Read fills p from the file's current cursor, walking the cluster chain
// a cluster at a time, and returns io.EOF once the cursor reaches the
// recorded file size.
func (f *File) Read(p []byte) (int, error) {
	if f.cursor >= int64(f.size) {
		return 0, io.EOF
	}
	remaining := int64(f.size) - f.cursor
	if int64(len(p)) > remaining {
		p = p[:remaining]
	}
	n := 0
	clusterBuf := make([]byte, f.clusterBytes)
	for n < len(p) {
		chainIdx := f.cursor / int64(f.clusterBytes)
		if err := f.seekToChainIndex(chainIdx); err != nil {
			return n, err
		}
		if err := f.vol.readCluster(f.curCluster, clusterBuf); err != nil {
			return n, err
		}
		offInCluster := int(f.cursor % int64(f.clusterBytes))
		copied := copy(p[n:], clusterBuf[offInCluster:])
		n += copied
		f.cursor += int64(copied)
	}
	return n, nil
}

// Seek repositions the cursor per io.Seeker semantics, re-deriving the
// target cluster lazily on the next Read.
func (f *File) Seek(offset int64, whence int) (int64, error) {
	var target int64
	switch whence {
	case io.SeekStart:
		target = offset
	case io.SeekCurrent:
		target = f.cursor + offset
	case io.SeekEnd:
		target = int64(f.size) + offset
	default:
		return 0, fmt.Errorf("fat32: invalid whence %d", whence)
	}
	if target < 0 {
		return 0, fmt.Errorf("fat32: negative seek position")
	}
	f.cursor = target
	return f.cursor, nil
}
