package blockdev

import "fmt"

// Image is an in-memory, file-backed-in-spirit block device used by the
// host simulator and by tests, per §4.3's "for testing, a file-backed
// image" alternative to the ATA driver.
type Image struct {
	sectors [][SectorSize]byte
}

// NewImage returns an Image with the given number of zeroed sectors.
func NewImage(sectorCount uint64) *Image {
	return &Image{sectors: make([][SectorSize]byte, sectorCount)}
}

// NewImageFromBytes builds an Image from a flat byte slice, which must be
// an exact multiple of SectorSize.
func NewImageFromBytes(data []byte) (*Image, error) {
	if len(data)%SectorSize != 0 {
		return nil, fmt.Errorf("blockdev: image data length %d is not a multiple of %d", len(data), SectorSize)
	}
	img := NewImage(uint64(len(data) / SectorSize))
	for i := range img.sectors {
		copy(img.sectors[i][:], data[i*SectorSize:(i+1)*SectorSize])
	}
	return img, nil
}

func (img *Image) ReadSector(lba uint64, buf []byte) error {
	if len(buf) != SectorSize {
		return fmt.Errorf("blockdev: ReadSector buffer is %d bytes, want %d", len(buf), SectorSize)
	}
	if lba >= uint64(len(img.sectors)) {
		return fmt.Errorf("%w: lba %d out of range", ErrIoError, lba)
	}
	copy(buf, img.sectors[lba][:])
	return nil
}

func (img *Image) WriteSector(lba uint64, data []byte) error {
	if len(data) != SectorSize {
		return fmt.Errorf("blockdev: WriteSector buffer is %d bytes, want %d", len(data), SectorSize)
	}
	if lba >= uint64(len(img.sectors)) {
		return fmt.Errorf("%w: lba %d out of range", ErrIoError, lba)
	}
	copy(img.sectors[lba][:], data)
	return nil
}

func (img *Image) SectorCount() uint64 { return uint64(len(img.sectors)) }

// Bytes flattens the image back to a single byte slice, the inverse of
// NewImageFromBytes, for the host simulator to persist a disk image to
// a file or fold into a snapshot.
func (img *Image) Bytes() []byte {
	out := make([]byte, 0, len(img.sectors)*SectorSize)
	for _, s := range img.sectors {
		out = append(out, s[:]...)
	}
	return out
}
