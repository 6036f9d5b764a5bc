// Package firmware parses and validates the 256-byte header that precedes
// the application body in /.zigpod/firmware.bin, grounded on the same
// struct-unpack-then-validate shape the teacher used for ROM headers
// (magic check, then field checks, then a size check before copying the
// body) and using go-restruct instead of manual byte indexing.
package firmware

import (
	"encoding/binary"
	"errors"
	"fmt"
	"hash/crc32"

	"github.com/go-restruct/restruct"
)

const (
	// Magic is "ZPOD" read little-endian, per §3.
	Magic = 0x5A504F44

	HeaderSize = 256

	// MaxFirmwareSize is the hard ceiling on body size (27 MiB), per §3.
	MaxFirmwareSize = 27 * 1024 * 1024

	// DRAM bounds a valid load_address must fall within, per the testable
	// property in §8 ("load_address ∈ [0x40001000, 0x41B00000)").
	DRAMLow  = 0x40001000
	DRAMHigh = 0x41B00000

	// BootloaderVersion is this bootloader's own version number, compared
	// against a header's MinBootloaderVersion so an image built against a
	// newer bootloader feature is rejected rather than booted half-working.
	BootloaderVersion = 1
)

var (
	ErrBadMagic          = errors.New("firmware: bad header magic")
	ErrBadEntryPoint     = errors.New("firmware: entry_point outside [load_address, load_address+firmware_size)")
	ErrBadLoadAddress    = errors.New("firmware: load_address outside DRAM")
	ErrTooLarge          = errors.New("firmware: firmware_size exceeds 27 MiB")
	ErrChecksum          = errors.New("firmware: CRC32 mismatch")
	ErrTruncated         = errors.New("firmware: header shorter than 256 bytes")
	ErrMinBootloaderVers = errors.New("firmware: image requires a newer bootloader")
)

// Header is the on-disk layout of the 256-byte firmware image header.
// Field order and sizes match §3 exactly; go-restruct unpacks by that
// order rather than by struct tags.
type Header struct {
	Magic                uint32
	VersionMajor         uint8
	VersionMinor         uint8
	VersionPatch         uint8
	Flags                uint8
	EntryPoint           uint32
	LoadAddress          uint32
	FirmwareSize         uint32
	BodyCRC32            uint32
	Signature            [64]byte
	BuildTimestamp       uint32
	MinBootloaderVersion uint8
	Reserved             [163]byte // padding out to 256 bytes
}

// Parse unpacks raw into a Header. raw must be at least HeaderSize bytes;
// only the first HeaderSize bytes are consumed.
func Parse(raw []byte) (Header, error) {
	if len(raw) < HeaderSize {
		return Header{}, ErrTruncated
	}
	var h Header
	if err := restruct.Unpack(raw[:HeaderSize], binary.LittleEndian, &h); err != nil {
		return Header{}, fmt.Errorf("firmware: unpack header: %w", err)
	}
	return h, nil
}

// Validate checks a parsed Header's invariants against the accompanying
// body, per the testable property in §8:
//
//	load_address ≤ entry_point < load_address+firmware_size
//	crc32(body) == header.BodyCRC32
//	load_address ∈ [DRAMLow, DRAMHigh)
//	firmware_size ≤ MaxFirmwareSize
func (h Header) Validate(body []byte) error {
	if h.Magic != Magic {
		return fmt.Errorf("%w: got 0x%08X", ErrBadMagic, h.Magic)
	}
	if h.FirmwareSize > MaxFirmwareSize {
		return fmt.Errorf("%w: %d bytes", ErrTooLarge, h.FirmwareSize)
	}
	if h.LoadAddress < DRAMLow || h.LoadAddress >= DRAMHigh {
		return fmt.Errorf("%w: 0x%08X", ErrBadLoadAddress, h.LoadAddress)
	}
	if h.EntryPoint < h.LoadAddress || h.EntryPoint >= h.LoadAddress+h.FirmwareSize {
		return fmt.Errorf("%w: entry 0x%08X, load 0x%08X, size %d", ErrBadEntryPoint, h.EntryPoint, h.LoadAddress, h.FirmwareSize)
	}
	if uint32(len(body)) != h.FirmwareSize {
		return fmt.Errorf("firmware: body length %d does not match header firmware_size %d", len(body), h.FirmwareSize)
	}
	if sum := crc32.ChecksumIEEE(body); sum != h.BodyCRC32 {
		return fmt.Errorf("%w: computed 0x%08X, header 0x%08X", ErrChecksum, sum, h.BodyCRC32)
	}
	if h.MinBootloaderVersion > BootloaderVersion {
		return fmt.Errorf("%w: image requires %d, this bootloader is %d", ErrMinBootloaderVers, h.MinBootloaderVersion, BootloaderVersion)
	}
	return nil
}
