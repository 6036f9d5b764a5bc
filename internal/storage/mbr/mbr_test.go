package mbr

import (
	"encoding/binary"
	"testing"

	"zigpod/internal/storage/blockdev"
)

func buildSector(entries [4]Entry) []byte {
	sector := make([]byte, blockdev.SectorSize)
	for i, e := range entries {
		off := 446 + i*16
		sector[off] = e.Status
		copy(sector[off+1:off+4], e.FirstCHS[:])
		sector[off+4] = e.PartType
		copy(sector[off+5:off+8], e.LastCHS[:])
		binary.LittleEndian.PutUint32(sector[off+8:off+12], e.FirstLBA)
		binary.LittleEndian.PutUint32(sector[off+12:off+16], e.SectorsCount)
	}
	binary.LittleEndian.PutUint16(sector[510:512], Signature)
	return sector
}

func TestReadValidTable(t *testing.T) {
	entries := [4]Entry{
		{PartType: TypeFAT32LBA, FirstLBA: 2048, SectorsCount: 1000000},
	}
	sector := buildSector(entries)
	img, _ := blockdev.NewImageFromBytes(sector)

	table, err := Read(img)
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	part, ok := table.FirstFAT32()
	if !ok {
		t.Fatal("expected a FAT32 partition to be found")
	}
	if part.FirstLBA != 2048 || part.SectorsCount != 1000000 {
		t.Fatalf("unexpected partition: %+v", part)
	}
}

func TestReadRejectsBadSignature(t *testing.T) {
	sector := make([]byte, blockdev.SectorSize)
	img, _ := blockdev.NewImageFromBytes(sector)
	if _, err := Read(img); err == nil {
		t.Fatal("expected error for missing 0x55AA signature")
	}
}

func TestFirstFAT32FallsBackToFATFamily(t *testing.T) {
	entries := [4]Entry{
		{PartType: 0x06, FirstLBA: 63, SectorsCount: 500},
	}
	sector := buildSector(entries)
	img, _ := blockdev.NewImageFromBytes(sector)
	table, err := Read(img)
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	part, ok := table.FirstFAT32()
	if !ok || part.FirstLBA != 63 {
		t.Fatalf("expected FAT-family fallback match, got %+v, %v", part, ok)
	}
}

// TestFindFAT32InPartitionTwoReportsSizeMB reproduces the disk layout named
// in §4.3's worked example: partition 2 (index 1) of type 0x0B starting at
// LBA 63, sized 2,097,152 sectors, should be the entry FirstFAT32 returns,
// and its SizeMB should come out to 1024.
func TestFindFAT32InPartitionTwoReportsSizeMB(t *testing.T) {
	entries := [4]Entry{
		{PartType: 0xA5},
		{PartType: TypeFAT32CHS, FirstLBA: 63, SectorsCount: 2097152},
	}
	sector := buildSector(entries)
	img, _ := blockdev.NewImageFromBytes(sector)
	table, err := Read(img)
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	part, ok := table.FirstFAT32()
	if !ok {
		t.Fatal("expected a FAT32 partition to be found")
	}
	if part.FirstLBA != 63 || part.SectorsCount != 2097152 {
		t.Fatalf("unexpected partition: %+v", part)
	}
	if got := part.SizeMB(); got != 1024 {
		t.Fatalf("SizeMB() = %d, want 1024", got)
	}
}

func TestFirstFAT32NoMatch(t *testing.T) {
	entries := [4]Entry{
		{PartType: 0xA5}, // unrelated (e.g. a BSD slice marker)
	}
	sector := buildSector(entries)
	img, _ := blockdev.NewImageFromBytes(sector)
	table, err := Read(img)
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if _, ok := table.FirstFAT32(); ok {
		t.Fatal("expected no match for an unrelated partition type")
	}
}
