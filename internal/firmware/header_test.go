package firmware

import (
	"encoding/binary"
	"hash/crc32"
	"testing"

	"github.com/go-restruct/restruct"
)

func mustPack(t *testing.T, h Header) []byte {
	t.Helper()
	raw, err := restruct.Pack(binary.LittleEndian, &h)
	if err != nil {
		t.Fatalf("Pack: %v", err)
	}
	return raw
}

func validHeader(body []byte) Header {
	return Header{
		Magic:        Magic,
		EntryPoint:   DRAMLow + 16,
		LoadAddress:  DRAMLow,
		FirmwareSize: uint32(len(body)),
		BodyCRC32:    crc32.ChecksumIEEE(body),
	}
}

func TestParseValidHeaderRoundTrips(t *testing.T) {
	body := make([]byte, 1024)
	h := validHeader(body)
	raw := mustPack(t, h)

	got, err := Parse(raw)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if got.Magic != Magic || got.LoadAddress != h.LoadAddress || got.EntryPoint != h.EntryPoint {
		t.Fatalf("round-tripped header mismatch: %+v", got)
	}
	if err := got.Validate(body); err != nil {
		t.Fatalf("Validate: %v", err)
	}
}

func TestParseTruncatedHeader(t *testing.T) {
	if _, err := Parse(make([]byte, 10)); err != ErrTruncated {
		t.Fatalf("expected ErrTruncated, got %v", err)
	}
}

func TestValidateRejectsBadMagic(t *testing.T) {
	body := make([]byte, 16)
	h := validHeader(body)
	h.Magic = 0xDEADBEEF
	if err := h.Validate(body); err == nil {
		t.Fatal("expected error for bad magic")
	}
}

func TestValidateRejectsEntryPointOutsideBody(t *testing.T) {
	body := make([]byte, 16)
	h := validHeader(body)
	h.EntryPoint = h.LoadAddress + h.FirmwareSize + 100
	if err := h.Validate(body); err == nil {
		t.Fatal("expected error for entry point outside body")
	}
}

func TestValidateRejectsLoadAddressOutsideDRAM(t *testing.T) {
	body := make([]byte, 16)
	h := validHeader(body)
	h.LoadAddress = 0x10000000
	h.EntryPoint = h.LoadAddress
	if err := h.Validate(body); err == nil {
		t.Fatal("expected error for load address outside DRAM")
	}
}

func TestValidateRejectsOversizedFirmware(t *testing.T) {
	body := make([]byte, 16)
	h := validHeader(body)
	h.FirmwareSize = MaxFirmwareSize + 1
	if err := h.Validate(body); err == nil {
		t.Fatal("expected error for oversized firmware")
	}
}

func TestValidateRejectsCRCMismatch(t *testing.T) {
	body := make([]byte, 16)
	h := validHeader(body)
	h.BodyCRC32 ^= 0xFFFFFFFF
	if err := h.Validate(body); err == nil {
		t.Fatal("expected error for CRC mismatch")
	}
}
