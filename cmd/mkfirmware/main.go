// mkfirmware packs an application body into a firmware.bin image: a
// 256-byte header (magic, version, load/entry addresses, CRC32 of the
// body) followed by the body itself, ready to be copied to
// /.zigpod/firmware.bin on a FAT32 partition. Adapted from the teacher's
// cmd/rombuilder, which hand-assembled a ROM's instruction stream; this
// tool instead wraps an already-built binary body with the header
// internal/bootrom's Verify step expects.
package main

import (
	"encoding/binary"
	"fmt"
	"hash/crc32"
	"os"
	"time"

	"github.com/go-restruct/restruct"
	"github.com/jessevdk/go-flags"

	"zigpod/internal/firmware"
)

type options struct {
	Body        string `short:"b" long:"body" description:"Path to the application body (raw binary)" required:"true"`
	Output      string `short:"o" long:"output" description:"Path to write firmware.bin to" required:"true"`
	LoadAddress uint32 `short:"l" long:"load-address" description:"Load address in DRAM" default:"1073745920"`
	EntryOffset uint32 `short:"e" long:"entry-offset" description:"Entry point offset from load-address" default:"16"`
	VersionMajor uint8 `long:"version-major" default:"0"`
	VersionMinor uint8 `long:"version-minor" default:"1"`
	VersionPatch uint8 `long:"version-patch" default:"0"`
	MinBootloaderVersion uint8 `long:"min-bootloader-version" default:"1"`
}

func main() {
	var opts options
	parser := flags.NewParser(&opts, flags.Default)
	if _, err := parser.Parse(); err != nil {
		os.Exit(1)
	}

	body, err := os.ReadFile(opts.Body)
	if err != nil {
		fmt.Fprintf(os.Stderr, "mkfirmware: read body: %v\n", err)
		os.Exit(1)
	}

	h := firmware.Header{
		Magic:                firmware.Magic,
		VersionMajor:         opts.VersionMajor,
		VersionMinor:         opts.VersionMinor,
		VersionPatch:         opts.VersionPatch,
		EntryPoint:           opts.LoadAddress + opts.EntryOffset,
		LoadAddress:          opts.LoadAddress,
		FirmwareSize:         uint32(len(body)),
		BodyCRC32:            crc32.ChecksumIEEE(body),
		BuildTimestamp:       uint32(time.Now().Unix()),
		MinBootloaderVersion: opts.MinBootloaderVersion,
	}

	if err := h.Validate(body); err != nil {
		fmt.Fprintf(os.Stderr, "mkfirmware: built header fails its own validation: %v\n", err)
		os.Exit(1)
	}

	raw, err := restruct.Pack(binary.LittleEndian, &h)
	if err != nil {
		fmt.Fprintf(os.Stderr, "mkfirmware: pack header: %v\n", err)
		os.Exit(1)
	}
	if len(raw) != firmware.HeaderSize {
		fmt.Fprintf(os.Stderr, "mkfirmware: packed header is %d bytes, want %d\n", len(raw), firmware.HeaderSize)
		os.Exit(1)
	}

	out, err := os.Create(opts.Output)
	if err != nil {
		fmt.Fprintf(os.Stderr, "mkfirmware: create output: %v\n", err)
		os.Exit(1)
	}
	defer out.Close()

	if _, err := out.Write(raw); err != nil {
		fmt.Fprintf(os.Stderr, "mkfirmware: write header: %v\n", err)
		os.Exit(1)
	}
	if _, err := out.Write(body); err != nil {
		fmt.Fprintf(os.Stderr, "mkfirmware: write body: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("wrote %s: header %d bytes, body %d bytes, entry=0x%08X load=0x%08X\n",
		opts.Output, len(raw), len(body), h.EntryPoint, h.LoadAddress)
}
