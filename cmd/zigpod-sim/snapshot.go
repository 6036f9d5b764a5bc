package main

import (
	"bytes"
	"encoding/gob"
	"fmt"
	"os"

	"zigpod/internal/bootconfig"
)

// snapshotVersion is bumped whenever Snapshot's shape changes in a way
// that breaks decoding an older file.
const snapshotVersion = 1

func init() {
	gob.Register(Snapshot{})
	gob.Register(bootconfig.Record{})
}

// Snapshot is the host simulator's save-state format: the whole disk
// image plus the boot-configuration record and the last jump's
// parameters, enough to resume a regression run or diff a run against a
// known-good one. Adapted from the teacher's gob-encoded SaveState in
// internal/emulator/savestate.go — PPU/APU/memory state there becomes
// disk bytes and the boot record here.
type Snapshot struct {
	Version     uint16
	DiskBytes   []byte
	Record      bootconfig.Record
	EntryPoint  uint32
	LoadAddress uint32
	BodyLength  int
}

// WriteSnapshot gob-encodes snap and writes it to path.
func WriteSnapshot(path string, snap Snapshot) error {
	snap.Version = snapshotVersion
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(snap); err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}
	return os.WriteFile(path, buf.Bytes(), 0o644)
}

// ReadSnapshot decodes a gob-encoded Snapshot from path.
func ReadSnapshot(path string) (Snapshot, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return Snapshot{}, fmt.Errorf("read snapshot: %w", err)
	}
	var snap Snapshot
	if err := gob.NewDecoder(bytes.NewReader(raw)).Decode(&snap); err != nil {
		return Snapshot{}, fmt.Errorf("decode snapshot: %w", err)
	}
	if snap.Version != snapshotVersion {
		return Snapshot{}, fmt.Errorf("snapshot version %d, want %d", snap.Version, snapshotVersion)
	}
	return snap, nil
}
