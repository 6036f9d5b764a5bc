// Package bootconfig implements the persisted boot-configuration record
// the bootloader reads before every boot and rewrites before jumping to
// the application, per §3's three-strike fallback lifecycle.
package bootconfig

import (
	"encoding/binary"

	"github.com/go-restruct/restruct"
)

// Magic identifies a valid record, shared with the firmware image header.
const Magic = 0x5A504F44

// BootTarget selects which image the bootloader jumps to.
type BootTarget uint8

const (
	TargetZigPod BootTarget = iota
	TargetApple
	TargetRecovery
	TargetDFU
	TargetSafe
)

// FailureReason records why the previous boot attempt did not reach the
// success signal.
type FailureReason uint8

const (
	FailureNone FailureReason = iota
	FailureWatchdog
	FailureHwCheck
	FailureValidation
	FailureUser
)

// defaultTimeoutMS is substituted, along with TargetZigPod, whenever the
// stored record fails its magic or checksum check (§4.2 step 4).
const defaultTimeoutMS = 3000

// maxConsecutiveFailures is the three-strike threshold past which the
// bootloader forces target=Apple (§4.2 step 7).
const maxConsecutiveFailures = 3

// Record is the on-disk/on-flash layout of the boot configuration. Field
// order matches §3; Checksum covers every preceding byte.
type Record struct {
	Magic               uint32
	Version             uint8
	DefaultBootTarget   BootTarget
	TimeoutMS           uint32
	BootCount           uint32
	ConsecutiveFailures uint32
	LastFailureReason   FailureReason
	Flags               uint8
	Checksum            uint32
}

// Default returns the factory-default record substituted whenever the
// stored one fails validation.
func Default() Record {
	return Record{
		Magic:             Magic,
		Version:           1,
		DefaultBootTarget: TargetZigPod,
		TimeoutMS:         defaultTimeoutMS,
	}
}

// Checksummed returns a copy of r with Checksum set to the correct value
// for its other fields.
func (r Record) Checksummed() Record {
	r.Checksum = 0
	r.Checksum = checksum(r)
	return r
}

// Valid reports whether r's magic is correct and its stored checksum
// matches a recomputation over the rest of the record — the "any mismatch
// implies factory defaults" invariant in §3.
func (r Record) Valid() bool {
	if r.Magic != Magic {
		return false
	}
	withoutChecksum := r
	withoutChecksum.Checksum = 0
	return checksum(withoutChecksum) == r.Checksum
}

// checksum is an additive sum of every byte XORed with a fixed constant,
// per §9's definition of the record's checksum algorithm.
func checksum(r Record) uint32 {
	raw, err := restruct.Pack(binary.LittleEndian, &r)
	if err != nil {
		// Record's layout is fixed and always packable; a failure here
		// means the struct definition itself is broken.
		panic("bootconfig: record is not packable: " + err.Error())
	}
	var sum uint32
	for _, b := range raw {
		sum += uint32(b)
	}
	return sum ^ 0xA5A5A5A5
}

// Decode unpacks raw into a Record.
func Decode(raw []byte) (Record, error) {
	var r Record
	if err := restruct.Unpack(raw, binary.LittleEndian, &r); err != nil {
		return Record{}, err
	}
	return r, nil
}

// Encode packs r to its on-disk byte layout.
func (r Record) Encode() ([]byte, error) {
	return restruct.Pack(binary.LittleEndian, &r)
}

// OnBootAttempt returns the record to persist before jumping to the
// application: consecutive_failures incremented and boot_count
// incremented, per the lifecycle in §3 ("incremented before the
// application is jumped to").
func (r Record) OnBootAttempt() Record {
	r.BootCount++
	r.ConsecutiveFailures++
	return r.Checksummed()
}

// OnBootSuccess returns the record the application writes once it reaches
// a stable state: consecutive_failures cleared, failure reason cleared.
func (r Record) OnBootSuccess() Record {
	r.ConsecutiveFailures = 0
	r.LastFailureReason = FailureNone
	return r.Checksummed()
}

// OnBootFailure returns the record to persist after a failed attempt,
// recording why.
func (r Record) OnBootFailure(reason FailureReason) Record {
	r.LastFailureReason = reason
	return r.Checksummed()
}

// OnUserAcknowledgeFallback returns the record to persist once the user has
// dismissed the Apple-fallback screen reached after the three-strike
// threshold: consecutive_failures resets so the next power-on gets a fresh
// three attempts at TargetZigPod rather than being stuck at target=Apple
// forever, per §3's "fail counter resets on user acknowledgement".
func (r Record) OnUserAcknowledgeFallback() Record {
	r.ConsecutiveFailures = 0
	r.LastFailureReason = FailureUser
	return r.Checksummed()
}

// ShouldFallBack reports whether the three-strike threshold has been
// reached and the bootloader must force BootTarget to TargetApple.
func (r Record) ShouldFallBack() bool {
	return r.ConsecutiveFailures >= maxConsecutiveFailures
}

// EffectiveTarget returns DefaultBootTarget, unless ShouldFallBack forces
// TargetApple regardless of what was requested.
func (r Record) EffectiveTarget() BootTarget {
	if r.ShouldFallBack() {
		return TargetApple
	}
	return r.DefaultBootTarget
}
