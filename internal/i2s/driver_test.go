package i2s

import (
	"testing"

	"zigpod/internal/hal"
)

func TestStartSequencesCodecRegisters(t *testing.T) {
	m := hal.NewMock()
	h := m.HAL()
	d := New(h, nil)

	if err := d.Start(44100, 16); err != nil {
		t.Fatalf("Start: %v", err)
	}

	writes := m.I2CWrites()
	if len(writes) != 10 {
		t.Fatalf("I2CWrites() = %d entries, want 10 (one per codec bring-up step)", len(writes))
	}
	// First write must be the software reset register.
	if writes[0][0]>>1 != wm8758RegSoftwareReset {
		t.Fatalf("first codec write targeted register %d, want software reset (%d)", writes[0][0]>>1, wm8758RegSoftwareReset)
	}
	// Output mixer must be configured before volume registers.
	foundMixer, foundVolume := -1, -1
	for i, w := range writes {
		switch w[0] >> 1 {
		case wm8758RegOutputMixer1:
			foundMixer = i
		case wm8758RegLeftOutVol:
			if foundVolume == -1 {
				foundVolume = i
			}
		}
	}
	if foundMixer == -1 || foundVolume == -1 || foundMixer >= foundVolume {
		t.Fatalf("expected output mixer configured before volume; mixer=%d volume=%d", foundMixer, foundVolume)
	}
}

func TestSetVolumeWritesBothChannels(t *testing.T) {
	m := hal.NewMock()
	d := New(m.HAL(), nil)
	if err := d.Start(44100, 16); err != nil {
		t.Fatalf("Start: %v", err)
	}
	before := len(m.I2CWrites())
	if err := d.SetVolume(0.5); err != nil {
		t.Fatalf("SetVolume: %v", err)
	}
	after := m.I2CWrites()
	if len(after) != before+2 {
		t.Fatalf("SetVolume wrote %d registers, want 2", len(after)-before)
	}
}

func TestArmHalfBufferStartsDMAChannel(t *testing.T) {
	m := hal.NewMock()
	h := m.HAL()
	d := New(h, nil)
	if err := d.ArmHalfBuffer(0x1000, 2048*4); err != nil {
		t.Fatalf("ArmHalfBuffer: %v", err)
	}
	if st, _ := h.DMA.GetState(0); st != hal.DMAComplete {
		t.Fatalf("DMA channel 0 state = %v, want DMAComplete after Start", st)
	}
}
