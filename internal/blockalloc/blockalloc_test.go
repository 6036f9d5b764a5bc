package blockalloc

import (
	"errors"
	"testing"
	"unsafe"
)

func addressOf(b []byte) uintptr {
	return uintptr(unsafe.Pointer(&b[0]))
}

func TestAllocSelectsSmallestFittingPool(t *testing.T) {
	a := New(PoolCounts{4, 4, 4, 4, 4})
	block, err := a.Alloc(10)
	if err != nil {
		t.Fatalf("Alloc: %v", err)
	}
	if len(block) != 64 {
		t.Fatalf("len(block) = %d, want 64 (smallest pool >= 10)", len(block))
	}
}

func TestAllocZeroesBlock(t *testing.T) {
	a := New(PoolCounts{2, 0, 0, 0, 0})
	block, err := a.Alloc(64)
	if err != nil {
		t.Fatalf("Alloc: %v", err)
	}
	for i := range block {
		block[i] = 0xFF
	}
	a.Free(block)
	block2, err := a.Alloc(64)
	if err != nil {
		t.Fatalf("Alloc: %v", err)
	}
	for i, b := range block2 {
		if b != 0 {
			t.Fatalf("block2[%d] = %#x, want zeroed", i, b)
		}
	}
}

func TestAllocRequestTooLarge(t *testing.T) {
	a := New(PoolCounts{1, 1, 1, 1, 1})
	if _, err := a.Alloc(20000); !errors.Is(err, ErrRequestTooLarge) {
		t.Fatalf("Alloc(20000) error = %v, want ErrRequestTooLarge", err)
	}
}

func TestAllocOutOfMemory(t *testing.T) {
	a := New(PoolCounts{1, 0, 0, 0, 0})
	if _, err := a.Alloc(64); err != nil {
		t.Fatalf("first Alloc: %v", err)
	}
	if _, err := a.Alloc(64); err == nil {
		t.Fatal("expected second Alloc to fail: pool exhausted")
	}
}

func TestFreeAllowsReuse(t *testing.T) {
	a := New(PoolCounts{1, 0, 0, 0, 0})
	b1, err := a.Alloc(64)
	if err != nil {
		t.Fatalf("Alloc: %v", err)
	}
	a.Free(b1)
	if _, err := a.Alloc(64); err != nil {
		t.Fatalf("expected reuse after Free to succeed: %v", err)
	}
}

func TestDoubleFreeIsSilentNoOp(t *testing.T) {
	a := New(PoolCounts{1, 0, 0, 0, 0})
	b1, _ := a.Alloc(64)
	a.Free(b1)
	a.Free(b1) // must not panic
}

func TestFreeCheckedCatchesDoubleFree(t *testing.T) {
	a := New(PoolCounts{1, 0, 0, 0, 0})
	b1, _ := a.Alloc(64)
	if err := a.FreeChecked(b1); err != nil {
		t.Fatalf("first FreeChecked: %v", err)
	}
	if err := a.FreeChecked(b1); err == nil {
		t.Fatal("expected FreeChecked to report double free")
	}
}

func TestDMAAlignedBlocksAre32ByteAligned(t *testing.T) {
	a := NewDMAAligned(PoolCounts{0, 0, 0, 4, 0})
	for i := 0; i < 4; i++ {
		block, err := a.Alloc(4096)
		if err != nil {
			t.Fatalf("Alloc: %v", err)
		}
		addr := addressOf(block)
		if addr%32 != 0 {
			t.Fatalf("block %d not 32-byte aligned: address %#x", i, addr)
		}
	}
}
