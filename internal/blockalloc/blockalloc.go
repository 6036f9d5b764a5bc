// Package blockalloc implements the firmware's fixed-block allocator
// (§4.4): five pools of compile-time sizes, each backed by a contiguous
// byte array and a free-bitmap, with no coalescing and no fragmentation by
// construction. A real-time audio/storage firmware trades flexibility for
// the guarantee that allocation is O(pool size / 64) and never compacts.
package blockalloc

import (
	"errors"
	"fmt"
	"unsafe"
)

// ErrOutOfMemory is returned when no pool has a free block of sufficient
// size.
var ErrOutOfMemory = errors.New("blockalloc: out of memory")

// ErrRequestTooLarge is returned when n exceeds the largest pool's block size.
var ErrRequestTooLarge = errors.New("blockalloc: request exceeds largest pool block size")

// poolSizes are the five compile-time size classes from §4.4.
var poolSizes = [5]int{64, 256, 1024, 4096, 16384}

// dmaAlignment is the ARM cache line size; the DMA-aligned allocator
// variant guarantees every returned block starts on this boundary.
const dmaAlignment = 32

// pool owns one contiguous byte array and a bitmap of its free blocks.
type pool struct {
	blockSize int
	storage   []byte
	alignPad  int
	free      []uint64 // one bit per block; 1 == free
	blocks    int
}

func newPool(blockSize, count, alignment int) *pool {
	// Over-allocate by alignment bytes so alignPad can nudge storage[0]
	// forward to a real aligned address; alignPad is computed once here
	// against the backing array's actual runtime address, not guessed.
	raw := make([]byte, blockSize*count+alignment)
	pad := 0
	if alignment > 1 {
		start := uintptr(unsafe.Pointer(&raw[0]))
		aligned := (start + uintptr(alignment) - 1) &^ (uintptr(alignment) - 1)
		pad = int(aligned - start)
	}
	p := &pool{
		blockSize: blockSize,
		storage:   raw,
		alignPad:  pad,
		free:      make([]uint64, (count+63)/64),
		blocks:    count,
	}
	for i := range p.free {
		p.free[i] = ^uint64(0)
	}
	// Clear any bits beyond `count` in the last word so Alloc never hands
	// out a block past the storage array's end.
	if rem := count % 64; rem != 0 {
		p.free[len(p.free)-1] = (uint64(1) << uint(rem)) - 1
	}
	return p
}

func (p *pool) blockOffset(index int) int {
	return p.alignPad + index*p.blockSize
}

func (p *pool) alloc() ([]byte, int, bool) {
	for wordIdx, word := range p.free {
		if word == 0 {
			continue
		}
		bit := trailingZeros64(word)
		index := wordIdx*64 + bit
		if index >= p.blocks {
			continue
		}
		p.free[wordIdx] &^= 1 << uint(bit)
		off := p.blockOffset(index)
		return p.storage[off : off+p.blockSize], index, true
	}
	return nil, 0, false
}

func trailingZeros64(v uint64) int {
	n := 0
	for v&1 == 0 {
		v >>= 1
		n++
	}
	return n
}

func (p *pool) free_(index int) {
	wordIdx, bit := index/64, index%64
	// Idempotent: setting an already-free bit is a silent no-op.
	p.free[wordIdx] |= 1 << uint(bit)
}

func (p *pool) isFree(index int) bool {
	wordIdx, bit := index/64, index%64
	return p.free[wordIdx]&(1<<uint(bit)) != 0
}

// Allocator is a set of fixed-size pools; the smallest pool whose block
// size is >= a requested size satisfies that request.
type Allocator struct {
	pools     [5]*pool
	alignment int
	// outstanding maps a block's storage start address (as an index into
	// a conceptual flat space) back to (pool index, block index) so Free
	// can locate the owning pool without a linear search. Keyed by the
	// pointer identity of the slice's first byte.
	owner map[*byte]ownerInfo
}

type ownerInfo struct {
	poolIdx, blockIdx int
}

// PoolCounts configures how many blocks each of the five size classes
// (64B, 256B, 1KB, 4KB, 16KB) should hold.
type PoolCounts [5]int

// New returns an Allocator with no DMA alignment guarantee.
func New(counts PoolCounts) *Allocator {
	return newAllocator(counts, 1)
}

// NewDMAAligned returns an Allocator whose every returned block starts on
// a 32-byte (ARM cache line) boundary, for DMA descriptors and audio
// buffers per §4.4.
func NewDMAAligned(counts PoolCounts) *Allocator {
	return newAllocator(counts, dmaAlignment)
}

func newAllocator(counts PoolCounts, alignment int) *Allocator {
	a := &Allocator{alignment: alignment, owner: make(map[*byte]ownerInfo)}
	for i, size := range poolSizes {
		a.pools[i] = newPool(size, counts[i], alignment)
	}
	return a
}

// Alloc returns a zero-filled block whose length is the smallest pool's
// block size >= n. ErrRequestTooLarge if n exceeds the 16KB pool;
// ErrOutOfMemory if neither the selected pool nor any larger one has a
// free block.
func (a *Allocator) Alloc(n int) ([]byte, error) {
	for i, size := range poolSizes {
		if n > size {
			continue
		}
		for j := i; j < len(poolSizes); j++ {
			if block, idx, ok := a.pools[j].alloc(); ok {
				for k := range block {
					block[k] = 0
				}
				a.owner[&block[0]] = ownerInfo{j, idx}
				return block, nil
			}
		}
		return nil, fmt.Errorf("%w: no free block >= %d bytes", ErrOutOfMemory, n)
	}
	return nil, fmt.Errorf("%w: requested %d bytes", ErrRequestTooLarge, n)
}

// Free releases a block previously returned by Alloc. Double-free is a
// silent no-op per §4.4; callers building a debug binary should instead
// call FreeChecked to catch that case.
func (a *Allocator) Free(block []byte) {
	if len(block) == 0 {
		return
	}
	info, ok := a.owner[&block[0]]
	if !ok {
		return
	}
	a.pools[info.poolIdx].free_(info.blockIdx)
}

// FreeChecked behaves like Free but reports a double-free instead of
// silently ignoring it, for use in debug builds per §4.4's "debug builds
// must assert" requirement.
func (a *Allocator) FreeChecked(block []byte) error {
	if len(block) == 0 {
		return nil
	}
	info, ok := a.owner[&block[0]]
	if !ok {
		return fmt.Errorf("blockalloc: free of unknown block")
	}
	if a.pools[info.poolIdx].isFree(info.blockIdx) {
		return fmt.Errorf("blockalloc: double free of pool %d block %d", info.poolIdx, info.blockIdx)
	}
	a.pools[info.poolIdx].free_(info.blockIdx)
	return nil
}
