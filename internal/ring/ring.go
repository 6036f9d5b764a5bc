// Package ring implements a single-producer, single-consumer ring buffer
// generic over element type. It backs the audio engine's decode-to-DMA
// path and anywhere else one cooperative-scheduling producer hands data to
// one consumer without an intervening copy.
package ring

// Ring is a fixed-capacity circular buffer for exactly one producer and one
// consumer. No atomics guard the indices: on this firmware the producer
// (main-loop decode step) and the consumer (DMA-completion IRQ handler)
// never preempt each other mid-update, so plain reads/writes of the two
// indices are already safe. One slot is sacrificed so that write == read
// unambiguously means empty rather than colliding with full.
type Ring[T any] struct {
	buf        []T
	readIndex  int
	writeIndex int
}

// New returns a Ring with usable capacity of capacity elements (it
// allocates capacity+1 backing slots for the sacrificed slot).
func New[T any](capacity int) *Ring[T] {
	if capacity < 1 {
		capacity = 1
	}
	return &Ring[T]{buf: make([]T, capacity+1)}
}

// Cap returns the usable capacity (not the backing slice length).
func (r *Ring[T]) Cap() int { return len(r.buf) - 1 }

// Len returns the number of elements currently buffered.
func (r *Ring[T]) Len() int {
	n := r.writeIndex - r.readIndex
	if n < 0 {
		n += len(r.buf)
	}
	return n
}

// Free returns the number of elements that can still be pushed.
func (r *Ring[T]) Free() int { return r.Cap() - r.Len() }

// Empty reports whether the ring holds no elements.
func (r *Ring[T]) Empty() bool { return r.readIndex == r.writeIndex }

// Full reports whether the ring has no free slots.
func (r *Ring[T]) Full() bool { return r.Free() == 0 }

// Push appends v, returning false if the ring is full.
func (r *Ring[T]) Push(v T) bool {
	if r.Full() {
		return false
	}
	r.buf[r.writeIndex] = v
	r.writeIndex = (r.writeIndex + 1) % len(r.buf)
	return true
}

// Pop removes and returns the oldest element. ok is false if the ring is empty.
func (r *Ring[T]) Pop() (v T, ok bool) {
	if r.Empty() {
		return v, false
	}
	v = r.buf[r.readIndex]
	r.readIndex = (r.readIndex + 1) % len(r.buf)
	return v, true
}

// Peek returns the element offset slots ahead of the read cursor without
// consuming it. ok is false if offset is beyond the buffered count.
func (r *Ring[T]) Peek(offset int) (v T, ok bool) {
	if offset < 0 || offset >= r.Len() {
		return v, false
	}
	return r.buf[(r.readIndex+offset)%len(r.buf)], true
}

// Write bulk-copies src into the ring, pushing element by element, and
// returns the number actually written (less than len(src) if the ring
// fills up first).
func (r *Ring[T]) Write(src []T) int {
	n := 0
	for _, v := range src {
		if !r.Push(v) {
			break
		}
		n++
	}
	return n
}

// Read bulk-pops into dst and returns the number actually read (less than
// len(dst) if the ring empties first).
func (r *Ring[T]) Read(dst []T) int {
	n := 0
	for i := range dst {
		v, ok := r.Pop()
		if !ok {
			break
		}
		dst[i] = v
		n++
	}
	return n
}

// WritableSlice returns the contiguous run of backing storage available
// for an external fill, starting at the write cursor and never crossing
// the buffer wrap. Callers write into the returned slice directly, then
// call CommitWrite with however many elements they actually filled.
func (r *Ring[T]) WritableSlice() []T {
	if r.writeIndex >= r.readIndex {
		end := len(r.buf)
		if r.readIndex == 0 {
			end-- // can't touch the sacrificed slot when read is at 0
		}
		return r.buf[r.writeIndex:end]
	}
	return r.buf[r.writeIndex : r.readIndex-1]
}

// CommitWrite advances the write cursor by n after an external fill via
// WritableSlice. n must not exceed the slice length just returned.
func (r *Ring[T]) CommitWrite(n int) {
	r.writeIndex = (r.writeIndex + n) % len(r.buf)
}

// ReadableSlice returns the contiguous run of already-written elements
// starting at the read cursor, never crossing the buffer wrap. Callers
// consume from the returned slice directly, then call CommitRead.
func (r *Ring[T]) ReadableSlice() []T {
	if r.readIndex <= r.writeIndex {
		return r.buf[r.readIndex:r.writeIndex]
	}
	return r.buf[r.readIndex:]
}

// CommitRead advances the read cursor by n after an external drain via
// ReadableSlice. n must not exceed the slice length just returned.
func (r *Ring[T]) CommitRead(n int) {
	r.readIndex = (r.readIndex + n) % len(r.buf)
}

// Reset empties the ring without zeroing the backing storage.
func (r *Ring[T]) Reset() {
	r.readIndex = 0
	r.writeIndex = 0
}
