package ring

import "testing"

func TestPushPopOrder(t *testing.T) {
	r := New[int](4)
	for _, v := range []int{1, 2, 3} {
		if !r.Push(v) {
			t.Fatalf("Push(%d) failed unexpectedly", v)
		}
	}
	for _, want := range []int{1, 2, 3} {
		got, ok := r.Pop()
		if !ok || got != want {
			t.Fatalf("Pop() = %d, %v; want %d, true", got, ok, want)
		}
	}
}

func TestFullRejectsPush(t *testing.T) {
	r := New[int](2)
	if !r.Push(1) || !r.Push(2) {
		t.Fatal("expected first two pushes to succeed")
	}
	if r.Push(3) {
		t.Fatal("expected Push to fail once ring is full")
	}
}

func TestEmptyPopFails(t *testing.T) {
	r := New[int](2)
	if _, ok := r.Pop(); ok {
		t.Fatal("expected Pop on empty ring to fail")
	}
}

func TestWrapAround(t *testing.T) {
	r := New[int](3)
	r.Push(1)
	r.Push(2)
	r.Pop()
	r.Pop()
	r.Push(3)
	r.Push(4)
	r.Push(5)
	var got []int
	for {
		v, ok := r.Pop()
		if !ok {
			break
		}
		got = append(got, v)
	}
	want := []int{3, 4, 5}
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("got %v, want %v", got, want)
		}
	}
}

func TestPeekDoesNotConsume(t *testing.T) {
	r := New[int](4)
	r.Push(10)
	r.Push(20)
	v, ok := r.Peek(1)
	if !ok || v != 20 {
		t.Fatalf("Peek(1) = %d, %v; want 20, true", v, ok)
	}
	if r.Len() != 2 {
		t.Fatalf("Peek must not consume; Len() = %d, want 2", r.Len())
	}
}

func TestBulkWriteRead(t *testing.T) {
	r := New[int16](8)
	src := []int16{1, 2, 3, 4, 5}
	n := r.Write(src)
	if n != 5 {
		t.Fatalf("Write returned %d, want 5", n)
	}
	dst := make([]int16, 5)
	n = r.Read(dst)
	if n != 5 {
		t.Fatalf("Read returned %d, want 5", n)
	}
	for i, v := range src {
		if dst[i] != v {
			t.Fatalf("dst[%d] = %d, want %d", i, dst[i], v)
		}
	}
}

func TestWritableSliceNeverCrossesWrap(t *testing.T) {
	r := New[int](4)
	r.Push(1)
	r.Push(2)
	r.Push(3)
	r.Pop()
	r.Pop()
	// write cursor is now at index 3, read cursor at index 2, backing len 5.
	slice := r.WritableSlice()
	if len(slice) == 0 {
		t.Fatal("expected a non-empty writable run")
	}
	for i := range slice {
		slice[i] = 100 + i
	}
	r.CommitWrite(len(slice))
	if r.Free() < 0 {
		t.Fatal("committed more than was free")
	}
}

func TestFreeAndLenComplementCapacity(t *testing.T) {
	r := New[int](5)
	r.Push(1)
	r.Push(2)
	if r.Len()+r.Free() != r.Cap() {
		t.Fatalf("Len()+Free() = %d, want Cap() = %d", r.Len()+r.Free(), r.Cap())
	}
}
