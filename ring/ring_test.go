package ring

import (
	"bytes"
	"testing"
)

func u32(v uint32) []byte {
	return []byte{byte(v), byte(v >> 8), byte(v >> 16), byte(v >> 24)}
}

func items(vs ...uint32) []byte {
	var buf []byte
	for _, v := range vs {
		buf = append(buf, u32(v)...)
	}
	return buf
}

// S1: ring wrap. item_size=4, capacity=8, non-overwrite.
func TestWrapContiguousPeek(t *testing.T) {
	r, err := New(8, 4, false)
	if err != nil {
		t.Fatal(err)
	}
	defer r.Close()

	if n := r.Write(items(1, 2, 3, 4, 5, 6), 6); n != 6 {
		t.Fatalf("write: got %d, want 6", n)
	}
	got := make([]byte, 16)
	if n := r.Read(got, 4); n != 4 {
		t.Fatalf("read: got %d, want 4", n)
	}
	if n := r.Write(items(7, 8, 9, 10, 11), 5); n != 5 {
		t.Fatalf("write: got %d, want 5", n)
	}

	if occ := r.DataAvailable(); occ != 7 {
		t.Fatalf("occupancy: got %d, want 7", occ)
	}
	span, n := r.Peek()
	if n != 7 {
		t.Fatalf("peek len: got %d, want 7", n)
	}
	want := items(5, 6, 7, 8, 9, 10, 11)
	if !bytes.Equal(span, want) {
		t.Fatalf("peek contents: got %v, want %v", span, want)
	}
}

// S2: overwrite mode.
func TestOverwrite(t *testing.T) {
	r, err := New(4, 4, true)
	if err != nil {
		t.Fatal(err)
	}
	defer r.Close()

	if n := r.Write(items(1, 2, 3, 4, 5, 6), 6); n != 4 {
		t.Fatalf("write: got %d, want 4", n)
	}
	if occ := r.DataAvailable(); occ != 4 {
		t.Fatalf("occupancy: got %d, want 4", occ)
	}
	span, n := r.Peek()
	if n != 4 {
		t.Fatalf("peek len: got %d, want 4", n)
	}
	want := items(3, 4, 5, 6)
	if !bytes.Equal(span, want) {
		t.Fatalf("peek contents: got %v, want %v", span, want)
	}
}

// P1: non-overwrite write/read occupancy stays within bounds.
func TestNonOverwriteBounds(t *testing.T) {
	r, err := New(16, 4, false)
	if err != nil {
		t.Fatal(err)
	}
	defer r.Close()

	var totalWrite, totalRead uint64
	seq := []struct{ write, read int }{
		{5, 0}, {0, 3}, {20, 0}, {0, 100}, {10, 2},
	}
	buf := make([]byte, 20*4)
	for _, s := range seq {
		if s.write > 0 {
			n := r.Write(buf[:s.write*4], s.write)
			totalWrite += uint64(n)
		}
		if s.read > 0 {
			n := r.Read(buf, s.read)
			totalRead += uint64(n)
		}
		if totalRead > totalWrite || totalWrite > totalRead+16 {
			t.Fatalf("invariant broken: written=%d read=%d", totalWrite, totalRead)
		}
	}
}

// P7: flush resets occupancy and free space.
func TestFlush(t *testing.T) {
	r, err := New(8, 4, false)
	if err != nil {
		t.Fatal(err)
	}
	defer r.Close()

	r.Write(items(1, 2, 3), 3)
	r.Read(make([]byte, 8), 2)
	r.Flush()

	if occ := r.DataAvailable(); occ != 0 {
		t.Fatalf("occupancy after flush: got %d, want 0", occ)
	}
	if sp := r.SpaceAvailable(); sp != 8 {
		t.Fatalf("space after flush: got %d, want 8", sp)
	}
}

func TestInvalidParameters(t *testing.T) {
	if _, err := New(0, 4, false); err != ErrInvalidParameter {
		t.Fatalf("capacity=0: got %v, want ErrInvalidParameter", err)
	}
	if _, err := New(8, 0, false); err != ErrInvalidParameter {
		t.Fatalf("itemSize=0: got %v, want ErrInvalidParameter", err)
	}
}

func TestComplexRingRoundTrip(t *testing.T) {
	cr, err := NewComplexRing(16, false)
	if err != nil {
		t.Fatal(err)
	}
	defer cr.Close()

	in := []complex64{1 + 2i, 3 + 4i, 5 + 6i}
	if n := cr.Write(in); n != len(in) {
		t.Fatalf("write: got %d, want %d", n, len(in))
	}
	out := cr.Peek()
	if len(out) != len(in) {
		t.Fatalf("peek len: got %d, want %d", len(out), len(in))
	}
	for i := range in {
		if out[i] != in[i] {
			t.Fatalf("sample %d: got %v, want %v", i, out[i], in[i])
		}
	}
}
