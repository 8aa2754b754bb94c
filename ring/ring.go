// Package ring implements the contiguous ring buffer (CRB) used to shuttle
// samples and scalar errors between the DSP stages in package dsp/fcch.
//
// The defining property, inherited from the GNU Radio / kalibrate circular
// buffer this is modeled on, is that the readable region is always handed
// back to the caller as a single contiguous span, even when it wraps past
// the physical end of the backing buffer. That is achieved by mapping the
// same physical pages twice, back to back, in virtual memory: a read
// starting anywhere in the first copy can run up to a full buffer length
// without ever falling off the end.
package ring

import (
	"errors"
	"fmt"
	"sync"
	"unsafe"

	"golang.org/x/sys/unix"
)

// ErrInvalidParameter is returned when capacity or item size is zero.
var ErrInvalidParameter = errors.New("ring: invalid parameter")

// ErrResourceUnavailable is returned when the OS refuses the double mapping.
var ErrResourceUnavailable = errors.New("ring: resource unavailable")

// Ring is a fixed-capacity single-producer/single-consumer byte ring whose
// readable (and writable) region is always contiguous in memory.
type Ring struct {
	mu sync.Mutex

	itemSize  int
	capacity  uint64 // items
	bufBytes  int    // capacity * itemSize, rounded up to a page multiple
	overwrite bool

	written uint64
	read    uint64

	mem      []byte // full reservation: guard | buf | buf | guard
	data     []byte // mem[pagesize : pagesize+2*bufBytes], the logical view
	pagesize int
}

// New constructs a ring holding up to capacity items of itemSize bytes each.
// In overwrite mode, writes never fail: the oldest items are dropped to make
// room. In non-overwrite mode, writes beyond the free space are truncated.
func New(capacity, itemSize int, overwrite bool) (*Ring, error) {
	if capacity <= 0 || itemSize <= 0 {
		return nil, ErrInvalidParameter
	}

	pagesize := unix.Getpagesize()
	bufBytes := itemSize * capacity
	if rem := bufBytes % pagesize; rem != 0 {
		bufBytes += pagesize - rem
	}

	mem, err := doubleMap(bufBytes, pagesize)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrResourceUnavailable, err)
	}

	return &Ring{
		itemSize:  itemSize,
		capacity:  uint64(capacity),
		bufBytes:  bufBytes,
		overwrite: overwrite,
		mem:       mem,
		data:      mem[pagesize : pagesize+2*bufBytes : pagesize+2*bufBytes],
		pagesize:  pagesize,
	}, nil
}

// Close releases the double mapping. The ring must not be used afterward.
func (r *Ring) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.mem == nil {
		return nil
	}
	err := unix.Munmap(r.mem)
	r.mem, r.data = nil, nil
	return err
}

// ItemSize returns the size, in bytes, of one item.
func (r *Ring) ItemSize() int { return r.itemSize }

// Capacity returns the ring's capacity in items.
func (r *Ring) Capacity() uint64 { return r.capacity }

func (r *Ring) occupancy() uint64 { return r.written - r.read }

// DataAvailable returns the number of items ready to be read.
func (r *Ring) DataAvailable() uint64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.occupancy()
}

// SpaceAvailable returns the number of items that can be written before the
// ring is full: capacity minus occupancy, in either mode.
func (r *Ring) SpaceAvailable() uint64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.capacity - r.occupancy()
}

// Byte offsets are taken modulo the physical buffer, which may be larger than
// capacity*itemSize; the double mapping keeps any span of up to capacity items
// contiguous from either offset.
func (r *Ring) rOff() int { return int(r.read * uint64(r.itemSize) % uint64(r.bufBytes)) }
func (r *Ring) wOff() int { return int(r.written * uint64(r.itemSize) % uint64(r.bufBytes)) }

// maybeReset snaps both offsets back to zero once the ring has fully
// drained; purely an optimization, never required for correctness.
func (r *Ring) maybeReset() {
	if r.read == r.written {
		r.read, r.written = 0, 0
	}
}

// Write copies min(n, free) items from src into the ring in non-overwrite
// mode. In overwrite mode it copies the last min(n, capacity) items of src,
// dropping the oldest buffered items as needed to make room. Returns the
// number of items copied.
func (r *Ring) Write(src []byte, n int) int {
	r.mu.Lock()
	defer r.mu.Unlock()

	srcOff := 0
	if r.overwrite {
		if uint64(n) > r.capacity {
			srcOff = n - int(r.capacity)
			n = int(r.capacity)
		}
	} else {
		free := int(r.capacity - r.occupancy())
		if n > free {
			n = free
		}
	}
	if n <= 0 {
		return 0
	}

	copy(r.data[r.wOff():], src[srcOff*r.itemSize:(srcOff+n)*r.itemSize])
	r.written += uint64(n)
	if r.overwrite && r.written > r.capacity+r.read {
		r.read = r.written - r.capacity
	}
	r.maybeReset()
	return n
}

// Read copies min(n, occupancy) items into dst and advances the read
// position. Returns the number of items copied.
func (r *Ring) Read(dst []byte, n int) int {
	r.mu.Lock()
	defer r.mu.Unlock()

	if occ := int(r.occupancy()); n > occ {
		n = occ
	}
	if n <= 0 {
		return 0
	}
	copy(dst[:n*r.itemSize], r.data[r.rOff():])
	r.read += uint64(n)
	r.maybeReset()
	return n
}

// Peek returns the start of the readable region and its length in items. The
// span is guaranteed contiguous even across wrap-around. The pointer remains
// valid only until the next call that mutates the ring.
func (r *Ring) Peek() (span []byte, items int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := int(r.occupancy())
	return r.data[r.rOff() : r.rOff()+n*r.itemSize], n
}

// Poke returns the start of the writable region and its length in items.
func (r *Ring) Poke() (span []byte, items int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := int(r.capacity - r.occupancy())
	return r.data[r.wOff() : r.wOff()+n*r.itemSize], n
}

// Wrote commits n items previously written in-place through the span
// returned by Poke.
func (r *Ring) Wrote(n int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.written += uint64(n)
}

// Purge drops up to n read items without copying them out. Returns the
// number of items actually dropped.
func (r *Ring) Purge(n int) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	if occ := int(r.occupancy()); n > occ {
		n = occ
	}
	if n <= 0 {
		return 0
	}
	r.read += uint64(n)
	r.maybeReset()
	return n
}

// Flush resets the ring to empty.
func (r *Ring) Flush() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.read, r.written = 0, 0
}

// doubleMap reserves a virtual range of 2*pagesize+2*bufBytes, leaves
// inaccessible (PROT_NONE) guard pages at either end, and maps the same
// physical memfd-backed buffer twice, back to back, in the middle. The
// returned slice spans the entire reservation so Close can Munmap it in one
// shot; callers slice into mem[pagesize:pagesize+2*bufBytes] for the logical
// view.
func doubleMap(bufBytes, pagesize int) ([]byte, error) {
	fd, err := unix.MemfdCreate("crb", 0)
	if err != nil {
		return nil, fmt.Errorf("memfd_create: %w", err)
	}
	defer unix.Close(fd)

	if err := unix.Ftruncate(fd, int64(bufBytes)); err != nil {
		return nil, fmt.Errorf("ftruncate: %w", err)
	}

	total := 2*pagesize + 2*bufBytes
	mem, err := unix.Mmap(-1, 0, total, unix.PROT_NONE, unix.MAP_ANON|unix.MAP_PRIVATE)
	if err != nil {
		return nil, fmt.Errorf("mmap reservation: %w", err)
	}

	addr := uintptr(unsafe.Pointer(&mem[0]))
	mapFixed := func(off uintptr, length int) error {
		_, _, errno := unix.Syscall6(unix.SYS_MMAP,
			addr+off, uintptr(length),
			uintptr(unix.PROT_READ|unix.PROT_WRITE),
			uintptr(unix.MAP_SHARED|unix.MAP_FIXED),
			uintptr(fd), 0)
		if errno != 0 {
			return errno
		}
		return nil
	}

	if err := mapFixed(uintptr(pagesize), bufBytes); err != nil {
		unix.Munmap(mem)
		return nil, fmt.Errorf("mmap copy 1: %w", err)
	}
	if err := mapFixed(uintptr(pagesize+bufBytes), bufBytes); err != nil {
		unix.Munmap(mem)
		return nil, fmt.Errorf("mmap copy 2: %w", err)
	}

	return mem, nil
}
