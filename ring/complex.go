package ring

import "unsafe"

const complex64Size = int(unsafe.Sizeof(complex64(0)))

// ComplexRing is a Ring specialized to hold complex64 samples, used for both
// the raw input stream (X) and the filtered-output stream (Y) of the
// adaptive error filter.
type ComplexRing struct{ r *Ring }

// NewComplexRing constructs a complex64 ring of the given capacity in
// samples.
func NewComplexRing(capacity int, overwrite bool) (*ComplexRing, error) {
	r, err := New(capacity, complex64Size, overwrite)
	if err != nil {
		return nil, err
	}
	return &ComplexRing{r}, nil
}

func bytesOf(s []complex64) []byte {
	if len(s) == 0 {
		return nil
	}
	return unsafe.Slice((*byte)(unsafe.Pointer(&s[0])), len(s)*complex64Size)
}

func complexesOf(b []byte) []complex64 {
	if len(b) == 0 {
		return nil
	}
	return unsafe.Slice((*complex64)(unsafe.Pointer(&b[0])), len(b)/complex64Size)
}

func (c *ComplexRing) Close() error { return c.r.Close() }

func (c *ComplexRing) Write(src []complex64) int { return c.r.Write(bytesOf(src), len(src)) }

func (c *ComplexRing) Read(dst []complex64) int { return c.r.Read(bytesOf(dst), len(dst)) }

// Peek returns the readable region as a contiguous complex64 slice.
func (c *ComplexRing) Peek() []complex64 {
	span, _ := c.r.Peek()
	return complexesOf(span)
}

func (c *ComplexRing) Purge(n int) int { return c.r.Purge(n) }

func (c *ComplexRing) Flush() { c.r.Flush() }

func (c *ComplexRing) DataAvailable() uint64 { return c.r.DataAvailable() }

func (c *ComplexRing) SpaceAvailable() uint64 { return c.r.SpaceAvailable() }

func (c *ComplexRing) Capacity() uint64 { return c.r.Capacity() }
