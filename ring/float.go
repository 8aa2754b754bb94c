package ring

import "unsafe"

const float32Size = int(unsafe.Sizeof(float32(0)))

// FloatRing is a Ring specialized to hold float32 scalars, used for the
// adaptive error filter's normalized-error output stream (E).
type FloatRing struct{ r *Ring }

// NewFloatRing constructs a float32 ring of the given capacity in samples.
func NewFloatRing(capacity int, overwrite bool) (*FloatRing, error) {
	r, err := New(capacity, float32Size, overwrite)
	if err != nil {
		return nil, err
	}
	return &FloatRing{r}, nil
}

func floatBytesOf(s []float32) []byte {
	if len(s) == 0 {
		return nil
	}
	return unsafe.Slice((*byte)(unsafe.Pointer(&s[0])), len(s)*float32Size)
}

func floatsOf(b []byte) []float32 {
	if len(b) == 0 {
		return nil
	}
	return unsafe.Slice((*float32)(unsafe.Pointer(&b[0])), len(b)/float32Size)
}

func (f *FloatRing) Close() error { return f.r.Close() }

func (f *FloatRing) Write(src []float32) int { return f.r.Write(floatBytesOf(src), len(src)) }

func (f *FloatRing) Read(dst []float32) int { return f.r.Read(floatBytesOf(dst), len(dst)) }

// Peek returns the readable region as a contiguous float32 slice.
func (f *FloatRing) Peek() []float32 {
	span, _ := f.r.Peek()
	return floatsOf(span)
}

func (f *FloatRing) Purge(n int) int { return f.r.Purge(n) }

func (f *FloatRing) Flush() { f.r.Flush() }

func (f *FloatRing) DataAvailable() uint64 { return f.r.DataAvailable() }
