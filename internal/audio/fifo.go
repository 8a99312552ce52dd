package audio

// FIFO is a fixed-capacity sample queue. Capacity is rounded up to a power
// of two so positions wrap with a mask. It is meant for a single goroutine.
type FIFO struct {
	data     []float32
	mask     uint32
	size     int
	readPos  uint32
	writePos uint32
}

// NewFIFO creates a FIFO holding at least capacity samples.
func NewFIFO(capacity int) *FIFO {
	cap2 := 1
	for cap2 < capacity {
		cap2 <<= 1
	}
	return &FIFO{
		data: make([]float32, cap2),
		mask: uint32(cap2 - 1),
	}
}

// Write appends as many samples as fit and returns how many were written.
func (f *FIFO) Write(samples []float32) int {
	n := min(len(samples), len(f.data)-f.size)
	for _, s := range samples[:n] {
		f.data[f.writePos&f.mask] = s
		f.writePos++
	}
	f.size += n
	return n
}

// ReadInto moves up to len(dst) samples into dst and returns the count.
func (f *FIFO) ReadInto(dst []float32) int {
	n := min(len(dst), f.size)
	for i := range n {
		dst[i] = f.data[f.readPos&f.mask]
		f.readPos++
	}
	f.size -= n
	return n
}

// Available returns the number of queued samples.
func (f *FIFO) Available() int { return f.size }

// Space returns the number of samples that can still be written.
func (f *FIFO) Space() int { return len(f.data) - f.size }

// Capacity returns the buffer capacity.
func (f *FIFO) Capacity() int { return len(f.data) }

// Clear drops all queued samples.
func (f *FIFO) Clear() {
	f.size = 0
	f.readPos = 0
	f.writePos = 0
}
