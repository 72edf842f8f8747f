package recorder

import "sync/atomic"

// RingCapacity is the SPSC ring buffer's fixed sample capacity (spec §3
// "RingBuffer<float, N=960 000>").
const RingCapacity = 960000

// ring is a single-producer/single-consumer lock-free circular buffer of
// interleaved stereo float32 samples. The RT thread is the sole producer;
// the writer goroutine is the sole consumer. Indices are cache-line padded
// to avoid false sharing, the way the pack pads its hot per-client state
// arrays away from each other.
type ring struct {
	buf [RingCapacity]float32

	writeIdx atomic.Uint64
	_        [7]uint64 // pad writeIdx away from readIdx's cache line
	readIdx  atomic.Uint64
	_        [7]uint64
}

func newRing() *ring {
	return &ring{}
}

// availableToWrite returns free slots, RT-safe, single load of readIdx.
func (r *ring) availableToWrite() int {
	w := r.writeIdx.Load()
	rd := r.readIdx.Load()
	used := w - rd
	return RingCapacity - int(used) - 1
}

// write pushes interleaved samples; caller must have checked capacity via
// availableToWrite. RT-safe: no allocation, no blocking.
func (r *ring) write(samples []float32) {
	w := r.writeIdx.Load()
	for _, s := range samples {
		r.buf[w%RingCapacity] = s
		w++
	}
	r.writeIdx.Store(w)
}

// readInto drains up to len(dst) samples, returning how many were read.
// Consumer-only.
func (r *ring) readInto(dst []float32) int {
	rd := r.readIdx.Load()
	w := r.writeIdx.Load()
	avail := int(w - rd)
	n := len(dst)
	if avail < n {
		n = avail
	}
	for i := 0; i < n; i++ {
		dst[i] = r.buf[rd%RingCapacity]
		rd++
	}
	r.readIdx.Store(rd)
	return n
}
