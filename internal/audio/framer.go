package audio

// Framer accumulates resampled PCM16 samples into fixed-size up-frames of
// approximately FrameSamples (~200ms at 24kHz), per spec.md §4.7 step 5.
// An empty microphone frame (no accumulated samples) never emits, per
// spec.md §9's edge case.
type Framer struct {
	size int
	buf  []int16
}

// NewFramer builds a Framer emitting frames of size samples. size defaults
// to FrameSamples if zero or negative.
func NewFramer(size int) *Framer {
	if size <= 0 {
		size = FrameSamples
	}
	return &Framer{size: size}
}

// Push appends samples to the accumulator and returns zero or more
// complete frames it can now emit. Left-over samples remain buffered for
// the next call or for Flush.
func (f *Framer) Push(samples []int16) [][]int16 {
	if len(samples) == 0 {
		return nil
	}
	f.buf = append(f.buf, samples...)

	var frames [][]int16
	for len(f.buf) >= f.size {
		frame := make([]int16, f.size)
		copy(frame, f.buf[:f.size])
		frames = append(frames, frame)
		f.buf = f.buf[f.size:]
	}
	return frames
}

// Flush returns whatever partial frame remains buffered, or nil if empty,
// clearing the accumulator. Used at end of stream.
func (f *Framer) Flush() []int16 {
	if len(f.buf) == 0 {
		return nil
	}
	out := f.buf
	f.buf = nil
	return out
}
