package audio

import "math"

// Resampler converts a mono float32 stream at an arbitrary source rate to
// SampleRate by linear interpolation, per spec.md §4.7 step 3. It carries
// fractional source position across successive Process calls, prepending
// the previous buffer's last sample so interpolation reaches across the
// boundary without a discontinuity.
type Resampler struct {
	srcRate int
	ratio   float64 // srcRate / SampleRate

	pos      float64 // absolute output-driven position, in total source samples consumed
	consumed float64 // total whole source samples fed across completed Process calls
	tail     float32
	hasTail  bool
}

// NewResampler builds a Resampler converting from srcRate to SampleRate.
func NewResampler(srcRate int) *Resampler {
	return &Resampler{
		srcRate: srcRate,
		ratio:   float64(srcRate) / float64(SampleRate),
	}
}

// Process resamples one buffer of source samples, returning as many output
// samples as the buffer (plus the carried tail) can support.
func (r *Resampler) Process(src []float32) []float32 {
	if len(src) == 0 {
		return nil
	}
	if r.srcRate == SampleRate {
		return append([]float32(nil), src...)
	}

	consumedBefore := r.consumed
	var extended []float32
	var offset float64
	if r.hasTail {
		extended = make([]float32, len(src)+1)
		extended[0] = r.tail
		copy(extended[1:], src)
		offset = 1
	} else {
		extended = src
	}

	var out []float32
	for {
		relPos := r.pos - consumedBefore + offset
		idx := math.Floor(relPos)
		i := int(idx)
		if i < 0 || i+1 >= len(extended) {
			break
		}
		frac := relPos - idx
		x0, x1 := extended[i], extended[i+1]
		out = append(out, x0+(x1-x0)*float32(frac))
		r.pos += r.ratio
	}

	r.consumed += float64(len(src))
	r.tail = src[len(src)-1]
	r.hasTail = true

	return out
}
