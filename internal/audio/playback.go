package audio

import (
	"context"
	"io"
	"math"
	"sync"
	"time"
)

// maxFadeSamples bounds the sine-curve fade-in/out applied to each
// down-frame to suppress inter-chunk clicks, per spec.md §4.7 step 2.
const maxFadeSamples = 50

// applyFade returns a copy of samples with a sine-curve fade-in and
// fade-out of min(maxFadeSamples, 5% of len(samples)) applied at each end.
func applyFade(samples []int16) []int16 {
	out := make([]int16, len(samples))
	copy(out, samples)

	fadeLen := len(samples) / 20
	if fadeLen > maxFadeSamples {
		fadeLen = maxFadeSamples
	}
	if fadeLen > len(samples)/2 {
		fadeLen = len(samples) / 2
	}
	if fadeLen <= 0 {
		return out
	}

	for i := 0; i < fadeLen; i++ {
		gain := math.Sin(float64(i) / float64(fadeLen) * math.Pi / 2)
		out[i] = int16(float64(out[i]) * gain)
		j := len(out) - 1 - i
		out[j] = int16(float64(out[j]) * gain)
	}
	return out
}

// pendingFrame is one queued down-frame tagged with the response
// generation it belongs to, so a barge-in can invalidate frames still
// in flight from upstream for the interrupted response.
type pendingFrame struct {
	samples    []int16
	generation int
}

// Player is the C7 playback-side pipeline: a single FIFO queue drained by
// one worker, with barge-in support per spec.md §4.7 steps 1-3.
type Player struct {
	out io.Writer

	mu         sync.Mutex
	queue      []pendingFrame
	generation int
	notify     chan struct{}
}

// NewPlayer builds a Player that writes decoded PCM16 audio to out as it
// is "played". A real client would hand this to an audio device; this
// reference implementation writes to a file or buffer instead, since this
// corpus carries no audio-device bindings.
func NewPlayer(out io.Writer) *Player {
	return &Player{
		out:    out,
		notify: make(chan struct{}, 1),
	}
}

// Generation returns the playback generation currently accepted. A caller
// receiving a stream of down-frames for one upstream response should
// snapshot this once and pass it to every Enqueue call for that response,
// so a BargeIn partway through causes late-arriving frames from the
// interrupted response to be dropped instead of queued, per spec.md §9's
// edge case ("response.audio.delta arriving after the client has
// barged-in -> dropped by the playback worker").
func (p *Player) Generation() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.generation
}

// Enqueue appends a down-frame to the playback queue if generation still
// matches the queue's current generation, and reports whether it did.
func (p *Player) Enqueue(samples []int16, generation int) bool {
	p.mu.Lock()
	if generation != p.generation {
		p.mu.Unlock()
		return false
	}
	p.queue = append(p.queue, pendingFrame{samples: samples, generation: generation})
	p.mu.Unlock()
	p.wake()
	return true
}

// BargeIn clears the queue and advances the generation counter so any
// in-flight down-frames for the interrupted response are dropped on
// arrival, then schedules up to silenceMs of silence to flush the output.
// It does not interrupt a chunk the worker has already started writing;
// that chunk runs to its natural end, per spec.md §4.7 step 3.
func (p *Player) BargeIn(silenceMs int) {
	p.mu.Lock()
	p.queue = nil
	p.generation++
	gen := p.generation
	p.mu.Unlock()

	if silenceMs <= 0 {
		return
	}
	if silenceMs > 100 {
		silenceMs = 100
	}
	silenceSamples := SampleRate * silenceMs / 1000
	p.mu.Lock()
	p.queue = append(p.queue, pendingFrame{samples: make([]int16, silenceSamples), generation: gen})
	p.mu.Unlock()
	p.wake()
}

// QueueLen reports how many frames are currently pending, for tests and
// diagnostics.
func (p *Player) QueueLen() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.queue)
}

func (p *Player) wake() {
	select {
	case p.notify <- struct{}{}:
	default:
	}
}

func (p *Player) dequeue() (pendingFrame, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if len(p.queue) == 0 {
		return pendingFrame{}, false
	}
	f := p.queue[0]
	p.queue = p.queue[1:]
	return f, true
}

// Run drains the queue until ctx is cancelled, writing each frame's
// faded PCM16 bytes to out. This is the "single playback worker" of
// spec.md §4.7 step 2.
func (p *Player) Run(ctx context.Context) error {
	for {
		frame, ok := p.dequeue()
		if !ok {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-p.notify:
				continue
			case <-time.After(50 * time.Millisecond):
				continue
			}
		}

		faded := applyFade(frame.samples)
		if _, err := p.out.Write(EncodePCM16LE(faded)); err != nil {
			return err
		}
	}
}
