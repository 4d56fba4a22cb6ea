// Package audio implements the C7 client-side audio pipeline: capture-side
// resampling and PCM16 framing, and playback-side dequeuing with fade and
// barge-in. It is exercised by cmd/audioclient, a reference client that
// drives it over a file instead of a live microphone/speaker, since this
// corpus carries no audio-device bindings.
package audio

import "math"

// SampleRate is the wire sample rate mandated by spec.md §6: PCM16
// little-endian, mono, 24 kHz.
const SampleRate = 24000

// FrameSamples is the target frame size for an up-frame: ~200ms at 24kHz.
const FrameSamples = 4800

// FloatToPCM16 converts one float32 sample in [-1, 1] to a PCM16 value via
// clamp(round(x * 32768), -32768, 32767).
func FloatToPCM16(x float32) int16 {
	v := math.Round(float64(x) * 32768)
	if v > 32767 {
		v = 32767
	}
	if v < -32768 {
		v = -32768
	}
	return int16(v)
}

// PCM16ToFloat converts one PCM16 sample back to float32 in [-1, 1].
func PCM16ToFloat(v int16) float32 {
	return float32(v) / 32768
}

// EncodePCM16LE packs samples into a little-endian PCM16 byte buffer, the
// wire shape carried (base64-wrapped) inside input_audio_buffer.append and
// response.audio.delta events.
func EncodePCM16LE(samples []int16) []byte {
	out := make([]byte, len(samples)*2)
	for i, s := range samples {
		out[2*i] = byte(uint16(s))
		out[2*i+1] = byte(uint16(s) >> 8)
	}
	return out
}

// DecodePCM16LE unpacks a little-endian PCM16 byte buffer into samples. A
// trailing odd byte (a malformed frame) is ignored.
func DecodePCM16LE(data []byte) []int16 {
	n := len(data) / 2
	out := make([]int16, n)
	for i := 0; i < n; i++ {
		out[i] = int16(uint16(data[2*i]) | uint16(data[2*i+1])<<8)
	}
	return out
}

// FloatsToPCM16 converts a full buffer of float samples to PCM16.
func FloatsToPCM16(samples []float32) []int16 {
	out := make([]int16, len(samples))
	for i, s := range samples {
		out[i] = FloatToPCM16(s)
	}
	return out
}

// PCM16ToFloats converts a full buffer of PCM16 samples to floats.
func PCM16ToFloats(samples []int16) []float32 {
	out := make([]float32, len(samples))
	for i, s := range samples {
		out[i] = PCM16ToFloat(s)
	}
	return out
}
