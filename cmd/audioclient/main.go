// Command audioclient is a reference implementation of the C7 client
// audio pipeline: it reads a mono 16-bit PCM WAV file in place of a live
// microphone, resamples and frames it per spec.md §4.7, streams it to the
// gateway over the browser-facing WebSocket, and writes whatever audio
// the gateway plays back to an output file in place of a speaker.
package main

import (
	"context"
	"encoding/binary"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gorilla/websocket"

	"github.com/hari87gxs/voice-agent-gateway/internal/audio"
	"github.com/hari87gxs/voice-agent-gateway/internal/protocol"
)

const wavHeaderSize = 44

func main() {
	addr := flag.String("addr", "ws://localhost:8080/ws", "gateway WebSocket URL")
	wavPath := flag.String("wav", "", "path to a mono 16-bit PCM WAV file to stream")
	jwt := flag.String("jwt", "", "optional bearer token; presence selects Role B at open")
	outPath := flag.String("out", "playback.pcm", "path to write raw PCM16 24kHz audio the gateway plays back")
	flag.Parse()

	if *wavPath == "" {
		log.Fatal("audioclient: -wav is required")
	}

	src, srcRate, err := readMonoPCM16WAV(*wavPath)
	if err != nil {
		log.Fatalf("audioclient: reading wav: %v", err)
	}
	log.Printf("audioclient: loaded %d samples at %d Hz from %s", len(src), srcRate, *wavPath)

	outFile, err := os.Create(*outPath)
	if err != nil {
		log.Fatalf("audioclient: creating output file: %v", err)
	}
	defer outFile.Close()

	url := *addr
	if *jwt != "" {
		sep := "?"
		if strings.Contains(url, "?") {
			sep = "&"
		}
		url = url + sep + "jwt=" + *jwt
	}

	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		log.Fatalf("audioclient: dialing gateway: %v", err)
	}
	defer conn.Close()
	log.Printf("audioclient: connected to %s", url)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	player := audio.NewPlayer(outFile)
	go func() {
		if err := player.Run(ctx); err != nil && ctx.Err() == nil {
			log.Printf("audioclient: playback worker stopped: %v", err)
		}
	}()

	done := make(chan struct{})
	go func() {
		defer close(done)
		receiveLoop(conn, player)
	}()

	sendMicrophoneAudio(conn, src, srcRate)

	select {
	case <-done:
	case <-ctx.Done():
	case <-time.After(10 * time.Second):
		log.Println("audioclient: timed out waiting for the session to end")
	}
}

// sendMicrophoneAudio drives the capture-side pipeline: resample to
// 24kHz, convert to PCM16, accumulate into ~200ms frames, and emit each
// as a base64-wrapped input_audio_buffer.append event, per spec.md §4.7
// steps 1-5.
func sendMicrophoneAudio(conn *websocket.Conn, src []float32, srcRate int) {
	resampler := audio.NewResampler(srcRate)
	framer := audio.NewFramer(audio.FrameSamples)

	const captureChunk = 960 // ~20ms of native-rate audio per simulated capture callback
	sent := 0
	for i := 0; i < len(src); i += captureChunk {
		end := i + captureChunk
		if end > len(src) {
			end = len(src)
		}
		resampled := resampler.Process(src[i:end])
		if len(resampled) == 0 {
			continue
		}
		pcm16 := audio.FloatsToPCM16(resampled)
		for _, frame := range framer.Push(pcm16) {
			sendFrame(conn, frame)
			sent++
		}
		time.Sleep(20 * time.Millisecond) // simulate real-time capture cadence
	}
	if tail := framer.Flush(); len(tail) > 0 {
		sendFrame(conn, tail)
		sent++
	}
	log.Printf("audioclient: sent %d up-frames", sent)
}

func sendFrame(conn *websocket.Conn, frame []int16) {
	if len(frame) == 0 {
		return // an empty microphone frame never emits an event, per spec.md §9
	}
	event := protocol.NewInputAudioBufferAppend(audio.EncodePCM16LE(frame))
	if err := conn.WriteJSON(event); err != nil {
		log.Printf("audioclient: failed to send up-frame: %v", err)
	}
}

// receiveLoop drives the playback-side pipeline: decode each down-frame
// into the player's queue, and clear the queue on speech_started (the
// server-side barge-in signal), per spec.md §4.7 steps 1 and 3.
func receiveLoop(conn *websocket.Conn, player *audio.Player) {
	generation := player.Generation()
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			return
		}

		var env protocol.Envelope
		if err := json.Unmarshal(data, &env); err != nil {
			continue
		}

		switch env.Type {
		case protocol.EvtInputAudioBufferSpeechStarted:
			player.BargeIn(100)
			generation = player.Generation()

		case protocol.EvtResponseAudioDelta:
			var delta protocol.ResponseAudioDelta
			if err := json.Unmarshal(data, &delta); err != nil {
				continue
			}
			pcm, err := delta.DecodePCM16()
			if err != nil {
				continue
			}
			player.Enqueue(audio.DecodePCM16LE(pcm), generation)

		case protocol.EvtAgentHandoff:
			log.Printf("audioclient: gateway requested a handoff; a real client would reconnect under the new role")
			return
		}
	}
}

// readMonoPCM16WAV reads a canonical 44-byte-header WAV file's PCM16
// samples as floats in [-1, 1], returning the samples and the file's
// declared sample rate.
func readMonoPCM16WAV(path string) ([]float32, int, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, 0, err
	}
	defer f.Close()

	header := make([]byte, wavHeaderSize)
	if _, err := io.ReadFull(f, header); err != nil {
		return nil, 0, fmt.Errorf("reading wav header: %w", err)
	}
	if string(header[0:4]) != "RIFF" || string(header[8:12]) != "WAVE" {
		return nil, 0, fmt.Errorf("not a valid WAV file")
	}

	audioFormat := binary.LittleEndian.Uint16(header[20:22])
	numChannels := binary.LittleEndian.Uint16(header[22:24])
	sampleRate := binary.LittleEndian.Uint32(header[24:28])
	bitsPerSample := binary.LittleEndian.Uint16(header[34:36])

	if audioFormat != 1 {
		return nil, 0, fmt.Errorf("only PCM WAV files are supported, got format %d", audioFormat)
	}
	if bitsPerSample != 16 {
		return nil, 0, fmt.Errorf("only 16-bit PCM WAV files are supported, got %d bits", bitsPerSample)
	}
	if numChannels != 1 {
		log.Printf("audioclient: warning: %d-channel WAV; only the first channel will be used", numChannels)
	}

	raw, err := io.ReadAll(f)
	if err != nil {
		return nil, 0, fmt.Errorf("reading wav data: %w", err)
	}

	frameStride := int(numChannels) * 2
	n := len(raw) / frameStride
	samples := make([]float32, n)
	for i := 0; i < n; i++ {
		off := i * frameStride
		v := int16(binary.LittleEndian.Uint16(raw[off : off+2]))
		samples[i] = audio.PCM16ToFloat(v)
	}

	return samples, int(sampleRate), nil
}
