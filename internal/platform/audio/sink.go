// Package audio provides a playback.Sink that paces raw PCM to an
// io.Writer in real time. It stands in for a voice transport when the
// service runs headless, and gives tests a sink with honest timing.
package audio

import (
	"encoding/binary"
	"io"
	"log/slog"
	"math"
	"sync"
	"time"
)

// PCM frame geometry: 48kHz signed 16-bit stereo in 20ms frames.
const (
	SampleRate    = 48000
	Channels      = 2
	FrameDuration = 20 * time.Millisecond
	frameSamples  = SampleRate / 50 * Channels // samples per 20ms frame
	FrameBytes    = frameSamples * 2           // int16 = 2 bytes
)

// PacedSink writes PCM frames to out at real-time cadence, applying a
// linear volume scale. One stream plays at a time.
type PacedSink struct {
	out    io.Writer
	logger *slog.Logger

	mu      sync.Mutex
	playing bool
	stop    chan struct{}
}

// NewPacedSink creates a sink writing to out.
func NewPacedSink(out io.Writer, logger *slog.Logger) *PacedSink {
	return &PacedSink{
		out:    out,
		logger: logger.With("component", "audio_sink"),
	}
}

// Play starts streaming in the background. done fires exactly once when the
// stream ends, fails, or is stopped.
func (s *PacedSink) Play(stream io.ReadCloser, volume float64, done func(error)) {
	s.mu.Lock()
	if s.playing {
		// The playback loop never overlaps plays; treat a second Play as
		// a caller bug rather than queueing it here.
		s.mu.Unlock()
		done(io.ErrClosedPipe)
		return
	}
	s.playing = true
	stop := make(chan struct{})
	s.stop = stop
	s.mu.Unlock()

	go s.run(stream, volume, stop, done)
}

// Stop interrupts the current stream, if any, forcing its done callback to
// fire promptly.
func (s *PacedSink) Stop() {
	s.mu.Lock()
	if s.playing && s.stop != nil {
		close(s.stop)
		s.stop = nil
	}
	s.mu.Unlock()
}

// IsPlaying reports whether a stream is currently playing.
func (s *PacedSink) IsPlaying() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.playing
}

// Close is a no-op; the sink does not own its writer.
func (s *PacedSink) Close() error {
	s.Stop()
	return nil
}

func (s *PacedSink) run(stream io.ReadCloser, volume float64, stop chan struct{}, done func(error)) {
	var playErr error

	defer func() {
		if closeErr := stream.Close(); closeErr != nil {
			s.logger.Debug("stream close failed", "error", closeErr)
		}
		s.mu.Lock()
		s.playing = false
		s.mu.Unlock()
		done(playErr)
	}()

	ticker := time.NewTicker(FrameDuration)
	defer ticker.Stop()

	frame := make([]byte, FrameBytes)
	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
		}

		n, err := io.ReadFull(stream, frame)
		if n > 0 {
			applyVolume(frame[:n], volume)
			if _, werr := s.out.Write(frame[:n]); werr != nil {
				playErr = werr
				return
			}
		}
		if err != nil {
			if err != io.EOF && err != io.ErrUnexpectedEOF {
				playErr = err
			}
			return
		}
	}
}

// applyVolume scales interleaved s16le samples in place.
func applyVolume(frame []byte, volume float64) {
	if volume == 1.0 {
		return
	}
	for i := 0; i+1 < len(frame); i += 2 {
		sample := int16(binary.LittleEndian.Uint16(frame[i : i+2]))
		scaled := float64(sample) * volume
		if scaled > math.MaxInt16 {
			scaled = math.MaxInt16
		} else if scaled < math.MinInt16 {
			scaled = math.MinInt16
		}
		binary.LittleEndian.PutUint16(frame[i:i+2], uint16(int16(scaled)))
	}
}
