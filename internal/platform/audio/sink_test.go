package audio

import (
	"bytes"
	"encoding/binary"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type safeBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *safeBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *safeBuffer) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Len()
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestPlayCompletesAtEOF(t *testing.T) {
	out := &safeBuffer{}
	sink := NewPacedSink(out, testLogger())

	// Two full frames of silence.
	stream := io.NopCloser(bytes.NewReader(make([]byte, 2*FrameBytes)))

	done := make(chan error, 1)
	sink.Play(stream, 1.0, func(err error) { done <- err })

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("playback did not complete")
	}

	assert.Equal(t, 2*FrameBytes, out.Len())
	assert.False(t, sink.IsPlaying())
}

func TestStopInterruptsPromptly(t *testing.T) {
	out := &safeBuffer{}
	sink := NewPacedSink(out, testLogger())

	// A stream long enough to play for many seconds.
	stream := io.NopCloser(bytes.NewReader(make([]byte, 500*FrameBytes)))

	done := make(chan error, 1)
	sink.Play(stream, 1.0, func(err error) { done <- err })

	require.Eventually(t, sink.IsPlaying, time.Second, time.Millisecond)

	start := time.Now()
	sink.Stop()

	select {
	case err := <-done:
		assert.NoError(t, err)
		assert.Less(t, time.Since(start), 500*time.Millisecond,
			"stop must unblock the done callback promptly")
	case <-time.After(2 * time.Second):
		t.Fatal("stop did not fire the done callback")
	}
}

func TestSecondPlayWhileBusyFails(t *testing.T) {
	sink := NewPacedSink(&safeBuffer{}, testLogger())

	stream := io.NopCloser(bytesReaderN(100 * FrameBytes))
	done := make(chan error, 1)
	sink.Play(stream, 1.0, func(err error) { done <- err })
	require.Eventually(t, sink.IsPlaying, time.Second, time.Millisecond)

	overlap := make(chan error, 1)
	sink.Play(io.NopCloser(bytesReaderN(FrameBytes)), 1.0, func(err error) { overlap <- err })

	assert.Error(t, <-overlap)

	sink.Stop()
	<-done
}

func bytesReaderN(n int) *bytes.Reader {
	return bytes.NewReader(make([]byte, n))
}

func TestApplyVolume(t *testing.T) {
	frame := make([]byte, 4)
	binary.LittleEndian.PutUint16(frame[0:2], uint16(int16(1000)))
	negSample := int16(-1000)
	binary.LittleEndian.PutUint16(frame[2:4], uint16(negSample))

	applyVolume(frame, 0.5)

	assert.Equal(t, int16(500), int16(binary.LittleEndian.Uint16(frame[0:2])))
	assert.Equal(t, int16(-500), int16(binary.LittleEndian.Uint16(frame[2:4])))

	t.Run("clips instead of wrapping", func(t *testing.T) {
		loud := make([]byte, 2)
		binary.LittleEndian.PutUint16(loud, uint16(int16(30000)))

		applyVolume(loud, 2.0)

		assert.Equal(t, int16(32767), int16(binary.LittleEndian.Uint16(loud)))
	})
}
