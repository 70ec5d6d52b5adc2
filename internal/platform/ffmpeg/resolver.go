// Package ffmpeg resolves playback sources into raw PCM streams by shelling
// out to the ffmpeg binary, the same way the voice stack it replaces did.
package ffmpeg

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os/exec"
	"strconv"
	"time"
)

// Output format constants. 48kHz signed 16-bit stereo is what voice
// transports consume.
const (
	SampleRate = 48000
	Channels   = 2
)

// Resolver invokes ffmpeg to decode a media file into s16le PCM on stdout.
type Resolver struct {
	// Binary is the ffmpeg executable, "ffmpeg" unless overridden.
	binary string
	logger *slog.Logger
}

// NewResolver creates a Resolver. An empty binary falls back to "ffmpeg"
// on PATH.
func NewResolver(binary string, logger *slog.Logger) *Resolver {
	if binary == "" {
		binary = "ffmpeg"
	}
	return &Resolver{
		binary: binary,
		logger: logger.With("component", "ffmpeg"),
	}
}

// args builds the ffmpeg invocation. The seek flag must precede -i so
// ffmpeg seeks on the demuxer instead of decoding and discarding.
func args(source string, seek time.Duration) []string {
	out := make([]string, 0, 16)
	if seek > 0 {
		out = append(out, "-ss", strconv.Itoa(int(seek.Seconds())))
	}
	out = append(out,
		"-i", source,
		"-vn",
		"-f", "s16le",
		"-ar", strconv.Itoa(SampleRate),
		"-ac", strconv.Itoa(Channels),
		"-loglevel", "error",
		"pipe:1",
	)
	return out
}

// Resolve starts ffmpeg decoding the source and returns its stdout as the
// PCM stream. Closing the stream kills the process.
func (r *Resolver) Resolve(ctx context.Context, source string, seek time.Duration) (io.ReadCloser, error) {
	cmd := exec.CommandContext(ctx, r.binary, args(source, seek)...)

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("failed to open ffmpeg stdout: %w", err)
	}

	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("failed to start ffmpeg for %s: %w", source, err)
	}

	r.logger.Debug("ffmpeg started", "source", source, "seek", seek, "pid", cmd.Process.Pid)

	return &processStream{reader: stdout, cmd: cmd, logger: r.logger}, nil
}

// processStream ties the decoded stream to the producing process so closing
// the stream reaps ffmpeg.
type processStream struct {
	reader io.ReadCloser
	cmd    *exec.Cmd
	logger *slog.Logger
}

func (p *processStream) Read(b []byte) (int, error) {
	return p.reader.Read(b)
}

func (p *processStream) Close() error {
	err := p.reader.Close()
	if killErr := p.cmd.Process.Kill(); killErr != nil {
		p.logger.Debug("ffmpeg already exited", "error", killErr)
	}
	// Reap the process; the error is expected when we killed it.
	_ = p.cmd.Wait()
	return err
}
