package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/undergrid/stagehand/internal/config"
	"github.com/undergrid/stagehand/internal/platform/audio"
	"github.com/undergrid/stagehand/internal/playback"
)

// makeSinkFactory returns the sink factory for playback sessions. With an
// output directory configured, each session streams its decoded PCM to
// <dir>/<session>.pcm for a downstream consumer. Without one, audio is
// discarded but playback still runs at real-time pace, so queue ordering,
// seek positions, and announcements behave identically.
func makeSinkFactory(cfg config.PlaybackConfig, log *slog.Logger) playback.SinkFactory {
	if cfg.OutputDir == "" {
		return func(sessionID string) (playback.Sink, error) {
			return audio.NewPacedSink(io.Discard, log), nil
		}
	}

	return func(sessionID string) (playback.Sink, error) {
		if err := os.MkdirAll(cfg.OutputDir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create output directory: %w", err)
		}

		path := filepath.Join(cfg.OutputDir, sessionID+".pcm")
		f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o644)
		if err != nil {
			return nil, fmt.Errorf("failed to open session output %s: %w", path, err)
		}

		return &fileSink{PacedSink: audio.NewPacedSink(f, log), file: f}, nil
	}
}

// fileSink closes the backing file when the session's sink is released.
type fileSink struct {
	*audio.PacedSink
	file *os.File
}

func (s *fileSink) Close() error {
	if err := s.PacedSink.Close(); err != nil {
		return err
	}
	return s.file.Close()
}
