package playback

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/undergrid/stagehand/internal/domain"
)

// Config holds configuration for the playback manager.
type Config struct {
	// DefaultVolume is the starting default volume for new sessions.
	DefaultVolume float64

	// IdleInterval is how long an empty player loop lingers before
	// exiting.
	IdleInterval time.Duration
}

// DefaultManagerConfig returns a Config with reasonable defaults.
func DefaultManagerConfig() Config {
	return Config{
		DefaultVolume: domain.DefaultVolume,
		IdleInterval:  DefaultIdleInterval,
	}
}

// Manager owns every playback session in the process. Sessions are fully
// independent: no state or locking is shared between them.
type Manager struct {
	sinkFactory SinkFactory
	resolver    Resolver
	config      Config
	logger      *slog.Logger

	ctx        context.Context
	cancelFunc context.CancelFunc

	mu       sync.Mutex
	sessions map[string]*Session

	// Hooks for observation, applied to every session it creates.
	OnItemPlayed    func()
	OnPlaybackError func()
}

// NewManager creates a session manager.
func NewManager(sinkFactory SinkFactory, resolver Resolver, config Config, logger *slog.Logger) *Manager {
	if config.DefaultVolume <= 0 {
		config.DefaultVolume = domain.DefaultVolume
	}
	if config.IdleInterval <= 0 {
		config.IdleInterval = DefaultIdleInterval
	}

	ctx, cancel := context.WithCancel(context.Background())

	return &Manager{
		sinkFactory: sinkFactory,
		resolver:    resolver,
		config:      config,
		logger:      logger.With("component", "playback"),
		ctx:         ctx,
		cancelFunc:  cancel,
		sessions:    make(map[string]*Session),
	}
}

// Session returns the playback session for the given id, creating and
// connecting it on first use.
func (m *Manager) Session(id string) (*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if s, ok := m.sessions[id]; ok {
		return s, nil
	}

	sink, err := m.sinkFactory(id)
	if err != nil {
		return nil, fmt.Errorf("failed to connect sink for session %s: %w", id, err)
	}

	s := &Session{
		id:           id,
		sink:         sink,
		resolver:     m.resolver,
		idleInterval: m.config.IdleInterval,
		logger:       m.logger,
		ctx:          m.ctx,
		volume:       m.config.DefaultVolume,
		onPlayed:     m.OnItemPlayed,
		onError:      m.OnPlaybackError,
	}
	m.sessions[id] = s
	m.logger.Info("session created", "session_id", id)
	return s, nil
}

// Lookup returns an existing session without creating one.
func (m *Manager) Lookup(id string) (*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, ok := m.sessions[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrSessionNotFound, id)
	}
	return s, nil
}

// Close stops every session's playback and releases their sinks.
func (m *Manager) Close() {
	m.cancelFunc()

	m.mu.Lock()
	sessions := make([]*Session, 0, len(m.sessions))
	for _, s := range m.sessions {
		sessions = append(sessions, s)
	}
	m.mu.Unlock()

	for _, s := range sessions {
		s.Stop()
		if err := s.sink.Close(); err != nil {
			m.logger.Warn("failed to close sink", "session_id", s.id, "error", err)
		}
	}
}
