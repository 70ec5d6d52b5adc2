// Package playback implements the per-session sequential playback queue:
// items play strictly one at a time in FIFO order, except for announcements,
// which preempt the current track and hand it back afterwards with an
// approximate resume offset.
package playback

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/undergrid/stagehand/internal/domain"
)

// DefaultIdleInterval is how long the player loop waits on an empty queue
// before exiting.
const DefaultIdleInterval = time.Second

// Session is one independent playback context. All queue state is guarded
// by a single mutex; the player goroutine owns the "currently playing"
// marker between dequeue and completion.
type Session struct {
	id           string
	sink         Sink
	resolver     Resolver
	idleInterval time.Duration
	logger       *slog.Logger
	ctx          context.Context

	// onPlayed and onError are optional observation hooks set by the
	// manager (metrics); they run outside the lock.
	onPlayed func()
	onError  func()

	mu         sync.Mutex
	queue      []domain.Item
	current    *domain.Item
	startedAt  time.Time
	volume     float64
	loopActive bool
}

// Enqueue appends an item to the queue tail and starts the player loop if
// none is running. It never blocks.
func (s *Session) Enqueue(item domain.Item) {
	s.mu.Lock()
	s.queue = append(s.queue, item)
	s.startLoopLocked()
	s.mu.Unlock()

	s.logger.Debug("item enqueued", "session_id", s.id, "title", item.DisplayName())
}

// Interrupt preempts the current item with an announcement. If a real track
// was playing, a copy of it is re-queued right behind the announcement with
// a seek offset estimated from wall-clock elapsed time. An announcement cut
// off by another announcement is simply dropped, so stacked interrupts never
// multiply resume copies.
func (s *Session) Interrupt(announcement domain.Item) {
	announcement.Announcement = true

	s.mu.Lock()
	cur := s.current

	head := []domain.Item{announcement}
	if cur != nil && !cur.Announcement {
		resume := *cur
		// Wall-clock elapsed drifts against true audio position under
		// buffering, but matches the precision the sink can seek to.
		elapsed := time.Since(s.startedAt).Truncate(time.Second)
		if elapsed < 0 {
			elapsed = 0
		}
		resume.Seek = elapsed
		// The resume copy carries the announcement flag so a stacked
		// interrupt does not capture a second resume point for it.
		resume.Announcement = true
		head = append(head, resume)
	}
	s.queue = append(head, s.queue...)
	s.current = nil
	s.startLoopLocked()

	// Stop the sink while still holding the lock: the loop cannot dequeue
	// the announcement until the lock is released, so the stop can only
	// ever hit the preempted item, never the announcement itself. Sink
	// Stop never blocks on the done callback, so this cannot deadlock.
	s.sink.Stop()
	s.mu.Unlock()

	s.logger.Info("playback interrupted",
		"session_id", s.id,
		"announcement", announcement.DisplayName(),
		"resumed", cur != nil && !cur.Announcement)
}

// Stop clears the entire queue and halts current playback. The sink stays
// connected.
func (s *Session) Stop() {
	s.mu.Lock()
	s.queue = nil
	s.current = nil
	s.sink.Stop()
	s.mu.Unlock()

	s.logger.Info("playback stopped", "session_id", s.id)
}

// Skip halts the current item only; the loop advances to the next queued
// item on its own.
func (s *Session) Skip() {
	s.sink.Stop()
	s.logger.Info("track skipped", "session_id", s.id)
}

// View returns a read-only snapshot of the queue. Announcements are never
// reported as now playing.
func (s *Session) View() domain.QueueView {
	s.mu.Lock()
	defer s.mu.Unlock()

	var view domain.QueueView
	if s.current != nil && !s.current.Announcement {
		view.NowPlaying = s.current.DisplayName()
	}
	view.Pending = make([]string, 0, len(s.queue))
	for _, item := range s.queue {
		view.Pending = append(view.Pending, item.DisplayName())
	}
	return view
}

// Volume returns the session's default volume.
func (s *Session) Volume() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.volume
}

// SetVolume updates the session's default volume.
func (s *Session) SetVolume(v float64) error {
	if v < domain.MinVolume || v > domain.MaxVolume {
		return domain.ErrInvalidVolume
	}
	s.mu.Lock()
	s.volume = v
	s.mu.Unlock()
	return nil
}

// startLoopLocked launches the player goroutine if none is active. The
// caller must hold the lock.
func (s *Session) startLoopLocked() {
	if s.loopActive {
		return
	}
	s.loopActive = true
	go s.playLoop()
}

// playLoop drains the queue one item at a time. Any error while resolving
// or playing a single item is logged and the loop continues: one corrupt
// file must not silence the session permanently. The loop exits after the
// queue has stayed empty for one idle interval.
func (s *Session) playLoop() {
	for {
		s.mu.Lock()
		if len(s.queue) == 0 {
			s.mu.Unlock()
			select {
			case <-s.ctx.Done():
				s.exitLoop()
				return
			case <-time.After(s.idleInterval):
			}
			s.mu.Lock()
			if len(s.queue) == 0 {
				s.loopActive = false
				s.mu.Unlock()
				return
			}
			s.mu.Unlock()
			continue
		}

		item := s.queue[0]
		s.queue = s.queue[1:]
		s.current = &item
		if !item.Announcement {
			s.startedAt = time.Now()
		}
		volume := s.volume
		if item.Volume != nil {
			volume = domain.ClampVolume(*item.Volume)
		}
		s.mu.Unlock()

		if err := s.playOne(item, volume); err != nil {
			s.logger.Error("failed to play item",
				"session_id", s.id,
				"source", item.Source,
				"error", err)
			if s.onError != nil {
				s.onError()
			}
		} else if s.onPlayed != nil {
			s.onPlayed()
		}

		s.mu.Lock()
		s.current = nil
		s.mu.Unlock()

		select {
		case <-s.ctx.Done():
			s.exitLoop()
			return
		default:
		}
	}
}

// playOne resolves and plays a single item, blocking until the sink reports
// completion.
func (s *Session) playOne(item domain.Item, volume float64) error {
	stream, err := s.resolver.Resolve(s.ctx, item.Source, item.Seek)
	if err != nil {
		return err
	}

	done := make(chan error, 1)
	s.sink.Play(stream, volume, func(playErr error) {
		done <- playErr
	})

	if !item.Announcement {
		s.logger.Info("now playing",
			"session_id", s.id,
			"title", item.DisplayName(),
			"seek", item.Seek)
	}

	select {
	case err := <-done:
		return err
	case <-s.ctx.Done():
		s.sink.Stop()
		<-done
		return s.ctx.Err()
	}
}

func (s *Session) exitLoop() {
	s.mu.Lock()
	s.loopActive = false
	s.mu.Unlock()
}
