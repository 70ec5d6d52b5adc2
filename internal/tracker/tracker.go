// Package tracker implements the asynchronous generation task tracker: a
// single-flight FIFO worker that dispatches tasks to the render endpoint,
// paired with a poller that keeps live previews fresh for any task in
// flight. Callers interact only through Submit, Poll and Purge, none of
// which block.
package tracker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/undergrid/stagehand/internal/domain"
	"github.com/undergrid/stagehand/internal/events"
	"github.com/undergrid/stagehand/internal/render"
)

// Common errors returned by Submit
var (
	// ErrQueueFull is returned when the work queue has no room for
	// another task.
	ErrQueueFull = errors.New("task queue is full")
)

// PollState classifies what a Poll call observed.
type PollState string

// Possible poll states
const (
	// PollStateNone means the task is known but has produced no artifact
	// yet.
	PollStateNone PollState = "none"

	// PollStateInterim means generation is still running and the freshest
	// stored artifact is a live preview.
	PollStateInterim PollState = "interim"

	// PollStateFinal means generation completed and the stored artifact
	// is terminal.
	PollStateFinal PollState = "final"

	// PollStateFailed means the generation call failed.
	PollStateFailed PollState = "failed"

	// PollStateUnknown means the task id has no stored state, either
	// because it was never submitted or because it was purged.
	PollStateUnknown PollState = "unknown"
)

// PollResult is the non-blocking answer to a Poll call. Revision lets a
// caller polling rapidly detect "no change" without comparing artifact
// bytes.
type PollResult struct {
	State    PollState
	Data     []byte
	Final    bool
	Revision uint64
	Err      string
}

// Config holds configuration for the tracker.
type Config struct {
	// QueueSize bounds the in-memory work queue.
	QueueSize int

	// PollInterval is the cadence of the live-preview poller.
	PollInterval time.Duration

	// ResultTTL is the safety-net eviction age for terminal results whose
	// caller never purged them. Zero disables eviction.
	ResultTTL time.Duration

	// SweepInterval is how often the eviction sweep runs.
	SweepInterval time.Duration
}

// DefaultConfig returns a Config with reasonable defaults. The polling
// cadence matches the endpoint's own preview refresh rate; faster polling
// only re-downloads identical previews.
func DefaultConfig() Config {
	return Config{
		QueueSize:     256,
		PollInterval:  500 * time.Millisecond,
		ResultTTL:     10 * time.Minute,
		SweepInterval: time.Minute,
	}
}

// Tracker accepts generation requests, executes them strictly one at a time
// against the render endpoint, and lets any caller poll for the freshest
// available artifact. One Tracker serves every session in the process: the
// endpoint itself runs a single GPU worker, so a second in-flight task would
// only queue server-side anyway.
type Tracker struct {
	client  render.Client
	emitter events.Emitter
	config  Config
	logger  *slog.Logger

	queue chan *domain.Task

	mu    sync.Mutex
	store *store

	ctx        context.Context
	cancelFunc context.CancelFunc
	wg         sync.WaitGroup
}

// New creates a Tracker. The emitter may be nil when no observers are
// interested in lifecycle events.
func New(client render.Client, emitter events.Emitter, config Config, logger *slog.Logger) *Tracker {
	if config.QueueSize <= 0 {
		config.QueueSize = DefaultConfig().QueueSize
	}
	if config.PollInterval <= 0 {
		config.PollInterval = DefaultConfig().PollInterval
	}
	if config.SweepInterval <= 0 {
		config.SweepInterval = DefaultConfig().SweepInterval
	}

	ctx, cancel := context.WithCancel(context.Background())

	return &Tracker{
		client:     client,
		emitter:    emitter,
		config:     config,
		logger:     logger.With("component", "tracker"),
		queue:      make(chan *domain.Task, config.QueueSize),
		store:      newStore(),
		ctx:        ctx,
		cancelFunc: cancel,
	}
}

// Start launches the worker, the preview poller and, when eviction is
// enabled, the sweep loop.
func (t *Tracker) Start() {
	t.wg.Add(2)
	go t.worker()
	go t.poller()

	if t.config.ResultTTL > 0 {
		t.wg.Add(1)
		go t.sweeper()
	}
}

// Stop shuts the tracker down and waits for its loops to exit. A generation
// call already dispatched to the endpoint runs to completion there; the
// worker simply stops waiting for it once the context is cancelled.
func (t *Tracker) Stop() {
	t.cancelFunc()
	t.wg.Wait()
}

// Submit enqueues a generation request and returns its fresh task id
// immediately. The payload is not validated or inspected.
func (t *Tracker) Submit(kind domain.TaskKind, payload json.RawMessage) (uuid.UUID, error) {
	if !kind.Valid() {
		return uuid.Nil, fmt.Errorf("%w: %q", domain.ErrInvalidKind, kind)
	}

	task := domain.NewTask(kind, payload)

	t.mu.Lock()
	t.store.add(task)
	t.mu.Unlock()

	select {
	case t.queue <- task:
	default:
		t.mu.Lock()
		t.store.purge(task.ID)
		t.mu.Unlock()
		return uuid.Nil, fmt.Errorf("%w: capacity %d reached", ErrQueueFull, cap(t.queue))
	}

	t.logger.Debug("task submitted",
		"task_id", task.ID,
		"kind", task.Kind,
		"queue_len", len(t.queue))

	t.emit(events.TaskEvent{Type: events.TaskSubmitted, TaskID: task.ID, Kind: task.Kind})
	return task.ID, nil
}

// Poll reports the freshest known state of a task without blocking. Unknown
// ids yield PollStateUnknown rather than an error: callers may legitimately
// poll after a purge race.
func (t *Tracker) Poll(id uuid.UUID) PollResult {
	t.mu.Lock()
	defer t.mu.Unlock()

	rec, ok := t.store.records[id]
	if !ok {
		return PollResult{State: PollStateUnknown}
	}

	if rec.state == domain.TaskStateFailed {
		return PollResult{State: PollStateFailed, Err: rec.errMsg}
	}

	if rec.artifact == nil {
		return PollResult{State: PollStateNone}
	}

	state := PollStateInterim
	if rec.artifact.Final {
		state = PollStateFinal
	}
	return PollResult{
		State:    state,
		Data:     rec.artifact.Data,
		Final:    rec.artifact.Final,
		Revision: rec.artifact.Revision,
	}
}

// Purge discards stored results for a task id. Callers must purge once they
// have consumed the final artifact; purging an unknown id is a no-op.
func (t *Tracker) Purge(id uuid.UUID) {
	t.mu.Lock()
	t.store.purge(id)
	t.mu.Unlock()
}

// InFlight reports how many tasks are currently being generated (zero or
// one under the single-flight invariant) and how many are queued.
func (t *Tracker) InFlight() (running, queued int) {
	t.mu.Lock()
	running = len(t.store.inFlight)
	t.mu.Unlock()
	return running, len(t.queue)
}

// worker drains the queue one task at a time. Tasks execute in FIFO
// submission order and never concurrently with each other.
func (t *Tracker) worker() {
	defer t.wg.Done()

	for {
		select {
		case <-t.ctx.Done():
			return
		case task := <-t.queue:
			t.process(task)
		}
	}
}

// process runs a single generation call. Errors degrade only the failing
// task; the loop itself never terminates on one. A panicking client is
// recovered and fails the task the same way an error return would.
func (t *Tracker) process(task *domain.Task) {
	defer func() {
		if r := recover(); r != nil {
			t.logger.Error("panic while processing task", "task_id", task.ID, "panic", r)
			msg := fmt.Sprintf("panic: %v", r)
			t.mu.Lock()
			t.store.finish(task.ID, domain.TaskStateFailed, msg)
			t.mu.Unlock()
			t.emit(events.TaskEvent{
				Type:    events.TaskFailed,
				TaskID:  task.ID,
				Kind:    task.Kind,
				Err:     msg,
				Elapsed: time.Since(task.SubmittedAt),
			})
		}
	}()

	t.mu.Lock()
	alive := t.store.markRunning(task.ID)
	t.mu.Unlock()
	if !alive {
		// Purged while queued; nothing to report results into.
		return
	}

	logger := t.logger.With("task_id", task.ID, "kind", task.Kind)
	logger.Info("processing task")
	t.emit(events.TaskEvent{Type: events.TaskStarted, TaskID: task.ID, Kind: task.Kind})

	data, err := t.client.Generate(t.ctx, task.ID.String(), task.Kind, task.Payload)

	elapsed := time.Since(task.SubmittedAt)

	t.mu.Lock()
	if err != nil {
		t.store.finish(task.ID, domain.TaskStateFailed, err.Error())
	} else {
		t.store.setArtifact(task.ID, data, true)
		t.store.finish(task.ID, domain.TaskStateComplete, "")
	}
	t.mu.Unlock()

	if err != nil {
		logger.Error("task failed", "error", err)
		t.emit(events.TaskEvent{
			Type:    events.TaskFailed,
			TaskID:  task.ID,
			Kind:    task.Kind,
			Err:     err.Error(),
			Elapsed: elapsed,
		})
		return
	}

	logger.Info("task completed", "artifact_bytes", len(data))
	t.emit(events.TaskEvent{
		Type:    events.TaskCompleted,
		TaskID:  task.ID,
		Kind:    task.Kind,
		Elapsed: elapsed,
	})
}

// poller fetches live previews for every in-flight task on an independent
// cadence. Individual fetch errors are swallowed and retried next cycle;
// they never affect the worker or the task's state.
func (t *Tracker) poller() {
	defer t.wg.Done()

	ticker := time.NewTicker(t.config.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-t.ctx.Done():
			return
		case <-ticker.C:
			t.mu.Lock()
			ids := t.store.inFlightIDs()
			t.mu.Unlock()

			for _, id := range ids {
				t.fetchPreview(id)
			}
		}
	}
}

func (t *Tracker) fetchPreview(id uuid.UUID) {
	defer func() {
		if r := recover(); r != nil {
			// Drop the cycle; the next tick retries.
			t.logger.Error("panic while fetching preview", "task_id", id, "panic", r)
		}
	}()

	data, _, err := t.client.Preview(t.ctx, id.String())
	if err != nil || len(data) == 0 {
		return
	}

	t.mu.Lock()
	stored := t.store.setArtifact(id, data, false)
	t.mu.Unlock()

	if stored {
		t.logger.Debug("stored preview", "task_id", id, "preview_bytes", len(data))
		t.emit(events.TaskEvent{Type: events.TaskInterim, TaskID: id})
	}
}

// sweeper reclaims terminal results whose caller never purged them, so a
// forgetful caller cannot grow the store without bound.
func (t *Tracker) sweeper() {
	defer t.wg.Done()

	ticker := time.NewTicker(t.config.SweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-t.ctx.Done():
			return
		case <-ticker.C:
			t.mu.Lock()
			evicted := t.store.evictOlderThan(t.config.ResultTTL, time.Now().UTC())
			t.mu.Unlock()

			if evicted > 0 {
				t.logger.Info("evicted stale task results", "count", evicted)
			}
		}
	}
}

func (t *Tracker) emit(event events.TaskEvent) {
	if t.emitter == nil {
		return
	}
	event.At = time.Now().UTC()
	t.emitter.Emit(t.ctx, event)
}
