package tracker

import (
	"bytes"
	"time"

	"github.com/google/uuid"

	"github.com/undergrid/stagehand/internal/domain"
)

// record holds everything the tracker knows about one task. Records are
// created at submission and live until the caller purges them or the
// eviction sweep reclaims them.
type record struct {
	task       *domain.Task
	state      domain.TaskState
	errMsg     string
	artifact   *domain.Artifact
	finishedAt time.Time
}

// store owns the task records and the in-flight set. Both loops touch it, so
// every access goes through the tracker's single coarse mutex; contention is
// negligible at the polling cadences involved. Methods on store assume the
// caller holds the lock.
type store struct {
	records  map[uuid.UUID]*record
	inFlight map[uuid.UUID]struct{}
}

func newStore() *store {
	return &store{
		records:  make(map[uuid.UUID]*record),
		inFlight: make(map[uuid.UUID]struct{}),
	}
}

// add registers a freshly submitted task.
func (s *store) add(task *domain.Task) {
	s.records[task.ID] = &record{task: task, state: domain.TaskStateQueued}
}

// markRunning transitions a task to running and adds it to the in-flight
// set. Returns false if the record was purged while the task sat in the
// queue.
func (s *store) markRunning(id uuid.UUID) bool {
	rec, ok := s.records[id]
	if !ok {
		return false
	}
	rec.state = domain.TaskStateRunning
	s.inFlight[id] = struct{}{}
	return true
}

// setArtifact stores artifact bytes for a task, bumping the revision only
// when the bytes (or finality) actually changed. Interim data never
// overwrites a terminal artifact. Returns true when a new revision was
// stored.
func (s *store) setArtifact(id uuid.UUID, data []byte, final bool) bool {
	rec, ok := s.records[id]
	if !ok {
		// Purged while the endpoint was still working; drop the data.
		return false
	}
	if rec.state.Terminal() && !final {
		return false
	}
	if rec.artifact != nil && rec.artifact.Final == final && bytes.Equal(rec.artifact.Data, data) {
		return false
	}
	var revision uint64 = 1
	if rec.artifact != nil {
		revision = rec.artifact.Revision + 1
	}
	rec.artifact = &domain.Artifact{
		Data:     data,
		Final:    final,
		Revision: revision,
		StoredAt: time.Now().UTC(),
	}
	return true
}

// finish transitions a task to a terminal state and clears it from the
// in-flight set.
func (s *store) finish(id uuid.UUID, state domain.TaskState, errMsg string) {
	delete(s.inFlight, id)
	rec, ok := s.records[id]
	if !ok {
		return
	}
	rec.state = state
	rec.errMsg = errMsg
	rec.finishedAt = time.Now().UTC()
}

// purge discards all stored state for a task id.
func (s *store) purge(id uuid.UUID) {
	delete(s.records, id)
	delete(s.inFlight, id)
}

// inFlightIDs returns a snapshot of ids currently being generated.
func (s *store) inFlightIDs() []uuid.UUID {
	ids := make([]uuid.UUID, 0, len(s.inFlight))
	for id := range s.inFlight {
		ids = append(ids, id)
	}
	return ids
}

// evictOlderThan removes terminal records whose results have been sitting
// unconsumed longer than ttl. Returns the number of evicted records.
func (s *store) evictOlderThan(ttl time.Duration, now time.Time) int {
	evicted := 0
	for id, rec := range s.records {
		if !rec.state.Terminal() {
			continue
		}
		if now.Sub(rec.finishedAt) > ttl {
			delete(s.records, id)
			evicted++
		}
	}
	return evicted
}
