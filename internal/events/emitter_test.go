package events

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func newTestEmitter() *InMemoryEmitter {
	return NewInMemoryEmitter(slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestEmitFansOutToAllHandlers(t *testing.T) {
	e := newTestEmitter()

	var first, second []EventType
	e.RegisterHandler(HandlerFunc(func(_ context.Context, ev TaskEvent) {
		first = append(first, ev.Type)
	}))
	e.RegisterHandler(HandlerFunc(func(_ context.Context, ev TaskEvent) {
		second = append(second, ev.Type)
	}))

	e.Emit(context.Background(), TaskEvent{Type: TaskSubmitted, TaskID: uuid.New()})
	e.Emit(context.Background(), TaskEvent{Type: TaskCompleted, TaskID: uuid.New()})

	assert.Equal(t, []EventType{TaskSubmitted, TaskCompleted}, first)
	assert.Equal(t, []EventType{TaskSubmitted, TaskCompleted}, second)
}

func TestEmitSurvivesPanickingHandler(t *testing.T) {
	e := newTestEmitter()

	e.RegisterHandler(HandlerFunc(func(_ context.Context, _ TaskEvent) {
		panic("handler bug")
	}))

	var reached bool
	e.RegisterHandler(HandlerFunc(func(_ context.Context, _ TaskEvent) {
		reached = true
	}))

	assert.NotPanics(t, func() {
		e.Emit(context.Background(), TaskEvent{Type: TaskFailed, TaskID: uuid.New()})
	})
	assert.True(t, reached)
}

func TestEmitWithNoHandlers(t *testing.T) {
	e := newTestEmitter()

	assert.NotPanics(t, func() {
		e.Emit(context.Background(), TaskEvent{Type: TaskInterim})
	})
}
