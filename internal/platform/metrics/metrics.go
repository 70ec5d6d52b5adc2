// Package metrics collects and exposes Prometheus metrics for the tracker
// and playback engines.
package metrics

import (
	"context"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/undergrid/stagehand/internal/events"
)

// Collector holds the process metrics. It doubles as an events.Handler so
// tracker lifecycle events feed the task metrics without the tracker
// knowing about Prometheus.
type Collector struct {
	tasksSubmitted prometheus.Counter
	tasksCompleted prometheus.Counter
	tasksFailed    prometheus.Counter
	previewsStored prometheus.Counter
	generationTime prometheus.Histogram
	tasksInFlight  prometheus.Gauge
	itemsPlayed    prometheus.Counter
	playbackErrors prometheus.Counter

	registry *prometheus.Registry
}

// NewCollector creates and registers the collector on its own registry.
func NewCollector() *Collector {
	c := &Collector{
		tasksSubmitted: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "stagehand_tasks_submitted_total",
			Help: "Total number of generation tasks submitted",
		}),
		tasksCompleted: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "stagehand_tasks_completed_total",
			Help: "Total number of generation tasks completed successfully",
		}),
		tasksFailed: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "stagehand_tasks_failed_total",
			Help: "Total number of generation tasks failed",
		}),
		previewsStored: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "stagehand_previews_stored_total",
			Help: "Total number of distinct live previews stored",
		}),
		generationTime: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "stagehand_generation_duration_seconds",
			Help:    "Generation task duration from submission to terminal state",
			Buckets: []float64{1, 5, 10, 30, 60, 120, 300},
		}),
		tasksInFlight: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "stagehand_tasks_in_flight",
			Help: "Generation tasks currently executing (0 or 1)",
		}),
		itemsPlayed: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "stagehand_items_played_total",
			Help: "Total number of playback items played to completion",
		}),
		playbackErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "stagehand_playback_errors_total",
			Help: "Total number of playback items that failed to resolve or play",
		}),
	}

	c.registry = prometheus.NewRegistry()
	c.registry.MustRegister(
		c.tasksSubmitted,
		c.tasksCompleted,
		c.tasksFailed,
		c.previewsStored,
		c.generationTime,
		c.tasksInFlight,
		c.itemsPlayed,
		c.playbackErrors,
	)

	return c
}

// HandleEvent updates task metrics from tracker lifecycle events.
func (c *Collector) HandleEvent(_ context.Context, event events.TaskEvent) {
	switch event.Type {
	case events.TaskSubmitted:
		c.tasksSubmitted.Inc()
	case events.TaskStarted:
		c.tasksInFlight.Inc()
	case events.TaskInterim:
		c.previewsStored.Inc()
	case events.TaskCompleted:
		c.tasksInFlight.Dec()
		c.tasksCompleted.Inc()
		c.generationTime.Observe(event.Elapsed.Seconds())
	case events.TaskFailed:
		c.tasksInFlight.Dec()
		c.tasksFailed.Inc()
		c.generationTime.Observe(event.Elapsed.Seconds())
	}
}

// RecordItemPlayed counts one playback item played to completion.
func (c *Collector) RecordItemPlayed() {
	c.itemsPlayed.Inc()
}

// RecordPlaybackError counts one playback item that failed.
func (c *Collector) RecordPlaybackError() {
	c.playbackErrors.Inc()
}

// Handler returns the HTTP handler serving the metrics endpoint.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}
