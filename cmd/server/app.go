package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/undergrid/stagehand/internal/announce"
	"github.com/undergrid/stagehand/internal/auth"
	"github.com/undergrid/stagehand/internal/config"
	"github.com/undergrid/stagehand/internal/events"
	"github.com/undergrid/stagehand/internal/platform/ffmpeg"
	"github.com/undergrid/stagehand/internal/platform/gemini"
	"github.com/undergrid/stagehand/internal/platform/metrics"
	"github.com/undergrid/stagehand/internal/platform/postgres"
	"github.com/undergrid/stagehand/internal/platform/webui"
	"github.com/undergrid/stagehand/internal/playback"
	"github.com/undergrid/stagehand/internal/tracker"
)

// application holds the wired-up process state.
type application struct {
	config *config.Config
	logger *slog.Logger

	db      *sql.DB
	metrics *metrics.Collector
	emitter events.Emitter

	tracker  *tracker.Tracker
	playback *playback.Manager
	composer announce.Composer

	// tokens is nil when authentication is disabled.
	tokens auth.TokenService
}

// newApplication creates an application with all dependencies initialized.
// The tracker's background loops are started before this returns.
func newApplication(cfg *config.Config, log *slog.Logger) (*application, error) {
	app := &application{
		config:  cfg,
		logger:  log,
		metrics: metrics.NewCollector(),
		emitter: events.NewInMemoryEmitter(log),
	}

	app.emitter.RegisterHandler(app.metrics)

	// The audit trail is optional; everything runs in memory without it.
	if cfg.Database.URL != "" {
		db, err := setupAppDatabase(cfg, log)
		if err != nil {
			return nil, err
		}
		app.db = db
		app.emitter.RegisterHandler(postgres.NewTaskAuditStore(db, log))
	}

	client, err := webui.NewClient(webui.Config{
		BaseURL:         cfg.Render.BaseURL,
		GenerateTimeout: time.Duration(cfg.Render.GenerateTimeoutSeconds) * time.Second,
		PreviewTimeout:  time.Duration(cfg.Render.PreviewTimeoutSeconds) * time.Second,
	}, log)
	if err != nil {
		return nil, fmt.Errorf("failed to create render client: %w", err)
	}

	app.tracker = tracker.New(client, app.emitter, tracker.Config{
		QueueSize:    cfg.Tracker.QueueSize,
		PollInterval: time.Duration(cfg.Tracker.PollIntervalMillis) * time.Millisecond,
		ResultTTL:    time.Duration(cfg.Tracker.ResultTTLMinutes) * time.Minute,
	}, log)
	app.tracker.Start()

	resolver := ffmpeg.NewResolver(cfg.Playback.FFmpegBinary, log)
	app.playback = playback.NewManager(
		makeSinkFactory(cfg.Playback, log),
		resolver,
		playback.Config{DefaultVolume: cfg.Playback.DefaultVolume},
		log,
	)
	app.playback.OnItemPlayed = app.metrics.RecordItemPlayed
	app.playback.OnPlaybackError = app.metrics.RecordPlaybackError

	app.composer = announce.StaticComposer{}
	if cfg.LLM.GeminiAPIKey != "" {
		composer, err := gemini.NewComposer(context.Background(), log, cfg.LLM)
		if err != nil {
			return nil, fmt.Errorf("failed to create announcement composer: %w", err)
		}
		app.composer = composer
	}

	if cfg.Auth.Enabled() {
		tokens, err := auth.NewTokenService(cfg.Auth)
		if err != nil {
			return nil, fmt.Errorf("failed to create token service: %w", err)
		}
		app.tokens = tokens
	} else {
		log.Warn("authentication disabled, API is open; set auth.jwt_secret to enable")
	}

	return app, nil
}

// cleanup releases application resources in reverse dependency order.
func (app *application) cleanup() {
	app.playback.Close()
	app.tracker.Stop()

	if app.db != nil {
		if err := app.db.Close(); err != nil {
			app.logger.Error("failed to close database connection", "error", err)
		}
	}
}
