// Package gemini implements an announcement composer backed by Google's
// Gemini API. It rewrites plain "now playing" lines into short spoken
// introductions.
package gemini

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"math/rand"
	"strings"
	"time"

	"google.golang.org/genai"

	"github.com/undergrid/stagehand/internal/announce"
	"github.com/undergrid/stagehand/internal/config"
	"github.com/undergrid/stagehand/internal/domain"
)

// Composer errors
var (
	// ErrInvalidConfig indicates the composer configuration is incomplete.
	ErrInvalidConfig = errors.New("invalid gemini composer configuration")

	// ErrEmptyResponse indicates the model returned no usable text.
	ErrEmptyResponse = errors.New("empty response from model")
)

const (
	defaultMaxRetries = 2
	baseRetryDelay    = time.Second

	promptFormat = "Write one short, energetic sentence a radio DJ would say " +
		"to introduce the track %q. Reply with the sentence only, no quotes."
)

// generateFunc performs one model call. Injectable for testing.
type generateFunc func(ctx context.Context, prompt string) (string, error)

// Composer asks Gemini for an introduction line and falls back to the
// static composer when the model is unavailable.
type Composer struct {
	logger     *slog.Logger
	model      string
	maxRetries int
	retryDelay time.Duration
	generate   generateFunc
	fallback   announce.StaticComposer
}

var _ announce.Composer = (*Composer)(nil)

// NewComposer creates a Gemini-backed composer from the LLM configuration.
func NewComposer(ctx context.Context, logger *slog.Logger, cfg config.LLMConfig) (*Composer, error) {
	if logger == nil {
		return nil, errors.New("logger cannot be nil")
	}
	if cfg.GeminiAPIKey == "" {
		return nil, fmt.Errorf("%w: gemini API key cannot be empty", ErrInvalidConfig)
	}
	if cfg.ModelName == "" {
		return nil, fmt.Errorf("%w: model name cannot be empty", ErrInvalidConfig)
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.GeminiAPIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: failed to create Gemini client: %v", ErrInvalidConfig, err)
	}

	c := &Composer{
		logger:     logger,
		model:      cfg.ModelName,
		maxRetries: defaultMaxRetries,
		retryDelay: baseRetryDelay,
	}
	c.generate = func(ctx context.Context, prompt string) (string, error) {
		resp, err := client.Models.GenerateContent(ctx, c.model, genai.Text(prompt), nil)
		if err != nil {
			return "", err
		}
		return resp.Text(), nil
	}
	return c, nil
}

// Compose returns a spoken introduction for the title. Model failures fall
// back to the static line after retries so announcements always go out.
func (c *Composer) Compose(ctx context.Context, title string) (string, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return "", domain.ErrEmptySource
	}

	line, err := c.callWithRetry(ctx, fmt.Sprintf(promptFormat, title))
	if err != nil {
		c.logger.Warn("model announcement failed, using static line",
			"title", title,
			"error", err)
		return c.fallback.Compose(ctx, title)
	}
	return line, nil
}

func (c *Composer) callWithRetry(ctx context.Context, prompt string) (string, error) {
	rng := rand.New(rand.NewSource(time.Now().UnixNano()))

	var lastErr error
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		text, err := c.generate(ctx, prompt)
		if err == nil {
			text = strings.TrimSpace(text)
			if text == "" {
				return "", ErrEmptyResponse
			}
			return text, nil
		}
		lastErr = err
		c.logger.Debug("gemini call failed",
			"attempt", attempt+1,
			"max_attempts", c.maxRetries+1,
			"error", err)

		if attempt >= c.maxRetries {
			break
		}

		// Exponential backoff with jitter
		backoff := float64(c.retryDelay) * math.Pow(2, float64(attempt))
		delay := time.Duration(backoff * (0.5 + rng.Float64()*0.5))
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
	return "", lastErr
}
