// Package webui implements the render.Client interface against a Stable
// Diffusion WebUI compatible HTTP API. The client is schema-blind: payloads
// pass through untouched apart from the task id injected for progress
// correlation, and only the images/live_preview fields of responses are
// interpreted.
package webui

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/undergrid/stagehand/internal/domain"
	"github.com/undergrid/stagehand/internal/render"
)

// Endpoint paths of the WebUI API.
const (
	txt2imgPath  = "/sdapi/v1/txt2img"
	img2imgPath  = "/sdapi/v1/img2img"
	progressPath = "/internal/progress"
)

// Config holds configuration for the WebUI client.
type Config struct {
	// BaseURL is the root of the WebUI API, e.g. "http://127.0.0.1:7860".
	BaseURL string

	// GenerateTimeout bounds a full generation call.
	GenerateTimeout time.Duration

	// PreviewTimeout bounds a single live-preview fetch.
	PreviewTimeout time.Duration
}

// DefaultConfig returns a Config with the timeouts the WebUI realistically
// needs: a diffusion run can take minutes, a preview fetch cannot.
func DefaultConfig() Config {
	return Config{
		BaseURL:         "http://127.0.0.1:7860",
		GenerateTimeout: 300 * time.Second,
		PreviewTimeout:  60 * time.Second,
	}
}

// Client talks to the Stable Diffusion WebUI HTTP API.
type Client struct {
	config     Config
	httpClient *http.Client
	logger     *slog.Logger
}

// NewClient creates a WebUI client.
func NewClient(config Config, logger *slog.Logger) (*Client, error) {
	if config.BaseURL == "" {
		return nil, fmt.Errorf("%w: base URL cannot be empty", render.ErrInvalidConfig)
	}
	if config.GenerateTimeout <= 0 {
		config.GenerateTimeout = DefaultConfig().GenerateTimeout
	}
	if config.PreviewTimeout <= 0 {
		config.PreviewTimeout = DefaultConfig().PreviewTimeout
	}

	return &Client{
		config:     config,
		httpClient: &http.Client{},
		logger:     logger.With("component", "webui_client"),
	}, nil
}

// generateResponse is the slice of the WebUI response the client interprets.
type generateResponse struct {
	Images []string `json:"images"`
}

// progressRequest matches the WebUI internal progress contract.
type progressRequest struct {
	IDTask        string `json:"id_task"`
	IDLivePreview int    `json:"id_live_preview"`
	LivePreview   bool   `json:"live_preview"`
}

type progressResponse struct {
	Active      bool   `json:"active"`
	LivePreview string `json:"live_preview"`
}

// Generate dispatches a generation call and decodes the first returned
// image. The kind selects between the txt2img and img2img endpoint
// variants.
func (c *Client) Generate(ctx context.Context, taskID string, kind domain.TaskKind, payload json.RawMessage) ([]byte, error) {
	path := txt2imgPath
	if kind == domain.TaskKindTransform {
		path = img2imgPath
	}

	body, err := injectTaskID(payload, taskID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", render.ErrInvalidResponse, err)
	}

	ctx, cancel := context.WithTimeout(ctx, c.config.GenerateTimeout)
	defer cancel()

	raw, err := c.post(ctx, path, body)
	if err != nil {
		return nil, err
	}

	var resp generateResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		return nil, fmt.Errorf("%w: %v", render.ErrInvalidResponse, err)
	}
	if len(resp.Images) == 0 {
		return nil, render.ErrNoArtifact
	}

	data, err := base64.StdEncoding.DecodeString(resp.Images[0])
	if err != nil {
		return nil, fmt.Errorf("%w: artifact is not valid base64: %v", render.ErrInvalidResponse, err)
	}
	return data, nil
}

// Preview fetches the latest live preview for an in-flight task. A missing
// preview is not an error: the endpoint simply has nothing to show yet.
func (c *Client) Preview(ctx context.Context, taskID string) ([]byte, bool, error) {
	reqBody, err := json.Marshal(progressRequest{
		IDTask:        taskID,
		IDLivePreview: -1,
		LivePreview:   true,
	})
	if err != nil {
		return nil, false, fmt.Errorf("%w: %v", render.ErrInvalidResponse, err)
	}

	ctx, cancel := context.WithTimeout(ctx, c.config.PreviewTimeout)
	defer cancel()

	raw, err := c.post(ctx, progressPath, reqBody)
	if err != nil {
		return nil, false, err
	}

	var resp progressResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		return nil, false, fmt.Errorf("%w: %v", render.ErrInvalidResponse, err)
	}
	if resp.LivePreview == "" {
		return nil, resp.Active, nil
	}

	data, err := decodeDataURI(resp.LivePreview)
	if err != nil {
		return nil, resp.Active, fmt.Errorf("%w: %v", render.ErrInvalidResponse, err)
	}
	return data, resp.Active, nil
}

// post issues the request and returns the response body, mapping transport
// and status failures to ErrEndpoint.
func (c *Client) post(ctx context.Context, path string, body []byte) ([]byte, error) {
	url := strings.TrimRight(c.config.BaseURL, "/") + path

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", render.ErrEndpoint, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", render.ErrEndpoint, err)
	}
	defer func() {
		if closeErr := resp.Body.Close(); closeErr != nil {
			c.logger.Warn("failed to close response body", "error", closeErr)
		}
	}()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", render.ErrEndpoint, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("%w: %s returned status %d", render.ErrEndpoint, path, resp.StatusCode)
	}
	return raw, nil
}

// injectTaskID sets force_task_id on JSON object payloads so the endpoint
// correlates progress requests. Non-object payloads pass through verbatim.
func injectTaskID(payload json.RawMessage, taskID string) ([]byte, error) {
	if len(payload) == 0 {
		return json.Marshal(map[string]any{"force_task_id": taskID})
	}

	var fields map[string]any
	if err := json.Unmarshal(payload, &fields); err != nil {
		// Not an object; forward untouched and let the endpoint decide.
		return payload, nil
	}
	if fields == nil {
		// A JSON null unmarshals cleanly into a nil map.
		fields = make(map[string]any, 1)
	}
	fields["force_task_id"] = taskID
	return json.Marshal(fields)
}

// decodeDataURI decodes a base64 preview that may carry a "data:...," style
// prefix.
func decodeDataURI(s string) ([]byte, error) {
	if idx := strings.IndexByte(s, ','); idx >= 0 {
		s = s[idx+1:]
	}
	return base64.StdEncoding.DecodeString(s)
}
