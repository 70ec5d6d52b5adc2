package webui

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/undergrid/stagehand/internal/domain"
	"github.com/undergrid/stagehand/internal/render"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	client, err := NewClient(Config{BaseURL: server.URL}, testLogger())
	require.NoError(t, err)
	return client
}

func TestNewClientRequiresBaseURL(t *testing.T) {
	_, err := NewClient(Config{}, testLogger())
	assert.ErrorIs(t, err, render.ErrInvalidConfig)
}

func TestGenerateRoutesByKind(t *testing.T) {
	var gotPath string
	var gotBody map[string]any

	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		_ = json.NewEncoder(w).Encode(map[string]any{
			"images": []string{base64.StdEncoding.EncodeToString([]byte("png-bytes"))},
		})
	})

	t.Run("generate hits txt2img", func(t *testing.T) {
		data, err := client.Generate(context.Background(), "task-1", domain.TaskKindGenerate,
			json.RawMessage(`{"prompt":"a lighthouse","steps":20}`))

		require.NoError(t, err)
		assert.Equal(t, []byte("png-bytes"), data)
		assert.Equal(t, "/sdapi/v1/txt2img", gotPath)
		assert.Equal(t, "a lighthouse", gotBody["prompt"])
		assert.Equal(t, "task-1", gotBody["force_task_id"])
	})

	t.Run("transform hits img2img", func(t *testing.T) {
		_, err := client.Generate(context.Background(), "task-2", domain.TaskKindTransform,
			json.RawMessage(`{"init_images":["x"]}`))

		require.NoError(t, err)
		assert.Equal(t, "/sdapi/v1/img2img", gotPath)
		assert.Equal(t, "task-2", gotBody["force_task_id"])
	})
}

func TestGenerateNoArtifact(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"images": []}`))
	})

	_, err := client.Generate(context.Background(), "t", domain.TaskKindGenerate, nil)
	assert.ErrorIs(t, err, render.ErrNoArtifact)
}

func TestGenerateEndpointErrors(t *testing.T) {
	t.Run("non-2xx status", func(t *testing.T) {
		client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "boom", http.StatusInternalServerError)
		})

		_, err := client.Generate(context.Background(), "t", domain.TaskKindGenerate, nil)
		assert.ErrorIs(t, err, render.ErrEndpoint)
	})

	t.Run("malformed JSON", func(t *testing.T) {
		client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`{"images": [`))
		})

		_, err := client.Generate(context.Background(), "t", domain.TaskKindGenerate, nil)
		assert.ErrorIs(t, err, render.ErrInvalidResponse)
	})

	t.Run("invalid base64 artifact", func(t *testing.T) {
		client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`{"images": ["!!not-base64!!"]}`))
		})

		_, err := client.Generate(context.Background(), "t", domain.TaskKindGenerate, nil)
		assert.ErrorIs(t, err, render.ErrInvalidResponse)
	})
}

func TestPreview(t *testing.T) {
	preview := base64.StdEncoding.EncodeToString([]byte("preview-bytes"))

	t.Run("data URI prefix is stripped", func(t *testing.T) {
		var gotReq progressRequest
		client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			require.Equal(t, "/internal/progress", r.URL.Path)
			require.NoError(t, json.NewDecoder(r.Body).Decode(&gotReq))
			_ = json.NewEncoder(w).Encode(map[string]any{
				"active":       true,
				"live_preview": "data:image/png;base64," + preview,
			})
		})

		data, active, err := client.Preview(context.Background(), "task-9")

		require.NoError(t, err)
		assert.True(t, active)
		assert.Equal(t, []byte("preview-bytes"), data)
		assert.Equal(t, "task-9", gotReq.IDTask)
		assert.Equal(t, -1, gotReq.IDLivePreview)
		assert.True(t, gotReq.LivePreview)
	})

	t.Run("bare base64 preview", func(t *testing.T) {
		client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			_ = json.NewEncoder(w).Encode(map[string]any{
				"active":       true,
				"live_preview": preview,
			})
		})

		data, _, err := client.Preview(context.Background(), "t")
		require.NoError(t, err)
		assert.Equal(t, []byte("preview-bytes"), data)
	})

	t.Run("no preview yet", func(t *testing.T) {
		client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`{"active": true}`))
		})

		data, active, err := client.Preview(context.Background(), "t")
		require.NoError(t, err)
		assert.True(t, active)
		assert.Nil(t, data)
	})

	t.Run("endpoint down", func(t *testing.T) {
		client, err := NewClient(Config{BaseURL: "http://127.0.0.1:1"}, testLogger())
		require.NoError(t, err)

		_, _, err = client.Preview(context.Background(), "t")
		assert.ErrorIs(t, err, render.ErrEndpoint)
	})
}

func TestInjectTaskID(t *testing.T) {
	t.Run("empty payload becomes an object", func(t *testing.T) {
		got, err := injectTaskID(nil, "task-1")

		require.NoError(t, err)
		assert.JSONEq(t, `{"force_task_id":"task-1"}`, string(got))
	})

	t.Run("null payload becomes an object", func(t *testing.T) {
		got, err := injectTaskID(json.RawMessage("null"), "task-1")

		require.NoError(t, err)
		assert.JSONEq(t, `{"force_task_id":"task-1"}`, string(got))
	})

	t.Run("object gains the id", func(t *testing.T) {
		got, err := injectTaskID(json.RawMessage(`{"prompt":"a cat"}`), "task-1")

		require.NoError(t, err)
		assert.JSONEq(t, `{"prompt":"a cat","force_task_id":"task-1"}`, string(got))
	})

	t.Run("non-object passes through verbatim", func(t *testing.T) {
		got, err := injectTaskID(json.RawMessage(`[1,2,3]`), "task-1")

		require.NoError(t, err)
		assert.Equal(t, `[1,2,3]`, string(got))
	})
}

func TestGenerateNullPayload(t *testing.T) {
	var gotBody map[string]any
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		_ = json.NewEncoder(w).Encode(map[string]any{
			"images": []string{base64.StdEncoding.EncodeToString([]byte("png"))},
		})
	})

	data, err := client.Generate(context.Background(), "task-9", domain.TaskKindGenerate,
		json.RawMessage("null"))

	require.NoError(t, err)
	assert.Equal(t, []byte("png"), data)
	assert.Equal(t, "task-9", gotBody["force_task_id"])
}
