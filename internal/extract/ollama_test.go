package extract

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yourusername/workspace-advisor/internal/logging"
	"github.com/yourusername/workspace-advisor/pkg/models"
)

func ollamaServer(t *testing.T, handler func(t *testing.T, req generateRequest) (int, string)) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet && r.URL.Path == "/" {
			_, _ = w.Write([]byte("Ollama is running"))
			return
		}
		assert.Equal(t, generatePath, r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		var req generateRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		status, body := handler(t, req)
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func envelope(t *testing.T, response string) string {
	t.Helper()
	out, err := json.Marshal(generateResponse{Model: "phi3:mini", Response: response, Done: true})
	require.NoError(t, err)
	return string(out)
}

func TestOllama_Extract(t *testing.T) {
	srv := ollamaServer(t, func(t *testing.T, req generateRequest) (int, string) {
		assert.Equal(t, "phi3:mini", req.Model)
		assert.Equal(t, "json", req.Format)
		assert.False(t, req.Stream)
		assert.Contains(t, req.Prompt, `User Query: "standing desk near marketing"`)
		return http.StatusOK, envelope(t, `{"desk_type": "standing", "location_proximity": "marketing team", "floor": "3rd", "time_request": "tomorrow afternoon", "mood": "calm"}`)
	})

	o := NewOllama(OllamaConfig{BaseURL: srv.URL + "/api/generate", Model: "phi3:mini"}, logging.Discard())
	c, warnings, err := o.Extract(context.Background(), "standing desk near marketing")
	require.NoError(t, err)

	assert.Equal(t, models.DeskStanding, c.DeskType)
	assert.Equal(t, models.AffinityMarketing, c.Affinity.Kind)
	require.NotNil(t, c.Floor)
	assert.Equal(t, 3, *c.Floor)
	assert.Equal(t, "tomorrow afternoon", c.Window.Bucket())
	assert.Equal(t, []string{`dropped unrecognized criteria field "mood"`}, warnings)
}

func TestOllama_ExtractFailures(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    func(t *testing.T) string
		wantErr string
	}{
		{"server error", http.StatusInternalServerError, func(*testing.T) string { return "model not loaded" }, "status 500"},
		{"bad envelope", http.StatusOK, func(*testing.T) string { return "not json" }, "decode response envelope"},
		{"empty response", http.StatusOK, func(t *testing.T) string { return envelope(t, "  ") }, "response field is empty"},
		{"prose instead of json", http.StatusOK, func(t *testing.T) string { return envelope(t, "Sure! Here you go") }, "not a JSON object"},
		{"null", http.StatusOK, func(t *testing.T) string { return envelope(t, "null") }, "model output is null"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := ollamaServer(t, func(t *testing.T, _ generateRequest) (int, string) {
				return tt.status, tt.body(t)
			})
			o := NewOllama(OllamaConfig{BaseURL: srv.URL}, logging.Discard())

			_, _, err := o.Extract(context.Background(), "anything")
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrExtraction)
			assert.Contains(t, err.Error(), tt.wantErr)
			assert.False(t, IsTimeout(err))
		})
	}
}

func TestOllama_ExtractTimeout(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()
	defer close(release)

	o := NewOllama(OllamaConfig{BaseURL: srv.URL}, logging.Discard())
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, _, err := o.Extract(ctx, "anything")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrExtraction)
	assert.True(t, IsTimeout(err))
}

func TestOllama_Unreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	o := NewOllama(OllamaConfig{BaseURL: url}, logging.Discard())
	_, _, err := o.Extract(context.Background(), "anything")
	assert.ErrorIs(t, err, ErrExtraction)
	assert.Error(t, o.Ping(context.Background()))
}

func TestOllama_Ping(t *testing.T) {
	srv := ollamaServer(t, nil)
	o := NewOllama(OllamaConfig{BaseURL: srv.URL + "/"}, logging.Discard())
	assert.NoError(t, o.Ping(context.Background()))
}

func TestBuildPrompt(t *testing.T) {
	p := BuildPrompt(`  a "quiet" desk  `)
	assert.Contains(t, p, `User Query: "a \"quiet\" desk"`)
	assert.Contains(t, p, "- specific_features:")
	assert.True(t, strings.HasSuffix(p, "JSON Output:\n"))
}

func TestStaticAndRaw(t *testing.T) {
	c, w, err := Raw(map[string]any{"desk_type": "sitting", "floor": 2.0}).Extract(context.Background(), "")
	require.NoError(t, err)
	assert.Empty(t, w)
	assert.Equal(t, models.DeskSitting, c.DeskType)

	_, _, err = Static{Err: ErrExtraction}.Extract(context.Background(), "")
	assert.ErrorIs(t, err, ErrExtraction)
}
