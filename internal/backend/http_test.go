package backend

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHTTPBackend_Invoke(t *testing.T) {
	var got chatRequest
	var auth string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/chat/completions", r.URL.Path)
		auth = r.Header.Get("Authorization")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"choices":[{"message":{"role":"assistant","content":"{\"ok\": true}"},"finish_reason":"stop"}]}`))
	}))
	defer server.Close()

	b := NewHTTPBackend(HTTPConfig{BaseURL: server.URL, APIKey: "secret", Model: "test-model"})

	text, err := b.Invoke(context.Background(), "hello")

	require.NoError(t, err)
	assert.Equal(t, `{"ok": true}`, text)
	assert.Equal(t, "Bearer secret", auth)
	assert.Equal(t, "test-model", got.Model)
	require.NotNil(t, got.Temperature)
	assert.Equal(t, DefaultTemperature, *got.Temperature)
	require.Len(t, got.Messages, 1)
	assert.Equal(t, "user", got.Messages[0].Role)
	assert.Equal(t, "hello", got.Messages[0].Content)
}

func TestHTTPBackend_Temperature(t *testing.T) {
	zero, warm := 0.0, 1.2
	tests := []struct {
		name string
		cfg  *float64
		want float64
	}{
		{name: "unset uses default", cfg: nil, want: DefaultTemperature},
		{name: "zero is sent", cfg: &zero, want: 0},
		{name: "explicit value", cfg: &warm, want: 1.2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var body map[string]any
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
				_, _ = w.Write([]byte(`{"choices":[{"message":{"content":"ok"}}]}`))
			}))
			defer server.Close()

			b := NewHTTPBackend(HTTPConfig{BaseURL: server.URL, Temperature: tt.cfg})
			_, err := b.Invoke(context.Background(), "hello")

			require.NoError(t, err)
			require.Contains(t, body, "temperature")
			assert.Equal(t, tt.want, body["temperature"])
		})
	}
}

func TestHTTPBackend_Errors(t *testing.T) {
	tests := []struct {
		name          string
		status        int
		body          string
		wantRetryable bool
		wantErrSubstr string
	}{
		{
			name:          "too many requests is throttling",
			status:        http.StatusTooManyRequests,
			body:          `{"error":"slow down"}`,
			wantRetryable: true,
			wantErrSubstr: "rate limited",
		},
		{
			name:          "server error is not throttling",
			status:        http.StatusInternalServerError,
			body:          `{"error":"boom"}`,
			wantErrSubstr: "500",
		},
		{
			name:          "no choices",
			status:        http.StatusOK,
			body:          `{"choices":[]}`,
			wantErrSubstr: "missing choices",
		},
		{
			name:          "empty content",
			status:        http.StatusOK,
			body:          `{"choices":[{"message":{"content":"  "}}]}`,
			wantErrSubstr: "response empty",
		},
		{
			name:          "invalid body",
			status:        http.StatusOK,
			body:          `not json`,
			wantErrSubstr: "decode response",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer server.Close()

			b := NewHTTPBackend(HTTPConfig{BaseURL: server.URL, Timeout: 5 * time.Second})
			_, err := b.Invoke(context.Background(), "p")

			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErrSubstr)
			assert.Equal(t, tt.wantRetryable, IsRetryable(err))
		})
	}
}

func TestHTTPBackend_ThrottlingRetriedByClient(t *testing.T) {
	calls := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls++
		if calls == 1 {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		_, _ = w.Write([]byte(`{"choices":[{"message":{"content":"done"}}]}`))
	}))
	defer server.Close()

	c, sleeper := newTestClient(NewHTTPBackend(HTTPConfig{BaseURL: server.URL}))

	text, err := c.Generate(context.Background(), "p")

	require.NoError(t, err)
	assert.Equal(t, "done", text)
	assert.Equal(t, 2, calls)
	assert.Equal(t, []time.Duration{DefaultBackoff}, sleeper.waits)
}

func TestHTTPBackend_ConnectionFailure(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	url := server.URL
	server.Close()

	b := NewHTTPBackend(HTTPConfig{BaseURL: url, Timeout: time.Second})

	_, err := b.Invoke(context.Background(), "p")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "request failed")
}

func TestNewHTTPBackend_Defaults(t *testing.T) {
	b := NewHTTPBackend(HTTPConfig{})

	assert.Equal(t, DefaultBaseURL+"/chat/completions", b.endpoint)
	assert.Equal(t, DefaultModel, b.Model())
	assert.Equal(t, DefaultTimeout, b.http.Timeout)
}

func TestNormalizeBaseURL(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{in: "", want: ""},
		{in: "localhost:1234", want: "http://localhost:1234/v1"},
		{in: "https://api.example.com/v1/", want: "https://api.example.com/v1"},
		{in: " https://api.example.com ", want: "https://api.example.com/v1"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, normalizeBaseURL(tt.in))
		})
	}
}
