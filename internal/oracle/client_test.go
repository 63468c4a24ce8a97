package oracle

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newCompletionServer(t *testing.T, status int, body string, delay time.Duration) *httptest.Server {
	t.Helper()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		reqBody, err := io.ReadAll(r.Body)
		require.NoError(t, err)

		var req completionRequest
		require.NoError(t, json.Unmarshal(reqBody, &req))
		require.Len(t, req.Messages, 1)
		assert.Equal(t, "user", req.Messages[0].Role)
		assert.False(t, req.Stream)

		if delay > 0 {
			time.Sleep(delay)
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		w.Write([]byte(body))
	}))

	t.Cleanup(server.Close)
	return server
}

func TestClientComplete(t *testing.T) {
	server := newCompletionServer(t, http.StatusOK,
		`{"choices":[{"index":0,"finish_reason":"stop","message":{"role":"assistant","content":"1. YES\n2. NO"}}]}`, 0)

	client, err := NewClient(&ClientOptions{
		Endpoint:    server.URL,
		Model:       "test-model",
		Temperature: 0.6,
		MaxTokens:   512,
		Timeout:     5 * time.Second,
	}, nil)
	require.NoError(t, err)

	got, err := client.Complete(context.Background(), "classify these links")
	require.NoError(t, err)
	assert.Equal(t, "1. YES\n2. NO", got)
}

func TestClientCompleteErrors(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		delay  time.Duration
	}{
		{
			name:   "server error status",
			status: http.StatusInternalServerError,
			body:   `{"error":"overloaded"}`,
		},
		{
			name:   "empty choices",
			status: http.StatusOK,
			body:   `{"choices":[]}`,
		},
		{
			name:   "malformed body",
			status: http.StatusOK,
			body:   `{not json`,
		},
		{
			name:   "timeout",
			status: http.StatusOK,
			body:   `{"choices":[]}`,
			delay:  2 * time.Second,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := newCompletionServer(t, tt.status, tt.body, tt.delay)

			client, err := NewClient(&ClientOptions{
				Endpoint: server.URL,
				Model:    "test-model",
				Timeout:  200 * time.Millisecond,
			}, nil)
			require.NoError(t, err)

			_, err = client.Complete(context.Background(), "prompt")
			assert.Error(t, err)
		})
	}
}

func TestClientRequiresEndpoint(t *testing.T) {
	_, err := NewClient(&ClientOptions{}, nil)
	assert.Error(t, err)
}

func TestClientRespectsContextCancellation(t *testing.T) {
	server := newCompletionServer(t, http.StatusOK, `{"choices":[]}`, time.Second)

	client, err := NewClient(&ClientOptions{
		Endpoint: server.URL,
		Model:    "test-model",
		Timeout:  5 * time.Second,
	}, nil)
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err = client.Complete(ctx, "prompt")
	assert.Error(t, err)
}
