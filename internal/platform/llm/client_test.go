package llm

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yungbote/civicpulse-backend/internal/platform/logger"
)

func completionBody(content string) string {
	return `{"id":"cmpl-1","object":"chat.completion","created":1,"model":"llama-3.1-8b-instant",` +
		`"choices":[{"index":0,"message":{"role":"assistant","content":"` + content + `"},"finish_reason":"stop"}]}`
}

func newTestClient(t *testing.T, url string, retries int) Client {
	t.Helper()
	c, err := NewClientWithConfig(logger.Nop(), Config{
		APIKey:     "test-key",
		BaseURL:    url,
		MaxRetries: retries,
		RetryBase:  time.Millisecond,
		RetryMax:   5 * time.Millisecond,
	})
	require.NoError(t, err)
	return c
}

func TestCompleteSendsScoringRequest(t *testing.T) {
	var got map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(completionBody("8")))
	}))
	defer srv.Close()

	c := newTestClient(t, srv.URL, 0)
	out, err := c.Complete(context.Background(), "rate this", 5)
	require.NoError(t, err)
	assert.Equal(t, "8", out)
	assert.Equal(t, DefaultModel, got["model"])
	assert.EqualValues(t, 5, got["max_tokens"])
	assert.Contains(t, got, "temperature")
}

func TestCompleteRetriesServerErrors(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if atomic.AddInt32(&calls, 1) == 1 {
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = w.Write([]byte(`{"error":{"message":"overloaded","type":"server_error"}}`))
			return
		}
		_, _ = w.Write([]byte(completionBody("3")))
	}))
	defer srv.Close()

	c := newTestClient(t, srv.URL, 2)
	out, err := c.Complete(context.Background(), "p", 5)
	require.NoError(t, err)
	assert.Equal(t, "3", out)
	assert.EqualValues(t, 2, atomic.LoadInt32(&calls))
}

func TestCompleteDoesNotRetryClientErrors(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error":{"message":"bad key","type":"invalid_request_error"}}`))
	}))
	defer srv.Close()

	c := newTestClient(t, srv.URL, 3)
	_, err := c.Complete(context.Background(), "p", 5)
	require.Error(t, err)
	assert.EqualValues(t, 1, atomic.LoadInt32(&calls))
	assert.Equal(t, "401", statusLabel(err))
}

func TestNewClientRequiresKey(t *testing.T) {
	_, err := NewClientWithConfig(logger.Nop(), Config{})
	assert.True(t, errors.Is(err, ErrNotConfigured))
}
