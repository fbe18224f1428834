package webhook_test

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/hookrelay/pkg/webhook"
)

func TestSender_Post_Success(t *testing.T) {
	t.Parallel()

	payload := []byte(`{"event":"test","id":"123"}`)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		assert.Equal(t, "hookrelay/1.0", r.Header.Get("User-Agent"))

		body, err := io.ReadAll(r.Body)
		require.NoError(t, err)
		assert.Equal(t, payload, body)

		w.Header().Set("X-Reply", "yes")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"success":true}`))
	}))
	defer server.Close()

	sender := webhook.NewSender()
	resp, err := sender.Post(context.Background(), server.URL, payload, map[string]string{
		"Content-Type": "application/json",
	})
	require.NoError(t, err)
	assert.True(t, resp.Success())
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, `{"success":true}`, string(resp.Body))
	assert.Equal(t, "yes", resp.Header.Get("X-Reply"))
	assert.Positive(t, resp.Duration)
}

func TestSender_Post_NonSuccessStatusIsNotAnError(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		statusCode int
	}{
		{"bad request", http.StatusBadRequest},
		{"unauthorized", http.StatusUnauthorized},
		{"too many requests", http.StatusTooManyRequests},
		{"internal error", http.StatusInternalServerError},
		{"service unavailable", http.StatusServiceUnavailable},
		{"redirect", http.StatusNotModified},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			var attempts int32
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				atomic.AddInt32(&attempts, 1)
				w.WriteHeader(tt.statusCode)
				_, _ = w.Write([]byte("nope"))
			}))
			defer server.Close()

			resp, err := webhook.NewSender().Post(context.Background(), server.URL, []byte(`{}`), nil)
			require.NoError(t, err)
			assert.False(t, resp.Success())
			assert.Equal(t, tt.statusCode, resp.StatusCode)
			assert.Equal(t, int32(1), atomic.LoadInt32(&attempts), "post must never retry")
		})
	}
}

func TestSender_Post_HeadersAndOptions(t *testing.T) {
	t.Parallel()

	payload := []byte(`{"test":"data"}`)
	secret := "webhook_secret"

	var (
		mu      sync.Mutex
		results []webhook.DeliveryResult
	)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "from-message", r.Header.Get("X-Message-Header"))
		assert.Equal(t, "static", r.Header.Get("X-Custom-Header"))

		user, pass, ok := r.BasicAuth()
		assert.True(t, ok)
		assert.Equal(t, "relay", user)
		assert.Equal(t, "s3cret", pass)

		sig, err := webhook.ParseSignatureHeaders(r.Header)
		require.NoError(t, err)
		assert.Equal(t, "msg-42", sig.ID)

		body, _ := io.ReadAll(r.Body)
		assert.NoError(t, webhook.VerifySignature(secret, body, sig, 5*time.Minute))

		w.WriteHeader(http.StatusAccepted)
	}))
	defer server.Close()

	sender := webhook.NewSender(
		webhook.WithBasicAuth("relay", "s3cret"),
		webhook.WithSignature(secret),
	)
	resp, err := sender.Post(
		context.Background(),
		server.URL,
		payload,
		map[string]string{
			"X-Message-Header": "from-message",
			"X-Custom-Header":  "overridden",
		},
		webhook.WithHeader("X-Custom-Header", "static"),
		webhook.WithDeliveryID("msg-42"),
		webhook.WithTimeout(5*time.Second),
		webhook.WithOnDelivery(func(result webhook.DeliveryResult) {
			mu.Lock()
			defer mu.Unlock()
			results = append(results, result)
		}),
	)

	require.NoError(t, err)
	assert.Equal(t, http.StatusAccepted, resp.StatusCode)

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, results, 1)
	assert.True(t, results[0].Success)
	assert.Equal(t, http.StatusAccepted, results[0].StatusCode)
	assert.NoError(t, results[0].Error)
}

func TestSender_Post_Timeout(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	var hookErr error
	resp, err := webhook.NewSender().Post(context.Background(), server.URL, []byte(`{}`), nil,
		webhook.WithTimeout(20*time.Millisecond),
		webhook.WithOnDelivery(func(r webhook.DeliveryResult) { hookErr = r.Error }),
	)
	require.Error(t, err)
	assert.Nil(t, resp)
	assert.True(t, webhook.IsTimeout(err))
	assert.ErrorIs(t, hookErr, webhook.ErrTimeout)
}

func TestSender_Post_ConnectionRefused(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := server.URL
	server.Close()

	resp, err := webhook.NewSender().Post(context.Background(), url, []byte(`{}`), nil)
	require.Error(t, err)
	assert.Nil(t, resp)
	assert.ErrorIs(t, err, webhook.ErrTemporaryFailure)
}

func TestSender_Post_ContextCancellation(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
	}))
	defer server.Close()

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(20 * time.Millisecond)
		cancel()
	}()

	_, err := webhook.NewSender().Post(ctx, server.URL, []byte(`{}`), nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, webhook.ErrTemporaryFailure)
}

func TestSender_Post_ValidationErrors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		url  string
	}{
		{"empty URL", ""},
		{"invalid scheme", "ftp://example.com/webhook"},
		{"missing host", "http:///webhook"},
		{"malformed", "http://[::1"},
	}

	sender := webhook.NewSender()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			_, err := sender.Post(context.Background(), tt.url, []byte(`{}`), nil)
			assert.ErrorIs(t, err, webhook.ErrInvalidURL)
		})
	}
}

func TestSender_Post_EmptyBody(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		assert.Empty(t, body)
		w.WriteHeader(http.StatusNoContent)
	}))
	defer server.Close()

	resp, err := webhook.NewSender().Post(context.Background(), server.URL, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
}

func TestSender_Post_ResponseBodyIsBounded(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(strings.Repeat("x", 100*1024)))
	}))
	defer server.Close()

	resp, err := webhook.NewSender().Post(context.Background(), server.URL, []byte(`{}`), nil)
	require.NoError(t, err)
	assert.Len(t, resp.Body, 64*1024)
}

func TestSender_Concurrent(t *testing.T) {
	t.Parallel()

	var count int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&count, 1)
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	sender := webhook.NewSender()
	var wg sync.WaitGroup
	for range 20 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			resp, err := sender.Post(context.Background(), server.URL, []byte(`{}`), nil)
			assert.NoError(t, err)
			assert.True(t, resp.Success())
		}()
	}
	wg.Wait()
	assert.Equal(t, int32(20), atomic.LoadInt32(&count))
}

func TestNewSenderFromConfig(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, pass, ok := r.BasicAuth()
		assert.True(t, ok)
		assert.Equal(t, "u", user)
		assert.Equal(t, "p", pass)
		assert.NotEmpty(t, r.Header.Get(webhook.HeaderSignature))
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	sender := webhook.NewSenderFromConfig(webhook.Config{
		AuthUsername:  "u",
		AuthPassword:  "p",
		Timeout:       time.Second,
		SigningSecret: "k",
	})
	resp, err := sender.Post(context.Background(), server.URL, []byte(`{}`), nil)
	require.NoError(t, err)
	assert.True(t, resp.Success())
}

func TestNewSenderWithClient(t *testing.T) {
	t.Parallel()

	var used atomic.Bool
	client := &http.Client{Transport: roundTripFunc(func(r *http.Request) (*http.Response, error) {
		used.Store(true)
		return &http.Response{
			StatusCode: http.StatusTeapot,
			Body:       io.NopCloser(strings.NewReader("short and stout")),
			Header:     http.Header{},
		}, nil
	})}

	resp, err := webhook.NewSenderWithClient(client).Post(context.Background(), "https://hooks.example.com/in", []byte(`{}`), nil)
	require.NoError(t, err)
	assert.True(t, used.Load())
	assert.Equal(t, http.StatusTeapot, resp.StatusCode)
	assert.Equal(t, "short and stout", string(resp.Body))
}

type roundTripFunc func(*http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(r *http.Request) (*http.Response, error) { return f(r) }
