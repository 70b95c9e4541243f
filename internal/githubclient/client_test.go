package githubclient

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newTestClient builds a client against a test server with deterministic
// backoff: zero jitter, a pinned clock, and a recorded sleep that advances
// the clock instead of actually waiting.
func newTestClient(t *testing.T, handler http.HandlerFunc, opts ...Option) (*Client, *[]time.Duration) {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	clock := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	var sleeps []time.Duration
	opts = append([]Option{
		WithBaseURL(server.URL),
		WithSleepFunc(func(d time.Duration) {
			sleeps = append(sleeps, d)
			clock = clock.Add(d)
		}),
	}, opts...)
	client := New("", opts...)
	client.jitter = func() time.Duration { return 0 }
	client.now = func() time.Time { return clock }
	return client, &sleeps
}

func TestGetSuccessFirstAttempt(t *testing.T) {
	hits := 0
	client, sleeps := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		hits++
		_, _ = w.Write([]byte(`{"ok":true}`))
	})

	payload, err := client.Get(context.Background(), "/repos/a/b", nil)
	require.NoError(t, err)
	assert.JSONEq(t, `{"ok":true}`, string(payload))
	assert.Equal(t, 1, hits)
	assert.Empty(t, *sleeps)
}

func TestGetRetriesTransientThenSucceeds(t *testing.T) {
	hits := 0
	client, sleeps := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		hits++
		if hits < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_, _ = w.Write([]byte(`{}`))
	})

	_, err := client.Get(context.Background(), "/repos/a/b", nil)
	require.NoError(t, err)
	assert.Equal(t, 3, hits)
	// Exponential backoff without jitter: 1s after attempt 0, 2s after attempt 1.
	assert.Equal(t, []time.Duration{time.Second, 2 * time.Second}, *sleeps)
}

func TestGetTerminalStopsImmediately(t *testing.T) {
	hits := 0
	client, sleeps := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		hits++
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"message":"Not Found"}`))
	})

	_, err := client.Get(context.Background(), "/repos/a/missing", nil)
	require.Error(t, err)

	var terminal *TerminalError
	require.ErrorAs(t, err, &terminal)
	assert.Equal(t, http.StatusNotFound, terminal.StatusCode)
	assert.Contains(t, terminal.Error(), "Not Found")
	assert.Equal(t, 1, hits, "terminal errors must not consume further attempts")
	assert.Empty(t, *sleeps)
	assert.True(t, IsNotFound(err))
}

func TestGetExhaustsBudgetOnTransient(t *testing.T) {
	hits := 0
	client, _ := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		hits++
		w.WriteHeader(http.StatusBadGateway)
	}, WithMaxAttempts(3))

	_, err := client.Get(context.Background(), "/repos/a/b", nil)
	require.Error(t, err)

	var transient *TransientError
	require.ErrorAs(t, err, &transient)
	assert.Equal(t, 3, transient.Attempts)
	assert.Equal(t, 3, hits)
}

func TestGetRateLimited(t *testing.T) {
	client, sleeps := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("X-RateLimit-Remaining", "0")
		w.Header().Set("Retry-After", "7")
		w.WriteHeader(http.StatusForbidden)
		_, _ = w.Write([]byte(`{"message":"API rate limit exceeded"}`))
	}, WithMaxAttempts(2))

	_, err := client.Get(context.Background(), "/repos/a/b", nil)
	require.Error(t, err)

	var rateLimited *RateLimitedError
	require.ErrorAs(t, err, &rateLimited)
	assert.Equal(t, 2, rateLimited.Attempts)
	// Retry-After wins over computed backoff.
	assert.Equal(t, []time.Duration{7 * time.Second}, *sleeps)
}

func TestRateLimitPausesLaterCalls(t *testing.T) {
	hits := 0
	client, sleeps := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		hits++
		if hits == 1 {
			w.Header().Set("X-RateLimit-Remaining", "0")
			w.Header().Set("Retry-After", "30")
			w.WriteHeader(http.StatusForbidden)
			_, _ = w.Write([]byte(`{"message":"API rate limit exceeded"}`))
			return
		}
		_, _ = w.Write([]byte(`{}`))
	}, WithMaxAttempts(1))

	// The call that exhausts the budget fails without sleeping.
	_, err := client.Get(context.Background(), "/repos/a/b", nil)
	var rateLimited *RateLimitedError
	require.ErrorAs(t, err, &rateLimited)
	require.Empty(t, *sleeps)

	// A later call on the same client waits out the window first instead
	// of issuing a request against the exhausted budget.
	payload, err := client.Get(context.Background(), "/repos/a/c", nil)
	require.NoError(t, err)
	assert.JSONEq(t, `{}`, string(payload))
	assert.Equal(t, []time.Duration{30 * time.Second}, *sleeps)
	assert.Equal(t, 2, hits)
}

func TestGetForbiddenWithoutRateLimitIsTerminal(t *testing.T) {
	hits := 0
	client, _ := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		hits++
		w.WriteHeader(http.StatusForbidden)
		_, _ = w.Write([]byte(`{"message":"Repository access blocked"}`))
	})

	_, err := client.Get(context.Background(), "/repos/a/b", nil)
	var terminal *TerminalError
	require.ErrorAs(t, err, &terminal)
	assert.Equal(t, http.StatusForbidden, terminal.StatusCode)
	assert.Equal(t, 1, hits)
}

func TestGetTooManyRequests(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}, WithMaxAttempts(2))

	_, err := client.Get(context.Background(), "/repos/a/b", nil)
	var rateLimited *RateLimitedError
	require.ErrorAs(t, err, &rateLimited)
}

func TestServerWaitPrecedence(t *testing.T) {
	client := New("")
	client.jitter = func() time.Duration { return 0 }
	now := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	client.now = func() time.Time { return now }

	tests := []struct {
		name    string
		headers map[string]string
		attempt int
		want    time.Duration
	}{
		{
			name:    "retry-after header wins",
			headers: map[string]string{"Retry-After": "9", "X-RateLimit-Reset": "2000000000"},
			want:    9 * time.Second,
		},
		{
			name:    "retry-after capped",
			headers: map[string]string{"Retry-After": "3600"},
			want:    maxServerWait,
		},
		{
			name:    "reset time used when no retry-after",
			headers: map[string]string{"X-RateLimit-Reset": "1785585615"}, // now + 15s
			want:    15 * time.Second,
		},
		{
			name:    "reset in the past means no wait",
			headers: map[string]string{"X-RateLimit-Reset": "1785585500"},
			want:    0,
		},
		{
			name:    "fallback to backoff",
			headers: map[string]string{},
			attempt: 2,
			want:    4 * time.Second,
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			resp := &http.Response{Header: http.Header{}}
			for k, v := range tc.headers {
				resp.Header.Set(k, v)
			}
			assert.Equal(t, tc.want, client.serverWait(resp, tc.attempt))
		})
	}
}

func TestBackoffCapped(t *testing.T) {
	client := New("")
	client.jitter = func() time.Duration { return 0 }

	assert.Equal(t, time.Second, client.backoff(0))
	assert.Equal(t, 4*time.Second, client.backoff(2))
	assert.Equal(t, maxBackoff, client.backoff(10))

	// Attempt counts past the shift width must not overflow to a zero or
	// negative sleep.
	assert.Equal(t, maxBackoff, client.backoff(40))
	assert.Equal(t, maxBackoff, client.backoff(200))
}

func TestGetJSONMalformedPayload(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"truncated`))
	})

	var v map[string]any
	err := client.GetJSON(context.Background(), "/repos/a/b", nil, &v)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "malformed JSON")
}

func TestGetContextCanceled(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := client.Get(ctx, "/repos/a/b", nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestGetCancelInterruptsBackoffSleep(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Retry-After", "60")
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	t.Cleanup(server.Close)

	// Real sleeper on purpose: the cancellation has to cut the wait short.
	client := New("", WithBaseURL(server.URL))
	ctx, cancel := context.WithCancel(context.Background())
	time.AfterFunc(50*time.Millisecond, cancel)

	start := time.Now()
	_, err := client.Get(ctx, "/repos/a/b", nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Less(t, time.Since(start), 5*time.Second)
}

func TestAuthorizationHeader(t *testing.T) {
	var gotAuth, gotAgent string
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotAgent = r.Header.Get("User-Agent")
		_, _ = w.Write([]byte(`{}`))
	})
	client.token = "ghp_test"

	_, err := client.Get(context.Background(), "/repos/a/b", nil)
	require.NoError(t, err)
	assert.Equal(t, "Bearer ghp_test", gotAuth)
	assert.Equal(t, userAgent, gotAgent)
}

func TestErrMessageFallback(t *testing.T) {
	assert.Equal(t, "Not Found", errMessage([]byte(`{"message":"Not Found"}`)))
	assert.Equal(t, "plain text error", errMessage([]byte("plain text error")))

	long := make([]byte, 200)
	for i := range long {
		long[i] = 'x'
	}
	assert.Len(t, errMessage(long), 120)
}
