package server

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tartampluch/life-countdown/internal/config"
	"github.com/tartampluch/life-countdown/internal/engine"
)

var publishedAt = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

func newTestServer() *FeedServer {
	return NewFeedServer("0", engine.ClockFunc(func() time.Time { return publishedAt }))
}

func serve(srv *FeedServer, req *http.Request) *http.Response {
	w := httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, req)
	return w.Result()
}

// -----------------------------------------------------------------------------
// Handler Tests
// -----------------------------------------------------------------------------

func TestHandler_ServingFeed(t *testing.T) {
	srv := newTestServer()
	ics := []byte("BEGIN:VCALENDAR\r\nVERSION:2.0\r\nEND:VCALENDAR\r\n")
	srv.Update(ics)

	resp := serve(srv, httptest.NewRequest(http.MethodGet, "/", nil))
	defer func() { _ = resp.Body.Close() }()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, config.MimeTextCalendar, resp.Header.Get(config.HeaderContentType))
	assert.Equal(t, config.MimeNoSniff, resp.Header.Get(config.HeaderXContentType))
	assert.Contains(t, resp.Header.Get(config.HeaderCacheControl), "no-cache")
	assert.NotEmpty(t, resp.Header.Get(config.HeaderETag))
	assert.Equal(t, publishedAt.Format(http.TimeFormat), resp.Header.Get(config.HeaderLastModified))

	body, _ := io.ReadAll(resp.Body)
	assert.Equal(t, ics, body)
}

func TestHandler_Head(t *testing.T) {
	srv := newTestServer()
	srv.Update([]byte("FEED"))

	resp := serve(srv, httptest.NewRequest(http.MethodHead, "/", nil))
	defer func() { _ = resp.Body.Close() }()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "4", resp.Header.Get(config.HeaderContentLength))
	body, _ := io.ReadAll(resp.Body)
	assert.Empty(t, body)
}

func TestHandler_ConditionalRequests(t *testing.T) {
	srv := newTestServer()
	srv.Update([]byte("FEED_V1"))

	first := serve(srv, httptest.NewRequest(http.MethodGet, "/", nil))
	etag := first.Header.Get(config.HeaderETag)
	require.NotEmpty(t, etag)

	tests := []struct {
		name   string
		header string
		value  string
		want   int
	}{
		{"Matching ETag", config.HeaderIfNoneMatch, etag, http.StatusNotModified},
		{"ETag in a list", config.HeaderIfNoneMatch, `"other", ` + etag, http.StatusNotModified},
		{"Wildcard", config.HeaderIfNoneMatch, "*", http.StatusNotModified},
		{"Stale ETag", config.HeaderIfNoneMatch, `"stale"`, http.StatusOK},
		{"Not modified since", config.HeaderIfModifiedSince, publishedAt.Format(http.TimeFormat), http.StatusNotModified},
		{"Modified since", config.HeaderIfModifiedSince, publishedAt.Add(-time.Hour).Format(http.TimeFormat), http.StatusOK},
		{"Unparseable date", config.HeaderIfModifiedSince, "yesterday", http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.Header.Set(tt.header, tt.value)

			resp := serve(srv, req)
			defer func() { _ = resp.Body.Close() }()

			assert.Equal(t, tt.want, resp.StatusCode)
			if tt.want == http.StatusNotModified {
				body, _ := io.ReadAll(resp.Body)
				assert.Empty(t, body, "Body must be empty on 304 Not Modified")
			}
		})
	}
}

func TestUpdate_SameContentKeepsLastModified(t *testing.T) {
	now := publishedAt
	srv := NewFeedServer("0", engine.ClockFunc(func() time.Time { return now }))

	srv.Update([]byte("FEED"))
	now = now.Add(time.Hour)
	srv.Update([]byte("FEED"))

	resp := serve(srv, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, publishedAt.Format(http.TimeFormat), resp.Header.Get(config.HeaderLastModified))

	srv.Update([]byte("FEED_V2"))
	resp = serve(srv, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, now.Format(http.TimeFormat), resp.Header.Get(config.HeaderLastModified))
}

func TestHandler_MethodNotAllowed(t *testing.T) {
	srv := newTestServer()

	resp := serve(srv, httptest.NewRequest(http.MethodPost, "/", nil))
	defer func() { _ = resp.Body.Close() }()

	assert.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)
	assert.Equal(t, config.AllowedMethods, resp.Header.Get(config.HeaderAllow))
}

func TestHandler_Initializing(t *testing.T) {
	resp := serve(newTestServer(), httptest.NewRequest(http.MethodGet, "/", nil))
	defer func() { _ = resp.Body.Close() }()

	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
	assert.Equal(t, config.RetryAfterSeconds, resp.Header.Get(config.HeaderRetryAfter))
}

func TestValidatePort(t *testing.T) {
	tests := []struct {
		port    string
		wantErr string
	}{
		{"18081", ""},
		{" 8080 ", ""},
		{"1", ""},
		{"65535", ""},
		{"", config.ErrPortRequired},
		{"http", config.ErrPortNumber},
		{"0", config.ErrPortRange},
		{"65536", config.ErrPortRange},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("%q", tt.port), func(t *testing.T) {
			err := ValidatePort(tt.port)
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			assert.EqualError(t, err, tt.wantErr)
		})
	}
}

// -----------------------------------------------------------------------------
// Concurrency Tests
// -----------------------------------------------------------------------------

// TestServer_RaceCondition runs writers and readers together. Run with `go test -race`.
func TestServer_RaceCondition(t *testing.T) {
	srv := NewFeedServer("0", nil)
	var wg sync.WaitGroup
	end := time.Now().Add(300 * time.Millisecond)

	for w := 0; w < 5; w++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			for i := 0; time.Now().Before(end); i++ {
				srv.Update([]byte(fmt.Sprintf("VERSION:%d-%d", id, i)))
				time.Sleep(time.Microsecond)
			}
		}(w)
	}

	for r := 0; r < 20; r++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for time.Now().Before(end) {
				w := httptest.NewRecorder()
				srv.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
				if w.Code != http.StatusOK && w.Code != http.StatusServiceUnavailable {
					t.Errorf("Unexpected status code during race test: %d", w.Code)
				}
			}
		}()
	}

	wg.Wait()
}

// -----------------------------------------------------------------------------
// Integration Tests (Real TCP Lifecycle)
// -----------------------------------------------------------------------------

func TestServer_Lifecycle(t *testing.T) {
	srv := newTestServer()
	ctx, cancel := context.WithCancel(context.Background())
	errChan := make(chan error, 1)

	go func() { errChan <- srv.Start(ctx) }()

	// Port "0" binds an ephemeral port; URL reports it once the listener is up.
	require.Eventually(t, func() bool { return srv.addr.Load() != nil }, 2*time.Second, 10*time.Millisecond)
	url := srv.URL()

	resp, err := http.Get(url)
	require.NoError(t, err)
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
	_ = resp.Body.Close()

	srv.Update([]byte("BEGIN:VCALENDAR\r\nEND:VCALENDAR\r\n"))

	resp, err = http.Get(url)
	require.NoError(t, err)
	body, err := io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), "BEGIN:VCALENDAR")

	cancel()
	select {
	case err := <-errChan:
		assert.NoError(t, err, "Server should shut down gracefully")
	case <-time.After(5 * time.Second):
		t.Fatal("Server shutdown timed out")
	}
}

func TestServer_StartErrors(t *testing.T) {
	err := NewFeedServer("", nil).Start(context.Background())
	assert.EqualError(t, err, config.ErrPortRequired)

	err = NewFeedServer("not-a-port", nil).Start(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), config.ErrServerStartup)
}

func TestURL_BeforeStart(t *testing.T) {
	assert.Equal(t, "http://127.0.0.1:18081/", NewFeedServer("18081", nil).URL())
}

// FeedServer is the engine's publisher in production.
var _ engine.Publisher = (*FeedServer)(nil)
