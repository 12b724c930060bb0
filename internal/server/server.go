package server

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	"github.com/tartampluch/life-countdown/internal/config"
	"github.com/tartampluch/life-countdown/internal/engine"
)

// feed is one published revision of the countdown calendar.
type feed struct {
	data     []byte
	etag     string
	modified time.Time
}

// FeedServer serves the active countdown as an iCalendar subscription on localhost.
// It implements engine.Publisher.
type FeedServer struct {
	Port  string
	Clock engine.Clock

	// current is read on every request and replaced only when a countdown is loaded.
	current atomic.Pointer[feed]
	addr    atomic.Pointer[string]
}

// NewFeedServer creates a server for port. It does not listen until Start is called.
func NewFeedServer(port string, clock engine.Clock) *FeedServer {
	if clock == nil {
		clock = engine.RealClock{}
	}
	return &FeedServer{Port: port, Clock: clock}
}

// ValidatePort checks that port is a TCP port number. The returned error
// carries one of the config.ErrPort* messages.
func ValidatePort(port string) error {
	port = strings.TrimSpace(port)
	if port == "" {
		return errors.New(config.ErrPortRequired)
	}
	n, err := strconv.Atoi(port)
	if err != nil {
		return errors.New(config.ErrPortNumber)
	}
	if n < config.MinPort || n > config.MaxPort {
		return errors.New(config.ErrPortRange)
	}
	return nil
}

// Start binds the listener and serves until ctx is cancelled.
// Bind failures are returned immediately.
func (s *FeedServer) Start(ctx context.Context) error {
	if s.Port == "" {
		return errors.New(config.ErrPortRequired)
	}

	ln, err := net.Listen("tcp", net.JoinHostPort(config.LocalhostBindAddr, s.Port))
	if err != nil {
		return fmt.Errorf("%s: %w", config.ErrServerStartup, err)
	}
	bound := ln.Addr().String()
	s.addr.Store(&bound)

	srv := &http.Server{
		Handler:      s.Handler(),
		ReadTimeout:  config.ServerReadTimeout,
		WriteTimeout: config.ServerWriteTimeout,
		IdleTimeout:  config.ServerIdleTimeout,
	}

	serverError := make(chan error, config.ChannelBufferSize)
	go func() {
		slog.Info(config.MsgServerListen,
			config.LogKeyComponent, config.CompServer,
			config.LogKeyPort, s.Port,
			config.LogKeyURL, s.URL(),
		)
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverError <- err
		}
	}()

	select {
	case <-ctx.Done():
		slog.Info(config.MsgServerStop, config.LogKeyComponent, config.CompServer)
		shutdownCtx, cancel := context.WithTimeout(context.Background(), config.ShutdownTimeout)
		defer cancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("%s: %w", config.ErrServerShutdown, err)
		}
		return nil

	case err := <-serverError:
		return fmt.Errorf("%s: %w", config.ErrServerStartup, err)
	}
}

// URL returns the subscription address. Before Start it is derived from Port.
func (s *FeedServer) URL() string {
	if a := s.addr.Load(); a != nil {
		host, port, err := net.SplitHostPort(*a)
		if err == nil {
			return fmt.Sprintf(config.FormatFeedURL, host, port)
		}
	}
	return fmt.Sprintf(config.FormatFeedURL, config.LocalhostBindAddr, s.Port)
}

// Update publishes data. Re-publishing identical bytes keeps the previous
// Last-Modified so subscribed clients are not told the feed changed.
func (s *FeedServer) Update(data []byte) {
	hash := sha256.Sum256(data)
	etag := fmt.Sprintf(config.FormatETag, hex.EncodeToString(hash[:]))

	if prev := s.current.Load(); prev != nil && prev.etag == etag {
		return
	}

	s.current.Store(&feed{
		data:     data,
		etag:     etag,
		modified: s.Clock.Now().UTC().Truncate(time.Second),
	})

	slog.Debug(config.MsgCacheUpdated,
		config.LogKeyComponent, config.CompServer,
		config.LogKeySizeBytes, len(data),
		config.LogKeyETag, etag,
	)
}

// Handler returns the HTTP handler serving the feed.
func (s *FeedServer) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc(config.RouteRoot, s.serveFeed)
	return mux
}

// serveFeed answers GET and HEAD with the latest published calendar.
func (s *FeedServer) serveFeed(w http.ResponseWriter, r *http.Request) {
	// 1. Method check.
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		w.Header().Set(config.HeaderAllow, config.AllowedMethods)
		http.Error(w, config.HTTPMsgMethodNotAll, http.StatusMethodNotAllowed)
		return
	}

	// 2. Nothing published yet: ask the client to retry.
	f := s.current.Load()
	if f == nil {
		w.Header().Set(config.HeaderRetryAfter, config.RetryAfterSeconds)
		http.Error(w, config.HTTPMsgInitializing, http.StatusServiceUnavailable)
		return
	}

	// 3. Headers, then the conditional short-circuit.
	h := w.Header()
	h.Set(config.HeaderContentType, config.MimeTextCalendar)
	h.Set(config.HeaderXContentType, config.MimeNoSniff)
	h.Set(config.HeaderCacheControl, config.CacheControlPrivate)
	h.Set(config.HeaderETag, f.etag)
	h.Set(config.HeaderLastModified, f.modified.Format(http.TimeFormat))

	if notModified(r, f) {
		w.WriteHeader(http.StatusNotModified)
		return
	}

	// 4. Body (skipped for HEAD).
	h.Set(config.HeaderContentLength, strconv.Itoa(len(f.data)))
	if r.Method == http.MethodHead {
		return
	}
	if _, err := w.Write(f.data); err != nil {
		slog.Error(config.ErrWriteResp,
			config.LogKeyComponent, config.CompServer,
			config.LogKeyError, err,
		)
	}
}

// notModified applies If-None-Match first and falls back to If-Modified-Since (RFC 9110 13.2.2).
func notModified(r *http.Request, f *feed) bool {
	if match := r.Header.Get(config.HeaderIfNoneMatch); match != "" {
		for _, tag := range strings.Split(match, ",") {
			tag = strings.TrimSpace(tag)
			if tag == f.etag || tag == "*" {
				return true
			}
		}
		return false
	}

	since := r.Header.Get(config.HeaderIfModifiedSince)
	if since == "" {
		return false
	}
	t, err := http.ParseTime(since)
	if err != nil {
		return false
	}
	return !f.modified.After(t)
}
