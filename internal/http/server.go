// Package http exposes the normalized feed and the upload queue to the
// view layer as a JSON API plus a websocket status stream.
package http

import (
	"bufio"
	"context"
	"errors"
	"net"
	"net/http"
	"sync"
	"time"

	"gofinances/internal/feed"
	"gofinances/internal/log"
	"gofinances/internal/upload"
)

type Server struct {
	http.Server

	loader *feed.Loader
	queue  *upload.Queue
	logger *log.Logger

	rateLimiter *rateLimiter
	hub         *hub

	startedAt    time.Time
	shutdownOnce sync.Once
}

func NewServer(addr string, loader *feed.Loader, queue *upload.Queue, logger *log.Logger) *Server {
	if logger == nil {
		logger = log.New(log.Config{Component: log.ComponentHTTP})
	}

	s := &Server{
		loader:      loader,
		queue:       queue,
		logger:      logger.WithComponent(log.ComponentHTTP),
		rateLimiter: newRateLimiter(30, time.Minute),
		hub:         newHub(logger),
		startedAt:   time.Now(),
	}
	s.Addr = addr
	s.Handler = s.routes()

	s.ReadTimeout = 10 * time.Second
	s.WriteTimeout = 30 * time.Second
	s.IdleTimeout = 60 * time.Second
	s.MaxHeaderBytes = 1 << 16 // 64KB

	// Every entry status change goes out on the websocket stream.
	queue.SetOnChange(s.hub.BroadcastEntry)

	return s
}

func (s *Server) routes() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /api/feed", s.handleFeed)
	mux.HandleFunc("POST /api/feed/reload", s.rateLimited(s.handleFeedReload))
	mux.HandleFunc("GET /api/imports", s.handleImportList)
	mux.HandleFunc("POST /api/imports", s.rateLimited(s.handleImportSelect))
	mux.HandleFunc("POST /api/imports/submit", s.rateLimited(s.handleImportSubmit))
	mux.HandleFunc("POST /api/imports/{id}/retry", s.rateLimited(s.handleImportRetry))
	mux.HandleFunc("GET /ws", s.hub.handleWS)

	return s.withLogging(mux)
}

// withLogging logs one line per request with a generated request ID.
func (s *Server) withLogging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		requestID := generateRequestID()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

		next.ServeHTTP(rec, r)

		s.logger.Info("Request handled",
			log.FieldRequestID, requestID,
			log.FieldMethod, r.Method,
			log.FieldPath, r.URL.Path,
			log.FieldStatusCode, rec.status,
			log.FieldDuration, time.Since(start).Milliseconds(),
			log.FieldClientIP, clientIP(r))
	})
}

// rateLimited rejects clients that hammer the mutating endpoints.
func (s *Server) rateLimited(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !s.rateLimiter.allow(clientIP(r)) {
			s.logger.Warn("Rate limit exceeded", log.FieldClientIP, clientIP(r), log.FieldPath, r.URL.Path)
			writeError(w, http.StatusTooManyRequests, "too many requests")
			return
		}
		next(w, r)
	}
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

// Hijack lets the websocket upgrade work through the logging wrapper.
func (r *statusRecorder) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	hj, ok := r.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, errors.New("response writer does not support hijacking")
	}
	return hj.Hijack()
}

// Shutdown stops the HTTP server, the websocket hub, and the rate limiter
// cleanup goroutine. Safe to call more than once.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		s.hub.close()
		s.rateLimiter.stop()
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}
