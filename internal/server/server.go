// Package server exposes the chat service over a JSON API, server-rendered
// HTML pages and a websocket feed of session changes.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/yolodolo42/mockchat/internal/chat"
	"github.com/yolodolo42/mockchat/internal/render"
)

const (
	maxBodyBytes    = 1 << 20
	shutdownTimeout = 10 * time.Second
)

// Server serves the chat service over HTTP
type Server struct {
	svc        *chat.Service
	hub        *Hub
	logger     *slog.Logger
	theme      render.Theme
	corsOrigin string
	staticDir  string
}

// Option configures a Server
type Option func(*Server)

// WithLogger sets the logger. The default is slog.Default.
func WithLogger(l *slog.Logger) Option {
	return func(s *Server) { s.logger = l }
}

// WithTheme sets the page theme used when the browser has no theme cookie.
func WithTheme(t render.Theme) Option {
	return func(s *Server) { s.theme = t }
}

// WithCORSOrigin sets the allowed cross-origin caller. Empty disables CORS
// headers.
func WithCORSOrigin(origin string) Option {
	return func(s *Server) { s.corsOrigin = origin }
}

// WithStaticDir serves a single-page app build from dir under /app/.
func WithStaticDir(dir string) Option {
	return func(s *Server) { s.staticDir = dir }
}

// New creates a server for svc.
func New(svc *chat.Service, opts ...Option) *Server {
	s := &Server{
		svc:        svc,
		logger:     slog.Default(),
		theme:      render.ThemeDark,
		corsOrigin: "*",
	}
	for _, opt := range opts {
		opt(s)
	}
	s.hub = NewHub(s.logger, s.corsOrigin)
	return s
}

// Hub returns the websocket hub. It only delivers events while Run or
// Serve is active; a Handler mounted elsewhere needs Hub().Start first, or
// /ws answers 503.
func (s *Server) Hub() *Hub {
	return s.hub
}

// Handler returns the routed handler with middleware applied.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /health", s.handleHealth)
	mux.HandleFunc("POST /api/start", s.handleStart)
	mux.HandleFunc("POST /api/ask", s.handleAsk)
	mux.HandleFunc("GET /api/sessions", s.handleSessions)
	mux.HandleFunc("GET /api/session/{id}", s.handleSession)
	mux.HandleFunc("DELETE /api/session/{id}", s.handleDelete)
	mux.HandleFunc("POST /api/feedback", s.handleFeedback)
	mux.HandleFunc("POST /api/render", s.handleRender)
	mux.Handle("GET /ws", s.hub)

	mux.HandleFunc("GET /{$}", s.pageIndex)
	mux.HandleFunc("GET /chat/{id}", s.pageChat)
	mux.HandleFunc("POST /chat/new", s.pageNew)
	mux.HandleFunc("POST /chat/{id}/ask", s.pageAsk)
	mux.HandleFunc("POST /chat/{id}/delete", s.pageDelete)
	mux.HandleFunc("POST /chat/{id}/feedback", s.pageFeedback)
	mux.HandleFunc("POST /theme", s.pageTheme)

	if s.staticDir != "" {
		mux.Handle("GET /app/", http.StripPrefix("/app", spaHandler(s.staticDir)))
	}

	var h http.Handler = mux
	h = cors(s.corsOrigin, h)
	h = recoverPanics(s.logger, h)
	h = logRequests(s.logger, h)
	return h
}

// Run listens on addr and serves until ctx is cancelled.
func (s *Server) Run(ctx context.Context, addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", addr, err)
	}
	return s.Serve(ctx, ln)
}

// Serve serves on ln until ctx is cancelled, then shuts down gracefully.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	hubCtx, stopHub := context.WithCancel(ctx)
	defer stopHub()
	s.hub.Start(hubCtx)

	srv := &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Serve(ln)
	}()
	s.logger.Info("server listening", "addr", ln.Addr().String())

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	s.logger.Info("server shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown failed: %w", err)
	}
	return nil
}

func (s *Server) notify(kind, sessionID string) {
	s.hub.Broadcast(Event{Type: kind, SessionID: sessionID})
}
