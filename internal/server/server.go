// Package server exposes a live terrain over HTTP for debugging: JSON
// snapshots, a rendered overlay, a destruct endpoint, Prometheus metrics and
// a websocket feed of destructions.
package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/roketz/terrain/internal/config"
	"github.com/roketz/terrain/internal/core/events/bus"
	"github.com/roketz/terrain/internal/core/observability/log"
	"github.com/roketz/terrain/internal/core/terrain"
)

const (
	// MaxOverlayScale bounds the ?scale= parameter of /overlay.png.
	MaxOverlayScale = 16
	// DefaultMaxOverlayPixels fits an 800x600 map at scale 8.
	DefaultMaxOverlayPixels = 1 << 25
)

// Options configures a DebugServer.
type Options struct {
	Addr string
	// Scale multiplies terrain units into overlay pixels.
	Scale uint32
	// MaxOverlayPixels caps the size of a rendered overlay.
	MaxOverlayPixels  int
	ReadHeaderTimeout time.Duration
	WriteTimeout      time.Duration
}

func OptionsFromConfig(c *config.Config) Options {
	return Options{
		Addr:              c.Server.Addr,
		Scale:             c.Graphics.Scale,
		MaxOverlayPixels:  DefaultMaxOverlayPixels,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      10 * time.Second,
	}
}

// DebugServer serialises every terrain access behind a mutex, so HTTP
// handlers can run concurrently with the owner of the terrain as long as the
// owner goes through Do.
type DebugServer struct {
	mu      sync.Mutex
	terrain *terrain.Terrain

	opts   Options
	logger log.Log
	sub    bus.Subscription

	httpServer *http.Server
	listener   net.Listener

	clientsMu sync.Mutex
	clients   map[*client]struct{}

	running atomic.Bool
	closed  atomic.Bool
}

// New creates a server for t and subscribes to its destruction events on
// eventBus. A nil bus disables the websocket feed.
func New(opts Options, t *terrain.Terrain, eventBus bus.EventBus, logger log.Log) (*DebugServer, error) {
	if logger == nil {
		logger = log.Provide()
	}
	if opts.Scale == 0 {
		opts.Scale = 1
	}
	if opts.MaxOverlayPixels <= 0 {
		opts.MaxOverlayPixels = DefaultMaxOverlayPixels
	}

	s := &DebugServer{
		terrain: t,
		opts:    opts,
		logger:  logger.With(log.String("component", "debug_server")),
		clients: make(map[*client]struct{}),
	}

	if eventBus != nil {
		sub, err := eventBus.Subscribe(terrain.EventDestructed, s.onDestructed)
		if err != nil {
			return nil, fmt.Errorf("subscribe to destructions: %w", err)
		}
		s.sub = sub
	}
	return s, nil
}

// Do runs fn with exclusive access to the terrain.
func (s *DebugServer) Do(fn func(t *terrain.Terrain)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fn(s.terrain)
}

// Handler returns the HTTP routes of the server.
func (s *DebugServer) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /snapshot", s.handleSnapshot)
	mux.HandleFunc("GET /overlay.png", s.handleOverlay)
	mux.HandleFunc("POST /destruct", s.handleDestruct)
	mux.Handle("GET /metrics", metricsHandler())
	mux.HandleFunc("GET /ws", s.handleWebSocket)
	return mux
}

// Start listens on the configured address and serves in the background.
func (s *DebugServer) Start(ctx context.Context) error {
	if s.closed.Load() {
		return ErrServerClosed
	}
	if !s.running.CompareAndSwap(false, true) {
		return ErrServerAlreadyRunning
	}

	var lc net.ListenConfig
	listener, err := lc.Listen(ctx, "tcp", s.opts.Addr)
	if err != nil {
		s.running.Store(false)
		s.logger.Error("Failed to create listener", log.Error(err))
		return errors.Join(ErrListenerFailed, err)
	}
	s.listener = listener

	// A shut down http.Server cannot serve again, so every Start gets a new one.
	httpServer := &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: s.opts.ReadHeaderTimeout,
		WriteTimeout:      s.opts.WriteTimeout,
	}
	s.httpServer = httpServer

	go func() {
		if err := httpServer.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("Debug server stopped unexpectedly", log.Error(err))
		}
	}()

	s.logger.Info("Debug server listening", log.String("addr", listener.Addr().String()))
	return nil
}

// Addr returns the bound address once the server is started.
func (s *DebugServer) Addr() net.Addr {
	if s.listener == nil {
		return nil
	}
	return s.listener.Addr()
}

// Stop shuts the HTTP server down and disconnects websocket clients.
func (s *DebugServer) Stop(ctx context.Context) error {
	if !s.running.CompareAndSwap(true, false) {
		return ErrServerNotRunning
	}

	s.logger.Info("Stopping debug server")
	s.disconnectAll()

	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	s.logger.Info("Debug server stopped")
	return nil
}

// Close stops the server if needed and drops the bus subscription.
func (s *DebugServer) Close() error {
	if !s.closed.CompareAndSwap(false, true) {
		return nil
	}

	var err error
	if s.running.Load() {
		err = s.Stop(context.Background())
	}
	s.disconnectAll()
	if s.sub != nil {
		err = errors.Join(err, s.sub.Cancel())
	}
	return err
}
