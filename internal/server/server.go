// Package server assembles the registry, dispatcher, hub and HTTP server
// into one runnable unit.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/Tyrowin/roomchat/internal/chat"
	"github.com/gorilla/websocket"
	"github.com/rs/cors"
	"golang.org/x/sync/errgroup"
)

// Server is one roomchat process: a room registry shared by the WebSocket
// dispatcher and the HTTP room creation endpoint.
type Server struct {
	cfg        Config
	registry   *chat.Registry
	dispatcher *Dispatcher
	hub        *Hub
	metrics    *Metrics
	upgrader   websocket.Upgrader
	cors       *cors.Cors
	httpServer *http.Server
	log        *slog.Logger
}

// New builds a Server from cfg. Nothing is started until Run.
func New(cfg Config, log *slog.Logger) (*Server, error) {
	cfg = sanitizeConfig(cfg)

	codes, err := chat.NewCodeGenerator(cfg.RoomCodeLength)
	if err != nil {
		return nil, err
	}
	registry, err := chat.NewRegistry(log.With("component", "registry"),
		chat.WithCapacity(cfg.RoomCapacity),
		chat.WithCodeGenerator(codes),
	)
	if err != nil {
		return nil, fmt.Errorf("create registry: %w", err)
	}

	metrics := NewMetrics(registry)
	dispatcher := NewDispatcher(registry, metrics, log)
	origins := newOriginPolicy(cfg.AllowedOrigins, log)

	s := &Server{
		cfg:        cfg,
		registry:   registry,
		dispatcher: dispatcher,
		hub:        NewHub(dispatcher, metrics, cfg, log),
		metrics:    metrics,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     origins.check,
		},
		cors: cors.New(cors.Options{
			AllowedOrigins: cfg.AllowedOrigins,
			AllowedMethods: []string{http.MethodPost, http.MethodOptions},
			AllowedHeaders: []string{"Content-Type"},
		}),
		log: log,
	}
	s.httpServer = CreateServer(cfg.Port, SetupRoutes(s))
	return s, nil
}

// Handler returns the root HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

// Registry returns the room registry.
func (s *Server) Registry() *chat.Registry {
	return s.registry
}

// Hub returns the connection hub.
func (s *Server) Hub() *Hub {
	return s.hub
}

// Run serves HTTP, runs the hub and the pending room janitor, and blocks
// until ctx is cancelled or the listener fails. It then shuts everything
// down within the configured timeout.
func (s *Server) Run(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		s.hub.Run()
		return nil
	})
	g.Go(func() error {
		s.sweepPendingRooms(ctx)
		return nil
	})
	g.Go(func() error {
		s.log.Info("server listening", "addr", s.httpServer.Addr)
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("listen on %s: %w", s.httpServer.Addr, err)
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		return s.shutdown()
	})

	return g.Wait()
}

func (s *Server) shutdown() error {
	s.log.Info("server shutdown started")

	httpErr := ShutdownServer(s.httpServer, s.cfg.ShutdownTimeout)
	if httpErr != nil {
		s.log.Error("http server shutdown", "err", httpErr)
	}
	hubErr := s.hub.Shutdown(s.cfg.ShutdownTimeout)

	if err := errors.Join(httpErr, hubErr); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	s.log.Info("server shutdown completed")
	return nil
}

// sweepPendingRooms periodically drops rooms that were created but never
// joined within PendingRoomTTL.
func (s *Server) sweepPendingRooms(ctx context.Context) {
	ticker := time.NewTicker(s.cfg.SweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.registry.SweepPending(s.cfg.PendingRoomTTL)
		}
	}
}
