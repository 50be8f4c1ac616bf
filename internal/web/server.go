package web

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/MrWong99/hexavox/internal/health"
	"github.com/MrWong99/hexavox/internal/observe"
)

// shutdownTimeout bounds the listener drain once Run's context ends.
const shutdownTimeout = 10 * time.Second

//go:embed index.html
var indexHTML []byte

// Server is the trainer's HTTP surface: the embedded viewer page at /, the
// status feed at /ws, health probes and Prometheus metrics.
type Server struct {
	addr    string
	hub     *Hub
	handler http.Handler
	logger  *slog.Logger
}

// NewServer assembles the routes around hub. A nil metrics uses the package
// default instruments; checkers feed the /readyz probe.
func NewServer(addr string, hub *Hub, metrics *observe.Metrics, checkers ...health.Checker) *Server {
	if metrics == nil {
		metrics = observe.DefaultMetrics()
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /{$}", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.Write(indexHTML)
	})
	mux.HandleFunc("GET /ws", hub.ServeWS)
	mux.Handle("GET /metrics", promhttp.Handler())
	health.New(checkers...).Register(mux)

	return &Server{
		addr:    addr,
		hub:     hub,
		handler: observe.Middleware(metrics)(mux),
		logger:  slog.With(slog.String("component", "web")),
	}
}

// Handler returns the assembled routes, middleware included. Exposed so
// tests can mount the server without binding a port.
func (s *Server) Handler() http.Handler { return s.handler }

// Run serves until ctx is cancelled, then disconnects the viewers and drains
// the listener. A clean shutdown returns nil.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.addr,
		Handler:           s.handler,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		err := srv.ListenAndServe()
		if errors.Is(err, http.ErrServerClosed) {
			err = nil
		}
		errCh <- err
	}()
	s.logger.Info("status server listening", slog.String("addr", s.addr))

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("web: serve: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	// Websocket handlers hold their connections open; close the hub first
	// so Shutdown is not stuck waiting for them.
	s.hub.Close()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("web: shutdown: %w", err)
	}
	if err := <-errCh; err != nil {
		return fmt.Errorf("web: serve: %w", err)
	}
	s.logger.Info("status server stopped")
	return nil
}
