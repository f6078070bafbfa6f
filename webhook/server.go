package webhook

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/cloudwego/hertz/pkg/app/server"

	"github.com/pthm-cable/shoal/config"
	"github.com/pthm-cable/shoal/game"
)

// Server runs the webhook endpoints in the background.
type Server struct {
	h       *server.Hertz
	addr    string
	timeout time.Duration
}

// NewServer builds a server for g listening on cfg.Addr.
func NewServer(cfg config.WebhookConfig, g *game.Game) *Server {
	timeout := time.Duration(cfg.ShutdownTimeout * float64(time.Second))
	if timeout <= 0 {
		timeout = 2 * time.Second
	}
	h := server.Default(
		server.WithHostPorts(cfg.Addr),
		server.WithExitWaitTime(timeout),
		server.WithDisablePrintRoute(true),
	)
	Handler{Game: g}.RegisterRoutes(h)
	return &Server{h: h, addr: cfg.Addr, timeout: timeout}
}

// Start serves requests on a new goroutine.
func (s *Server) Start() {
	slog.Info("webhook listening", "addr", s.addr)
	go func() {
		if err := s.h.Run(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("webhook server stopped", "error", err)
		}
	}()
}

// Stop shuts the server down, waiting at most the configured timeout.
func (s *Server) Stop() error {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()
	err := s.h.Shutdown(ctx)
	slog.Info("webhook stopped", "addr", s.addr)
	return err
}
