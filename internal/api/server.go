package api

import (
	"context"
	"net/http"

	"go.uber.org/zap"

	"arenaserver/internal/config"
	"arenaserver/internal/gateway"
	"arenaserver/internal/obs"
	"arenaserver/internal/ratelimit"
	"arenaserver/internal/registry"
)

// Server wraps the HTTP router in a net/http.Server with graceful shutdown,
// stripped of the admin-panel/Kick wiring and pointed at the gateway hub
// instead of a single global WebSocketHub.
type Server struct {
	httpServer *http.Server
	ipLimiter  *ratelimit.IPLimiter
}

// NewServer builds the HTTP server. Background goroutines (the scheduler,
// rate limiter cleanup loops) are started by the caller, not here — Start
// only opens the listener.
func NewServer(addr string, hub *gateway.Hub, registries map[config.Mode]*registry.Registry, ipLimiter *ratelimit.IPLimiter) *Server {
	router := NewRouter(RouterConfig{Hub: hub, Registries: registries, IPLimiter: ipLimiter})
	return &Server{
		httpServer: &http.Server{Addr: addr, Handler: router},
		ipLimiter:  ipLimiter,
	}
}

// Router returns the HTTP handler, for use with httptest.
func (s *Server) Router() http.Handler {
	return s.httpServer.Handler
}

// Start blocks serving HTTP until the listener fails or Shutdown is called.
func (s *Server) Start() error {
	obs.L().Raw().Info("http server starting", zap.String("addr", s.httpServer.Addr))
	err := s.httpServer.ListenAndServe()
	if err == http.ErrServerClosed {
		return nil
	}
	return err
}

// Shutdown gracefully stops the HTTP server and the IP limiter's cleanup loop.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.ipLimiter != nil {
		s.ipLimiter.Stop()
	}
	return s.httpServer.Shutdown(ctx)
}
