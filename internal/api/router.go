// Package api assembles the HTTP surface: health/metrics for operators, a
// read-only debug snapshot of live rooms, and the WebSocket upgrade route
// the gateway hub owns. Built on the same chi + middleware.Logger/Recoverer
// + cors router shape as the rest of this codebase, stripped of every
// admin-panel and Kick-OAuth concern this deployment doesn't have.
package api

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"arenaserver/internal/config"
	"arenaserver/internal/gateway"
	"arenaserver/internal/obs"
	"arenaserver/internal/ratelimit"
	"arenaserver/internal/registry"
)

// RouterConfig carries every collaborator the HTTP surface needs.
type RouterConfig struct {
	Hub         *gateway.Hub
	Registries  map[config.Mode]*registry.Registry
	IPLimiter   *ratelimit.IPLimiter
	CORSOrigins []string
}

// NewRouter builds the HTTP handler. Pure: no goroutines, no listeners, safe
// for httptest.
func NewRouter(cfg RouterConfig) *chi.Mux {
	r := chi.NewRouter()

	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	if cfg.IPLimiter != nil {
		r.Use(cfg.IPLimiter.Middleware)
	}

	origins := cfg.CORSOrigins
	if origins == nil {
		origins = []string{"http://localhost:*", "http://127.0.0.1:*"}
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{"GET"},
	}))

	r.Get("/health", handleHealth)
	r.Get("/metrics", handleMetrics)
	r.Get("/debug/rooms", handleDebugRooms(cfg.Registries))
	r.Get("/ws", cfg.Hub.ServeWS)

	return r
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("OK"))
}

func handleMetrics(w http.ResponseWriter, r *http.Request) {
	obs.Handler().ServeHTTP(w, r)
}

// debugRoomSummary is the bounded-cardinality shape the debug endpoint
// exposes: counts and ids only, never full player state, so this route is
// safe to leave open to operators without becoming a second snapshot feed.
type debugRoomSummary struct {
	Mode        string `json:"mode"`
	RoomID      string `json:"roomId"`
	State       string `json:"state"`
	PlayerCount int    `json:"playerCount"`
}

func handleDebugRooms(registries map[config.Mode]*registry.Registry) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		out := make([]debugRoomSummary, 0)
		for mode, reg := range registries {
			for _, room := range reg.Rooms() {
				room.Lock()
				out = append(out, debugRoomSummary{
					Mode:        string(mode),
					RoomID:      room.ID(),
					State:       room.State().String(),
					PlayerCount: room.PlayerCount(),
				})
				room.Unlock()
			}
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(out)
	}
}
