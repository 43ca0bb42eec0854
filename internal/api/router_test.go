package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"arenaserver/internal/arena"
	"arenaserver/internal/chatrouter"
	"arenaserver/internal/config"
	"arenaserver/internal/gateway"
	"arenaserver/internal/identity"
	"arenaserver/internal/registry"
	"arenaserver/internal/statssink"
)

func testRouter(t *testing.T) (http.Handler, map[config.Mode]*registry.Registry) {
	t.Helper()
	cfg := config.Load()
	registries := make(map[config.Mode]*registry.Registry)
	hub := gateway.NewHub(cfg, registries, nil, identity.GuestResolver{})
	chat := chatrouter.New(cfg.Chat, hub)
	hub.SetChat(chat)
	for _, mode := range []config.Mode{config.ModeBoss, config.ModePVP, config.ModeKOZ, config.ModeSlither} {
		registries[mode] = registry.New(mode, cfg, hub, statssink.NoopSink{})
	}
	r := NewRouter(RouterConfig{Hub: hub, Registries: registries})
	return r, registries
}

func TestHandleHealthReturnsOK(t *testing.T) {
	router, _ := testRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "OK", rec.Body.String())
}

func TestHandleMetricsServesPrometheusFormat(t *testing.T) {
	router, _ := testRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "text/plain")
}

func TestHandleDebugRoomsReportsBoundedSummaries(t *testing.T) {
	router, registries := testRouter(t)

	_, err := registries[config.ModeBoss].Join("user-1", "", arena.PlayerProfile{DisplayName: "A"}, "conn-1")
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/debug/rooms", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)

	var rooms []debugRoomSummary
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &rooms))
	require.Len(t, rooms, 1)
	assert.Equal(t, string(config.ModeBoss), rooms[0].Mode)
	assert.Equal(t, 1, rooms[0].PlayerCount)
	assert.NotEmpty(t, rooms[0].RoomID)
}

func TestHandleDebugRoomsEmptyWhenNoRoomsExist(t *testing.T) {
	router, _ := testRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/debug/rooms", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	var rooms []debugRoomSummary
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &rooms))
	assert.Empty(t, rooms)
}
