package obs

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics carry bounded cardinality labels only — never room_id or user id —
// an explicit guard against unbounded label cardinality turning into a DoS
// vector on the metrics endpoint itself.
var (
	tickDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "arena_tick_duration_seconds",
		Help:    "Time spent advancing one room tick",
		Buckets: []float64{0.001, 0.005, 0.01, 0.02, 0.033, 0.05, 0.1},
	}, []string{"mode"})

	roomCount = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "arena_room_count",
		Help: "Current number of active rooms",
	}, []string{"mode"})

	playerCount = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "arena_player_count",
		Help: "Current number of connected players",
	}, []string{"mode"})

	connectionsRejected = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "arena_connections_rejected_total",
		Help: "Connections rejected at the gateway",
	}, []string{"reason"}) // bounded: rate_limit, origin, capacity, invalid

	wsConnectionsActive = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "arena_ws_connections_active",
		Help: "Currently active WebSocket connections",
	})

	shotsRejected = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "arena_shots_rejected_total",
		Help: "Shoot requests rejected",
	}, []string{"reason"}) // bounded: cooldown, ammo, aim, busy, inactive

	matchesCompleted = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "arena_matches_completed_total",
		Help: "Matches that reached RESULTS",
	}, []string{"mode"})
)

// RecordTick observes tick duration for a mode.
func RecordTick(mode string, d time.Duration) {
	tickDuration.WithLabelValues(mode).Observe(d.Seconds())
}

// SetRoomCount updates the room gauge for a mode.
func SetRoomCount(mode string, n int) {
	roomCount.WithLabelValues(mode).Set(float64(n))
}

// SetPlayerCount updates the player gauge for a mode.
func SetPlayerCount(mode string, n int) {
	playerCount.WithLabelValues(mode).Set(float64(n))
}

// RecordConnectionRejected increments the rejection counter for a bounded reason.
func RecordConnectionRejected(reason string) {
	connectionsRejected.WithLabelValues(reason).Inc()
}

// RecordShotRejected increments the shot-rejection counter for a bounded reason.
func RecordShotRejected(reason string) {
	shotsRejected.WithLabelValues(reason).Inc()
}

// RecordMatchCompleted increments the completed-match counter for a mode.
func RecordMatchCompleted(mode string) {
	matchesCompleted.WithLabelValues(mode).Inc()
}

// SetWSConnections updates the active WebSocket connection gauge.
func SetWSConnections(n int) {
	wsConnectionsActive.Set(float64(n))
}

// Handler returns the /metrics HTTP handler.
func Handler() http.Handler {
	return promhttp.Handler()
}
