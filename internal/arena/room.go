package arena

import (
	"math/rand"
	"strconv"
	"sync"
	"time"

	"arenaserver/internal/config"
	"arenaserver/internal/spatial"
	"arenaserver/internal/statssink"
)

// gridCellSize is larger than every broad-phase query radius issued against
// Base.grid (the widest is KOZ's core pickup, core radius plus player radius),
// so a query spans at most two cells per axis.
const gridCellSize = 160.0

// RoomState is a position in the match lifecycle FSM.
type RoomState int

const (
	StateLobby RoomState = iota
	StateCountdown
	StateActive
	StateResults
	StateReset
)

func (s RoomState) String() string {
	switch s {
	case StateLobby:
		return "LOBBY"
	case StateCountdown:
		return "COUNTDOWN"
	case StateActive:
		return "ACTIVE"
	case StateResults:
		return "RESULTS"
	case StateReset:
		return "RESET"
	default:
		return "UNKNOWN"
	}
}

// Obstacle is a static circle or rect in the arena, optionally destructible.
type Obstacle struct {
	ID           string
	Rect         *RectShape
	Circle       *CircleShape
	Destructible bool
	HP           int
}

type RectShape struct{ X, Y, Width, Height float64 }
type CircleShape struct{ X, Y, Radius float64 }

// Room is the common interface every mode's simulation implements, so the
// registry and gateway can drive any of them without a type switch.
type Room interface {
	ID() string
	Mode() config.Mode
	Tick(now time.Time)
	HandleInput(connID string, in Input)
	HandleShoot(connID string, aimX, aimY float64) ([]*Projectile, RejectReason, bool)
	OnPlayerJoin(p *Player) error
	OnPlayerLeave(connID string, reason string)
	Snapshot() RoomSnapshot
	PlayerCount() int
	State() RoomState
	DrainEvents() []OutboundEvent
	Lock()
	Unlock()
}

// Outbound is the event sink a room uses to emit wire events. The gateway
// supplies the concrete implementation; arena never imports the transport
// layer.
type Outbound interface {
	ToRoom(roomID, eventType string, payload interface{})
	ToRoomExcept(roomID, exceptConnID, eventType string, payload interface{})
	ToConn(connID, eventType string, payload interface{})
}

// Base holds everything shared by every mode's room: players, projectiles,
// power-ups, lifecycle timers, obstacles, and the killfeed. Per-mode rooms
// embed Base and add their own hazard resolution and win-condition checks.
type Base struct {
	mu sync.Mutex

	roomID string
	mode   config.Mode
	mc     config.ModeConfig
	cfg    config.AppConfig

	state      RoomState
	createdAt  time.Time
	countdownEndAt time.Time
	matchEndAt     time.Time
	resultsEndAt   time.Time
	lastTickAt     time.Time

	players      map[string]*Player
	obstacles    []Obstacle
	projectiles  []*Projectile
	powerups     []*Powerup
	spawner      *PowerupSpawner
	killfeed     Killfeed
	grid         *spatial.SpatialGrid
	sap          *spatial.SweepAndPrune

	rng        *rand.Rand
	idSeq      uint64
	out        Outbound
	sink       statssink.Sink
	identityFn func(connID string) string

	lastScoreTickAt time.Time

	pending []OutboundEvent
}

func newBase(roomID string, mode config.Mode, cfg config.AppConfig, out Outbound, sink statssink.Sink) Base {
	now := time.Now()
	mc := cfg.Modes[mode]
	return Base{
		roomID:    roomID,
		mode:      mode,
		mc:        mc,
		cfg:       cfg,
		state:     StateLobby,
		createdAt: now,
		players:   make(map[string]*Player),
		spawner:   NewPowerupSpawner(cfg.PowerupC, now),
		grid:      spatial.NewSpatialGrid(mc.ArenaWidth, mc.ArenaHeight, gridCellSize, mc.Capacity),
		sap:       spatial.NewSweepAndPrune(mc.Capacity),
		rng:       rand.New(rand.NewSource(now.UnixNano())),
		out:       out,
		sink:      sink,
	}
}

func (b *Base) ID() string          { return b.roomID }
func (b *Base) Mode() config.Mode   { return b.mode }
func (b *Base) State() RoomState    { return b.state }
func (b *Base) Lock()               { b.mu.Lock() }
func (b *Base) Unlock()             { b.mu.Unlock() }
func (b *Base) PlayerCount() int    { return len(b.players) }

func (b *Base) nextID(prefix string) string {
	b.idSeq++
	return prefix + "-" + b.roomID + "-" + strconv.FormatUint(b.idSeq, 10)
}

// ActivePlayerCount counts non-spectator players, the quantity the lifecycle
// FSM's min_players_to_start threshold is measured against.
func (b *Base) ActivePlayerCount() int {
	n := 0
	for _, p := range b.players {
		if !p.Spectator {
			n++
		}
	}
	return n
}

// SetAway marks a connection as backgrounded (player_away) or foregrounded
// (returned) per §4.9. A gone-idle player keeps simulating (it can
// still be hit) but the gateway uses this flag to skip it in presence UI.
func (b *Base) SetAway(connID string, away bool) {
	if p, ok := b.players[connID]; ok {
		p.AwayTab = away
	}
}
