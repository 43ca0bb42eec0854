// Package registry allocates rooms, routes joins, and garbage-collects empty
// rooms across all four game modes. One Registry owns one Mode; the gateway
// holds one Registry per mode plus the reverse index for disconnect cleanup.
package registry

import (
	"errors"
	"sync"

	"github.com/google/uuid"

	"arenaserver/internal/arena"
	"arenaserver/internal/config"
	"arenaserver/internal/statssink"
	"arenaserver/internal/wire"
)

var (
	ErrRoomFull     = errors.New("registry: room full")
	ErrUnauthorized = errors.New("registry: identity missing")
	ErrServerFull   = errors.New("registry: no capacity for a new room")
)

// JoinResult is what join() hands back to the gateway to build room_state.
type JoinResult struct {
	RoomID    string
	Room      arena.Room
	Player    *arena.Player
	Spectator bool
}

// Registry owns every room of one mode. A single mutex guards the room map
// and membership bookkeeping; each room's own lock guards its simulation
// state, so join/leave never blocks a running tick for longer than the
// critical section below.
type Registry struct {
	mode config.Mode
	cfg  config.AppConfig
	out  arena.Outbound
	sink statssink.Sink

	mu    sync.Mutex
	rooms map[string]arena.Room
}

// New creates an empty registry for one mode.
func New(mode config.Mode, cfg config.AppConfig, out arena.Outbound, sink statssink.Sink) *Registry {
	return &Registry{mode: mode, cfg: cfg, out: out, sink: sink, rooms: make(map[string]arena.Room)}
}

// Mode reports which mode this registry serves.
func (r *Registry) Mode() config.Mode { return r.mode }

// Join places a connection in a room per §4.1's matchmaking ordering:
// (1) preferred_room if it exists, has a free slot, and is in a compatible
// state; (2) else the first existing non-full, non-RESULTS room; (3) else a
// freshly created room. A preferred_room that is explicitly full returns
// RoomFull rather than falling through — the client asked for that room by
// name.
func (r *Registry) Join(identityUserID string, preferredRoom string, profile arena.PlayerProfile, connID string) (JoinResult, error) {
	if identityUserID == "" {
		return JoinResult{}, ErrUnauthorized
	}

	r.mu.Lock()
	room, err := r.pickRoom(preferredRoom)
	if err != nil {
		r.mu.Unlock()
		return JoinResult{}, err
	}
	r.mu.Unlock()

	room.Lock()
	defer room.Unlock()

	profile.UserID = identityUserID
	if joinErr := room.OnPlayerJoin(placeholderPlayer(connID, profile)); joinErr != nil {
		return JoinResult{}, joinErr
	}

	base, ok := room.(playerAdder)
	if !ok {
		return JoinResult{}, errors.New("registry: room does not support AddPlayer")
	}
	p := base.AddPlayer(profile, connID)

	return JoinResult{RoomID: room.ID(), Room: room, Player: p, Spectator: p.Spectator}, nil
}

// playerAdder is satisfied by every concrete room via its embedded
// arena.Base; kept as a narrow interface here so Registry never imports a
// concrete room type.
type playerAdder interface {
	AddPlayer(profile arena.PlayerProfile, connID string) *arena.Player
}

// placeholderPlayer lets OnPlayerJoin run its capacity/state checks before
// AddPlayer allocates a spawn point and the real *Player is known; only
// Spectator/ConnID matter to the OnPlayerJoin implementations in this repo.
func placeholderPlayer(connID string, profile arena.PlayerProfile) *arena.Player {
	return &arena.Player{ConnID: connID, UserID: profile.UserID}
}

func (r *Registry) pickRoom(preferredRoom string) (arena.Room, error) {
	if preferredRoom != "" {
		if room, ok := r.rooms[preferredRoom]; ok {
			if room.PlayerCount() >= r.cfg.Modes[r.mode].Capacity && !r.cfg.Modes[r.mode].AllowMidMatchJoin {
				return nil, ErrRoomFull
			}
			return room, nil
		}
		// Unknown preferred room: fall through to normal allocation rather
		// than erroring, since the client may be rejoining after a server
		// restart wiped the room.
	}

	for _, room := range r.rooms {
		mc := r.cfg.Modes[r.mode]
		full := room.PlayerCount() >= mc.Capacity
		mismatchedState := room.State() == arena.StateResults
		if !full && !mismatchedState {
			return room, nil
		}
	}

	return r.createRoom()
}

func (r *Registry) createRoom() (arena.Room, error) {
	const maxRoomsPerMode = 500
	if len(r.rooms) >= maxRoomsPerMode {
		return nil, ErrServerFull
	}

	roomID := generateRoomID()
	room := newRoomFor(r.mode, roomID, r.cfg, r.out, r.sink)
	r.rooms[roomID] = room
	return room, nil
}

// Leave removes a connection from its room, then reaps the room if it is
// now empty. Idempotent.
func (r *Registry) Leave(roomID, connID, reason string) {
	r.mu.Lock()
	room, ok := r.rooms[roomID]
	r.mu.Unlock()
	if !ok {
		return
	}

	room.Lock()
	room.OnPlayerLeave(connID, reason)
	empty := room.PlayerCount() == 0
	room.Unlock()

	if empty {
		r.reap(roomID)
	}
}

// reap destroys a room if it is still empty under the registry lock (a join
// may have raced in since the empty check above).
func (r *Registry) reap(roomID string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	room, ok := r.rooms[roomID]
	if !ok {
		return
	}
	room.Lock()
	empty := room.PlayerCount() == 0
	room.Unlock()
	if empty {
		delete(r.rooms, roomID)
	}
}

// ReapEmptyRooms sweeps every room in this mode and destroys the empty ones.
// Called on a timer as a backstop in addition to the post-leave reap above.
func (r *Registry) ReapEmptyRooms() int {
	r.mu.Lock()
	defer r.mu.Unlock()

	removed := 0
	for id, room := range r.rooms {
		room.Lock()
		empty := room.PlayerCount() == 0
		room.Unlock()
		if empty {
			delete(r.rooms, id)
			removed++
		}
	}
	return removed
}

// Get returns the room for an id, if it still exists.
func (r *Registry) Get(roomID string) (arena.Room, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	room, ok := r.rooms[roomID]
	return room, ok
}

// ModeStatus aggregates room/player counts across this mode's rooms, for a
// lobby screen showing activity before a player commits to joining.
func (r *Registry) ModeStatus() wire.ModeStatusPayload {
	r.mu.Lock()
	defer r.mu.Unlock()

	players := 0
	for _, room := range r.rooms {
		room.Lock()
		players += room.PlayerCount()
		room.Unlock()
	}
	return wire.ModeStatusPayload{Mode: string(r.mode), RoomCount: len(r.rooms), PlayerCount: players}
}

// Rooms returns every live room, for the tick scheduler and debug endpoint.
func (r *Registry) Rooms() []arena.Room {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]arena.Room, 0, len(r.rooms))
	for _, room := range r.rooms {
		out = append(out, room)
	}
	return out
}

func generateRoomID() string {
	return uuid.NewString()
}
