package gateway

import (
	"time"

	"go.uber.org/zap"

	"arenaserver/internal/arena"
	"arenaserver/internal/config"
	"arenaserver/internal/obs"
	"arenaserver/internal/wire"
)

// Scheduler drives every room's simulation loop: a single ticker at the
// global Sim tick/snapshot cadence steps every room of every mode in turn.
type Scheduler struct {
	hub      *Hub
	tickHz   int
	snapHz   int
	stopChan chan struct{}
}

// NewScheduler builds a scheduler for the hub's simulation cadence.
func NewScheduler(hub *Hub) *Scheduler {
	return &Scheduler{
		hub:      hub,
		tickHz:   hub.cfg.Sim.TickHz,
		snapHz:   hub.cfg.Sim.SnapshotHz,
		stopChan: make(chan struct{}),
	}
}

// Start begins the tick loop in a background goroutine.
func (s *Scheduler) Start() {
	if s.tickHz <= 0 {
		s.tickHz = 30
	}
	interval := time.Second / time.Duration(s.tickHz)
	snapshotEvery := 1
	if s.snapHz > 0 && s.snapHz < s.tickHz {
		snapshotEvery = s.tickHz / s.snapHz
	}

	go func() {
		ticker := time.NewTicker(interval)
		reapTicker := time.NewTicker(10 * time.Second)
		defer ticker.Stop()
		defer reapTicker.Stop()

		tickCount := 0
		for {
			select {
			case <-s.stopChan:
				return
			case now := <-ticker.C:
				tickCount++
				s.stepAll(now, tickCount%snapshotEvery == 0)
			case <-reapTicker.C:
				s.reapAll()
			}
		}
	}()
}

// Stop halts the tick loop.
func (s *Scheduler) Stop() {
	close(s.stopChan)
}

func (s *Scheduler) stepAll(now time.Time, broadcastSnapshot bool) {
	for mode, reg := range s.hub.registries {
		rooms := reg.Rooms()
		obs.SetRoomCount(string(mode), len(rooms))

		players := 0
		for _, room := range rooms {
			players += s.stepRoom(mode, room, now, broadcastSnapshot)
		}
		obs.SetPlayerCount(string(mode), players)
	}
}

func (s *Scheduler) stepRoom(mode config.Mode, room arena.Room, now time.Time, broadcastSnapshot bool) int {
	start := time.Now()

	room.Lock()
	func() {
		defer func() {
			if r := recover(); r != nil {
				obs.L().Raw().Error("room tick panicked", zap.String("mode", string(mode)), zap.String("room_id", room.ID()), zap.Any("panic", r))
			}
		}()
		room.Tick(now)
	}()
	events := room.DrainEvents()
	var snap arena.RoomSnapshot
	if broadcastSnapshot {
		snap = room.Snapshot()
	}
	playerCount := room.PlayerCount()
	room.Unlock()

	obs.RecordTick(string(mode), time.Since(start))

	for _, ev := range events {
		s.deliver(room.ID(), ev)
	}
	if broadcastSnapshot {
		s.hub.ToRoom(room.ID(), wire.OutRoomState, snap)
	}
	return playerCount
}

func (s *Scheduler) deliver(roomID string, ev arena.OutboundEvent) {
	switch {
	case ev.ToConnID != "":
		s.hub.ToConn(ev.ToConnID, ev.Type, ev.Payload)
	case ev.ExceptConnID != "":
		s.hub.ToRoomExcept(roomID, ev.ExceptConnID, ev.Type, ev.Payload)
	default:
		s.hub.ToRoom(roomID, ev.Type, ev.Payload)
	}
}

func (s *Scheduler) reapAll() {
	for mode, reg := range s.hub.registries {
		if n := reg.ReapEmptyRooms(); n > 0 {
			obs.L().Raw().Debug("reaped empty rooms", zap.String("mode", string(mode)), zap.Int("count", n))
		}
	}
}
