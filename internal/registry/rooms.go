package registry

import (
	"arenaserver/internal/arena"
	"arenaserver/internal/config"
	"arenaserver/internal/statssink"
)

// newRoomFor constructs the concrete room type for a mode. Kept as a single
// switch here rather than a registered-constructor map: there are exactly
// four modes and they are fixed at compile time.
func newRoomFor(mode config.Mode, roomID string, cfg config.AppConfig, out arena.Outbound, sink statssink.Sink) arena.Room {
	switch mode {
	case config.ModeBoss:
		return arena.NewBossRoom(roomID, cfg, out, sink)
	case config.ModePVP:
		return arena.NewPVPRoom(roomID, cfg, out, sink)
	case config.ModeKOZ:
		return arena.NewKOZRoom(roomID, cfg, out, sink)
	case config.ModeSlither:
		return arena.NewSlitherRoom(roomID, cfg, out, sink)
	default:
		panic("registry: unknown mode " + string(mode))
	}
}
