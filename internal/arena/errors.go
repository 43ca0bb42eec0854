package arena

import (
	"errors"

	"arenaserver/internal/wire"
)

// Errors surfaced from room operations. Validation and state-precondition
// failures are handled locally by the caller and turned into a rejection
// event; they never propagate room-wide.
var (
	ErrRoomFull       = errors.New("room full")
	ErrUnauthorized   = errors.New("unauthorized")
	ErrWrongState     = errors.New("action not valid in current room state")
	ErrPlayerNotFound = errors.New("player not in room")
	ErrSpectator      = errors.New("spectators cannot act")
)

// RejectReason is an alias of wire.RejectReason: rooms already depend on
// wire for outbound event type constants (see TryShoot's
// wire.OutProjectileSpawned), so there is no reason to keep a second,
// parallel enum the gateway would otherwise have to cast between.
type RejectReason = wire.RejectReason

const (
	RejectCooldown = wire.ReasonCooldown
	RejectAmmo     = wire.ReasonAmmo
	RejectAim      = wire.ReasonAim
	RejectBusy     = wire.ReasonBusy
	RejectInactive = wire.ReasonInactive
)
