package ratelimit

import (
	"sync"
	"time"
)

// EventConfig configures the per-connection inbound wire-event limiter,
// generalized from a chat-only rate limiter to any event type (move, shoot,
// chat) so a single connection cannot flood the room tick.
type EventConfig struct {
	MaxPerWindow     int
	WindowDuration   time.Duration
	CooldownDuration time.Duration
}

// DefaultEventConfig mirrors the original chat command limiter defaults.
var DefaultEventConfig = EventConfig{
	MaxPerWindow:     5,
	WindowDuration:   5 * time.Second,
	CooldownDuration: 500 * time.Millisecond,
}

type connState struct {
	count     int
	windowEnd time.Time
	lastEvent time.Time
}

// EventLimiter is a fixed-window + cooldown limiter keyed by connection id,
// with one independent bucket per event kind (e.g. "chat" vs "shoot") so a
// burst of shots doesn't also suppress chat.
type EventLimiter struct {
	mu     sync.Mutex
	states map[string]map[string]*connState // connID -> kind -> state
	cfg    EventConfig
}

// NewEventLimiter creates a limiter and starts its background cleanup loop.
func NewEventLimiter(cfg EventConfig) *EventLimiter {
	l := &EventLimiter{states: make(map[string]map[string]*connState), cfg: cfg}
	go l.cleanupLoop()
	return l
}

// Allow reports whether connID may perform an event of the given kind now.
func (l *EventLimiter) Allow(connID, kind string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := time.Now()
	byKind, ok := l.states[connID]
	if !ok {
		byKind = make(map[string]*connState)
		l.states[connID] = byKind
	}

	st, ok := byKind[kind]
	if !ok {
		byKind[kind] = &connState{count: 1, windowEnd: now.Add(l.cfg.WindowDuration), lastEvent: now}
		return true
	}

	if now.Sub(st.lastEvent) < l.cfg.CooldownDuration {
		return false
	}

	if now.After(st.windowEnd) {
		st.count = 1
		st.windowEnd = now.Add(l.cfg.WindowDuration)
		st.lastEvent = now
		return true
	}

	if st.count >= l.cfg.MaxPerWindow {
		return false
	}

	st.count++
	st.lastEvent = now
	return true
}

// Forget drops all buckets for a connection, called by the disconnect reaper.
func (l *EventLimiter) Forget(connID string) {
	l.mu.Lock()
	delete(l.states, connID)
	l.mu.Unlock()
}

func (l *EventLimiter) cleanupLoop() {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()
	for range ticker.C {
		l.mu.Lock()
		cutoff := time.Now().Add(-5 * time.Minute)
		for conn, byKind := range l.states {
			stale := true
			for kind, st := range byKind {
				if st.lastEvent.Before(cutoff) {
					delete(byKind, kind)
				} else {
					stale = false
				}
			}
			if stale {
				delete(l.states, conn)
			}
		}
		l.mu.Unlock()
	}
}
