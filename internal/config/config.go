// Package config is the single source of truth for tunable server behavior:
// tick/snapshot cadence, per-mode capacity and lifecycle durations, the
// weapon table, and the powerup table. Most packages read these values; the
// arena, gateway and registry packages still keep a few constants of their
// own (dt clamp, grid cell size, send-queue depth, rooms per mode), and
// Sim.MaxDeltaTime, Server.SnapshotQueueHighWat and Spatial.GridCellSize are
// not read outside this package.
package config

import (
	"os"
	"strconv"
	"time"
)

// Mode identifies one of the four supported game modes.
type Mode string

const (
	ModeBoss    Mode = "boss"
	ModePVP     Mode = "pvp"
	ModeKOZ     Mode = "koz"
	ModeSlither Mode = "slither"
)

// SimConfig holds the fixed-tick simulation cadence shared by every room.
type SimConfig struct {
	TickHz       int           // simulation ticks per second
	SnapshotHz   int           // broadcast cadence, independent of tick cadence
	MaxDeltaTime time.Duration // clamp ceiling for a single tick's dt (§4.3)
}

// DefaultSim returns the default simulation cadence.
func DefaultSim() SimConfig {
	return SimConfig{
		TickHz:       30,
		SnapshotHz:   15,
		MaxDeltaTime: 120 * time.Millisecond,
	}
}

// SimFromEnv overlays environment overrides onto DefaultSim.
func SimFromEnv() SimConfig {
	cfg := DefaultSim()
	if v := getEnvInt("TICK_HZ", 0); v > 0 {
		cfg.TickHz = v
	}
	if v := getEnvInt("SNAPSHOT_HZ", 0); v > 0 {
		cfg.SnapshotHz = v
	}
	return cfg
}

// ModeConfig holds per-mode matchmaking and lifecycle parameters (§4.1,
// §4.7).
type ModeConfig struct {
	Capacity          int
	MinPlayersToStart int
	MaxActivePlayers  int // beyond this, KOZ joiners become spectators
	AllowMidMatchJoin bool
	CountdownDuration time.Duration
	ResultsDuration   time.Duration
	MatchDuration     time.Duration // 0 = no hard time limit (e.g. PVP, Slither)
	ArenaWidth        float64
	ArenaHeight       float64
	ArenaTopMargin    float64
	PlayerRadius      float64
	BaseSpeed         float64 // units/sec
}

// DefaultModes returns the per-mode configuration table.
func DefaultModes() map[Mode]ModeConfig {
	return map[Mode]ModeConfig{
		ModeBoss: {
			Capacity:          10,
			MinPlayersToStart: 1,
			MaxActivePlayers:  10,
			AllowMidMatchJoin: true,
			CountdownDuration: 5 * time.Second,
			ResultsDuration:   8 * time.Second,
			ArenaWidth:        1600,
			ArenaHeight:       900,
			ArenaTopMargin:    60,
			PlayerRadius:      24,
			BaseSpeed:         220,
		},
		ModePVP: {
			Capacity:          2,
			MinPlayersToStart: 2,
			MaxActivePlayers:  2,
			AllowMidMatchJoin: false,
			CountdownDuration: 3 * time.Second,
			ResultsDuration:   6 * time.Second,
			ArenaWidth:        900,
			ArenaHeight:       600,
			PlayerRadius:      22,
			BaseSpeed:         240,
		},
		ModeKOZ: {
			Capacity:          12,
			MinPlayersToStart: 2,
			MaxActivePlayers:  12,
			AllowMidMatchJoin: true,
			CountdownDuration: 5 * time.Second,
			ResultsDuration:   10 * time.Second,
			MatchDuration:     3 * time.Minute,
			ArenaWidth:        2000,
			ArenaHeight:       2000,
			PlayerRadius:      24,
			BaseSpeed:         210,
		},
		ModeSlither: {
			Capacity:          28,
			MinPlayersToStart: 1,
			MaxActivePlayers:  28,
			AllowMidMatchJoin: true,
			CountdownDuration: 3 * time.Second,
			ResultsDuration:   8 * time.Second,
			ArenaWidth:        2400,
			ArenaHeight:       2400,
			PlayerRadius:      14,
			BaseSpeed:         180,
		},
	}
}

// KOZConfig holds zone/core tuning specific to King-of-the-Zone (§3, §4.3).
type KOZConfig struct {
	InitialRadius     float64
	MinRadius         float64
	ShrinkStep        float64
	ShrinkInterval    time.Duration
	ShrinkDuration    time.Duration
	StormTickInterval time.Duration
	StormDamage       int
	RegenInside       int
	CoreRadius        float64
	CoreMeterSeconds  float64       // seconds of continuous hold to fill the core meter
	OverclockDuration time.Duration // Overclock buff granted on meter fill
	ScoreTickInterval time.Duration
	ControllerScore   int
	CoreBonusScore    int
}

// DefaultKOZ returns the default KOZ tuning, grounded on the richer of the
// two original koz_manager/koz_simulation modules (see DESIGN.md Open
// Question 2).
func DefaultKOZ() KOZConfig {
	return KOZConfig{
		InitialRadius:     900,
		MinRadius:         220,
		ShrinkStep:        80,
		ShrinkInterval:    20 * time.Second,
		ShrinkDuration:    6 * time.Second,
		StormTickInterval: time.Second,
		StormDamage:       6,
		RegenInside:       2,
		CoreRadius:        50,
		CoreMeterSeconds:  12,
		OverclockDuration: 8 * time.Second,
		ScoreTickInterval: time.Second,
		ControllerScore:   1,
		CoreBonusScore:    3,
	}
}

// Weapon holds the ballistic parameters for one weapon type (§4.4).
type Weapon struct {
	Speed    float64 // units/sec
	Damage   int
	Cooldown time.Duration
	Radius   float64
	Lifetime time.Duration
	Spread   []float64 // radian offsets; one projectile per offset
	Pierce   int
	Bounces  int
	Splash   float64 // splash radius in units; 0 = no splash
}

// DefaultWeapons returns the weapon table from §4.4, verbatim.
func DefaultWeapons() map[string]Weapon {
	return map[string]Weapon{
		"bulwark-disc": {
			Speed: 880, Damage: 23, Cooldown: 440 * time.Millisecond,
			Radius: 7, Lifetime: 1550 * time.Millisecond,
			Spread: []float64{0}, Pierce: 0, Bounces: 1, Splash: 0,
		},
		"arcane-orb": {
			Speed: 760, Damage: 29, Cooldown: 560 * time.Millisecond,
			Radius: 9, Lifetime: 1500 * time.Millisecond,
			Spread: []float64{-0.08, 0.08}, Pierce: 0, Bounces: 0, Splash: 70,
		},
		"piercing-arrow": {
			Speed: 1080, Damage: 20, Cooldown: 330 * time.Millisecond,
			Radius: 5, Lifetime: 1300 * time.Millisecond,
			Spread: []float64{0}, Pierce: 1, Bounces: 0, Splash: 0,
		},
		"rage-axe": {
			Speed: 700, Damage: 34, Cooldown: 600 * time.Millisecond,
			Radius: 10, Lifetime: 1350 * time.Millisecond,
			Spread: []float64{0}, Pierce: 0, Bounces: 0, Splash: 34,
		},
	}
}

// PowerupType enumerates the power-up kinds from §4.5.
type PowerupType string

const (
	PowerupHeal       PowerupType = "heal"
	PowerupSpeed      PowerupType = "speed"
	PowerupShield     PowerupType = "shield"
	PowerupRapidFire  PowerupType = "rapid-fire"
	PowerupDamage     PowerupType = "damage"
	PowerupAmmo       PowerupType = "ammo"
	PowerupVisionPing PowerupType = "vision-ping"
)

// PowerupEffect describes the effect and duration of one power-up type.
type PowerupEffect struct {
	Type       PowerupType
	Duration   time.Duration // 0 = instant, non-timed effect
	Multiplier float64       // used by speed/damage/rapid-fire/heal/ammo amounts
}

// DefaultPowerups returns the power-up effect table from §4.5.
func DefaultPowerups() map[PowerupType]PowerupEffect {
	return map[PowerupType]PowerupEffect{
		PowerupHeal:       {Type: PowerupHeal, Multiplier: 40},
		PowerupSpeed:      {Type: PowerupSpeed, Duration: 10 * time.Second, Multiplier: 1.35},
		PowerupShield:     {Type: PowerupShield, Multiplier: 50},
		PowerupRapidFire:  {Type: PowerupRapidFire, Duration: 8 * time.Second, Multiplier: 0.68},
		PowerupDamage:     {Type: PowerupDamage, Duration: 10 * time.Second, Multiplier: 1.3},
		PowerupAmmo:       {Type: PowerupAmmo, Multiplier: 30},
		PowerupVisionPing: {Type: PowerupVisionPing, Duration: 6 * time.Second},
	}
}

// PowerupConfig controls spawn cadence independent of per-type effects.
type PowerupConfig struct {
	SpawnInterval time.Duration
	MaxActive     int
	Radius        float64
	Types         []PowerupType
}

// DefaultPowerupConfig returns the default spawn cadence.
func DefaultPowerupConfig() PowerupConfig {
	return PowerupConfig{
		SpawnInterval: 8 * time.Second,
		MaxActive:     6,
		Radius:        16,
		Types: []PowerupType{
			PowerupHeal, PowerupSpeed, PowerupShield,
			PowerupRapidFire, PowerupDamage, PowerupAmmo, PowerupVisionPing,
		},
	}
}

// ChatConfig consolidates the chat rate-limit thresholds that were scattered
// numeric constants in the original source (DESIGN.md Open Question 3).
type ChatConfig struct {
	MaxContentLen int
	MinInterval   time.Duration // minimum time between messages from one sender
	BurstWindow   time.Duration
	BurstLimit    int
}

// DefaultChat returns the default chat rate-limit configuration.
func DefaultChat() ChatConfig {
	return ChatConfig{
		MaxContentLen: 280,
		MinInterval:   500 * time.Millisecond,
		BurstWindow:   10 * time.Second,
		BurstLimit:    8,
	}
}

// ServerConfig holds HTTP/WS listener settings.
type ServerConfig struct {
	Addr                 string
	MaxConnections       int
	SnapshotQueueHighWat int // send-queue high-water mark before coalescing (§6)
}

// DefaultServer returns the default server configuration.
func DefaultServer() ServerConfig {
	return ServerConfig{
		Addr:                 ":8080",
		MaxConnections:       4000,
		SnapshotQueueHighWat: 32,
	}
}

// ServerFromEnv overlays environment overrides onto DefaultServer.
func ServerFromEnv() ServerConfig {
	cfg := DefaultServer()
	if p := getEnvInt("PORT", 0); p > 0 {
		cfg.Addr = ":" + strconv.Itoa(p)
	}
	if mc := getEnvInt("MAX_CONNECTIONS", 0); mc > 0 {
		cfg.MaxConnections = mc
	}
	return cfg
}

// SpatialConfig holds a spatial grid cell size for broad-phase queries; the
// arena sizes its grid with its own gridCellSize constant instead.
type SpatialConfig struct {
	GridCellSize float64
}

// DefaultSpatial returns the default spatial configuration.
func DefaultSpatial() SpatialConfig {
	return SpatialConfig{GridCellSize: 150}
}

// AppConfig aggregates every configuration section into one value passed
// down from cmd/server/main.go.
type AppConfig struct {
	Sim      SimConfig
	Modes    map[Mode]ModeConfig
	KOZ      KOZConfig
	Weapons  map[string]Weapon
	Powerups map[PowerupType]PowerupEffect
	PowerupC PowerupConfig
	Chat     ChatConfig
	Server   ServerConfig
	Spatial  SpatialConfig
}

// Load returns the complete configuration with environment overrides applied
// to the sections that support them.
func Load() AppConfig {
	return AppConfig{
		Sim:      SimFromEnv(),
		Modes:    DefaultModes(),
		KOZ:      DefaultKOZ(),
		Weapons:  DefaultWeapons(),
		Powerups: DefaultPowerups(),
		PowerupC: DefaultPowerupConfig(),
		Chat:     DefaultChat(),
		Server:   ServerFromEnv(),
		Spatial:  DefaultSpatial(),
	}
}

func getEnvInt(key string, defaultVal int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return defaultVal
}
