package arena

import (
	"time"

	"arenaserver/internal/wire"
)

const maxProjectilesPerRoom = 150

// TryShoot validates a shoot request (alive, not spectator, cooldown
// elapsed, ammo available, room projectile cap) and, on success, spawns one
// projectile per weapon spread offset and deducts ammo/cooldown state.
func (b *Base) TryShoot(connID string, aimX, aimY float64, now time.Time) ([]*Projectile, RejectReason, bool) {
	p, ok := b.players[connID]
	if !ok {
		return nil, RejectInactive, false
	}
	if !p.Alive {
		return nil, RejectInactive, false
	}
	if p.Spectator {
		return nil, RejectInactive, false
	}

	w, ok := b.cfg.Weapons[p.WeaponType]
	if !ok {
		return nil, RejectAim, false
	}

	cooldown := time.Duration(float64(w.Cooldown) * p.CooldownScale(now))
	if now.Sub(p.LastShotAt) < cooldown {
		return nil, RejectCooldown, false
	}
	if p.Ammo <= 0 {
		return nil, RejectAmmo, false
	}
	if len(b.projectiles) >= maxProjectilesPerRoom {
		return nil, RejectBusy, false
	}

	p.LastShotAt = now
	p.Ammo--
	p.BulletsFired++

	spawned := SpawnProjectiles(func() string { return b.nextID("proj") }, p, w, aimX, aimY)
	b.projectiles = append(b.projectiles, spawned...)
	for _, pr := range spawned {
		b.Emit(wire.OutProjectileSpawned, ProjectileSnapshotOf(pr))
	}
	return spawned, "", true
}

// ProjectileHit is one resolved collision the caller uses to emit events and
// apply damage/kill bookkeeping.
type ProjectileHit struct {
	Victim   *Player
	Attacker *Player
	Damage   DamageResult
	Splash   bool
}

// rebuildGrid reindexes every alive, non-spectator player into the room's
// broad-phase grid, keyed by position in ids. Call once per tick before any
// nearbyConnIDs query against that tick's player positions.
func (b *Base) rebuildGrid(ids []string) {
	b.grid.Clear()
	for i, id := range ids {
		p := b.players[id]
		if !p.Alive || p.Spectator {
			continue
		}
		b.grid.Insert(uint32(i), p.X, p.Y)
	}
}

// nearbyConnIDs narrows ids to the candidates the grid's current cell
// contents place within radius of (x, y); callers still narrow-phase with an
// exact distance check, since grid cells can overshoot (spatial.SpatialGrid).
func (b *Base) nearbyConnIDs(ids []string, x, y, radius float64) []string {
	candidates := b.grid.QueryRadius(x, y, radius)
	out := make([]string, 0, len(candidates))
	for _, idx := range candidates {
		if int(idx) < len(ids) {
			out = append(out, ids[idx])
		}
	}
	return out
}

// StepProjectiles integrates every projectile one tick, resolves player and
// splash hits through ApplyDamage, and removes projectiles that expired,
// exhausted their bounce budget, or exhausted their pierce budget. Hits are
// returned for the caller to translate into outbound events and killfeed
// entries. Candidate players for each hit test come from the room's
// broad-phase grid rather than a full player scan.
func (b *Base) StepProjectiles(dt time.Duration, respawnDelay time.Duration, now time.Time) []ProjectileHit {
	bounds := b.Bounds()
	var hits []ProjectileHit

	ids := b.orderedConnIDs()
	b.rebuildGrid(ids)

	n := 0
	for _, pr := range b.projectiles {
		if !pr.Integrate(dt, bounds) {
			continue
		}

		destroyed := false
		hitRadius := pr.Radius + b.mc.PlayerRadius
		for _, id := range b.nearbyConnIDs(ids, pr.X, pr.Y, hitRadius) {
			target := b.players[id]
			if !pr.HitsPlayer(target, b.mc.PlayerRadius) {
				continue
			}

			attacker := b.players[pr.OwnerConnID]
			dmg := int(float64(pr.Damage) * damageMultFor(attacker, now))
			res := ApplyDamage(target, attacker, dmg, SourcePlayer, respawnDelay, now)
			hits = append(hits, ProjectileHit{Victim: target, Attacker: attacker, Damage: res})
			pr.alreadyHit[target.ConnID] = true
			if attacker != nil {
				attacker.BulletsHit++
			}
			b.Emit(wire.OutPlayerHit, map[string]interface{}{"connId": target.ConnID, "hp": target.HP, "shield": target.ArmorShield})
			if res.Lethal {
				b.Emit(wire.OutPlayerDied, map[string]interface{}{"connId": target.ConnID, "respawnAt": target.RespawnAt})
			}

			if pr.SplashRadius > 0 {
				for _, sid := range b.nearbyConnIDs(ids, target.X, target.Y, pr.SplashRadius) {
					splashTarget := b.players[sid]
					if !pr.WithinSplash(splashTarget, target) {
						continue
					}
					splashDmg := int(float64(pr.Damage) * 0.55 * damageMultFor(attacker, now))
					sres := ApplyDamage(splashTarget, attacker, splashDmg, SourcePlayer, respawnDelay, now)
					hits = append(hits, ProjectileHit{Victim: splashTarget, Attacker: attacker, Damage: sres, Splash: true})
				}
			}

			if res.Lethal && attacker != nil {
				b.killfeed.Push(KillfeedEntry{KillerName: attacker.DisplayName, VictimName: target.DisplayName, WeaponType: pr.WeaponType})
			}

			if pr.PierceRemain > 0 {
				pr.PierceRemain--
				continue
			}
			destroyed = true
			break
		}

		if destroyed {
			continue
		}
		b.projectiles[n] = pr
		n++
	}
	b.projectiles = b.projectiles[:n]
	return hits
}

func damageMultFor(p *Player, now time.Time) float64 {
	if p == nil {
		return 1.0
	}
	return p.DamageMultiplier(now)
}

// PowerupPickup reports a power-up a player collected this tick.
type PowerupPickup struct {
	Player  *Player
	Powerup *Powerup
}

// StepPowerups spawns new power-ups per cadence and detects pickups, again
// narrowing candidates through the broad-phase grid.
func (b *Base) StepPowerups(now time.Time) []PowerupPickup {
	if b.spawner.ShouldSpawn(now, len(b.powerups)) {
		b.spawnPowerup(now)
	}

	ids := b.orderedConnIDs()
	b.rebuildGrid(ids)

	var pickups []PowerupPickup
	n := 0
	for _, pu := range b.powerups {
		collected := false
		for _, id := range b.nearbyConnIDs(ids, pu.X, pu.Y, pu.Radius+b.mc.PlayerRadius) {
			p := b.players[id]
			if CheckPickup(p, pu, b.mc.PlayerRadius) {
				eff := b.cfg.Powerups[pu.Type]
				ApplyPowerupEffect(p, eff, now)
				pickups = append(pickups, PowerupPickup{Player: p, Powerup: pu})
				b.Emit(wire.OutPowerupCollected, map[string]interface{}{"powerupId": pu.ID, "connId": p.ConnID})
				collected = true
				break
			}
		}
		if collected {
			continue
		}
		b.powerups[n] = pu
		n++
	}
	b.powerups = b.powerups[:n]
	return pickups
}

func (b *Base) spawnPowerup(now time.Time) {
	types := b.cfg.PowerupC.Types
	if len(types) == 0 {
		return
	}
	kind := types[b.rng.Intn(len(types))]
	bounds := b.Bounds()
	clear := ClearOfPlayers(b.playerList(), b.cfg.PowerupC.Radius, 8)
	x, y := AllocateSpawn(b.rng, bounds, b.cfg.PowerupC.Radius, clear)

	pu := &Powerup{
		ID:        b.nextID("pu"),
		Type:      kind,
		X:         x,
		Y:         y,
		Radius:    b.cfg.PowerupC.Radius,
		SpawnedAt: now,
	}
	b.powerups = append(b.powerups, pu)
	b.spawner.Advance(now)
	b.Emit(wire.OutPowerupSpawned, PowerupSnapshot{ID: pu.ID, Type: string(pu.Type), X: pu.X, Y: pu.Y})
}

func (b *Base) playerList() []*Player {
	out := make([]*Player, 0, len(b.players))
	for _, p := range b.players {
		out = append(out, p)
	}
	return out
}
