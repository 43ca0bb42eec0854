package arena

import "time"

// DamageSource identifies what caused a point of damage, for kill
// attribution. A storm (environmental) death never increments a shooter's
// kill counter even when a player also damaged the victim earlier the same
// tick — see the attribution check in ApplyDamage below.
type DamageSource int

const (
	SourcePlayer DamageSource = iota
	SourceStorm
)

// DamageResult reports what ApplyDamage actually did, so the caller can emit
// the right outbound events without re-deriving state.
type DamageResult struct {
	Applied      int
	ShieldBefore int
	HPBefore     int
	HPAfter      int
	Lethal       bool
}

// ApplyDamage is the single procedure all damage flows through: projectile
// hits, splash, and storm ticks alike. It consumes shield before hp, and
// marks the kill only when the source is a player.
func ApplyDamage(victim *Player, attacker *Player, amount int, source DamageSource, respawnDelay time.Duration, now time.Time) DamageResult {
	res := DamageResult{HPBefore: victim.HP, ShieldBefore: victim.ArmorShield}

	remaining := amount
	if victim.ArmorShield > 0 {
		absorbed := min(victim.ArmorShield, remaining)
		victim.ArmorShield -= absorbed
		remaining -= absorbed
	}
	victim.HP -= remaining
	res.Applied = amount
	res.HPAfter = victim.HP

	if attacker != nil {
		attacker.DamageDealt += amount
	}

	if victim.HP <= 0 {
		res.Lethal = true
		victim.HP = 0
		victim.Alive = false
		victim.Deaths++
		victim.RespawnAt = now.Add(respawnDelay)

		// Kill attribution policy (decided, not guessed): credit goes only to
		// the attacker of a lethal player-sourced hit. A lethal storm tick
		// credits no one, even if a player damaged the victim earlier.
		if source == SourcePlayer && attacker != nil {
			attacker.Kills++
			attacker.Score += 10
		}
	}

	return res
}
