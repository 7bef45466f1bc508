package combat

import (
	"math"

	"github.com/cory-johannsen/dungeon/internal/game/character"
	"github.com/cory-johannsen/dungeon/internal/game/stats"
)

// Source is the subset of dice.Source used by the resolver.
// Using a local interface avoids a circular import.
type Source interface {
	Intn(n int) int
	Float64() float64
}

// Hit chance bounds and tuning.
const (
	MinHitChance      = 0.25
	MaxHitChance      = 1.0
	hitPerPrecision   = 0.01
	attackVariance    = 0.15
	determinationHP   = 0.3
	boostPerLevel     = 3.0
	boostPerVitality  = 0.11
	critBoostDivision = 100.0
)

// Determination is the once-per-battle comeback boost granted to a player
// who drops low without dying.
type Determination struct {
	Active bool      `json:"active"`
	Stat   stats.Key `json:"stat"`
	Boost  float64   `json:"boost"`
}

// AttackResult holds the outcome of a single attack.
type AttackResult struct {
	Attacker  Side
	Hit       bool
	HitChance float64
	Critical  bool
	// Damage is the damage dealt after absorption.
	Damage   int
	Absorbed int
	// DefenderHP is the defender's HP after the attack.
	DefenderHP int
	// Triggered is set when this attack granted the defending player determination.
	Triggered *Determination
}

// HitChance returns the clamped probability that an attacker with precision
// hits a defender with speed.
//
// Postcondition: MinHitChance <= result <= MaxHitChance.
func HitChance(precision, speed float64) float64 {
	return math.Max(MinHitChance, math.Min(MaxHitChance, 1.0+(precision-speed)*hitPerPrecision))
}

// DeterminationBoost returns the boost magnitude for a player at level with
// the given vitality.
func DeterminationBoost(level int, vitality float64) float64 {
	return float64(level)*boostPerLevel + vitality*boostPerVitality
}

// DeterminationStats lists the stats a determination boost can land on for a
// player of type playerType fighting an attacker of type attackerType.
func DeterminationStats(playerType, attackerType stats.AttackType) []stats.Key {
	return []stats.Key{
		stats.Speed, stats.CritChance, stats.Precision, stats.Vitality, stats.Luck,
		playerType.OffenseKey(), attackerType.DefenseKey(),
	}
}

// ResolveAttack resolves one attack of attacker against defender.
//
// attacker and defender are effective records. side is the attacker's side;
// det is the player's current determination state. Draws are taken from src
// in this order: hit, variance, crit, absorption, then one Intn for the
// determination stat when it triggers.
//
// Precondition: attacker.AttackType.Valid(); src must be non-nil.
// Postcondition: 0 <= DefenderHP <= defender.HP; a miss deals no damage;
// Triggered is non-nil only when the defender is the player, det was
// inactive and 0 < DefenderHP < 0.3*defender max HP.
func ResolveAttack(attacker, defender character.Character, side Side, det Determination, src Source) AttackResult {
	if src == nil {
		panic("combat: ResolveAttack precondition violated: src must be non-nil")
	}
	boosted := attacker.Stats
	critBonus := 0.0
	if side == SidePlayer && det.Active {
		if det.Stat == stats.CritChance {
			critBonus = det.Boost / critBoostDivision
		} else {
			boosted.Add(det.Stat, det.Boost)
		}
	}

	res := AttackResult{
		Attacker:   side,
		HitChance:  HitChance(boosted.Precision, defender.Stats.Speed),
		DefenderHP: defender.HP,
	}
	if src.Float64() >= res.HitChance {
		return res
	}
	res.Hit = true

	offense := boosted.Get(attacker.AttackType.OffenseKey())
	defense := defender.Stats.Get(attacker.AttackType.DefenseKey())
	varied := offense + (src.Float64()*2*attackVariance*offense - attackVariance*offense)
	res.Critical = src.Float64() < boosted.CritChance+critBonus

	raw := 0.0
	if varied+defense != 0 {
		raw = varied * varied / (varied + defense)
	}
	damage := max(1, int(math.Floor(raw)))
	if res.Critical {
		damage = int(math.Floor(float64(damage) * (1 + boosted.CritMultiplier)))
	}
	if src.Float64() < math.Max(0, defender.Stats.AbsorptionChance) {
		res.Absorbed = int(math.Floor(float64(damage) * defender.Stats.AbsorptionReduction))
		damage -= res.Absorbed
	}
	res.Damage = damage
	res.DefenderHP = max(0, defender.HP-damage)

	maxHP := float64(defender.MaxHP())
	if side == SideEnemy && !det.Active && res.DefenderHP > 0 && float64(res.DefenderHP) < determinationHP*maxHP {
		options := DeterminationStats(defender.AttackType, attacker.AttackType)
		res.Triggered = &Determination{
			Active: true,
			Stat:   options[src.Intn(len(options))],
			Boost:  DeterminationBoost(defender.Level, defender.Stats.Vitality),
		}
	}
	return res
}
