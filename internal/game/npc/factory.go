package npc

import (
	"fmt"
	"math"

	"github.com/google/uuid"

	"github.com/cory-johannsen/dungeon/internal/game/character"
	"github.com/cory-johannsen/dungeon/internal/game/ruleset"
)

// Tier multipliers applied to HP, damage and defense.
type tierScale struct {
	hp, damage, defense float64
}

var tierScales = map[character.Tier]tierScale{
	character.TierNormal: {hp: 1.0, damage: 1.0, defense: 1.0},
	character.TierElite:  {hp: 1.36, damage: 1.0625, defense: 1.02},
	character.TierBoss:   {hp: 2.55, damage: 1.275, defense: 1.19},
}

const (
	// storyNormalDiscount softens normal-tier encounters in story mode.
	storyNormalDiscount = 0.85
	// BossBuffHP is the HP multiplier applied by a luck-event boss buff.
	BossBuffHP = 1.3
)

// Request describes one enemy to spawn.
type Request struct {
	// Name selects the template; unknown names use the catalogue fallback.
	Name       string
	Level      int
	Difficulty ruleset.Difficulty
	Mode       ruleset.Mode
	Tier       character.Tier
	BossBuff   bool
	// ID is the enemy record id; a random id is assigned when empty.
	ID string
}

// Spawn scales the requested template into a combat-ready enemy.
//
// Precondition: req.Level >= 1; req.Tier.Valid(); req.Difficulty.Multiplier > 0.
// Postcondition: the result is an effective record with Tier == req.Tier,
// 1 <= HP == MaxHP() and integral attack, defense and speed values.
func (c *Catalogue) Spawn(req Request) character.Character {
	if req.Level < 1 {
		panic(fmt.Sprintf("npc: Spawn precondition violated: level %d < 1", req.Level))
	}
	scale, ok := tierScales[req.Tier]
	if !ok {
		panic(fmt.Sprintf("npc: Spawn precondition violated: invalid tier %q", req.Tier))
	}
	if req.Difficulty.Multiplier <= 0 {
		panic("npc: Spawn precondition violated: difficulty multiplier must be > 0")
	}
	tmpl, _ := c.Lookup(req.Name)

	level := float64(req.Level)
	diff := req.Difficulty.Multiplier
	if req.Mode == ruleset.Story && req.Tier == character.TierNormal {
		diff *= storyNormalDiscount
	}
	levelMult := 1 + (level-1)*0.1
	damage := func(base float64) float64 {
		return math.Floor((base*0.8 + level*1.5) * levelMult * diff * scale.damage)
	}
	defense := func(base float64) float64 {
		return math.Floor((base*0.8 + level*1.2) * levelMult * diff * scale.defense)
	}

	hp := (15 + tmpl.Vitality*2 + level*5) * levelMult * diff * scale.hp
	if req.BossBuff {
		hp = math.Floor(hp * BossBuffHP)
	}
	finalHP := math.Floor(hp)
	vitality := math.Max(1, math.Floor(finalHP/character.HPPerVitality))

	id := req.ID
	if id == "" {
		id = uuid.NewString()
	}
	enemy := character.Character{
		ID:              id,
		Name:            tmpl.Name,
		Avatar:          tmpl.Avatar,
		Level:           req.Level,
		AttackType:      tmpl.AttackType,
		BaseMagicAttack: tmpl.MagicAttack,
		Tier:            req.Tier,
	}
	enemy.Stats.Vitality = vitality
	enemy.Stats.Attack = damage(tmpl.Attack)
	enemy.Stats.MagicAttack = damage(tmpl.MagicAttack)
	enemy.Stats.Defense = defense(tmpl.Defense)
	enemy.Stats.MagicDefense = defense(tmpl.MagicDefense)
	enemy.Stats.Speed = math.Floor((tmpl.Speed + level*0.5) * diff)
	enemy.Stats.Precision = math.Floor((10 + level*0.8) * diff)
	enemy.Stats.Luck = (5 + level*0.5) * diff

	eff := character.Effective(&enemy)
	eff.HP = min(int(finalHP), eff.MaxHP())
	return eff
}
