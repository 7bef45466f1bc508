package progression

import (
	"math"

	"github.com/cory-johannsen/dungeon/internal/game/character"
	"github.com/cory-johannsen/dungeon/internal/game/inventory"
	"github.com/cory-johannsen/dungeon/internal/game/loot"
	"github.com/cory-johannsen/dungeon/internal/game/ruleset"
	"github.com/cory-johannsen/dungeon/internal/game/stats"
)

// Victory summarizes what a won battle granted.
type Victory struct {
	XP   int `json:"xp"`
	Gold int `json:"gold"`
	// Unique is the boss drop, when one was awarded.
	Unique *inventory.Item `json:"unique,omitempty"`
	Levels int             `json:"levels"`
	Points int             `json:"points"`
	Healed int             `json:"healed"`
}

// LeveledUp reports whether the victory raised the player's level.
func (v Victory) LeveledUp() bool { return v.Levels > 0 }

// BossDrop generates the unique item a defeated boss leaves behind.
//
// Postcondition: returns false when enemy is not a boss or its name has no
// unique template.
func BossDrop(gen *loot.Generator, enemy character.Character, playerType stats.AttackType) (inventory.Item, bool) {
	if enemy.Tier != character.TierBoss || !gen.HasUnique(enemy.Name) {
		return inventory.Item{}, false
	}
	items := gen.Generate(enemy.Level, 1, loot.Options{UniqueOwner: enemy.Name, AttackType: playerType})
	if len(items) == 0 {
		return inventory.Item{}, false
	}
	return items[0], true
}

// ApplyVictory credits player with the rewards for defeating enemy.
//
// The drop, if any, is acquired first so its luck counts toward the gold
// bonus. Experience then loops through as many level-ups as it covers; a
// batch of level-ups heals LevelUpHeal of max HP once, or to full in survival.
//
// Precondition: enemy.Tier.Valid().
// Postcondition: out.XP < out.XPToNextLevel; v.Points == PointsPerLevel * v.Levels.
func ApplyVictory(player, enemy character.Character, diff ruleset.Difficulty, mode ruleset.Mode, drop *inventory.Item) (character.Character, Victory) {
	out := player.Clone()
	var v Victory
	if drop != nil {
		it := drop.Clone()
		v.Unique = &it
		out = out.Acquire(it)
	}
	eff := character.Effective(&out)
	v.XP = VictoryXP(enemy.Level, enemy.Tier, diff)
	v.Gold = VictoryGold(enemy.Level, diff, eff.Stats.Luck)
	out.Gold += v.Gold
	out.XP += v.XP

	if out.XPToNextLevel <= 0 {
		out.XPToNextLevel = XPToNextLevel(out.Level)
	}
	hpBefore := out.HP
	for out.XP >= out.XPToNextLevel {
		out.XP -= out.XPToNextLevel
		out.Level++
		out.XPToNextLevel = XPToNextLevel(out.Level)
		v.Levels++
		v.Points += PointsPerLevel
	}
	if v.LeveledUp() {
		maxHP := out.EffectiveMaxHP()
		if mode == ruleset.Survival {
			out.HP = maxHP
		} else {
			out.HP = min(maxHP, hpBefore+int(math.Floor(float64(maxHP)*LevelUpHeal)))
		}
		v.Healed = out.HP - hpBefore
	}
	return out, v
}
