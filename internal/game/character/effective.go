package character

import (
	"github.com/cory-johannsen/dungeon/internal/game/inventory"
	"github.com/cory-johannsen/dungeon/internal/game/stats"
)

// Synergy and per-level coefficients used by Effective.
const (
	critPerAttack           = 0.0011
	critPerLuck             = 0.004
	critMultPerAttack       = 0.003
	absorbPerDefense        = 0.0005
	absorbPerLuck           = 0.004
	absorbReductionPerDef   = 0.0015
	chancePerLevel          = 0.0017
	precisionPerLevel       = 0.17
	multOrReductionPerLevel = 0.0083
)

// Effective derives the combat-ready record from a base record.
//
// Precondition: base must be non-nil.
// Postcondition: the result is a deep copy of *base with derived stats
// recomputed; *base is not modified; result.Stats.MaxHP == result.Stats.Vitality * 9.
// Calling Effective twice on an unchanged base yields identical results.
func Effective(base *Character) Character {
	if base == nil {
		panic("character: Effective precondition violated: base must be non-nil")
	}
	eff := base.Clone()
	s := &eff.Stats

	s.CritChance = BaseCritChance
	s.CritMultiplier = BaseCritMultiplier
	s.AbsorptionChance = BaseAbsorptionChance
	s.AbsorptionReduction = BaseAbsorptionReduction

	for _, slot := range inventory.Slots {
		if it, ok := base.Equipment[slot]; ok {
			it.Stats.ApplyTo(s)
		}
	}

	totalAttack := s.Attack + s.MagicAttack
	totalDefense := s.Defense + s.MagicDefense
	s.CritChance += totalAttack*critPerAttack + s.Luck*critPerLuck
	s.CritMultiplier += totalAttack * critMultPerAttack
	s.AbsorptionChance += totalDefense*absorbPerDefense + s.Luck*absorbPerLuck
	s.AbsorptionReduction += totalDefense * absorbReductionPerDef

	if levelBonus := float64(base.Level - 1); levelBonus > 0 {
		s.CritChance += levelBonus * chancePerLevel
		s.AbsorptionChance += levelBonus * chancePerLevel
		s.Precision += levelBonus * precisionPerLevel
		s.CritMultiplier += levelBonus * multOrReductionPerLevel
		s.AbsorptionReduction += levelBonus * multOrReductionPerLevel
	}

	s.MaxHP = s.Vitality * HPPerVitality
	return eff
}

// EffectiveMaxHP is shorthand for Effective(&c).MaxHP().
func (c Character) EffectiveMaxHP() int {
	eff := Effective(&c)
	return eff.MaxHP()
}

// OffenseStat returns the stat c deals damage with.
func (c Character) OffenseStat() stats.Key {
	return c.AttackType.OffenseKey()
}
