package ruleset

import (
	"errors"
	"fmt"

	"github.com/cory-johannsen/dungeon/internal/game/character"
)

// LevelSteps lists, per encounter tier, the candidate numbers of traversed
// nodes that raise story-mode enemy level by one.
type LevelSteps struct {
	Normal []int `yaml:"normal"`
	Elite  []int `yaml:"elite"`
	Boss   []int `yaml:"boss"`
}

// For returns the step candidates for tier.
//
// Precondition: tier.Valid().
func (s LevelSteps) For(tier character.Tier) []int {
	switch tier {
	case character.TierNormal:
		return s.Normal
	case character.TierElite:
		return s.Elite
	case character.TierBoss:
		return s.Boss
	}
	panic(fmt.Sprintf("ruleset: LevelSteps.For precondition violated: invalid tier %q", tier))
}

// Difficulty scales enemies and rewards.
type Difficulty struct {
	ID         string  `yaml:"id"`
	Name       string  `yaml:"name"`
	Multiplier float64 `yaml:"multiplier"`
	XPBonus    float64 `yaml:"xp_bonus"`
	GoldBonus  float64 `yaml:"gold_bonus"`
	// StartingGold is granted once when the difficulty is selected.
	StartingGold int `yaml:"starting_gold"`
	// StartingItem grants one forced-Common level 1 item on selection.
	StartingItem bool       `yaml:"starting_item"`
	LevelSteps   LevelSteps `yaml:"level_steps"`
}

// Validate checks the difficulty invariants.
//
// Postcondition: Returns nil iff every multiplier is positive and every tier
// has at least one positive step count.
func (d Difficulty) Validate() error {
	var errs []error
	if d.ID == "" {
		errs = append(errs, errors.New("id must not be empty"))
	}
	if d.Multiplier <= 0 {
		errs = append(errs, fmt.Errorf("multiplier must be > 0, got %v", d.Multiplier))
	}
	if d.XPBonus <= 0 {
		errs = append(errs, fmt.Errorf("xp_bonus must be > 0, got %v", d.XPBonus))
	}
	if d.GoldBonus <= 0 {
		errs = append(errs, fmt.Errorf("gold_bonus must be > 0, got %v", d.GoldBonus))
	}
	if d.StartingGold < 0 {
		errs = append(errs, fmt.Errorf("starting_gold must be >= 0, got %d", d.StartingGold))
	}
	for _, tier := range []character.Tier{character.TierNormal, character.TierElite, character.TierBoss} {
		steps := d.LevelSteps.For(tier)
		if len(steps) == 0 {
			errs = append(errs, fmt.Errorf("level_steps.%s must not be empty", tier))
		}
		for _, s := range steps {
			if s < 1 {
				errs = append(errs, fmt.Errorf("level_steps.%s entries must be >= 1, got %d", tier, s))
			}
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("difficulty %q: %w", d.ID, errors.Join(errs...))
	}
	return nil
}
