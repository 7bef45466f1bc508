// Package progression implements experience, level-ups, battle rewards,
// attribute point spending and mastery point accrual.
package progression

import (
	"math"

	"github.com/cory-johannsen/dungeon/internal/game/character"
	"github.com/cory-johannsen/dungeon/internal/game/ruleset"
)

// Progression tuning.
const (
	// PointsPerLevel is the number of attribute points granted per level gained.
	PointsPerLevel = 3
	// LevelUpHeal is the fraction of max HP restored once per batch of level-ups.
	LevelUpHeal = 0.5
	// ContinuePoints is granted when a survival hero spends a life.
	ContinuePoints = 20

	baseXP          = 10
	xpPerLevel      = 3
	eliteXP         = 2.5
	bossXP          = 5.0
	baseGold        = 12
	goldPerLevel    = 2.5
	goldPerLuck     = 0.008
	masteryPerFloor = 10
	masteryPerWave  = 3
)

// XPToNextLevel returns the experience needed to advance from level.
//
// Postcondition: XPToNextLevel(1) == 10; the result is strictly increasing in level.
func XPToNextLevel(level int) int {
	l := float64(level)
	return int(math.Round(l*l + l*9))
}

// VictoryXP returns the experience awarded for defeating an enemy of the
// given level and tier.
//
// Precondition: tier.Valid().
// Postcondition: result >= 10.
func VictoryXP(enemyLevel int, tier character.Tier, diff ruleset.Difficulty) int {
	base := baseXP + int(math.Floor(float64(enemyLevel-1)*xpPerLevel))
	xp := max(baseXP, int(math.Floor(float64(base)*diff.XPBonus)))
	switch tier {
	case character.TierNormal:
	case character.TierElite:
		xp = int(math.Floor(float64(xp) * eliteXP))
	case character.TierBoss:
		xp = int(math.Floor(float64(xp) * bossXP))
	default:
		panic("progression: VictoryXP precondition violated: invalid tier " + string(tier))
	}
	return xp
}

// VictoryGold returns the gold awarded for defeating an enemy of the given
// level, given the player's effective luck.
func VictoryGold(enemyLevel int, diff ruleset.Difficulty, luck float64) int {
	base := baseGold + int(math.Floor(float64(enemyLevel)*goldPerLevel))
	gold := math.Floor(float64(base) * diff.GoldBonus)
	return int(math.Floor(gold * (1 + luck*goldPerLuck)))
}

// MasteryPoints returns the mastery points earned by a defeat.
//
// Story runs earn by depth: floor and nodes traversed. Survival runs earn by
// the wave reached.
//
// Postcondition: result >= 0.
func MasteryPoints(mode ruleset.Mode, floor, nodesTraversed, wave int) int {
	var points int
	switch mode {
	case ruleset.Story:
		points = (floor-1)*masteryPerFloor + nodesTraversed
	case ruleset.Survival:
		points = (wave - 1) * masteryPerWave
	}
	return max(0, points)
}
