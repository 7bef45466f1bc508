// Package character defines the character record shared by the player and
// enemies, its pure effective-stat derivation, and the equipment operations
// that move items between inventory and slots.
package character

import (
	"math"

	"github.com/cory-johannsen/dungeon/internal/game/inventory"
	"github.com/cory-johannsen/dungeon/internal/game/stats"
)

// Tier classifies an enemy encounter.
type Tier string

const (
	TierNormal Tier = "normal"
	TierElite  Tier = "elite"
	TierBoss   Tier = "boss"
)

// Valid reports whether t is a known tier.
func (t Tier) Valid() bool {
	return t == TierNormal || t == TierElite || t == TierBoss
}

// Baseline values of the derived combat stats before equipment and synergy.
const (
	BaseCritChance          = 0.0
	BaseCritMultiplier      = 0.5
	BaseAbsorptionChance    = 0.0
	BaseAbsorptionReduction = 0.1
)

// HPPerVitality is the max HP granted by each point of vitality.
const HPPerVitality = 9

// Character is the value record for the player or an enemy.
//
// A stored (base) record holds raw attributes and equipment; Effective derives
// the combat-ready record from it. Stats.MaxHP is only meaningful on an
// effective record.
//
// Invariant: 0 <= HP <= Effective(c).MaxHP() after every operation in this package.
type Character struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Avatar string `json:"avatar,omitempty"`
	Level  int    `json:"level"`
	HP     int    `json:"hp"`

	Stats stats.Block `json:"stats"`
	// BaseMagicAttack marks magic capability; zero for pure physical heroes.
	BaseMagicAttack float64          `json:"baseMagicAttack"`
	AttackType      stats.AttackType `json:"attackType"`

	XP            int `json:"xp"`
	XPToNextLevel int `json:"xpToNextLevel"`
	Gold          int `json:"gold"`

	Equipment   map[inventory.Slot]inventory.Item `json:"equipment"`
	Inventory   []inventory.Item                  `json:"inventory"`
	Consumables map[string]inventory.Stack        `json:"consumables"`

	// Lives is the number of extra lives left; only survival heroes carry any.
	Lives int `json:"lives,omitempty"`
	// Tier is set on enemies only.
	Tier Tier `json:"tier,omitempty"`
}

// MaxHP returns the max HP held in Stats.MaxHP, floored to an integer.
func (c Character) MaxHP() int {
	return int(math.Floor(c.Stats.MaxHP))
}

// Stat returns the value of one stat.
func (c Character) Stat(k stats.Key) float64 {
	return c.Stats.Get(k)
}

// IsEnemy reports whether the record describes an enemy encounter.
func (c Character) IsEnemy() bool {
	return c.Tier != ""
}

// Clone returns a deep copy of c. Mutating the copy never affects c.
func (c Character) Clone() Character {
	out := c
	out.Equipment = make(map[inventory.Slot]inventory.Item, len(c.Equipment))
	for slot, it := range c.Equipment {
		out.Equipment[slot] = it.Clone()
	}
	if c.Inventory != nil {
		out.Inventory = make([]inventory.Item, len(c.Inventory))
		for i, it := range c.Inventory {
			out.Inventory[i] = it.Clone()
		}
	}
	out.Consumables = make(map[string]inventory.Stack, len(c.Consumables))
	for id, st := range c.Consumables {
		out.Consumables[id] = st
	}
	return out
}

// InventoryIndex returns the index of the inventory item with the given id, or -1.
func (c Character) InventoryIndex(itemID string) int {
	for i, it := range c.Inventory {
		if it.ID == itemID {
			return i
		}
	}
	return -1
}

// ConsumableCount returns how many of the given consumable c owns.
func (c Character) ConsumableCount(id string) int {
	return c.Consumables[id].Quantity
}
