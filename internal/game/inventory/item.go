package inventory

import (
	"errors"
	"fmt"

	"github.com/cory-johannsen/dungeon/internal/game/stats"
)

// Rarity is the quality tier of an equipment item.
type Rarity string

const (
	Common    Rarity = "Common"
	Rare      Rarity = "Rare"
	Epic      Rarity = "Epic"
	Legendary Rarity = "Legendary"
	Unique    Rarity = "Unique"
)

// Rarities lists every rarity from lowest to highest.
var Rarities = []Rarity{Common, Rare, Epic, Legendary, Unique}

type rarityTable struct {
	statCount      int
	statMultiplier float64
	costMultiplier float64
}

var rarityTables = map[Rarity]rarityTable{
	Common:    {statCount: 2, statMultiplier: 1.0, costMultiplier: 1.0},
	Rare:      {statCount: 3, statMultiplier: 1.25, costMultiplier: 2.5},
	Epic:      {statCount: 4, statMultiplier: 1.6, costMultiplier: 5.0},
	Legendary: {statCount: 5, statMultiplier: 2.1, costMultiplier: 12.0},
	Unique:    {statCount: 5, statMultiplier: 1.0, costMultiplier: 25.0},
}

func (r Rarity) table() rarityTable {
	t, ok := rarityTables[r]
	if !ok {
		panic(fmt.Sprintf("inventory: invalid rarity %q", string(r)))
	}
	return t
}

// Valid reports whether r is a known rarity.
func (r Rarity) Valid() bool {
	_, ok := rarityTables[r]
	return ok
}

// StatCount returns the number of stat bonuses an item of this rarity carries.
//
// Precondition: r.Valid().
func (r Rarity) StatCount() int { return r.table().statCount }

// StatMultiplier scales the primary stat value of generated items.
//
// Precondition: r.Valid().
func (r Rarity) StatMultiplier() float64 { return r.table().statMultiplier }

// CostMultiplier scales the base price of generated items.
//
// Precondition: r.Valid().
func (r Rarity) CostMultiplier() float64 { return r.table().costMultiplier }

// Item is one piece of equipment.
type Item struct {
	ID          string        `json:"id"`
	Name        string        `json:"name"`
	Description string        `json:"description,omitempty"`
	Icon        string        `json:"icon"`
	Slot        Slot          `json:"slot"`
	Level       int           `json:"level"`
	Stats       stats.Bonuses `json:"stats"`
	Rarity      Rarity        `json:"rarity"`
	Cost        int           `json:"cost"`
	// UniqueOwner names the boss that dropped a Unique item.
	UniqueOwner string `json:"uniqueOwner,omitempty"`
	// IsNew marks an item the player has not reviewed yet.
	IsNew bool `json:"isNew,omitempty"`
}

// Clone returns a deep copy of it.
func (it Item) Clone() Item {
	it.Stats = it.Stats.Clone()
	return it
}

// SellPrice is the gold paid when the item is sold back.
//
// Postcondition: Returns floor(Cost * 0.4).
func (it Item) SellPrice() int {
	return it.Cost * 2 / 5
}

// Validate checks the item invariants.
//
// Postcondition: returns nil iff all fields are valid.
func (it Item) Validate() error {
	var errs []error
	if it.ID == "" {
		errs = append(errs, errors.New("id must not be empty"))
	}
	if it.Name == "" {
		errs = append(errs, errors.New("name must not be empty"))
	}
	if !it.Slot.Valid() {
		errs = append(errs, fmt.Errorf("slot %q is invalid", it.Slot))
	}
	if !it.Rarity.Valid() {
		errs = append(errs, fmt.Errorf("rarity %q is invalid", it.Rarity))
	}
	if it.Cost <= 0 {
		errs = append(errs, fmt.Errorf("cost must be > 0, got %d", it.Cost))
	}
	if it.Rarity == Unique && it.UniqueOwner == "" {
		errs = append(errs, errors.New("unique items must name their owner"))
	}
	for k := range it.Stats {
		if !k.Valid() {
			errs = append(errs, fmt.Errorf("stat key %d is invalid", int(k)))
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("item %q: %w", it.ID, errors.Join(errs...))
	}
	return nil
}
