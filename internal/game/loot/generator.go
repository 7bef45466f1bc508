// Package loot synthesizes equipment items with rarity tiers.
package loot

import (
	"fmt"
	"math"

	"github.com/google/uuid"

	"github.com/cory-johannsen/dungeon/internal/game/dice"
	"github.com/cory-johannsen/dungeon/internal/game/inventory"
	"github.com/cory-johannsen/dungeon/internal/game/ruleset"
	"github.com/cory-johannsen/dungeon/internal/game/stats"
)

// ShopMarkup multiplies the price of items generated for a shop.
const ShopMarkup = 1.5

// rarityWeights is the categorical distribution of randomly rolled rarities.
// Unique is never rolled.
var rarityWeights = []struct {
	rarity inventory.Rarity
	weight float64
}{
	{inventory.Common, 0.50},
	{inventory.Rare, 0.35},
	{inventory.Epic, 0.12},
	{inventory.Legendary, 0.03},
}

// Options constrains a Generate call. The zero value rolls everything.
type Options struct {
	// Rarity forces the rarity of every generated item when non-empty.
	Rarity inventory.Rarity
	// UniqueOwner requests the unique item dropped by this boss.
	UniqueOwner string
	// AttackType biases names and stats; empty picks one per item.
	AttackType stats.AttackType
	// FloorOffset is added to the rolled item level.
	FloorOffset int
	// Shop applies the shop markup to the price.
	Shop bool
}

// Generator produces equipment items.
//
// Invariant: every random draw is taken from src.
type Generator struct {
	pools   NamePools
	uniques map[string]ruleset.UniqueTemplate
	src     dice.Source
}

// NewGenerator returns a Generator drawing names from pools and unique
// templates from floors.
//
// Precondition: src must be non-nil and pools.Validate() == nil.
func NewGenerator(pools NamePools, floors []ruleset.FloorTheme, src dice.Source) *Generator {
	if src == nil {
		panic("loot: NewGenerator precondition violated: src must be non-nil")
	}
	if err := pools.Validate(); err != nil {
		panic("loot: NewGenerator precondition violated: " + err.Error())
	}
	uniques := make(map[string]ruleset.UniqueTemplate, len(floors))
	for _, f := range floors {
		uniques[f.Boss] = f.Unique
	}
	return &Generator{pools: pools, uniques: uniques, src: src}
}

// HasUnique reports whether boss drops a unique item.
func (g *Generator) HasUnique(boss string) bool {
	_, ok := g.uniques[boss]
	return ok
}

// Generate produces up to count items around level.
//
// Precondition: count >= 0; opts.Rarity is empty or valid; opts.AttackType is
// empty or valid.
// Postcondition: len(result) == count unless opts.UniqueOwner names a boss
// without a unique template, in which case no item is produced for it. Every
// item passes Validate; non-unique items carry exactly Rarity.StatCount() stats.
func (g *Generator) Generate(level, count int, opts Options) []inventory.Item {
	if count < 0 {
		panic(fmt.Sprintf("loot: Generate precondition violated: count %d < 0", count))
	}
	if opts.Rarity != "" && !opts.Rarity.Valid() {
		panic(fmt.Sprintf("loot: Generate precondition violated: invalid rarity %q", opts.Rarity))
	}
	if opts.AttackType != "" && !opts.AttackType.Valid() {
		panic(fmt.Sprintf("loot: Generate precondition violated: invalid attack type %q", opts.AttackType))
	}
	items := make([]inventory.Item, 0, count)
	for i := 0; i < count; i++ {
		itemLevel := max(1, level+dice.IntBetween(g.src, -2, 2)+opts.FloorOffset)
		if opts.UniqueOwner != "" {
			if it, ok := g.unique(opts.UniqueOwner, itemLevel, opts.AttackType); ok {
				items = append(items, it)
			}
			continue
		}
		rarity := opts.Rarity
		if rarity == "" || rarity == inventory.Unique {
			rarity = g.rollRarity()
		}
		items = append(items, g.regular(itemLevel, rarity, opts))
	}
	return items
}

func (g *Generator) rollRarity() inventory.Rarity {
	r := g.src.Float64()
	cumulative := 0.0
	for _, w := range rarityWeights {
		cumulative += w.weight
		if r < cumulative {
			return w.rarity
		}
	}
	return inventory.Legendary
}

// unique builds the boss drop for owner.
//
// Postcondition: stats are scaled by 1 + (level-1)*0.15; cost == 300*level.
func (g *Generator) unique(owner string, level int, at stats.AttackType) (inventory.Item, bool) {
	tmpl, ok := g.uniques[owner]
	if !ok {
		return inventory.Item{}, false
	}
	m := 1 + float64(level-1)*0.15
	offense, defense := stats.MagicAttack, stats.MagicDefense
	if at == stats.Physical {
		offense, defense = stats.Attack, stats.Defense
	}
	bonuses := stats.Bonuses{
		offense:        math.Floor(20 * m),
		defense:        math.Floor(10 * m),
		stats.Vitality: math.Floor(15 * m),
		stats.Speed:    math.Floor(5 * m),
		stats.Luck:     math.Floor(5 * m),
	}
	desc := tmpl.Description
	if desc == "" {
		desc = fmt.Sprintf("A powerful item left behind by %s.", owner)
	}
	icon := tmpl.Icon
	if icon == "" {
		icon = inventory.IconFor(tmpl.Slot, tmpl.Name)
	}
	return inventory.Item{
		ID:          "unique-" + uuid.NewString(),
		Name:        tmpl.Name,
		Description: desc,
		Icon:        icon,
		Slot:        tmpl.Slot,
		Level:       level,
		Stats:       bonuses,
		Rarity:      inventory.Unique,
		Cost:        300 * level,
		UniqueOwner: owner,
	}, true
}

// regular synthesizes one non-unique item.
func (g *Generator) regular(level int, rarity inventory.Rarity, opts Options) inventory.Item {
	slot := dice.Pick(g.src, inventory.Slots)
	at := opts.AttackType
	if at == "" {
		at = stats.Magical
		if g.src.Float64() < 0.5 {
			at = stats.Physical
		}
	}
	category := string(at)
	base := dice.Pick(g.src, g.pools.baseNames(slot, category))
	prefix := dice.Pick(g.src, g.pools.prefixes(slot, category))
	name := prefix + " " + base

	primaryKey := primaryStat(slot, at)
	raw := float64(level)*0.3 + dice.Uniform(g.src, 0, float64(level)*0.15) + 1
	primary := math.Round(math.Max(1, raw*rarity.StatMultiplier()))

	bonuses := stats.Bonuses{primaryKey: primary}
	pool := statPool(at, rarity, primaryKey)
	for extras := rarity.StatCount() - 1; extras > 0 && len(pool) > 0; extras-- {
		idx := g.src.Intn(len(pool))
		key := pool[idx]
		pool = append(pool[:idx], pool[idx+1:]...)
		if key == stats.MaxHP || key == stats.Vitality {
			pool = without(pool, stats.MaxHP, stats.Vitality)
		}
		bonuses[key] = g.extraValue(key, primary)
	}
	if hp, ok := bonuses[stats.MaxHP]; ok {
		bonuses[stats.Vitality] = math.Max(1, math.Round(hp/9))
		delete(bonuses, stats.MaxHP)
	}

	markup := 1.0
	if opts.Shop {
		markup = ShopMarkup
	}
	cost := int(math.Floor(float64(10*level+20) * rarity.CostMultiplier() * markup))
	return inventory.Item{
		ID:     fmt.Sprintf("%s-%s", slot, uuid.NewString()),
		Name:   name,
		Icon:   inventory.IconFor(slot, name),
		Slot:   slot,
		Level:  level,
		Stats:  bonuses,
		Rarity: rarity,
		Cost:   cost,
	}
}

// extraValue values a secondary stat relative to the primary value.
func (g *Generator) extraValue(key stats.Key, primary float64) float64 {
	share := 0.5
	if key == stats.MaxHP || key == stats.Vitality {
		share = 0.7
	}
	v := math.Max(1, math.Round(primary*share*dice.Uniform(g.src, 0.8, 1.2)))
	switch {
	case key.IsChance():
		return round3(v / 100 * 0.2)
	case key.IsRatio():
		return round3(v / 100 * 0.5)
	}
	return v
}

// primaryStat picks the defining stat of an item in slot.
func primaryStat(slot inventory.Slot, at stats.AttackType) stats.Key {
	switch slot {
	case inventory.SlotWeapon:
		return at.OffenseKey()
	case inventory.SlotShield, inventory.SlotArmor, inventory.SlotBoots:
		return at.DefenseKey()
	}
	return stats.MaxHP
}

// statPool lists the candidate secondary stats, excluding primary and, when
// primary is HP-like, its vitality counterpart.
func statPool(at stats.AttackType, rarity inventory.Rarity, primary stats.Key) []stats.Key {
	pool := []stats.Key{
		at.OffenseKey(), at.DefenseKey(), stats.Speed, stats.MaxHP,
		stats.Precision, stats.Luck, stats.Vitality,
	}
	if rarity == inventory.Epic || rarity == inventory.Legendary {
		pool = append(pool, stats.CritChance, stats.AbsorptionChance)
	}
	if rarity == inventory.Legendary {
		pool = append(pool, stats.CritMultiplier, stats.AbsorptionReduction)
	}
	if primary == stats.MaxHP || primary == stats.Vitality {
		return without(pool, stats.MaxHP, stats.Vitality)
	}
	return without(pool, primary)
}

func without(keys []stats.Key, drop ...stats.Key) []stats.Key {
	out := keys[:0]
	for _, k := range keys {
		keep := true
		for _, d := range drop {
			if k == d {
				keep = false
				break
			}
		}
		if keep {
			out = append(out, k)
		}
	}
	return out
}

func round3(v float64) float64 {
	return math.Round(v*1000) / 1000
}
