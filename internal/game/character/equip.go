package character

import (
	"errors"
	"fmt"
	"math"

	"github.com/cory-johannsen/dungeon/internal/game/inventory"
)

// ErrItemNotInInventory is returned when an operation names an item the character does not carry.
var ErrItemNotInInventory = errors.New("item not in inventory")

// ErrSlotMismatch is returned when unequipping an item that is not in the named slot.
var ErrSlotMismatch = errors.New("item not equipped in slot")

// ErrInsufficientGold is returned when a purchase costs more than the character owns.
var ErrInsufficientGold = errors.New("insufficient gold")

// ErrConsumableMissing is returned when using a consumable the character does not own.
var ErrConsumableMissing = errors.New("consumable not owned")

// ErrHPFull is returned when a heal would have no effect.
var ErrHPFull = errors.New("hp already full")

// hpFraction returns the fraction of effective max HP c currently holds.
// A character with no HP, or no max HP, counts as full so the first equip
// lands on the new max.
func (c Character) hpFraction() float64 {
	maxHP := c.EffectiveMaxHP()
	if c.HP <= 0 || maxHP <= 0 {
		return 1
	}
	return float64(c.HP) / float64(maxHP)
}

// rescaleHP applies fraction to the current effective max HP.
//
// Postcondition: 0 <= c.HP <= EffectiveMaxHP().
func (c *Character) rescaleHP(fraction float64) {
	maxHP := c.EffectiveMaxHP()
	hp := int(math.Round(float64(maxHP) * fraction))
	c.HP = clamp(hp, 0, maxHP)
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// Acquire gives item to c. The item is equipped when its slot is empty,
// otherwise it is appended to the inventory flagged as new.
//
// Postcondition: exactly one copy of item is owned by the returned record;
// HP percentage is preserved when the item is equipped.
func (c Character) Acquire(item inventory.Item) Character {
	out := c.Clone()
	item = item.Clone()
	if _, taken := out.Equipment[item.Slot]; !taken {
		fraction := out.hpFraction()
		item.IsNew = false
		out.Equipment[item.Slot] = item
		out.rescaleHP(fraction)
		return out
	}
	item.IsNew = true
	out.Inventory = append(out.Inventory, item)
	return out
}

// Equip moves the inventory item with itemID into its slot, moving any
// displaced item into the inventory.
//
// Postcondition: on error the returned record equals c; on success HP
// percentage is preserved.
func (c Character) Equip(itemID string) (Character, error) {
	idx := c.InventoryIndex(itemID)
	if idx < 0 {
		return c, fmt.Errorf("equip %q: %w", itemID, ErrItemNotInInventory)
	}
	out := c.Clone()
	item := out.Inventory[idx]
	out.Inventory = append(out.Inventory[:idx], out.Inventory[idx+1:]...)
	out = out.place(item)
	return out, nil
}

// place puts item in its slot, pushing the previous occupant to the inventory.
func (c Character) place(item inventory.Item) Character {
	fraction := c.hpFraction()
	if prev, ok := c.Equipment[item.Slot]; ok {
		prev.IsNew = false
		c.Inventory = append(c.Inventory, prev)
	}
	item.IsNew = false
	c.Equipment[item.Slot] = item
	c.rescaleHP(fraction)
	return c
}

// Replace equips item directly (for example a shop purchase), moving any
// displaced item into the inventory.
//
// Postcondition: HP percentage is preserved.
func (c Character) Replace(item inventory.Item) Character {
	return c.Clone().place(item.Clone())
}

// Unequip moves the item with itemID from slot into the inventory.
//
// Postcondition: on error the returned record equals c; on success HP
// percentage is preserved.
func (c Character) Unequip(slot inventory.Slot, itemID string) (Character, error) {
	cur, ok := c.Equipment[slot]
	if !ok || cur.ID != itemID {
		return c, fmt.Errorf("unequip %q from %s: %w", itemID, slot, ErrSlotMismatch)
	}
	out := c.Clone()
	fraction := out.hpFraction()
	delete(out.Equipment, slot)
	cur = cur.Clone()
	cur.IsNew = false
	out.Inventory = append(out.Inventory, cur)
	out.rescaleHP(fraction)
	return out, nil
}

// Buy pays for item and acquires it.
//
// Postcondition: on error the returned record equals c.
func (c Character) Buy(item inventory.Item) (Character, error) {
	if c.Gold < item.Cost {
		return c, fmt.Errorf("buy %q for %d with %d gold: %w", item.ID, item.Cost, c.Gold, ErrInsufficientGold)
	}
	out := c.Clone()
	out.Gold -= item.Cost
	return out.Acquire(item), nil
}

// Sell removes the inventory item with itemID and pays its sell price.
//
// Postcondition: on error the returned record equals c and the price is zero.
func (c Character) Sell(itemID string) (Character, int, error) {
	idx := c.InventoryIndex(itemID)
	if idx < 0 {
		return c, 0, fmt.Errorf("sell %q: %w", itemID, ErrItemNotInInventory)
	}
	out := c.Clone()
	price := out.Inventory[idx].SellPrice()
	out.Inventory = append(out.Inventory[:idx], out.Inventory[idx+1:]...)
	out.Gold += price
	return out, price, nil
}

// AddConsumable adds one unit of cons to c.
func (c Character) AddConsumable(cons inventory.Consumable) Character {
	out := c.Clone()
	st := out.Consumables[cons.ID]
	st.Item = cons
	st.Quantity++
	out.Consumables[cons.ID] = st
	return out
}

// UseConsumable consumes one unit of the consumable with id and applies its effect.
//
// Postcondition: on error the returned record equals c; a heal never exceeds
// effective max HP and is refused at full HP.
func (c Character) UseConsumable(id string) (Character, error) {
	st, ok := c.Consumables[id]
	if !ok || st.Quantity <= 0 {
		return c, fmt.Errorf("use %q: %w", id, ErrConsumableMissing)
	}
	maxHP := c.EffectiveMaxHP()
	if st.Item.Effect.Kind == inventory.EffectHeal && c.HP >= maxHP {
		return c, fmt.Errorf("use %q: %w", id, ErrHPFull)
	}
	out := c.Clone()
	if st.Item.Effect.Kind == inventory.EffectHeal {
		out.HP = min(maxHP, out.HP+st.Item.Effect.Amount)
	}
	if st.Quantity > 1 {
		st.Quantity--
		out.Consumables[id] = st
	} else {
		delete(out.Consumables, id)
	}
	return out, nil
}

// Heal restores up to amount HP and reports how much was restored.
//
// Postcondition: 0 <= healed and out.HP <= EffectiveMaxHP().
func (c Character) Heal(amount int) (Character, int) {
	out := c.Clone()
	maxHP := out.EffectiveMaxHP()
	before := out.HP
	out.HP = clamp(out.HP+max(0, amount), 0, maxHP)
	return out, out.HP - before
}

// HealFraction restores floor(maxHP * fraction) HP.
func (c Character) HealFraction(fraction float64) (Character, int) {
	return c.Heal(int(math.Floor(float64(c.EffectiveMaxHP()) * fraction)))
}

// FullHeal sets HP to effective max HP.
func (c Character) FullHeal() Character {
	out := c.Clone()
	out.HP = out.EffectiveMaxHP()
	return out
}

// Damage removes amount HP, never dropping below floor.
func (c Character) Damage(amount, floor int) Character {
	out := c.Clone()
	out.HP = max(floor, out.HP-amount)
	return out
}

// ClearNewFlags marks every owned item as reviewed.
func (c Character) ClearNewFlags() Character {
	out := c.Clone()
	for i := range out.Inventory {
		out.Inventory[i].IsNew = false
	}
	for slot, it := range out.Equipment {
		it.IsNew = false
		out.Equipment[slot] = it
	}
	return out
}
