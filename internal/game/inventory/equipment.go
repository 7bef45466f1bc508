package inventory

import "strings"

// Slot identifies one equipment slot.
type Slot string

const (
	SlotWeapon   Slot = "weapon"
	SlotShield   Slot = "shield"
	SlotHelmet   Slot = "helmet"
	SlotArmor    Slot = "armor"
	SlotBoots    Slot = "boots"
	SlotNecklace Slot = "necklace"
)

// Slots lists every equipment slot in display order.
var Slots = []Slot{SlotWeapon, SlotShield, SlotHelmet, SlotArmor, SlotBoots, SlotNecklace}

// slotDisplayNames maps every slot identifier to its human-readable label.
var slotDisplayNames = map[Slot]string{
	SlotWeapon:   "Weapon",
	SlotShield:   "Shield",
	SlotHelmet:   "Helmet",
	SlotArmor:    "Armor",
	SlotBoots:    "Boots",
	SlotNecklace: "Necklace",
}

// Valid reports whether s is one of the six equipment slots.
func (s Slot) Valid() bool {
	_, ok := slotDisplayNames[s]
	return ok
}

// DisplayName returns the human-readable label for s, or s itself when unknown.
func (s Slot) DisplayName() string {
	if name, ok := slotDisplayNames[s]; ok {
		return name
	}
	return string(s)
}

// weaponIcons is checked in order; the first keyword found in the item name wins.
var weaponIcons = []struct {
	keyword string
	icon    string
}{
	{"Sword", "🗡️"},
	{"Axe", "🪓"},
	{"Mace", "🔨"},
	{"Dagger", "🔪"},
	{"Spear", "🔱"},
	{"Crossbow", "🎯"},
	{"Bow", "🏹"},
	{"Staff", "🪄"},
	{"Wand", "✨"},
}

var slotIcons = map[Slot]string{
	SlotShield:   "🛡️",
	SlotHelmet:   "⛑️",
	SlotArmor:    "🎽",
	SlotBoots:    "👢",
	SlotNecklace: "💍",
}

// IconFor returns the display icon for an item with the given slot and name.
//
// Postcondition: the result depends only on slot and name.
func IconFor(slot Slot, name string) string {
	if slot == SlotWeapon {
		for _, w := range weaponIcons {
			if strings.Contains(name, w.keyword) {
				return w.icon
			}
		}
		return "⚔️"
	}
	if icon, ok := slotIcons[slot]; ok {
		return icon
	}
	return "❓"
}
