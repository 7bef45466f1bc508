package progression

import (
	"sort"

	"github.com/cory-johannsen/dungeon/internal/game/character"
	"github.com/cory-johannsen/dungeon/internal/game/inventory"
)

// AutoShop greedily buys upgrades from stock.
//
// Each pass buys the most expensive affordable item whose slot is empty or
// holds a cheaper item, equipping it and moving the displaced item to the
// inventory. Passes repeat until nothing qualifies.
//
// Postcondition: bought and remaining partition stock; out.Gold >= 0.
func AutoShop(player character.Character, stock []inventory.Item) (out character.Character, bought, remaining []inventory.Item) {
	out = player.Clone()
	remaining = make([]inventory.Item, len(stock))
	copy(remaining, stock)
	sort.SliceStable(remaining, func(i, j int) bool { return remaining[i].Cost > remaining[j].Cost })

	for {
		idx := -1
		for i, it := range remaining {
			if it.Cost > out.Gold {
				continue
			}
			if cur, ok := out.Equipment[it.Slot]; ok && it.Cost <= cur.Cost {
				continue
			}
			idx = i
			break
		}
		if idx < 0 {
			return out, bought, remaining
		}
		it := remaining[idx]
		remaining = append(remaining[:idx], remaining[idx+1:]...)
		out.Gold -= it.Cost
		out = out.Replace(it)
		bought = append(bought, it)
	}
}
