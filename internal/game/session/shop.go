package session

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/cory-johannsen/dungeon/internal/game/character"
	"github.com/cory-johannsen/dungeon/internal/game/inventory"
	"github.com/cory-johannsen/dungeon/internal/game/loot"
	"github.com/cory-johannsen/dungeon/internal/game/progression"
	"github.com/cory-johannsen/dungeon/internal/game/ruleset"
)

// openShop stocks ShopSize marked-up items around the player's level.
func (r *Run) openShop(floorOffset int) {
	r.stock = r.loot.Generate(r.player.Level, ShopSize, loot.Options{
		AttackType:  r.player.AttackType,
		FloorOffset: floorOffset,
		Shop:        true,
	})
	r.setPhase(PhaseShop)
}

// Buy purchases the stocked item with itemID.
//
// Postcondition: on error neither the player nor the stock changes.
func (r *Run) Buy(itemID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.expect("buy", PhaseShop); err != nil {
		return err
	}
	idx := -1
	for i, it := range r.stock {
		if it.ID == itemID {
			idx = i
			break
		}
	}
	if idx < 0 {
		return r.reject("buy", fmt.Errorf("buy %q: %w", itemID, ErrNotInStock))
	}
	item := r.stock[idx]
	out, err := r.player.Buy(item)
	if err != nil {
		return r.reject("buy", err)
	}
	r.player = out
	r.stock = append(r.stock[:idx], r.stock[idx+1:]...)
	r.publish(Notice{Kind: NoticePurchase, Params: map[string]any{"item": item.Name, "cost": item.Cost}})
	return nil
}

// Sell sells the inventory item with itemID.
func (r *Run) Sell(itemID string) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.expectManaging("sell"); err != nil {
		return 0, err
	}
	out, price, err := r.player.Sell(itemID)
	if err != nil {
		return 0, r.reject("sell", err)
	}
	r.player = out
	r.publish(Notice{Kind: NoticeSale, Params: map[string]any{"item": itemID, "gold": price}})
	return price, nil
}

// CloseShop leaves the shop. In survival it runs the auto-shop when enabled
// and then sets up the next wave.
func (r *Run) CloseShop() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.expect("close shop", PhaseShop); err != nil {
		return err
	}
	if r.cfg.Mode == ruleset.Survival {
		if r.cfg.AutoSpendGold {
			out, bought, _ := progression.AutoShop(r.player, r.stock)
			r.player = out
			if len(bought) > 0 {
				names := make([]string, len(bought))
				for i, it := range bought {
					names[i] = it.Name
				}
				r.publish(Notice{Kind: NoticeAutoBuy, Params: map[string]any{"items": names}})
			}
		}
		r.stock = nil
		r.nextWave()
		return nil
	}
	r.stock = nil
	r.setPhase(PhaseMap)
	return nil
}

// nextWave raises the survival wave and spawns its enemy at full player HP.
func (r *Run) nextWave() {
	r.wave++
	level := max(1, r.wave-r.src.Intn(2))
	r.enemy = r.spawn(survivalWave, level, character.TierNormal, "")
	r.player = r.player.FullHeal()
	r.logger.Info("wave started", zap.Int("wave", r.wave), zap.Int("enemy_level", level))
	r.publish(Notice{Kind: NoticeNewEnemy, Params: map[string]any{"enemy": r.enemy.Name, "level": level, "wave": r.wave}})
	r.setPhase(PhaseReady)
}

// expectManaging allows inventory management on every screen where a hero
// exists and no battle is running.
func (r *Run) expectManaging(op string) error {
	switch r.phase {
	case PhaseHeroSelect, PhaseBattling, PhaseOver, PhaseVictory:
		return r.reject(op, fmt.Errorf("%s in phase %s: %w", op, r.phase, ErrWrongPhase))
	}
	return nil
}

// Equip equips the inventory item with itemID.
func (r *Run) Equip(itemID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.expectManaging("equip"); err != nil {
		return err
	}
	out, err := r.player.Equip(itemID)
	if err != nil {
		return r.reject("equip", err)
	}
	r.player = out
	return nil
}

// Unequip moves the item with itemID out of slot.
func (r *Run) Unequip(slot inventory.Slot, itemID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.expectManaging("unequip"); err != nil {
		return err
	}
	out, err := r.player.Unequip(slot, itemID)
	if err != nil {
		return r.reject("unequip", err)
	}
	r.player = out
	return nil
}

// UseConsumable uses one unit of the consumable with id.
func (r *Run) UseConsumable(id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.expectManaging("use consumable"); err != nil {
		return err
	}
	before := r.player.HP
	out, err := r.player.UseConsumable(id)
	if err != nil {
		return r.reject("use consumable", err)
	}
	r.player = out
	r.publish(Notice{Kind: NoticeConsumable, Params: map[string]any{"id": id, "hp": out.HP - before}})
	return nil
}

// ReviewEquipment clears the new-item flags after the player looked at them.
func (r *Run) ReviewEquipment() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.expectManaging("review equipment"); err != nil {
		return err
	}
	r.player = r.player.ClearNewFlags()
	return nil
}
