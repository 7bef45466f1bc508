package session

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/cory-johannsen/dungeon/internal/game/character"
	"github.com/cory-johannsen/dungeon/internal/game/dice"
	"github.com/cory-johannsen/dungeon/internal/game/inventory"
	"github.com/cory-johannsen/dungeon/internal/game/loot"
	"github.com/cory-johannsen/dungeon/internal/game/stats"
	"github.com/cory-johannsen/dungeon/internal/game/world"
)

// Dice of the node events.
var (
	treasureGoldDie = dice.MustParse("1d51-1")
	luckGoldDie     = dice.MustParse("1d151+49")
	trapDamageDie   = dice.MustParse("1d51+49")
)

// Treasure roll thresholds.
const (
	treasureItemBelow   = 0.25
	treasurePotionBelow = 0.50
	treasureGoldBase    = 50
)

// LuckKind names the outcome of a luck node.
type LuckKind string

const (
	LuckTrap       LuckKind = "trap"
	LuckItem       LuckKind = "item"
	LuckAttribute  LuckKind = "attribute"
	LuckGold       LuckKind = "gold"
	LuckConsumable LuckKind = "consumable"
	LuckElite      LuckKind = "elite"
	LuckBossBuff   LuckKind = "boss_buff"
)

// LuckResult is the payload of a luck node.
type LuckResult struct {
	Kind       LuckKind              `json:"kind"`
	Damage     int                   `json:"damage,omitempty"`
	Item       *inventory.Item       `json:"item,omitempty"`
	Stat       stats.Key             `json:"stat,omitempty"`
	Gold       int                   `json:"gold,omitempty"`
	Consumable *inventory.Consumable `json:"consumable,omitempty"`
	// Upgraded lists the battle nodes turned elite.
	Upgraded []string `json:"upgraded,omitempty"`
}

// luckTable is the cumulative distribution of luck outcomes. Item rows force
// the given rarity.
var luckTable = []struct {
	below  float64
	kind   LuckKind
	rarity inventory.Rarity
}{
	{0.01, LuckTrap, ""},
	{0.02, LuckItem, inventory.Legendary},
	{0.04, LuckItem, inventory.Epic},
	{0.09, LuckItem, inventory.Rare},
	{0.29, LuckItem, inventory.Common},
	{0.59, LuckAttribute, ""},
	{0.75, LuckGold, ""},
	{0.90, LuckConsumable, ""},
	{0.95, LuckElite, ""},
	{1.00, LuckBossBuff, ""},
}

// enterFloor generates floor n with the given danger and places the player on its start node.
func (r *Run) enterFloor(n, danger int) {
	theme, _ := r.rules.Floor(n)
	r.floorNum = n
	r.floor = world.Generate(n, theme, r.src)
	r.danger = danger
	r.bossBuffed = false
	r.nodesTraversed = 0
	start := r.floor.Start()
	r.current = start.ID
	r.floor.Complete(start.ID, "")
	r.logger.Info("floor entered", zap.Int("floor", n), zap.String("theme", theme.Name), zap.Int("danger", danger))
}

// SelectNode moves the player to the node with id and resolves its event.
//
// Precondition of success: id is connected from the current node and not yet
// completed. Selecting the exit opens the floor-exit confirmation instead.
func (r *Run) SelectNode(id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.expect("select node", PhaseMap); err != nil {
		return err
	}
	node, ok := r.floor.Node(id)
	if !ok {
		return r.reject("select node", fmt.Errorf("select node %q: %w", id, ErrUnknownNode))
	}
	if node.Completed {
		return r.reject("select node", fmt.Errorf("select node %q: %w", id, ErrNodeCompleted))
	}
	if !r.floor.Connected(r.current, id) {
		return r.reject("select node", fmt.Errorf("select node %q from %q: %w", id, r.current, ErrNodeNotReachable))
	}
	if node.Type == world.Exit {
		r.setPhase(PhaseFloorExit)
		return nil
	}

	traversed := r.nodesTraversed
	r.floor.Complete(id, "")
	r.current = id
	r.nodesTraversed++
	r.logger.Debug("node selected", zap.String("node", id), zap.String("type", string(node.Type)))

	switch node.Type {
	case world.Battle, world.EliteBattle, world.Boss:
		r.prepareNodeBattle(node, traversed)
	case world.Treasure:
		r.openTreasure()
	case world.Rest:
		r.rest(node)
	case world.Shop:
		r.openShop(r.floorNum)
	case world.Luck:
		r.openLuck()
	}
	return nil
}

func nodeTier(t world.NodeType) character.Tier {
	switch t {
	case world.EliteBattle:
		return character.TierElite
	case world.Boss:
		return character.TierBoss
	default:
		return character.TierNormal
	}
}

// prepareNodeBattle spawns the node's enemy at the floor danger plus one
// level per stepsPerLevel nodes traversed before this one.
func (r *Run) prepareNodeBattle(node world.Node, traversed int) {
	tier := nodeTier(node.Type)
	steps := r.difficulty.LevelSteps.For(tier)
	per := steps[0]
	if len(steps) > 1 {
		per = dice.IntBetween(r.src, steps[0], steps[len(steps)-1])
	}
	level := r.danger + traversed/per
	r.enemy = r.spawn(node.Enemy, level, tier, node.ID)
	r.setPhase(PhaseReady)
}

// rest heals the node's fraction of max HP.
func (r *Run) rest(node world.Node) {
	var healed int
	r.player, healed = r.player.HealFraction(node.RestHeal)
	r.floor.Complete(node.ID, fmt.Sprintf("+%d hp", healed))
	r.publish(Notice{Kind: NoticeRest, Params: map[string]any{"hp": healed}})
}

func (r *Run) openTreasure() {
	reward := &TreasureReward{}
	roll := r.src.Float64()
	switch {
	case roll < treasureItemBelow:
		items := r.loot.Generate(r.player.Level, 1, loot.Options{AttackType: r.player.AttackType, FloorOffset: r.floorNum})
		if len(items) > 0 {
			it := items[0]
			reward.Item = &it
			r.player = r.player.Acquire(it)
		}
	case roll < treasurePotionBelow:
		potion := r.rules.Potion()
		reward.Consumable = &potion
		r.player = r.player.AddConsumable(potion)
	default:
		reward.Gold = treasureGoldBase + r.roller.Roll(treasureGoldDie).Total()*r.floorNum
		r.player.Gold += reward.Gold
	}
	r.treasure = reward
	r.floor.Complete(r.current, summarizeTreasure(*reward))
	r.publish(Notice{Kind: NoticeTreasure, Params: map[string]any{"summary": summarizeTreasure(*reward)}})
	r.setPhase(PhaseTreasure)
}

func summarizeTreasure(t TreasureReward) string {
	switch {
	case t.Item != nil:
		return t.Item.Name
	case t.Consumable != nil:
		return t.Consumable.Name
	default:
		return fmt.Sprintf("%d gold", t.Gold)
	}
}

func (r *Run) openLuck() {
	roll := r.src.Float64()
	row := luckTable[len(luckTable)-1]
	for _, candidate := range luckTable {
		if roll < candidate.below {
			row = candidate
			break
		}
	}
	res := &LuckResult{Kind: row.kind}
	switch row.kind {
	case LuckTrap:
		res.Damage = r.roller.Roll(trapDamageDie).Total()
		r.player = r.player.Damage(res.Damage, 1)
	case LuckItem:
		items := r.loot.Generate(r.player.Level, 1, loot.Options{Rarity: row.rarity, AttackType: r.player.AttackType})
		if len(items) > 0 {
			it := items[0]
			res.Item = &it
			r.player = r.player.Acquire(it)
		}
	case LuckAttribute:
		at := r.player.AttackType
		candidates := []stats.Key{stats.Vitality, stats.Luck, stats.Precision, at.OffenseKey(), at.DefenseKey()}
		res.Stat = dice.Pick(r.src, candidates)
		r.player.Stats.Add(res.Stat, 1)
	case LuckGold:
		res.Gold = r.roller.Roll(luckGoldDie).Total()
		r.player.Gold += res.Gold
	case LuckConsumable:
		potion := r.rules.Potion()
		res.Consumable = &potion
		r.player = r.player.AddConsumable(potion)
	case LuckElite:
		res.Upgraded = r.floor.UpgradeBattles(r.src.Intn(2)+1, r.src)
	case LuckBossBuff:
		r.bossBuffed = true
	}
	r.luck = res
	r.floor.Complete(r.current, string(res.Kind))
	r.publish(Notice{Kind: NoticeLuck, Params: map[string]any{"kind": string(res.Kind)}})
	r.setPhase(PhaseLuck)
}

// Acknowledge closes the treasure or luck screen.
func (r *Run) Acknowledge() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.expect("acknowledge", PhaseTreasure, PhaseLuck); err != nil {
		return err
	}
	r.treasure = nil
	r.luck = nil
	r.setPhase(PhaseMap)
	return nil
}

// AdvanceFloor confirms leaving through the exit. Leaving the last floor wins the run.
//
// Postcondition: the next floor's danger is its number, or its number plus
// five when the player out-levels the current danger by more than two; the
// player heals half of max HP.
func (r *Run) AdvanceFloor() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.expect("advance floor", PhaseFloorExit); err != nil {
		return err
	}
	next := r.floorNum + 1
	if next > r.rules.FloorCount() {
		r.logger.Info("run won", zap.Int("level", r.player.Level))
		r.publish(Notice{Kind: NoticeRunComplete, Params: map[string]any{"level": r.player.Level}})
		r.setPhase(PhaseVictory)
		return nil
	}
	danger := next
	if r.player.Level-r.danger > dangerSlack {
		danger = next + dangerJump
	}
	r.enterFloor(next, danger)
	var healed int
	r.player, healed = r.player.HealFraction(FloorAdvanceHeal)
	r.publish(Notice{Kind: NoticeFloor, Params: map[string]any{"floor": next, "hp": healed}})
	r.setPhase(PhaseMap)
	return nil
}

// StayOnFloor dismisses the floor-exit confirmation.
func (r *Run) StayOnFloor() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.expect("stay on floor", PhaseFloorExit); err != nil {
		return err
	}
	r.setPhase(PhaseMap)
	return nil
}
