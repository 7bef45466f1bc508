package session

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/cory-johannsen/dungeon/internal/game/character"
	"github.com/cory-johannsen/dungeon/internal/game/combat"
	"github.com/cory-johannsen/dungeon/internal/game/inventory"
	"github.com/cory-johannsen/dungeon/internal/game/progression"
	"github.com/cory-johannsen/dungeon/internal/game/ruleset"
	"github.com/cory-johannsen/dungeon/internal/game/stats"
)

// StartBattle begins the fight against the current enemy.
//
// Postcondition: on success a fresh battle with zeroed accumulators is in
// progress and the run is battling.
func (r *Run) StartBattle() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.expect("start battle", PhaseReady); err != nil {
		return err
	}
	eff := character.Effective(&r.player)
	r.battle = combat.NewBattle(eff, r.enemy, r.src)
	r.victory = nil
	r.logger.Info("battle started",
		zap.String("battle", r.battle.ID()),
		zap.String("enemy", r.enemy.Name),
		zap.Int("enemy_level", r.enemy.Level),
		zap.String("tier", string(r.enemy.Tier)),
	)
	r.setPhase(PhaseBattling)
	r.publish(Notice{Kind: NoticeBattle, Events: r.battle.Log()})
	return nil
}

// Advance runs one battle tick and settles the battle once it ends.
//
// Postcondition: returns nil when no battle is in progress.
func (r *Run) Advance(ctx context.Context) []combat.Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.battle == nil || r.phase != PhaseBattling {
		return nil
	}
	events := r.battle.Advance()
	if len(events) > 0 {
		r.publish(Notice{Kind: NoticeBattle, Events: events})
	}
	if r.battle.Done() {
		r.settle(ctx)
	}
	return events
}

// BattleDone reports whether no battle is in progress.
func (r *Run) BattleDone() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.battle == nil || r.phase != PhaseBattling
}

type stepper struct {
	ctx context.Context
	r   *Run
}

func (s stepper) Advance() []combat.Event { return s.r.Advance(s.ctx) }
func (s stepper) Done() bool              { return s.r.BattleDone() }

// Stepper adapts the run's battle to a combat.Pacer.
func (r *Run) Stepper(ctx context.Context) combat.Stepper {
	return stepper{ctx: ctx, r: r}
}

// settle applies the outcome of the finished battle.
func (r *Run) settle(ctx context.Context) {
	b := r.battle
	r.battle = nil
	r.logger.Info("battle finished",
		zap.String("battle", b.ID()),
		zap.String("outcome", b.Outcome().String()),
		zap.Int("ticks", b.Tick()),
	)
	switch b.Outcome() {
	case combat.PlayerWon:
		r.player.HP = b.Player().HP
		r.win()
	case combat.EnemyWon:
		r.player.HP = 0
		r.enemy.HP = b.Enemy().HP
		r.lose(ctx)
	default:
		r.setPhase(PhaseReady)
	}
}

func (r *Run) win() {
	var drop *inventory.Item
	if it, ok := progression.BossDrop(r.loot, r.enemy, r.player.AttackType); ok {
		drop = &it
	} else if r.enemy.Tier == character.TierBoss {
		r.logger.Info("boss has no unique template", zap.String("boss", r.enemy.Name))
	}
	player, v := progression.ApplyVictory(r.player, r.enemy, r.difficulty, r.cfg.Mode, drop)
	r.player = player
	r.victory = &v
	if r.floor != nil {
		r.floor.Complete(r.current, fmt.Sprintf("%d xp, %d gold", v.XP, v.Gold))
	}
	params := map[string]any{"xp": v.XP, "gold": v.Gold, "levels": v.Levels, "points": v.Points}
	if v.Unique != nil {
		params["unique"] = v.Unique.Name
	}
	r.publish(Notice{Kind: NoticeVictory, Params: params})
	r.logger.Info("victory", zap.Int("xp", v.XP), zap.Int("gold", v.Gold), zap.Int("levels", v.Levels))

	if v.LeveledUp() {
		r.openLevelUp(v.Points)
		return
	}
	r.afterEncounter()
}

// afterEncounter leaves a settled encounter for the map or the survival shop.
func (r *Run) afterEncounter() {
	if r.cfg.Mode == ruleset.Survival {
		r.openShop(0)
		return
	}
	r.setPhase(PhaseMap)
}

func (r *Run) lose(ctx context.Context) {
	points := progression.MasteryPoints(r.cfg.Mode, r.floorNum, r.nodesTraversed, r.wave)
	if points > 0 && r.ledger != nil {
		rec := r.ledger.Award(ctx, r.player.ID, points)
		r.mastery += points
		r.publish(Notice{Kind: NoticeMastery, Params: map[string]any{"points": points, "total": rec.TotalPoints}})
	}
	r.logger.Info("defeat", zap.Int("mastery_points", points), zap.Int("lives", r.player.Lives))
	r.setPhase(PhaseOver)
}

// Continue spends an extra life after a survival defeat: the player heals
// fully, gains bonus attribute points and faces the same enemy again.
func (r *Run) Continue() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.expect("continue", PhaseOver); err != nil {
		return err
	}
	if r.abandoned || r.cfg.Mode != ruleset.Survival || r.player.Lives <= 0 {
		return r.reject("continue", fmt.Errorf("continue with %d lives: %w", r.player.Lives, ErrNoLives))
	}
	r.player.Lives--
	r.player = r.player.FullHeal()
	r.retrying = true
	r.victory = nil
	r.publish(Notice{Kind: NoticeContinue, Params: map[string]any{"lives": r.player.Lives}})
	r.openLevelUp(progression.ContinuePoints)
	return nil
}

// openLevelUp starts an allocation session holding any carried points plus granted.
func (r *Run) openLevelUp(granted int) {
	r.alloc = progression.NewAllocator(r.player, r.points)
	r.points = 0
	r.alloc.Grant(granted)
	r.setPhase(PhaseLevelUp)
	if r.cfg.AutoDistribute && r.alloc.Points() > 0 {
		r.autoDistribute()
	}
}

func (r *Run) autoDistribute() {
	spent := r.alloc.Points()
	r.player = r.alloc.AutoDistribute(r.player)
	r.publish(Notice{Kind: NoticeAttributes, Params: map[string]any{"points": spent}})
}

// IncreaseStat spends one attribute point on k.
func (r *Run) IncreaseStat(k stats.Key) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.expect("increase stat", PhaseLevelUp); err != nil {
		return err
	}
	out, err := r.alloc.Increase(r.player, k)
	if err != nil {
		return r.reject("increase stat", err)
	}
	r.player = out
	return nil
}

// DecreaseStat refunds one attribute point from k, never below its value
// when the level-up screen opened.
func (r *Run) DecreaseStat(k stats.Key) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.expect("decrease stat", PhaseLevelUp); err != nil {
		return err
	}
	out, err := r.alloc.Decrease(r.player, k)
	if err != nil {
		return r.reject("decrease stat", err)
	}
	r.player = out
	return nil
}

// AutoDistribute spends every pending point over the distribution order.
func (r *Run) AutoDistribute() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.expect("auto distribute", PhaseLevelUp); err != nil {
		return err
	}
	r.autoDistribute()
	return nil
}

// FinishLevelUp closes the level-up screen. Unspent points carry over.
//
// Postcondition: a survival retry faces the same enemy at full HP; other
// survival runs open the shop; story runs return to the map.
func (r *Run) FinishLevelUp() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.expect("finish level up", PhaseLevelUp); err != nil {
		return err
	}
	r.points = r.alloc.Points()
	r.alloc = nil
	if r.retrying {
		r.retrying = false
		r.player = r.player.FullHeal()
		r.enemy.HP = r.enemy.MaxHP()
		r.setPhase(PhaseReady)
		return nil
	}
	r.afterEncounter()
	return nil
}
