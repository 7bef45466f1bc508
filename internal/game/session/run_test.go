package session_test

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"
	"go.uber.org/zap/zaptest/observer"
	"pgregory.net/rapid"

	"github.com/cory-johannsen/dungeon/internal/game/character"
	"github.com/cory-johannsen/dungeon/internal/game/combat"
	"github.com/cory-johannsen/dungeon/internal/game/dice"
	"github.com/cory-johannsen/dungeon/internal/game/inventory"
	"github.com/cory-johannsen/dungeon/internal/game/loot"
	"github.com/cory-johannsen/dungeon/internal/game/mastery"
	"github.com/cory-johannsen/dungeon/internal/game/npc"
	"github.com/cory-johannsen/dungeon/internal/game/progression"
	"github.com/cory-johannsen/dungeon/internal/game/ruleset"
	"github.com/cory-johannsen/dungeon/internal/game/session"
	"github.com/cory-johannsen/dungeon/internal/game/stats"
	"github.com/cory-johannsen/dungeon/internal/game/world"
)

// testingT is satisfied by both *testing.T and *rapid.T.
type testingT interface {
	require.TestingT
	Helper()
}

func deps(t testingT, seed uint64) session.Deps {
	t.Helper()
	catalogue, err := npc.LoadCatalogue(ruleset.DefaultContent())
	require.NoError(t, err)
	pools, err := loot.LoadNamePools(ruleset.DefaultContent())
	require.NoError(t, err)
	return session.Deps{
		Rules:   ruleset.MustLoadDefault(),
		Enemies: catalogue,
		Pools:   pools,
		Source:  dice.NewSeededSource(seed),
	}
}

func storyConfig(hero, diff string) session.Config {
	return session.Config{Mode: ruleset.Story, Hero: hero, Difficulty: diff}
}

func survivalConfig(hero, diff string) session.Config {
	return session.Config{Mode: ruleset.Survival, Hero: hero, Difficulty: diff}
}

func newRun(t testingT, cfg session.Config, seed uint64) *session.Run {
	t.Helper()
	r, err := session.NewRun(cfg, deps(t, seed))
	require.NoError(t, err)
	return r
}

func started(t testingT, cfg session.Config, seed uint64) *session.Run {
	t.Helper()
	r := newRun(t, cfg, seed)
	require.NoError(t, r.Start())
	return r
}

// fightToEnd runs the current battle to its end.
func fightToEnd(t testingT, r *session.Run) {
	t.Helper()
	require.NoError(t, r.StartBattle())
	for i := 0; !r.BattleDone(); i++ {
		require.Less(t, i, 100000, "battle never ended")
		r.Advance(context.Background())
	}
}

// survivalUntil plays survival battles, finishing level-ups, until the run
// reaches want or the seed is exhausted.
func survivalUntil(t testing.TB, cfg session.Config, want session.Phase) *session.Run {
	t.Helper()
	for seed := uint64(1); seed <= 64; seed++ {
		r := started(t, cfg, seed)
		fightToEnd(t, r)
		if r.Phase() == session.PhaseLevelUp {
			require.NoError(t, r.FinishLevelUp())
		}
		if r.Phase() == want {
			return r
		}
	}
	t.Fatalf("no seed reached phase %s", want)
	return nil
}

func TestNewRun_UnknownMode(t *testing.T) {
	_, err := session.NewRun(session.Config{Mode: "arcade"}, deps(t, 1))
	assert.Error(t, err)
}

func TestNewRun_Preconditions(t *testing.T) {
	assert.Panics(t, func() { _, _ = session.NewRun(storyConfig("knight", "easy"), session.Deps{}) })
}

func TestNewRun_StartsOnHeroSelect(t *testing.T) {
	r := newRun(t, storyConfig("knight", "easy"), 1)
	assert.Equal(t, session.PhaseHeroSelect, r.Phase())
	assert.NotEmpty(t, r.ID())
	_, ok := r.Enemy()
	assert.False(t, ok)
}

func TestSelectHero_Unknown(t *testing.T) {
	r := newRun(t, storyConfig("knight", "easy"), 1)
	err := r.SelectHero("bard")
	assert.ErrorIs(t, err, session.ErrUnknownHero)
	assert.Equal(t, session.PhaseHeroSelect, r.Phase())
}

func TestSelectDifficulty_WrongPhase(t *testing.T) {
	r := newRun(t, storyConfig("knight", "easy"), 1)
	assert.ErrorIs(t, r.SelectDifficulty("easy"), session.ErrWrongPhase)
}

func TestSelectDifficulty_Unknown(t *testing.T) {
	r := newRun(t, storyConfig("knight", "easy"), 1)
	require.NoError(t, r.SelectHero("knight"))
	assert.ErrorIs(t, r.SelectDifficulty("nightmare"), session.ErrUnknownDifficulty)
	assert.Equal(t, session.PhaseDifficultySelect, r.Phase())
}

func TestStart_StoryMedium(t *testing.T) {
	r := started(t, storyConfig("wizard", "medium"), 3)

	assert.Equal(t, session.PhaseMap, r.Phase())
	assert.Equal(t, 1, r.FloorNumber())
	assert.Equal(t, 1, r.Danger())
	assert.Equal(t, world.StartID(1), r.CurrentNode())
	assert.Equal(t, 0, r.NodesTraversed())

	p := r.Player()
	assert.Equal(t, 1, p.Level)
	assert.Equal(t, 100, p.Gold)
	assert.Equal(t, 0, p.Lives)
	assert.Empty(t, p.Equipment)
	assert.Equal(t, p.EffectiveMaxHP(), p.HP)

	nodes := r.Map()
	require.NotEmpty(t, nodes)
	assert.True(t, nodes[0].Completed, "start node is completed on arrival")
}

func TestStart_StoryEasyGrantsCommonItem(t *testing.T) {
	r := started(t, storyConfig("knight", "easy"), 3)
	p := r.Player()
	assert.Equal(t, 100, p.Gold)
	require.Len(t, p.Equipment, 1)
	for _, it := range p.Equipment {
		assert.Equal(t, inventory.Common, it.Rarity)
	}
	assert.Equal(t, p.EffectiveMaxHP(), p.HP)
}

func TestStart_StoryHardGrantsNothing(t *testing.T) {
	r := started(t, storyConfig("archer", "hard"), 3)
	assert.Equal(t, 0, r.Player().Gold)
}

func TestStart_Survival(t *testing.T) {
	r := started(t, survivalConfig("druid", "medium"), 5)

	assert.Equal(t, session.PhaseReady, r.Phase())
	assert.Equal(t, 1, r.Wave())
	assert.Equal(t, 0, r.FloorNumber())
	assert.Nil(t, r.Map())
	assert.Equal(t, ruleset.SurvivalLives, r.Player().Lives)

	e, ok := r.Enemy()
	require.True(t, ok)
	assert.Equal(t, "Giant Spider", e.Name)
	assert.Equal(t, 1, e.Level)
	assert.Equal(t, character.TierNormal, e.Tier)
	assert.Equal(t, e.MaxHP(), e.HP)
}

func TestStart_PublishesPhaseNotices(t *testing.T) {
	r := started(t, storyConfig("knight", "medium"), 1)
	notices := r.Feed().Drain()
	require.Len(t, notices, 2)
	assert.Equal(t, session.NoticePhase, notices[0].Kind)
	assert.Equal(t, session.PhaseDifficultySelect, notices[0].Phase)
	assert.Equal(t, session.PhaseMap, notices[1].Phase)
}

func TestSelectNode_Rejections(t *testing.T) {
	r := started(t, storyConfig("knight", "medium"), 7)

	assert.ErrorIs(t, r.SelectNode("nowhere"), session.ErrUnknownNode)
	assert.ErrorIs(t, r.SelectNode(world.StartID(1)), session.ErrNodeCompleted)
	assert.ErrorIs(t, r.SelectNode(world.BossID(1)), session.ErrNodeNotReachable)
	assert.ErrorIs(t, r.SelectNode(world.ExitID(1)), session.ErrNodeNotReachable)
	assert.Equal(t, session.PhaseMap, r.Phase())
	assert.Equal(t, 0, r.NodesTraversed())
}

func TestSelectNode_LogsRefusal(t *testing.T) {
	core, logs := observer.New(zap.WarnLevel)
	d := deps(t, 7)
	d.Logger = zap.New(core)
	r, err := session.NewRun(storyConfig("knight", "medium"), d)
	require.NoError(t, err)
	require.NoError(t, r.Start())

	_ = r.SelectNode(world.BossID(1))
	entries := logs.FilterMessage("operation refused").All()
	require.Len(t, entries, 1)
	assert.Equal(t, "select node", entries[0].ContextMap()["op"])
}

func TestSelectNode_ResolvesFirstStep(t *testing.T) {
	r := started(t, storyConfig("knight", "medium"), 11)
	start := r.Map()[0]
	require.NotEmpty(t, start.Connections)
	target := start.Connections[0]

	require.NoError(t, r.SelectNode(target))
	assert.Equal(t, target, r.CurrentNode())
	assert.Equal(t, 1, r.NodesTraversed())

	var node world.Node
	for _, n := range r.Map() {
		if n.ID == target {
			node = n
		}
	}
	assert.True(t, node.Completed)

	switch node.Type {
	case world.Battle, world.EliteBattle:
		assert.Equal(t, session.PhaseReady, r.Phase())
		e, ok := r.Enemy()
		require.True(t, ok)
		assert.Equal(t, target, e.ID)
		assert.Equal(t, node.Enemy, e.Name)
		// Danger 1 plus nothing traversed before this node.
		assert.Equal(t, 1, e.Level)
	case world.Treasure:
		assert.Equal(t, session.PhaseTreasure, r.Phase())
		_, ok := r.Treasure()
		assert.True(t, ok)
		require.NoError(t, r.Acknowledge())
		assert.Equal(t, session.PhaseMap, r.Phase())
	case world.Luck:
		assert.Equal(t, session.PhaseLuck, r.Phase())
		_, ok := r.Luck()
		assert.True(t, ok)
	case world.Shop:
		assert.Equal(t, session.PhaseShop, r.Phase())
		assert.Len(t, r.Stock(), session.ShopSize)
	case world.Rest:
		assert.Equal(t, session.PhaseMap, r.Phase())
	}
}

func TestWrongPhaseOperations(t *testing.T) {
	r := started(t, storyConfig("knight", "medium"), 1)
	assert.ErrorIs(t, r.Buy("x"), session.ErrWrongPhase)
	assert.ErrorIs(t, r.CloseShop(), session.ErrWrongPhase)
	assert.ErrorIs(t, r.StartBattle(), session.ErrWrongPhase)
	assert.ErrorIs(t, r.IncreaseStat(stats.Vitality), session.ErrWrongPhase)
	assert.ErrorIs(t, r.FinishLevelUp(), session.ErrWrongPhase)
	assert.ErrorIs(t, r.Acknowledge(), session.ErrWrongPhase)
	assert.ErrorIs(t, r.AdvanceFloor(), session.ErrWrongPhase)
	assert.ErrorIs(t, r.Continue(), session.ErrWrongPhase)
	assert.Nil(t, r.Advance(context.Background()))
}

func TestInventoryOperations_DataMismatchIsNoOp(t *testing.T) {
	r := started(t, storyConfig("knight", "easy"), 2)
	before := r.Player()

	assert.ErrorIs(t, r.Equip("missing"), character.ErrItemNotInInventory)
	assert.ErrorIs(t, r.Unequip(inventory.SlotWeapon, "missing"), character.ErrSlotMismatch)
	_, err := r.Sell("missing")
	assert.ErrorIs(t, err, character.ErrItemNotInInventory)
	assert.ErrorIs(t, r.UseConsumable(ruleset.PotionID), character.ErrConsumableMissing)

	assert.Equal(t, before, r.Player())
}

func TestUnequipSellRoundTrip(t *testing.T) {
	r := started(t, storyConfig("knight", "easy"), 2)
	p := r.Player()
	require.Len(t, p.Equipment, 1)
	var slot inventory.Slot
	var item inventory.Item
	for s, it := range p.Equipment {
		slot, item = s, it
	}

	require.NoError(t, r.Unequip(slot, item.ID))
	require.NoError(t, r.Equip(item.ID))
	require.NoError(t, r.Unequip(slot, item.ID))
	price, err := r.Sell(item.ID)
	require.NoError(t, err)
	assert.Equal(t, item.SellPrice(), price)
	assert.Equal(t, p.Gold+price, r.Player().Gold)
	assert.Empty(t, r.Player().Inventory)
	assert.NoError(t, r.ReviewEquipment())
}

func TestBattle_StartAndSettle(t *testing.T) {
	r := started(t, survivalConfig("knight", "easy"), 9)
	require.NoError(t, r.StartBattle())
	assert.Equal(t, session.PhaseBattling, r.Phase())
	require.NotNil(t, r.Battle())

	_, err := r.Sell("x")
	assert.ErrorIs(t, err, session.ErrWrongPhase, "no inventory management mid-battle")

	for !r.BattleDone() {
		r.Advance(context.Background())
	}
	assert.Nil(t, r.Battle())
	assert.Contains(t, []session.Phase{session.PhaseShop, session.PhaseLevelUp, session.PhaseOver}, r.Phase())

	if r.Phase() != session.PhaseOver {
		v, ok := r.LastVictory()
		require.True(t, ok)
		assert.GreaterOrEqual(t, v.XP, 10)
		assert.Positive(t, v.Gold)
	}
}

func TestBattle_PacedThroughStepper(t *testing.T) {
	r := started(t, survivalConfig("archer", "easy"), 4)
	require.NoError(t, r.StartBattle())

	var batches int
	pacer := combat.NewPacer(time.Millisecond, 3, func([]combat.Event) { batches++ })
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	require.NoError(t, pacer.Run(ctx, r.Stepper(ctx)))

	assert.True(t, r.BattleDone())
	assert.NotEqual(t, session.PhaseBattling, r.Phase())
	assert.Positive(t, batches)
}

func TestAbandon_CancelsBattle(t *testing.T) {
	r := started(t, survivalConfig("knight", "easy"), 9)
	require.NoError(t, r.StartBattle())
	b := r.Battle()

	r.Abandon()
	assert.Equal(t, session.PhaseOver, r.Phase())
	assert.True(t, r.Abandoned())
	assert.Equal(t, combat.Cancelled, b.Outcome())
	assert.Nil(t, r.Battle())
	assert.ErrorIs(t, r.Continue(), session.ErrNoLives)
	assert.Zero(t, r.MasteryEarned())
}

func TestShop_SurvivalBuyAndClose(t *testing.T) {
	r := survivalUntil(t, survivalConfig("knight", "easy"), session.PhaseShop)
	stock := r.Stock()
	require.Len(t, stock, session.ShopSize)
	for _, it := range stock {
		assert.NotEqual(t, inventory.Unique, it.Rarity)
	}

	assert.ErrorIs(t, r.Buy("missing"), session.ErrNotInStock)

	gold := r.Player().Gold
	item := stock[0]
	err := r.Buy(item.ID)
	if item.Cost > gold {
		assert.ErrorIs(t, err, character.ErrInsufficientGold)
		assert.Len(t, r.Stock(), session.ShopSize)
		assert.Equal(t, gold, r.Player().Gold)
	} else {
		require.NoError(t, err)
		assert.Len(t, r.Stock(), session.ShopSize-1)
		assert.Equal(t, gold-item.Cost, r.Player().Gold)
	}

	require.NoError(t, r.CloseShop())
	assert.Equal(t, session.PhaseReady, r.Phase())
	assert.Equal(t, 2, r.Wave())
	assert.Empty(t, r.Stock())

	e, ok := r.Enemy()
	require.True(t, ok)
	assert.Equal(t, "Skeleton", e.Name)
	assert.Contains(t, []int{1, 2}, e.Level)
	p := r.Player()
	assert.Equal(t, p.EffectiveMaxHP(), p.HP)
}

func TestShop_AutoSpendBuysUpgrades(t *testing.T) {
	cfg := survivalConfig("knight", "easy")
	cfg.AutoSpendGold = true
	r := survivalUntil(t, cfg, session.PhaseShop)
	before := r.Player()
	stock := r.Stock()

	require.NoError(t, r.CloseShop())

	after := r.Player()
	assert.GreaterOrEqual(t, after.Gold, 0)
	expected, bought, _ := progression.AutoShop(before, stock)
	assert.Equal(t, expected.Gold, after.Gold)
	assert.Len(t, after.Equipment, len(expected.Equipment))
	for _, it := range bought {
		assert.Equal(t, it.ID, after.Equipment[it.Slot].ID)
	}
}

func TestContinue_SurvivalDefeat(t *testing.T) {
	ledger := mastery.NewLedger(context.Background(), mastery.NewFileStore(filepath.Join(t.TempDir(), "m.json")), zaptest.NewLogger(t))
	d := deps(t, 21)
	d.Ledger = ledger
	r, err := session.NewRun(survivalConfig("wizard", "impossible"), d)
	require.NoError(t, err)

	summary, err := session.Autopilot{MaxSteps: 100000}.Play(context.Background(), r)
	require.NoError(t, err)
	require.Equal(t, session.PhaseOver, summary.Phase)
	require.False(t, r.Abandoned())

	want := progression.MasteryPoints(ruleset.Survival, 0, 0, r.Wave())
	assert.Equal(t, want, r.MasteryEarned())
	assert.Equal(t, want, ledger.Get("wizard").TotalPoints)

	lives := r.Player().Lives
	require.Equal(t, ruleset.SurvivalLives, lives)
	e, ok := r.Enemy()
	require.True(t, ok)
	pending := r.Points()

	require.NoError(t, r.Continue())
	assert.Equal(t, session.PhaseLevelUp, r.Phase())
	assert.Equal(t, lives-1, r.Player().Lives)
	assert.Equal(t, r.Player().EffectiveMaxHP(), r.Player().HP)
	assert.Equal(t, pending+progression.ContinuePoints, r.Points())

	require.NoError(t, r.IncreaseStat(stats.Vitality))
	assert.Equal(t, pending+progression.ContinuePoints-1, r.Points())
	require.NoError(t, r.DecreaseStat(stats.Vitality))
	assert.ErrorIs(t, r.DecreaseStat(stats.Vitality), progression.ErrBelowSnapshot)
	assert.ErrorIs(t, r.IncreaseStat(stats.CritChance), progression.ErrNotAllocatable)

	for range 5 {
		require.NoError(t, r.IncreaseStat(stats.Vitality))
	}
	require.Less(t, r.Player().HP, r.Player().EffectiveMaxHP())

	require.NoError(t, r.FinishLevelUp())
	assert.Equal(t, session.PhaseReady, r.Phase())
	assert.Equal(t, pending+progression.ContinuePoints-5, r.Points(), "unspent points carry over")
	assert.Equal(t, r.Player().EffectiveMaxHP(), r.Player().HP, "retry starts at full HP")
	retry, ok := r.Enemy()
	require.True(t, ok)
	assert.Equal(t, e.ID, retry.ID)
	assert.Equal(t, retry.MaxHP(), retry.HP)
}

func TestContinue_StoryHasNoLives(t *testing.T) {
	r := newRun(t, storyConfig("wizard", "impossible"), 5)
	summary, err := session.Autopilot{MaxSteps: 100000}.Play(context.Background(), r)
	require.NoError(t, err)
	if summary.Phase == session.PhaseOver {
		assert.ErrorIs(t, r.Continue(), session.ErrNoLives)
	}
}

func TestAutoDistribute_OnLevelUp(t *testing.T) {
	cfg := survivalConfig("knight", "easy")
	cfg.AutoDistribute = true
	r := newRun(t, cfg, 2)
	_, err := session.Autopilot{MaxSteps: 100000}.Play(context.Background(), r)
	require.NoError(t, err)
	assert.Zero(t, r.Points())
	p := r.Player()
	gained := (p.Level - 1) * progression.PointsPerLevel
	arch, _ := ruleset.MustLoadDefault().Hero("knight")
	total := p.Stats.Vitality - arch.Vitality + p.Stats.Attack - arch.Attack + p.Stats.Defense - arch.Defense +
		p.Stats.Speed - arch.Speed + p.Stats.Luck - arch.Luck + p.Stats.Precision - arch.Precision
	assert.GreaterOrEqual(t, int(total), gained)
}

func TestAutopilot_StoryRunsEnd_Property(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		seed := rapid.Uint64().Draw(rt, "seed")
		hero := rapid.SampledFrom([]string{"wizard", "knight", "archer", "druid"}).Draw(rt, "hero")
		diff := rapid.SampledFrom([]string{"easy", "medium", "hard", "impossible"}).Draw(rt, "difficulty")

		r := newRun(rt, storyConfig(hero, diff), seed)
		summary, err := session.Autopilot{MaxSteps: 100000}.Play(context.Background(), r)
		require.NoError(rt, err)
		require.Contains(rt, []session.Phase{session.PhaseOver, session.PhaseVictory}, summary.Phase)

		p := r.Player()
		assert.GreaterOrEqual(rt, p.HP, 0)
		assert.LessOrEqual(rt, p.HP, p.EffectiveMaxHP())
		assert.GreaterOrEqual(rt, p.Gold, 0)
		assert.Less(rt, p.XP, p.XPToNextLevel)
		if summary.Phase == session.PhaseVictory {
			assert.Equal(rt, ruleset.MustLoadDefault().FloorCount(), r.FloorNumber())
		} else {
			assert.Zero(rt, p.HP)
		}
		assert.GreaterOrEqual(rt, r.Danger(), r.FloorNumber())
	})
}

func TestAutopilot_StepLimit(t *testing.T) {
	r := newRun(t, survivalConfig("knight", "easy"), 1)
	summary, err := session.Autopilot{MaxSteps: 3}.Play(context.Background(), r)
	assert.ErrorIs(t, err, session.ErrStepLimit)
	assert.Equal(t, 3, summary.Steps)
}

func TestAutopilot_Cancelled(t *testing.T) {
	r := newRun(t, survivalConfig("knight", "easy"), 1)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := session.Autopilot{MaxSteps: 10}.Play(ctx, r)
	assert.True(t, errors.Is(err, context.Canceled))
	assert.True(t, r.Abandoned())
}

func TestAutopilot_CancelledMidBattleAbandons(t *testing.T) {
	r := newRun(t, survivalConfig("knight", "easy"), 1)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	pilot := session.Autopilot{MaxSteps: 10, Pacer: combat.NewPacer(time.Hour, 1, nil)}

	type result struct {
		summary session.Summary
		err     error
	}
	done := make(chan result, 1)
	go func() {
		summary, err := pilot.Play(ctx, r)
		done <- result{summary, err}
	}()

	require.Eventually(t, func() bool { return r.Phase() == session.PhaseBattling }, 5*time.Second, time.Millisecond)
	cancel()

	var res result
	select {
	case res = <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("autopilot did not stop after cancellation")
	}
	assert.ErrorIs(t, res.err, context.Canceled)
	assert.True(t, r.Abandoned())
	assert.Equal(t, session.PhaseOver, r.Phase())
	assert.Equal(t, session.PhaseOver, res.summary.Phase)
	assert.Nil(t, r.Battle())
	assert.Zero(t, r.MasteryEarned())
}

func TestAutopilot_Preconditions(t *testing.T) {
	r := newRun(t, survivalConfig("knight", "easy"), 1)
	assert.Panics(t, func() { _, _ = session.Autopilot{}.Play(context.Background(), r) })
}
