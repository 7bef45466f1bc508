package combat_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/cory-johannsen/dungeon/internal/game/combat"
	"github.com/cory-johannsen/dungeon/internal/game/dice"
	"github.com/cory-johannsen/dungeon/internal/game/stats"
	"github.com/cory-johannsen/dungeon/internal/testutil"
)

// alwaysMiss returns a source whose float draws miss any hit chance below 0.999.
func alwaysMiss() *testutil.ScriptedSource {
	return testutil.NewScriptedSource(nil, nil).WithFallback(constSource(0.999))
}

type constSource float64

func (c constSource) Intn(int) int { return 0 }
func (c constSource) Float64() float64 { return float64(c) }

func TestNewBattle_StartsClean(t *testing.T) {
	player := fighter("hero", stats.Physical, stats.Block{Speed: 10}, 50)
	enemy := fighter("rat", stats.Physical, stats.Block{Speed: 10}, 20)
	b := combat.NewBattle(player, enemy, dice.NewSeededSource(1))

	p, e := b.ActionPoints()
	assert.Zero(t, p)
	assert.Zero(t, e)
	assert.Equal(t, combat.Ongoing, b.Outcome())
	assert.False(t, b.Done())
	assert.NotEmpty(t, b.ID())
	log := b.Log()
	require.Len(t, log, 1)
	assert.Equal(t, combat.EventStart, log[0].Kind)
	_, attacking := b.Attacking()
	assert.False(t, attacking)
}

func TestNewBattle_Preconditions(t *testing.T) {
	ok := fighter("hero", stats.Physical, stats.Block{Speed: 10}, 50)
	dead := fighter("ghost", stats.Physical, stats.Block{Speed: 10}, 50)
	dead.HP = 0
	frozen := fighter("statue", stats.Physical, stats.Block{}, 50)
	odd := fighter("odd", stats.AttackType("psychic"), stats.Block{Speed: 10}, 50)

	assert.Panics(t, func() { combat.NewBattle(ok, ok, nil) })
	assert.Panics(t, func() { combat.NewBattle(dead, ok, dice.NewSeededSource(1)) })
	assert.Panics(t, func() { combat.NewBattle(frozen, frozen, dice.NewSeededSource(1)) })
	assert.Panics(t, func() { combat.NewBattle(ok, odd, dice.NewSeededSource(1)) })
	assert.NotPanics(t, func() { combat.NewBattle(frozen, ok, dice.NewSeededSource(1)) })
}

func TestAdvance_ActionPointOrdering(t *testing.T) {
	player := fighter("hero", stats.Physical, stats.Block{Speed: 50}, 100)
	enemy := fighter("bat", stats.Physical, stats.Block{Speed: 100}, 100)
	b := combat.NewBattle(player, enemy, alwaysMiss())

	want := []struct {
		actor    combat.Side
		playerAP float64
		enemyAP  float64
	}{
		{combat.SideEnemy, 50, 0},
		{combat.SideEnemy, 100, 0}, // tie at 100: the enemy acts
		{combat.SidePlayer, 50, 100},
		{combat.SideEnemy, 100, 100},
		{combat.SideEnemy, 150, 100},
		{combat.SideEnemy, 200, 100},
		{combat.SidePlayer, 150, 200},
	}
	for i, w := range want {
		events := b.Advance()
		require.Len(t, events, 1, "tick %d", i+1)
		assert.Equal(t, combat.EventMiss, events[0].Kind)
		assert.Equal(t, w.actor, events[0].Actor, "tick %d", i+1)
		assert.Equal(t, i+1, events[0].Tick)
		p, e := b.ActionPoints()
		assert.Equal(t, w.playerAP, p, "player ap after tick %d", i+1)
		assert.Equal(t, w.enemyAP, e, "enemy ap after tick %d", i+1)
		side, ok := b.Attacking()
		require.True(t, ok)
		assert.Equal(t, w.actor, side)
	}
}

func TestAdvance_IdleTicksProduceNothing(t *testing.T) {
	player := fighter("hero", stats.Physical, stats.Block{Speed: 30}, 100)
	enemy := fighter("slug", stats.Physical, stats.Block{Speed: 0}, 100)
	b := combat.NewBattle(player, enemy, alwaysMiss())

	assert.Empty(t, b.Advance())
	assert.Empty(t, b.Advance())
	assert.Empty(t, b.Advance())
	_, attacking := b.Attacking()
	assert.False(t, attacking)

	events := b.Advance()
	require.Len(t, events, 1)
	assert.Equal(t, combat.SidePlayer, events[0].Actor)
	p, e := b.ActionPoints()
	assert.Equal(t, 20.0, p, "leftover points carry into the next turn")
	assert.Zero(t, e)
}

func TestAdvance_ActionCountsFollowSpeed_Property(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		ps := rapid.IntRange(1, 200).Draw(rt, "playerSpeed")
		es := rapid.IntRange(1, 200).Draw(rt, "enemySpeed")
		ticks := rapid.IntRange(1, 300).Draw(rt, "ticks")

		player := fighter("hero", stats.Physical, stats.Block{Speed: float64(ps)}, 100)
		enemy := fighter("foe", stats.Physical, stats.Block{Speed: float64(es)}, 100)
		b := combat.NewBattle(player, enemy, alwaysMiss())

		acts := map[combat.Side]int{}
		for i := 0; i < ticks; i++ {
			events := b.Advance()
			assert.LessOrEqual(rt, len(events), 1, "at most one attack per tick")
			for _, ev := range events {
				acts[ev.Actor]++
			}
		}
		p, e := b.ActionPoints()
		assert.Equal(rt, float64(ticks*ps), p+float64(acts[combat.SidePlayer])*combat.ActionThreshold)
		assert.Equal(rt, float64(ticks*es), e+float64(acts[combat.SideEnemy])*combat.ActionThreshold)
		assert.GreaterOrEqual(rt, p, 0.0)
		assert.GreaterOrEqual(rt, e, 0.0)
	})
}

func TestBattle_PlayerWins(t *testing.T) {
	player := fighter("hero", stats.Physical, stats.Block{Speed: 100, Precision: 100, Attack: 30}, 100)
	enemy := fighter("rat", stats.Physical, stats.Block{Speed: 10, Defense: 0}, 25)
	b := combat.NewBattle(player, enemy, dice.NewSeededSource(3))

	b.Run(100)
	require.True(t, b.Done())
	assert.Equal(t, combat.PlayerWon, b.Outcome())
	assert.Zero(t, b.Enemy().HP)
	assert.Equal(t, 100, b.Player().HP)
	log := b.Log()
	assert.Equal(t, combat.EventVictory, log[len(log)-1].Kind)
	assert.Nil(t, b.Advance())

	assert.Equal(t, 25, enemy.HP, "the caller's record is untouched")
}

func TestBattle_EnemyWins(t *testing.T) {
	player := fighter("hero", stats.Physical, stats.Block{Speed: 1, Attack: 1}, 10)
	enemy := fighter("dragon", stats.Magical, stats.Block{Speed: 100, Precision: 100, MagicAttack: 500}, 1000)
	b := combat.NewBattle(player, enemy, dice.NewSeededSource(9))

	b.Run(10)
	assert.Equal(t, combat.EnemyWon, b.Outcome())
	assert.Zero(t, b.Player().HP)
	log := b.Log()
	assert.Equal(t, combat.EventDefeat, log[len(log)-1].Kind)
}

func TestBattle_DeterminationLatchesOnce(t *testing.T) {
	player := fighter("hero", stats.Physical, stats.Block{Speed: 1, Vitality: 10}, 100)
	enemy := fighter("orc", stats.Physical, stats.Block{Speed: 100, Precision: 10, Attack: 10}, 100)
	// every enemy hit deals exactly 10; the eighth leaves the hero at 20
	b := combat.NewBattle(player, enemy, scriptedHits(testutil.NewScriptedSource(nil, []int{3})))

	var kinds []combat.EventKind
	for i := 0; i < 9; i++ {
		for _, ev := range b.Advance() {
			kinds = append(kinds, ev.Kind)
		}
	}
	det := b.Determination()
	assert.True(t, det.Active)
	assert.Equal(t, stats.Vitality, det.Stat)
	assert.InDelta(t, 3+10*0.11, det.Boost, 1e-9)
	count := 0
	for _, k := range kinds {
		if k == combat.EventDetermination {
			count++
		}
	}
	assert.Equal(t, 1, count)
	assert.Equal(t, 10, b.Player().HP)
}

// scriptedHits feeds a hit, a neutral variance, then a failed crit and
// absorption roll for every attack.
func scriptedHits(s *testutil.ScriptedSource) *testutil.ScriptedSource {
	for i := 0; i < 16; i++ {
		s.PushFloats(0.0, 0.5, 0.99, 0.99)
	}
	return s
}

func TestBattle_Cancel(t *testing.T) {
	player := fighter("hero", stats.Physical, stats.Block{Speed: 100, Precision: 10, Attack: 5}, 100)
	enemy := fighter("troll", stats.Physical, stats.Block{Speed: 50, Defense: 5}, 1000)
	b := combat.NewBattle(player, enemy, dice.NewSeededSource(5))
	b.Advance()
	tick := b.Tick()

	b.Cancel()
	assert.True(t, b.Done())
	assert.Equal(t, combat.Cancelled, b.Outcome())
	assert.Nil(t, b.Advance())
	assert.Equal(t, tick, b.Tick())
	log := b.Log()
	assert.Equal(t, combat.EventCancelled, log[len(log)-1].Kind)

	b.Cancel()
	assert.Len(t, b.Log(), len(log), "cancelling twice records nothing new")
}

func TestBattle_CancelAfterVictoryKeepsOutcome(t *testing.T) {
	player := fighter("hero", stats.Physical, stats.Block{Speed: 100, Precision: 100, Attack: 100}, 100)
	enemy := fighter("rat", stats.Physical, stats.Block{Speed: 1}, 1)
	b := combat.NewBattle(player, enemy, dice.NewSeededSource(2))
	b.Run(5)
	require.Equal(t, combat.PlayerWon, b.Outcome())
	b.Cancel()
	assert.Equal(t, combat.PlayerWon, b.Outcome())
}

func TestBattle_SeededRunsAreReproducible_Property(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		seed := rapid.Uint64().Draw(rt, "seed")
		player := fighter("hero", stats.Physical, stats.Block{
			Speed: rapid.Float64Range(1, 150).Draw(rt, "ps"), Precision: 10,
			Attack: rapid.Float64Range(1, 60).Draw(rt, "pa"), Defense: 5, CritMultiplier: 0.5,
		}, 120)
		enemy := fighter("foe", stats.Magical, stats.Block{
			Speed: rapid.Float64Range(1, 150).Draw(rt, "es"), Precision: 10,
			MagicAttack: rapid.Float64Range(1, 60).Draw(rt, "ea"), Defense: 5, CritMultiplier: 0.5,
		}, 120)

		a := combat.NewBattle(player, enemy, dice.NewSeededSource(seed))
		b := combat.NewBattle(player, enemy, dice.NewSeededSource(seed))
		a.Run(2000)
		b.Run(2000)
		assert.Equal(rt, a.Outcome(), b.Outcome())
		assert.Equal(rt, a.Player().HP, b.Player().HP)
		assert.Equal(rt, a.Enemy().HP, b.Enemy().HP)
		assert.Equal(rt, len(a.Log()), len(b.Log()))
	})
}
