package npc_test

import (
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/cory-johannsen/dungeon/internal/game/character"
	"github.com/cory-johannsen/dungeon/internal/game/npc"
	"github.com/cory-johannsen/dungeon/internal/game/ruleset"
	"github.com/cory-johannsen/dungeon/internal/game/stats"
)

func catalogue(t testing.TB) *npc.Catalogue {
	t.Helper()
	c, err := npc.LoadCatalogue(ruleset.DefaultContent())
	require.NoError(t, err)
	return c
}

func difficulty(t testing.TB, id string) ruleset.Difficulty {
	t.Helper()
	d, ok := ruleset.MustLoadDefault().Difficulty(id)
	require.True(t, ok)
	return d
}

func TestLoadCatalogue_Default(t *testing.T) {
	c := catalogue(t)
	assert.Equal(t, 9, c.Len())
	dragon, known := c.Lookup("Red Dragon")
	assert.True(t, known)
	assert.Equal(t, stats.Magical, dragon.AttackType)
	assert.Equal(t, 30.0, dragon.MagicAttack)
}

func TestLookup_UnknownFallsBackToSkeleton(t *testing.T) {
	tmpl, known := catalogue(t).Lookup("Lich King")
	assert.False(t, known)
	assert.Equal(t, "Skeleton", tmpl.Name)
}

func TestSpawn_SkeletonLevelOne(t *testing.T) {
	e := catalogue(t).Spawn(npc.Request{
		Name: "Skeleton", Level: 1, Difficulty: difficulty(t, "medium"),
		Mode: ruleset.Survival, Tier: character.TierNormal, ID: "wave-1",
	})
	assert.Equal(t, "wave-1", e.ID)
	assert.Equal(t, "Skeleton", e.Name)
	assert.Equal(t, character.TierNormal, e.Tier)
	assert.True(t, e.IsEnemy())
	// hp 15 + 10*2 + 5 = 40 -> vitality 4 -> max HP 36
	assert.Equal(t, 4.0, e.Stats.Vitality)
	assert.Equal(t, 36, e.MaxHP())
	assert.Equal(t, 36, e.HP)
	assert.Equal(t, 11.0, e.Stats.Attack)
	assert.Equal(t, 1.0, e.Stats.MagicAttack)
	assert.Equal(t, 7.0, e.Stats.Defense)
	assert.Equal(t, 5.0, e.Stats.MagicDefense)
	assert.Equal(t, 10.0, e.Stats.Speed)
	assert.Equal(t, 10.0, e.Stats.Precision)
	assert.Equal(t, 5.5, e.Stats.Luck)
}

func TestSpawn_StoryNormalDiscount(t *testing.T) {
	c := catalogue(t)
	base := npc.Request{Name: "Orc", Level: 5, Difficulty: difficulty(t, "medium"), Tier: character.TierNormal}
	survival := base
	survival.Mode = ruleset.Survival
	story := base
	story.Mode = ruleset.Story

	s := c.Spawn(survival)
	st := c.Spawn(story)
	assert.Less(t, st.Stats.Attack, s.Stats.Attack)
	assert.Less(t, st.MaxHP(), s.MaxHP())

	elite := base
	elite.Mode = ruleset.Story
	elite.Tier = character.TierElite
	eliteSurvival := elite
	eliteSurvival.Mode = ruleset.Survival
	assert.Equal(t, c.Spawn(eliteSurvival).Stats, c.Spawn(elite).Stats, "discount applies to normal tier only")
}

func TestSpawn_BossBuffAddsHP(t *testing.T) {
	c := catalogue(t)
	req := npc.Request{Name: "Ogre", Level: 3, Difficulty: difficulty(t, "hard"), Mode: ruleset.Story, Tier: character.TierBoss}
	plain := c.Spawn(req)
	req.BossBuff = true
	buffed := c.Spawn(req)
	assert.Greater(t, buffed.MaxHP(), plain.MaxHP())
	assert.Equal(t, plain.Stats.Attack, buffed.Stats.Attack)
}

func TestSpawn_TierOrdering_Property(t *testing.T) {
	c := catalogue(t)
	rules := ruleset.MustLoadDefault()
	rapid.Check(t, func(rt *rapid.T) {
		name := rapid.SampledFrom([]string{"Skeleton", "Giant Spider", "Goblin", "Vampire Bat", "Orc", "Ogre", "Necromancer", "Stone Golem", "Red Dragon"}).Draw(rt, "name")
		level := rapid.IntRange(1, 40).Draw(rt, "level")
		diff, _ := rules.Difficulty(rapid.SampledFrom(rules.DifficultyIDs()).Draw(rt, "difficulty"))
		mode := rapid.SampledFrom([]ruleset.Mode{ruleset.Story, ruleset.Survival}).Draw(rt, "mode")

		spawn := func(tier character.Tier) character.Character {
			return c.Spawn(npc.Request{Name: name, Level: level, Difficulty: diff, Mode: mode, Tier: tier})
		}
		normal, elite, boss := spawn(character.TierNormal), spawn(character.TierElite), spawn(character.TierBoss)
		for _, e := range []character.Character{normal, elite, boss} {
			assert.GreaterOrEqual(rt, e.HP, 1)
			assert.Equal(rt, e.MaxHP(), e.HP)
			assert.Equal(rt, e.Stats.Vitality*9, e.Stats.MaxHP)
			offense := e.Stat(e.AttackType.OffenseKey())
			assert.Equal(rt, float64(int(offense)), offense)
			assert.NotEmpty(rt, e.ID)
		}
		assert.GreaterOrEqual(rt, elite.MaxHP(), normal.MaxHP())
		assert.GreaterOrEqual(rt, boss.MaxHP(), elite.MaxHP())
		assert.GreaterOrEqual(rt, boss.Stats.Attack, elite.Stats.Attack)
		assert.GreaterOrEqual(rt, boss.Stats.Defense, elite.Stats.Defense)
	})
}

func TestSpawn_DerivedChancesComeFromStatModel(t *testing.T) {
	e := catalogue(t).Spawn(npc.Request{Name: "Goblin", Level: 10, Difficulty: difficulty(t, "medium"), Mode: ruleset.Survival, Tier: character.TierNormal})
	totalAttack := e.Stats.Attack + e.Stats.MagicAttack
	want := totalAttack*0.0011 + e.Stats.Luck*0.004 + 9*0.0017
	assert.InDelta(t, want, e.Stats.CritChance, 1e-9)

	totalDefense := e.Stats.Defense + e.Stats.MagicDefense
	wantAbsorb := totalDefense*0.0005 + e.Stats.Luck*0.004 + 9*0.0017
	assert.InDelta(t, wantAbsorb, e.Stats.AbsorptionChance, 1e-9)
}

func TestSpawn_Preconditions(t *testing.T) {
	c := catalogue(t)
	med := difficulty(t, "medium")
	assert.Panics(t, func() { c.Spawn(npc.Request{Name: "Orc", Level: 0, Difficulty: med, Tier: character.TierNormal}) })
	assert.Panics(t, func() { c.Spawn(npc.Request{Name: "Orc", Level: 1, Difficulty: med, Tier: "mythic"}) })
	assert.Panics(t, func() { c.Spawn(npc.Request{Name: "Orc", Level: 1, Tier: character.TierNormal}) })
}

func TestLoadTemplateFromBytes(t *testing.T) {
	tmpl, err := npc.LoadTemplateFromBytes([]byte(`
name: Wraith
attack_type: magical
vitality: 9
magic_attack: 14
magic_defense: 12
speed: 11
`))
	require.NoError(t, err)
	assert.Equal(t, "Wraith", tmpl.Name)
	assert.Equal(t, 14.0, tmpl.MagicAttack)

	_, err = npc.LoadTemplateFromBytes([]byte(`name: Blob
attack_type: physical
vitality: 0
`))
	assert.ErrorContains(t, err, "vitality must be >= 1")

	_, err = npc.LoadTemplateFromBytes([]byte(`name: Imp
attack_type: fire
vitality: 3
`))
	assert.ErrorContains(t, err, "attack_type")
}

func TestLoadCatalogue_MissingFallback(t *testing.T) {
	fsys := fstest.MapFS{ruleset.EnemiesFile: {Data: []byte(`
fallback: Zombie
enemies:
  - name: Skeleton
    attack_type: physical
    vitality: 10
`)}}
	_, err := npc.LoadCatalogue(fsys)
	assert.ErrorContains(t, err, `fallback enemy "Zombie"`)
}
