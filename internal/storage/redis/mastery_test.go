package redis_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"pgregory.net/rapid"

	"github.com/cory-johannsen/dungeon/internal/config"
	"github.com/cory-johannsen/dungeon/internal/game/mastery"
	"github.com/cory-johannsen/dungeon/internal/storage/redis"
	"github.com/cory-johannsen/dungeon/internal/testutil"
)

func TestNewClient_RequiresAddr(t *testing.T) {
	_, err := redis.NewClient(config.RedisConfig{})
	assert.Error(t, err)
}

func TestHealth(t *testing.T) {
	client, mr := testutil.NewRedis(t)
	require.NoError(t, redis.Health(context.Background(), client, time.Second))

	mr.SetError("LOADING")
	assert.Error(t, redis.Health(context.Background(), client, time.Second))
}

func TestMasteryRepository_LoadMissing(t *testing.T) {
	client, _ := testutil.NewRedis(t)
	repo := redis.NewMasteryRepository(client, "mastery")

	d, err := repo.Load(context.Background())
	require.NoError(t, err)
	assert.Empty(t, d)
}

func TestMasteryRepository_SaveLoadDelete(t *testing.T) {
	client, mr := testutil.NewRedis(t)
	repo := redis.NewMasteryRepository(client, "mastery")
	ctx := context.Background()

	want := mastery.Data{"hero-1": {TotalPoints: 6, SpentPoints: 1, Talents: map[string]int{"vitality": 1}}}
	require.NoError(t, repo.Save(ctx, want))
	assert.True(t, mr.Exists("dungeon:mastery:mastery"))
	assert.Equal(t, "dungeon:mastery:mastery", repo.Key())

	got, err := repo.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, want, got)

	require.NoError(t, repo.Delete(ctx))
	assert.False(t, mr.Exists(repo.Key()))
}

func TestMasteryRepository_CorruptValue(t *testing.T) {
	client, mr := testutil.NewRedis(t)
	repo := redis.NewMasteryRepository(client, "mastery")
	require.NoError(t, mr.Set(repo.Key(), "{not json"))

	_, err := repo.Load(context.Background())
	assert.Error(t, err)
}

func TestMasteryRepository_ServerErrors(t *testing.T) {
	client, mr := testutil.NewRedis(t)
	repo := redis.NewMasteryRepository(client, "mastery")
	mr.SetError("READONLY")
	ctx := context.Background()

	_, err := repo.Load(ctx)
	assert.Error(t, err)
	assert.Error(t, repo.Save(ctx, mastery.Data{}))
	assert.Error(t, repo.Delete(ctx))
}

func TestMasteryRepository_LedgerSurvivesReload(t *testing.T) {
	client, _ := testutil.NewRedis(t)
	repo := redis.NewMasteryRepository(client, "mastery")
	ctx := context.Background()

	ledger := mastery.NewLedger(ctx, repo, zap.NewNop())
	ledger.Award(ctx, "hero-1", 3)
	ledger.Award(ctx, "hero-2", 8)

	reloaded := mastery.NewLedger(ctx, repo, zap.NewNop())
	assert.Equal(t, 3, reloaded.Get("hero-1").TotalPoints)
	assert.Equal(t, 8, reloaded.Get("hero-2").TotalPoints)
}

func TestMasteryRepository_RoundTrip_Property(t *testing.T) {
	client, _ := testutil.NewRedis(t)
	ctx := context.Background()

	rapid.Check(t, func(rt *rapid.T) {
		repo := redis.NewMasteryRepository(client, rapid.StringMatching(`[a-z]{1,12}`).Draw(rt, "key"))
		d := mastery.Data{}
		n := rapid.IntRange(0, 5).Draw(rt, "n")
		for i := 0; i < n; i++ {
			total := rapid.IntRange(0, 1000).Draw(rt, "total")
			d[fmt.Sprintf("hero-%d", i)] = mastery.Record{
				TotalPoints: total,
				SpentPoints: rapid.IntRange(0, total).Draw(rt, "spent"),
				Talents:     map[string]int{},
			}
		}
		if err := repo.Save(ctx, d); err != nil {
			rt.Fatalf("save: %v", err)
		}
		got, err := repo.Load(ctx)
		if err != nil {
			rt.Fatalf("load: %v", err)
		}
		if len(got) != len(d) {
			rt.Fatalf("loaded %d records, want %d", len(got), len(d))
		}
		for id, rec := range d {
			if got[id].TotalPoints != rec.TotalPoints || got[id].SpentPoints != rec.SpentPoints {
				rt.Fatalf("record %s: got %+v want %+v", id, got[id], rec)
			}
		}
	})
}

func TestNewMasteryRepository_Preconditions(t *testing.T) {
	client, _ := testutil.NewRedis(t)
	assert.Panics(t, func() { redis.NewMasteryRepository(nil, "k") })
	assert.Panics(t, func() { redis.NewMasteryRepository(client, "") })
}
