package session_test

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cory-johannsen/dungeon/internal/game/ruleset"
	"github.com/cory-johannsen/dungeon/internal/game/session"
)

func TestManager_AddGetRemove(t *testing.T) {
	m := session.NewManager()
	r := newRun(t, storyConfig("knight", "medium"), 1)

	require.NoError(t, m.Add(r))
	assert.Equal(t, 1, m.Count())
	got, ok := m.Get(r.ID())
	require.True(t, ok)
	assert.Same(t, r, got)

	require.NoError(t, m.Remove(r.ID()))
	assert.Equal(t, 0, m.Count())
	assert.True(t, r.Feed().IsClosed())
	assert.True(t, r.Abandoned())
	assert.Equal(t, session.PhaseOver, r.Phase())
}

func TestManager_AddDuplicate(t *testing.T) {
	m := session.NewManager()
	r := newRun(t, storyConfig("knight", "medium"), 1)
	require.NoError(t, m.Add(r))
	assert.Error(t, m.Add(r))
}

func TestManager_RemoveUnknown(t *testing.T) {
	m := session.NewManager()
	assert.Error(t, m.Remove("missing"))
	_, ok := m.Get("missing")
	assert.False(t, ok)
}

func TestManager_ConcurrentAdd(t *testing.T) {
	m := session.NewManager()
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(seed int) {
			defer wg.Done()
			r := newRun(t, session.Config{Mode: ruleset.Survival, Hero: "archer", Difficulty: "easy"}, uint64(seed))
			assert.NoError(t, m.Add(r), fmt.Sprintf("run %d", seed))
		}(i)
	}
	wg.Wait()
	assert.Equal(t, 20, m.Count())
	assert.Len(t, m.IDs(), 20)
}

func TestManager_AddNilPanics(t *testing.T) {
	assert.Panics(t, func() { _ = session.NewManager().Add(nil) })
}
