package mastery_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/cory-johannsen/dungeon/internal/game/mastery"
)

func TestMarshal_Shape(t *testing.T) {
	d := mastery.Data{"knight": {TotalPoints: 12, SpentPoints: 2, Talents: map[string]int{"grit": 1}}}
	b, err := mastery.Marshal(d)
	require.NoError(t, err)
	assert.JSONEq(t, `{"knight":{"totalPoints":12,"spentPoints":2,"talents":{"grit":1}}}`, string(b))

	empty, err := mastery.Marshal(nil)
	require.NoError(t, err)
	assert.Equal(t, "{}", string(empty))
}

func TestUnmarshal_EmptyAndMissingTalents(t *testing.T) {
	d, err := mastery.Unmarshal(nil)
	require.NoError(t, err)
	assert.Empty(t, d)

	d, err = mastery.Unmarshal([]byte(`{"wizard":{"totalPoints":3}}`))
	require.NoError(t, err)
	assert.NotNil(t, d["wizard"].Talents)
	assert.Equal(t, 3, d["wizard"].Available())

	_, err = mastery.Unmarshal([]byte(`not json`))
	assert.Error(t, err)
}

func TestData_CloneIsDeep(t *testing.T) {
	d := mastery.Data{"druid": {TotalPoints: 1, Talents: map[string]int{"bark": 1}}}
	c := d.Clone()
	c["druid"].Talents["bark"] = 9
	assert.Equal(t, 1, d["druid"].Talents["bark"])
	assert.Equal(t, []string{"druid"}, c.IDs())
}

func TestFileStore_RoundTrip(t *testing.T) {
	ctx := context.Background()
	s := mastery.NewFileStore(filepath.Join(t.TempDir(), "nested", "mastery.json"))

	d, err := s.Load(ctx)
	require.NoError(t, err)
	assert.Empty(t, d, "a missing file is empty data")

	want := mastery.Data{"archer": {TotalPoints: 30, Talents: map[string]int{}}}
	require.NoError(t, s.Save(ctx, want))
	got, err := s.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestFileStore_CorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "mastery.json")
	require.NoError(t, os.WriteFile(path, []byte("{oops"), 0o600))
	_, err := mastery.NewFileStore(path).Load(context.Background())
	assert.Error(t, err)
	assert.Panics(t, func() { mastery.NewFileStore("") })
}

func TestMarshal_RoundTrip_Property(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		d := mastery.Data{}
		n := rapid.IntRange(0, 5).Draw(rt, "n")
		for i := 0; i < n; i++ {
			id := rapid.StringMatching(`[a-z]{1,8}`).Draw(rt, "id")
			total := rapid.IntRange(0, 1000).Draw(rt, "total")
			d[id] = mastery.Record{
				TotalPoints: total,
				SpentPoints: rapid.IntRange(0, total).Draw(rt, "spent"),
				Talents:     map[string]int{},
			}
		}
		b, err := mastery.Marshal(d)
		require.NoError(rt, err)
		back, err := mastery.Unmarshal(b)
		require.NoError(rt, err)
		assert.Equal(rt, d, back)
	})
}
