package progression

import (
	"errors"
	"fmt"

	"github.com/cory-johannsen/dungeon/internal/game/character"
	"github.com/cory-johannsen/dungeon/internal/game/stats"
)

// ErrNoPoints is returned when spending a point with none pending.
var ErrNoPoints = errors.New("no attribute points available")

// ErrNotAllocatable is returned for stats that cannot take attribute points.
var ErrNotAllocatable = errors.New("stat does not accept attribute points")

// ErrBelowSnapshot is returned when lowering a stat below its value at the
// start of the allocation.
var ErrBelowSnapshot = errors.New("stat already at its starting value")

// Allocator tracks pending attribute points for one level-up screen.
//
// Decreases are refunded only down to the value each stat held when the
// allocator was created.
type Allocator struct {
	snapshot stats.Block
	points   int
}

// NewAllocator opens an allocation over player's current stats.
//
// Precondition: points >= 0.
func NewAllocator(player character.Character, points int) *Allocator {
	if points < 0 {
		panic(fmt.Sprintf("progression: NewAllocator precondition violated: points %d < 0", points))
	}
	return &Allocator{snapshot: player.Stats, points: points}
}

// Points returns the number of unspent points.
func (a *Allocator) Points() int { return a.points }

// Grant adds points to the pending pool.
func (a *Allocator) Grant(points int) {
	a.points += max(0, points)
}

// Snapshot returns the stats recorded when the allocation opened.
func (a *Allocator) Snapshot() stats.Block { return a.snapshot }

// Increase spends one point on k.
//
// Postcondition: on error the returned record equals player.
func (a *Allocator) Increase(player character.Character, k stats.Key) (character.Character, error) {
	if !k.Allocatable() {
		return player, fmt.Errorf("increase %s: %w", k, ErrNotAllocatable)
	}
	if a.points <= 0 {
		return player, fmt.Errorf("increase %s: %w", k, ErrNoPoints)
	}
	out := player.Clone()
	out.Stats.Add(k, 1)
	a.points--
	return out, nil
}

// Decrease refunds one point from k.
//
// Postcondition: on error the returned record equals player; HP never
// exceeds the new effective max HP.
func (a *Allocator) Decrease(player character.Character, k stats.Key) (character.Character, error) {
	if !k.Allocatable() {
		return player, fmt.Errorf("decrease %s: %w", k, ErrNotAllocatable)
	}
	if player.Stats.Get(k) <= a.snapshot.Get(k) {
		return player, fmt.Errorf("decrease %s: %w", k, ErrBelowSnapshot)
	}
	out := player.Clone()
	out.Stats.Add(k, -1)
	out.HP = min(out.HP, out.EffectiveMaxHP())
	a.points++
	return out, nil
}

// AutoDistribute spends every pending point round-robin over
// DistributionOrder.
//
// Postcondition: a.Points() == 0.
func (a *Allocator) AutoDistribute(player character.Character) character.Character {
	out := Distribute(player, a.points)
	a.points = 0
	return out
}

// DistributionOrder lists the stats auto-distribution cycles through for a
// hero of the given attack type.
func DistributionOrder(at stats.AttackType) []stats.Key {
	return []stats.Key{
		stats.Vitality, at.OffenseKey(), at.DefenseKey(),
		stats.Speed, stats.Luck, stats.Precision,
	}
}

// Distribute returns player with points spent round-robin over
// DistributionOrder.
//
// Precondition: player.AttackType.Valid().
func Distribute(player character.Character, points int) character.Character {
	out := player.Clone()
	order := DistributionOrder(player.AttackType)
	for i := 0; i < points; i++ {
		out.Stats.Add(order[i%len(order)], 1)
	}
	return out
}
