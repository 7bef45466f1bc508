// Package dice provides the single injectable randomness abstraction used by
// every simulation component, plus dice-expression rolls for reward ranges.
package dice

import "fmt"

// RollResult holds the full audit trail for a single dice roll evaluation.
//
// Postcondition: Total() == sum(Dice) + Modifier.
type RollResult struct {
	Expression string // original expression string, e.g. "1d151+49"
	Dice       []int  // individual die results before modifier
	Modifier   int    // flat modifier (may be negative)
}

// Total returns the sum of all die results plus the modifier.
//
// Postcondition: return value == sum(r.Dice) + r.Modifier.
func (r RollResult) Total() int {
	total := r.Modifier
	for _, d := range r.Dice {
		total += d
	}
	return total
}

// String returns a human-readable audit string in the format:
//
//	"1d51+49 → [7] +49 = 56"
//
// Precondition: r.Expression is non-empty.
func (r RollResult) String() string {
	if r.Expression == "" {
		panic("dice: RollResult.String() precondition violated: Expression must be non-empty")
	}
	return fmt.Sprintf("%s → %v %+d = %d", r.Expression, r.Dice, r.Modifier, r.Total())
}

// Source is the randomness provider for every random draw in the simulation.
//
// Implementations MUST be safe for concurrent use.
type Source interface {
	// Intn returns a non-negative random int in [0, n).
	//
	// Precondition: n > 0.
	Intn(n int) int
	// Float64 returns a uniform random float in [0, 1).
	Float64() float64
}

// Uniform returns a uniform float in [lo, hi) drawn from src.
//
// Precondition: lo <= hi.
func Uniform(src Source, lo, hi float64) float64 {
	if lo > hi {
		panic(fmt.Sprintf("dice: Uniform precondition violated: lo %v > hi %v", lo, hi))
	}
	return lo + src.Float64()*(hi-lo)
}

// IntBetween returns a uniform int in [lo, hi] drawn from src.
//
// Precondition: lo <= hi.
func IntBetween(src Source, lo, hi int) int {
	if lo > hi {
		panic(fmt.Sprintf("dice: IntBetween precondition violated: lo %d > hi %d", lo, hi))
	}
	return lo + src.Intn(hi-lo+1)
}

// Pick returns a uniformly chosen element of items.
//
// Precondition: len(items) > 0.
func Pick[T any](src Source, items []T) T {
	if len(items) == 0 {
		panic("dice: Pick precondition violated: items must be non-empty")
	}
	return items[src.Intn(len(items))]
}
