package testutil

import (
	"fmt"
	"sync"

	"github.com/cory-johannsen/dungeon/internal/game/dice"
)

// ScriptedSource is a dice.Source that replays fixed draws so tests can force
// specific rolls. Float64 and Intn draws are consumed from separate queues.
//
// Invariant: every replayed Intn value v satisfies 0 <= v < n.
type ScriptedSource struct {
	mu       sync.Mutex
	floats   []float64
	ints     []int
	fallback dice.Source
}

// NewScriptedSource returns a source replaying floats and ints in order.
//
// Postcondition: once a queue is exhausted, draws from it panic unless a
// fallback is set with WithFallback.
func NewScriptedSource(floats []float64, ints []int) *ScriptedSource {
	return &ScriptedSource{
		floats: append([]float64(nil), floats...),
		ints:   append([]int(nil), ints...),
	}
}

// WithFallback sets the source used once a queue is exhausted.
func (s *ScriptedSource) WithFallback(src dice.Source) *ScriptedSource {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fallback = src
	return s
}

// PushFloats appends further Float64 draws.
func (s *ScriptedSource) PushFloats(v ...float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.floats = append(s.floats, v...)
}

// PushInts appends further Intn draws.
func (s *ScriptedSource) PushInts(v ...int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ints = append(s.ints, v...)
}

// Intn replays the next scripted int.
//
// Precondition: n > 0 and the next scripted value is in [0, n).
func (s *ScriptedSource) Intn(n int) int {
	if n <= 0 {
		panic("testutil: Intn called with n <= 0")
	}
	s.mu.Lock()
	if len(s.ints) == 0 {
		fb := s.fallback
		s.mu.Unlock()
		if fb == nil {
			panic(fmt.Sprintf("testutil: ScriptedSource ran out of Intn(%d) draws", n))
		}
		return fb.Intn(n)
	}
	v := s.ints[0]
	s.ints = s.ints[1:]
	s.mu.Unlock()
	if v < 0 || v >= n {
		panic(fmt.Sprintf("testutil: scripted Intn value %d out of range [0, %d)", v, n))
	}
	return v
}

// Float64 replays the next scripted float.
func (s *ScriptedSource) Float64() float64 {
	s.mu.Lock()
	if len(s.floats) == 0 {
		fb := s.fallback
		s.mu.Unlock()
		if fb == nil {
			panic("testutil: ScriptedSource ran out of Float64 draws")
		}
		return fb.Float64()
	}
	v := s.floats[0]
	s.floats = s.floats[1:]
	s.mu.Unlock()
	return v
}

// Remaining reports how many scripted draws have not been consumed.
func (s *ScriptedSource) Remaining() (floats, ints int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.floats), len(s.ints)
}
