package ruleset

import "fmt"

// Mode selects the run structure.
type Mode string

const (
	// Survival is an endless sequence of waves with extra lives.
	Survival Mode = "survival"
	// Story is a three-floor map crawl ending in victory.
	Story Mode = "story"
)

// SurvivalLives is the number of extra lives a survival hero starts with.
const SurvivalLives = 2

// Valid reports whether m is a known mode.
func (m Mode) Valid() bool {
	return m == Survival || m == Story
}

// ParseMode resolves a mode name.
func ParseMode(s string) (Mode, error) {
	m := Mode(s)
	if !m.Valid() {
		return "", fmt.Errorf("unknown game mode %q", s)
	}
	return m, nil
}
